package metrics

import (
	"context"
	"time"

	"github.com/aretw0/gatehook/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
)

// collectTimeout bounds one scrape of the stores.
const collectTimeout = 5 * time.Second

var (
	sessionsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "sessions"),
		"Stored session records", nil, nil,
	)
	pendingGatesDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "pending_gates"),
		"Sessions with a gate awaiting a verdict", nil, nil,
	)
	activeChainsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "active_chains"),
		"Sessions with steps left in their chain", nil, nil,
	)
	ledgersDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", "loop_ledgers"),
		"Loop ledgers on record", nil, nil,
	)
)

// StateCollector reports gauges computed from the stores at scrape time.
type StateCollector struct {
	sessions ports.StateStore
	ledger   ports.LedgerStore
}

// NewStateCollector creates a collector. ledger may be nil.
func NewStateCollector(sessions ports.StateStore, ledger ports.LedgerStore) *StateCollector {
	return &StateCollector{sessions: sessions, ledger: ledger}
}

// Describe implements prometheus.Collector.
func (c *StateCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- sessionsDesc
	ch <- pendingGatesDesc
	ch <- activeChainsDesc
	if c.ledger != nil {
		ch <- ledgersDesc
	}
}

// Collect implements prometheus.Collector. Unreadable records are skipped.
func (c *StateCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), collectTimeout)
	defer cancel()

	ids, err := c.sessions.List(ctx)
	if err != nil {
		ch <- prometheus.NewInvalidMetric(sessionsDesc, err)
		return
	}
	var pending, chains int
	for _, id := range ids {
		s, err := c.sessions.Load(ctx, id)
		if err != nil {
			continue
		}
		if s.HasPendingGate() {
			pending++
		}
		if s.ChainUnfinished() {
			chains++
		}
	}
	ch <- prometheus.MustNewConstMetric(sessionsDesc, prometheus.GaugeValue, float64(len(ids)))
	ch <- prometheus.MustNewConstMetric(pendingGatesDesc, prometheus.GaugeValue, float64(pending))
	ch <- prometheus.MustNewConstMetric(activeChainsDesc, prometheus.GaugeValue, float64(chains))

	if c.ledger == nil {
		return
	}
	loops, err := c.ledger.List(ctx)
	if err != nil {
		ch <- prometheus.NewInvalidMetric(ledgersDesc, err)
		return
	}
	ch <- prometheus.MustNewConstMetric(ledgersDesc, prometheus.GaugeValue, float64(len(loops)))
}
