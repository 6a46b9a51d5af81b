// Package metrics exposes hook telemetry and state gauges to Prometheus.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gatehook"

// Recorder implements hooks.Recorder on a private registry.
type Recorder struct {
	registry     *prometheus.Registry
	hooksTotal   *prometheus.CounterVec
	hookDuration *prometheus.HistogramVec
	gatesTotal   *prometheus.CounterVec
	ledgerTotal  *prometheus.CounterVec
	storeTotal   *prometheus.CounterVec
	storeLatency *prometheus.HistogramVec
}

// NewRecorder creates a recorder with its own registry, including the Go
// runtime and process collectors.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		hooksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "hooks_total",
				Help:      "Hook invocations by hook and outcome",
			},
			[]string{"hook", "outcome"},
		),
		hookDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "hook_duration_seconds",
				Help:      "Time spent handling one hook payload",
				Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
			},
			[]string{"hook"},
		),
		gatesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gate_decisions_total",
				Help:      "Gate enforcement decisions on governed calls",
			},
			[]string{"outcome"},
		),
		ledgerTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_entries_total",
				Help:      "Entries appended to loop ledgers by kind",
			},
			[]string{"kind"},
		),
		storeTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_operations_total",
				Help:      "Session store operations by operation and result",
			},
			[]string{"op", "result"},
		),
		storeLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_operation_seconds",
				Help:      "Session store operation latency",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
			},
			[]string{"op"},
		),
	}
}

// ObserveHook records one handled payload.
func (r *Recorder) ObserveHook(name, outcome string, elapsed time.Duration) {
	r.hooksTotal.WithLabelValues(name, outcome).Inc()
	r.hookDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}

// ObserveGate records one enforcement decision.
func (r *Recorder) ObserveGate(outcome string) {
	r.gatesTotal.WithLabelValues(outcome).Inc()
}

// ObserveStore records one session store operation.
func (r *Recorder) ObserveStore(op, result string, elapsed time.Duration) {
	r.storeTotal.WithLabelValues(op, result).Inc()
	r.storeLatency.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObserveLedger records n appended ledger entries.
func (r *Recorder) ObserveLedger(kind string, n int) {
	r.ledgerTotal.WithLabelValues(kind).Add(float64(n))
}

// Register adds extra collectors, such as a StateCollector.
func (r *Recorder) Register(cs ...prometheus.Collector) error {
	for _, c := range cs {
		if err := r.registry.Register(c); err != nil {
			return fmt.Errorf("failed to register collector: %w", err)
		}
	}
	return nil
}

// Gatherer exposes the registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// WriteTextfile snapshots collectors into path for the node exporter textfile
// collector. The file is replaced atomically.
func WriteTextfile(path string, cs ...prometheus.Collector) error {
	reg := prometheus.NewRegistry()
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			return fmt.Errorf("failed to register collector: %w", err)
		}
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
