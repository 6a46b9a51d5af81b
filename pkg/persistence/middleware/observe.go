package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/aretw0/gatehook/pkg/domain"
	"github.com/aretw0/gatehook/pkg/ports"
)

// Store operation results.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultCorrupt  = "corrupt"
	ResultError    = "error"
)

// Observer receives one call per store operation.
type Observer interface {
	ObserveStore(op, result string, elapsed time.Duration)
}

type observeMiddleware struct {
	next     ports.StateStore
	observer Observer
}

// NewObserveMiddleware reports every operation, its result class and latency to o.
func NewObserveMiddleware(o Observer) Middleware {
	return func(next ports.StateStore) ports.StateStore {
		return &observeMiddleware{next: next, observer: o}
	}
}

func (m *observeMiddleware) observe(op string, start time.Time, err error) {
	m.observer.ObserveStore(op, Result(err), time.Since(start))
}

func (m *observeMiddleware) Save(ctx context.Context, sessionID string, state *domain.SessionState) error {
	start := time.Now()
	err := m.next.Save(ctx, sessionID, state)
	m.observe("save", start, err)
	return err
}

func (m *observeMiddleware) Load(ctx context.Context, sessionID string) (*domain.SessionState, error) {
	start := time.Now()
	state, err := m.next.Load(ctx, sessionID)
	m.observe("load", start, err)
	return state, err
}

func (m *observeMiddleware) Delete(ctx context.Context, sessionID string) error {
	start := time.Now()
	err := m.next.Delete(ctx, sessionID)
	m.observe("delete", start, err)
	return err
}

func (m *observeMiddleware) List(ctx context.Context) ([]string, error) {
	start := time.Now()
	ids, err := m.next.List(ctx)
	m.observe("list", start, err)
	return ids, err
}

// Result classifies a store error.
func Result(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, domain.ErrSessionNotFound):
		return ResultNotFound
	case errors.Is(err, domain.ErrCorruptState):
		return ResultCorrupt
	default:
		return ResultError
	}
}
