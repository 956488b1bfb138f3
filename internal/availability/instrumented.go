package availability

import (
	"context"
	"time"
)

// MetricsRecorder receives one observation per store operation.
type MetricsRecorder interface {
	RecordStoreOperation(backend, op, status string, duration float64)
}

// Instrumented reports every operation of the wrapped Store to a MetricsRecorder.
type Instrumented struct {
	next    Store
	backend string
	metrics MetricsRecorder
}

// NewInstrumented wraps next. backend is used as the metric label.
func NewInstrumented(next Store, backend string, metrics MetricsRecorder) *Instrumented {
	return &Instrumented{next: next, backend: backend, metrics: metrics}
}

// Save implements Store.
func (s *Instrumented) Save(ctx context.Context, key string, lines []string) error {
	start := time.Now()
	err := s.next.Save(ctx, key, lines)
	s.record("save", err, start)
	return err
}

// Load implements Store.
func (s *Instrumented) Load(ctx context.Context, key string) ([]string, error) {
	start := time.Now()
	lines, err := s.next.Load(ctx, key)
	s.record("load", err, start)
	return lines, err
}

// Ping implements Store.
func (s *Instrumented) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

func (s *Instrumented) record(op string, err error, start time.Time) {
	if s.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	s.metrics.RecordStoreOperation(s.backend, op, status, time.Since(start).Seconds())
}
