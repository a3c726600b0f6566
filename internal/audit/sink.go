// Package audit delivers enrollment events to best-effort sinks such as the
// Postgres audit table and the Redis event feed.
package audit

import (
	"context"
	"errors"
	"fmt"

	"mergington-activities/internal/models"
)

// Sink consumes enrollment events. Implementations must be safe for
// concurrent use.
type Sink interface {
	Record(ctx context.Context, event models.EnrollmentEvent) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, event models.EnrollmentEvent) error

func (f SinkFunc) Record(ctx context.Context, event models.EnrollmentEvent) error {
	return f(ctx, event)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Record(context.Context, models.EnrollmentEvent) error { return nil }

// Named labels a sink for error messages and logs.
type Named struct {
	Name string
	Sink Sink
}

// Multi fans an event out to every sink. A failing sink does not stop the
// others; all failures are joined into the returned error.
type Multi struct {
	sinks []Named
}

func NewMulti(sinks ...Named) *Multi {
	return &Multi{sinks: sinks}
}

// Len reports how many sinks are attached.
func (m *Multi) Len() int {
	return len(m.sinks)
}

func (m *Multi) Record(ctx context.Context, event models.EnrollmentEvent) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Sink.Record(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
		}
	}
	return errors.Join(errs...)
}
