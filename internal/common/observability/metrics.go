package observability

import (
	"context"
	"fmt"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Outcome values recorded with every enrollment operation.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

type Observability struct {
	meterProvider      *metric.MeterProvider
	meter              otelmetric.Meter
	enrollmentCounter  otelmetric.Int64Counter
	enrollmentDuration otelmetric.Float64Histogram
}

// New builds an OpenTelemetry meter exported through reg. A nil reg uses the
// default Prometheus registerer.
func New(serviceName string, reg promclient.Registerer) (*Observability, error) {
	if reg == nil {
		reg = promclient.DefaultRegisterer
	}

	exporter, err := prometheus.New(prometheus.WithRegisterer(reg))
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	enrollmentCounter, err := meter.Int64Counter(
		"enrollments.processed",
		otelmetric.WithDescription("Number of signup and unregister operations"),
	)
	if err != nil {
		return nil, fmt.Errorf("create enrollment counter: %w", err)
	}

	enrollmentDuration, err := meter.Float64Histogram(
		"enrollments.duration",
		otelmetric.WithDescription("Enrollment operation duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("create enrollment histogram: %w", err)
	}

	return &Observability{
		meterProvider:      provider,
		meter:              meter,
		enrollmentCounter:  enrollmentCounter,
		enrollmentDuration: enrollmentDuration,
	}, nil
}

// NewNoop returns an Observability that records nothing.
func NewNoop() *Observability {
	return &Observability{}
}

func (o *Observability) RecordEnrollment(ctx context.Context, operation, outcome string, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("outcome", outcome),
	)
	if o.enrollmentCounter != nil {
		o.enrollmentCounter.Add(ctx, 1, attrs)
	}
	if o.enrollmentDuration != nil {
		o.enrollmentDuration.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	}
}

func (o *Observability) Shutdown() {
	if o != nil && o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = o.meterProvider.Shutdown(ctx)
	}
}
