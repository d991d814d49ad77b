package reconcile

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
)

const (
	outcomeDeleted    = "deleted"
	outcomeReferenced = "referenced"
)

type reconcileMetrics struct {
	handled metric.Int64Counter
	failure metric.Int64Counter
	age     metric.Float64Histogram
	enabled bool
}

func newMetrics() *reconcileMetrics {
	provider := otel.GetMeterProvider()
	if provider == nil {
		provider = noopmetric.NewMeterProvider()
	}
	meter := provider.Meter("lingo-services-course.reconcile")

	handled, err := meter.Int64Counter("course_orphan_reconciled_total",
		metric.WithDescription("Number of orphan candidates resolved, by outcome"))
	if err != nil {
		return &reconcileMetrics{}
	}
	failure, err := meter.Int64Counter("course_orphan_reconcile_failure_total",
		metric.WithDescription("Number of orphan candidates that failed and will be redelivered"))
	if err != nil {
		return &reconcileMetrics{}
	}
	age, err := meter.Float64Histogram("course_orphan_age_ms",
		metric.WithDescription("Time between orphan detection and reconciliation"),
		metric.WithUnit("ms"))
	if err != nil {
		return &reconcileMetrics{}
	}
	return &reconcileMetrics{handled: handled, failure: failure, age: age, enabled: true}
}

func (m *reconcileMetrics) recordHandled(ctx context.Context, kind, outcome string, detectedAt, now time.Time) {
	if m == nil || !m.enabled {
		return
	}
	m.handled.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", outcome),
	))
	if !detectedAt.IsZero() {
		age := now.Sub(detectedAt).Milliseconds()
		if age < 0 {
			age = 0
		}
		m.age.Record(ctx, float64(age), metric.WithAttributes(attribute.String("kind", kind)))
	}
}

func (m *reconcileMetrics) recordFailure(ctx context.Context, kind string) {
	if m == nil || !m.enabled {
		return
	}
	m.failure.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}
