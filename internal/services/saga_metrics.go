package services

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	noopmetric "go.opentelemetry.io/otel/metric/noop"
)

var (
	sagaMetricsMu        sync.Mutex
	sagaMetricsEnabled   bool
	sagaCompensationCtr  metric.Int64Counter
	sagaCleanupFailedCtr metric.Int64Counter
	orphanReportedCtr    metric.Int64Counter
)

const (
	sagaCompensationMetricName = "course_saga_compensations_total"
	sagaCleanupFailedName      = "course_saga_cleanup_failures_total"
	orphanReportedMetricName   = "course_orphan_candidates_total"
)

var (
	attrSaga   = attribute.Key("saga")
	attrAction = attribute.Key("action")
	attrKind   = attribute.Key("orphan_kind")
	attrResult = attribute.Key("result")
)

type sagaMetrics struct{}

func newSagaMetrics() *sagaMetrics {
	sagaMetricsMu.Lock()
	defer sagaMetricsMu.Unlock()
	if !sagaMetricsEnabled {
		initSagaMetricsLocked()
	}
	return &sagaMetrics{}
}

func initSagaMetricsLocked() {
	provider := otel.GetMeterProvider()
	if provider == nil {
		provider = noopmetric.NewMeterProvider()
	}
	meter := provider.Meter("lingo-services-course.services.saga")

	var err error
	sagaCompensationCtr, err = meter.Int64Counter(sagaCompensationMetricName,
		metric.WithDescription("Number of compensating actions executed after a failed saga step"))
	if err != nil {
		return
	}
	sagaCleanupFailedCtr, err = meter.Int64Counter(sagaCleanupFailedName,
		metric.WithDescription("Number of best-effort cleanup actions that failed"))
	if err != nil {
		return
	}
	orphanReportedCtr, err = meter.Int64Counter(orphanReportedMetricName,
		metric.WithDescription("Number of orphan candidates handed to the reconciliation channel"))
	if err != nil {
		return
	}
	sagaMetricsEnabled = true
}

func (m *sagaMetrics) recordCompensation(ctx context.Context, saga, action string, failed bool) {
	if m == nil || !sagaMetricsEnabled {
		return
	}
	result := "ok"
	if failed {
		result = "failed"
	}
	sagaCompensationCtr.Add(ctx, 1, metric.WithAttributes(
		attrSaga.String(saga),
		attrAction.String(action),
		attrResult.String(result),
	))
}

func (m *sagaMetrics) recordCleanupFailure(ctx context.Context, saga, action string) {
	if m == nil || !sagaMetricsEnabled {
		return
	}
	sagaCleanupFailedCtr.Add(ctx, 1, metric.WithAttributes(
		attrSaga.String(saga),
		attrAction.String(action),
	))
}

func (m *sagaMetrics) recordOrphan(ctx context.Context, kind string, reported bool) {
	if m == nil || !sagaMetricsEnabled {
		return
	}
	result := "enqueued"
	if !reported {
		result = "dropped"
	}
	orphanReportedCtr.Add(ctx, 1, metric.WithAttributes(
		attrKind.String(kind),
		attrResult.String(result),
	))
}
