package reconcile_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestHandlerRecordsOutcomeMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	previous := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)
	t.Cleanup(func() { otel.SetMeterProvider(previous) })

	ctx := context.Background()
	refs := &refStub{objects: map[string]bool{"chapter-videos/kept.mp4": true}}
	h := newHandler(refs, &removerStub{}, &deleterStub{})

	require.NoError(t, h.Handle(ctx, nil, objectCandidate("gone.mp4"), inboxEvent()))
	require.NoError(t, h.Handle(ctx, nil, objectCandidate("kept.mp4"), inboxEvent()))

	failing := newHandler(&refStub{err: errBackend}, &removerStub{}, &deleterStub{})
	require.Error(t, failing.Handle(ctx, nil, objectCandidate("x.mp4"), inboxEvent()))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	outcomes := map[string]int64{}
	var failures int64
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				switch m.Name {
				case "course_orphan_reconciled_total":
					outcome, _ := dp.Attributes.Value(attribute.Key("outcome"))
					outcomes[outcome.AsString()] += dp.Value
				case "course_orphan_reconcile_failure_total":
					failures += dp.Value
				}
			}
		}
	}
	require.Equal(t, int64(1), outcomes["deleted"])
	require.Equal(t, int64(1), outcomes["referenced"])
	require.Equal(t, int64(1), failures)
}
