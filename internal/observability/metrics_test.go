package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Aggregation)
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func TestModalMetricsRecordsEventsAndSessions(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m := NewModalMetrics(provider.Meter("test"), nil)
	ctx := context.Background()

	m.SessionStarted(ctx)
	m.SessionStarted(ctx)
	m.RecordEvent(ctx, "open", false)
	m.RecordEvent(ctx, "open", true)
	m.RecordEvent(ctx, "open", false)
	m.SessionEnded(ctx, "expired")

	data := collect(t, reader)

	events, ok := data["modal.events"].(metricdata.Sum[int64])
	require.True(t, ok)
	counts := map[bool]int64{}
	for _, dp := range events.DataPoints {
		cancelled, _ := dp.Attributes.Value(attribute.Key("cancelled"))
		counts[cancelled.AsBool()] += dp.Value
	}
	require.Equal(t, int64(2), counts[false])
	require.Equal(t, int64(1), counts[true])

	active, ok := data["playground.sessions.active"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, active.DataPoints, 1)
	require.Equal(t, int64(1), active.DataPoints[0].Value)

	ended, ok := data["playground.sessions.ended"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, ended.DataPoints, 1)
	reason, _ := ended.DataPoints[0].Attributes.Value(attribute.Key("reason"))
	require.Equal(t, "expired", reason.AsString())
}

func TestModalMetricsNilAndNoop(t *testing.T) {
	t.Parallel()

	var m *ModalMetrics
	require.NotPanics(t, func() {
		m.RecordEvent(context.Background(), "open", false)
		m.SessionStarted(context.Background())
		m.SessionEnded(context.Background(), "destroyed")
	})

	noopMetrics := NewModalMetrics(noop.NewMeterProvider().Meter("test"), nil)
	require.NotPanics(t, func() {
		noopMetrics.RecordEvent(context.Background(), "closed", false)
	})
}
