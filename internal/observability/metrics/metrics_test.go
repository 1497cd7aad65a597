package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestRecordCharge(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	m, err := New(Config{}, sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordCharge(ctx, "sandbox", ChargeSucceeded, "", 20*time.Millisecond)
	m.RecordCharge(ctx, "sandbox", ChargeSucceeded, "", 30*time.Millisecond)
	m.RecordCharge(ctx, "sandbox", ChargeErrored, "network", time.Second)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)
	assert.Equal(t, "autocharge", rm.ScopeMetrics[0].Scope.Name)

	counts := map[string]int64{}
	for _, md := range rm.ScopeMetrics[0].Metrics {
		if md.Name != "autocharge_charges_total" {
			continue
		}
		sum, ok := md.Data.(metricdata.Sum[int64])
		require.True(t, ok)
		for _, dp := range sum.DataPoints {
			outcome, _ := dp.Attributes.Value(attribute.Key("outcome"))
			kind, _ := dp.Attributes.Value(attribute.Key("kind"))
			counts[outcome.AsString()+"/"+kind.AsString()] = dp.Value
		}
	}
	assert.Equal(t, map[string]int64{"charged/": 2, "error/network": 1}, counts)
}

func TestNilMetricsRecordsNothing(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordCharge(context.Background(), "sandbox", ChargeDeclined, "", time.Millisecond)
	})
}
