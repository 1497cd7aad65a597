package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const exportInterval = 10 * time.Second

type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Charge outcomes recorded per payment provider call.
const (
	ChargeSucceeded = "charged"
	ChargeDeclined  = "declined"
	ChargeErrored   = "error"
)

// Metrics holds the OTLP charge instruments. A nil *Metrics records
// nothing.
type Metrics struct {
	charges  metric.Int64Counter
	duration metric.Float64Histogram
}

// NewProvider installs the global meter provider. Disabled telemetry gets
// a noop provider so instruments stay cheap.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(context.Background(), cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(
		sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(exportInterval)),
	))
	otel.SetMeterProvider(provider)

	lc.Append(fx.StopHook(provider.Shutdown))
	log.Info("metrics.exporter.ready",
		zap.String("endpoint", cfg.ExporterEndpoint),
		zap.String("protocol", cfg.ExporterProtocol),
	)
	return provider, nil
}

func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	scope := strings.TrimSpace(cfg.ServiceName)
	if scope == "" {
		scope = "autocharge"
	}
	meter := provider.Meter(scope)

	charges, err := meter.Int64Counter("autocharge_charges_total",
		metric.WithDescription("Payment provider charge calls by outcome."))
	if err != nil {
		return nil, fmt.Errorf("charges counter: %w", err)
	}
	duration, err := meter.Float64Histogram("autocharge_charge_duration_seconds",
		metric.WithUnit("s"),
		metric.WithDescription("Payment provider charge latency."))
	if err != nil {
		return nil, fmt.Errorf("charge duration histogram: %w", err)
	}
	return &Metrics{charges: charges, duration: duration}, nil
}

// RecordCharge counts one provider call. kind is the error kind for
// ChargeErrored and empty otherwise.
func (m *Metrics) RecordCharge(ctx context.Context, provider, outcome, kind string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("provider", provider),
		attribute.String("outcome", outcome),
	}
	if kind != "" {
		attrs = append(attrs, attribute.String("kind", kind))
	}
	set := metric.WithAttributeSet(attribute.NewSet(attrs...))
	m.charges.Add(ctx, 1, set)
	m.duration.Record(ctx, elapsed.Seconds(), set)
}

func newExporter(ctx context.Context, protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "", "grpc", "grpc/protobuf":
		opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithInsecure()}
		if endpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(endpoint))
		}
		return otlpmetricgrpc.New(ctx, opts...)
	case "http", "http/protobuf":
		var opts []otlpmetrichttp.Option
		if endpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(endpoint), otlpmetrichttp.WithInsecure())
		}
		return otlpmetrichttp.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q", protocol)
	}
}
