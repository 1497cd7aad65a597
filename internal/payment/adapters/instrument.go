package adapters

import (
	"context"
	"time"

	invoicedomain "github.com/smallbiznis/autocharge/internal/invoice/domain"
	"github.com/smallbiznis/autocharge/internal/observability/metrics"
	"github.com/smallbiznis/autocharge/internal/observability/tracing"
	"github.com/smallbiznis/autocharge/internal/payment/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "autocharge/payment"

type instrumented struct {
	next     domain.Provider
	provider string
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

// Instrument wraps next with a span and charge counters per call.
func Instrument(next domain.Provider, provider string, m *metrics.Metrics) domain.Provider {
	return &instrumented{
		next:     next,
		provider: provider,
		metrics:  m,
		tracer:   otel.Tracer(tracerName),
	}
}

func (p *instrumented) Charge(ctx context.Context, invoice invoicedomain.Invoice) (bool, error) {
	ctx, span := p.tracer.Start(ctx, "payment.charge", trace.WithAttributes(tracing.SafeAttributes(
		attribute.String("payment.provider", p.provider),
		attribute.String("invoice.id", invoice.ID.String()),
		attribute.String("invoice.currency", invoice.Currency.String()),
	)...))
	defer span.End()

	start := time.Now()
	ok, err := p.next.Charge(ctx, invoice)
	elapsed := time.Since(start)
	switch {
	case err != nil:
		kind := domain.KindOf(err).String()
		p.metrics.RecordCharge(ctx, p.provider, metrics.ChargeErrored, kind, elapsed)
		span.SetAttributes(attribute.String("payment.error_kind", kind))
		span.RecordError(tracing.SafeError(err))
		span.SetStatus(codes.Error, kind)
	case ok:
		p.metrics.RecordCharge(ctx, p.provider, metrics.ChargeSucceeded, "", elapsed)
	default:
		p.metrics.RecordCharge(ctx, p.provider, metrics.ChargeDeclined, "", elapsed)
	}
	return ok, err
}
