package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/autocharge/internal/billing/guard"
	customerdomain "github.com/smallbiznis/autocharge/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/autocharge/internal/invoice/domain"
	obsmetrics "github.com/smallbiznis/autocharge/internal/observability/metrics"
	"github.com/smallbiznis/autocharge/internal/observability/tracing"
	paymentdomain "github.com/smallbiznis/autocharge/internal/payment/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const tracerName = "autocharge/billing"

var ErrInvalidService = errors.New("invalid_billing_service")

// PassLocker serializes passes across processes.
type PassLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, key, token string) error
}

type Params struct {
	fx.In

	Log       *zap.Logger
	Invoices  invoicedomain.Service
	Customers customerdomain.Service
	Provider  paymentdomain.Provider
	GenID     *snowflake.Node
	Locker    PassLocker `optional:"true"`
	Config    Config     `optional:"true"`
}

// Service runs billing passes over outstanding invoices.
type Service struct {
	log       *zap.Logger
	invoices  invoicedomain.Service
	customers customerdomain.Service
	provider  paymentdomain.Provider
	genID     *snowflake.Node
	locker    PassLocker
	cfg       Config
	metrics   *obsmetrics.BillingMetrics
	tracer    trace.Tracer
}

func NewService(p Params) (*Service, error) {
	if p.Log == nil || p.Invoices == nil || p.Customers == nil || p.Provider == nil || p.GenID == nil {
		return nil, ErrInvalidService
	}
	return &Service{
		log:       p.Log.Named("billing.service").With(zap.String("component", "billing")),
		invoices:  p.Invoices,
		customers: p.Customers,
		provider:  p.Provider,
		genID:     p.GenID,
		locker:    p.Locker,
		cfg:       p.Config.withDefaults(),
		metrics:   obsmetrics.Billing(),
		tracer:    otel.Tracer(tracerName),
	}, nil
}

// Run performs one billing pass. It snapshots the outstanding invoice ids,
// then charges them one at a time, newest first. A failure on one invoice
// never stops the rest; the returned error joins the storage failures and
// panics seen along the way.
func (s *Service) Run(ctx context.Context) error {
	ctx, run := s.startRun(ctx)
	ctx, span := s.tracer.Start(ctx, "billing.pass", trace.WithAttributes(
		attribute.String("billing.run_id", run.runID),
	))
	defer span.End()

	if s.locker != nil {
		token, ok, err := s.locker.TryLock(ctx, s.cfg.LockKey, s.cfg.LockTTL)
		if err != nil {
			s.metrics.IncPass("failed")
			span.RecordError(tracing.SafeError(err))
			span.SetStatus(codes.Error, "lock")
			return fmt.Errorf("acquire billing lock: %w", err)
		}
		if !ok {
			s.metrics.IncPass("skipped")
			s.logger(ctx).Info("billing.pass.skipped", zap.String("reason", "lock_held"))
			return nil
		}
		defer func() {
			if err := s.locker.Release(context.WithoutCancel(ctx), s.cfg.LockKey, token); err != nil {
				s.logger(ctx).Warn("billing.pass.unlock_failed", zap.Error(err))
			}
		}()
	}

	ids, err := s.invoices.ListOutstandingIDs(ctx)
	if err != nil {
		s.metrics.IncPass("failed")
		span.RecordError(tracing.SafeError(err))
		span.SetStatus(codes.Error, "snapshot")
		return fmt.Errorf("snapshot outstanding invoices: %w", err)
	}
	run.snapshotSize = len(ids)
	s.metrics.ObserveSnapshot(len(ids))
	span.SetAttributes(attribute.Int("billing.snapshot_size", len(ids)))
	s.logPassStart(ctx, run)

	var errs []error
	for len(ids) > 0 {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		id := ids[len(ids)-1]
		ids = ids[:len(ids)-1]

		if err := s.processInvoice(ctx, id); err != nil {
			run.IncError()
			s.metrics.IncOutcome(obsmetrics.OutcomeFailed)
			s.logger(ctx).Error("billing.invoice.failed",
				zap.String("invoice_id", id.String()),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
		run.AddProcessed(1)
	}

	s.logPassFinish(ctx, run)
	if len(errs) > 0 {
		s.metrics.IncPass("partial")
		span.SetStatus(codes.Error, "partial")
		return errors.Join(errs...)
	}
	s.metrics.IncPass("ok")
	return nil
}

// processInvoice re-reads the invoice and runs the charge protocol,
// converting a panic into an error.
func (s *Service) processInvoice(ctx context.Context, id snowflake.ID) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invoice %s: panic: %v", id, r)
		}
	}()

	invoice, err := s.invoices.Fetch(ctx, id)
	if errors.Is(err, invoicedomain.ErrNotFound) {
		s.metrics.IncOutcome(obsmetrics.OutcomeSkipped)
		return nil
	}
	if err != nil {
		return fmt.Errorf("fetch invoice %s: %w", id, err)
	}
	return s.tryCharge(ctx, invoice)
}

// tryCharge moves one invoice through the charge protocol. The invoice is
// marked PAID before the provider is called and only reverted when the
// provider reports that nothing was charged.
func (s *Service) tryCharge(ctx context.Context, invoice invoicedomain.Invoice) error {
	log := s.logger(ctx).With(
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("customer_id", invoice.CustomerID.String()),
	)

	if err := guard.EnsureInvoicePending(invoice.Status); err != nil {
		log.Debug("billing.invoice.not_pending", zap.String("status", string(invoice.Status)))
		s.metrics.IncOutcome(obsmetrics.OutcomeSkipped)
		return nil
	}

	customer, err := s.customers.Fetch(ctx, invoice.CustomerID)
	if errors.Is(err, customerdomain.ErrNotFound) {
		log.Info("billing.invoice.orphaned")
		if err := s.invoices.Delete(ctx, invoice.ID); err != nil && !errors.Is(err, invoicedomain.ErrNotFound) {
			return fmt.Errorf("delete orphaned invoice %s: %w", invoice.ID, err)
		}
		s.metrics.IncOutcome(obsmetrics.OutcomeOrphanDeleted)
		return nil
	}
	if err != nil {
		return fmt.Errorf("fetch customer %s: %w", invoice.CustomerID, err)
	}

	if err := guard.EnsureCurrencyMatches(customer.Currency, invoice.Currency); err != nil {
		log.Info("billing.invoice.currency_mismatch",
			zap.String("invoice_currency", invoice.Currency.String()),
			zap.String("customer_currency", customer.Currency.String()),
		)
		s.metrics.IncOutcome(obsmetrics.OutcomeCurrencyMismatch)
		return nil
	}

	claimed, err := s.invoices.MarkPaid(ctx, invoice.ID)
	if err != nil {
		return fmt.Errorf("claim invoice %s: %w", invoice.ID, err)
	}
	if !claimed {
		log.Info("billing.invoice.claimed_elsewhere")
		s.metrics.IncOutcome(obsmetrics.OutcomeSkipped)
		return nil
	}

	ok, err := s.provider.Charge(ctx, invoice)
	if err == nil && ok {
		log.Info("billing.invoice.paid", zap.String("amount", invoice.Amount().String()))
		s.metrics.IncOutcome(obsmetrics.OutcomePaid)
		return nil
	}
	if err == nil {
		log.Info("billing.invoice.insufficient_funds")
		s.metrics.IncOutcome(obsmetrics.OutcomeDeclined)
		return s.revert(ctx, invoice.ID)
	}

	kind := paymentdomain.KindOf(err)
	if kind.Classified() {
		log.Error("billing.invoice.charge_failed",
			zap.String("error_kind", kind.String()),
			zap.Error(err),
		)
		s.metrics.IncOutcome(obsmetrics.OutcomeClassifiedError)
		return s.revert(ctx, invoice.ID)
	}

	// The provider may have charged; the invoice stays PAID.
	log.Error("billing.invoice.charge_unclassified", zap.Error(err))
	s.metrics.IncOutcome(obsmetrics.OutcomeUnclassified)
	return nil
}

// revert puts a claimed invoice back to PENDING. It outlives a cancelled
// pass so a classified failure is never left marked PAID.
func (s *Service) revert(ctx context.Context, id snowflake.ID) error {
	if err := s.invoices.SetStatus(context.WithoutCancel(ctx), id, invoicedomain.InvoiceStatusPending); err != nil {
		return fmt.Errorf("revert invoice %s: %w", id, err)
	}
	return nil
}
