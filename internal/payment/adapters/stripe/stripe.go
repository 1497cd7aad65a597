package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	customerdomain "github.com/smallbiznis/autocharge/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/autocharge/internal/invoice/domain"
	obscontext "github.com/smallbiznis/autocharge/internal/observability/context"
	paymentdomain "github.com/smallbiznis/autocharge/internal/payment/domain"
	stripego "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"go.uber.org/zap"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Provider() string {
	return "stripe"
}

func (f *Factory) NewAdapter(cfg paymentdomain.AdapterConfig) (paymentdomain.Provider, error) {
	key, ok := readString(cfg.Config, "secret_key")
	if !ok {
		return nil, paymentdomain.ErrInvalidConfig
	}
	key = strings.TrimSpace(key)
	if key == "" || cfg.Customers == nil {
		return nil, paymentdomain.ErrInvalidConfig
	}

	intents := &paymentintent.Client{
		B:   stripego.GetBackend(stripego.APIBackend),
		Key: key,
	}
	return newAdapter(intents, cfg.Customers, cfg.Log), nil
}

type intentCreator interface {
	New(params *stripego.PaymentIntentParams) (*stripego.PaymentIntent, error)
}

// Adapter confirms an off-session PaymentIntent for every charge.
type Adapter struct {
	intents   intentCreator
	customers paymentdomain.CustomerLookup
	log       *zap.Logger
}

func newAdapter(intents intentCreator, customers paymentdomain.CustomerLookup, log *zap.Logger) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{
		intents:   intents,
		customers: customers,
		log:       log.Named("payment.stripe"),
	}
}

func (a *Adapter) Charge(ctx context.Context, invoice invoicedomain.Invoice) (bool, error) {
	customer, err := a.customers.Fetch(ctx, invoice.CustomerID)
	if errors.Is(err, customerdomain.ErrNotFound) {
		return false, paymentdomain.NewChargeError(paymentdomain.KindCustomerNotFound, invoice.ID, err)
	}
	if err != nil {
		return false, err
	}

	customerRef, paymentMethod := parsePaymentRef(customer.PaymentRef)
	if customerRef == "" {
		return false, paymentdomain.NewChargeError(paymentdomain.KindCustomerNotFound, invoice.ID,
			fmt.Errorf("customer %s has no stripe reference", customer.ID))
	}
	if customer.Currency != invoice.Currency {
		return false, paymentdomain.NewChargeError(paymentdomain.KindCurrencyMismatch, invoice.ID, nil)
	}

	params := a.buildParams(ctx, invoice, customerRef, paymentMethod)
	intent, err := a.intents.New(params)
	if err != nil {
		return mapError(invoice, err)
	}

	a.log.Debug("payment intent created",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("payment_intent", intent.ID),
		zap.String("status", string(intent.Status)),
	)

	switch intent.Status {
	case stripego.PaymentIntentStatusSucceeded, stripego.PaymentIntentStatusProcessing:
		return true, nil
	case stripego.PaymentIntentStatusRequiresPaymentMethod, stripego.PaymentIntentStatusRequiresAction:
		return false, nil
	default:
		return false, fmt.Errorf("payment intent %s in unexpected status %q", intent.ID, intent.Status)
	}
}

func (a *Adapter) buildParams(ctx context.Context, invoice invoicedomain.Invoice, customerRef, paymentMethod string) *stripego.PaymentIntentParams {
	params := &stripego.PaymentIntentParams{
		Amount:     stripego.Int64(invoice.Amount().MinorUnits()),
		Currency:   stripego.String(strings.ToLower(invoice.Currency.String())),
		Customer:   stripego.String(customerRef),
		Confirm:    stripego.Bool(true),
		OffSession: stripego.Bool(true),
	}
	if paymentMethod != "" {
		params.PaymentMethod = stripego.String(paymentMethod)
	}
	params.Context = ctx
	params.AddMetadata("invoice_id", invoice.ID.String())
	params.AddMetadata("invoice_number", invoice.Number)

	// Stable within a pass, distinct across passes.
	key := "invoice-" + invoice.ID.String()
	if runID := obscontext.RunIDFromContext(ctx); runID != "" {
		key += "-" + runID
	}
	params.SetIdempotencyKey(key)
	return params
}

func mapError(invoice invoicedomain.Invoice, err error) (bool, error) {
	var stripeErr *stripego.Error
	if errors.As(err, &stripeErr) {
		switch {
		case stripeErr.Code == stripego.ErrorCodeCardDeclined && stripeErr.DeclineCode == stripego.DeclineCodeInsufficientFunds:
			return false, nil
		case stripeErr.Code == stripego.ErrorCodeResourceMissing:
			return false, paymentdomain.NewChargeError(paymentdomain.KindCustomerNotFound, invoice.ID, err)
		case stripeErr.Param == "currency":
			return false, paymentdomain.NewChargeError(paymentdomain.KindCurrencyMismatch, invoice.ID, err)
		default:
			return false, err
		}
	}
	if paymentdomain.KindOf(err) == paymentdomain.KindNetwork {
		return false, paymentdomain.NewChargeError(paymentdomain.KindNetwork, invoice.ID, err)
	}
	return false, err
}

// parsePaymentRef splits "cus_x" or "cus_x/pm_y" into its parts.
func parsePaymentRef(ref string) (string, string) {
	customer, method, _ := strings.Cut(strings.TrimSpace(ref), "/")
	return strings.TrimSpace(customer), strings.TrimSpace(method)
}

func readString(config map[string]any, key string) (string, bool) {
	value, ok := config[key]
	if !ok {
		return "", false
	}
	switch cast := value.(type) {
	case string:
		return cast, true
	default:
		return "", false
	}
}
