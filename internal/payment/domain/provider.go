package domain

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/bwmarrin/snowflake"
	customerdomain "github.com/smallbiznis/autocharge/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/autocharge/internal/invoice/domain"
	"go.uber.org/zap"
)

//go:generate mockgen -destination=../mocks/provider_mock.go -package=mocks github.com/smallbiznis/autocharge/internal/payment/domain Provider

// Provider charges a customer for an invoice. A false result with a nil
// error means the customer could not cover the amount.
type Provider interface {
	Charge(ctx context.Context, invoice invoicedomain.Invoice) (bool, error)
}

// CustomerLookup resolves the customer an invoice belongs to.
type CustomerLookup interface {
	Fetch(ctx context.Context, id snowflake.ID) (customerdomain.Customer, error)
}

type AdapterConfig struct {
	Customers CustomerLookup
	Config    map[string]any
	Log       *zap.Logger
}

type AdapterFactory interface {
	Provider() string
	NewAdapter(cfg AdapterConfig) (Provider, error)
}

var (
	ErrProviderNotFound = errors.New("payment_provider_not_found")
	ErrInvalidConfig    = errors.New("invalid_payment_provider_config")
)

// ErrorKind classifies charge failures. The zero value is unclassified.
type ErrorKind int

const (
	KindUnclassified ErrorKind = iota
	KindCustomerNotFound
	KindCurrencyMismatch
	KindNetwork
)

func (k ErrorKind) String() string {
	switch k {
	case KindCustomerNotFound:
		return "customer_not_found"
	case KindCurrencyMismatch:
		return "currency_mismatch"
	case KindNetwork:
		return "network"
	default:
		return "unclassified"
	}
}

// Classified reports whether the invoice can safely go back to PENDING.
func (k ErrorKind) Classified() bool {
	return k != KindUnclassified
}

// ChargeError is returned by providers for the failures they recognise.
type ChargeError struct {
	Kind      ErrorKind
	InvoiceID snowflake.ID
	Err       error
}

func (e *ChargeError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("charge invoice %s: %s", e.InvoiceID, e.Kind)
	}
	return fmt.Sprintf("charge invoice %s: %s: %v", e.InvoiceID, e.Kind, e.Err)
}

func (e *ChargeError) Unwrap() error {
	return e.Err
}

func NewChargeError(kind ErrorKind, invoiceID snowflake.ID, err error) *ChargeError {
	return &ChargeError{Kind: kind, InvoiceID: invoiceID, Err: err}
}

// KindOf classifies err. Transport failures count as network errors even
// when a provider did not wrap them.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindUnclassified
	}
	var chargeErr *ChargeError
	if errors.As(err, &chargeErr) {
		return chargeErr.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork
	}
	return KindUnclassified
}
