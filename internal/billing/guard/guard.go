package guard

import (
	"errors"

	invoicedomain "github.com/smallbiznis/autocharge/internal/invoice/domain"
	"github.com/smallbiznis/autocharge/internal/money"
)

var (
	ErrInvoiceNotPending = errors.New("invoice_not_pending")
	ErrCurrencyMismatch  = errors.New("invoice_currency_mismatch")
)

func EnsureInvoicePending(status invoicedomain.InvoiceStatus) error {
	if status != invoicedomain.InvoiceStatusPending {
		return ErrInvoiceNotPending
	}
	return nil
}

// EnsureCurrencyMatches requires the invoice to be billed in the
// customer's currency. There is no conversion.
func EnsureCurrencyMatches(customer, invoice money.Currency) error {
	if customer != invoice {
		return ErrCurrencyMismatch
	}
	return nil
}
