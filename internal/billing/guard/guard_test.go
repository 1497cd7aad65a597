package guard

import (
	"testing"

	invoicedomain "github.com/smallbiznis/autocharge/internal/invoice/domain"
	"github.com/smallbiznis/autocharge/internal/money"
	"github.com/stretchr/testify/assert"
)

func TestEnsureInvoicePending(t *testing.T) {
	assert.NoError(t, EnsureInvoicePending(invoicedomain.InvoiceStatusPending))
	assert.ErrorIs(t, EnsureInvoicePending(invoicedomain.InvoiceStatusPaid), ErrInvoiceNotPending)
	assert.ErrorIs(t, EnsureInvoicePending(""), ErrInvoiceNotPending)
}

func TestEnsureCurrencyMatches(t *testing.T) {
	assert.NoError(t, EnsureCurrencyMatches(money.DKK, money.DKK))
	assert.ErrorIs(t, EnsureCurrencyMatches(money.USD, money.GBP), ErrCurrencyMismatch)
}
