package sandbox

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	customerdomain "github.com/smallbiznis/autocharge/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/autocharge/internal/invoice/domain"
	"github.com/smallbiznis/autocharge/internal/money"
	paymentdomain "github.com/smallbiznis/autocharge/internal/payment/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type customers map[snowflake.ID]customerdomain.Customer

func (c customers) Fetch(_ context.Context, id snowflake.ID) (customerdomain.Customer, error) {
	customer, ok := c[id]
	if !ok {
		return customerdomain.Customer{}, customerdomain.ErrNotFound
	}
	return customer, nil
}

func invoiceFor(customerID snowflake.ID, value string, currency money.Currency) invoicedomain.Invoice {
	return invoicedomain.Invoice{
		ID:         1,
		CustomerID: customerID,
		Value:      decimal.RequireFromString(value),
		Currency:   currency,
	}
}

func TestChargeDebitsBalance(t *testing.T) {
	book := customers{1: {ID: 1, Currency: money.USD}}
	adapter := New(book, zaptest.NewLogger(t))
	adapter.TopUp(1, decimal.RequireFromString("15.50"))

	ok, err := adapter.Charge(context.Background(), invoiceFor(1, "10.25", money.USD))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, decimal.RequireFromString("5.25").Equal(adapter.Balance(1)))

	ok, err = adapter.Charge(context.Background(), invoiceFor(1, "10.25", money.USD))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, decimal.RequireFromString("5.25").Equal(adapter.Balance(1)))
}

func TestChargeClassifiedErrors(t *testing.T) {
	book := customers{1: {ID: 1, Currency: money.USD}}
	adapter := New(book, nil)
	adapter.TopUp(1, decimal.NewFromInt(100))

	_, err := adapter.Charge(context.Background(), invoiceFor(2, "1", money.USD))
	assert.Equal(t, paymentdomain.KindCustomerNotFound, paymentdomain.KindOf(err))

	_, err = adapter.Charge(context.Background(), invoiceFor(1, "1", money.GBP))
	assert.Equal(t, paymentdomain.KindCurrencyMismatch, paymentdomain.KindOf(err))

	adapter.FailNextWithNetworkError()
	_, err = adapter.Charge(context.Background(), invoiceFor(1, "1", money.USD))
	assert.Equal(t, paymentdomain.KindNetwork, paymentdomain.KindOf(err))

	ok, err := adapter.Charge(context.Background(), invoiceFor(1, "1", money.USD))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, decimal.NewFromInt(99).Equal(adapter.Balance(1)))
}

func TestFactory(t *testing.T) {
	f := NewFactory()
	assert.Equal(t, "sandbox", f.Provider())

	_, err := f.NewAdapter(paymentdomain.AdapterConfig{})
	assert.ErrorIs(t, err, paymentdomain.ErrInvalidConfig)

	provider, err := f.NewAdapter(paymentdomain.AdapterConfig{
		Customers: customers{},
		Config:    map[string]any{"auto_fund": true},
	})
	require.NoError(t, err)
	assert.True(t, provider.(*Adapter).autoFund)
}
