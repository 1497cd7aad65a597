package sandbox

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	customerdomain "github.com/smallbiznis/autocharge/internal/customer/domain"
	invoicedomain "github.com/smallbiznis/autocharge/internal/invoice/domain"
	paymentdomain "github.com/smallbiznis/autocharge/internal/payment/domain"
	"go.uber.org/zap"
)

var errSimulatedNetwork = errors.New("simulated network failure")

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Provider() string {
	return "sandbox"
}

func (f *Factory) NewAdapter(cfg paymentdomain.AdapterConfig) (paymentdomain.Provider, error) {
	if cfg.Customers == nil {
		return nil, paymentdomain.ErrInvalidConfig
	}
	adapter := New(cfg.Customers, cfg.Log)
	if autoFund, ok := cfg.Config["auto_fund"].(bool); ok {
		adapter.autoFund = autoFund
	}
	return adapter, nil
}

// Adapter is an in-memory balance book keyed by customer.
type Adapter struct {
	customers paymentdomain.CustomerLookup
	log       *zap.Logger

	mu       sync.Mutex
	balances map[snowflake.ID]decimal.Decimal
	failNext bool
	autoFund bool
}

func New(customers paymentdomain.CustomerLookup, log *zap.Logger) *Adapter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Adapter{
		customers: customers,
		log:       log.Named("payment.sandbox"),
		balances:  map[snowflake.ID]decimal.Decimal{},
	}
}

func (a *Adapter) Charge(ctx context.Context, invoice invoicedomain.Invoice) (bool, error) {
	a.mu.Lock()
	if a.failNext {
		a.failNext = false
		a.mu.Unlock()
		return false, paymentdomain.NewChargeError(paymentdomain.KindNetwork, invoice.ID, errSimulatedNetwork)
	}
	a.mu.Unlock()

	customer, err := a.customers.Fetch(ctx, invoice.CustomerID)
	if errors.Is(err, customerdomain.ErrNotFound) {
		return false, paymentdomain.NewChargeError(paymentdomain.KindCustomerNotFound, invoice.ID, err)
	}
	if err != nil {
		return false, err
	}
	if customer.Currency != invoice.Currency {
		return false, paymentdomain.NewChargeError(paymentdomain.KindCurrencyMismatch, invoice.ID, nil)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	balance, funded := a.balances[customer.ID]
	if !funded && a.autoFund {
		ok := rand.IntN(2) == 0
		a.log.Debug("sandbox coin flip",
			zap.String("invoice_id", invoice.ID.String()),
			zap.Bool("charged", ok),
		)
		return ok, nil
	}
	if balance.LessThan(invoice.Value) {
		return false, nil
	}
	a.balances[customer.ID] = balance.Sub(invoice.Value)
	return true, nil
}

func (a *Adapter) TopUp(customerID snowflake.ID, amount decimal.Decimal) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.balances[customerID] = a.balances[customerID].Add(amount)
}

func (a *Adapter) Balance(customerID snowflake.ID) decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balances[customerID]
}

// FailNextWithNetworkError makes the next Charge fail with a network error
// before touching any balance.
func (a *Adapter) FailNextWithNetworkError() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failNext = true
}
