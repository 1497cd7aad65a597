package billing_test

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/autocharge/internal/billing"
	"github.com/smallbiznis/autocharge/internal/clock"
	customerdomain "github.com/smallbiznis/autocharge/internal/customer/domain"
	customerrepo "github.com/smallbiznis/autocharge/internal/customer/repository"
	customerservice "github.com/smallbiznis/autocharge/internal/customer/service"
	invoicedomain "github.com/smallbiznis/autocharge/internal/invoice/domain"
	invoicerepo "github.com/smallbiznis/autocharge/internal/invoice/repository"
	invoiceservice "github.com/smallbiznis/autocharge/internal/invoice/service"
	"github.com/smallbiznis/autocharge/internal/migration"
	"github.com/smallbiznis/autocharge/internal/money"
	"github.com/smallbiznis/autocharge/internal/payment/adapters/sandbox"
	paymentdomain "github.com/smallbiznis/autocharge/internal/payment/domain"
	"github.com/smallbiznis/autocharge/internal/schedule"
	"github.com/smallbiznis/autocharge/internal/scheduler"
	"github.com/smallbiznis/autocharge/internal/seed"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

const chargingSchedule = "0 0 10 1 * ?"

var startTime = time.Date(2024, time.January, 15, 12, 0, 0, 0, time.UTC)

// hookedProvider runs a per-invoice hook before delegating to the sandbox.
type hookedProvider struct {
	next paymentdomain.Provider

	mu    sync.Mutex
	hooks map[snowflake.ID]func() error
	calls map[snowflake.ID]int
}

func (p *hookedProvider) onCharge(id snowflake.ID, fn func() error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hooks[id] = fn
}

func (p *hookedProvider) callCount(id snowflake.ID) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[id]
}

func (p *hookedProvider) Charge(ctx context.Context, invoice invoicedomain.Invoice) (bool, error) {
	p.mu.Lock()
	hook := p.hooks[invoice.ID]
	p.calls[invoice.ID]++
	p.mu.Unlock()

	if hook != nil {
		if err := hook(); err != nil {
			return false, err
		}
	}
	return p.next.Charge(ctx, invoice)
}

type harness struct {
	t         *testing.T
	ctx       context.Context
	db        *gorm.DB
	log       *zap.Logger
	node      *snowflake.Node
	clock     *clock.AdjustableClock
	schedule  schedule.Schedule
	customers customerdomain.Service
	invoices  invoicedomain.Service
	sandbox   *sandbox.Adapter
	provider  *hookedProvider
	svc       *billing.Service
}

type harnessOptions struct {
	seed     bool
	provider paymentdomain.Provider
	locker   billing.PassLocker
}

type harnessOption func(*harnessOptions)

func withoutSeed() harnessOption {
	return func(o *harnessOptions) { o.seed = false }
}

func withProvider(p paymentdomain.Provider) harnessOption {
	return func(o *harnessOptions) { o.provider = p }
}

func withLocker(l billing.PassLocker) harnessOption {
	return func(o *harnessOptions) { o.locker = l }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()

	options := harnessOptions{seed: true}
	for _, opt := range opts {
		opt(&options)
	}

	dsn := fmt.Sprintf("file:billing_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, migration.AutoMigrate(db))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))

	h := &harness{
		t:     t,
		ctx:   context.Background(),
		db:    db,
		log:   log,
		node:  node,
		clock: clock.NewFakeClock(startTime),
	}
	h.schedule, err = schedule.Parse(chargingSchedule, time.UTC)
	require.NoError(t, err)

	h.customers = customerservice.New(customerservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Repo:  customerrepo.Provide(),
	})
	h.invoices = invoiceservice.NewService(invoiceservice.ServiceParam{
		DB:    db,
		Log:   log,
		GenID: node,
		Repo:  invoicerepo.Provide(),
	})
	h.sandbox = sandbox.New(h.customers, log)
	h.provider = &hookedProvider{
		next:  h.sandbox,
		hooks: map[snowflake.ID]func() error{},
		calls: map[snowflake.ID]int{},
	}

	var provider paymentdomain.Provider = h.provider
	if options.provider != nil {
		provider = options.provider
	}

	if options.seed {
		seedOpts := seed.DefaultOptions()
		seedOpts.Customers = 20
		seedOpts.Rand = rand.New(rand.NewPCG(7, 11))
		require.NoError(t, seed.Run(h.ctx, db, node, seedOpts, log))
	}

	h.svc = h.newService(provider, options.locker)
	h.startScheduler(h.svc)
	return h
}

func (h *harness) newService(provider paymentdomain.Provider, locker billing.PassLocker) *billing.Service {
	h.t.Helper()
	svc, err := billing.NewService(billing.Params{
		Log:       h.log,
		Invoices:  h.invoices,
		Customers: h.customers,
		Provider:  provider,
		GenID:     h.node,
		Locker:    locker,
	})
	require.NoError(h.t, err)
	return svc
}

func (h *harness) startScheduler(runner scheduler.Runner) *scheduler.Scheduler {
	h.t.Helper()
	sched, err := scheduler.New(scheduler.Params{
		Log:    h.log,
		Clock:  h.clock,
		Runner: runner,
		Config: scheduler.Config{Schedule: chargingSchedule, Timezone: "UTC"},
	})
	require.NoError(h.t, err)
	require.NoError(h.t, sched.Start())
	h.t.Cleanup(sched.Stop)
	return sched
}

func (h *harness) advanceTo(target time.Time) {
	h.clock.Advance(target.Sub(h.clock.Now()))
}

func (h *harness) advanceToNextBilling() {
	h.advanceTo(h.schedule.Next(h.clock.Now()).Add(time.Second))
}

func (h *harness) createCustomer(currency money.Currency) customerdomain.Customer {
	h.t.Helper()
	customer, err := h.customers.Create(h.ctx, customerdomain.CreateCustomerRequest{Currency: currency.String()})
	require.NoError(h.t, err)
	return customer
}

func (h *harness) createInvoice(customer customerdomain.Customer, amount money.Money, status ...invoicedomain.InvoiceStatus) invoicedomain.Invoice {
	h.t.Helper()
	req := invoicedomain.CreateInvoiceRequest{CustomerID: customer.ID, Amount: amount}
	if len(status) > 0 {
		req.Status = status[0]
	}
	invoice, err := h.invoices.Create(h.ctx, req)
	require.NoError(h.t, err)
	return invoice
}

func (h *harness) status(id snowflake.ID) invoicedomain.InvoiceStatus {
	h.t.Helper()
	invoice, err := h.invoices.Fetch(h.ctx, id)
	require.NoError(h.t, err)
	return invoice.Status
}

func (h *harness) deleteCustomer(id snowflake.ID) error {
	return h.db.Exec("DELETE FROM customers WHERE id = ?", id).Error
}

func randomMoney(currency money.Currency) money.Money {
	return money.New(decimal.NewFromInt(rand.Int64N(100000)+1), currency)
}

func requireDecimal(t *testing.T, want, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, want.Equal(got), "want %s, got %s", want, got)
}

func (h *harness) newServiceWithoutProvider() (*billing.Service, error) {
	return billing.NewService(billing.Params{
		Log:       h.log,
		Invoices:  h.invoices,
		Customers: h.customers,
		GenID:     h.node,
	})
}
