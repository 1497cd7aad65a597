package seed

import (
	"context"
	"errors"
	"math/rand/v2"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	customerdomain "github.com/smallbiznis/autocharge/internal/customer/domain"
	customerrepo "github.com/smallbiznis/autocharge/internal/customer/repository"
	customerservice "github.com/smallbiznis/autocharge/internal/customer/service"
	invoicedomain "github.com/smallbiznis/autocharge/internal/invoice/domain"
	invoicerepo "github.com/smallbiznis/autocharge/internal/invoice/repository"
	invoiceservice "github.com/smallbiznis/autocharge/internal/invoice/service"
	"github.com/smallbiznis/autocharge/internal/money"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Options controls the generated data set.
type Options struct {
	Customers           int
	InvoicesPerCustomer int
	MinAmount           float64
	MaxAmount           float64
	// Rand defaults to an unseeded source.
	Rand *rand.Rand
}

func DefaultOptions() Options {
	return Options{
		Customers:           100,
		InvoicesPerCustomer: 10,
		MinAmount:           10,
		MaxAmount:           500,
	}
}

// Run creates Customers customers with a random currency, each with
// InvoicesPerCustomer invoices in that currency. The first invoice of every
// customer is PENDING and the rest are PAID. Run does nothing when customers
// already exist.
func Run(ctx context.Context, conn *gorm.DB, node *snowflake.Node, opts Options, log *zap.Logger) error {
	if conn == nil {
		return errors.New("seed database handle is required")
	}
	if node == nil {
		return errors.New("seed id generator is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxAmount <= opts.MinAmount {
		return errors.New("seed amount range is empty")
	}
	rnd := opts.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	var existing int64
	if err := conn.WithContext(ctx).Model(&customerdomain.Customer{}).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		log.Info("seed skipped, data present", zap.Int64("customers", existing))
		return nil
	}

	return conn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		customers := customerservice.New(customerservice.Params{
			DB:    tx,
			Log:   log,
			GenID: node,
			Repo:  customerrepo.Provide(),
		})
		invoices := invoiceservice.NewService(invoiceservice.ServiceParam{
			DB:    tx,
			Log:   log,
			GenID: node,
			Repo:  invoicerepo.Provide(),
		})

		currencies := money.Currencies()
		for i := 0; i < opts.Customers; i++ {
			currency := currencies[rnd.IntN(len(currencies))]
			customer, err := customers.Create(ctx, customerdomain.CreateCustomerRequest{
				Currency: currency.String(),
				Metadata: map[string]any{"seed": true},
			})
			if err != nil {
				return err
			}

			for n := 0; n < opts.InvoicesPerCustomer; n++ {
				status := invoicedomain.InvoiceStatusPaid
				if n == 0 {
					status = invoicedomain.InvoiceStatusPending
				}
				value := opts.MinAmount + rnd.Float64()*(opts.MaxAmount-opts.MinAmount)
				if _, err := invoices.Create(ctx, invoicedomain.CreateInvoiceRequest{
					CustomerID: customer.ID,
					Amount:     money.New(decimal.NewFromFloat(value).Truncate(2), currency),
					Status:     status,
				}); err != nil {
					return err
				}
			}
		}

		log.Info("seed complete",
			zap.Int("customers", opts.Customers),
			zap.Int("invoices", opts.Customers*opts.InvoicesPerCustomer),
		)
		return nil
	})
}
