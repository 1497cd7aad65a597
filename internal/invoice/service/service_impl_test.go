package service_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/autocharge/internal/invoice/domain"
	"github.com/smallbiznis/autocharge/internal/invoice/repository"
	"github.com/smallbiznis/autocharge/internal/invoice/service"
	"github.com/smallbiznis/autocharge/internal/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

const customerID = snowflake.ID(1001)

func setupService(t *testing.T) domain.Service {
	t.Helper()

	dsn := fmt.Sprintf("file:invoices_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.Invoice{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return service.NewService(service.ServiceParam{
		DB:    db,
		Log:   zaptest.NewLogger(t),
		GenID: node,
		Repo:  repository.Provide(),
	})
}

func eur(value int64) money.Money {
	return money.New(decimal.NewFromInt(value), money.EUR)
}

func TestCreateAssignsSequentialNumbers(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, domain.CreateInvoiceRequest{CustomerID: customerID, Amount: eur(10)})
	require.NoError(t, err)
	second, err := svc.Create(ctx, domain.CreateInvoiceRequest{CustomerID: customerID, Amount: eur(20), Status: domain.InvoiceStatusPaid})
	require.NoError(t, err)

	assert.Equal(t, domain.InvoiceStatusPending, first.Status)
	assert.Equal(t, domain.InvoiceStatusPaid, second.Status)
	assert.True(t, strings.HasPrefix(first.Number, "INV-"))
	assert.True(t, strings.HasSuffix(first.Number, "-000001"), first.Number)
	assert.True(t, strings.HasSuffix(second.Number, "-000002"), second.Number)

	got, err := svc.GetByID(ctx, first.ID.String())
	require.NoError(t, err)
	assert.Equal(t, first.Number, got.Number)
	assert.True(t, got.Value.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, money.EUR, got.Currency)
}

func TestCreateValidatesRequest(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  domain.CreateInvoiceRequest
		want error
	}{
		{"missing customer", domain.CreateInvoiceRequest{Amount: eur(1)}, domain.ErrInvalidCustomer},
		{"unknown currency", domain.CreateInvoiceRequest{CustomerID: customerID, Amount: money.New(decimal.NewFromInt(1), "JPY")}, domain.ErrInvalidCurrency},
		{"zero amount", domain.CreateInvoiceRequest{CustomerID: customerID, Amount: eur(0)}, domain.ErrInvalidAmount},
		{"bad status", domain.CreateInvoiceRequest{CustomerID: customerID, Amount: eur(1), Status: "VOID"}, domain.ErrInvalidStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMarkPaidClaimsOnce(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	inv, err := svc.Create(ctx, domain.CreateInvoiceRequest{CustomerID: customerID, Amount: eur(15)})
	require.NoError(t, err)

	ok, err := svc.MarkPaid(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.MarkPaid(ctx, inv.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, svc.SetStatus(ctx, inv.ID, domain.InvoiceStatusPending))
	ok, err = svc.MarkPaid(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.MarkPaid(ctx, snowflake.ID(42))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListOutstandingIDsAscending(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, domain.CreateInvoiceRequest{CustomerID: customerID, Amount: eur(1)})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateInvoiceRequest{CustomerID: customerID, Amount: eur(2), Status: domain.InvoiceStatusPaid})
	require.NoError(t, err)
	c, err := svc.Create(ctx, domain.CreateInvoiceRequest{CustomerID: customerID, Amount: eur(3)})
	require.NoError(t, err)

	ids, err := svc.ListOutstandingIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []snowflake.ID{a.ID, c.ID}, ids)
}

func TestSetStatusAndDelete(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	inv, err := svc.Create(ctx, domain.CreateInvoiceRequest{CustomerID: customerID, Amount: eur(5)})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.SetStatus(ctx, inv.ID, "VOID"), domain.ErrInvalidStatus)
	assert.ErrorIs(t, svc.SetStatus(ctx, snowflake.ID(42), domain.InvoiceStatusPaid), domain.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, inv.ID))
	assert.ErrorIs(t, svc.Delete(ctx, inv.ID), domain.ErrNotFound)

	_, err = svc.Fetch(ctx, inv.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateAfterDeletesKeepsNumbersUnique(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	created := make([]domain.Invoice, 0, 10)
	for i := 0; i < 10; i++ {
		inv, err := svc.Create(ctx, domain.CreateInvoiceRequest{CustomerID: customerID, Amount: eur(int64(i + 1))})
		require.NoError(t, err)
		created = append(created, inv)
	}
	for _, inv := range created[:5] {
		require.NoError(t, svc.Delete(ctx, inv.ID))
	}

	next, err := svc.Create(ctx, domain.CreateInvoiceRequest{CustomerID: customerID, Amount: eur(99)})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(next.Number, "-000011"), next.Number)

	require.NoError(t, svc.Delete(ctx, next.ID))
	again, err := svc.Create(ctx, domain.CreateInvoiceRequest{CustomerID: customerID, Amount: eur(100)})
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(again.Number, "-000011"), again.Number)
}

func TestGetByIDRejectsMalformedID(t *testing.T) {
	svc := setupService(t)
	_, err := svc.GetByID(context.Background(), "not-a-number")
	assert.ErrorIs(t, err, domain.ErrInvalidID)
}

func TestListFiltersAndPaginates(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	var pending []snowflake.ID
	for i := 0; i < 4; i++ {
		inv, err := svc.Create(ctx, domain.CreateInvoiceRequest{CustomerID: customerID, Amount: eur(int64(i + 1))})
		require.NoError(t, err)
		pending = append(pending, inv.ID)
	}
	_, err := svc.Create(ctx, domain.CreateInvoiceRequest{CustomerID: customerID + 1, Amount: eur(9)})
	require.NoError(t, err)

	page, err := svc.List(ctx, domain.ListInvoiceRequest{PageSize: 3, CustomerID: customerID.String(), Status: "pending"})
	require.NoError(t, err)
	require.Len(t, page.Invoices, 3)
	assert.True(t, page.HasMore)
	assert.Equal(t, pending[3], page.Invoices[0].ID)

	next, err := svc.List(ctx, domain.ListInvoiceRequest{PageSize: 3, CustomerID: customerID.String(), PageToken: page.NextPageToken})
	require.NoError(t, err)
	require.Len(t, next.Invoices, 1)
	assert.Equal(t, pending[0], next.Invoices[0].ID)

	_, err = svc.List(ctx, domain.ListInvoiceRequest{Status: "void"})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
	_, err = svc.List(ctx, domain.ListInvoiceRequest{CustomerID: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidCustomer)
}
