package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/autocharge/internal/money"
	"github.com/smallbiznis/autocharge/pkg/db/pagination"
)

type ListInvoiceRequest struct {
	PageToken  string
	PageSize   int32
	Status     string
	CustomerID string
}

type ListInvoiceFilter struct {
	Status     InvoiceStatus
	CustomerID snowflake.ID
}

type ListInvoiceResponse struct {
	pagination.PageInfo
	Invoices []Invoice `json:"invoices"`
}

type CreateInvoiceRequest struct {
	CustomerID snowflake.ID
	Amount     money.Money
	// Status defaults to PENDING.
	Status InvoiceStatus
}

type Service interface {
	Create(context.Context, CreateInvoiceRequest) (Invoice, error)
	List(context.Context, ListInvoiceRequest) (ListInvoiceResponse, error)
	GetByID(ctx context.Context, id string) (Invoice, error)
	// Fetch returns ErrNotFound when no invoice has id.
	Fetch(ctx context.Context, id snowflake.ID) (Invoice, error)
	// ListOutstandingIDs returns the ids of all PENDING invoices in
	// ascending id order.
	ListOutstandingIDs(ctx context.Context) ([]snowflake.ID, error)
	SetStatus(ctx context.Context, id snowflake.ID, status InvoiceStatus) error
	// MarkPaid claims a PENDING invoice. It returns false when the invoice
	// was not PENDING at the time of the update.
	MarkPaid(ctx context.Context, id snowflake.ID) (bool, error)
	Delete(ctx context.Context, id snowflake.ID) error
}

var (
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidCustomer = errors.New("invalid_customer")
	ErrInvalidAmount   = errors.New("invalid_amount")
	ErrInvalidCurrency = errors.New("invalid_currency")
	ErrInvalidStatus   = errors.New("invalid_status")
	ErrNotFound        = errors.New("not_found")
)
