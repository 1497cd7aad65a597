package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/autocharge/internal/money"
	"github.com/smallbiznis/autocharge/pkg/db/pagination"
)

type ListCustomerRequest struct {
	PageToken string
	PageSize  int32
	Currency  string
}

type ListCustomerFilter struct {
	Currency string
}

type ListCustomerResponse struct {
	pagination.PageInfo
	Customers []Customer `json:"customers"`
}

type CreateCustomerRequest struct {
	Currency   string
	PaymentRef string
	Metadata   map[string]any
}

type GetCustomerRequest struct {
	ID string
}

type Service interface {
	Create(context.Context, CreateCustomerRequest) (Customer, error)
	List(context.Context, ListCustomerRequest) (ListCustomerResponse, error)
	GetByID(context.Context, GetCustomerRequest) (Customer, error)
	// Fetch returns ErrNotFound when no customer has id.
	Fetch(ctx context.Context, id snowflake.ID) (Customer, error)
	UpdateCurrency(ctx context.Context, id snowflake.ID, currency money.Currency) error
}

var (
	ErrInvalidCurrency = errors.New("invalid_currency")
	ErrInvalidID       = errors.New("invalid_id")
	ErrNotFound        = errors.New("not_found")
)
