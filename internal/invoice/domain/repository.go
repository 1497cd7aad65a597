package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/autocharge/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	List(ctx context.Context, db *gorm.DB, filter ListInvoiceFilter, page pagination.Pagination) ([]*Invoice, error)
	ListIDsByStatus(ctx context.Context, db *gorm.DB, status InvoiceStatus) ([]snowflake.ID, error)
	// LastNumber returns the highest number starting with prefix, or ""
	// when there is none.
	LastNumber(ctx context.Context, db *gorm.DB, prefix string) (string, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status InvoiceStatus) (bool, error)
	// CompareAndSetStatus moves id from one status to another and reports
	// whether this call made the change.
	CompareAndSetStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to InvoiceStatus) (bool, error)
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
}
