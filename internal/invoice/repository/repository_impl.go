package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/autocharge/internal/invoice/domain"
	"github.com/smallbiznis/autocharge/pkg/db/option"
	"github.com/smallbiznis/autocharge/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, invoice *domain.Invoice) error {
	return db.WithContext(ctx).Create(invoice).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Invoice, error) {
	var invoice domain.Invoice
	err := db.WithContext(ctx).Raw(
		`SELECT id, number, customer_id, value, currency, status, created_at, updated_at
		 FROM invoices WHERE id = ?`,
		id,
	).Scan(&invoice).Error
	if err != nil {
		return nil, err
	}
	if invoice.ID == 0 {
		return nil, nil
	}
	return &invoice, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListInvoiceFilter, page pagination.Pagination) ([]*domain.Invoice, error) {
	var invoices []*domain.Invoice
	stmt := option.Apply(
		db.WithContext(ctx).Model(&domain.Invoice{}),
		option.Equal("status", string(filter.Status)),
		option.ApplyPagination(page),
	)
	if filter.CustomerID != 0 {
		stmt = stmt.Where("customer_id = ?", filter.CustomerID)
	}
	err := stmt.
		Order("id desc").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *repo) ListIDsByStatus(ctx context.Context, db *gorm.DB, status domain.InvoiceStatus) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).Raw(
		`SELECT id FROM invoices WHERE status = ? ORDER BY id ASC`,
		status,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func (r *repo) LastNumber(ctx context.Context, db *gorm.DB, prefix string) (string, error) {
	var numbers []string
	err := db.WithContext(ctx).Raw(
		`SELECT number FROM invoices WHERE number LIKE ? ESCAPE '!'
		 ORDER BY LENGTH(number) DESC, number DESC LIMIT 1`,
		likeEscaper.Replace(prefix)+"%",
	).Scan(&numbers).Error
	if err != nil || len(numbers) == 0 {
		return "", err
	}
	return numbers[0], nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.InvoiceStatus) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE invoices SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status,
		id,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) CompareAndSetStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to domain.InvoiceStatus) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE invoices SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND status = ?`,
		to,
		id,
		from,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	res := db.WithContext(ctx).Exec(`DELETE FROM invoices WHERE id = ?`, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
