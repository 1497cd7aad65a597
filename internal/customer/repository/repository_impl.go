package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/autocharge/internal/customer/domain"
	"github.com/smallbiznis/autocharge/pkg/db/option"
	"github.com/smallbiznis/autocharge/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, customer *domain.Customer) error {
	return db.WithContext(ctx).Create(customer).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Customer, error) {
	var customer domain.Customer
	err := db.WithContext(ctx).Raw(
		`SELECT id, currency, payment_ref, metadata, created_at, updated_at
		 FROM customers WHERE id = ?`,
		id,
	).Scan(&customer).Error
	if err != nil {
		return nil, err
	}
	if customer.ID == 0 {
		return nil, nil
	}
	return &customer, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListCustomerFilter, page pagination.Pagination) ([]*domain.Customer, error) {
	var customers []*domain.Customer
	stmt := option.Apply(
		db.WithContext(ctx).Model(&domain.Customer{}),
		option.Equal("currency", filter.Currency),
		option.ApplyPagination(page),
	)
	err := stmt.
		Order("id desc").
		Find(&customers).Error
	if err != nil {
		return nil, err
	}
	return customers, nil
}

func (r *repo) UpdateCurrency(ctx context.Context, db *gorm.DB, id snowflake.ID, currency string) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE customers SET currency = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		currency,
		id,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
