package option

import (
	"strings"

	"github.com/smallbiznis/autocharge/pkg/db/pagination"
	"gorm.io/gorm"
)

// QueryOption mutates a gorm statement.
type QueryOption interface {
	Apply(*gorm.DB) *gorm.DB
}

type QueryOptionFunc func(*gorm.DB) *gorm.DB

func (f QueryOptionFunc) Apply(stmt *gorm.DB) *gorm.DB {
	return f(stmt)
}

// ApplyPagination keeps rows older than the page token and fetches one
// row past the limit for pagination.Page. Rows must be ordered by id desc.
// A bad token fails the query with pagination.ErrInvalidToken.
func ApplyPagination(page pagination.Pagination) QueryOption {
	return QueryOptionFunc(func(stmt *gorm.DB) *gorm.DB {
		after, err := page.After()
		if err != nil {
			_ = stmt.AddError(err)
			return stmt
		}
		if after > 0 {
			stmt = stmt.Where("id < ?", after)
		}
		return stmt.Limit(page.Limit() + 1)
	})
}

// Equal adds column = value when value is non-empty.
func Equal(column, value string) QueryOption {
	return QueryOptionFunc(func(stmt *gorm.DB) *gorm.DB {
		if strings.TrimSpace(value) == "" {
			return stmt
		}
		return stmt.Where(column+" = ?", value)
	})
}

func Apply(stmt *gorm.DB, opts ...QueryOption) *gorm.DB {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		stmt = opt.Apply(stmt)
	}
	return stmt
}
