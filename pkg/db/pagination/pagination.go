// Package pagination implements keyset paging over snowflake ids. Rows are
// listed newest first and a page token carries the last id handed out.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 250
)

var ErrInvalidToken = errors.New("invalid_page_token")

// Pagination is bound from the page_token and page_size query params.
type Pagination struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size"`
}

// Limit is the page size clamped to [1, MaxPageSize].
func (p Pagination) Limit() int {
	switch {
	case p.PageSize <= 0:
		return DefaultPageSize
	case p.PageSize > MaxPageSize:
		return MaxPageSize
	default:
		return p.PageSize
	}
}

// After returns the id encoded in the page token, or 0 for the first page.
func (p Pagination) After() (int64, error) {
	token := strings.TrimSpace(p.PageToken)
	if token == "" {
		return 0, nil
	}
	return DecodeToken(token)
}

type PageInfo struct {
	NextPageToken string `json:"next_page_token,omitempty"`
	HasMore       bool   `json:"has_more"`
}

type cursor struct {
	LastID int64 `json:"last_id"`
}

func EncodeToken(lastID int64) string {
	b, _ := json.Marshal(cursor{LastID: lastID})
	return base64.RawURLEncoding.EncodeToString(b)
}

func DecodeToken(token string) (int64, error) {
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, ErrInvalidToken
	}
	var c cursor
	if err := json.Unmarshal(b, &c); err != nil || c.LastID <= 0 {
		return 0, ErrInvalidToken
	}
	return c.LastID, nil
}

// Page drops the lookahead row fetched past limit and points the next
// token at the last row kept.
func Page[T any](rows []*T, limit int, id func(*T) int64) ([]T, PageInfo) {
	var info PageInfo
	if len(rows) > limit {
		rows = rows[:limit]
		info.HasMore = true
	}

	out := make([]T, 0, len(rows))
	for _, row := range rows {
		if row != nil {
			out = append(out, *row)
		}
	}
	if info.HasMore && len(rows) > 0 {
		info.NextPageToken = EncodeToken(id(rows[len(rows)-1]))
	}
	return out, info
}
