// Package domain contains persistence models for invoicing.
package domain

import (
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/autocharge/internal/money"
)

// InvoiceStatus represents invoice lifecycle states.
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "PENDING"
	InvoiceStatusPaid    InvoiceStatus = "PAID"
)

func (s InvoiceStatus) Valid() bool {
	return s == InvoiceStatusPending || s == InvoiceStatusPaid
}

// Invoice is a single amount owed by a customer.
type Invoice struct {
	ID         snowflake.ID    `gorm:"primaryKey;autoIncrement:false"`
	Number     string          `gorm:"type:varchar(64);not null;uniqueIndex:ux_invoices_number"`
	CustomerID snowflake.ID    `gorm:"not null;index"`
	Value      decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	Currency   money.Currency  `gorm:"type:varchar(3);not null"`
	Status     InvoiceStatus   `gorm:"type:varchar(16);not null;index"`
	CreatedAt  time.Time       `gorm:"not null"`
	UpdatedAt  time.Time       `gorm:"not null"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

func (i Invoice) Amount() money.Money {
	return money.New(i.Value, i.Currency)
}

type invoiceJSON struct {
	ID         string        `json:"id"`
	Number     string        `json:"number"`
	CustomerID string        `json:"customer_id"`
	Amount     money.Money   `json:"amount"`
	Status     InvoiceStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

func (i Invoice) MarshalJSON() ([]byte, error) {
	return json.Marshal(invoiceJSON{
		ID:         i.ID.String(),
		Number:     i.Number,
		CustomerID: i.CustomerID.String(),
		Amount:     i.Amount(),
		Status:     i.Status,
		CreatedAt:  i.CreatedAt,
		UpdatedAt:  i.UpdatedAt,
	})
}
