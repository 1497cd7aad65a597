package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/autocharge/internal/money"
	"gorm.io/datatypes"
)

type Customer struct {
	ID         snowflake.ID      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Currency   money.Currency    `gorm:"type:varchar(3);not null" json:"currency"`
	PaymentRef string            `gorm:"column:payment_ref;type:varchar(255)" json:"payment_ref,omitempty"`
	Metadata   datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt  time.Time         `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time         `gorm:"not null" json:"updated_at"`
}

func (Customer) TableName() string {
	return "customers"
}
