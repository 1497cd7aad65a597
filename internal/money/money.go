package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

type Currency string

const (
	EUR Currency = "EUR"
	USD Currency = "USD"
	DKK Currency = "DKK"
	SEK Currency = "SEK"
	GBP Currency = "GBP"
)

var ErrUnknownCurrency = errors.New("unknown_currency")

var currencies = []Currency{EUR, USD, DKK, SEK, GBP}

// Currencies returns the supported currencies in a stable order.
func Currencies() []Currency {
	out := make([]Currency, len(currencies))
	copy(out, currencies)
	return out
}

func ParseCurrency(value string) (Currency, error) {
	c := Currency(strings.ToUpper(strings.TrimSpace(value)))
	if !c.Valid() {
		return "", ErrUnknownCurrency
	}
	return c, nil
}

func (c Currency) Valid() bool {
	for _, known := range currencies {
		if c == known {
			return true
		}
	}
	return false
}

func (c Currency) String() string {
	return string(c)
}

// Money is an exact decimal amount in a single currency.
type Money struct {
	Value    decimal.Decimal `json:"value"`
	Currency Currency        `json:"currency"`
}

func New(value decimal.Decimal, currency Currency) Money {
	return Money{Value: value, Currency: currency}
}

// MinorUnits converts to the smallest unit of the currency, e.g. cents.
// All supported currencies use two decimal places.
func (m Money) MinorUnits() int64 {
	return m.Value.Shift(2).Round(0).IntPart()
}

func (m Money) String() string {
	return m.Value.StringFixed(2) + " " + string(m.Currency)
}
