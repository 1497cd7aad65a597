package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCurrency(t *testing.T) {
	c, err := ParseCurrency(" dkk ")
	require.NoError(t, err)
	assert.Equal(t, DKK, c)

	_, err = ParseCurrency("JPY")
	assert.ErrorIs(t, err, ErrUnknownCurrency)
}

func TestCurrenciesReturnsCopy(t *testing.T) {
	list := Currencies()
	require.Len(t, list, 5)
	list[0] = "XXX"
	assert.Equal(t, EUR, Currencies()[0])
}

func TestMinorUnits(t *testing.T) {
	m := New(decimal.RequireFromString("123.456"), EUR)
	assert.Equal(t, int64(12346), m.MinorUnits())
	assert.Equal(t, "123.46 EUR", m.String())
}
