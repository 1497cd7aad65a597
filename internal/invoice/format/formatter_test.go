package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatInvoiceNumber(t *testing.T) {
	at := time.Date(2024, time.March, 9, 0, 0, 0, 0, time.UTC)

	got, err := FormatInvoiceNumber(DefaultInvoiceNumberTemplate, at, 42)
	require.NoError(t, err)
	assert.Equal(t, "INV-202403-000042", got)

	got, err = FormatInvoiceNumber("{YY}{DD}/{SEQ}", at, 7)
	require.NoError(t, err)
	assert.Equal(t, "2409/7", got)
}

func TestFormatInvoiceNumberErrors(t *testing.T) {
	at := time.Now()
	_, err := FormatInvoiceNumber("", at, 1)
	assert.ErrorIs(t, err, ErrEmptyTemplate)
	_, err = FormatInvoiceNumber("INV-{SEQ}", at, 0)
	assert.ErrorIs(t, err, ErrInvalidSequence)
	_, err = FormatInvoiceNumber("INV-{UNKNOWN}-{SEQ}", at, 1)
	assert.ErrorContains(t, err, "{UNKNOWN}")
	_, err = FormatInvoiceNumber("INV-{MM2}", at, 1)
	assert.Error(t, err)
}

func TestSequencePrefix(t *testing.T) {
	at := time.Date(2026, time.October, 14, 0, 0, 0, 0, time.UTC)

	prefix, err := SequencePrefix(DefaultInvoiceNumberTemplate, at)
	require.NoError(t, err)
	assert.Equal(t, "INV-202610-", prefix)

	prefix, err = SequencePrefix("{SEQ4}/{YY}", at)
	require.NoError(t, err)
	assert.Empty(t, prefix)

	_, err = SequencePrefix("INV-{YYYY}", at)
	assert.ErrorIs(t, err, ErrNoSequenceToken)
}

func TestParseSequence(t *testing.T) {
	assert.EqualValues(t, 11, ParseSequence("INV-202610-000011", "INV-202610-"))
	assert.EqualValues(t, 1234567, ParseSequence("INV-202610-1234567", "INV-202610-"))
	assert.EqualValues(t, 7, ParseSequence("7/26", ""))
	assert.Zero(t, ParseSequence("INV-202609-000011", "INV-202610-"))
	assert.Zero(t, ParseSequence("INV-202610-", "INV-202610-"))
}
