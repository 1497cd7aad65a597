package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{name: "nil", err: nil, want: KindUnclassified},
		{name: "plain", err: errors.New("boom"), want: KindUnclassified},
		{name: "customer", err: NewChargeError(KindCustomerNotFound, 1, nil), want: KindCustomerNotFound},
		{name: "wrapped currency", err: fmt.Errorf("provider: %w", NewChargeError(KindCurrencyMismatch, 1, nil)), want: KindCurrencyMismatch},
		{name: "deadline", err: fmt.Errorf("call: %w", context.DeadlineExceeded), want: KindNetwork},
		{name: "net", err: &net.OpError{Op: "dial", Err: errors.New("refused")}, want: KindNetwork},
		{name: "canceled", err: context.Canceled, want: KindUnclassified},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(tc.err))
		})
	}
}

func TestChargeErrorFormatting(t *testing.T) {
	cause := errors.New("timeout")
	err := NewChargeError(KindNetwork, 42, cause)
	assert.Equal(t, "charge invoice 42: network: timeout", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, err.Kind.Classified())
	assert.False(t, KindUnclassified.Classified())
	assert.Equal(t, "charge invoice 7: customer_not_found", NewChargeError(KindCustomerNotFound, 7, nil).Error())
}
