package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCorrelationValuesRoundTrip(t *testing.T) {
	ctx := context.Background()
	ctx = WithRequestID(ctx, " req-1 ")
	ctx = WithRunID(ctx, "42")
	ctx = WithActor(ctx, "system", "scheduler")

	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Equal(t, "42", RunIDFromContext(ctx))
	kind, id := ActorFromContext(ctx)
	assert.Equal(t, "system", kind)
	assert.Equal(t, "scheduler", id)
}

func TestEmptyValuesAreIgnored(t *testing.T) {
	ctx := WithRunID(context.Background(), "  ")
	assert.Empty(t, RunIDFromContext(ctx))
	assert.Empty(t, RequestIDFromContext(context.Background()))
}
