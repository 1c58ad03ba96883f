package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithContextRoundTrip(t *testing.T) {
	base := zap.NewNop()
	ctx := WithContext(context.Background(), base)
	assert.Same(t, base, FromContext(ctx))
}

func TestFromContextWithoutLogger(t *testing.T) {
	l := FromContext(context.Background())
	require.NotNil(t, l, "missing logger must yield a usable no-op")
	l.Info("does not panic")
}

func TestIdentityHelpers(t *testing.T) {
	ctx := context.Background()
	base := zap.NewNop()

	ctx, _ = WithRequestID(ctx, base, "req-1")
	ctx, _ = WithStoreID(ctx, base, "store-1")
	ctx, _ = WithOperator(ctx, base, "alice")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "store-1", GetStoreID(ctx))
	assert.Equal(t, "alice", GetOperator(ctx))
}

func TestLEnrichesWithIdentityFields(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ctx := WithContext(context.Background(), base)
	ctx, _ = WithRequestID(ctx, base, "req-2")
	ctx, _ = WithStoreID(ctx, base, "store-2")

	L(ctx).Info("enriched")

	entries := recorded.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-2", fields["request_id"])
	assert.Equal(t, "store-2", fields["store_id"])
	_, hasOperator := fields["operator"]
	assert.False(t, hasOperator, "unset identity fields are omitted")
}
