package shared

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestUserIDContext(t *testing.T) {
	t.Parallel()

	_, ok := UserIDFromContext(context.Background())
	assert.False(t, ok)

	_, ok = UserIDFromContext(WithUserID(context.Background(), uuid.Nil))
	assert.False(t, ok, "nil ID counts as missing")

	_, ok = UserIDFromContext(context.WithValue(context.Background(), userIDKey, "not-a-uuid"))
	assert.False(t, ok)

	id := uuid.New()
	got, ok := UserIDFromContext(WithUserID(context.Background(), id))
	assert.True(t, ok)
	assert.Equal(t, id, got)
}

func TestTraceIDContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	assert.Empty(t, GetTraceID(ctx))

	traced := WithTraceID(ctx, "abc")
	assert.Equal(t, "abc", GetTraceID(traced))
	assert.Empty(t, GetTraceID(ctx), "parent context unchanged")

	assert.Empty(t, GetTraceID(context.WithValue(ctx, traceIDKey, 123)))
}

func TestNewTraceID(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{}, 1000)
	for range 1000 {
		id := NewTraceID()
		assert.True(t, ValidTraceID(id), id)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, 1000)
}

func TestValidTraceID(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"0123456789abcdef0123456789abcdef":  true,
		"0123456789ABCDEF0123456789abcdef":  false,
		"0123456789abcdef":                  false,
		"0123456789abcdef0123456789abcdeg":  false,
		"0123456789abcdef0123456789abcdef0": false,
		"":                                  false,
	}
	for in, want := range tests {
		assert.Equal(t, want, ValidTraceID(in), in)
	}
}
