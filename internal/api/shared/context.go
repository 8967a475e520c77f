package shared

import (
	"context"
	"encoding/hex"

	"github.com/google/uuid"
)

type contextKey string

const (
	userIDKey  contextKey = "userID"
	traceIDKey contextKey = "traceID"
)

// TraceIDHeader carries the trace ID on requests and responses. An inbound
// value is honoured when it is a well-formed trace ID.
const TraceIDHeader = "X-Trace-ID"

const traceIDHexLen = 32

// WithUserID returns a copy of ctx carrying the authenticated owner ID.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext returns the owner ID set by WithUserID. ok is false when
// none is set or the ID is nil.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(userIDKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		return uuid.Nil, false
	}
	return userID, true
}

// NewTraceID returns 32 lowercase hex characters from a random UUID.
func NewTraceID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// ValidTraceID reports whether s has the shape NewTraceID produces.
func ValidTraceID(s string) bool {
	if len(s) != traceIDHexLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// WithTraceID returns a copy of ctx carrying traceID.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// GetTraceID returns the trace ID in ctx, or "".
func GetTraceID(ctx context.Context) string {
	traceID, _ := ctx.Value(traceIDKey).(string)
	return traceID
}
