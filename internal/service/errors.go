package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/loopmind-api/internal/store"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check them with errors.Is; the API layer maps them to status codes.
var (
	// ErrNotOwned indicates a resource is owned by a different user than the one making the request.
	// API layer should map this to HTTP 403 Forbidden.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrTopicNotFound indicates that the topic does not exist.
	ErrTopicNotFound = errors.New("topic not found")

	// ErrCardNotFound indicates that the card does not exist in the requested topic.
	ErrCardNotFound = errors.New("card not found")
)

// TopicServiceError wraps errors from the topic service with context.
type TopicServiceError struct {
	// Operation is the operation that failed (e.g., "generate_topic", "mark_learnt")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for TopicServiceError.
func (e *TopicServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("topic service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("topic service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *TopicServiceError) Unwrap() error {
	return e.Err
}

// NewTopicServiceError creates a new TopicServiceError.
// Known sentinel errors are returned directly without wrapping.
func NewTopicServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrNotOwned):
		return ErrNotOwned
	case errors.Is(err, ErrTopicNotFound), errors.Is(err, store.ErrTopicNotFound):
		return ErrTopicNotFound
	case errors.Is(err, ErrCardNotFound), errors.Is(err, store.ErrCardNotFound):
		return ErrCardNotFound
	}

	return &TopicServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
