package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/phrazzld/loopmind-api/internal/generation"
	"google.golang.org/genai"
)

// Error definitions for the gemini package.
var (
	// ErrEmptyPrompt is returned when a call is attempted with no prompt.
	ErrEmptyPrompt = errors.New("prompt cannot be empty")

	// ErrBlocked is returned when the provider refused to answer for safety reasons.
	ErrBlocked = errors.New("content blocked by safety filters")

	// ErrEmptyResponse is returned when the provider answered without content.
	ErrEmptyResponse = errors.New("empty response from model")
)

// apiStatus returns the HTTP status carried by a genai API error.
func apiStatus(err error) (int, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, true
	}
	return 0, false
}

// isRateLimited reports whether err is a quota rejection.
func isRateLimited(err error) bool {
	code, ok := apiStatus(err)
	return ok && code == http.StatusTooManyRequests
}

// isTransient reports whether a failed call is worth retrying. Errors without
// an API status are network failures and count as transient; context
// cancellation never does.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	code, ok := apiStatus(err)
	if !ok {
		return true
	}
	switch code {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// wrapCallError maps a provider failure onto the generation taxonomy.
func wrapCallError(err error) error {
	if isRateLimited(err) {
		return fmt.Errorf("%w: %w: %v", generation.ErrInvocation, generation.ErrRateLimited, err)
	}
	return fmt.Errorf("%w: %v", generation.ErrInvocation, err)
}
