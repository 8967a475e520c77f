package generation

import (
	"errors"
	"fmt"
)

// Error taxonomy for a generation run. Every failure returned by Pipeline.Run
// wraps exactly one of these.
var (
	// ErrConfig is returned when required configuration is absent. No model
	// call is attempted.
	ErrConfig = errors.New("generation configuration error")

	// ErrInvocation is returned when a model call fails at the transport or
	// provider level.
	ErrInvocation = errors.New("generation invocation failed")

	// ErrParse is returned when model output cannot be recovered as JSON
	// after the repair attempt.
	ErrParse = errors.New("model output is not valid JSON")

	// ErrValidation is returned when parsed output has the wrong shape after
	// the corrective attempt.
	ErrValidation = errors.New("model output failed validation")

	// ErrRateLimited accompanies ErrInvocation when the provider rejected the
	// call for quota reasons.
	ErrRateLimited = errors.New("generation rate limited")
)

// CountError reports a pass whose result was not a list of the expected
// length once every strategy was exhausted.
type CountError struct {
	Stage    string
	Expected int
	// Actual is -1 when the result was not a list.
	Actual int
}

// Error implements the error interface.
func (e *CountError) Error() string {
	if e.Actual < 0 {
		return fmt.Sprintf("%s returned non-list; expected %d", e.Stage, e.Expected)
	}
	return fmt.Sprintf("%s returned %d; expected %d", e.Stage, e.Actual, e.Expected)
}

// Unwrap returns ErrValidation so callers can use errors.Is.
func (e *CountError) Unwrap() error {
	return ErrValidation
}

// invocationError makes sure err carries ErrInvocation.
func invocationError(stage string, err error) error {
	if errors.Is(err, ErrInvocation) || errors.Is(err, ErrConfig) {
		return fmt.Errorf("%s: %w", stage, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrInvocation, stage, err)
}
