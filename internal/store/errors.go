package store

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by every store implementation. Callers match them
// with errors.Is; the driver error, when there is one, is wrapped alongside.
var (
	// ErrNotFound is the root of every entity-specific not found error.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate reports a unique constraint clash, such as a topic ID
	// that is already taken.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity covers entities that failed domain validation before
	// the write and rows the database refused (check, not-null or unknown
	// foreign key violations).
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransactionFailed wraps begin and commit failures.
	ErrTransactionFailed = errors.New("transaction failed")

	ErrTopicNotFound = fmt.Errorf("%w: topic", ErrNotFound)
	ErrCardNotFound  = fmt.Errorf("%w: card", ErrNotFound)
	ErrTaskNotFound  = fmt.Errorf("%w: task", ErrNotFound)
)
