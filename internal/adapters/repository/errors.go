package repository

import (
	"errors"
	"fmt"
)

// Sentinel kinds for storage errors.
var (
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrDuplicateEmail is a constraint violation; it also matches
	// ErrStorageUnavailable for callers that do not care about the difference.
	ErrDuplicateEmail = fmt.Errorf("%w: subscription email already exists", ErrStorageUnavailable)

	// ErrUnknownKind rejects a submission whose detail is not a known kind
	// before it reaches the submission_kind enum.
	ErrUnknownKind = fmt.Errorf("%w: unknown submission kind", ErrStorageUnavailable)
)

// unavailable tags a backend failure with ErrStorageUnavailable and keeps the cause.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}
