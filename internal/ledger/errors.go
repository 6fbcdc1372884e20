package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks malformed input rejected before any store write.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced split or transaction does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrStore marks a read or write failure in the store adapter. Steps committed
	// before the failure are not rolled back.
	ErrStore = errors.New("store failure")

	// ErrInvalidTransition is returned when a settlement transition is not allowed
	// from the split's current state.
	ErrInvalidTransition = errors.New("invalid settlement transition")

	// ErrForbidden is returned when the acting profile does not hold the role a
	// transition requires on a split.
	ErrForbidden = errors.New("transition not allowed for this profile")
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// storeError wraps an adapter failure. Not-found errors pass through untouched.
func storeError(op string, err error) error {
	if errors.Is(err, ErrNotFound) {
		return err
	}

	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}
