package scoring

import (
	"errors"
	"fmt"
)

// Errors returned by the scoring package. Callers match them with errors.Is;
// the wrapped message carries the detail.
var (
	// ErrValidation marks malformed input: hole out of range, negative score,
	// handicap outside 0–54, unknown enum value.
	ErrValidation = errors.New("validation error")

	// ErrConfiguration marks a format that reached the strategy dispatcher
	// without a registered strategy. It is never retried.
	ErrConfiguration = errors.New("configuration error")
)

func validationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
