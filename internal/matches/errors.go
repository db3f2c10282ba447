package matches

import (
	"errors"
	"fmt"

	"github.com/arcieron/clubstakes-social-swing-sub000/internal/scoring"
)

// Domain errors for the match service. Validation and configuration errors come
// from the scoring package (scoring.ErrValidation, scoring.ErrConfiguration).
var (
	// ErrNotFound indicates the match, member or participant does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a concurrent writer got there first: another
	// confirmation already settled the match, or the member already joined.
	ErrConflict = errors.New("conflict")

	// ErrInvalidState indicates the operation is not allowed in the match's
	// current status (scoring a completed match, joining a full one).
	ErrInvalidState = errors.New("invalid match state")

	// ErrForbidden indicates the caller is not allowed to act on this match.
	ErrForbidden = errors.New("forbidden")

	// ErrDependency indicates a storage or collaborator call failed.
	ErrDependency = errors.New("dependency failure")
)

// ErrValidation is re-exported so callers of this package need only one import.
var ErrValidation = scoring.ErrValidation

// dependency wraps unexpected repository failures as ErrDependency while
// letting the repository's own domain errors through untouched.
func dependency(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{ErrNotFound, ErrConflict, ErrInvalidState, ErrForbidden, ErrDependency, scoring.ErrValidation} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %s: %w", ErrDependency, op, err)
}
