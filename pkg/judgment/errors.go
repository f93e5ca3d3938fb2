package judgment

import (
	"errors"
	"fmt"
)

// ErrValidation is matched by every *ValidationError via errors.Is.
var ErrValidation = errors.New("judgment validation failed")

// ValidationError reports a violated judgment invariant. A judgment that fails
// validation is never constructed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Reason
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// Is reports ErrValidation as a match so callers need not type-assert.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a *ValidationError. Fusion operators reuse it for input checks.
func Invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
