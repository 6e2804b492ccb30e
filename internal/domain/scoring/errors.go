package scoring

import (
	"errors"
	"fmt"
)

// ErrValidation is the sentinel kind matched by every ValidationError.
var ErrValidation = errors.New("validation failed")

// ValidationError reports malformed or out-of-range score input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrValidation, e.Field, e.Reason)
}

// Is lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
