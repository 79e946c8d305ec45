package rules

import (
	"errors"
	"fmt"
)

// ErrValidation marks input rejected before anything is submitted.
var ErrValidation = errors.New("validation failed")

// ForbiddenError names the section the admin is missing. It never ends
// the session.
type ForbiddenError struct {
	Section Section
}

func (e *ForbiddenError) Error() string {
	if e.Section == "" {
		return "forbidden: unknown section"
	}
	return fmt.Sprintf("forbidden: %s", e.Section)
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
