package scanner

import (
	"errors"
	"fmt"
)

// ErrValidation matches every ValidationError via errors.Is
var ErrValidation = errors.New("validation error")

// ValidationError reports malformed scan input; no probing is attempted
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
