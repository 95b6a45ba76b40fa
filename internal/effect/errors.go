package effect

import (
	"errors"
	"fmt"
)

// ErrDuplicateName is returned when two techniques of an effect, two
// passes of a technique or two parameters of a pass map to the same
// member name, or when one maps to a member of the engine base class.
var ErrDuplicateName = errors.New("duplicate name")

// GenerateError reports a failure to generate the class for an effect,
// typically a base member that could not be resolved.
type GenerateError struct {
	Effect string
	Member string
	Err    error
}

func (e *GenerateError) Error() string {
	if e.Member == "" {
		return fmt.Sprintf("generate %s: %v", e.Effect, e.Err)
	}
	return fmt.Sprintf("generate %s: %s: %v", e.Effect, e.Member, e.Err)
}

func (e *GenerateError) Unwrap() error {
	return e.Err
}
