package vm

import (
	"errors"
	"fmt"
)

var (
	ErrUnboundExtern  = errors.New("extern method not bound")
	ErrInvalidCast    = errors.New("invalid cast")
	ErrNullReference  = errors.New("null reference")
	ErrStackUnderflow = errors.New("stack underflow")
	ErrStepLimit      = errors.New("step limit exceeded")
)

// VerifyError reports an invalid instruction in a method body. Index is
// the instruction offset, or -1 for method-level problems.
type VerifyError struct {
	Method  string
	Index   int
	Message string
}

func (e *VerifyError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("verify %s: %s", e.Method, e.Message)
	}
	return fmt.Sprintf("verify %s at %d: %s", e.Method, e.Index, e.Message)
}
