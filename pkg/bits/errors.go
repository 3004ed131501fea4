package bits

import (
	"errors"
	"fmt"
)

// Surfaced conditions. Callers distinguish these with errors.Is.
var (
	// ErrUndefinedValue is returned when a boolean use of a
	// possibly-unknown value cannot be decided from its known bits.
	ErrUndefinedValue = errors.New("bits: undefined value")

	// ErrDivideByZero is returned by Div and Rem when the divisor is zero.
	ErrDivideByZero = errors.New("bits: divide by zero")
)

// WidthError is the panic value raised when a runtime width exceeds its
// static ceiling. This is a programmer error, not a recoverable condition.
type WidthError struct {
	Width   Width
	Ceiling Width
}

func (e WidthError) Error() string {
	return fmt.Sprintf("bits: runtime width %d exceeds ceiling %d", e.Width, e.Ceiling)
}

// InfinitePrecisionProductError is the panic value raised when both
// operands of a multiply are infinite-precision. Allowing the product
// would let a simulated multiply grow storage without bound.
type InfinitePrecisionProductError struct{}

func (InfinitePrecisionProductError) Error() string {
	return "bits: product of two infinite-precision values"
}
