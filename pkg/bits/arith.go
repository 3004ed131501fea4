package bits

import (
	"math/big"

	"github.com/holiman/uint256"
)

// Binary operations follow the width and signedness composition rules of
// the value family: a non-widening result is max(Wa, Wb) bits and is
// truncated there; the result is signed iff both operands are signed;
// operands are first brought to the result width per their own signedness
// (signed sources sign-extend). Any infinite-precision operand makes the
// result infinite-precision and suppresses truncation.

// Add returns x + y truncated to max(Wa, Wb).
func (x Int) Add(y Int) Int {
	w := maxWidth(x.width, y.width)
	if w.native() {
		z := new(uint256.Int).Add(x.natAt(w), y.natAt(w))
		return natResult(w, x.signed && y.signed, z)
	}
	return fromSem(w, x.signed && y.signed, new(big.Int).Add(x.sem(), y.sem()))
}

// Sub returns x - y truncated to max(Wa, Wb).
func (x Int) Sub(y Int) Int {
	w := maxWidth(x.width, y.width)
	if w.native() {
		z := new(uint256.Int).Sub(x.natAt(w), y.natAt(w))
		return natResult(w, x.signed && y.signed, z)
	}
	return fromSem(w, x.signed && y.signed, new(big.Int).Sub(x.sem(), y.sem()))
}

// Mul returns x * y truncated to max(Wa, Wb). Both operands at infinite
// precision panic with InfinitePrecisionProductError.
func (x Int) Mul(y Int) Int {
	checkInfiniteProduct(x, y)
	w := maxWidth(x.width, y.width)
	if w.native() {
		z := new(uint256.Int).Mul(x.natAt(w), y.natAt(w))
		return natResult(w, x.signed && y.signed, z)
	}
	return fromSem(w, x.signed && y.signed, new(big.Int).Mul(x.sem(), y.sem()))
}

// Neg returns the modular negation of x at its own width.
func (x Int) Neg() Int {
	return fromSem(x.width, x.signed, new(big.Int).Neg(x.sem()))
}

// Div returns x / y at x's width. Division is signed (truncated toward
// zero) iff both operands are signed. A zero divisor returns
// ErrDivideByZero; the ISA defines that case, this library refuses it.
func (x Int) Div(y Int) (Int, error) {
	if y.IsZero() {
		return Int{}, ErrDivideByZero
	}
	signed := x.signed && y.signed
	if signed {
		return fromSem(x.width, true, new(big.Int).Quo(x.SignedView(), y.SignedView())), nil
	}
	return fromSem(x.width, false, new(big.Int).Quo(x.Magnitude(), y.Magnitude())), nil
}

// Rem returns x % y at x's width, with the sign of the dividend when both
// operands are signed.
func (x Int) Rem(y Int) (Int, error) {
	if y.IsZero() {
		return Int{}, ErrDivideByZero
	}
	signed := x.signed && y.signed
	if signed {
		return fromSem(x.width, true, new(big.Int).Rem(x.SignedView(), y.SignedView())), nil
	}
	return fromSem(x.width, false, new(big.Int).Rem(x.Magnitude(), y.Magnitude())), nil
}

// AddWide returns the exact sum at width max(Wa, Wb) + 1. No truncation
// can occur.
func (x Int) AddWide(y Int) Int {
	w := addWidth(maxWidth(x.width, y.width), 1)
	return fromSem(w, x.signed && y.signed, new(big.Int).Add(x.sem(), y.sem()))
}

// SubWide returns the exact difference at width max(Wa, Wb) + 1.
func (x Int) SubWide(y Int) Int {
	w := addWidth(maxWidth(x.width, y.width), 1)
	return fromSem(w, x.signed && y.signed, new(big.Int).Sub(x.sem(), y.sem()))
}

// MulWide returns the full product at width Wa + Wb. Both operands at
// infinite precision panic with InfinitePrecisionProductError.
func (x Int) MulWide(y Int) Int {
	checkInfiniteProduct(x, y)
	w := addWidth(x.width, y.width)
	return fromSem(w, x.signed && y.signed, new(big.Int).Mul(x.sem(), y.sem()))
}

func checkInfiniteProduct(x, y Int) {
	if x.width == InfinitePrecision && y.width == InfinitePrecision {
		panic(InfinitePrecisionProductError{})
	}
}

// natResult truncates a native intermediate to w and packages it.
func natResult(w Width, signed bool, z *uint256.Int) Int {
	r := Int{width: w, signed: signed}
	r.nat.And(z, natMask(w))
	return r
}
