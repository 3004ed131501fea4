package bits

import (
	"math/big"
	"strings"
)

// XInt is a bit-vector whose bits may be unknown. It carries a value Int
// whose magnitude holds the known bits (zero, by convention, at unknown
// positions) and an unsigned mask of the same width with a set bit for
// every unknown position. Operations propagate unknowns conservatively:
// bitwise operations keep every bit that is forced by known inputs,
// arithmetic gives up the whole result, and boolean uses fail with
// ErrUndefinedValue unless the known bits alone decide the outcome.
type XInt struct {
	val Int
	unk Int
}

// X wraps a fully known value.
func X(v Int) XInt {
	return XInt{val: v, unk: New(v.width, 0)}
}

// NewX builds a possibly-unknown value from known bits and an unknown
// mask. The mask is truncated to v's width and the magnitude is cleared
// under it.
func NewX(v, mask Int) XInt {
	m := mask.Unsigned().Convert(v.width)
	cleared := v.And(m.Not())
	cleared.signed = v.signed
	return XInt{val: cleared, unk: m}
}

// FullyUnknown returns a value of width w with every bit unknown.
func FullyUnknown(w Width, signed bool) XInt {
	v := New(w, 0)
	v.signed = signed
	return XInt{val: v, unk: New(w, 0).Not().Unsigned()}
}

func (x XInt) Width() Width   { return x.val.width }
func (x XInt) IsSigned() bool { return x.val.signed }

// Value returns the known bits (zero at unknown positions).
func (x XInt) Value() Int { return x.val }

// UnknownMask returns the unknown-bit mask.
func (x XInt) UnknownMask() Int { return x.unk }

// IsFullyKnown reports whether no bit is unknown.
func (x XInt) IsFullyKnown() bool { return x.unk.IsZero() }

// Known extracts the underlying Int, failing with ErrUndefinedValue if any
// bit is unknown.
func (x XInt) Known() (Int, error) {
	if !x.IsFullyKnown() {
		return Int{}, ErrUndefinedValue
	}
	return x.val, nil
}

// KnownBit returns bit i when it is known.
func (x XInt) KnownBit(i int) (bool, error) {
	if x.unk.Bit(i) {
		return false, ErrUndefinedValue
	}
	return x.val.Bit(i), nil
}

// extend widens x to w. The known bits extend per the value's signedness;
// the mask extends in parallel, so copies of an unknown sign bit are
// themselves unknown.
func (x XInt) extend(w Width) XInt {
	if w == x.val.width {
		return x
	}
	v := x.val.Convert(w)
	var m Int
	if x.val.signed {
		m = x.unk.Signed().Convert(w).Unsigned()
	} else {
		m = x.unk.Convert(w)
	}
	// A sign-extended magnitude under an unknown sign bit would smear
	// ones into positions the mask already marks unknown; clear them.
	v = v.And(m.Not())
	v.signed = x.val.signed
	return XInt{val: v, unk: m}
}

// known1 and known0 return the masks of bits forced to one and zero.
func (x XInt) known1() Int { return x.val.Unsigned().And(x.unk.Not()) }
func (x XInt) known0() Int { return x.val.Unsigned().Not().And(x.unk.Not()) }

// combine packages forced-one and forced-zero masks into an XInt at w.
func combine(w Width, signed bool, res1, res0 Int) XInt {
	unk := res1.Or(res0).Not().Unsigned()
	v := res1.Unsigned()
	v.signed = signed
	return XInt{val: v.Convert(w), unk: unk.Convert(w)}
}

// And returns the bitwise AND. A known zero on either side forces the
// bit; both sides known one forces a one; anything else is unknown.
func (x XInt) And(y XInt) XInt {
	w := maxWidth(x.val.width, y.val.width)
	a, b := x.extend(w), y.extend(w)
	res1 := a.known1().And(b.known1())
	res0 := a.known0().Or(b.known0())
	return combine(w, x.val.signed && y.val.signed, res1, res0)
}

// Or returns the bitwise OR, the dual of And: a known one on either side
// forces the bit.
func (x XInt) Or(y XInt) XInt {
	w := maxWidth(x.val.width, y.val.width)
	a, b := x.extend(w), y.extend(w)
	res1 := a.known1().Or(b.known1())
	res0 := a.known0().And(b.known0())
	return combine(w, x.val.signed && y.val.signed, res1, res0)
}

// Xor returns the bitwise XOR; a bit is known only when both inputs are.
func (x XInt) Xor(y XInt) XInt {
	w := maxWidth(x.val.width, y.val.width)
	a, b := x.extend(w), y.extend(w)
	unk := a.unk.Or(b.unk).Unsigned()
	v := a.val.Xor(b.val).And(unk.Not())
	v.signed = x.val.signed && y.val.signed
	return XInt{val: v, unk: unk}
}

// Not complements the known bits and keeps the mask.
func (x XInt) Not() XInt {
	v := x.val.Not().And(x.unk.Not())
	v.signed = x.val.signed
	return XInt{val: v, unk: x.unk}
}

// Arithmetic over possibly-unknown values: any unknown input bit makes the
// entire result unknown.

func (x XInt) Add(y XInt) XInt { return x.arith(y, func(a, b Int) Int { return a.Add(b) }) }
func (x XInt) Sub(y XInt) XInt { return x.arith(y, func(a, b Int) Int { return a.Sub(b) }) }
func (x XInt) Mul(y XInt) XInt { return x.arith(y, func(a, b Int) Int { return a.Mul(b) }) }

func (x XInt) arith(y XInt, op func(a, b Int) Int) XInt {
	w := maxWidth(x.val.width, y.val.width)
	if !x.IsFullyKnown() || !y.IsFullyKnown() {
		return FullyUnknown(w, x.val.signed && y.val.signed)
	}
	return X(op(x.val, y.val))
}

// Div divides at x's width. A divisor known to be zero is refused; any
// unknown bit gives a fully unknown quotient.
func (x XInt) Div(y XInt) (XInt, error) {
	if y.IsFullyKnown() && y.val.IsZero() {
		return XInt{}, ErrDivideByZero
	}
	if !x.IsFullyKnown() || !y.IsFullyKnown() {
		return FullyUnknown(x.val.width, x.val.signed && y.val.signed), nil
	}
	q, err := x.val.Div(y.val)
	if err != nil {
		return XInt{}, err
	}
	return X(q), nil
}

// Rem takes the remainder at x's width under the same rules as Div.
func (x XInt) Rem(y XInt) (XInt, error) {
	if y.IsFullyKnown() && y.val.IsZero() {
		return XInt{}, ErrDivideByZero
	}
	if !x.IsFullyKnown() || !y.IsFullyKnown() {
		return FullyUnknown(x.val.width, x.val.signed && y.val.signed), nil
	}
	r, err := x.val.Rem(y.val)
	if err != nil {
		return XInt{}, err
	}
	return X(r), nil
}

// Shl shifts left; the mask shifts in parallel with the magnitude, and an
// unknown shift amount loses everything.
func (x XInt) Shl(y XInt) XInt {
	w := maxWidth(x.val.width, y.val.width)
	if !y.IsFullyKnown() {
		return FullyUnknown(w, x.val.signed && y.val.signed)
	}
	v := x.val.Shl(y.val)
	m := x.unk.Shl(y.val.Unsigned()).Unsigned().Convert(w)
	return XInt{val: v, unk: m}
}

// Shr shifts right logically, zero-filling both magnitude and mask.
func (x XInt) Shr(y XInt) XInt {
	if !y.IsFullyKnown() {
		return FullyUnknown(x.val.width, x.val.signed && y.val.signed)
	}
	v := x.val.Shr(y.val)
	m := x.unk.Shr(y.val.Unsigned()).Unsigned()
	return XInt{val: v, unk: m}
}

// Sra shifts right arithmetically. The sign position replicates in both
// magnitude and mask, so an unknown sign bit yields unknown fill.
func (x XInt) Sra(y XInt) XInt {
	if !y.IsFullyKnown() {
		return FullyUnknown(x.val.width, x.val.signed && y.val.signed)
	}
	v := x.val.Sra(y.val)
	m := x.unk.Sra(y.val).Unsigned()
	// Fill bits that became unknown must not carry magnitude ones.
	v = v.And(m.Not())
	v.signed = x.val.signed
	return XInt{val: v, unk: m}
}

// Eq compares for equality. A known differing bit decides false; with no
// such bit, any remaining unknown bit makes the outcome undefined.
func (x XInt) Eq(y XInt) (bool, error) {
	w := maxWidth(x.val.width, y.val.width)
	a, b := x.extend(w), y.extend(w)
	bothKnown := a.unk.Or(b.unk).Not()
	diff := a.val.Unsigned().Xor(b.val.Unsigned()).And(bothKnown)
	if !diff.IsZero() {
		return false, nil
	}
	if !a.unk.IsZero() || !b.unk.IsZero() {
		return false, ErrUndefinedValue
	}
	return true, nil
}

// Cmp orders two possibly-unknown values when their refinement ranges do
// not overlap; otherwise it fails with ErrUndefinedValue.
func (x XInt) Cmp(y XInt) (int, error) {
	w := maxWidth(x.val.width, y.val.width)
	a, b := x.extend(w), y.extend(w)
	signed := a.val.signed && b.val.signed
	amin, amax := a.valueRange(w, signed)
	bmin, bmax := b.valueRange(w, signed)
	switch {
	case amax.Cmp(bmin) < 0:
		return -1, nil
	case amin.Cmp(bmax) > 0:
		return 1, nil
	case amin.Cmp(amax) == 0 && bmin.Cmp(bmax) == 0 && amin.Cmp(bmin) == 0:
		return 0, nil
	}
	return 0, ErrUndefinedValue
}

// Bool converts to a truth value: any known one bit decides true, a fully
// known zero decides false, anything else is undefined.
func (x XInt) Bool() (bool, error) {
	if !x.known1().IsZero() {
		return true, nil
	}
	if x.unk.IsZero() {
		return false, nil
	}
	return false, ErrUndefinedValue
}

// valueRange returns the smallest and largest semantic values any
// refinement of x can take under the given interpretation.
func (x XInt) valueRange(w Width, signed bool) (*big.Int, *big.Int) {
	if !signed {
		lo := x.val.Magnitude()
		hi := x.val.Or(x.unk).Magnitude()
		return lo, hi
	}
	sign := New(w, 0)
	if w.IsFinite() {
		sign = New(w, 1).Shl(New(w, uint64(w-1)))
	}
	// Minimum: unknown sign bit set, lower unknown bits clear.
	loMag := x.val.Unsigned().Or(x.unk.And(sign))
	// Maximum: unknown sign bit clear, lower unknown bits set.
	hiMag := x.val.Unsigned().Or(x.unk).And(x.unk.And(sign).Not())
	return loMag.Signed().SignedView(), hiMag.Signed().SignedView()
}

// String renders the value in binary with x marking unknown bits, e.g.
// "0b1xx0".
func (x XInt) String() string {
	w := x.val.width
	if w == InfinitePrecision {
		return x.val.String()
	}
	var sb strings.Builder
	sb.WriteString("0b")
	for i := int(w) - 1; i >= 0; i-- {
		switch {
		case x.unk.Bit(i):
			sb.WriteByte('x')
		case x.val.Bit(i):
			sb.WriteByte('1')
		default:
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
