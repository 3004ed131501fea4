// Package bits implements the arbitrary-width bit-vector value family the
// simulated instruction semantics are written against.
//
// An Int carries a width W, an unsigned magnitude in [0, 2^W), and a
// signedness view. The magnitude is truncated to W bits after every
// operation; the signed view is the two's-complement interpretation of the
// magnitude. Widths up to MaxNativePrecision live in a uint256 word, wider
// finite values in a big.Int, and the InfinitePrecision width selects
// untruncated big-integer arithmetic. XInt extends Int with a per-bit
// unknown mask for undefined-behavior tracking.
package bits

import (
	"math/big"

	"github.com/holiman/uint256"
)

// Int is a W-bit integer with a signed or unsigned view. The zero value is
// the 1-bit unsigned zero.
type Int struct {
	width  Width
	signed bool
	nat    uint256.Int // storage when width.native()
	abs    *big.Int    // storage otherwise; finite: magnitude, infinite: signed value
}

// New returns an unsigned value of the given width holding the low w bits
// of v.
func New(w Width, v uint64) Int {
	x := Int{width: w}
	if w.native() {
		x.nat.SetUint64(v)
		x.nat.And(&x.nat, natMask(w))
		return x
	}
	x.abs = new(big.Int).SetUint64(v)
	return x
}

// NewSigned returns a signed value of the given width holding the low w
// bits of the two's-complement encoding of v.
func NewSigned(w Width, v int64) Int {
	return fromSem(w, true, big.NewInt(v))
}

// NewRuntime returns an unsigned value whose width is chosen at run time,
// bounded by a static ceiling. It panics with WidthError if the width
// exceeds the ceiling; that is a programmer error, not input.
func NewRuntime(v uint64, w, ceiling Width) Int {
	if w == InfinitePrecision || w > ceiling {
		panic(WidthError{Width: w, Ceiling: ceiling})
	}
	return New(w, v)
}

// Fixed-width constructors for the common machine widths.
func U8(v uint64) Int  { return New(8, v) }
func U16(v uint64) Int { return New(16, v) }
func U32(v uint64) Int { return New(32, v) }
func U64(v uint64) Int { return New(64, v) }
func S8(v int64) Int   { return NewSigned(8, v) }
func S16(v int64) Int  { return NewSigned(16, v) }
func S32(v int64) Int  { return NewSigned(32, v) }
func S64(v int64) Int  { return NewSigned(64, v) }

// Infinite returns an infinite-precision signed value.
func Infinite(v int64) Int {
	return Int{width: InfinitePrecision, signed: true, abs: big.NewInt(v)}
}

// FromBig returns a value of the given width and signedness holding v
// modulo 2^w (or v itself at infinite precision).
func FromBig(w Width, signed bool, v *big.Int) Int {
	return fromSem(w, signed, v)
}

// fromSem builds an Int from a semantic integer, truncating to the target
// width. Finite truncation is a bitwise AND against the width mask, which
// is exactly reduction mod 2^w on the two's-complement encoding.
func fromSem(w Width, signed bool, v *big.Int) Int {
	x := Int{width: w, signed: signed}
	if w == InfinitePrecision {
		x.abs = new(big.Int).Set(v)
		return x
	}
	t := new(big.Int).And(v, new(big.Int).Sub(bigMod(w), bigOne))
	if w.native() {
		x.nat.SetFromBig(t)
		return x
	}
	x.abs = t
	return x
}

// Width returns the width in bits (InfinitePrecision for arbitrary
// precision).
func (x Int) Width() Width { return x.width }

// IsSigned reports whether the signed view is active.
func (x Int) IsSigned() bool { return x.signed }

// Signed returns x with the signed view active. The magnitude is
// unchanged.
func (x Int) Signed() Int {
	x.signed = true
	return x
}

// Unsigned returns x with the unsigned view active.
func (x Int) Unsigned() Int {
	x.signed = false
	return x
}

// Magnitude returns the unsigned magnitude. At infinite precision the
// value itself is returned (it has no bounding width).
func (x Int) Magnitude() *big.Int {
	if x.width == InfinitePrecision {
		return new(big.Int).Set(x.abs)
	}
	if x.width.native() {
		return x.nat.ToBig()
	}
	return new(big.Int).Set(x.abs)
}

// SignedView returns the two's-complement interpretation of the magnitude
// at x's width, regardless of the active view.
func (x Int) SignedView() *big.Int {
	if x.width == InfinitePrecision {
		return new(big.Int).Set(x.abs)
	}
	m := x.Magnitude()
	if x.Bit(int(x.width) - 1) {
		m.Sub(m, bigMod(x.width))
	}
	return m
}

// sem is the value the active view denotes: the signed view when signed,
// else the magnitude.
func (x Int) sem() *big.Int {
	if x.signed {
		return x.SignedView()
	}
	return x.Magnitude()
}

// Uint64 returns the low 64 bits of the magnitude.
func (x Int) Uint64() uint64 {
	if x.width.native() {
		return x.nat.Uint64()
	}
	var lo big.Int
	lo.And(x.abs, new(big.Int).SetUint64(^uint64(0)))
	return lo.Uint64()
}

// Int64 returns the low 64 bits of the active view's value.
func (x Int) Int64() int64 {
	return x.sem().Int64()
}

// Bit returns bit i of the magnitude (of the two's-complement encoding at
// infinite precision). Bits at or above a finite width are zero.
func (x Int) Bit(i int) bool {
	if i < 0 {
		return false
	}
	if x.width != InfinitePrecision && Width(i) >= x.width {
		return false
	}
	if x.width.native() {
		return x.nat[i>>6]>>(i&63)&1 == 1
	}
	return x.abs.Bit(i) == 1
}

// IsZero reports whether the magnitude is zero.
func (x Int) IsZero() bool {
	if x.width.native() {
		return x.nat.IsZero()
	}
	return x.abs.Sign() == 0
}

// Convert returns x at a new width, preserving the semantic value modulo
// 2^w: a narrower signed source sign-extends, an unsigned source
// zero-extends, and a wider source truncates. Signedness is preserved.
func (x Int) Convert(w Width) Int {
	if w == x.width {
		return x
	}
	return fromSem(w, x.signed, x.sem())
}

// extend widens x to w without changing the semantic value. Callers
// guarantee w >= x.width.
func (x Int) extend(w Width) Int {
	return x.Convert(w)
}

// natSem returns the full 256-bit two's-complement encoding of x's
// semantic value. Native widths only.
func (x Int) natSem() *uint256.Int {
	z := new(uint256.Int).Set(&x.nat)
	if x.signed && x.width < 256 && x.Bit(int(x.width)-1) {
		z.Or(z, new(uint256.Int).Not(natMask(x.width)))
	}
	return z
}

// natAt returns the magnitude of x extended to width w per x's own
// signedness. Native widths only, w >= x.width.
func (x Int) natAt(w Width) *uint256.Int {
	z := x.natSem()
	return z.And(z, natMask(w))
}

// String formats the active view in decimal.
func (x Int) String() string {
	return x.sem().String()
}
