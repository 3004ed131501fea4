package bits

import (
	"math/big"

	"github.com/holiman/uint256"
)

// And returns the bitwise AND at width max(Wa, Wb).
func (x Int) And(y Int) Int {
	w := maxWidth(x.width, y.width)
	if w.native() {
		z := new(uint256.Int).And(x.natAt(w), y.natAt(w))
		return natResult(w, x.signed && y.signed, z)
	}
	return fromSem(w, x.signed && y.signed, new(big.Int).And(x.sem(), y.sem()))
}

// Or returns the bitwise OR at width max(Wa, Wb).
func (x Int) Or(y Int) Int {
	w := maxWidth(x.width, y.width)
	if w.native() {
		z := new(uint256.Int).Or(x.natAt(w), y.natAt(w))
		return natResult(w, x.signed && y.signed, z)
	}
	return fromSem(w, x.signed && y.signed, new(big.Int).Or(x.sem(), y.sem()))
}

// Xor returns the bitwise XOR at width max(Wa, Wb).
func (x Int) Xor(y Int) Int {
	w := maxWidth(x.width, y.width)
	if w.native() {
		z := new(uint256.Int).Xor(x.natAt(w), y.natAt(w))
		return natResult(w, x.signed && y.signed, z)
	}
	return fromSem(w, x.signed && y.signed, new(big.Int).Xor(x.sem(), y.sem()))
}

// Not returns the bitwise complement at x's width.
func (x Int) Not() Int {
	if x.width.native() {
		z := new(uint256.Int).Not(&x.nat)
		return natResult(x.width, x.signed, z)
	}
	return fromSem(x.width, x.signed, new(big.Int).Not(x.sem()))
}

// shiftAmount collapses a shift operand to a machine count. Amounts at or
// beyond 2^32 saturate; every finite width shifts to zero long before
// that.
func shiftAmount(y Int) uint {
	m := y.Magnitude()
	if m.BitLen() > 32 {
		return 1 << 31
	}
	return uint(m.Uint64())
}

// Shl returns x << y truncated to max(Wa, Wb). An infinite-precision x is
// not truncated.
func (x Int) Shl(y Int) Int {
	w := maxWidth(x.width, y.width)
	k := shiftAmount(y)
	if w.native() {
		z := new(uint256.Int).Lsh(x.natAt(w), k)
		return natResult(w, x.signed && y.signed, z)
	}
	return fromSem(w, x.signed && y.signed, new(big.Int).Lsh(x.sem(), k))
}

// ShlWide returns x << k at width Wa + k: the full shifted value, no
// truncation possible.
func (x Int) ShlWide(k uint) Int {
	w := addWidth(x.width, Width(k))
	return fromSem(w, x.signed, new(big.Int).Lsh(x.sem(), k))
}

// ShlWideInt returns x << y at the runtime width Wa + y. The result width
// is bounded by the static ceiling Wa + 2^Wb - 1, which holds by
// construction since y < 2^Wb.
func (x Int) ShlWideInt(y Int) Int {
	return x.ShlWide(shiftAmount(y))
}

// Shr returns the logical (zero-fill) right shift at x's width.
func (x Int) Shr(y Int) Int {
	k := shiftAmount(y)
	if x.width.native() {
		z := new(uint256.Int).Rsh(&x.nat, k)
		return natResult(x.width, x.signed && y.signed, z)
	}
	r := fromSem(x.width, x.signed && y.signed, new(big.Int).Rsh(x.Magnitude(), k))
	return r
}

// Sra returns the arithmetic right shift at x's width, replicating bit
// Wa-1 of the two's-complement interpretation regardless of the active
// view. Infinite-precision values shift their signed value directly.
func (x Int) Sra(y Int) Int {
	k := shiftAmount(y)
	if x.width == InfinitePrecision {
		return fromSem(x.width, x.signed, new(big.Int).Rsh(x.abs, k))
	}
	return fromSem(x.width, x.signed && y.signed, new(big.Int).Rsh(x.SignedView(), k))
}
