package bits

import (
	"math/big"

	"github.com/holiman/uint256"
)

// Width is the number of bits a value carries. Every finite width is at
// least 1. Two widths are distinguished: InfinitePrecision selects
// arbitrary-precision storage with no truncation anywhere, and
// MaxNativePrecision is the largest width still held in the native wide
// word (a uint256.Int); wider finite values fall back to big.Int storage.
type Width int

const (
	InfinitePrecision  Width = -1
	MaxNativePrecision Width = 256
)

// IsFinite reports whether w is a concrete bounded width.
func (w Width) IsFinite() bool {
	return w != InfinitePrecision
}

// native reports whether values of width w live in the uint256 word.
func (w Width) native() bool {
	return w != InfinitePrecision && w <= MaxNativePrecision
}

func maxWidth(a, b Width) Width {
	if a == InfinitePrecision || b == InfinitePrecision {
		return InfinitePrecision
	}
	if a > b {
		return a
	}
	return b
}

// addWidth returns a+b, saturating on InfinitePrecision.
func addWidth(a, b Width) Width {
	if a == InfinitePrecision || b == InfinitePrecision {
		return InfinitePrecision
	}
	return a + b
}

// natMask returns the all-ones mask for a native width. Lsh saturates to
// zero at 256, which underflows to the full mask.
func natMask(w Width) *uint256.Int {
	m := new(uint256.Int).Lsh(uint256.NewInt(1), uint(w))
	return m.SubUint64(m, 1)
}

var bigOne = big.NewInt(1)

// bigMod returns 2^w for a finite width.
func bigMod(w Width) *big.Int {
	return new(big.Int).Lsh(bigOne, uint(w))
}
