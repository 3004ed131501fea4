package bits

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Literal syntax: an optional sign, an optional base prefix (0x, 0o, 0b;
// none for decimal), digits with apostrophe separators, and an optional
// trailing kind suffix "_u<W>" or "_s<W>" selecting an unsigned or signed
// fixed width. Without a suffix the literal is unsigned and exactly wide
// enough to hold its value. ParseX additionally accepts x/X digits marking
// unknown bits: one bit per binary digit, three per octal, four per hex.

type literal struct {
	neg    bool
	base   int
	digits string
	width  Width // 0 when no suffix given
	signed bool
}

func scanLiteral(s string) (literal, error) {
	var lit literal
	orig := s
	if i := strings.LastIndexByte(s, '_'); i >= 0 {
		suffix := s[i+1:]
		s = s[:i]
		if len(suffix) < 2 || (suffix[0] != 'u' && suffix[0] != 's') {
			return lit, fmt.Errorf("bits: bad literal suffix in %q", orig)
		}
		w, err := strconv.Atoi(suffix[1:])
		if err != nil || w < 1 {
			return lit, fmt.Errorf("bits: bad literal width in %q", orig)
		}
		lit.width = Width(w)
		lit.signed = suffix[0] == 's'
	}
	if strings.HasPrefix(s, "-") {
		lit.neg = true
		s = s[1:]
	}
	lit.base = 10
	switch {
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		lit.base = 16
		s = s[2:]
	case strings.HasPrefix(s, "0o"), strings.HasPrefix(s, "0O"):
		lit.base = 8
		s = s[2:]
	case strings.HasPrefix(s, "0b"), strings.HasPrefix(s, "0B"):
		lit.base = 2
		s = s[2:]
	}
	s = strings.ReplaceAll(s, "'", "")
	if s == "" {
		return lit, fmt.Errorf("bits: empty literal %q", orig)
	}
	lit.digits = s
	return lit, nil
}

func bitsPerDigit(base int) int {
	switch base {
	case 2:
		return 1
	case 8:
		return 3
	case 16:
		return 4
	}
	return 0
}

// Parse reads a fully known literal.
func Parse(s string) (Int, error) {
	lit, err := scanLiteral(s)
	if err != nil {
		return Int{}, err
	}
	v, ok := new(big.Int).SetString(lit.digits, lit.base)
	if !ok {
		return Int{}, fmt.Errorf("bits: bad digits in literal %q", s)
	}
	if lit.neg {
		v.Neg(v)
	}
	w := lit.width
	if w == 0 {
		w = Width(v.BitLen())
		if w == 0 {
			w = 1
		}
		if lit.neg {
			w++ // room for the sign
			lit.signed = true
		}
	}
	return fromSem(w, lit.signed, v), nil
}

// ParseX reads a possibly-unknown literal such as "0b1xx0". Decimal
// literals cannot carry unknown digits.
func ParseX(s string) (XInt, error) {
	lit, err := scanLiteral(s)
	if err != nil {
		return XInt{}, err
	}
	perDigit := bitsPerDigit(lit.base)
	if perDigit == 0 {
		if strings.ContainsAny(lit.digits, "xX") {
			return XInt{}, fmt.Errorf("bits: unknown digits need a binary, octal, or hex literal: %q", s)
		}
		v, err := Parse(s)
		if err != nil {
			return XInt{}, err
		}
		return X(v), nil
	}
	if lit.neg {
		return XInt{}, fmt.Errorf("bits: possibly-unknown literal %q cannot be negative", s)
	}
	val := new(big.Int)
	mask := new(big.Int)
	for _, c := range lit.digits {
		val.Lsh(val, uint(perDigit))
		mask.Lsh(mask, uint(perDigit))
		if c == 'x' || c == 'X' {
			mask.Or(mask, big.NewInt(int64(1<<perDigit-1)))
			continue
		}
		d, err := strconv.ParseUint(string(c), lit.base, 8)
		if err != nil {
			return XInt{}, fmt.Errorf("bits: bad digit %q in literal %q", c, s)
		}
		val.Or(val, new(big.Int).SetUint64(d))
	}
	w := lit.width
	if w == 0 {
		w = Width(len(lit.digits) * perDigit)
	}
	v := fromSem(w, lit.signed, val)
	m := fromSem(w, false, mask)
	return NewX(v, m), nil
}
