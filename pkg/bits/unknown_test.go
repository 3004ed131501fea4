package bits

import (
	"errors"
	"math/big"
	"math/rand"
	"testing"
)

func mustParseX(t *testing.T, s string) XInt {
	t.Helper()
	v, err := ParseX(s)
	if err != nil {
		t.Fatalf("ParseX(%q): %v", s, err)
	}
	return v
}

func TestUnknownAndPropagation(t *testing.T) {
	// 0b0x110 AND 0bx00x0: every bit is forced to zero by a known zero on
	// one side except bit 1, where a known one meets an unknown.
	a := mustParseX(t, "0b0x110")
	b := mustParseX(t, "0bx00x0")
	got := a.And(b)
	if v := got.Value().Uint64(); v != 0 {
		t.Errorf("known bits = %#b, want 0", v)
	}
	if m := got.UnknownMask().Uint64(); m != 0b00010 {
		t.Errorf("unknown mask = %#b, want 0b00010", m)
	}

	// Equality against a fully known zero cannot be decided.
	if _, err := got.Eq(X(New(5, 0))); !errors.Is(err, ErrUndefinedValue) {
		t.Errorf("Eq: %v", err)
	}

	// Bit 0 is known zero and extraction succeeds.
	bit, err := got.KnownBit(0)
	if err != nil || bit {
		t.Errorf("KnownBit(0) = %v, %v", bit, err)
	}
	if _, err := got.KnownBit(1); !errors.Is(err, ErrUndefinedValue) {
		t.Errorf("KnownBit(1): %v", err)
	}
}

func TestUnknownOrPropagation(t *testing.T) {
	// A known one on either side forces the bit regardless of the other.
	a := mustParseX(t, "0b1x0x")
	b := mustParseX(t, "0bx10x")
	got := a.Or(b)
	if v := got.Value().Uint64(); v != 0b1100 {
		t.Errorf("known bits = %#b, want 0b1100", v)
	}
	if m := got.UnknownMask().Uint64(); m != 0b0001 {
		t.Errorf("unknown mask = %#b, want 0b0001", m)
	}
}

// refinements enumerates every concrete value an XInt can stand for.
func refinements(x XInt) []Int {
	w := x.Width()
	var unknownBits []int
	for i := 0; i < int(w); i++ {
		if x.UnknownMask().Bit(i) {
			unknownBits = append(unknownBits, i)
		}
	}
	var out []Int
	for choice := 0; choice < 1<<len(unknownBits); choice++ {
		v := x.Value().Magnitude()
		for j, bit := range unknownBits {
			if choice>>j&1 == 1 {
				v.SetBit(v, bit, 1)
			}
		}
		c := fromSem(w, x.IsSigned(), v)
		out = append(out, c)
	}
	return out
}

func TestUnknownMonotonicity(t *testing.T) {
	// Bitwise AND/OR over possibly-unknown values never contradict the
	// total operation on any concrete refinement of the inputs.
	r := rand.New(rand.NewSource(6))
	const w = 6
	for trial := 0; trial < 200; trial++ {
		a := randX(r, w)
		b := randX(r, w)
		for _, op := range []struct {
			name  string
			xop   func(x, y XInt) XInt
			total func(x, y Int) Int
		}{
			{"and", XInt.And, Int.And},
			{"or", XInt.Or, Int.Or},
		} {
			got := op.xop(a, b)
			for _, ra := range refinements(a) {
				for _, rb := range refinements(b) {
					concrete := op.total(ra, rb)
					for i := 0; i < w; i++ {
						if got.UnknownMask().Bit(i) {
							continue
						}
						if got.Value().Bit(i) != concrete.Bit(i) {
							t.Fatalf("%s: refined bit %d of %v %v disagrees with %v", op.name, i, ra, rb, got)
						}
					}
				}
			}
		}
	}
}

func randX(r *rand.Rand, w Width) XInt {
	v := New(w, r.Uint64())
	m := New(w, r.Uint64())
	return NewX(v, m)
}

func TestUnknownArithmeticIsTotal(t *testing.T) {
	a := mustParseX(t, "0b1x00")
	b := X(New(4, 3))
	sum := a.Add(b)
	if !sum.UnknownMask().Eq(New(4, 0xf)) {
		t.Errorf("unknown add mask = %v, want all ones", sum.UnknownMask())
	}
	known := X(New(4, 5)).Add(X(New(4, 6)))
	if !known.IsFullyKnown() || known.Value().Uint64() != 11 {
		t.Errorf("known add = %v", known)
	}
}

func TestUnknownDiv(t *testing.T) {
	if _, err := X(U8(10)).Div(X(U8(0))); !errors.Is(err, ErrDivideByZero) {
		t.Errorf("known zero divisor: %v", err)
	}
	q, err := X(U8(10)).Div(mustParseX(t, "0b0000000x"))
	if err != nil {
		t.Fatalf("unknown divisor: %v", err)
	}
	if q.IsFullyKnown() {
		t.Error("unknown divisor must give an unknown quotient")
	}
}

func TestUnknownShifts(t *testing.T) {
	a := mustParseX(t, "0b00x1")
	shifted := a.Shl(X(New(4, 1)))
	if v := shifted.Value().Uint64(); v != 0b0010 {
		t.Errorf("known bits = %#b", v)
	}
	if m := shifted.UnknownMask().Uint64(); m != 0b0100 {
		t.Errorf("mask = %#b, want 0b0100", m)
	}
	if got := a.Shl(mustParseX(t, "0b000x")); got.IsFullyKnown() || !got.UnknownMask().Eq(New(4, 0xf)) {
		t.Errorf("unknown amount must lose all bits: %v", got)
	}

	// An unknown sign bit fills with unknowns under sra.
	v := mustParseX(t, "0bx100")
	sra := v.Sra(X(New(4, 2)))
	if m := sra.UnknownMask().Uint64(); m != 0b1110 {
		t.Errorf("sra mask = %#b, want 0b1110", m)
	}
	if got := sra.Value().Uint64(); got != 0b0001 {
		t.Errorf("sra known bits = %#b, want 0b0001", got)
	}
}

func TestUnknownCmp(t *testing.T) {
	// 0b1xxx is at least 8, 0b0xxx at most 7: ordered despite unknowns.
	hi := mustParseX(t, "0b1xxx")
	lo := mustParseX(t, "0b0xxx")
	if got, err := hi.Cmp(lo); err != nil || got != 1 {
		t.Errorf("Cmp = %d, %v", got, err)
	}
	if _, err := hi.Cmp(mustParseX(t, "0bxxxx")); !errors.Is(err, ErrUndefinedValue) {
		t.Errorf("overlapping ranges: %v", err)
	}
	eq, err := X(U8(5)).Cmp(X(U8(5)))
	if err != nil || eq != 0 {
		t.Errorf("known equal: %d, %v", eq, err)
	}
}

func TestUnknownBool(t *testing.T) {
	if got, err := mustParseX(t, "0b1xx0").Bool(); err != nil || !got {
		t.Errorf("known one: %v, %v", got, err)
	}
	if got, err := X(New(4, 0)).Bool(); err != nil || got {
		t.Errorf("known zero: %v, %v", got, err)
	}
	if _, err := mustParseX(t, "0b0x00").Bool(); !errors.Is(err, ErrUndefinedValue) {
		t.Errorf("undecidable: %v", err)
	}
}

func TestUnknownSignedExtension(t *testing.T) {
	// Sign-extending a value with an unknown sign bit spreads unknowns.
	v, err := ParseX("0bx01_s3")
	if err != nil {
		t.Fatal(err)
	}
	ext := v.extend(6)
	if m := ext.UnknownMask().Uint64(); m != 0b111100 {
		t.Errorf("extended mask = %#b, want 0b111100", m)
	}
	if got := ext.Value().Uint64(); got != 0b000001 {
		t.Errorf("extended known bits = %#b, want 0b1", got)
	}
}

func TestUnknownStringRoundtrip(t *testing.T) {
	for _, s := range []string{"0b1xx0", "0b0000", "0bxxxx", "0b10x1"} {
		if got := mustParseX(t, s).String(); got != s {
			t.Errorf("String = %q, want %q", got, s)
		}
	}
}

func TestXorXEquality(t *testing.T) {
	a := mustParseX(t, "0b1x10")
	x := a.Xor(a)
	// x XOR x of an unknown bit is still unknown: the library does not
	// track correlation between operands.
	if x.IsFullyKnown() {
		t.Error("xor of unknowns must stay unknown")
	}
	want := big.NewInt(0b0100)
	if x.UnknownMask().Magnitude().Cmp(want) != 0 {
		t.Errorf("mask = %v, want %v", x.UnknownMask(), want)
	}
}
