package bits

import (
	"errors"
	"math/big"
	"math/rand"
	"testing"
)

// randInt draws a uniform magnitude at the given width.
func randInt(r *rand.Rand, w Width, signed bool) Int {
	v := new(big.Int).Rand(r, bigMod(w))
	x := fromSem(w, signed, v)
	return x
}

var propWidths = []Width{1, 3, 8, 13, 32, 64, 65, 127, 128, 200, 256, 257, 500}

func TestModularClosure(t *testing.T) {
	// (a op b).magnitude == (a.magnitude op b.magnitude) mod 2^W for the
	// non-widening operations.
	r := rand.New(rand.NewSource(1))
	ops := []struct {
		name   string
		op     func(a, b Int) Int
		oracle func(a, b *big.Int) *big.Int
	}{
		{"add", Int.Add, new(big.Int).Add},
		{"sub", Int.Sub, new(big.Int).Sub},
		{"mul", Int.Mul, new(big.Int).Mul},
	}
	for _, op := range ops {
		t.Run(op.name, func(t *testing.T) {
			for _, w := range propWidths {
				for i := 0; i < 50; i++ {
					a, b := randInt(r, w, false), randInt(r, w, false)
					got := op.op(a, b).Magnitude()
					want := new(big.Int).Mod(op.oracle(a.Magnitude(), b.Magnitude()), bigMod(w))
					if got.Cmp(want) != 0 {
						t.Fatalf("w=%d %v %s %v = %v, want %v", w, a, op.name, b, got, want)
					}
				}
			}
		})
	}
}

func TestModularClosureShl(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	for _, w := range propWidths {
		kmax := int(w) + 2
		if w < 5 && kmax > 1<<w {
			// the amount must itself be representable at width w
			kmax = 1 << w
		}
		for i := 0; i < 30; i++ {
			a := randInt(r, w, false)
			k := uint(r.Intn(kmax))
			got := a.Shl(New(w, uint64(k))).Magnitude()
			want := new(big.Int).Mod(new(big.Int).Lsh(a.Magnitude(), k), bigMod(w))
			if got.Cmp(want) != 0 {
				t.Fatalf("w=%d %v<<%d = %v, want %v", w, a, k, got, want)
			}
		}
	}
}

func TestWideningLossless(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	for _, wa := range []Width{5, 8, 32, 64, 120, 250} {
		for _, wb := range []Width{3, 8, 64, 250} {
			for i := 0; i < 25; i++ {
				a, b := randInt(r, wa, false), randInt(r, wb, false)

				sum := a.AddWide(b)
				if want := new(big.Int).Add(a.Magnitude(), b.Magnitude()); sum.Magnitude().Cmp(want) != 0 {
					t.Fatalf("AddWide(%v, %v) = %v, want %v", a, b, sum.Magnitude(), want)
				}
				if want := maxWidth(wa, wb) + 1; sum.Width() != want {
					t.Fatalf("AddWide width = %d, want %d", sum.Width(), want)
				}

				prod := a.MulWide(b)
				if want := new(big.Int).Mul(a.Magnitude(), b.Magnitude()); prod.Magnitude().Cmp(want) != 0 {
					t.Fatalf("MulWide(%v, %v) = %v, want %v", a, b, prod.Magnitude(), want)
				}
				if prod.Width() != wa+wb {
					t.Fatalf("MulWide width = %d, want %d", prod.Width(), wa+wb)
				}
			}
		}
	}
}

func TestWideningSubSigned(t *testing.T) {
	// Signed widening subtraction holds the exact difference.
	a, b := S8(-100), S8(100)
	d := a.SubWide(b)
	if d.Width() != 9 {
		t.Fatalf("width = %d, want 9", d.Width())
	}
	if got := d.Int64(); got != -200 {
		t.Fatalf("difference = %d, want -200", got)
	}
}

func TestWideningMulScenario(t *testing.T) {
	// 255 x 255 widens to 65025 at 16 bits; the narrow product at 8 bits
	// is 1.
	wide := U8(255).MulWide(U8(255))
	if wide.Width() != 16 || wide.Uint64() != 65025 {
		t.Fatalf("widening mul = %d at %d bits", wide.Uint64(), wide.Width())
	}
	narrow := U8(255).Mul(U8(255))
	if narrow.Width() != 8 || narrow.Uint64() != 1 {
		t.Fatalf("narrow mul = %d at %d bits", narrow.Uint64(), narrow.Width())
	}
}

func TestMixedWidthResult(t *testing.T) {
	// Non-widening results take max(Wa, Wb) and the narrower signed
	// operand sign-extends into it.
	got := S8(-1).Add(New(16, 0).Signed())
	if got.Width() != 16 {
		t.Fatalf("width = %d, want 16", got.Width())
	}
	if got.Uint64() != 0xffff {
		t.Fatalf("magnitude = %#x, want 0xffff", got.Uint64())
	}
	if !got.IsSigned() {
		t.Fatal("signed+signed result must be signed")
	}
	if S8(-1).Add(U16(0)).IsSigned() {
		t.Fatal("mixed signedness result must be unsigned")
	}
}

func TestDivRem(t *testing.T) {
	cases := []struct {
		name string
		a, b Int
		q, r int64
	}{
		{"unsigned", U8(200), U8(7), 28, 4},
		{"signed both negative", S8(-100), S8(-7), 14, -2},
		{"signed mixed sign", S16(-100), S16(7), -14, -2},
		{"mixed view divides unsigned", S8(-1).Unsigned(), U8(16), 15, 15},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := tc.a.Div(tc.b)
			if err != nil {
				t.Fatal(err)
			}
			if got := q.Int64(); got != tc.q {
				t.Errorf("quotient = %d, want %d", got, tc.q)
			}
			r, err := tc.a.Rem(tc.b)
			if err != nil {
				t.Fatal(err)
			}
			if got := r.Int64(); got != tc.r {
				t.Errorf("remainder = %d, want %d", got, tc.r)
			}
			if q.Width() != tc.a.Width() {
				t.Errorf("quotient width = %d, want %d", q.Width(), tc.a.Width())
			}
		})
	}
}

func TestDivideByZero(t *testing.T) {
	if _, err := U8(1).Div(U8(0)); !errors.Is(err, ErrDivideByZero) {
		t.Errorf("Div by zero: %v", err)
	}
	if _, err := U8(1).Rem(New(64, 0)); !errors.Is(err, ErrDivideByZero) {
		t.Errorf("Rem by zero: %v", err)
	}
}

func TestInfinitePrecision(t *testing.T) {
	// Arithmetic on an infinite-precision operand never truncates.
	big1 := Infinite(1).Shl(New(16, 1000))
	if got := big1.Magnitude().BitLen(); got != 1001 {
		t.Fatalf("1<<1000 has bit length %d", got)
	}
	prod := big1.Mul(U64(3))
	if prod.Width() != InfinitePrecision {
		t.Fatalf("width = %d, want InfinitePrecision", prod.Width())
	}
	want := new(big.Int).Lsh(big.NewInt(3), 1000)
	if prod.Magnitude().Cmp(want) != 0 {
		t.Fatalf("3<<1000 mismatch")
	}
	q, err := prod.Div(Infinite(3))
	if err != nil {
		t.Fatal(err)
	}
	if q.Magnitude().Cmp(big1.Magnitude()) != 0 {
		t.Fatal("infinite division lost precision")
	}
}

func TestInfinitePrecisionProductPanics(t *testing.T) {
	defer func() {
		if _, ok := recover().(InfinitePrecisionProductError); !ok {
			t.Fatal("expected InfinitePrecisionProductError panic")
		}
	}()
	Infinite(2).Mul(Infinite(3))
}
