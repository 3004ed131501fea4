package bits

// Cmp compares x and y, returning -1, 0, or +1. The comparison uses the
// signed interpretation iff both operands are signed; otherwise the
// operands are brought to the common width per their own signedness and
// compared unsigned.
func (x Int) Cmp(y Int) int {
	if x.signed && y.signed {
		return x.sem().Cmp(y.sem())
	}
	w := maxWidth(x.width, y.width)
	if w == InfinitePrecision {
		return x.sem().Cmp(y.sem())
	}
	if w.native() {
		return x.natAt(w).Cmp(y.natAt(w))
	}
	return fromSem(w, false, x.sem()).Magnitude().Cmp(fromSem(w, false, y.sem()).Magnitude())
}

// Eq reports whether x and y denote the same value under the comparison
// interpretation.
func (x Int) Eq(y Int) bool { return x.Cmp(y) == 0 }

func (x Int) Lt(y Int) bool { return x.Cmp(y) < 0 }
func (x Int) Le(y Int) bool { return x.Cmp(y) <= 0 }
func (x Int) Gt(y Int) bool { return x.Cmp(y) > 0 }
func (x Int) Ge(y Int) bool { return x.Cmp(y) >= 0 }

// Bool reports whether the magnitude is nonzero.
func (x Int) Bool() bool { return !x.IsZero() }
