package bits

import "fmt"

// Format implements fmt.Formatter. The value prints as an
// arbitrary-precision integer: %d, %b, %o, %x and %X are supported along
// with the '#' alternate form, field width, and zero padding. The signed
// interpretation is used only when the signed view is active; unsigned
// values never print a sign.
func (x Int) Format(s fmt.State, verb rune) {
	switch verb {
	case 'd', 'b', 'o', 'O', 'x', 'X':
		x.sem().Format(s, verb)
	case 'v', 's':
		x.sem().Format(s, 'd')
	default:
		fmt.Fprintf(s, "%%!%c(bits.Int=%s)", verb, x.sem().String())
	}
}
