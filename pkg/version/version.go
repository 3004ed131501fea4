// Package version implements the version predicate used to gate ISA
// extension features at configuration time. A requirement has the form
// "<op> major[.minor[.patch[-pre]]]" with op one of >=, >, <=, <, =, !=,
// and the pessimistic ~>. Versions order lexicographically by
// (major, minor, patch); a -pre tag sorts strictly below the same numeric
// version without it.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a parsed semantic version.
type Version struct {
	Major int
	Minor int
	Patch int
	Pre   bool
}

// Parse reads "major[.minor[.patch]][-pre]".
func Parse(s string) (Version, error) {
	v, _, err := parseVersion(s)
	return v, err
}

// parseVersion also reports how many numeric components were supplied,
// which the pessimistic operator needs.
func parseVersion(s string) (Version, int, error) {
	var v Version
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutSuffix(s, "-pre"); ok {
		v.Pre = true
		s = rest
	}
	if s == "" {
		return v, 0, fmt.Errorf("version: empty version string")
	}
	parts := strings.Split(s, ".")
	if len(parts) > 3 {
		return v, 0, fmt.Errorf("version: too many components in %q", s)
	}
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return v, 0, fmt.Errorf("version: bad component %q in %q", p, s)
		}
		nums[i] = n
	}
	v.Major = nums[0]
	if len(nums) > 1 {
		v.Minor = nums[1]
	}
	if len(nums) > 2 {
		v.Patch = nums[2]
	}
	return v, len(nums), nil
}

// MustParse is Parse for statically known strings.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Compare orders two versions: -1, 0, or +1. Exactly one of <, =, > holds
// for any pair; a pre-release sorts below its release.
func (v Version) Compare(o Version) int {
	for _, d := range [...]int{v.Major - o.Major, v.Minor - o.Minor, v.Patch - o.Patch} {
		if d < 0 {
			return -1
		}
		if d > 0 {
			return 1
		}
	}
	switch {
	case v.Pre && !o.Pre:
		return -1
	case !v.Pre && o.Pre:
		return 1
	}
	return 0
}

func (v Version) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Pre {
		s += "-pre"
	}
	return s
}

// Requirement is a parsed version predicate.
type Requirement struct {
	op      string
	version Version
	// upper bounds the pessimistic operator; zero Version means none.
	upper    Version
	hasUpper bool
}

var operators = map[string]bool{
	">=": true, ">": true, "<=": true, "<": true, "=": true, "!=": true, "~>": true,
}

// ParseRequirement reads "<op> version".
func ParseRequirement(s string) (Requirement, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) != 2 {
		return Requirement{}, fmt.Errorf("version: requirement %q must be \"<op> <version>\"", s)
	}
	op := fields[0]
	if !operators[op] {
		return Requirement{}, fmt.Errorf("version: unknown operator %q in %q", op, s)
	}
	v, supplied, err := parseVersion(fields[1])
	if err != nil {
		return Requirement{}, err
	}
	r := Requirement{op: op, version: v}
	if op == "~>" {
		r.hasUpper = true
		switch supplied {
		case 1:
			// "~> 2" behaves as ">= 2".
			r.hasUpper = false
		case 2:
			r.upper = Version{Major: v.Major + 1}
		default:
			r.upper = Version{Major: v.Major, Minor: v.Minor + 1}
		}
	}
	return r, nil
}

// MustParseRequirement is ParseRequirement for statically known strings.
func MustParseRequirement(s string) Requirement {
	r, err := ParseRequirement(s)
	if err != nil {
		panic(err)
	}
	return r
}

// SatisfiedBy evaluates the predicate against a concrete version.
func (r Requirement) SatisfiedBy(v Version) bool {
	c := v.Compare(r.version)
	switch r.op {
	case ">=":
		return c >= 0
	case ">":
		return c > 0
	case "<=":
		return c <= 0
	case "<":
		return c < 0
	case "=":
		return c == 0
	case "!=":
		return c != 0
	case "~>":
		if c < 0 {
			return false
		}
		return !r.hasUpper || v.Compare(r.upper) < 0
	}
	return false
}

func (r Requirement) String() string {
	return r.op + " " + r.version.String()
}
