package version

import "testing"

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want Version
	}{
		{"2", Version{Major: 2}},
		{"2.1", Version{Major: 2, Minor: 1}},
		{"2.1.3", Version{Major: 2, Minor: 1, Patch: 3}},
		{"2.1.3-pre", Version{Major: 2, Minor: 1, Patch: 3, Pre: true}},
		{"0.0.0", Version{}},
		{" 1.2.3 ", Version{Major: 1, Minor: 2, Patch: 3}},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		if err != nil {
			t.Errorf("Parse(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Parse(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
	for _, in := range []string{"", "a.b", "1.2.3.4", "-1", "1..2", "-pre"} {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) accepted", in)
		}
	}
}

func TestCompareTotalOrder(t *testing.T) {
	// For every pair exactly one of <, =, > holds, and -pre sorts just
	// below its release.
	ordered := []Version{
		{Major: 0},
		{Major: 0, Minor: 0, Patch: 1},
		{Major: 1, Pre: true},
		{Major: 1},
		{Major: 1, Minor: 9},
		{Major: 2, Minor: 1, Patch: 3, Pre: true},
		{Major: 2, Minor: 1, Patch: 3},
		{Major: 2, Minor: 2},
		{Major: 10},
	}
	for i, a := range ordered {
		for j, b := range ordered {
			got := a.Compare(b)
			var want int
			switch {
			case i < j:
				want = -1
			case i > j:
				want = 1
			}
			if got != want {
				t.Errorf("Compare(%v, %v) = %d, want %d", a, b, got, want)
			}
			if got != -b.Compare(a) {
				t.Errorf("Compare(%v, %v) is not antisymmetric", a, b)
			}
		}
	}
}

func TestRequirement(t *testing.T) {
	cases := []struct {
		req  string
		v    string
		want bool
	}{
		{">= 2.1.3", "2.1.3", true},
		{">= 2.1.3", "2.1.2", false},
		{">= 2.1.3", "2.1.3-pre", false},
		{">= 2.1.3", "3.0.0", true},
		{"> 2.1.3", "2.1.3", false},
		{"<= 2.1.3", "2.1.3", true},
		{"< 2.1.3", "2.1.3-pre", true},
		{"= 2.1.3", "2.1.3", true},
		{"= 2.1.3", "2.1.4", false},
		{"!= 2.1.3", "2.1.4", true},
		{"!= 2.1.3", "2.1.3", false},
		{"~> 2.1.3", "2.1.9", true},
		{"~> 2.1.3", "2.2.0", false},
		{"~> 2.1.3", "2.2.0-pre", true},
		{"~> 2.1.3", "2.1.2", false},
		{"~> 2.1", "2.9.9", true},
		{"~> 2.1", "3.0.0", false},
		{"~> 2.1", "2.0.9", false},
		{"~> 2", "99.0.0", true},
	}
	for _, tc := range cases {
		r := MustParseRequirement(tc.req)
		v := MustParse(tc.v)
		if got := r.SatisfiedBy(v); got != tc.want {
			t.Errorf("%q satisfied by %q = %v, want %v", tc.req, tc.v, got, tc.want)
		}
	}
}

func TestRequirementParseErrors(t *testing.T) {
	for _, in := range []string{"", ">=", ">= ", "== 1.0", ">= 1.0 extra", "~>1.0"} {
		if _, err := ParseRequirement(in); err == nil {
			t.Errorf("ParseRequirement(%q) accepted", in)
		}
	}
}
