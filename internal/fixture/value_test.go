package fixture

import (
	"math"
	"strings"
	"testing"
)

func TestValueRepr(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{"red", "'red'"},
		{"it's", `"it's"`},
		{`both ' and "`, `'both \' and "'`},
		{"tab\there", `'tab\there'`},
		{`back\slash`, `'back\\slash'`},
		{"bell\a", `'bell\x07'`},
		{"nb\u00a0sp", `'nb\xa0sp'`},
		{"nel\u0085", `'nel\x85'`},
		{"line\u2028sep", `'line\u2028sep'`},
		{"tag\U000e0041", `'tag\U000e0041'`},
		{"café ☃", `'café ☃'`},
		{42, "42"},
		{int64(-7), "-7"},
		{1.0, "1.0"},
		{2.5, "2.5"},
		{1e16, "1e+16"},
		{1e15, "1000000000000000.0"},
		{0.0001, "0.0001"},
		{0.00001, "1e-05"},
		{math.Inf(-1), "-inf"},
		{true, "True"},
		{false, "False"},
		{nil, "None"},
	}
	for _, tc := range cases {
		got := MustValue(tc.in).Repr()
		if got != tc.want {
			t.Fatalf("repr(%#v) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestValueReprEllipsizes(t *testing.T) {
	long := strings.Repeat("a", 30) + strings.Repeat("b", 30)
	got := MustValue(long).Repr()
	if len(got) != reprMaxSize {
		t.Fatalf("len = %d, want %d: %s", len(got), reprMaxSize, got)
	}
	want := "'" + strings.Repeat("a", 18) + "..." + strings.Repeat("b", 19) + "'"
	if got != want {
		t.Fatalf("repr = %s, want %s", got, want)
	}
}

func TestValueID(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{"red", "red"},
		{"café", `caf\xe9`},
		{"snow☃", `snow\u2603`},
		{3, "3"},
		{0.5, "0.5"},
		{true, "True"},
		{nil, "None"},
	}
	for _, tc := range cases {
		if got := MustValue(tc.in).ID(); got != tc.want {
			t.Fatalf("id(%#v) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestValueEqual(t *testing.T) {
	if !MustValue(1).Equal(MustValue(int64(1))) {
		t.Fatalf("int widths should compare equal")
	}
	if MustValue(1).Equal(MustValue(1.0)) {
		t.Fatalf("int and float are distinct parameters")
	}
	if !MustValue(math.NaN()).Equal(MustValue(math.NaN())) {
		t.Fatalf("NaN parameter should match itself")
	}
	if MustValue("red").Equal(MustValue("blue")) {
		t.Fatalf("different strings compared equal")
	}
}

func TestNewValueRejectsCollections(t *testing.T) {
	if _, err := NewValue([]any{1}); err == nil {
		t.Fatalf("expected list parameter to be rejected")
	}
	if _, err := NewValue(map[string]any{"a": 1}); err == nil {
		t.Fatalf("expected map parameter to be rejected")
	}
}
