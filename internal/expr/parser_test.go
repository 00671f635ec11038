package expr

import (
	"strings"
	"testing"
)

func TestParseValid(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"*", "*"},
		{"  *  ", "*"},
		{"foo", "foo"},
		{"foo.bar", "foo.bar"},
		{"foo-bar", "foo-bar"},
		{"foo/bar", "foo/bar"},
		{"foo:bar", "foo:bar"},
		{"foo_bar123", "foo_bar123"},
		{"foo and bar", "(foo and bar)"},
		{"foo and bar and baz", "(foo and bar and baz)"},
		{"foo or bar", "(foo or bar)"},
		{"foo xor bar", "(foo xor bar)"},
		{"foo - bar", "(foo - bar)"},
		{"foo - bar - baz", "(foo - bar - baz)"},
		{"not foo", "not (foo)"},
		{"!foo", "not (foo)"},
		{"not not foo", "not (not (foo))"},
		{"NOT foo", "not (foo)"},
		{"FOO AND BAR", "(FOO and BAR)"},
		{"(foo and bar)", "(foo and bar)"},
		{"(foo and bar) and baz", "(foo and bar and baz)"},
		{"(foo or bar) and (baz xor qux)", "((foo or bar) and (baz xor qux))"},
		{"not (foo and bar)", "not ((foo and bar))"},
	}
	for _, c := range cases {
		got, err := Parse(c.in)
		if err != nil {
			t.Errorf("Parse(%q) unexpected error: %v", c.in, err)
			continue
		}
		if ser := got.Serialize(); ser != c.want {
			t.Errorf("Parse(%q).Serialize() = %q, want %q", c.in, ser, c.want)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	cases := []string{
		"",
		"foo and",
		"foo and bar or baz",
		"()",
		"(and)",
		")",
		"(",
		"(foo and bar and (a or b)",
		"* and foo",
		"not *",
		"foo/bar.baz(qux)",
		"4foo",
		":foo",
		".",
		"/foo",
		"and",
		"or",
		"xor",
		"not",
	}
	for _, in := range cases {
		if _, err := Parse(in); err == nil {
			t.Errorf("Parse(%q) expected error, got none", in)
		}
	}
}

func TestParseRejectsOversizedQuery(t *testing.T) {
	huge := strings.Repeat("a", MaxQueryLength+1)
	if _, err := Parse(huge); err == nil {
		t.Fatal("expected error for oversized query")
	}
}

func TestParseRoundTrip(t *testing.T) {
	inputs := []string{
		"*",
		"foo",
		"(foo and bar and baz)",
		"(foo or bar)",
		"(foo xor bar)",
		"(foo - bar - baz)",
		"not (foo)",
		"not (not (foo))",
		"((foo or bar) and (baz xor qux))",
	}
	for _, in := range inputs {
		first, err := Parse(in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		second, err := Parse(first.Serialize())
		if err != nil {
			t.Fatalf("Parse(Serialize(Parse(%q))): %v", in, err)
		}
		if first.Serialize() != second.Serialize() {
			t.Fatalf("round trip mismatch for %q: %q != %q", in, first.Serialize(), second.Serialize())
		}
	}
}

func TestParsePropertyNameEdgeCases(t *testing.T) {
	valid := []string{"foo", "foo123", "foo_bar", "foo.bar", "foo-bar", "foo/bar", "foo:bar"}
	for _, name := range valid {
		if _, err := Parse(name); err != nil {
			t.Errorf("expected %q to be a valid property, got error: %v", name, err)
		}
	}

	invalid := []string{"4foo", ":foo", ".", "/foo", "-foo"}
	for _, name := range invalid {
		if _, err := Parse(name); err == nil {
			t.Errorf("expected %q to be rejected as a property name", name)
		}
	}
}
