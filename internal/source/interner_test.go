package source

import "testing"

func TestInternDedup(t *testing.T) {
	in := NewInterner()
	a := in.Intern("items")
	b := in.Intern("items")
	if a != b {
		t.Errorf("same string interned twice: %d vs %d", a, b)
	}
	c := in.Intern("total")
	if c == a {
		t.Errorf("distinct strings share id %d", c)
	}
	if got := in.MustLookup(a); got != "items" {
		t.Errorf("lookup = %q", got)
	}
}

func TestNoStringIDIsEmpty(t *testing.T) {
	in := NewInterner()
	s, ok := in.Lookup(NoStringID)
	if !ok || s != "" {
		t.Errorf("NoStringID = %q, %v", s, ok)
	}
	if in.Intern("") != NoStringID {
		t.Error("empty string must map to NoStringID")
	}
}
