package types

import "testing"

func TestFormat(t *testing.T) {
	in := NewInterner()
	b := in.Builtins()
	names := map[SymbolRef]string{1: "User", 2: "Display", 3: "T"}
	namer := func(s SymbolRef) string { return names[s] }

	user := in.Intern(MakeNominal(1, nil))
	cases := []struct {
		id   TypeID
		want string
	}{
		{b.Unit, "()"},
		{b.Int, "int"},
		{in.Intern(MakeRef(user, false)), "&User"},
		{in.Intern(MakeRef(user, true)), "&mut User"},
		{in.Intern(MakeSeq(b.Int)), "[int]"},
		{in.Intern(MakeMap(b.String, b.Int)), "[string: int]"},
		{in.Intern(MakeOption(user)), "User?"},
		{in.Intern(MakeTuple([]TypeID{b.Int, b.Bool})), "(int, bool)"},
		{in.Intern(MakeResult(b.Int, b.String)), "Result<int, string>"},
		{in.Intern(MakeFn([]TypeID{b.Int}, b.Bool)), "fn(int) -> bool"},
		{in.Intern(MakeTraitObject([]SymbolRef{2})), "dyn Display"},
		{in.Intern(MakeGeneric(3)), "T"},
		{in.Intern(MakeNominal(1, []TypeID{b.Int})), "User<int>"},
	}
	for _, tc := range cases {
		if got := in.Format(tc.id, namer); got != tc.want {
			t.Errorf("Format: got %q, want %q", got, tc.want)
		}
	}
}
