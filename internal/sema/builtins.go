package sema

import "gale/internal/types"

// BuiltinParam is one parameter of an intrinsic method: its type and
// the access mode the intrinsic requires from the caller.
type BuiltinParam struct {
	Type types.TypeID
	Mode Mode
}

// BuiltinMethod describes an intrinsic container or string method.
// Modes here are fixed, not inferred; the usage walker and the
// adjuster both read them.
type BuiltinMethod struct {
	Name     string
	SelfMode Mode
	Params   []BuiltinParam
	Ret      types.TypeID
}

// builtinMethod resolves an intrinsic method on a receiver type.
// Returns nil when the name is not intrinsic for that receiver.
func (c *checker) builtinMethod(recv types.TypeID, name string) *BuiltinMethod {
	b := c.ctx.Types.Builtins()
	t, ok := c.ctx.Types.Lookup(recv)
	if !ok {
		return nil
	}
	switch t.Kind {
	case types.KindSeq:
		switch name {
		case "len":
			return &BuiltinMethod{Name: name, SelfMode: ModeShared, Ret: b.Int}
		case "is_empty":
			return &BuiltinMethod{Name: name, SelfMode: ModeShared, Ret: b.Bool}
		case "contains":
			return &BuiltinMethod{Name: name, SelfMode: ModeShared, Params: []BuiltinParam{{t.Elem, ModeShared}}, Ret: b.Bool}
		case "push":
			return &BuiltinMethod{Name: name, SelfMode: ModeExclusive, Params: []BuiltinParam{{t.Elem, ModeOwned}}, Ret: b.Unit}
		case "pop":
			return &BuiltinMethod{Name: name, SelfMode: ModeExclusive, Ret: c.ctx.Types.Intern(types.MakeOption(t.Elem))}
		case "clear":
			return &BuiltinMethod{Name: name, SelfMode: ModeExclusive, Ret: b.Unit}
		}
	case types.KindMap:
		switch name {
		case "len":
			return &BuiltinMethod{Name: name, SelfMode: ModeShared, Ret: b.Int}
		case "is_empty":
			return &BuiltinMethod{Name: name, SelfMode: ModeShared, Ret: b.Bool}
		case "contains_key":
			return &BuiltinMethod{Name: name, SelfMode: ModeShared, Params: []BuiltinParam{{t.Elem, ModeShared}}, Ret: b.Bool}
		case "get":
			return &BuiltinMethod{Name: name, SelfMode: ModeShared, Params: []BuiltinParam{{t.Elem, ModeShared}}, Ret: c.ctx.Types.Intern(types.MakeOption(t.Elem2))}
		case "insert":
			return &BuiltinMethod{Name: name, SelfMode: ModeExclusive, Params: []BuiltinParam{{t.Elem, ModeOwned}, {t.Elem2, ModeOwned}}, Ret: b.Unit}
		case "remove":
			return &BuiltinMethod{Name: name, SelfMode: ModeExclusive, Params: []BuiltinParam{{t.Elem, ModeShared}}, Ret: c.ctx.Types.Intern(types.MakeOption(t.Elem2))}
		}
	case types.KindString:
		switch name {
		case "len":
			return &BuiltinMethod{Name: name, SelfMode: ModeShared, Ret: b.Int}
		case "is_empty":
			return &BuiltinMethod{Name: name, SelfMode: ModeShared, Ret: b.Bool}
		case "contains":
			return &BuiltinMethod{Name: name, SelfMode: ModeShared, Params: []BuiltinParam{{b.String, ModeShared}}, Ret: b.Bool}
		case "to_upper", "to_lower", "trim":
			return &BuiltinMethod{Name: name, SelfMode: ModeShared, Ret: b.String}
		case "clone":
			return &BuiltinMethod{Name: name, SelfMode: ModeShared, Ret: b.String}
		}
	case types.KindOption:
		switch name {
		case "is_some", "is_none":
			return &BuiltinMethod{Name: name, SelfMode: ModeShared, Ret: b.Bool}
		case "unwrap":
			return &BuiltinMethod{Name: name, SelfMode: ModeOwned, Ret: t.Elem}
		case "unwrap_or":
			return &BuiltinMethod{Name: name, SelfMode: ModeOwned, Params: []BuiltinParam{{t.Elem, ModeOwned}}, Ret: t.Elem}
		}
	case types.KindResult:
		switch name {
		case "is_ok", "is_err":
			return &BuiltinMethod{Name: name, SelfMode: ModeShared, Ret: b.Bool}
		case "unwrap":
			return &BuiltinMethod{Name: name, SelfMode: ModeOwned, Ret: t.Elem}
		}
	}
	return nil
}
