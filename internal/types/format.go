package types

import "strings"

// SymbolNamer resolves a symbol ref to its declared name for display.
type SymbolNamer func(SymbolRef) string

// Format renders a type for diagnostics.
func (in *Interner) Format(id TypeID, name SymbolNamer) string {
	t, ok := in.Lookup(id)
	if !ok {
		return "<invalid>"
	}
	switch t.Kind {
	case KindUnit:
		return "()"
	case KindBool, KindInt, KindFloat, KindChar, KindString:
		return t.Kind.String()
	case KindUnknown:
		return "_"
	case KindRef:
		if t.Mut {
			return "&mut " + in.Format(t.Elem, name)
		}
		return "&" + in.Format(t.Elem, name)
	case KindSeq:
		return "[" + in.Format(t.Elem, name) + "]"
	case KindMap:
		return "[" + in.Format(t.Elem, name) + ": " + in.Format(t.Elem2, name) + "]"
	case KindTuple:
		parts := make([]string, len(t.Args))
		for i, a := range t.Args {
			parts[i] = in.Format(a, name)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case KindOption:
		return in.Format(t.Elem, name) + "?"
	case KindResult:
		return "Result<" + in.Format(t.Elem, name) + ", " + in.Format(t.Elem2, name) + ">"
	case KindFn:
		parts := make([]string, len(t.Args))
		for i, a := range t.Args {
			parts[i] = in.Format(a, name)
		}
		out := "fn(" + strings.Join(parts, ", ") + ")"
		if t.Ret != NoTypeID {
			out += " -> " + in.Format(t.Ret, name)
		}
		return out
	case KindTraitObject:
		parts := make([]string, len(t.Syms))
		for i, s := range t.Syms {
			parts[i] = name(s)
		}
		return "dyn " + strings.Join(parts, " + ")
	case KindGeneric:
		return name(t.Sym)
	case KindNominal:
		out := name(t.Sym)
		if len(t.Args) > 0 {
			parts := make([]string, len(t.Args))
			for i, a := range t.Args {
				parts[i] = in.Format(a, name)
			}
			out += "<" + strings.Join(parts, ", ") + ">"
		}
		return out
	}
	return "<invalid>"
}
