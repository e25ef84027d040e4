package symbols

import (
	"gale/internal/ast"
	"gale/internal/source"
	"gale/internal/types"
)

// SymbolKind classifies the semantic meaning of a symbol.
type SymbolKind uint8

const (
	SymbolInvalid SymbolKind = iota
	SymbolError   // sentinel produced by failed resolution
	SymbolModule
	SymbolImport
	SymbolFunction
	SymbolMethod
	SymbolStruct
	SymbolEnum
	SymbolEnumVariant
	SymbolTrait
	SymbolTraitMethod
	SymbolConst
	SymbolField
	SymbolLocal
	SymbolParam
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolError:
		return "error"
	case SymbolModule:
		return "module"
	case SymbolImport:
		return "import"
	case SymbolFunction:
		return "function"
	case SymbolMethod:
		return "method"
	case SymbolStruct:
		return "struct"
	case SymbolEnum:
		return "enum"
	case SymbolEnumVariant:
		return "enum variant"
	case SymbolTrait:
		return "trait"
	case SymbolTraitMethod:
		return "trait method"
	case SymbolConst:
		return "const"
	case SymbolField:
		return "field"
	case SymbolLocal:
		return "let"
	case SymbolParam:
		return "param"
	default:
		return "invalid"
	}
}

// SymbolFlags encode misc attributes for quick checks.
type SymbolFlags uint16

const (
	// SymbolFlagMutable marks a `let mut` binding.
	SymbolFlagMutable SymbolFlags = 1 << iota
	// SymbolFlagCopyable marks a nominal that opted into bit-copy.
	SymbolFlagCopyable
	// SymbolFlagImported marks a binding installed by a use declaration.
	SymbolFlagImported
	// SymbolFlagBuiltin marks prelude entries.
	SymbolFlagBuiltin
)

// Symbol describes a named entity available in a scope.
//
// Field use varies by kind: Fn points at a body for functions and
// methods, Parent is the owning type for methods, fields and variants
// (and the aliased target for imports), Index is the field or variant
// ordinal, Type is filled during type checking.
type Symbol struct {
	Name   source.StringID
	Kind   SymbolKind
	Scope  ScopeID
	Span   source.Span
	Flags  SymbolFlags
	Module string
	Item   ast.ItemID
	Fn     ast.FnID
	Parent SymbolID
	Index  uint32
	Type   types.TypeID
}

// IsError reports whether the symbol is the resolution sentinel.
func (s *Symbol) IsError() bool { return s != nil && s.Kind == SymbolError }
