package symbols

import "gale/internal/source"

// ScopeKind enumerates supported scope categories.
type ScopeKind uint8

const (
	ScopeInvalid  ScopeKind = iota
	ScopeModule             // module-level declarations, one per file
	ScopeFunction           // function body: parameters live here
	ScopeBlock              // nested block inside a body
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeModule:
		return "module"
	case ScopeFunction:
		return "function"
	case ScopeBlock:
		return "block"
	default:
		return "invalid"
	}
}

// Scope models a lexical scope with a parent-child hierarchy. Globs
// lists module roots pulled in wholesale by glob imports; they are
// searched after the scope chain is exhausted.
type Scope struct {
	Kind      ScopeKind
	Parent    ScopeID
	Span      source.Span
	NameIndex map[source.StringID]SymbolID
	Symbols   []SymbolID
	Children  []ScopeID
	Globs     []ScopeID
}
