package symbols

import (
	"gale/internal/diag"
	"gale/internal/source"
)

// Env is the lexical environment for one function body. Lookups walk
// the scope stack innermost first, fall through to the module root
// (items and imports), and finally to glob-imported modules.
type Env struct {
	binder *Binder
	stack  []ScopeID
}

// NewEnv starts an environment rooted at the binder's module scope.
func NewEnv(b *Binder) *Env {
	return &Env{binder: b, stack: []ScopeID{b.root}}
}

// Table exposes the shared symbol table.
func (e *Env) Table() *Table { return e.binder.table }

// Module returns the module key the environment resolves inside.
func (e *Env) Module() string { return e.binder.module }

// Reporter returns the binder's diagnostic sink.
func (e *Env) Reporter() diag.Reporter { return e.binder.reporter }

// Binder returns the module binder the environment was built from.
func (e *Env) Binder() *Binder { return e.binder }

// Enter pushes a fresh child scope.
func (e *Env) Enter(kind ScopeKind, span source.Span) ScopeID {
	parent := e.stack[len(e.stack)-1]
	id := e.binder.table.Scopes.New(kind, parent, span)
	e.stack = append(e.stack, id)
	return id
}

// Leave pops the current scope; the module root never pops.
func (e *Env) Leave() {
	if len(e.stack) > 1 {
		e.stack = e.stack[:len(e.stack)-1]
	}
}

// Declare installs a fresh binding in the current scope. Shadowing an
// outer (or earlier) binding is allowed and makes a new symbol; the
// shadowed one stays alive in the arena.
func (e *Env) Declare(name source.StringID, span source.Span, kind SymbolKind, flags SymbolFlags) SymbolID {
	top := e.stack[len(e.stack)-1]
	id := e.binder.table.Symbols.New(Symbol{
		Name:   name,
		Kind:   kind,
		Scope:  top,
		Span:   span,
		Flags:  flags,
		Module: e.binder.module,
	})
	scope := e.binder.table.Scopes.Get(top)
	scope.NameIndex[name] = id
	scope.Symbols = append(scope.Symbols, id)
	return id
}

// Lookup resolves a bare identifier. Imports are chased to their
// target symbol. Returns false when nothing in scope matches.
func (e *Env) Lookup(name source.StringID) (SymbolID, bool) {
	t := e.binder.table
	for i := len(e.stack) - 1; i >= 0; i-- {
		if id, ok := t.LookupIn(e.stack[i], name); ok {
			return e.binder.chaseImport(id), true
		}
	}
	if root := t.Scopes.Get(e.stack[0]); root != nil {
		for _, glob := range root.Globs {
			if id, ok := t.LookupIn(glob, name); ok {
				return e.binder.chaseImport(id), true
			}
		}
	}
	return NoSymbolID, false
}

// ResolvePath resolves a multi-segment expression path: either
// Type::Variant on an enum in scope, or a module-qualified item.
// Failures are reported and collapse to the error sentinel.
func (e *Env) ResolvePath(segs []source.StringID, span source.Span) SymbolID {
	t := e.binder.table
	if len(segs) == 0 {
		return t.Error
	}
	if len(segs) == 1 {
		if id, ok := e.Lookup(segs[0]); ok {
			return id
		}
		diag.Error(e.binder.reporter, diag.ResUnresolvedName, span,
			"cannot find `"+t.Strings.MustLookup(segs[0])+"` in this scope").Emit()
		return t.Error
	}
	// Enum::Variant beats module paths when the head is in scope.
	if head, ok := e.Lookup(segs[0]); ok {
		if sym := t.Symbols.Get(head); sym != nil && sym.Kind == SymbolEnum && len(segs) == 2 {
			if v := t.VariantByName(head, segs[1]); v.IsValid() {
				return v
			}
			diag.Error(e.binder.reporter, diag.ResUnknownEnumCase, span,
				"enum `"+t.Strings.MustLookup(sym.Name)+"` has no case `"+
					t.Strings.MustLookup(segs[1])+"`").Emit()
			return t.Error
		}
	}
	id, ok := e.binder.resolveItemPath(segs, span)
	if !ok {
		return t.Error
	}
	return id
}
