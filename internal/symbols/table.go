package symbols

import (
	"fmt"

	"fortio.org/safecast"

	"gale/internal/source"
)

// Hints provide optional capacity suggestions for the table arenas.
type Hints struct{ Scopes, Symbols uint }

type methodKey struct {
	Type SymbolID
	Name source.StringID
}

// Table aggregates symbol arenas, module roots, and method indexes
// shared across the whole compilation.
type Table struct {
	Scopes  *Scopes
	Symbols *Symbols
	Strings *source.Interner

	// Error is the sentinel every failed resolution collapses to;
	// later passes short-circuit on it instead of cascading.
	Error SymbolID

	modRoot  map[string]ScopeID
	modSym   map[string]SymbolID
	inherent map[methodKey][]SymbolID
	traits   map[methodKey][]SymbolID
	fields   map[SymbolID][]SymbolID
	variants map[SymbolID][]SymbolID
	traitFns map[SymbolID][]SymbolID
	implsOf  map[SymbolID][]SymbolID
}

// NewTable builds a fresh table with optional capacity hints.
// If strings is nil, a fresh interner is allocated.
func NewTable(h Hints, strings *source.Interner) *Table {
	scopeCap, err := safecast.Conv[uint32](h.Scopes)
	if err != nil {
		panic(fmt.Errorf("scope capacity overflow: %w", err))
	}
	symCap, err := safecast.Conv[uint32](h.Symbols)
	if err != nil {
		panic(fmt.Errorf("symbol capacity overflow: %w", err))
	}
	if strings == nil {
		strings = source.NewInterner()
	}
	t := &Table{
		Scopes:   NewScopes(scopeCap),
		Symbols:  NewSymbols(symCap),
		Strings:  strings,
		modRoot:  make(map[string]ScopeID),
		modSym:   make(map[string]SymbolID),
		inherent: make(map[methodKey][]SymbolID),
		traits:   make(map[methodKey][]SymbolID),
		fields:   make(map[SymbolID][]SymbolID),
		variants: make(map[SymbolID][]SymbolID),
		traitFns: make(map[SymbolID][]SymbolID),
		implsOf:  make(map[SymbolID][]SymbolID),
	}
	t.Error = t.Symbols.New(Symbol{Kind: SymbolError})
	return t
}

// ModuleRoot returns (and creates if needed) a module-level scope for
// the module keyed by its slash-separated path.
func (t *Table) ModuleRoot(module string, span source.Span) ScopeID {
	if scope, ok := t.modRoot[module]; ok {
		return scope
	}
	scope := t.Scopes.New(ScopeModule, NoScopeID, span)
	t.modRoot[module] = scope
	t.modSym[module] = t.Symbols.New(Symbol{
		Name:   t.Strings.Intern(module),
		Kind:   SymbolModule,
		Scope:  scope,
		Span:   span,
		Module: module,
	})
	return scope
}

// LookupModule returns the root scope of a registered module.
func (t *Table) LookupModule(module string) (ScopeID, bool) {
	scope, ok := t.modRoot[module]
	return scope, ok
}

// ModuleSymbol returns the symbol standing for a registered module.
func (t *Table) ModuleSymbol(module string) SymbolID {
	return t.modSym[module]
}

// LookupIn searches a single scope's name index.
func (t *Table) LookupIn(scope ScopeID, name source.StringID) (SymbolID, bool) {
	s := t.Scopes.Get(scope)
	if s == nil {
		return NoSymbolID, false
	}
	id, ok := s.NameIndex[name]
	return id, ok
}

// AddInherentMethod indexes a method declared in a plain impl block.
func (t *Table) AddInherentMethod(typeSym SymbolID, name source.StringID, method SymbolID) {
	key := methodKey{Type: typeSym, Name: name}
	t.inherent[key] = append(t.inherent[key], method)
}

// AddTraitMethod indexes a method declared in a trait impl block.
func (t *Table) AddTraitMethod(typeSym SymbolID, name source.StringID, method SymbolID) {
	key := methodKey{Type: typeSym, Name: name}
	t.traits[key] = append(t.traits[key], method)
}

// MethodLookup is the outcome of receiver-driven method resolution.
// Exactly one of Found/Candidates is meaningful: a valid Found means a
// unique winner, two or more Candidates mean an ambiguity the caller
// must report.
type MethodLookup struct {
	Found      SymbolID
	Candidates []SymbolID
}

// ResolveMethod searches inherent methods first, then trait methods.
// Inherent beats trait; multiple matching traits are never silently
// tie-broken.
func (t *Table) ResolveMethod(typeSym SymbolID, name source.StringID) MethodLookup {
	key := methodKey{Type: typeSym, Name: name}
	if ms := t.inherent[key]; len(ms) > 0 {
		return MethodLookup{Found: ms[0]}
	}
	switch ms := t.traits[key]; len(ms) {
	case 0:
		return MethodLookup{}
	case 1:
		return MethodLookup{Found: ms[0]}
	default:
		return MethodLookup{Candidates: ms}
	}
}

// AddField records a field symbol for a struct, in declaration order.
func (t *Table) AddField(structSym, field SymbolID) {
	t.fields[structSym] = append(t.fields[structSym], field)
}

// Fields returns a struct's field symbols in declaration order.
func (t *Table) Fields(structSym SymbolID) []SymbolID {
	return t.fields[structSym]
}

// FieldByName finds a single field of a struct.
func (t *Table) FieldByName(structSym SymbolID, name source.StringID) SymbolID {
	for _, f := range t.fields[structSym] {
		if sym := t.Symbols.Get(f); sym != nil && sym.Name == name {
			return f
		}
	}
	return NoSymbolID
}

// AddVariant records a variant symbol for an enum, in declaration order.
func (t *Table) AddVariant(enumSym, variant SymbolID) {
	t.variants[enumSym] = append(t.variants[enumSym], variant)
}

// Variants returns an enum's variant symbols in declaration order.
func (t *Table) Variants(enumSym SymbolID) []SymbolID {
	return t.variants[enumSym]
}

// VariantByName finds a single variant of an enum.
func (t *Table) VariantByName(enumSym SymbolID, name source.StringID) SymbolID {
	for _, v := range t.variants[enumSym] {
		if sym := t.Symbols.Get(v); sym != nil && sym.Name == name {
			return v
		}
	}
	return NoSymbolID
}

// AddTraitFn records a required method on a trait declaration.
func (t *Table) AddTraitFn(traitSym, method SymbolID) {
	t.traitFns[traitSym] = append(t.traitFns[traitSym], method)
}

// TraitFns returns the required methods of a trait in declaration order.
func (t *Table) TraitFns(traitSym SymbolID) []SymbolID {
	return t.traitFns[traitSym]
}

// TraitFnByName finds a trait's required method by name.
func (t *Table) TraitFnByName(traitSym SymbolID, name source.StringID) SymbolID {
	for _, fn := range t.traitFns[traitSym] {
		if t.Symbols.Get(fn).Name == name {
			return fn
		}
	}
	return NoSymbolID
}

// AddTraitFnImpl links a trait method declaration to one implementation.
func (t *Table) AddTraitFnImpl(traitFn, method SymbolID) {
	t.implsOf[traitFn] = append(t.implsOf[traitFn], method)
}

// TraitFnImpls returns every implementation of a trait method.
func (t *Table) TraitFnImpls(traitFn SymbolID) []SymbolID {
	return t.implsOf[traitFn]
}
