package sema

import (
	"gale/internal/ast"
	"gale/internal/diag"
	"gale/internal/source"
	"gale/internal/symbols"
	"gale/internal/types"
)

// Context is the crate-wide semantic state shared by every pass:
// interned types, the Copy classifier, and the signature registry.
// Mutation is confined to declaration lowering and the fixed-point
// driver; body passes are pure readers.
type Context struct {
	Builder  *ast.Builder
	Table    *symbols.Table
	Types    *types.Interner
	Class    *types.Classifier
	Registry *Registry

	nominals *nominalSource
}

// NewContext wires the shared state. The classifier reads nominal
// declarations through the symbol table.
func NewContext(builder *ast.Builder, table *symbols.Table) *Context {
	ctx := &Context{
		Builder:  builder,
		Table:    table,
		Types:    types.NewInterner(),
		Registry: NewRegistry(),
	}
	ctx.nominals = &nominalSource{ctx: ctx, fields: make(map[symbols.SymbolID][]types.TypeID)}
	ctx.Class = types.NewClassifier(ctx.Types, ctx.nominals)
	return ctx
}

// SymbolName renders a symbol for type formatting.
func (ctx *Context) SymbolName(ref types.SymbolRef) string {
	sym := ctx.Table.Symbols.Get(symbols.SymbolID(ref))
	if sym == nil {
		return "<unknown>"
	}
	return ctx.Table.Strings.MustLookup(sym.Name)
}

// FormatType renders a type for diagnostics.
func (ctx *Context) FormatType(id types.TypeID) string {
	return ctx.Types.Format(id, ctx.SymbolName)
}

// nominalSource feeds the Copy classifier struct fields, enum variant
// payloads, and the copyable capability. Field types are lowered on
// demand and memoized; recursion is safe because the classifier
// resolves cycles to Move on its own.
type nominalSource struct {
	ctx      *Context
	fields   map[symbols.SymbolID][]types.TypeID
	payloads map[symbols.SymbolID][]types.TypeID
	// binders gives each nominal's home module for path resolution.
	binders map[symbols.SymbolID]*symbols.Binder
}

func (n *nominalSource) NominalFieldTypes(ref types.SymbolRef) []types.TypeID {
	id := symbols.SymbolID(ref)
	if cached, ok := n.fields[id]; ok {
		return cached
	}
	sym := n.ctx.Table.Symbols.Get(id)
	if sym == nil {
		return nil
	}
	lower := n.lowererFor(id)
	var out []types.TypeID
	switch sym.Kind {
	case symbols.SymbolStruct:
		item := n.ctx.Builder.Item(sym.Item)
		decl := n.ctx.Builder.StructAt(item.Payload)
		lower.generics = genericScope(n.ctx, id, decl.TypeParams)
		for _, f := range decl.Fields {
			out = append(out, lower.lower(f.Type))
		}
	case symbols.SymbolEnum:
		item := n.ctx.Builder.Item(sym.Item)
		decl := n.ctx.Builder.EnumAt(item.Payload)
		lower.generics = genericScope(n.ctx, id, decl.TypeParams)
		for _, v := range decl.Variants {
			for _, p := range v.Payload {
				out = append(out, lower.lower(p))
			}
		}
	}
	n.fields[id] = out
	return out
}

func (n *nominalSource) NominalCopyable(ref types.SymbolRef) bool {
	sym := n.ctx.Table.Symbols.Get(symbols.SymbolID(ref))
	return sym != nil && sym.Flags&symbols.SymbolFlagCopyable != 0
}

func (n *nominalSource) lowererFor(id symbols.SymbolID) *typeLowerer {
	var binder *symbols.Binder
	if n.binders != nil {
		binder = n.binders[id]
	}
	return &typeLowerer{ctx: n.ctx, binder: binder, reporter: diag.NopReporter{}}
}

// registerNominalHome remembers which module declared a nominal so
// its field types resolve against the right imports.
func (ctx *Context) registerNominalHome(id symbols.SymbolID, binder *symbols.Binder) {
	if ctx.nominals.binders == nil {
		ctx.nominals.binders = make(map[symbols.SymbolID]*symbols.Binder)
	}
	ctx.nominals.binders[id] = binder
}

// variantPayload lowers an enum variant's payload types, memoized per
// variant symbol.
func (ctx *Context) variantPayload(variant symbols.SymbolID) []types.TypeID {
	if ctx.nominals.payloads == nil {
		ctx.nominals.payloads = make(map[symbols.SymbolID][]types.TypeID)
	}
	if cached, ok := ctx.nominals.payloads[variant]; ok {
		return cached
	}
	v := ctx.Table.Symbols.Get(variant)
	if v == nil || v.Kind != symbols.SymbolEnumVariant {
		return nil
	}
	enumSym := ctx.Table.Symbols.Get(v.Parent)
	if enumSym == nil {
		return nil
	}
	item := ctx.Builder.Item(enumSym.Item)
	decl := ctx.Builder.EnumAt(item.Payload)
	lower := ctx.nominals.lowererFor(v.Parent)
	lower.generics = genericScope(ctx, v.Parent, decl.TypeParams)
	var out []types.TypeID
	if int(v.Index) < len(decl.Variants) {
		for _, p := range decl.Variants[v.Index].Payload {
			out = append(out, lower.lower(p))
		}
	}
	ctx.nominals.payloads[variant] = out
	return out
}

// genericScope maps a declaration's type parameter names to fresh
// Generic types keyed by synthetic per-declaration symbols.
func genericScope(ctx *Context, owner symbols.SymbolID, params []source.StringID) map[source.StringID]types.TypeID {
	if len(params) == 0 {
		return nil
	}
	out := make(map[source.StringID]types.TypeID, len(params))
	for _, p := range params {
		sym := ctx.Table.Symbols.New(symbols.Symbol{
			Name:   p,
			Kind:   symbols.SymbolParam,
			Parent: owner,
		})
		out[p] = ctx.Types.Intern(types.MakeGeneric(types.SymbolRef(sym)))
	}
	return out
}

// typeLowerer turns syntactic types into interned semantic types,
// resolving names through one module's binder.
type typeLowerer struct {
	ctx      *Context
	binder   *symbols.Binder
	reporter diag.Reporter
	generics map[source.StringID]types.TypeID
	selfType types.TypeID
}

func (l *typeLowerer) lower(id ast.TypeID) types.TypeID {
	b := l.ctx.Types.Builtins()
	if !id.IsValid() {
		return b.Unit
	}
	syn := l.ctx.Builder.TypeSyn(id)
	if syn == nil {
		return b.Invalid
	}
	switch syn.Kind {
	case ast.TypeSynUnit:
		return b.Unit
	case ast.TypeSynSelf:
		if l.selfType != types.NoTypeID {
			return l.selfType
		}
		diag.Error(l.reporter, diag.ResSelfOutsideMethod, syn.Span,
			"`Self` is only allowed inside an impl block").Emit()
		return b.Invalid
	case ast.TypeSynRef:
		return l.ctx.Types.Intern(types.MakeRef(l.lower(syn.Args[0]), syn.Mut))
	case ast.TypeSynSeq:
		return l.ctx.Types.Intern(types.MakeSeq(l.lower(syn.Args[0])))
	case ast.TypeSynMap:
		return l.ctx.Types.Intern(types.MakeMap(l.lower(syn.Args[0]), l.lower(syn.Args[1])))
	case ast.TypeSynTuple:
		elems := make([]types.TypeID, len(syn.Args))
		for i, a := range syn.Args {
			elems[i] = l.lower(a)
		}
		return l.ctx.Types.Intern(types.MakeTuple(elems))
	case ast.TypeSynOption:
		return l.ctx.Types.Intern(types.MakeOption(l.lower(syn.Args[0])))
	case ast.TypeSynFn:
		params := make([]types.TypeID, len(syn.Args))
		for i, a := range syn.Args {
			params[i] = l.lower(a)
		}
		ret := types.NoTypeID
		if syn.Ret.IsValid() {
			ret = l.lower(syn.Ret)
		}
		return l.ctx.Types.Intern(types.MakeFn(params, ret))
	case ast.TypeSynTraitObject:
		sym := l.resolveNamed(syn.Path, syn.Span, symbols.SymbolTrait)
		if !sym.IsValid() {
			return b.Invalid
		}
		return l.ctx.Types.Intern(types.MakeTraitObject([]types.SymbolRef{types.SymbolRef(sym)}))
	case ast.TypeSynNamed:
		return l.lowerNamed(syn)
	}
	return b.Invalid
}

func (l *typeLowerer) lowerNamed(syn *ast.TypeSyn) types.TypeID {
	b := l.ctx.Types.Builtins()
	if len(syn.Path) == 1 {
		name, _ := l.ctx.Table.Strings.Lookup(syn.Path[0])
		switch name {
		case "int":
			return b.Int
		case "float":
			return b.Float
		case "bool":
			return b.Bool
		case "char":
			return b.Char
		case "string":
			return b.String
		case "Result":
			if len(syn.Args) == 2 {
				return l.ctx.Types.Intern(types.MakeResult(l.lower(syn.Args[0]), l.lower(syn.Args[1])))
			}
		}
		if g, ok := l.generics[syn.Path[0]]; ok {
			return g
		}
	}
	sym := l.resolveNamed(syn.Path, syn.Span, symbols.SymbolInvalid)
	if !sym.IsValid() {
		return b.Invalid
	}
	symData := l.ctx.Table.Symbols.Get(sym)
	switch symData.Kind {
	case symbols.SymbolStruct, symbols.SymbolEnum:
		args := make([]types.TypeID, len(syn.Args))
		for i, a := range syn.Args {
			args[i] = l.lower(a)
		}
		return l.ctx.Types.Intern(types.MakeNominal(types.SymbolRef(sym), args))
	case symbols.SymbolTrait:
		diag.Error(l.reporter, diag.ResUnknownTypeName, syn.Span,
			"trait `"+l.ctx.Table.Strings.MustLookup(symData.Name)+"` must be written `dyn "+
				l.ctx.Table.Strings.MustLookup(symData.Name)+"` in type position").Emit()
		return b.Invalid
	default:
		diag.Error(l.reporter, diag.ResUnknownTypeName, syn.Span,
			"`"+l.ctx.Table.Strings.MustLookup(symData.Name)+"` is not a type").Emit()
		return b.Invalid
	}
}

// resolveNamed resolves a type path through the module binder. When
// wantKind is not SymbolInvalid the result must match it.
func (l *typeLowerer) resolveNamed(path []source.StringID, span source.Span, wantKind symbols.SymbolKind) symbols.SymbolID {
	if l.binder == nil || len(path) == 0 {
		return symbols.NoSymbolID
	}
	sym := l.binder.LookupType(path, span, l.reporter)
	if !sym.IsValid() {
		return symbols.NoSymbolID
	}
	if wantKind != symbols.SymbolInvalid && l.ctx.Table.Symbols.Get(sym).Kind != wantKind {
		diag.Error(l.reporter, diag.ResUnknownTypeName, span,
			"expected a "+wantKind.String()+" here").Emit()
		return symbols.NoSymbolID
	}
	return sym
}
