package sema

import (
	"strconv"

	"gale/internal/ast"
	"gale/internal/diag"
	"gale/internal/source"
	"gale/internal/symbols"
	"gale/internal/types"
)

// DefaultMaxRounds bounds the signature fixed point. The mode lattice
// is finite and moves only upward, so stabilization normally takes a
// handful of rounds proportional to call-graph depth.
const DefaultMaxRounds = 8

// Options configures crate analysis.
type Options struct {
	MaxRounds int
}

// FnResult carries everything later phases need about one analyzed
// function: its typing, final fingerprints, inferred signature, and
// the call-site adjustment plan.
type FnResult struct {
	Sym    symbols.SymbolID
	Module string
	Typing *Typing
	Usage  *Analysis
	Sig    *FnSig
	Plan   *Adjusted
}

// Result is the output of AnalyzeCrate.
type Result struct {
	Ctx       *Context
	Fns       []*FnResult
	BySym     map[symbols.SymbolID]*FnResult
	Rounds    int
	Converged bool
}

type fnWork struct {
	sym      symbols.SymbolID
	fnID     ast.FnID
	module   string
	selfType types.TypeID
	generics map[source.StringID]types.TypeID
	hasBody  bool
	span     source.Span
}

// AnalyzeCrate runs the semantic phases over a fully bound crate:
// seed signatures from declarations, one typing pass per body, then
// the usage/inference fixed point, then enforcement and call-site
// adjustment under the stabilized signatures.
func AnalyzeCrate(ctx *Context, binders map[string]*symbols.Binder, reporter diag.Reporter, opts Options) *Result {
	maxRounds := opts.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}

	registerNominalHomes(ctx, binders)
	seedTraitMethods(ctx, binders)
	work := collectWork(ctx, binders)

	for _, w := range work {
		lower := &typeLowerer{
			ctx:      ctx,
			binder:   binders[w.module],
			reporter: diag.NopReporter{},
			generics: w.generics,
			selfType: w.selfType,
		}
		decl := ctx.Builder.Fn(w.fnID)
		ctx.Registry.Install(seedSignature(ctx, lower, w.sym, decl, w.selfType))
	}

	// Typing does not depend on modes, so one pass suffices; the
	// fixed point below only re-walks usage.
	var fns []*FnResult
	for _, w := range work {
		if !w.hasBody {
			continue
		}
		env := symbols.NewEnv(binders[w.module])
		lower := &typeLowerer{
			ctx:      ctx,
			binder:   binders[w.module],
			reporter: reporter,
			generics: w.generics,
			selfType: w.selfType,
		}
		typing := checkFn(ctx, env, lower, w.sym, w.fnID, w.selfType)
		fns = append(fns, &FnResult{Sym: w.sym, Module: w.module, Typing: typing})
	}

	rounds := 0
	converged := false
	for rounds < maxRounds {
		rounds++
		sigs := ctx.Registry.Snapshot()
		updates := make([]*FnSig, 0, len(fns))
		fresh := make(map[symbols.SymbolID]*FnSig, len(fns))
		for _, f := range fns {
			if f.Typing.Failed {
				continue
			}
			a := analyzeUsage(ctx, f.Typing, sigs)
			sig := inferSignature(ctx, f.Typing, a)
			updates = append(updates, sig)
			fresh[sig.Sym] = sig
		}
		updates = append(updates, joinTraitSigs(ctx, sigs, fresh)...)
		if !ctx.Registry.ApplyRound(updates) {
			converged = true
			break
		}
	}
	if !converged && len(fns) > 0 {
		diag.Error(reporter, diag.OwnInferenceDidNotConverge, spanOf(ctx, fns[0].Sym),
			"ownership inference did not stabilize after "+strconv.Itoa(maxRounds)+" rounds").Emit()
	}

	final := ctx.Registry.Snapshot()
	bySym := make(map[symbols.SymbolID]*FnResult, len(fns))
	for _, f := range fns {
		f.Sig = final[f.Sym]
		bySym[f.Sym] = f
		if f.Typing.Failed {
			continue
		}
		f.Usage = analyzeUsage(ctx, f.Typing, final)
		enforce(ctx, f.Typing, f.Usage, reporter)
		f.Plan = adjustFn(ctx, f.Typing, f.Usage, final, reporter)
	}
	return &Result{
		Ctx:       ctx,
		Fns:       fns,
		BySym:     bySym,
		Rounds:    rounds,
		Converged: converged,
	}
}

func registerNominalHomes(ctx *Context, binders map[string]*symbols.Binder) {
	for i := uint32(1); i <= uint32(ctx.Table.Symbols.Len()); i++ {
		id := symbols.SymbolID(i)
		sym := ctx.Table.Symbols.Get(id)
		if sym.Kind == symbols.SymbolStruct || sym.Kind == symbols.SymbolEnum {
			if b := binders[sym.Module]; b != nil {
				ctx.registerNominalHome(id, b)
			}
		}
	}
}

// seedTraitMethods installs signatures for trait method declarations,
// which have no bodies of their own; joinTraitSigs refines them from
// implementations each round.
func seedTraitMethods(ctx *Context, binders map[string]*symbols.Binder) {
	for i := uint32(1); i <= uint32(ctx.Table.Symbols.Len()); i++ {
		id := symbols.SymbolID(i)
		sym := ctx.Table.Symbols.Get(id)
		if sym.Kind != symbols.SymbolTraitMethod {
			continue
		}
		trait := ctx.Table.Symbols.Get(sym.Parent)
		if trait == nil || !trait.Item.IsValid() {
			continue
		}
		decl := ctx.Builder.TraitAt(ctx.Builder.Item(trait.Item).Payload)
		if decl == nil || int(sym.Index) >= len(decl.Methods) {
			continue
		}
		def := decl.Methods[sym.Index]
		lower := &typeLowerer{
			ctx:      ctx,
			binder:   binders[sym.Module],
			reporter: diag.NopReporter{},
			selfType: ctx.Types.Builtins().Unknown,
		}
		ret := ctx.Types.Builtins().Unit
		if def.Ret.IsValid() {
			ret = lower.lower(def.Ret)
		}
		sig := &FnSig{
			Sym:      id,
			Name:     ctx.Table.Strings.MustLookup(sym.Name),
			HasSelf:  def.HasSelf,
			SelfMode: ModeOwned,
			Ret:      ret,
			RetMove:  ctx.Class.Of(ret) == types.Move,
		}
		for _, p := range def.Params {
			sig.Params = append(sig.Params, ParamSig{
				Name: ctx.Table.Strings.MustLookup(p.Name),
				Type: lower.lower(p.Type),
				Mode: ModeOwned,
			})
		}
		ctx.Registry.Install(sig)
	}
}

// collectWork gathers every function-like symbol in id order, which
// makes analysis order deterministic across runs.
func collectWork(ctx *Context, binders map[string]*symbols.Binder) []fnWork {
	var out []fnWork
	for i := uint32(1); i <= uint32(ctx.Table.Symbols.Len()); i++ {
		id := symbols.SymbolID(i)
		sym := ctx.Table.Symbols.Get(id)
		switch sym.Kind {
		case symbols.SymbolFunction, symbols.SymbolMethod:
		default:
			continue
		}
		if !sym.Fn.IsValid() || binders[sym.Module] == nil {
			continue
		}
		decl := ctx.Builder.Fn(sym.Fn)
		selfType := ctx.Types.Builtins().Unknown
		if sym.Kind == symbols.SymbolMethod {
			selfType = ctx.Types.Intern(types.MakeNominal(types.SymbolRef(sym.Parent), nil))
		}
		out = append(out, fnWork{
			sym:      id,
			fnID:     sym.Fn,
			module:   sym.Module,
			selfType: selfType,
			generics: genericScope(ctx, id, decl.TypeParams),
			hasBody:  decl.Body.IsValid(),
			span:     decl.Span,
		})
	}
	return out
}

// joinTraitSigs folds each trait method's implementations into the
// trait declaration's signature by taking, per position, the highest
// mode any implementation requires. Calls through trait objects then
// see demands no stricter than any concrete target.
func joinTraitSigs(ctx *Context, sigs, fresh map[symbols.SymbolID]*FnSig) []*FnSig {
	var out []*FnSig
	for i := uint32(1); i <= uint32(ctx.Table.Symbols.Len()); i++ {
		id := symbols.SymbolID(i)
		if ctx.Table.Symbols.Get(id).Kind != symbols.SymbolTraitMethod {
			continue
		}
		impls := ctx.Table.TraitFnImpls(id)
		if len(impls) == 0 {
			continue
		}
		base := sigs[id]
		if base == nil {
			continue
		}
		joined := &FnSig{
			Sym:     id,
			Name:    base.Name,
			HasSelf: base.HasSelf,
			Ret:     base.Ret,
			RetMove: base.RetMove,
		}
		joined.Params = append(joined.Params, base.Params...)
		for p := range joined.Params {
			joined.Params[p].Mode = ModeShared
			joined.Params[p].Consumed = false
		}
		joined.SelfMode = ModeShared
		for _, impl := range impls {
			is := fresh[impl]
			if is == nil {
				is = sigs[impl]
			}
			if is == nil || len(is.Params) != len(joined.Params) {
				continue
			}
			if is.SelfMode > joined.SelfMode {
				joined.SelfMode = is.SelfMode
			}
			for p := range joined.Params {
				if is.Params[p].Mode > joined.Params[p].Mode {
					joined.Params[p].Mode = is.Params[p].Mode
				}
				joined.Params[p].Consumed = joined.Params[p].Consumed || is.Params[p].Consumed
			}
		}
		out = append(out, joined)
	}
	return out
}

func spanOf(ctx *Context, sym symbols.SymbolID) source.Span {
	return ctx.Table.Symbols.Get(sym).Span
}
