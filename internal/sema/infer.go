package sema

import (
	"gale/internal/ast"
	"gale/internal/symbols"
	"gale/internal/types"
)

// inferSignature rederives a function's signature from the usage
// fingerprints of one round.
func inferSignature(ctx *Context, t *Typing, a *Analysis) *FnSig {
	sig := &FnSig{
		Sym:     t.Sym,
		Name:    ctx.SymbolName(types.SymbolRef(t.Sym)),
		Ret:     t.Ret,
		RetMove: ctx.Class.Of(t.Ret) == types.Move,
	}
	if t.SelfSym.IsValid() {
		sig.HasSelf = true
		sig.SelfType = t.SelfType
		fp := fingerprintOf(a, t.SelfSym)
		sig.SelfMode = inferMode(ctx, t.SelfType, fp)
		if fp.Has(UsageFieldProjectedOut) {
			// A field cannot move out of a borrowed receiver.
			sig.SelfMode = ModeOwnedSelf
		}
	}
	for _, pSym := range t.ParamSyms {
		symData := ctx.Table.Symbols.Get(pSym)
		fp := fingerprintOf(a, pSym)
		mode := inferMode(ctx, symData.Type, fp)
		sig.Params = append(sig.Params, ParamSig{
			Name:     ctx.Table.Strings.MustLookup(symData.Name),
			Type:     symData.Type,
			Mode:     mode,
			Consumed: mode.Consumes() && fp.Consuming(),
			EmitMut: mode.Consumes() && fp.Has(UsageMutated) ||
				mode == ModeExclusive && fp.Has(UsageRebound),
		})
	}
	return sig
}

// inferMode applies the parameter rules in order: Copy types are
// always Owned, mutation forces an exclusive borrow, consuming facts
// force ownership, anything else borrows shared.
func inferMode(ctx *Context, t types.TypeID, fp Fingerprint) Mode {
	if ctx.Class.Of(t) == types.Copy {
		return ModeOwned
	}
	switch {
	case fp.Has(UsageMutated):
		return ModeExclusive
	case fp.Consuming():
		return ModeOwned
	default:
		return ModeShared
	}
}

func fingerprintOf(a *Analysis, sym symbols.SymbolID) Fingerprint {
	if fp := a.Prints[sym]; fp != nil {
		return *fp
	}
	return Fingerprint{}
}

// seedSignature lowers a declaration into the conservative pre-round
// signature: every parameter Owned, so first-round callers assume the
// worst.
func seedSignature(ctx *Context, lower *typeLowerer, sym symbols.SymbolID, decl *ast.FnDecl, selfType types.TypeID) *FnSig {
	ret := ctx.Types.Builtins().Unit
	if decl.Ret.IsValid() {
		ret = lower.lower(decl.Ret)
	}
	sig := &FnSig{
		Sym:     sym,
		Name:    ctx.SymbolName(types.SymbolRef(sym)),
		Ret:     ret,
		RetMove: ctx.Class.Of(ret) == types.Move,
	}
	if decl.HasSelf {
		sig.HasSelf = true
		sig.SelfType = selfType
		sig.SelfMode = ModeOwned
	}
	for _, p := range decl.Params {
		sig.Params = append(sig.Params, ParamSig{
			Name: ctx.Table.Strings.MustLookup(p.Name),
			Type: lower.lower(p.Type),
			Mode: ModeOwned,
		})
	}
	return sig
}
