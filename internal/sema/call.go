package sema

import (
	"strconv"

	"gale/internal/ast"
	"gale/internal/diag"
	"gale/internal/source"
	"gale/internal/symbols"
	"gale/internal/types"
)

func (c *checker) checkCall(id ast.ExprID, expr *ast.Expr) types.TypeID {
	callee := c.ctx.Builder.Expr(expr.X)
	var calleeSym symbols.SymbolID
	switch callee.Kind {
	case ast.ExprIdent:
		if sym, ok := c.env.Lookup(callee.Name); ok {
			calleeSym = sym
		} else {
			diag.Error(c.reporter, diag.ResUnresolvedName, callee.Span,
				"cannot find `"+c.ctx.Table.Strings.MustLookup(callee.Name)+"` in this scope").Emit()
			c.fail()
			c.checkArgsLoose(expr.Args)
			return c.unknown()
		}
	case ast.ExprPath:
		calleeSym = c.env.ResolvePath(callee.Path, callee.Span)
		if c.ctx.Table.Symbols.Get(calleeSym).IsError() {
			c.fail()
			c.checkArgsLoose(expr.Args)
			return c.unknown()
		}
	default:
		// Indirect call through a function-typed expression.
		fnType := c.checkExpr(expr.X, true)
		return c.checkIndirectCall(expr, fnType)
	}
	c.t.ExprSyms[expr.X] = calleeSym

	symData := c.ctx.Table.Symbols.Get(calleeSym)
	switch symData.Kind {
	case symbols.SymbolFunction, symbols.SymbolMethod:
		c.t.Callees[id] = calleeSym
		return c.checkInvocation(id, calleeSym, expr.Args, expr.Span)
	case symbols.SymbolEnumVariant:
		c.t.Callees[id] = calleeSym
		return c.checkVariantCtor(id, calleeSym, expr.Args, expr.Span)
	case symbols.SymbolStruct:
		diag.Error(c.reporter, diag.ResNotCallable, expr.Span,
			"structs are built with literal syntax, not calls").Emit()
		c.fail()
		c.checkArgsLoose(expr.Args)
		return c.unknown()
	default:
		// A function-typed local or parameter.
		fnType := c.symbolType(calleeSym)
		c.t.ExprTypes[expr.X] = fnType
		return c.checkIndirectCall(expr, fnType)
	}
}

func (c *checker) checkArgsLoose(args []ast.ExprID) {
	for _, a := range args {
		c.checkExpr(a, true)
	}
}

func (c *checker) checkIndirectCall(expr *ast.Expr, fnType types.TypeID) types.TypeID {
	t, ok := c.ctx.Types.Lookup(fnType)
	if !ok || t.Kind == types.KindUnknown || t.Kind == types.KindInvalid {
		c.checkArgsLoose(expr.Args)
		return c.unknown()
	}
	if t.Kind != types.KindFn {
		diag.Error(c.reporter, diag.ResNotCallable, expr.Span,
			"`"+c.ctx.FormatType(fnType)+"` is not callable").Emit()
		c.fail()
		c.checkArgsLoose(expr.Args)
		return c.unknown()
	}
	if len(expr.Args) != len(t.Args) {
		c.arityError(len(t.Args), len(expr.Args), expr.Span)
		c.checkArgsLoose(expr.Args)
		return t.Ret
	}
	for i, a := range expr.Args {
		got := c.checkExpr(a, true)
		c.unify(t.Args[i], got, c.ctx.Builder.Expr(a).Span)
	}
	if t.Ret == types.NoTypeID {
		return c.ctx.Types.Builtins().Unit
	}
	return t.Ret
}

// checkInvocation types a direct call against the callee's declared
// parameter types, inferring generic substitutions by unification.
func (c *checker) checkInvocation(callID ast.ExprID, callee symbols.SymbolID, args []ast.ExprID, span source.Span) types.TypeID {
	sig := c.sigs[callee]
	if sig == nil {
		c.checkArgsLoose(args)
		return c.unknown()
	}
	if len(args) != len(sig.Params) {
		c.arityError(len(sig.Params), len(args), span)
		c.checkArgsLoose(args)
		return sig.Ret
	}
	subst := make(map[types.TypeID]types.TypeID)
	for i, a := range args {
		got := c.checkExpr(a, true)
		formal := sig.Params[i].Type
		c.inferSubst(formal, got, subst)
		c.unify(c.applySubst(formal, subst), got, c.ctx.Builder.Expr(a).Span)
	}
	if len(subst) > 0 {
		c.t.Subst[callID] = subst
	}
	if sig.Ret == types.NoTypeID {
		return c.ctx.Types.Builtins().Unit
	}
	return c.applySubst(sig.Ret, subst)
}

func (c *checker) checkVariantCtor(callID ast.ExprID, variant symbols.SymbolID, args []ast.ExprID, span source.Span) types.TypeID {
	payload := c.ctx.variantPayload(variant)
	if len(args) != len(payload) {
		c.arityError(len(payload), len(args), span)
		c.checkArgsLoose(args)
	} else {
		for i, a := range args {
			got := c.checkExpr(a, true)
			c.unify(payload[i], got, c.ctx.Builder.Expr(a).Span)
		}
	}
	enumSym := c.ctx.Table.Symbols.Get(variant).Parent
	return c.ctx.Types.Intern(types.MakeNominal(types.SymbolRef(enumSym), nil))
}

func (c *checker) arityError(want, got int, span source.Span) {
	diag.Error(c.reporter, diag.ResArityMismatch, span,
		"expected "+strconv.Itoa(want)+" argument(s), found "+strconv.Itoa(got)).Emit()
	c.fail()
}

// inferSubst walks formal against actual and records what each
// generic parameter stands for. First binding wins.
func (c *checker) inferSubst(formal, actual types.TypeID, subst map[types.TypeID]types.TypeID) {
	ft, fok := c.ctx.Types.Lookup(formal)
	at, aok := c.ctx.Types.Lookup(actual)
	if !fok || !aok {
		return
	}
	if ft.Kind == types.KindGeneric {
		if _, bound := subst[formal]; !bound && at.Kind != types.KindUnknown {
			subst[formal] = actual
		}
		return
	}
	if ft.Kind != at.Kind {
		return
	}
	switch ft.Kind {
	case types.KindRef, types.KindSeq, types.KindOption:
		c.inferSubst(ft.Elem, at.Elem, subst)
	case types.KindMap, types.KindResult:
		c.inferSubst(ft.Elem, at.Elem, subst)
		c.inferSubst(ft.Elem2, at.Elem2, subst)
	case types.KindTuple, types.KindNominal, types.KindFn:
		for i := range ft.Args {
			if i < len(at.Args) {
				c.inferSubst(ft.Args[i], at.Args[i], subst)
			}
		}
		if ft.Kind == types.KindFn {
			c.inferSubst(ft.Ret, at.Ret, subst)
		}
	}
}

// applySubst rebuilds a type with generic parameters replaced.
func (c *checker) applySubst(id types.TypeID, subst map[types.TypeID]types.TypeID) types.TypeID {
	return substType(c.ctx, id, subst)
}

func substType(ctx *Context, id types.TypeID, subst map[types.TypeID]types.TypeID) types.TypeID {
	if len(subst) == 0 {
		return id
	}
	if repl, ok := subst[id]; ok {
		return repl
	}
	t, ok := ctx.Types.Lookup(id)
	if !ok {
		return id
	}
	switch t.Kind {
	case types.KindRef:
		return ctx.Types.Intern(types.MakeRef(substType(ctx, t.Elem, subst), t.Mut))
	case types.KindSeq:
		return ctx.Types.Intern(types.MakeSeq(substType(ctx, t.Elem, subst)))
	case types.KindOption:
		return ctx.Types.Intern(types.MakeOption(substType(ctx, t.Elem, subst)))
	case types.KindMap:
		return ctx.Types.Intern(types.MakeMap(substType(ctx, t.Elem, subst), substType(ctx, t.Elem2, subst)))
	case types.KindResult:
		return ctx.Types.Intern(types.MakeResult(substType(ctx, t.Elem, subst), substType(ctx, t.Elem2, subst)))
	case types.KindTuple:
		elems := make([]types.TypeID, len(t.Args))
		for i, a := range t.Args {
			elems[i] = substType(ctx, a, subst)
		}
		return ctx.Types.Intern(types.MakeTuple(elems))
	case types.KindNominal:
		if len(t.Args) == 0 {
			return id
		}
		args := make([]types.TypeID, len(t.Args))
		for i, a := range t.Args {
			args[i] = substType(ctx, a, subst)
		}
		return ctx.Types.Intern(types.MakeNominal(t.Sym, args))
	case types.KindFn:
		params := make([]types.TypeID, len(t.Args))
		for i, a := range t.Args {
			params[i] = substType(ctx, a, subst)
		}
		return ctx.Types.Intern(types.MakeFn(params, substType(ctx, t.Ret, subst)))
	default:
		return id
	}
}

func (c *checker) checkMethodCall(id ast.ExprID, expr *ast.Expr) types.TypeID {
	recv := c.checkExpr(expr.X, true)
	derefs := 0
	pierced := recv
	for {
		t, ok := c.ctx.Types.Lookup(pierced)
		if !ok || t.Kind != types.KindRef {
			break
		}
		pierced = t.Elem
		derefs++
	}
	c.t.RecvDeref[id] = derefs
	name := c.ctx.Table.Strings.MustLookup(expr.Name)

	if bi := c.builtinMethod(pierced, name); bi != nil {
		c.t.Builtins[id] = bi
		if len(expr.Args) != len(bi.Params) {
			c.arityError(len(bi.Params), len(expr.Args), expr.Span)
			c.checkArgsLoose(expr.Args)
			return bi.Ret
		}
		for i, a := range expr.Args {
			got := c.checkExpr(a, true)
			c.unify(bi.Params[i].Type, got, c.ctx.Builder.Expr(a).Span)
		}
		return bi.Ret
	}

	t, ok := c.ctx.Types.Lookup(pierced)
	if !ok || t.Kind == types.KindUnknown || t.Kind == types.KindInvalid {
		c.checkArgsLoose(expr.Args)
		return c.unknown()
	}
	switch t.Kind {
	case types.KindNominal:
		typeSym := symbols.SymbolID(t.Sym)
		res := c.ctx.Table.ResolveMethod(typeSym, expr.Name)
		if len(res.Candidates) > 1 {
			rb := diag.Error(c.reporter, diag.ResAmbiguousMethod, expr.Span,
				"method `"+name+"` on `"+c.ctx.FormatType(pierced)+"` matches more than one trait")
			for _, cand := range res.Candidates {
				rb.WithNote(c.ctx.Table.Symbols.Get(cand).Span, "candidate defined here")
			}
			rb.Emit()
			c.fail()
			c.checkArgsLoose(expr.Args)
			return c.unknown()
		}
		if !res.Found.IsValid() {
			diag.Error(c.reporter, diag.ResUnknownMethod, expr.Span,
				"no method `"+name+"` on `"+c.ctx.FormatType(pierced)+"`").Emit()
			c.fail()
			c.checkArgsLoose(expr.Args)
			return c.unknown()
		}
		c.t.Callees[id] = res.Found
		return c.checkInvocation(id, res.Found, expr.Args, expr.Span)

	case types.KindTraitObject:
		for _, traitRef := range t.Syms {
			traitSym := symbols.SymbolID(traitRef)
			for _, m := range c.ctx.Table.TraitFns(traitSym) {
				if c.ctx.Table.Symbols.Get(m).Name == expr.Name {
					c.t.Callees[id] = m
					return c.checkInvocation(id, m, expr.Args, expr.Span)
				}
			}
		}
		diag.Error(c.reporter, diag.ResUnknownMethod, expr.Span,
			"no method `"+name+"` on `"+c.ctx.FormatType(pierced)+"`").Emit()
		c.fail()
		c.checkArgsLoose(expr.Args)
		return c.unknown()

	default:
		diag.Error(c.reporter, diag.ResUnknownMethod, expr.Span,
			"no method `"+name+"` on `"+c.ctx.FormatType(pierced)+"`").Emit()
		c.fail()
		c.checkArgsLoose(expr.Args)
		return c.unknown()
	}
}

func (c *checker) checkStructLit(id ast.ExprID, expr *ast.Expr) types.TypeID {
	sym := c.env.ResolvePath(expr.Path, expr.Span)
	symData := c.ctx.Table.Symbols.Get(sym)
	if symData.IsError() {
		c.fail()
		c.checkArgsLoose(expr.Args)
		return c.unknown()
	}
	if symData.Kind != symbols.SymbolStruct {
		diag.Error(c.reporter, diag.ResUnknownTypeName, expr.Span,
			"`"+c.ctx.Table.Strings.MustLookup(symData.Name)+"` is not a struct").Emit()
		c.fail()
		c.checkArgsLoose(expr.Args)
		return c.unknown()
	}
	c.t.ExprSyms[id] = sym

	seen := make(map[source.StringID]bool, len(expr.Names))
	for i, fieldName := range expr.Names {
		value := c.checkExpr(expr.Args[i], true)
		field := c.ctx.Table.FieldByName(sym, fieldName)
		if !field.IsValid() {
			diag.Error(c.reporter, diag.ResUnknownField, c.ctx.Builder.Expr(expr.Args[i]).Span,
				"no field `"+c.ctx.Table.Strings.MustLookup(fieldName)+"` on `"+
					c.ctx.Table.Strings.MustLookup(symData.Name)+"`").Emit()
			c.fail()
			continue
		}
		seen[fieldName] = true
		c.unify(c.fieldType(sym, field), value, c.ctx.Builder.Expr(expr.Args[i]).Span)
	}
	for _, field := range c.ctx.Table.Fields(sym) {
		fieldData := c.ctx.Table.Symbols.Get(field)
		if !seen[fieldData.Name] {
			diag.Error(c.reporter, diag.TypeMismatch, expr.Span,
				"missing field `"+c.ctx.Table.Strings.MustLookup(fieldData.Name)+"` in `"+
					c.ctx.Table.Strings.MustLookup(symData.Name)+"` literal").Emit()
			c.fail()
		}
	}
	return c.ctx.Types.Intern(types.MakeNominal(types.SymbolRef(sym), nil))
}
