package sema

import (
	"gale/internal/ast"
	"gale/internal/diag"
	"gale/internal/symbols"
	"gale/internal/types"
)

func (c *checker) checkMatch(expr *ast.Expr, valueNeeded bool) types.TypeID {
	scrutinee := c.checkExpr(expr.X, true)
	pierced := c.pierceRefs(scrutinee)

	armType := c.unknown()
	first := true
	for i := range expr.Arms {
		arm := &expr.Arms[i]
		c.env.Enter(symbols.ScopeBlock, arm.Span)
		c.checkPattern(&arm.Pat, pierced)
		got := c.checkExpr(arm.Body, valueNeeded)
		c.env.Leave()
		if !valueNeeded {
			continue
		}
		if first {
			armType = got
			first = false
			continue
		}
		if !c.unifies(armType, got) && !c.unifies(got, armType) {
			diag.Error(c.reporter, diag.TypeInconsistentMatchArms, arm.Span,
				"match arms disagree: `"+c.ctx.FormatType(armType)+"` vs `"+
					c.ctx.FormatType(got)+"`").Emit()
			c.fail()
		}
	}
	if !valueNeeded {
		return c.ctx.Types.Builtins().Unit
	}
	return armType
}

func (c *checker) checkPattern(pat *ast.Pattern, scrutinee types.TypeID) {
	switch pat.Kind {
	case ast.PatWildcard:
		// Matches anything.

	case ast.PatLit:
		c.unify(scrutinee, c.litType(pat.Lit), pat.Span)

	case ast.PatBinding:
		sym := c.env.Declare(pat.Name, pat.Span, symbols.SymbolLocal, 0)
		c.ctx.Table.Symbols.Get(sym).Type = scrutinee

	case ast.PatVariant:
		variant := c.resolveVariantPattern(pat, scrutinee)
		if !variant.IsValid() {
			return
		}
		payload := c.ctx.variantPayload(variant)
		if len(pat.Binders) > 0 && len(pat.Binders) != len(payload) {
			c.arityError(len(payload), len(pat.Binders), pat.Span)
			return
		}
		for i, binder := range pat.Binders {
			sym := c.env.Declare(binder, pat.Span, symbols.SymbolLocal, 0)
			c.ctx.Table.Symbols.Get(sym).Type = payload[i]
		}
	}
}

// resolveVariantPattern finds the variant a pattern names. A single
// segment is looked up on the scrutinee's enum; longer paths resolve
// through the environment.
func (c *checker) resolveVariantPattern(pat *ast.Pattern, scrutinee types.TypeID) symbols.SymbolID {
	t, ok := c.ctx.Types.Lookup(scrutinee)
	if len(pat.Path) == 1 && ok && t.Kind == types.KindNominal {
		enumSym := symbols.SymbolID(t.Sym)
		if c.ctx.Table.Symbols.Get(enumSym).Kind == symbols.SymbolEnum {
			if v := c.ctx.Table.VariantByName(enumSym, pat.Path[0]); v.IsValid() {
				return v
			}
			diag.Error(c.reporter, diag.ResUnknownEnumCase, pat.Span,
				"enum `"+c.ctx.FormatType(scrutinee)+"` has no case `"+
					c.ctx.Table.Strings.MustLookup(pat.Path[0])+"`").Emit()
			c.fail()
			return symbols.NoSymbolID
		}
	}
	sym := c.env.ResolvePath(pat.Path, pat.Span)
	symData := c.ctx.Table.Symbols.Get(sym)
	if symData.IsError() {
		c.fail()
		return symbols.NoSymbolID
	}
	if symData.Kind != symbols.SymbolEnumVariant {
		diag.Error(c.reporter, diag.ResUnknownEnumCase, pat.Span,
			"pattern path must name an enum case").Emit()
		c.fail()
		return symbols.NoSymbolID
	}
	if ok && t.Kind == types.KindNominal && symData.Parent != symbols.SymbolID(t.Sym) {
		diag.Error(c.reporter, diag.TypeMismatch, pat.Span,
			"pattern is for a different enum than `"+c.ctx.FormatType(scrutinee)+"`").Emit()
		c.fail()
		return symbols.NoSymbolID
	}
	return sym
}
