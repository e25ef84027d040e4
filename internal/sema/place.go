package sema

import (
	"gale/internal/ast"
	"gale/internal/token"
	"gale/internal/types"
)

// isPlaceExpr reports whether an expression names a memory location
// that can be borrowed or assigned through.
func (c *checker) isPlaceExpr(id ast.ExprID) bool {
	expr := c.ctx.Builder.Expr(id)
	if expr == nil {
		return false
	}
	switch expr.Kind {
	case ast.ExprIdent, ast.ExprSelf, ast.ExprField, ast.ExprIndex:
		return true
	case ast.ExprUnary:
		// *p is a place when p is.
		return expr.Op == token.Star && c.isPlaceExpr(expr.X)
	case ast.ExprPath:
		return false
	}
	return false
}

// classifyArg buckets a call argument by its syntactic shape and type,
// which is what the call-site adjuster keys on.
func classifyArg(ctx *Context, t *Typing, id ast.ExprID) ArgClass {
	expr := ctx.Builder.Expr(id)
	if expr == nil {
		return ClassTemp
	}
	switch expr.Kind {
	case ast.ExprIdent, ast.ExprSelf:
		if tt, ok := ctx.Types.Lookup(t.ExprTypes[id]); ok && tt.Kind == types.KindRef {
			if tt.Mut {
				return ClassExclusiveRef
			}
			return ClassSharedRef
		}
		return ClassPlace
	case ast.ExprField, ast.ExprIndex:
		return ClassPlace
	case ast.ExprLit:
		if expr.Lit.Kind == ast.LitString {
			return ClassStringLit
		}
		return ClassOwnedValue
	case ast.ExprRef:
		if expr.Mut {
			return ClassExclusiveRef
		}
		return ClassSharedRef
	case ast.ExprMethodCall:
		return ClassMethodResult
	case ast.ExprCall, ast.ExprStructLit, ast.ExprTuple, ast.ExprSeqLit, ast.ExprMapLit:
		return ClassOwnedValue
	case ast.ExprUnary:
		if expr.Op == token.Star {
			return ClassPlace
		}
		return ClassTemp
	}
	return ClassTemp
}
