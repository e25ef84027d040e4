package sema

import (
	"gale/internal/ast"
	"gale/internal/diag"
	"gale/internal/symbols"
	"gale/internal/types"
)

// ArgPlan is the adjuster's verdict for one argument position.
type ArgPlan struct {
	Adjust Adjust
	Class  ArgClass
	Mode   Mode
	Reason Reason
}

// Adjusted is the adjustment plan for one function body, keyed by the
// expression or statement that owns the argument positions. The
// emitter applies these tags verbatim.
type Adjusted struct {
	// Args maps call, method-call, and struct-literal expressions to
	// their per-argument plans.
	Args map[ast.ExprID][]ArgPlan
	// Iter maps for statements to the plan of their iterand.
	Iter map[ast.StmtID]ArgPlan
	// LetMut marks let statements whose binding carries mut.
	LetMut map[ast.StmtID]bool
}

// adjuster computes call-site adjustments from post-fixed-point
// signatures. Running it twice over the same body yields the same
// plan; every rule maps an unadjusted shape to its final form.
type adjuster struct {
	ctx      *Context
	t        *Typing
	a        *Analysis
	sigs     map[symbols.SymbolID]*FnSig
	reporter diag.Reporter
	out      *Adjusted
}

func adjustFn(ctx *Context, t *Typing, a *Analysis, sigs map[symbols.SymbolID]*FnSig, reporter diag.Reporter) *Adjusted {
	adj := &adjuster{
		ctx:      ctx,
		t:        t,
		a:        a,
		sigs:     sigs,
		reporter: reporter,
		out: &Adjusted{
			Args:   make(map[ast.ExprID][]ArgPlan),
			Iter:   make(map[ast.StmtID]ArgPlan),
			LetMut: make(map[ast.StmtID]bool),
		},
	}
	decl := ctx.Builder.Fn(t.Fn)
	if decl.Body.IsValid() {
		adj.block(decl.Body)
	}
	return adj.out
}

func (adj *adjuster) block(id ast.BlockID) {
	block := adj.ctx.Builder.Block(id)
	if block == nil {
		return
	}
	for _, s := range block.Stmts {
		adj.stmt(s)
	}
	if block.Tail.IsValid() {
		adj.expr(block.Tail)
	}
}

func (adj *adjuster) stmt(id ast.StmtID) {
	stmt := adj.ctx.Builder.Stmt(id)
	switch stmt.Kind {
	case ast.StmtLet:
		adj.out.LetMut[id] = stmt.Mut
		if stmt.Init.IsValid() {
			adj.expr(stmt.Init)
		}
	case ast.StmtAssign:
		adj.expr(stmt.Target)
		adj.expr(stmt.Init)
	case ast.StmtExpr, ast.StmtReturn:
		if stmt.Init.IsValid() {
			adj.expr(stmt.Init)
		}
	case ast.StmtWhile:
		adj.expr(stmt.Target)
		adj.block(stmt.Body)
	case ast.StmtFor:
		adj.iterand(id, stmt.Target)
		adj.block(stmt.Body)
	case ast.StmtLoop:
		adj.block(stmt.Body)
	}
}

func (adj *adjuster) expr(id ast.ExprID) {
	expr := adj.ctx.Builder.Expr(id)
	if expr == nil {
		return
	}
	switch expr.Kind {
	case ast.ExprCall:
		adj.call(id, expr)
	case ast.ExprMethodCall:
		adj.methodCall(id, expr)
	case ast.ExprStructLit:
		adj.structLit(id, expr)
	case ast.ExprField, ast.ExprIndex, ast.ExprUnary, ast.ExprRef:
		adj.expr(expr.X)
		if expr.Y.IsValid() {
			adj.expr(expr.Y)
		}
	case ast.ExprBinary:
		adj.expr(expr.X)
		adj.expr(expr.Y)
	case ast.ExprTuple, ast.ExprSeqLit, ast.ExprMapLit:
		for _, arg := range expr.Args {
			adj.expr(arg)
		}
	case ast.ExprIf:
		adj.expr(expr.X)
		adj.block(expr.Block)
		if expr.Else.IsValid() {
			adj.expr(expr.Else)
		}
	case ast.ExprMatch:
		adj.expr(expr.X)
		for i := range expr.Arms {
			adj.expr(expr.Arms[i].Body)
		}
	case ast.ExprBlock:
		adj.block(expr.Block)
	}
}

func (adj *adjuster) call(id ast.ExprID, expr *ast.Expr) {
	adj.expr(expr.X)
	callee, ok := adj.t.Callees[id]
	if !ok {
		// Indirect call: parameters of a fn value are owned.
		plans := make([]ArgPlan, 0, len(expr.Args))
		for _, arg := range expr.Args {
			adj.expr(arg)
			plans = append(plans, adj.plan(id, arg, ModeOwned, adj.exprType(arg)))
		}
		adj.out.Args[id] = plans
		return
	}
	if adj.ctx.Table.Symbols.Get(callee).Kind == symbols.SymbolEnumVariant {
		payload := adj.ctx.variantPayload(callee)
		plans := make([]ArgPlan, 0, len(expr.Args))
		for i, arg := range expr.Args {
			adj.expr(arg)
			formal := adj.exprType(arg)
			if i < len(payload) {
				formal = payload[i]
			}
			plans = append(plans, adj.plan(id, arg, ModeOwned, formal))
		}
		adj.out.Args[id] = plans
		return
	}
	sig := adj.sigs[callee]
	plans := make([]ArgPlan, 0, len(expr.Args))
	for i, arg := range expr.Args {
		adj.expr(arg)
		mode, formal := ModeOwned, adj.exprType(arg)
		if sig != nil && i < len(sig.Params) {
			mode, formal = sig.Params[i].Mode, sig.Params[i].Type
		}
		plans = append(plans, adj.plan(id, arg, mode, formal))
	}
	adj.out.Args[id] = plans
}

func (adj *adjuster) methodCall(id ast.ExprID, expr *ast.Expr) {
	adj.expr(expr.X)
	var params []ParamSig
	if bm := adj.t.Builtins[id]; bm != nil {
		for _, p := range bm.Params {
			params = append(params, ParamSig{Type: p.Type, Mode: p.Mode})
		}
	} else if callee, ok := adj.t.Callees[id]; ok {
		if sig := adj.sigs[callee]; sig != nil {
			params = sig.Params
		}
	}
	plans := make([]ArgPlan, 0, len(expr.Args))
	for i, arg := range expr.Args {
		adj.expr(arg)
		mode, formal := ModeOwned, adj.exprType(arg)
		if i < len(params) {
			mode, formal = params[i].Mode, params[i].Type
		}
		plans = append(plans, adj.plan(id, arg, mode, formal))
	}
	adj.out.Args[id] = plans
}

// structLit treats every field initializer as an owned argument of the
// field's type, so string literals become owned strings here too.
func (adj *adjuster) structLit(id ast.ExprID, expr *ast.Expr) {
	plans := make([]ArgPlan, 0, len(expr.Args))
	for i, arg := range expr.Args {
		adj.expr(arg)
		formal := adj.exprType(arg)
		if sym, ok := adj.t.ExprSyms[id]; ok && i < len(expr.Names) {
			if f := adj.ctx.Table.FieldByName(sym, expr.Names[i]); f.IsValid() {
				if ft := adj.ctx.Table.Symbols.Get(f).Type; ft != types.NoTypeID {
					formal = ft
				}
			}
		}
		plans = append(plans, adj.plan(id, arg, ModeOwned, formal))
	}
	adj.out.Args[id] = plans
}

// iterand plans `for x in e`: e is consumed when the binding is never
// reused after the loop, otherwise it is borrowed shared.
func (adj *adjuster) iterand(stmtID ast.StmtID, id ast.ExprID) {
	adj.expr(id)
	mode := ModeShared
	if root := adj.iterRoot(id); root.IsValid() {
		if fp := adj.a.Prints[root]; fp != nil && fp.Has(UsageIterNoReuse) {
			mode = ModeOwned
		}
	} else {
		// Temporaries are consumed outright.
		mode = ModeOwned
	}
	adj.out.Iter[stmtID] = adj.plan(ast.NoExprID, id, mode, adj.exprType(id))
}

func (adj *adjuster) iterRoot(id ast.ExprID) symbols.SymbolID {
	expr := adj.ctx.Builder.Expr(id)
	if expr == nil || (expr.Kind != ast.ExprIdent && expr.Kind != ast.ExprSelf) {
		return symbols.NoSymbolID
	}
	return adj.t.ExprSyms[id]
}

// plan is the adjustment table. callID keys the call's generic
// substitution so a Copy concrete type suppresses borrows and clones.
func (adj *adjuster) plan(callID ast.ExprID, arg ast.ExprID, mode Mode, formal types.TypeID) ArgPlan {
	class := classifyArg(adj.ctx, adj.t, arg)
	actual := adj.exprType(arg)
	resolved := formal
	if callID.IsValid() {
		if subst := adj.t.Subst[callID]; len(subst) > 0 {
			resolved = substType(adj.ctx, formal, subst)
		}
	}
	cls := adj.ctx.Class.Of(resolved)

	p := ArgPlan{Adjust: AdjustAsIs, Class: class, Mode: mode}
	switch mode {
	case ModeShared:
		if class == ClassSharedRef || class == ClassExclusiveRef {
			p.Reason = ReasonAlreadyBorrowed
			return p
		}
		if cls == types.Copy {
			// Copy passes by value; no borrow needed.
			p.Reason = ReasonCopyByValue
			return p
		}
		if class == ClassStringLit {
			// A literal must become an owned string before the borrow.
			p.Adjust = AdjustBorrowOwnedString
			p.Reason = ReasonBorrowForShared
			return p
		}
		// Places and temporaries alike: a temporary lives for the
		// duration of the call it is borrowed into.
		p.Adjust = AdjustSharedBorrow
		p.Reason = ReasonBorrowForShared
		return p

	case ModeExclusive:
		if class == ClassExclusiveRef {
			p.Reason = ReasonAlreadyBorrowed
			return p
		}
		if class.IsPlace() {
			p.Adjust = AdjustExclusiveBorrow
			p.Reason = ReasonBorrowForExclusive
			return p
		}
		// A temporary has no place the write could land in.
		p.Reason = ReasonBorrowOfNonPlace
		diag.Error(adj.reporter, diag.OwnBorrowOfNonPlace,
			adj.ctx.Builder.Expr(arg).Span,
			"cannot borrow a temporary value exclusively").Emit()
		return p

	case ModeOwned, ModeOwnedSelf:
		if class == ClassStringLit && adj.isString(resolved) {
			p.Adjust = AdjustToOwnedString
			p.Reason = ReasonLiteralNeedsOwned
			return p
		}
		if ft, ok := adj.ctx.Types.Lookup(formal); ok && ft.Kind == types.KindGeneric {
			if resolved == formal && actual != formal {
				p.Adjust = AdjustInto
				p.Reason = ReasonGenericConversion
				return p
			}
		}
		if class == ClassSharedRef || class == ClassExclusiveRef {
			switch cls {
			case types.Copy:
				p.Adjust = AdjustDeref
				p.Reason = ReasonDerefCopy
			case types.Move:
				p.Adjust = AdjustCloneIfShared
				p.Reason = ReasonCalleeDemandsOwnership
			}
			return p
		}
		return p
	}
	return p
}

func (adj *adjuster) isString(id types.TypeID) bool {
	t, ok := adj.ctx.Types.Lookup(id)
	return ok && t.Kind == types.KindString
}

func (adj *adjuster) exprType(id ast.ExprID) types.TypeID {
	if t, ok := adj.t.ExprTypes[id]; ok {
		return t
	}
	return adj.ctx.Types.Builtins().Unknown
}
