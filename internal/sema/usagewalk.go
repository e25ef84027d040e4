package sema

import (
	"gale/internal/ast"
	"gale/internal/source"
	"gale/internal/symbols"
	"gale/internal/token"
	"gale/internal/types"
)

// Analysis is the result of one usage walk over a typed function
// body: a fingerprint per parameter and local, plus the spans later
// passes need for diagnostics.
type Analysis struct {
	Prints map[symbols.SymbolID]*Fingerprint
	// MutSites lists every mutation site per binding, in body order.
	MutSites map[symbols.SymbolID][]source.Span
	// ConsumeSites lists every consuming use per binding, in body
	// order. Move-after-move checks read these.
	ConsumeSites map[symbols.SymbolID][]source.Span
}

func (a *Analysis) print(sym symbols.SymbolID) *Fingerprint {
	fp := a.Prints[sym]
	if fp == nil {
		fp = &Fingerprint{}
		a.Prints[sym] = fp
	}
	return fp
}

// usageWalker traverses one body under a round's signature snapshot.
type usageWalker struct {
	ctx  *Context
	t    *Typing
	sigs map[symbols.SymbolID]*FnSig
	out  *Analysis
	// pendingIter holds bindings consumed as loop iterands; a later
	// use downgrades the consumption to a reuse.
	pendingIter map[symbols.SymbolID]bool
	retMove     bool
}

// analyzeUsage computes fingerprints for one function under the
// signatures of the current round.
func analyzeUsage(ctx *Context, t *Typing, sigs map[symbols.SymbolID]*FnSig) *Analysis {
	w := &usageWalker{
		ctx:  ctx,
		t:    t,
		sigs: sigs,
		out: &Analysis{
			Prints:       make(map[symbols.SymbolID]*Fingerprint),
			MutSites:     make(map[symbols.SymbolID][]source.Span),
			ConsumeSites: make(map[symbols.SymbolID][]source.Span),
		},
		pendingIter: make(map[symbols.SymbolID]bool),
		retMove:     moveLike(ctx, t.Ret),
	}
	if t.SelfSym.IsValid() {
		w.out.print(t.SelfSym)
	}
	for _, p := range t.ParamSyms {
		w.out.print(p)
	}
	decl := ctx.Builder.Fn(t.Fn)
	if decl.Body.IsValid() {
		w.walkBlock(decl.Body, w.retMove)
	}
	return w.out
}

func (w *usageWalker) walkBlock(id ast.BlockID, tailReturns bool) {
	block := w.ctx.Builder.Block(id)
	if block == nil {
		return
	}
	for _, s := range block.Stmts {
		w.walkStmt(s)
	}
	if block.Tail.IsValid() {
		if tailReturns {
			w.walkExpr(block.Tail, UsageReturned)
		} else {
			w.walkExpr(block.Tail, 0)
		}
	}
}

func (w *usageWalker) walkStmt(id ast.StmtID) {
	stmt := w.ctx.Builder.Stmt(id)
	switch stmt.Kind {
	case ast.StmtLet:
		if stmt.Init.IsValid() {
			w.walkExpr(stmt.Init, 0)
		}

	case ast.StmtAssign:
		target := w.ctx.Builder.Expr(stmt.Target)
		if root := w.placeRoot(stmt.Target); root.IsValid() {
			fp := w.out.print(root)
			fp.Add(UsageMutated)
			if target.Kind == ast.ExprIdent || target.Kind == ast.ExprSelf {
				fp.Add(UsageRebound)
			}
			w.out.MutSites[root] = append(w.out.MutSites[root], stmt.Span)
			w.touch(root)
		}
		if target.Kind == ast.ExprField {
			// Assigning into a field moves the value in.
			w.walkExpr(stmt.Init, UsageMovedIntoField)
		} else {
			w.walkExpr(stmt.Init, 0)
		}

	case ast.StmtExpr:
		w.walkExpr(stmt.Init, 0)

	case ast.StmtReturn:
		if stmt.Init.IsValid() {
			if w.retMove {
				w.walkExpr(stmt.Init, UsageReturned)
			} else {
				w.walkExpr(stmt.Init, 0)
			}
		}

	case ast.StmtWhile:
		w.walkExpr(stmt.Target, 0)
		w.walkBlock(stmt.Body, false)

	case ast.StmtFor:
		w.walkIterand(stmt.Target)
		if binder := w.t.ForSyms[id]; binder.IsValid() {
			w.out.print(binder)
		}
		w.walkBlock(stmt.Body, false)

	case ast.StmtLoop:
		w.walkBlock(stmt.Body, false)
	}
}

// walkIterand treats `for x in e` as consuming e unless the binding
// shows up again after the loop.
func (w *usageWalker) walkIterand(id ast.ExprID) {
	expr := w.ctx.Builder.Expr(id)
	if expr != nil && (expr.Kind == ast.ExprIdent || expr.Kind == ast.ExprSelf) {
		if sym, ok := w.t.ExprSyms[id]; ok && w.isTracked(sym) {
			if moveLike(w.ctx, w.exprType(id)) {
				fp := w.out.print(sym)
				fp.Add(UsageRead)
				fp.Add(UsageIterNoReuse)
				w.pendingIter[sym] = true
				w.out.ConsumeSites[sym] = append(w.out.ConsumeSites[sym], expr.Span)
				return
			}
		}
	}
	w.walkExpr(id, 0)
}

// walkExpr records usage facts. dest is the consuming fact the value
// flows into (UsageReturned, UsageMovedIntoField, UsagePassedOwned)
// or zero for a plain read position.
func (w *usageWalker) walkExpr(id ast.ExprID, dest Usage) {
	expr := w.ctx.Builder.Expr(id)
	if expr == nil {
		return
	}
	switch expr.Kind {
	case ast.ExprIdent, ast.ExprSelf, ast.ExprPath:
		sym, ok := w.t.ExprSyms[id]
		if !ok || !w.isTracked(sym) {
			return
		}
		w.touch(sym)
		fp := w.out.print(sym)
		fp.Add(UsageRead)
		if dest != 0 && moveLike(w.ctx, w.exprType(id)) {
			fp.Add(dest)
			w.out.ConsumeSites[sym] = append(w.out.ConsumeSites[sym], expr.Span)
		}

	case ast.ExprLit:
		// Nothing to record.

	case ast.ExprField:
		w.projectField(id, expr, dest)

	case ast.ExprIndex:
		w.walkExpr(expr.X, 0)
		w.walkExpr(expr.Y, 0)

	case ast.ExprBinary:
		w.walkExpr(expr.X, 0)
		w.walkExpr(expr.Y, 0)

	case ast.ExprUnary, ast.ExprRef:
		w.walkExpr(expr.X, 0)

	case ast.ExprCall:
		w.walkCall(id, expr)

	case ast.ExprMethodCall:
		w.walkMethodCall(id, expr)

	case ast.ExprStructLit:
		for _, arg := range expr.Args {
			w.walkExpr(arg, UsageMovedIntoField)
		}

	case ast.ExprTuple, ast.ExprSeqLit, ast.ExprMapLit:
		for _, arg := range expr.Args {
			w.walkExpr(arg, dest)
		}

	case ast.ExprIf:
		w.walkExpr(expr.X, 0)
		w.walkBlock(expr.Block, dest == UsageReturned)
		if expr.Else.IsValid() {
			w.walkExpr(expr.Else, dest)
		}

	case ast.ExprMatch:
		w.walkExpr(expr.X, 0)
		for i := range expr.Arms {
			w.walkExpr(expr.Arms[i].Body, dest)
		}

	case ast.ExprBlock:
		w.walkBlock(expr.Block, dest == UsageReturned)
	}
}

// projectField handles x.f reads, including the self.f move-out case.
func (w *usageWalker) projectField(id ast.ExprID, expr *ast.Expr, dest Usage) {
	base := w.ctx.Builder.Expr(expr.X)
	if dest != 0 && base != nil && base.Kind == ast.ExprSelf &&
		moveLike(w.ctx, w.exprType(id)) {
		if sym, ok := w.t.ExprSyms[expr.X]; ok && w.isTracked(sym) {
			w.touch(sym)
			fp := w.out.print(sym)
			fp.Add(UsageRead)
			fp.Add(UsageFieldProjectedOut)
			w.out.ConsumeSites[sym] = append(w.out.ConsumeSites[sym], expr.Span)
			return
		}
	}
	w.walkExpr(expr.X, 0)
}

func (w *usageWalker) walkCall(id ast.ExprID, expr *ast.Expr) {
	callee, ok := w.t.Callees[id]
	if !ok {
		// Indirect call through a fn value; arguments are reads.
		w.walkExpr(expr.X, 0)
		for _, arg := range expr.Args {
			w.walkExpr(arg, 0)
		}
		return
	}
	if w.ctx.Table.Symbols.Get(callee).Kind == symbols.SymbolEnumVariant {
		// Constructor arguments move into the payload.
		for _, arg := range expr.Args {
			w.walkExpr(arg, UsageMovedIntoField)
		}
		return
	}
	sig := w.sigs[callee]
	for i, arg := range expr.Args {
		w.walkArg(arg, w.paramMode(sig, i))
	}
}

func (w *usageWalker) walkMethodCall(id ast.ExprID, expr *ast.Expr) {
	selfMode := ModeShared
	var params []ParamSig
	if bm := w.t.Builtins[id]; bm != nil {
		selfMode = bm.SelfMode
		for _, p := range bm.Params {
			params = append(params, ParamSig{Type: p.Type, Mode: p.Mode})
		}
	} else if callee, ok := w.t.Callees[id]; ok {
		if sig := w.sigs[callee]; sig != nil {
			selfMode = sig.SelfMode
			params = sig.Params
		}
	}

	w.walkReceiver(expr.X, selfMode)
	for i, arg := range expr.Args {
		mode := ModeShared
		if i < len(params) {
			mode = params[i].Mode
		}
		w.walkArg(arg, mode)
	}
}

func (w *usageWalker) walkReceiver(id ast.ExprID, selfMode Mode) {
	root := w.placeRoot(id)
	if !root.IsValid() {
		w.walkExpr(id, 0)
		return
	}
	w.touch(root)
	fp := w.out.print(root)
	fp.Add(UsageRead)
	switch {
	case selfMode == ModeExclusive:
		fp.Add(UsageMutated)
		w.out.MutSites[root] = append(w.out.MutSites[root], w.ctx.Builder.Expr(id).Span)
	case selfMode.Consumes() && moveLike(w.ctx, w.exprType(id)):
		fp.Add(UsagePassedOwned)
		w.out.ConsumeSites[root] = append(w.out.ConsumeSites[root], w.ctx.Builder.Expr(id).Span)
	}
}

// walkArg records what passing an expression to a parameter of the
// given mode does to the bindings inside it.
func (w *usageWalker) walkArg(id ast.ExprID, mode Mode) {
	expr := w.ctx.Builder.Expr(id)
	if expr == nil {
		return
	}
	root := w.placeRoot(id)
	if !root.IsValid() || expr.Kind == ast.ExprField || expr.Kind == ast.ExprIndex {
		w.walkExpr(id, 0)
		return
	}
	w.touch(root)
	fp := w.out.print(root)
	fp.Add(UsageRead)
	switch {
	case mode == ModeExclusive:
		fp.Add(UsageMutated)
		fp.Add(UsagePassedBorrow)
		w.out.MutSites[root] = append(w.out.MutSites[root], expr.Span)
	case mode == ModeShared:
		fp.Add(UsagePassedBorrow)
	case mode.Consumes() && moveLike(w.ctx, w.exprType(id)):
		fp.Add(UsagePassedOwned)
		w.out.ConsumeSites[root] = append(w.out.ConsumeSites[root], expr.Span)
	}
}

func (w *usageWalker) paramMode(sig *FnSig, i int) Mode {
	if sig == nil || i >= len(sig.Params) {
		return ModeOwned
	}
	return sig.Params[i].Mode
}

// placeRoot walks field, index, and deref chains down to the binding
// they address. Returns NoSymbolID for non-place expressions.
func (w *usageWalker) placeRoot(id ast.ExprID) symbols.SymbolID {
	expr := w.ctx.Builder.Expr(id)
	if expr == nil {
		return symbols.NoSymbolID
	}
	switch expr.Kind {
	case ast.ExprIdent, ast.ExprSelf:
		if sym, ok := w.t.ExprSyms[id]; ok && w.isTracked(sym) {
			return sym
		}
	case ast.ExprField, ast.ExprIndex:
		return w.placeRoot(expr.X)
	case ast.ExprUnary:
		if expr.Op == token.Star {
			return w.placeRoot(expr.X)
		}
	}
	return symbols.NoSymbolID
}

// touch downgrades a pending iterand consumption to a reuse when the
// binding shows up again after its loop.
func (w *usageWalker) touch(sym symbols.SymbolID) {
	if !w.pendingIter[sym] {
		return
	}
	delete(w.pendingIter, sym)
	fp := w.out.print(sym)
	fp.bits &^= UsageIterNoReuse
	fp.Add(UsageIterReuse)
	if sites := w.out.ConsumeSites[sym]; len(sites) > 0 {
		w.out.ConsumeSites[sym] = sites[:len(sites)-1]
	}
}

// moveLike treats unsubstituted generics as Move; suppression for a
// Copy concrete type happens at the call-site adjuster instead.
func moveLike(ctx *Context, id types.TypeID) bool {
	return ctx.Class.Of(id) != types.Copy
}

func (w *usageWalker) isTracked(sym symbols.SymbolID) bool {
	kind := w.ctx.Table.Symbols.Get(sym).Kind
	return kind == symbols.SymbolParam || kind == symbols.SymbolLocal
}

func (w *usageWalker) exprType(id ast.ExprID) types.TypeID {
	if t, ok := w.t.ExprTypes[id]; ok {
		return t
	}
	return w.ctx.Types.Builtins().Unknown
}
