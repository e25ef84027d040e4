package sema

import (
	"gale/internal/ast"
	"gale/internal/diag"
	"gale/internal/source"
	"gale/internal/symbols"
	"gale/internal/token"
	"gale/internal/types"
)

// Typing holds the per-function artefacts of the type pass. Later
// passes (usage, mutability, moves, adjust) are pure readers of it.
type Typing struct {
	Fn        ast.FnID
	Sym       symbols.SymbolID
	SelfSym   symbols.SymbolID
	SelfType  types.TypeID
	ParamSyms []symbols.SymbolID
	Ret       types.TypeID

	ExprTypes map[ast.ExprID]types.TypeID
	// ExprSyms binds idents, self, and paths to their symbols.
	ExprSyms map[ast.ExprID]symbols.SymbolID
	// Callees binds call and method-call expressions to the function,
	// method, trait-method, or variant-constructor symbol invoked.
	Callees map[ast.ExprID]symbols.SymbolID
	// RecvDeref counts reference layers pierced on a method receiver.
	RecvDeref map[ast.ExprID]int
	// Subst maps a call's generic parameter types to inferred
	// concrete types.
	Subst map[ast.ExprID]map[types.TypeID]types.TypeID
	// Builtins records intrinsic method calls (len, push, insert, …).
	Builtins map[ast.ExprID]*BuiltinMethod
	// LetSyms and ForSyms bind declaring statements to their symbols.
	LetSyms map[ast.StmtID]symbols.SymbolID
	ForSyms map[ast.StmtID]symbols.SymbolID

	// Failed is set when a type error aborted this function; ownership
	// passes skip it while the rest of the crate continues.
	Failed bool
}

// checker types one function body.
type checker struct {
	ctx      *Context
	env      *symbols.Env
	reporter diag.Reporter
	lower    *typeLowerer
	sigs     map[symbols.SymbolID]*FnSig
	t        *Typing
}

// checkFn runs the type pass over one function. Signatures must
// already be installed; modes are irrelevant for typing.
func checkFn(ctx *Context, env *symbols.Env, lower *typeLowerer, sym symbols.SymbolID, fnID ast.FnID, selfType types.TypeID) *Typing {
	decl := ctx.Builder.Fn(fnID)
	t := &Typing{
		Fn:        fnID,
		Sym:       sym,
		SelfType:  selfType,
		ExprTypes: make(map[ast.ExprID]types.TypeID),
		ExprSyms:  make(map[ast.ExprID]symbols.SymbolID),
		Callees:   make(map[ast.ExprID]symbols.SymbolID),
		RecvDeref: make(map[ast.ExprID]int),
		Subst:     make(map[ast.ExprID]map[types.TypeID]types.TypeID),
		Builtins:  make(map[ast.ExprID]*BuiltinMethod),
		LetSyms:   make(map[ast.StmtID]symbols.SymbolID),
		ForSyms:   make(map[ast.StmtID]symbols.SymbolID),
	}
	c := &checker{
		ctx:      ctx,
		env:      env,
		reporter: env.Reporter(),
		lower:    lower,
		sigs:     ctx.Registry.Snapshot(),
		t:        t,
	}

	env.Enter(symbols.ScopeFunction, decl.Span)
	defer env.Leave()

	if decl.HasSelf {
		selfName := ctx.Table.Strings.Intern("self")
		t.SelfSym = env.Declare(selfName, decl.SelfSpan, symbols.SymbolParam, 0)
		ctx.Table.Symbols.Get(t.SelfSym).Type = selfType
	}
	for _, p := range decl.Params {
		pSym := env.Declare(p.Name, p.Span, symbols.SymbolParam, 0)
		ctx.Table.Symbols.Get(pSym).Type = c.lower.lower(p.Type)
		t.ParamSyms = append(t.ParamSyms, pSym)
	}
	t.Ret = c.ctx.Types.Builtins().Unit
	if decl.Ret.IsValid() {
		t.Ret = c.lower.lower(decl.Ret)
	}

	if decl.Body.IsValid() {
		got := c.checkBlock(decl.Body, t.Ret != c.ctx.Types.Builtins().Unit)
		if t.Ret != c.ctx.Types.Builtins().Unit {
			block := ctx.Builder.Block(decl.Body)
			span := block.Span
			if block.Tail.IsValid() {
				span = ctx.Builder.Expr(block.Tail).Span
			}
			c.unify(t.Ret, got, span)
		}
	}
	return t
}

func (c *checker) fail() { c.t.Failed = true }

func (c *checker) unknown() types.TypeID { return c.ctx.Types.Builtins().Unknown }

// unify succeeds when want and got are interned-equal or one of the
// admitted widenings applies. It never invents subtyping.
func (c *checker) unify(want, got types.TypeID, span source.Span) bool {
	if c.unifies(want, got) {
		return true
	}
	diag.Error(c.reporter, diag.TypeMismatch, span,
		"expected `"+c.ctx.FormatType(want)+"`, found `"+c.ctx.FormatType(got)+"`").Emit()
	c.fail()
	return false
}

func (c *checker) unifies(want, got types.TypeID) bool {
	b := c.ctx.Types.Builtins()
	if want == got {
		return true
	}
	if want == b.Invalid || got == b.Invalid || want == b.Unknown || got == b.Unknown {
		return true
	}
	wt, wok := c.ctx.Types.Lookup(want)
	gt, gok := c.ctx.Types.Lookup(got)
	if !wok || !gok {
		return false
	}
	// Generic parameters unify with anything; the call-site pass
	// records the substitution.
	if wt.Kind == types.KindGeneric || gt.Kind == types.KindGeneric {
		return true
	}
	// option<T> may be constructed from a bare T.
	if wt.Kind == types.KindOption && c.unifies(wt.Elem, got) {
		return true
	}
	return false
}

func (c *checker) checkBlock(id ast.BlockID, valueNeeded bool) types.TypeID {
	block := c.ctx.Builder.Block(id)
	if block == nil {
		return c.unknown()
	}
	c.env.Enter(symbols.ScopeBlock, block.Span)
	defer c.env.Leave()
	for _, stmtID := range block.Stmts {
		c.checkStmt(stmtID)
	}
	if block.Tail.IsValid() {
		return c.checkExpr(block.Tail, valueNeeded)
	}
	return c.ctx.Types.Builtins().Unit
}

func (c *checker) checkStmt(id ast.StmtID) {
	stmt := c.ctx.Builder.Stmt(id)
	if stmt == nil {
		return
	}
	switch stmt.Kind {
	case ast.StmtLet:
		var declared types.TypeID
		if stmt.Type.IsValid() {
			declared = c.lower.lower(stmt.Type)
		}
		got := c.unknown()
		if stmt.Init.IsValid() {
			got = c.checkExpr(stmt.Init, true)
		}
		bindType := got
		if declared != types.NoTypeID {
			if stmt.Init.IsValid() {
				c.unify(declared, got, c.ctx.Builder.Expr(stmt.Init).Span)
			}
			bindType = declared
		}
		flags := symbols.SymbolFlags(0)
		if stmt.Mut {
			flags |= symbols.SymbolFlagMutable
		}
		sym := c.env.Declare(stmt.Name, stmt.Span, symbols.SymbolLocal, flags)
		c.ctx.Table.Symbols.Get(sym).Type = bindType
		c.t.LetSyms[id] = sym

	case ast.StmtAssign:
		target := c.checkExpr(stmt.Target, true)
		value := c.checkExpr(stmt.Init, true)
		if stmt.Op == token.Assign {
			c.unify(target, value, c.ctx.Builder.Expr(stmt.Init).Span)
		} else {
			c.checkArith(stmt.Op, target, value, stmt.Span)
		}

	case ast.StmtExpr:
		c.checkExpr(stmt.Init, false)

	case ast.StmtReturn:
		got := c.ctx.Types.Builtins().Unit
		span := stmt.Span
		if stmt.Init.IsValid() {
			got = c.checkExpr(stmt.Init, true)
			span = c.ctx.Builder.Expr(stmt.Init).Span
		}
		c.unify(c.t.Ret, got, span)

	case ast.StmtWhile:
		cond := c.checkExpr(stmt.Target, true)
		if !c.unifies(c.ctx.Types.Builtins().Bool, cond) {
			diag.Error(c.reporter, diag.TypeConditionNotBool, c.ctx.Builder.Expr(stmt.Target).Span,
				"loop condition must be `bool`, found `"+c.ctx.FormatType(cond)+"`").Emit()
			c.fail()
		}
		c.checkBlock(stmt.Body, false)

	case ast.StmtFor:
		iter := c.checkExpr(stmt.Target, true)
		elem := c.elementType(iter, c.ctx.Builder.Expr(stmt.Target).Span)
		c.env.Enter(symbols.ScopeBlock, stmt.Span)
		sym := c.env.Declare(stmt.Name, stmt.Span, symbols.SymbolLocal, 0)
		c.ctx.Table.Symbols.Get(sym).Type = elem
		c.t.ForSyms[id] = sym
		c.checkBlock(stmt.Body, false)
		c.env.Leave()

	case ast.StmtLoop:
		c.checkBlock(stmt.Body, false)

	case ast.StmtBreak, ast.StmtContinue:
		// Nothing to type.
	}
}

// elementType returns what a for loop binds per iteration.
func (c *checker) elementType(iter types.TypeID, span source.Span) types.TypeID {
	b := c.ctx.Types.Builtins()
	t, ok := c.ctx.Types.Lookup(iter)
	if !ok {
		return c.unknown()
	}
	switch t.Kind {
	case types.KindSeq:
		return t.Elem
	case types.KindMap:
		return c.ctx.Types.Intern(types.MakeTuple([]types.TypeID{t.Elem, t.Elem2}))
	case types.KindString:
		return b.Char
	case types.KindRef:
		return c.elementType(t.Elem, span)
	case types.KindUnknown, types.KindInvalid, types.KindGeneric:
		return c.unknown()
	default:
		diag.Error(c.reporter, diag.TypeNotIterable, span,
			"`"+c.ctx.FormatType(iter)+"` is not iterable").Emit()
		c.fail()
		return c.unknown()
	}
}

func (c *checker) checkExpr(id ast.ExprID, valueNeeded bool) types.TypeID {
	got := c.exprType(id, valueNeeded)
	c.t.ExprTypes[id] = got
	return got
}

func (c *checker) exprType(id ast.ExprID, valueNeeded bool) types.TypeID {
	b := c.ctx.Types.Builtins()
	expr := c.ctx.Builder.Expr(id)
	if expr == nil {
		return c.unknown()
	}
	switch expr.Kind {
	case ast.ExprLit:
		return c.litType(expr.Lit)

	case ast.ExprIdent:
		sym, ok := c.env.Lookup(expr.Name)
		if !ok {
			diag.Error(c.reporter, diag.ResUnresolvedName, expr.Span,
				"cannot find `"+c.ctx.Table.Strings.MustLookup(expr.Name)+"` in this scope").Emit()
			c.fail()
			c.t.ExprSyms[id] = c.ctx.Table.Error
			return c.unknown()
		}
		c.t.ExprSyms[id] = sym
		return c.symbolType(sym)

	case ast.ExprSelf:
		if !c.t.SelfSym.IsValid() {
			diag.Error(c.reporter, diag.ResSelfOutsideMethod, expr.Span,
				"`self` is only allowed inside methods").Emit()
			c.fail()
			return c.unknown()
		}
		c.t.ExprSyms[id] = c.t.SelfSym
		return c.t.SelfType

	case ast.ExprPath:
		sym := c.env.ResolvePath(expr.Path, expr.Span)
		c.t.ExprSyms[id] = sym
		if symData := c.ctx.Table.Symbols.Get(sym); symData.IsError() {
			c.fail()
			return c.unknown()
		}
		return c.symbolType(sym)

	case ast.ExprCall:
		return c.checkCall(id, expr)

	case ast.ExprMethodCall:
		return c.checkMethodCall(id, expr)

	case ast.ExprField:
		return c.checkField(id, expr)

	case ast.ExprIndex:
		base := c.checkExpr(expr.X, true)
		idx := c.checkExpr(expr.Y, true)
		t, ok := c.ctx.Types.Lookup(c.pierceRefs(base))
		if !ok {
			return c.unknown()
		}
		switch t.Kind {
		case types.KindSeq:
			c.unify(b.Int, idx, c.ctx.Builder.Expr(expr.Y).Span)
			return t.Elem
		case types.KindMap:
			c.unify(t.Elem, idx, c.ctx.Builder.Expr(expr.Y).Span)
			return c.ctx.Types.Intern(types.MakeOption(t.Elem2))
		case types.KindUnknown, types.KindInvalid:
			return c.unknown()
		default:
			diag.Error(c.reporter, diag.TypeBadOperands, expr.Span,
				"`"+c.ctx.FormatType(base)+"` cannot be indexed").Emit()
			c.fail()
			return c.unknown()
		}

	case ast.ExprBinary:
		return c.checkBinary(expr)

	case ast.ExprUnary:
		operand := c.checkExpr(expr.X, true)
		switch expr.Op {
		case token.Not:
			c.unify(b.Bool, operand, expr.Span)
			return b.Bool
		case token.Minus:
			if !c.isNumeric(operand) {
				diag.Error(c.reporter, diag.TypeBadOperands, expr.Span,
					"cannot negate `"+c.ctx.FormatType(operand)+"`").Emit()
				c.fail()
				return c.unknown()
			}
			return operand
		case token.Star:
			t, ok := c.ctx.Types.Lookup(operand)
			if ok && t.Kind == types.KindRef {
				return t.Elem
			}
			if ok && (t.Kind == types.KindUnknown || t.Kind == types.KindInvalid) {
				return c.unknown()
			}
			diag.Error(c.reporter, diag.TypeBadOperands, expr.Span,
				"cannot dereference `"+c.ctx.FormatType(operand)+"`").Emit()
			c.fail()
			return c.unknown()
		}
		return c.unknown()

	case ast.ExprRef:
		inner := c.checkExpr(expr.X, true)
		if !c.isPlaceExpr(expr.X) {
			diag.Error(c.reporter, diag.OwnBorrowOfNonPlace, expr.Span,
				"cannot borrow a temporary value").Emit()
			c.fail()
		}
		return c.ctx.Types.Intern(types.MakeRef(inner, expr.Mut))

	case ast.ExprStructLit:
		return c.checkStructLit(id, expr)

	case ast.ExprTuple:
		elems := make([]types.TypeID, len(expr.Args))
		for i, arg := range expr.Args {
			elems[i] = c.checkExpr(arg, true)
		}
		return c.ctx.Types.Intern(types.MakeTuple(elems))

	case ast.ExprSeqLit:
		elem := c.unknown()
		for i, arg := range expr.Args {
			got := c.checkExpr(arg, true)
			if i == 0 {
				elem = got
			} else {
				c.unify(elem, got, c.ctx.Builder.Expr(arg).Span)
			}
		}
		return c.ctx.Types.Intern(types.MakeSeq(elem))

	case ast.ExprMapLit:
		key, val := c.unknown(), c.unknown()
		for i := 0; i+1 < len(expr.Args); i += 2 {
			k := c.checkExpr(expr.Args[i], true)
			v := c.checkExpr(expr.Args[i+1], true)
			if i == 0 {
				key, val = k, v
			} else {
				c.unify(key, k, c.ctx.Builder.Expr(expr.Args[i]).Span)
				c.unify(val, v, c.ctx.Builder.Expr(expr.Args[i+1]).Span)
			}
		}
		return c.ctx.Types.Intern(types.MakeMap(key, val))

	case ast.ExprIf:
		cond := c.checkExpr(expr.X, true)
		if !c.unifies(b.Bool, cond) {
			diag.Error(c.reporter, diag.TypeConditionNotBool, c.ctx.Builder.Expr(expr.X).Span,
				"condition must be `bool`, found `"+c.ctx.FormatType(cond)+"`").Emit()
			c.fail()
		}
		thenType := c.checkBlock(expr.Block, valueNeeded)
		if !expr.Else.IsValid() {
			return b.Unit
		}
		elseType := c.checkExpr(expr.Else, valueNeeded)
		if !valueNeeded {
			return b.Unit
		}
		if !c.unifies(thenType, elseType) && !c.unifies(elseType, thenType) {
			diag.Error(c.reporter, diag.TypeInconsistentIfArms, expr.Span,
				"if branches disagree: `"+c.ctx.FormatType(thenType)+"` vs `"+
					c.ctx.FormatType(elseType)+"`").Emit()
			c.fail()
			return c.unknown()
		}
		return thenType

	case ast.ExprMatch:
		return c.checkMatch(expr, valueNeeded)

	case ast.ExprBlock:
		return c.checkBlock(expr.Block, valueNeeded)
	}
	return c.unknown()
}

func (c *checker) litType(lit ast.Lit) types.TypeID {
	b := c.ctx.Types.Builtins()
	switch lit.Kind {
	case ast.LitInt:
		return b.Int
	case ast.LitFloat:
		return b.Float
	case ast.LitString:
		return b.String
	case ast.LitChar:
		return b.Char
	case ast.LitBool:
		return b.Bool
	default:
		return b.Unit
	}
}

// symbolType returns the type a symbol contributes in expression
// position.
func (c *checker) symbolType(sym symbols.SymbolID) types.TypeID {
	symData := c.ctx.Table.Symbols.Get(sym)
	if symData == nil || symData.IsError() {
		return c.unknown()
	}
	switch symData.Kind {
	case symbols.SymbolLocal, symbols.SymbolParam, symbols.SymbolConst, symbols.SymbolField:
		if symData.Type != types.NoTypeID {
			return symData.Type
		}
		return c.unknown()
	case symbols.SymbolEnumVariant:
		// A bare variant with no payload is a value of the enum.
		parent := c.ctx.Table.Symbols.Get(symData.Parent)
		if parent != nil {
			return c.ctx.Types.Intern(types.MakeNominal(types.SymbolRef(symData.Parent), nil))
		}
		return c.unknown()
	case symbols.SymbolFunction, symbols.SymbolMethod:
		if sig := c.sigs[sym]; sig != nil {
			params := make([]types.TypeID, len(sig.Params))
			for i, p := range sig.Params {
				params[i] = p.Type
			}
			return c.ctx.Types.Intern(types.MakeFn(params, sig.Ret))
		}
		return c.unknown()
	default:
		return c.unknown()
	}
}

func (c *checker) isNumeric(id types.TypeID) bool {
	b := c.ctx.Types.Builtins()
	return id == b.Int || id == b.Float || id == b.Unknown || id == b.Invalid
}

func (c *checker) checkArith(op token.Kind, left, right types.TypeID, span source.Span) types.TypeID {
	b := c.ctx.Types.Builtins()
	base := op
	switch op {
	case token.PlusAssign:
		base = token.Plus
	case token.MinusAssign:
		base = token.Minus
	case token.StarAssign:
		base = token.Star
	case token.SlashAssign:
		base = token.Slash
	case token.PercentAssign:
		base = token.Percent
	}
	if base == token.Plus && c.unifies(b.String, left) {
		// String concatenation.
		c.unify(b.String, right, span)
		return b.String
	}
	if !c.isNumeric(left) || !c.isNumeric(right) {
		diag.Error(c.reporter, diag.TypeBadOperands, span,
			"operator `"+base.String()+"` needs numeric operands, found `"+
				c.ctx.FormatType(left)+"` and `"+c.ctx.FormatType(right)+"`").Emit()
		c.fail()
		return c.unknown()
	}
	c.unify(left, right, span)
	return left
}

func (c *checker) checkBinary(expr *ast.Expr) types.TypeID {
	b := c.ctx.Types.Builtins()
	left := c.checkExpr(expr.X, true)
	right := c.checkExpr(expr.Y, true)
	switch expr.Op {
	case token.AndAnd, token.OrOr:
		c.unify(b.Bool, left, c.ctx.Builder.Expr(expr.X).Span)
		c.unify(b.Bool, right, c.ctx.Builder.Expr(expr.Y).Span)
		return b.Bool
	case token.EqEq, token.NotEq, token.Lt, token.Le, token.Gt, token.Ge:
		c.unify(left, right, expr.Span)
		return b.Bool
	default:
		return c.checkArith(expr.Op, left, right, expr.Span)
	}
}

// pierceRefs strips reference layers for member access.
func (c *checker) pierceRefs(id types.TypeID) types.TypeID {
	for {
		t, ok := c.ctx.Types.Lookup(id)
		if !ok || t.Kind != types.KindRef {
			return id
		}
		id = t.Elem
	}
}

func (c *checker) checkField(id ast.ExprID, expr *ast.Expr) types.TypeID {
	base := c.checkExpr(expr.X, true)
	pierced := c.pierceRefs(base)
	t, ok := c.ctx.Types.Lookup(pierced)
	if !ok || t.Kind == types.KindUnknown || t.Kind == types.KindInvalid {
		return c.unknown()
	}
	if t.Kind != types.KindNominal {
		diag.Error(c.reporter, diag.ResUnknownField, expr.Span,
			"`"+c.ctx.FormatType(base)+"` has no fields").Emit()
		c.fail()
		return c.unknown()
	}
	structSym := symbols.SymbolID(t.Sym)
	field := c.ctx.Table.FieldByName(structSym, expr.Name)
	if !field.IsValid() {
		diag.Error(c.reporter, diag.ResUnknownField, expr.Span,
			"no field `"+c.ctx.Table.Strings.MustLookup(expr.Name)+"` on `"+
				c.ctx.FormatType(pierced)+"`").Emit()
		c.fail()
		return c.unknown()
	}
	c.t.ExprSyms[id] = field
	return c.fieldType(structSym, field)
}

// fieldType lazily lowers a field's declared type.
func (c *checker) fieldType(structSym, field symbols.SymbolID) types.TypeID {
	fieldData := c.ctx.Table.Symbols.Get(field)
	if fieldData.Type != types.NoTypeID {
		return fieldData.Type
	}
	fields := c.ctx.nominals.NominalFieldTypes(types.SymbolRef(structSym))
	if int(fieldData.Index) < len(fields) {
		fieldData.Type = fields[fieldData.Index]
		return fieldData.Type
	}
	return c.unknown()
}
