package lower

import (
	"strconv"
	"strings"

	"gale/internal/ast"
	"gale/internal/sema"
	"gale/internal/source"
	"gale/internal/symbols"
	"gale/internal/types"
)

// Lowerer drives directive production for one analyzed crate.
type Lowerer struct {
	ctx  *sema.Context
	res  *sema.Result
	byFn map[ast.FnID]*sema.FnResult
}

func New(ctx *sema.Context, res *sema.Result) *Lowerer {
	byFn := make(map[ast.FnID]*sema.FnResult, len(res.Fns))
	for _, f := range res.Fns {
		byFn[f.Typing.Fn] = f
	}
	return &Lowerer{ctx: ctx, res: res, byFn: byFn}
}

// Module lowers one parsed file into its directive form. Imports are
// the module's resolved dependency paths in canonical order.
func (l *Lowerer) Module(path string, fileID ast.FileID, imports []string) *Module {
	file := l.ctx.Builder.File(fileID)
	out := &Module{Path: path, Imports: imports}
	if file == nil {
		return out
	}
	for _, itemID := range file.Items {
		item := l.ctx.Builder.Item(itemID)
		switch item.Kind {
		case ast.ItemFn:
			fn := l.fn(ast.FnID(item.Payload))
			out.Items = append(out.Items, Item{Kind: ItemFn, Name: fn.Name, Fn: fn})
		case ast.ItemStruct:
			s := l.structItem(l.ctx.Builder.StructAt(item.Payload))
			out.Items = append(out.Items, Item{Kind: ItemStruct, Name: s.Name, Struct: s})
		case ast.ItemEnum:
			e := l.enumItem(l.ctx.Builder.EnumAt(item.Payload))
			out.Items = append(out.Items, Item{Kind: ItemEnum, Name: e.Name, Enum: e})
		case ast.ItemTrait:
			tr := l.traitItem(l.ctx.Builder.TraitAt(item.Payload))
			out.Items = append(out.Items, Item{Kind: ItemTrait, Name: tr.Name, Trait: tr})
		case ast.ItemImpl:
			imp := l.implItem(l.ctx.Builder.ImplAt(item.Payload))
			out.Items = append(out.Items, Item{Kind: ItemImpl, Name: imp.Target, Impl: imp})
		case ast.ItemConst:
			c := l.constItem(l.ctx.Builder.ConstAt(item.Payload))
			out.Items = append(out.Items, Item{Kind: ItemConst, Name: c.Name, Const: c})
		}
	}
	return out
}

func (l *Lowerer) name(id source.StringID) string {
	return l.ctx.Table.Strings.MustLookup(id)
}

func (l *Lowerer) names(ids []source.StringID) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = l.name(id)
	}
	return out
}

func (l *Lowerer) fn(fnID ast.FnID) *Fn {
	decl := l.ctx.Builder.Fn(fnID)
	out := &Fn{
		Name:       l.name(decl.Name),
		TypeParams: l.names(decl.TypeParams),
		HasSelf:    decl.HasSelf,
	}
	fr := l.byFn[fnID]
	if fr != nil && fr.Sig != nil {
		sig := fr.Sig
		out.SelfMode = Mode(sig.SelfMode)
		for _, p := range sig.Params {
			out.Params = append(out.Params, Param{
				Name: p.Name,
				Type: l.RenderType(p.Type),
				Mode: Mode(p.Mode),
				Mut:  p.EmitMut,
			})
		}
		if sig.Ret != l.ctx.Types.Builtins().Unit {
			out.Ret = l.RenderType(sig.Ret)
		}
	} else {
		// No analysis (error-symbol case): fall back to the written
		// signature with conservative owned modes.
		for _, p := range decl.Params {
			out.Params = append(out.Params, Param{
				Name: l.name(p.Name),
				Type: l.renderSyn(p.Type),
				Mode: ModeOwned,
			})
		}
		if decl.Ret.IsValid() {
			out.Ret = l.renderSyn(decl.Ret)
		}
	}
	if fr != nil && fr.Plan != nil && decl.Body.IsValid() {
		b := &bodyLowerer{l: l, fr: fr}
		out.Body = b.block(decl.Body, out.Ret != "")
	}
	return out
}

func (l *Lowerer) structItem(decl *ast.StructDecl) *Struct {
	out := &Struct{
		Name:       l.name(decl.Name),
		TypeParams: l.names(decl.TypeParams),
		Copyable:   hasAttr(l, decl.Attrs, "copyable"),
	}
	for _, f := range decl.Fields {
		out.Fields = append(out.Fields, Field{Name: l.name(f.Name), Type: l.renderSyn(f.Type)})
	}
	return out
}

func (l *Lowerer) enumItem(decl *ast.EnumDecl) *Enum {
	out := &Enum{
		Name:       l.name(decl.Name),
		TypeParams: l.names(decl.TypeParams),
		Copyable:   hasAttr(l, decl.Attrs, "copyable"),
	}
	for _, v := range decl.Variants {
		variant := Variant{Name: l.name(v.Name)}
		for _, p := range v.Payload {
			variant.Payload = append(variant.Payload, l.renderSyn(p))
		}
		out.Variants = append(out.Variants, variant)
	}
	return out
}

func (l *Lowerer) traitItem(decl *ast.TraitDecl) *Trait {
	out := &Trait{Name: l.name(decl.Name)}
	for _, m := range decl.Methods {
		tf := TraitFn{Name: l.name(m.Name), HasSelf: m.HasSelf, SelfMode: ModeShared}
		if sym := l.traitFnSymbol(decl, m.Name); sym.IsValid() {
			if sig := l.ctx.Registry.Get(sym); sig != nil {
				tf.SelfMode = Mode(sig.SelfMode)
			}
		}
		for _, p := range m.Params {
			tf.Params = append(tf.Params, Param{
				Name: l.name(p.Name),
				Type: l.renderSyn(p.Type),
				Mode: ModeOwned,
			})
		}
		if m.Ret.IsValid() {
			tf.Ret = l.renderSyn(m.Ret)
		}
		out.Methods = append(out.Methods, tf)
	}
	return out
}

func (l *Lowerer) traitFnSymbol(decl *ast.TraitDecl, name source.StringID) symbols.SymbolID {
	for i := uint32(1); i <= uint32(l.ctx.Table.Symbols.Len()); i++ {
		sym := l.ctx.Table.Symbols.Get(symbols.SymbolID(i))
		if sym.Kind == symbols.SymbolTrait && sym.Name == decl.Name {
			if tf := l.ctx.Table.TraitFnByName(symbols.SymbolID(i), name); tf.IsValid() {
				return tf
			}
		}
	}
	return symbols.NoSymbolID
}

func (l *Lowerer) implItem(decl *ast.ImplDecl) *Impl {
	out := &Impl{Target: l.renderSyn(decl.Target)}
	if len(decl.TraitPath) > 0 {
		out.Trait = strings.Join(l.names(decl.TraitPath), "::")
	}
	for _, m := range decl.Methods {
		out.Methods = append(out.Methods, *l.fn(m))
	}
	return out
}

func (l *Lowerer) constItem(decl *ast.ConstDecl) *Const {
	out := &Const{Name: l.name(decl.Name), Type: l.renderSyn(decl.Type)}
	if decl.Value.IsValid() {
		b := &bodyLowerer{l: l}
		out.Value = b.expr(decl.Value, true)
	}
	return out
}

func hasAttr(l *Lowerer, attrs []source.StringID, want string) bool {
	for _, a := range attrs {
		if l.name(a) == want {
			return true
		}
	}
	return false
}

// RenderType spells a semantic type in the target language.
func (l *Lowerer) RenderType(id types.TypeID) string {
	t, ok := l.ctx.Types.Lookup(id)
	if !ok {
		return "_"
	}
	switch t.Kind {
	case types.KindUnit:
		return "()"
	case types.KindBool:
		return "bool"
	case types.KindInt:
		return "i64"
	case types.KindFloat:
		return "f64"
	case types.KindChar:
		return "char"
	case types.KindString:
		return "String"
	case types.KindRef:
		if t.Mut {
			return "&mut " + l.RenderType(t.Elem)
		}
		return "&" + l.RenderType(t.Elem)
	case types.KindSeq:
		return "Vec<" + l.RenderType(t.Elem) + ">"
	case types.KindMap:
		return "HashMap<" + l.RenderType(t.Elem) + ", " + l.RenderType(t.Elem2) + ">"
	case types.KindTuple:
		parts := make([]string, len(t.Args))
		for i, a := range t.Args {
			parts[i] = l.RenderType(a)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case types.KindOption:
		return "Option<" + l.RenderType(t.Elem) + ">"
	case types.KindResult:
		return "Result<" + l.RenderType(t.Elem) + ", " + l.RenderType(t.Elem2) + ">"
	case types.KindFn:
		parts := make([]string, len(t.Args))
		for i, a := range t.Args {
			parts[i] = l.RenderType(a)
		}
		out := "impl Fn(" + strings.Join(parts, ", ") + ")"
		if t.Ret != types.NoTypeID {
			out += " -> " + l.RenderType(t.Ret)
		}
		return out
	case types.KindTraitObject:
		parts := make([]string, len(t.Syms))
		for i, s := range t.Syms {
			parts[i] = l.ctx.SymbolName(s)
		}
		return "Box<dyn " + strings.Join(parts, " + ") + ">"
	case types.KindNominal:
		name := l.ctx.SymbolName(t.Sym)
		if len(t.Args) == 0 {
			return name
		}
		parts := make([]string, len(t.Args))
		for i, a := range t.Args {
			parts[i] = l.RenderType(a)
		}
		return name + "<" + strings.Join(parts, ", ") + ">"
	case types.KindGeneric:
		return l.ctx.SymbolName(t.Sym)
	default:
		return "_"
	}
}

// renderSyn spells a written type in the target language without
// consulting analysis; item surfaces with no semantic types (trait
// declarations, impl headers, consts) use it.
func (l *Lowerer) renderSyn(id ast.TypeID) string {
	syn := l.ctx.Builder.TypeSyn(id)
	if syn == nil {
		return "()"
	}
	switch syn.Kind {
	case ast.TypeSynUnit:
		return "()"
	case ast.TypeSynSelf:
		return "Self"
	case ast.TypeSynRef:
		base := "()"
		if len(syn.Args) > 0 {
			base = l.renderSyn(syn.Args[0])
		}
		if syn.Mut {
			return "&mut " + base
		}
		return "&" + base
	case ast.TypeSynSeq:
		return "Vec<" + l.renderSyn(syn.Args[0]) + ">"
	case ast.TypeSynMap:
		return "HashMap<" + l.renderSyn(syn.Args[0]) + ", " + l.renderSyn(syn.Args[1]) + ">"
	case ast.TypeSynTuple:
		parts := make([]string, len(syn.Args))
		for i, a := range syn.Args {
			parts[i] = l.renderSyn(a)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case ast.TypeSynOption:
		return "Option<" + l.renderSyn(syn.Args[0]) + ">"
	case ast.TypeSynFn:
		parts := make([]string, len(syn.Args))
		for i, a := range syn.Args {
			parts[i] = l.renderSyn(a)
		}
		out := "impl Fn(" + strings.Join(parts, ", ") + ")"
		if syn.Ret.IsValid() {
			out += " -> " + l.renderSyn(syn.Ret)
		}
		return out
	case ast.TypeSynTraitObject:
		return "Box<dyn " + strings.Join(l.names(syn.Path), "::") + ">"
	case ast.TypeSynNamed:
		if len(syn.Path) == 1 {
			switch l.name(syn.Path[0]) {
			case "int":
				return "i64"
			case "float":
				return "f64"
			case "bool":
				return "bool"
			case "char":
				return "char"
			case "string":
				return "String"
			}
		}
		name := strings.Join(l.names(syn.Path), "::")
		if len(syn.Args) == 0 {
			return name
		}
		parts := make([]string, len(syn.Args))
		for i, a := range syn.Args {
			parts[i] = l.renderSyn(a)
		}
		return name + "<" + strings.Join(parts, ", ") + ">"
	default:
		return "_"
	}
}

// bodyLowerer lowers one function body, consulting the adjustment
// plan at every argument position.
type bodyLowerer struct {
	l  *Lowerer
	fr *sema.FnResult
}

// exclusiveParamTarget reports whether an assignment target names a
// parameter the signature passes by exclusive borrow.
func (b *bodyLowerer) exclusiveParamTarget(id ast.ExprID) bool {
	if b.fr == nil || b.fr.Typing == nil || b.fr.Sig == nil {
		return false
	}
	expr := b.l.ctx.Builder.Expr(id)
	if expr == nil || expr.Kind != ast.ExprIdent {
		return false
	}
	sym, ok := b.fr.Typing.ExprSyms[id]
	if !ok {
		return false
	}
	for i, p := range b.fr.Typing.ParamSyms {
		if p == sym {
			return i < len(b.fr.Sig.Params) && b.fr.Sig.Params[i].Mode == sema.ModeExclusive
		}
	}
	return false
}

func (b *bodyLowerer) block(id ast.BlockID, valueCtx bool) *Node {
	blk := b.l.ctx.Builder.Block(id)
	node := &Node{Kind: NodeBlock}
	if blk == nil {
		return node
	}
	for _, s := range blk.Stmts {
		node.Kids = append(node.Kids, b.stmt(s))
	}
	if blk.Tail.IsValid() {
		node.Tail = b.expr(blk.Tail, valueCtx)
	}
	return node
}

func (b *bodyLowerer) stmt(id ast.StmtID) *Node {
	stmt := b.l.ctx.Builder.Stmt(id)
	switch stmt.Kind {
	case ast.StmtLet:
		node := &Node{Kind: NodeLet, Text: b.l.name(stmt.Name), Mut: stmt.Mut}
		if stmt.Init.IsValid() {
			node.Kids = append(node.Kids, b.expr(stmt.Init, true))
		}
		return node
	case ast.StmtAssign:
		target := b.expr(stmt.Target, true)
		if b.exclusiveParamTarget(stmt.Target) {
			// Reassignment through a borrowed parameter writes the
			// referent, not the reference.
			target.Adjust = AdjustDeref
		}
		return &Node{
			Kind: NodeAssign,
			Text: stmt.Op.String(),
			Kids: []*Node{target, b.expr(stmt.Init, true)},
		}
	case ast.StmtExpr:
		return &Node{Kind: NodeExprStmt, Kids: []*Node{b.expr(stmt.Init, false)}}
	case ast.StmtReturn:
		node := &Node{Kind: NodeReturn}
		if stmt.Init.IsValid() {
			node.Kids = append(node.Kids, b.expr(stmt.Init, true))
		}
		return node
	case ast.StmtWhile:
		return &Node{
			Kind: NodeWhile,
			Kids: []*Node{b.expr(stmt.Target, true), b.block(stmt.Body, false)},
		}
	case ast.StmtFor:
		iter := b.expr(stmt.Target, true)
		if b.fr != nil && b.fr.Plan != nil {
			if plan, ok := b.fr.Plan.Iter[id]; ok {
				iter.Adjust = Adjust(plan.Adjust)
			}
		}
		return &Node{
			Kind: NodeFor,
			Text: b.l.name(stmt.Name),
			Kids: []*Node{iter, b.block(stmt.Body, false)},
		}
	case ast.StmtLoop:
		return &Node{Kind: NodeLoop, Kids: []*Node{b.block(stmt.Body, false)}}
	case ast.StmtBreak:
		return &Node{Kind: NodeBreak}
	case ast.StmtContinue:
		return &Node{Kind: NodeContinue}
	}
	return &Node{Kind: NodeInvalid}
}

func (b *bodyLowerer) expr(id ast.ExprID, valueCtx bool) *Node {
	expr := b.l.ctx.Builder.Expr(id)
	if expr == nil {
		return &Node{Kind: NodeInvalid}
	}
	switch expr.Kind {
	case ast.ExprIdent:
		return &Node{Kind: NodeName, Text: b.l.name(expr.Name)}
	case ast.ExprSelf:
		return &Node{Kind: NodeSelf, Text: "self"}
	case ast.ExprPath:
		return &Node{Kind: NodePath, Text: strings.Join(b.l.names(expr.Path), "::")}
	case ast.ExprLit:
		return b.lit(expr.Lit)
	case ast.ExprUnary:
		return &Node{Kind: NodeUnary, Text: expr.Op.String(), Kids: []*Node{b.expr(expr.X, true)}}
	case ast.ExprBinary:
		return &Node{
			Kind: NodeBinary,
			Text: expr.Op.String(),
			Kids: []*Node{b.expr(expr.X, true), b.expr(expr.Y, true)},
		}
	case ast.ExprRef:
		return &Node{Kind: NodeRef, Mut: expr.Mut, Kids: []*Node{b.expr(expr.X, true)}}
	case ast.ExprCall:
		return b.call(id, expr)
	case ast.ExprMethodCall:
		return b.methodCall(id, expr)
	case ast.ExprField:
		return &Node{Kind: NodeField, Text: b.l.name(expr.Name), Kids: []*Node{b.expr(expr.X, true)}}
	case ast.ExprIndex:
		return &Node{Kind: NodeIndex, Kids: []*Node{b.expr(expr.X, true), b.expr(expr.Y, true)}}
	case ast.ExprStructLit:
		return b.structLit(id, expr)
	case ast.ExprTuple:
		return &Node{Kind: NodeTuple, Kids: b.exprs(expr.Args)}
	case ast.ExprSeqLit:
		return &Node{Kind: NodeSeqLit, Kids: b.exprs(expr.Args)}
	case ast.ExprMapLit:
		return &Node{Kind: NodeMapLit, Kids: b.exprs(expr.Args)}
	case ast.ExprIf:
		node := &Node{Kind: NodeIf, Ctx: ctxOf(valueCtx)}
		node.Kids = append(node.Kids, b.expr(expr.X, true), b.block(expr.Block, valueCtx))
		if expr.Else.IsValid() {
			node.Kids = append(node.Kids, b.expr(expr.Else, valueCtx))
		}
		return node
	case ast.ExprMatch:
		node := &Node{Kind: NodeMatch, Ctx: ctxOf(valueCtx)}
		node.Kids = append(node.Kids, b.expr(expr.X, true))
		for i := range expr.Arms {
			arm := &expr.Arms[i]
			node.Arms = append(node.Arms, Arm{
				Pat:  b.pattern(&arm.Pat),
				Body: b.expr(arm.Body, valueCtx),
			})
		}
		return node
	case ast.ExprBlock:
		return b.block(expr.Block, valueCtx)
	}
	return &Node{Kind: NodeInvalid}
}

func (b *bodyLowerer) exprs(ids []ast.ExprID) []*Node {
	out := make([]*Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, b.expr(id, true))
	}
	return out
}

// args lowers argument expressions with their planned adjustments.
func (b *bodyLowerer) args(callID ast.ExprID, ids []ast.ExprID) []*Node {
	var plans []sema.ArgPlan
	if b.fr != nil && b.fr.Plan != nil {
		plans = b.fr.Plan.Args[callID]
	}
	out := make([]*Node, 0, len(ids))
	for i, id := range ids {
		node := b.expr(id, true)
		if i < len(plans) {
			if adj := Adjust(plans[i].Adjust); adj != AdjustAsIs {
				node.Adjust = adj
			}
		}
		out = append(out, node)
	}
	return out
}

func (b *bodyLowerer) call(id ast.ExprID, expr *ast.Expr) *Node {
	callee := b.l.ctx.Builder.Expr(expr.X)
	text := ""
	switch callee.Kind {
	case ast.ExprIdent:
		text = b.l.name(callee.Name)
	case ast.ExprPath:
		text = strings.Join(b.l.names(callee.Path), "::")
	}
	node := &Node{Kind: NodeCall, Text: text, Kids: b.args(id, expr.Args)}
	if text == "" {
		// Call through a function-typed expression.
		node.Kids = append([]*Node{b.expr(expr.X, true)}, node.Kids...)
	}
	return node
}

func (b *bodyLowerer) methodCall(id ast.ExprID, expr *ast.Expr) *Node {
	kids := []*Node{b.expr(expr.X, true)}
	kids = append(kids, b.args(id, expr.Args)...)
	return &Node{Kind: NodeMethodCall, Text: b.l.name(expr.Name), Kids: kids}
}

func (b *bodyLowerer) structLit(id ast.ExprID, expr *ast.Expr) *Node {
	node := &Node{
		Kind:  NodeStructLit,
		Text:  strings.Join(b.l.names(expr.Path), "::"),
		Names: b.l.names(expr.Names),
		Kids:  b.args(id, expr.Args),
	}
	return node
}

// lit renders a literal in target spelling. String literals become
// owned strings; the target's literal form is a borrowed slice.
func (b *bodyLowerer) lit(lit ast.Lit) *Node {
	switch lit.Kind {
	case ast.LitInt, ast.LitFloat:
		return &Node{Kind: NodeLit, Text: b.l.name(lit.Text)}
	case ast.LitString:
		return &Node{
			Kind:   NodeLit,
			Text:   strconv.Quote(b.l.name(lit.Text)),
			Adjust: AdjustToOwnedString,
		}
	case ast.LitChar:
		return &Node{Kind: NodeLit, Text: "'" + b.l.name(lit.Text) + "'"}
	case ast.LitBool:
		if lit.Bool {
			return &Node{Kind: NodeLit, Text: "true"}
		}
		return &Node{Kind: NodeLit, Text: "false"}
	case ast.LitUnit:
		return &Node{Kind: NodeLit, Text: "()"}
	}
	return &Node{Kind: NodeInvalid}
}

func (b *bodyLowerer) pattern(pat *ast.Pattern) Pattern {
	out := Pattern{Kind: PatKind(pat.Kind)}
	switch pat.Kind {
	case ast.PatLit:
		out.Text = b.lit(pat.Lit).Text
	case ast.PatBinding:
		out.Text = b.l.name(pat.Name)
	case ast.PatVariant:
		out.Path = b.l.names(pat.Path)
		out.Binders = b.l.names(pat.Binders)
	}
	return out
}

func ctxOf(valueCtx bool) Context {
	if valueCtx {
		return CtxExpression
	}
	return CtxStatement
}
