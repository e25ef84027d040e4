package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"gale/internal/ast"
	"gale/internal/source"
)

// astPrinter dumps a parsed file as an indented tree.
type astPrinter struct {
	w       io.Writer
	builder *ast.Builder
	strings *source.Interner
	indent  int
	err     error
}

// Tree writes the item tree of one parsed file.
func Tree(w io.Writer, builder *ast.Builder, strings *source.Interner, fileID ast.FileID) error {
	p := &astPrinter{w: w, builder: builder, strings: strings}
	file := builder.File(fileID)
	if file == nil {
		return nil
	}
	for _, itemID := range file.Items {
		p.item(itemID)
	}
	return p.err
}

func (p *astPrinter) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, "%s%s\n", strings.Repeat("  ", p.indent), fmt.Sprintf(format, args...))
}

func (p *astPrinter) name(id source.StringID) string {
	return p.strings.MustLookup(id)
}

func (p *astPrinter) item(id ast.ItemID) {
	item := p.builder.Item(id)
	switch item.Kind {
	case ast.ItemFn:
		p.fn(ast.FnID(item.Payload))
	case ast.ItemStruct:
		decl := p.builder.StructAt(item.Payload)
		p.printf("struct %s (%d fields)", p.name(decl.Name), len(decl.Fields))
	case ast.ItemEnum:
		decl := p.builder.EnumAt(item.Payload)
		p.printf("enum %s (%d variants)", p.name(decl.Name), len(decl.Variants))
	case ast.ItemTrait:
		decl := p.builder.TraitAt(item.Payload)
		p.printf("trait %s (%d methods)", p.name(decl.Name), len(decl.Methods))
	case ast.ItemImpl:
		decl := p.builder.ImplAt(item.Payload)
		p.printf("impl (%d methods)", len(decl.Methods))
		p.indent++
		for _, m := range decl.Methods {
			p.fn(m)
		}
		p.indent--
	case ast.ItemUse:
		decl := p.builder.UseAt(item.Payload)
		segs := make([]string, len(decl.Segments))
		for i, s := range decl.Segments {
			segs[i] = p.name(s)
		}
		p.printf("use %s", strings.Join(segs, "::"))
	case ast.ItemConst:
		decl := p.builder.ConstAt(item.Payload)
		p.printf("const %s", p.name(decl.Name))
	}
}

func (p *astPrinter) fn(id ast.FnID) {
	decl := p.builder.Fn(id)
	params := make([]string, 0, len(decl.Params)+1)
	if decl.HasSelf {
		params = append(params, "self")
	}
	for _, prm := range decl.Params {
		params = append(params, p.name(prm.Name))
	}
	p.printf("fn %s(%s)", p.name(decl.Name), strings.Join(params, ", "))
	if decl.Body.IsValid() {
		p.indent++
		p.block(decl.Body)
		p.indent--
	}
}

func (p *astPrinter) block(id ast.BlockID) {
	blk := p.builder.Block(id)
	if blk == nil {
		return
	}
	for _, s := range blk.Stmts {
		p.stmt(s)
	}
	if blk.Tail.IsValid() {
		p.printf("tail")
		p.indent++
		p.expr(blk.Tail)
		p.indent--
	}
}

func (p *astPrinter) stmt(id ast.StmtID) {
	stmt := p.builder.Stmt(id)
	switch stmt.Kind {
	case ast.StmtLet:
		kw := "let"
		if stmt.Mut {
			kw = "let mut"
		}
		p.printf("%s %s", kw, p.name(stmt.Name))
		if stmt.Init.IsValid() {
			p.indent++
			p.expr(stmt.Init)
			p.indent--
		}
	case ast.StmtAssign:
		p.printf("assign %s", stmt.Op.String())
		p.indent++
		p.expr(stmt.Target)
		p.expr(stmt.Init)
		p.indent--
	case ast.StmtExpr:
		p.expr(stmt.Init)
	case ast.StmtReturn:
		p.printf("return")
		if stmt.Init.IsValid() {
			p.indent++
			p.expr(stmt.Init)
			p.indent--
		}
	case ast.StmtWhile:
		p.printf("while")
		p.indent++
		p.expr(stmt.Target)
		p.block(stmt.Body)
		p.indent--
	case ast.StmtFor:
		p.printf("for %s in", p.name(stmt.Name))
		p.indent++
		p.expr(stmt.Target)
		p.block(stmt.Body)
		p.indent--
	case ast.StmtLoop:
		p.printf("loop")
		p.indent++
		p.block(stmt.Body)
		p.indent--
	case ast.StmtBreak:
		p.printf("break")
	case ast.StmtContinue:
		p.printf("continue")
	}
}

func (p *astPrinter) expr(id ast.ExprID) {
	expr := p.builder.Expr(id)
	if expr == nil {
		return
	}
	switch expr.Kind {
	case ast.ExprIdent:
		p.printf("ident %s", p.name(expr.Name))
	case ast.ExprSelf:
		p.printf("self")
	case ast.ExprPath:
		segs := make([]string, len(expr.Path))
		for i, s := range expr.Path {
			segs[i] = p.name(s)
		}
		p.printf("path %s", strings.Join(segs, "::"))
	case ast.ExprLit:
		p.printf("lit %s", p.litText(expr.Lit))
	case ast.ExprCall:
		p.printf("call")
		p.indent++
		p.expr(expr.X)
		for _, a := range expr.Args {
			p.expr(a)
		}
		p.indent--
	case ast.ExprMethodCall:
		p.printf("method %s", p.name(expr.Name))
		p.indent++
		p.expr(expr.X)
		for _, a := range expr.Args {
			p.expr(a)
		}
		p.indent--
	case ast.ExprField:
		p.printf("field %s", p.name(expr.Name))
		p.indent++
		p.expr(expr.X)
		p.indent--
	case ast.ExprIndex:
		p.printf("index")
		p.indent++
		p.expr(expr.X)
		p.expr(expr.Y)
		p.indent--
	case ast.ExprBinary:
		p.printf("binary %s", expr.Op.String())
		p.indent++
		p.expr(expr.X)
		p.expr(expr.Y)
		p.indent--
	case ast.ExprUnary:
		p.printf("unary %s", expr.Op.String())
		p.indent++
		p.expr(expr.X)
		p.indent--
	case ast.ExprRef:
		if expr.Mut {
			p.printf("ref mut")
		} else {
			p.printf("ref")
		}
		p.indent++
		p.expr(expr.X)
		p.indent--
	case ast.ExprStructLit:
		segs := make([]string, len(expr.Path))
		for i, s := range expr.Path {
			segs[i] = p.name(s)
		}
		p.printf("struct-lit %s", strings.Join(segs, "::"))
		p.indent++
		for i, a := range expr.Args {
			p.printf("%s:", p.name(expr.Names[i]))
			p.indent++
			p.expr(a)
			p.indent--
		}
		p.indent--
	case ast.ExprTuple:
		p.printf("tuple")
		p.indent++
		for _, a := range expr.Args {
			p.expr(a)
		}
		p.indent--
	case ast.ExprSeqLit:
		p.printf("seq")
		p.indent++
		for _, a := range expr.Args {
			p.expr(a)
		}
		p.indent--
	case ast.ExprMapLit:
		p.printf("map")
		p.indent++
		for _, a := range expr.Args {
			p.expr(a)
		}
		p.indent--
	case ast.ExprIf:
		p.printf("if")
		p.indent++
		p.expr(expr.X)
		p.block(expr.Block)
		if expr.Else.IsValid() {
			p.expr(expr.Else)
		}
		p.indent--
	case ast.ExprMatch:
		p.printf("match")
		p.indent++
		p.expr(expr.X)
		for i := range expr.Arms {
			p.printf("arm")
			p.indent++
			p.expr(expr.Arms[i].Body)
			p.indent--
		}
		p.indent--
	case ast.ExprBlock:
		p.printf("block")
		p.indent++
		p.block(expr.Block)
		p.indent--
	}
}

func (p *astPrinter) litText(lit ast.Lit) string {
	switch lit.Kind {
	case ast.LitBool:
		if lit.Bool {
			return "true"
		}
		return "false"
	case ast.LitUnit:
		return "()"
	case ast.LitString:
		return fmt.Sprintf("%q", p.name(lit.Text))
	default:
		return p.name(lit.Text)
	}
}
