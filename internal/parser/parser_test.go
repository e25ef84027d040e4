package parser

import (
	"testing"

	"gale/internal/ast"
	"gale/internal/diag"
	"gale/internal/source"
	"gale/internal/token"
)

type fixture struct {
	builder  *ast.Builder
	interner *source.Interner
	bag      *diag.Bag
	file     ast.FileID
}

func parse(t *testing.T, src string) *fixture {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("main.ga", []byte(src))
	fx := &fixture{
		builder:  ast.NewBuilder(),
		interner: source.NewInterner(),
		bag:      diag.NewBag(32),
	}
	fx.file = ParseFile(fs.Get(id), "main", fx.builder, fx.interner, diag.BagReporter{Bag: fx.bag})
	return fx
}

func (fx *fixture) mustClean(t *testing.T) {
	t.Helper()
	if fx.bag.HasErrors() {
		for _, d := range fx.bag.Items() {
			t.Logf("%s: %s", d.Code, d.Message)
		}
		t.Fatal("unexpected parse diagnostics")
	}
}

func (fx *fixture) name(id source.StringID) string {
	s, _ := fx.interner.Lookup(id)
	return s
}

func TestParseFunction(t *testing.T) {
	fx := parse(t, `
fn count(items: [int]) -> int {
    items.len()
}
`)
	fx.mustClean(t)
	file := fx.builder.File(fx.file)
	if len(file.Items) != 1 {
		t.Fatalf("items = %d", len(file.Items))
	}
	item := fx.builder.Item(file.Items[0])
	if item.Kind != ast.ItemFn {
		t.Fatalf("kind = %v", item.Kind)
	}
	fn := fx.builder.Fn(ast.FnID(item.Payload))
	if fx.name(fn.Name) != "count" || len(fn.Params) != 1 {
		t.Fatalf("fn %q params=%d", fx.name(fn.Name), len(fn.Params))
	}
	if !fn.Ret.IsValid() {
		t.Fatal("missing return type")
	}
	block := fx.builder.Block(fn.Body)
	if len(block.Stmts) != 0 || !block.Tail.IsValid() {
		t.Fatalf("body stmts=%d tail=%v", len(block.Stmts), block.Tail)
	}
	tail := fx.builder.Expr(block.Tail)
	if tail.Kind != ast.ExprMethodCall || fx.name(tail.Name) != "len" {
		t.Fatalf("tail kind=%v name=%q", tail.Kind, fx.name(tail.Name))
	}
}

func TestParseStructWithAttr(t *testing.T) {
	fx := parse(t, `
@copyable
struct Point {
    x: int,
    y: int,
}
`)
	fx.mustClean(t)
	item := fx.builder.Item(fx.builder.File(fx.file).Items[0])
	decl := fx.builder.StructAt(item.Payload)
	if fx.name(decl.Name) != "Point" || len(decl.Fields) != 2 {
		t.Fatalf("struct %q fields=%d", fx.name(decl.Name), len(decl.Fields))
	}
	if len(decl.Attrs) != 1 || fx.name(decl.Attrs[0]) != "copyable" {
		t.Fatalf("attrs = %v", decl.Attrs)
	}
}

func TestParseEnumAndMatch(t *testing.T) {
	fx := parse(t, `
enum Shape {
    Circle(float),
    Empty,
}

fn area(s: Shape) -> float {
    match s {
        Shape::Circle(r) => r * r,
        Shape::Empty => 0.0,
    }
}
`)
	fx.mustClean(t)
	file := fx.builder.File(fx.file)
	if len(file.Items) != 2 {
		t.Fatalf("items = %d", len(file.Items))
	}
	fn := fx.builder.Fn(ast.FnID(fx.builder.Item(file.Items[1]).Payload))
	tail := fx.builder.Expr(fx.builder.Block(fn.Body).Tail)
	if tail.Kind != ast.ExprMatch || len(tail.Arms) != 2 {
		t.Fatalf("match arms = %d", len(tail.Arms))
	}
	if tail.Arms[0].Pat.Kind != ast.PatVariant || len(tail.Arms[0].Pat.Binders) != 1 {
		t.Fatalf("first arm pattern = %+v", tail.Arms[0].Pat)
	}
}

func TestParseImplWithSelf(t *testing.T) {
	fx := parse(t, `
struct User { name: string }

impl User {
    fn name(self) -> string {
        self.name
    }
}
`)
	fx.mustClean(t)
	file := fx.builder.File(fx.file)
	impl := fx.builder.ImplAt(fx.builder.Item(file.Items[1]).Payload)
	if len(impl.Methods) != 1 {
		t.Fatalf("methods = %d", len(impl.Methods))
	}
	m := fx.builder.Fn(impl.Methods[0])
	if !m.HasSelf {
		t.Fatal("method must have self")
	}
}

func TestParseLetAndFor(t *testing.T) {
	fx := parse(t, `
fn sum(values: [int]) -> int {
    let total = 0
    for v in values {
        total += v
    }
    total
}
`)
	fx.mustClean(t)
	fn := fx.builder.Fn(1)
	block := fx.builder.Block(fn.Body)
	if len(block.Stmts) != 2 {
		t.Fatalf("stmts = %d", len(block.Stmts))
	}
	let := fx.builder.Stmt(block.Stmts[0])
	if let.Kind != ast.StmtLet || let.Mut {
		t.Fatalf("let = %+v", let)
	}
	loop := fx.builder.Stmt(block.Stmts[1])
	if loop.Kind != ast.StmtFor || fx.name(loop.Name) != "v" {
		t.Fatalf("for = %+v", loop)
	}
	inner := fx.builder.Block(loop.Body)
	assign := fx.builder.Stmt(inner.Stmts[0])
	if assign.Kind != ast.StmtAssign || assign.Op != token.PlusAssign {
		t.Fatalf("assign = %+v", assign)
	}
}

func TestParseStructLiteralAndHeaderSuppression(t *testing.T) {
	fx := parse(t, `
fn f(p: Point) -> Point {
    if p.x > 0 {
        Point { x: p.x, y: 0 }
    } else {
        p
    }
}
`)
	fx.mustClean(t)
	fn := fx.builder.Fn(1)
	tail := fx.builder.Expr(fx.builder.Block(fn.Body).Tail)
	if tail.Kind != ast.ExprIf {
		t.Fatalf("tail = %v", tail.Kind)
	}
	thenBlock := fx.builder.Block(tail.Block)
	lit := fx.builder.Expr(thenBlock.Tail)
	if lit.Kind != ast.ExprStructLit || len(lit.Names) != 2 {
		t.Fatalf("struct literal = %+v", lit)
	}
}

func TestParseUseWithAlias(t *testing.T) {
	fx := parse(t, "use geometry::shapes as sh\nfn main() { }")
	fx.mustClean(t)
	use := fx.builder.UseAt(fx.builder.Item(fx.builder.File(fx.file).Items[0]).Payload)
	if len(use.Segments) != 2 || fx.name(use.Alias) != "sh" {
		t.Fatalf("use = %+v", use)
	}
}

func TestParseErrorRecovers(t *testing.T) {
	fx := parse(t, `
struct 42 { }
fn ok() { }
`)
	if !fx.bag.HasErrors() {
		t.Fatal("expected diagnostics")
	}
	// The next item must still parse.
	file := fx.builder.File(fx.file)
	found := false
	for _, id := range file.Items {
		it := fx.builder.Item(id)
		if it.Kind == ast.ItemFn && fx.name(it.Name) == "ok" {
			found = true
		}
	}
	if !found {
		t.Fatal("parser did not recover to the next item")
	}
}
