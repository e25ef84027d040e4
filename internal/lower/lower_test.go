package lower

import (
	"reflect"
	"sort"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"gale/internal/ast"
	"gale/internal/diag"
	"gale/internal/parser"
	"gale/internal/sema"
	"gale/internal/source"
	"gale/internal/symbols"
)

type fixture struct {
	t     *testing.T
	l     *Lowerer
	files map[string]ast.FileID
	bag   *diag.Bag
}

func build(t *testing.T, modules map[string]string) *fixture {
	t.Helper()
	fs := source.NewFileSet()
	interner := source.NewInterner()
	builder := ast.NewBuilder()
	bag := diag.NewBag(64)
	reporter := diag.BagReporter{Bag: bag}
	table := symbols.NewTable(symbols.Hints{}, interner)

	keys := make([]string, 0, len(modules))
	for k := range modules {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	files := make(map[string]ast.FileID, len(modules))
	binders := make(map[string]*symbols.Binder, len(modules))
	for _, key := range keys {
		path := key + ".ga"
		if key == "" {
			path = "main.ga"
		}
		id := fs.AddVirtual(path, []byte(modules[key]))
		fileID := parser.ParseFile(fs.Get(id), key, builder, interner, reporter)
		files[key] = fileID
		binders[key] = symbols.NewBinder(table, builder, reporter, key)
		binders[key].RegisterHeaders(fileID)
	}
	for _, key := range keys {
		binders[key].BindImports(files[key])
	}

	ctx := sema.NewContext(builder, table)
	res := sema.AnalyzeCrate(ctx, binders, reporter, sema.Options{})
	if bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	return &fixture{t: t, l: New(ctx, res), files: files, bag: bag}
}

func (fx *fixture) module(key string) *Module {
	fx.t.Helper()
	return fx.l.Module(key, fx.files[key], nil)
}

func (fx *fixture) fn(mod *Module, name string) *Fn {
	fx.t.Helper()
	for i := range mod.Items {
		if mod.Items[i].Kind == ItemFn && mod.Items[i].Name == name {
			return mod.Items[i].Fn
		}
	}
	fx.t.Fatalf("function %q not lowered", name)
	return nil
}

func TestParamModesReachDirectives(t *testing.T) {
	fx := build(t, map[string]string{"": `
fn total(xs: [int]) -> int {
    let mut sum = 0;
    for x in xs {
        sum = sum + x;
    }
    sum + xs.len()
}

fn push_zero(xs: [int]) {
    xs.push(0);
}
`})
	mod := fx.module("")

	total := fx.fn(mod, "total")
	if len(total.Params) != 1 || total.Params[0].Mode != ModeShared {
		t.Fatalf("total params = %+v, want one shared", total.Params)
	}
	if total.Params[0].Type != "Vec<i64>" {
		t.Fatalf("total param type = %q", total.Params[0].Type)
	}
	if total.Ret != "i64" {
		t.Fatalf("total ret = %q", total.Ret)
	}

	push := fx.fn(mod, "push_zero")
	if push.Params[0].Mode != ModeExclusive {
		t.Fatalf("push_zero mode = %v, want exclusive", push.Params[0].Mode)
	}
	if push.Ret != "" {
		t.Fatalf("push_zero ret = %q, want empty", push.Ret)
	}
}

func TestLetMutAndLoopShape(t *testing.T) {
	fx := build(t, map[string]string{"": `
fn count(xs: [int]) -> int {
    let mut n = 0;
    for x in xs {
        n = n + 1;
    }
    n
}
`})
	body := fx.fn(fx.module(""), "count").Body
	if body == nil || len(body.Kids) != 2 {
		t.Fatalf("body = %+v", body)
	}
	let := body.Kids[0]
	if let.Kind != NodeLet || let.Text != "n" || !let.Mut {
		t.Fatalf("let = %+v", let)
	}
	loop := body.Kids[1]
	if loop.Kind != NodeFor || loop.Text != "x" {
		t.Fatalf("for = %+v", loop)
	}
	if loop.Kids[0].Kind != NodeName || loop.Kids[0].Text != "xs" {
		t.Fatalf("iterand = %+v", loop.Kids[0])
	}
	if body.Tail == nil || body.Tail.Kind != NodeName || body.Tail.Text != "n" {
		t.Fatalf("tail = %+v", body.Tail)
	}
}

func TestReboundParamAssignsThroughDeref(t *testing.T) {
	fx := build(t, map[string]string{"": `
fn replace(xs: [int]) {
    xs = [9];
}
`})
	rep := fx.fn(fx.module(""), "replace")
	if rep.Params[0].Mode != ModeExclusive || !rep.Params[0].Mut {
		t.Fatalf("params = %+v, want exclusive mut", rep.Params)
	}
	assign := rep.Body.Kids[0]
	if assign.Kind != NodeAssign {
		t.Fatalf("stmt = %+v", assign)
	}
	target := assign.Kids[0]
	if target.Kind != NodeName || target.Text != "xs" || target.Adjust != AdjustDeref {
		t.Fatalf("target = %+v, want deref of xs", target)
	}
}

func TestCallArgumentsCarryAdjustments(t *testing.T) {
	fx := build(t, map[string]string{"": `
fn read(xs: [int]) -> int {
    xs.len()
}

fn caller() -> int {
    let xs = [1, 2, 3];
    read(xs)
}
`})
	body := fx.fn(fx.module(""), "caller").Body
	call := body.Tail
	if call.Kind != NodeCall || call.Text != "read" {
		t.Fatalf("tail = %+v", call)
	}
	if len(call.Kids) != 1 || call.Kids[0].Adjust != AdjustSharedBorrow {
		t.Fatalf("arg = %+v, want shared borrow", call.Kids[0])
	}
}

func TestStringLiteralsLowerOwned(t *testing.T) {
	fx := build(t, map[string]string{"": `
fn greet() -> string {
    "hello"
}
`})
	tail := fx.fn(fx.module(""), "greet").Body.Tail
	if tail.Kind != NodeLit || tail.Text != `"hello"` {
		t.Fatalf("tail = %+v", tail)
	}
	if tail.Adjust != AdjustToOwnedString {
		t.Fatalf("adjust = %v, want to-owned-string", tail.Adjust)
	}
}

func TestExpressionPositionIfKeepsContext(t *testing.T) {
	fx := build(t, map[string]string{"": `
fn pick(flag: bool) -> int {
    let x = if flag { 1 } else { 2 };
    if flag {
        noop();
    }
    x
}

fn noop() {}
`})
	body := fx.fn(fx.module(""), "pick").Body
	let := body.Kids[0]
	cond := let.Kids[0]
	if cond.Kind != NodeIf || cond.Ctx != CtxExpression {
		t.Fatalf("value if = %+v, want expression context", cond)
	}
	stmtIf := body.Kids[1].Kids[0]
	if stmtIf.Kind != NodeIf || stmtIf.Ctx != CtxStatement {
		t.Fatalf("statement if = %+v, want statement context", stmtIf)
	}
}

func TestMatchLowersArms(t *testing.T) {
	fx := build(t, map[string]string{"": `
enum Shape {
    Dot,
    Box(int, int),
}

fn area(s: Shape) -> int {
    match s {
        Shape::Dot => 0,
        Shape::Box(w, h) => w * h,
    }
}
`})
	tail := fx.fn(fx.module(""), "area").Body.Tail
	if tail.Kind != NodeMatch || tail.Ctx != CtxExpression {
		t.Fatalf("tail = %+v", tail)
	}
	if len(tail.Arms) != 2 {
		t.Fatalf("arms = %d", len(tail.Arms))
	}
	boxArm := tail.Arms[1]
	if boxArm.Pat.Kind != PatVariant {
		t.Fatalf("pat = %+v", boxArm.Pat)
	}
	if !reflect.DeepEqual(boxArm.Pat.Binders, []string{"w", "h"}) {
		t.Fatalf("binders = %v", boxArm.Pat.Binders)
	}
}

func TestStructAndEnumItems(t *testing.T) {
	fx := build(t, map[string]string{"": `
@copyable
struct Point {
    x: int,
    y: int,
}

struct Named<T> {
    name: string,
    value: T,
}
`})
	mod := fx.module("")
	var point, named *Struct
	for i := range mod.Items {
		switch mod.Items[i].Name {
		case "Point":
			point = mod.Items[i].Struct
		case "Named":
			named = mod.Items[i].Struct
		}
	}
	if point == nil || !point.Copyable {
		t.Fatalf("Point = %+v, want copyable", point)
	}
	if point.Fields[0].Type != "i64" {
		t.Fatalf("Point.x type = %q", point.Fields[0].Type)
	}
	if named == nil || named.Copyable {
		t.Fatalf("Named = %+v, want not copyable", named)
	}
	if !reflect.DeepEqual(named.TypeParams, []string{"T"}) {
		t.Fatalf("Named params = %v", named.TypeParams)
	}
	if named.Fields[0].Type != "String" || named.Fields[1].Type != "T" {
		t.Fatalf("Named fields = %+v", named.Fields)
	}
}

func TestImplMethodsCarrySelfMode(t *testing.T) {
	fx := build(t, map[string]string{"": `
struct Counter {
    n: int,
}

impl Counter {
    fn bump(self) {
        self.n = self.n + 1;
    }
    fn get(self) -> int {
        self.n
    }
}
`})
	mod := fx.module("")
	var imp *Impl
	for i := range mod.Items {
		if mod.Items[i].Kind == ItemImpl {
			imp = mod.Items[i].Impl
		}
	}
	if imp == nil || imp.Target != "Counter" || len(imp.Methods) != 2 {
		t.Fatalf("impl = %+v", imp)
	}
	modes := map[string]Mode{}
	for i := range imp.Methods {
		modes[imp.Methods[i].Name] = imp.Methods[i].SelfMode
	}
	if modes["bump"] != ModeExclusive {
		t.Fatalf("bump self = %v, want exclusive", modes["bump"])
	}
	if modes["get"] != ModeShared {
		t.Fatalf("get self = %v, want shared", modes["get"])
	}
}

func TestLoweringIsDeterministic(t *testing.T) {
	src := map[string]string{"": `
fn shout(name: string) -> string {
    let line = name + "!";
    line
}

fn main() {
    shout("hi");
}
`}
	fx := build(t, src)
	first := fx.module("")
	second := fx.module("")
	if !reflect.DeepEqual(first, second) {
		t.Fatal("repeated lowering differs")
	}
}

func TestDirectiveStreamRoundTrips(t *testing.T) {
	fx := build(t, map[string]string{"": `
enum Shape {
    Dot,
    Box(int, int),
}

fn area(s: Shape) -> int {
    match s {
        Shape::Dot => 0,
        Shape::Box(w, h) => w * h,
    }
}
`})
	mod := fx.module("")
	raw, err := msgpack.Marshal(mod)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Module
	if err := msgpack.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(*mod, back) {
		t.Fatal("directive stream changed across encode/decode")
	}
}
