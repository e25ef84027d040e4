package sema

import (
	"reflect"
	"sort"
	"testing"

	"gale/internal/ast"
	"gale/internal/diag"
	"gale/internal/parser"
	"gale/internal/source"
	"gale/internal/symbols"
	"gale/internal/types"
)

type crateFixture struct {
	t     *testing.T
	res   *Result
	ctx   *Context
	table *symbols.Table
	bag   *diag.Bag
}

// analyze parses, binds, and runs the full semantic pipeline over a
// set of modules keyed by module path ("" is the crate root).
func analyze(t *testing.T, modules map[string]string) *crateFixture {
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

	ctx := NewContext(builder, table)
	res := AnalyzeCrate(ctx, binders, reporter, Options{})
	return &crateFixture{t: t, res: res, ctx: ctx, table: table, bag: bag}
}

func analyzeOne(t *testing.T, src string) *crateFixture {
	t.Helper()
	return analyze(t, map[string]string{"": src})
}

func (fx *crateFixture) mustClean() {
	fx.t.Helper()
	if fx.bag.HasErrors() {
		fx.t.Fatalf("unexpected diagnostics: %v", fx.bag.Items())
	}
}

func (fx *crateFixture) mustCode(code diag.Code) diag.Diagnostic {
	fx.t.Helper()
	for _, d := range fx.bag.Items() {
		if d.Code == code {
			return d
		}
	}
	fx.t.Fatalf("expected %v, got %v", code, fx.bag.Items())
	return diag.Diagnostic{}
}

func (fx *crateFixture) fn(name string) *FnResult {
	fx.t.Helper()
	for _, f := range fx.res.Fns {
		if fx.table.Strings.MustLookup(fx.table.Symbols.Get(f.Sym).Name) == name {
			return f
		}
	}
	fx.t.Fatalf("function %q not analyzed", name)
	return nil
}

// callPlan returns the single call-site plan inside a function; tests
// using it keep one adjustable call per body.
func (fx *crateFixture) callPlan(name string) []ArgPlan {
	fx.t.Helper()
	f := fx.fn(name)
	if f.Plan == nil || len(f.Plan.Args) != 1 {
		fx.t.Fatalf("%s: want exactly one call plan, got %+v", name, f.Plan)
	}
	for _, plans := range f.Plan.Args {
		return plans
	}
	return nil
}

func TestReadOnlySeqParamBorrowsShared(t *testing.T) {
	fx := analyzeOne(t, `
fn count(items: [int]) -> int {
    items.len()
}

fn main() {
    let v = [1, 2, 3]
    count(v)
}
`)
	fx.mustClean()
	sig := fx.fn("count").Sig
	if sig.Params[0].Mode != ModeShared {
		t.Fatalf("items mode = %v", sig.Params[0].Mode)
	}
	plan := fx.callPlan("main")
	if plan[0].Adjust != AdjustSharedBorrow {
		t.Fatalf("arg adjust = %v", plan[0].Adjust)
	}
}

func TestMutatedParamBorrowsExclusive(t *testing.T) {
	fx := analyzeOne(t, `
fn add(items: [int], v: int) {
    items.push(v)
}
`)
	fx.mustClean()
	sig := fx.fn("add").Sig
	if sig.Params[0].Mode != ModeExclusive {
		t.Fatalf("items mode = %v", sig.Params[0].Mode)
	}
	if sig.Params[1].Mode != ModeOwned {
		t.Fatalf("v mode = %v", sig.Params[1].Mode)
	}
}

func TestConsumingBuiltinArgStaysOwned(t *testing.T) {
	fx := analyzeOne(t, `
fn add(items: [string], s: string) {
    items.push(s)
}
`)
	fx.mustClean()
	sig := fx.fn("add").Sig
	if sig.Params[0].Mode != ModeExclusive {
		t.Fatalf("items mode = %v", sig.Params[0].Mode)
	}
	if sig.Params[1].Mode != ModeOwned || !sig.Params[1].Consumed {
		t.Fatalf("s = %+v, want owned and consumed", sig.Params[1])
	}
}

func TestReboundParamIsExclusiveAndMut(t *testing.T) {
	fx := analyzeOne(t, `
fn replace(items: [int]) {
    items = [9]
}
`)
	fx.mustClean()
	p := fx.fn("replace").Sig.Params[0]
	if p.Mode != ModeExclusive {
		t.Fatalf("items mode = %v", p.Mode)
	}
	if !p.EmitMut {
		t.Fatal("rebound param should carry mut")
	}
}

func TestUnusedMoveParamBorrowsShared(t *testing.T) {
	fx := analyzeOne(t, `
fn ignore(s: string) -> int {
    0
}
`)
	fx.mustClean()
	sig := fx.fn("ignore").Sig
	if sig.Params[0].Mode != ModeShared || sig.Params[0].Consumed {
		t.Fatalf("s = %+v", sig.Params[0])
	}
}

func TestFieldStoreConsumesParam(t *testing.T) {
	fx := analyzeOne(t, `
struct Holder { name: string }

fn make(name: string) -> Holder {
    Holder { name: name }
}
`)
	fx.mustClean()
	sig := fx.fn("make").Sig
	if sig.Params[0].Mode != ModeOwned || !sig.Params[0].Consumed {
		t.Fatalf("name = %+v", sig.Params[0])
	}
}

func TestStringLiteralArgumentBecomesOwned(t *testing.T) {
	fx := analyzeOne(t, `
fn keep(s: string) -> string {
    s
}

fn main() {
    keep("hello")
}
`)
	fx.mustClean()
	plan := fx.callPlan("main")
	if plan[0].Adjust != AdjustToOwnedString {
		t.Fatalf("literal adjust = %v", plan[0].Adjust)
	}
}

func TestTemporaryArgumentBorrowedShared(t *testing.T) {
	fx := analyzeOne(t, `
fn make() -> [int] {
    [1, 2]
}

fn count(items: [int]) -> int {
    items.len()
}

fn main() {
    count(make())
}
`)
	fx.mustClean()
	f := fx.fn("main")
	found := false
	for _, plans := range f.Plan.Args {
		for _, p := range plans {
			found = true
			if p.Adjust != AdjustSharedBorrow {
				t.Fatalf("temporary arg adjust = %v, want borrow", p.Adjust)
			}
			if p.Reason != ReasonBorrowForShared {
				t.Fatalf("reason = %v", p.Reason)
			}
		}
	}
	if !found {
		t.Fatal("no argument plan recorded")
	}
}

func TestStringLiteralToSharedParamBorrowsOwned(t *testing.T) {
	fx := analyzeOne(t, `
fn greet(s: string) -> int {
    s.len()
}

fn main() {
    greet("hi")
}
`)
	fx.mustClean()
	if mode := fx.fn("greet").Sig.Params[0].Mode; mode != ModeShared {
		t.Fatalf("s mode = %v", mode)
	}
	plan := fx.callPlan("main")
	if plan[0].Adjust != AdjustBorrowOwnedString {
		t.Fatalf("literal adjust = %v, want borrow-owned-string", plan[0].Adjust)
	}
}

func TestTemporaryToExclusiveParamRejected(t *testing.T) {
	fx := analyzeOne(t, `
fn make() -> [int] {
    [1]
}

fn bump(items: [int]) {
    items.push(0)
}

fn main() {
    bump(make())
}
`)
	fx.mustCode(diag.OwnBorrowOfNonPlace)
}

func TestCopyArgumentNeverAdjusted(t *testing.T) {
	fx := analyzeOne(t, `
fn twice(n: int) -> int {
    n + n
}

fn main() {
    let n = 21
    twice(n)
    twice(n)
}
`)
	fx.mustClean()
	f := fx.fn("main")
	for _, plans := range f.Plan.Args {
		if plans[0].Adjust != AdjustAsIs {
			t.Fatalf("copy arg adjust = %v", plans[0].Adjust)
		}
	}
}

func TestImmutableBindingMutated(t *testing.T) {
	fx := analyzeOne(t, `
fn main() {
    let total = 0
    total = 1
}
`)
	d := fx.mustCode(diag.OwnImmutableBindingMutated)
	if len(d.Notes) == 0 {
		t.Fatal("diagnostic must point at the binding")
	}
	if len(d.Fixes) == 0 || d.Fixes[0].Title != "change `let` to `let mut`" {
		t.Fatalf("fix = %+v", d.Fixes)
	}
}

func TestMutBindingMutatesCleanly(t *testing.T) {
	fx := analyzeOne(t, `
fn main() {
    let mut total = 0
    total = 1
}
`)
	fx.mustClean()
}

func TestMethodMutationOfImmutableBinding(t *testing.T) {
	fx := analyzeOne(t, `
fn main() {
    let items = [1]
    items.push(2)
}
`)
	fx.mustCode(diag.OwnImmutableBindingMutated)
}

func TestMoveAfterMove(t *testing.T) {
	fx := analyzeOne(t, `
fn keep(s: string) -> string {
    s
}

fn main() {
    let msg = "hi"
    keep(msg)
    keep(msg)
}
`)
	d := fx.mustCode(diag.OwnMoveAfterMove)
	if len(d.Notes) < 1 {
		t.Fatal("move diagnostic must carry the first move site")
	}
}

func TestSelfBecomesOwnedWhenFieldMovesOut(t *testing.T) {
	fx := analyzeOne(t, `
struct User { name: string }

impl User {
    fn into_name(self) -> string {
        self.name
    }
}
`)
	fx.mustClean()
	sig := fx.fn("into_name").Sig
	if sig.SelfMode != ModeOwnedSelf {
		t.Fatalf("self mode = %v", sig.SelfMode)
	}
}

func TestReadOnlySelfBorrowsShared(t *testing.T) {
	fx := analyzeOne(t, `
struct User { name: string, age: int }

impl User {
    fn age(self) -> int {
        self.age
    }
}
`)
	fx.mustClean()
	if mode := fx.fn("age").Sig.SelfMode; mode != ModeShared {
		t.Fatalf("self mode = %v", mode)
	}
}

func TestSharedDemandPropagatesThroughCallChain(t *testing.T) {
	fx := analyzeOne(t, `
fn leaf(items: [int]) -> int {
    items.len()
}

fn mid(items: [int]) -> int {
    leaf(items)
}

fn top(items: [int]) -> int {
    mid(items)
}
`)
	fx.mustClean()
	if !fx.res.Converged {
		t.Fatalf("inference did not converge after %d rounds", fx.res.Rounds)
	}
	for _, name := range []string{"leaf", "mid", "top"} {
		if mode := fx.fn(name).Sig.Params[0].Mode; mode != ModeShared {
			t.Fatalf("%s items mode = %v", name, mode)
		}
	}
	plan := fx.callPlan("mid")
	if plan[0].Adjust != AdjustSharedBorrow {
		t.Fatalf("mid arg adjust = %v", plan[0].Adjust)
	}
}

func TestIterandConsumedWithoutReuse(t *testing.T) {
	fx := analyzeOne(t, `
fn drain(items: [string]) {
    for s in items {
    }
}
`)
	fx.mustClean()
	sig := fx.fn("drain").Sig
	if sig.Params[0].Mode != ModeOwned || !sig.Params[0].Consumed {
		t.Fatalf("items = %+v", sig.Params[0])
	}
	f := fx.fn("drain")
	for _, plan := range f.Plan.Iter {
		if plan.Mode != ModeOwned || plan.Adjust != AdjustAsIs {
			t.Fatalf("iterand plan = %+v", plan)
		}
	}
}

func TestIterandBorrowedWhenReusedAfterLoop(t *testing.T) {
	fx := analyzeOne(t, `
fn scan(items: [string]) -> int {
    for s in items {
    }
    items.len()
}
`)
	fx.mustClean()
	sig := fx.fn("scan").Sig
	if sig.Params[0].Mode != ModeShared {
		t.Fatalf("items mode = %v", sig.Params[0].Mode)
	}
	f := fx.fn("scan")
	for _, plan := range f.Plan.Iter {
		if plan.Adjust != AdjustSharedBorrow {
			t.Fatalf("iterand plan = %+v", plan)
		}
	}
}

func TestMatchArmsMustAgree(t *testing.T) {
	fx := analyzeOne(t, `
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
	fx.mustClean()
	if mode := fx.fn("area").Sig.Params[0].Mode; mode != ModeShared {
		t.Fatalf("s mode = %v", mode)
	}
}

func TestMatchArmMismatchRejected(t *testing.T) {
	fx := analyzeOne(t, `
enum Shape {
    Circle(float),
    Empty,
}

fn broken(s: Shape) -> float {
    match s {
        Shape::Circle(r) => r,
        Shape::Empty => "zero",
    }
}
`)
	fx.mustCode(diag.TypeInconsistentMatchArms)
}

func TestUnknownEnumCaseInPattern(t *testing.T) {
	fx := analyzeOne(t, `
enum Shape {
    Circle(float),
    Empty,
}

fn broken(s: Shape) -> int {
    match s {
        Shape::Square(n) => 1,
        Shape::Empty => 0,
    }
}
`)
	fx.mustCode(diag.ResUnknownEnumCase)
}

func TestMutualRecursionConverges(t *testing.T) {
	fx := analyzeOne(t, `
fn ping(items: [int]) -> int {
    pong(items)
}

fn pong(items: [int]) -> int {
    ping(items)
}
`)
	fx.mustClean()
	if !fx.res.Converged {
		t.Fatalf("no convergence after %d rounds", fx.res.Rounds)
	}
}

func TestAdjusterIsIdempotent(t *testing.T) {
	fx := analyzeOne(t, `
fn count(items: [int]) -> int {
    items.len()
}

fn main() {
    let v = [1, 2, 3]
    count(v)
}
`)
	fx.mustClean()
	f := fx.fn("main")
	final := fx.ctx.Registry.Snapshot()
	again := adjustFn(fx.ctx, f.Typing, f.Usage, final, diag.NopReporter{})
	if !reflect.DeepEqual(f.Plan, again) {
		t.Fatalf("adjuster not stable:\nfirst  %+v\nsecond %+v", f.Plan, again)
	}
}

func TestGenericParamConservativelyMoved(t *testing.T) {
	fx := analyzeOne(t, `
fn identity<T>(x: T) -> T {
    x
}
`)
	fx.mustClean()
	sig := fx.fn("identity").Sig
	if sig.Params[0].Mode != ModeOwned || !sig.Params[0].Consumed {
		t.Fatalf("x = %+v", sig.Params[0])
	}
}

func TestCopySubstitutionSuppressesMove(t *testing.T) {
	fx := analyzeOne(t, `
fn identity<T>(x: T) -> T {
    x
}

fn main() {
    let n = 1
    identity(n)
    identity(n)
}
`)
	// The formal is pessimistically Move, but the substitution is
	// int: no move-after-move, and the argument passes as-is.
	fx.mustClean()
	f := fx.fn("main")
	for _, plans := range f.Plan.Args {
		if plans[0].Adjust != AdjustAsIs {
			t.Fatalf("substituted copy arg adjust = %v", plans[0].Adjust)
		}
	}
}

func TestTraitObjectJoinsImplementorModes(t *testing.T) {
	fx := analyzeOne(t, `
trait Greeter {
    fn greet(self) -> string
}

struct English { salutation: string }

impl Greeter for English {
    fn greet(self) -> string {
        self.salutation
    }
}

fn speak(g: dyn Greeter) -> string {
    g.greet()
}
`)
	fx.mustClean()
	// The only implementation moves a field out of self, so the
	// joined trait signature demands an owned receiver.
	impl := fx.fn("greet")
	if impl.Sig.SelfMode != ModeOwnedSelf {
		t.Fatalf("impl self mode = %v", impl.Sig.SelfMode)
	}
}

func TestErrorSymbolShortCircuits(t *testing.T) {
	fx := analyzeOne(t, `
fn broken() -> int {
    missing(1)
}

fn fine(items: [int]) -> int {
    items.len()
}
`)
	fx.mustCode(diag.ResUnresolvedName)
	// Unaffected functions still get full analysis.
	if mode := fx.fn("fine").Sig.Params[0].Mode; mode != ModeShared {
		t.Fatalf("fine items mode = %v", mode)
	}
	if fx.fn("broken").Plan != nil {
		t.Fatal("failed function must not reach adjustment")
	}
}

func TestCrossModuleInference(t *testing.T) {
	fx := analyze(t, map[string]string{
		"": `
use util::shout

fn main() {
    let s = "hey"
    shout(s)
}
`,
		"util": `
fn shout(s: string) -> int {
    s.len()
}
`,
	})
	fx.mustClean()
	if mode := fx.fn("shout").Sig.Params[0].Mode; mode != ModeShared {
		t.Fatalf("shout s mode = %v", mode)
	}
	plan := fx.callPlan("main")
	if plan[0].Adjust != AdjustSharedBorrow {
		t.Fatalf("cross-module arg adjust = %v", plan[0].Adjust)
	}
}

func TestOptionParamStaysOwnedWhenUnwrapped(t *testing.T) {
	fx := analyzeOne(t, `
fn force(v: string?) -> string {
    v.unwrap()
}
`)
	fx.mustClean()
	sig := fx.fn("force").Sig
	if sig.Params[0].Mode != ModeOwned {
		t.Fatalf("v mode = %v", sig.Params[0].Mode)
	}
}

func TestConsumingFactsClassifyReturningType(t *testing.T) {
	fx := analyzeOne(t, `
fn echo(s: string) -> string {
    s
}
`)
	fx.mustClean()
	sig := fx.fn("echo").Sig
	if sig.Params[0].Mode != ModeOwned || !sig.Params[0].Consumed || !sig.RetMove {
		t.Fatalf("echo sig = %+v", sig)
	}
	if cls := fx.ctx.Class.Of(sig.Ret); cls != types.Move {
		t.Fatalf("string class = %v", cls)
	}
}
