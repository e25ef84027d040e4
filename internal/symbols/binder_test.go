package symbols

import (
	"sort"
	"testing"

	"gale/internal/ast"
	"gale/internal/diag"
	"gale/internal/parser"
	"gale/internal/source"
)

type boundCrate struct {
	builder *ast.Builder
	table   *Table
	binders map[string]*Binder
	bag     *diag.Bag
}

// bindCrate parses and binds a set of modules keyed by module path
// ("" is the crate root).
func bindCrate(t *testing.T, modules map[string]string) *boundCrate {
	t.Helper()
	fs := source.NewFileSet()
	interner := source.NewInterner()
	builder := ast.NewBuilder()
	bag := diag.NewBag(64)
	reporter := diag.BagReporter{Bag: bag}
	table := NewTable(Hints{}, interner)

	keys := make([]string, 0, len(modules))
	for k := range modules {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	files := make(map[string]ast.FileID, len(modules))
	binders := make(map[string]*Binder, len(modules))
	for _, key := range keys {
		path := key + ".ga"
		if key == "" {
			path = "main.ga"
		}
		id := fs.AddVirtual(path, []byte(modules[key]))
		fileID := parser.ParseFile(fs.Get(id), key, builder, interner, reporter)
		files[key] = fileID
		binders[key] = NewBinder(table, builder, reporter, key)
		binders[key].RegisterHeaders(fileID)
	}
	for _, key := range keys {
		binders[key].BindImports(files[key])
	}
	return &boundCrate{builder: builder, table: table, binders: binders, bag: bag}
}

func (c *boundCrate) lookupTop(t *testing.T, module, name string) *Symbol {
	t.Helper()
	root, ok := c.table.LookupModule(module)
	if !ok {
		t.Fatalf("module %q not registered", module)
	}
	id, ok := c.table.LookupIn(root, c.table.Strings.Intern(name))
	if !ok {
		t.Fatalf("name %q not found in module %q", name, module)
	}
	return c.table.Symbols.Get(id)
}

func TestRegisterTopLevelItems(t *testing.T) {
	c := bindCrate(t, map[string]string{
		"": `
struct User { name: string, age: int }
enum Color { Red, Green, Blue }
trait Shape { fn area(self) -> float }
fn main() {}
const LIMIT: int = 10
`,
	})
	if c.bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", c.bag.Items())
	}
	if got := c.lookupTop(t, "", "User").Kind; got != SymbolStruct {
		t.Errorf("User: got %v", got)
	}
	if got := c.lookupTop(t, "", "Color").Kind; got != SymbolEnum {
		t.Errorf("Color: got %v", got)
	}
	if got := c.lookupTop(t, "", "Shape").Kind; got != SymbolTrait {
		t.Errorf("Shape: got %v", got)
	}
	if got := c.lookupTop(t, "", "main").Kind; got != SymbolFunction {
		t.Errorf("main: got %v", got)
	}
	if got := c.lookupTop(t, "", "LIMIT").Kind; got != SymbolConst {
		t.Errorf("LIMIT: got %v", got)
	}
}

func TestStructFieldsAndEnumVariants(t *testing.T) {
	c := bindCrate(t, map[string]string{
		"": `
struct Point { x: int, y: int }
enum Shade { Light, Dark }
`,
	})
	point := c.lookupTop(t, "", "Point")
	root, _ := c.table.LookupModule("")
	pID, _ := c.table.LookupIn(root, point.Name)
	fields := c.table.Fields(pID)
	if len(fields) != 2 {
		t.Fatalf("fields: got %d, want 2", len(fields))
	}
	y := c.table.Symbols.Get(fields[1])
	if c.table.Strings.MustLookup(y.Name) != "y" || y.Index != 1 {
		t.Errorf("second field: got %q index %d", c.table.Strings.MustLookup(y.Name), y.Index)
	}
	shade, _ := c.table.LookupIn(root, c.table.Strings.Intern("Shade"))
	if dark := c.table.VariantByName(shade, c.table.Strings.Intern("Dark")); !dark.IsValid() {
		t.Error("variant Dark not indexed")
	}
}

func TestCopyableAttrSetsFlag(t *testing.T) {
	c := bindCrate(t, map[string]string{
		"": `
@copyable
struct Pixel { x: int, y: int }
struct Buffer { data: [int] }
`,
	})
	if c.lookupTop(t, "", "Pixel").Flags&SymbolFlagCopyable == 0 {
		t.Error("Pixel should carry the copyable flag")
	}
	if c.lookupTop(t, "", "Buffer").Flags&SymbolFlagCopyable != 0 {
		t.Error("Buffer must not carry the copyable flag")
	}
}

func TestDuplicateTopLevelName(t *testing.T) {
	c := bindCrate(t, map[string]string{
		"": `
fn greet() {}
fn greet() {}
`,
	})
	found := false
	for _, d := range c.bag.Items() {
		if d.Code == diag.ResDuplicateName {
			found = true
			if len(d.Notes) == 0 {
				t.Error("duplicate diagnostic should point at the first declaration")
			}
		}
	}
	if !found {
		t.Fatal("expected a duplicate-name diagnostic")
	}
}

func TestImportWithAlias(t *testing.T) {
	c := bindCrate(t, map[string]string{
		"util": `fn shout(msg: string) -> string { msg }`,
		"": `
use util::shout as yell
fn main() {}
`,
	})
	if c.bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", c.bag.Items())
	}
	imp := c.lookupTop(t, "", "yell")
	if imp.Kind != SymbolImport {
		t.Fatalf("yell: got %v, want import", imp.Kind)
	}
	target := c.table.Symbols.Get(c.binders[""].chaseImport(imp.Parent))
	if target.Kind != SymbolFunction || c.table.Strings.MustLookup(target.Name) != "shout" {
		t.Errorf("alias target: got %v %q", target.Kind, c.table.Strings.MustLookup(target.Name))
	}
}

func TestImportConflictsWithLocalItem(t *testing.T) {
	c := bindCrate(t, map[string]string{
		"util": `fn shout() {}`,
		"": `
use util::shout
fn shout() {}
`,
	})
	found := false
	for _, d := range c.bag.Items() {
		if d.Code == diag.ResImportConflict {
			found = true
		}
	}
	if !found {
		t.Fatal("expected an import-conflict diagnostic")
	}
}

func TestGlobImportReachableFromEnv(t *testing.T) {
	c := bindCrate(t, map[string]string{
		"util": `fn helper() {}`,
		"": `
use util::*
fn main() {}
`,
	})
	if c.bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", c.bag.Items())
	}
	env := NewEnv(c.binders[""])
	id, ok := env.Lookup(c.table.Strings.Intern("helper"))
	if !ok {
		t.Fatal("glob-imported helper not visible")
	}
	if c.table.Symbols.Get(id).Kind != SymbolFunction {
		t.Error("glob import should reach the function symbol")
	}
}

func TestSuperBeyondRoot(t *testing.T) {
	c := bindCrate(t, map[string]string{
		"": `use super::thing`,
	})
	found := false
	for _, d := range c.bag.Items() {
		if d.Code == diag.ResParentOfRoot {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a parent-of-root diagnostic")
	}
}

func TestUnknownModuleImport(t *testing.T) {
	c := bindCrate(t, map[string]string{
		"": `use nowhere::thing`,
	})
	if !c.bag.HasErrors() {
		t.Fatal("expected a diagnostic for an unknown module")
	}
}

func TestMethodIndexInherentBeatsTrait(t *testing.T) {
	c := bindCrate(t, map[string]string{
		"": `
struct Circle { r: float }
trait Shape { fn area(self) -> float }
impl Circle {
	fn area(self) -> float { self.r }
}
impl Shape for Circle {
	fn area(self) -> float { self.r }
}
`,
	})
	if c.bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", c.bag.Items())
	}
	root, _ := c.table.LookupModule("")
	circle, _ := c.table.LookupIn(root, c.table.Strings.Intern("Circle"))
	res := c.table.ResolveMethod(circle, c.table.Strings.Intern("area"))
	if !res.Found.IsValid() {
		t.Fatal("area should resolve")
	}
	winner := c.table.Symbols.Get(res.Found)
	if winner.Kind != SymbolMethod {
		t.Fatalf("winner kind: got %v", winner.Kind)
	}
}

func TestMethodAmbiguityAcrossTraits(t *testing.T) {
	c := bindCrate(t, map[string]string{
		"": `
struct Disk { r: float }
trait Shape { fn area(self) -> float }
trait Region { fn area(self) -> float }
impl Shape for Disk {
	fn area(self) -> float { self.r }
}
impl Region for Disk {
	fn area(self) -> float { self.r }
}
`,
	})
	root, _ := c.table.LookupModule("")
	disk, _ := c.table.LookupIn(root, c.table.Strings.Intern("Disk"))
	res := c.table.ResolveMethod(disk, c.table.Strings.Intern("area"))
	if res.Found.IsValid() {
		t.Fatal("two trait impls must not be silently tie-broken")
	}
	if len(res.Candidates) != 2 {
		t.Fatalf("candidates: got %d, want 2", len(res.Candidates))
	}
}

func TestEnvShadowingMakesFreshSymbols(t *testing.T) {
	c := bindCrate(t, map[string]string{
		"": `fn main() {}`,
	})
	env := NewEnv(c.binders[""])
	name := c.table.Strings.Intern("x")
	env.Enter(ScopeFunction, source.Span{})
	first := env.Declare(name, source.Span{}, SymbolLocal, 0)
	env.Enter(ScopeBlock, source.Span{})
	second := env.Declare(name, source.Span{}, SymbolLocal, SymbolFlagMutable)
	if first == second {
		t.Fatal("shadowing must allocate a fresh symbol")
	}
	got, _ := env.Lookup(name)
	if got != second {
		t.Error("inner binding should win while its scope is open")
	}
	env.Leave()
	got, _ = env.Lookup(name)
	if got != first {
		t.Error("outer binding should be visible again after the block")
	}
}

func TestEnvResolvesEnumVariantPath(t *testing.T) {
	c := bindCrate(t, map[string]string{
		"": `
enum Color { Red, Green }
fn main() {}
`,
	})
	env := NewEnv(c.binders[""])
	segs := []source.StringID{
		c.table.Strings.Intern("Color"),
		c.table.Strings.Intern("Red"),
	}
	id := env.ResolvePath(segs, source.Span{})
	sym := c.table.Symbols.Get(id)
	if sym.Kind != SymbolEnumVariant {
		t.Fatalf("Color::Red: got %v", sym.Kind)
	}
	bad := []source.StringID{
		c.table.Strings.Intern("Color"),
		c.table.Strings.Intern("Purple"),
	}
	if got := env.ResolvePath(bad, source.Span{}); got != c.table.Error {
		t.Error("unknown case must collapse to the error sentinel")
	}
}

func TestEnvResolvesModuleQualifiedItem(t *testing.T) {
	c := bindCrate(t, map[string]string{
		"util": `fn shout() {}`,
		"":     `fn main() {}`,
	})
	env := NewEnv(c.binders[""])
	segs := []source.StringID{
		c.table.Strings.Intern("util"),
		c.table.Strings.Intern("shout"),
	}
	id := env.ResolvePath(segs, source.Span{})
	if sym := c.table.Symbols.Get(id); sym.Kind != SymbolFunction {
		t.Fatalf("util::shout: got %v", sym.Kind)
	}
}
