package driver

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"gale/internal/diag"
	"gale/internal/project"
)

func writeProject(t *testing.T, files map[string]string) *project.Manifest {
	t.Helper()
	dir := t.TempDir()
	manifest := "[package]\nname = \"demo\"\n"
	if err := os.WriteFile(filepath.Join(dir, "gale.toml"), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	for rel, content := range files {
		path := filepath.Join(dir, "src", filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	m, err := project.LoadManifest(filepath.Join(dir, "gale.toml"))
	if err != nil {
		t.Fatalf("manifest: %v", err)
	}
	return m
}

const mainSrc = `
use util::shout;

fn main() {
    let line = shout("hello");
    consume(line);
}

fn consume(s: string) {
    let q = Holder { text: s };
    q.text.len();
}

struct Holder {
    text: string,
}
`

const utilSrc = `
fn shout(name: string) -> string {
    name + "!"
}
`

func TestBuildEndToEnd(t *testing.T) {
	m := writeProject(t, map[string]string{"main.ga": mainSrc, "util.ga": utilSrc})
	cacheDir := t.TempDir()

	res, err := Run(m, Options{CacheDir: cacheDir})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", res.Bag.Items())
	}
	if res.Program == nil || len(res.Program.Modules) != 2 {
		t.Fatalf("program = %+v", res.Program)
	}
	if !res.Converged {
		t.Fatal("inference did not converge")
	}

	if err := WriteProgram(res.Program, m.OutDir()); err != nil {
		t.Fatalf("write: %v", err)
	}
	mainRS, err := os.ReadFile(filepath.Join(m.OutDir(), "main.rs"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(mainRS), "pub mod util;") {
		t.Fatalf("main.rs missing module declaration:\n%s", mainRS)
	}
	if !strings.Contains(string(mainRS), "use crate::util;") {
		t.Fatalf("main.rs missing import:\n%s", mainRS)
	}
	utilRS, err := os.ReadFile(filepath.Join(m.OutDir(), "util.rs"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(utilRS), "pub fn shout(name: &String) -> String {") {
		t.Fatalf("util.rs signature:\n%s", utilRS)
	}
}

func TestEmittedCallsBorrowTemporaries(t *testing.T) {
	m := writeProject(t, map[string]string{"main.ga": `
fn make() -> [int] {
    [1, 2]
}

fn count(items: [int]) -> int {
    items.len()
}

fn main() {
    count(make());
}
`})
	res, err := Run(m, Options{NoCache: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Bag.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", res.Bag.Items())
	}
	if err := WriteProgram(res.Program, m.OutDir()); err != nil {
		t.Fatalf("write: %v", err)
	}
	mainRS, err := os.ReadFile(filepath.Join(m.OutDir(), "main.rs"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(mainRS), "count(items: &Vec<i64>)") {
		t.Fatalf("count signature:\n%s", mainRS)
	}
	if !strings.Contains(string(mainRS), "count(&make());") {
		t.Fatalf("call site should borrow the temporary:\n%s", mainRS)
	}
}

func TestBuildOutputIsStable(t *testing.T) {
	m := writeProject(t, map[string]string{"main.ga": mainSrc, "util.ga": utilSrc})

	first, err := Run(m, Options{NoCache: true})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := Run(m, Options{NoCache: true})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !reflect.DeepEqual(first.Bag.Items(), second.Bag.Items()) {
		t.Fatal("diagnostic streams differ between runs")
	}

	dirA, dirB := t.TempDir(), t.TempDir()
	if err := WriteProgram(first.Program, dirA); err != nil {
		t.Fatal(err)
	}
	if err := WriteProgram(second.Program, dirB); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"main.rs", "util.rs"} {
		a, err := os.ReadFile(filepath.Join(dirA, name))
		if err != nil {
			t.Fatal(err)
		}
		b, err := os.ReadFile(filepath.Join(dirB, name))
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(a, b) {
			t.Fatalf("%s differs between runs:\n%s\n---\n%s", name, a, b)
		}
	}
}

func TestBuildReusesCache(t *testing.T) {
	m := writeProject(t, map[string]string{"main.ga": mainSrc, "util.ga": utilSrc})
	cacheDir := t.TempDir()

	first, err := Run(m, Options{CacheDir: cacheDir})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.CacheHits != 0 {
		t.Fatalf("first run hit the cache: %d", first.CacheHits)
	}

	second, err := Run(m, Options{CacheDir: cacheDir})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.CacheHits != 2 {
		t.Fatalf("cache hits = %d, want 2", second.CacheHits)
	}
	if len(second.Program.Modules) != len(first.Program.Modules) {
		t.Fatal("cached program differs in shape")
	}

	// Touching a module invalidates it and its importers.
	path := filepath.Join(m.SrcDir(), "util.ga")
	if err := os.WriteFile(path, []byte(utilSrc+"\nfn extra() {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	third, err := Run(m, Options{CacheDir: cacheDir})
	if err != nil {
		t.Fatalf("third run: %v", err)
	}
	if third.CacheHits != 0 {
		t.Fatalf("stale cache served after edit: %d hits", third.CacheHits)
	}
}

func TestBuildReportsOwnershipErrors(t *testing.T) {
	m := writeProject(t, map[string]string{"main.ga": `
fn main() {
    let total = 0;
    total = total + 1;
}
`})
	res, err := Run(m, Options{NoCache: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !res.Bag.HasErrors() {
		t.Fatal("expected a mutability diagnostic")
	}
	found := false
	for _, d := range res.Bag.Items() {
		if d.Code == diag.OwnImmutableBindingMutated {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing immutable-binding diagnostic: %v", res.Bag.Items())
	}
	if res.Program != nil {
		t.Fatal("program produced despite errors")
	}
}

func TestCheckStopsBeforeLowering(t *testing.T) {
	m := writeProject(t, map[string]string{"main.ga": `fn main() {}`})
	res, err := Run(m, Options{Check: true, NoCache: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Bag.HasErrors() {
		t.Fatalf("diagnostics: %v", res.Bag.Items())
	}
	if res.Program != nil {
		t.Fatal("check mode still lowered")
	}
}
