package project

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadManifestDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gale.toml")
	writeFile(t, path, "[package]\nname = \"demo\"\n")

	m, err := LoadManifest(path)
	if err != nil {
		t.Fatal(err)
	}
	if m.Package.Name != "demo" {
		t.Errorf("name: got %q", m.Package.Name)
	}
	if m.Package.Src != "src" || m.Package.Entry != "main.ga" || m.Build.Out != "target" {
		t.Errorf("defaults not applied: %+v", m)
	}
	if m.SrcDir() != filepath.Join(dir, "src") {
		t.Errorf("SrcDir: got %q", m.SrcDir())
	}
}

func TestLoadManifestMissingPackage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gale.toml")
	writeFile(t, path, "[build]\nout = \"x\"\n")
	if _, err := LoadManifest(path); err == nil {
		t.Fatal("expected an error for a manifest without [package]")
	}
}

func TestFindManifestWalksUp(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "gale.toml"), "[package]\nname = \"demo\"\n")
	nested := filepath.Join(dir, "src", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	path, ok, err := FindManifest(nested)
	if err != nil || !ok {
		t.Fatalf("FindManifest: ok=%v err=%v", ok, err)
	}
	if path != filepath.Join(dir, "gale.toml") {
		t.Errorf("path: got %q", path)
	}
}

func TestDiscoverModules(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "gale.toml"), "[package]\nname = \"demo\"\n")
	writeFile(t, filepath.Join(dir, "src", "main.ga"), "fn main() {}\n")
	writeFile(t, filepath.Join(dir, "src", "util.ga"), "fn helper() {}\n")
	writeFile(t, filepath.Join(dir, "src", "net", "http.ga"), "fn get() {}\n")
	writeFile(t, filepath.Join(dir, "src", "notes.txt"), "ignored\n")

	m, err := LoadManifest(filepath.Join(dir, "gale.toml"))
	if err != nil {
		t.Fatal(err)
	}
	mods, err := Discover(m)
	if err != nil {
		t.Fatal(err)
	}
	got := make([]string, len(mods))
	for i, mod := range mods {
		got[i] = mod.Path
	}
	want := []string{"", "net/http", "util"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("modules: got %v, want %v", got, want)
	}
}

func TestToposortBatches(t *testing.T) {
	mods := []*Module{
		{Path: "", Imports: []ImportRef{{Path: "util"}, {Path: "net/http"}}},
		{Path: "net/http", Imports: []ImportRef{{Path: "util"}}},
		{Path: "util"},
	}
	idx := BuildIndex(mods)
	g := BuildGraph(idx, mods)
	topo := Toposort(g)
	if topo.Cyclic {
		t.Fatal("graph is acyclic")
	}
	names := make([][]string, len(topo.Batches))
	for i, batch := range topo.Batches {
		for _, id := range batch {
			names[i] = append(names[i], idx.IDToName[int(id)])
		}
	}
	want := [][]string{{"util"}, {"net/http"}, {""}}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("batches: got %v, want %v", names, want)
	}
}

func TestToposortToleratesCycles(t *testing.T) {
	mods := []*Module{
		{Path: "a", Imports: []ImportRef{{Path: "b"}}},
		{Path: "b", Imports: []ImportRef{{Path: "a"}}},
		{Path: "c"},
	}
	idx := BuildIndex(mods)
	g := BuildGraph(idx, mods)
	topo := Toposort(g)
	if !topo.Cyclic {
		t.Fatal("expected a cycle")
	}
	if len(topo.Order) != 3 {
		t.Fatalf("order must cover all modules, got %d", len(topo.Order))
	}
	if len(topo.Cycles) != 2 {
		t.Errorf("cycles: got %d, want 2", len(topo.Cycles))
	}
}

func TestCombineDigestIsOrderSensitive(t *testing.T) {
	var a, b, c Digest
	a[0], b[0], c[0] = 1, 2, 3
	if Combine(a, b, c) == Combine(a, c, b) {
		t.Error("dep order must change the digest")
	}
	if Combine(a, b, c) != Combine(a, b, c) {
		t.Error("digest must be deterministic")
	}
}
