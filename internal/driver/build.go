// Package driver orchestrates the pipeline: discovery, parsing,
// binding, analysis, lowering, and output, with per-module
// memoization for incremental rebuilds.
package driver

import (
	"crypto/sha256"
	"fmt"
	"os"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"gale/internal/ast"
	"gale/internal/diag"
	"gale/internal/lower"
	"gale/internal/observ"
	"gale/internal/parser"
	"gale/internal/project"
	"gale/internal/sema"
	"gale/internal/source"
	"gale/internal/symbols"
	"gale/internal/version"
)

// Options configures one build.
type Options struct {
	// Jobs bounds parallel file loading; 0 means GOMAXPROCS.
	Jobs int
	// MaxRounds caps the ownership fixed point; 0 uses the default.
	MaxRounds int
	// Check stops after analysis without producing directives.
	Check bool
	// NoCache disables the memo caches.
	NoCache bool
	// CacheDir overrides the disk cache location.
	CacheDir string
	// MaxDiagnostics caps the bag; 0 uses the default.
	MaxDiagnostics int
}

// Result is what one build produced. Program is nil when diagnostics
// contain errors or when every module came from the cache in check
// mode.
type Result struct {
	FileSet   *source.FileSet
	Bag       *diag.Bag
	Modules   []*project.Module
	Program   *lower.Program
	Timer     *observ.Timer
	Rounds    int
	Converged bool
	CacheHits int
}

// Run executes the full pipeline for one manifest.
func Run(m *project.Manifest, opts Options) (*Result, error) {
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	timer := observ.NewTimer()
	bag := diag.NewBag(opts.MaxDiagnostics)
	reporter := diag.BagReporter{Bag: bag}
	fs := source.NewFileSetWithBase(m.Dir)
	res := &Result{FileSet: fs, Bag: bag, Timer: timer, Converged: true}

	ph := timer.Begin("discover")
	mods, err := project.Discover(m)
	timer.End(ph, fmt.Sprintf("%d modules", len(mods)))
	if err != nil {
		return nil, err
	}
	res.Modules = mods

	ph = timer.Begin("load")
	contents := make([][]byte, len(mods))
	var g errgroup.Group
	g.SetLimit(jobs)
	for i, mod := range mods {
		i, mod := i, mod
		g.Go(func() error {
			data, err := os.ReadFile(mod.File)
			if err != nil {
				return fmt.Errorf("module %q: %w", mod.Path, err)
			}
			contents[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	timer.End(ph, "")

	// AST arenas and the interner are single-writer; parsing stays
	// sequential.
	ph = timer.Begin("parse")
	interner := source.NewInterner()
	builder := ast.NewBuilder()
	for i, mod := range mods {
		id := fs.Add(mod.File, contents[i], 0)
		mod.Source = id
		mod.AST = parser.ParseFile(fs.Get(id), mod.Path, builder, interner, reporter)
	}
	timer.End(ph, "")

	known := make(map[string]struct{}, len(mods))
	for _, mod := range mods {
		known[mod.Path] = struct{}{}
	}
	for _, mod := range mods {
		mod.Imports = scanImports(builder, interner, mod.AST, known)
	}
	idx := project.BuildIndex(mods)
	graph := project.BuildGraph(idx, mods)
	topo := project.Toposort(graph)
	computeDigests(fs, idx, mods, topo)

	byPath := make(map[string]*project.Module, len(mods))
	for _, mod := range mods {
		byPath[mod.Path] = mod
	}

	var mem *MemCache
	var disk *DiskCache
	if !opts.NoCache {
		mem = sharedMemCache
		disk, err = OpenDiskCache(opts.CacheDir)
		if err != nil {
			// A broken cache never fails the build.
			disk = nil
		}
		if !bag.HasErrors() && !topo.Cyclic {
			if prog, hits := probeCaches(mem, disk, idx, mods, topo); prog != nil {
				res.Program = prog
				res.CacheHits = hits
				bag.Sort()
				return res, nil
			}
		}
	}

	ph = timer.Begin("bind")
	table := symbols.NewTable(symbols.Hints{}, interner)
	paths := make([]string, 0, len(mods))
	for _, mod := range mods {
		paths = append(paths, mod.Path)
	}
	sort.Strings(paths)
	binders := make(map[string]*symbols.Binder, len(mods))
	for _, path := range paths {
		binders[path] = symbols.NewBinder(table, builder, reporter, path)
		binders[path].RegisterHeaders(byPath[path].AST)
	}
	for _, path := range paths {
		binders[path].BindImports(byPath[path].AST)
	}
	timer.End(ph, "")

	ph = timer.Begin("analyze")
	ctx := sema.NewContext(builder, table)
	sres := sema.AnalyzeCrate(ctx, binders, reporter, sema.Options{MaxRounds: opts.MaxRounds})
	res.Rounds = sres.Rounds
	res.Converged = sres.Converged
	timer.End(ph, fmt.Sprintf("%d rounds", sres.Rounds))

	bag.Sort()
	if bag.HasErrors() || opts.Check {
		return res, nil
	}

	ph = timer.Begin("lower")
	lw := lower.New(ctx, sres)
	prog := &lower.Program{Modules: make([]lower.Module, 0, len(mods))}
	for _, id := range topo.Order {
		mod := byPath[idx.IDToName[id]]
		prog.Modules = append(prog.Modules, *lw.Module(mod.Path, mod.AST, importPaths(mod)))
	}
	res.Program = prog
	timer.End(ph, "")

	if !opts.NoCache {
		storeCaches(mem, disk, byPath, prog)
	}
	return res, nil
}

func importPaths(mod *project.Module) []string {
	if len(mod.Imports) == 0 {
		return nil
	}
	out := make([]string, 0, len(mod.Imports))
	seen := make(map[string]struct{}, len(mod.Imports))
	for _, imp := range mod.Imports {
		if _, dup := seen[imp.Path]; dup {
			continue
		}
		seen[imp.Path] = struct{}{}
		out = append(out, imp.Path)
	}
	sort.Strings(out)
	return out
}

// scanImports maps use declarations to module paths: the longest
// leading run of segments naming a known module wins. Unknown paths
// are left for the binder to report.
func scanImports(builder *ast.Builder, interner *source.Interner, fileID ast.FileID, known map[string]struct{}) []project.ImportRef {
	file := builder.File(fileID)
	if file == nil {
		return nil
	}
	var out []project.ImportRef
	for _, itemID := range file.Items {
		item := builder.Item(itemID)
		if item.Kind != ast.ItemUse {
			continue
		}
		decl := builder.UseAt(item.Payload)
		segs := make([]string, len(decl.Segments))
		for i, s := range decl.Segments {
			segs[i] = interner.MustLookup(s)
		}
		for n := len(segs); n >= 1; n-- {
			cand := joinPath(segs[:n])
			if _, ok := known[cand]; ok {
				out = append(out, project.ImportRef{Path: cand, Span: decl.Span})
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func joinPath(segs []string) string {
	s := segs[0]
	for _, seg := range segs[1:] {
		s += "/" + seg
	}
	return s
}

// computeDigests fills each module's digest deps-first. The digest
// keys memoization: content, resolved imports (via dep digests, which
// cover callee signatures), and the compiler version.
func computeDigests(fs *source.FileSet, idx project.Index, mods []*project.Module, topo *project.Topo) {
	stamp := project.Digest(sha256.Sum256([]byte(version.Number)))
	byPath := make(map[string]*project.Module, len(mods))
	for _, mod := range mods {
		byPath[mod.Path] = mod
	}
	for _, id := range topo.Order {
		mod := byPath[idx.IDToName[id]]
		deps := make([]project.Digest, 0, len(mod.Imports)+1)
		deps = append(deps, stamp)
		for _, imp := range importPaths(mod) {
			deps = append(deps, byPath[imp].Digest)
		}
		mod.Digest = project.Combine(fs.Get(mod.Source).Hash, deps...)
	}
}

// probeCaches returns the whole cached program iff every module hits.
// Partial hits rebuild everything: ownership inference is a global
// fixed point, so stale neighbors cannot be trusted piecemeal.
func probeCaches(mem *MemCache, disk *DiskCache, idx project.Index, mods []*project.Module, topo *project.Topo) (*lower.Program, int) {
	byPath := make(map[string]*project.Module, len(mods))
	for _, mod := range mods {
		byPath[mod.Path] = mod
	}
	prog := &lower.Program{Modules: make([]lower.Module, 0, len(mods))}
	hits := 0
	for _, id := range topo.Order {
		mod := byPath[idx.IDToName[id]]
		if cached, ok := mem.Get(mod.Digest); ok {
			prog.Modules = append(prog.Modules, *cached)
			hits++
			continue
		}
		var payload Payload
		if ok, err := disk.Get(mod.Digest, &payload); err == nil && ok {
			mem.Put(mod.Digest, &payload.Module)
			prog.Modules = append(prog.Modules, payload.Module)
			hits++
			continue
		}
		return nil, 0
	}
	return prog, hits
}

func storeCaches(mem *MemCache, disk *DiskCache, byPath map[string]*project.Module, prog *lower.Program) {
	for i := range prog.Modules {
		lm := &prog.Modules[i]
		mod, ok := byPath[lm.Path]
		if !ok {
			continue
		}
		mem.Put(mod.Digest, lm)
		// Disk failures are non-fatal; the next build recomputes.
		_ = disk.Put(mod.Digest, &Payload{Schema: PayloadSchema, Module: *lm})
	}
}
