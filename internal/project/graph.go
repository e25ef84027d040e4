package project

import (
	"fmt"
	"slices"
	"sort"

	"fortio.org/safecast"
)

// ModuleID indexes a module inside one Graph.
type ModuleID uint32

// Index assigns dense IDs to module paths in sorted order.
type Index struct {
	NameToID map[string]ModuleID
	IDToName []string
}

// BuildIndex collects unique module paths and hands out IDs
// deterministically.
func BuildIndex(mods []*Module) Index {
	uniq := make(map[string]struct{}, len(mods))
	for _, m := range mods {
		uniq[m.Path] = struct{}{}
	}
	paths := make([]string, 0, len(uniq))
	for p := range uniq {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	nameToID := make(map[string]ModuleID, len(paths))
	for i, p := range paths {
		nameToID[p] = ModuleID(i)
	}
	return Index{NameToID: nameToID, IDToName: paths}
}

// Graph holds dependency edges between modules. Deps[m] lists what m
// imports; importers is the reverse direction used by the topo walk.
type Graph struct {
	Deps      [][]ModuleID
	importers [][]ModuleID
}

// BuildGraph wires import edges. Imports of unknown modules are
// skipped here; the binder already reported them.
func BuildGraph(idx Index, mods []*Module) Graph {
	n := len(idx.IDToName)
	g := Graph{
		Deps:      make([][]ModuleID, n),
		importers: make([][]ModuleID, n),
	}
	for _, m := range mods {
		from, ok := idx.NameToID[m.Path]
		if !ok {
			continue
		}
		seen := make(map[ModuleID]struct{}, len(m.Imports))
		for _, imp := range m.Imports {
			to, ok := idx.NameToID[imp.Path]
			if !ok || to == from {
				continue
			}
			if _, dup := seen[to]; dup {
				continue
			}
			seen[to] = struct{}{}
			g.Deps[from] = append(g.Deps[from], to)
			g.importers[to] = append(g.importers[to], from)
		}
		slices.Sort(g.Deps[from])
	}
	return g
}

// Topo is a dependencies-first order over the graph. Batches are waves
// of modules whose deps are all in earlier waves; they can be analyzed
// in parallel. Cyclic modules are appended to Order in sorted ID order
// so processing still covers every module.
type Topo struct {
	Order   []ModuleID
	Batches [][]ModuleID
	Cyclic  bool
	Cycles  []ModuleID
}

// Toposort runs Kahn's algorithm starting from modules with no deps.
func Toposort(g Graph) *Topo {
	n := len(g.Deps)
	indeg := make([]int, n)
	for i := range g.Deps {
		indeg[i] = len(g.Deps[i])
	}

	topo := &Topo{Order: make([]ModuleID, 0, n)}
	current := make([]ModuleID, 0, n)
	for i := 0; i < n; i++ {
		if indeg[i] == 0 {
			current = append(current, mustModuleID(i))
		}
	}
	slices.Sort(current)

	visited := 0
	for len(current) > 0 {
		batch := make([]ModuleID, len(current))
		copy(batch, current)
		topo.Batches = append(topo.Batches, batch)

		next := make([]ModuleID, 0)
		for _, id := range batch {
			topo.Order = append(topo.Order, id)
			visited++
			for _, imp := range g.importers[int(id)] {
				indeg[int(imp)]--
				if indeg[int(imp)] == 0 {
					next = append(next, imp)
				}
			}
		}
		slices.Sort(next)
		current = next
	}

	if visited != n {
		topo.Cyclic = true
		for i := 0; i < n; i++ {
			if indeg[i] > 0 {
				topo.Cycles = append(topo.Cycles, mustModuleID(i))
			}
		}
		slices.Sort(topo.Cycles)
		topo.Order = append(topo.Order, topo.Cycles...)
		if len(topo.Cycles) > 0 {
			topo.Batches = append(topo.Batches, slices.Clone(topo.Cycles))
		}
	}
	return topo
}

func mustModuleID(i int) ModuleID {
	id, err := safecast.Conv[ModuleID](i)
	if err != nil {
		panic(fmt.Errorf("module id overflow: %w", err))
	}
	return id
}
