package driver

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gale/internal/lower"
	"gale/internal/rustgen"
)

// WriteProgram renders the program under outDir, one .rs file per
// module: the crate root becomes main.rs, module "a/b" becomes
// a/b.rs, and every parent file declares its children with pub mod.
func WriteProgram(prog *lower.Program, outDir string) error {
	children := make(map[string]map[string]struct{})
	addChild := func(parent, child string) {
		if children[parent] == nil {
			children[parent] = make(map[string]struct{})
		}
		children[parent][child] = struct{}{}
	}
	byPath := make(map[string]*lower.Module, len(prog.Modules))
	for i := range prog.Modules {
		m := &prog.Modules[i]
		byPath[m.Path] = m
		if m.Path == "" {
			continue
		}
		segs := strings.Split(m.Path, "/")
		parent := ""
		for _, seg := range segs {
			addChild(parent, seg)
			if parent == "" {
				parent = seg
			} else {
				parent += "/" + seg
			}
		}
	}

	write := func(path string, m *lower.Module) error {
		var buf bytes.Buffer
		for _, child := range sortedKeys(children[path]) {
			fmt.Fprintf(&buf, "pub mod %s;\n", child)
		}
		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		if m != nil {
			if err := rustgen.NewEmitter(&buf).Module(m); err != nil {
				return err
			}
		}
		file := filepath.Join(outDir, "main.rs")
		if path != "" {
			file = filepath.Join(outDir, filepath.FromSlash(path)+".rs")
		}
		if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
			return err
		}
		return os.WriteFile(file, buf.Bytes(), 0o644)
	}

	if err := write("", byPath[""]); err != nil {
		return fmt.Errorf("writing crate root: %w", err)
	}
	for i := range prog.Modules {
		m := &prog.Modules[i]
		if m.Path == "" {
			continue
		}
		if err := write(m.Path, m); err != nil {
			return fmt.Errorf("writing module %q: %w", m.Path, err)
		}
	}
	// Directory-only parents get a declaration file of their own.
	for parent := range children {
		if parent == "" {
			continue
		}
		if _, isModule := byPath[parent]; isModule {
			continue
		}
		if err := write(parent, nil); err != nil {
			return fmt.Errorf("writing module %q: %w", parent, err)
		}
	}
	return nil
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
