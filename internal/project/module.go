package project

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gale/internal/ast"
	"gale/internal/source"
)

// State tracks how far a module has progressed through analysis.
// Header cycles across modules are fine; the binder registers every
// header before any import binds.
type State uint8

const (
	StateUnresolved State = iota
	StateResolvingHeaders
	StateHeadersReady
	StateResolvingBodies
	StateBodiesReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnresolved:
		return "unresolved"
	case StateResolvingHeaders:
		return "resolving-headers"
	case StateHeadersReady:
		return "headers-ready"
	case StateResolvingBodies:
		return "resolving-bodies"
	case StateBodiesReady:
		return "bodies-ready"
	case StateFailed:
		return "failed"
	default:
		return "invalid"
	}
}

// ImportRef is one resolved import edge with its declaration site.
type ImportRef struct {
	Path string
	Span source.Span
}

// Module is one source file under analysis. The crate root has the
// empty path.
type Module struct {
	Path    string
	File    string
	Source  source.FileID
	AST     ast.FileID
	State   State
	Digest  Digest
	Imports []ImportRef
}

// Discover walks the source tree of a manifest and lists its modules.
// The entry file becomes the crate root (empty path); every other .ga
// file is keyed by its slash-separated path without the extension.
func Discover(m *Manifest) ([]*Module, error) {
	src := m.SrcDir()
	info, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("source directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source path %q is not a directory", src)
	}
	entry := filepath.Join(src, filepath.FromSlash(m.Package.Entry))

	var mods []*Module
	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".ga") {
			return nil
		}
		key := ""
		if path != entry {
			rel, relErr := filepath.Rel(src, path)
			if relErr != nil {
				return relErr
			}
			key = filepath.ToSlash(strings.TrimSuffix(rel, ".ga"))
		}
		mods = append(mods, &Module{Path: key, File: path})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %q: %w", src, err)
	}

	sort.Slice(mods, func(i, j int) bool { return mods[i].Path < mods[j].Path })
	return mods, nil
}
