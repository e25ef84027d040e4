package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Manifest is the decoded gale.toml.
type Manifest struct {
	Package PackageSection `toml:"package"`
	Build   BuildSection   `toml:"build"`

	// Dir is the directory the manifest was loaded from.
	Dir string `toml:"-"`
}

// PackageSection is the [package] table.
type PackageSection struct {
	Name  string `toml:"name"`
	Src   string `toml:"src"`
	Entry string `toml:"entry"`
}

// BuildSection is the [build] table.
type BuildSection struct {
	Out string `toml:"out"`
}

// ErrPackageSectionMissing indicates that [package] is missing.
var ErrPackageSectionMissing = errors.New("missing [package]")

// ErrPackageNameMissing indicates that [package].name is missing.
var ErrPackageNameMissing = errors.New("missing [package].name")

// FindManifest walks up from startDir to locate gale.toml.
func FindManifest(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, "gale.toml")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadManifest parses a gale.toml and applies defaults: src "src",
// entry "main.ga", out "target".
func LoadManifest(path string) (*Manifest, error) {
	var m Manifest
	meta, err := toml.DecodeFile(path, &m)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return nil, fmt.Errorf("%s: %w", path, ErrPackageSectionMissing)
	}
	if strings.TrimSpace(m.Package.Name) == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrPackageNameMissing)
	}
	if m.Package.Src == "" {
		m.Package.Src = "src"
	}
	if m.Package.Entry == "" {
		m.Package.Entry = "main.ga"
	}
	if m.Build.Out == "" {
		m.Build.Out = "target"
	}
	m.Dir = filepath.Dir(path)
	return &m, nil
}

// SrcDir returns the absolute source directory.
func (m *Manifest) SrcDir() string {
	return filepath.Join(m.Dir, filepath.FromSlash(m.Package.Src))
}

// OutDir returns the absolute build output directory.
func (m *Manifest) OutDir() string {
	return filepath.Join(m.Dir, filepath.FromSlash(m.Build.Out))
}
