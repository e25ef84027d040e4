package source

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"fortio.org/safecast"
)

// FileSet owns every source file of a compilation and resolves spans
// back to paths and line/column positions.
type FileSet struct {
	files   []File
	index   map[string]FileID
	baseDir string
}

func NewFileSet() *FileSet {
	return &FileSet{
		files: make([]File, 0),
		index: make(map[string]FileID),
	}
}

func NewFileSetWithBase(baseDir string) *FileSet {
	fs := NewFileSet()
	fs.baseDir = baseDir
	return fs
}

func (fs *FileSet) BaseDir() string {
	if fs.baseDir == "" {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
	}
	return fs.baseDir
}

// Add stores normalized content under path and returns a fresh FileID.
// The index always points at the latest version of a path.
func (fs *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	hash := sha256.Sum256(content)
	lineIdx := buildLineIndex(content)
	normalized := filepath.ToSlash(path)

	n, err := safecast.Conv[uint32](len(fs.files))
	if err != nil {
		panic(fmt.Errorf("file set overflow: %w", err))
	}
	id := FileID(n)
	fs.files = append(fs.files, File{
		ID:      id,
		Path:    normalized,
		Content: content,
		LineIdx: lineIdx,
		Hash:    hash,
		Flags:   flags,
	})
	fs.index[normalized] = id
	return id
}

// AddVirtual registers in-memory content (tests, stdin).
func (fs *FileSet) AddVirtual(path string, content []byte) FileID {
	return fs.Add(path, normalize(content), FileVirtual)
}

// Load reads path from disk, normalizes BOM/CRLF and adds it.
func (fs *FileSet) Load(path string) (FileID, error) {
	full := path
	if !filepath.IsAbs(path) && fs.baseDir != "" {
		full = filepath.Join(fs.baseDir, path)
	}
	// #nosec G304 -- path comes from the project manifest or CLI
	raw, err := os.ReadFile(full)
	if err != nil {
		return 0, err
	}
	var flags FileFlags
	if bytes.HasPrefix(raw, []byte{0xEF, 0xBB, 0xBF}) {
		flags |= FileHadBOM
	}
	if bytes.Contains(raw, []byte("\r\n")) {
		flags |= FileNormalizedCRLF
	}
	return fs.Add(path, normalize(raw), flags), nil
}

func (fs *FileSet) Get(id FileID) *File {
	if int(id) >= len(fs.files) {
		return nil
	}
	return &fs.files[id]
}

func (fs *FileSet) ByPath(path string) (FileID, bool) {
	id, ok := fs.index[filepath.ToSlash(path)]
	return id, ok
}

func (fs *FileSet) Len() int {
	return len(fs.files)
}

// LineCol converts a byte offset into a 1-based line/column pair.
func (fs *FileSet) LineCol(id FileID, offset uint32) LineCol {
	f := fs.Get(id)
	if f == nil {
		return LineCol{Line: 1, Col: 1}
	}
	line := sort.Search(len(f.LineIdx), func(i int) bool {
		return f.LineIdx[i] > offset
	})
	var lineStart uint32
	if line > 0 {
		lineStart = f.LineIdx[line-1]
	}
	return LineCol{
		Line: uint32(line),
		Col:  offset - lineStart + 1,
	}
}

// Position resolves the start of a span for diagnostics.
func (fs *FileSet) Position(sp Span) Pos {
	f := fs.Get(sp.File)
	if f == nil {
		return Pos{Path: "<unknown>", Line: 1, Col: 1}
	}
	lc := fs.LineCol(sp.File, sp.Start)
	return Pos{Path: f.Path, Line: lc.Line, Col: lc.Col}
}

// LineContent returns the text of a 1-based line without its newline.
func (fs *FileSet) LineContent(id FileID, line uint32) string {
	f := fs.Get(id)
	if f == nil || line == 0 || int(line) > len(f.LineIdx) {
		return ""
	}
	start := f.LineIdx[line-1]
	var end uint32
	if int(line) < len(f.LineIdx) {
		end = f.LineIdx[line]
	} else {
		end = uint32(len(f.Content))
	}
	text := f.Content[start:end]
	text = bytes.TrimRight(text, "\n")
	return string(text)
}

// buildLineIndex records the byte offset of every line start.
func buildLineIndex(content []byte) []uint32 {
	idx := make([]uint32, 1, 64)
	idx[0] = 0
	for i, b := range content {
		if b == '\n' {
			idx = append(idx, uint32(i+1))
		}
	}
	return idx
}

// normalize strips a UTF-8 BOM and rewrites CRLF to LF.
func normalize(raw []byte) []byte {
	raw = bytes.TrimPrefix(raw, []byte{0xEF, 0xBB, 0xBF})
	return bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))
}
