package driver

import (
	"gale/internal/ast"
	"gale/internal/diag"
	"gale/internal/lexer"
	"gale/internal/parser"
	"gale/internal/source"
	"gale/internal/token"
)

// TokenizeResult is the tokenize subcommand's payload.
type TokenizeResult struct {
	Tokens   []token.Token
	FileSet  *source.FileSet
	Interner *source.Interner
	Bag      *diag.Bag
}

// Tokenize lexes one file without going through a manifest.
func Tokenize(path string, maxDiagnostics int) (*TokenizeResult, error) {
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		return nil, err
	}
	interner := source.NewInterner()
	bag := diag.NewBag(maxDiagnostics)
	toks := lexer.ScanAll(fs.Get(id), interner, diag.BagReporter{Bag: bag})
	bag.Sort()
	return &TokenizeResult{Tokens: toks, FileSet: fs, Interner: interner, Bag: bag}, nil
}

// ParseResult is the parse subcommand's payload.
type ParseResult struct {
	File     ast.FileID
	Builder  *ast.Builder
	FileSet  *source.FileSet
	Interner *source.Interner
	Bag      *diag.Bag
}

// Parse parses one file without going through a manifest.
func Parse(path string, maxDiagnostics int) (*ParseResult, error) {
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		return nil, err
	}
	interner := source.NewInterner()
	builder := ast.NewBuilder()
	bag := diag.NewBag(maxDiagnostics)
	fileID := parser.ParseFile(fs.Get(id), "", builder, interner, diag.BagReporter{Bag: bag})
	bag.Sort()
	return &ParseResult{File: fileID, Builder: builder, FileSet: fs, Interner: interner, Bag: bag}, nil
}
