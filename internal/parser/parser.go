// Package parser builds the arena AST from a token stream.
package parser

import (
	"gale/internal/ast"
	"gale/internal/diag"
	"gale/internal/lexer"
	"gale/internal/source"
	"gale/internal/token"
)

type Parser struct {
	toks     []token.Token
	pos      int
	builder  *ast.Builder
	interner *source.Interner
	reporter diag.Reporter
	file     source.FileID

	// noStructLit suppresses struct-literal parsing inside if/match/
	// while/for headers where `{` opens the body.
	noStructLit bool
}

// ParseFile lexes and parses one source file into the shared builder,
// returning the ast.FileID of the parsed module.
func ParseFile(f *source.File, module string, builder *ast.Builder, interner *source.Interner, reporter diag.Reporter) ast.FileID {
	toks := lexer.ScanAll(f, interner, reporter)
	p := &Parser{
		toks:     toks,
		builder:  builder,
		interner: interner,
		reporter: reporter,
		file:     f.ID,
	}
	items := p.parseItems()
	return builder.AddFile(ast.File{
		Source: f.ID,
		Module: module,
		Items:  items,
	})
}

func (p *Parser) peek() token.Token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos]
}

func (p *Parser) peekAt(off int) token.Token {
	i := p.pos + off
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

func (p *Parser) next() token.Token {
	t := p.peek()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) at(kind token.Kind) bool {
	return p.peek().Kind == kind
}

func (p *Parser) eat(kind token.Kind) bool {
	if p.at(kind) {
		p.next()
		return true
	}
	return false
}

func (p *Parser) expect(kind token.Kind) token.Token {
	if p.at(kind) {
		return p.next()
	}
	got := p.peek()
	diag.Error(p.reporter, diag.SynUnexpectedToken, got.Span,
		"expected `"+kind.String()+"`, found `"+got.Kind.String()+"`").Emit()
	return token.Token{Kind: token.Error, Span: got.Span}
}

func (p *Parser) expectIdent() (source.StringID, source.Span, bool) {
	if p.at(token.Ident) {
		t := p.next()
		return t.Text, t.Span, true
	}
	got := p.peek()
	diag.Error(p.reporter, diag.SynExpectIdentifier, got.Span,
		"expected identifier, found `"+got.Kind.String()+"`").Emit()
	return source.NoStringID, got.Span, false
}

// spanFrom covers from a start span to the previous token's end.
func (p *Parser) spanFrom(start source.Span) source.Span {
	if p.pos == 0 {
		return start
	}
	return start.Cover(p.toks[p.pos-1].Span)
}

// syncTopLevel skips forward to the next plausible item start.
func (p *Parser) syncTopLevel() {
	for !p.at(token.EOF) {
		switch p.peek().Kind {
		case token.KwFn, token.KwStruct, token.KwEnum, token.KwTrait,
			token.KwImpl, token.KwUse, token.KwConst, token.At:
			return
		}
		p.next()
	}
}
