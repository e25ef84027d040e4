package parser

import (
	"gale/internal/ast"
	"gale/internal/diag"
	"gale/internal/source"
	"gale/internal/token"
)

// parseType parses a syntactic type, including the postfix `?` option
// shorthand.
func (p *Parser) parseType() ast.TypeID {
	id := p.parseTypePrimary()
	for p.eat(token.Question) {
		span := p.spanFrom(p.typeSpan(id))
		id = p.builder.NewTypeSyn(ast.TypeSyn{
			Kind: ast.TypeSynOption,
			Span: span,
			Args: []ast.TypeID{id},
		})
	}
	return id
}

func (p *Parser) typeSpan(id ast.TypeID) source.Span {
	if ts := p.builder.TypeSyn(id); ts != nil {
		return ts.Span
	}
	return p.peek().Span
}

func (p *Parser) parseTypePrimary() ast.TypeID {
	start := p.peek().Span
	switch p.peek().Kind {
	case token.Amp:
		p.next()
		mut := p.eat(token.KwMut)
		inner := p.parseTypePrimary()
		return p.builder.NewTypeSyn(ast.TypeSyn{
			Kind: ast.TypeSynRef,
			Span: p.spanFrom(start),
			Args: []ast.TypeID{inner},
			Mut:  mut,
		})

	case token.LBracket:
		p.next()
		first := p.parseType()
		if p.eat(token.Colon) {
			val := p.parseType()
			p.expect(token.RBracket)
			return p.builder.NewTypeSyn(ast.TypeSyn{
				Kind: ast.TypeSynMap,
				Span: p.spanFrom(start),
				Args: []ast.TypeID{first, val},
			})
		}
		p.expect(token.RBracket)
		return p.builder.NewTypeSyn(ast.TypeSyn{
			Kind: ast.TypeSynSeq,
			Span: p.spanFrom(start),
			Args: []ast.TypeID{first},
		})

	case token.LParen:
		p.next()
		if p.eat(token.RParen) {
			return p.builder.NewTypeSyn(ast.TypeSyn{
				Kind: ast.TypeSynUnit,
				Span: p.spanFrom(start),
			})
		}
		var elems []ast.TypeID
		elems = append(elems, p.parseType())
		for p.eat(token.Comma) {
			if p.at(token.RParen) {
				break
			}
			elems = append(elems, p.parseType())
		}
		p.expect(token.RParen)
		if len(elems) == 1 {
			return elems[0]
		}
		return p.builder.NewTypeSyn(ast.TypeSyn{
			Kind: ast.TypeSynTuple,
			Span: p.spanFrom(start),
			Args: elems,
		})

	case token.KwFn:
		p.next()
		p.expect(token.LParen)
		var params []ast.TypeID
		for !p.at(token.RParen) && !p.at(token.EOF) {
			params = append(params, p.parseType())
			if !p.eat(token.Comma) {
				break
			}
		}
		p.expect(token.RParen)
		var ret ast.TypeID
		if p.eat(token.Arrow) {
			ret = p.parseType()
		}
		return p.builder.NewTypeSyn(ast.TypeSyn{
			Kind: ast.TypeSynFn,
			Span: p.spanFrom(start),
			Args: params,
			Ret:  ret,
		})

	case token.KwDyn:
		p.next()
		path := p.parsePathSegments()
		return p.builder.NewTypeSyn(ast.TypeSyn{
			Kind: ast.TypeSynTraitObject,
			Span: p.spanFrom(start),
			Path: path,
		})

	case token.KwSelfType:
		p.next()
		return p.builder.NewTypeSyn(ast.TypeSyn{
			Kind: ast.TypeSynSelf,
			Span: p.spanFrom(start),
		})

	case token.Ident:
		path := p.parsePathSegments()
		var args []ast.TypeID
		if p.eat(token.Lt) {
			for !p.at(token.Gt) && !p.at(token.EOF) {
				args = append(args, p.parseType())
				if !p.eat(token.Comma) {
					break
				}
			}
			p.expect(token.Gt)
		}
		return p.builder.NewTypeSyn(ast.TypeSyn{
			Kind: ast.TypeSynNamed,
			Span: p.spanFrom(start),
			Path: path,
			Args: args,
		})
	}

	diag.Error(p.reporter, diag.SynExpectType, start,
		"expected type, found `"+p.peek().Kind.String()+"`").Emit()
	p.next()
	return p.builder.NewTypeSyn(ast.TypeSyn{Kind: ast.TypeSynInvalid, Span: start})
}
