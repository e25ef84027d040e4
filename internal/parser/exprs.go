package parser

import (
	"gale/internal/ast"
	"gale/internal/diag"
	"gale/internal/source"
	"gale/internal/token"
)

// Binding powers, loosest first.
func binaryPower(kind token.Kind) int {
	switch kind {
	case token.OrOr:
		return 1
	case token.AndAnd:
		return 2
	case token.EqEq, token.NotEq:
		return 3
	case token.Lt, token.Gt, token.Le, token.Ge:
		return 4
	case token.Plus, token.Minus:
		return 5
	case token.Star, token.Slash, token.Percent:
		return 6
	}
	return 0
}

func (p *Parser) parseExpr() ast.ExprID {
	return p.parseBinary(1)
}

func (p *Parser) parseBinary(minPower int) ast.ExprID {
	lhs := p.parseUnary()
	for {
		power := binaryPower(p.peek().Kind)
		if power < minPower || power == 0 {
			return lhs
		}
		op := p.next().Kind
		rhs := p.parseBinary(power + 1)
		span := p.builder.Expr(lhs).Span.Cover(p.builder.Expr(rhs).Span)
		lhs = p.builder.NewExpr(ast.Expr{
			Kind: ast.ExprBinary,
			Span: span,
			Op:   op,
			X:    lhs,
			Y:    rhs,
		})
	}
}

func (p *Parser) parseUnary() ast.ExprID {
	start := p.peek().Span
	switch p.peek().Kind {
	case token.Not, token.Minus, token.Star:
		op := p.next().Kind
		operand := p.parseUnary()
		return p.builder.NewExpr(ast.Expr{
			Kind: ast.ExprUnary,
			Span: p.spanFrom(start),
			Op:   op,
			X:    operand,
		})
	case token.Amp:
		p.next()
		mut := p.eat(token.KwMut)
		operand := p.parseUnary()
		return p.builder.NewExpr(ast.Expr{
			Kind: ast.ExprRef,
			Span: p.spanFrom(start),
			X:    operand,
			Mut:  mut,
		})
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() ast.ExprID {
	e := p.parsePrimary()
	for {
		switch p.peek().Kind {
		case token.Dot:
			p.next()
			name, _, ok := p.expectIdent()
			if !ok {
				return e
			}
			if p.at(token.LParen) {
				args := p.parseCallArgs()
				e = p.builder.NewExpr(ast.Expr{
					Kind: ast.ExprMethodCall,
					Span: p.spanFrom(p.builder.Expr(e).Span),
					X:    e,
					Name: name,
					Args: args,
				})
			} else {
				e = p.builder.NewExpr(ast.Expr{
					Kind: ast.ExprField,
					Span: p.spanFrom(p.builder.Expr(e).Span),
					X:    e,
					Name: name,
				})
			}
		case token.LParen:
			args := p.parseCallArgs()
			e = p.builder.NewExpr(ast.Expr{
				Kind: ast.ExprCall,
				Span: p.spanFrom(p.builder.Expr(e).Span),
				X:    e,
				Args: args,
			})
		case token.LBracket:
			p.next()
			idx := p.parseExpr()
			p.expect(token.RBracket)
			e = p.builder.NewExpr(ast.Expr{
				Kind: ast.ExprIndex,
				Span: p.spanFrom(p.builder.Expr(e).Span),
				X:    e,
				Y:    idx,
			})
		default:
			return e
		}
	}
}

func (p *Parser) parseCallArgs() []ast.ExprID {
	p.expect(token.LParen)
	var args []ast.ExprID
	saved := p.noStructLit
	p.noStructLit = false
	for !p.at(token.RParen) && !p.at(token.EOF) {
		args = append(args, p.parseExpr())
		if !p.eat(token.Comma) {
			break
		}
	}
	p.noStructLit = saved
	p.expect(token.RParen)
	return args
}

func (p *Parser) parsePrimary() ast.ExprID {
	start := p.peek().Span
	switch p.peek().Kind {
	case token.IntLit, token.FloatLit, token.StringLit, token.CharLit,
		token.KwTrue, token.KwFalse:
		t := p.next()
		return p.builder.NewExpr(ast.Expr{
			Kind: ast.ExprLit,
			Span: t.Span,
			Lit:  litFromToken(t),
		})

	case token.KwSelf:
		t := p.next()
		return p.builder.NewExpr(ast.Expr{Kind: ast.ExprSelf, Span: t.Span})

	case token.Ident:
		if p.peekAt(1).Kind == token.ColonColon {
			path := p.parsePathSegments()
			span := p.spanFrom(start)
			if p.at(token.LBrace) && !p.noStructLit {
				return p.parseStructLit(path, start)
			}
			return p.builder.NewExpr(ast.Expr{
				Kind: ast.ExprPath,
				Span: span,
				Path: path,
			})
		}
		t := p.next()
		if p.at(token.LBrace) && !p.noStructLit {
			return p.parseStructLit([]source.StringID{t.Text}, start)
		}
		return p.builder.NewExpr(ast.Expr{
			Kind: ast.ExprIdent,
			Span: t.Span,
			Name: t.Text,
		})

	case token.LParen:
		p.next()
		if p.eat(token.RParen) {
			return p.builder.NewExpr(ast.Expr{
				Kind: ast.ExprLit,
				Span: p.spanFrom(start),
				Lit:  ast.Lit{Kind: ast.LitUnit},
			})
		}
		saved := p.noStructLit
		p.noStructLit = false
		first := p.parseExpr()
		if p.at(token.Comma) {
			elems := []ast.ExprID{first}
			for p.eat(token.Comma) {
				if p.at(token.RParen) {
					break
				}
				elems = append(elems, p.parseExpr())
			}
			p.noStructLit = saved
			p.expect(token.RParen)
			return p.builder.NewExpr(ast.Expr{
				Kind: ast.ExprTuple,
				Span: p.spanFrom(start),
				Args: elems,
			})
		}
		p.noStructLit = saved
		p.expect(token.RParen)
		return first

	case token.LBracket:
		return p.parseSeqOrMapLit(start)

	case token.KwIf:
		return p.parseIfExpr()

	case token.KwMatch:
		return p.parseMatchExpr()

	case token.LBrace:
		block := p.parseBlock()
		return p.builder.NewExpr(ast.Expr{
			Kind:  ast.ExprBlock,
			Span:  p.spanFrom(start),
			Block: block,
		})
	}

	got := p.next()
	diag.Error(p.reporter, diag.SynUnexpectedToken, got.Span,
		"expected expression, found `"+got.Kind.String()+"`").Emit()
	return p.builder.NewExpr(ast.Expr{Kind: ast.ExprInvalid, Span: got.Span})
}

func (p *Parser) parseStructLit(path []source.StringID, start source.Span) ast.ExprID {
	p.expect(token.LBrace)
	var names []source.StringID
	var values []ast.ExprID
	saved := p.noStructLit
	p.noStructLit = false
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		fname, fsp, ok := p.expectIdent()
		if !ok {
			p.next()
			continue
		}
		var value ast.ExprID
		if p.eat(token.Colon) {
			value = p.parseExpr()
		} else {
			// Field shorthand: `Point { x, y }`.
			value = p.builder.NewExpr(ast.Expr{
				Kind: ast.ExprIdent,
				Span: fsp,
				Name: fname,
			})
		}
		names = append(names, fname)
		values = append(values, value)
		if !p.eat(token.Comma) {
			break
		}
	}
	p.noStructLit = saved
	p.expect(token.RBrace)
	return p.builder.NewExpr(ast.Expr{
		Kind:  ast.ExprStructLit,
		Span:  p.spanFrom(start),
		Path:  path,
		Names: names,
		Args:  values,
	})
}

func (p *Parser) parseSeqOrMapLit(start source.Span) ast.ExprID {
	p.expect(token.LBracket)
	saved := p.noStructLit
	p.noStructLit = false
	defer func() { p.noStructLit = saved }()

	if p.eat(token.RBracket) {
		return p.builder.NewExpr(ast.Expr{
			Kind: ast.ExprSeqLit,
			Span: p.spanFrom(start),
		})
	}
	first := p.parseExpr()
	if p.eat(token.Colon) {
		// Map literal: [k: v, …].
		pairs := []ast.ExprID{first, p.parseExpr()}
		for p.eat(token.Comma) {
			if p.at(token.RBracket) {
				break
			}
			pairs = append(pairs, p.parseExpr())
			p.expect(token.Colon)
			pairs = append(pairs, p.parseExpr())
		}
		p.expect(token.RBracket)
		return p.builder.NewExpr(ast.Expr{
			Kind: ast.ExprMapLit,
			Span: p.spanFrom(start),
			Args: pairs,
		})
	}
	elems := []ast.ExprID{first}
	for p.eat(token.Comma) {
		if p.at(token.RBracket) {
			break
		}
		elems = append(elems, p.parseExpr())
	}
	p.expect(token.RBracket)
	return p.builder.NewExpr(ast.Expr{
		Kind: ast.ExprSeqLit,
		Span: p.spanFrom(start),
		Args: elems,
	})
}

func (p *Parser) parseIfExpr() ast.ExprID {
	start := p.expect(token.KwIf).Span
	cond := p.parseHeaderExpr()
	then := p.parseBlock()
	var els ast.ExprID
	if p.eat(token.KwElse) {
		if p.at(token.KwIf) {
			els = p.parseIfExpr()
		} else {
			blockStart := p.peek().Span
			block := p.parseBlock()
			els = p.builder.NewExpr(ast.Expr{
				Kind:  ast.ExprBlock,
				Span:  p.spanFrom(blockStart),
				Block: block,
			})
		}
	}
	return p.builder.NewExpr(ast.Expr{
		Kind:  ast.ExprIf,
		Span:  p.spanFrom(start),
		X:     cond,
		Block: then,
		Else:  els,
	})
}

func (p *Parser) parseMatchExpr() ast.ExprID {
	start := p.expect(token.KwMatch).Span
	scrutinee := p.parseHeaderExpr()
	p.expect(token.LBrace)
	var arms []ast.MatchArm
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		pat := p.parsePattern()
		if !p.eat(token.FatArrow) {
			diag.Error(p.reporter, diag.SynBadMatchArm, p.peek().Span,
				"expected `=>` after match pattern").Emit()
			p.next()
			continue
		}
		body := p.parseExpr()
		arms = append(arms, ast.MatchArm{
			Span: pat.Span.Cover(p.builder.Expr(body).Span),
			Pat:  pat,
			Body: body,
		})
		p.eat(token.Comma)
	}
	p.expect(token.RBrace)
	return p.builder.NewExpr(ast.Expr{
		Kind: ast.ExprMatch,
		Span: p.spanFrom(start),
		X:    scrutinee,
		Arms: arms,
	})
}

func (p *Parser) parsePattern() ast.Pattern {
	start := p.peek().Span
	switch p.peek().Kind {
	case token.Underscore:
		t := p.next()
		return ast.Pattern{Kind: ast.PatWildcard, Span: t.Span}

	case token.IntLit, token.FloatLit, token.StringLit, token.CharLit,
		token.KwTrue, token.KwFalse:
		t := p.next()
		return ast.Pattern{Kind: ast.PatLit, Span: t.Span, Lit: litFromToken(t)}

	case token.Ident:
		if p.peekAt(1).Kind != token.ColonColon {
			t := p.next()
			return ast.Pattern{Kind: ast.PatBinding, Span: t.Span, Name: t.Text}
		}
		path := p.parsePathSegments()
		var binders []source.StringID
		if p.eat(token.LParen) {
			for !p.at(token.RParen) && !p.at(token.EOF) {
				if p.at(token.Underscore) {
					p.next()
					binders = append(binders, source.NoStringID)
				} else if name, _, ok := p.expectIdent(); ok {
					binders = append(binders, name)
				} else {
					break
				}
				if !p.eat(token.Comma) {
					break
				}
			}
			p.expect(token.RParen)
		}
		return ast.Pattern{
			Kind:    ast.PatVariant,
			Span:    p.spanFrom(start),
			Path:    path,
			Binders: binders,
		}
	}

	got := p.next()
	diag.Error(p.reporter, diag.SynBadMatchArm, got.Span,
		"expected pattern, found `"+got.Kind.String()+"`").Emit()
	return ast.Pattern{Kind: ast.PatWildcard, Span: got.Span}
}
