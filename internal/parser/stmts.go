package parser

import (
	"gale/internal/ast"
	"gale/internal/diag"
	"gale/internal/token"
)

func (p *Parser) parseBlock() ast.BlockID {
	start := p.expect(token.LBrace).Span
	var stmts []ast.StmtID
	var tail ast.ExprID

	for !p.at(token.RBrace) && !p.at(token.EOF) {
		if p.eat(token.Semi) {
			continue
		}
		switch p.peek().Kind {
		case token.KwLet:
			stmts = append(stmts, p.parseLet())
		case token.KwReturn:
			stmts = append(stmts, p.parseReturn())
		case token.KwBreak:
			sp := p.next().Span
			stmts = append(stmts, p.builder.NewStmt(ast.Stmt{Kind: ast.StmtBreak, Span: sp}))
		case token.KwContinue:
			sp := p.next().Span
			stmts = append(stmts, p.builder.NewStmt(ast.Stmt{Kind: ast.StmtContinue, Span: sp}))
		case token.KwWhile:
			stmts = append(stmts, p.parseWhile())
		case token.KwFor:
			stmts = append(stmts, p.parseFor())
		case token.KwLoop:
			stmts = append(stmts, p.parseLoop())
		default:
			stmtID, expr := p.parseExprOrAssign()
			if stmtID.IsValid() {
				stmts = append(stmts, stmtID)
				continue
			}
			// An expression followed by `}` is the block's value.
			if p.at(token.RBrace) {
				tail = expr
			} else {
				stmts = append(stmts, p.builder.NewStmt(ast.Stmt{
					Kind: ast.StmtExpr,
					Span: p.builder.Expr(expr).Span,
					Init: expr,
				}))
			}
		}
	}
	p.expect(token.RBrace)
	return p.builder.NewBlock(ast.Block{
		Span:  p.spanFrom(start),
		Stmts: stmts,
		Tail:  tail,
	})
}

func (p *Parser) parseLet() ast.StmtID {
	start := p.expect(token.KwLet).Span
	mut := p.eat(token.KwMut)
	name, _, ok := p.expectIdent()
	if !ok {
		p.next()
		return p.builder.NewStmt(ast.Stmt{Kind: ast.StmtInvalid, Span: start})
	}
	var typ ast.TypeID
	if p.eat(token.Colon) {
		typ = p.parseType()
	}
	p.expect(token.Assign)
	init := p.parseExpr()
	p.eat(token.Semi)
	return p.builder.NewStmt(ast.Stmt{
		Kind: ast.StmtLet,
		Span: p.spanFrom(start),
		Name: name,
		Mut:  mut,
		Type: typ,
		Init: init,
	})
}

func (p *Parser) parseReturn() ast.StmtID {
	start := p.expect(token.KwReturn).Span
	var value ast.ExprID
	if !p.at(token.RBrace) && !p.at(token.Semi) && !p.at(token.EOF) {
		value = p.parseExpr()
	}
	p.eat(token.Semi)
	return p.builder.NewStmt(ast.Stmt{
		Kind: ast.StmtReturn,
		Span: p.spanFrom(start),
		Init: value,
	})
}

func (p *Parser) parseWhile() ast.StmtID {
	start := p.expect(token.KwWhile).Span
	cond := p.parseHeaderExpr()
	body := p.parseBlock()
	return p.builder.NewStmt(ast.Stmt{
		Kind:   ast.StmtWhile,
		Span:   p.spanFrom(start),
		Target: cond,
		Body:   body,
	})
}

func (p *Parser) parseFor() ast.StmtID {
	start := p.expect(token.KwFor).Span
	name, nameSpan, ok := p.expectIdent()
	if !ok {
		diag.Error(p.reporter, diag.SynBadForHeader, nameSpan,
			"expected loop binding after `for`").Emit()
	}
	p.expect(token.KwIn)
	iter := p.parseHeaderExpr()
	body := p.parseBlock()
	return p.builder.NewStmt(ast.Stmt{
		Kind:   ast.StmtFor,
		Span:   p.spanFrom(start),
		Name:   name,
		Target: iter,
		Body:   body,
	})
}

func (p *Parser) parseLoop() ast.StmtID {
	start := p.expect(token.KwLoop).Span
	body := p.parseBlock()
	return p.builder.NewStmt(ast.Stmt{
		Kind: ast.StmtLoop,
		Span: p.spanFrom(start),
		Body: body,
	})
}

// parseExprOrAssign parses an expression and, if an assignment operator
// follows, wraps it into an assignment statement. Exactly one of the
// returned ids is valid.
func (p *Parser) parseExprOrAssign() (ast.StmtID, ast.ExprID) {
	target := p.parseExpr()
	op := p.peek().Kind
	if op == token.Assign || op.IsCompoundAssign() {
		p.next()
		value := p.parseExpr()
		p.eat(token.Semi)
		stmt := p.builder.NewStmt(ast.Stmt{
			Kind:   ast.StmtAssign,
			Span:   p.builder.Expr(target).Span.Cover(p.builder.Expr(value).Span),
			Target: target,
			Op:     op,
			Init:   value,
		})
		return stmt, ast.NoExprID
	}
	return ast.NoStmtID, target
}

// parseHeaderExpr parses a condition/iterand where `{` starts the body,
// so struct literals are not admitted.
func (p *Parser) parseHeaderExpr() ast.ExprID {
	saved := p.noStructLit
	p.noStructLit = true
	e := p.parseExpr()
	p.noStructLit = saved
	return e
}

func litFromToken(t token.Token) ast.Lit {
	switch t.Kind {
	case token.IntLit:
		return ast.Lit{Kind: ast.LitInt, Text: t.Text}
	case token.FloatLit:
		return ast.Lit{Kind: ast.LitFloat, Text: t.Text}
	case token.StringLit:
		return ast.Lit{Kind: ast.LitString, Text: t.Text}
	case token.CharLit:
		return ast.Lit{Kind: ast.LitChar, Text: t.Text}
	case token.KwTrue:
		return ast.Lit{Kind: ast.LitBool, Bool: true}
	case token.KwFalse:
		return ast.Lit{Kind: ast.LitBool, Bool: false}
	}
	return ast.Lit{Kind: ast.LitUnit}
}
