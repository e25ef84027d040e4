package parser

import (
	"gale/internal/ast"
	"gale/internal/diag"
	"gale/internal/source"
	"gale/internal/token"
)

func (p *Parser) parseItems() []ast.ItemID {
	var items []ast.ItemID
	for !p.at(token.EOF) {
		attrs := p.parseAttrs()
		start := p.peek().Span
		switch p.peek().Kind {
		case token.KwUse:
			items = append(items, p.parseUse())
		case token.KwFn:
			fnID := p.parseFn(attrs)
			if fnID.IsValid() {
				fn := p.builder.Fn(fnID)
				items = append(items, p.builder.NewItem(ast.Item{
					Kind:    ast.ItemFn,
					Span:    fn.Span,
					Name:    fn.Name,
					Payload: uint32(fnID),
				}))
			}
		case token.KwStruct:
			items = append(items, p.parseStruct(attrs))
		case token.KwEnum:
			items = append(items, p.parseEnum(attrs))
		case token.KwTrait:
			items = append(items, p.parseTrait())
		case token.KwImpl:
			items = append(items, p.parseImpl())
		case token.KwConst:
			items = append(items, p.parseConst())
		default:
			diag.Error(p.reporter, diag.SynUnexpectedTopLevel, start,
				"expected item, found `"+p.peek().Kind.String()+"`").Emit()
			p.next()
			p.syncTopLevel()
		}
	}
	return items
}

// parseAttrs consumes zero or more `@name` capability decorators.
func (p *Parser) parseAttrs() []source.StringID {
	var attrs []source.StringID
	for p.at(token.At) {
		p.next()
		if name, _, ok := p.expectIdent(); ok {
			attrs = append(attrs, name)
		}
	}
	return attrs
}

func (p *Parser) parseUse() ast.ItemID {
	start := p.expect(token.KwUse).Span
	segs, glob := p.parseUsePath()
	var alias source.StringID
	if !glob && p.eat(token.KwAs) {
		name, sp, ok := p.expectIdent()
		if !ok {
			diag.Error(p.reporter, diag.SynExpectIdentAfterAs, sp,
				"expected alias after `as`").Emit()
		}
		alias = name
	}
	p.eat(token.Semi)
	span := p.spanFrom(start)
	id := p.builder.Uses.Allocate(ast.UseDecl{
		Segments: segs,
		Alias:    alias,
		Span:     span,
		Glob:     glob,
	})
	var leaf source.StringID
	if len(segs) > 0 {
		leaf = segs[len(segs)-1]
	}
	return p.builder.NewItem(ast.Item{
		Kind:    ast.ItemUse,
		Span:    span,
		Name:    leaf,
		Payload: id,
	})
}

// parsePathSegments reads `a::b::c`, interning the crate/super/self
// roots as ordinary segments for the resolver to interpret.
// parseUsePath is parsePathSegments plus a trailing `*` for globs.
func (p *Parser) parseUsePath() ([]source.StringID, bool) {
	var segs []source.StringID
	for {
		switch p.peek().Kind {
		case token.Ident:
			segs = append(segs, p.next().Text)
		case token.KwCrate:
			p.next()
			segs = append(segs, p.interner.Intern("crate"))
		case token.KwSuper:
			p.next()
			segs = append(segs, p.interner.Intern("super"))
		case token.KwSelf:
			p.next()
			segs = append(segs, p.interner.Intern("self"))
		case token.Star:
			p.next()
			return segs, true
		default:
			p.expectIdent()
			return segs, false
		}
		if !p.eat(token.ColonColon) {
			return segs, false
		}
	}
}

func (p *Parser) parsePathSegments() []source.StringID {
	var segs []source.StringID
	for {
		switch p.peek().Kind {
		case token.Ident:
			segs = append(segs, p.next().Text)
		case token.KwCrate:
			p.next()
			segs = append(segs, p.interner.Intern("crate"))
		case token.KwSuper:
			p.next()
			segs = append(segs, p.interner.Intern("super"))
		case token.KwSelf:
			p.next()
			segs = append(segs, p.interner.Intern("self"))
		default:
			p.expectIdent()
			return segs
		}
		if !p.eat(token.ColonColon) {
			return segs
		}
	}
}

func (p *Parser) parseFn(attrs []source.StringID) ast.FnID {
	start := p.expect(token.KwFn).Span
	name, nameSpan, ok := p.expectIdent()
	if !ok {
		p.syncTopLevel()
		return ast.NoFnID
	}

	var typeParams []source.StringID
	if p.eat(token.Lt) {
		for !p.at(token.Gt) && !p.at(token.EOF) {
			if tp, _, ok := p.expectIdent(); ok {
				typeParams = append(typeParams, tp)
			} else {
				break
			}
			if !p.eat(token.Comma) {
				break
			}
		}
		p.expect(token.Gt)
	}

	p.expect(token.LParen)
	hasSelf := false
	var selfSpan source.Span
	var params []ast.Param
	first := true
	for !p.at(token.RParen) && !p.at(token.EOF) {
		if !first && !p.eat(token.Comma) {
			break
		}
		first = false
		if p.at(token.RParen) {
			break
		}
		if p.at(token.KwSelf) {
			t := p.next()
			hasSelf = true
			selfSpan = t.Span
			continue
		}
		pname, psp, ok := p.expectIdent()
		if !ok {
			break
		}
		var ptype ast.TypeID
		if p.eat(token.Colon) {
			ptype = p.parseType()
		}
		params = append(params, ast.Param{Name: pname, Type: ptype, Span: psp})
	}
	p.expect(token.RParen)

	var ret ast.TypeID
	if p.eat(token.Arrow) {
		ret = p.parseType()
	}

	body := p.parseBlock()
	return ast.FnID(p.builder.Fns.Allocate(ast.FnDecl{
		Name:       name,
		Span:       p.spanFrom(start),
		NameSpan:   nameSpan,
		HasSelf:    hasSelf,
		SelfSpan:   selfSpan,
		TypeParams: typeParams,
		Params:     params,
		Ret:        ret,
		Body:       body,
		Attrs:      attrs,
	}))
}

func (p *Parser) parseStruct(attrs []source.StringID) ast.ItemID {
	start := p.expect(token.KwStruct).Span
	name, _, _ := p.expectIdent()

	var typeParams []source.StringID
	if p.eat(token.Lt) {
		for !p.at(token.Gt) && !p.at(token.EOF) {
			if tp, _, ok := p.expectIdent(); ok {
				typeParams = append(typeParams, tp)
			}
			if !p.eat(token.Comma) {
				break
			}
		}
		p.expect(token.Gt)
	}

	p.expect(token.LBrace)
	var fields []ast.FieldDef
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		fname, fsp, ok := p.expectIdent()
		if !ok {
			p.next()
			continue
		}
		p.expect(token.Colon)
		ftype := p.parseType()
		fields = append(fields, ast.FieldDef{Name: fname, Type: ftype, Span: fsp})
		p.eat(token.Comma)
	}
	p.expect(token.RBrace)

	span := p.spanFrom(start)
	id := p.builder.Structs.Allocate(ast.StructDecl{
		Name:       name,
		Span:       span,
		TypeParams: typeParams,
		Fields:     fields,
		Attrs:      attrs,
	})
	return p.builder.NewItem(ast.Item{Kind: ast.ItemStruct, Span: span, Name: name, Payload: id})
}

func (p *Parser) parseEnum(attrs []source.StringID) ast.ItemID {
	start := p.expect(token.KwEnum).Span
	name, _, _ := p.expectIdent()

	var typeParams []source.StringID
	if p.eat(token.Lt) {
		for !p.at(token.Gt) && !p.at(token.EOF) {
			if tp, _, ok := p.expectIdent(); ok {
				typeParams = append(typeParams, tp)
			}
			if !p.eat(token.Comma) {
				break
			}
		}
		p.expect(token.Gt)
	}

	p.expect(token.LBrace)
	var variants []ast.VariantDef
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		vname, vsp, ok := p.expectIdent()
		if !ok {
			p.next()
			continue
		}
		var payload []ast.TypeID
		if p.eat(token.LParen) {
			for !p.at(token.RParen) && !p.at(token.EOF) {
				payload = append(payload, p.parseType())
				if !p.eat(token.Comma) {
					break
				}
			}
			p.expect(token.RParen)
		}
		variants = append(variants, ast.VariantDef{Name: vname, Payload: payload, Span: vsp})
		p.eat(token.Comma)
	}
	p.expect(token.RBrace)

	span := p.spanFrom(start)
	id := p.builder.Enums.Allocate(ast.EnumDecl{
		Name:       name,
		Span:       span,
		TypeParams: typeParams,
		Variants:   variants,
		Attrs:      attrs,
	})
	return p.builder.NewItem(ast.Item{Kind: ast.ItemEnum, Span: span, Name: name, Payload: id})
}

func (p *Parser) parseTrait() ast.ItemID {
	start := p.expect(token.KwTrait).Span
	name, _, _ := p.expectIdent()
	p.expect(token.LBrace)

	var methods []ast.TraitMethodDef
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		mstart := p.expect(token.KwFn).Span
		mname, _, ok := p.expectIdent()
		if !ok {
			p.next()
			continue
		}
		p.expect(token.LParen)
		hasSelf := false
		var params []ast.Param
		first := true
		for !p.at(token.RParen) && !p.at(token.EOF) {
			if !first && !p.eat(token.Comma) {
				break
			}
			first = false
			if p.at(token.RParen) {
				break
			}
			if p.at(token.KwSelf) {
				p.next()
				hasSelf = true
				continue
			}
			pname, psp, ok := p.expectIdent()
			if !ok {
				break
			}
			p.expect(token.Colon)
			ptype := p.parseType()
			params = append(params, ast.Param{Name: pname, Type: ptype, Span: psp})
		}
		p.expect(token.RParen)
		var ret ast.TypeID
		if p.eat(token.Arrow) {
			ret = p.parseType()
		}
		p.eat(token.Semi)
		methods = append(methods, ast.TraitMethodDef{
			Name:    mname,
			Span:    p.spanFrom(mstart),
			HasSelf: hasSelf,
			Params:  params,
			Ret:     ret,
		})
	}
	p.expect(token.RBrace)

	span := p.spanFrom(start)
	id := p.builder.Traits.Allocate(ast.TraitDecl{Name: name, Span: span, Methods: methods})
	return p.builder.NewItem(ast.Item{Kind: ast.ItemTrait, Span: span, Name: name, Payload: id})
}

func (p *Parser) parseImpl() ast.ItemID {
	start := p.expect(token.KwImpl).Span
	firstType := p.parseType()

	var traitPath []source.StringID
	target := firstType
	if p.eat(token.KwFor) {
		// `impl Trait for Type`: the first type must be a bare path.
		if ts := p.builder.TypeSyn(firstType); ts != nil && ts.Kind == ast.TypeSynNamed {
			traitPath = ts.Path
		} else {
			diag.Error(p.reporter, diag.SynUnexpectedToken, p.peek().Span,
				"expected trait name before `for`").Emit()
		}
		target = p.parseType()
	}

	p.expect(token.LBrace)
	var methods []ast.FnID
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		attrs := p.parseAttrs()
		if !p.at(token.KwFn) {
			diag.Error(p.reporter, diag.SynUnexpectedToken, p.peek().Span,
				"expected `fn` in impl block").Emit()
			p.next()
			continue
		}
		if fnID := p.parseFn(attrs); fnID.IsValid() {
			methods = append(methods, fnID)
		}
	}
	p.expect(token.RBrace)

	span := p.spanFrom(start)
	id := p.builder.Impls.Allocate(ast.ImplDecl{
		Target:    target,
		TraitPath: traitPath,
		Span:      span,
		Methods:   methods,
	})
	return p.builder.NewItem(ast.Item{Kind: ast.ItemImpl, Span: span, Payload: id})
}

func (p *Parser) parseConst() ast.ItemID {
	start := p.expect(token.KwConst).Span
	name, _, _ := p.expectIdent()
	p.expect(token.Colon)
	typ := p.parseType()
	p.expect(token.Assign)
	value := p.parseExpr()
	p.eat(token.Semi)

	span := p.spanFrom(start)
	id := p.builder.Consts.Allocate(ast.ConstDecl{
		Name:  name,
		Span:  span,
		Type:  typ,
		Value: value,
	})
	return p.builder.NewItem(ast.Item{Kind: ast.ItemConst, Span: span, Name: name, Payload: id})
}
