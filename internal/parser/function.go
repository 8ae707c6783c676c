package parser

import (
	"solar/internal/ast"
	"solar/internal/diag"
	"solar/internal/token"
)

// parseFunction handles function/constructor/fallback/receive declarations.
func (p *Parser) parseFunction(contract ast.ItemID) (ast.ItemID, bool) {
	lead := p.advance()
	start := lead.Span
	decl := ast.FunctionItem{Contract: contract, Mutability: ast.MutNonPayable}

	switch lead.Kind {
	case token.KwConstructor:
		decl.FnKind = ast.FnConstructor
		decl.NameSpan = lead.Span
	case token.KwFallback:
		decl.FnKind = ast.FnFallback
		decl.NameSpan = lead.Span
	case token.KwReceive:
		decl.FnKind = ast.FnReceive
		decl.NameSpan = lead.Span
	default:
		nameTok, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected function name")
		if !ok {
			return ast.NoItemID, false
		}
		decl.Name = p.intern(nameTok.Text)
		decl.NameSpan = nameTok.Span
	}

	params, ok := p.parseParameterList(false)
	if !ok {
		return ast.NoItemID, false
	}
	decl.Params = params

	if !p.parseFunctionHeader(&decl) {
		return ast.NoItemID, false
	}

	if p.eat(token.KwReturns) {
		if _, ok = p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after 'returns'"); !ok {
			return ast.NoItemID, false
		}
		rets, okR := p.parseParameterListTail(false)
		if !okR {
			return ast.NoItemID, false
		}
		decl.Returns = rets
	}

	switch {
	case p.at(token.Semicolon):
		p.advance()
	case p.at(token.LBrace):
		body, okB := p.parseBlock()
		if !okB {
			return ast.NoItemID, false
		}
		decl.Body = body
	default:
		p.err(diag.SynUnexpectedToken, "expected ';' or function body")
		return ast.NoItemID, false
	}

	return p.arenas.Items.NewFunction(start.Cover(p.lastSpan), decl), true
}

// parseFunctionHeader consumes visibility, mutability, virtual, override,
// and modifier invocations in any order.
func (p *Parser) parseFunctionHeader(decl *ast.FunctionItem) bool {
	for {
		peek := p.lx.Peek()
		switch peek.Kind {
		case token.KwPublic, token.KwPrivate, token.KwInternal, token.KwExternal:
			if decl.Visibility != ast.VisDefault {
				p.err(diag.SynBadVisibility, "visibility already specified")
				return false
			}
			switch peek.Kind {
			case token.KwPublic:
				decl.Visibility = ast.VisPublic
			case token.KwPrivate:
				decl.Visibility = ast.VisPrivate
			case token.KwInternal:
				decl.Visibility = ast.VisInternal
			case token.KwExternal:
				decl.Visibility = ast.VisExternal
			}
			p.advance()
		case token.KwPure:
			decl.Mutability = ast.MutPure
			p.advance()
		case token.KwView:
			decl.Mutability = ast.MutView
			p.advance()
		case token.KwPayable:
			decl.Mutability = ast.MutPayable
			p.advance()
		case token.KwVirtual:
			decl.Virtual = true
			p.advance()
		case token.KwOverride:
			decl.HasOverride = true
			list, ok := p.parseOverrideList()
			if !ok {
				return false
			}
			decl.OverrideList = list
		case token.Ident:
			inv, ok := p.parseModifierInvocation()
			if !ok {
				return false
			}
			decl.Modifiers = append(decl.Modifiers, inv)
		default:
			return true
		}
	}
}

func (p *Parser) parseModifierInvocation() (ast.ModifierInvocation, bool) {
	nameTok := p.advance()
	inv := ast.ModifierInvocation{Name: p.intern(nameTok.Text), Span: nameTok.Span}
	if p.at(token.LParen) {
		p.advance()
		inv.HasArgs = true
		for !p.at(token.RParen) {
			arg, ok := p.parseExpression()
			if !ok {
				return inv, false
			}
			inv.Args = append(inv.Args, arg)
			if !p.eat(token.Comma) {
				break
			}
		}
		if _, ok := p.expect(token.RParen, diag.SynUnclosedDelimiter, "expected ')' after modifier arguments"); !ok {
			return inv, false
		}
	}
	return inv, true
}

func (p *Parser) parseModifier(contract ast.ItemID) (ast.ItemID, bool) {
	start := p.advance().Span // 'modifier'
	nameTok, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected modifier name")
	if !ok {
		return ast.NoItemID, false
	}
	decl := ast.ModifierItem{
		Name:     p.intern(nameTok.Text),
		NameSpan: nameTok.Span,
		Contract: contract,
	}
	if p.at(token.LParen) {
		params, okP := p.parseParameterList(false)
		if !okP {
			return ast.NoItemID, false
		}
		decl.Params = params
	}
	for {
		switch p.lx.Peek().Kind {
		case token.KwVirtual:
			decl.Virtual = true
			p.advance()
			continue
		case token.KwOverride:
			decl.HasOverride = true
			list, okO := p.parseOverrideList()
			if !okO {
				return ast.NoItemID, false
			}
			decl.OverrideList = list
			continue
		}
		break
	}
	switch {
	case p.at(token.Semicolon):
		p.advance()
	case p.at(token.LBrace):
		body, okB := p.parseBlock()
		if !okB {
			return ast.NoItemID, false
		}
		decl.Body = body
	default:
		p.err(diag.SynBadModifier, "expected ';' or modifier body")
		return ast.NoItemID, false
	}
	return p.arenas.Items.NewModifier(start.Cover(p.lastSpan), decl), true
}

// parseParameterList parses '(' ... ')'. allowIndexed admits the event
// `indexed` keyword between type and name.
func (p *Parser) parseParameterList(allowIndexed bool) ([]ast.ParamID, bool) {
	if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '('"); !ok {
		return nil, false
	}
	return p.parseParameterListTail(allowIndexed)
}

func (p *Parser) parseParameterListTail(allowIndexed bool) ([]ast.ParamID, bool) {
	var params []ast.ParamID
	for !p.at(token.RParen) {
		start := p.lx.Peek().Span
		tn, ok := p.parseTypeName()
		if !ok {
			return nil, false
		}
		param := ast.Param{TypeName: tn, Span: start}
		for {
			peek := p.lx.Peek()
			switch {
			case peek.IsDataLocation():
				switch peek.Kind {
				case token.KwStorage:
					param.Location = ast.LocStorage
				case token.KwMemory:
					param.Location = ast.LocMemory
				case token.KwCalldata:
					param.Location = ast.LocCalldata
				}
				p.advance()
				continue
			case allowIndexed && peek.Kind == token.KwIndexed:
				param.Indexed = true
				p.advance()
				continue
			}
			break
		}
		if p.at(token.Ident) {
			nameTok := p.advance()
			param.Name = p.intern(nameTok.Text)
			param.Span = start.Cover(nameTok.Span)
		}
		params = append(params, p.arenas.Params.New(param))
		if !p.eat(token.Comma) {
			break
		}
	}
	if _, ok := p.expect(token.RParen, diag.SynUnclosedDelimiter, "expected ')' closing parameter list"); !ok {
		return nil, false
	}
	return params, true
}
