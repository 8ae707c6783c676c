package parser

import (
	"solar/internal/ast"
	"solar/internal/diag"
	"solar/internal/token"
)

// parseContract handles `abstract? (contract|interface|library) Name is ... { ... }`.
func (p *Parser) parseContract() (ast.ItemID, bool) {
	start := p.lx.Peek().Span
	abstract := p.eat(token.KwAbstract)

	var kind ast.ContractKind
	switch p.lx.Peek().Kind {
	case token.KwContract:
		kind = ast.KindContract
	case token.KwInterface:
		kind = ast.KindInterface
	case token.KwLibrary:
		kind = ast.KindLibrary
	default:
		p.err(diag.SynUnexpectedToken, "expected 'contract', 'interface', or 'library'")
		return ast.NoItemID, false
	}
	p.advance()

	nameTok, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected contract name")
	if !ok {
		return ast.NoItemID, false
	}

	decl := ast.ContractItem{
		Name:     p.intern(nameTok.Text),
		NameSpan: nameTok.Span,
		Kind:     kind,
		Abstract: abstract,
		Unit:     p.unit,
	}

	if p.eat(token.KwIs) {
		for {
			spec, okSpec := p.parseInheritSpec()
			if !okSpec {
				return ast.NoItemID, false
			}
			decl.Bases = append(decl.Bases, spec)
			if !p.eat(token.Comma) {
				break
			}
		}
	}

	if _, ok = p.expect(token.LBrace, diag.SynUnexpectedToken, "expected '{' opening contract body"); !ok {
		return ast.NoItemID, false
	}

	// аллоцируем заранее: членам нужен ID контракта
	id := p.arenas.Items.NewContract(start, decl)

	var body []ast.ItemID
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		member, okMember := p.parseContractMember(id)
		if !okMember {
			p.resyncMember()
			continue
		}
		if member.IsValid() {
			body = append(body, member)
		}
	}
	end, ok := p.expect(token.RBrace, diag.SynUnclosedDelimiter, "expected '}' closing contract body")
	if !ok {
		return ast.NoItemID, false
	}

	payload, _ := p.arenas.Items.Contract(id)
	payload.Body = body
	p.arenas.Items.Get(id).Span = start.Cover(end.Span)
	return id, true
}

func (p *Parser) parseInheritSpec() (ast.InheritSpec, bool) {
	base, ok := p.parseUserDefinedType()
	if !ok {
		return ast.InheritSpec{}, false
	}
	spec := ast.InheritSpec{Base: base, Span: p.arenas.TypeNames.Get(base).Span}
	if p.at(token.LParen) {
		p.advance()
		for !p.at(token.RParen) {
			arg, okArg := p.parseExpression()
			if !okArg {
				return ast.InheritSpec{}, false
			}
			spec.Args = append(spec.Args, arg)
			if !p.eat(token.Comma) {
				break
			}
		}
		if _, ok = p.expect(token.RParen, diag.SynUnclosedDelimiter, "expected ')' after base arguments"); !ok {
			return ast.InheritSpec{}, false
		}
	}
	return spec, true
}

// parseContractMember dispatches on the leading token only.
func (p *Parser) parseContractMember(contract ast.ItemID) (ast.ItemID, bool) {
	switch p.lx.Peek().Kind {
	case token.KwFunction, token.KwConstructor, token.KwFallback, token.KwReceive:
		return p.parseFunction(contract)
	case token.KwModifier:
		return p.parseModifier(contract)
	case token.KwEvent:
		return p.parseEvent(contract)
	case token.KwStruct:
		return p.parseStruct(contract)
	case token.KwEnum:
		return p.parseEnum(contract)
	case token.KwUsing:
		return p.parseUsingFor(contract)
	case token.Semicolon:
		p.advance()
		return ast.NoItemID, true
	default:
		// всё остальное — переменная состояния, начинающаяся с типа
		return p.parseStateVariable(contract)
	}
}

func (p *Parser) resyncMember() {
	p.resyncUntil(
		token.Semicolon, token.RBrace, token.KwFunction, token.KwConstructor,
		token.KwFallback, token.KwReceive, token.KwModifier, token.KwEvent,
		token.KwStruct, token.KwEnum, token.KwUsing,
	)
	if p.at(token.Semicolon) {
		p.advance()
	}
}

func (p *Parser) parseStruct(contract ast.ItemID) (ast.ItemID, bool) {
	start := p.advance().Span // 'struct'
	nameTok, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected struct name")
	if !ok {
		return ast.NoItemID, false
	}
	if _, ok = p.expect(token.LBrace, diag.SynUnexpectedToken, "expected '{' opening struct body"); !ok {
		return ast.NoItemID, false
	}
	decl := ast.StructItem{
		Name:     p.intern(nameTok.Text),
		NameSpan: nameTok.Span,
		Contract: contract,
	}
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		tn, okTn := p.parseTypeName()
		if !okTn {
			return ast.NoItemID, false
		}
		fieldTok, okF := p.expect(token.Ident, diag.SynExpectIdentifier, "expected field name")
		if !okF {
			return ast.NoItemID, false
		}
		if _, okF = p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after struct field"); !okF {
			return ast.NoItemID, false
		}
		decl.Fields = append(decl.Fields, p.arenas.Params.New(ast.Param{
			Name:     p.intern(fieldTok.Text),
			TypeName: tn,
			Span:     fieldTok.Span,
		}))
	}
	end, ok := p.expect(token.RBrace, diag.SynUnclosedDelimiter, "expected '}' closing struct")
	if !ok {
		return ast.NoItemID, false
	}
	return p.arenas.Items.NewStruct(start.Cover(end.Span), decl), true
}

func (p *Parser) parseEnum(contract ast.ItemID) (ast.ItemID, bool) {
	start := p.advance().Span // 'enum'
	nameTok, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected enum name")
	if !ok {
		return ast.NoItemID, false
	}
	if _, ok = p.expect(token.LBrace, diag.SynUnexpectedToken, "expected '{' opening enum body"); !ok {
		return ast.NoItemID, false
	}
	decl := ast.EnumItem{
		Name:     p.intern(nameTok.Text),
		NameSpan: nameTok.Span,
		Contract: contract,
	}
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		m, okM := p.expect(token.Ident, diag.SynExpectIdentifier, "expected enum member")
		if !okM {
			return ast.NoItemID, false
		}
		decl.Members = append(decl.Members, ast.EnumMember{Name: p.intern(m.Text), Span: m.Span})
		if !p.eat(token.Comma) {
			break
		}
	}
	end, ok := p.expect(token.RBrace, diag.SynUnclosedDelimiter, "expected '}' closing enum")
	if !ok {
		return ast.NoItemID, false
	}
	return p.arenas.Items.NewEnum(start.Cover(end.Span), decl), true
}

func (p *Parser) parseEvent(contract ast.ItemID) (ast.ItemID, bool) {
	start := p.advance().Span // 'event'
	nameTok, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected event name")
	if !ok {
		return ast.NoItemID, false
	}
	params, ok := p.parseParameterList(true)
	if !ok {
		return ast.NoItemID, false
	}
	decl := ast.EventItem{
		Name:     p.intern(nameTok.Text),
		NameSpan: nameTok.Span,
		Params:   params,
		Contract: contract,
	}
	decl.Anonymous = p.eat(token.KwAnonymous)
	end, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after event declaration")
	if !ok {
		return ast.NoItemID, false
	}
	return p.arenas.Items.NewEvent(start.Cover(end.Span), decl), true
}

func (p *Parser) parseUsingFor(contract ast.ItemID) (ast.ItemID, bool) {
	start := p.advance().Span // 'using'
	lib, ok := p.parseUserDefinedType()
	if !ok {
		return ast.NoItemID, false
	}
	forTok := p.lx.Peek()
	if forTok.Kind != token.KwFor {
		p.err(diag.SynUnexpectedToken, "expected 'for' in using directive")
		return ast.NoItemID, false
	}
	p.advance()
	decl := ast.UsingForItem{Library: lib, Contract: contract}
	if p.at(token.Star) {
		p.advance()
	} else {
		target, okT := p.parseTypeName()
		if !okT {
			return ast.NoItemID, false
		}
		decl.Target = target
	}
	end, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after using directive")
	if !ok {
		return ast.NoItemID, false
	}
	return p.arenas.Items.NewUsingFor(start.Cover(end.Span), decl), true
}

// parseStateVariable: TypeName (visibility|constant|override...)* Name (= Expr)? ;
func (p *Parser) parseStateVariable(contract ast.ItemID) (ast.ItemID, bool) {
	start := p.lx.Peek().Span
	tn, ok := p.parseTypeName()
	if !ok {
		return ast.NoItemID, false
	}
	decl := ast.VariableItem{TypeName: tn, Contract: contract}

	for {
		switch p.lx.Peek().Kind {
		case token.KwPublic:
			decl.Visibility = ast.VisPublic
			p.advance()
		case token.KwPrivate:
			decl.Visibility = ast.VisPrivate
			p.advance()
		case token.KwInternal:
			decl.Visibility = ast.VisInternal
			p.advance()
		case token.KwConstant:
			decl.Constant = true
			p.advance()
		case token.KwOverride:
			decl.HasOverride = true
			list, okO := p.parseOverrideList()
			if !okO {
				return ast.NoItemID, false
			}
			decl.OverrideList = list
		case token.Ident:
			if p.lx.Peek().Text == "immutable" {
				decl.Immutable = true
				p.advance()
				continue
			}
			goto name
		default:
			goto name
		}
	}

name:
	nameTok, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected variable name")
	if !ok {
		return ast.NoItemID, false
	}
	decl.Name = p.intern(nameTok.Text)
	decl.NameSpan = nameTok.Span

	if p.eat(token.Assign) {
		value, okV := p.parseExpression()
		if !okV {
			return ast.NoItemID, false
		}
		decl.Value = value
	}
	end, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after state variable")
	if !ok {
		return ast.NoItemID, false
	}
	return p.arenas.Items.NewVariable(start.Cover(end.Span), decl), true
}

// parseOverrideList parses `override` or `override(A, B.C)`.
func (p *Parser) parseOverrideList() ([]ast.TypeNameID, bool) {
	p.advance() // 'override'
	if !p.at(token.LParen) {
		return nil, true
	}
	p.advance()
	var list []ast.TypeNameID
	for !p.at(token.RParen) {
		base, ok := p.parseUserDefinedType()
		if !ok {
			return nil, false
		}
		list = append(list, base)
		if !p.eat(token.Comma) {
			break
		}
	}
	if _, ok := p.expect(token.RParen, diag.SynBadOverrideList, "expected ')' closing override list"); !ok {
		return nil, false
	}
	return list, true
}
