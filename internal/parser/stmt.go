package parser

import (
	"solar/internal/ast"
	"solar/internal/diag"
	"solar/internal/source"
	"solar/internal/token"
)

func (p *Parser) parseBlock() (ast.StmtID, bool) {
	open, ok := p.expect(token.LBrace, diag.SynUnexpectedToken, "expected '{'")
	if !ok {
		return ast.NoStmtID, false
	}
	var stmts []ast.StmtID
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		st, okS := p.parseStatement()
		if !okS {
			p.resyncUntil(token.Semicolon, token.RBrace)
			p.eat(token.Semicolon)
			continue
		}
		stmts = append(stmts, st)
	}
	closeTok, ok := p.expect(token.RBrace, diag.SynUnclosedDelimiter, "expected '}' closing block")
	if !ok {
		return ast.NoStmtID, false
	}
	return p.arenas.Stmts.NewBlock(open.Span.Cover(closeTok.Span), ast.BlockStmt{Stmts: stmts}), true
}

func (p *Parser) parseStatement() (ast.StmtID, bool) {
	peek := p.lx.Peek()
	switch peek.Kind {
	case token.LBrace:
		return p.parseBlock()
	case token.KwIf:
		return p.parseIf()
	case token.KwWhile:
		return p.parseWhile()
	case token.KwDo:
		return p.parseDoWhile()
	case token.KwFor:
		return p.parseFor()
	case token.KwBreak:
		p.advance()
		if _, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after break"); !ok {
			return ast.NoStmtID, false
		}
		return p.arenas.Stmts.NewBreak(peek.Span), true
	case token.KwContinue:
		p.advance()
		if _, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after continue"); !ok {
			return ast.NoStmtID, false
		}
		return p.arenas.Stmts.NewContinue(peek.Span), true
	case token.KwReturn:
		return p.parseReturn()
	case token.KwEmit:
		return p.parseEmit()
	case token.KwAssembly:
		return p.parseAssembly()
	case token.Underscore:
		p.advance()
		if _, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after '_'"); !ok {
			return ast.NoStmtID, false
		}
		return p.arenas.Stmts.NewPlaceholder(peek.Span), true
	case token.KwMapping, token.KwAddress, token.KwBool, token.KwString, token.KwBytes:
		return p.parseVarDeclStatement()
	case token.Ident:
		if isElementaryTypeIdent(peek.Text) {
			return p.parseVarDeclStatement()
		}
		return p.parseAmbiguousStatement()
	case token.LParen:
		return p.parseTupleOrVarDecl()
	default:
		return p.parseExpressionStatement()
	}
}

func (p *Parser) parseIf() (ast.StmtID, bool) {
	start := p.advance().Span // 'if'
	if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after 'if'"); !ok {
		return ast.NoStmtID, false
	}
	cond, ok := p.parseExpression()
	if !ok {
		return ast.NoStmtID, false
	}
	if _, ok = p.expect(token.RParen, diag.SynUnclosedDelimiter, "expected ')' after condition"); !ok {
		return ast.NoStmtID, false
	}
	then, ok := p.parseStatement()
	if !ok {
		return ast.NoStmtID, false
	}
	stmt := ast.IfStmt{Cond: cond, Then: then}
	if p.eat(token.KwElse) {
		els, okE := p.parseStatement()
		if !okE {
			return ast.NoStmtID, false
		}
		stmt.Else = els
	}
	return p.arenas.Stmts.NewIf(start.Cover(p.lastSpan), stmt), true
}

func (p *Parser) parseWhile() (ast.StmtID, bool) {
	start := p.advance().Span // 'while'
	if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after 'while'"); !ok {
		return ast.NoStmtID, false
	}
	cond, ok := p.parseExpression()
	if !ok {
		return ast.NoStmtID, false
	}
	if _, ok = p.expect(token.RParen, diag.SynUnclosedDelimiter, "expected ')' after condition"); !ok {
		return ast.NoStmtID, false
	}
	body, ok := p.parseStatement()
	if !ok {
		return ast.NoStmtID, false
	}
	return p.arenas.Stmts.NewWhile(start.Cover(p.lastSpan), ast.WhileStmt{Cond: cond, Body: body}), true
}

func (p *Parser) parseDoWhile() (ast.StmtID, bool) {
	start := p.advance().Span // 'do'
	body, ok := p.parseStatement()
	if !ok {
		return ast.NoStmtID, false
	}
	if !p.eat(token.KwWhile) {
		p.err(diag.SynUnexpectedToken, "expected 'while' after do body")
		return ast.NoStmtID, false
	}
	if _, ok = p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after 'while'"); !ok {
		return ast.NoStmtID, false
	}
	cond, ok := p.parseExpression()
	if !ok {
		return ast.NoStmtID, false
	}
	if _, ok = p.expect(token.RParen, diag.SynUnclosedDelimiter, "expected ')' after condition"); !ok {
		return ast.NoStmtID, false
	}
	if _, ok = p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after do-while"); !ok {
		return ast.NoStmtID, false
	}
	return p.arenas.Stmts.NewDoWhile(start.Cover(p.lastSpan), ast.WhileStmt{Cond: cond, Body: body}), true
}

func (p *Parser) parseFor() (ast.StmtID, bool) {
	start := p.advance().Span // 'for'
	if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after 'for'"); !ok {
		return ast.NoStmtID, false
	}
	stmt := ast.ForStmt{}
	if !p.at(token.Semicolon) {
		init, ok := p.parseStatement() // consumes its ';'
		if !ok {
			return ast.NoStmtID, false
		}
		stmt.Init = init
	} else {
		p.advance()
	}
	if !p.at(token.Semicolon) {
		cond, ok := p.parseExpression()
		if !ok {
			return ast.NoStmtID, false
		}
		stmt.Cond = cond
	}
	if _, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after loop condition"); !ok {
		return ast.NoStmtID, false
	}
	if !p.at(token.RParen) {
		post, ok := p.parseExpression()
		if !ok {
			return ast.NoStmtID, false
		}
		stmt.Post = post
	}
	if _, ok := p.expect(token.RParen, diag.SynUnclosedDelimiter, "expected ')' closing for header"); !ok {
		return ast.NoStmtID, false
	}
	body, ok := p.parseStatement()
	if !ok {
		return ast.NoStmtID, false
	}
	stmt.Body = body
	return p.arenas.Stmts.NewFor(start.Cover(p.lastSpan), stmt), true
}

func (p *Parser) parseReturn() (ast.StmtID, bool) {
	start := p.advance().Span // 'return'
	stmt := ast.ReturnStmt{}
	if !p.at(token.Semicolon) {
		value, ok := p.parseExpression()
		if !ok {
			return ast.NoStmtID, false
		}
		stmt.Value = value
	}
	if _, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after return"); !ok {
		return ast.NoStmtID, false
	}
	return p.arenas.Stmts.NewReturn(start.Cover(p.lastSpan), stmt), true
}

func (p *Parser) parseEmit() (ast.StmtID, bool) {
	start := p.advance().Span // 'emit'
	call, ok := p.parseExpression()
	if !ok {
		return ast.NoStmtID, false
	}
	if _, okC := p.arenas.Exprs.Call(call); !okC {
		p.report(diag.SynUnexpectedToken, diag.SevError, p.arenas.Exprs.Get(call).Span, "emit requires an event call")
		return ast.NoStmtID, false
	}
	if _, ok = p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after emit"); !ok {
		return ast.NoStmtID, false
	}
	return p.arenas.Stmts.NewEmit(start.Cover(p.lastSpan), ast.EmitStmt{Call: call}), true
}

// parseAssembly records the braced block verbatim; the sub-language has its
// own grammar and flows through this pipeline untouched.
func (p *Parser) parseAssembly() (ast.StmtID, bool) {
	start := p.advance().Span // 'assembly'
	if p.at(token.StringLit) {
		p.advance() // dialect marker, e.g. "evmasm"
	}
	open, ok := p.expect(token.LBrace, diag.SynUnexpectedToken, "expected '{' opening assembly block")
	if !ok {
		return ast.NoStmtID, false
	}
	depth := 1
	for depth > 0 {
		tok := p.advance()
		switch tok.Kind {
		case token.LBrace:
			depth++
		case token.RBrace:
			depth--
		case token.EOF:
			p.err(diag.SynUnclosedDelimiter, "unterminated assembly block")
			return ast.NoStmtID, false
		}
	}
	text := string(p.lx.File().Content[open.Span.End:p.lastSpan.Start])
	return p.arenas.Stmts.NewAssembly(start.Cover(p.lastSpan), ast.AssemblyStmt{Text: p.intern(text)}), true
}

func (p *Parser) parseExpressionStatement() (ast.StmtID, bool) {
	expr, ok := p.parseExpression()
	if !ok {
		return ast.NoStmtID, false
	}
	if _, ok = p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after expression"); !ok {
		return ast.NoStmtID, false
	}
	sp := p.arenas.Exprs.Get(expr).Span.Cover(p.lastSpan)
	return p.arenas.Stmts.NewExprStmt(sp, ast.ExprStmt{Expr: expr}), true
}

// parseVarDeclStatement: TypeName location? Name (= Expr)? ;
// Used when the leading token can only start a type.
func (p *Parser) parseVarDeclStatement() (ast.StmtID, bool) {
	start := p.lx.Peek().Span
	tn, ok := p.parseTypeName()
	if !ok {
		return ast.NoStmtID, false
	}
	return p.parseVarDeclTail(start, tn)
}

func (p *Parser) parseVarDeclTail(start source.Span, tn ast.TypeNameID) (ast.StmtID, bool) {
	part := ast.VarDeclPart{TypeName: tn, Span: start}
	part.Location = p.parseDataLocation()
	nameTok, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected variable name")
	if !ok {
		return ast.NoStmtID, false
	}
	part.Name = p.intern(nameTok.Text)
	part.Span = start.Cover(nameTok.Span)

	stmt := ast.VarDeclStmt{Decls: []ast.VarDeclPart{part}}
	if p.eat(token.Assign) {
		value, okV := p.parseExpression()
		if !okV {
			return ast.NoStmtID, false
		}
		stmt.Value = value
	}
	if _, ok = p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after variable declaration"); !ok {
		return ast.NoStmtID, false
	}
	return p.arenas.Stmts.NewVarDecl(start.Cover(p.lastSpan), stmt), true
}

func (p *Parser) parseDataLocation() ast.DataLocation {
	switch p.lx.Peek().Kind {
	case token.KwStorage:
		p.advance()
		return ast.LocStorage
	case token.KwMemory:
		p.advance()
		return ast.LocMemory
	case token.KwCalldata:
		p.advance()
		return ast.LocCalldata
	}
	return ast.LocDefault
}
