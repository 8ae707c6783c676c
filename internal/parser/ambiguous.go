package parser

import (
	"solar/internal/ast"
	"solar/internal/diag"
	"solar/internal/source"
	"solar/internal/token"
)

// pathIndex is one accumulated `[ ... ]` group of the ambiguous prefix.
type pathIndex struct {
	expr ast.ExprID // NoExprID for empty brackets
	span source.Span
}

// parseAmbiguousStatement resolves the statement-level ambiguity between a
// type name and an expression. The look-ahead `Ident ('.' Ident)* ('['
// Expr? ']')*` is accumulated once; the token after it decides: an
// identifier or data-location keyword makes it a variable declaration,
// anything else reinterprets the accumulated pieces as an expression. The
// path is never re-parsed.
func (p *Parser) parseAmbiguousStatement() (ast.StmtID, bool) {
	start := p.lx.Peek().Span

	first := p.advance() // Ident
	path := []source.StringID{p.intern(first.Text)}
	spans := []source.Span{first.Span}
	pathSpan := first.Span

	for p.at(token.Dot) {
		p.advance()
		seg, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected identifier after '.'")
		if !ok {
			return ast.NoStmtID, false
		}
		path = append(path, p.intern(seg.Text))
		spans = append(spans, seg.Span)
		pathSpan = pathSpan.Cover(seg.Span)
	}

	var indices []pathIndex
	for p.at(token.LBracket) {
		open := p.advance().Span
		var idx ast.ExprID
		if !p.at(token.RBracket) {
			expr, ok := p.parseExpression()
			if !ok {
				return ast.NoStmtID, false
			}
			idx = expr
		}
		closeTok, ok := p.expect(token.RBracket, diag.SynUnclosedDelimiter, "expected ']'")
		if !ok {
			return ast.NoStmtID, false
		}
		indices = append(indices, pathIndex{expr: idx, span: open.Cover(closeTok.Span)})
	}

	next := p.lx.Peek()
	if next.Kind == token.Ident || next.IsDataLocation() {
		// объявление переменной: путь становится типом
		tn := p.arenas.TypeNames.NewUserDefined(pathSpan, ast.UserDefinedTypeName{Path: path, PathSpans: spans})
		for _, idx := range indices {
			sp := p.arenas.TypeNames.Get(tn).Span.Cover(idx.span)
			tn = p.arenas.TypeNames.NewArray(sp, ast.ArrayTypeName{Base: tn, Length: idx.expr})
		}
		return p.parseVarDeclTail(start, tn)
	}

	// выражение: путь — цепочка member access, скобки — индексация
	expr := p.arenas.Exprs.NewIdent(spans[0], ast.IdentExpr{Name: path[0]})
	for i := 1; i < len(path); i++ {
		sp := p.exprSpan(expr).Cover(spans[i])
		expr = p.arenas.Exprs.NewMember(sp, ast.MemberExpr{Object: expr, Member: path[i], MemSpan: spans[i]})
	}
	for _, idx := range indices {
		sp := p.exprSpan(expr).Cover(idx.span)
		expr = p.arenas.Exprs.NewIndex(sp, ast.IndexExpr{Base: expr, Index: idx.expr})
	}

	expr, ok := p.parsePostfix(expr)
	if !ok {
		return ast.NoStmtID, false
	}
	expr, ok = p.parseExpressionRest(expr)
	if !ok {
		return ast.NoStmtID, false
	}
	if _, ok = p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after expression"); !ok {
		return ast.NoStmtID, false
	}
	return p.arenas.Stmts.NewExprStmt(start.Cover(p.lastSpan), ast.ExprStmt{Expr: expr}), true
}

// parseTupleOrVarDecl disambiguates `(uint a, bytes32 b) = ...` from a
// parenthesised expression statement by speculative parse with rollback.
func (p *Parser) parseTupleOrVarDecl() (ast.StmtID, bool) {
	if stmt, ok := p.trySpeculativeTupleDecl(); ok {
		return stmt, true
	}
	return p.parseExpressionStatement()
}

func (p *Parser) trySpeculativeTupleDecl() (ast.StmtID, bool) {
	save := p.lx.Snapshot()
	p.quiet++

	rollback := func() (ast.StmtID, bool) {
		p.quiet--
		p.lx.Restore(save)
		return ast.NoStmtID, false
	}

	start := p.lx.Peek().Span
	if !p.eat(token.LParen) {
		return rollback()
	}

	var decls []ast.VarDeclPart
	nonEmpty := 0
	for !p.at(token.RParen) {
		if p.at(token.Comma) {
			p.advance()
			decls = append(decls, ast.VarDeclPart{})
			continue
		}
		partStart := p.lx.Peek().Span
		tn, ok := p.parseTypeName()
		if !ok {
			return rollback()
		}
		part := ast.VarDeclPart{TypeName: tn, Span: partStart}
		part.Location = p.parseDataLocation()
		if !p.at(token.Ident) {
			return rollback()
		}
		nameTok := p.advance()
		part.Name = p.intern(nameTok.Text)
		part.Span = partStart.Cover(nameTok.Span)
		decls = append(decls, part)
		nonEmpty++
		if p.at(token.Comma) {
			p.advance()
			if p.at(token.RParen) {
				decls = append(decls, ast.VarDeclPart{})
			}
		}
	}
	if !p.eat(token.RParen) || !p.at(token.Assign) || nonEmpty == 0 {
		return rollback()
	}

	// с этого места это точно объявление — ошибки репортим как обычно
	p.quiet--
	p.advance() // '='
	value, ok := p.parseExpression()
	if !ok {
		return ast.NoStmtID, false
	}
	if _, ok = p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after declaration"); !ok {
		return ast.NoStmtID, false
	}
	return p.arenas.Stmts.NewVarDecl(start.Cover(p.lastSpan), ast.VarDeclStmt{
		Decls: decls, Tuple: true, Value: value,
	}), true
}
