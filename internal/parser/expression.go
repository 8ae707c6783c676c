package parser

import (
	"strings"

	"solar/internal/ast"
	"solar/internal/diag"
	"solar/internal/source"
	"solar/internal/token"
)

func (p *Parser) parseExpression() (ast.ExprID, bool) {
	lhs, ok := p.parseUnary()
	if !ok {
		return ast.NoExprID, false
	}
	return p.parseExpressionRest(lhs)
}

// parseExpressionRest finishes an expression whose first operand is already
// parsed: binary operators by precedence climbing, then ternary, then
// (right-associative) assignment.
func (p *Parser) parseExpressionRest(lhs ast.ExprID) (ast.ExprID, bool) {
	lhs, ok := p.parseBinaryRHS(lhs, 1)
	if !ok {
		return ast.NoExprID, false
	}

	if p.at(token.Question) {
		p.advance()
		thenE, okT := p.parseExpression()
		if !okT {
			return ast.NoExprID, false
		}
		if _, okT = p.expect(token.Colon, diag.SynUnexpectedToken, "expected ':' in conditional"); !okT {
			return ast.NoExprID, false
		}
		elseE, okT := p.parseExpression()
		if !okT {
			return ast.NoExprID, false
		}
		sp := p.exprSpan(lhs).Cover(p.exprSpan(elseE))
		return p.arenas.Exprs.NewTernary(sp, ast.TernaryExpr{Cond: lhs, Then: thenE, Else: elseE}), true
	}

	if op := p.lx.Peek().Kind; isAssignOp(op) {
		p.advance()
		rhs, okR := p.parseExpression()
		if !okR {
			return ast.NoExprID, false
		}
		sp := p.exprSpan(lhs).Cover(p.exprSpan(rhs))
		return p.arenas.Exprs.NewAssign(sp, ast.AssignExpr{Op: op, Left: lhs, Right: rhs}), true
	}

	return lhs, true
}

func (p *Parser) parseBinaryRHS(lhs ast.ExprID, minPrec int) (ast.ExprID, bool) {
	for {
		op := p.lx.Peek().Kind
		prec := binaryPrec[op]
		if prec < minPrec || prec == 0 {
			return lhs, true
		}
		p.advance()
		rhs, ok := p.parseUnary()
		if !ok {
			return ast.NoExprID, false
		}
		for {
			next := binaryPrec[p.lx.Peek().Kind]
			if next > prec || (next == prec && rightAssoc(op)) {
				rhs, ok = p.parseBinaryRHS(rhs, next)
				if !ok {
					return ast.NoExprID, false
				}
				continue
			}
			break
		}
		sp := p.exprSpan(lhs).Cover(p.exprSpan(rhs))
		lhs = p.arenas.Exprs.NewBinary(sp, ast.BinaryExpr{Op: op, Left: lhs, Right: rhs})
	}
}

func (p *Parser) parseUnary() (ast.ExprID, bool) {
	peek := p.lx.Peek()
	switch peek.Kind {
	case token.Bang, token.Tilde, token.Minus, token.Plus, token.PlusPlus, token.MinusMinus:
		opTok := p.advance()
		operand, ok := p.parseUnary()
		if !ok {
			return ast.NoExprID, false
		}
		sp := opTok.Span.Cover(p.exprSpan(operand))
		return p.arenas.Exprs.NewUnary(sp, ast.UnaryExpr{Op: opTok.Kind, Operand: operand, Prefix: true}), true
	case token.KwDelete:
		opTok := p.advance()
		operand, ok := p.parseUnary()
		if !ok {
			return ast.NoExprID, false
		}
		sp := opTok.Span.Cover(p.exprSpan(operand))
		return p.arenas.Exprs.NewDelete(sp, ast.DeleteExpr{Operand: operand}), true
	}
	primary, ok := p.parsePrimary()
	if !ok {
		return ast.NoExprID, false
	}
	return p.parsePostfix(primary)
}

// parsePostfix applies member access, indexing, calls, and ++/-- suffixes.
func (p *Parser) parsePostfix(expr ast.ExprID) (ast.ExprID, bool) {
	for {
		switch p.lx.Peek().Kind {
		case token.Dot:
			p.advance()
			var memTok token.Token
			var ok bool
			// address(this).balance — члены могут совпадать с ключевыми словами
			if p.atAny(token.Ident, token.KwAddress, token.KwPayable) {
				memTok = p.advance()
				ok = true
			} else {
				memTok, ok = p.expect(token.Ident, diag.SynExpectIdentifier, "expected member name after '.'")
			}
			if !ok {
				return ast.NoExprID, false
			}
			sp := p.exprSpan(expr).Cover(memTok.Span)
			expr = p.arenas.Exprs.NewMember(sp, ast.MemberExpr{
				Object: expr, Member: p.intern(memTok.Text), MemSpan: memTok.Span,
			})
		case token.LBracket:
			p.advance()
			var index ast.ExprID
			if !p.at(token.RBracket) {
				idx, ok := p.parseExpression()
				if !ok {
					return ast.NoExprID, false
				}
				index = idx
			}
			closeTok, ok := p.expect(token.RBracket, diag.SynUnclosedDelimiter, "expected ']'")
			if !ok {
				return ast.NoExprID, false
			}
			sp := p.exprSpan(expr).Cover(closeTok.Span)
			expr = p.arenas.Exprs.NewIndex(sp, ast.IndexExpr{Base: expr, Index: index})
		case token.LParen:
			call, ok := p.parseCallSuffix(expr)
			if !ok {
				return ast.NoExprID, false
			}
			expr = call
		case token.PlusPlus, token.MinusMinus:
			opTok := p.advance()
			sp := p.exprSpan(expr).Cover(opTok.Span)
			expr = p.arenas.Exprs.NewUnary(sp, ast.UnaryExpr{Op: opTok.Kind, Operand: expr, Prefix: false})
		default:
			return expr, true
		}
	}
}

func (p *Parser) parseCallSuffix(callee ast.ExprID) (ast.ExprID, bool) {
	p.advance() // '('
	call := ast.CallExpr{Callee: callee}

	if p.at(token.LBrace) {
		// вызов с именованными аргументами: f({a: 1, b: 2})
		p.advance()
		for !p.at(token.RBrace) {
			nameTok, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected argument name")
			if !ok {
				return ast.NoExprID, false
			}
			if _, ok = p.expect(token.Colon, diag.SynUnexpectedToken, "expected ':' after argument name"); !ok {
				return ast.NoExprID, false
			}
			arg, ok := p.parseExpression()
			if !ok {
				return ast.NoExprID, false
			}
			call.ArgNames = append(call.ArgNames, p.intern(nameTok.Text))
			call.Args = append(call.Args, arg)
			if !p.eat(token.Comma) {
				break
			}
		}
		if _, ok := p.expect(token.RBrace, diag.SynUnclosedDelimiter, "expected '}' closing named arguments"); !ok {
			return ast.NoExprID, false
		}
	} else {
		for !p.at(token.RParen) {
			arg, ok := p.parseExpression()
			if !ok {
				return ast.NoExprID, false
			}
			call.Args = append(call.Args, arg)
			if !p.eat(token.Comma) {
				break
			}
		}
	}

	closeTok, ok := p.expect(token.RParen, diag.SynUnclosedDelimiter, "expected ')' closing call")
	if !ok {
		return ast.NoExprID, false
	}
	sp := p.exprSpan(callee).Cover(closeTok.Span)
	return p.arenas.Exprs.NewCall(sp, call), true
}

func (p *Parser) parsePrimary() (ast.ExprID, bool) {
	peek := p.lx.Peek()
	switch {
	case peek.Kind == token.NumberLit:
		tok := p.advance()
		lit := ast.NumberLitExpr{Text: p.intern(strings.ReplaceAll(tok.Text, "_", ""))}
		sp := tok.Span
		if p.at(token.Ident) && isDenominationText(p.lx.Peek().Text) {
			unit := p.advance()
			lit.Denomination = p.intern(unit.Text)
			sp = sp.Cover(unit.Span)
		}
		return p.arenas.Exprs.NewNumberLit(sp, lit), true

	case peek.Kind == token.StringLit:
		tok := p.advance()
		return p.arenas.Exprs.NewStringLit(tok.Span, ast.StringLitExpr{
			Value: p.intern(unescapeString(unquote(tok.Text))),
		}), true

	case peek.Kind == token.HexStringLit:
		tok := p.advance()
		return p.arenas.Exprs.NewHexLit(tok.Span, ast.HexLitExpr{
			Value: p.intern(decodeHexLit(tok.Text)),
		}), true

	case peek.Kind == token.KwTrue || peek.Kind == token.KwFalse:
		tok := p.advance()
		return p.arenas.Exprs.NewBoolLit(tok.Span, ast.BoolLitExpr{Value: tok.Kind == token.KwTrue}), true

	case peek.Kind == token.KwNew:
		start := p.advance().Span
		tn, ok := p.parseTypeName()
		if !ok {
			return ast.NoExprID, false
		}
		sp := start.Cover(p.arenas.TypeNames.Get(tn).Span)
		return p.arenas.Exprs.NewNew(sp, ast.NewExpr{TypeName: tn}), true

	case peek.Kind == token.KwType:
		// type(C) — рефлексия; 'type' ведёт себя как встроенная функция
		tok := p.advance()
		return p.arenas.Exprs.NewIdent(tok.Span, ast.IdentExpr{Name: p.intern("type")}), true

	case peek.Kind == token.KwPayable:
		// payable(addr) conversion
		tok := p.advance()
		tn := p.arenas.TypeNames.NewElementary(tok.Span, ast.ElementaryTypeName{
			Name: p.intern("address"), Payable: true,
		})
		return p.arenas.Exprs.NewElementaryType(tok.Span, ast.ElementaryTypeExpr{TypeName: tn}), true

	case peek.IsElementaryTypeKeyword(), peek.Kind == token.Ident && isElementaryTypeIdent(peek.Text):
		tn, ok := p.parseTypeNameBase()
		if !ok {
			return ast.NoExprID, false
		}
		// суффиксы массивов: `uint[](...)` как выражение не поддерживаем,
		// но `uint[2]` внутри new уже разобран parseTypeName
		sp := p.arenas.TypeNames.Get(tn).Span
		return p.arenas.Exprs.NewElementaryType(sp, ast.ElementaryTypeExpr{TypeName: tn}), true

	case peek.Kind == token.Ident:
		tok := p.advance()
		return p.arenas.Exprs.NewIdent(tok.Span, ast.IdentExpr{Name: p.intern(tok.Text)}), true

	case peek.Kind == token.LParen:
		return p.parseParenthesized()

	default:
		p.err(diag.SynExpectExpression, "expected expression")
		return ast.NoExprID, false
	}
}

// parseParenthesized handles groups `(x)` and tuples `(a, b)`, including
// empty slots `(a, , b)`.
func (p *Parser) parseParenthesized() (ast.ExprID, bool) {
	open := p.advance().Span
	var elems []ast.ExprID
	expectMore := false
	for !p.at(token.RParen) {
		if p.at(token.Comma) {
			p.advance()
			elems = append(elems, ast.NoExprID)
			expectMore = true
			continue
		}
		el, ok := p.parseExpression()
		if !ok {
			return ast.NoExprID, false
		}
		elems = append(elems, el)
		expectMore = p.eat(token.Comma)
	}
	closeTok, ok := p.expect(token.RParen, diag.SynUnclosedDelimiter, "expected ')'")
	if !ok {
		return ast.NoExprID, false
	}
	sp := open.Cover(closeTok.Span)
	if len(elems) == 1 && !expectMore {
		// просто скобки — сохраняем вложенное выражение
		return elems[0], true
	}
	if expectMore {
		elems = append(elems, ast.NoExprID)
	}
	return p.arenas.Exprs.NewTuple(sp, ast.TupleExpr{Elems: elems}), true
}

func (p *Parser) exprSpan(id ast.ExprID) source.Span {
	if e := p.arenas.Exprs.Get(id); e != nil {
		return e.Span
	}
	return p.lastSpan
}

func isDenominationText(s string) bool {
	switch s {
	case "wei", "gwei", "ether", "seconds", "minutes", "hours", "days", "weeks":
		return true
	}
	return false
}

func unescapeString(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '0':
			b.WriteByte(0)
		case 'x':
			if i+2 < len(s) {
				b.WriteByte(hexVal(s[i+1])<<4 | hexVal(s[i+2]))
				i += 2
			}
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// decodeHexLit turns `hex"deadbeef"` into raw bytes.
func decodeHexLit(text string) string {
	inner := text
	if idx := strings.IndexAny(inner, "\"'"); idx >= 0 {
		inner = inner[idx+1 : len(inner)-1]
	}
	inner = strings.ReplaceAll(inner, "_", "")
	var b strings.Builder
	for i := 0; i+1 < len(inner); i += 2 {
		b.WriteByte(hexVal(inner[i])<<4 | hexVal(inner[i+1]))
	}
	return b.String()
}

func hexVal(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10
	}
	return 0
}
