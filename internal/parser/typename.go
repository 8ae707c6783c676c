package parser

import (
	"solar/internal/ast"
	"solar/internal/diag"
	"solar/internal/source"
	"solar/internal/token"
)

// parseTypeName parses one written type: elementary, dotted user-defined,
// mapping(K => V), with any number of [n] / [] suffixes.
func (p *Parser) parseTypeName() (ast.TypeNameID, bool) {
	base, ok := p.parseTypeNameBase()
	if !ok {
		return ast.NoTypeNameID, false
	}
	return p.parseArraySuffixes(base)
}

func (p *Parser) parseTypeNameBase() (ast.TypeNameID, bool) {
	peek := p.lx.Peek()
	switch {
	case peek.Kind == token.KwMapping:
		return p.parseMappingType()
	case peek.IsElementaryTypeKeyword():
		tok := p.advance()
		el := ast.ElementaryTypeName{Name: p.intern(tok.Text)}
		sp := tok.Span
		if tok.Kind == token.KwAddress && p.at(token.KwPayable) {
			pay := p.advance()
			el.Payable = true
			sp = sp.Cover(pay.Span)
		}
		return p.arenas.TypeNames.NewElementary(sp, el), true
	case peek.Kind == token.Ident && isElementaryTypeIdent(peek.Text):
		tok := p.advance()
		return p.arenas.TypeNames.NewElementary(tok.Span, ast.ElementaryTypeName{Name: p.intern(tok.Text)}), true
	case peek.Kind == token.Ident:
		return p.parseUserDefinedType()
	default:
		p.err(diag.SynExpectType, "expected type name")
		return ast.NoTypeNameID, false
	}
}

func (p *Parser) parseUserDefinedType() (ast.TypeNameID, bool) {
	first, ok := p.expect(token.Ident, diag.SynExpectType, "expected type name")
	if !ok {
		return ast.NoTypeNameID, false
	}
	path := []source.StringID{p.intern(first.Text)}
	spans := []source.Span{first.Span}
	sp := first.Span
	for p.at(token.Dot) {
		p.advance()
		seg, okSeg := p.expect(token.Ident, diag.SynExpectIdentifier, "expected identifier after '.'")
		if !okSeg {
			return ast.NoTypeNameID, false
		}
		path = append(path, p.intern(seg.Text))
		spans = append(spans, seg.Span)
		sp = sp.Cover(seg.Span)
	}
	return p.arenas.TypeNames.NewUserDefined(sp, ast.UserDefinedTypeName{Path: path, PathSpans: spans}), true
}

func (p *Parser) parseMappingType() (ast.TypeNameID, bool) {
	start := p.advance().Span // 'mapping'
	if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after 'mapping'"); !ok {
		return ast.NoTypeNameID, false
	}
	key, ok := p.parseTypeName()
	if !ok {
		return ast.NoTypeNameID, false
	}
	if _, ok = p.expect(token.FatArrow, diag.SynUnexpectedToken, "expected '=>' in mapping type"); !ok {
		return ast.NoTypeNameID, false
	}
	value, ok := p.parseTypeName()
	if !ok {
		return ast.NoTypeNameID, false
	}
	end, ok := p.expect(token.RParen, diag.SynUnclosedDelimiter, "expected ')' closing mapping type")
	if !ok {
		return ast.NoTypeNameID, false
	}
	return p.arenas.TypeNames.NewMapping(start.Cover(end.Span), ast.MappingTypeName{Key: key, Value: value}), true
}

// parseArraySuffixes wraps base in ArrayTypeName for every [n] / [].
func (p *Parser) parseArraySuffixes(base ast.TypeNameID) (ast.TypeNameID, bool) {
	for p.at(token.LBracket) {
		open := p.advance().Span
		var length ast.ExprID
		if !p.at(token.RBracket) {
			expr, ok := p.parseExpression()
			if !ok {
				return ast.NoTypeNameID, false
			}
			length = expr
		}
		closeTok, ok := p.expect(token.RBracket, diag.SynUnclosedDelimiter, "expected ']' in array type")
		if !ok {
			return ast.NoTypeNameID, false
		}
		sp := p.arenas.TypeNames.Get(base).Span.Cover(open).Cover(closeTok.Span)
		base = p.arenas.TypeNames.NewArray(sp, ast.ArrayTypeName{Base: base, Length: length})
	}
	return base, true
}
