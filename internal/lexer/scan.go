package lexer

import (
	"solar/internal/diag"
	"solar/internal/token"
)

func (lx *Lexer) scanIdentOrKeyword() token.Token {
	start := lx.cursor.Mark()
	for !lx.cursor.EOF() && isIdentContinue(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
	sp := lx.cursor.SpanFrom(start)
	text := lx.text(sp)

	// hex"..." — лексема целиком, включая кавычки
	if text == "hex" && (lx.cursor.Peek() == '"' || lx.cursor.Peek() == '\'') {
		quote := lx.cursor.Bump()
		for !lx.cursor.EOF() && lx.cursor.Peek() != quote {
			b := lx.cursor.Bump()
			if !isHex(b) && b != '_' {
				lx.report(diag.LexBadHexString, lx.cursor.SpanFrom(start), "hex string may only contain hex digits")
			}
		}
		if !lx.cursor.Eat(quote) {
			lx.report(diag.LexUnterminatedString, lx.cursor.SpanFrom(start), "unterminated hex string")
		}
		sp = lx.cursor.SpanFrom(start)
		return token.Token{Kind: token.HexStringLit, Span: sp, Text: lx.text(sp)}
	}

	if k, ok := token.LookupKeyword(text); ok {
		return token.Token{Kind: k, Span: sp, Text: text}
	}
	// одиночный '_' — плейсхолдер тела модификатора
	if text == "_" {
		return token.Token{Kind: token.Underscore, Span: sp, Text: text}
	}
	return token.Token{Kind: token.Ident, Span: sp, Text: text}
}

// scanNumber accepts decimal and 0x-hex literals with '_' separators and an
// optional decimal exponent (1e18). Validation of digit placement is soft;
// malformed forms are reported and emitted as Invalid.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()
	bad := false

	if lx.cursor.Peek() == '0' {
		lx.cursor.Bump()
		if lx.cursor.Peek() == 'x' || lx.cursor.Peek() == 'X' {
			lx.cursor.Bump()
			n := 0
			for isHex(lx.cursor.Peek()) || lx.cursor.Peek() == '_' {
				if lx.cursor.Bump() != '_' {
					n++
				}
			}
			if n == 0 {
				bad = true
			}
			return lx.emitNumber(start, bad, "hex literal needs at least one digit")
		}
	}

	for isDec(lx.cursor.Peek()) || lx.cursor.Peek() == '_' {
		lx.cursor.Bump()
	}

	// дробная часть: rational literal
	if lx.cursor.Peek() == '.' {
		b0, b1, ok := lx.cursor.Peek2()
		if ok && b0 == '.' && isDec(b1) {
			lx.cursor.Bump()
			for isDec(lx.cursor.Peek()) || lx.cursor.Peek() == '_' {
				lx.cursor.Bump()
			}
		}
	}

	// экспонента
	if lx.cursor.Peek() == 'e' || lx.cursor.Peek() == 'E' {
		b0, b1, ok := lx.cursor.Peek2()
		if ok && (b0 == 'e' || b0 == 'E') && (isDec(b1) || b1 == '-' || b1 == '+') {
			lx.cursor.Bump()
			if lx.cursor.Peek() == '-' || lx.cursor.Peek() == '+' {
				lx.cursor.Bump()
			}
			n := 0
			for isDec(lx.cursor.Peek()) {
				lx.cursor.Bump()
				n++
			}
			if n == 0 {
				bad = true
			}
		}
	}

	// идентификаторный хвост сразу за числом — ошибка (0x спутан, 1abc)
	if isIdentStart(lx.cursor.Peek()) {
		unit := lx.cursor.Mark()
		for !lx.cursor.EOF() && isIdentContinue(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
		if !isDenomination(lx.text(lx.cursor.SpanFrom(unit))) {
			bad = true
		} else {
			// единица измерения отделяется пробелом; вернуть её парсеру
			lx.cursor.Reset(unit)
		}
	}

	return lx.emitNumber(start, bad, "malformed number literal")
}

func (lx *Lexer) emitNumber(start Mark, bad bool, msg string) token.Token {
	sp := lx.cursor.SpanFrom(start)
	if bad {
		lx.report(diag.LexBadNumber, sp, msg)
		return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
	}
	return token.Token{Kind: token.NumberLit, Span: sp, Text: lx.text(sp)}
}

func isDenomination(s string) bool {
	switch s {
	case "wei", "gwei", "ether", "seconds", "minutes", "hours", "days", "weeks":
		return true
	}
	return false
}

func (lx *Lexer) scanString(quote byte) token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump() // opening quote
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		if b == quote {
			lx.cursor.Bump()
			sp := lx.cursor.SpanFrom(start)
			return token.Token{Kind: token.StringLit, Span: sp, Text: lx.text(sp)}
		}
		if b == '\n' {
			break
		}
		if b == '\\' {
			lx.cursor.Bump()
			switch lx.cursor.Peek() {
			case 'n', 't', 'r', '\\', '\'', '"', '0', 'x', 'u':
				lx.cursor.Bump()
			default:
				lx.report(diag.LexBadEscape, lx.cursor.SpanFrom(start), "unknown escape sequence")
				lx.cursor.Bump()
			}
			continue
		}
		lx.cursor.Bump()
	}
	sp := lx.cursor.SpanFrom(start)
	lx.report(diag.LexUnterminatedString, sp, "unterminated string literal")
	return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
}

// Greedy matching: three-byte operators first, then two, then one.
func (lx *Lexer) scanOperatorOrPunct() token.Token {
	start := lx.cursor.Mark()
	emit := func(k token.Kind) token.Token {
		sp := lx.cursor.SpanFrom(start)
		return token.Token{Kind: k, Span: sp, Text: lx.text(sp)}
	}

	b0, b1, ok2 := lx.cursor.Peek2()
	if ok2 {
		// трёхсимвольные
		if (b0 == '<' && b1 == '<') || (b0 == '>' && b1 == '>') {
			mark := lx.cursor.Mark()
			lx.cursor.Bump()
			lx.cursor.Bump()
			if lx.cursor.Eat('=') {
				if b0 == '<' {
					return emit(token.ShlAssign)
				}
				return emit(token.ShrAssign)
			}
			lx.cursor.Reset(mark)
		}
	}

	switch {
	case lx.try2('*', '*'):
		return emit(token.StarStar)
	case lx.try2('+', '+'):
		return emit(token.PlusPlus)
	case lx.try2('-', '-'):
		return emit(token.MinusMinus)
	case lx.try2('-', '>'):
		return emit(token.Arrow)
	case lx.try2('=', '>'):
		return emit(token.FatArrow)
	case lx.try2('&', '&'):
		return emit(token.AndAnd)
	case lx.try2('|', '|'):
		return emit(token.OrOr)
	case lx.try2('=', '='):
		return emit(token.EqEq)
	case lx.try2('!', '='):
		return emit(token.BangEq)
	case lx.try2('<', '='):
		return emit(token.LtEq)
	case lx.try2('>', '='):
		return emit(token.GtEq)
	case lx.try2('<', '<'):
		return emit(token.Shl)
	case lx.try2('>', '>'):
		return emit(token.Shr)
	case lx.try2('+', '='):
		return emit(token.PlusAssign)
	case lx.try2('-', '='):
		return emit(token.MinusAssign)
	case lx.try2('*', '='):
		return emit(token.StarAssign)
	case lx.try2('/', '='):
		return emit(token.SlashAssign)
	case lx.try2('%', '='):
		return emit(token.PercentAssign)
	case lx.try2('&', '='):
		return emit(token.AmpAssign)
	case lx.try2('|', '='):
		return emit(token.PipeAssign)
	case lx.try2('^', '='):
		return emit(token.CaretAssign)
	}

	switch lx.cursor.Bump() {
	case '+':
		return emit(token.Plus)
	case '-':
		return emit(token.Minus)
	case '*':
		return emit(token.Star)
	case '/':
		return emit(token.Slash)
	case '%':
		return emit(token.Percent)
	case '=':
		return emit(token.Assign)
	case '!':
		return emit(token.Bang)
	case '<':
		return emit(token.Lt)
	case '>':
		return emit(token.Gt)
	case '&':
		return emit(token.Amp)
	case '|':
		return emit(token.Pipe)
	case '^':
		return emit(token.Caret)
	case '~':
		return emit(token.Tilde)
	case '?':
		return emit(token.Question)
	case ':':
		return emit(token.Colon)
	case ';':
		return emit(token.Semicolon)
	case ',':
		return emit(token.Comma)
	case '.':
		return emit(token.Dot)
	case '(':
		return emit(token.LParen)
	case ')':
		return emit(token.RParen)
	case '{':
		return emit(token.LBrace)
	case '}':
		return emit(token.RBrace)
	case '[':
		return emit(token.LBracket)
	case ']':
		return emit(token.RBracket)
	default:
		sp := lx.cursor.SpanFrom(start)
		lx.report(diag.LexUnknownChar, sp, "unexpected character")
		return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
	}
}
