// Package lexer turns source bytes into tokens. Comments and whitespace are
// skipped; every emitted token's Text is a copy of its source bytes.
package lexer

import (
	"solar/internal/diag"
	"solar/internal/source"
	"solar/internal/token"
)

type Lexer struct {
	file     *source.File
	cursor   Cursor
	reporter diag.Reporter
	look     *token.Token // одноэлементный буфер для Peek
}

func New(file *source.File, reporter diag.Reporter) *Lexer {
	return &Lexer{
		file:     file,
		cursor:   NewCursor(file),
		reporter: reporter,
	}
}

// Next returns the next significant token. After EOF it always returns EOF.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}

	lx.skipTrivia()

	if lx.cursor.EOF() {
		return token.Token{Kind: token.EOF, Span: lx.EmptySpan()}
	}

	ch := lx.cursor.Peek()
	switch {
	case isIdentStart(ch):
		return lx.scanIdentOrKeyword()
	case isDec(ch):
		return lx.scanNumber()
	case ch == '"' || ch == '\'':
		return lx.scanString(ch)
	default:
		return lx.scanOperatorOrPunct()
	}
}

// Peek returns the next token without consuming it.
func (lx *Lexer) Peek() token.Token {
	t := lx.Next()
	lx.look = &t
	return t
}

// State is an opaque lexer position for speculative parsing.
type State struct {
	off  uint32
	look *token.Token
}

// Snapshot captures the current position. Diagnostics emitted after a
// snapshot are not rolled back; speculate with a NopReporter when that
// matters.
func (lx *Lexer) Snapshot() State {
	return State{off: lx.cursor.Off, look: lx.look}
}

// Restore rewinds to a previous snapshot.
func (lx *Lexer) Restore(s State) {
	lx.cursor.Off = s.off
	lx.look = s.look
}

// EmptySpan is a zero-length span at the current position.
func (lx *Lexer) EmptySpan() source.Span {
	return source.Span{File: lx.file.ID, Start: lx.cursor.Off, End: lx.cursor.Off}
}

// File returns the unit this lexer reads.
func (lx *Lexer) File() *source.File {
	return lx.file
}

func (lx *Lexer) skipTrivia() {
	for !lx.cursor.EOF() {
		switch lx.cursor.Peek() {
		case ' ', '\t', '\n', '\r':
			lx.cursor.Bump()
		case '/':
			b0, b1, ok := lx.cursor.Peek2()
			if !ok || b0 != '/' {
				return
			}
			switch b1 {
			case '/':
				for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
					lx.cursor.Bump()
				}
			case '*':
				start := lx.cursor.Mark()
				lx.cursor.Bump()
				lx.cursor.Bump()
				closed := false
				for !lx.cursor.EOF() {
					if lx.cursor.Eat('*') && lx.cursor.Eat('/') {
						closed = true
						break
					}
					if lx.cursor.Peek() != '*' {
						lx.cursor.Bump()
					}
				}
				if !closed {
					lx.report(diag.LexUnterminatedComment, lx.cursor.SpanFrom(start), "unterminated block comment")
				}
			default:
				return
			}
		default:
			return
		}
	}
}

func (lx *Lexer) report(code diag.Code, sp source.Span, msg string) {
	if lx.reporter != nil {
		lx.reporter.Report(code, diag.SevError, sp, msg, nil)
	}
}

func (lx *Lexer) text(sp source.Span) string {
	return string(lx.file.Content[sp.Start:sp.End])
}

func isIdentStart(b byte) bool {
	return b == '_' || b == '$' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentContinue(b byte) bool {
	return isIdentStart(b) || isDec(b)
}

func isDec(b byte) bool { return b >= '0' && b <= '9' }

func isHex(b byte) bool {
	return isDec(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func (lx *Lexer) try2(a, b byte) bool {
	b0, b1, ok := lx.cursor.Peek2()
	if ok && b0 == a && b1 == b {
		lx.cursor.Bump()
		lx.cursor.Bump()
		return true
	}
	return false
}
