// Package parser builds the annotated AST with a hand-written recursive
// descent. Binary expressions use precedence climbing. On an unexpected
// token the current production is abandoned and parsing resumes at the next
// top-level construct, so one run can report several errors.
package parser

import (
	"solar/internal/ast"
	"solar/internal/diag"
	"solar/internal/lexer"
	"solar/internal/source"
	"solar/internal/token"
)

type Options struct {
	MaxErrors     uint
	CurrentErrors uint
	Reporter      diag.Reporter
}

// Enough reports whether the error limit was reached.
func (o *Options) Enough() bool {
	if o.MaxErrors == 0 {
		return false
	}
	return o.CurrentErrors >= o.MaxErrors
}

type Result struct {
	Unit ast.UnitID
	Bag  *diag.Bag
}

// Parser is single-file parse state.
type Parser struct {
	lx       *lexer.Lexer
	arenas   *ast.Builder
	interner *source.Interner
	unit     ast.UnitID
	opts     Options
	lastSpan source.Span
	// quiet > 0 suppresses reports during speculative parses
	quiet int
}

// ParseUnit is the entry point for one source unit.
func ParseUnit(
	lx *lexer.Lexer,
	arenas *ast.Builder,
	interner *source.Interner,
	opts Options,
) Result {
	file := lx.File()
	p := Parser{
		lx:       lx,
		arenas:   arenas,
		interner: interner,
		unit:     arenas.NewUnit(file.ID, interner.Intern(file.Path), lx.EmptySpan()),
		opts:     opts,
		lastSpan: lx.EmptySpan(),
	}

	p.parseItems()

	var bag *diag.Bag
	if br, ok := opts.Reporter.(diag.BagReporter); ok {
		bag = br.Bag
	}
	return Result{Unit: p.unit, Bag: bag}
}

// parseItems is the top-level loop: until EOF, parseItem or resync.
func (p *Parser) parseItems() {
	startSpan := p.lx.Peek().Span
	for !p.at(token.EOF) {
		itemID, ok := p.parseItem()
		if !ok {
			p.resyncTop()
		} else if itemID.IsValid() {
			p.arenas.PushItem(p.unit, itemID)
		}
	}
	p.arenas.Units.Get(p.unit).Span = startSpan.Cover(p.lx.Peek().Span)
}

// parseItem dispatches on the leading token.
func (p *Parser) parseItem() (ast.ItemID, bool) {
	switch p.lx.Peek().Kind {
	case token.KwPragma:
		return p.parsePragma()
	case token.KwImport:
		return p.parseImport()
	case token.KwAbstract, token.KwContract, token.KwInterface, token.KwLibrary:
		return p.parseContract()
	case token.KwStruct:
		return p.parseStruct(ast.NoItemID)
	case token.KwEnum:
		return p.parseEnum(ast.NoItemID)
	case token.KwFunction:
		return p.parseFunction(ast.NoItemID)
	default:
		p.err(diag.SynUnexpectedTopLevel, "expected pragma, import, or contract-level declaration")
		return ast.NoItemID, false
	}
}

// resyncTop skips to the next top-level starter or EOF.
func (p *Parser) resyncTop() {
	p.resyncUntil(
		token.Semicolon, token.KwPragma, token.KwImport,
		token.KwAbstract, token.KwContract, token.KwInterface, token.KwLibrary,
	)
	if p.at(token.Semicolon) {
		p.advance()
	}
}

// parsePragma records the raw token text up to the semicolon; version
// constraints are out of scope for this pipeline.
func (p *Parser) parsePragma() (ast.ItemID, bool) {
	start := p.advance().Span // 'pragma'
	textStart := p.lx.Peek().Span
	for !p.at(token.Semicolon) && !p.at(token.EOF) {
		p.advance()
	}
	sp := start.Cover(p.lastSpan)
	raw := ""
	if textStart.Start <= p.lastSpan.End && p.lastSpan.File == textStart.File {
		raw = string(p.lx.File().Content[textStart.Start:p.lastSpan.End])
	}
	if _, ok := p.expect(token.Semicolon, diag.SynBadPragma, "expected ';' after pragma"); !ok {
		return ast.NoItemID, false
	}
	return p.arenas.Items.NewPragma(sp, ast.PragmaItem{Text: p.interner.Intern(raw)}), true
}

func (p *Parser) parseImport() (ast.ItemID, bool) {
	start := p.advance().Span // 'import'
	pathTok, ok := p.expect(token.StringLit, diag.SynBadImport, "expected import path string")
	if !ok {
		return ast.NoItemID, false
	}
	imp := ast.ImportItem{
		Path:     p.interner.Intern(unquote(pathTok.Text)),
		PathSpan: pathTok.Span,
	}
	if p.at(token.Ident) && p.lx.Peek().Text == "as" {
		p.advance()
		alias, okA := p.expect(token.Ident, diag.SynExpectIdentifier, "expected identifier after 'as'")
		if !okA {
			return ast.NoItemID, false
		}
		imp.Alias = p.interner.Intern(alias.Text)
	}
	if _, ok = p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';' after import"); !ok {
		return ast.NoItemID, false
	}
	return p.arenas.Items.NewImport(start.Cover(p.lastSpan), imp), true
}

func unquote(s string) string {
	if len(s) >= 2 {
		return s[1 : len(s)-1]
	}
	return s
}
