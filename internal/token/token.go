// Package token defines lexical token kinds for the solar compiler.
// Invariants:
//   - Token.Text holds a copy of the token's source bytes.
//   - Token.Span matches Text exactly (Start..End).
//   - Comments never appear in the main token stream.
//   - Elementary sized type names (uint256, bytes4, ...) are identifiers,
//     recognized by the semantic layer rather than the lexer.
package token

import (
	"solar/internal/source"
)

// Token represents a single source token with its location.
type Token struct {
	Kind Kind
	Span source.Span
	Text string
}

// IsLiteral reports whether the token is a number, string, or bool literal.
func (t Token) IsLiteral() bool {
	switch t.Kind {
	case NumberLit, StringLit, HexStringLit, KwTrue, KwFalse:
		return true
	default:
		return false
	}
}

// IsDataLocation reports whether the token names a data location.
func (t Token) IsDataLocation() bool {
	switch t.Kind {
	case KwMemory, KwStorage, KwCalldata:
		return true
	default:
		return false
	}
}

// IsVisibility reports whether the token names a visibility.
func (t Token) IsVisibility() bool {
	switch t.Kind {
	case KwPublic, KwPrivate, KwInternal, KwExternal:
		return true
	default:
		return false
	}
}

// IsMutability reports whether the token names a state mutability.
func (t Token) IsMutability() bool {
	switch t.Kind {
	case KwPure, KwView, KwPayable:
		return true
	default:
		return false
	}
}

// IsElementaryTypeKeyword reports whether the token starts an elementary
// type name on its own (address/bool/string/bytes keywords).
func (t Token) IsElementaryTypeKeyword() bool {
	switch t.Kind {
	case KwAddress, KwBool, KwString, KwBytes:
		return true
	default:
		return false
	}
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

var kindNames = [...]string{
	Invalid: "Invalid", EOF: "EOF", Ident: "Ident",
	NumberLit: "NumberLit", StringLit: "StringLit", HexStringLit: "HexStringLit",
	KwPragma: "pragma", KwImport: "import", KwContract: "contract",
	KwInterface: "interface", KwLibrary: "library", KwAbstract: "abstract",
	KwIs: "is", KwFunction: "function", KwModifier: "modifier",
	KwConstructor: "constructor", KwFallback: "fallback", KwReceive: "receive",
	KwEvent: "event", KwStruct: "struct", KwEnum: "enum", KwMapping: "mapping",
	KwReturns: "returns", KwReturn: "return", KwIf: "if", KwElse: "else",
	KwWhile: "while", KwDo: "do", KwFor: "for", KwBreak: "break",
	KwContinue: "continue", KwNew: "new", KwDelete: "delete", KwEmit: "emit",
	KwUsing: "using", KwPublic: "public", KwPrivate: "private",
	KwInternal: "internal", KwExternal: "external", KwPure: "pure",
	KwView: "view", KwPayable: "payable", KwConstant: "constant",
	KwVirtual: "virtual", KwOverride: "override", KwMemory: "memory",
	KwStorage: "storage", KwCalldata: "calldata", KwIndexed: "indexed",
	KwAnonymous: "anonymous", KwAssembly: "assembly", KwAddress: "address",
	KwBool: "bool", KwString: "string", KwBytes: "bytes",
	KwTrue: "true", KwFalse: "false", KwType: "type",
	Plus: "+", Minus: "-", Star: "*", StarStar: "**", Slash: "/", Percent: "%",
	Assign: "=", PlusAssign: "+=", MinusAssign: "-=", StarAssign: "*=",
	SlashAssign: "/=", PercentAssign: "%=", AmpAssign: "&=", PipeAssign: "|=",
	CaretAssign: "^=", ShlAssign: "<<=", ShrAssign: ">>=",
	PlusPlus: "++", MinusMinus: "--", EqEq: "==", Bang: "!", BangEq: "!=",
	Lt: "<", LtEq: "<=", Gt: ">", GtEq: ">=", Shl: "<<", Shr: ">>",
	Amp: "&", Pipe: "|", Caret: "^", Tilde: "~", AndAnd: "&&", OrOr: "||",
	Question: "?", Colon: ":", Semicolon: ";", Comma: ",", Dot: ".",
	Arrow: "->", FatArrow: "=>", LParen: "(", RParen: ")", LBrace: "{",
	RBrace: "}", LBracket: "[", RBracket: "]", Underscore: "_",
}
