package parser

import (
	"strconv"
	"strings"

	"solar/internal/token"
)

// isElementaryTypeIdent reports whether an identifier spells a sized
// elementary type: uint/int with optional width 8..256 step 8, or bytesN
// with N in 1..32. The lexer keeps these as Ident; recognition happens here
// and in the semantic layer.
func isElementaryTypeIdent(text string) bool {
	switch text {
	case "uint", "int", "byte":
		return true
	}
	for _, prefix := range [...]string{"uint", "int"} {
		if rest, ok := strings.CutPrefix(text, prefix); ok && rest != "" {
			n, err := strconv.Atoi(rest)
			return err == nil && n >= 8 && n <= 256 && n%8 == 0
		}
	}
	if rest, ok := strings.CutPrefix(text, "bytes"); ok && rest != "" {
		n, err := strconv.Atoi(rest)
		return err == nil && n >= 1 && n <= 32
	}
	return false
}

// startsElementaryType reports whether tok begins an elementary type name.
func startsElementaryType(tok token.Token) bool {
	if tok.IsElementaryTypeKeyword() {
		return true
	}
	return tok.Kind == token.Ident && isElementaryTypeIdent(tok.Text)
}
