package parser

import "solar/internal/token"

// binary precedence, higher binds tighter. 0 means "not a binary operator".
var binaryPrec = map[token.Kind]int{
	token.OrOr:     2,
	token.AndAnd:   3,
	token.EqEq:     4,
	token.BangEq:   4,
	token.Lt:       5,
	token.Gt:       5,
	token.LtEq:     5,
	token.GtEq:     5,
	token.Pipe:     6,
	token.Caret:    7,
	token.Amp:      8,
	token.Shl:      9,
	token.Shr:      9,
	token.Plus:     10,
	token.Minus:    10,
	token.Star:     11,
	token.Slash:    11,
	token.Percent:  11,
	token.StarStar: 12,
}

// exponentiation is right-associative
func rightAssoc(k token.Kind) bool {
	return k == token.StarStar
}

func isAssignOp(k token.Kind) bool {
	switch k {
	case token.Assign, token.PlusAssign, token.MinusAssign, token.StarAssign,
		token.SlashAssign, token.PercentAssign, token.AmpAssign,
		token.PipeAssign, token.CaretAssign, token.ShlAssign, token.ShrAssign:
		return true
	}
	return false
}
