package sema

import (
	"math/big"
	"strings"

	"solar/internal/ast"
	"solar/internal/token"
)

var denominations = map[string]*big.Int{
	"wei":     big.NewInt(1),
	"gwei":    big.NewInt(1_000_000_000),
	"ether":   new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil),
	"seconds": big.NewInt(1),
	"minutes": big.NewInt(60),
	"hours":   big.NewInt(3600),
	"days":    big.NewInt(86400),
	"weeks":   big.NewInt(604800),
}

// evalRational folds a literal expression into an exact rational. Returns
// nil when the expression is not a compile-time number.
func (info *Info) evalRational(id ast.ExprID) *big.Rat {
	if !id.IsValid() {
		return nil
	}
	e := info.Arenas.Exprs.Get(id)
	switch e.Kind {
	case ast.ExprNumberLit:
		p, _ := info.Arenas.Exprs.NumberLit(id)
		v := parseNumber(info.spell(p.Text))
		if v == nil {
			return nil
		}
		if p.Denomination != 0 {
			mult, ok := denominations[info.spell(p.Denomination)]
			if !ok {
				return nil
			}
			v.Mul(v, new(big.Rat).SetInt(mult))
		}
		return v
	case ast.ExprBinary:
		p, _ := info.Arenas.Exprs.Binary(id)
		l, r := info.evalRational(p.Left), info.evalRational(p.Right)
		if l == nil || r == nil {
			return nil
		}
		switch p.Op {
		case token.Plus:
			return new(big.Rat).Add(l, r)
		case token.Minus:
			return new(big.Rat).Sub(l, r)
		case token.Star:
			return new(big.Rat).Mul(l, r)
		case token.Slash:
			if r.Sign() == 0 {
				return nil
			}
			return new(big.Rat).Quo(l, r)
		case token.Percent:
			if !l.IsInt() || !r.IsInt() || r.Sign() == 0 {
				return nil
			}
			return new(big.Rat).SetInt(new(big.Int).Mod(l.Num(), r.Num()))
		case token.StarStar:
			if !r.IsInt() || r.Sign() < 0 || !r.Num().IsInt64() || !l.IsInt() {
				return nil
			}
			return new(big.Rat).SetInt(new(big.Int).Exp(l.Num(), r.Num(), nil))
		case token.Shl:
			if !l.IsInt() || !r.IsInt() || !r.Num().IsInt64() || r.Sign() < 0 {
				return nil
			}
			return new(big.Rat).SetInt(new(big.Int).Lsh(l.Num(), uint(r.Num().Int64())))
		case token.Shr:
			if !l.IsInt() || !r.IsInt() || !r.Num().IsInt64() || r.Sign() < 0 {
				return nil
			}
			return new(big.Rat).SetInt(new(big.Int).Rsh(l.Num(), uint(r.Num().Int64())))
		}
		return nil
	case ast.ExprUnary:
		p, _ := info.Arenas.Exprs.Unary(id)
		if !p.Prefix {
			return nil
		}
		v := info.evalRational(p.Operand)
		if v == nil {
			return nil
		}
		switch p.Op {
		case token.Minus:
			return new(big.Rat).Neg(v)
		case token.Plus:
			return v
		}
		return nil
	case ast.ExprIdent:
		// константные переменные состояния сворачиваются по значению
		ann, ok := info.Ann.Exprs[id]
		if ok && ann.Decl.IsValid() {
			if v, isVar := info.Arenas.Items.Variable(ann.Decl); isVar && v.Constant && v.Value.IsValid() {
				return info.evalRational(v.Value)
			}
		}
		return nil
	default:
		return nil
	}
}

// parseNumber handles decimal, hex, and exponent forms; separators were
// already stripped by the parser.
func parseNumber(text string) *big.Rat {
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		v, ok := new(big.Int).SetString(text[2:], 16)
		if !ok {
			return nil
		}
		return new(big.Rat).SetInt(v)
	}
	v, ok := new(big.Rat).SetString(text)
	if !ok {
		return nil
	}
	return v
}

// evalConstUint folds an expression into a non-negative integer (array
// lengths). Returns (0, false) when not a constant or out of range.
func (info *Info) evalConstUint(id ast.ExprID) (uint64, bool) {
	v := info.evalRational(id)
	if v == nil || !v.IsInt() || v.Sign() < 0 || !v.Num().IsUint64() {
		return 0, false
	}
	return v.Num().Uint64(), true
}
