package codegen

import (
	"solar/internal/ast"
	"solar/internal/evm"
	"solar/internal/token"
	"solar/internal/types"
)

func (e *Emitter) binaryValue(id ast.ExprID, ann *ast.ExprAnn) int {
	bin, _ := e.info.Arenas.Exprs.Binary(id)

	// логические операторы коротко замыкаются
	switch bin.Op {
	case token.AndAnd:
		endLbl := e.asm.NewLabel()
		e.expr(bin.Left)
		e.dup(1, e.span())
		e.op(evm.ISZERO)
		e.pushLabel(endLbl)
		e.op(evm.JUMPI)
		e.pop()
		e.expr(bin.Right)
		e.label(endLbl)
		return 1
	case token.OrOr:
		endLbl := e.asm.NewLabel()
		e.expr(bin.Left)
		e.dup(1, e.span())
		e.pushLabel(endLbl)
		e.op(evm.JUMPI)
		e.pop()
		e.expr(bin.Right)
		e.label(endLbl)
		return 1
	}

	signed := e.isSignedOperand(bin.Left)

	e.expr(bin.Left)
	e.expr(bin.Right)
	// бинарные опкоды ожидают левый операнд сверху
	e.swap(1, e.span())

	switch bin.Op {
	case token.Plus:
		e.op(evm.ADD)
	case token.Minus:
		e.op(evm.SUB)
	case token.Star:
		e.op(evm.MUL)
	case token.Slash:
		if signed {
			e.op(evm.SDIV)
		} else {
			e.op(evm.DIV)
		}
	case token.Percent:
		if signed {
			e.op(evm.SMOD)
		} else {
			e.op(evm.MOD)
		}
	case token.StarStar:
		e.op(evm.EXP)
	case token.Amp:
		e.op(evm.AND)
	case token.Pipe:
		e.op(evm.OR)
	case token.Caret:
		e.op(evm.XOR)
	case token.Shl:
		// SHL ждёт величину сдвига сверху: операнды уже переставлены
		e.swap(1, e.span())
		e.op(evm.SHL)
	case token.Shr:
		e.swap(1, e.span())
		if signed {
			e.op(evm.SAR)
		} else {
			e.op(evm.SHR)
		}
	case token.EqEq:
		e.op(evm.EQ)
	case token.BangEq:
		e.op(evm.EQ)
		e.op(evm.ISZERO)
	case token.Lt:
		if signed {
			e.op(evm.SLT)
		} else {
			e.op(evm.LT)
		}
	case token.Gt:
		if signed {
			e.op(evm.SGT)
		} else {
			e.op(evm.GT)
		}
	case token.LtEq:
		if signed {
			e.op(evm.SGT)
		} else {
			e.op(evm.GT)
		}
		e.op(evm.ISZERO)
	case token.GtEq:
		if signed {
			e.op(evm.SLT)
		} else {
			e.op(evm.LT)
		}
		e.op(evm.ISZERO)
	default:
		e.pop()
	}
	_ = ann
	return 1
}

func (e *Emitter) isSignedOperand(id ast.ExprID) bool {
	t := e.provider().Get(e.typeOf(id))
	return t != nil && t.Kind == types.KindInteger && t.Signed
}

func (e *Emitter) unaryValue(id ast.ExprID, ann *ast.ExprAnn) int {
	un, _ := e.info.Arenas.Exprs.Unary(id)
	switch un.Op {
	case token.Bang:
		e.expr(un.Operand)
		e.op(evm.ISZERO)
		return 1
	case token.Tilde:
		e.expr(un.Operand)
		e.op(evm.NOT)
		return 1
	case token.Minus:
		e.expr(un.Operand)
		e.pushUint(0)
		e.op(evm.SUB) // 0 - x
		return 1
	case token.Plus:
		return e.expr(un.Operand)
	case token.PlusPlus, token.MinusMinus:
		return e.incDec(un, ann)
	}
	e.pushUint(0)
	return 1
}

// incDec lowers ++/--: prefix yields the new value, postfix the old one.
func (e *Emitter) incDec(un *ast.UnaryExpr, ann *ast.ExprAnn) int {
	e.expr(un.Operand) // old value
	if !un.Prefix {
		e.dup(1, e.span())
	}
	e.pushUint(1)
	if un.Op == token.PlusPlus {
		e.op(evm.ADD)
	} else {
		e.swap(1, e.span())
		e.op(evm.SUB)
	}
	if un.Prefix {
		e.dup(1, e.span())
	}
	// стек: postfix [old, new], prefix [new, new]; верхний уходит в lvalue
	e.storeTo(un.Operand)
	_ = ann
	return 1
}

func (e *Emitter) assignValue(id ast.ExprID, ann *ast.ExprAnn) int {
	as, _ := e.info.Arenas.Exprs.Assign(id)

	// строковый литерал в storage: упаковка короткой/длинной формы
	if as.Op == token.Assign {
		lt := e.provider().Get(e.typeOf(as.Left))
		if lt != nil && lt.Kind == types.KindArray && lt.ElemByte && lt.Loc == types.LocStorage {
			if text, ok := e.literalText(as.Right); ok {
				e.emitStringStorageStore(as.Left, text)
				return 0
			}
		}
	}

	// кортежное присваивание
	if tup, ok := e.info.Arenas.Exprs.Tuple(as.Left); ok {
		n := e.expr(as.Right)
		// значения сверху, последнее — на вершине; компоненты справа
		// налево
		for i := len(tup.Elems) - 1; i >= 0; i-- {
			if !tup.Elems[i].IsValid() {
				e.pop()
				continue
			}
			e.storeTo(tup.Elems[i])
		}
		_ = n
		return 0
	}

	if as.Op == token.Assign {
		e.expr(as.Right)
	} else {
		// составное присваивание разворачивается в бинарную операцию
		e.expr(as.Left)
		e.expr(as.Right)
		e.swap(1, e.span())
		switch as.Op {
		case token.PlusAssign:
			e.op(evm.ADD)
		case token.MinusAssign:
			e.op(evm.SUB)
		case token.StarAssign:
			e.op(evm.MUL)
		case token.SlashAssign:
			if e.isSignedOperand(as.Left) {
				e.op(evm.SDIV)
			} else {
				e.op(evm.DIV)
			}
		case token.PercentAssign:
			if e.isSignedOperand(as.Left) {
				e.op(evm.SMOD)
			} else {
				e.op(evm.MOD)
			}
		case token.AmpAssign:
			e.op(evm.AND)
		case token.PipeAssign:
			e.op(evm.OR)
		case token.CaretAssign:
			e.op(evm.XOR)
		case token.ShlAssign:
			e.swap(1, e.span())
			e.op(evm.SHL)
		case token.ShrAssign:
			e.swap(1, e.span())
			e.op(evm.SHR)
		default:
			e.pop()
		}
	}
	// результат присваивания — присвоенное значение
	e.dup(1, e.span())
	e.storeTo(as.Left)
	_ = ann
	return 1
}

// storeTo writes the top of the stack into an l-value and consumes it.
func (e *Emitter) storeTo(lv ast.ExprID) {
	node := e.info.Arenas.Exprs.Get(lv)
	ann := e.info.Ann.Expr(lv)

	switch node.Kind {
	case ast.ExprIdent:
		if l, ok := e.info.LocalDecls[lv]; ok {
			e.storeLocal(l, node.Span)
			return
		}
		if ann.Decl.IsValid() {
			e.storeStateVar(ann.Decl, node.Span)
			return
		}
	case ast.ExprMember:
		mem, _ := e.info.Arenas.Exprs.Member(lv)
		objT := e.provider().Get(e.typeOf(mem.Object))
		if objT != nil && objT.Kind == types.KindStruct && objT.Loc == types.LocStorage {
			e.storageSlotOf(lv)
			e.op(evm.SSTORE)
			return
		}
		if ann.Decl.IsValid() {
			e.storeStateVar(ann.Decl, node.Span)
			return
		}
	case ast.ExprIndex:
		idx, _ := e.info.Arenas.Exprs.Index(lv)
		baseT := e.provider().Get(e.typeOf(idx.Base))
		if baseT != nil && (baseT.Kind == types.KindMapping || (baseT.Kind == types.KindArray && baseT.Loc == types.LocStorage)) {
			e.storageSlotOf(lv)
			e.op(evm.SSTORE)
			return
		}
		if baseT != nil && baseT.Kind == types.KindArray {
			// память: адрес элемента, затем MSTORE
			e.expr(idx.Base)
			e.expr(idx.Index)
			e.pushUint(32)
			e.op(evm.MUL)
			e.op(evm.ADD)
			e.pushUint(32)
			e.op(evm.ADD)
			e.op(evm.MSTORE)
			return
		}
	}
	// нераспознанный l-value: значение снимается
	e.pop()
}

// literalText extracts the raw contents of a string or hex literal.
func (e *Emitter) literalText(id ast.ExprID) (string, bool) {
	if lit, ok := e.info.Arenas.Exprs.StringLit(id); ok {
		s, _ := e.info.Interner.Lookup(lit.Value)
		return s, true
	}
	if lit, ok := e.info.Arenas.Exprs.HexLit(id); ok {
		s, _ := e.info.Interner.Lookup(lit.Value)
		return s, true
	}
	return "", false
}

// storeZero lowers `delete x` for value slots.
func (e *Emitter) storeZero(lv ast.ExprID) {
	e.pushUint(0)
	e.storeTo(lv)
}
