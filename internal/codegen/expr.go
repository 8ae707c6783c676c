package codegen

import (
	"fmt"
	"math/big"

	"solar/internal/asm"
	"solar/internal/ast"
	"solar/internal/evm"
	"solar/internal/source"
	"solar/internal/types"
)

// expr lowers one expression and returns the number of stack slots the
// result occupies. Invariant: after lowering an expression of type T the
// simulated stack has grown by the stack size of T.
func (e *Emitter) expr(id ast.ExprID) int {
	if !id.IsValid() || e.fnFailed {
		return 0
	}
	node := e.info.Arenas.Exprs.Get(id)
	e.pushSpan(node.Span)
	defer e.popSpan()

	before := e.depth
	size := e.exprInner(id)
	if !e.fnFailed && e.depth != before+size {
		panic(fmt.Errorf("ice: expression grew stack by %d, expected %d", e.depth-before, size))
	}
	return size
}

func (e *Emitter) exprInner(id ast.ExprID) int {
	node := e.info.Arenas.Exprs.Get(id)
	ann := e.info.Ann.Expr(id)
	p := e.provider()

	// константы сворачиваются в непосредственные значения
	if t := p.Get(ann.Type); t != nil && t.Kind == types.KindRational {
		v := p.RatValue(ann.Type)
		if v != nil && v.IsInt() {
			e.pushWord(v.Num())
			return 1
		}
	}

	switch node.Kind {
	case ast.ExprNumberLit:
		// нерациональный путь уже обработан выше; защитный ноль
		e.pushUint(0)
		return 1

	case ast.ExprBoolLit:
		lit, _ := e.info.Arenas.Exprs.BoolLit(id)
		if lit.Value {
			e.pushUint(1)
		} else {
			e.pushUint(0)
		}
		return 1

	case ast.ExprStringLit, ast.ExprHexLit:
		return e.stringLiteral(id)

	case ast.ExprIdent:
		return e.identValue(id, ann)

	case ast.ExprMember:
		return e.memberValue(id, ann)

	case ast.ExprIndex:
		return e.indexValue(id, ann)

	case ast.ExprCall:
		return e.callValue(id, ann)

	case ast.ExprBinary:
		return e.binaryValue(id, ann)

	case ast.ExprUnary:
		return e.unaryValue(id, ann)

	case ast.ExprAssign:
		return e.assignValue(id, ann)

	case ast.ExprTernary:
		return e.ternaryValue(id, ann)

	case ast.ExprTuple:
		tup, _ := e.info.Arenas.Exprs.Tuple(id)
		n := 0
		for _, el := range tup.Elems {
			if el.IsValid() {
				n += e.expr(el)
			}
		}
		return n

	case ast.ExprDelete:
		del, _ := e.info.Arenas.Exprs.Delete(id)
		e.storeZero(del.Operand)
		return 0

	case ast.ExprNew:
		// контрактный new опирается на под-сборку кода создания; в рамках
		// этого конвейера поддержан только через внешний вызов CREATE с
		// пустым кодом — оставляем адрес-ноль
		e.pushUint(0)
		return 1

	case ast.ExprElementaryType:
		return 0
	}
	panic(fmt.Errorf("ice: unhandled expression kind %d", node.Kind))
}

// pushWord materialises an integer literal as an unsigned 256-bit word.
func (e *Emitter) pushWord(v *big.Int) {
	if v.Sign() < 0 {
		w := new(big.Int).Add(v, wordModulus())
		e.pushInt(w)
		return
	}
	e.pushInt(v)
}

func wordModulus() *big.Int {
	return new(big.Int).Lsh(big.NewInt(1), 256)
}

// stringLiteral loads a short byte string (≤32 bytes) left-aligned into a
// word; longer literals land in the data section and load through
// CODECOPY.
func (e *Emitter) stringLiteral(id ast.ExprID) int {
	var raw string
	if lit, ok := e.info.Arenas.Exprs.StringLit(id); ok {
		raw, _ = e.info.Interner.Lookup(lit.Value)
	} else if lit, ok2 := e.info.Arenas.Exprs.HexLit(id); ok2 {
		raw, _ = e.info.Interner.Lookup(lit.Value)
	}
	if len(raw) <= 32 {
		word := make([]byte, 32)
		copy(word, raw)
		e.pushInt(new(big.Int).SetBytes(word))
		return 1
	}
	idx := e.asm.AppendData([]byte(raw))
	e.asm.Append(asmPushDataItem(idx, e.span()))
	e.depth++
	return 1
}

func (e *Emitter) identValue(id ast.ExprID, ann *ast.ExprAnn) int {
	sp := e.info.Arenas.Exprs.Get(id).Span
	if l, ok := e.info.LocalDecls[id]; ok {
		e.dupLocal(l, sp)
		return 1
	}
	if ann.Decl.IsValid() {
		switch e.info.Arenas.Items.Get(ann.Decl).Kind {
		case ast.ItemVariable:
			v, _ := e.info.Arenas.Items.Variable(ann.Decl)
			if v.Constant {
				if n := e.expr(v.Value); n > 0 {
					return n
				}
				e.pushUint(0)
				return 1
			}
			e.loadStateVar(ann.Decl)
			return 1
		case ast.ItemFunction:
			// ссылка на функцию: метка входа
			target := e.resolveVirtual(ann.Decl)
			e.pushLabel(e.entryLabel(target))
			return 1
		}
	}
	ident, _ := e.info.Arenas.Exprs.Ident(id)
	name, _ := e.info.Interner.Lookup(ident.Name)
	switch name {
	case "now":
		e.op(evm.TIMESTAMP)
		return 1
	case "this":
		e.op(evm.ADDRESS)
		return 1
	}
	// магические пространства значений не имеют; доступ идёт через member
	e.pushUint(0)
	return 1
}

func (e *Emitter) memberValue(id ast.ExprID, ann *ast.ExprAnn) int {
	mem, _ := e.info.Arenas.Exprs.Member(id)
	objT := e.typeOf(mem.Object)
	obj := e.provider().Get(objT)
	name, _ := e.info.Interner.Lookup(mem.Member)

	if obj != nil {
		switch obj.Kind {
		case types.KindMagic:
			return e.magicValue(obj.Magic, name)
		case types.KindAddress, types.KindContract:
			if name == "balance" {
				e.expr(mem.Object)
				e.op(evm.BALANCE)
				return 1
			}
		case types.KindTypeType:
			// перечисления: значение элемента
			at := e.provider().Get(obj.Elem)
			if at != nil && at.Kind == types.KindEnum {
				en, _ := e.info.Arenas.Items.Enum(ast.ItemID(at.DeclRef))
				for i, m := range en.Members {
					if m.Name == mem.Member {
						e.pushUint(uint64(i)) //nolint:gosec // member counts are small
						return 1
					}
				}
			}
			// константы контрактов: C.X
			if ann.Decl.IsValid() {
				if v, ok := e.info.Arenas.Items.Variable(ann.Decl); ok && v.Constant {
					return e.expr(v.Value)
				}
			}
		case types.KindArray:
			if name == "length" {
				return e.arrayLength(mem.Object, obj)
			}
		case types.KindFixedBytes:
			if name == "length" {
				e.pushUint(uint64(obj.Bits))
				return 1
			}
		}
	}
	// обращение к переменной состояния базового контракта или функции
	if ann.Decl.IsValid() {
		switch e.info.Arenas.Items.Get(ann.Decl).Kind {
		case ast.ItemVariable:
			e.loadStateVar(ann.Decl)
			return 1
		case ast.ItemFunction:
			target := e.resolveVirtual(ann.Decl)
			e.pushLabel(e.entryLabel(target))
			return 1
		}
	}
	e.pushUint(0)
	return 1
}

func (e *Emitter) magicValue(kind types.MagicKind, member string) int {
	switch kind {
	case types.MagicMsg:
		switch member {
		case "sender":
			e.op(evm.CALLER)
			return 1
		case "value":
			e.op(evm.CALLVALUE)
			return 1
		case "sig":
			e.pushUint(0)
			e.op(evm.CALLDATALOAD)
			maskHi := new(big.Int).Lsh(big.NewInt(0xffffffff), 224)
			e.pushInt(maskHi)
			e.op(evm.AND)
			return 1
		case "data":
			// calldata как пара (offset, length) не моделируется; длина
			e.op(evm.CALLDATASIZE)
			return 1
		}
	case types.MagicBlock:
		switch member {
		case "number":
			e.op(evm.NUMBER)
			return 1
		case "timestamp":
			e.op(evm.TIMESTAMP)
			return 1
		case "coinbase":
			e.op(evm.COINBASE)
			return 1
		case "difficulty":
			e.op(evm.PREVRANDAO)
			return 1
		case "gaslimit":
			e.op(evm.GASLIMIT)
			return 1
		case "chainid":
			e.op(evm.CHAINID)
			return 1
		case "basefee":
			e.op(evm.BASEFEE)
			return 1
		}
	case types.MagicTx:
		switch member {
		case "origin":
			e.op(evm.ORIGIN)
			return 1
		case "gasprice":
			e.op(evm.GASPRICE)
			return 1
		}
	}
	e.pushUint(0)
	return 1
}

// arrayLength loads the length of a storage dynamic array (its head slot).
func (e *Emitter) arrayLength(obj ast.ExprID, t *types.Type) int {
	if t.Loc == types.LocStorage && t.Dynamic {
		e.storageSlotOf(obj)
		e.op(evm.SLOAD)
		if t.ElemByte {
			// короткая форма хранит длину·2 в младшем бите слота
			l := e.requestUtility("byte_string_length", genByteStringLength)
			e.callUtility(l, 1, 1)
		}
		return 1
	}
	if !t.Dynamic {
		e.pushUint(t.Length)
		return 1
	}
	e.pushUint(0)
	return 1
}

func (e *Emitter) indexValue(id ast.ExprID, ann *ast.ExprAnn) int {
	idx, _ := e.info.Arenas.Exprs.Index(id)
	baseT := e.provider().Get(e.typeOf(idx.Base))
	if baseT == nil {
		e.pushUint(0)
		return 1
	}
	switch baseT.Kind {
	case types.KindMapping:
		e.storageSlotOf(idx.Base) // [slot]
		e.expr(idx.Index)         // [slot, key]
		e.mappingSlot()           // [slot']
		e.op(evm.SLOAD)
		vt := e.provider().Get(baseT.Value)
		if vt != nil && vt.IsValueType() {
			e.extractPacked(0, e.provider().ByteSize(baseT.Value), vt)
		}
		return 1
	case types.KindArray:
		if baseT.Loc == types.LocStorage {
			e.storageSlotOf(idx.Base)
			e.expr(idx.Index)
			e.arrayElementSlot(baseT)
			e.op(evm.SLOAD)
			return 1
		}
		// память: base — указатель; элементы словами за длиной
		e.expr(idx.Base)
		e.expr(idx.Index)
		e.pushUint(32)
		e.op(evm.MUL)
		e.op(evm.ADD)
		e.pushUint(32) // пропустить слово длины
		e.op(evm.ADD)
		e.op(evm.MLOAD)
		return 1
	case types.KindFixedBytes:
		e.expr(idx.Base)
		e.expr(idx.Index)
		e.op(evm.BYTE)
		return 1
	}
	e.pushUint(0)
	return 1
}

// storageSlotOf pushes the head slot of a storage l-value expression.
func (e *Emitter) storageSlotOf(id ast.ExprID) {
	ann := e.info.Ann.Expr(id)
	node := e.info.Arenas.Exprs.Get(id)
	switch node.Kind {
	case ast.ExprIdent:
		if ann.Decl.IsValid() {
			e.pushUint(uint64(e.info.Ann.Var(ann.Decl).Slot))
			return
		}
		if l, ok := e.info.LocalDecls[id]; ok {
			// локальный storage-указатель держит слот на стеке
			e.dupLocal(l, node.Span)
			return
		}
	case ast.ExprIndex:
		idx, _ := e.info.Arenas.Exprs.Index(id)
		baseT := e.provider().Get(e.typeOf(idx.Base))
		e.storageSlotOf(idx.Base)
		e.expr(idx.Index)
		if baseT.Kind == types.KindMapping {
			e.mappingSlot()
		} else {
			e.arrayElementSlot(baseT)
		}
		return
	case ast.ExprMember:
		mem, _ := e.info.Arenas.Exprs.Member(id)
		objT := e.provider().Get(e.typeOf(mem.Object))
		if objT != nil && objT.Kind == types.KindStruct {
			e.storageSlotOf(mem.Object)
			if off := e.structFieldSlotOffset(objT, mem.Member); off > 0 {
				e.pushUint(uint64(off))
				e.op(evm.ADD)
			}
			return
		}
		if ann.Decl.IsValid() {
			e.pushUint(uint64(e.info.Ann.Var(ann.Decl).Slot))
			return
		}
	}
	e.pushUint(0)
}

func (e *Emitter) structFieldSlotOffset(t *types.Type, field source.StringID) uint32 {
	s, _ := e.info.Arenas.Items.Struct(ast.ItemID(t.DeclRef))
	if s == nil {
		return 0
	}
	fields := e.provider().StructFields(t.DeclRef)
	var slot uint32
	for i, f := range s.Fields {
		if e.info.Arenas.Params.Get(f).Name == field {
			return slot
		}
		if i < len(fields) {
			slot += e.provider().StorageSlots(fields[i])
		}
	}
	return 0
}

func (e *Emitter) ternaryValue(id ast.ExprID, ann *ast.ExprAnn) int {
	t, _ := e.info.Arenas.Exprs.Ternary(id)
	elseLbl := e.asm.NewLabel()
	endLbl := e.asm.NewLabel()
	e.expr(t.Cond)
	e.op(evm.ISZERO)
	e.pushLabel(elseLbl)
	e.op(evm.JUMPI)
	n := e.expr(t.Then)
	e.pushLabel(endLbl)
	e.op(evm.JUMP)
	e.depth -= n
	e.label(elseLbl)
	e.expr(t.Else)
	e.label(endLbl)
	return n
}

func asmPushDataItem(idx int, sp source.Span) asm.Item {
	return asm.Item{Kind: asm.ItemPush, Push: asm.PushDataRef, Index: idx, Span: sp}
}
