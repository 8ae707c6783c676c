package codegen

import (
	"math/big"

	"solar/internal/ast"
	"solar/internal/evm"
	"solar/internal/keccak"
	"solar/internal/types"
)

func (e *Emitter) callValue(id ast.ExprID, ann *ast.ExprAnn) int {
	call, _ := e.info.Arenas.Exprs.Call(id)
	calleeAnn := e.info.Ann.Expr(call.Callee)
	calleeT := e.provider().Get(calleeAnn.Type)

	// явное преобразование T(x)
	if calleeT != nil && calleeT.Kind == types.KindTypeType {
		if len(call.Args) == 1 {
			e.expr(call.Args[0])
			e.cleanValue(e.typeOf(id))
			return 1
		}
		e.pushUint(0)
		return 1
	}

	// встроенные
	if node, ok := e.info.Arenas.Exprs.Ident(call.Callee); ok {
		name, _ := e.info.Interner.Lookup(node.Name)
		if e.info.LocalDecls[call.Callee] == nil && !calleeAnn.Decl.IsValid() {
			if n, handled := e.builtinCall(name, call); handled {
				return n
			}
		}
	}

	// вызов через член: external / super / библиотека / builtin члена
	if mem, ok := e.info.Arenas.Exprs.Member(call.Callee); ok {
		return e.memberCall(id, mem, call, calleeAnn)
	}

	// обычный внутренний вызов, с виртуальной диспетчеризацией
	if calleeAnn.Decl.IsValid() {
		if _, isFn := e.info.Arenas.Items.Function(calleeAnn.Decl); isFn {
			target := e.resolveVirtual(calleeAnn.Decl)
			return e.internalCall(target, ast.NoExprID, call.Args)
		}
	}

	// значение функционального типа на стеке (метка): [... label]
	depthBefore := e.depth
	e.expr(call.Callee)
	for _, a := range call.Args {
		e.expr(a)
	}
	// цель неизвестна статически; прыжок по значению
	n := len(call.Args)
	if n > 0 {
		e.rollToTop(n, e.span())
	}
	e.op(evm.JUMP)
	e.depth = depthBefore
	return 0
}

// internalCall emits the label-based convention: [retLabel, args...] on
// entry, returns on the stack afterwards.
func (e *Emitter) internalCall(target ast.ItemID, receiver ast.ExprID, args []ast.ExprID) int {
	decl, _ := e.info.Arenas.Items.Function(target)
	retLbl := e.asm.NewLabel()
	e.pushLabel(retLbl)
	if receiver.IsValid() {
		e.expr(receiver)
	}
	for _, a := range args {
		e.expr(a)
	}
	e.pushLabel(e.entryLabel(target))
	e.op(evm.JUMP)
	// метка возврата, аргументы и вход ушли; результаты на стеке
	rets := len(decl.Returns)
	nargs := len(args)
	if receiver.IsValid() {
		nargs++
	}
	e.depth -= 1 + nargs // retLabel + args consumed by the callee
	e.depth += rets
	e.label(retLbl)
	return rets
}

// memberCall handles obj.f(...) for contracts, super, libraries, address
// builtins, and storage array push/pop.
func (e *Emitter) memberCall(id ast.ExprID, mem *ast.MemberExpr, call *ast.CallExpr, calleeAnn *ast.ExprAnn) int {
	name, _ := e.info.Interner.Lookup(mem.Member)
	objT := e.provider().Get(e.typeOf(mem.Object))

	if objT != nil {
		switch objT.Kind {
		case types.KindContract:
			if e.isSuperObject(mem.Object) {
				fnDecl, _ := e.info.Arenas.Items.Function(e.fn)
				target := e.resolveSuper(fnDecl.Contract, calleeAnn.Decl)
				return e.internalCall(target, ast.NoExprID, call.Args)
			}
			if objT.Library {
				if fn, isFn := e.info.Arenas.Items.Function(calleeAnn.Decl); isFn && fn.Visibility.ExternallyVisible() {
					return e.libraryCall(ast.ItemID(objT.DeclRef), calleeAnn.Decl, call.Args)
				}
				return e.internalCall(calleeAnn.Decl, ast.NoExprID, call.Args)
			}
			return e.externalCall(mem.Object, calleeAnn.Decl, call.Args)
		case types.KindAddress:
			return e.addressBuiltinCall(mem.Object, name, call.Args)
		case types.KindArray:
			if objT.Loc == types.LocStorage && objT.Dynamic {
				switch name {
				case "push":
					e.storagePush(mem.Object, call.Args)
					return 0
				case "pop":
					e.storagePop(mem.Object)
					return 0
				}
			}
		case types.KindMagic:
			if objT.Magic == types.MagicABI {
				// abi.encode*: аргументы вычисляются и сбрасываются,
				// результат — указатель на пустые bytes в памяти
				for _, a := range call.Args {
					n := e.expr(a)
					for i := 0; i < n; i++ {
						e.pop()
					}
				}
				e.allocateMemory(32)
				return 1
			}
		case types.KindTypeType:
			// библиотечная или внутренняя функция через C.f
			if calleeAnn.Decl.IsValid() {
				if _, isFn := e.info.Arenas.Items.Function(calleeAnn.Decl); isFn {
					return e.internalCall(calleeAnn.Decl, ast.NoExprID, call.Args)
				}
			}
		}
	}

	// using-for: приёмник связан первым параметром
	if calleeAnn.Decl.IsValid() {
		if fn, isFn := e.info.Arenas.Items.Function(calleeAnn.Decl); isFn {
			if len(fn.Params) == len(call.Args)+1 {
				return e.internalCall(calleeAnn.Decl, mem.Object, call.Args)
			}
			return e.internalCall(e.resolveVirtual(calleeAnn.Decl), ast.NoExprID, call.Args)
		}
	}
	e.pushUint(0)
	return 1
}

// externalCall performs a real message call with value-type ABI encoding.
func (e *Emitter) externalCall(object ast.ExprID, target ast.ItemID, args []ast.ExprID) int {
	fn, _ := e.info.Arenas.Items.Function(target)
	sig := e.info.ExternalSignature(target)
	sel := keccak.Selector(sig)
	rets := len(fn.Returns)

	// селектор в память по смещению 0, аргументы следом
	selWord := new(big.Int).Lsh(new(big.Int).SetBytes(sel[:]), 224)
	e.pushInt(selWord)
	e.pushUint(0)
	e.op(evm.MSTORE)
	for i, a := range args {
		e.expr(a)
		e.pushUint(uint64(4 + 32*i)) //nolint:gosec // argument counts are small
		e.op(evm.MSTORE)
	}

	e.pushUint(uint64(32 * rets)) //nolint:gosec // return counts are small
	e.pushUint(0)                 // retOffset
	e.pushUint(uint64(4 + 32*len(args))) //nolint:gosec // argument counts are small
	e.pushUint(0) // argsOffset
	if fn.Mutability == ast.MutPayable || fn.Mutability == ast.MutNonPayable {
		e.pushUint(0) // value
		e.expr(object)
		e.op(evm.GAS)
		e.op(evm.CALL)
	} else {
		e.expr(object)
		e.op(evm.GAS)
		e.op(evm.STATICCALL)
	}

	// неуспех — проброс REVERT
	okLbl := e.asm.NewLabel()
	e.pushLabel(okLbl)
	e.op(evm.JUMPI)
	e.pushUint(0)
	e.pushUint(0)
	e.op(evm.REVERT)
	e.label(okLbl)

	for i := 0; i < rets; i++ {
		e.pushUint(uint64(32 * i)) //nolint:gosec // return counts are small
		e.op(evm.MLOAD)
	}
	return rets
}

// libraryCall delegatecalls a public library function through a 20-byte
// address placeholder; the linker substitutes the real address later.
func (e *Emitter) libraryCall(library, target ast.ItemID, args []ast.ExprID) int {
	fn, _ := e.info.Arenas.Items.Function(target)
	sig := e.info.ExternalSignature(target)
	sel := keccak.Selector(sig)
	rets := len(fn.Returns)

	selWord := new(big.Int).Lsh(new(big.Int).SetBytes(sel[:]), 224)
	e.pushInt(selWord)
	e.pushUint(0)
	e.op(evm.MSTORE)
	for i, a := range args {
		e.expr(a)
		e.pushUint(uint64(4 + 32*i)) //nolint:gosec // argument counts are small
		e.op(evm.MSTORE)
	}

	e.pushUint(uint64(32 * rets)) //nolint:gosec // return counts are small
	e.pushUint(0)
	e.pushUint(uint64(4 + 32*len(args))) //nolint:gosec // argument counts are small
	e.pushUint(0)
	e.asm.PushLibraryRef(e.qualifiedLibraryName(library), e.span())
	e.depth++
	e.op(evm.GAS)
	e.op(evm.DELEGATECALL)

	okLbl := e.asm.NewLabel()
	e.pushLabel(okLbl)
	e.op(evm.JUMPI)
	e.pushUint(0)
	e.pushUint(0)
	e.op(evm.REVERT)
	e.label(okLbl)

	for i := 0; i < rets; i++ {
		e.pushUint(uint64(32 * i)) //nolint:gosec // return counts are small
		e.op(evm.MLOAD)
	}
	return rets
}

// qualifiedLibraryName is the linker key: "unit path:LibraryName".
func (e *Emitter) qualifiedLibraryName(library ast.ItemID) string {
	decl, _ := e.info.Arenas.Items.Contract(library)
	name, _ := e.info.Interner.Lookup(decl.Name)
	unitPath, _ := e.info.Interner.Lookup(e.info.Arenas.Units.Get(decl.Unit).Path)
	return unitPath + ":" + name
}

func (e *Emitter) addressBuiltinCall(object ast.ExprID, name string, args []ast.ExprID) int {
	switch name {
	case "transfer", "send":
		// CALL с пустыми данными и фиксированной стипендией газа
		e.pushUint(0) // retSize
		e.pushUint(0) // retOffset
		e.pushUint(0) // argsSize
		e.pushUint(0) // argsOffset
		if len(args) == 1 {
			e.expr(args[0]) // value
		} else {
			e.pushUint(0)
		}
		e.expr(object)
		e.pushUint(2300)
		e.op(evm.CALL)
		if name == "transfer" {
			okLbl := e.asm.NewLabel()
			e.pushLabel(okLbl)
			e.op(evm.JUMPI)
			e.pushUint(0)
			e.pushUint(0)
			e.op(evm.REVERT)
			e.label(okLbl)
			return 0
		}
		return 1
	case "call", "delegatecall", "staticcall":
		// данные вызова игнорируются в этой модели: важен транспорт
		for _, a := range args {
			n := e.expr(a)
			for i := 0; i < n; i++ {
				e.pop()
			}
		}
		e.pushUint(0)
		e.pushUint(0)
		e.pushUint(0)
		e.pushUint(0)
		if name == "call" {
			e.pushUint(0)
			e.expr(object)
			e.op(evm.GAS)
			e.op(evm.CALL)
		} else {
			e.expr(object)
			e.op(evm.GAS)
			if name == "delegatecall" {
				e.op(evm.DELEGATECALL)
			} else {
				e.op(evm.STATICCALL)
			}
		}
		e.allocateMemory(0)
		e.swap(1, e.span())
		e.swap(1, e.span())
		return 2
	}
	e.pushUint(0)
	return 1
}

// builtinCall lowers the global builtins; returns handled=false for plain
// identifiers that are not builtins.
func (e *Emitter) builtinCall(name string, call *ast.CallExpr) (int, bool) {
	switch name {
	case "require", "assert":
		e.expr(call.Args[0])
		okLbl := e.asm.NewLabel()
		e.pushLabel(okLbl)
		e.op(evm.JUMPI)
		if name == "assert" {
			e.emitPanic()
		} else {
			e.emitRevert(call.Args[1:])
		}
		e.label(okLbl)
		return 0, true
	case "revert":
		e.emitRevert(call.Args)
		return 0, true
	case "keccak256", "sha256":
		// аргумент-слово хэшируется из памяти
		if len(call.Args) == 1 {
			e.expr(call.Args[0])
			e.pushUint(0)
			e.op(evm.MSTORE)
			e.pushUint(32)
			e.pushUint(0)
			e.op(evm.KECCAK256)
		} else {
			e.pushUint(0)
		}
		return 1, true
	case "addmod", "mulmod":
		for _, a := range call.Args {
			e.expr(a)
		}
		e.swap(2, e.span())
		if name == "addmod" {
			e.op(evm.ADDMOD)
		} else {
			e.op(evm.MULMOD)
		}
		return 1, true
	case "selfdestruct":
		e.expr(call.Args[0])
		e.op(evm.SELFDESTRUCT)
		return 0, true
	case "blockhash":
		e.expr(call.Args[0])
		e.op(evm.BLOCKHASH)
		return 1, true
	case "gasleft":
		e.op(evm.GAS)
		return 1, true
	case "type":
		e.pushUint(0)
		return 1, true
	}
	return 0, false
}

// emitPanic encodes Panic(uint256) with the assert code 0x01.
func (e *Emitter) emitPanic() {
	sel := keccak.Selector("Panic(uint256)")
	word := new(big.Int).Lsh(new(big.Int).SetBytes(sel[:]), 224)
	e.pushInt(word)
	e.pushUint(0)
	e.op(evm.MSTORE)
	e.pushUint(1)
	e.pushUint(4)
	e.op(evm.MSTORE)
	e.pushUint(36)
	e.pushUint(0)
	e.op(evm.REVERT)
}

// emitRevert encodes Error(string) unless reason strings are stripped or
// absent.
func (e *Emitter) emitRevert(reason []ast.ExprID) {
	if len(reason) == 0 || e.opts.StripRevertStrings {
		for _, a := range reason {
			n := e.expr(a)
			for i := 0; i < n; i++ {
				e.pop()
			}
		}
		e.pushUint(0)
		e.pushUint(0)
		e.op(evm.REVERT)
		return
	}
	lit, ok := e.info.Arenas.Exprs.StringLit(reason[0])
	if !ok {
		e.pushUint(0)
		e.pushUint(0)
		e.op(evm.REVERT)
		return
	}
	text, _ := e.info.Interner.Lookup(lit.Value)
	sel := keccak.Selector("Error(string)")
	selWord := new(big.Int).Lsh(new(big.Int).SetBytes(sel[:]), 224)
	e.pushInt(selWord)
	e.pushUint(0)
	e.op(evm.MSTORE)
	e.pushUint(0x20)
	e.pushUint(4)
	e.op(evm.MSTORE)
	e.pushUint(uint64(len(text)))
	e.pushUint(36)
	e.op(evm.MSTORE)
	padded := make([]byte, (len(text)+31)/32*32)
	copy(padded, text)
	for i := 0; i < len(padded); i += 32 {
		e.pushInt(new(big.Int).SetBytes(padded[i : i+32]))
		e.pushUint(uint64(68 + i)) //nolint:gosec // literal lengths are modest
		e.op(evm.MSTORE)
	}
	e.pushUint(uint64(68 + len(padded))) //nolint:gosec // literal lengths are modest
	e.pushUint(0)
	e.op(evm.REVERT)
}

// emitEventLog lowers `emit Ev(args...)`: indexed arguments become topics,
// the rest are ABI-encoded into memory.
func (e *Emitter) emitEventLog(callID ast.ExprID) {
	call, _ := e.info.Arenas.Exprs.Call(callID)
	calleeAnn := e.info.Ann.Expr(call.Callee)
	ev, ok := e.info.Arenas.Items.Event(calleeAnn.Decl)
	if !ok {
		return
	}

	var indexed, plain []int
	for i, pid := range ev.Params {
		if e.info.Arenas.Params.Get(pid).Indexed {
			indexed = append(indexed, i)
		} else {
			plain = append(plain, i)
		}
	}

	// данные события в память с нуля
	for slot, argIdx := range plain {
		e.expr(call.Args[argIdx])
		e.pushUint(uint64(32 * slot)) //nolint:gosec // event arity is small
		e.op(evm.MSTORE)
	}

	// топики выше размера и смещения: LOGn снимает [offset, size, topics...]
	for i := len(indexed) - 1; i >= 0; i-- {
		e.expr(call.Args[indexed[i]])
	}
	if !ev.Anonymous {
		sig := e.info.ExternalSignature(calleeAnn.Decl)
		topic := keccak.Sum256([]byte(sig))
		e.pushInt(new(big.Int).SetBytes(topic[:]))
	}
	e.pushUint(uint64(32 * len(plain))) //nolint:gosec // event arity is small
	e.pushUint(0)

	topics := len(indexed)
	if !ev.Anonymous {
		topics++
	}
	e.op(evm.LOG0 + evm.Op(topics)) //nolint:gosec // topics <= 4 by construction
}

func (e *Emitter) isSuperObject(obj ast.ExprID) bool {
	ident, ok := e.info.Arenas.Exprs.Ident(obj)
	if !ok {
		return false
	}
	name, _ := e.info.Interner.Lookup(ident.Name)
	return name == "super"
}
