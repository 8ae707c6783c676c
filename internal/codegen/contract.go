package codegen

import (
	"math/big"

	"solar/internal/asm"
	"solar/internal/ast"
	"solar/internal/diag"
	"solar/internal/evm"
	"solar/internal/source"
	"solar/internal/sema"
)

// Result is the compiled form of one contract.
type Result struct {
	Creation *asm.Assembly
	Runtime  *asm.Assembly
}

// CompileContract lowers one non-abstract contract into deployment and
// runtime assemblies. The runtime assembly becomes sub-assembly 0 of the
// creation assembly.
func CompileContract(
	info *sema.Info,
	contract ast.ItemID,
	opts Options,
	reporter diag.Reporter,
) *Result {
	runtime := asm.New("runtime", opts.Target)
	re := newEmitter(info, runtime, contract, opts, reporter)
	re.emitDispatcher()
	re.drainQueue()
	re.drainUtilities()

	creation := asm.New("creation", opts.Target)
	ce := newEmitter(info, creation, contract, opts, reporter)
	ce.emitConstructor(runtime)
	ce.drainQueue()
	ce.drainUtilities()

	if opts.Optimize {
		runtime.Peephole()
		runtime.OptimizeConstants(opts.OptimizeRuns)
		creation.Peephole()
		creation.OptimizeConstants(opts.OptimizeRuns)
	}
	return &Result{Creation: creation, Runtime: runtime}
}

// emitDispatcher builds the runtime entry: calldata-size guard, selector
// load, linear dispatch over the interface functions, fallback/receive
// routing.
func (e *Emitter) emitDispatcher() {
	decl, _ := e.info.Arenas.Items.Contract(e.mostDerived)
	e.pushSpan(decl.NameSpan)
	defer e.popSpan()

	ann := e.info.Ann.Contract(e.mostDerived)
	fallbackLbl := e.asm.NewLabel()

	// CALLDATASIZE < 4 → fallback/receive path
	e.op(evm.CALLDATASIZE)
	e.pushUint(4)
	e.op(evm.GT) // 4 > size
	e.pushLabel(fallbackLbl)
	e.op(evm.JUMPI)
	e.depth = 0

	// selector = calldata[0..4] >> 224
	e.pushUint(0)
	e.op(evm.CALLDATALOAD)
	e.pushUint(224)
	e.op(evm.SHR)

	type stub struct {
		fn    ast.ItemID
		label asm.LabelID
	}
	stubs := make([]stub, 0, len(ann.InterfaceFunctions))
	for _, ifn := range ann.InterfaceFunctions {
		l := e.asm.NewLabel()
		stubs = append(stubs, stub{fn: ifn.Fn, label: l})
		e.op(evm.Dup(1))
		e.depth-- // dup accounted manually: comparison consumes the copy
		e.depth++
		selector := new(big.Int).SetBytes(ifn.Selector[:])
		e.pushInt(selector)
		e.op(evm.EQ)
		e.pushLabel(l)
		e.op(evm.JUMPI)
	}
	// ни один селектор не совпал
	e.pop() // селектор
	e.jumpToFallback(fallbackLbl)

	// fallback / receive
	e.label(fallbackLbl)
	e.depth = 0
	e.emitFallbackPath()

	// внешние заглушки: guard значения, декодирование аргументов,
	// внутренний вызов, кодирование результата
	for _, s := range stubs {
		e.emitExternalStub(s.fn, s.label)
	}
}

func (e *Emitter) jumpToFallback(l asm.LabelID) {
	e.pushLabel(l)
	e.op(evm.JUMP)
	e.depth = 0
}

func (e *Emitter) emitFallbackPath() {
	decl, _ := e.info.Arenas.Items.Contract(e.mostDerived)
	var fallback, receive ast.ItemID
	for _, c := range e.info.Ann.Contract(e.mostDerived).Linearized {
		cdecl, ok := e.info.Arenas.Items.Contract(c)
		if !ok {
			continue
		}
		for _, member := range cdecl.Body {
			fn, isFn := e.info.Arenas.Items.Function(member)
			if !isFn {
				continue
			}
			switch fn.FnKind {
			case ast.FnFallback:
				if !fallback.IsValid() {
					fallback = member
				}
			case ast.FnReceive:
				if !receive.IsValid() {
					receive = member
				}
			}
		}
	}
	_ = decl

	if receive.IsValid() {
		// пустые calldata с приложенным эфиром идут в receive
		recvDone := e.asm.NewLabel()
		e.op(evm.CALLDATASIZE)
		e.pushLabel(recvDone)
		e.op(evm.JUMPI)
		e.depth = 0
		retLbl := e.asm.NewLabel()
		e.pushLabel(retLbl)
		e.pushLabel(e.entryLabel(receive))
		e.op(evm.JUMP)
		e.depth = 0
		e.label(retLbl)
		e.op(evm.STOP)
		e.label(recvDone)
		e.depth = 0
	}
	if fallback.IsValid() {
		fn, _ := e.info.Arenas.Items.Function(fallback)
		if fn.Mutability != ast.MutPayable {
			e.revertOnValue()
		}
		retLbl := e.asm.NewLabel()
		e.pushLabel(retLbl)
		e.pushLabel(e.entryLabel(fallback))
		e.op(evm.JUMP)
		e.depth = 0
		e.label(retLbl)
		e.op(evm.STOP)
		return
	}
	e.pushUint(0)
	e.pushUint(0)
	e.op(evm.REVERT)
	e.depth = 0
}

// revertOnValue rejects attached ether for non-payable entries.
func (e *Emitter) revertOnValue() {
	ok := e.asm.NewLabel()
	e.op(evm.CALLVALUE)
	e.op(evm.ISZERO)
	e.pushLabel(ok)
	e.op(evm.JUMPI)
	e.pushUint(0)
	e.pushUint(0)
	e.op(evm.REVERT)
	e.label(ok)
	e.depth = 0
}

// emitExternalStub decodes value-type arguments from calldata, invokes the
// internal entry, and ABI-encodes the returns.
func (e *Emitter) emitExternalStub(fn ast.ItemID, l asm.LabelID) {
	decl, _ := e.info.Arenas.Items.Function(fn)
	e.pushSpan(decl.NameSpan)
	defer e.popSpan()

	e.label(l)
	e.depth = 1 // селектор остался на стеке
	e.pop()
	if decl.Mutability != ast.MutPayable {
		e.revertOnValue()
	}

	target := e.resolveVirtual(fn)
	retLbl := e.asm.NewLabel()
	e.pushLabel(retLbl)
	for i := range decl.Params {
		e.pushUint(uint64(4 + 32*i)) //nolint:gosec // parameter counts are small
		e.op(evm.CALLDATALOAD)
		e.cleanValue(e.info.ParamType(decl.Params[i]))
	}
	e.pushLabel(e.entryLabel(target))
	e.op(evm.JUMP)
	e.depth = 0
	e.label(retLbl)

	rets := len(decl.Returns)
	e.depth = rets
	if rets == 0 {
		e.op(evm.STOP)
		e.depth = 0
		return
	}
	// возвраты на стеке, последний сверху: пишем с конца памяти
	for i := rets - 1; i >= 0; i-- {
		e.pushUint(uint64(32 * i)) //nolint:gosec // return counts are small
		e.op(evm.MSTORE)
	}
	e.pushUint(uint64(32 * rets)) //nolint:gosec // return counts are small
	e.pushUint(0)
	e.op(evm.RETURN)
	e.depth = 0
}

// emitConstructor builds the creation assembly: state initializers, the
// constructor body, then the copy-runtime-and-return epilogue.
func (e *Emitter) emitConstructor(runtime *asm.Assembly) {
	decl, _ := e.info.Arenas.Items.Contract(e.mostDerived)
	e.pushSpan(decl.NameSpan)
	defer e.popSpan()

	ctor := e.info.Constructor(e.mostDerived)
	if ctor.IsValid() {
		fn, _ := e.info.Arenas.Items.Function(ctor)
		if fn.Mutability != ast.MutPayable {
			e.revertOnValue()
		}
	}

	// инициализаторы переменных состояния, базовые контракты первыми
	lin := e.info.Ann.Contract(e.mostDerived).Linearized
	for i := len(lin) - 1; i >= 0; i-- {
		e.emitStateInitializers(lin[i])
	}

	if ctor.IsValid() {
		fn, _ := e.info.Arenas.Items.Function(ctor)
		// аргументы конструктора приложены за кодом создания
		if len(fn.Params) > 0 {
			e.decodeCreationArgs(len(fn.Params))
		}
		retLbl := e.asm.NewLabel()
		// стек: [args...] — переносим метку возврата под аргументы
		e.pushLabel(retLbl)
		if len(fn.Params) > 0 {
			e.rollToBottomOfArgs(len(fn.Params), fn.NameSpan)
		}
		e.pushLabel(e.entryLabel(ctor))
		e.op(evm.JUMP)
		e.depth = 0
		e.label(retLbl)
	}

	// копируем runtime-код в память и возвращаем его
	idx := e.asm.AppendSub(runtime)
	e.asm.Append(asm.Item{Kind: asm.ItemPush, Push: asm.PushSubSize, Index: idx, Span: e.span()})
	e.depth++
	e.asm.Append(asm.Item{Kind: asm.ItemPush, Push: asm.PushSubOffset, Index: idx, Span: e.span()})
	e.depth++
	e.pushUint(0)
	e.op(evm.CODECOPY)
	e.asm.Append(asm.Item{Kind: asm.ItemPush, Push: asm.PushSubSize, Index: idx, Span: e.span()})
	e.depth++
	e.pushUint(0)
	e.op(evm.RETURN)
	e.depth = 0
}

// decodeCreationArgs copies the constructor argument words appended after
// the creation code into memory and loads them onto the stack.
func (e *Emitter) decodeCreationArgs(n int) {
	size := uint64(32 * n) //nolint:gosec // parameter counts are small
	e.pushUint(size)
	e.asm.Append(asm.Item{Kind: asm.ItemPush, Push: asm.PushProgramSize, Span: e.span()})
	e.depth++
	e.pushUint(0)
	e.op(evm.CODECOPY)
	for i := 0; i < n; i++ {
		e.pushUint(uint64(32 * i)) //nolint:gosec // parameter counts are small
		e.op(evm.MLOAD)
	}
}

// rollToBottomOfArgs moves the freshly pushed return label below the n
// argument slots.
func (e *Emitter) rollToBottomOfArgs(n int, sp source.Span) {
	e.rollUnder(n, sp)
}

func (e *Emitter) emitStateInitializers(contract ast.ItemID) {
	decl, ok := e.info.Arenas.Items.Contract(contract)
	if !ok {
		return
	}
	for _, member := range decl.Body {
		v, isVar := e.info.Arenas.Items.Variable(member)
		if !isVar || v.Constant || !v.Value.IsValid() {
			continue
		}
		e.pushSpan(v.NameSpan)
		e.expr(v.Value)
		e.storeStateVar(member, v.NameSpan)
		e.popSpan()
	}
}
