// Package codegen lowers the annotated AST to stack-machine item streams.
// The emitter tracks a simulated stack, allocates locals as stack offsets,
// schedules not-yet-compiled callables through a FIFO queue, and resolves
// virtual calls against the most-derived contract's linearised base list.
package codegen

import (
	"fmt"
	"math/big"

	"solar/internal/asm"
	"solar/internal/ast"
	"solar/internal/diag"
	"solar/internal/evm"
	"solar/internal/sema"
	"solar/internal/source"
	"solar/internal/types"
)

// Options parameterise one contract compilation.
type Options struct {
	Target       evm.Version
	Optimize     bool
	OptimizeRuns int
	// StripRevertStrings drops reason strings from require/revert.
	StripRevertStrings bool
}

// Emitter is the per-assembly lowering state.
type Emitter struct {
	info     *sema.Info
	asm      *asm.Assembly
	opts     Options
	reporter diag.Reporter

	// mostDerived is the contract being compiled; virtual dispatch
	// resolves against its linearised base list.
	mostDerived ast.ItemID

	// function compilation queue (FIFO) plus the emitted set and the
	// entry label table
	queue   []ast.ItemID
	inQueue map[ast.ItemID]bool
	emitted map[ast.ItemID]bool
	entries map[ast.ItemID]asm.LabelID

	// low-level utility routines, generated on first request and drained
	// after the main walk
	utils     map[string]*utility
	utilOrder []string

	// simulated stack depth at the current program point
	depth int

	// per-function state
	fn        ast.ItemID
	fnFailed  bool
	locals    map[*sema.Local]int // base offset of each live local
	returnLbl asm.LabelID
	retSlots  int
	argSlots  int
	breakLbl  []asm.LabelID
	contLbl   []asm.LabelID
	loopDepth []int
	// placeholder is the substitution stack for modifier inlining: the
	// innermost entry expands `_;`.
	placeholder []func()
	scopeStack  []*scopeMark

	// visited-node span stack; items inherit the top span
	spans []source.Span
}

type utility struct {
	label asm.LabelID
	gen   func(e *Emitter)
}

func newEmitter(info *sema.Info, a *asm.Assembly, contract ast.ItemID, opts Options, reporter diag.Reporter) *Emitter {
	return &Emitter{
		info:        info,
		asm:         a,
		opts:        opts,
		reporter:    reporter,
		mostDerived: contract,
		inQueue:     make(map[ast.ItemID]bool),
		emitted:     make(map[ast.ItemID]bool),
		entries:     make(map[ast.ItemID]asm.LabelID),
		utils:       make(map[string]*utility),
	}
}

// span is the source position items are attributed to.
func (e *Emitter) span() source.Span {
	if len(e.spans) == 0 {
		return source.Span{}
	}
	return e.spans[len(e.spans)-1]
}

func (e *Emitter) pushSpan(sp source.Span) { e.spans = append(e.spans, sp) }
func (e *Emitter) popSpan()                { e.spans = e.spans[:len(e.spans)-1] }

func (e *Emitter) errorAt(code diag.Code, sp source.Span, msg string) {
	if e.reporter != nil {
		e.reporter.Report(code, diag.SevError, sp, msg, nil)
	}
}

// --- primitive emission helpers, all maintain the simulated stack ---

func (e *Emitter) op(op evm.Op) {
	e.asm.Op(op, e.span())
	e.depth += stackDelta(op)
}

func (e *Emitter) pushInt(v *big.Int) {
	e.asm.PushInt(v, e.span())
	e.depth++
}

func (e *Emitter) pushUint(v uint64) {
	e.asm.PushUint(v, e.span())
	e.depth++
}

func (e *Emitter) pushLabel(l asm.LabelID) {
	e.asm.PushLabel(l, e.span())
	e.depth++
}

func (e *Emitter) label(l asm.LabelID) {
	e.asm.Label(l, e.span())
}

// dup copies the value at distance d (1 = top) to the top.
func (e *Emitter) dup(d int, sp source.Span) bool {
	if d > evm.CopyHorizon {
		e.stackTooDeep(sp)
		return false
	}
	e.asm.Op(evm.Dup(d), e.span())
	e.depth++
	return true
}

// swap exchanges the top with the value at distance d below it.
func (e *Emitter) swap(d int, sp source.Span) bool {
	if d > evm.CopyHorizon {
		e.stackTooDeep(sp)
		return false
	}
	e.asm.Op(evm.Swap(d), e.span())
	return true
}

func (e *Emitter) pop() {
	e.op(evm.POP)
}

func (e *Emitter) stackTooDeep(sp source.Span) {
	if !e.fnFailed {
		e.errorAt(diag.GenStackTooDeep, sp,
			"stack too deep: variable is unreachable for DUP/SWAP; try reducing local variables")
		e.fnFailed = true
	}
}

// dupLocal copies a local variable to the top of the stack. Offsets are
// 1-based positions from the stack bottom at function scope.
func (e *Emitter) dupLocal(l *sema.Local, sp source.Span) {
	base, ok := e.locals[l]
	if !ok {
		panic(fmt.Errorf("ice: local %v has no stack slot", l.Name))
	}
	e.dup(e.depth-base+1, sp)
}

// storeLocal assigns the top of the stack to a local variable.
func (e *Emitter) storeLocal(l *sema.Local, sp source.Span) {
	base, ok := e.locals[l]
	if !ok {
		panic(fmt.Errorf("ice: local %v has no stack slot", l.Name))
	}
	d := e.depth - base
	if d == 0 {
		return
	}
	if !e.swap(d, sp) {
		return
	}
	e.pop()
}

// rollToTop moves the value at distance d to the top, preserving the
// relative order of everything above it.
func (e *Emitter) rollToTop(d int, sp source.Span) bool {
	for i := 1; i <= d; i++ {
		if !e.swap(i, sp) {
			return false
		}
	}
	return true
}

// rollUnder sinks the top value to distance d, preserving the relative
// order of the values it passes (the inverse of rollToTop).
func (e *Emitter) rollUnder(d int, sp source.Span) bool {
	for i := d; i >= 1; i-- {
		if !e.swap(i, sp) {
			return false
		}
	}
	return true
}

// stackDelta is the net stack effect of one opcode.
func stackDelta(op evm.Op) int {
	switch op {
	case evm.STOP, evm.JUMPDEST:
		return 0
	case evm.ADD, evm.MUL, evm.SUB, evm.DIV, evm.SDIV, evm.MOD, evm.SMOD,
		evm.EXP, evm.SIGNEXTEND, evm.LT, evm.GT, evm.SLT, evm.SGT, evm.EQ,
		evm.AND, evm.OR, evm.XOR, evm.BYTE, evm.SHL, evm.SHR, evm.SAR,
		evm.KECCAK256:
		return -1
	case evm.ADDMOD, evm.MULMOD:
		return -2
	case evm.ISZERO, evm.NOT, evm.BALANCE, evm.CALLDATALOAD, evm.EXTCODESIZE,
		evm.BLOCKHASH, evm.MLOAD, evm.SLOAD, evm.EXTCODEHASH:
		return 0
	case evm.ADDRESS, evm.ORIGIN, evm.CALLER, evm.CALLVALUE, evm.CALLDATASIZE,
		evm.CODESIZE, evm.GASPRICE, evm.RETURNDATASIZE, evm.COINBASE,
		evm.TIMESTAMP, evm.NUMBER, evm.PREVRANDAO, evm.GASLIMIT, evm.CHAINID,
		evm.SELFBALANCE, evm.BASEFEE, evm.PC, evm.MSIZE, evm.GAS:
		return 1
	case evm.POP, evm.JUMP, evm.SELFDESTRUCT:
		return -1
	case evm.MSTORE, evm.MSTORE8, evm.SSTORE, evm.JUMPI:
		return -2
	case evm.CALLDATACOPY, evm.CODECOPY, evm.RETURNDATACOPY:
		return -3
	case evm.EXTCODECOPY:
		return -4
	case evm.RETURN, evm.REVERT:
		return -2
	case evm.LOG0:
		return -2
	case evm.LOG1:
		return -3
	case evm.LOG2:
		return -4
	case evm.LOG3:
		return -5
	case evm.LOG4:
		return -6
	case evm.CREATE:
		return -2
	case evm.CREATE2:
		return -3
	case evm.CALL, evm.CALLCODE:
		return -6
	case evm.DELEGATECALL, evm.STATICCALL:
		return -5
	case evm.INVALID:
		return 0
	default:
		if _, ok := evm.IsPush(op); ok {
			return 1
		}
		if op >= evm.DUP1 && op <= evm.DUP16 {
			return 1
		}
		if op >= evm.SWAP1 && op <= evm.SWAP16 {
			return 0
		}
		return 0
	}
}

// --- queue management ---

// entryLabel returns the entry label of a callable, allocating it and
// enqueuing the callable on first reference.
func (e *Emitter) entryLabel(fn ast.ItemID) asm.LabelID {
	if l, ok := e.entries[fn]; ok {
		return l
	}
	l := e.asm.NewLabel()
	e.entries[fn] = l
	if !e.emitted[fn] && !e.inQueue[fn] {
		e.queue = append(e.queue, fn)
		e.inQueue[fn] = true
	}
	return l
}

// drainQueue compiles every referenced callable; the FIFO order keeps
// output deterministic.
func (e *Emitter) drainQueue() {
	for len(e.queue) > 0 {
		fn := e.queue[0]
		e.queue = e.queue[1:]
		delete(e.inQueue, fn)
		if e.emitted[fn] {
			continue
		}
		e.emitted[fn] = true
		e.compileFunction(fn)
	}
}

// requestUtility returns the label of a named utility routine, recording
// its generator on first request.
func (e *Emitter) requestUtility(name string, gen func(e *Emitter)) asm.LabelID {
	if u, ok := e.utils[name]; ok {
		return u.label
	}
	u := &utility{label: e.asm.NewLabel(), gen: gen}
	e.utils[name] = u
	e.utilOrder = append(e.utilOrder, name)
	return u.label
}

// drainUtilities appends the code of every requested utility. Utilities
// may request further utilities while generating.
func (e *Emitter) drainUtilities() {
	for i := 0; i < len(e.utilOrder); i++ {
		name := e.utilOrder[i]
		u := e.utils[name]
		if u.gen == nil {
			continue
		}
		gen := u.gen
		u.gen = nil
		gen(e)
	}
}

// typeOf is a shortcut into the expression annotations.
func (e *Emitter) typeOf(id ast.ExprID) types.TypeID {
	return e.info.Ann.Expr(id).Type
}

func (e *Emitter) provider() *types.Provider {
	return e.info.Provider
}
