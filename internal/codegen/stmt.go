package codegen

import (
	"fmt"

	"solar/internal/asm"
	"solar/internal/ast"
	"solar/internal/evm"
	"solar/internal/sema"
)

// stmt lowers one statement. Invariant: the simulated stack height after a
// statement equals the height before it, unless the statement diverges.
func (e *Emitter) stmt(id ast.StmtID) {
	if !id.IsValid() || e.fnFailed {
		return
	}
	s := e.info.Arenas.Stmts.Get(id)
	e.pushSpan(s.Span)
	defer e.popSpan()

	before := e.depth
	diverges := false

	switch s.Kind {
	case ast.StmtBlock:
		blk, _ := e.info.Arenas.Stmts.Block(id)
		mark := e.depth
		scope := e.beginScope()
		for _, st := range blk.Stmts {
			e.stmt(st)
		}
		e.endScope(scope, mark)
	case ast.StmtIf:
		e.ifStmt(id)
	case ast.StmtWhile:
		e.whileStmt(id)
	case ast.StmtDoWhile:
		e.doWhileStmt(id)
	case ast.StmtFor:
		e.forStmt(id)
	case ast.StmtBreak:
		e.breakStmt()
		diverges = true
	case ast.StmtContinue:
		e.continueStmt()
		diverges = true
	case ast.StmtReturn:
		e.returnStmt(id)
		diverges = true
	case ast.StmtEmit:
		e.emitStmt(id)
	case ast.StmtVarDecl:
		e.varDeclStmt(id)
		// объявление поднимает стек на размер локалов — это единственное
		// исключение из инварианта высоты
		return
	case ast.StmtExpr:
		p, _ := e.info.Arenas.Stmts.Expr(id)
		n := e.expr(p.Expr)
		for i := 0; i < n; i++ {
			e.pop()
		}
	case ast.StmtAssembly:
		// непрозрачный блок: записанный текст уходит ассемблеру как данные
		p, _ := e.info.Arenas.Stmts.Assembly(id)
		text, _ := e.info.Interner.Lookup(p.Text)
		e.asm.AppendData([]byte(text))
	case ast.StmtPlaceholder:
		if len(e.placeholder) > 0 {
			e.placeholder[len(e.placeholder)-1]()
		}
	}

	if !diverges && !e.fnFailed && e.depth != before {
		panic(fmt.Errorf("ice: stack height %d after statement, expected %d", e.depth, before))
	}
}

// scope tracks the locals declared inside a block so they die with it.
type scopeMark struct {
	locals []*sema.Local
}

func (e *Emitter) beginScope() *scopeMark {
	sc := &scopeMark{}
	e.scopeStack = append(e.scopeStack, sc)
	return sc
}

func (e *Emitter) endScope(sc *scopeMark, mark int) {
	for e.depth > mark {
		e.pop()
	}
	for _, l := range sc.locals {
		delete(e.locals, l)
	}
	e.scopeStack = e.scopeStack[:len(e.scopeStack)-1]
}

func (e *Emitter) currentScope() *scopeMark {
	if len(e.scopeStack) == 0 {
		return nil
	}
	return e.scopeStack[len(e.scopeStack)-1]
}

func (e *Emitter) ifStmt(id ast.StmtID) {
	p, _ := e.info.Arenas.Stmts.If(id)
	elseLbl := e.asm.NewLabel()
	endLbl := e.asm.NewLabel()

	e.expr(p.Cond)
	e.op(evm.ISZERO)
	e.pushLabel(elseLbl)
	e.op(evm.JUMPI)

	e.stmt(p.Then)
	if p.Else.IsValid() {
		e.pushLabel(endLbl)
		e.op(evm.JUMP)
		e.label(elseLbl)
		e.stmt(p.Else)
		e.label(endLbl)
	} else {
		e.label(elseLbl)
	}
}

func (e *Emitter) whileStmt(id ast.StmtID) {
	p, _ := e.info.Arenas.Stmts.While(id)
	condLbl := e.asm.NewLabel()
	endLbl := e.asm.NewLabel()

	e.label(condLbl)
	e.expr(p.Cond)
	e.op(evm.ISZERO)
	e.pushLabel(endLbl)
	e.op(evm.JUMPI)

	e.pushLoop(endLbl, condLbl)
	e.stmt(p.Body)
	e.popLoop()

	e.pushLabel(condLbl)
	e.op(evm.JUMP)
	e.label(endLbl)
}

func (e *Emitter) doWhileStmt(id ast.StmtID) {
	p, _ := e.info.Arenas.Stmts.While(id)
	bodyLbl := e.asm.NewLabel()
	condLbl := e.asm.NewLabel()
	endLbl := e.asm.NewLabel()

	e.label(bodyLbl)
	e.pushLoop(endLbl, condLbl)
	e.stmt(p.Body)
	e.popLoop()

	e.label(condLbl)
	e.expr(p.Cond)
	e.pushLabel(bodyLbl)
	e.op(evm.JUMPI)
	e.label(endLbl)
}

func (e *Emitter) forStmt(id ast.StmtID) {
	p, _ := e.info.Arenas.Stmts.For(id)
	condLbl := e.asm.NewLabel()
	postLbl := e.asm.NewLabel()
	endLbl := e.asm.NewLabel()

	mark := e.depth
	scope := e.beginScope()
	e.stmt(p.Init)

	e.label(condLbl)
	if p.Cond.IsValid() {
		e.expr(p.Cond)
		e.op(evm.ISZERO)
		e.pushLabel(endLbl)
		e.op(evm.JUMPI)
	}

	e.pushLoop(endLbl, postLbl)
	e.stmt(p.Body)
	e.popLoop()

	e.label(postLbl)
	if p.Post.IsValid() {
		n := e.expr(p.Post)
		for i := 0; i < n; i++ {
			e.pop()
		}
	}
	e.pushLabel(condLbl)
	e.op(evm.JUMP)
	e.label(endLbl)

	e.endScope(scope, mark)
}

func (e *Emitter) pushLoop(breakLbl, contLbl asm.LabelID) {
	e.breakLbl = append(e.breakLbl, breakLbl)
	e.contLbl = append(e.contLbl, contLbl)
	e.loopDepth = append(e.loopDepth, e.depth)
}

func (e *Emitter) popLoop() {
	e.breakLbl = e.breakLbl[:len(e.breakLbl)-1]
	e.contLbl = e.contLbl[:len(e.contLbl)-1]
	e.loopDepth = e.loopDepth[:len(e.loopDepth)-1]
}

func (e *Emitter) breakStmt() {
	if len(e.breakLbl) == 0 {
		return
	}
	e.unwindTo(e.loopDepth[len(e.loopDepth)-1])
	e.pushLabel(e.breakLbl[len(e.breakLbl)-1])
	e.op(evm.JUMP)
}

func (e *Emitter) continueStmt() {
	if len(e.contLbl) == 0 {
		return
	}
	e.unwindTo(e.loopDepth[len(e.loopDepth)-1])
	e.pushLabel(e.contLbl[len(e.contLbl)-1])
	e.op(evm.JUMP)
}

// unwindTo emits pops for the jump path only: the simulated height stays
// untouched because the fall-through path still owns the slots.
func (e *Emitter) unwindTo(target int) {
	for n := e.depth - target; n > 0; n-- {
		e.asm.Op(evm.POP, e.span())
	}
}

func (e *Emitter) returnStmt(id ast.StmtID) {
	p, _ := e.info.Arenas.Stmts.Return(id)
	if p.Value.IsValid() {
		n := e.expr(p.Value)
		// значения сверху, последнее — на вершине; пишем в слоты
		// возвратов с конца
		for i := n - 1; i >= 0; i-- {
			e.storeReturnSlot(i)
		}
	}
	// снять временные до базовой высоты и уйти на выход
	base := 1 + e.argSlots + e.retSlots
	e.unwindTo(base)
	e.pushLabel(e.returnLbl)
	e.op(evm.JUMP)
}

// storeReturnSlot writes the top of the stack into return slot i (0-based).
func (e *Emitter) storeReturnSlot(i int) {
	base := 1 + e.argSlots + i + 1
	d := e.depth - base
	if d <= 0 {
		panic(fmt.Errorf("ice: return value below its slot (depth %d, base %d)", e.depth, base))
	}
	if !e.swap(d, e.span()) {
		return
	}
	e.pop()
}

func (e *Emitter) emitStmt(id ast.StmtID) {
	p, _ := e.info.Arenas.Stmts.Emit(id)
	e.emitEventLog(p.Call)
}

func (e *Emitter) varDeclStmt(id ast.StmtID) {
	p, _ := e.info.Arenas.Stmts.VarDecl(id)
	if p.Value.IsValid() {
		e.expr(p.Value)
	} else {
		for range p.Decls {
			e.pushUint(0)
		}
	}
	// значения лежат в порядке объявления, последнее сверху; базовые
	// смещения идут снизу вверх
	n := len(p.Decls)
	for i := 0; i < n; i++ {
		l := e.localForDecl(id, i)
		if l == nil {
			continue
		}
		e.locals[l] = e.depth - n + 1 + i
		if sc := e.currentScope(); sc != nil {
			sc.locals = append(sc.locals, l)
		}
	}
}

func (e *Emitter) localForDecl(stmt ast.StmtID, idx int) *sema.Local {
	for _, l := range e.info.LocalDecls {
		if l.DeclStmt == stmt && l.DeclIdx == idx {
			return l
		}
	}
	return nil
}
