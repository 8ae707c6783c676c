package codegen

import (
	"fmt"

	"solar/internal/ast"
	"solar/internal/evm"
	"solar/internal/sema"
	"solar/internal/source"
	"solar/internal/types"
)

// compileFunction emits one callable: entry label, named-return slots,
// inlined modifier chain around the body, and the exit protocol.
// Convention: the caller pushes [return label, args...] and jumps to the
// entry; the callee leaves [returns...] and jumps back.
func (e *Emitter) compileFunction(fn ast.ItemID) {
	decl, _ := e.info.Arenas.Items.Function(fn)
	e.pushSpan(decl.NameSpan)
	defer e.popSpan()

	e.fn = fn
	e.fnFailed = false
	e.locals = make(map[*sema.Local]int)
	e.returnLbl = e.asm.NewLabel()
	e.argSlots = len(decl.Params)
	e.retSlots = len(decl.Returns)

	e.label(e.entries[fn])
	e.depth = 1 + len(decl.Params) // [retLabel, args...]

	// параметры получают базовые смещения
	for i, pid := range decl.Params {
		if l := e.localForParam(pid); l != nil {
			e.locals[l] = 2 + i // слот 1 — метка возврата
		}
	}
	// именованные возвраты аллоцируются нулями
	for _, pid := range decl.Returns {
		e.pushUint(0)
		if l := e.localForParam(pid); l != nil {
			e.locals[l] = e.depth
		}
	}

	if decl.FnKind == ast.FnGetter {
		e.emitGetterBody(decl)
	} else if decl.Body.IsValid() || len(decl.Modifiers) > 0 {
		e.emitModifierChain(decl, 0)
	}

	e.emitFunctionExit(decl.NameSpan)
}

// localForParam finds the sema Local bound to a parameter declaration.
func (e *Emitter) localForParam(pid ast.ParamID) *sema.Local {
	for _, l := range e.info.LocalDecls {
		if l.Param == pid {
			return l
		}
	}
	// параметры без использований не попадают в LocalDecls; создаём
	// анонимный слот, чтобы смещения не плыли
	p := e.info.Arenas.Params.Get(pid)
	if p.Name == source.NoStringID {
		return nil
	}
	l := &sema.Local{Name: p.Name, Type: e.info.ParamType(pid), Span: p.Span, Param: pid}
	return l
}

// emitModifierChain inlines modifier idx around the rest of the chain; the
// innermost wrapper is the function body. Each placeholder statement
// substitutes the next wrapper in place.
func (e *Emitter) emitModifierChain(decl *ast.FunctionItem, idx int) {
	if idx >= len(decl.Modifiers) {
		if decl.Body.IsValid() {
			e.stmt(decl.Body)
		}
		return
	}
	inv := decl.Modifiers[idx]
	mod := e.lookupModifier(decl.Contract, inv.Name)
	if !mod.IsValid() {
		// вызов конструктора базового контракта обрабатывается в
		// creation-коде; здесь просто продолжаем цепочку
		e.emitModifierChain(decl, idx+1)
		return
	}
	mdecl, _ := e.info.Arenas.Items.Modifier(mod)

	// аргументы модификатора оцениваются один раз и становятся локалами
	baseDepth := e.depth
	for i, arg := range inv.Args {
		e.expr(arg)
		if i < len(mdecl.Params) {
			if l := e.localForParam(mdecl.Params[i]); l != nil {
				e.locals[l] = baseDepth + i + 1
			}
		}
	}

	e.placeholder = append(e.placeholder, func() {
		e.emitModifierChain(decl, idx+1)
	})
	e.stmt(mdecl.Body)
	e.placeholder = e.placeholder[:len(e.placeholder)-1]

	// аргументы модификатора уходят со стека
	for range inv.Args {
		e.pop()
	}
}

func (e *Emitter) lookupModifier(contract ast.ItemID, name source.StringID) ast.ItemID {
	if !contract.IsValid() {
		return ast.NoItemID
	}
	for _, cand := range e.info.VisibleMembers(contract, name) {
		if _, ok := e.info.Arenas.Items.Modifier(cand); ok {
			return e.resolveVirtualModifier(cand)
		}
	}
	return ast.NoItemID
}

// resolveVirtualModifier picks the most-derived modifier of the same name.
func (e *Emitter) resolveVirtualModifier(mod ast.ItemID) ast.ItemID {
	mdecl, _ := e.info.Arenas.Items.Modifier(mod)
	for _, c := range e.info.Ann.Contract(e.mostDerived).Linearized {
		for _, cand := range e.info.Members[e.mostDerived].ByName[mdecl.Name] {
			if e.memberOf(cand) == c {
				if _, ok := e.info.Arenas.Items.Modifier(cand); ok {
					return cand
				}
			}
		}
	}
	return mod
}

func (e *Emitter) memberOf(item ast.ItemID) ast.ItemID {
	switch e.info.Arenas.Items.Get(item).Kind {
	case ast.ItemFunction:
		p, _ := e.info.Arenas.Items.Function(item)
		return p.Contract
	case ast.ItemModifier:
		p, _ := e.info.Arenas.Items.Modifier(item)
		return p.Contract
	}
	return ast.NoItemID
}

// emitFunctionExit pops locals beneath the return values, restores the
// return label to the top, and jumps back.
func (e *Emitter) emitFunctionExit(sp source.Span) {
	e.label(e.returnLbl)
	// стек: [retLabel, args(na), rets(r), temps...] — временные уже
	// сняты операторами; остаётся убрать аргументы под возвратами
	r := e.retSlots
	for i := 0; i < e.argSlots; i++ {
		if r == 0 {
			e.pop()
			continue
		}
		// аргумент лежит сразу под возвратами: поднять и снять
		if !e.rollToTop(r, sp) {
			return
		}
		e.pop()
	}
	// метка возврата — под возвратами; поднимаем её наверх
	if r > 0 && !e.rollToTop(r, sp) {
		return
	}
	e.op(evm.JUMP)
	e.depth = 0
}

// resolveVirtual selects the actual target of a call to fn: walk the
// most-derived contract's linearised base list and pick the first function
// whose name and externally callable parameter types match.
func (e *Emitter) resolveVirtual(fn ast.ItemID) ast.ItemID {
	decl, ok := e.info.Arenas.Items.Function(fn)
	if !ok || decl.FnKind == ast.FnGetter {
		return fn
	}
	sig := e.info.ExternalSignature(fn)
	for _, c := range e.info.Ann.Contract(e.mostDerived).Linearized {
		cdecl, okC := e.info.Arenas.Items.Contract(c)
		if !okC {
			continue
		}
		for _, member := range cdecl.Body {
			if f, isFn := e.info.Arenas.Items.Function(member); isFn &&
				f.FnKind == decl.FnKind && e.info.ExternalSignature(member) == sig {
				return member
			}
		}
		for _, getter := range e.info.Getters(c) {
			if e.info.ExternalSignature(getter) == sig {
				return getter
			}
		}
	}
	return fn
}

// resolveSuper walks the linearised list starting one element after the
// statically enclosing contract.
func (e *Emitter) resolveSuper(enclosing ast.ItemID, fn ast.ItemID) ast.ItemID {
	sig := e.info.ExternalSignature(fn)
	lin := e.info.Ann.Contract(e.mostDerived).Linearized
	start := -1
	for i, c := range lin {
		if c == enclosing {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return fn
	}
	for _, c := range lin[start:] {
		cdecl, okC := e.info.Arenas.Items.Contract(c)
		if !okC {
			continue
		}
		for _, member := range cdecl.Body {
			if _, isFn := e.info.Arenas.Items.Function(member); isFn &&
				e.info.ExternalSignature(member) == sig {
				return member
			}
		}
	}
	return fn
}

// emitGetterBody synthesizes the body of a public state-variable getter:
// every mapping level consumes a key parameter, every array level an
// index, and the final slot load lands in the return slot.
func (e *Emitter) emitGetterBody(decl *ast.FunctionItem) {
	v, _ := e.info.Arenas.Items.Variable(decl.StateVar)
	ann := e.info.Ann.Var(decl.StateVar)
	sp := decl.NameSpan

	// слот вычисляется последовательно параметрами
	e.pushUint(uint64(ann.Slot))
	t := ann.Type
	for i := range decl.Params {
		tt := e.provider().Get(t)
		switch tt.Kind {
		case types.KindMapping:
			// slot' = keccak256(key . slot)
			e.dupParamForGetter(i, sp)
			e.mappingSlot()
			t = tt.Value
		case types.KindArray:
			e.dupParamForGetter(i, sp)
			e.arrayElementSlot(tt)
			t = tt.Elem
		default:
			panic(fmt.Errorf("ice: getter parameter %d over non-container %v", i, tt.Kind))
		}
	}
	e.op(evm.SLOAD)
	tt := e.provider().Get(t)
	if tt != nil && tt.IsValueType() {
		e.extractPacked(ann.Offset, e.provider().ByteSize(t), tt)
	}
	// результат — единственный возврат
	e.storeReturnValue(sp)
	_ = v
}

// dupParamForGetter copies getter parameter i (counting from the entry
// layout [retLabel, params...]) to the top.
func (e *Emitter) dupParamForGetter(i int, sp source.Span) {
	base := 2 + i
	e.dup(e.depth-base+1, sp)
}

// storeReturnValue writes the top of the stack into the single return slot.
func (e *Emitter) storeReturnValue(sp source.Span) {
	base := 1 + e.argSlots + 1 // [retLabel, args..., ret0]
	d := e.depth - base
	if d == 0 {
		return
	}
	if !e.swap(d, sp) {
		return
	}
	e.pop()
}
