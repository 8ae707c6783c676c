package sema

import (
	"fmt"

	"solar/internal/ast"
	"solar/internal/diag"
	"solar/internal/source"
	"solar/internal/types"
)

// checkBodies is phase C: post-order type checking of every executable
// body. Each function gets a fresh local-scope stack.
func (info *Info) checkBodies() {
	for _, contract := range info.Contracts {
		decl, _ := info.Arenas.Items.Contract(contract)
		for _, member := range decl.Body {
			switch info.Arenas.Items.Get(member).Kind {
			case ast.ItemFunction:
				info.checkFunctionBody(contract, member)
			case ast.ItemModifier:
				info.checkModifierBody(contract, member)
			case ast.ItemVariable:
				v, _ := info.Arenas.Items.Variable(member)
				if v.Value.IsValid() {
					ck := info.newChecker(contract, ast.NoItemID)
					t := ck.expr(v.Value)
					want := info.Ann.Var(member).Type
					if !info.Provider.ImplicitlyConvertible(t, want) {
						ck.mismatch(v.Value, t, want)
					}
				}
			}
		}
	}
	for _, unit := range info.Units {
		for _, item := range info.Arenas.Units.Get(unit).Items {
			if fn, ok := info.Arenas.Items.Function(item); ok && !fn.Contract.IsValid() && fn.Body.IsValid() {
				info.checkFreeFunctionBody(unit, item)
			}
		}
	}
}

func (info *Info) checkFreeFunctionBody(unit ast.UnitID, fn ast.ItemID) {
	info.freeFnScope = info.UnitScopes[unit]
	info.checkFunctionBody(ast.NoItemID, fn)
	info.freeFnScope = nil
}

type checker struct {
	info      *Info
	contract  ast.ItemID
	fn        ast.ItemID
	returns   []types.TypeID
	scopes    []map[source.StringID]*Local
	locals    []*Local
	unitScope *Scope
	inLoop    int
	inMod     bool
}

func (info *Info) newChecker(contract, fn ast.ItemID) *checker {
	return &checker{info: info, contract: contract, fn: fn, unitScope: info.freeFnScope}
}

func (info *Info) checkFunctionBody(contract, fn ast.ItemID) {
	decl, _ := info.Arenas.Items.Function(fn)
	if !decl.Body.IsValid() {
		return
	}
	ck := info.newChecker(contract, fn)
	ck.push()
	for _, pid := range decl.Params {
		ck.declareParam(pid)
	}
	for _, pid := range decl.Returns {
		ck.declareParam(pid)
	}
	ck.returns = info.ParamTypeList(decl.Returns)
	for _, inv := range decl.Modifiers {
		ck.checkModifierInvocation(contract, inv)
	}
	ck.stmt(decl.Body)
	ck.pop()
	ck.reportUnused()
}

func (info *Info) checkModifierBody(contract, mod ast.ItemID) {
	decl, _ := info.Arenas.Items.Modifier(mod)
	if !decl.Body.IsValid() {
		return
	}
	ck := info.newChecker(contract, mod)
	ck.inMod = true
	ck.push()
	for _, pid := range decl.Params {
		ck.declareParam(pid)
	}
	ck.stmt(decl.Body)
	ck.pop()
}

func (ck *checker) push() {
	ck.scopes = append(ck.scopes, make(map[source.StringID]*Local))
}

func (ck *checker) pop() {
	ck.scopes = ck.scopes[:len(ck.scopes)-1]
}

func (ck *checker) declareParam(pid ast.ParamID) {
	p := ck.info.Arenas.Params.Get(pid)
	if p.Name == source.NoStringID {
		return
	}
	ck.declareLocal(&Local{
		Name:  p.Name,
		Type:  ck.info.ParamType(pid),
		Span:  p.Span,
		Param: pid,
		Used:  true, // параметры не считаем неиспользованными
	})
}

func (ck *checker) declareLocal(l *Local) {
	top := ck.scopes[len(ck.scopes)-1]
	if ck.lookupLocal(l.Name) != nil {
		ck.info.warnAt(diag.WarnShadowedName, l.Span,
			fmt.Sprintf("declaration of %q shadows an existing declaration", ck.info.spell(l.Name)))
	}
	top[l.Name] = l
	ck.locals = append(ck.locals, l)
}

func (ck *checker) lookupLocal(name source.StringID) *Local {
	for i := len(ck.scopes) - 1; i >= 0; i-- {
		if l, ok := ck.scopes[i][name]; ok {
			return l
		}
	}
	return nil
}

func (ck *checker) reportUnused() {
	for _, l := range ck.locals {
		if !l.Used && l.DeclStmt.IsValid() {
			ck.info.warnAt(diag.WarnUnusedVariable, l.Span,
				fmt.Sprintf("unused local variable %q", ck.info.spell(l.Name)))
		}
	}
}

func (ck *checker) errAt(sp source.Span, code diag.Code, msg string) {
	ck.info.errorAt(code, sp, msg)
}

func (ck *checker) mismatch(e ast.ExprID, got, want types.TypeID) {
	ck.errAt(ck.info.Arenas.Exprs.Get(e).Span, diag.TypeMismatch,
		fmt.Sprintf("%s is not implicitly convertible to %s",
			ck.info.Provider.HumanName(got), ck.info.Provider.HumanName(want)))
}

func (ck *checker) checkModifierInvocation(contract ast.ItemID, inv ast.ModifierInvocation) {
	// имя должно разрешаться в модификатор или базовый контракт
	for _, cand := range ck.info.VisibleMembers(contract, inv.Name) {
		if m, ok := ck.info.Arenas.Items.Modifier(cand); ok {
			params := ck.info.ParamTypeList(m.Params)
			if len(params) != len(inv.Args) && !(len(inv.Args) == 0 && !inv.HasArgs) {
				ck.errAt(inv.Span, diag.TypeArgumentCount, "wrong number of modifier arguments")
				return
			}
			for i, arg := range inv.Args {
				t := ck.expr(arg)
				if i < len(params) && !ck.info.Provider.ImplicitlyConvertible(t, params[i]) {
					ck.mismatch(arg, t, params[i])
				}
			}
			return
		}
	}
	// вызов конструктора базового контракта в заголовке
	if scope := ck.info.ContractScopes[contract]; scope != nil {
		for _, cand := range scope.Lookup(inv.Name) {
			if _, ok := ck.info.Arenas.Items.Contract(cand); ok {
				for _, arg := range inv.Args {
					ck.expr(arg)
				}
				return
			}
		}
	}
	ck.errAt(inv.Span, diag.DeclUnresolvedName,
		fmt.Sprintf("modifier %q not found", ck.info.spell(inv.Name)))
}
