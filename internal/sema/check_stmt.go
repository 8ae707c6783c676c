package sema

import (
	"fmt"

	"solar/internal/ast"
	"solar/internal/diag"
	"solar/internal/types"
)

func (ck *checker) stmt(id ast.StmtID) {
	if !id.IsValid() {
		return
	}
	s := ck.info.Arenas.Stmts.Get(id)
	switch s.Kind {
	case ast.StmtBlock:
		blk, _ := ck.info.Arenas.Stmts.Block(id)
		ck.push()
		for _, st := range blk.Stmts {
			ck.stmt(st)
		}
		ck.pop()
	case ast.StmtIf:
		p, _ := ck.info.Arenas.Stmts.If(id)
		ck.boolCond(p.Cond)
		ck.stmt(p.Then)
		ck.stmt(p.Else)
	case ast.StmtWhile, ast.StmtDoWhile:
		p, _ := ck.info.Arenas.Stmts.While(id)
		ck.boolCond(p.Cond)
		ck.inLoop++
		ck.stmt(p.Body)
		ck.inLoop--
	case ast.StmtFor:
		p, _ := ck.info.Arenas.Stmts.For(id)
		ck.push()
		ck.stmt(p.Init)
		if p.Cond.IsValid() {
			ck.boolCond(p.Cond)
		}
		if p.Post.IsValid() {
			ck.expr(p.Post)
		}
		ck.inLoop++
		ck.stmt(p.Body)
		ck.inLoop--
		ck.pop()
	case ast.StmtBreak, ast.StmtContinue:
		if ck.inLoop == 0 {
			ck.errAt(s.Span, diag.TypeMismatch, "break/continue outside of a loop")
		}
	case ast.StmtReturn:
		ck.checkReturn(id)
	case ast.StmtEmit:
		p, _ := ck.info.Arenas.Stmts.Emit(id)
		ck.checkEmit(p.Call)
	case ast.StmtVarDecl:
		ck.checkVarDecl(id)
	case ast.StmtExpr:
		p, _ := ck.info.Arenas.Stmts.Expr(id)
		ck.expr(p.Expr)
	case ast.StmtAssembly:
		// непрозрачный блок: текст уходит ассемблеру как есть
	case ast.StmtPlaceholder:
		if !ck.inMod {
			ck.errAt(s.Span, diag.TypeMismatch, "'_' is only allowed in modifier bodies")
		}
	}
}

func (ck *checker) boolCond(e ast.ExprID) {
	t := ck.expr(e)
	if !ck.info.Provider.ImplicitlyConvertible(t, ck.info.Provider.Bool()) {
		ck.mismatch(e, t, ck.info.Provider.Bool())
	}
}

func (ck *checker) checkReturn(id ast.StmtID) {
	p, _ := ck.info.Arenas.Stmts.Return(id)
	s := ck.info.Arenas.Stmts.Get(id)
	if !p.Value.IsValid() {
		if len(ck.returns) > 0 {
			// именованные возвраты позволяют пустой return
			decl, _ := ck.info.Arenas.Items.Function(ck.fn)
			for _, r := range decl.Returns {
				if ck.info.Arenas.Params.Get(r).Name == 0 {
					ck.errAt(s.Span, diag.TypeMismatch, "return without value in a function with unnamed returns")
					return
				}
			}
		}
		return
	}
	t := ck.expr(p.Value)
	switch len(ck.returns) {
	case 0:
		ck.errAt(s.Span, diag.TypeMismatch, "function does not return a value")
	case 1:
		if !ck.info.Provider.ImplicitlyConvertible(t, ck.returns[0]) {
			ck.mismatch(p.Value, t, ck.returns[0])
		}
	default:
		want := ck.info.Provider.Tuple(ck.returns)
		if !ck.info.Provider.ImplicitlyConvertible(t, want) {
			ck.mismatch(p.Value, t, want)
		}
	}
}

func (ck *checker) checkEmit(call ast.ExprID) {
	p, ok := ck.info.Arenas.Exprs.Call(call)
	if !ok {
		return
	}
	calleeT := ck.expr(p.Callee)
	et := ck.info.Provider.Get(calleeT)
	if et == nil || et.Kind != types.KindEvent {
		ck.errAt(ck.info.Arenas.Exprs.Get(call).Span, diag.TypeMismatch, "emit requires an event")
		// всё равно проверим аргументы
		for _, a := range p.Args {
			ck.expr(a)
		}
		return
	}
	if len(p.Args) != len(et.Params) {
		ck.errAt(ck.info.Arenas.Exprs.Get(call).Span, diag.TypeArgumentCount,
			fmt.Sprintf("event expects %d arguments, got %d", len(et.Params), len(p.Args)))
	}
	for i, a := range p.Args {
		t := ck.expr(a)
		if i < len(et.Params) && !ck.info.Provider.ImplicitlyConvertible(t, et.Params[i]) {
			ck.mismatch(a, t, et.Params[i])
		}
	}
	ck.info.Ann.Expr(call).Type = ck.info.Provider.Tuple(nil)
}

func (ck *checker) checkVarDecl(id ast.StmtID) {
	p, _ := ck.info.Arenas.Stmts.VarDecl(id)
	scope := ck.declScope()

	var valueT types.TypeID
	if p.Value.IsValid() {
		valueT = ck.expr(p.Value)
	}

	if !p.Tuple {
		d := p.Decls[0]
		loc := locOf(d.Location)
		if loc == types.LocNone {
			loc = types.LocMemory
		}
		t := ck.info.resolveTypeName(d.TypeName, scope, loc)
		ck.checkLocationLegality(d, t, valueT)
		if p.Value.IsValid() && !ck.info.Provider.ImplicitlyConvertible(valueT, t) {
			ck.mismatch(p.Value, valueT, t)
		}
		ck.declareLocal(&Local{Name: d.Name, Type: t, Span: d.Span, DeclStmt: id, DeclIdx: 0})
		return
	}

	// кортежное объявление: типы покомпонентно против кортежа справа
	vt := ck.info.Provider.Get(valueT)
	var comps []types.TypeID
	if vt != nil && vt.Kind == types.KindTuple {
		comps = vt.Params
	} else if valueT.IsValid() {
		comps = []types.TypeID{valueT}
	}
	if len(comps) != len(p.Decls) {
		ck.errAt(ck.info.Arenas.Stmts.Get(id).Span, diag.TypeArgumentCount,
			fmt.Sprintf("declaration expects %d values, got %d", len(p.Decls), len(comps)))
	}
	for i, d := range p.Decls {
		if !d.TypeName.IsValid() {
			continue // пустой слот
		}
		loc := locOf(d.Location)
		if loc == types.LocNone {
			loc = types.LocMemory
		}
		t := ck.info.resolveTypeName(d.TypeName, scope, loc)
		if i < len(comps) && !ck.info.Provider.ImplicitlyConvertible(comps[i], t) {
			ck.errAt(d.Span, diag.TypeMismatch,
				fmt.Sprintf("cannot assign %s to declared %s",
					ck.info.Provider.HumanName(comps[i]), ck.info.Provider.HumanName(t)))
		}
		ck.declareLocal(&Local{Name: d.Name, Type: t, Span: d.Span, DeclStmt: id, DeclIdx: i})
	}
}

// checkLocationLegality: storage pointers may only come from storage.
func (ck *checker) checkLocationLegality(d ast.VarDeclPart, t, valueT types.TypeID) {
	tt := ck.info.Provider.Get(t)
	if tt == nil || !tt.IsReferenceType() {
		if d.Location != ast.LocDefault {
			ck.errAt(d.Span, diag.TypeBadDataLocation, "data location can only be given for reference types")
		}
		return
	}
	if tt.Loc == types.LocStorage && valueT.IsValid() {
		vt := ck.info.Provider.Get(valueT)
		if vt != nil && vt.IsReferenceType() && vt.Loc != types.LocStorage {
			ck.errAt(d.Span, diag.TypeBadDataLocation, "storage pointer can only be assigned from storage")
		}
	}
}

// declScope picks the lexical scope used to resolve type names inside the
// current body.
func (ck *checker) declScope() *Scope {
	if sc := ck.info.ContractScopes[ck.contract]; sc != nil {
		return sc
	}
	if ck.unitScope != nil {
		return ck.unitScope
	}
	return NewScope(nil)
}
