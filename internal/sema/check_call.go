package sema

import (
	"fmt"

	"solar/internal/ast"
	"solar/internal/diag"
	"solar/internal/token"
	"solar/internal/types"
)

func (ck *checker) indexExpr(id ast.ExprID, ann *ast.ExprAnn) types.TypeID {
	e := ck.info.Arenas.Exprs.Get(id)
	idx, _ := ck.info.Arenas.Exprs.Index(id)
	p := ck.info.Provider

	baseT := ck.expr(idx.Base)
	base := p.Get(baseT)
	if base == nil || base.Kind == types.KindSentinel {
		return ck.sentinel()
	}

	switch base.Kind {
	case types.KindArray:
		if idx.Index.IsValid() {
			it := ck.expr(idx.Index)
			if !p.ImplicitlyConvertible(it, p.Integer(256, false)) {
				ck.mismatch(idx.Index, it, p.Integer(256, false))
			}
		} else {
			ck.errAt(e.Span, diag.TypeNotIndexable, "index expression expected")
		}
		ann.Category = ck.info.Ann.Expr(idx.Base).Category
		if base.ElemByte {
			return p.FixedBytes(1)
		}
		// локация результата наследуется от контейнера
		return p.WithLocation(base.Elem, base.Loc)

	case types.KindMapping:
		if idx.Index.IsValid() {
			it := ck.expr(idx.Index)
			if !p.ImplicitlyConvertible(it, base.Key) {
				ck.mismatch(idx.Index, it, base.Key)
			}
		}
		ann.Category = ast.CatLValue
		return p.WithLocation(base.Value, types.LocStorage)

	case types.KindFixedBytes:
		if idx.Index.IsValid() {
			ck.expr(idx.Index)
		}
		return p.FixedBytes(1)

	case types.KindTypeType:
		// T[] в позиции выражения: тип массива (например, аргумент new)
		return p.TypeType(p.Array(base.Elem, 0, true, types.LocMemory))
	}

	ck.errAt(e.Span, diag.TypeNotIndexable,
		fmt.Sprintf("%s is not indexable", p.HumanName(baseT)))
	return ck.sentinel()
}

func (ck *checker) newExpr(id ast.ExprID, ann *ast.ExprAnn) types.TypeID {
	ne, _ := ck.info.Arenas.Exprs.New(id)
	e := ck.info.Arenas.Exprs.Get(id)
	p := ck.info.Provider

	t := ck.info.resolveTypeName(ne.TypeName, ck.declScope(), types.LocMemory)
	tt := p.Get(t)
	if tt == nil {
		return ck.sentinel()
	}
	switch tt.Kind {
	case types.KindContract:
		contract := ast.ItemID(tt.DeclRef)
		cann := ck.info.Ann.Contract(contract)
		if cann.Abstract || len(cann.Unimplemented) > 0 {
			ck.errAt(e.Span, diag.TypeAbstractNew, "cannot instantiate an abstract contract")
		}
		ann.Decl = contract
		// конструкторский тип: параметры конструктора → контракт
		var params []types.TypeID
		if ctor := ck.info.Constructor(contract); ctor.IsValid() {
			fn, _ := ck.info.Arenas.Items.Function(ctor)
			params = ck.info.ParamTypeList(fn.Params)
		}
		return p.Function(params, []types.TypeID{t}, types.FnBuiltin, types.MutPayable)
	case types.KindArray:
		if !tt.Dynamic {
			ck.errAt(e.Span, diag.TypeMismatch, "new is only for dynamic arrays")
		}
		return p.Function([]types.TypeID{p.Integer(256, false)}, []types.TypeID{t}, types.FnBuiltin, types.MutPure)
	default:
		ck.errAt(e.Span, diag.TypeMismatch, "new requires a contract or dynamic array type")
		return ck.sentinel()
	}
}

// Constructor returns the constructor declared in the contract's own body,
// or NoItemID; constructors of base contracts are not searched.
func (info *Info) Constructor(contract ast.ItemID) ast.ItemID {
	decl, ok := info.Arenas.Items.Contract(contract)
	if !ok {
		return ast.NoItemID
	}
	for _, member := range decl.Body {
		if fn, isFn := info.Arenas.Items.Function(member); isFn && fn.FnKind == ast.FnConstructor {
			return member
		}
	}
	return ast.NoItemID
}

func (ck *checker) callExpr(id ast.ExprID, ann *ast.ExprAnn) types.TypeID {
	e := ck.info.Arenas.Exprs.Get(id)
	call, _ := ck.info.Arenas.Exprs.Call(id)
	p := ck.info.Provider

	// type(C) — рефлексия
	if ident, ok := ck.info.Arenas.Exprs.Ident(call.Callee); ok && ck.info.spell(ident.Name) == "type" {
		if ck.lookupLocal(ident.Name) == nil && len(call.Args) == 1 {
			argT := ck.expr(call.Args[0])
			at := p.Get(argT)
			if at != nil && at.Kind == types.KindTypeType {
				return argT
			}
			ck.errAt(e.Span, diag.TypeMismatch, "type() requires a type argument")
			return ck.sentinel()
		}
	}

	calleeT := ck.expr(call.Callee)
	callee := p.Get(calleeT)
	if callee == nil || callee.Kind == types.KindSentinel {
		for _, a := range call.Args {
			ck.expr(a)
		}
		return ck.sentinel()
	}

	// явное преобразование: T(x)
	if callee.Kind == types.KindTypeType {
		return ck.conversionExpr(id, ann, callee.Elem, call)
	}

	argTypes := make([]types.TypeID, len(call.Args))
	for i, a := range call.Args {
		argTypes[i] = ck.expr(a)
	}

	// перегрузки: кандидаты из аннотации callee
	calleeAnn := ck.info.Ann.Expr(call.Callee)
	if len(calleeAnn.Candidates) > 0 {
		chosen, status := ck.resolveOverload(calleeAnn.Candidates, argTypes)
		switch status {
		case overloadAmbiguous:
			ck.errAt(e.Span, diag.TypeAmbiguousCall, "call is ambiguous between several overloads")
			return ck.sentinel()
		case overloadNone:
			ck.errAt(e.Span, diag.TypeNoMatchingOverload, "no overload matches the argument types")
			return ck.sentinel()
		}
		calleeAnn.Decl = chosen
		ann.Decl = chosen
		fnT := p.Get(ck.info.Ann.Callable(chosen).Type)
		if fnT != nil && fnT.Kind == types.KindFunction {
			params := fnT.Params
			if len(calleeAnn.Candidates) == 1 && callee.Kind == types.KindFunction && len(callee.Params) == len(fnT.Params)-1 {
				// using-for: приёмник уже связан
				params = fnT.Params[1:]
			}
			ck.checkArgs(e, params, argTypes, call.Args)
			return ck.returnTuple(fnT.Returns)
		}
		if fnT != nil && fnT.Kind == types.KindEvent {
			// события вызываются только через emit; проверено там
			return calleeT
		}
	}

	switch callee.Kind {
	case types.KindFunction:
		if callee.FnKind == types.FnBuiltin {
			// встроенные проверяются мягко: обязательные параметры по
			// порядку, хвост (строка причины require, вариадики abi.*)
			// свободен
			for i := range callee.Params {
				if i < len(argTypes) && !p.ImplicitlyConvertible(argTypes[i], callee.Params[i]) {
					ck.mismatch(call.Args[i], argTypes[i], callee.Params[i])
				}
			}
			if len(argTypes) < len(callee.Params) {
				ck.errAt(e.Span, diag.TypeArgumentCount,
					fmt.Sprintf("expected at least %d arguments, got %d", len(callee.Params), len(argTypes)))
			}
			return ck.returnTuple(callee.Returns)
		}
		ck.checkArgs(e, callee.Params, argTypes, call.Args)
		return ck.returnTuple(callee.Returns)
	case types.KindEvent:
		return calleeT
	}

	ck.errAt(e.Span, diag.TypeNotCallable,
		fmt.Sprintf("%s is not callable", p.HumanName(calleeT)))
	return ck.sentinel()
}

func (ck *checker) checkArgs(e *ast.Expr, params []types.TypeID, argTypes []types.TypeID, args []ast.ExprID) {
	if len(params) != len(argTypes) {
		ck.errAt(e.Span, diag.TypeArgumentCount,
			fmt.Sprintf("expected %d arguments, got %d", len(params), len(argTypes)))
		return
	}
	for i := range params {
		if !ck.info.Provider.ImplicitlyConvertible(argTypes[i], params[i]) {
			ck.mismatch(args[i], argTypes[i], params[i])
		}
	}
}

func (ck *checker) returnTuple(returns []types.TypeID) types.TypeID {
	switch len(returns) {
	case 0:
		return ck.info.Provider.Tuple(nil)
	case 1:
		return returns[0]
	default:
		return ck.info.Provider.Tuple(returns)
	}
}

type overloadStatus uint8

const (
	overloadOK overloadStatus = iota
	overloadNone
	overloadAmbiguous
)

// resolveOverload selects the unique candidate whose parameter list accepts
// the argument types under implicit conversion.
func (ck *checker) resolveOverload(cands []ast.ItemID, argTypes []types.TypeID) (ast.ItemID, overloadStatus) {
	var matches []ast.ItemID
	for _, cand := range cands {
		var params []ast.ParamID
		switch ck.info.Arenas.Items.Get(cand).Kind {
		case ast.ItemFunction:
			fn, _ := ck.info.Arenas.Items.Function(cand)
			params = fn.Params
		case ast.ItemEvent:
			ev, _ := ck.info.Arenas.Items.Event(cand)
			params = ev.Params
		default:
			continue
		}
		ptypes := ck.info.ParamTypeList(params)
		if !ck.argsMatch(ptypes, argTypes) {
			// using-for с связанным приёмником
			if len(ptypes) == len(argTypes)+1 && ck.argsMatch(ptypes[1:], argTypes) {
				matches = append(matches, cand)
			}
			continue
		}
		matches = append(matches, cand)
	}
	switch len(matches) {
	case 0:
		return ast.NoItemID, overloadNone
	case 1:
		return matches[0], overloadOK
	default:
		return ast.NoItemID, overloadAmbiguous
	}
}

func (ck *checker) argsMatch(params, args []types.TypeID) bool {
	if len(params) != len(args) {
		return false
	}
	for i := range params {
		if !ck.info.Provider.ImplicitlyConvertible(args[i], params[i]) {
			return false
		}
	}
	return true
}

func (ck *checker) conversionExpr(id ast.ExprID, ann *ast.ExprAnn, target types.TypeID, call *ast.CallExpr) types.TypeID {
	e := ck.info.Arenas.Exprs.Get(id)
	if len(call.Args) != 1 {
		ck.errAt(e.Span, diag.TypeArgumentCount, "type conversion takes exactly one argument")
		for _, a := range call.Args {
			ck.expr(a)
		}
		return target
	}
	argT := ck.expr(call.Args[0])
	tt := ck.info.Provider.Get(target)
	// вызов структуры-конструктора с одним полем: Struct(f1); вызовы с
	// другим числом аргументов отклонены проверкой выше
	if tt != nil && tt.Kind == types.KindStruct {
		fields := ck.info.Provider.StructFields(tt.DeclRef)
		if len(fields) == 1 && ck.info.Provider.ImplicitlyConvertible(argT, fields[0]) {
			return ck.info.Provider.WithLocation(target, types.LocMemory)
		}
	}
	if !ck.info.Provider.ExplicitlyConvertible(argT, target) {
		ck.errAt(e.Span, diag.TypeBadConversion,
			fmt.Sprintf("cannot convert %s to %s",
				ck.info.Provider.HumanName(argT), ck.info.Provider.HumanName(target)))
	}
	ann.IsPure = ck.info.Ann.Expr(call.Args[0]).IsPure
	return target
}

func (ck *checker) binaryExpr(id ast.ExprID, ann *ast.ExprAnn) types.TypeID {
	e := ck.info.Arenas.Exprs.Get(id)
	bin, _ := ck.info.Arenas.Exprs.Binary(id)
	p := ck.info.Provider

	lt := ck.expr(bin.Left)
	rt := ck.expr(bin.Right)
	la, ra := ck.info.Ann.Expr(bin.Left), ck.info.Ann.Expr(bin.Right)
	ann.IsPure = la.IsPure && ra.IsPure
	ann.IsConstant = la.IsConstant && ra.IsConstant

	switch bin.Op {
	case token.AndAnd, token.OrOr:
		b := p.Bool()
		if !p.ImplicitlyConvertible(lt, b) {
			ck.mismatch(bin.Left, lt, b)
		}
		if !p.ImplicitlyConvertible(rt, b) {
			ck.mismatch(bin.Right, rt, b)
		}
		return b

	case token.EqEq, token.BangEq, token.Lt, token.Gt, token.LtEq, token.GtEq:
		common := p.CommonType(lt, rt)
		if !common.IsValid() {
			ck.errAt(e.Span, diag.TypeMismatch,
				fmt.Sprintf("cannot compare %s and %s", p.HumanName(lt), p.HumanName(rt)))
		}
		return p.Bool()

	case token.Shl, token.Shr, token.StarStar:
		// ширина результата определяется левым операндом
		lf := p.Get(lt)
		if lf != nil && lf.Kind == types.KindRational {
			if v := ck.info.evalRational(id); v != nil {
				return p.Rational(v)
			}
			mobile := p.MobileType(lt)
			if mobile.IsValid() {
				return mobile
			}
		}
		if lf == nil || (lf.Kind != types.KindInteger && lf.Kind != types.KindFixedBytes) {
			ck.errAt(e.Span, diag.TypeMismatch, "operator requires an integer left operand")
			return ck.sentinel()
		}
		return lt

	default:
		// арифметика и битовые операции над общим числовым типом
		lf, rf := p.Get(lt), p.Get(rt)
		if lf != nil && rf != nil && lf.Kind == types.KindRational && rf.Kind == types.KindRational {
			// сворачивание литералов на этапе проверки
			if v := ck.info.evalRational(id); v != nil {
				return p.Rational(v)
			}
		}
		common := p.CommonType(lt, rt)
		ct := p.Get(common)
		if !common.IsValid() || ct == nil ||
			(ct.Kind != types.KindInteger && ct.Kind != types.KindFixedBytes && ct.Kind != types.KindRational) {
			ck.errAt(e.Span, diag.TypeMismatch,
				fmt.Sprintf("operator %s not defined for %s and %s",
					bin.Op, p.HumanName(lt), p.HumanName(rt)))
			return ck.sentinel()
		}
		if ct.Kind == types.KindRational {
			mobile := p.MobileType(common)
			if mobile.IsValid() {
				return mobile
			}
		}
		return common
	}
}

func (ck *checker) unaryExpr(id ast.ExprID, ann *ast.ExprAnn) types.TypeID {
	e := ck.info.Arenas.Exprs.Get(id)
	un, _ := ck.info.Arenas.Exprs.Unary(id)
	p := ck.info.Provider
	t := ck.expr(un.Operand)
	oa := ck.info.Ann.Expr(un.Operand)
	ann.IsPure = oa.IsPure
	ann.IsConstant = oa.IsConstant

	switch un.Op {
	case token.Bang:
		if !p.ImplicitlyConvertible(t, p.Bool()) {
			ck.mismatch(un.Operand, t, p.Bool())
		}
		return p.Bool()
	case token.Tilde:
		return ck.numericOperand(e, t)
	case token.Minus, token.Plus:
		tt := p.Get(t)
		if tt != nil && tt.Kind == types.KindRational {
			if v := ck.info.evalRational(id); v != nil {
				return p.Rational(v)
			}
		}
		return ck.numericOperand(e, t)
	case token.PlusPlus, token.MinusMinus:
		if oa.Category != ast.CatLValue {
			ck.errAt(e.Span, diag.TypeNotAnLValue, "increment/decrement requires an l-value")
		}
		return ck.numericOperand(e, t)
	}
	return ck.sentinel()
}

func (ck *checker) numericOperand(e *ast.Expr, t types.TypeID) types.TypeID {
	tt := ck.info.Provider.Get(t)
	if tt == nil || (tt.Kind != types.KindInteger && tt.Kind != types.KindFixedBytes && tt.Kind != types.KindRational) {
		ck.errAt(e.Span, diag.TypeMismatch, "operator requires a numeric operand")
		return ck.sentinel()
	}
	if tt.Kind == types.KindRational {
		mobile := ck.info.Provider.MobileType(t)
		if mobile.IsValid() {
			return mobile
		}
	}
	return t
}

func (ck *checker) assignExpr(id ast.ExprID, ann *ast.ExprAnn) types.TypeID {
	e := ck.info.Arenas.Exprs.Get(id)
	as, _ := ck.info.Arenas.Exprs.Assign(id)
	p := ck.info.Provider

	lt := ck.expr(as.Left)
	rt := ck.expr(as.Right)
	la := ck.info.Ann.Expr(as.Left)

	if la.Category != ast.CatLValue {
		ck.errAt(ck.info.Arenas.Exprs.Get(as.Left).Span, diag.TypeNotAnLValue,
			"left side of assignment is not an l-value")
	}
	if la.IsConstant {
		ck.errAt(e.Span, diag.TypeNotAnLValue, "cannot assign to a constant")
	}

	if as.Op == token.Assign {
		if !p.ImplicitlyConvertible(rt, lt) {
			ck.mismatch(as.Right, rt, lt)
		}
	} else {
		common := p.CommonType(lt, rt)
		ct := p.Get(common)
		if !common.IsValid() || ct == nil || !p.ImplicitlyConvertible(common, lt) {
			ck.errAt(e.Span, diag.TypeMismatch,
				fmt.Sprintf("compound assignment not defined for %s and %s",
					p.HumanName(lt), p.HumanName(rt)))
		}
	}
	ann.Category = ast.CatRValue
	return lt
}
