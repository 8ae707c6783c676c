package sema

import (
	"fmt"

	"solar/internal/ast"
	"solar/internal/diag"
	"solar/internal/source"
	"solar/internal/types"
)

// expr type-checks one expression post-order and fills its annotation.
func (ck *checker) expr(id ast.ExprID) types.TypeID {
	if !id.IsValid() {
		return types.NoTypeID
	}
	ann := ck.info.Ann.Expr(id)
	if ann.Type.IsValid() {
		return ann.Type
	}
	t := ck.exprUncached(id, ann)
	ann.Type = t
	return t
}

func (ck *checker) sentinel() types.TypeID {
	return ck.info.Provider.Sentinel()
}

func (ck *checker) exprUncached(id ast.ExprID, ann *ast.ExprAnn) types.TypeID {
	e := ck.info.Arenas.Exprs.Get(id)
	p := ck.info.Provider
	switch e.Kind {
	case ast.ExprNumberLit:
		v := ck.info.evalRational(id)
		if v == nil {
			ck.errAt(e.Span, diag.TypeMismatch, "malformed number literal")
			return ck.sentinel()
		}
		ann.IsPure, ann.IsConstant = true, true
		return p.Rational(v)

	case ast.ExprStringLit:
		lit, _ := ck.info.Arenas.Exprs.StringLit(id)
		ann.IsPure, ann.IsConstant = true, true
		return p.StringLiteral(ck.info.spell(lit.Value))

	case ast.ExprHexLit:
		lit, _ := ck.info.Arenas.Exprs.HexLit(id)
		ann.IsPure, ann.IsConstant = true, true
		return p.StringLiteral(ck.info.spell(lit.Value))

	case ast.ExprBoolLit:
		ann.IsPure, ann.IsConstant = true, true
		return p.Bool()

	case ast.ExprElementaryType:
		et, _ := ck.info.Arenas.Exprs.ElementaryType(id)
		t := ck.info.resolveTypeName(et.TypeName, ck.declScope(), types.LocMemory)
		ann.IsPure = true
		return p.TypeType(t)

	case ast.ExprIdent:
		return ck.identExpr(id, ann)

	case ast.ExprMember:
		return ck.memberExpr(id, ann)

	case ast.ExprIndex:
		return ck.indexExpr(id, ann)

	case ast.ExprCall:
		return ck.callExpr(id, ann)

	case ast.ExprNew:
		return ck.newExpr(id, ann)

	case ast.ExprBinary:
		return ck.binaryExpr(id, ann)

	case ast.ExprUnary:
		return ck.unaryExpr(id, ann)

	case ast.ExprAssign:
		return ck.assignExpr(id, ann)

	case ast.ExprTernary:
		tern, _ := ck.info.Arenas.Exprs.Ternary(id)
		ck.boolCond(tern.Cond)
		thenT := ck.expr(tern.Then)
		elseT := ck.expr(tern.Else)
		common := p.CommonType(thenT, elseT)
		if !common.IsValid() {
			ck.errAt(e.Span, diag.TypeMismatch,
				fmt.Sprintf("conditional branches have incompatible types %s and %s",
					p.HumanName(thenT), p.HumanName(elseT)))
			return ck.sentinel()
		}
		return common

	case ast.ExprTuple:
		tup, _ := ck.info.Arenas.Exprs.Tuple(id)
		comps := make([]types.TypeID, len(tup.Elems))
		allLValue := true
		for i, el := range tup.Elems {
			if !el.IsValid() {
				comps[i] = types.NoTypeID
				continue
			}
			comps[i] = ck.expr(el)
			if ck.info.Ann.Expr(el).Category != ast.CatLValue {
				allLValue = false
			}
		}
		if allLValue {
			ann.Category = ast.CatLValue
		} else {
			ann.Category = ast.CatTuple
		}
		return p.Tuple(comps)

	case ast.ExprDelete:
		del, _ := ck.info.Arenas.Exprs.Delete(id)
		t := ck.expr(del.Operand)
		if ck.info.Ann.Expr(del.Operand).Category != ast.CatLValue {
			ck.errAt(e.Span, diag.TypeNotAnLValue, "delete requires an l-value")
		}
		_ = t
		return p.Tuple(nil)
	}
	return ck.sentinel()
}

func (ck *checker) identExpr(id ast.ExprID, ann *ast.ExprAnn) types.TypeID {
	e := ck.info.Arenas.Exprs.Get(id)
	ident, _ := ck.info.Arenas.Exprs.Ident(id)
	p := ck.info.Provider
	name := ident.Name

	// 1. локальные области
	if l := ck.lookupLocal(name); l != nil {
		l.Used = true
		ck.info.LocalDecls[id] = l
		ann.Category = ast.CatLValue
		return l.Type
	}

	// 2. члены контракта (с учётом наследования)
	if ck.contract.IsValid() {
		if t, ok := ck.memberIdent(ck.contract, id, ann, name); ok {
			return t
		}
	}

	// 3. область юнита
	scope := ck.declScope()
	for sc := scope; sc != nil; sc = sc.parent {
		decls := sc.LookupLocal(name)
		if len(decls) > 0 {
			return ck.declsType(id, ann, decls)
		}
	}

	// 4. встроенные
	spelled := ck.info.spell(name)
	switch lookupBuiltin(spelled) {
	case builtinMsg:
		ann.IsPure = false
		return p.MagicNamespace(types.MagicMsg)
	case builtinBlock:
		return p.MagicNamespace(types.MagicBlock)
	case builtinTx:
		return p.MagicNamespace(types.MagicTx)
	case builtinABI:
		return p.MagicNamespace(types.MagicABI)
	case builtinThis:
		if ck.contract.IsValid() {
			c, _ := ck.info.Arenas.Items.Contract(ck.contract)
			return p.Contract(uint32(ck.contract), ck.info.spell(c.Name), c.Kind == ast.KindLibrary)
		}
	case builtinSuper:
		if ck.contract.IsValid() {
			c, _ := ck.info.Arenas.Items.Contract(ck.contract)
			ann.Decl = ck.contract
			// тип super — контракт; выбор цели происходит при вызове
			return p.Contract(uint32(ck.contract), ck.info.spell(c.Name), false)
		}
	case builtinRequire:
		return p.Function([]types.TypeID{p.Bool()}, nil, types.FnBuiltin, types.MutPure)
	case builtinAssert:
		return p.Function([]types.TypeID{p.Bool()}, nil, types.FnBuiltin, types.MutPure)
	case builtinRevert:
		return p.Function(nil, nil, types.FnBuiltin, types.MutPure)
	case builtinKeccak256, builtinSha256:
		return p.Function([]types.TypeID{p.Bytes(types.LocMemory)}, []types.TypeID{p.FixedBytes(32)}, types.FnBuiltin, types.MutPure)
	case builtinAddmod, builtinMulmod:
		u := p.Integer(256, false)
		return p.Function([]types.TypeID{u, u, u}, []types.TypeID{u}, types.FnBuiltin, types.MutPure)
	case builtinSelfdestruct:
		return p.Function([]types.TypeID{p.Address(true)}, nil, types.FnBuiltin, types.MutNonPayable)
	case builtinBlockhash:
		return p.Function([]types.TypeID{p.Integer(256, false)}, []types.TypeID{p.FixedBytes(32)}, types.FnBuiltin, types.MutView)
	case builtinGasleft:
		return p.Function(nil, []types.TypeID{p.Integer(256, false)}, types.FnBuiltin, types.MutView)
	case builtinNow:
		ck.info.warnAt(diag.WarnDeprecated, e.Span, "'now' is deprecated, use block.timestamp")
		return p.Integer(256, false)
	case builtinType:
		// type(T) обрабатывается на вызове
		return p.Function(nil, nil, types.FnBuiltin, types.MutPure)
	}

	ck.errAt(e.Span, diag.DeclUnresolvedName,
		fmt.Sprintf("identifier %q not found", spelled))
	return ck.sentinel()
}

// memberIdent resolves a bare identifier against the contract member table.
func (ck *checker) memberIdent(contract ast.ItemID, id ast.ExprID, ann *ast.ExprAnn, name source.StringID) (types.TypeID, bool) {
	var decls []ast.ItemID
	for _, d := range ck.info.VisibleMembers(contract, name) {
		// геттер — внешнее лицо переменной; по голому имени видна сама переменная
		if fn, ok := ck.info.Arenas.Items.Function(d); ok && fn.FnKind == ast.FnGetter {
			continue
		}
		decls = append(decls, d)
	}
	if len(decls) == 0 {
		return types.NoTypeID, false
	}
	return ck.declsType(id, ann, decls), true
}

// declsType types an identifier that resolved to one or more declarations.
// Overloaded functions defer the choice to the call site through the
// candidate set.
func (ck *checker) declsType(id ast.ExprID, ann *ast.ExprAnn, decls []ast.ItemID) types.TypeID {
	p := ck.info.Provider
	if len(decls) > 1 {
		ann.Candidates = decls
		ann.Decl = decls[0]
		return p.Function(nil, nil, types.FnInternal, types.MutNonPayable)
	}
	decl := decls[0]
	ann.Decl = decl
	switch ck.info.Arenas.Items.Get(decl).Kind {
	case ast.ItemVariable:
		v, _ := ck.info.Arenas.Items.Variable(decl)
		ann.Category = ast.CatLValue
		if v.Constant {
			ann.IsConstant = true
			ann.Category = ast.CatRValue
		}
		return ck.info.Ann.Var(decl).Type
	case ast.ItemFunction, ast.ItemModifier, ast.ItemEvent:
		ann.Candidates = decls
		return ck.info.Ann.Callable(decl).Type
	case ast.ItemContract:
		c, _ := ck.info.Arenas.Items.Contract(decl)
		return p.TypeType(p.Contract(uint32(decl), ck.info.spell(c.Name), c.Kind == ast.KindLibrary))
	case ast.ItemStruct:
		s, _ := ck.info.Arenas.Items.Struct(decl)
		return p.TypeType(p.Struct(uint32(decl), ck.info.spell(s.Name), types.LocMemory))
	case ast.ItemEnum:
		en, _ := ck.info.Arenas.Items.Enum(decl)
		return p.TypeType(p.Enum(uint32(decl), ck.info.spell(en.Name)))
	}
	return ck.sentinel()
}
