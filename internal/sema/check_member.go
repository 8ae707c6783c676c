package sema

import (
	"fmt"

	"solar/internal/ast"
	"solar/internal/diag"
	"solar/internal/source"
	"solar/internal/types"
)

// memberExpr resolves `obj.member` against the member table of the left
// type, or against the built-in tables for magic namespaces and value
// types.
func (ck *checker) memberExpr(id ast.ExprID, ann *ast.ExprAnn) types.TypeID {
	mem, _ := ck.info.Arenas.Exprs.Member(id)
	p := ck.info.Provider

	objT := ck.expr(mem.Object)
	obj := p.Get(objT)
	if obj == nil || obj.Kind == types.KindSentinel {
		return ck.sentinel()
	}
	name := ck.info.spell(mem.Member)

	switch obj.Kind {
	case types.KindMagic:
		t := ck.info.magicMember(obj.Magic, name)
		if !t.IsValid() {
			ck.errAt(mem.MemSpan, diag.TypeNoSuchMember,
				fmt.Sprintf("member %q not found", name))
			return ck.sentinel()
		}
		return t

	case types.KindAddress:
		t := ck.info.addressMember(obj.Payable, name)
		if !t.IsValid() {
			ck.errAt(mem.MemSpan, diag.TypeNoSuchMember,
				fmt.Sprintf("member %q not found on address", name))
			return ck.sentinel()
		}
		return t

	case types.KindContract:
		// экземпляр контракта: видимые снаружи функции, или вызов через
		// super внутри собственной решётки
		contract := ast.ItemID(obj.DeclRef)
		if ck.isSuperObject(mem.Object) {
			return ck.superMember(id, ann, mem.Member)
		}
		if obj.Library {
			// Lib.f как внутренний вызов библиотеки
			decls := ck.info.VisibleMembers(contract, mem.Member)
			if len(decls) > 0 {
				return ck.declsType(id, ann, decls)
			}
		}
		var external []ast.ItemID
		for _, cand := range ck.info.VisibleMembers(contract, mem.Member) {
			if fn, ok := ck.info.Arenas.Items.Function(cand); ok && fn.Visibility.ExternallyVisible() {
				external = append(external, cand)
			}
		}
		if len(external) == 0 {
			ck.errAt(mem.MemSpan, diag.TypeNoSuchMember,
				fmt.Sprintf("member %q not found or not visible in %s", name, obj.Name))
			return ck.sentinel()
		}
		ann.Decl = external[0]
		ann.Candidates = external
		// внешние вызовы получают внешний функциональный тип
		decl := external[0]
		fnT := p.Get(ck.info.Ann.Callable(decl).Type)
		return p.Function(fnT.Params, fnT.Returns, types.FnExternal, fnT.Mut)

	case types.KindTypeType:
		return ck.typeTypeMember(id, ann, mem, obj.Elem)

	case types.KindStruct:
		fields := ck.info.Provider.StructFields(obj.DeclRef)
		s, _ := ck.info.Arenas.Items.Struct(ast.ItemID(obj.DeclRef))
		if s != nil {
			for i, f := range s.Fields {
				if ck.info.Arenas.Params.Get(f).Name == mem.Member {
					ann.Category = ck.info.Ann.Expr(mem.Object).Category
					// локация данных наследуется от контейнера
					return p.WithLocation(fields[i], obj.Loc)
				}
			}
		}
		if t, ok := ck.usingForMember(id, ann, objT, mem.Member); ok {
			return t
		}
		ck.errAt(mem.MemSpan, diag.TypeNoSuchMember,
			fmt.Sprintf("struct %s has no member %q", obj.Name, name))
		return ck.sentinel()

	case types.KindArray:
		switch name {
		case "length":
			return p.Integer(256, false)
		case "push":
			if obj.Loc == types.LocStorage && obj.Dynamic {
				var elem types.TypeID
				if obj.ElemByte {
					elem = p.FixedBytes(1)
				} else {
					elem = p.WithLocation(obj.Elem, types.LocStorage)
				}
				return p.Function([]types.TypeID{elem}, nil, types.FnBuiltin, types.MutNonPayable)
			}
		case "pop":
			if obj.Loc == types.LocStorage && obj.Dynamic {
				return p.Function(nil, nil, types.FnBuiltin, types.MutNonPayable)
			}
		}
		if t, ok := ck.usingForMember(id, ann, objT, mem.Member); ok {
			return t
		}
		ck.errAt(mem.MemSpan, diag.TypeNoSuchMember,
			fmt.Sprintf("member %q not found on array", name))
		return ck.sentinel()

	case types.KindFixedBytes:
		if name == "length" {
			return p.Integer(8, false)
		}
		ck.errAt(mem.MemSpan, diag.TypeNoSuchMember, fmt.Sprintf("member %q not found", name))
		return ck.sentinel()

	case types.KindFunction:
		if name == "selector" && obj.FnKind == types.FnExternal {
			return p.FixedBytes(4)
		}
		ck.errAt(mem.MemSpan, diag.TypeNoSuchMember, fmt.Sprintf("member %q not found", name))
		return ck.sentinel()
	}

	// функции из using-for: первый параметр связывает приёмник
	if t, ok := ck.usingForMember(id, ann, objT, mem.Member); ok {
		return t
	}

	ck.errAt(mem.MemSpan, diag.TypeNoSuchMember,
		fmt.Sprintf("member %q not found on %s", name, p.HumanName(objT)))
	return ck.sentinel()
}

func (ck *checker) isSuperObject(obj ast.ExprID) bool {
	ident, ok := ck.info.Arenas.Exprs.Ident(obj)
	return ok && ck.info.spell(ident.Name) == "super"
}

// superMember resolves super.f: the search starts one element after the
// statically enclosing contract in the linearised base list.
func (ck *checker) superMember(id ast.ExprID, ann *ast.ExprAnn, name source.StringID) types.TypeID {
	lin := ck.info.Ann.Contract(ck.contract).Linearized
	for i, c := range lin {
		if c == ck.contract {
			for _, base := range lin[i+1:] {
				decls := ck.info.VisibleMembers(base, name)
				var fns []ast.ItemID
				for _, d := range decls {
					if _, ok := ck.info.Arenas.Items.Function(d); ok {
						fns = append(fns, d)
					}
				}
				if len(fns) > 0 {
					return ck.declsType(id, ann, fns)
				}
			}
			break
		}
	}
	ck.errAt(ck.info.Arenas.Exprs.Get(id).Span, diag.TypeNoSuchMember,
		fmt.Sprintf("no base defines %q", ck.info.spell(name)))
	return ck.sentinel()
}

// typeTypeMember handles C.Member where C names a contract, struct, or enum.
func (ck *checker) typeTypeMember(id ast.ExprID, ann *ast.ExprAnn, mem *ast.MemberExpr, actual types.TypeID) types.TypeID {
	p := ck.info.Provider
	at := p.Get(actual)
	switch at.Kind {
	case types.KindContract:
		contract := ast.ItemID(at.DeclRef)
		decls := ck.info.VisibleMembers(contract, mem.Member)
		var usable []ast.ItemID
		for _, d := range decls {
			switch ck.info.Arenas.Items.Get(d).Kind {
			case ast.ItemStruct, ast.ItemEnum, ast.ItemContract, ast.ItemEvent:
				usable = append(usable, d)
			case ast.ItemVariable:
				if v, _ := ck.info.Arenas.Items.Variable(d); v.Constant {
					usable = append(usable, d)
				}
			case ast.ItemFunction:
				fn, _ := ck.info.Arenas.Items.Function(d)
				// библиотечные и внутренние функции доступны как C.f
				if at.Library || fn.Visibility == ast.VisInternal || fn.Visibility == ast.VisPublic {
					usable = append(usable, d)
				}
			}
		}
		if len(usable) == 0 {
			ck.errAt(mem.MemSpan, diag.TypeNoSuchMember,
				fmt.Sprintf("member %q not found in %s", ck.info.spell(mem.Member), at.Name))
			return ck.sentinel()
		}
		return ck.declsType(id, ann, usable)

	case types.KindEnum:
		en, _ := ck.info.Arenas.Items.Enum(ast.ItemID(at.DeclRef))
		for _, m := range en.Members {
			if m.Name == mem.Member {
				ann.IsConstant = true
				ann.IsPure = true
				return actual
			}
		}
		ck.errAt(mem.MemSpan, diag.TypeNoSuchMember,
			fmt.Sprintf("enum %s has no member %q", at.Name, ck.info.spell(mem.Member)))
		return ck.sentinel()

	default:
		// type(T) метаданные: name / creationCode / runtimeCode
		switch ck.info.spell(mem.Member) {
		case "name":
			return p.String(types.LocMemory)
		case "creationCode", "runtimeCode":
			return p.Bytes(types.LocMemory)
		}
		ck.errAt(mem.MemSpan, diag.TypeNoSuchMember, "member not found on type")
		return ck.sentinel()
	}
}

// usingForMember attaches library functions to the receiver type.
func (ck *checker) usingForMember(_ ast.ExprID, ann *ast.ExprAnn, recv types.TypeID, member source.StringID) (types.TypeID, bool) {
	if !ck.contract.IsValid() {
		return types.NoTypeID, false
	}
	p := ck.info.Provider
	lin := ck.info.Ann.Contract(ck.contract).Linearized
	for _, c := range lin {
		decl, _ := ck.info.Arenas.Items.Contract(c)
		for _, item := range decl.Body {
			uf, ok := ck.info.Arenas.Items.UsingFor(item)
			if !ok {
				continue
			}
			if uf.Target.IsValid() {
				target := ck.info.Ann.TypeName(uf.Target).Type
				if !target.IsValid() {
					rt := p.Get(recv)
					loc := types.LocStorage
					if rt != nil && rt.Loc != types.LocNone {
						loc = rt.Loc
					}
					target = ck.info.resolveTypeName(uf.Target, ck.info.ContractScopes[c], loc)
				}
				if !target.IsValid() || !p.ImplicitlyConvertible(recv, target) {
					continue
				}
			}
			lib := ck.info.Ann.TypeName(uf.Library).Decl
			if !lib.IsValid() {
				lib = ck.info.resolveContractName(ck.info.UnitScopes[decl.Unit], uf.Library)
			}
			if !lib.IsValid() {
				continue
			}
			for _, cand := range ck.info.VisibleMembers(lib, member) {
				fn, isFn := ck.info.Arenas.Items.Function(cand)
				if !isFn || len(fn.Params) == 0 {
					continue
				}
				first := ck.info.ParamType(fn.Params[0])
				if !p.ImplicitlyConvertible(recv, first) {
					continue
				}
				ann.Decl = cand
				ann.Candidates = []ast.ItemID{cand}
				fnT := p.Get(ck.info.Ann.Callable(cand).Type)
				// приёмник уже связан: тип вызова без первого параметра
				return p.Function(fnT.Params[1:], fnT.Returns, types.FnInternal, fnT.Mut), true
			}
		}
	}
	return types.NoTypeID, false
}
