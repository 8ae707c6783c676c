package sema

import (
	"fmt"
	"strconv"
	"strings"

	"solar/internal/ast"
	"solar/internal/diag"
	"solar/internal/types"
)

// resolveDeclarationTypes fills the type annotations of every declared
// entity: struct fields, state variables (with storage layout), function
// and modifier signatures, events. Struct types resolve on demand so that
// mutually recursive references work.
func (info *Info) resolveDeclarationTypes() {
	// struct fields first: state variables and signatures may reference
	// any struct, including file-level ones
	for _, contract := range info.Contracts {
		decl, _ := info.Arenas.Items.Contract(contract)
		scope := info.ContractScopes[contract]
		for _, member := range decl.Body {
			if s, ok := info.Arenas.Items.Struct(member); ok {
				info.registerStructFields(member, s, scope)
			}
		}
	}
	for _, unit := range info.Units {
		scope := info.UnitScopes[unit]
		for _, item := range info.Arenas.Units.Get(unit).Items {
			if s, ok := info.Arenas.Items.Struct(item); ok && !s.Contract.IsValid() {
				info.registerStructFields(item, s, scope)
			}
		}
	}

	for _, contract := range info.Contracts {
		info.resolveContractDecls(contract)
	}

	for _, unit := range info.Units {
		scope := info.UnitScopes[unit]
		for _, item := range info.Arenas.Units.Get(unit).Items {
			if fn, ok := info.Arenas.Items.Function(item); ok && !fn.Contract.IsValid() {
				info.resolveFunctionDecl(item, scope, ast.KindContract)
			}
		}
	}
}

func (info *Info) registerStructFields(item ast.ItemID, s *ast.StructItem, scope *Scope) {
	fields := make([]types.TypeID, len(s.Fields))
	for i, f := range s.Fields {
		p := info.Arenas.Params.Get(f)
		fields[i] = info.resolveTypeName(p.TypeName, scope, types.LocStorage)
		info.setParamType(f, fields[i])
	}
	info.Provider.SetStructFields(uint32(item), fields)
}

func (info *Info) resolveContractDecls(contract ast.ItemID) {
	decl, _ := info.Arenas.Items.Contract(contract)
	scope := info.ContractScopes[contract]

	var slot uint32
	var offset uint8

	for _, member := range decl.Body {
		switch info.Arenas.Items.Get(member).Kind {
		case ast.ItemVariable:
			v, _ := info.Arenas.Items.Variable(member)
			t := info.resolveTypeName(v.TypeName, scope, types.LocStorage)
			ann := info.Ann.Var(member)
			ann.Type = t
			if decl.Kind == ast.KindLibrary && !v.Constant {
				info.errorAt(diag.DeclLibraryStateVar, v.NameSpan, "libraries cannot have state variables")
				continue
			}
			if v.Constant {
				if !v.Value.IsValid() {
					info.errorAt(diag.TypeNotConstant, v.NameSpan, "constant variable must be initialized")
				}
				continue // constants occupy no slot
			}
			// packing: value types narrower than a word share slots
			size := info.Provider.ByteSize(t)
			tt := info.Provider.Get(t)
			if tt != nil && tt.IsValueType() && size < 32 {
				if uint32(offset)+size > 32 {
					slot++
					offset = 0
				}
				ann.Slot = slot
				ann.Offset = offset
				offset += uint8(size) //nolint:gosec // size < 32
			} else {
				if offset > 0 {
					slot++
					offset = 0
				}
				ann.Slot = slot
				ann.Offset = 0
				slot += info.Provider.StorageSlots(t)
			}
			info.StateLayout[contract] = append(info.StateLayout[contract], member)
		case ast.ItemFunction:
			info.resolveFunctionDecl(member, scope, decl.Kind)
		case ast.ItemModifier:
			m, _ := info.Arenas.Items.Modifier(member)
			params := info.resolveParams(m.Params, scope, types.LocMemory)
			info.Ann.Callable(member).Type = info.Provider.Modifier(params)
		case ast.ItemEvent:
			ev, _ := info.Arenas.Items.Event(member)
			params := info.resolveParams(ev.Params, scope, types.LocMemory)
			info.Ann.Callable(member).Type = info.Provider.Event(uint32(member), info.spell(ev.Name), params)
		}
	}

	for _, getter := range info.getters[contract] {
		info.resolveFunctionDecl(getter, scope, decl.Kind)
	}

	// функции интерфейса не могут иметь тела
	if decl.Kind == ast.KindInterface {
		for _, member := range decl.Body {
			if fn, ok := info.Arenas.Items.Function(member); ok && fn.Body.IsValid() {
				info.errorAt(diag.DeclInterfaceHasBody, fn.NameSpan, "interface functions cannot have an implementation")
			}
		}
	}
}

func (info *Info) resolveFunctionDecl(item ast.ItemID, scope *Scope, ckind ast.ContractKind) {
	fn, _ := info.Arenas.Items.Function(item)

	if fn.Visibility == ast.VisDefault {
		fn.Visibility = ast.VisPublic
		if ckind == ast.KindInterface {
			fn.Visibility = ast.VisExternal
		}
	}

	paramLoc := types.LocMemory
	if fn.Visibility == ast.VisExternal {
		paramLoc = types.LocCalldata
	}
	params := info.resolveParams(fn.Params, scope, paramLoc)
	returns := info.resolveParams(fn.Returns, scope, types.LocMemory)

	fkind := types.FnInternal
	if fn.Visibility.ExternallyVisible() {
		fkind = types.FnExternal
	}
	info.Ann.Callable(item).Type = info.Provider.Function(params, returns, fkind, mutOf(fn.Mutability))
}

func mutOf(m ast.Mutability) types.Mutability {
	switch m {
	case ast.MutPayable:
		return types.MutPayable
	case ast.MutView:
		return types.MutView
	case ast.MutPure:
		return types.MutPure
	}
	return types.MutNonPayable
}

func (info *Info) resolveParams(ids []ast.ParamID, scope *Scope, defaultLoc types.DataLocation) []types.TypeID {
	out := make([]types.TypeID, len(ids))
	for i, id := range ids {
		p := info.Arenas.Params.Get(id)
		loc := locOf(p.Location)
		if loc == types.LocNone {
			loc = defaultLoc
		}
		out[i] = info.resolveTypeName(p.TypeName, scope, loc)
		info.setParamType(id, out[i])
	}
	return out
}

func locOf(l ast.DataLocation) types.DataLocation {
	switch l {
	case ast.LocStorage:
		return types.LocStorage
	case ast.LocMemory:
		return types.LocMemory
	case ast.LocCalldata:
		return types.LocCalldata
	}
	return types.LocNone
}

// resolveTypeName resolves a written type to its canonical type object and
// records the annotation. defaultLoc applies to reference types without an
// explicit data location.
func (info *Info) resolveTypeName(tn ast.TypeNameID, scope *Scope, defaultLoc types.DataLocation) types.TypeID {
	if !tn.IsValid() {
		return info.Provider.Sentinel()
	}
	ann := info.Ann.TypeName(tn)
	if ann.Type.IsValid() {
		return ann.Type
	}
	node := info.Arenas.TypeNames.Get(tn)
	var result types.TypeID

	switch node.Kind {
	case ast.TypeNameElementary:
		el, _ := info.Arenas.TypeNames.Elementary(tn)
		result = info.elementaryType(info.spell(el.Name), el.Payable, defaultLoc)
		if !result.IsValid() {
			info.errorAt(diag.TypeMismatch, node.Span, "unknown elementary type")
			result = info.Provider.Sentinel()
		}
	case ast.TypeNameUserDefined:
		result = info.resolveUserDefined(tn, scope, defaultLoc)
	case ast.TypeNameMapping:
		m, _ := info.Arenas.TypeNames.Mapping(tn)
		key := info.resolveTypeName(m.Key, scope, types.LocStorage)
		kt := info.Provider.Get(key)
		if kt != nil && !kt.IsValueType() && kt.Kind != types.KindArray {
			info.errorAt(diag.TypeMismatch, info.Arenas.TypeNames.Get(m.Key).Span,
				"mapping key must be a value type or byte string")
		}
		value := info.resolveTypeName(m.Value, scope, types.LocStorage)
		result = info.Provider.Mapping(key, value)
	case ast.TypeNameArray:
		a, _ := info.Arenas.TypeNames.Array(tn)
		base := info.resolveTypeName(a.Base, scope, defaultLoc)
		if a.Length.IsValid() {
			n, ok := info.evalConstUint(a.Length)
			if !ok {
				info.errorAt(diag.TypeNotConstant, info.Arenas.Exprs.Get(a.Length).Span,
					"array length must be a non-negative integer constant")
				n = 1
			}
			result = info.Provider.Array(base, n, false, defaultLoc)
		} else {
			result = info.Provider.Array(base, 0, true, defaultLoc)
		}
	default:
		result = info.Provider.Sentinel()
	}

	ann.Type = result
	return result
}

func (info *Info) resolveUserDefined(tn ast.TypeNameID, scope *Scope, defaultLoc types.DataLocation) types.TypeID {
	ud, _ := info.Arenas.TypeNames.UserDefined(tn)
	node := info.Arenas.TypeNames.Get(tn)

	decls := scope.Lookup(ud.Path[0])
	if len(decls) == 0 {
		info.errorAt(diag.DeclUnresolvedName, node.Span,
			fmt.Sprintf("identifier %q not found", info.spell(ud.Path[0])))
		return info.Provider.Sentinel()
	}
	decl := decls[0]

	// остальные сегменты — вложенные типы внутри контракта (C.S)
	for _, seg := range ud.Path[1:] {
		c, isContract := info.Arenas.Items.Contract(decl)
		if !isContract {
			info.errorAt(diag.DeclUnresolvedName, node.Span, "qualified type path must start with a contract")
			return info.Provider.Sentinel()
		}
		_ = c
		found := ast.NoItemID
		for _, cand := range info.VisibleMembers(decl, seg) {
			k := info.Arenas.Items.Get(cand).Kind
			if k == ast.ItemStruct || k == ast.ItemEnum || k == ast.ItemContract {
				found = cand
				break
			}
		}
		if !found.IsValid() {
			info.errorAt(diag.DeclUnresolvedName, node.Span,
				fmt.Sprintf("type %q not found in contract", info.spell(seg)))
			return info.Provider.Sentinel()
		}
		decl = found
	}

	info.Ann.TypeName(tn).Decl = decl
	name := info.spell(info.Arenas.ItemName(decl))
	switch info.Arenas.Items.Get(decl).Kind {
	case ast.ItemContract:
		c, _ := info.Arenas.Items.Contract(decl)
		return info.Provider.Contract(uint32(decl), name, c.Kind == ast.KindLibrary)
	case ast.ItemStruct:
		return info.Provider.Struct(uint32(decl), name, defaultLoc)
	case ast.ItemEnum:
		return info.Provider.Enum(uint32(decl), name)
	default:
		info.errorAt(diag.TypeMismatch, node.Span, fmt.Sprintf("%q is not a type", name))
		return info.Provider.Sentinel()
	}
}

// elementaryType maps a spelled elementary name onto the provider.
func (info *Info) elementaryType(name string, payable bool, loc types.DataLocation) types.TypeID {
	switch name {
	case "bool":
		return info.Provider.Bool()
	case "address":
		return info.Provider.Address(payable)
	case "string":
		return info.Provider.String(loc)
	case "bytes":
		return info.Provider.Bytes(loc)
	case "byte":
		return info.Provider.FixedBytes(1)
	case "uint":
		return info.Provider.Integer(256, false)
	case "int":
		return info.Provider.Integer(256, true)
	}
	for _, prefix := range [...]string{"uint", "int"} {
		if rest, ok := strings.CutPrefix(name, prefix); ok && rest != "" {
			if n, err := strconv.Atoi(rest); err == nil && n >= 8 && n <= 256 && n%8 == 0 {
				return info.Provider.Integer(uint16(n), prefix == "int") //nolint:gosec // bounded above
			}
			return types.NoTypeID
		}
	}
	if rest, ok := strings.CutPrefix(name, "bytes"); ok && rest != "" {
		if n, err := strconv.Atoi(rest); err == nil && n >= 1 && n <= 32 {
			return info.Provider.FixedBytes(uint16(n)) //nolint:gosec // bounded above
		}
	}
	return types.NoTypeID
}
