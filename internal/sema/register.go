package sema

import (
	"fmt"

	"solar/internal/ast"
	"solar/internal/diag"
	"solar/internal/source"
)

// registerUnits is phase A: every declaration is assigned to an enclosing
// scope. Contract members go into the contract scope whose parent is the
// unit scope; imported units contribute their top-level names afterwards.
func (info *Info) registerUnits(units []ast.UnitID) {
	for _, unit := range units {
		scope := NewScope(nil)
		info.UnitScopes[unit] = scope
		u := info.Arenas.Units.Get(unit)
		for _, item := range u.Items {
			info.registerTopLevel(unit, scope, item)
		}
	}

	// imports: bring the imported unit's own declarations into scope
	for _, unit := range units {
		info.wireImports(unit, units)
	}
}

func (info *Info) registerTopLevel(unit ast.UnitID, scope *Scope, item ast.ItemID) {
	it := info.Arenas.Items.Get(item)
	switch it.Kind {
	case ast.ItemPragma, ast.ItemImport, ast.ItemUsingFor:
		return
	case ast.ItemContract:
		info.declare(scope, item, false)
		info.Contracts = append(info.Contracts, item)
		info.registerContract(item)
	case ast.ItemFunction:
		info.declare(scope, item, true)
	default:
		info.declare(scope, item, it.Kind == ast.ItemEvent)
	}
	_ = unit
}

func (info *Info) registerContract(contract ast.ItemID) {
	decl, _ := info.Arenas.Items.Contract(contract)
	scope := NewScope(info.UnitScopes[decl.Unit])
	info.ContractScopes[contract] = scope
	for _, member := range decl.Body {
		it := info.Arenas.Items.Get(member)
		switch it.Kind {
		case ast.ItemUsingFor:
			continue
		case ast.ItemFunction:
			fn, _ := info.Arenas.Items.Function(member)
			if fn.FnKind != ast.FnOrdinary {
				// constructor/fallback/receive не имеют имени в области видимости
				continue
			}
			info.declare(scope, member, true)
		case ast.ItemEvent:
			info.declare(scope, member, true)
		default:
			info.declare(scope, member, false)
		}
	}
}

func (info *Info) declare(scope *Scope, item ast.ItemID, overloadable bool) {
	name := info.Arenas.ItemName(item)
	if name == source.NoStringID {
		return
	}
	if prev, ok := scope.Declare(name, item, overloadable); !ok {
		info.errorAt(diag.DeclDuplicateName, info.Arenas.ItemNameSpan(item),
			fmt.Sprintf("identifier %q already declared", info.spell(name)),
			diag.Note{Span: info.Arenas.ItemNameSpan(prev), Msg: "previous declaration is here"})
	}
}

// wireImports copies the top-level names of each imported unit into the
// importing unit's scope and records the transitive import set.
func (info *Info) wireImports(unit ast.UnitID, all []ast.UnitID) {
	u := info.Arenas.Units.Get(unit)
	scope := info.UnitScopes[unit]
	ann := info.Ann.Unit(unit)
	for _, item := range u.Items {
		imp, ok := info.Arenas.Items.Import(item)
		if !ok {
			continue
		}
		target := info.findUnitByPath(imp.Path, all)
		if !target.IsValid() {
			info.errorAt(diag.DeclImportNotFound, imp.PathSpan,
				fmt.Sprintf("imported unit %q is not part of the source set", info.spell(imp.Path)))
			continue
		}
		ann.Imports = append(ann.Imports, target)
		tu := info.Arenas.Units.Get(target)
		for _, titem := range tu.Items {
			name := info.Arenas.ItemName(titem)
			if name == source.NoStringID {
				continue
			}
			kind := info.Arenas.Items.Get(titem).Kind
			overloadable := kind == ast.ItemFunction || kind == ast.ItemEvent
			// конфликт при импорте — та же декларационная ошибка
			info.declareImported(scope, name, titem, overloadable)
		}
	}
}

func (info *Info) declareImported(scope *Scope, name source.StringID, item ast.ItemID, overloadable bool) {
	existing := scope.LookupLocal(name)
	for _, e := range existing {
		if e == item {
			return
		}
	}
	if prev, ok := scope.Declare(name, item, overloadable); !ok {
		info.errorAt(diag.DeclDuplicateName, info.Arenas.ItemNameSpan(item),
			fmt.Sprintf("imported identifier %q clashes with an existing declaration", info.spell(name)),
			diag.Note{Span: info.Arenas.ItemNameSpan(prev), Msg: "conflicting declaration is here"})
	}
}

func (info *Info) findUnitByPath(path source.StringID, all []ast.UnitID) ast.UnitID {
	for _, unit := range all {
		if info.Arenas.Units.Get(unit).Path == path {
			return unit
		}
	}
	return ast.NoUnitID
}
