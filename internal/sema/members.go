package sema

import (
	"solar/internal/ast"
	"solar/internal/source"
)

// MemberTable is the flat member view of one contract: own members first,
// then members inherited from every linearised base. Same-signature
// overrides shadow base members for plain lookup, but the full list stays
// visible for super-lookup; shadowing is applied at query time once
// signatures exist.
type MemberTable struct {
	// ByName lists declarations per name, most-derived first.
	ByName map[source.StringID][]ast.ItemID
	// Order preserves deterministic iteration for interface extraction.
	Order []source.StringID
}

func (info *Info) buildMemberTable(contract ast.ItemID) {
	table := &MemberTable{ByName: make(map[source.StringID][]ast.ItemID)}
	info.Members[contract] = table

	ann := info.Ann.Contract(contract)
	for _, c := range ann.Linearized {
		decl, ok := info.Arenas.Items.Contract(c)
		if !ok {
			continue
		}
		for _, member := range decl.Body {
			info.addMember(table, member)
		}
		for _, getter := range info.getters[c] {
			info.addMember(table, getter)
		}
	}
}

func (info *Info) addMember(table *MemberTable, member ast.ItemID) {
	name := info.Arenas.ItemName(member)
	if name == source.NoStringID {
		return
	}
	if _, seen := table.ByName[name]; !seen {
		table.Order = append(table.Order, name)
	}
	table.ByName[name] = append(table.ByName[name], member)
}

// VisibleMembers returns the declarations bound to name in the contract,
// with same-signature base members shadowed by more-derived ones. Private
// base members are invisible.
func (info *Info) VisibleMembers(contract ast.ItemID, name source.StringID) []ast.ItemID {
	table := info.Members[contract]
	if table == nil {
		return nil
	}
	all := table.ByName[name]
	var out []ast.ItemID
	for _, cand := range all {
		// приватные члены базовых контрактов не видны
		if info.memberContract(cand) != contract && info.memberVisibility(cand) == ast.VisPrivate {
			continue
		}
		shadowed := false
		for _, kept := range out {
			if info.sameCallableSignature(kept, cand) {
				shadowed = true
				break
			}
		}
		if !shadowed {
			out = append(out, cand)
		}
	}
	return out
}

func (info *Info) memberContract(item ast.ItemID) ast.ItemID {
	switch info.Arenas.Items.Get(item).Kind {
	case ast.ItemFunction:
		p, _ := info.Arenas.Items.Function(item)
		return p.Contract
	case ast.ItemModifier:
		p, _ := info.Arenas.Items.Modifier(item)
		return p.Contract
	case ast.ItemEvent:
		p, _ := info.Arenas.Items.Event(item)
		return p.Contract
	case ast.ItemStruct:
		p, _ := info.Arenas.Items.Struct(item)
		return p.Contract
	case ast.ItemEnum:
		p, _ := info.Arenas.Items.Enum(item)
		return p.Contract
	case ast.ItemVariable:
		p, _ := info.Arenas.Items.Variable(item)
		return p.Contract
	}
	return ast.NoItemID
}

func (info *Info) memberVisibility(item ast.ItemID) ast.Visibility {
	switch info.Arenas.Items.Get(item).Kind {
	case ast.ItemFunction:
		p, _ := info.Arenas.Items.Function(item)
		return p.Visibility
	case ast.ItemVariable:
		p, _ := info.Arenas.Items.Variable(item)
		if p.Visibility == ast.VisDefault {
			return ast.VisInternal
		}
		return p.Visibility
	}
	return ast.VisInternal
}
