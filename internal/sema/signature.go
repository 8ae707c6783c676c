package sema

import (
	"strings"

	"solar/internal/ast"
	"solar/internal/types"
)

// ParamType returns the resolved type of a declared parameter.
func (info *Info) ParamType(id ast.ParamID) types.TypeID {
	return info.paramTypes[id]
}

func (info *Info) setParamType(id ast.ParamID, t types.TypeID) {
	if info.paramTypes == nil {
		info.paramTypes = make(map[ast.ParamID]types.TypeID)
	}
	info.paramTypes[id] = t
}

// ParamTypeList resolves a parameter list into type IDs.
func (info *Info) ParamTypeList(ids []ast.ParamID) []types.TypeID {
	out := make([]types.TypeID, len(ids))
	for i, id := range ids {
		out[i] = info.paramTypes[id]
	}
	return out
}

// ExternalSignature renders the canonical ABI signature of a callable:
// name plus parenthesised canonical parameter type names.
func (info *Info) ExternalSignature(item ast.ItemID) string {
	var name string
	var params []ast.ParamID
	switch info.Arenas.Items.Get(item).Kind {
	case ast.ItemFunction:
		p, _ := info.Arenas.Items.Function(item)
		name = info.spell(p.Name)
		params = p.Params
	case ast.ItemModifier:
		p, _ := info.Arenas.Items.Modifier(item)
		name = info.spell(p.Name)
		params = p.Params
	case ast.ItemEvent:
		p, _ := info.Arenas.Items.Event(item)
		name = info.spell(p.Name)
		params = p.Params
	default:
		return ""
	}
	parts := make([]string, len(params))
	for i, pid := range params {
		parts[i] = info.Provider.CanonicalName(info.paramTypes[pid])
	}
	return name + "(" + strings.Join(parts, ",") + ")"
}

// sameCallableSignature reports whether two members collide in the
// signature sense: same kind, same name, structurally equal parameter
// lists. A variable participates through its getter signature.
func (info *Info) sameCallableSignature(a, b ast.ItemID) bool {
	ka := info.Arenas.Items.Get(a).Kind
	kb := info.Arenas.Items.Get(b).Kind
	if ka != kb {
		return false
	}
	switch ka {
	case ast.ItemFunction, ast.ItemModifier, ast.ItemEvent:
		return info.ExternalSignature(a) == info.ExternalSignature(b)
	default:
		return false
	}
}
