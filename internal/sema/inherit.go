package sema

import (
	"fmt"

	"solar/internal/ast"
	"solar/internal/diag"
)

// resolveInheritance resolves base names, linearises every contract with
// the C3 algorithm, builds flat member tables, and materialises getters for
// public state variables.
func (info *Info) resolveInheritance() {
	direct := make(map[ast.ItemID][]ast.ItemID, len(info.Contracts))
	for _, contract := range info.Contracts {
		direct[contract] = info.resolveDirectBases(contract)
	}

	memo := make(map[ast.ItemID][]ast.ItemID, len(info.Contracts))
	visiting := make(map[ast.ItemID]bool)
	for _, contract := range info.Contracts {
		info.linearize(contract, direct, memo, visiting)
	}

	// record the base sets for contract convertibility
	for _, contract := range info.Contracts {
		ann := info.Ann.Contract(contract)
		bases := make([]uint32, len(ann.Linearized))
		for i, b := range ann.Linearized {
			bases[i] = uint32(b)
		}
		info.Provider.SetContractBases(uint32(contract), bases)
	}

	for _, contract := range info.Contracts {
		info.materializeGetters(contract)
	}
	for _, contract := range info.Contracts {
		info.buildMemberTable(contract)
	}
}

func (info *Info) resolveDirectBases(contract ast.ItemID) []ast.ItemID {
	decl, _ := info.Arenas.Items.Contract(contract)
	scope := info.UnitScopes[decl.Unit]
	var bases []ast.ItemID
	for _, spec := range decl.Bases {
		base := info.resolveContractName(scope, spec.Base)
		if !base.IsValid() {
			info.errorAt(diag.DeclUnresolvedName, spec.Span, "base contract not found")
			continue
		}
		if base == contract {
			info.errorAt(diag.TypeLinearizationFailed, spec.Span, "a contract cannot inherit from itself")
			continue
		}
		if decl.Kind == ast.KindLibrary {
			info.errorAt(diag.DeclLibraryInherits, spec.Span, "libraries cannot inherit")
			continue
		}
		bases = append(bases, base)
	}
	return bases
}

func (info *Info) resolveContractName(scope *Scope, tn ast.TypeNameID) ast.ItemID {
	ud, ok := info.Arenas.TypeNames.UserDefined(tn)
	if !ok || len(ud.Path) == 0 {
		return ast.NoItemID
	}
	decls := scope.Lookup(ud.Path[0])
	// путь из нескольких сегментов: Alias.C через импортированный юнит не
	// поддерживается на уровне наследования; первый сегмент должен быть
	// контрактом
	for _, d := range decls {
		if _, isContract := info.Arenas.Items.Contract(d); isContract {
			info.Ann.TypeName(tn).Decl = d
			return d
		}
	}
	return ast.NoItemID
}

// linearize computes the C3 linearisation: merge of the linearisations of
// the direct bases plus the direct-base list itself, most-derived first.
func (info *Info) linearize(
	contract ast.ItemID,
	direct map[ast.ItemID][]ast.ItemID,
	memo map[ast.ItemID][]ast.ItemID,
	visiting map[ast.ItemID]bool,
) []ast.ItemID {
	if lin, ok := memo[contract]; ok {
		return lin
	}
	if visiting[contract] {
		decl, _ := info.Arenas.Items.Contract(contract)
		info.errorAt(diag.TypeLinearizationFailed, decl.NameSpan, "cyclic inheritance")
		memo[contract] = []ast.ItemID{contract}
		return memo[contract]
	}
	visiting[contract] = true
	defer delete(visiting, contract)

	bases := direct[contract]
	// последовательности для merge: линеаризации баз (в обратном порядке
	// объявления, solc-style) + сам список прямых баз
	var seqs [][]ast.ItemID
	for i := len(bases) - 1; i >= 0; i-- {
		baseLin := info.linearize(bases[i], direct, memo, visiting)
		seqs = append(seqs, append([]ast.ItemID(nil), baseLin...))
	}
	if len(bases) > 0 {
		rev := make([]ast.ItemID, len(bases))
		for i, b := range bases {
			rev[len(bases)-1-i] = b
		}
		seqs = append(seqs, rev)
	}

	merged, conflictA, conflictB := c3Merge(seqs)
	if conflictA.IsValid() {
		decl, _ := info.Arenas.Items.Contract(contract)
		nameA := info.spell(info.Arenas.ItemName(conflictA))
		nameB := info.spell(info.Arenas.ItemName(conflictB))
		info.errorAt(diag.TypeLinearizationFailed, decl.NameSpan,
			fmt.Sprintf("linearization of inheritance graph impossible: order of %s and %s cannot be reconciled", nameA, nameB))
		ann := info.Ann.Contract(contract)
		ann.LinearizationFailed = true
		ann.Linearized = []ast.ItemID{contract}
		memo[contract] = ann.Linearized
		return ann.Linearized
	}

	lin := append([]ast.ItemID{contract}, merged...)
	ann := info.Ann.Contract(contract)
	ann.Linearized = lin
	memo[contract] = lin
	return lin
}

// c3Merge merges the candidate sequences; on failure it returns the two
// contracts whose order could not be reconciled.
func c3Merge(seqs [][]ast.ItemID) (merged []ast.ItemID, conflictA, conflictB ast.ItemID) {
	work := make([][]ast.ItemID, 0, len(seqs))
	for _, s := range seqs {
		if len(s) > 0 {
			work = append(work, s)
		}
	}
	for len(work) > 0 {
		var next ast.ItemID
		for _, seq := range work {
			head := seq[0]
			inTail := false
			for _, other := range work {
				for _, el := range other[1:] {
					if el == head {
						inTail = true
						break
					}
				}
				if inTail {
					break
				}
			}
			if !inTail {
				next = head
				break
			}
		}
		if !next.IsValid() {
			// два первых кандидата называют непримиримую пару
			a := work[0][0]
			b := a
			for _, seq := range work[1:] {
				if seq[0] != a {
					b = seq[0]
					break
				}
			}
			return nil, a, b
		}
		merged = append(merged, next)
		out := work[:0]
		for _, seq := range work {
			if seq[0] == next {
				seq = seq[1:]
			} else {
				filtered := seq[:0]
				for _, el := range seq {
					if el != next {
						filtered = append(filtered, el)
					}
				}
				seq = filtered
			}
			if len(seq) > 0 {
				out = append(out, seq)
			}
		}
		work = out
	}
	return merged, ast.NoItemID, ast.NoItemID
}

// materializeGetters inserts a generated function node for every public
// state variable. The getter is the externally callable face of the
// variable; inside the contract the variable stays an L-value.
func (info *Info) materializeGetters(contract ast.ItemID) {
	decl, _ := info.Arenas.Items.Contract(contract)
	scope := info.ContractScopes[contract]
	for _, member := range decl.Body {
		v, ok := info.Arenas.Items.Variable(member)
		if !ok || v.Visibility != ast.VisPublic {
			continue
		}
		params, returns := info.getterSignature(v.TypeName)
		getter := ast.FunctionItem{
			Name:       v.Name,
			NameSpan:   v.NameSpan,
			FnKind:     ast.FnGetter,
			Params:     params,
			Returns:    returns,
			Visibility: ast.VisExternal,
			Mutability: ast.MutView,
			Contract:   contract,
			StateVar:   member,
		}
		id := info.Arenas.Items.NewFunction(v.NameSpan, getter)
		if info.getters == nil {
			info.getters = make(map[ast.ItemID][]ast.ItemID)
		}
		info.getters[contract] = append(info.getters[contract], id)
		_ = scope // геттер не виден изнутри контракта под своим именем
	}
}

// getterSignature derives parameters and returns from the variable's type:
// every mapping level adds a key parameter, every array level adds a
// uint256 index, the final value becomes the return.
func (info *Info) getterSignature(tn ast.TypeNameID) (params, returns []ast.ParamID) {
	cur := tn
	for {
		node := info.Arenas.TypeNames.Get(cur)
		if node == nil {
			break
		}
		switch node.Kind {
		case ast.TypeNameMapping:
			m, _ := info.Arenas.TypeNames.Mapping(cur)
			params = append(params, info.Arenas.Params.New(ast.Param{
				TypeName: m.Key, Span: node.Span,
			}))
			cur = m.Value
			continue
		case ast.TypeNameArray:
			a, _ := info.Arenas.TypeNames.Array(cur)
			uintTn := info.Arenas.TypeNames.NewElementary(node.Span, ast.ElementaryTypeName{
				Name: info.lookupName("uint256"),
			})
			params = append(params, info.Arenas.Params.New(ast.Param{
				TypeName: uintTn, Span: node.Span,
			}))
			cur = a.Base
			continue
		}
		break
	}
	returns = append(returns, info.Arenas.Params.New(ast.Param{
		TypeName: cur, Span: info.Arenas.TypeNames.Get(cur).Span,
	}))
	return params, returns
}
