package sema

import (
	"fmt"
	"sort"

	"solar/internal/ast"
	"solar/internal/diag"
	"solar/internal/source"
)

// checkOverrides enforces override legality per contract: list consistency
// against the lattice, visibility and mutability monotonicity, kind match,
// virtuality — and detects inherited same-signature sets that demand an
// explicit override, via the cut-vertex rule.
func (info *Info) checkOverrides() {
	// базы раньше производных: рёбра переопределений базовых контрактов
	// должны существовать до проверки решётки наследника
	order := append([]ast.ItemID(nil), info.Contracts...)
	sort.SliceStable(order, func(i, j int) bool {
		return len(info.Ann.Contract(order[i]).Linearized) < len(info.Ann.Contract(order[j]).Linearized)
	})
	for _, contract := range order {
		info.checkContractOverrides(contract)
	}
}

// signatureClass is one same-signature equivalence class of inherited
// callables, in linearised order.
type signatureClass struct {
	sig     string
	members []ast.ItemID
}

func (info *Info) inheritedClasses(contract ast.ItemID, wantModifiers bool) []signatureClass {
	ann := info.Ann.Contract(contract)
	classIdx := make(map[string]int)
	var classes []signatureClass
	for _, base := range ann.Linearized {
		if base == contract {
			continue
		}
		decl, ok := info.Arenas.Items.Contract(base)
		if !ok {
			continue
		}
		for _, member := range decl.Body {
			kind := info.Arenas.Items.Get(member).Kind
			if wantModifiers && kind != ast.ItemModifier {
				continue
			}
			if !wantModifiers && kind != ast.ItemFunction {
				continue
			}
			if fn, isFn := info.Arenas.Items.Function(member); isFn && fn.FnKind != ast.FnOrdinary && fn.FnKind != ast.FnGetter {
				continue
			}
			sig := info.ExternalSignature(member)
			idx, seen := classIdx[sig]
			if !seen {
				idx = len(classes)
				classIdx[sig] = idx
				classes = append(classes, signatureClass{sig: sig})
			}
			classes[idx].members = append(classes[idx].members, member)
		}
	}
	return classes
}

func (info *Info) checkContractOverrides(contract ast.ItemID) {
	decl, _ := info.Arenas.Items.Contract(contract)

	for _, wantModifiers := range [...]bool{false, true} {
		classes := info.inheritedClasses(contract, wantModifiers)
		for _, class := range classes {
			own := info.ownBySignature(contract, class.sig, wantModifiers)
			if own.IsValid() {
				info.checkOverrideLegality(contract, own, class)
				continue
			}
			// контракт не переопределяет: нужна ли явная развязка?
			if len(class.members) > 1 && info.needsExplicitOverride(contract, class) {
				a := info.memberContract(class.members[0])
				b := info.memberContract(class.members[1])
				info.errorAt(diag.TypeOverrideAmbiguous, decl.NameSpan,
					fmt.Sprintf("derived contract must override %q inherited from both %s and %s",
						class.sig,
						info.spell(info.Arenas.ItemName(a)),
						info.spell(info.Arenas.ItemName(b))),
					diag.Note{Span: info.Arenas.ItemNameSpan(class.members[0]), Msg: "first definition is here"},
					diag.Note{Span: info.Arenas.ItemNameSpan(class.members[1]), Msg: "second definition is here"})
			}
		}
	}

	// override без унаследованного одноимённого определения
	for _, member := range decl.Body {
		if fn, ok := info.Arenas.Items.Function(member); ok && fn.HasOverride {
			if len(info.Ann.Callable(member).Overrides) == 0 {
				classes := info.inheritedClasses(contract, false)
				found := false
				for _, class := range classes {
					if class.sig == info.ExternalSignature(member) {
						found = true
						break
					}
				}
				if !found {
					info.errorAt(diag.TypeOverrideSurplus, fn.NameSpan,
						"function marked override does not override anything")
				}
			}
		}
	}
}

func (info *Info) ownBySignature(contract ast.ItemID, sig string, wantModifiers bool) ast.ItemID {
	decl, _ := info.Arenas.Items.Contract(contract)
	for _, member := range decl.Body {
		kind := info.Arenas.Items.Get(member).Kind
		if wantModifiers && kind != ast.ItemModifier {
			continue
		}
		if !wantModifiers && kind != ast.ItemFunction {
			continue
		}
		if info.ExternalSignature(member) == sig {
			return member
		}
	}
	if !wantModifiers {
		for _, getter := range info.getters[contract] {
			if info.ExternalSignature(getter) == sig {
				return getter
			}
		}
	}
	return ast.NoItemID
}

// checkOverrideLegality validates one overriding member against every
// inherited definition of the same signature.
func (info *Info) checkOverrideLegality(contract, own ast.ItemID, class signatureClass) {
	ownKind := info.Arenas.Items.Get(own).Kind
	ownAnn := info.Ann.Callable(own)

	var (
		ownVirtual, ownHasOverride bool
		ownOverrideList            []ast.TypeNameID
		ownSpan                    = info.Arenas.ItemNameSpan(own)
	)
	switch ownKind {
	case ast.ItemFunction:
		fn, _ := info.Arenas.Items.Function(own)
		ownVirtual, ownHasOverride, ownOverrideList = fn.Virtual, fn.HasOverride, fn.OverrideList
		if fn.FnKind == ast.FnGetter {
			v, _ := info.Arenas.Items.Variable(fn.StateVar)
			ownHasOverride, ownOverrideList = v.HasOverride, v.OverrideList
			ownSpan = v.NameSpan
		}
	case ast.ItemModifier:
		m, _ := info.Arenas.Items.Modifier(own)
		ownVirtual, ownHasOverride, ownOverrideList = m.Virtual, m.HasOverride, m.OverrideList
	}
	_ = ownVirtual

	for _, base := range class.members {
		baseKind := info.Arenas.Items.Get(base).Kind
		if baseKind != ownKind {
			info.errorAt(diag.TypeOverrideKind, ownSpan,
				"a function cannot override a modifier or vice-versa",
				diag.Note{Span: info.Arenas.ItemNameSpan(base), Msg: "conflicting definition is here"})
			continue
		}
		info.checkOverridePair(own, base, ownSpan)
		ownAnn.Overrides = append(ownAnn.Overrides, base)
	}

	if !ownHasOverride {
		info.errorAt(diag.TypeOverrideMissing, ownSpan,
			fmt.Sprintf("overriding %q requires the override keyword", class.sig),
			diag.Note{Span: info.Arenas.ItemNameSpan(class.members[0]), Msg: "overridden definition is here"})
	}

	// список override должен сходиться с решёткой, когда определений
	// больше одного
	if len(class.members) > 1 && info.needsExplicitOverride(contract, class) {
		info.checkOverrideListConsistency(own, ownSpan, ownOverrideList, class)
	} else if len(ownOverrideList) > 0 {
		info.checkOverrideListEntriesValid(ownSpan, ownOverrideList, class)
	}
}

func (info *Info) checkOverridePair(own, base ast.ItemID, ownSpan source.Span) {
	switch info.Arenas.Items.Get(own).Kind {
	case ast.ItemFunction:
		ownFn, _ := info.Arenas.Items.Function(own)
		baseFn, _ := info.Arenas.Items.Function(base)
		if !baseFn.Virtual && !info.isInterfaceMember(base) {
			info.errorAt(diag.TypeOverrideNonVirtual, ownSpan,
				"cannot override a function that is not virtual",
				diag.Note{Span: baseFn.NameSpan, Msg: "overridden function is here"})
		}
		// видимость может расшириться только с external до public
		if ownFn.Visibility != baseFn.Visibility {
			if !(baseFn.Visibility == ast.VisExternal && ownFn.Visibility == ast.VisPublic) {
				info.errorAt(diag.TypeOverrideVisibility, ownSpan,
					"override changes visibility (only external to public is allowed)",
					diag.Note{Span: baseFn.NameSpan, Msg: "overridden function is here"})
			}
		}
		// изменчивость может только сужаться
		if ownFn.Mutability < baseFn.Mutability {
			info.errorAt(diag.TypeOverrideMutability, ownSpan,
				fmt.Sprintf("override changes state mutability from %q to %q",
					baseFn.Mutability, ownFn.Mutability),
				diag.Note{Span: baseFn.NameSpan, Msg: "overridden function is here"})
		}
	case ast.ItemModifier:
		baseMod, _ := info.Arenas.Items.Modifier(base)
		if !baseMod.Virtual {
			info.errorAt(diag.TypeOverrideNonVirtual, ownSpan,
				"cannot override a modifier that is not virtual",
				diag.Note{Span: baseMod.NameSpan, Msg: "overridden modifier is here"})
		}
	}
}

func (info *Info) isInterfaceMember(item ast.ItemID) bool {
	c := info.memberContract(item)
	if decl, ok := info.Arenas.Items.Contract(c); ok {
		return decl.Kind == ast.KindInterface
	}
	return false
}

// checkOverrideListConsistency: with several inherited definitions the
// override list must name exactly the contracts that contribute one.
func (info *Info) checkOverrideListConsistency(own ast.ItemID, ownSpan source.Span, list []ast.TypeNameID, class signatureClass) {
	want := make(map[ast.ItemID]bool, len(class.members))
	for _, m := range class.members {
		want[info.memberContract(m)] = true
	}
	named := make(map[ast.ItemID]bool, len(list))
	for _, tn := range list {
		decl := info.Ann.TypeName(tn).Decl
		if !decl.IsValid() {
			decl = info.resolveOverrideListEntry(own, tn)
		}
		if !decl.IsValid() {
			info.errorAt(diag.DeclUnresolvedName, info.Arenas.TypeNames.Get(tn).Span,
				"override list names an unknown contract")
			continue
		}
		named[decl] = true
		if !want[decl] {
			info.errorAt(diag.TypeOverrideSurplus, info.Arenas.TypeNames.Get(tn).Span,
				"override list names a contract without a matching definition")
		}
	}
	for c := range want {
		if !named[c] {
			info.errorAt(diag.TypeOverrideMissing, ownSpan,
				fmt.Sprintf("override list is missing contract %s",
					info.spell(info.Arenas.ItemName(c))))
		}
	}
}

func (info *Info) checkOverrideListEntriesValid(ownSpan source.Span, list []ast.TypeNameID, class signatureClass) {
	have := make(map[ast.ItemID]bool, len(class.members))
	for _, m := range class.members {
		have[info.memberContract(m)] = true
	}
	for _, tn := range list {
		decl := info.Ann.TypeName(tn).Decl
		if decl.IsValid() && !have[decl] {
			info.errorAt(diag.TypeOverrideSurplus, info.Arenas.TypeNames.Get(tn).Span,
				"override list names a contract without a matching definition")
		}
	}
}

func (info *Info) resolveOverrideListEntry(own ast.ItemID, tn ast.TypeNameID) ast.ItemID {
	c := info.memberContract(own)
	decl, ok := info.Arenas.Items.Contract(c)
	if !ok {
		return ast.NoItemID
	}
	return info.resolveContractName(info.UnitScopes[decl.Unit], tn)
}

// needsExplicitOverride applies the cut-vertex rule: an inherited
// same-signature set requires an explicit override iff its cardinality
// exceeds one and the set minus cut vertices still has more than one
// element.
func (info *Info) needsExplicitOverride(contract ast.ItemID, class signatureClass) bool {
	if len(class.members) <= 1 {
		return false
	}
	// вершины: 0 — супер-корень (текущий контракт), 1 — искусственная
	// вершина, в которую сходятся все пути переопределений; определения
	// нумеруются со 2
	n := len(class.members) + 2
	adj := make([][]int, n)
	addEdge := func(a, b int) {
		adj[a] = append(adj[a], b)
		adj[b] = append(adj[b], a)
	}
	idxOf := make(map[ast.ItemID]int, len(class.members))
	for i, m := range class.members {
		idxOf[m] = i + 2
	}
	for i, m := range class.members {
		addEdge(0, i+2)
		// рёбра к определениям, которые это определение переопределяет;
		// без собственных переопределений путь замыкается на вершину 1
		overrides := info.Ann.Callable(m).Overrides
		wired := false
		for _, base := range overrides {
			if j, ok := idxOf[base]; ok {
				addEdge(i+2, j)
				wired = true
			}
		}
		if !wired {
			addEdge(i+2, 1)
		}
	}

	cut := cutVertices(adj)
	remaining := 0
	for i := 2; i < n; i++ {
		if !cut[i] {
			remaining++
		}
	}
	return remaining > 1
}

// cutVertices is the standard DFS biconnected-components traversal: keep
// discovery depth and low-link; a non-root node u is a cut vertex iff it
// has a child v with low[v] >= depth[u].
func cutVertices(adj [][]int) []bool {
	n := len(adj)
	depth := make([]int, n)
	low := make([]int, n)
	visited := make([]bool, n)
	cut := make([]bool, n)

	var dfs func(u, parent, d int)
	dfs = func(u, parent, d int) {
		visited[u] = true
		depth[u] = d
		low[u] = d
		children := 0
		for _, v := range adj[u] {
			if v == parent {
				continue
			}
			if visited[v] {
				if depth[v] < low[u] {
					low[u] = depth[v]
				}
				continue
			}
			children++
			dfs(v, u, d+1)
			if low[v] < low[u] {
				low[u] = low[v]
			}
			if parent != -1 && low[v] >= depth[u] {
				cut[u] = true
			}
		}
		if parent == -1 && children > 1 {
			cut[u] = true
		}
	}
	for u := range adj {
		if !visited[u] {
			dfs(u, -1, 0)
		}
	}
	return cut
}

// computeAbstractness fills the abstract flag and the unimplemented set.
func (info *Info) computeAbstractness(contract ast.ItemID) {
	decl, _ := info.Arenas.Items.Contract(contract)
	ann := info.Ann.Contract(contract)
	ann.Abstract = decl.Abstract || decl.Kind == ast.KindInterface

	// сигнатура → самое производное определение
	seen := make(map[string]bool)
	for _, c := range ann.Linearized {
		cdecl, ok := info.Arenas.Items.Contract(c)
		if !ok {
			continue
		}
		for _, member := range cdecl.Body {
			fn, isFn := info.Arenas.Items.Function(member)
			if !isFn || fn.FnKind != ast.FnOrdinary {
				continue
			}
			sig := info.ExternalSignature(member)
			if seen[sig] {
				continue
			}
			seen[sig] = true
			if !fn.Body.IsValid() {
				ann.Unimplemented = append(ann.Unimplemented, member)
			}
		}
		// геттеры реализуют унаследованные абстрактные сигнатуры
		for _, getter := range info.getters[c] {
			seen[info.ExternalSignature(getter)] = true
		}
	}
	if len(ann.Unimplemented) > 0 {
		ann.Abstract = true
	}
}
