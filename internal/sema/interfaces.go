package sema

import (
	"fmt"

	"solar/internal/ast"
	"solar/internal/diag"
	"solar/internal/keccak"
)

// computeInterfaces caches, per contract, the externally visible callables
// with their selectors, own members first and then inherited ones in
// linearised order. A selector collision within one contract is a type
// error.
func (info *Info) computeInterfaces() {
	for _, contract := range info.Contracts {
		info.computeContractInterface(contract)
	}
}

func (info *Info) computeContractInterface(contract ast.ItemID) {
	ann := info.Ann.Contract(contract)
	seenSig := make(map[string]bool)
	seenSel := make(map[[4]byte]string)

	for _, c := range ann.Linearized {
		decl, ok := info.Arenas.Items.Contract(c)
		if !ok {
			continue
		}
		var members []ast.ItemID
		for _, member := range decl.Body {
			if fn, isFn := info.Arenas.Items.Function(member); isFn &&
				fn.FnKind == ast.FnOrdinary && fn.Visibility.ExternallyVisible() {
				members = append(members, member)
			}
		}
		members = append(members, info.getters[c]...)

		for _, member := range members {
			sig := info.ExternalSignature(member)
			if seenSig[sig] {
				continue // переопределено более производным контрактом
			}
			seenSig[sig] = true
			sel := keccak.Selector(sig)
			if prev, clash := seenSel[sel]; clash {
				info.errorAt(diag.TypeSelectorCollision, info.Arenas.ItemNameSpan(member),
					fmt.Sprintf("function selector of %q collides with %q", sig, prev))
				continue
			}
			seenSel[sel] = sig
			ann.InterfaceFunctions = append(ann.InterfaceFunctions, ast.InterfaceFunction{
				Fn:        member,
				Selector:  sel,
				Signature: sig,
			})
		}
	}
}
