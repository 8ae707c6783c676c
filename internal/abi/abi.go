// Package abi extracts the external interface of a contract: the ordered
// function/event/constructor descriptors downstream tooling consumes, and
// their 4-byte selectors. Ordering and spelling are observable outputs.
package abi

import (
	"encoding/json"

	"solar/internal/ast"
	"solar/internal/sema"
	"solar/internal/source"
)

// Parameter is one input or output of an entry.
type Parameter struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Indexed bool   `json:"indexed,omitempty"`
}

// Entry is one ABI descriptor.
type Entry struct {
	Type            string      `json:"type"`
	Name            string      `json:"name,omitempty"`
	Inputs          []Parameter `json:"inputs"`
	Outputs         []Parameter `json:"outputs,omitempty"`
	StateMutability string      `json:"stateMutability,omitempty"`
	Anonymous       bool        `json:"anonymous,omitempty"`
}

// Build produces the ABI of one contract: the constructor first, then
// interface functions (own first, then inherited, in declaration order),
// then events and fallback/receive entries.
func Build(info *sema.Info, contract ast.ItemID) []Entry {
	var out []Entry

	if ctor := info.Constructor(contract); ctor.IsValid() {
		fn, _ := info.Arenas.Items.Function(ctor)
		out = append(out, Entry{
			Type:            "constructor",
			Inputs:          params(info, fn.Params, false),
			StateMutability: mutability(fn.Mutability),
		})
	}

	ann := info.Ann.Contract(contract)
	for _, ifn := range ann.InterfaceFunctions {
		fn, _ := info.Arenas.Items.Function(ifn.Fn)
		entry := Entry{
			Type:            "function",
			Name:            spell(info, fn.Name),
			Inputs:          params(info, fn.Params, false),
			Outputs:         params(info, fn.Returns, false),
			StateMutability: mutability(fn.Mutability),
		}
		if entry.Outputs == nil {
			entry.Outputs = []Parameter{}
		}
		out = append(out, entry)
	}

	// события: собственные и унаследованные, по линейризации
	seen := make(map[string]bool)
	for _, c := range ann.Linearized {
		decl, ok := info.Arenas.Items.Contract(c)
		if !ok {
			continue
		}
		for _, member := range decl.Body {
			ev, isEv := info.Arenas.Items.Event(member)
			if !isEv {
				continue
			}
			sig := info.ExternalSignature(member)
			if seen[sig] {
				continue
			}
			seen[sig] = true
			out = append(out, Entry{
				Type:      "event",
				Name:      spell(info, ev.Name),
				Inputs:    params(info, ev.Params, true),
				Anonymous: ev.Anonymous,
			})
		}
		for _, member := range decl.Body {
			fn, isFn := info.Arenas.Items.Function(member)
			if !isFn {
				continue
			}
			switch fn.FnKind {
			case ast.FnFallback:
				if !seen["fallback"] {
					seen["fallback"] = true
					out = append(out, Entry{Type: "fallback", StateMutability: mutability(fn.Mutability)})
				}
			case ast.FnReceive:
				if !seen["receive"] {
					seen["receive"] = true
					out = append(out, Entry{Type: "receive", StateMutability: "payable"})
				}
			}
		}
	}
	return out
}

// JSON renders the ABI deterministically.
func JSON(entries []Entry) ([]byte, error) {
	return json.MarshalIndent(entries, "", "  ")
}

func params(info *sema.Info, ids []ast.ParamID, events bool) []Parameter {
	out := make([]Parameter, 0, len(ids))
	for _, id := range ids {
		p := info.Arenas.Params.Get(id)
		out = append(out, Parameter{
			Name:    spell(info, p.Name),
			Type:    info.Provider.CanonicalName(info.ParamType(id)),
			Indexed: events && p.Indexed,
		})
	}
	return out
}

func spell(info *sema.Info, id source.StringID) string {
	s, _ := info.Interner.Lookup(id)
	return s
}

func mutability(m ast.Mutability) string {
	switch m {
	case ast.MutPayable:
		return "payable"
	case ast.MutView:
		return "view"
	case ast.MutPure:
		return "pure"
	}
	return "nonpayable"
}
