package asm

import (
	"fmt"
	"math/big"
	"strings"

	"solar/internal/evm"
	"solar/internal/source"
)

// Assembly is one code object under construction: an item stream plus
// owned sub-assemblies (deployment code owns the runtime code as sub 0)
// and a data section.
type Assembly struct {
	Name   string
	Target evm.Version
	Items  []Item
	Subs   []*Assembly
	Data   [][]byte

	nextLabel LabelID
}

func New(name string, target evm.Version) *Assembly {
	return &Assembly{Name: name, Target: target, nextLabel: 1}
}

// NewLabel allocates a fresh symbolic label.
func (a *Assembly) NewLabel() LabelID {
	id := a.nextLabel
	a.nextLabel++
	return id
}

func (a *Assembly) Append(it Item) {
	a.Items = append(a.Items, it)
}

func (a *Assembly) Op(op evm.Op, sp source.Span) {
	a.Append(Item{Kind: ItemOp, Op: op, Span: sp})
}

func (a *Assembly) PushInt(v *big.Int, sp source.Span) {
	a.Append(Item{Kind: ItemPush, Push: PushValue, Value: new(big.Int).Set(v), Span: sp})
}

func (a *Assembly) PushUint(v uint64, sp source.Span) {
	a.PushInt(new(big.Int).SetUint64(v), sp)
}

func (a *Assembly) PushLabel(label LabelID, sp source.Span) {
	a.Append(Item{Kind: ItemPushLabel, Label: label, Span: sp})
}

func (a *Assembly) Label(label LabelID, sp source.Span) {
	a.Append(Item{Kind: ItemLabel, Label: label, Span: sp})
}

func (a *Assembly) PushLibraryRef(name string, sp source.Span) {
	a.Append(Item{Kind: ItemPush, Push: PushLibrary, Name: name, Span: sp})
}

// AppendData stores a blob in the data section and returns its index.
func (a *Assembly) AppendData(blob []byte) int {
	a.Data = append(a.Data, blob)
	return len(a.Data) - 1
}

// AppendSub attaches a sub-assembly and returns its index.
func (a *Assembly) AppendSub(sub *Assembly) int {
	a.Subs = append(a.Subs, sub)
	return len(a.Subs) - 1
}

// String renders the symbolic stream for the `asm` output selection.
func (a *Assembly) String() string {
	var b strings.Builder
	a.render(&b, "")
	return b.String()
}

func (a *Assembly) render(b *strings.Builder, indent string) {
	for _, it := range a.Items {
		switch it.Kind {
		case ItemOp:
			fmt.Fprintf(b, "%s%s\n", indent, it.Op)
		case ItemPush:
			switch it.Push {
			case PushValue:
				fmt.Fprintf(b, "%sPUSH 0x%x\n", indent, it.Value)
			case PushDataRef:
				fmt.Fprintf(b, "%sPUSH data(%d)\n", indent, it.Index)
			case PushLibrary:
				fmt.Fprintf(b, "%sPUSHLIB %s\n", indent, it.Name)
			case PushSubSize:
				fmt.Fprintf(b, "%sPUSH #sub(%d)\n", indent, it.Index)
			case PushSubOffset:
				fmt.Fprintf(b, "%sPUSH @sub(%d)\n", indent, it.Index)
			case PushProgramSize:
				fmt.Fprintf(b, "%sPUSH #program\n", indent)
			}
		case ItemLabel:
			fmt.Fprintf(b, "%stag_%d:\n", indent, it.Label)
		case ItemPushLabel:
			fmt.Fprintf(b, "%sPUSH tag_%d\n", indent, it.Label)
		case ItemData:
			fmt.Fprintf(b, "%sDATA %x\n", indent, it.Blob)
		}
	}
	for i, sub := range a.Subs {
		fmt.Fprintf(b, "%ssub_%d: assembly {\n", indent, i)
		sub.render(b, indent+"    ")
		fmt.Fprintf(b, "%s}\n", indent)
	}
}
