// Package asm turns symbolic instruction streams into bytes: label layout,
// peephole optimisation, constant materialisation, sub-assembly
// composition, and the link map for library placeholders.
package asm

import (
	"math/big"

	"solar/internal/evm"
	"solar/internal/source"
)

// LabelID is a symbolic jump target, resolved to a byte offset at layout.
type LabelID uint32

const NoLabelID LabelID = 0

// ItemKind tags one unit of the instruction stream.
type ItemKind uint8

const (
	// ItemOp is a plain opcode.
	ItemOp ItemKind = iota
	// ItemPush is a tagged immediate push; see PushKind.
	ItemPush
	// ItemLabel defines a jump destination.
	ItemLabel
	// ItemPushLabel pushes the offset of a label.
	ItemPushLabel
	// ItemData is a raw blob appended verbatim (assembly passthrough).
	ItemData
)

// PushKind refines ItemPush.
type PushKind uint8

const (
	// PushValue is a plain immediate.
	PushValue PushKind = iota
	// PushDataRef pushes the offset of a data-section blob.
	PushDataRef
	// PushLibrary is a 20-byte zero-filled placeholder recorded in the
	// link map.
	PushLibrary
	// PushSubSize pushes the byte size of a sub-assembly.
	PushSubSize
	// PushSubOffset pushes the byte offset of a sub-assembly.
	PushSubOffset
	// PushProgramSize pushes the total byte size of this assembly.
	PushProgramSize
)

// Item is one unit in the instruction stream. Every item carries the span
// of the AST node it was emitted for.
type Item struct {
	Kind ItemKind
	Op   evm.Op
	Push PushKind
	// Value for PushValue; index for PushDataRef/PushSubSize/PushSubOffset.
	Value *big.Int
	Index int
	// Name for PushLibrary.
	Name  string
	Label LabelID
	Blob  []byte
	Span  source.Span
}

// pushWidth returns the minimal immediate width for a value.
func pushWidth(v *big.Int) int {
	if v.Sign() == 0 {
		return 0
	}
	return (v.BitLen() + 7) / 8
}

func (it *Item) terminal() bool {
	if it.Kind != ItemOp {
		return false
	}
	switch it.Op {
	case evm.JUMP, evm.STOP, evm.RETURN, evm.REVERT, evm.INVALID, evm.SELFDESTRUCT:
		return true
	}
	return false
}
