package codegen

import (
	"math/big"

	"solar/internal/ast"
	"solar/internal/evm"
	"solar/internal/source"
	"solar/internal/types"
)

// mappingSlot derives the element slot of a mapping: the stack holds
// [slot, key] and ends with [keccak256(key . slot)].
func (e *Emitter) mappingSlot() {
	// key → mem[0], slot → mem[32], hash 64 bytes
	e.pushUint(0)
	e.op(evm.MSTORE) // [slot]
	e.pushUint(32)
	e.op(evm.MSTORE) // []
	e.pushUint(64)
	e.pushUint(0)
	e.op(evm.KECCAK256)
}

// arrayElementSlot turns [slot, index] into the element's storage slot.
// Dynamic arrays keep data at keccak256(slot); fixed arrays are laid out
// in place.
func (e *Emitter) arrayElementSlot(t *types.Type) {
	if t.Dynamic {
		e.swap(1, e.span()) // [index, slot]
		e.pushUint(0)
		e.op(evm.MSTORE) // [index]
		e.pushUint(32)
		e.pushUint(0)
		e.op(evm.KECCAK256) // [index, hash]
		e.op(evm.ADD)
		return
	}
	per := e.provider().StorageSlots(t.Elem)
	if per > 1 {
		e.pushUint(uint64(per))
		e.op(evm.MUL)
	}
	e.op(evm.ADD)
}

// extractPacked isolates a packed value loaded from its slot word:
// shift right by the byte offset, then mask (or sign-extend).
func (e *Emitter) extractPacked(offset uint8, size uint32, t *types.Type) {
	if size >= 32 {
		return
	}
	if offset > 0 {
		e.pushUint(uint64(offset) * 8)
		e.op(evm.SHR)
	}
	if t.Kind == types.KindInteger && t.Signed {
		e.pushUint(uint64(size) - 1)
		e.op(evm.SIGNEXTEND)
		return
	}
	mask := new(big.Int).Lsh(big.NewInt(1), uint(size)*8)
	mask.Sub(mask, big.NewInt(1))
	e.pushInt(mask)
	e.op(evm.AND)
}

// cleanValue normalizes a raw calldata word to its declared type.
func (e *Emitter) cleanValue(t types.TypeID) {
	tt := e.provider().Get(t)
	if tt == nil {
		return
	}
	switch tt.Kind {
	case types.KindBool:
		e.op(evm.ISZERO)
		e.op(evm.ISZERO)
	case types.KindAddress, types.KindContract:
		mask := new(big.Int).Lsh(big.NewInt(1), 160)
		mask.Sub(mask, big.NewInt(1))
		e.pushInt(mask)
		e.op(evm.AND)
	case types.KindInteger:
		if tt.Bits < 256 {
			if tt.Signed {
				e.pushUint(uint64(tt.Bits)/8 - 1)
				e.op(evm.SIGNEXTEND)
			} else {
				mask := new(big.Int).Lsh(big.NewInt(1), uint(tt.Bits))
				mask.Sub(mask, big.NewInt(1))
				e.pushInt(mask)
				e.op(evm.AND)
			}
		}
	case types.KindEnum:
		e.pushUint(0xff)
		e.op(evm.AND)
	}
}

// loadStateVar reads a state variable onto the stack, honouring packing.
func (e *Emitter) loadStateVar(item ast.ItemID) {
	ann := e.info.Ann.Var(item)
	e.pushUint(uint64(ann.Slot))
	e.op(evm.SLOAD)
	t := e.provider().Get(ann.Type)
	if t != nil && t.IsValueType() {
		e.extractPacked(ann.Offset, e.provider().ByteSize(ann.Type), t)
	}
}

// storeStateVar writes the top of the stack into a state variable,
// read-modify-write when the value shares its slot.
func (e *Emitter) storeStateVar(item ast.ItemID, sp source.Span) {
	ann := e.info.Ann.Var(item)
	t := e.provider().Get(ann.Type)
	size := e.provider().ByteSize(ann.Type)

	if t == nil || !t.IsValueType() || size >= 32 {
		e.pushUint(uint64(ann.Slot))
		e.op(evm.SSTORE)
		return
	}

	// new = (old &^ (mask << shift)) | ((value & mask) << shift)
	shift := uint(ann.Offset) * 8
	mask := new(big.Int).Lsh(big.NewInt(1), uint(size)*8)
	mask.Sub(mask, big.NewInt(1))

	e.pushInt(mask)
	e.op(evm.AND)
	if shift > 0 {
		e.pushUint(uint64(shift))
		e.op(evm.SHL)
	}
	holeMask := new(big.Int).Lsh(mask, shift)
	hole := new(big.Int).Xor(holeMask, allOnes())

	e.pushUint(uint64(ann.Slot))
	e.op(evm.SLOAD)
	e.pushInt(hole)
	e.op(evm.AND)
	e.op(evm.OR)
	e.pushUint(uint64(ann.Slot))
	e.op(evm.SSTORE)
	_ = sp
}

func allOnes() *big.Int {
	v := new(big.Int).Lsh(big.NewInt(1), 256)
	return v.Sub(v, big.NewInt(1))
}
