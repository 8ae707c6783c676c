package codegen

import (
	"math/big"

	"solar/internal/asm"
	"solar/internal/ast"
	"solar/internal/evm"
)

// freeMemPtr is the conventional slot of the bump allocator pointer.
const freeMemPtr = 0x40

// allocateMemory requests `size` bytes from the bump allocator utility and
// leaves the pointer on the stack.
func (e *Emitter) allocateMemory(size uint64) {
	l := e.requestUtility("allocate_memory", genAllocateMemory)
	e.pushUint(size)
	e.callUtility(l, 1, 1)
}

// callUtility invokes a utility with the function calling convention:
// the caller's n argument slots are consumed, rets appear instead.
func (e *Emitter) callUtility(l asm.LabelID, args, rets int) {
	retLbl := e.asm.NewLabel()
	e.pushLabel(retLbl)
	// метка возврата должна лечь под аргументы
	if args > 0 {
		e.rollUnder(args, e.span())
	}
	e.pushLabel(l)
	e.op(evm.JUMP)
	e.depth -= 1 + args
	e.depth += rets
	e.label(retLbl)
}

// utilityProlog opens a utility body with the given entry stack.
func (e *Emitter) utilityProlog(name string, args int) {
	e.label(e.utils[name].label)
	e.depth = 1 + args
}

// utilityReturn ends a utility leaving rets values: [retLabel, rets...] →
// jump with rets on the stack.
func (e *Emitter) utilityReturn(rets int) {
	if rets > 0 {
		e.rollToTop(rets, e.span())
	}
	e.op(evm.JUMP)
	e.depth = 0
}

// genAllocateMemory is the bump-pointer allocator: [size] → [ptr].
func genAllocateMemory(e *Emitter) {
	e.utilityProlog("allocate_memory", 1)
	e.pushUint(freeMemPtr)
	e.op(evm.MLOAD) // [ret, size, ptr]
	e.dup(1, e.span())
	e.swap(2, e.span()) // [ret, ptr, ptr, size]
	e.op(evm.ADD)       // [ret, ptr, ptr+size]
	e.pushUint(freeMemPtr)
	e.op(evm.MSTORE) // [ret, ptr]
	e.utilityReturn(1)
}

// genByteStringLength decodes a byte-string head slot: short form keeps
// length·2 in the low byte, long form stores length·2+1.
func genByteStringLength(e *Emitter) {
	e.utilityProlog("byte_string_length", 1)
	longLbl := e.asm.NewLabel()
	doneLbl := e.asm.NewLabel()

	e.dup(1, e.span())
	e.pushUint(1)
	e.op(evm.AND)
	e.pushLabel(longLbl)
	e.op(evm.JUMPI)
	// короткая форма: (v & 0xff) / 2
	e.pushUint(0xff)
	e.op(evm.AND)
	e.pushUint(1)
	e.op(evm.SHR)
	e.pushLabel(doneLbl)
	e.op(evm.JUMP)

	e.label(longLbl)
	e.depth = 2
	// длинная форма: (v - 1) / 2
	e.pushUint(1)
	e.swap(1, e.span())
	e.op(evm.SUB)
	e.pushUint(1)
	e.op(evm.SHR)
	e.label(doneLbl)

	e.utilityReturn(1)
}

// genClearStorageString zero-fills the data slots of an old long-form byte
// string before a new value lands in the head slot: [slot] → [].
func genClearStorageString(e *Emitter) {
	e.utilityProlog("clear_storage_string", 1)
	shortLbl := e.asm.NewLabel()
	loopLbl := e.asm.NewLabel()
	doneLbl := e.asm.NewLabel()

	// [ret, slot]
	e.dup(1, e.span())
	e.op(evm.SLOAD) // [ret, slot, v]
	e.dup(1, e.span())
	e.pushUint(1)
	e.op(evm.AND)
	e.op(evm.ISZERO)
	e.pushLabel(shortLbl)
	e.op(evm.JUMPI)

	// длинная форма: число слотов = (len + 31) / 32, len = (v-1)/2
	e.pushUint(1)
	e.swap(1, e.span())
	e.op(evm.SUB)
	e.pushUint(1)
	e.op(evm.SHR) // [ret, slot, len]
	e.pushUint(31)
	e.op(evm.ADD)
	e.pushUint(5)
	e.op(evm.SHR) // [ret, slot, nslots]

	// база данных: keccak256(slot)
	e.dup(2, e.span())
	e.pushUint(0)
	e.op(evm.MSTORE)
	e.pushUint(32)
	e.pushUint(0)
	e.op(evm.KECCAK256) // [ret, slot, nslots, base]

	// цикл: пока nslots > 0 — SSTORE(base + nslots - 1, 0)
	e.label(loopLbl)
	e.depth = 4
	e.dup(2, e.span())
	e.op(evm.ISZERO)
	e.pushLabel(doneLbl)
	e.op(evm.JUMPI)
	e.swap(1, e.span()) // [ret, slot, base, nslots]
	e.pushUint(1)
	e.swap(1, e.span())
	e.op(evm.SUB) // nslots-1
	e.swap(1, e.span())
	// [ret, slot, nslots', base]
	e.dup(2, e.span())
	e.dup(2, e.span())
	e.op(evm.ADD) // base + nslots'
	e.pushUint(0)
	e.swap(1, e.span())
	e.op(evm.SSTORE)
	e.pushLabel(loopLbl)
	e.op(evm.JUMP)
	e.depth = 4

	e.label(doneLbl)
	e.depth = 4
	e.pop() // base
	e.pop() // nslots
	e.pop() // slot
	e.utilityReturn(0)

	e.label(shortLbl)
	e.depth = 3
	e.pop() // v
	e.pop() // slot
	e.utilityReturn(0)
}

// emitStringStorageStore writes a literal byte string into a storage
// string/bytes variable: at most 31 bytes pack into the head slot with
// length·2; longer payloads store length·2+1 in the head slot and the data
// at keccak256(slot).
func (e *Emitter) emitStringStorageStore(lv ast.ExprID, text string) {
	clear := e.requestUtility("clear_storage_string", genClearStorageString)
	e.storageSlotOf(lv)
	e.dup(1, e.span())
	e.callUtility(clear, 1, 0) // [slot]

	if len(text) <= 31 {
		word := make([]byte, 32)
		copy(word, text)
		word[31] = byte(len(text) * 2)
		e.pushInt(new(big.Int).SetBytes(word))
		e.swap(1, e.span())
		e.op(evm.SSTORE)
		return
	}

	// длинная форма
	e.dup(1, e.span())
	e.pushUint(uint64(len(text))*2 + 1)
	e.swap(1, e.span())
	e.op(evm.SSTORE) // head slot записан, [slot]

	// база данных
	e.pushUint(0)
	e.op(evm.MSTORE) // mem[0] = slot, []
	e.pushUint(32)
	e.pushUint(0)
	e.op(evm.KECCAK256) // [base]

	padded := make([]byte, (len(text)+31)/32*32)
	copy(padded, text)
	for i := 0; i < len(padded); i += 32 {
		e.dup(1, e.span())
		if i > 0 {
			e.pushUint(uint64(i / 32))
			e.op(evm.ADD)
		}
		e.pushInt(new(big.Int).SetBytes(padded[i : i+32]))
		e.swap(1, e.span())
		e.op(evm.SSTORE)
	}
	e.pop() // base
}

// storagePush appends an element to a storage dynamic array.
func (e *Emitter) storagePush(arr ast.ExprID, args []ast.ExprID) {
	e.storageSlotOf(arr) // [slot]
	e.dup(1, e.span())
	e.op(evm.SLOAD) // [slot, len]
	// новая длина
	e.dup(1, e.span())
	e.pushUint(1)
	e.op(evm.ADD) // [slot, len, len+1]
	e.dup(3, e.span())
	e.op(evm.SSTORE) // [slot, len]
	// слот элемента: keccak(slot) + len
	e.swap(1, e.span()) // [len, slot]
	e.pushUint(0)
	e.op(evm.MSTORE) // [len]
	e.pushUint(32)
	e.pushUint(0)
	e.op(evm.KECCAK256) // [len, base]
	e.op(evm.ADD)       // [elemSlot]
	if len(args) == 1 {
		e.expr(args[0]) // [elemSlot, value]
		e.swap(1, e.span())
		e.op(evm.SSTORE)
	} else {
		e.pushUint(0)
		e.swap(1, e.span())
		e.op(evm.SSTORE)
	}
}

// storagePop shrinks a storage dynamic array, zero-filling the freed slot.
func (e *Emitter) storagePop(arr ast.ExprID) {
	e.storageSlotOf(arr) // [slot]
	e.dup(1, e.span())
	e.op(evm.SLOAD) // [slot, len]
	e.pushUint(1)
	e.swap(1, e.span())
	e.op(evm.SUB) // [slot, len-1]
	e.dup(1, e.span())
	e.dup(3, e.span())
	e.op(evm.SSTORE) // [slot, len-1]
	// обнулить освободившийся элемент: keccak(slot) + (len-1)
	e.swap(1, e.span())
	e.pushUint(0)
	e.op(evm.MSTORE) // [len-1]
	e.pushUint(32)
	e.pushUint(0)
	e.op(evm.KECCAK256)
	e.op(evm.ADD) // [elemSlot]
	e.pushUint(0)
	e.swap(1, e.span())
	e.op(evm.SSTORE)
}
