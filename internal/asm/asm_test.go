package asm

import (
	"bytes"
	"math/big"
	"testing"

	"solar/internal/evm"
	"solar/internal/source"
)

var sp = source.Span{}

func TestAssembleSimple(t *testing.T) {
	a := New("test", evm.Shanghai)
	a.PushUint(0x2a, sp)
	a.PushUint(0, sp)
	a.Op(evm.MSTORE, sp)
	a.PushUint(32, sp)
	a.PushUint(0, sp)
	a.Op(evm.RETURN, sp)

	obj, err := a.Assemble()
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{
		byte(evm.PUSH1), 0x2a,
		byte(evm.PUSH0),
		byte(evm.MSTORE),
		byte(evm.PUSH1), 0x20,
		byte(evm.PUSH0),
		byte(evm.RETURN),
	}
	if !bytes.Equal(obj.Bytes, want) {
		t.Fatalf("bytes = %x, want %x", obj.Bytes, want)
	}
}

func TestPush0Fallback(t *testing.T) {
	a := New("test", evm.London)
	a.PushUint(0, sp)
	obj, err := a.Assemble()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(obj.Bytes, []byte{byte(evm.PUSH1), 0x00}) {
		t.Fatalf("bytes = %x", obj.Bytes)
	}
}

func TestLabelsResolve(t *testing.T) {
	a := New("test", evm.Shanghai)
	l := a.NewLabel()
	a.PushLabel(l, sp)
	a.Op(evm.JUMP, sp)
	a.Op(evm.INVALID, sp)
	a.Label(l, sp)
	a.Op(evm.STOP, sp)

	obj, err := a.Assemble()
	if err != nil {
		t.Fatal(err)
	}
	// PUSH3 imm(3) JUMP INVALID JUMPDEST STOP → метка на смещении 6
	want := []byte{
		byte(evm.Push(3)), 0, 0, 6,
		byte(evm.JUMP),
		byte(evm.INVALID),
		byte(evm.JUMPDEST),
		byte(evm.STOP),
	}
	if !bytes.Equal(obj.Bytes, want) {
		t.Fatalf("bytes = %x, want %x", obj.Bytes, want)
	}
}

func TestLibraryPlaceholder(t *testing.T) {
	a := New("test", evm.Shanghai)
	a.PushLibraryRef("lib.sol:Math", sp)
	a.Op(evm.DELEGATECALL, sp)
	obj, err := a.Assemble()
	if err != nil {
		t.Fatal(err)
	}
	if len(obj.LinkRefs) != 1 {
		t.Fatalf("link refs = %d", len(obj.LinkRefs))
	}
	ref := obj.LinkRefs[0]
	if ref.Name != "lib.sol:Math" || ref.Offset != 1 || ref.Width != 20 {
		t.Fatalf("ref = %+v", ref)
	}
	for _, b := range obj.Bytes[ref.Offset : ref.Offset+ref.Width] {
		if b != 0 {
			t.Fatal("placeholder span must be zero-filled")
		}
	}
}

func TestSubAssemblyComposition(t *testing.T) {
	runtime := New("runtime", evm.Shanghai)
	runtime.Op(evm.STOP, sp)

	deploy := New("deploy", evm.Shanghai)
	idx := deploy.AppendSub(runtime)
	deploy.Append(Item{Kind: ItemPush, Push: PushSubSize, Index: idx, Span: sp})
	deploy.Append(Item{Kind: ItemPush, Push: PushSubOffset, Index: idx, Span: sp})
	deploy.PushUint(0, sp)
	deploy.Op(evm.CODECOPY, sp)
	deploy.Append(Item{Kind: ItemPush, Push: PushSubSize, Index: idx, Span: sp})
	deploy.PushUint(0, sp)
	deploy.Op(evm.RETURN, sp)

	obj, err := deploy.Assemble()
	if err != nil {
		t.Fatal(err)
	}
	// хвост объекта — байты runtime
	if obj.Bytes[len(obj.Bytes)-1] != byte(evm.STOP) {
		t.Fatal("runtime bytes must be appended at the tail")
	}
	// размер sub = 1
	if obj.Bytes[0] != byte(evm.Push(3)) || obj.Bytes[3] != 1 {
		t.Fatalf("sub size push = %x", obj.Bytes[:4])
	}
}

func TestPeepholePushPop(t *testing.T) {
	a := New("test", evm.Shanghai)
	a.PushUint(42, sp)
	a.Op(evm.POP, sp)
	a.Op(evm.STOP, sp)
	a.Peephole()
	if len(a.Items) != 1 || a.Items[0].Op != evm.STOP {
		t.Fatalf("items = %+v", a.Items)
	}
}

func TestPeepholeDoubleSwap(t *testing.T) {
	a := New("test", evm.Shanghai)
	a.Op(evm.Swap(3), sp)
	a.Op(evm.Swap(3), sp)
	a.Op(evm.STOP, sp)
	a.Peephole()
	if len(a.Items) != 1 {
		t.Fatalf("double swap not cancelled: %+v", a.Items)
	}
}

func TestPeepholeConstantFold(t *testing.T) {
	a := New("test", evm.Shanghai)
	a.PushUint(2, sp)
	a.PushUint(3, sp)
	a.Op(evm.ADD, sp)
	a.Op(evm.POP, sp)
	a.Op(evm.STOP, sp)
	a.Peephole()
	// 2+3 → 5, затем PUSH 5 POP → ничего
	if len(a.Items) != 1 || a.Items[0].Op != evm.STOP {
		t.Fatalf("items after fold = %+v", a.Items)
	}
}

func TestPeepholeSubFoldOrder(t *testing.T) {
	a := New("test", evm.Shanghai)
	a.PushUint(3, sp) // глубже
	a.PushUint(10, sp) // вершина
	a.Op(evm.SUB, sp)
	a.Op(evm.STOP, sp)
	a.Peephole()
	// SUB = top - below = 10 - 3
	if a.Items[0].Value.Int64() != 7 {
		t.Fatalf("SUB folded to %v", a.Items[0].Value)
	}
}

func TestPeepholeDeadCode(t *testing.T) {
	a := New("test", evm.Shanghai)
	l := a.NewLabel()
	a.PushLabel(l, sp)
	a.Op(evm.JUMP, sp)
	a.PushUint(1, sp) // мёртвый код
	a.Op(evm.POP, sp)
	a.Label(l, sp)
	a.Op(evm.STOP, sp)
	a.Peephole()
	for _, it := range a.Items {
		if isPlainPush(&it) && it.Value.Int64() == 1 {
			t.Fatal("dead code not removed")
		}
	}
}

func TestPeepholeJumpToNext(t *testing.T) {
	a := New("test", evm.Shanghai)
	l := a.NewLabel()
	a.PushLabel(l, sp)
	a.Op(evm.JUMP, sp)
	a.Label(l, sp)
	a.Op(evm.STOP, sp)
	a.Peephole()
	if len(a.Items) != 2 {
		t.Fatalf("jump-to-next not elided: %+v", a.Items)
	}
}

func TestPeepholeIdempotent(t *testing.T) {
	a := New("test", evm.Shanghai)
	l := a.NewLabel()
	a.PushUint(7, sp)
	a.PushUint(8, sp)
	a.Op(evm.MUL, sp)
	a.Op(evm.POP, sp)
	a.PushLabel(l, sp)
	a.Op(evm.JUMP, sp)
	a.PushUint(9, sp)
	a.Label(l, sp)
	a.Op(evm.STOP, sp)

	a.Peephole()
	first := append([]Item(nil), a.Items...)
	a.Peephole()
	if len(first) != len(a.Items) {
		t.Fatal("second peephole run changed the stream")
	}
	for i := range first {
		if first[i].Kind != a.Items[i].Kind || first[i].Op != a.Items[i].Op {
			t.Fatal("second peephole run changed the stream")
		}
	}
}

func TestConstOptSmallValuesStayLiteral(t *testing.T) {
	a := New("test", evm.Shanghai)
	a.PushUint(0x7f, sp)
	a.OptimizeConstants(200)
	if len(a.Items) != 1 || a.Items[0].Push != PushValue {
		t.Fatal("one-byte immediates must stay literal pushes")
	}
}

func TestConstOptShiftDecomposition(t *testing.T) {
	// 1 << 255: литерал занимает 32 байта, вычисление — два маленьких push
	a := New("test", evm.Shanghai)
	v := new(big.Int).Lsh(big.NewInt(1), 255)
	a.PushInt(v, sp)
	a.OptimizeConstants(1)
	if len(a.Items) == 1 {
		t.Fatal("wide power of two should decompose at low run counts")
	}
	// последовательность должна заканчиваться SHL
	last := a.Items[len(a.Items)-1]
	if last.Kind != ItemOp || last.Op != evm.SHL {
		t.Fatalf("sequence = %+v", a.Items)
	}
}
