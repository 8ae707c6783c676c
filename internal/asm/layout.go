package asm

import (
	"fmt"
	"math/big"

	"fortio.org/safecast"

	"solar/internal/evm"
)

// LinkRef is one library-address placeholder in the emitted bytes.
type LinkRef struct {
	Name   string
	Offset int
	Width  int
}

// Object is the assembled byte sequence plus its link map.
type Object struct {
	Bytes    []byte
	LinkRefs []LinkRef
}

// labelImmWidth is the fixed width of label/size immediates: the pre-layout
// pass assigns provisional offsets assuming 3-byte address immediates, and
// emission keeps that width so offsets never shift.
const labelImmWidth = 3

// Assemble lays out the stream and emits bytes: label pre-layout, then
// sub-assembly composition, then byte emission with link-map recording.
func (a *Assembly) Assemble() (*Object, error) {
	// размер собственного кода
	codeSize := 0
	labelOffsets := make(map[LabelID]int)
	for i := range a.Items {
		it := &a.Items[i]
		if it.Kind == ItemLabel {
			if _, dup := labelOffsets[it.Label]; dup {
				return nil, fmt.Errorf("label tag_%d defined twice", it.Label)
			}
			labelOffsets[it.Label] = codeSize
		}
		codeSize += a.itemSize(it)
	}

	// вложенные сборки собираются первыми; их байты ложатся после кода и
	// данных родителя
	subObjects := make([]*Object, len(a.Subs))
	for i, sub := range a.Subs {
		obj, err := sub.Assemble()
		if err != nil {
			return nil, err
		}
		subObjects[i] = obj
	}

	dataOffsets := make([]int, len(a.Data))
	off := codeSize
	for i, blob := range a.Data {
		dataOffsets[i] = off
		off += len(blob)
	}
	subOffsets := make([]int, len(a.Subs))
	for i, obj := range subObjects {
		subOffsets[i] = off
		off += len(obj.Bytes)
	}
	programSize := off

	out := &Object{Bytes: make([]byte, 0, programSize)}
	emitImm := func(v int) {
		imm, err := safecast.Conv[uint32](v)
		if err != nil || v >= 1<<(8*labelImmWidth) {
			panic(fmt.Errorf("ice: immediate %d exceeds %d-byte width", v, labelImmWidth))
		}
		for shift := (labelImmWidth - 1) * 8; shift >= 0; shift -= 8 {
			out.Bytes = append(out.Bytes, byte(imm>>uint(shift)))
		}
	}

	for i := range a.Items {
		it := &a.Items[i]
		switch it.Kind {
		case ItemOp:
			out.Bytes = append(out.Bytes, byte(it.Op))
		case ItemLabel:
			out.Bytes = append(out.Bytes, byte(evm.JUMPDEST))
		case ItemPushLabel:
			target, ok := labelOffsets[it.Label]
			if !ok {
				return nil, fmt.Errorf("undefined label tag_%d", it.Label)
			}
			out.Bytes = append(out.Bytes, byte(evm.Push(labelImmWidth)))
			emitImm(target)
		case ItemData:
			out.Bytes = append(out.Bytes, it.Blob...)
		case ItemPush:
			switch it.Push {
			case PushValue:
				w := a.valueWidth(it.Value)
				out.Bytes = append(out.Bytes, byte(evm.Push(w)))
				if w > 0 {
					out.Bytes = append(out.Bytes, it.Value.FillBytes(make([]byte, w))...)
				}
			case PushLibrary:
				out.LinkRefs = append(out.LinkRefs, LinkRef{
					Name:   it.Name,
					Offset: len(out.Bytes) + 1,
					Width:  20,
				})
				out.Bytes = append(out.Bytes, byte(evm.Push(20)))
				out.Bytes = append(out.Bytes, make([]byte, 20)...)
			case PushDataRef:
				out.Bytes = append(out.Bytes, byte(evm.Push(labelImmWidth)))
				emitImm(dataOffsets[it.Index])
			case PushSubSize:
				out.Bytes = append(out.Bytes, byte(evm.Push(labelImmWidth)))
				emitImm(len(subObjects[it.Index].Bytes))
			case PushSubOffset:
				out.Bytes = append(out.Bytes, byte(evm.Push(labelImmWidth)))
				emitImm(subOffsets[it.Index])
			case PushProgramSize:
				out.Bytes = append(out.Bytes, byte(evm.Push(labelImmWidth)))
				emitImm(programSize)
			}
		}
	}

	for _, blob := range a.Data {
		out.Bytes = append(out.Bytes, blob...)
	}
	for _, obj := range subObjects {
		base := len(out.Bytes)
		out.Bytes = append(out.Bytes, obj.Bytes...)
		for _, ref := range obj.LinkRefs {
			out.LinkRefs = append(out.LinkRefs, LinkRef{
				Name:   ref.Name,
				Offset: base + ref.Offset,
				Width:  ref.Width,
			})
		}
	}
	return out, nil
}

// valueWidth picks the immediate width of a plain push: minimal, except
// that targets without PUSH0 spend one byte on zero.
func (a *Assembly) valueWidth(v *big.Int) int {
	w := pushWidth(v)
	if w == 0 && !a.Target.HasPush0() {
		return 1
	}
	return w
}

// itemSize is the emitted byte size of one item under the fixed immediate
// width scheme.
func (a *Assembly) itemSize(it *Item) int {
	switch it.Kind {
	case ItemOp, ItemLabel:
		return 1
	case ItemData:
		return len(it.Blob)
	case ItemPushLabel:
		return 1 + labelImmWidth
	case ItemPush:
		switch it.Push {
		case PushValue:
			return 1 + a.valueWidth(it.Value)
		case PushLibrary:
			return 1 + 20
		default:
			return 1 + labelImmWidth
		}
	}
	return 0
}
