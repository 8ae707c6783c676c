package asm

import (
	"math/big"

	"github.com/bits-and-blooms/bitset"

	"solar/internal/evm"
)

var wordModulus = new(big.Int).Lsh(big.NewInt(1), 256)

// Peephole runs the local rewrite rules to a fixed point: dead-code
// removal after unconditional control transfer, POP-of-PUSH elimination,
// double-swap cancellation, PUSH-pair folding into pure operations,
// jump-to-next-label elision, and identical-tail deduplication. Applying
// the pass twice equals applying it once.
func (a *Assembly) Peephole() {
	for {
		changed := false
		changed = a.removeDeadCode() || changed
		changed = a.localRules() || changed
		changed = a.elideJumpToNext() || changed
		changed = a.dedupTails() || changed
		if !changed {
			return
		}
	}
}

// referencedLabels collects every label that still has a push.
func (a *Assembly) referencedLabels() *bitset.BitSet {
	refs := bitset.New(uint(a.nextLabel))
	for i := range a.Items {
		if a.Items[i].Kind == ItemPushLabel {
			refs.Set(uint(a.Items[i].Label))
		}
	}
	return refs
}

// removeDeadCode drops instructions between an unconditional control
// transfer and the next referenced label.
func (a *Assembly) removeDeadCode() bool {
	refs := a.referencedLabels()
	out := a.Items[:0]
	changed := false
	dead := false
	for _, it := range a.Items {
		if dead {
			if it.Kind == ItemLabel && refs.Test(uint(it.Label)) {
				dead = false
			} else {
				changed = true
				continue
			}
		}
		out = append(out, it)
		if it.terminal() {
			dead = true
		}
	}
	a.Items = out
	return changed
}

// localRules applies the window rewrites over one pass.
func (a *Assembly) localRules() bool {
	changed := false
	out := make([]Item, 0, len(a.Items))
	items := a.Items
	for i := 0; i < len(items); i++ {
		it := items[i]

		// PUSH x POP → ничего
		if isPlainPush(&it) && i+1 < len(items) && isOp(&items[i+1], evm.POP) {
			i++
			changed = true
			continue
		}
		// SWAPn SWAPn → ничего
		if it.Kind == ItemOp && isSwap(it.Op) && i+1 < len(items) &&
			items[i+1].Kind == ItemOp && items[i+1].Op == it.Op {
			i++
			changed = true
			continue
		}
		// ISZERO ISZERO JUMPI → JUMPI нельзя без анализа; но двойное
		// отрицание перед JUMPI безопасно схлопнуть
		if isOp(&it, evm.ISZERO) && i+2 < len(items) &&
			isOp(&items[i+1], evm.ISZERO) && isOp(&items[i+2], evm.JUMPI) {
			out = append(out, items[i+2])
			i += 2
			changed = true
			continue
		}
		// PUSH a PUSH b <op> → PUSH (a op b) для чистых операций
		if isPlainPush(&it) && i+2 < len(items) && isPlainPush(&items[i+1]) && items[i+2].Kind == ItemOp {
			// операнды на стеке: b сверху (второй push), a под ним
			if v, ok := foldConstant(items[i+1].Value, it.Value, items[i+2].Op); ok {
				out = append(out, Item{Kind: ItemPush, Push: PushValue, Value: v, Span: items[i+2].Span})
				i += 2
				changed = true
				continue
			}
		}
		out = append(out, it)
	}
	a.Items = out
	return changed
}

// elideJumpToNext removes `PUSH tag JUMP` when tag is defined immediately
// after the jump.
func (a *Assembly) elideJumpToNext() bool {
	changed := false
	out := make([]Item, 0, len(a.Items))
	items := a.Items
	for i := 0; i < len(items); i++ {
		if items[i].Kind == ItemPushLabel && i+2 < len(items) &&
			isOp(&items[i+1], evm.JUMP) &&
			items[i+2].Kind == ItemLabel && items[i+2].Label == items[i].Label {
			out = append(out, items[i+2])
			i += 2
			changed = true
			continue
		}
		out = append(out, items[i])
	}
	a.Items = out
	return changed
}

// dedupTails re-points jumps at identical terminal blocks. A block is the
// item run from a label to its terminal instruction; two byte-identical
// blocks collapse into one.
func (a *Assembly) dedupTails() bool {
	type block struct {
		label LabelID
		start int
		end   int // exclusive, past the terminal item
	}
	var blocks []block
	for i := 0; i < len(a.Items); i++ {
		if a.Items[i].Kind != ItemLabel {
			continue
		}
		j := i + 1
		for j < len(a.Items) && !a.Items[j].terminal() {
			// вложенная метка — блок не самодостаточен
			if a.Items[j].Kind == ItemLabel {
				j = -1
				break
			}
			j++
		}
		if j < 0 || j >= len(a.Items) {
			continue
		}
		blocks = append(blocks, block{label: a.Items[i].Label, start: i + 1, end: j + 1})
	}

	redirect := make(map[LabelID]LabelID)
	for i := 0; i < len(blocks); i++ {
		for j := i + 1; j < len(blocks); j++ {
			if _, done := redirect[blocks[j].label]; done {
				continue
			}
			if a.sameItems(blocks[i], blocks[j]) {
				redirect[blocks[j].label] = blocks[i].label
			}
		}
	}
	if len(redirect) == 0 {
		return false
	}
	changed := false
	for i := range a.Items {
		if a.Items[i].Kind == ItemPushLabel {
			if to, ok := redirect[a.Items[i].Label]; ok && to != a.Items[i].Label {
				a.Items[i].Label = to
				changed = true
			}
		}
	}
	// блоки без входящих переходов уйдут в removeDeadCode, если перед ними
	// стоит безусловный переход; изменением считается только перенаправление
	return changed
}

func (a *Assembly) sameItems(x, y struct {
	label LabelID
	start int
	end   int
}) bool {
	if x.end-x.start != y.end-y.start {
		return false
	}
	for k := 0; k < x.end-x.start; k++ {
		ix, iy := a.Items[x.start+k], a.Items[y.start+k]
		if ix.Kind != iy.Kind || ix.Op != iy.Op || ix.Push != iy.Push ||
			ix.Label != iy.Label || ix.Index != iy.Index || ix.Name != iy.Name {
			return false
		}
		if (ix.Value == nil) != (iy.Value == nil) {
			return false
		}
		if ix.Value != nil && ix.Value.Cmp(iy.Value) != 0 {
			return false
		}
	}
	return true
}

func isPlainPush(it *Item) bool {
	return it.Kind == ItemPush && it.Push == PushValue
}

func isOp(it *Item, op evm.Op) bool {
	return it.Kind == ItemOp && it.Op == op
}

func isSwap(op evm.Op) bool {
	return op >= evm.SWAP1 && op <= evm.SWAP16
}

// foldConstant evaluates a pure binary operation over two known words.
// top is the topmost stack operand.
func foldConstant(top, below *big.Int, op evm.Op) (*big.Int, bool) {
	a, b := top, below
	out := new(big.Int)
	switch op {
	case evm.ADD:
		out.Add(a, b)
	case evm.MUL:
		out.Mul(a, b)
	case evm.SUB:
		out.Sub(a, b)
	case evm.DIV:
		if b.Sign() == 0 {
			out.SetInt64(0)
		} else {
			out.Div(a, b)
		}
	case evm.AND:
		out.And(a, b)
	case evm.OR:
		out.Or(a, b)
	case evm.XOR:
		out.Xor(a, b)
	case evm.SHL:
		if a.Cmp(big.NewInt(256)) >= 0 {
			out.SetInt64(0)
		} else {
			out.Lsh(b, uint(a.Uint64()))
		}
	case evm.SHR:
		if a.Cmp(big.NewInt(256)) >= 0 {
			out.SetInt64(0)
		} else {
			out.Rsh(b, uint(a.Uint64()))
		}
	default:
		return nil, false
	}
	out.Mod(out, wordModulus)
	if out.Sign() < 0 {
		out.Add(out, wordModulus)
	}
	return out, true
}
