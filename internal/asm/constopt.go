package asm

import (
	"math/big"

	"solar/internal/evm"
	"solar/internal/source"
)

// OptimizeConstants picks, per distinct immediate wider than one byte, the
// cheapest of three materialisation strategies under the gas cost model:
// (a) the literal push, (b) a code-copy from the data section, (c)
// computation from smaller pushes. Values a single byte wide always stay
// literal pushes.
func (a *Assembly) OptimizeConstants(runs int) {
	if runs <= 0 {
		runs = 200
	}
	for i := 0; i < len(a.Items); i++ {
		it := &a.Items[i]
		if !isPlainPush(it) || pushWidth(it.Value) <= 1 {
			continue
		}
		lit := literalCost(a.Target, it.Value, runs)
		copyC := codeCopyCost(a.Target, runs)
		comp, compSeq := computeCost(a.Target, it.Value, runs, it.Span, 0)

		switch {
		case comp < lit && comp <= copyC && compSeq != nil:
			a.Items = append(a.Items[:i], append(compSeq, a.Items[i+1:]...)...)
			i += len(compSeq) - 1
		case copyC < lit:
			blob := it.Value.FillBytes(make([]byte, 32))
			idx := a.AppendData(blob)
			seq := codeCopySequence(idx, it.Span)
			a.Items = append(a.Items[:i], append(seq, a.Items[i+1:]...)...)
			i += len(seq) - 1
		}
	}
}

// literalCost: run gas of the push plus creation cost of its bytes.
func literalCost(target evm.Version, v *big.Int, runs int) int {
	width := 1 + pushWidth(v)
	return runs*evm.GasVeryLow + dataCost(target, v.FillBytes(make([]byte, pushWidth(v)))) + width*evm.GasCreateData
}

// codeCopyCost: the copy sequence runs PUSH len, PUSH off, PUSH dst,
// CODECOPY, PUSH dst, MLOAD; data adds a full word to the code section.
func codeCopyCost(target evm.Version, runs int) int {
	seqGas := 5*evm.GasVeryLow + target.RunGas(evm.CODECOPY)
	seqBytes := 4 + 2*(1+labelImmWidth)
	dataBytes := 32
	creation := (seqBytes+dataBytes)*evm.GasCreateData + dataBytes*evm.GasTxDataNonZero
	return runs*seqGas + creation
}

func codeCopySequence(dataIdx int, sp source.Span) []Item {
	scratch := big.NewInt(0)
	return []Item{
		{Kind: ItemPush, Push: PushValue, Value: big.NewInt(32), Span: sp},
		{Kind: ItemPush, Push: PushDataRef, Index: dataIdx, Span: sp},
		{Kind: ItemPush, Push: PushValue, Value: scratch, Span: sp},
		{Kind: ItemOp, Op: evm.CODECOPY, Span: sp},
		{Kind: ItemPush, Push: PushValue, Value: big.NewInt(0), Span: sp},
		{Kind: ItemOp, Op: evm.MLOAD, Span: sp},
	}
}

const maxComputeDepth = 8

// computeCost decomposes v = a·2^k + b and prices the sequence
// `compute(a) PUSH k SHL PUSH b OR` recursively, returning the replacement
// items when the decomposition is meaningful.
func computeCost(target evm.Version, v *big.Int, runs int, sp source.Span, depth int) (int, []Item) {
	if depth > maxComputeDepth || pushWidth(v) <= 1 {
		return literalCost(target, v, runs), []Item{{Kind: ItemPush, Push: PushValue, Value: new(big.Int).Set(v), Span: sp}}
	}

	// v = high·2^k + low: низкий байт остаётся в low, k — хвостовые нули
	// оставшейся части; выгода только при заметном сдвиге
	low := new(big.Int).And(v, big.NewInt(0xff))
	rest := new(big.Int).Sub(v, low)
	if rest.Sign() == 0 {
		return literalCost(target, v, runs), []Item{{Kind: ItemPush, Push: PushValue, Value: new(big.Int).Set(v), Span: sp}}
	}
	k := trailingZeroBits(rest)
	if k < 8 {
		return literalCost(target, v, runs), []Item{{Kind: ItemPush, Push: PushValue, Value: new(big.Int).Set(v), Span: sp}}
	}
	high := new(big.Int).Rsh(rest, k)

	highCost, highSeq := computeCost(target, high, runs, sp, depth+1)
	seq := append([]Item(nil), highSeq...)
	seq = append(seq,
		Item{Kind: ItemPush, Push: PushValue, Value: new(big.Int).SetUint64(uint64(k)), Span: sp},
		Item{Kind: ItemOp, Op: evm.SHL, Span: sp},
	)
	cost := highCost + runs*2*evm.GasVeryLow + (2+1)*evm.GasCreateData
	if low.Sign() != 0 {
		seq = append(seq,
			Item{Kind: ItemPush, Push: PushValue, Value: low, Span: sp},
			Item{Kind: ItemOp, Op: evm.OR, Span: sp},
		)
		cost += runs*2*evm.GasVeryLow + (1+pushWidth(low)+1)*evm.GasCreateData
	}
	return cost, seq
}

func trailingZeroBits(v *big.Int) uint {
	if v.Sign() == 0 {
		return 0
	}
	var n uint
	for v.Bit(int(n)) == 0 {
		n++
	}
	return n
}

func dataCost(target evm.Version, bytes []byte) int {
	_ = target
	total := 0
	for _, b := range bytes {
		total += evm.DataGas(b)
	}
	return total
}
