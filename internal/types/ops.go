package types

import (
	"math/big"
)

// SetStructFields records the field types of a struct declaration. The
// storage-layout and copy-routine logic consult this table.
func (p *Provider) SetStructFields(declRef uint32, fields []TypeID) {
	if p.structFields == nil {
		p.structFields = make(map[uint32][]TypeID)
	}
	p.structFields[declRef] = fields
}

// StructFields returns the registered field types for a struct declaration.
func (p *Provider) StructFields(declRef uint32) []TypeID {
	return p.structFields[declRef]
}

// StackSize returns the number of VM words a value of t occupies on the
// runtime stack. External function references are address + selector.
func (p *Provider) StackSize(id TypeID) int {
	t := p.Get(id)
	if t == nil {
		return 0
	}
	switch t.Kind {
	case KindTuple:
		n := 0
		for _, c := range t.Params {
			n += p.StackSize(c)
		}
		return n
	case KindFunction:
		if t.FnKind == FnExternal {
			return 2
		}
		return 1
	case KindSentinel:
		return 0
	default:
		return 1
	}
}

// ByteSize returns the packed storage width of a value type in bytes.
// Reference types occupy a full slot.
func (p *Provider) ByteSize(id TypeID) uint32 {
	t := p.Get(id)
	if t == nil {
		return 32
	}
	switch t.Kind {
	case KindBool, KindEnum:
		return 1
	case KindInteger:
		return uint32(t.Bits) / 8
	case KindFixedBytes:
		return uint32(t.Bits)
	case KindAddress, KindContract:
		return 20
	default:
		return 32
	}
}

// StorageSlots returns how many consecutive storage slots t occupies at the
// head position (dynamic payloads live at derived slots and count one).
func (p *Provider) StorageSlots(id TypeID) uint32 {
	t := p.Get(id)
	if t == nil {
		return 1
	}
	switch t.Kind {
	case KindArray:
		if t.Dynamic {
			return 1
		}
		per := p.StorageSlots(t.Elem)
		elemBytes := p.ByteSize(t.Elem)
		if per == 1 && elemBytes < 32 {
			perSlot := 32 / elemBytes
			n := (uint32(t.Length) + perSlot - 1) / perSlot //nolint:gosec // lengths validated at declaration
			if n == 0 {
				n = 1
			}
			return n
		}
		n := uint32(t.Length) * per //nolint:gosec // lengths validated at declaration
		if n == 0 {
			n = 1
		}
		return n
	case KindStruct:
		n := uint32(0)
		var offset uint32
		for _, f := range p.StructFields(t.DeclRef) {
			ft := p.Get(f)
			if ft != nil && ft.IsValueType() {
				sz := p.ByteSize(f)
				if offset+sz > 32 {
					n++
					offset = 0
				}
				offset += sz
				continue
			}
			if offset > 0 {
				n++
				offset = 0
			}
			n += p.StorageSlots(f)
		}
		if offset > 0 {
			n++
		}
		if n == 0 {
			n = 1
		}
		return n
	default:
		return 1
	}
}

// MobileType converts a literal type into the narrowest concrete type that
// can hold it: rationals become the smallest integer, string literals become
// memory strings. Other types pass through.
func (p *Provider) MobileType(id TypeID) TypeID {
	t := p.Get(id)
	if t == nil {
		return id
	}
	switch t.Kind {
	case KindRational:
		v := p.rats[t.RatIdx]
		if !v.IsInt() {
			return NoTypeID
		}
		return p.smallestInteger(v.Num())
	case KindStringLiteral:
		return p.String(LocMemory)
	default:
		return id
	}
}

func (p *Provider) smallestInteger(v *big.Int) TypeID {
	neg := v.Sign() < 0
	bits := v.BitLen()
	if neg {
		// two's complement: -2^(n-1) .. 2^(n-1)-1, so |v|-1 must fit in n-1 bits
		bits = new(big.Int).Sub(new(big.Int).Neg(v), big.NewInt(1)).BitLen() + 1
	}
	w := uint16((bits + 7) / 8 * 8) //nolint:gosec // bounded by 256 check below
	if w == 0 {
		w = 8
	}
	if w > 256 {
		return NoTypeID
	}
	return p.Integer(w, neg)
}

// ImplicitlyConvertible reports whether a value of from may be used where
// to is expected without an explicit conversion.
func (p *Provider) ImplicitlyConvertible(from, to TypeID) bool {
	if from == to {
		return true
	}
	f, t := p.Get(from), p.Get(to)
	if f == nil || t == nil {
		return false
	}
	// сентинель совместим со всем: ошибка уже зарепорчена
	if f.Kind == KindSentinel || t.Kind == KindSentinel {
		return true
	}
	switch f.Kind {
	case KindRational:
		v := p.rats[f.RatIdx]
		switch t.Kind {
		case KindInteger:
			if !v.IsInt() {
				return false
			}
			return integerFits(v.Num(), t.Bits, t.Signed)
		case KindAddress:
			return false
		case KindFixedBytes:
			return false
		}
		return false
	case KindStringLiteral:
		switch {
		case t.Kind == KindArray && t.ElemByte:
			return true
		case t.Kind == KindFixedBytes:
			return len(f.Lit) <= int(t.Bits)
		}
		return false
	case KindInteger:
		if t.Kind != KindInteger || f.Signed != t.Signed {
			return false
		}
		return f.Bits <= t.Bits
	case KindFixedBytes:
		return t.Kind == KindFixedBytes && f.Bits <= t.Bits
	case KindAddress:
		// payable address narrows to plain address
		return t.Kind == KindAddress && f.Payable && !t.Payable
	case KindContract:
		if t.Kind == KindContract {
			return p.contractDerivesFrom(f, t)
		}
		return false
	case KindArray:
		if t.Kind != KindArray {
			return false
		}
		if f.ElemByte != t.ElemByte || f.IsString != t.IsString {
			return false
		}
		if !f.ElemByte {
			if !p.sameStructure(f.Elem, t.Elem) {
				return false
			}
			if !t.Dynamic && (f.Dynamic || f.Length != t.Length) {
				return false
			}
		}
		// location changes are copies, allowed implicitly except into calldata
		return t.Loc != LocCalldata || f.Loc == LocCalldata
	case KindStruct:
		return t.Kind == KindStruct && f.DeclRef == t.DeclRef && (t.Loc != LocCalldata || f.Loc == LocCalldata)
	case KindTuple:
		if t.Kind != KindTuple || len(f.Params) != len(t.Params) {
			return false
		}
		for i := range f.Params {
			if t.Params[i] == NoTypeID { // empty tuple slot accepts anything
				continue
			}
			if !p.ImplicitlyConvertible(f.Params[i], t.Params[i]) {
				return false
			}
		}
		return true
	case KindFunction:
		if t.Kind != KindFunction || len(f.Params) != len(t.Params) || len(f.Returns) != len(t.Returns) {
			return false
		}
		for i := range f.Params {
			if f.Params[i] != t.Params[i] {
				return false
			}
		}
		for i := range f.Returns {
			if f.Returns[i] != t.Returns[i] {
				return false
			}
		}
		// the value may be stricter than the target, never looser
		return f.FnKind == t.FnKind && f.Mut >= t.Mut
	}
	return false
}

// contract inheritance is recorded by sema through SetContractBases.
func (p *Provider) contractDerivesFrom(f, t *Type) bool {
	for _, base := range p.contractBases[f.DeclRef] {
		if base == t.DeclRef {
			return true
		}
	}
	return false
}

// SetContractBases records the linearised base declarations of a contract
// (including itself) for convertibility checks.
func (p *Provider) SetContractBases(declRef uint32, bases []uint32) {
	if p.contractBases == nil {
		p.contractBases = make(map[uint32][]uint32)
	}
	p.contractBases[declRef] = bases
}

// sameStructure compares reference types ignoring data location.
func (p *Provider) sameStructure(a, b TypeID) bool {
	if a == b {
		return true
	}
	ta, tb := p.Get(a), p.Get(b)
	if ta == nil || tb == nil || ta.Kind != tb.Kind {
		return false
	}
	switch ta.Kind {
	case KindArray:
		return ta.ElemByte == tb.ElemByte && ta.IsString == tb.IsString &&
			ta.Dynamic == tb.Dynamic && ta.Length == tb.Length &&
			(ta.ElemByte || p.sameStructure(ta.Elem, tb.Elem))
	case KindStruct:
		return ta.DeclRef == tb.DeclRef
	default:
		return false
	}
}

// ExplicitlyConvertible covers cast expressions `T(x)`.
func (p *Provider) ExplicitlyConvertible(from, to TypeID) bool {
	if p.ImplicitlyConvertible(from, to) {
		return true
	}
	f, t := p.Get(from), p.Get(to)
	if f == nil || t == nil {
		return false
	}
	switch {
	case f.Kind == KindInteger && t.Kind == KindInteger:
		return true
	case f.Kind == KindInteger && t.Kind == KindAddress:
		return !f.Signed && f.Bits == 160
	case f.Kind == KindAddress && t.Kind == KindInteger:
		return !t.Signed && t.Bits == 160
	case f.Kind == KindAddress && t.Kind == KindAddress:
		return true
	case f.Kind == KindContract && t.Kind == KindAddress:
		return true
	case f.Kind == KindAddress && t.Kind == KindContract:
		return true
	case f.Kind == KindInteger && t.Kind == KindFixedBytes:
		return uint32(f.Bits) == uint32(t.Bits)*8
	case f.Kind == KindFixedBytes && t.Kind == KindInteger:
		return uint32(t.Bits) == uint32(f.Bits)*8
	case f.Kind == KindFixedBytes && t.Kind == KindFixedBytes:
		return true
	case f.Kind == KindInteger && t.Kind == KindEnum:
		return true
	case f.Kind == KindEnum && t.Kind == KindInteger:
		return true
	case f.Kind == KindRational && t.Kind != KindRational:
		mobile := p.MobileType(from)
		return mobile.IsValid() && p.ExplicitlyConvertible(mobile, to)
	case f.Kind == KindArray && f.ElemByte && t.Kind == KindArray && t.ElemByte:
		return true // bytes <-> string
	}
	return false
}

// CommonType returns the type both operands convert to, or NoTypeID.
func (p *Provider) CommonType(a, b TypeID) TypeID {
	if a == b {
		return a
	}
	ta, tb := p.Get(a), p.Get(b)
	if ta == nil || tb == nil {
		return NoTypeID
	}
	if ta.Kind == KindSentinel {
		return a
	}
	if tb.Kind == KindSentinel {
		return b
	}
	// два литерала складываются на этапе проверки; общий тип — mobile
	if ta.Kind == KindRational && tb.Kind == KindRational {
		ma, mb := p.MobileType(a), p.MobileType(b)
		if !ma.IsValid() || !mb.IsValid() {
			return NoTypeID
		}
		return p.CommonType(ma, mb)
	}
	if p.ImplicitlyConvertible(a, b) {
		return b
	}
	if p.ImplicitlyConvertible(b, a) {
		return a
	}
	// разноширинные целые одного знака: расширяем до большего
	if ta.Kind == KindInteger && tb.Kind == KindInteger && ta.Signed == tb.Signed {
		if ta.Bits > tb.Bits {
			return a
		}
		return b
	}
	return NoTypeID
}

func integerFits(v *big.Int, bits uint16, signed bool) bool {
	if v.Sign() < 0 && !signed {
		return false
	}
	limit := new(big.Int).Lsh(big.NewInt(1), uint(bits))
	if signed {
		half := new(big.Int).Rsh(limit, 1)
		minV := new(big.Int).Neg(half)
		maxV := new(big.Int).Sub(half, big.NewInt(1))
		return v.Cmp(minV) >= 0 && v.Cmp(maxV) <= 0
	}
	maxV := new(big.Int).Sub(limit, big.NewInt(1))
	return v.Sign() >= 0 && v.Cmp(maxV) <= 0
}
