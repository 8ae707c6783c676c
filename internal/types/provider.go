package types

import (
	"fmt"
	"math/big"
	"strings"
)

// Provider interns type objects. Deduplication keys are structural, so the
// same written type always resolves to the same TypeID within one compile.
type Provider struct {
	byID  []Type
	index map[string]TypeID
	rats  []*big.Rat

	// declaration-shaped side tables filled by the resolver
	structFields  map[uint32][]TypeID
	contractBases map[uint32][]uint32
}

func NewProvider() *Provider {
	p := &Provider{
		byID:  make([]Type, 1, 1<<7), // [0] — no type
		index: make(map[string]TypeID, 1<<7),
	}
	return p
}

func (p *Provider) intern(key string, t Type) TypeID {
	if id, ok := p.index[key]; ok {
		return id
	}
	id := TypeID(len(p.byID)) //nolint:gosec // type counts fit uint32
	p.byID = append(p.byID, t)
	p.index[key] = id
	return id
}

// Get returns the type object for id. The pointer aliases provider storage;
// callers must not mutate it.
func (p *Provider) Get(id TypeID) *Type {
	if id == NoTypeID || int(id) >= len(p.byID) {
		return nil
	}
	return &p.byID[id]
}

func (p *Provider) Sentinel() TypeID {
	return p.intern("!", Type{Kind: KindSentinel})
}

func (p *Provider) Bool() TypeID {
	return p.intern("bool", Type{Kind: KindBool})
}

// Integer returns intN/uintN. bits must be a multiple of 8 in 8..256.
func (p *Provider) Integer(bits uint16, signed bool) TypeID {
	sign := "u"
	if signed {
		sign = "i"
	}
	return p.intern(fmt.Sprintf("%s%d", sign, bits), Type{Kind: KindInteger, Bits: bits, Signed: signed})
}

// FixedBytes returns bytesN, n in 1..32.
func (p *Provider) FixedBytes(n uint16) TypeID {
	return p.intern(fmt.Sprintf("b%d", n), Type{Kind: KindFixedBytes, Bits: n})
}

func (p *Provider) Address(payable bool) TypeID {
	key := "addr"
	if payable {
		key = "addrp"
	}
	return p.intern(key, Type{Kind: KindAddress, Payable: payable})
}

// Rational interns an exact number-literal type.
func (p *Provider) Rational(v *big.Rat) TypeID {
	key := "rat:" + v.RatString()
	if id, ok := p.index[key]; ok {
		return id
	}
	p.rats = append(p.rats, new(big.Rat).Set(v))
	return p.intern(key, Type{Kind: KindRational, RatIdx: int32(len(p.rats) - 1)}) //nolint:gosec // literal counts fit int32
}

// RatValue returns the exact value of a rational-literal type.
func (p *Provider) RatValue(id TypeID) *big.Rat {
	t := p.Get(id)
	if t == nil || t.Kind != KindRational {
		return nil
	}
	return p.rats[t.RatIdx]
}

func (p *Provider) StringLiteral(lit string) TypeID {
	return p.intern("strlit:"+lit, Type{Kind: KindStringLiteral, Lit: lit})
}

func (p *Provider) Contract(declRef uint32, name string, library bool) TypeID {
	return p.intern(fmt.Sprintf("c%d", declRef), Type{Kind: KindContract, DeclRef: declRef, Name: name, Library: library})
}

func (p *Provider) Struct(declRef uint32, name string, loc DataLocation) TypeID {
	return p.intern(fmt.Sprintf("s%d@%d", declRef, loc), Type{Kind: KindStruct, DeclRef: declRef, Name: name, Loc: loc})
}

func (p *Provider) Enum(declRef uint32, name string) TypeID {
	return p.intern(fmt.Sprintf("e%d", declRef), Type{Kind: KindEnum, DeclRef: declRef, Name: name})
}

// Array returns base[] / base[n] at a location.
func (p *Provider) Array(base TypeID, length uint64, dynamic bool, loc DataLocation) TypeID {
	return p.intern(fmt.Sprintf("a%d[%d:%t]@%d", base, length, dynamic, loc),
		Type{Kind: KindArray, Elem: base, Length: length, Dynamic: dynamic, Loc: loc})
}

// Bytes returns the dynamic byte string type at a location.
func (p *Provider) Bytes(loc DataLocation) TypeID {
	return p.intern(fmt.Sprintf("bytes@%d", loc),
		Type{Kind: KindArray, ElemByte: true, Dynamic: true, Loc: loc})
}

// String returns the string type at a location.
func (p *Provider) String(loc DataLocation) TypeID {
	return p.intern(fmt.Sprintf("string@%d", loc),
		Type{Kind: KindArray, ElemByte: true, IsString: true, Dynamic: true, Loc: loc})
}

func (p *Provider) Mapping(key, value TypeID) TypeID {
	return p.intern(fmt.Sprintf("m%d>%d", key, value), Type{Kind: KindMapping, Key: key, Value: value})
}

func (p *Provider) Function(params, returns []TypeID, kind FnKind, mut Mutability) TypeID {
	return p.intern(fmt.Sprintf("f%v>%v:%d:%d", params, returns, kind, mut),
		Type{Kind: KindFunction, Params: params, Returns: returns, FnKind: kind, Mut: mut})
}

func (p *Provider) Modifier(params []TypeID) TypeID {
	return p.intern(fmt.Sprintf("mod%v", params), Type{Kind: KindModifier, Params: params})
}

func (p *Provider) Event(declRef uint32, name string, params []TypeID) TypeID {
	return p.intern(fmt.Sprintf("ev%d", declRef), Type{Kind: KindEvent, DeclRef: declRef, Name: name, Params: params})
}

func (p *Provider) Tuple(components []TypeID) TypeID {
	return p.intern(fmt.Sprintf("t%v", components), Type{Kind: KindTuple, Params: components})
}

func (p *Provider) TypeType(actual TypeID) TypeID {
	return p.intern(fmt.Sprintf("T%d", actual), Type{Kind: KindTypeType, Elem: actual})
}

func (p *Provider) MagicNamespace(kind MagicKind) TypeID {
	return p.intern(fmt.Sprintf("magic%d", kind), Type{Kind: KindMagic, Magic: kind})
}

// WithLocation re-interns a reference type at a different data location.
// Value types pass through unchanged.
func (p *Provider) WithLocation(id TypeID, loc DataLocation) TypeID {
	t := p.Get(id)
	if t == nil {
		return id
	}
	switch t.Kind {
	case KindStruct:
		return p.Struct(t.DeclRef, t.Name, loc)
	case KindArray:
		if t.ElemByte {
			if t.IsString {
				return p.String(loc)
			}
			return p.Bytes(loc)
		}
		return p.Array(t.Elem, t.Length, t.Dynamic, loc)
	default:
		return id
	}
}

// CanonicalName renders the ABI spelling of a type (uint256, address,
// bytes32, tuple components parenthesised). Contracts canonicalise to
// address, enums to uint8, per the external ABI rules.
func (p *Provider) CanonicalName(id TypeID) string {
	t := p.Get(id)
	if t == nil {
		return "<missing>"
	}
	switch t.Kind {
	case KindBool:
		return "bool"
	case KindInteger:
		if t.Signed {
			return fmt.Sprintf("int%d", t.Bits)
		}
		return fmt.Sprintf("uint%d", t.Bits)
	case KindFixedBytes:
		return fmt.Sprintf("bytes%d", t.Bits)
	case KindAddress:
		return "address"
	case KindContract:
		return "address"
	case KindEnum:
		return "uint8"
	case KindArray:
		if t.ElemByte {
			if t.IsString {
				return "string"
			}
			return "bytes"
		}
		if t.Dynamic {
			return p.CanonicalName(t.Elem) + "[]"
		}
		return fmt.Sprintf("%s[%d]", p.CanonicalName(t.Elem), t.Length)
	case KindStruct:
		// structs render as their declared name; components are not
		// flattened into a parenthesised list
		return t.Name
	case KindTuple:
		parts := make([]string, len(t.Params))
		for i, c := range t.Params {
			parts[i] = p.CanonicalName(c)
		}
		return "(" + strings.Join(parts, ",") + ")"
	case KindFunction:
		return "function"
	case KindRational:
		return "rational"
	case KindStringLiteral:
		return "literal_string"
	case KindSentinel:
		return "<error>"
	default:
		return t.Name
	}
}

// HumanName renders the diagnostic spelling of a type.
func (p *Provider) HumanName(id TypeID) string {
	t := p.Get(id)
	if t == nil {
		return "<missing>"
	}
	switch t.Kind {
	case KindContract:
		return "contract " + t.Name
	case KindStruct:
		s := "struct " + t.Name
		if t.Loc != LocNone {
			s += " " + t.Loc.String()
		}
		return s
	case KindEnum:
		return "enum " + t.Name
	case KindRational:
		return "rational constant " + p.rats[t.RatIdx].RatString()
	case KindArray:
		if !t.ElemByte && t.Loc != LocNone {
			return p.CanonicalName(id) + " " + t.Loc.String()
		}
		if t.ElemByte && t.Loc != LocNone {
			return p.CanonicalName(id) + " " + t.Loc.String()
		}
		return p.CanonicalName(id)
	default:
		return p.CanonicalName(id)
	}
}
