package types

import (
	"math/big"
	"testing"
)

func TestProviderDedup(t *testing.T) {
	p := NewProvider()
	a := p.Integer(256, false)
	b := p.Integer(256, false)
	if a != b {
		t.Fatalf("uint256 interned twice: %d %d", a, b)
	}
	if p.Integer(256, true) == a {
		t.Fatal("int256 must differ from uint256")
	}
	if p.Array(a, 0, true, LocMemory) != p.Array(a, 0, true, LocMemory) {
		t.Fatal("array types must dedup structurally")
	}
	if p.Array(a, 0, true, LocMemory) == p.Array(a, 0, true, LocStorage) {
		t.Fatal("location is part of the identity of a reference type")
	}
}

func TestCanonicalNames(t *testing.T) {
	p := NewProvider()
	cases := map[TypeID]string{
		p.Integer(256, false):                        "uint256",
		p.Integer(8, true):                           "int8",
		p.Bool():                                     "bool",
		p.Address(true):                              "address",
		p.FixedBytes(32):                             "bytes32",
		p.Bytes(LocMemory):                           "bytes",
		p.String(LocCalldata):                        "string",
		p.Array(p.Bool(), 4, false, LocMemory):       "bool[4]",
		p.Array(p.Address(false), 0, true, LocMemory): "address[]",
		p.Contract(7, "C", false):                    "address",
		p.Enum(9, "Color"):                           "uint8",
	}
	for id, want := range cases {
		if got := p.CanonicalName(id); got != want {
			t.Fatalf("CanonicalName = %q, want %q", got, want)
		}
	}
}

func TestMobileType(t *testing.T) {
	p := NewProvider()
	cases := []struct {
		lit  int64
		want TypeID
	}{
		{0, p.Integer(8, false)},
		{255, p.Integer(8, false)},
		{256, p.Integer(16, false)},
		{-1, p.Integer(8, true)},
		{-129, p.Integer(16, true)},
	}
	for _, c := range cases {
		r := p.Rational(new(big.Rat).SetInt64(c.lit))
		if got := p.MobileType(r); got != c.want {
			t.Fatalf("MobileType(%d) = %s, want %s", c.lit, p.CanonicalName(got), p.CanonicalName(c.want))
		}
	}
	// дробь не имеет мобильного типа
	half := p.Rational(big.NewRat(1, 2))
	if p.MobileType(half).IsValid() {
		t.Fatal("fractional literal has no mobile type")
	}
}

func TestImplicitConversions(t *testing.T) {
	p := NewProvider()
	u8 := p.Integer(8, false)
	u256 := p.Integer(256, false)
	i256 := p.Integer(256, true)

	if !p.ImplicitlyConvertible(u8, u256) {
		t.Fatal("uint8 -> uint256 must widen")
	}
	if p.ImplicitlyConvertible(u256, u8) {
		t.Fatal("uint256 -> uint8 must not narrow")
	}
	if p.ImplicitlyConvertible(u256, i256) {
		t.Fatal("sign change is not implicit")
	}
	if !p.ImplicitlyConvertible(p.Address(true), p.Address(false)) {
		t.Fatal("payable address narrows to address")
	}
	if p.ImplicitlyConvertible(p.Address(false), p.Address(true)) {
		t.Fatal("plain address must not become payable implicitly")
	}

	lit := p.Rational(new(big.Rat).SetInt64(42))
	if !p.ImplicitlyConvertible(lit, u8) {
		t.Fatal("42 fits uint8")
	}
	big300 := p.Rational(new(big.Rat).SetInt64(300))
	if p.ImplicitlyConvertible(big300, u8) {
		t.Fatal("300 does not fit uint8")
	}

	s := p.StringLiteral("abc")
	if !p.ImplicitlyConvertible(s, p.FixedBytes(3)) {
		t.Fatal("3-char literal fits bytes3")
	}
	if p.ImplicitlyConvertible(s, p.FixedBytes(2)) {
		t.Fatal("3-char literal does not fit bytes2")
	}
	if !p.ImplicitlyConvertible(s, p.String(LocMemory)) {
		t.Fatal("string literal converts to memory string")
	}
}

func TestExplicitConversions(t *testing.T) {
	p := NewProvider()
	if !p.ExplicitlyConvertible(p.Integer(160, false), p.Address(false)) {
		t.Fatal("uint160 -> address is explicit")
	}
	if p.ExplicitlyConvertible(p.Integer(128, false), p.Address(false)) {
		t.Fatal("uint128 -> address must be rejected")
	}
	if !p.ExplicitlyConvertible(p.Integer(256, false), p.FixedBytes(32)) {
		t.Fatal("uint256 -> bytes32 is explicit")
	}
	if !p.ExplicitlyConvertible(p.Contract(3, "C", false), p.Address(false)) {
		t.Fatal("contract -> address is explicit")
	}
}

func TestCommonType(t *testing.T) {
	p := NewProvider()
	u8 := p.Integer(8, false)
	u256 := p.Integer(256, false)
	if p.CommonType(u8, u256) != u256 {
		t.Fatal("common of uint8/uint256 is uint256")
	}
	lit := p.Rational(new(big.Rat).SetInt64(7))
	if p.CommonType(lit, u256) != u256 {
		t.Fatal("literal against uint256 is uint256")
	}
	if p.CommonType(u256, p.Bool()).IsValid() {
		t.Fatal("uint256 and bool share no type")
	}
}

func TestStackSize(t *testing.T) {
	p := NewProvider()
	if p.StackSize(p.Integer(256, false)) != 1 {
		t.Fatal("word types take one slot")
	}
	extFn := p.Function(nil, nil, FnExternal, MutNonPayable)
	if p.StackSize(extFn) != 2 {
		t.Fatal("external function reference takes two slots")
	}
	tup := p.Tuple([]TypeID{p.Bool(), extFn, p.Integer(8, false)})
	if p.StackSize(tup) != 4 {
		t.Fatal("tuples sum their components")
	}
}

func TestStorageSlots(t *testing.T) {
	p := NewProvider()
	u128 := p.Integer(128, false)
	// uint128[4] packs two per slot
	if got := p.StorageSlots(p.Array(u128, 4, false, LocStorage)); got != 2 {
		t.Fatalf("uint128[4] slots = %d, want 2", got)
	}
	if got := p.StorageSlots(p.Bytes(LocStorage)); got != 1 {
		t.Fatalf("dynamic bytes head = %d slots, want 1", got)
	}
	p.SetStructFields(11, []TypeID{u128, u128, p.Integer(256, false)})
	if got := p.StorageSlots(p.Struct(11, "S", LocStorage)); got != 2 {
		t.Fatalf("struct slots = %d, want 2", got)
	}
}
