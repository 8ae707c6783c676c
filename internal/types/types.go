// Package types holds the canonical type objects of one compile invocation.
// Types are immutable and deduplicated through a Provider; passes compare
// them by TypeID. The provider is an invocation field, not a process
// singleton, so two compiles never share state.
package types

// TypeID identifies one canonical type. 0 is "no type".
type TypeID uint32

const NoTypeID TypeID = 0

func (id TypeID) IsValid() bool { return id != NoTypeID }

// Kind enumerates the type universe.
type Kind uint8

const (
	KindSentinel Kind = iota // stands in after a reported error
	KindBool
	KindInteger
	KindFixedBytes
	KindAddress
	KindRational      // number literal, exact value
	KindStringLiteral // string literal before conversion
	KindContract
	KindStruct
	KindEnum
	KindArray // includes bytes/string as byte arrays
	KindMapping
	KindFunction
	KindModifier
	KindEvent
	KindTuple
	KindTypeType // reflective type(C)
	KindMagic    // block, msg, tx, abi namespaces
)

// DataLocation qualifier carried by reference types.
type DataLocation uint8

const (
	LocNone DataLocation = iota
	LocStorage
	LocMemory
	LocCalldata
)

func (l DataLocation) String() string {
	switch l {
	case LocStorage:
		return "storage"
	case LocMemory:
		return "memory"
	case LocCalldata:
		return "calldata"
	}
	return ""
}

// FnKind distinguishes callable flavors at the type level.
type FnKind uint8

const (
	FnInternal FnKind = iota
	FnExternal
	FnBuiltin
)

// Mutability ordering matches the override lattice: a function may only
// narrow (payable < nonpayable < view < pure).
type Mutability uint8

const (
	MutPayable Mutability = iota
	MutNonPayable
	MutView
	MutPure
)

func (m Mutability) String() string {
	switch m {
	case MutPayable:
		return "payable"
	case MutView:
		return "view"
	case MutPure:
		return "pure"
	}
	return "nonpayable"
}

// MagicKind selects one built-in namespace.
type MagicKind uint8

const (
	MagicBlock MagicKind = iota
	MagicMsg
	MagicTx
	MagicABI
)

// Type is one canonical type object. Which fields are meaningful depends on
// Kind; unused fields stay zero and take part in the structural key.
type Type struct {
	Kind Kind

	// KindInteger: width in bits (8..256). KindFixedBytes: width in bytes
	// stored in Bits (1..32).
	Bits   uint16
	Signed bool

	// KindAddress.
	Payable bool

	// Reference types: element type and location. KindArray with ElemByte
	// set models bytes/string (byte-packed, no element TypeID).
	Elem     TypeID
	ElemByte bool // bytes/string payload
	IsString bool // string vs bytes
	Loc      DataLocation
	Length   uint64
	Dynamic  bool

	// KindMapping.
	Key   TypeID
	Value TypeID

	// Declared types: raw ast.ItemID of the declaration plus the declared
	// name for canonical printing.
	DeclRef uint32
	Name    string

	// KindContract: library flag changes callability rules.
	Library bool

	// KindFunction / KindModifier / KindEvent / KindTuple.
	Params  []TypeID
	Returns []TypeID
	FnKind  FnKind
	Mut     Mutability

	// KindMagic.
	Magic MagicKind

	// KindRational: index into the provider's rational store.
	RatIdx int32
	// KindStringLiteral: literal contents.
	Lit string
}

// IsValueType reports whether values of t fit in VM words on the stack
// without a data-location qualifier.
func (t *Type) IsValueType() bool {
	switch t.Kind {
	case KindBool, KindInteger, KindFixedBytes, KindAddress, KindEnum,
		KindContract, KindRational, KindFunction:
		return true
	}
	return false
}

// IsReferenceType reports whether t must carry a data location.
func (t *Type) IsReferenceType() bool {
	switch t.Kind {
	case KindArray, KindStruct:
		return true
	}
	return false
}
