package ast

import "solar/internal/source"

type TypeNameKind uint8

const (
	// TypeNameElementary is a built-in value type (uint256, bool, address,
	// bytes32, string, bytes, ...).
	TypeNameElementary TypeNameKind = iota
	// TypeNameUserDefined is a dotted path naming a contract, struct, or
	// enum declaration.
	TypeNameUserDefined
	// TypeNameMapping is mapping(K => V).
	TypeNameMapping
	// TypeNameArray is Base[] or Base[N].
	TypeNameArray
)

type TypeName struct {
	Kind    TypeNameKind
	Span    source.Span
	Payload PayloadID
}

// ElementaryTypeName keeps the spelled name; Payable marks `address payable`.
type ElementaryTypeName struct {
	Name    source.StringID
	Payable bool
}

// UserDefinedTypeName is a dotted path (C.S) with one span per segment.
type UserDefinedTypeName struct {
	Path      []source.StringID
	PathSpans []source.Span
}

type MappingTypeName struct {
	Key   TypeNameID
	Value TypeNameID
}

// ArrayTypeName; Length == NoExprID for dynamic arrays.
type ArrayTypeName struct {
	Base   TypeNameID
	Length ExprID
}

type TypeNames struct {
	Arena        *Arena[TypeName]
	Elementaries *Arena[ElementaryTypeName]
	UserDefineds *Arena[UserDefinedTypeName]
	Mappings     *Arena[MappingTypeName]
	Arrays       *Arena[ArrayTypeName]
}

func NewTypeNames(capHint uint) *TypeNames {
	if capHint == 0 {
		capHint = 1 << 7
	}
	return &TypeNames{
		Arena:        NewArena[TypeName](capHint),
		Elementaries: NewArena[ElementaryTypeName](capHint),
		UserDefineds: NewArena[UserDefinedTypeName](32),
		Mappings:     NewArena[MappingTypeName](16),
		Arrays:       NewArena[ArrayTypeName](16),
	}
}

func (t *TypeNames) Get(id TypeNameID) *TypeName {
	return t.Arena.Get(uint32(id))
}

func (t *TypeNames) NewElementary(sp source.Span, p ElementaryTypeName) TypeNameID {
	payload := PayloadID(t.Elementaries.Allocate(p))
	return TypeNameID(t.Arena.Allocate(TypeName{Kind: TypeNameElementary, Span: sp, Payload: payload}))
}

func (t *TypeNames) NewUserDefined(sp source.Span, p UserDefinedTypeName) TypeNameID {
	payload := PayloadID(t.UserDefineds.Allocate(p))
	return TypeNameID(t.Arena.Allocate(TypeName{Kind: TypeNameUserDefined, Span: sp, Payload: payload}))
}

func (t *TypeNames) NewMapping(sp source.Span, p MappingTypeName) TypeNameID {
	payload := PayloadID(t.Mappings.Allocate(p))
	return TypeNameID(t.Arena.Allocate(TypeName{Kind: TypeNameMapping, Span: sp, Payload: payload}))
}

func (t *TypeNames) NewArray(sp source.Span, p ArrayTypeName) TypeNameID {
	payload := PayloadID(t.Arrays.Allocate(p))
	return TypeNameID(t.Arena.Allocate(TypeName{Kind: TypeNameArray, Span: sp, Payload: payload}))
}

func (t *TypeNames) Elementary(id TypeNameID) (*ElementaryTypeName, bool) {
	if tn := t.Get(id); tn != nil && tn.Kind == TypeNameElementary {
		return t.Elementaries.Get(uint32(tn.Payload)), true
	}
	return nil, false
}

func (t *TypeNames) UserDefined(id TypeNameID) (*UserDefinedTypeName, bool) {
	if tn := t.Get(id); tn != nil && tn.Kind == TypeNameUserDefined {
		return t.UserDefineds.Get(uint32(tn.Payload)), true
	}
	return nil, false
}

func (t *TypeNames) Mapping(id TypeNameID) (*MappingTypeName, bool) {
	if tn := t.Get(id); tn != nil && tn.Kind == TypeNameMapping {
		return t.Mappings.Get(uint32(tn.Payload)), true
	}
	return nil, false
}

func (t *TypeNames) Array(id TypeNameID) (*ArrayTypeName, bool) {
	if tn := t.Get(id); tn != nil && tn.Kind == TypeNameArray {
		return t.Arrays.Get(uint32(tn.Payload)), true
	}
	return nil, false
}
