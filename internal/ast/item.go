package ast

import (
	"solar/internal/source"
)

type ItemKind uint8

const (
	ItemPragma ItemKind = iota
	ItemImport
	ItemContract
	ItemFunction
	ItemModifier
	ItemEvent
	ItemStruct
	ItemEnum
	ItemVariable
	ItemUsingFor
)

// Item is the tagged header every declaration shares. Payload indexes the
// per-kind arena selected by Kind.
type Item struct {
	Kind    ItemKind
	Span    source.Span
	Payload PayloadID
}

// InheritSpec is one entry of a contract's `is` list, optionally carrying
// constructor arguments.
type InheritSpec struct {
	Base TypeNameID
	Args []ExprID
	Span source.Span
}

// ModifierInvocation is one modifier (or base-constructor call) attached to
// a function header.
type ModifierInvocation struct {
	Name source.StringID
	Args []ExprID
	// HasArgs distinguishes `mod` from `mod()`.
	HasArgs bool
	Span    source.Span
}

// PragmaItem records the raw token text after `pragma` up to the semicolon.
type PragmaItem struct {
	Text source.StringID
}

// ImportItem is `import "path";` or `import "path" as Alias;`.
type ImportItem struct {
	Path     source.StringID
	Alias    source.StringID
	PathSpan source.Span
}

// ContractItem covers contract, interface, and library declarations.
type ContractItem struct {
	Name     source.StringID
	NameSpan source.Span
	Kind     ContractKind
	Abstract bool
	Bases    []InheritSpec
	Body     []ItemID
	Unit     UnitID
}

// FunctionItem covers functions, constructors, fallback, receive, modifiers
// do not share it (see ModifierItem).
type FunctionItem struct {
	Name         source.StringID
	NameSpan     source.Span
	FnKind       FnKind
	Params       []ParamID
	Returns      []ParamID
	Visibility   Visibility
	Mutability   Mutability
	Virtual      bool
	HasOverride  bool
	OverrideList []TypeNameID
	Modifiers    []ModifierInvocation
	Body         StmtID // NoStmtID when unimplemented
	Contract     ItemID // enclosing contract, NoItemID for free functions
	// StateVar points back to the variable a getter was synthesized from.
	StateVar ItemID
}

// ModifierItem is a modifier declaration with a `_;` placeholder body.
type ModifierItem struct {
	Name         source.StringID
	NameSpan     source.Span
	Params       []ParamID
	Virtual      bool
	HasOverride  bool
	OverrideList []TypeNameID
	Body         StmtID
	Contract     ItemID
}

// EventItem is an event declaration.
type EventItem struct {
	Name      source.StringID
	NameSpan  source.Span
	Params    []ParamID
	Anonymous bool
	Contract  ItemID
}

// StructItem is a struct declaration.
type StructItem struct {
	Name     source.StringID
	NameSpan source.Span
	Fields   []ParamID
	Contract ItemID
}

// EnumItem is an enum declaration.
type EnumItem struct {
	Name     source.StringID
	NameSpan source.Span
	Members  []EnumMember
	Contract ItemID
}

type EnumMember struct {
	Name source.StringID
	Span source.Span
}

// VariableItem is a state variable or file-level constant.
type VariableItem struct {
	Name         source.StringID
	NameSpan     source.Span
	TypeName     TypeNameID
	Visibility   Visibility
	Constant     bool
	Immutable    bool
	HasOverride  bool
	OverrideList []TypeNameID
	Value        ExprID // initializer, NoExprID if absent
	Contract     ItemID
}

// UsingForItem is `using Lib for T;` (Target == NoTypeNameID means `*`).
type UsingForItem struct {
	Library  TypeNameID
	Target   TypeNameID
	Contract ItemID
}

// Items owns the header arena plus one payload arena per declaration kind.
type Items struct {
	Arena     *Arena[Item]
	Pragmas   *Arena[PragmaItem]
	Imports   *Arena[ImportItem]
	Contracts *Arena[ContractItem]
	Functions *Arena[FunctionItem]
	Modifiers *Arena[ModifierItem]
	Events    *Arena[EventItem]
	Structs   *Arena[StructItem]
	Enums     *Arena[EnumItem]
	Variables *Arena[VariableItem]
	UsingFors *Arena[UsingForItem]
}

func NewItems(capHint uint) *Items {
	if capHint == 0 {
		capHint = 1 << 7
	}
	return &Items{
		Arena:     NewArena[Item](capHint),
		Pragmas:   NewArena[PragmaItem](8),
		Imports:   NewArena[ImportItem](8),
		Contracts: NewArena[ContractItem](8),
		Functions: NewArena[FunctionItem](capHint),
		Modifiers: NewArena[ModifierItem](16),
		Events:    NewArena[EventItem](16),
		Structs:   NewArena[StructItem](16),
		Enums:     NewArena[EnumItem](8),
		Variables: NewArena[VariableItem](capHint),
		UsingFors: NewArena[UsingForItem](8),
	}
}

func (i *Items) New(kind ItemKind, span source.Span, payload PayloadID) ItemID {
	return ItemID(i.Arena.Allocate(Item{Kind: kind, Span: span, Payload: payload}))
}

func (i *Items) Get(id ItemID) *Item {
	return i.Arena.Get(uint32(id))
}

func (i *Items) NewPragma(sp source.Span, p PragmaItem) ItemID {
	return i.New(ItemPragma, sp, PayloadID(i.Pragmas.Allocate(p)))
}

func (i *Items) NewImport(sp source.Span, p ImportItem) ItemID {
	return i.New(ItemImport, sp, PayloadID(i.Imports.Allocate(p)))
}

func (i *Items) NewContract(sp source.Span, p ContractItem) ItemID {
	return i.New(ItemContract, sp, PayloadID(i.Contracts.Allocate(p)))
}

func (i *Items) NewFunction(sp source.Span, p FunctionItem) ItemID {
	return i.New(ItemFunction, sp, PayloadID(i.Functions.Allocate(p)))
}

func (i *Items) NewModifier(sp source.Span, p ModifierItem) ItemID {
	return i.New(ItemModifier, sp, PayloadID(i.Modifiers.Allocate(p)))
}

func (i *Items) NewEvent(sp source.Span, p EventItem) ItemID {
	return i.New(ItemEvent, sp, PayloadID(i.Events.Allocate(p)))
}

func (i *Items) NewStruct(sp source.Span, p StructItem) ItemID {
	return i.New(ItemStruct, sp, PayloadID(i.Structs.Allocate(p)))
}

func (i *Items) NewEnum(sp source.Span, p EnumItem) ItemID {
	return i.New(ItemEnum, sp, PayloadID(i.Enums.Allocate(p)))
}

func (i *Items) NewVariable(sp source.Span, p VariableItem) ItemID {
	return i.New(ItemVariable, sp, PayloadID(i.Variables.Allocate(p)))
}

func (i *Items) NewUsingFor(sp source.Span, p UsingForItem) ItemID {
	return i.New(ItemUsingFor, sp, PayloadID(i.UsingFors.Allocate(p)))
}

// Typed accessors. Each returns (payload, true) only when the item has the
// matching kind.

func (i *Items) Pragma(id ItemID) (*PragmaItem, bool) {
	if it := i.Get(id); it != nil && it.Kind == ItemPragma {
		return i.Pragmas.Get(uint32(it.Payload)), true
	}
	return nil, false
}

func (i *Items) Import(id ItemID) (*ImportItem, bool) {
	if it := i.Get(id); it != nil && it.Kind == ItemImport {
		return i.Imports.Get(uint32(it.Payload)), true
	}
	return nil, false
}

func (i *Items) Contract(id ItemID) (*ContractItem, bool) {
	if it := i.Get(id); it != nil && it.Kind == ItemContract {
		return i.Contracts.Get(uint32(it.Payload)), true
	}
	return nil, false
}

func (i *Items) Function(id ItemID) (*FunctionItem, bool) {
	if it := i.Get(id); it != nil && it.Kind == ItemFunction {
		return i.Functions.Get(uint32(it.Payload)), true
	}
	return nil, false
}

func (i *Items) Modifier(id ItemID) (*ModifierItem, bool) {
	if it := i.Get(id); it != nil && it.Kind == ItemModifier {
		return i.Modifiers.Get(uint32(it.Payload)), true
	}
	return nil, false
}

func (i *Items) Event(id ItemID) (*EventItem, bool) {
	if it := i.Get(id); it != nil && it.Kind == ItemEvent {
		return i.Events.Get(uint32(it.Payload)), true
	}
	return nil, false
}

func (i *Items) Struct(id ItemID) (*StructItem, bool) {
	if it := i.Get(id); it != nil && it.Kind == ItemStruct {
		return i.Structs.Get(uint32(it.Payload)), true
	}
	return nil, false
}

func (i *Items) Enum(id ItemID) (*EnumItem, bool) {
	if it := i.Get(id); it != nil && it.Kind == ItemEnum {
		return i.Enums.Get(uint32(it.Payload)), true
	}
	return nil, false
}

func (i *Items) Variable(id ItemID) (*VariableItem, bool) {
	if it := i.Get(id); it != nil && it.Kind == ItemVariable {
		return i.Variables.Get(uint32(it.Payload)), true
	}
	return nil, false
}

func (i *Items) UsingFor(id ItemID) (*UsingForItem, bool) {
	if it := i.Get(id); it != nil && it.Kind == ItemUsingFor {
		return i.UsingFors.Get(uint32(it.Payload)), true
	}
	return nil, false
}
