package ast

import (
	"solar/internal/types"
)

// ExprCategory classifies an expression after type checking.
type ExprCategory uint8

const (
	CatRValue ExprCategory = iota
	CatLValue
	CatTuple
)

// ExprAnn is the side annotation of one expression node, filled by the
// type checker.
type ExprAnn struct {
	Type       types.TypeID
	Category   ExprCategory
	IsPure     bool
	IsConstant bool
	// Decl is the resolved declaration for identifiers and member accesses.
	Decl ItemID
	// Candidates holds unresolved overloads until call-site disambiguation.
	Candidates []ItemID
}

// ContractAnn is the side annotation of one contract node.
type ContractAnn struct {
	// Linearized bases, most-derived (the contract itself) first.
	Linearized []ItemID
	// LinearizationFailed is set when C3 merge could not reconcile the
	// direct bases; Linearized then holds only the contract itself.
	LinearizationFailed bool
	Abstract            bool
	// Unimplemented lists callables lacking a body anywhere in the lattice.
	Unimplemented []ItemID
	// InterfaceFunctions caches the externally visible callables with their
	// 4-byte selectors, in emission order.
	InterfaceFunctions []InterfaceFunction
}

type InterfaceFunction struct {
	Fn        ItemID
	Selector  [4]byte
	Signature string
}

// CallableAnn is the side annotation of functions, modifiers, and public
// state variables.
type CallableAnn struct {
	// Overrides lists the base declarations this one overrides (same
	// signature only).
	Overrides []ItemID
	Type      types.TypeID
}

// TypeNameAnn records the canonical type a written type-name resolved to.
type TypeNameAnn struct {
	Type types.TypeID
	// Decl is the declaration for user-defined type names.
	Decl ItemID
}

// VarAnn is the side annotation of state and local variables.
type VarAnn struct {
	Type types.TypeID
	// Slot/Offset give the storage location of state variables.
	Slot   uint32
	Offset uint8
}

// UnitAnn is the side annotation of a source unit.
type UnitAnn struct {
	// Imports lists units transitively reachable through imports.
	Imports []UnitID
}

// Annotations is the lazily filled side-table set. Keys are node IDs; a
// missing key means the pass that fills it has not run (or the node is not
// of the annotated kind).
type Annotations struct {
	Exprs     map[ExprID]*ExprAnn
	Contracts map[ItemID]*ContractAnn
	Callables map[ItemID]*CallableAnn
	TypeNames map[TypeNameID]*TypeNameAnn
	Vars      map[ItemID]*VarAnn
	Units     map[UnitID]*UnitAnn
}

func NewAnnotations() *Annotations {
	return &Annotations{
		Exprs:     make(map[ExprID]*ExprAnn),
		Contracts: make(map[ItemID]*ContractAnn),
		Callables: make(map[ItemID]*CallableAnn),
		TypeNames: make(map[TypeNameID]*TypeNameAnn),
		Vars:      make(map[ItemID]*VarAnn),
		Units:     make(map[UnitID]*UnitAnn),
	}
}

// Expr returns the annotation for id, creating it on first access.
func (a *Annotations) Expr(id ExprID) *ExprAnn {
	ann, ok := a.Exprs[id]
	if !ok {
		ann = &ExprAnn{}
		a.Exprs[id] = ann
	}
	return ann
}

func (a *Annotations) Contract(id ItemID) *ContractAnn {
	ann, ok := a.Contracts[id]
	if !ok {
		ann = &ContractAnn{}
		a.Contracts[id] = ann
	}
	return ann
}

func (a *Annotations) Callable(id ItemID) *CallableAnn {
	ann, ok := a.Callables[id]
	if !ok {
		ann = &CallableAnn{}
		a.Callables[id] = ann
	}
	return ann
}

func (a *Annotations) TypeName(id TypeNameID) *TypeNameAnn {
	ann, ok := a.TypeNames[id]
	if !ok {
		ann = &TypeNameAnn{}
		a.TypeNames[id] = ann
	}
	return ann
}

func (a *Annotations) Var(id ItemID) *VarAnn {
	ann, ok := a.Vars[id]
	if !ok {
		ann = &VarAnn{}
		a.Vars[id] = ann
	}
	return ann
}

func (a *Annotations) Unit(id UnitID) *UnitAnn {
	ann, ok := a.Units[id]
	if !ok {
		ann = &UnitAnn{}
		a.Units[id] = ann
	}
	return ann
}
