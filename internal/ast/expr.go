package ast

import (
	"solar/internal/source"
	"solar/internal/token"
)

type ExprKind uint8

const (
	ExprIdent ExprKind = iota
	ExprMember
	ExprIndex
	ExprCall
	ExprNew
	ExprBinary
	ExprUnary
	ExprAssign
	ExprTernary
	ExprTuple
	ExprNumberLit
	ExprStringLit
	ExprHexLit
	ExprBoolLit
	// ExprElementaryType is an elementary type used as an expression, e.g.
	// the callee of a conversion `uint160(x)` or the argument of `type()`.
	ExprElementaryType
	ExprDelete
)

type Expr struct {
	Kind    ExprKind
	Span    source.Span
	Payload PayloadID
}

type IdentExpr struct {
	Name source.StringID
}

type MemberExpr struct {
	Object   ExprID
	Member   source.StringID
	MemSpan  source.Span
}

type IndexExpr struct {
	Base  ExprID
	Index ExprID // NoExprID for `T[]` parsed as expression
}

// CallExpr covers calls with positional args and `{name: value}` args.
type CallExpr struct {
	Callee   ExprID
	Args     []ExprID
	ArgNames []source.StringID // empty for positional calls
}

type NewExpr struct {
	TypeName TypeNameID
}

type BinaryExpr struct {
	Op    token.Kind
	Left  ExprID
	Right ExprID
}

type UnaryExpr struct {
	Op      token.Kind
	Operand ExprID
	Prefix  bool
}

type AssignExpr struct {
	Op    token.Kind // Assign or compound
	Left  ExprID
	Right ExprID
}

type TernaryExpr struct {
	Cond ExprID
	Then ExprID
	Else ExprID
}

// TupleExpr; NoExprID components are empty slots `(a, , b)`.
type TupleExpr struct {
	Elems []ExprID
}

type NumberLitExpr struct {
	Text         source.StringID
	Denomination source.StringID // NoStringID if absent
}

type StringLitExpr struct {
	// Value is the unescaped contents.
	Value source.StringID
}

type HexLitExpr struct {
	// Value is the decoded bytes interned as a string.
	Value source.StringID
}

type BoolLitExpr struct {
	Value bool
}

type ElementaryTypeExpr struct {
	TypeName TypeNameID
}

type DeleteExpr struct {
	Operand ExprID
}

type Exprs struct {
	Arena           *Arena[Expr]
	Idents          *Arena[IdentExpr]
	Members         *Arena[MemberExpr]
	Indexes         *Arena[IndexExpr]
	Calls           *Arena[CallExpr]
	News            *Arena[NewExpr]
	Binaries        *Arena[BinaryExpr]
	Unaries         *Arena[UnaryExpr]
	Assigns         *Arena[AssignExpr]
	Ternaries       *Arena[TernaryExpr]
	Tuples          *Arena[TupleExpr]
	NumberLits      *Arena[NumberLitExpr]
	StringLits      *Arena[StringLitExpr]
	HexLits         *Arena[HexLitExpr]
	BoolLits        *Arena[BoolLitExpr]
	ElementaryTypes *Arena[ElementaryTypeExpr]
	Deletes         *Arena[DeleteExpr]
}

func NewExprs(capHint uint) *Exprs {
	if capHint == 0 {
		capHint = 1 << 8
	}
	return &Exprs{
		Arena:           NewArena[Expr](capHint),
		Idents:          NewArena[IdentExpr](capHint / 2),
		Members:         NewArena[MemberExpr](capHint / 4),
		Indexes:         NewArena[IndexExpr](32),
		Calls:           NewArena[CallExpr](capHint / 4),
		News:            NewArena[NewExpr](8),
		Binaries:        NewArena[BinaryExpr](capHint / 4),
		Unaries:         NewArena[UnaryExpr](32),
		Assigns:         NewArena[AssignExpr](capHint / 4),
		Ternaries:       NewArena[TernaryExpr](8),
		Tuples:          NewArena[TupleExpr](16),
		NumberLits:      NewArena[NumberLitExpr](capHint / 4),
		StringLits:      NewArena[StringLitExpr](16),
		HexLits:         NewArena[HexLitExpr](8),
		BoolLits:        NewArena[BoolLitExpr](16),
		ElementaryTypes: NewArena[ElementaryTypeExpr](16),
		Deletes:         NewArena[DeleteExpr](8),
	}
}

func (e *Exprs) Get(id ExprID) *Expr {
	return e.Arena.Get(uint32(id))
}

func (e *Exprs) new(kind ExprKind, sp source.Span, payload PayloadID) ExprID {
	return ExprID(e.Arena.Allocate(Expr{Kind: kind, Span: sp, Payload: payload}))
}

func (e *Exprs) NewIdent(sp source.Span, p IdentExpr) ExprID {
	return e.new(ExprIdent, sp, PayloadID(e.Idents.Allocate(p)))
}

func (e *Exprs) NewMember(sp source.Span, p MemberExpr) ExprID {
	return e.new(ExprMember, sp, PayloadID(e.Members.Allocate(p)))
}

func (e *Exprs) NewIndex(sp source.Span, p IndexExpr) ExprID {
	return e.new(ExprIndex, sp, PayloadID(e.Indexes.Allocate(p)))
}

func (e *Exprs) NewCall(sp source.Span, p CallExpr) ExprID {
	return e.new(ExprCall, sp, PayloadID(e.Calls.Allocate(p)))
}

func (e *Exprs) NewNew(sp source.Span, p NewExpr) ExprID {
	return e.new(ExprNew, sp, PayloadID(e.News.Allocate(p)))
}

func (e *Exprs) NewBinary(sp source.Span, p BinaryExpr) ExprID {
	return e.new(ExprBinary, sp, PayloadID(e.Binaries.Allocate(p)))
}

func (e *Exprs) NewUnary(sp source.Span, p UnaryExpr) ExprID {
	return e.new(ExprUnary, sp, PayloadID(e.Unaries.Allocate(p)))
}

func (e *Exprs) NewAssign(sp source.Span, p AssignExpr) ExprID {
	return e.new(ExprAssign, sp, PayloadID(e.Assigns.Allocate(p)))
}

func (e *Exprs) NewTernary(sp source.Span, p TernaryExpr) ExprID {
	return e.new(ExprTernary, sp, PayloadID(e.Ternaries.Allocate(p)))
}

func (e *Exprs) NewTuple(sp source.Span, p TupleExpr) ExprID {
	return e.new(ExprTuple, sp, PayloadID(e.Tuples.Allocate(p)))
}

func (e *Exprs) NewNumberLit(sp source.Span, p NumberLitExpr) ExprID {
	return e.new(ExprNumberLit, sp, PayloadID(e.NumberLits.Allocate(p)))
}

func (e *Exprs) NewStringLit(sp source.Span, p StringLitExpr) ExprID {
	return e.new(ExprStringLit, sp, PayloadID(e.StringLits.Allocate(p)))
}

func (e *Exprs) NewHexLit(sp source.Span, p HexLitExpr) ExprID {
	return e.new(ExprHexLit, sp, PayloadID(e.HexLits.Allocate(p)))
}

func (e *Exprs) NewBoolLit(sp source.Span, p BoolLitExpr) ExprID {
	return e.new(ExprBoolLit, sp, PayloadID(e.BoolLits.Allocate(p)))
}

func (e *Exprs) NewElementaryType(sp source.Span, p ElementaryTypeExpr) ExprID {
	return e.new(ExprElementaryType, sp, PayloadID(e.ElementaryTypes.Allocate(p)))
}

func (e *Exprs) NewDelete(sp source.Span, p DeleteExpr) ExprID {
	return e.new(ExprDelete, sp, PayloadID(e.Deletes.Allocate(p)))
}

func (e *Exprs) Ident(id ExprID) (*IdentExpr, bool) {
	if ex := e.Get(id); ex != nil && ex.Kind == ExprIdent {
		return e.Idents.Get(uint32(ex.Payload)), true
	}
	return nil, false
}

func (e *Exprs) Member(id ExprID) (*MemberExpr, bool) {
	if ex := e.Get(id); ex != nil && ex.Kind == ExprMember {
		return e.Members.Get(uint32(ex.Payload)), true
	}
	return nil, false
}

func (e *Exprs) Index(id ExprID) (*IndexExpr, bool) {
	if ex := e.Get(id); ex != nil && ex.Kind == ExprIndex {
		return e.Indexes.Get(uint32(ex.Payload)), true
	}
	return nil, false
}

func (e *Exprs) Call(id ExprID) (*CallExpr, bool) {
	if ex := e.Get(id); ex != nil && ex.Kind == ExprCall {
		return e.Calls.Get(uint32(ex.Payload)), true
	}
	return nil, false
}

func (e *Exprs) New(id ExprID) (*NewExpr, bool) {
	if ex := e.Get(id); ex != nil && ex.Kind == ExprNew {
		return e.News.Get(uint32(ex.Payload)), true
	}
	return nil, false
}

func (e *Exprs) Binary(id ExprID) (*BinaryExpr, bool) {
	if ex := e.Get(id); ex != nil && ex.Kind == ExprBinary {
		return e.Binaries.Get(uint32(ex.Payload)), true
	}
	return nil, false
}

func (e *Exprs) Unary(id ExprID) (*UnaryExpr, bool) {
	if ex := e.Get(id); ex != nil && ex.Kind == ExprUnary {
		return e.Unaries.Get(uint32(ex.Payload)), true
	}
	return nil, false
}

func (e *Exprs) Assign(id ExprID) (*AssignExpr, bool) {
	if ex := e.Get(id); ex != nil && ex.Kind == ExprAssign {
		return e.Assigns.Get(uint32(ex.Payload)), true
	}
	return nil, false
}

func (e *Exprs) Ternary(id ExprID) (*TernaryExpr, bool) {
	if ex := e.Get(id); ex != nil && ex.Kind == ExprTernary {
		return e.Ternaries.Get(uint32(ex.Payload)), true
	}
	return nil, false
}

func (e *Exprs) Tuple(id ExprID) (*TupleExpr, bool) {
	if ex := e.Get(id); ex != nil && ex.Kind == ExprTuple {
		return e.Tuples.Get(uint32(ex.Payload)), true
	}
	return nil, false
}

func (e *Exprs) NumberLit(id ExprID) (*NumberLitExpr, bool) {
	if ex := e.Get(id); ex != nil && ex.Kind == ExprNumberLit {
		return e.NumberLits.Get(uint32(ex.Payload)), true
	}
	return nil, false
}

func (e *Exprs) StringLit(id ExprID) (*StringLitExpr, bool) {
	if ex := e.Get(id); ex != nil && ex.Kind == ExprStringLit {
		return e.StringLits.Get(uint32(ex.Payload)), true
	}
	return nil, false
}

func (e *Exprs) HexLit(id ExprID) (*HexLitExpr, bool) {
	if ex := e.Get(id); ex != nil && ex.Kind == ExprHexLit {
		return e.HexLits.Get(uint32(ex.Payload)), true
	}
	return nil, false
}

func (e *Exprs) BoolLit(id ExprID) (*BoolLitExpr, bool) {
	if ex := e.Get(id); ex != nil && ex.Kind == ExprBoolLit {
		return e.BoolLits.Get(uint32(ex.Payload)), true
	}
	return nil, false
}

func (e *Exprs) ElementaryType(id ExprID) (*ElementaryTypeExpr, bool) {
	if ex := e.Get(id); ex != nil && ex.Kind == ExprElementaryType {
		return e.ElementaryTypes.Get(uint32(ex.Payload)), true
	}
	return nil, false
}

func (e *Exprs) Delete(id ExprID) (*DeleteExpr, bool) {
	if ex := e.Get(id); ex != nil && ex.Kind == ExprDelete {
		return e.Deletes.Get(uint32(ex.Payload)), true
	}
	return nil, false
}
