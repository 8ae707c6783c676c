package ast

import "solar/internal/source"

type StmtKind uint8

const (
	StmtBlock StmtKind = iota
	StmtIf
	StmtWhile
	StmtDoWhile
	StmtFor
	StmtBreak
	StmtContinue
	StmtReturn
	StmtEmit
	StmtVarDecl
	StmtExpr
	StmtAssembly
	// StmtPlaceholder is the `_;` inside a modifier body.
	StmtPlaceholder
)

type Stmt struct {
	Kind    StmtKind
	Span    source.Span
	Payload PayloadID
}

type BlockStmt struct {
	Stmts []StmtID
}

type IfStmt struct {
	Cond ExprID
	Then StmtID
	Else StmtID // NoStmtID if absent
}

type WhileStmt struct {
	Cond ExprID
	Body StmtID
}

type ForStmt struct {
	Init StmtID // NoStmtID or VarDecl/Expr statement
	Cond ExprID
	Post ExprID
	Body StmtID
}

type ReturnStmt struct {
	Value ExprID // NoExprID for bare return
}

type EmitStmt struct {
	Call ExprID
}

// VarDeclStmt declares one variable or a tuple of them. A component with
// Name == NoStringID and TypeName == NoTypeNameID is an empty tuple slot.
type VarDeclStmt struct {
	Decls []VarDeclPart
	Tuple bool
	Value ExprID // NoExprID if uninitialized
}

type VarDeclPart struct {
	Name     source.StringID
	TypeName TypeNameID
	Location DataLocation
	Span     source.Span
}

type ExprStmt struct {
	Expr ExprID
}

// AssemblyStmt records the block text verbatim; its sub-language is opaque
// to this pipeline and flows through to the assembler.
type AssemblyStmt struct {
	Text source.StringID
}

type Stmts struct {
	Arena      *Arena[Stmt]
	Blocks     *Arena[BlockStmt]
	Ifs        *Arena[IfStmt]
	Whiles     *Arena[WhileStmt]
	Fors       *Arena[ForStmt]
	Returns    *Arena[ReturnStmt]
	Emits      *Arena[EmitStmt]
	VarDecls   *Arena[VarDeclStmt]
	ExprStmts  *Arena[ExprStmt]
	Assemblies *Arena[AssemblyStmt]
}

func NewStmts(capHint uint) *Stmts {
	if capHint == 0 {
		capHint = 1 << 8
	}
	return &Stmts{
		Arena:      NewArena[Stmt](capHint),
		Blocks:     NewArena[BlockStmt](capHint / 4),
		Ifs:        NewArena[IfStmt](capHint / 4),
		Whiles:     NewArena[WhileStmt](16),
		Fors:       NewArena[ForStmt](16),
		Returns:    NewArena[ReturnStmt](capHint / 4),
		Emits:      NewArena[EmitStmt](16),
		VarDecls:   NewArena[VarDeclStmt](capHint / 4),
		ExprStmts:  NewArena[ExprStmt](capHint / 4),
		Assemblies: NewArena[AssemblyStmt](4),
	}
}

func (s *Stmts) Get(id StmtID) *Stmt {
	return s.Arena.Get(uint32(id))
}

func (s *Stmts) new(kind StmtKind, sp source.Span, payload PayloadID) StmtID {
	return StmtID(s.Arena.Allocate(Stmt{Kind: kind, Span: sp, Payload: payload}))
}

func (s *Stmts) NewBlock(sp source.Span, p BlockStmt) StmtID {
	return s.new(StmtBlock, sp, PayloadID(s.Blocks.Allocate(p)))
}

func (s *Stmts) NewIf(sp source.Span, p IfStmt) StmtID {
	return s.new(StmtIf, sp, PayloadID(s.Ifs.Allocate(p)))
}

func (s *Stmts) NewWhile(sp source.Span, p WhileStmt) StmtID {
	return s.new(StmtWhile, sp, PayloadID(s.Whiles.Allocate(p)))
}

func (s *Stmts) NewDoWhile(sp source.Span, p WhileStmt) StmtID {
	return s.new(StmtDoWhile, sp, PayloadID(s.Whiles.Allocate(p)))
}

func (s *Stmts) NewFor(sp source.Span, p ForStmt) StmtID {
	return s.new(StmtFor, sp, PayloadID(s.Fors.Allocate(p)))
}

func (s *Stmts) NewBreak(sp source.Span) StmtID {
	return s.new(StmtBreak, sp, NoPayloadID)
}

func (s *Stmts) NewContinue(sp source.Span) StmtID {
	return s.new(StmtContinue, sp, NoPayloadID)
}

func (s *Stmts) NewReturn(sp source.Span, p ReturnStmt) StmtID {
	return s.new(StmtReturn, sp, PayloadID(s.Returns.Allocate(p)))
}

func (s *Stmts) NewEmit(sp source.Span, p EmitStmt) StmtID {
	return s.new(StmtEmit, sp, PayloadID(s.Emits.Allocate(p)))
}

func (s *Stmts) NewVarDecl(sp source.Span, p VarDeclStmt) StmtID {
	return s.new(StmtVarDecl, sp, PayloadID(s.VarDecls.Allocate(p)))
}

func (s *Stmts) NewExprStmt(sp source.Span, p ExprStmt) StmtID {
	return s.new(StmtExpr, sp, PayloadID(s.ExprStmts.Allocate(p)))
}

func (s *Stmts) NewAssembly(sp source.Span, p AssemblyStmt) StmtID {
	return s.new(StmtAssembly, sp, PayloadID(s.Assemblies.Allocate(p)))
}

func (s *Stmts) NewPlaceholder(sp source.Span) StmtID {
	return s.new(StmtPlaceholder, sp, NoPayloadID)
}

func (s *Stmts) Block(id StmtID) (*BlockStmt, bool) {
	if st := s.Get(id); st != nil && st.Kind == StmtBlock {
		return s.Blocks.Get(uint32(st.Payload)), true
	}
	return nil, false
}

func (s *Stmts) If(id StmtID) (*IfStmt, bool) {
	if st := s.Get(id); st != nil && st.Kind == StmtIf {
		return s.Ifs.Get(uint32(st.Payload)), true
	}
	return nil, false
}

func (s *Stmts) While(id StmtID) (*WhileStmt, bool) {
	if st := s.Get(id); st != nil && (st.Kind == StmtWhile || st.Kind == StmtDoWhile) {
		return s.Whiles.Get(uint32(st.Payload)), true
	}
	return nil, false
}

func (s *Stmts) For(id StmtID) (*ForStmt, bool) {
	if st := s.Get(id); st != nil && st.Kind == StmtFor {
		return s.Fors.Get(uint32(st.Payload)), true
	}
	return nil, false
}

func (s *Stmts) Return(id StmtID) (*ReturnStmt, bool) {
	if st := s.Get(id); st != nil && st.Kind == StmtReturn {
		return s.Returns.Get(uint32(st.Payload)), true
	}
	return nil, false
}

func (s *Stmts) Emit(id StmtID) (*EmitStmt, bool) {
	if st := s.Get(id); st != nil && st.Kind == StmtEmit {
		return s.Emits.Get(uint32(st.Payload)), true
	}
	return nil, false
}

func (s *Stmts) VarDecl(id StmtID) (*VarDeclStmt, bool) {
	if st := s.Get(id); st != nil && st.Kind == StmtVarDecl {
		return s.VarDecls.Get(uint32(st.Payload)), true
	}
	return nil, false
}

func (s *Stmts) Expr(id StmtID) (*ExprStmt, bool) {
	if st := s.Get(id); st != nil && st.Kind == StmtExpr {
		return s.ExprStmts.Get(uint32(st.Payload)), true
	}
	return nil, false
}

func (s *Stmts) Assembly(id StmtID) (*AssemblyStmt, bool) {
	if st := s.Get(id); st != nil && st.Kind == StmtAssembly {
		return s.Assemblies.Get(uint32(st.Payload)), true
	}
	return nil, false
}
