package ast

// WalkControl steers a traversal.
type WalkControl uint8

const (
	Continue WalkControl = iota
	SkipChildren
	Abort
)

// ExprVisitor is called pre-order for every expression. One walker type
// serves every read-only pass; mutation happens through the annotation
// tables, never through the nodes.
type ExprVisitor func(id ExprID) WalkControl

// WalkExpr traverses id and its children pre-order. Returns false when the
// traversal was aborted.
func (b *Builder) WalkExpr(id ExprID, visit ExprVisitor) bool {
	if !id.IsValid() {
		return true
	}
	switch visit(id) {
	case Abort:
		return false
	case SkipChildren:
		return true
	}
	e := b.Exprs.Get(id)
	switch e.Kind {
	case ExprMember:
		p, _ := b.Exprs.Member(id)
		return b.WalkExpr(p.Object, visit)
	case ExprIndex:
		p, _ := b.Exprs.Index(id)
		return b.WalkExpr(p.Base, visit) && b.WalkExpr(p.Index, visit)
	case ExprCall:
		p, _ := b.Exprs.Call(id)
		if !b.WalkExpr(p.Callee, visit) {
			return false
		}
		for _, a := range p.Args {
			if !b.WalkExpr(a, visit) {
				return false
			}
		}
	case ExprBinary:
		p, _ := b.Exprs.Binary(id)
		return b.WalkExpr(p.Left, visit) && b.WalkExpr(p.Right, visit)
	case ExprUnary:
		p, _ := b.Exprs.Unary(id)
		return b.WalkExpr(p.Operand, visit)
	case ExprAssign:
		p, _ := b.Exprs.Assign(id)
		return b.WalkExpr(p.Left, visit) && b.WalkExpr(p.Right, visit)
	case ExprTernary:
		p, _ := b.Exprs.Ternary(id)
		return b.WalkExpr(p.Cond, visit) && b.WalkExpr(p.Then, visit) && b.WalkExpr(p.Else, visit)
	case ExprTuple:
		p, _ := b.Exprs.Tuple(id)
		for _, el := range p.Elems {
			if !b.WalkExpr(el, visit) {
				return false
			}
		}
	case ExprDelete:
		p, _ := b.Exprs.Delete(id)
		return b.WalkExpr(p.Operand, visit)
	}
	return true
}

// StmtVisitor is called pre-order for every statement.
type StmtVisitor func(id StmtID) WalkControl

// WalkStmt traverses the statement tree pre-order, visiting nested
// statements but not expressions (pair with WalkExpr where needed).
func (b *Builder) WalkStmt(id StmtID, visit StmtVisitor) bool {
	if !id.IsValid() {
		return true
	}
	switch visit(id) {
	case Abort:
		return false
	case SkipChildren:
		return true
	}
	s := b.Stmts.Get(id)
	switch s.Kind {
	case StmtBlock:
		p, _ := b.Stmts.Block(id)
		for _, st := range p.Stmts {
			if !b.WalkStmt(st, visit) {
				return false
			}
		}
	case StmtIf:
		p, _ := b.Stmts.If(id)
		return b.WalkStmt(p.Then, visit) && b.WalkStmt(p.Else, visit)
	case StmtWhile, StmtDoWhile:
		p, _ := b.Stmts.While(id)
		return b.WalkStmt(p.Body, visit)
	case StmtFor:
		p, _ := b.Stmts.For(id)
		return b.WalkStmt(p.Init, visit) && b.WalkStmt(p.Body, visit)
	}
	return true
}

// StmtExprs collects the top-level expressions of one statement (not of its
// nested statements).
func (b *Builder) StmtExprs(id StmtID) []ExprID {
	if !id.IsValid() {
		return nil
	}
	s := b.Stmts.Get(id)
	switch s.Kind {
	case StmtIf:
		p, _ := b.Stmts.If(id)
		return []ExprID{p.Cond}
	case StmtWhile, StmtDoWhile:
		p, _ := b.Stmts.While(id)
		return []ExprID{p.Cond}
	case StmtFor:
		p, _ := b.Stmts.For(id)
		var out []ExprID
		if p.Cond.IsValid() {
			out = append(out, p.Cond)
		}
		if p.Post.IsValid() {
			out = append(out, p.Post)
		}
		return out
	case StmtReturn:
		p, _ := b.Stmts.Return(id)
		if p.Value.IsValid() {
			return []ExprID{p.Value}
		}
	case StmtEmit:
		p, _ := b.Stmts.Emit(id)
		return []ExprID{p.Call}
	case StmtVarDecl:
		p, _ := b.Stmts.VarDecl(id)
		if p.Value.IsValid() {
			return []ExprID{p.Value}
		}
	case StmtExpr:
		p, _ := b.Stmts.Expr(id)
		return []ExprID{p.Expr}
	}
	return nil
}
