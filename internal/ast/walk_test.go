package ast

import (
	"testing"

	"solar/internal/source"
	"solar/internal/token"
)

func TestArenaIdsAreOneBased(t *testing.T) {
	a := NewArena[int](4)
	if a.Get(0) != nil {
		t.Fatal("index 0 must be the null node")
	}
	id := a.Allocate(7)
	if id != 1 || *a.Get(id) != 7 {
		t.Fatalf("id=%d value=%v", id, a.Get(id))
	}
	if a.Len() != 1 {
		t.Fatalf("len = %d", a.Len())
	}
}

func buildExprTree(b *Builder, in *source.Interner) ExprID {
	// (a + b) * 2
	sp := source.Span{}
	a := b.Exprs.NewIdent(sp, IdentExpr{Name: in.Intern("a")})
	bb := b.Exprs.NewIdent(sp, IdentExpr{Name: in.Intern("b")})
	sum := b.Exprs.NewBinary(sp, BinaryExpr{Op: token.Plus, Left: a, Right: bb})
	two := b.Exprs.NewNumberLit(sp, NumberLitExpr{Text: in.Intern("2")})
	return b.Exprs.NewBinary(sp, BinaryExpr{Op: token.Star, Left: sum, Right: two})
}

func TestWalkExprPreOrder(t *testing.T) {
	b := NewBuilder(Hints{})
	in := source.NewInterner()
	root := buildExprTree(b, in)

	var kinds []ExprKind
	b.WalkExpr(root, func(id ExprID) WalkControl {
		kinds = append(kinds, b.Exprs.Get(id).Kind)
		return Continue
	})
	want := []ExprKind{ExprBinary, ExprBinary, ExprIdent, ExprIdent, ExprNumberLit}
	if len(kinds) != len(want) {
		t.Fatalf("visited %d nodes, want %d", len(kinds), len(want))
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("visit %d = %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestWalkExprSkipChildren(t *testing.T) {
	b := NewBuilder(Hints{})
	in := source.NewInterner()
	root := buildExprTree(b, in)

	count := 0
	b.WalkExpr(root, func(id ExprID) WalkControl {
		count++
		if b.Exprs.Get(id).Kind == ExprBinary && count > 1 {
			return SkipChildren
		}
		return Continue
	})
	// корень, внутренний binary (пропущен внутрь), литерал
	if count != 3 {
		t.Fatalf("visited %d nodes, want 3", count)
	}
}

func TestWalkExprAbort(t *testing.T) {
	b := NewBuilder(Hints{})
	in := source.NewInterner()
	root := buildExprTree(b, in)

	count := 0
	finished := b.WalkExpr(root, func(id ExprID) WalkControl {
		count++
		if count == 2 {
			return Abort
		}
		return Continue
	})
	if finished || count != 2 {
		t.Fatalf("finished=%v count=%d", finished, count)
	}
}

func TestAnnotationsLazy(t *testing.T) {
	ann := NewAnnotations()
	if len(ann.Exprs) != 0 {
		t.Fatal("annotations must start empty")
	}
	a := ann.Expr(ExprID(3))
	a.IsPure = true
	if !ann.Expr(ExprID(3)).IsPure {
		t.Fatal("annotation must persist per node identity")
	}
	if len(ann.Exprs) != 1 {
		t.Fatal("only the touched node gets a record")
	}
}
