package diag

import (
	"testing"

	"solar/internal/source"
)

func sp(file, start, end uint32) source.Span {
	return source.Span{File: source.FileID(file), Start: start, End: end}
}

func TestBagSortDeterministic(t *testing.T) {
	b := NewBag(10)
	b.Add(NewError(TypeMismatch, sp(1, 5, 6), "b"))
	b.Add(NewWarning(WarnUnusedVariable, sp(0, 9, 10), "c"))
	b.Add(NewError(DeclUnresolvedName, sp(0, 2, 4), "a"))
	b.Sort()

	items := b.Items()
	if items[0].Code != DeclUnresolvedName || items[1].Code != WarnUnusedVariable || items[2].Code != TypeMismatch {
		t.Fatalf("unexpected order: %v %v %v", items[0].Code, items[1].Code, items[2].Code)
	}
}

func TestBagSortSeverityBeforeCode(t *testing.T) {
	b := NewBag(10)
	b.Add(NewWarning(WarnShadowedName, sp(0, 1, 2), "warn"))
	b.Add(NewError(TypeMismatch, sp(0, 1, 2), "err"))
	b.Sort()
	if b.Items()[0].Severity != SevError {
		t.Fatal("error must sort before warning at the same span")
	}
}

func TestBagLimitAndDedup(t *testing.T) {
	b := NewBag(2)
	if !b.Add(NewError(TypeMismatch, sp(0, 0, 1), "x")) {
		t.Fatal("first add must succeed")
	}
	b.Add(NewError(TypeMismatch, sp(0, 0, 1), "x"))
	if b.Add(NewError(TypeMismatch, sp(0, 3, 4), "y")) {
		t.Fatal("limit must reject the third add")
	}
	b.Dedup()
	if b.Len() != 1 {
		t.Fatalf("dedup left %d items", b.Len())
	}
}

func TestHasErrors(t *testing.T) {
	b := NewBag(4)
	b.Add(NewWarning(WarnDeprecated, sp(0, 0, 1), "old"))
	if b.HasErrors() {
		t.Fatal("warnings are not errors")
	}
	b.Add(NewError(GenStackTooDeep, sp(0, 0, 1), "deep"))
	if !b.HasErrors() {
		t.Fatal("expected HasErrors")
	}
}
