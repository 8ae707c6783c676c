package diagfmt

import (
	"strings"
	"testing"

	"solar/internal/diag"
	"solar/internal/source"
)

func TestPrintCaretAlignment(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.Add("t.sol", []byte("contract C {\n    uint bad;\n}\n"))
	bag := diag.NewBag(4)
	// span над "bad"
	bag.Add(diag.NewError(diag.DeclUnresolvedName, source.Span{File: id, Start: 22, End: 25}, "identifier not found"))

	var out strings.Builder
	Print(&out, fs, bag, Options{Color: false})
	s := out.String()

	if !strings.Contains(s, "error[SOL3002]") {
		t.Fatalf("missing header: %s", s)
	}
	if !strings.Contains(s, "t.sol:2:10") {
		t.Fatalf("missing position: %s", s)
	}
	if !strings.Contains(s, "         ^^^") {
		t.Fatalf("caret misaligned:\n%s", s)
	}
	if !strings.Contains(s, "compilation failed") {
		t.Fatalf("missing summary: %s", s)
	}
}

func TestPrintNotes(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.Add("t.sol", []byte("contract A {}\ncontract B {}\n"))
	bag := diag.NewBag(4)
	d := diag.NewError(diag.DeclDuplicateName, source.Span{File: id, Start: 23, End: 24}, "duplicate").
		WithNote(source.Span{File: id, Start: 9, End: 10}, "previous declaration is here")
	bag.Add(d)

	var out strings.Builder
	Print(&out, fs, bag, Options{Color: false})
	if !strings.Contains(out.String(), "note: previous declaration is here") {
		t.Fatalf("note missing:\n%s", out.String())
	}
}
