package source

import "testing"

func TestAddAndResolve(t *testing.T) {
	fs := NewFileSet()
	id := fs.Add("a.sol", []byte("contract C {\n  uint x;\n}\n"))
	f := fs.Get(id)
	if f.Path != "a.sol" {
		t.Fatalf("path = %q", f.Path)
	}

	// span over "uint" on line 2
	sp := Span{File: id, Start: 15, End: 19}
	start, end := fs.Resolve(sp)
	if start.Line != 2 || start.Col != 3 {
		t.Fatalf("start = %+v", start)
	}
	if end.Line != 2 || end.Col != 7 {
		t.Fatalf("end = %+v", end)
	}
	if got := f.Line(2); got != "  uint x;" {
		t.Fatalf("Line(2) = %q", got)
	}
}

func TestNormalizeCRLFAndBOM(t *testing.T) {
	fs := NewFileSet()
	id := fs.Add("b.sol", []byte("\xEF\xBB\xBFpragma\r\nx"))
	f := fs.Get(id)
	if string(f.Content) != "pragma\nx" {
		t.Fatalf("content = %q", f.Content)
	}
}

func TestHashStable(t *testing.T) {
	fs := NewFileSet()
	a := fs.Add("a.sol", []byte("contract C {}"))
	b := fs.Add("b.sol", []byte("contract C {}"))
	if fs.Get(a).Hash != fs.Get(b).Hash {
		t.Fatal("same content must hash identically")
	}
}

func TestInterner(t *testing.T) {
	in := NewInterner()
	a := in.Intern("balanceOf")
	b := in.Intern("balanceOf")
	if a != b {
		t.Fatalf("intern not idempotent: %d %d", a, b)
	}
	if s := in.MustLookup(a); s != "balanceOf" {
		t.Fatalf("lookup = %q", s)
	}
	if _, ok := in.Lookup(StringID(99)); ok {
		t.Fatal("lookup of unknown ID must fail")
	}
}
