package abi

import (
	"encoding/hex"
	"strings"
	"testing"

	"solar/internal/ast"
	"solar/internal/diag"
	"solar/internal/lexer"
	"solar/internal/parser"
	"solar/internal/sema"
	"solar/internal/source"
	"solar/internal/types"
)

func analyze(t *testing.T, src string) (*sema.Info, ast.ItemID) {
	t.Helper()
	fs := source.NewFileSet()
	interner := source.NewInterner()
	arenas := ast.NewBuilder(ast.Hints{})
	bag := diag.NewBag(32)
	rep := diag.BagReporter{Bag: bag}
	id := fs.Add("t.sol", []byte(src))
	lx := lexer.New(fs.Get(id), rep)
	res := parser.ParseUnit(lx, arenas, interner, parser.Options{Reporter: rep})
	info := sema.Analyze(arenas, interner, types.NewProvider(), []ast.UnitID{res.Unit}, rep)
	if bag.HasErrors() {
		for _, d := range bag.Items() {
			t.Logf("%s %s", d.Code, d.Message)
		}
		t.Fatal("unexpected errors")
	}
	return info, info.Contracts[len(info.Contracts)-1]
}

func TestSingleFunctionABI(t *testing.T) {
	info, c := analyze(t, `
contract C { function f() public pure returns (uint) { return 42; } }
`)
	entries := Build(info, c)
	if len(entries) != 1 {
		t.Fatalf("entries = %d", len(entries))
	}
	e := entries[0]
	if e.Type != "function" || e.Name != "f" || e.StateMutability != "pure" {
		t.Fatalf("entry = %+v", e)
	}
	if len(e.Outputs) != 1 || e.Outputs[0].Type != "uint256" {
		t.Fatalf("outputs = %+v", e.Outputs)
	}
	iface := info.Ann.Contract(c).InterfaceFunctions
	if hex.EncodeToString(iface[0].Selector[:]) != "26121ff0" {
		t.Fatalf("selector = %x", iface[0].Selector)
	}
}

func TestGetterInABI(t *testing.T) {
	info, c := analyze(t, `
contract C { uint public x; }
`)
	entries := Build(info, c)
	if len(entries) != 1 || entries[0].Name != "x" {
		t.Fatalf("entries = %+v", entries)
	}
	if entries[0].Outputs[0].Type != "uint256" {
		t.Fatalf("getter output = %+v", entries[0].Outputs)
	}
	iface := info.Ann.Contract(c).InterfaceFunctions
	if hex.EncodeToString(iface[0].Selector[:]) != "0c55699c" {
		t.Fatalf("selector of x() = %x", iface[0].Selector)
	}
}

func TestEventAndConstructorABI(t *testing.T) {
	info, c := analyze(t, `
contract C {
    event Transfer(address indexed from, address indexed to, uint256 value);
    constructor(uint256 seed) { seed; }
    function f() public {}
}
`)
	entries := Build(info, c)
	if entries[0].Type != "constructor" {
		t.Fatalf("first entry = %+v", entries[0])
	}
	var ev *Entry
	for i := range entries {
		if entries[i].Type == "event" {
			ev = &entries[i]
		}
	}
	if ev == nil || ev.Name != "Transfer" {
		t.Fatal("event entry missing")
	}
	if !ev.Inputs[0].Indexed || ev.Inputs[2].Indexed {
		t.Fatalf("indexed flags = %+v", ev.Inputs)
	}
}

func TestABIJSONShape(t *testing.T) {
	info, c := analyze(t, `
contract C { function f(uint a, bool ok) public {} }
`)
	raw, err := JSON(Build(info, c))
	if err != nil {
		t.Fatal(err)
	}
	s := string(raw)
	for _, frag := range []string{`"name": "f"`, `"type": "uint256"`, `"type": "bool"`, `"stateMutability": "nonpayable"`} {
		if !strings.Contains(s, frag) {
			t.Fatalf("json misses %s:\n%s", frag, s)
		}
	}
}

func TestInheritedFunctionsAfterOwn(t *testing.T) {
	info, c := analyze(t, `
contract A { function inherited() public pure {} }
contract B is A { function own() public pure {} }
`)
	entries := Build(info, c)
	if entries[0].Name != "own" || entries[1].Name != "inherited" {
		t.Fatalf("order = %s, %s", entries[0].Name, entries[1].Name)
	}
}
