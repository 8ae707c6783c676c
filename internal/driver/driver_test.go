package driver

import (
	"bytes"
	"fmt"
	"testing"

	"solar/internal/diag"
	"solar/internal/evm"
	"solar/internal/metadata"
	"solar/internal/source"
)

func defaultSettings() Settings {
	return Settings{EVMVersion: evm.DefaultVersion}
}

func TestEndToEndSingleFunction(t *testing.T) {
	res := Compile(map[string][]byte{
		"c.sol": []byte(`contract C { function f() public pure returns (uint) { return 42; } }`),
	}, defaultSettings())
	if res.HasErrors() {
		for _, d := range res.Diagnostics.Items() {
			t.Logf("%s %s", d.Code, d.Message)
		}
		t.Fatal("compile failed")
	}
	if len(res.Contracts) != 1 {
		t.Fatalf("contracts = %d", len(res.Contracts))
	}
	c := res.Contracts[0]
	if len(c.ABI) != 1 || c.ABI[0].Name != "f" {
		t.Fatalf("abi = %+v", c.ABI)
	}
	// runtime содержит селектор f() и возвращаемое значение 0x2a
	code := metadata.Strip(c.RuntimeBytecode)
	if !bytes.Contains(code, []byte{0x26, 0x12, 0x1f, 0xf0}) {
		t.Fatal("selector of f() missing from runtime code")
	}
	if !bytes.Contains(code, []byte{0x60, 0x2a}) {
		t.Fatal("0x2a immediate missing from runtime code")
	}
	if len(c.Bytecode) == 0 {
		t.Fatal("creation bytecode empty")
	}
}

func TestPublicStateVariableGetter(t *testing.T) {
	res := Compile(map[string][]byte{
		"c.sol": []byte(`contract C { uint public x; }`),
	}, defaultSettings())
	if res.HasErrors() {
		t.Fatalf("compile failed: %v", res.Diagnostics.Items())
	}
	c := res.Contracts[0]
	if len(c.ABI) != 1 || c.ABI[0].Name != "x" || c.ABI[0].Outputs[0].Type != "uint256" {
		t.Fatalf("abi = %+v", c.ABI)
	}
	if !bytes.Contains(c.RuntimeBytecode, []byte{0x0c, 0x55, 0x69, 0x9c}) {
		t.Fatal("selector of x() missing")
	}
}

func TestDeterminism(t *testing.T) {
	src := map[string][]byte{
		"t.sol": []byte(`
contract Token {
    mapping(address => uint256) public balances;
    event Transfer(address indexed from, address indexed to, uint256 value);
    function transfer(address to, uint256 value) public returns (bool) {
        balances[to] = balances[to] + value;
        emit Transfer(msg.sender, to, value);
        return true;
    }
}`),
	}
	a := Compile(src, defaultSettings())
	b := Compile(src, defaultSettings())
	if a.HasErrors() || b.HasErrors() {
		t.Fatal("compiles failed")
	}
	if !bytes.Equal(a.Contracts[0].Bytecode, b.Contracts[0].Bytecode) {
		t.Fatal("bytecode differs between identical compiles")
	}
	ja, _ := a.Contracts[0].Metadata.JSON()
	jb, _ := b.Contracts[0].Metadata.JSON()
	if !bytes.Equal(ja, jb) {
		t.Fatal("metadata differs between identical compiles")
	}
}

func TestImportResolverPort(t *testing.T) {
	lib := []byte(`contract Base { function ping() public pure returns (uint) { return 1; } }`)
	settings := defaultSettings()
	settings.Resolver = source.MapResolver(map[string][]byte{"base.sol": lib})

	res := Compile(map[string][]byte{
		"main.sol": []byte("import \"base.sol\";\ncontract Main is Base {}"),
	}, settings)
	if res.HasErrors() {
		t.Fatalf("compile failed: %v", res.Diagnostics.Items())
	}
	var names []string
	for _, c := range res.Contracts {
		names = append(names, c.Name)
	}
	if len(names) != 2 {
		t.Fatalf("contracts = %v", names)
	}
}

func TestImportUnresolvedReported(t *testing.T) {
	settings := defaultSettings()
	settings.Resolver = func(path, importer string) ([]byte, error) {
		return nil, fmt.Errorf("no such unit")
	}
	res := Compile(map[string][]byte{
		"main.sol": []byte("import \"missing.sol\";\ncontract C {}"),
	}, settings)
	if !res.HasErrors() {
		t.Fatal("expected import error")
	}
	found := false
	for _, d := range res.Diagnostics.Items() {
		if d.Code == diag.DeclImportNotFound {
			found = true
		}
	}
	if !found {
		t.Fatal("expected DeclImportNotFound")
	}
}

func TestAbstractContractSkipsBytecode(t *testing.T) {
	res := Compile(map[string][]byte{
		"a.sol": []byte(`abstract contract A { function f() public virtual; }`),
	}, defaultSettings())
	if res.HasErrors() {
		t.Fatalf("compile failed: %v", res.Diagnostics.Items())
	}
	if len(res.Contracts) != 1 {
		t.Fatal("abstract contract must still produce ABI output")
	}
	if len(res.Contracts[0].Bytecode) != 0 {
		t.Fatal("abstract contract must not produce bytecode")
	}
}

func TestOverrideErrorsSurface(t *testing.T) {
	res := Compile(map[string][]byte{
		"c.sol": []byte(`
contract A { function g() public {} }
contract B is A { function g() public override {} }`),
	}, defaultSettings())
	if !res.HasErrors() {
		t.Fatal("expected non-virtual override error")
	}
	found := false
	for _, d := range res.Diagnostics.Items() {
		if d.Code == diag.TypeOverrideNonVirtual {
			found = true
		}
	}
	if !found {
		t.Fatal("expected TypeOverrideNonVirtual")
	}
}

func TestMetadataTrailerAppended(t *testing.T) {
	res := Compile(map[string][]byte{
		"c.sol": []byte(`contract C { function f() public pure returns (uint) { return 1; } }`),
	}, defaultSettings())
	if res.HasErrors() {
		t.Fatal("compile failed")
	}
	code := res.Contracts[0].RuntimeBytecode
	stripped := metadata.Strip(code)
	if len(stripped) != len(code)-34 {
		t.Fatalf("trailer not strippable: %d vs %d", len(stripped), len(code))
	}
}

func TestLibraryUsingForCompiles(t *testing.T) {
	src := map[string][]byte{
		"m.sol": []byte(`
library Math { function double(uint256 v) internal pure returns (uint256) { return v * 2; } }
contract C {
    using Math for uint256;
    function f(uint256 v) public pure returns (uint256) { return v.double(); }
}`),
	}
	res := Compile(src, defaultSettings())
	if res.HasErrors() {
		for _, d := range res.Diagnostics.Items() {
			t.Logf("%s %s", d.Code, d.Message)
		}
		t.Fatal("compile failed")
	}
}

func TestEmptyUnitCompilesCleanly(t *testing.T) {
	// пустой источник не ломает конвейер и даёт пустой выход без ошибок
	res := Compile(map[string][]byte{"e.sol": []byte("")}, defaultSettings())
	if res.HasErrors() {
		t.Fatalf("empty unit must compile cleanly: %v", res.Diagnostics.Items())
	}
	if len(res.Contracts) != 0 {
		t.Fatal("no contracts expected")
	}
}
