package codegen

import (
	"bytes"
	"testing"

	"solar/internal/ast"
	"solar/internal/diag"
	"solar/internal/evm"
	"solar/internal/lexer"
	"solar/internal/parser"
	"solar/internal/sema"
	"solar/internal/source"
	"solar/internal/types"
)

type fixture struct {
	info *sema.Info
	bag  *diag.Bag
}

func compileSource(t *testing.T, src string) *fixture {
	t.Helper()
	fs := source.NewFileSet()
	interner := source.NewInterner()
	arenas := ast.NewBuilder(ast.Hints{})
	bag := diag.NewBag(64)
	rep := diag.BagReporter{Bag: bag}

	id := fs.Add("test.sol", []byte(src))
	lx := lexer.New(fs.Get(id), rep)
	res := parser.ParseUnit(lx, arenas, interner, parser.Options{Reporter: rep})
	info := sema.Analyze(arenas, interner, types.NewProvider(), []ast.UnitID{res.Unit}, rep)
	if bag.HasErrors() {
		for _, d := range bag.Items() {
			t.Logf("%s %s %s", d.Severity, d.Code, d.Message)
		}
		t.Fatal("front end reported errors")
	}
	return &fixture{info: info, bag: bag}
}

func (fx *fixture) contractByName(t *testing.T, name string) ast.ItemID {
	t.Helper()
	for _, c := range fx.info.Contracts {
		n, _ := fx.info.Interner.Lookup(fx.info.Arenas.ItemName(c))
		if n == name {
			return c
		}
	}
	t.Fatalf("contract %q not found", name)
	return ast.NoItemID
}

func defaultOpts() Options {
	return Options{Target: evm.Shanghai, OptimizeRuns: 200}
}

func TestReturnFortyTwo(t *testing.T) {
	fx := compileSource(t, `
contract C { function f() public pure returns (uint256) { return 42; } }
`)
	c := fx.contractByName(t, "C")
	res := CompileContract(fx.info, c, defaultOpts(), diag.BagReporter{Bag: fx.bag})
	if fx.bag.HasErrors() {
		t.Fatalf("codegen errors: %v", fx.bag.Items())
	}

	runtime, err := res.Runtime.Assemble()
	if err != nil {
		t.Fatal(err)
	}
	// тело возвращает 0x2a: непосредственное значение присутствует в коде
	if !bytes.Contains(runtime.Bytes, []byte{byte(evm.PUSH1), 0x2a}) {
		t.Fatalf("runtime code misses the 0x2a immediate: %x", runtime.Bytes)
	}
	// диспетчер сравнивает с селектором keccak256("f()")[0..4] = 26121ff0
	if !bytes.Contains(runtime.Bytes, []byte{0x26, 0x12, 0x1f, 0xf0}) {
		t.Fatalf("runtime code misses the selector: %x", runtime.Bytes)
	}

	creation, err := res.Creation.Assemble()
	if err != nil {
		t.Fatal(err)
	}
	// деплой-код заканчивается байтами runtime
	if !bytes.HasSuffix(creation.Bytes, runtime.Bytes) {
		t.Fatal("creation object must embed the runtime object as its tail")
	}
}

func TestDispatcherRevertsOnUnknownSelector(t *testing.T) {
	fx := compileSource(t, `
contract C { function f() public pure returns (uint256) { return 1; } }
`)
	c := fx.contractByName(t, "C")
	res := CompileContract(fx.info, c, defaultOpts(), diag.BagReporter{Bag: fx.bag})
	obj, err := res.Runtime.Assemble()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(obj.Bytes, []byte{byte(evm.REVERT)}) {
		t.Fatal("runtime without fallback must contain a revert path")
	}
}

func TestVirtualDispatchPicksDerived(t *testing.T) {
	fx := compileSource(t, `
contract A {
    function g() public virtual pure returns (uint256) { return 1; }
    function call() public pure returns (uint256) { return g(); }
}
contract B is A {
    function g() public override pure returns (uint256) { return 77; }
}
`)
	b := fx.contractByName(t, "B")
	res := CompileContract(fx.info, b, defaultOpts(), diag.BagReporter{Bag: fx.bag})
	if fx.bag.HasErrors() {
		t.Fatalf("codegen errors: %v", fx.bag.Items())
	}
	obj, err := res.Runtime.Assemble()
	if err != nil {
		t.Fatal(err)
	}
	// при компиляции B вызов g() из A.call должен попадать в B.g (77)
	if !bytes.Contains(obj.Bytes, []byte{byte(evm.PUSH1), 77}) {
		t.Fatalf("derived override body missing: %x", obj.Bytes)
	}
}

func TestModifierInlined(t *testing.T) {
	fx := compileSource(t, `
contract C {
    uint256 guarded;
    modifier only(uint256 v) { require(v > 0); _; }
    function f(uint256 v) public only(v) { guarded = v; }
}
`)
	c := fx.contractByName(t, "C")
	res := CompileContract(fx.info, c, defaultOpts(), diag.BagReporter{Bag: fx.bag})
	if fx.bag.HasErrors() {
		t.Fatalf("codegen errors: %v", fx.bag.Items())
	}
	if _, err := res.Runtime.Assemble(); err != nil {
		t.Fatal(err)
	}
}

func TestStackTooDeepReported(t *testing.T) {
	fx := compileSource(t, `
contract C {
    function f() public pure returns (uint256) {
        uint256 a1 = 1; uint256 a2 = 2; uint256 a3 = 3; uint256 a4 = 4;
        uint256 a5 = 5; uint256 a6 = 6; uint256 a7 = 7; uint256 a8 = 8;
        uint256 a9 = 9; uint256 a10 = 10; uint256 a11 = 11; uint256 a12 = 12;
        uint256 a13 = 13; uint256 a14 = 14; uint256 a15 = 15; uint256 a16 = 16;
        uint256 a17 = 17;
        return a1 + a2 + a3 + a4 + a5 + a6 + a7 + a8 + a9 + a10
            + a11 + a12 + a13 + a14 + a15 + a16 + a17;
    }
}
`)
	c := fx.contractByName(t, "C")
	CompileContract(fx.info, c, defaultOpts(), diag.BagReporter{Bag: fx.bag})
	found := false
	for _, d := range fx.bag.Items() {
		if d.Code == diag.GenStackTooDeep {
			found = true
			if d.Primary.Empty() && d.Primary.Start == 0 {
				t.Fatal("stack-too-deep diagnostic must carry a source span")
			}
		}
	}
	if !found {
		t.Fatal("expected stack too deep error with 17 live locals")
	}
}

func TestGetterCompiles(t *testing.T) {
	fx := compileSource(t, `
contract C { uint256 public x; mapping(address => uint256) public bal; }
`)
	c := fx.contractByName(t, "C")
	res := CompileContract(fx.info, c, defaultOpts(), diag.BagReporter{Bag: fx.bag})
	if fx.bag.HasErrors() {
		t.Fatalf("codegen errors: %v", fx.bag.Items())
	}
	obj, err := res.Runtime.Assemble()
	if err != nil {
		t.Fatal(err)
	}
	// селектор x() = 0c55699c присутствует в диспетчере
	if !bytes.Contains(obj.Bytes, []byte{0x0c, 0x55, 0x69, 0x9c}) {
		t.Fatalf("getter selector missing: %x", obj.Bytes)
	}
}

func TestDeterministicOutput(t *testing.T) {
	src := `
contract Token {
    mapping(address => uint256) public balances;
    uint256 public total;
    event Transfer(address indexed from, address indexed to, uint256 value);
    function transfer(address to, uint256 value) public returns (bool) {
        balances[to] = balances[to] + value;
        emit Transfer(msg.sender, to, value);
        return true;
    }
}
`
	var first []byte
	for i := 0; i < 2; i++ {
		fx := compileSource(t, src)
		c := fx.contractByName(t, "Token")
		res := CompileContract(fx.info, c, defaultOpts(), diag.BagReporter{Bag: fx.bag})
		if fx.bag.HasErrors() {
			t.Fatalf("codegen errors: %v", fx.bag.Items())
		}
		obj, err := res.Creation.Assemble()
		if err != nil {
			t.Fatal(err)
		}
		if first == nil {
			first = obj.Bytes
		} else if !bytes.Equal(first, obj.Bytes) {
			t.Fatal("two compiles of the same input differ")
		}
	}
}

func TestOptimizedStillAssembles(t *testing.T) {
	fx := compileSource(t, `
contract C {
    uint256 s;
    function f(uint256 v) public { s = v * 2 + 0; }
}
`)
	c := fx.contractByName(t, "C")
	opts := defaultOpts()
	opts.Optimize = true
	res := CompileContract(fx.info, c, opts, diag.BagReporter{Bag: fx.bag})
	if fx.bag.HasErrors() {
		t.Fatalf("codegen errors: %v", fx.bag.Items())
	}
	if _, err := res.Runtime.Assemble(); err != nil {
		t.Fatal(err)
	}
}
