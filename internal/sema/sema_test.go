package sema

import (
	"encoding/hex"
	"testing"

	"solar/internal/ast"
	"solar/internal/diag"
	"solar/internal/lexer"
	"solar/internal/parser"
	"solar/internal/source"
	"solar/internal/types"
)

type fixture struct {
	info *Info
	bag  *diag.Bag
}

func analyze(t *testing.T, src string) *fixture {
	t.Helper()
	fs := source.NewFileSet()
	interner := source.NewInterner()
	arenas := ast.NewBuilder(ast.Hints{})
	bag := diag.NewBag(64)
	rep := diag.BagReporter{Bag: bag}

	id := fs.Add("test.sol", []byte(src))
	lx := lexer.New(fs.Get(id), rep)
	res := parser.ParseUnit(lx, arenas, interner, parser.Options{Reporter: rep})
	if bag.HasErrors() {
		for _, d := range bag.Items() {
			t.Logf("parse: %s %s", d.Code, d.Message)
		}
		t.Fatal("parse errors before sema")
	}

	info := Analyze(arenas, interner, types.NewProvider(), []ast.UnitID{res.Unit}, rep)
	return &fixture{info: info, bag: bag}
}

func (fx *fixture) contractByName(t *testing.T, name string) ast.ItemID {
	t.Helper()
	for _, c := range fx.info.Contracts {
		if fx.info.spell(fx.info.Arenas.ItemName(c)) == name {
			return c
		}
	}
	t.Fatalf("contract %q not found", name)
	return ast.NoItemID
}

func (fx *fixture) hasCode(code diag.Code) bool {
	for _, d := range fx.bag.Items() {
		if d.Code == code {
			return true
		}
	}
	return false
}

func (fx *fixture) mustClean(t *testing.T) {
	t.Helper()
	if fx.bag.HasErrors() {
		for _, d := range fx.bag.Items() {
			t.Logf("%s %s %s", d.Severity, d.Code, d.Message)
		}
		t.Fatal("unexpected sema errors")
	}
}

func TestOverrideRecorded(t *testing.T) {
	fx := analyze(t, `
contract A { function g() public virtual {} }
contract B is A { function g() public override {} }
`)
	fx.mustClean(t)
	b := fx.contractByName(t, "B")
	decl, _ := fx.info.Arenas.Items.Contract(b)
	overrides := fx.info.Ann.Callable(decl.Body[0]).Overrides
	if len(overrides) != 1 {
		t.Fatalf("override edges = %d, want 1", len(overrides))
	}
	a := fx.contractByName(t, "A")
	adecl, _ := fx.info.Arenas.Items.Contract(a)
	if overrides[0] != adecl.Body[0] {
		t.Fatal("override annotation must list exactly A.g")
	}
}

func TestNonVirtualOverrideRejected(t *testing.T) {
	fx := analyze(t, `
contract A { function g() public {} }
contract B is A { function g() public override {} }
`)
	if !fx.hasCode(diag.TypeOverrideNonVirtual) {
		t.Fatal("expected non-virtual override error")
	}
}

func TestAmbiguousOverrideDetected(t *testing.T) {
	fx := analyze(t, `
contract A { function g() public virtual {} }
contract B { function g() public virtual {} }
contract C is A, B {}
`)
	if !fx.hasCode(diag.TypeOverrideAmbiguous) {
		t.Fatal("expected ambiguous override error")
	}
	// диагностика называет обе базы
	found := false
	for _, d := range fx.bag.Items() {
		if d.Code == diag.TypeOverrideAmbiguous && len(d.Notes) == 2 {
			found = true
		}
	}
	if !found {
		t.Fatal("ambiguity diagnostic must carry both definitions as notes")
	}
}

func TestDiamondResolvedNoAmbiguity(t *testing.T) {
	fx := analyze(t, `
contract Root { function g() public virtual {} }
contract A is Root { function g() public virtual override {} }
contract B is Root {}
contract C is B, A {}
`)
	// A.g переопределяет Root.g — разрешённый ромб, явного override в C не
	// требуется
	fx.mustClean(t)
}

func TestSingleInheritedNeedsNoOverrideList(t *testing.T) {
	fx := analyze(t, `
contract A { function g() public virtual {} }
contract B is A { function g() public override {} }
`)
	fx.mustClean(t)
}

func TestTwoPathsRequireNamingBoth(t *testing.T) {
	fx := analyze(t, `
contract A { function g() public virtual {} }
contract B { function g() public virtual {} }
contract C is A, B { function g() public override(A) {} }
`)
	if !fx.hasCode(diag.TypeOverrideMissing) {
		t.Fatal("override list missing B must be reported")
	}

	fx2 := analyze(t, `
contract A { function g() public virtual {} }
contract B { function g() public virtual {} }
contract C is A, B { function g() public override(A, B) {} }
`)
	fx2.mustClean(t)
}

func TestLinearizationOrder(t *testing.T) {
	fx := analyze(t, `
contract X {}
contract Y {}
contract Z is X, Y {}
`)
	fx.mustClean(t)
	z := fx.contractByName(t, "Z")
	lin := fx.info.Ann.Contract(z).Linearized
	names := make([]string, len(lin))
	for i, c := range lin {
		names[i] = fx.info.spell(fx.info.Arenas.ItemName(c))
	}
	// самый производный первым; базы в порядке, уважающем объявление
	if names[0] != "Z" || names[1] != "Y" || names[2] != "X" {
		t.Fatalf("linearization = %v", names)
	}
}

func TestLinearizationConflict(t *testing.T) {
	fx := analyze(t, `
contract A {}
contract B is A {}
contract C is A, B {}
contract D is B, A {}
`)
	// ровно один из порядков не сходится по C3
	if !fx.hasCode(diag.TypeLinearizationFailed) {
		t.Fatal("expected linearization failure")
	}
}

func TestGetterMaterialized(t *testing.T) {
	fx := analyze(t, `
contract C { uint256 public x; }
`)
	fx.mustClean(t)
	c := fx.contractByName(t, "C")
	getters := fx.info.Getters(c)
	if len(getters) != 1 {
		t.Fatalf("getters = %d, want 1", len(getters))
	}
	fn, _ := fx.info.Arenas.Items.Function(getters[0])
	if fn.FnKind != ast.FnGetter || fn.Mutability != ast.MutView {
		t.Fatal("getter must be a view function node")
	}
	if sig := fx.info.ExternalSignature(getters[0]); sig != "x()" {
		t.Fatalf("getter signature = %q", sig)
	}

	iface := fx.info.Ann.Contract(c).InterfaceFunctions
	if len(iface) != 1 {
		t.Fatalf("interface functions = %d", len(iface))
	}
	if got := hex.EncodeToString(iface[0].Selector[:]); got != "0c55699c" {
		t.Fatalf("selector of x() = %s", got)
	}
}

func TestMappingGetterSignature(t *testing.T) {
	fx := analyze(t, `
contract C { mapping(address => uint256) public balances; }
`)
	fx.mustClean(t)
	c := fx.contractByName(t, "C")
	getters := fx.info.Getters(c)
	if sig := fx.info.ExternalSignature(getters[0]); sig != "balances(address)" {
		t.Fatalf("getter signature = %q", sig)
	}
}

func TestInterfaceSelectorsUnique(t *testing.T) {
	fx := analyze(t, `
contract C {
    function f() public pure returns (uint256) { return 42; }
    function g(uint256 v) public pure returns (uint256) { return v; }
}
`)
	fx.mustClean(t)
	c := fx.contractByName(t, "C")
	iface := fx.info.Ann.Contract(c).InterfaceFunctions
	if len(iface) != 2 {
		t.Fatalf("interface functions = %d", len(iface))
	}
	seen := map[[4]byte]bool{}
	for _, f := range iface {
		if seen[f.Selector] {
			t.Fatal("duplicate selector")
		}
		seen[f.Selector] = true
	}
}

func TestDuplicateDeclaration(t *testing.T) {
	fx := analyze(t, `
contract C { uint256 x; bool x; }
`)
	if !fx.hasCode(diag.DeclDuplicateName) {
		t.Fatal("expected duplicate declaration error")
	}
}

func TestTypeMismatchReported(t *testing.T) {
	fx := analyze(t, `
contract C {
    function f() public pure returns (uint256) { return true; }
}
`)
	if !fx.hasCode(diag.TypeMismatch) {
		t.Fatal("expected type mismatch on return")
	}
}

func TestLiteralFitsNarrowType(t *testing.T) {
	fx := analyze(t, `
contract C {
    function f() public pure returns (uint8) { return 200; }
}
`)
	fx.mustClean(t)

	fx2 := analyze(t, `
contract C {
    function f() public pure returns (uint8) { return 300; }
}
`)
	if !fx2.hasCode(diag.TypeMismatch) {
		t.Fatal("300 must not convert to uint8")
	}
}

func TestOverloadResolution(t *testing.T) {
	fx := analyze(t, `
contract C {
    function f(uint256 v) public pure returns (uint256) { return v; }
    function f(bool b) public pure returns (uint256) { return b ? 1 : 0; }
    function g() public pure returns (uint256) { return f(true); }
}
`)
	fx.mustClean(t)
}

func TestAmbiguousCall(t *testing.T) {
	fx := analyze(t, `
contract C {
    function f(uint8 v) public pure {}
    function f(uint16 v) public pure {}
    function g() public pure { f(1); }
}
`)
	if !fx.hasCode(diag.TypeAmbiguousCall) {
		t.Fatal("expected ambiguous call: literal 1 fits both overloads")
	}
}

func TestUnusedVariableWarning(t *testing.T) {
	fx := analyze(t, `
contract C {
    function f() public pure { uint256 never; }
}
`)
	fx.mustClean(t)
	if !fx.hasCode(diag.WarnUnusedVariable) {
		t.Fatal("expected unused variable warning")
	}
}

func TestAbstractInstantiationRejected(t *testing.T) {
	fx := analyze(t, `
abstract contract A { function f() public virtual; }
contract C {
    function make() public { new A(); }
}
`)
	if !fx.hasCode(diag.TypeAbstractNew) {
		t.Fatal("expected abstract instantiation error")
	}
}

func TestMagicGlobals(t *testing.T) {
	fx := analyze(t, `
contract C {
    address public last;
    function f() public payable returns (uint256) {
        last = msg.sender;
        return msg.value + block.timestamp;
    }
}
`)
	fx.mustClean(t)
}

func TestStateLayoutPacking(t *testing.T) {
	fx := analyze(t, `
contract C {
    uint128 a;
    uint128 b;
    uint256 c;
    uint64 d;
}
`)
	fx.mustClean(t)
	c := fx.contractByName(t, "C")
	layout := fx.info.StateLayout[c]
	if len(layout) != 4 {
		t.Fatalf("layout entries = %d", len(layout))
	}
	slots := make([]uint32, 4)
	offsets := make([]uint8, 4)
	for i, v := range layout {
		ann := fx.info.Ann.Var(v)
		slots[i], offsets[i] = ann.Slot, ann.Offset
	}
	// a и b пакуются в слот 0, c занимает слот 1, d начинает слот 2
	if slots[0] != 0 || offsets[0] != 0 || slots[1] != 0 || offsets[1] != 16 {
		t.Fatalf("a/b packing: slots=%v offsets=%v", slots, offsets)
	}
	if slots[2] != 1 || slots[3] != 2 {
		t.Fatalf("c/d slots: %v", slots)
	}
}
