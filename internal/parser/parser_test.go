package parser

import (
	"testing"

	"solar/internal/ast"
	"solar/internal/diag"
	"solar/internal/lexer"
	"solar/internal/source"
)

type parseFixture struct {
	fs       *source.FileSet
	arenas   *ast.Builder
	interner *source.Interner
	bag      *diag.Bag
	unit     ast.UnitID
}

func parse(t *testing.T, src string) *parseFixture {
	t.Helper()
	fx := &parseFixture{
		fs:       source.NewFileSet(),
		arenas:   ast.NewBuilder(ast.Hints{}),
		interner: source.NewInterner(),
		bag:      diag.NewBag(32),
	}
	id := fx.fs.Add("test.sol", []byte(src))
	lx := lexer.New(fx.fs.Get(id), diag.BagReporter{Bag: fx.bag})
	res := ParseUnit(lx, fx.arenas, fx.interner, Options{Reporter: diag.BagReporter{Bag: fx.bag}})
	fx.unit = res.Unit
	return fx
}

func mustClean(t *testing.T, fx *parseFixture) {
	t.Helper()
	if fx.bag.HasErrors() {
		for _, d := range fx.bag.Items() {
			t.Logf("%s %s %s", d.Severity, d.Code, d.Message)
		}
		t.Fatal("unexpected parse errors")
	}
}

func (fx *parseFixture) contract(t *testing.T, idx int) (ast.ItemID, *ast.ContractItem) {
	t.Helper()
	u := fx.arenas.Units.Get(fx.unit)
	n := 0
	for _, item := range u.Items {
		if c, ok := fx.arenas.Items.Contract(item); ok {
			if n == idx {
				return item, c
			}
			n++
		}
	}
	t.Fatalf("contract %d not found", idx)
	return ast.NoItemID, nil
}

func TestParseContractWithInheritance(t *testing.T) {
	fx := parse(t, `
pragma solidity ^0.8.0;
contract A {}
contract B is A { uint256 public total; }
`)
	mustClean(t, fx)
	_, b := fx.contract(t, 1)
	if len(b.Bases) != 1 {
		t.Fatalf("B has %d bases", len(b.Bases))
	}
	if len(b.Body) != 1 {
		t.Fatalf("B has %d members", len(b.Body))
	}
	v, ok := fx.arenas.Items.Variable(b.Body[0])
	if !ok {
		t.Fatal("member is not a variable")
	}
	if v.Visibility != ast.VisPublic {
		t.Fatalf("visibility = %v", v.Visibility)
	}
	if fx.interner.MustLookup(v.Name) != "total" {
		t.Fatalf("name = %q", fx.interner.MustLookup(v.Name))
	}
}

func TestParseFunctionHeader(t *testing.T) {
	fx := parse(t, `
contract C {
    function f(uint256 a, bytes calldata b) external payable virtual override(A, B) returns (bool ok) { return true; }
}`)
	mustClean(t, fx)
	_, c := fx.contract(t, 0)
	fn, ok := fx.arenas.Items.Function(c.Body[0])
	if !ok {
		t.Fatal("member is not a function")
	}
	if fn.Visibility != ast.VisExternal || fn.Mutability != ast.MutPayable {
		t.Fatalf("header = %v %v", fn.Visibility, fn.Mutability)
	}
	if !fn.Virtual || !fn.HasOverride || len(fn.OverrideList) != 2 {
		t.Fatalf("virtual/override = %v %v %d", fn.Virtual, fn.HasOverride, len(fn.OverrideList))
	}
	if len(fn.Params) != 2 || len(fn.Returns) != 1 {
		t.Fatalf("params/returns = %d/%d", len(fn.Params), len(fn.Returns))
	}
	if fx.arenas.Params.Get(fn.Params[1]).Location != ast.LocCalldata {
		t.Fatal("second parameter must be calldata")
	}
}

func TestParseModifierAndPlaceholder(t *testing.T) {
	fx := parse(t, `
contract C {
    modifier onlyOwner() { require(msg.sender == owner); _; }
    address owner;
}`)
	mustClean(t, fx)
	_, c := fx.contract(t, 0)
	mod, ok := fx.arenas.Items.Modifier(c.Body[0])
	if !ok {
		t.Fatal("first member is not a modifier")
	}
	blk, _ := fx.arenas.Stmts.Block(mod.Body)
	last := blk.Stmts[len(blk.Stmts)-1]
	if fx.arenas.Stmts.Get(last).Kind != ast.StmtPlaceholder {
		t.Fatal("modifier body must end with placeholder")
	}
}

// The look-ahead `Ident ('.' Ident)* ('[' ... ']')*` becomes a type when
// followed by an identifier or data location, an expression otherwise.
func TestAmbiguousTypeVsExpression(t *testing.T) {
	fx := parse(t, `
contract C {
    struct S { uint256 v; }
    S[] items;
    mapping(address => uint256) balances;
    function f() public {
        S memory s;
        items[0] = s;
        balances[msg.sender] = 1;
        C.S storage p = items[0];
        p.v = 2;
    }
}`)
	mustClean(t, fx)
	_, c := fx.contract(t, 0)
	fn, _ := fx.arenas.Items.Function(c.Body[3])
	blk, _ := fx.arenas.Stmts.Block(fn.Body)
	kinds := make([]ast.StmtKind, len(blk.Stmts))
	for i, st := range blk.Stmts {
		kinds[i] = fx.arenas.Stmts.Get(st).Kind
	}
	want := []ast.StmtKind{
		ast.StmtVarDecl, // S memory s
		ast.StmtExpr,    // items[0] = s
		ast.StmtExpr,    // balances[...] = 1
		ast.StmtVarDecl, // C.S storage p = ...
		ast.StmtExpr,    // p.v = 2
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("stmt %d kind = %v, want %v", i, kinds[i], want[i])
		}
	}
}

func TestTupleDeclarationSpeculation(t *testing.T) {
	fx := parse(t, `
contract C {
    function pair() internal pure returns (uint256, uint256) { return (1, 2); }
    function f() public {
        (uint256 a, uint256 b) = pair();
        (a, b) = (b, a);
    }
}`)
	mustClean(t, fx)
	_, c := fx.contract(t, 0)
	fn, _ := fx.arenas.Items.Function(c.Body[1])
	blk, _ := fx.arenas.Stmts.Block(fn.Body)
	if fx.arenas.Stmts.Get(blk.Stmts[0]).Kind != ast.StmtVarDecl {
		t.Fatal("first statement must be a tuple declaration")
	}
	if fx.arenas.Stmts.Get(blk.Stmts[1]).Kind != ast.StmtExpr {
		t.Fatal("second statement must be a tuple assignment expression")
	}
	decl, _ := fx.arenas.Stmts.VarDecl(blk.Stmts[0])
	if !decl.Tuple || len(decl.Decls) != 2 {
		t.Fatalf("tuple decl parts = %d", len(decl.Decls))
	}
}

func TestParseEventAndEmit(t *testing.T) {
	fx := parse(t, `
contract C {
    event Transfer(address indexed from, address indexed to, uint256 value);
    function f() public { emit Transfer(msg.sender, msg.sender, 1); }
}`)
	mustClean(t, fx)
	_, c := fx.contract(t, 0)
	ev, ok := fx.arenas.Items.Event(c.Body[0])
	if !ok {
		t.Fatal("first member is not an event")
	}
	if !fx.arenas.Params.Get(ev.Params[0]).Indexed {
		t.Fatal("first event parameter must be indexed")
	}
	if fx.arenas.Params.Get(ev.Params[2]).Indexed {
		t.Fatal("third event parameter must not be indexed")
	}
}

func TestParseAssemblyOpaque(t *testing.T) {
	fx := parse(t, `
contract C {
    function f() public pure returns (uint256 r) {
        assembly { r := add(1, { let x := 2 } ) }
    }
}`)
	// вложенные скобки сохраняются как есть
	mustClean(t, fx)
	_, c := fx.contract(t, 0)
	fn, _ := fx.arenas.Items.Function(c.Body[0])
	blk, _ := fx.arenas.Stmts.Block(fn.Body)
	asm, ok := fx.arenas.Stmts.Assembly(blk.Stmts[0])
	if !ok {
		t.Fatal("statement is not assembly")
	}
	text := fx.interner.MustLookup(asm.Text)
	if text == "" {
		t.Fatal("assembly text must be recorded verbatim")
	}
}

func TestParserErrorRecovery(t *testing.T) {
	fx := parse(t, `
contract A { function f( }
contract B {}
`)
	if !fx.bag.HasErrors() {
		t.Fatal("expected a parse error in A")
	}
	// B всё равно распознан
	found := false
	u := fx.arenas.Units.Get(fx.unit)
	for _, item := range u.Items {
		if c, ok := fx.arenas.Items.Contract(item); ok && fx.interner.MustLookup(c.Name) == "B" {
			found = true
		}
	}
	if !found {
		t.Fatal("parser must resume at the next top-level construct")
	}
}

func TestExponentRightAssociative(t *testing.T) {
	fx := parse(t, `
contract C { function f() public pure returns (uint256) { return 2 ** 3 ** 2; } }`)
	mustClean(t, fx)
	_, c := fx.contract(t, 0)
	fn, _ := fx.arenas.Items.Function(c.Body[0])
	blk, _ := fx.arenas.Stmts.Block(fn.Body)
	ret, _ := fx.arenas.Stmts.Return(blk.Stmts[0])
	bin, ok := fx.arenas.Exprs.Binary(ret.Value)
	if !ok {
		t.Fatal("return value is not binary")
	}
	// правая ассоциативность: левый операнд — литерал 2
	if _, isLit := fx.arenas.Exprs.NumberLit(bin.Left); !isLit {
		t.Fatal("2 ** (3 ** 2): left operand must be the literal")
	}
	if _, isBin := fx.arenas.Exprs.Binary(bin.Right); !isBin {
		t.Fatal("right operand must be the nested power")
	}
}

func TestRoundTrip(t *testing.T) {
	src := `
pragma solidity ^0.8.0;
contract Token {
    event Transfer(address indexed from, address indexed to, uint256 value);
    mapping(address => uint256) balances;
    uint256 public totalSupply;
    modifier positive(uint256 v) { require(v > 0); _; }
    function transfer(address to, uint256 value) public positive(value) returns (bool) {
        balances[msg.sender] = balances[msg.sender] - value;
        balances[to] = balances[to] + value;
        emit Transfer(msg.sender, to, value);
        return true;
    }
}`
	fx := parse(t, src)
	mustClean(t, fx)

	text1 := ast.NewPrinter(fx.arenas, fx.interner).Unit(fx.unit)
	fx2 := parse(t, text1)
	mustClean(t, fx2)
	text2 := ast.NewPrinter(fx2.arenas, fx2.interner).Unit(fx2.unit)
	if text1 != text2 {
		t.Fatalf("round trip not stable:\n--- first\n%s\n--- second\n%s", text1, text2)
	}
}
