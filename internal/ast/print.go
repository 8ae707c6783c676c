package ast

import (
	"fmt"
	"strings"

	"solar/internal/source"
)

// Printer re-serialises the AST to canonical source text. Parsing the
// output again yields a structurally identical tree with one exception:
// the bodies of if/else, while, do-while and for statements are always
// printed in braces, so a body that was a single statement re-parses as a
// block holding that statement. Comments and layout of the original are
// not preserved.
type Printer struct {
	b        *Builder
	interner *source.Interner
	out      strings.Builder
	indent   int
}

func NewPrinter(b *Builder, interner *source.Interner) *Printer {
	return &Printer{b: b, interner: interner}
}

func (pr *Printer) Unit(id UnitID) string {
	pr.out.Reset()
	u := pr.b.Units.Get(id)
	for _, item := range u.Items {
		pr.item(item)
	}
	return pr.out.String()
}

func (pr *Printer) name(id source.StringID) string {
	s, _ := pr.interner.Lookup(id)
	return s
}

func (pr *Printer) line(format string, args ...any) {
	pr.out.WriteString(strings.Repeat("    ", pr.indent))
	fmt.Fprintf(&pr.out, format, args...)
	pr.out.WriteByte('\n')
}

func (pr *Printer) item(id ItemID) {
	it := pr.b.Items.Get(id)
	switch it.Kind {
	case ItemPragma:
		p, _ := pr.b.Items.Pragma(id)
		pr.line("pragma %s;", pr.name(p.Text))
	case ItemImport:
		p, _ := pr.b.Items.Import(id)
		if p.Alias != source.NoStringID {
			pr.line("import %q as %s;", pr.name(p.Path), pr.name(p.Alias))
		} else {
			pr.line("import %q;", pr.name(p.Path))
		}
	case ItemContract:
		pr.contract(id)
	case ItemFunction:
		pr.function(id)
	case ItemModifier:
		pr.modifier(id)
	case ItemEvent:
		p, _ := pr.b.Items.Event(id)
		anon := ""
		if p.Anonymous {
			anon = " anonymous"
		}
		pr.line("event %s(%s)%s;", pr.name(p.Name), pr.params(p.Params), anon)
	case ItemStruct:
		p, _ := pr.b.Items.Struct(id)
		pr.line("struct %s {", pr.name(p.Name))
		pr.indent++
		for _, f := range p.Fields {
			fp := pr.b.Params.Get(f)
			pr.line("%s %s;", pr.typeName(fp.TypeName), pr.name(fp.Name))
		}
		pr.indent--
		pr.line("}")
	case ItemEnum:
		p, _ := pr.b.Items.Enum(id)
		names := make([]string, len(p.Members))
		for i, m := range p.Members {
			names[i] = pr.name(m.Name)
		}
		pr.line("enum %s { %s }", pr.name(p.Name), strings.Join(names, ", "))
	case ItemVariable:
		pr.variable(id)
	case ItemUsingFor:
		p, _ := pr.b.Items.UsingFor(id)
		target := "*"
		if p.Target.IsValid() {
			target = pr.typeName(p.Target)
		}
		pr.line("using %s for %s;", pr.typeName(p.Library), target)
	}
}

func (pr *Printer) contract(id ItemID) {
	p, _ := pr.b.Items.Contract(id)
	var head strings.Builder
	if p.Abstract {
		head.WriteString("abstract ")
	}
	head.WriteString(p.Kind.String())
	head.WriteByte(' ')
	head.WriteString(pr.name(p.Name))
	if len(p.Bases) > 0 {
		head.WriteString(" is ")
		parts := make([]string, len(p.Bases))
		for i, b := range p.Bases {
			s := pr.typeName(b.Base)
			if len(b.Args) > 0 {
				s += "(" + pr.exprList(b.Args) + ")"
			}
			parts[i] = s
		}
		head.WriteString(strings.Join(parts, ", "))
	}
	pr.line("%s {", head.String())
	pr.indent++
	for _, member := range p.Body {
		pr.item(member)
	}
	pr.indent--
	pr.line("}")
}

func (pr *Printer) function(id ItemID) {
	p, _ := pr.b.Items.Function(id)
	var h strings.Builder
	switch p.FnKind {
	case FnConstructor:
		h.WriteString("constructor")
	case FnFallback:
		h.WriteString("fallback")
	case FnReceive:
		h.WriteString("receive")
	default:
		h.WriteString("function ")
		h.WriteString(pr.name(p.Name))
	}
	h.WriteString("(" + pr.params(p.Params) + ")")
	if p.Visibility != VisDefault {
		h.WriteString(" " + p.Visibility.String())
	}
	if p.Mutability != MutNonPayable {
		h.WriteString(" " + p.Mutability.String())
	}
	if p.Virtual {
		h.WriteString(" virtual")
	}
	if p.HasOverride {
		h.WriteString(" " + pr.override(p.OverrideList))
	}
	for _, m := range p.Modifiers {
		h.WriteString(" " + pr.name(m.Name))
		if m.HasArgs {
			h.WriteString("(" + pr.exprList(m.Args) + ")")
		}
	}
	if len(p.Returns) > 0 {
		h.WriteString(" returns (" + pr.params(p.Returns) + ")")
	}
	if !p.Body.IsValid() {
		pr.line("%s;", h.String())
		return
	}
	pr.line("%s {", h.String())
	pr.blockBody(p.Body)
	pr.line("}")
}

func (pr *Printer) modifier(id ItemID) {
	p, _ := pr.b.Items.Modifier(id)
	var h strings.Builder
	h.WriteString("modifier " + pr.name(p.Name))
	if len(p.Params) > 0 {
		h.WriteString("(" + pr.params(p.Params) + ")")
	}
	if p.Virtual {
		h.WriteString(" virtual")
	}
	if p.HasOverride {
		h.WriteString(" " + pr.override(p.OverrideList))
	}
	if !p.Body.IsValid() {
		pr.line("%s;", h.String())
		return
	}
	pr.line("%s {", h.String())
	pr.blockBody(p.Body)
	pr.line("}")
}

func (pr *Printer) variable(id ItemID) {
	p, _ := pr.b.Items.Variable(id)
	var h strings.Builder
	h.WriteString(pr.typeName(p.TypeName))
	if p.Visibility != VisDefault {
		h.WriteString(" " + p.Visibility.String())
	}
	if p.Constant {
		h.WriteString(" constant")
	}
	if p.Immutable {
		h.WriteString(" immutable")
	}
	if p.HasOverride {
		h.WriteString(" " + pr.override(p.OverrideList))
	}
	h.WriteString(" " + pr.name(p.Name))
	if p.Value.IsValid() {
		h.WriteString(" = " + pr.expr(p.Value))
	}
	pr.line("%s;", h.String())
}

func (pr *Printer) override(list []TypeNameID) string {
	if len(list) == 0 {
		return "override"
	}
	parts := make([]string, len(list))
	for i, tn := range list {
		parts[i] = pr.typeName(tn)
	}
	return "override(" + strings.Join(parts, ", ") + ")"
}

func (pr *Printer) params(ids []ParamID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		p := pr.b.Params.Get(id)
		s := pr.typeName(p.TypeName)
		if p.Location != LocDefault {
			s += " " + p.Location.String()
		}
		if p.Indexed {
			s += " indexed"
		}
		if p.Name != source.NoStringID {
			s += " " + pr.name(p.Name)
		}
		parts[i] = s
	}
	return strings.Join(parts, ", ")
}

func (pr *Printer) typeName(id TypeNameID) string {
	tn := pr.b.TypeNames.Get(id)
	if tn == nil {
		return "?"
	}
	switch tn.Kind {
	case TypeNameElementary:
		p, _ := pr.b.TypeNames.Elementary(id)
		if p.Payable {
			return pr.name(p.Name) + " payable"
		}
		return pr.name(p.Name)
	case TypeNameUserDefined:
		p, _ := pr.b.TypeNames.UserDefined(id)
		parts := make([]string, len(p.Path))
		for i, seg := range p.Path {
			parts[i] = pr.name(seg)
		}
		return strings.Join(parts, ".")
	case TypeNameMapping:
		p, _ := pr.b.TypeNames.Mapping(id)
		return "mapping(" + pr.typeName(p.Key) + " => " + pr.typeName(p.Value) + ")"
	case TypeNameArray:
		p, _ := pr.b.TypeNames.Array(id)
		if p.Length.IsValid() {
			return pr.typeName(p.Base) + "[" + pr.expr(p.Length) + "]"
		}
		return pr.typeName(p.Base) + "[]"
	}
	return "?"
}

func (pr *Printer) blockBody(id StmtID) {
	pr.indent++
	if blk, ok := pr.b.Stmts.Block(id); ok {
		for _, st := range blk.Stmts {
			pr.stmt(st)
		}
	} else {
		pr.stmt(id)
	}
	pr.indent--
}

func (pr *Printer) stmt(id StmtID) {
	s := pr.b.Stmts.Get(id)
	switch s.Kind {
	case StmtBlock:
		pr.line("{")
		pr.blockBody(id)
		pr.line("}")
	case StmtIf:
		p, _ := pr.b.Stmts.If(id)
		pr.line("if (%s) {", pr.expr(p.Cond))
		pr.blockBody(p.Then)
		if p.Else.IsValid() {
			pr.line("} else {")
			pr.blockBody(p.Else)
		}
		pr.line("}")
	case StmtWhile:
		p, _ := pr.b.Stmts.While(id)
		pr.line("while (%s) {", pr.expr(p.Cond))
		pr.blockBody(p.Body)
		pr.line("}")
	case StmtDoWhile:
		p, _ := pr.b.Stmts.While(id)
		pr.line("do {")
		pr.blockBody(p.Body)
		pr.line("} while (%s);", pr.expr(p.Cond))
	case StmtFor:
		p, _ := pr.b.Stmts.For(id)
		init := ""
		if p.Init.IsValid() {
			init = strings.TrimSuffix(strings.TrimSpace(pr.capture(p.Init)), ";")
		}
		cond, post := "", ""
		if p.Cond.IsValid() {
			cond = pr.expr(p.Cond)
		}
		if p.Post.IsValid() {
			post = pr.expr(p.Post)
		}
		pr.line("for (%s; %s; %s) {", init, cond, post)
		pr.blockBody(p.Body)
		pr.line("}")
	case StmtBreak:
		pr.line("break;")
	case StmtContinue:
		pr.line("continue;")
	case StmtReturn:
		p, _ := pr.b.Stmts.Return(id)
		if p.Value.IsValid() {
			pr.line("return %s;", pr.expr(p.Value))
		} else {
			pr.line("return;")
		}
	case StmtEmit:
		p, _ := pr.b.Stmts.Emit(id)
		pr.line("emit %s;", pr.expr(p.Call))
	case StmtVarDecl:
		p, _ := pr.b.Stmts.VarDecl(id)
		pr.line("%s;", pr.varDecl(p))
	case StmtExpr:
		p, _ := pr.b.Stmts.Expr(id)
		pr.line("%s;", pr.expr(p.Expr))
	case StmtAssembly:
		p, _ := pr.b.Stmts.Assembly(id)
		pr.line("assembly {%s}", pr.name(p.Text))
	case StmtPlaceholder:
		pr.line("_;")
	}
}

// capture renders one statement into a string without touching pr.out.
func (pr *Printer) capture(id StmtID) string {
	sub := &Printer{b: pr.b, interner: pr.interner}
	sub.stmt(id)
	return sub.out.String()
}

func (pr *Printer) varDecl(p *VarDeclStmt) string {
	if p.Tuple {
		parts := make([]string, len(p.Decls))
		for i, d := range p.Decls {
			parts[i] = pr.varDeclPart(d)
		}
		return "(" + strings.Join(parts, ", ") + ") = " + pr.expr(p.Value)
	}
	s := pr.varDeclPart(p.Decls[0])
	if p.Value.IsValid() {
		s += " = " + pr.expr(p.Value)
	}
	return s
}

func (pr *Printer) varDeclPart(d VarDeclPart) string {
	if !d.TypeName.IsValid() {
		return ""
	}
	s := pr.typeName(d.TypeName)
	if d.Location != LocDefault {
		s += " " + d.Location.String()
	}
	return s + " " + pr.name(d.Name)
}

func (pr *Printer) exprList(ids []ExprID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = pr.expr(id)
	}
	return strings.Join(parts, ", ")
}

func (pr *Printer) expr(id ExprID) string {
	if !id.IsValid() {
		return ""
	}
	e := pr.b.Exprs.Get(id)
	switch e.Kind {
	case ExprIdent:
		p, _ := pr.b.Exprs.Ident(id)
		return pr.name(p.Name)
	case ExprMember:
		p, _ := pr.b.Exprs.Member(id)
		return pr.expr(p.Object) + "." + pr.name(p.Member)
	case ExprIndex:
		p, _ := pr.b.Exprs.Index(id)
		return pr.expr(p.Base) + "[" + pr.expr(p.Index) + "]"
	case ExprCall:
		p, _ := pr.b.Exprs.Call(id)
		if len(p.ArgNames) > 0 {
			parts := make([]string, len(p.Args))
			for i := range p.Args {
				parts[i] = pr.name(p.ArgNames[i]) + ": " + pr.expr(p.Args[i])
			}
			return pr.expr(p.Callee) + "({" + strings.Join(parts, ", ") + "})"
		}
		return pr.expr(p.Callee) + "(" + pr.exprList(p.Args) + ")"
	case ExprNew:
		p, _ := pr.b.Exprs.New(id)
		return "new " + pr.typeName(p.TypeName)
	case ExprBinary:
		p, _ := pr.b.Exprs.Binary(id)
		return "(" + pr.expr(p.Left) + " " + p.Op.String() + " " + pr.expr(p.Right) + ")"
	case ExprUnary:
		p, _ := pr.b.Exprs.Unary(id)
		if p.Prefix {
			return "(" + p.Op.String() + pr.expr(p.Operand) + ")"
		}
		return "(" + pr.expr(p.Operand) + p.Op.String() + ")"
	case ExprAssign:
		p, _ := pr.b.Exprs.Assign(id)
		return pr.expr(p.Left) + " " + p.Op.String() + " " + pr.expr(p.Right)
	case ExprTernary:
		p, _ := pr.b.Exprs.Ternary(id)
		return "(" + pr.expr(p.Cond) + " ? " + pr.expr(p.Then) + " : " + pr.expr(p.Else) + ")"
	case ExprTuple:
		p, _ := pr.b.Exprs.Tuple(id)
		return "(" + pr.exprList(p.Elems) + ")"
	case ExprNumberLit:
		p, _ := pr.b.Exprs.NumberLit(id)
		s := pr.name(p.Text)
		if p.Denomination != source.NoStringID {
			s += " " + pr.name(p.Denomination)
		}
		return s
	case ExprStringLit:
		p, _ := pr.b.Exprs.StringLit(id)
		return fmt.Sprintf("%q", pr.name(p.Value))
	case ExprHexLit:
		p, _ := pr.b.Exprs.HexLit(id)
		raw := pr.name(p.Value)
		var hexed strings.Builder
		for i := 0; i < len(raw); i++ {
			fmt.Fprintf(&hexed, "%02x", raw[i])
		}
		return `hex"` + hexed.String() + `"`
	case ExprBoolLit:
		p, _ := pr.b.Exprs.BoolLit(id)
		if p.Value {
			return "true"
		}
		return "false"
	case ExprElementaryType:
		p, _ := pr.b.Exprs.ElementaryType(id)
		return pr.typeName(p.TypeName)
	case ExprDelete:
		p, _ := pr.b.Exprs.Delete(id)
		return "delete " + pr.expr(p.Operand)
	}
	return "?"
}
