// Package sema performs name resolution, inheritance linearisation, type
// checking, and override legality over the parsed units. It runs in three
// sub-phases: declaration registration, reference resolution, and type
// checking; the override checker follows. Errors never abort the pass — a
// sentinel type stands in so later phases keep producing diagnostics.
package sema

import (
	"solar/internal/ast"
	"solar/internal/diag"
	"solar/internal/source"
	"solar/internal/types"
)

// Info is everything later stages need from semantic analysis.
type Info struct {
	Arenas   *ast.Builder
	Interner *source.Interner
	Provider *types.Provider
	Ann      *ast.Annotations

	UnitScopes     map[ast.UnitID]*Scope
	ContractScopes map[ast.ItemID]*Scope
	Members        map[ast.ItemID]*MemberTable

	// Units in compile order; Contracts in deterministic declaration
	// order across units.
	Units     []ast.UnitID
	Contracts []ast.ItemID

	// LocalDecls maps identifier expressions resolved to local declarations
	// (parameters and var-decl statements) which are not Items.
	LocalDecls map[ast.ExprID]*Local

	// StateLayout per contract: state variables in slot order.
	StateLayout map[ast.ItemID][]ast.ItemID

	reporter diag.Reporter
	// getters lists the materialised getter functions per contract.
	getters map[ast.ItemID][]ast.ItemID
	// paramTypes caches the resolved type of every declared parameter.
	paramTypes map[ast.ParamID]types.TypeID
	// freeFnScope is the unit scope while checking a free function.
	freeFnScope *Scope
}

// Getters returns the synthesized getter functions of a contract, in state
// variable declaration order.
func (info *Info) Getters(contract ast.ItemID) []ast.ItemID {
	return info.getters[contract]
}

// Local is a function-scoped binding: a parameter, named return, or
// var-decl statement component.
type Local struct {
	Name source.StringID
	Type types.TypeID
	Span source.Span
	// Param / VarDecl provenance (one of them set).
	Param    ast.ParamID
	DeclStmt ast.StmtID
	DeclIdx  int
	Used     bool
}

// Analyze runs every semantic phase over the given units.
func Analyze(
	arenas *ast.Builder,
	interner *source.Interner,
	provider *types.Provider,
	units []ast.UnitID,
	reporter diag.Reporter,
) *Info {
	info := &Info{
		Arenas:         arenas,
		Interner:       interner,
		Provider:       provider,
		Ann:            ast.NewAnnotations(),
		UnitScopes:     make(map[ast.UnitID]*Scope),
		ContractScopes: make(map[ast.ItemID]*Scope),
		Members:        make(map[ast.ItemID]*MemberTable),
		LocalDecls:     make(map[ast.ExprID]*Local),
		StateLayout:    make(map[ast.ItemID][]ast.ItemID),
		reporter:       reporter,
	}
	info.Units = append(info.Units, units...)

	// Phase A: declaration registration.
	info.registerUnits(units)

	// Inheritance: resolve base names, linearise, build member tables,
	// materialise getters.
	info.resolveInheritance()

	// Phase B + C interleave naturally: declaration types first, then
	// expression checking. Abstractness needs signatures but must precede
	// body checking (`new` on an abstract contract is a type error).
	info.resolveDeclarationTypes()
	for _, contract := range info.Contracts {
		info.computeAbstractness(contract)
	}
	info.checkBodies()

	// Override legality and lattice ambiguity (C6).
	info.checkOverrides()

	info.computeInterfaces()
	return info
}

func (info *Info) errorAt(code diag.Code, sp source.Span, msg string, notes ...diag.Note) {
	if info.reporter != nil {
		info.reporter.Report(code, diag.SevError, sp, msg, notes)
	}
}

func (info *Info) warnAt(code diag.Code, sp source.Span, msg string) {
	if info.reporter != nil {
		info.reporter.Report(code, diag.SevWarning, sp, msg, nil)
	}
}

func (info *Info) lookupName(s string) source.StringID {
	return info.Interner.Intern(s)
}

func (info *Info) spell(id source.StringID) string {
	s, _ := info.Interner.Lookup(id)
	return s
}
