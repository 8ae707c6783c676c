// Package driver orchestrates the pipeline: source registration and import
// resolution, parsing, semantic analysis, per-contract code generation,
// assembly, linking, and artefact extraction. One Compile invocation owns
// its arenas and caches; nothing is shared across invocations, and two runs
// over the same input produce byte-identical output.
package driver

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"solar/internal/abi"
	"solar/internal/asm"
	"solar/internal/ast"
	"solar/internal/codegen"
	"solar/internal/diag"
	"solar/internal/evm"
	"solar/internal/lexer"
	"solar/internal/metadata"
	"solar/internal/parser"
	"solar/internal/sema"
	"solar/internal/source"
	"solar/internal/types"
	"solar/internal/version"
)

// Settings parameterise one compile invocation.
type Settings struct {
	Optimize           bool
	OptimizeRuns       int
	EVMVersion         evm.Version
	StripRevertStrings bool
	// Libraries maps fully qualified names to 20-byte addresses for the
	// linker; unbound placeholders stay in the link map.
	Libraries map[string]string
	// Resolver loads imported units absent from the initial source set.
	Resolver source.ImportResolver
	// MaxDiagnostics caps the accumulated diagnostics.
	MaxDiagnostics int
	// Log receives verbose pipeline tracing; nil disables it.
	Log *logrus.Logger
}

// ContractOutput is everything emitted for one non-abstract contract.
type ContractOutput struct {
	Name            string
	Bytecode        []byte
	RuntimeBytecode []byte
	LinkRefs        []asm.LinkRef
	RuntimeLinkRefs []asm.LinkRef
	ABI             []abi.Entry
	Metadata        *metadata.Document
	Assembly        string
}

// Result is the outcome of one Compile invocation. The success contract:
// an empty error list with a non-empty output.
type Result struct {
	Contracts   []*ContractOutput
	Diagnostics *diag.Bag
	// AST gives hosts access to the annotated tree (`ast` output).
	Units    []ast.UnitID
	Arenas   *ast.Builder
	Interner *source.Interner
	Info     *sema.Info
	FileSet  *source.FileSet

	parsedFiles map[source.FileID]bool
}

// HasErrors reports whether the compile failed.
func (r *Result) HasErrors() bool {
	return r.Diagnostics.HasErrors()
}

// Compile runs the pipeline over a logical-path→text source set.
func Compile(sources map[string][]byte, settings Settings) *Result {
	if settings.MaxDiagnostics == 0 {
		settings.MaxDiagnostics = 256
	}
	if settings.OptimizeRuns == 0 {
		settings.OptimizeRuns = 200
	}
	log := settings.Log
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.PanicLevel)
	}

	bag := diag.NewBag(settings.MaxDiagnostics)
	rep := diag.BagReporter{Bag: bag}
	res := &Result{
		Diagnostics: bag,
		Arenas:      ast.NewBuilder(ast.Hints{}),
		Interner:    source.NewInterner(),
		FileSet:     source.NewFileSet(),
	}

	defer func() {
		// единственный оставшийся путь аварийного завершения —
		// внутреннее утверждение; наружу уходит диагностика
		if r := recover(); r != nil {
			bag.Add(diag.NewError(diag.InternalAssertion, source.Span{},
				fmt.Sprintf("internal compiler error: %v", r)))
		}
	}()

	// детерминированный порядок единиц: сортировка логических путей
	paths := make([]string, 0, len(sources))
	for p := range sources {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		res.FileSet.Add(p, sources[p])
	}

	// парсинг с дозагрузкой импортов через порт хоста; резолвер может
	// дописывать юниты в FileSet прямо во время обхода
	res.parsedFiles = make(map[source.FileID]bool)
	for i := 0; i < res.FileSet.Len(); i++ {
		f := res.FileSet.Get(source.FileID(i)) //nolint:gosec // i < Len()
		if res.parsedFiles[f.ID] {
			continue
		}
		res.parsedFiles[f.ID] = true
		log.WithField("unit", f.Path).Debug("parsing")
		lx := lexer.New(f, rep)
		parsed := parser.ParseUnit(lx, res.Arenas, res.Interner, parser.Options{Reporter: rep})
		res.Units = append(res.Units, parsed.Unit)
		res.resolveImports(parsed.Unit, settings, rep, log)
	}

	log.WithField("units", len(res.Units)).Debug("semantic analysis")
	provider := types.NewProvider()
	res.Info = sema.Analyze(res.Arenas, res.Interner, provider, res.Units, rep)

	if bag.HasErrors() {
		bag.Sort()
		return res
	}

	for _, contract := range res.Info.Contracts {
		res.compileContract(contract, settings, rep, log)
	}

	bag.Sort()
	bag.Dedup()
	return res
}

// resolveImports pulls missing imported units through the host resolver
// and parses them, transitively.
func (res *Result) resolveImports(unit ast.UnitID, settings Settings, rep diag.Reporter, log *logrus.Logger) {
	u := res.Arenas.Units.Get(unit)
	importer, _ := res.Interner.Lookup(u.Path)
	for _, item := range u.Items {
		imp, ok := res.Arenas.Items.Import(item)
		if !ok {
			continue
		}
		path, _ := res.Interner.Lookup(imp.Path)
		if _, loaded := res.FileSet.ByPath(path); loaded {
			continue
		}
		if settings.Resolver == nil {
			continue // sema зарепортит отсутствующий юнит
		}
		text, err := settings.Resolver(path, importer)
		if err != nil {
			rep.Report(diag.DeclImportNotFound, diag.SevError, imp.PathSpan,
				fmt.Sprintf("cannot resolve import %q: %v", path, err), nil)
			continue
		}
		id := res.FileSet.Add(path, text)
		res.parsedFiles[id] = true
		log.WithField("unit", path).Debug("parsing import")
		lx := lexer.New(res.FileSet.Get(id), rep)
		parsed := parser.ParseUnit(lx, res.Arenas, res.Interner, parser.Options{Reporter: rep})
		res.Units = append(res.Units, parsed.Unit)
		res.resolveImports(parsed.Unit, settings, rep, log)
	}
}

func (res *Result) compileContract(contract ast.ItemID, settings Settings, rep diag.Reporter, log *logrus.Logger) {
	decl, _ := res.Arenas.Items.Contract(contract)
	name, _ := res.Interner.Lookup(decl.Name)
	ann := res.Info.Ann.Contract(contract)

	out := &ContractOutput{
		Name: name,
		ABI:  abi.Build(res.Info, contract),
	}
	out.Metadata = metadata.Build(version.Plain, name, res.FileSet, metadata.Settings{
		Optimizer:  metadata.OptimizerSettings{Enabled: settings.Optimize, Runs: settings.OptimizeRuns},
		EVMVersion: settings.EVMVersion.String(),
		Libraries:  settings.Libraries,
	}, out.ABI)

	// абстрактные контракты и интерфейсы дают только ABI/метаданные
	if ann.Abstract || decl.Kind == ast.KindInterface {
		res.Contracts = append(res.Contracts, out)
		return
	}

	log.WithField("contract", name).Debug("code generation")
	compiled := codegen.CompileContract(res.Info, contract, codegen.Options{
		Target:             settings.EVMVersion,
		Optimize:           settings.Optimize,
		OptimizeRuns:       settings.OptimizeRuns,
		StripRevertStrings: settings.StripRevertStrings,
	}, rep)

	out.Assembly = compiled.Creation.String()

	// хэш метаданных становится хвостом runtime-кода до сборки, чтобы
	// развёрнутый код и артефакт bin-runtime совпадали байт в байт
	trailer, err := out.Metadata.Trailer()
	if err != nil {
		panic(fmt.Errorf("ice: metadata trailer of %s: %w", name, err))
	}
	compiled.Runtime.AppendData(trailer)

	runtimeObj, err := compiled.Runtime.Assemble()
	if err != nil {
		panic(fmt.Errorf("ice: runtime assembly of %s: %w", name, err))
	}
	creationObj, err := compiled.Creation.Assemble()
	if err != nil {
		panic(fmt.Errorf("ice: creation assembly of %s: %w", name, err))
	}

	out.RuntimeBytecode = runtimeObj.Bytes
	out.Bytecode = creationObj.Bytes
	out.LinkRefs = creationObj.LinkRefs
	out.RuntimeLinkRefs = runtimeObj.LinkRefs

	link(out.Bytecode, out.LinkRefs, settings.Libraries)
	link(out.RuntimeBytecode, out.RuntimeLinkRefs, settings.Libraries)

	res.Contracts = append(res.Contracts, out)
}

// link patches bound library addresses in place; unbound references remain
// zero-filled and stay in the link map for an external linker.
func link(code []byte, refs []asm.LinkRef, libraries map[string]string) {
	for _, ref := range refs {
		addr, ok := libraries[ref.Name]
		if !ok {
			continue
		}
		raw, err := hex.DecodeString(strings.TrimPrefix(addr, "0x"))
		if err != nil || len(raw) != ref.Width {
			continue
		}
		copy(code[ref.Offset:ref.Offset+ref.Width], raw)
	}
}
