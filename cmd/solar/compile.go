package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"solar/internal/abi"
	"solar/internal/ast"
	"solar/internal/diagfmt"
	"solar/internal/driver"
	"solar/internal/evm"
	"solar/internal/project"
	"solar/internal/source"
)

var compileCmd = &cobra.Command{
	Use:   "compile [flags] [files...]",
	Short: "Compile source units to bytecode and tooling artefacts",
	Long: "Compile one or more source files (or standard input when none are " +
		"given) and print the selected outputs.",
	RunE: compileExecution,
}

func init() {
	compileCmd.Flags().Bool("optimize", false, "enable the optimiser")
	compileCmd.Flags().Int("optimize-runs", 200, "expected executions for the optimiser cost model")
	compileCmd.Flags().String("evm-version", evm.DefaultVersion.String(), "target VM version")
	compileCmd.Flags().String("revert-strings", "default", "revert reason verbosity (default|strip)")
	compileCmd.Flags().StringSlice("output", []string{"bin"}, "outputs: abi, asm, bin, bin-runtime, metadata, ast")
	compileCmd.Flags().StringSlice("libraries", nil, "library address bindings name=0x...")
}

func compileExecution(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	optimize, _ := flags.GetBool("optimize")
	runs, _ := flags.GetInt("optimize-runs")
	evmVersionValue, _ := flags.GetString("evm-version")
	revertStrings, _ := flags.GetString("revert-strings")
	outputs, _ := flags.GetStringSlice("output")
	libraryFlags, _ := flags.GetStringSlice("libraries")
	colorMode, _ := cmd.Root().PersistentFlags().GetString("color")
	verbose, _ := cmd.Root().PersistentFlags().GetBool("verbose")
	maxDiagnostics, _ := cmd.Root().PersistentFlags().GetInt("max-diagnostics")

	target, err := evm.ParseVersion(evmVersionValue)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUsage)
	}
	if revertStrings != "default" && revertStrings != "strip" {
		fmt.Fprintf(os.Stderr, "invalid --revert-strings %q\n", revertStrings)
		os.Exit(exitUsage)
	}

	// solar.toml дополняет флаги
	cfg, cfgFound, err := project.Load(".")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUsage)
	}
	if cfgFound {
		if !flags.Changed("optimize") {
			optimize = cfg.Compiler.Optimize
		}
		if !flags.Changed("optimize-runs") && cfg.Compiler.OptimizeRuns > 0 {
			runs = cfg.Compiler.OptimizeRuns
		}
		if !flags.Changed("evm-version") && cfg.Compiler.EVMVersion != "" {
			if v, errV := evm.ParseVersion(cfg.Compiler.EVMVersion); errV == nil {
				target = v
			}
		}
		if !flags.Changed("output") && len(cfg.Compiler.Outputs) > 0 {
			outputs = cfg.Compiler.Outputs
		}
	}

	libraries := map[string]string{}
	for name, addr := range cfg.Libraries {
		libraries[name] = addr
	}
	for _, binding := range libraryFlags {
		name, addr, ok := strings.Cut(binding, "=")
		if !ok {
			fmt.Fprintf(os.Stderr, "invalid library binding %q (want name=0x...)\n", binding)
			os.Exit(exitUsage)
		}
		libraries[name] = addr
	}

	sources, err := readSources(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUsage)
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.WarnLevel)
	}

	res := driver.Compile(sources, driver.Settings{
		Optimize:           optimize,
		OptimizeRuns:       runs,
		EVMVersion:         target,
		StripRevertStrings: revertStrings == "strip",
		Libraries:          libraries,
		Resolver:           fileResolver(args),
		MaxDiagnostics:     maxDiagnostics,
		Log:                log,
	})

	diagfmt.Print(os.Stderr, res.FileSet, res.Diagnostics, diagfmt.Options{Color: useColor(colorMode)})
	if res.HasErrors() {
		os.Exit(exitCompile)
	}

	printOutputs(os.Stdout, res, outputs)
	return nil
}

// readSources loads the named files, or stdin when none are given.
func readSources(args []string) (map[string][]byte, error) {
	out := make(map[string][]byte)
	if len(args) == 0 {
		text, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, err
		}
		out["<stdin>"] = text
		return out, nil
	}
	for _, path := range args {
		text, err := os.ReadFile(path) // #nosec G304 -- paths come from the command line
		if err != nil {
			return nil, err
		}
		out[path] = text
	}
	return out, nil
}

// fileResolver loads imports relative to the importing unit's directory.
// The compiler core never touches the filesystem itself; this is the
// host-side port.
func fileResolver(args []string) source.ImportResolver {
	if len(args) == 0 {
		return nil
	}
	return func(path, importer string) ([]byte, error) {
		full := path
		if !filepath.IsAbs(full) {
			full = filepath.Join(filepath.Dir(importer), path)
		}
		return os.ReadFile(full) // #nosec G304 -- resolved from user sources
	}
}

func printOutputs(w io.Writer, res *driver.Result, outputs []string) {
	want := func(name string) bool { return slices.Contains(outputs, name) }

	for _, c := range res.Contracts {
		fmt.Fprintf(w, "======= %s =======\n", c.Name)
		if want("abi") {
			raw, err := abiJSON(c)
			if err == nil {
				fmt.Fprintf(w, "ABI:\n%s\n", raw)
			}
		}
		if want("asm") && c.Assembly != "" {
			fmt.Fprintf(w, "Assembly:\n%s", c.Assembly)
		}
		if want("bin") {
			fmt.Fprintf(w, "Binary:\n%s\n", hex.EncodeToString(c.Bytecode))
			printLinkRefs(w, c)
		}
		if want("bin-runtime") {
			fmt.Fprintf(w, "Runtime binary:\n%s\n", hex.EncodeToString(c.RuntimeBytecode))
		}
		if want("metadata") {
			raw, err := c.Metadata.JSON()
			if err == nil {
				fmt.Fprintf(w, "Metadata:\n%s\n", raw)
			}
		}
	}
	if want("ast") {
		pr := ast.NewPrinter(res.Arenas, res.Interner)
		for _, unit := range res.Units {
			fmt.Fprintf(w, "======= AST %s =======\n", unitPath(res, unit))
			fmt.Fprint(w, pr.Unit(unit))
		}
	}
}

func abiJSON(c *driver.ContractOutput) ([]byte, error) {
	return abi.JSON(c.ABI)
}

func unitPath(res *driver.Result, unit ast.UnitID) string {
	p, _ := res.Interner.Lookup(res.Arenas.Units.Get(unit).Path)
	return p
}

func printLinkRefs(w io.Writer, c *driver.ContractOutput) {
	for _, ref := range c.LinkRefs {
		fmt.Fprintf(w, "// link: %s at offset %d (%d bytes)\n", ref.Name, ref.Offset, ref.Width)
	}
}
