package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"solar/internal/ast"
	"solar/internal/diag"
	"solar/internal/diagfmt"
	"solar/internal/lexer"
	"solar/internal/parser"
	"solar/internal/source"
)

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse one source unit and re-serialise its AST",
	Args:  cobra.ExactArgs(1),
	RunE:  parseExecution,
}

func parseExecution(cmd *cobra.Command, args []string) error {
	text, err := os.ReadFile(args[0]) // #nosec G304 -- path from the command line
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUsage)
	}

	fs := source.NewFileSet()
	id := fs.Add(args[0], text)
	bag := diag.NewBag(64)
	rep := diag.BagReporter{Bag: bag}
	arenas := ast.NewBuilder(ast.Hints{})
	interner := source.NewInterner()

	lx := lexer.New(fs.Get(id), rep)
	res := parser.ParseUnit(lx, arenas, interner, parser.Options{Reporter: rep})

	fmt.Print(ast.NewPrinter(arenas, interner).Unit(res.Unit))

	colorMode, _ := cmd.Root().PersistentFlags().GetString("color")
	diagfmt.Print(os.Stderr, fs, bag, diagfmt.Options{Color: useColor(colorMode)})
	if bag.HasErrors() {
		os.Exit(exitCompile)
	}
	return nil
}
