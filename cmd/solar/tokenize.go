package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"solar/internal/diag"
	"solar/internal/diagfmt"
	"solar/internal/lexer"
	"solar/internal/source"
	"solar/internal/token"
)

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize <file>",
	Short: "Dump the token stream of one source unit",
	Args:  cobra.ExactArgs(1),
	RunE:  tokenizeExecution,
}

func tokenizeExecution(cmd *cobra.Command, args []string) error {
	text, err := os.ReadFile(args[0]) // #nosec G304 -- path from the command line
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUsage)
	}

	fs := source.NewFileSet()
	id := fs.Add(args[0], text)
	bag := diag.NewBag(64)
	lx := lexer.New(fs.Get(id), diag.BagReporter{Bag: bag})

	for {
		tok := lx.Next()
		if tok.Kind == token.EOF {
			break
		}
		start, _ := fs.Resolve(tok.Span)
		fmt.Printf("%4d:%-3d %-14v %q\n", start.Line, start.Col, tok.Kind, tok.Text)
	}

	colorMode, _ := cmd.Root().PersistentFlags().GetString("color")
	diagfmt.Print(os.Stderr, fs, bag, diagfmt.Options{Color: useColor(colorMode)})
	if bag.HasErrors() {
		os.Exit(exitCompile)
	}
	return nil
}
