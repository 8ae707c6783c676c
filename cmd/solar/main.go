// Package main implements the solar CLI.
package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"solar/internal/version"
)

// exit codes of the CLI surface
const (
	exitOK      = 0
	exitCompile = 1
	exitUsage   = 2
)

var rootCmd = &cobra.Command{
	Use:   "solar",
	Short: "Solar contract-language compiler",
	Long:  "Solar compiles a statically-typed contract language to stack-machine bytecode",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(tokenizeCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("verbose", false, "verbose pipeline tracing")
	rootCmd.PersistentFlags().Int("max-diagnostics", 256, "maximum number of diagnostics to show")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitUsage)
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// useColor resolves the --color tri-state.
func useColor(mode string) bool {
	switch mode {
	case "on":
		return true
	case "off":
		return false
	default:
		return isTerminal(os.Stderr)
	}
}
