// Package diagfmt renders diagnostics for humans: severity-colored
// headers, the offending source line, and a caret underline aligned with
// display width rather than byte count.
package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"solar/internal/diag"
	"solar/internal/source"
)

type Options struct {
	Color bool
}

var (
	errColor  = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow, color.Bold)
	infoColor = color.New(color.FgCyan, color.Bold)
	posColor  = color.New(color.Bold)
)

// Print renders every diagnostic of the bag to w.
func Print(w io.Writer, fs *source.FileSet, bag *diag.Bag, opts Options) {
	prev := color.NoColor
	color.NoColor = !opts.Color
	defer func() { color.NoColor = prev }()

	for _, d := range bag.Items() {
		printOne(w, fs, d)
	}
	if n := countErrors(bag); n > 0 {
		fmt.Fprintf(w, "%s: %d error(s) found\n", errColor.Sprint("compilation failed"), n)
	}
}

func countErrors(bag *diag.Bag) int {
	n := 0
	for _, d := range bag.Items() {
		if d.Severity >= diag.SevError {
			n++
		}
	}
	return n
}

func printOne(w io.Writer, fs *source.FileSet, d diag.Diagnostic) {
	var header string
	switch d.Severity {
	case diag.SevError:
		header = errColor.Sprintf("error[%s]", d.Code)
	case diag.SevWarning:
		header = warnColor.Sprintf("warning[%s]", d.Code)
	default:
		header = infoColor.Sprintf("info[%s]", d.Code)
	}
	fmt.Fprintf(w, "%s: %s\n", header, d.Message)
	printSpan(w, fs, d.Primary, "^")
	for _, note := range d.Notes {
		fmt.Fprintf(w, "  note: %s\n", note.Msg)
		printSpan(w, fs, note.Span, "-")
	}
}

func printSpan(w io.Writer, fs *source.FileSet, sp source.Span, marker string) {
	if fs == nil || int(sp.File) >= fs.Len() {
		return
	}
	f := fs.Get(sp.File)
	start, end := fs.Resolve(sp)
	fmt.Fprintf(w, "  %s %s:%d:%d\n", posColor.Sprint("-->"), f.Path, start.Line, start.Col)

	line := f.Line(start.Line)
	if line == "" {
		return
	}
	fmt.Fprintf(w, "   | %s\n", line)

	// выравнивание каретки по экранной ширине префикса
	prefixWidth := 0
	col := int(start.Col) - 1
	if col > len(line) {
		col = len(line)
	}
	prefixWidth = runewidth.StringWidth(line[:col])

	width := 1
	if start.Line == end.Line && end.Col > start.Col {
		to := int(end.Col) - 1
		if to > len(line) {
			to = len(line)
		}
		width = runewidth.StringWidth(line[col:to])
		if width < 1 {
			width = 1
		}
	}
	fmt.Fprintf(w, "   | %s%s\n", strings.Repeat(" ", prefixWidth), strings.Repeat(marker, width))
}
