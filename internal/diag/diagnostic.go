// Package diag carries compile diagnostics from every phase to the host.
// Phases never abort on a reportable error; they record it here and keep
// going with sentinel values. The only remaining abort path is an internal
// assertion, which panics and is caught at the driver boundary.
package diag

import (
	"solar/internal/source"
)

// Note is a secondary span with a caption.
type Note struct {
	Span source.Span
	Msg  string
}

// Diagnostic is one compile-time finding.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
}

func New(sev Severity, code Code, primary source.Span, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Primary:  primary,
		Message:  msg,
	}
}

func NewError(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevError, code, primary, msg)
}

func NewWarning(code Code, primary source.Span, msg string) Diagnostic {
	return New(SevWarning, code, primary, msg)
}

// WithNote returns a copy of d with an extra secondary span.
func (d Diagnostic) WithNote(sp source.Span, msg string) Diagnostic {
	d.Notes = append(d.Notes[:len(d.Notes):len(d.Notes)], Note{Span: sp, Msg: msg})
	return d
}
