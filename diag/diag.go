// Package diag renders compiler diagnostics - lexer, parser, and codegen
// errors alike - to a terminal, colorized the way the teacher's CLI colors
// its own 💥-prefixed failure output.
package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"daedalus/fileset"
	"daedalus/token"
)

// Kind classifies a Diagnostic for display (color, prefix).
type Kind int

const (
	Error Kind = iota
	Warning
	Note
)

func (k Kind) label() string {
	switch k {
	case Warning:
		return "warning"
	case Note:
		return "note"
	default:
		return "error"
	}
}

// Diagnostic is one reportable compiler message, anchored to a source span.
type Diagnostic struct {
	Kind    Kind
	Span    token.Span
	Message string
}

// List collects diagnostics in the order they are reported.
type List struct {
	items []Diagnostic
}

// Add appends one diagnostic.
func (l *List) Add(kind Kind, span token.Span, format string, args ...any) {
	l.items = append(l.items, Diagnostic{Kind: kind, Span: span, Message: fmt.Sprintf(format, args...)})
}

// Errorf is shorthand for Add(Error, ...).
func (l *List) Errorf(span token.Span, format string, args ...any) {
	l.Add(Error, span, format, args...)
}

// HasErrors reports whether any diagnostic in the list is an Error.
func (l *List) HasErrors() bool {
	for _, d := range l.items {
		if d.Kind == Error {
			return true
		}
	}
	return false
}

// Items returns every diagnostic added so far, in report order.
func (l *List) Items() []Diagnostic { return l.items }

// Len reports how many diagnostics have been collected.
func (l *List) Len() int { return len(l.items) }

// symbolDisplay renders a symbol name the way the legacy tool's ZString
// Display impl does: a leading 0xFF byte (marking an engine-reserved or
// interned name) prints as the single glyph '�' rather than the raw
// byte, since a terminal cannot otherwise show it.
func symbolDisplay(name string) string {
	if name == "" {
		return name
	}
	if name[0] == 0xFF {
		return "�" + name[1:]
	}
	return name
}

// Render writes every diagnostic in l to w, one per line, as
// "file:line:col: kind: message", colorized (red/yellow/cyan) when color is
// true. Every 0xFF byte in a message (the marker of an engine-reserved
// symbol name such as "\xFF10000") is shown as symbolDisplay's glyph.
func Render(w io.Writer, reg *fileset.Registry, l *List, useColor bool) {
	errColor := color.New(color.FgRed, color.Bold)
	warnColor := color.New(color.FgYellow, color.Bold)
	noteColor := color.New(color.FgCyan)
	errColor.EnableColor()
	warnColor.EnableColor()
	noteColor.EnableColor()
	if !useColor {
		errColor.DisableColor()
		warnColor.DisableColor()
		noteColor.DisableColor()
	}

	for _, d := range l.items {
		pos := reg.Position(d.Span)
		msg := strings.ReplaceAll(d.Message, "\xFF", symbolDisplay("\xFF"))
		var c *color.Color
		switch d.Kind {
		case Warning:
			c = warnColor
		case Note:
			c = noteColor
		default:
			c = errColor
		}
		fmt.Fprintf(w, "%s: %s\n", pos, c.Sprintf("%s: %s", d.Kind.label(), msg))
	}
}

// RenderErrors is a convenience wrapper for the common "just show me the
// errors" CLI path: it renders each err.Error() string with no source span
// (used for errors that do not carry a token.Span, e.g. codegen.Compile's
// []error return), prefixed the same way the teacher's own cmd_*.go files
// prefix failures.
func RenderErrors(w io.Writer, errs []error, useColor bool) {
	errColor := color.New(color.FgRed, color.Bold)
	errColor.EnableColor()
	if !useColor {
		errColor.DisableColor()
	}
	for _, err := range errs {
		fmt.Fprintf(w, "%s\n", errColor.Sprintf("error: %s", symbolDisplay(err.Error())))
	}
}

// Summary renders a one-line "N error(s), M warning(s)" count, or "" if l is
// empty.
func Summary(l *List) string {
	if l.Len() == 0 {
		return ""
	}
	var errs, warns int
	for _, d := range l.items {
		switch d.Kind {
		case Error:
			errs++
		case Warning:
			warns++
		}
	}
	parts := make([]string, 0, 2)
	if errs > 0 {
		parts = append(parts, pluralize(errs, "error"))
	}
	if warns > 0 {
		parts = append(parts, pluralize(warns, "warning"))
	}
	return strings.Join(parts, ", ")
}

func pluralize(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
