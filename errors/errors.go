// Package errors is the shared diagnostic-collection type used by the
// compiler (and, ultimately, anything else parsing or lowering source): one
// Error carries a kind, a message, and a source span; an ErrorReporter
// accumulates them so a single compile can report every problem it finds
// instead of stopping at the first. Adapted from the teacher's
// errors/errors.go, generalized from PHP's line/column lexer.Position to
// this project's ast.Span.
package errors

import (
	"fmt"
	"strings"

	"github.com/lumen-lang/lumen/ast"
)

type ErrorKind int

const (
	SyntaxError ErrorKind = iota
	NameError
	InternalError
)

func (k ErrorKind) String() string {
	switch k {
	case SyntaxError:
		return "SyntaxError"
	case NameError:
		return "NameError"
	case InternalError:
		return "InternalError"
	default:
		return "Error"
	}
}

// Error is one diagnostic, anchored to the source span of the node it was
// raised against.
type Error struct {
	Kind    ErrorKind
	Message string
	Span    ast.Span
	Source  string // optional: the full source text, for PrintFormatted
}

func New(kind ErrorKind, message string, span ast.Span) *Error {
	return &Error{Kind: kind, Message: message, Span: span}
}

func (e *Error) String() string {
	return fmt.Sprintf("%s at %s: %s", e.Kind, e.Span.Start, e.Message)
}

func (e *Error) Error() string { return e.String() }

// PrintFormatted renders the error with the offending source line and a
// caret pointing at the column, when Source has been attached.
func (e *Error) PrintFormatted() string {
	if e.Source == "" {
		return e.String()
	}
	lines := strings.Split(e.Source, "\n")
	line := int(e.Span.Start.Line)
	if line <= 0 || line > len(lines) {
		return e.String()
	}
	var b strings.Builder
	b.WriteString(e.String())
	b.WriteString("\n")
	fmt.Fprintf(&b, "  %d | %s\n", line, lines[line-1])
	b.WriteString("      | ")
	for i := uint32(0); i < e.Span.Start.Col; i++ {
		b.WriteString(" ")
	}
	b.WriteString("^\n")
	return b.String()
}

// ErrorList is an ordered batch of diagnostics.
type ErrorList []*Error

func (l *ErrorList) Add(e *Error)    { *l = append(*l, e) }
func (l ErrorList) HasErrors() bool  { return len(l) > 0 }
func (l ErrorList) Count() int       { return len(l) }

func (l ErrorList) String() string {
	parts := make([]string, len(l))
	for i, e := range l {
		parts[i] = e.String()
	}
	return strings.Join(parts, "\n")
}

func (l ErrorList) Error() string { return l.String() }

// ErrorReporter collects diagnostics across a single compile, optionally
// stamping each with the source text so PrintFormatted can render context.
type ErrorReporter struct {
	errors ErrorList
	source string
}

func NewErrorReporter(source string) *ErrorReporter {
	return &ErrorReporter{source: source}
}

func (r *ErrorReporter) Report(kind ErrorKind, message string, span ast.Span) {
	e := &Error{Kind: kind, Message: message, Span: span, Source: r.source}
	r.errors.Add(e)
}

func (r *ErrorReporter) Errors() ErrorList  { return r.errors }
func (r *ErrorReporter) HasErrors() bool    { return r.errors.HasErrors() }
func (r *ErrorReporter) Count() int         { return r.errors.Count() }
