package object

import (
	"fmt"
	"strings"

	"github.com/lumen-lang/lumen/values"
)

// TraceEntry is one frame summary appended to an Exception's traceback as it
// unwinds (spec.md §3.5, §7 "traceback format is stable"). Entries are only
// ever appended, never reordered or removed, matching the teacher's
// append-only VMError/CallFrame trace idiom (vm/errors.go).
type TraceEntry struct {
	FunctionName string
	Filename     string
	Line         uint32
}

func (t TraceEntry) String() string {
	return fmt.Sprintf("  File \"%s\", line %d, in %s", t.Filename, t.Line, t.FunctionName)
}

// Exception is a live exception instance (spec.md §3.5): it carries the
// Class it was raised as (walked via MRO for `except` matching), the
// constructor args (conventionally exposed as `.args`), a Cause for
// `raise X from Y`, and an append-only traceback.
type Exception struct {
	Class     *Class
	Args      []*values.Value
	Message   string
	Cause     *Exception
	Context   *Exception // the exception active when this one was raised, if any
	Traceback []TraceEntry
}

func NewException(class *Class, message string, args []*values.Value) *Exception {
	return &Exception{Class: class, Message: message, Args: args}
}

func NewExceptionValue(e *Exception) *values.Value {
	return &values.Value{Kind: values.KindException, Data: e}
}

func ExceptionOf(v *values.Value) (*Exception, bool) {
	if v.Kind != values.KindException {
		return nil, false
	}
	e, ok := v.Data.(*Exception)
	return e, ok
}

// AppendTrace records one more unwound frame (spec.md §4.4: every frame the
// exception propagates through appends exactly one entry before
// re-raising).
func (e *Exception) AppendTrace(entry TraceEntry) {
	e.Traceback = append(e.Traceback, entry)
}

// Matches reports whether e would be caught by an `except class:` clause
// for the given class (spec.md §4.1: matches if class appears in e.Class's MRO).
func (e *Exception) Matches(class *Class) bool {
	return e.Class.IsSubclassOf(class)
}

// Error implements the standard error interface so an Exception can travel
// through Go's error-return plumbing inside the VM/compiler the same way
// the teacher's VMError does (vm/errors.go), unwrapped back into a Value at
// the VM boundary before being handed to user `except` clauses.
func (e *Exception) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Class.Name, e.Message)
	}
	return e.Class.Name
}

// FormatTraceback renders the full "Traceback (most recent call last):"
// block the way an uncaught exception is reported at the top level.
func (e *Exception) FormatTraceback() string {
	var b strings.Builder
	b.WriteString("Traceback (most recent call last):\n")
	for _, t := range e.Traceback {
		b.WriteString(t.String())
		b.WriteByte('\n')
	}
	b.WriteString(e.Error())
	return b.String()
}

func (e *Exception) DisplayStr() string  { return e.Error() }
func (e *Exception) DisplayRepr() string { return fmt.Sprintf("%s(%q)", e.Class.Name, e.Message) }
