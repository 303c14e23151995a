package compiler

import (
	"fmt"

	"github.com/lumen-lang/lumen/ast"
	lumenerrors "github.com/lumen-lang/lumen/errors"
)

// syntaxErrorf records a compile-time failure (undefined nonlocal,
// break/continue outside a loop, return outside a function — spec.md §4.2)
// against the reporter and returns it so callers can short-circuit the
// statement/expression they were lowering.
func (c *Compiler) syntaxErrorf(span ast.Span, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	c.reporter.Report(lumenerrors.SyntaxError, msg, span)
	return lumenerrors.New(lumenerrors.SyntaxError, msg, span)
}
