// Package compiler lowers a parsed ast.Module into a registry.CodeObject
// tree of bytecode the vm package can execute directly (spec.md §3.2/§4.2).
// It performs no parsing of its own; callers hand it an already-built
// ast.Module (e.g. unmarshaled from the JSON syntax tree cmd/lumenc reads).
package compiler

import (
	"fmt"

	"github.com/lumen-lang/lumen/ast"
	lumenerrors "github.com/lumen-lang/lumen/errors"
	"github.com/lumen-lang/lumen/opcodes"
	"github.com/lumen-lang/lumen/registry"
	"github.com/lumen-lang/lumen/values"
)

// Compiler holds the state threaded through one compile of a single module.
// It is not reused across modules.
type Compiler struct {
	filename string
	reporter *lumenerrors.ErrorReporter
	current  *scope
}

// Compile lowers mod into a module-level CodeObject. filename is recorded
// on every emitted CodeObject for tracebacks, and source (if non-empty) lets
// diagnostics print the offending line.
func Compile(mod *ast.Module, filename string, source string) (*registry.CodeObject, error) {
	c := &Compiler{
		filename: filename,
		reporter: lumenerrors.NewErrorReporter(source),
	}
	sc := newScope(scopeModule, nil, mod, filename)
	c.current = sc
	prescanLocals(mod.Body, sc)
	for _, stmt := range mod.Body {
		if err := c.compileStmt(sc, stmt); err != nil {
			return nil, err
		}
	}
	noneReg := sc.allocReg()
	sc.emit3(opcodes.OP_LOAD_CONST, opcodes.IS_CONST, sc.constIndex(values.None()), opcodes.IS_UNUSED, 0, opcodes.IS_REG, noneReg)
	sc.emit3(opcodes.OP_RETURN_VALUE, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0, opcodes.IS_REG, noneReg)
	co := sc.finalize("<module>", nil)
	if c.reporter.HasErrors() {
		return nil, c.reporter.Errors()
	}
	return co, nil
}

// pushScope opens a nested scope (function body, lambda body, class body, or
// a generator expression's hidden function), pre-scans its locals, and
// makes it current for the duration of fn.
func (c *Compiler) pushScope(kind scopeKind, node ast.Node, body []ast.Statement, qualName string) *scope {
	sc := newScope(kind, c.current, node, c.filename)
	sc.qualName = qualName
	prescanLocals(body, sc)
	c.current = sc
	return sc
}

func (c *Compiler) popScope() {
	c.current = c.current.parent
}

func (c *Compiler) internalErrorf(span ast.Span, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	c.reporter.Report(lumenerrors.InternalError, msg, span)
	return lumenerrors.New(lumenerrors.InternalError, msg, span)
}
