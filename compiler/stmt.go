package compiler

import (
	"github.com/lumen-lang/lumen/ast"
	"github.com/lumen-lang/lumen/opcodes"
)

// compileStmt lowers one statement, appending instructions to sc.
func (c *Compiler) compileStmt(sc *scope, s ast.Statement) error {
	switch n := s.(type) {
	case *ast.ExprStmt:
		_, err := c.compileExpr(sc, n.Value)
		return err
	case *ast.Assign:
		return c.compileAssign(sc, n)
	case *ast.AugAssign:
		return c.compileAugAssign(sc, n)
	case *ast.AnnAssign:
		return c.compileAnnAssign(sc, n)
	case *ast.If:
		return c.compileIf(sc, n)
	case *ast.While:
		return c.compileWhile(sc, n)
	case *ast.For:
		return c.compileFor(sc, n)
	case *ast.With:
		return c.compileWith(sc, n.Items, n.Body)
	case *ast.Try:
		return c.compileTry(sc, n)
	case *ast.Raise:
		return c.compileRaise(sc, n)
	case *ast.Return:
		return c.compileReturn(sc, n)
	case *ast.Break:
		return c.compileBreak(sc, n)
	case *ast.Continue:
		return c.compileContinue(sc, n)
	case *ast.Pass:
		return nil
	case *ast.Global, *ast.Nonlocal:
		return nil // resolved entirely at pre-scan time; nothing to emit
	case *ast.Delete:
		return c.compileDelete(sc, n)
	case *ast.Import:
		return c.compileImport(sc, n)
	case *ast.ImportFrom:
		return c.compileImportFrom(sc, n)
	case *ast.FunctionDef:
		return c.compileFunctionDef(sc, n)
	case *ast.ClassDef:
		return c.compileClassDef(sc, n)
	default:
		return c.internalErrorf(s.GetSpan(), "compiler: unhandled statement %T", s)
	}
}

func (c *Compiler) compileStmts(sc *scope, stmts []ast.Statement) error {
	for _, s := range stmts {
		if err := c.compileStmt(sc, s); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compileAssign(sc *scope, n *ast.Assign) error {
	valReg, err := c.compileExpr(sc, n.Value)
	if err != nil {
		return err
	}
	for _, target := range n.Targets {
		if err := c.compileAssignTarget(sc, target, valReg); err != nil {
			return err
		}
	}
	return nil
}

// compileAssignTarget stores the value already sitting in valueReg into
// target, handling plain names, attribute/subscript targets, and nested
// tuple/list unpacking (spec.md §8 extended unpacking, including `*rest`).
func (c *Compiler) compileAssignTarget(sc *scope, target ast.Expression, valueReg uint32) error {
	switch t := target.(type) {
	case *ast.Name:
		return c.compileNameStore(sc, t, valueReg)
	case *ast.Attribute:
		objReg, err := c.compileExpr(sc, t.Value)
		if err != nil {
			return err
		}
		sc.emit3(opcodes.OP_STORE_ATTR, opcodes.IS_REG, objReg, opcodes.IS_NAME, sc.nameIdx(t.Attr), opcodes.IS_REG, valueReg)
		return nil
	case *ast.Subscript:
		objReg, err := c.compileExpr(sc, t.Value)
		if err != nil {
			return err
		}
		idxReg, err := c.compileSubscriptIndex(sc, t.Index)
		if err != nil {
			return err
		}
		sc.emit3(opcodes.OP_STORE_SUBSCR, opcodes.IS_REG, objReg, opcodes.IS_REG, idxReg, opcodes.IS_REG, valueReg)
		return nil
	case *ast.TupleExpr:
		return c.compileUnpackTarget(sc, t.Elts, valueReg)
	case *ast.ListExpr:
		return c.compileUnpackTarget(sc, t.Elts, valueReg)
	case *ast.Starred:
		return c.internalErrorf(t.GetSpan(), "compiler: starred target outside an unpacking context")
	default:
		return c.internalErrorf(target.GetSpan(), "compiler: invalid assignment target %T", target)
	}
}

// compileUnpackTarget lowers `a, b = x`/`a, *b, c = x` style targets via
// UNPACK_SEQUENCE or, when one element is starred, UNPACK_EX.
func (c *Compiler) compileUnpackTarget(sc *scope, elts []ast.Expression, valueReg uint32) error {
	starIdx := -1
	for i, e := range elts {
		if _, ok := e.(*ast.Starred); ok {
			starIdx = i
			break
		}
	}
	if starIdx == -1 {
		n := uint32(len(elts))
		base := sc.stageWindow(make([]uint32, n)) // reserve n fresh contiguous registers
		sc.emit3(opcodes.OP_UNPACK_SEQUENCE, opcodes.IS_REG, valueReg, opcodes.IS_CONST, n, opcodes.IS_REG, base)
		for i, e := range elts {
			if err := c.compileAssignTarget(sc, e, base+uint32(i)); err != nil {
				return err
			}
		}
		return nil
	}

	before := starIdx
	after := len(elts) - starIdx - 1
	total := before + 1 + after
	base := sc.stageWindow(make([]uint32, total))
	packed := uint32(before)<<16 | uint32(after)
	sc.emit3(opcodes.OP_UNPACK_EX, opcodes.IS_REG, valueReg, opcodes.IS_CONST, packed, opcodes.IS_REG, base)
	for i := 0; i < before; i++ {
		if err := c.compileAssignTarget(sc, elts[i], base+uint32(i)); err != nil {
			return err
		}
	}
	starTarget := elts[starIdx].(*ast.Starred)
	if err := c.compileAssignTarget(sc, starTarget.Value, base+uint32(before)); err != nil {
		return err
	}
	for i := 0; i < after; i++ {
		if err := c.compileAssignTarget(sc, elts[starIdx+1+i], base+uint32(before+1+i)); err != nil {
			return err
		}
	}
	return nil
}

// compileAugAssign lowers `target op= value`. The target is first evaluated
// in load context (handling Name/Attribute/Subscript alike), combined with
// the right-hand side, then written back with the ordinary store path —
// `+=` gets the dedicated INPLACE_ADD opcode, every other operator reuses
// its plain binary opcode with the target register doing double duty as
// both an operand and the result.
func (c *Compiler) compileAugAssign(sc *scope, n *ast.AugAssign) error {
	curReg, err := c.compileExpr(sc, n.Target)
	if err != nil {
		return err
	}
	rhsReg, err := c.compileExpr(sc, n.Value)
	if err != nil {
		return err
	}
	if n.Op == ast.OpAdd {
		sc.emit3(opcodes.OP_INPLACE_ADD, opcodes.IS_REG, rhsReg, opcodes.IS_UNUSED, 0, opcodes.IS_REG, curReg)
	} else {
		opc, ok := binOpcodes[n.Op]
		if !ok {
			return c.internalErrorf(n.GetSpan(), "compiler: unknown augmented operator %d", n.Op)
		}
		sc.emit3(opc, opcodes.IS_REG, curReg, opcodes.IS_REG, rhsReg, opcodes.IS_REG, curReg)
	}
	return c.compileAssignTarget(sc, n.Target, curReg)
}

// compileAnnAssign lowers `target: annotation [= value]`. The annotation
// expression is never evaluated — this interpreter doesn't track runtime
// type annotations, only the assignment it optionally carries.
func (c *Compiler) compileAnnAssign(sc *scope, n *ast.AnnAssign) error {
	if n.Value == nil {
		return nil
	}
	valReg, err := c.compileExpr(sc, n.Value)
	if err != nil {
		return err
	}
	return c.compileAssignTarget(sc, n.Target, valReg)
}

func (c *Compiler) compileIf(sc *scope, n *ast.If) error {
	testReg, err := c.compileExpr(sc, n.Test)
	if err != nil {
		return err
	}
	elseJump := sc.emit3(opcodes.OP_POP_JUMP_IF_FALSE, opcodes.IS_REG, testReg, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0)
	if err := c.compileStmts(sc, n.Body); err != nil {
		return err
	}
	if len(n.OrElse) == 0 {
		sc.patchJumpOp2(elseJump, uint32(sc.here()))
		return nil
	}
	endJump := sc.emit3(opcodes.OP_JUMP, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0)
	sc.patchJumpOp2(elseJump, uint32(sc.here()))
	if err := c.compileStmts(sc, n.OrElse); err != nil {
		return err
	}
	sc.patchJumpTo(endJump, uint32(sc.here()))
	return nil
}

// compileWhile lowers the loop body under a SETUP_LOOP block so `break`
// has somewhere to unwind to, and re-evaluates Test at the top of every
// iteration. OrElse runs only when the loop exits via test-false, never via
// `break` — matched by jumping straight past it from BREAK_LOOP's handler.
func (c *Compiler) compileWhile(sc *scope, n *ast.While) error {
	setupIdx := sc.emit3(opcodes.OP_SETUP_LOOP, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0)
	headIP := sc.here()
	sc.loops = append(sc.loops, loopCtx{headIP: headIP})

	testReg, err := c.compileExpr(sc, n.Test)
	if err != nil {
		return err
	}
	exitJump := sc.emit3(opcodes.OP_POP_JUMP_IF_FALSE, opcodes.IS_REG, testReg, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0)
	if err := c.compileStmts(sc, n.Body); err != nil {
		return err
	}
	sc.emit3(opcodes.OP_CONTINUE_LOOP, opcodes.IS_UNUSED, uint32(headIP), opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0)

	sc.loops = sc.loops[:len(sc.loops)-1]
	sc.patchJumpOp2(exitJump, uint32(sc.here()))
	sc.emit3(opcodes.OP_POP_BLOCK, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0)
	if err := c.compileStmts(sc, n.OrElse); err != nil {
		return err
	}
	sc.patchJumpTo(setupIdx, uint32(sc.here()))
	return nil
}

// compileFor lowers over GET_ITER/FOR_ITER, the same loop-block discipline
// as While. FOR_ITER jumps to the loop's exit once its iterator is
// exhausted, landing exactly where While's test-false path lands.
func (c *Compiler) compileFor(sc *scope, n *ast.For) error {
	iterSrc, err := c.compileExpr(sc, n.Iter)
	if err != nil {
		return err
	}
	iterReg := sc.allocReg()
	sc.emit3(opcodes.OP_GET_ITER, opcodes.IS_REG, iterSrc, opcodes.IS_UNUSED, 0, opcodes.IS_REG, iterReg)

	setupIdx := sc.emit3(opcodes.OP_SETUP_LOOP, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0)
	headIP := sc.here()
	sc.loops = append(sc.loops, loopCtx{headIP: headIP})

	valReg := sc.allocReg()
	exitJump := sc.emit3(opcodes.OP_FOR_ITER, opcodes.IS_REG, iterReg, opcodes.IS_UNUSED, 0, opcodes.IS_REG, valReg)
	if err := c.compileAssignTarget(sc, n.Target, valReg); err != nil {
		return err
	}
	if err := c.compileStmts(sc, n.Body); err != nil {
		return err
	}
	sc.emit3(opcodes.OP_CONTINUE_LOOP, opcodes.IS_UNUSED, uint32(headIP), opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0)

	sc.loops = sc.loops[:len(sc.loops)-1]
	sc.patchJumpOp2(exitJump, uint32(sc.here()))
	sc.emit3(opcodes.OP_POP_BLOCK, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0)
	if err := c.compileStmts(sc, n.OrElse); err != nil {
		return err
	}
	sc.patchJumpTo(setupIdx, uint32(sc.here()))
	return nil
}

// compileWith lowers one `with expr [as target]:` clause and recurses for
// the remaining items, matching Python's `with a, b:` == nested `with a:
// with b:` desugaring. On normal completion it runs __exit__ with no
// exception via WITH_CLEANUP; on an unwound exception it lands at
// WITH_EXCEPT_START instead (frame.Pending still set) and re-raises unless
// __exit__ reports the exception suppressed.
func (c *Compiler) compileWith(sc *scope, items []*ast.WithItem, body []ast.Statement) error {
	if len(items) == 0 {
		return c.compileStmts(sc, body)
	}
	item := items[0]
	ctxReg, err := c.compileExpr(sc, item.ContextExpr)
	if err != nil {
		return err
	}
	enterReg := sc.allocReg()
	setupIdx := sc.emit3(opcodes.OP_SETUP_WITH, opcodes.IS_REG, ctxReg, opcodes.IS_UNUSED, 0, opcodes.IS_REG, enterReg)
	if item.OptionalVar != nil {
		if err := c.compileAssignTarget(sc, item.OptionalVar, enterReg); err != nil {
			return err
		}
	}

	if err := c.compileWith(sc, items[1:], body); err != nil {
		return err
	}

	sc.emit3(opcodes.OP_POP_BLOCK, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0)
	normalDst := sc.allocReg()
	sc.emit3(opcodes.OP_WITH_CLEANUP, opcodes.IS_REG, ctxReg, opcodes.IS_UNUSED, 0, opcodes.IS_REG, normalDst)
	endJump := sc.emit3(opcodes.OP_JUMP, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0)

	sc.patchJumpOp2(setupIdx, uint32(sc.here()))
	suppressedReg := sc.allocReg()
	sc.emit3(opcodes.OP_WITH_EXCEPT_START, opcodes.IS_REG, ctxReg, opcodes.IS_UNUSED, 0, opcodes.IS_REG, suppressedReg)
	skipReraise := sc.emit3(opcodes.OP_POP_JUMP_IF_TRUE, opcodes.IS_REG, suppressedReg, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0)
	sc.emit3(opcodes.OP_RAISE_VARARGS, opcodes.IS_CONST, 0, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0)
	sc.patchJumpOp2(skipReraise, uint32(sc.here()))

	sc.patchJumpTo(endJump, uint32(sc.here()))
	return nil
}

// compileTry lowers try/except/else/finally. A SETUP_FINALLY block (if a
// finally clause is present) wraps a SETUP_EXCEPT block (if handlers are
// present); both converge on the same fallthrough point so the finally body
// runs exactly once whichever path got there — the normal path explicitly
// POP_BLOCKs first, the unwind path arrives with the block already popped
// by unwindToHandler.
func (c *Compiler) compileTry(sc *scope, n *ast.Try) error {
	hasFinally := len(n.Finally) > 0
	hasHandlers := len(n.Handlers) > 0

	var finallySetup int
	if hasFinally {
		finallySetup = sc.emit3(opcodes.OP_SETUP_FINALLY, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0)
	}
	var exceptSetup int
	if hasHandlers {
		exceptSetup = sc.emit3(opcodes.OP_SETUP_EXCEPT, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0)
	}

	if err := c.compileStmts(sc, n.Body); err != nil {
		return err
	}

	if hasHandlers {
		sc.emit3(opcodes.OP_POP_BLOCK, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0)
	}
	if err := c.compileStmts(sc, n.OrElse); err != nil {
		return err
	}

	if hasHandlers {
		afterDispatch := sc.emit3(opcodes.OP_JUMP, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0)
		sc.patchJumpTo(exceptSetup, uint32(sc.here()))

		excReg := sc.allocReg()
		sc.emit3(opcodes.OP_LOAD_EXC, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0, opcodes.IS_REG, excReg)

		var endJumps []int
		for _, h := range n.Handlers {
			var nextHandler int
			hasNext := h.ExceptType != nil
			if hasNext {
				classReg, err := c.compileExpr(sc, h.ExceptType)
				if err != nil {
					return err
				}
				matchReg := sc.allocReg()
				sc.emit3(opcodes.OP_CHECK_EXC_MATCH, opcodes.IS_REG, excReg, opcodes.IS_REG, classReg, opcodes.IS_REG, matchReg)
				nextHandler = sc.emit3(opcodes.OP_POP_JUMP_IF_FALSE, opcodes.IS_REG, matchReg, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0)
			}
			if h.Name != "" {
				if err := c.compileNameStoreString(sc, h.Name, h.GetSpan(), excReg); err != nil {
					return err
				}
			}
			if err := c.compileStmts(sc, h.Body); err != nil {
				return err
			}
			sc.emit3(opcodes.OP_POP_EXCEPT, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0)
			endJumps = append(endJumps, sc.emit3(opcodes.OP_JUMP, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0))
			if hasNext {
				sc.patchJumpOp2(nextHandler, uint32(sc.here()))
			}
		}
		sc.emit3(opcodes.OP_RERAISE, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0)

		end := uint32(sc.here())
		sc.patchJumpTo(afterDispatch, end)
		for _, idx := range endJumps {
			sc.patchJumpTo(idx, end)
		}
	}

	if hasFinally {
		sc.emit3(opcodes.OP_POP_BLOCK, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0)
		sc.patchJumpTo(finallySetup, uint32(sc.here()))
		if err := c.compileStmts(sc, n.Finally); err != nil {
			return err
		}
		sc.emit3(opcodes.OP_END_FINALLY, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0)
	}
	return nil
}

func (c *Compiler) compileRaise(sc *scope, n *ast.Raise) error {
	if n.Exc == nil {
		sc.emit3(opcodes.OP_RAISE_VARARGS, opcodes.IS_CONST, 0, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0)
		return nil
	}
	excReg, err := c.compileExpr(sc, n.Exc)
	if err != nil {
		return err
	}
	if n.Cause == nil {
		sc.emit3(opcodes.OP_RAISE_VARARGS, opcodes.IS_CONST, 1, opcodes.IS_REG, excReg, opcodes.IS_UNUSED, 0)
		return nil
	}
	causeReg, err := c.compileExpr(sc, n.Cause)
	if err != nil {
		return err
	}
	sc.emit3(opcodes.OP_RAISE_VARARGS, opcodes.IS_CONST, 2, opcodes.IS_REG, excReg, opcodes.IS_REG, causeReg)
	return nil
}

func (c *Compiler) compileReturn(sc *scope, n *ast.Return) error {
	var valReg uint32
	var err error
	if n.Value != nil {
		valReg, err = c.compileExpr(sc, n.Value)
	} else {
		valReg, err = c.compileNoneConst(sc)
	}
	if err != nil {
		return err
	}
	if sc.isGenerator {
		sc.emit3(opcodes.OP_RETURN_GENERATOR, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0)
		return nil
	}
	sc.emit3(opcodes.OP_RETURN_VALUE, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0, opcodes.IS_REG, valReg)
	return nil
}

func (c *Compiler) compileBreak(sc *scope, n *ast.Break) error {
	if len(sc.loops) == 0 {
		return c.syntaxErrorf(n.GetSpan(), "'break' outside loop")
	}
	sc.emit3(opcodes.OP_BREAK_LOOP, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0)
	return nil
}

func (c *Compiler) compileContinue(sc *scope, n *ast.Continue) error {
	if len(sc.loops) == 0 {
		return c.syntaxErrorf(n.GetSpan(), "'continue' not properly in loop")
	}
	head := sc.loops[len(sc.loops)-1].headIP
	sc.emit3(opcodes.OP_CONTINUE_LOOP, opcodes.IS_UNUSED, uint32(head), opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0)
	return nil
}

func (c *Compiler) compileDelete(sc *scope, n *ast.Delete) error {
	for _, t := range n.Targets {
		if err := c.compileDeleteTarget(sc, t); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compileDeleteTarget(sc *scope, target ast.Expression) error {
	switch t := target.(type) {
	case *ast.Name:
		return c.compileNameDelete(sc, t)
	case *ast.Attribute:
		v, err := c.compileExpr(sc, t.Value)
		if err != nil {
			return err
		}
		sc.emit3(opcodes.OP_DELETE_ATTR, opcodes.IS_REG, v, opcodes.IS_NAME, sc.nameIdx(t.Attr), opcodes.IS_UNUSED, 0)
		return nil
	case *ast.Subscript:
		v, err := c.compileExpr(sc, t.Value)
		if err != nil {
			return err
		}
		idx, err := c.compileSubscriptIndex(sc, t.Index)
		if err != nil {
			return err
		}
		sc.emit3(opcodes.OP_DELETE_SUBSCR, opcodes.IS_REG, v, opcodes.IS_REG, idx, opcodes.IS_UNUSED, 0)
		return nil
	case *ast.TupleExpr:
		for _, e := range t.Elts {
			if err := c.compileDeleteTarget(sc, e); err != nil {
				return err
			}
		}
		return nil
	case *ast.ListExpr:
		for _, e := range t.Elts {
			if err := c.compileDeleteTarget(sc, e); err != nil {
				return err
			}
		}
		return nil
	default:
		return c.internalErrorf(target.GetSpan(), "compiler: invalid delete target %T", target)
	}
}

func (c *Compiler) compileImport(sc *scope, n *ast.Import) error {
	for _, alias := range n.Names {
		modReg := sc.allocReg()
		sc.emit3(opcodes.OP_IMPORT_NAME, opcodes.IS_NAME, sc.nameIdx(alias.Name), opcodes.IS_UNUSED, 0, opcodes.IS_REG, modReg)
		bindName := alias.Name
		if alias.AsName != "" {
			bindName = alias.AsName
		}
		if err := c.compileNameStoreString(sc, bindName, n.GetSpan(), modReg); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compileImportFrom(sc *scope, n *ast.ImportFrom) error {
	modReg := sc.allocReg()
	sc.emit3(opcodes.OP_IMPORT_NAME, opcodes.IS_NAME, sc.nameIdx(n.Module), opcodes.IS_UNUSED, 0, opcodes.IS_REG, modReg)
	for _, alias := range n.Names {
		if alias.Name == "*" {
			sc.emit3(opcodes.OP_IMPORT_STAR, opcodes.IS_REG, modReg, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0)
			continue
		}
		valReg := sc.allocReg()
		sc.emit3(opcodes.OP_IMPORT_FROM, opcodes.IS_REG, modReg, opcodes.IS_NAME, sc.nameIdx(alias.Name), opcodes.IS_REG, valReg)
		bindName := alias.Name
		if alias.AsName != "" {
			bindName = alias.AsName
		}
		if err := c.compileNameStoreString(sc, bindName, n.GetSpan(), valReg); err != nil {
			return err
		}
	}
	return nil
}

// compileNameStoreString is compileNameStore for a name known only as a
// string (import bindings, `except E as name`) rather than an *ast.Name
// node already carrying a resolved span.
func (c *Compiler) compileNameStoreString(sc *scope, name string, span ast.Span, valueReg uint32) error {
	synthetic := &ast.Name{BaseNode: ast.BaseNode{Span: span}, Id: name, Ctx: ast.CtxStore}
	return c.compileNameStore(sc, synthetic, valueReg)
}
