package compiler

import (
	"github.com/lumen-lang/lumen/ast"
	"github.com/lumen-lang/lumen/opcodes"
	"github.com/lumen-lang/lumen/registry"
	"github.com/lumen-lang/lumen/values"
)

// compileListComp, compileSetComp and compileDictComp compile inline, as
// ordinary GET_ITER/FOR_ITER loops directly in the enclosing scope, rather
// than as synthetic nested functions — a documented simplification whose
// consequence is that a comprehension's loop variables leak into the
// enclosing scope, Python-2 style (prescanLocals already accounts for this:
// it descends into comprehension targets instead of skipping them). A true
// GeneratorExp gets its own generator-function scope below, since its whole
// point is to defer iteration.
func (c *Compiler) compileListComp(sc *scope, n *ast.ListComp) (uint32, error) {
	listReg := sc.allocReg()
	sc.emit3(opcodes.OP_BUILD_LIST, opcodes.IS_CONST, 0, opcodes.IS_UNUSED, 0, opcodes.IS_REG, listReg)
	err := c.compileComprehensionBody(sc, n.Gens, 0, func() error {
		eltReg, err := c.compileExpr(sc, n.Elt)
		if err != nil {
			return err
		}
		sc.emit3(opcodes.OP_LIST_APPEND, opcodes.IS_REG, eltReg, opcodes.IS_UNUSED, 0, opcodes.IS_REG, listReg)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return listReg, nil
}

func (c *Compiler) compileSetComp(sc *scope, n *ast.SetComp) (uint32, error) {
	setReg := sc.allocReg()
	sc.emit3(opcodes.OP_BUILD_SET, opcodes.IS_CONST, 0, opcodes.IS_UNUSED, 0, opcodes.IS_REG, setReg)
	err := c.compileComprehensionBody(sc, n.Gens, 0, func() error {
		eltReg, err := c.compileExpr(sc, n.Elt)
		if err != nil {
			return err
		}
		sc.emit3(opcodes.OP_SET_ADD, opcodes.IS_REG, eltReg, opcodes.IS_UNUSED, 0, opcodes.IS_REG, setReg)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return setReg, nil
}

func (c *Compiler) compileDictComp(sc *scope, n *ast.DictComp) (uint32, error) {
	dictReg := sc.allocReg()
	sc.emit3(opcodes.OP_BUILD_DICT, opcodes.IS_CONST, 0, opcodes.IS_UNUSED, 0, opcodes.IS_REG, dictReg)
	err := c.compileComprehensionBody(sc, n.Gens, 0, func() error {
		keyReg, err := c.compileExpr(sc, n.Key)
		if err != nil {
			return err
		}
		valReg, err := c.compileExpr(sc, n.Value)
		if err != nil {
			return err
		}
		sc.emit3(opcodes.OP_MAP_ADD, opcodes.IS_REG, keyReg, opcodes.IS_REG, valReg, opcodes.IS_REG, dictReg)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return dictReg, nil
}

// compileComprehensionBody recursively lowers gens[idx:] into nested
// GET_ITER/FOR_ITER loops with each clause's `if` guards short-circuiting
// straight back to the next iteration, calling emitElt once the innermost
// loop's targets and guards are all satisfied. There is no SETUP_LOOP block
// here: a comprehension can't contain `break`/`continue`, so there's nothing
// for one to unwind to.
func (c *Compiler) compileComprehensionBody(sc *scope, gens []*ast.Comprehension, idx int, emitElt func() error) error {
	if idx == len(gens) {
		return emitElt()
	}
	g := gens[idx]
	srcReg, err := c.compileExpr(sc, g.Iter)
	if err != nil {
		return err
	}
	return c.compileComprehensionLoop(sc, srcReg, g, gens, idx, emitElt)
}

// compileComprehensionLoop wraps one already-evaluated iterable source in a
// GET_ITER/FOR_ITER loop binding g.Target and checking g.Ifs, then descends
// into gens[idx+1:] (or emitElt at the last clause) before looping back.
func (c *Compiler) compileComprehensionLoop(sc *scope, srcReg uint32, g *ast.Comprehension, gens []*ast.Comprehension, idx int, emitElt func() error) error {
	iterReg := sc.allocReg()
	sc.emit3(opcodes.OP_GET_ITER, opcodes.IS_REG, srcReg, opcodes.IS_UNUSED, 0, opcodes.IS_REG, iterReg)
	headIP := sc.here()
	valReg := sc.allocReg()
	exitJump := sc.emit3(opcodes.OP_FOR_ITER, opcodes.IS_REG, iterReg, opcodes.IS_UNUSED, 0, opcodes.IS_REG, valReg)
	if err := c.compileAssignTarget(sc, g.Target, valReg); err != nil {
		return err
	}

	var skipJumps []int
	for _, cond := range g.Ifs {
		condReg, err := c.compileExpr(sc, cond)
		if err != nil {
			return err
		}
		skipJumps = append(skipJumps, sc.emit3(opcodes.OP_POP_JUMP_IF_FALSE, opcodes.IS_REG, condReg, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0))
	}

	if err := c.compileComprehensionBody(sc, gens, idx+1, emitElt); err != nil {
		return err
	}

	for _, j := range skipJumps {
		sc.patchJumpOp2(j, uint32(sc.here()))
	}
	sc.emit3(opcodes.OP_JUMP, opcodes.IS_UNUSED, uint32(headIP), opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0)
	sc.patchJumpOp2(exitJump, uint32(sc.here()))
	return nil
}

// compileGeneratorExp lowers `(elt for ... )` into its own generator-function
// scope, matching Python's actual desugaring: only the outermost iterable is
// evaluated eagerly (in the enclosing scope, passed in as the generator's
// sole positional parameter), every inner `for`'s iterable is re-evaluated
// lazily inside the generator body.
func (c *Compiler) compileGeneratorExp(sc *scope, n *ast.GeneratorExp) (uint32, error) {
	if len(n.Gens) == 0 {
		return 0, c.internalErrorf(n.GetSpan(), "compiler: generator expression with no clauses")
	}
	outerIterReg, err := c.compileExpr(sc, n.Gens[0].Iter)
	if err != nil {
		return 0, err
	}

	genScope := c.pushScope(scopeFunction, n, nil, qualNameFor(sc, "<genexpr>"))
	genScope.isGenerator = true
	genScope.flags |= registry.FlagGenerator
	if sc.kind != scopeModule {
		genScope.flags |= registry.FlagNested
	}
	argReg := genScope.bindLocal(".0")
	params := []*registry.Parameter{{Name: ".0", Kind: registry.ParamPositional}}

	err = c.compileComprehensionLoop(genScope, argReg, n.Gens[0], n.Gens, 0, func() error {
		eltReg, err := c.compileExpr(genScope, n.Elt)
		if err != nil {
			return err
		}
		dst := genScope.allocReg()
		genScope.emit3(opcodes.OP_YIELD_VALUE, opcodes.IS_REG, eltReg, opcodes.IS_UNUSED, 0, opcodes.IS_REG, dst)
		return nil
	})
	if err != nil {
		c.popScope()
		return 0, err
	}
	noneReg := genScope.allocReg()
	genScope.emit3(opcodes.OP_LOAD_CONST, opcodes.IS_CONST, genScope.constIndex(values.None()), opcodes.IS_UNUSED, 0, opcodes.IS_REG, noneReg)
	genScope.emit3(opcodes.OP_RETURN_GENERATOR, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0, opcodes.IS_REG, noneReg)
	co := genScope.finalize("<genexpr>", params)
	c.popScope()

	proto := &values.Value{Kind: values.KindClosure, Data: &values.Closure{Proto: co, Name: "<genexpr>"}}
	protoReg := sc.allocReg()
	sc.emit3(opcodes.OP_MAKE_FUNCTION, opcodes.IS_CONST, sc.constIndex(proto), opcodes.IS_UNUSED, 0, opcodes.IS_REG, protoReg)

	base := sc.stageWindow([]uint32{protoReg, outerIterReg})
	dst := sc.allocReg()
	sc.emit3(opcodes.OP_CALL_FUNCTION, opcodes.IS_REG, base, opcodes.IS_CONST, 1, opcodes.IS_REG, dst)
	return dst, nil
}
