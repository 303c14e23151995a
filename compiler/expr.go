package compiler

import (
	"github.com/lumen-lang/lumen/ast"
	"github.com/lumen-lang/lumen/opcodes"
	"github.com/lumen-lang/lumen/registry"
	"github.com/lumen-lang/lumen/values"
)

// markGenerator flags the nearest enclosing function scope as a generator
// the first time a yield/yield-from is seen in its body. func.go uses this
// to route every return in that body through RETURN_GENERATOR instead of
// RETURN_VALUE (the interpreter requires generators to end that way).
func markGenerator(sc *scope) {
	sc.isGenerator = true
	sc.flags |= registry.FlagGenerator
}

// compileExpr lowers e into instructions appended to sc and returns the
// register holding its value. The result register is often, but not always,
// the freshest one allocated: BoolOp, Compare, IfExp and the spread forms of
// list/dict literals allocate their result register before compiling their
// operands. Callers that need several values side by side (call arguments,
// container literals) therefore use stageWindow to re-pack them contiguously
// afterward rather than threading a target register through every case.
func (c *Compiler) compileExpr(sc *scope, e ast.Expression) (uint32, error) {
	switch n := e.(type) {
	case *ast.Constant:
		return c.compileConstant(sc, n)
	case *ast.Name:
		return c.compileNameLoad(sc, n)
	case *ast.BinOp:
		return c.compileBinOp(sc, n)
	case *ast.UnaryOp:
		return c.compileUnaryOp(sc, n)
	case *ast.BoolOp:
		return c.compileBoolOp(sc, n)
	case *ast.Compare:
		return c.compileCompare(sc, n)
	case *ast.Call:
		return c.compileCall(sc, n)
	case *ast.Attribute:
		return c.compileAttributeLoad(sc, n)
	case *ast.Subscript:
		return c.compileSubscriptLoad(sc, n)
	case *ast.ListExpr:
		return c.compileSequenceLiteral(sc, n.Elts, opcodes.OP_BUILD_LIST, "list")
	case *ast.TupleExpr:
		return c.compileSequenceLiteral(sc, n.Elts, opcodes.OP_BUILD_TUPLE, "tuple")
	case *ast.SetExpr:
		return c.compileSequenceLiteral(sc, n.Elts, opcodes.OP_BUILD_SET, "set")
	case *ast.DictExpr:
		return c.compileDictLiteral(sc, n)
	case *ast.Lambda:
		return c.compileLambda(sc, n)
	case *ast.IfExp:
		return c.compileIfExp(sc, n)
	case *ast.FString:
		return c.compileFString(sc, n)
	case *ast.Yield:
		return c.compileYield(sc, n)
	case *ast.YieldFrom:
		return c.compileYieldFrom(sc, n)
	case *ast.Await:
		return c.compileAwait(sc, n)
	case *ast.ListComp:
		return c.compileListComp(sc, n)
	case *ast.SetComp:
		return c.compileSetComp(sc, n)
	case *ast.DictComp:
		return c.compileDictComp(sc, n)
	case *ast.GeneratorExp:
		return c.compileGeneratorExp(sc, n)
	case *ast.Starred:
		return 0, c.internalErrorf(n.GetSpan(), "starred expression used outside a call/target context")
	default:
		return 0, c.internalErrorf(e.GetSpan(), "compiler: unhandled expression %T", e)
	}
}

func (sc *scope) moveInto(dst, src uint32) {
	if dst == src {
		return
	}
	sc.emit3(opcodes.OP_LOAD_FAST, opcodes.IS_REG, src, opcodes.IS_UNUSED, 0, opcodes.IS_REG, dst)
}

func (c *Compiler) compileConstant(sc *scope, n *ast.Constant) (uint32, error) {
	var v *values.Value
	switch n.ConstKind {
	case ast.ConstNone, ast.ConstEllipsis:
		v = values.None()
	case ast.ConstBool:
		v = values.NewBool(n.Bool)
	case ast.ConstInt:
		v = values.NewInt(n.Int)
	case ast.ConstFloat:
		v = values.NewFloat(n.Float)
	case ast.ConstStr:
		v = values.NewStr(n.Str)
	case ast.ConstBytes:
		v = values.NewBytes(n.Bytes)
	default:
		return 0, c.internalErrorf(n.GetSpan(), "compiler: unknown constant kind %d", n.ConstKind)
	}
	dst := sc.allocReg()
	sc.emit3(opcodes.OP_LOAD_CONST, opcodes.IS_CONST, sc.constIndex(v), opcodes.IS_UNUSED, 0, opcodes.IS_REG, dst)
	return dst, nil
}

func (c *Compiler) compileNameLoad(sc *scope, n *ast.Name) (uint32, error) {
	ref, err := c.resolveName(sc, n.Id, n.GetSpan())
	if err != nil {
		return 0, err
	}
	dst := sc.allocReg()
	switch ref.kind {
	case refLocal:
		sc.emit3(opcodes.OP_LOAD_FAST, opcodes.IS_REG, ref.reg, opcodes.IS_UNUSED, 0, opcodes.IS_REG, dst)
	case refGlobal:
		sc.emit3(opcodes.OP_LOAD_GLOBAL, opcodes.IS_NAME, sc.nameIdx(n.Id), opcodes.IS_UNUSED, 0, opcodes.IS_REG, dst)
	case refCell, refFree:
		sc.emit3(opcodes.OP_LOAD_DEREF, opcodes.IS_CELL, ref.idx, opcodes.IS_UNUSED, 0, opcodes.IS_REG, dst)
	default:
		sc.emit3(opcodes.OP_LOAD_NAME, opcodes.IS_NAME, sc.nameIdx(n.Id), opcodes.IS_UNUSED, 0, opcodes.IS_REG, dst)
	}
	return dst, nil
}

// compileNameStore emits the store half of an assignment to a bare name,
// reading the value already sitting in valueReg.
func (c *Compiler) compileNameStore(sc *scope, n *ast.Name, valueReg uint32) error {
	ref, err := c.resolveName(sc, n.Id, n.GetSpan())
	if err != nil {
		return err
	}
	switch ref.kind {
	case refLocal:
		sc.emit3(opcodes.OP_STORE_FAST, opcodes.IS_REG, ref.reg, opcodes.IS_UNUSED, 0, opcodes.IS_REG, valueReg)
	case refGlobal:
		sc.emit3(opcodes.OP_STORE_GLOBAL, opcodes.IS_NAME, sc.nameIdx(n.Id), opcodes.IS_UNUSED, 0, opcodes.IS_REG, valueReg)
	case refCell, refFree:
		sc.emit3(opcodes.OP_STORE_DEREF, opcodes.IS_CELL, ref.idx, opcodes.IS_UNUSED, 0, opcodes.IS_REG, valueReg)
	default:
		sc.emit3(opcodes.OP_STORE_NAME, opcodes.IS_NAME, sc.nameIdx(n.Id), opcodes.IS_UNUSED, 0, opcodes.IS_REG, valueReg)
	}
	return nil
}

func (c *Compiler) compileNameDelete(sc *scope, n *ast.Name) error {
	ref, err := c.resolveName(sc, n.Id, n.GetSpan())
	if err != nil {
		return err
	}
	switch ref.kind {
	case refLocal:
		sc.emit3(opcodes.OP_DELETE_FAST, opcodes.IS_REG, ref.reg, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0)
	case refGlobal:
		sc.emit3(opcodes.OP_DELETE_GLOBAL, opcodes.IS_NAME, sc.nameIdx(n.Id), opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0)
	default:
		return c.syntaxErrorf(n.GetSpan(), "cannot delete '%s'", n.Id)
	}
	return nil
}

var binOpcodes = map[ast.BinOpKind]opcodes.Opcode{
	ast.OpAdd: opcodes.OP_BINARY_ADD, ast.OpSub: opcodes.OP_BINARY_SUB,
	ast.OpMul: opcodes.OP_BINARY_MUL, ast.OpDiv: opcodes.OP_BINARY_DIV,
	ast.OpFloorDiv: opcodes.OP_BINARY_FLOORDIV, ast.OpMod: opcodes.OP_BINARY_MOD,
	ast.OpPow: opcodes.OP_BINARY_POW, ast.OpLShift: opcodes.OP_BINARY_LSHIFT,
	ast.OpRShift: opcodes.OP_BINARY_RSHIFT, ast.OpBitAnd: opcodes.OP_BINARY_AND,
	ast.OpBitOr: opcodes.OP_BINARY_OR, ast.OpBitXor: opcodes.OP_BINARY_XOR,
	ast.OpMatMul: opcodes.OP_BINARY_MATMUL,
}

func (c *Compiler) compileBinOp(sc *scope, n *ast.BinOp) (uint32, error) {
	l, err := c.compileExpr(sc, n.Left)
	if err != nil {
		return 0, err
	}
	r, err := c.compileExpr(sc, n.Right)
	if err != nil {
		return 0, err
	}
	op, ok := binOpcodes[n.Op]
	if !ok {
		return 0, c.internalErrorf(n.GetSpan(), "compiler: unknown binary operator %d", n.Op)
	}
	dst := sc.allocReg()
	sc.emit3(op, opcodes.IS_REG, l, opcodes.IS_REG, r, opcodes.IS_REG, dst)
	return dst, nil
}

var unaryOpcodes = map[ast.UnaryOpKind]opcodes.Opcode{
	ast.OpNeg: opcodes.OP_UNARY_NEG, ast.OpPos: opcodes.OP_UNARY_POS,
	ast.OpNot: opcodes.OP_UNARY_NOT, ast.OpInvert: opcodes.OP_UNARY_INVERT,
}

func (c *Compiler) compileUnaryOp(sc *scope, n *ast.UnaryOp) (uint32, error) {
	v, err := c.compileExpr(sc, n.Operand)
	if err != nil {
		return 0, err
	}
	op, ok := unaryOpcodes[n.Op]
	if !ok {
		return 0, c.internalErrorf(n.GetSpan(), "compiler: unknown unary operator %d", n.Op)
	}
	dst := sc.allocReg()
	sc.emit3(op, opcodes.IS_REG, v, opcodes.IS_UNUSED, 0, opcodes.IS_REG, dst)
	return dst, nil
}

// compileBoolOp lowers `and`/`or` with CPython-style short circuiting: each
// operand lands in the same result register in turn, and a JUMP_IF_*_OR_POP
// bails out (keeping that operand's value) the moment it determines the
// chain.
func (c *Compiler) compileBoolOp(sc *scope, n *ast.BoolOp) (uint32, error) {
	dst := sc.allocReg()
	var shortCircuitOp opcodes.Opcode
	if n.Op == ast.OpAnd {
		shortCircuitOp = opcodes.OP_JUMP_IF_FALSE_OR_POP
	} else {
		shortCircuitOp = opcodes.OP_JUMP_IF_TRUE_OR_POP
	}
	var patchSites []int
	for i, v := range n.Values {
		r, err := c.compileExpr(sc, v)
		if err != nil {
			return 0, err
		}
		sc.moveInto(dst, r)
		if i < len(n.Values)-1 {
			idx := sc.emit3(shortCircuitOp, opcodes.IS_REG, dst, opcodes.IS_UNUSED, 0, opcodes.IS_REG, dst)
			patchSites = append(patchSites, idx)
		}
	}
	end := sc.here()
	for _, idx := range patchSites {
		sc.patchJumpOp2(idx, uint32(end))
	}
	return dst, nil
}

var compareOpcodes = map[ast.CmpOp]opcodes.Opcode{
	ast.CmpEq: opcodes.OP_COMPARE_EQ, ast.CmpNotEq: opcodes.OP_COMPARE_NE,
	ast.CmpLt: opcodes.OP_COMPARE_LT, ast.CmpLtE: opcodes.OP_COMPARE_LE,
	ast.CmpGt: opcodes.OP_COMPARE_GT, ast.CmpGtE: opcodes.OP_COMPARE_GE,
	ast.CmpIs: opcodes.OP_COMPARE_IS, ast.CmpIsNot: opcodes.OP_COMPARE_IS_NOT,
	ast.CmpIn: opcodes.OP_CONTAINS_OP, ast.CmpNotIn: opcodes.OP_NOT_CONTAINS,
}

func (c *Compiler) compileCompare(sc *scope, n *ast.Compare) (uint32, error) {
	left, err := c.compileExpr(sc, n.Left)
	if err != nil {
		return 0, err
	}
	dst := sc.allocReg()
	var patchSites []int
	prev := left
	for i, op := range n.Ops {
		right, err := c.compileExpr(sc, n.Comparators[i])
		if err != nil {
			return 0, err
		}
		opc, ok := compareOpcodes[op]
		if !ok {
			return 0, c.internalErrorf(n.GetSpan(), "compiler: unknown comparison operator %d", op)
		}
		sc.emit3(opc, opcodes.IS_REG, prev, opcodes.IS_REG, right, opcodes.IS_REG, dst)
		if i < len(n.Ops)-1 {
			idx := sc.emit3(opcodes.OP_JUMP_IF_COMPARE_FALSE, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0, opcodes.IS_REG, dst)
			patchSites = append(patchSites, idx)
		}
		prev = right
	}
	end := sc.here()
	for _, idx := range patchSites {
		sc.patchJumpTo(idx, uint32(end))
	}
	return dst, nil
}

// compileCall lowers every call shape spec.md §8 allows: plain positional,
// keyword, and `*args`/`**kwargs` spreads. The common case (no spreads) uses
// CALL_FUNCTION/CALL_FUNCTION_KW's contiguous register window; spreads fall
// back to materializing real List/Dict values and calling through
// CALL_FUNCTION_EX, reusing the `list`/`tuple`/`dict` builtins to get the
// container Kinds those opcodes require rather than adding dedicated
// conversion opcodes.
func (c *Compiler) compileCall(sc *scope, n *ast.Call) (uint32, error) {
	hasStar := false
	for _, a := range n.Args {
		if a.Starred {
			hasStar = true
		}
	}
	hasKwSpread := false
	for _, k := range n.Keywords {
		if k.Name == "" {
			hasKwSpread = true
		}
	}

	if hasStar || hasKwSpread {
		return c.compileCallEx(sc, n)
	}

	calleeReg, err := c.compileExpr(sc, n.Func)
	if err != nil {
		return 0, err
	}
	argRegs := make([]uint32, 0, len(n.Args)+len(n.Keywords)+1)
	for _, a := range n.Args {
		r, err := c.compileExpr(sc, a.Value)
		if err != nil {
			return 0, err
		}
		argRegs = append(argRegs, r)
	}

	if len(n.Keywords) == 0 {
		window := append([]uint32{calleeReg}, argRegs...)
		base := sc.stageWindow(window)
		dst := sc.allocReg()
		sc.emit3(opcodes.OP_CALL_FUNCTION, opcodes.IS_REG, base, opcodes.IS_CONST, uint32(len(argRegs)), opcodes.IS_REG, dst)
		return dst, nil
	}

	kwNames := make([]*values.Value, 0, len(n.Keywords))
	for _, k := range n.Keywords {
		r, err := c.compileExpr(sc, k.Value)
		if err != nil {
			return 0, err
		}
		argRegs = append(argRegs, r)
		kwNames = append(kwNames, values.NewStr(k.Name))
	}
	namesConst := sc.constIndex(values.NewTuple(kwNames))
	namesReg := sc.allocReg()
	sc.emit3(opcodes.OP_LOAD_CONST, opcodes.IS_CONST, namesConst, opcodes.IS_UNUSED, 0, opcodes.IS_REG, namesReg)

	window := append([]uint32{calleeReg}, argRegs...)
	window = append(window, namesReg)
	base := sc.stageWindow(window)
	dst := sc.allocReg()
	sc.emit3(opcodes.OP_CALL_FUNCTION_KW, opcodes.IS_REG, base, opcodes.IS_CONST, uint32(len(window)-1), opcodes.IS_REG, dst)
	return dst, nil
}

// compileCallEx handles any call with a `*expr` or `**expr` argument,
// building real List/Dict values at runtime and calling through
// CALL_FUNCTION_EX (spec.md §8 extended call-site unpacking).
func (c *Compiler) compileCallEx(sc *scope, n *ast.Call) (uint32, error) {
	calleeReg, err := c.compileExpr(sc, n.Func)
	if err != nil {
		return 0, err
	}

	listReg := sc.allocReg()
	sc.emit3(opcodes.OP_BUILD_LIST, opcodes.IS_CONST, 0, opcodes.IS_REG, 0, opcodes.IS_REG, listReg)
	for _, a := range n.Args {
		r, err := c.compileExpr(sc, a.Value)
		if err != nil {
			return 0, err
		}
		if a.Starred {
			sc.emit3(opcodes.OP_LIST_EXTEND, opcodes.IS_REG, r, opcodes.IS_UNUSED, 0, opcodes.IS_REG, listReg)
		} else {
			sc.emit3(opcodes.OP_LIST_APPEND, opcodes.IS_REG, r, opcodes.IS_UNUSED, 0, opcodes.IS_REG, listReg)
		}
	}
	tupleReg, err := c.emitBuiltinCall1(sc, n.GetSpan(), "tuple", listReg)
	if err != nil {
		return 0, err
	}

	hasKwargs := len(n.Keywords) > 0
	var dictReg uint32
	if hasKwargs {
		dictReg = sc.allocReg()
		sc.emit3(opcodes.OP_BUILD_DICT, opcodes.IS_CONST, 0, opcodes.IS_REG, 0, opcodes.IS_REG, dictReg)
		for _, k := range n.Keywords {
			r, err := c.compileExpr(sc, k.Value)
			if err != nil {
				return 0, err
			}
			if k.Name == "" {
				sc.emit3(opcodes.OP_DICT_MERGE, opcodes.IS_REG, r, opcodes.IS_UNUSED, 0, opcodes.IS_REG, dictReg)
				continue
			}
			keyConst := sc.constIndex(values.NewStr(k.Name))
			keyReg := sc.allocReg()
			sc.emit3(opcodes.OP_LOAD_CONST, opcodes.IS_CONST, keyConst, opcodes.IS_UNUSED, 0, opcodes.IS_REG, keyReg)
			sc.emit3(opcodes.OP_MAP_ADD, opcodes.IS_REG, keyReg, opcodes.IS_REG, r, opcodes.IS_REG, dictReg)
		}
	}

	window := []uint32{calleeReg, tupleReg}
	if hasKwargs {
		window = append(window, dictReg)
	}
	base := sc.stageWindow(window)
	dst := sc.allocReg()
	extFlags := byte(0)
	if hasKwargs {
		extFlags = opcodes.ExtFlagKwarg
	}
	t1, t2 := opcodes.EncodeOpTypesWithFlags(opcodes.IS_REG, opcodes.IS_REG, opcodes.IS_REG, extFlags)
	sc.emit(&opcodes.Instruction{Opcode: opcodes.OP_CALL_FUNCTION_EX, OpType1: t1, OpType2: t2, Op1: base, Op2: base + 1, Result: dst})
	return dst, nil
}

// emitBuiltinCall1 calls a one-argument builtin directly (used internally
// for the list->tuple conversion compileCallEx needs); it loads the builtin
// by name, bypassing whatever LEGB shadowing applies to a bare reference.
func (c *Compiler) emitBuiltinCall1(sc *scope, span ast.Span, name string, argReg uint32) (uint32, error) {
	calleeReg := sc.allocReg()
	sc.emit3(opcodes.OP_LOAD_BUILTIN, opcodes.IS_NAME, sc.nameIdx(name), opcodes.IS_UNUSED, 0, opcodes.IS_REG, calleeReg)
	base := sc.stageWindow([]uint32{calleeReg, argReg})
	dst := sc.allocReg()
	sc.emit3(opcodes.OP_CALL_FUNCTION, opcodes.IS_REG, base, opcodes.IS_CONST, 1, opcodes.IS_REG, dst)
	return dst, nil
}

func (c *Compiler) compileAttributeLoad(sc *scope, n *ast.Attribute) (uint32, error) {
	v, err := c.compileExpr(sc, n.Value)
	if err != nil {
		return 0, err
	}
	dst := sc.allocReg()
	sc.emit3(opcodes.OP_LOAD_ATTR, opcodes.IS_REG, v, opcodes.IS_NAME, sc.nameIdx(n.Attr), opcodes.IS_REG, dst)
	return dst, nil
}

func (c *Compiler) compileSubscriptLoad(sc *scope, n *ast.Subscript) (uint32, error) {
	v, err := c.compileExpr(sc, n.Value)
	if err != nil {
		return 0, err
	}
	idx, err := c.compileSubscriptIndex(sc, n.Index)
	if err != nil {
		return 0, err
	}
	dst := sc.allocReg()
	sc.emit3(opcodes.OP_BINARY_SUBSCR, opcodes.IS_REG, v, opcodes.IS_REG, idx, opcodes.IS_REG, dst)
	return dst, nil
}

// compileSubscriptIndex compiles a subscript's index operand, building a
// Slice value for `a:b:c` syntax (spec.md §8; BUILD_SLICE has no step
// operand, a known interpreter limitation — step is parsed but dropped).
func (c *Compiler) compileSubscriptIndex(sc *scope, idx ast.Expression) (uint32, error) {
	sl, ok := idx.(*ast.Slice)
	if !ok {
		return c.compileExpr(sc, idx)
	}
	var lowerReg, upperReg uint32
	var err error
	if sl.Lower != nil {
		lowerReg, err = c.compileExpr(sc, sl.Lower)
	} else {
		lowerReg, err = c.compileNoneConst(sc)
	}
	if err != nil {
		return 0, err
	}
	if sl.Upper != nil {
		upperReg, err = c.compileExpr(sc, sl.Upper)
	} else {
		upperReg, err = c.compileNoneConst(sc)
	}
	if err != nil {
		return 0, err
	}
	dst := sc.allocReg()
	sc.emit3(opcodes.OP_BUILD_SLICE, opcodes.IS_REG, lowerReg, opcodes.IS_REG, upperReg, opcodes.IS_REG, dst)
	return dst, nil
}

func (c *Compiler) compileNoneConst(sc *scope) (uint32, error) {
	dst := sc.allocReg()
	sc.emit3(opcodes.OP_LOAD_CONST, opcodes.IS_CONST, sc.constIndex(values.None()), opcodes.IS_UNUSED, 0, opcodes.IS_REG, dst)
	return dst, nil
}

// compileSequenceLiteral handles list/tuple/set literals; a `*expr` element
// forces the slower build-as-list-then-extend path, converting to the
// target container with the corresponding builtin at the end.
func (c *Compiler) compileSequenceLiteral(sc *scope, elts []ast.Expression, buildOp opcodes.Opcode, builtinName string) (uint32, error) {
	hasStar := false
	for _, e := range elts {
		if _, ok := e.(*ast.Starred); ok {
			hasStar = true
		}
	}
	if !hasStar {
		regs := make([]uint32, len(elts))
		for i, e := range elts {
			r, err := c.compileExpr(sc, e)
			if err != nil {
				return 0, err
			}
			regs[i] = r
		}
		base := sc.stageWindow(regs)
		dst := sc.allocReg()
		sc.emit3(buildOp, opcodes.IS_CONST, uint32(len(regs)), opcodes.IS_REG, base, opcodes.IS_REG, dst)
		return dst, nil
	}

	listReg := sc.allocReg()
	sc.emit3(opcodes.OP_BUILD_LIST, opcodes.IS_CONST, 0, opcodes.IS_REG, 0, opcodes.IS_REG, listReg)
	for _, e := range elts {
		if st, ok := e.(*ast.Starred); ok {
			r, err := c.compileExpr(sc, st.Value)
			if err != nil {
				return 0, err
			}
			sc.emit3(opcodes.OP_LIST_EXTEND, opcodes.IS_REG, r, opcodes.IS_UNUSED, 0, opcodes.IS_REG, listReg)
			continue
		}
		r, err := c.compileExpr(sc, e)
		if err != nil {
			return 0, err
		}
		sc.emit3(opcodes.OP_LIST_APPEND, opcodes.IS_REG, r, opcodes.IS_UNUSED, 0, opcodes.IS_REG, listReg)
	}
	if builtinName == "list" {
		return listReg, nil
	}
	span := ast.Span{}
	if len(elts) > 0 {
		span = elts[0].GetSpan()
	}
	return c.emitBuiltinCall1(sc, span, builtinName, listReg)
}

func (c *Compiler) compileDictLiteral(sc *scope, n *ast.DictExpr) (uint32, error) {
	hasSpread := false
	for _, k := range n.Keys {
		if k == nil {
			hasSpread = true
		}
	}
	if !hasSpread {
		window := make([]uint32, 0, len(n.Values)*2)
		for i, v := range n.Values {
			kr, err := c.compileExpr(sc, n.Keys[i])
			if err != nil {
				return 0, err
			}
			vr, err := c.compileExpr(sc, v)
			if err != nil {
				return 0, err
			}
			window = append(window, kr, vr)
		}
		base := sc.stageWindow(window)
		dst := sc.allocReg()
		sc.emit3(opcodes.OP_BUILD_DICT, opcodes.IS_CONST, uint32(len(n.Values)), opcodes.IS_REG, base, opcodes.IS_REG, dst)
		return dst, nil
	}

	dictReg := sc.allocReg()
	sc.emit3(opcodes.OP_BUILD_DICT, opcodes.IS_CONST, 0, opcodes.IS_REG, 0, opcodes.IS_REG, dictReg)
	for i, v := range n.Values {
		if n.Keys[i] == nil {
			r, err := c.compileExpr(sc, v)
			if err != nil {
				return 0, err
			}
			sc.emit3(opcodes.OP_DICT_MERGE, opcodes.IS_REG, r, opcodes.IS_UNUSED, 0, opcodes.IS_REG, dictReg)
			continue
		}
		kr, err := c.compileExpr(sc, n.Keys[i])
		if err != nil {
			return 0, err
		}
		vr, err := c.compileExpr(sc, v)
		if err != nil {
			return 0, err
		}
		sc.emit3(opcodes.OP_MAP_ADD, opcodes.IS_REG, kr, opcodes.IS_REG, vr, opcodes.IS_REG, dictReg)
	}
	return dictReg, nil
}

func (c *Compiler) compileIfExp(sc *scope, n *ast.IfExp) (uint32, error) {
	testReg, err := c.compileExpr(sc, n.Test)
	if err != nil {
		return 0, err
	}
	dst := sc.allocReg()
	elseJump := sc.emit3(opcodes.OP_POP_JUMP_IF_FALSE, opcodes.IS_REG, testReg, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0)
	bodyReg, err := c.compileExpr(sc, n.Body)
	if err != nil {
		return 0, err
	}
	sc.moveInto(dst, bodyReg)
	endJump := sc.emit3(opcodes.OP_JUMP, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0)
	sc.patchJumpOp2(elseJump, uint32(sc.here()))
	elseReg, err := c.compileExpr(sc, n.OrElse)
	if err != nil {
		return 0, err
	}
	sc.moveInto(dst, elseReg)
	sc.patchJumpTo(endJump, uint32(sc.here()))
	return dst, nil
}

func (c *Compiler) compileFString(sc *scope, n *ast.FString) (uint32, error) {
	regs := make([]uint32, len(n.Parts))
	for i, p := range n.Parts {
		if cst, ok := p.(*ast.Constant); ok && cst.ConstKind == ast.ConstStr {
			r, err := c.compileExpr(sc, cst)
			if err != nil {
				return 0, err
			}
			regs[i] = r
			continue
		}
		v, err := c.compileExpr(sc, p)
		if err != nil {
			return 0, err
		}
		formatted := sc.allocReg()
		sc.emit3(opcodes.OP_FORMAT_VALUE, opcodes.IS_REG, v, opcodes.IS_UNUSED, 0, opcodes.IS_REG, formatted)
		regs[i] = formatted
	}
	base := sc.stageWindow(regs)
	dst := sc.allocReg()
	sc.emit3(opcodes.OP_BUILD_STRING, opcodes.IS_CONST, uint32(len(regs)), opcodes.IS_REG, base, opcodes.IS_REG, dst)
	return dst, nil
}

func (c *Compiler) compileYield(sc *scope, n *ast.Yield) (uint32, error) {
	markGenerator(sc)
	var valReg uint32
	var err error
	if n.Value != nil {
		valReg, err = c.compileExpr(sc, n.Value)
	} else {
		valReg, err = c.compileNoneConst(sc)
	}
	if err != nil {
		return 0, err
	}
	dst := sc.allocReg()
	sc.emit3(opcodes.OP_YIELD_VALUE, opcodes.IS_REG, valReg, opcodes.IS_UNUSED, 0, opcodes.IS_REG, dst)
	return dst, nil
}

func (c *Compiler) compileYieldFrom(sc *scope, n *ast.YieldFrom) (uint32, error) {
	markGenerator(sc)
	v, err := c.compileExpr(sc, n.Value)
	if err != nil {
		return 0, err
	}
	iterReg := sc.allocReg()
	sc.emit3(opcodes.OP_GET_ITER, opcodes.IS_REG, v, opcodes.IS_UNUSED, 0, opcodes.IS_REG, iterReg)
	dst := sc.allocReg()
	sc.emit3(opcodes.OP_YIELD_FROM, opcodes.IS_REG, iterReg, opcodes.IS_UNUSED, 0, opcodes.IS_REG, dst)
	return dst, nil
}

func (c *Compiler) compileAwait(sc *scope, n *ast.Await) (uint32, error) {
	v, err := c.compileExpr(sc, n.Value)
	if err != nil {
		return 0, err
	}
	dst := sc.allocReg()
	sc.emit3(opcodes.OP_AWAIT, opcodes.IS_REG, v, opcodes.IS_UNUSED, 0, opcodes.IS_REG, dst)
	return dst, nil
}
