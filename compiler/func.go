package compiler

import (
	"github.com/lumen-lang/lumen/ast"
	"github.com/lumen-lang/lumen/opcodes"
	"github.com/lumen-lang/lumen/registry"
	"github.com/lumen-lang/lumen/values"
)

// qualNameFor builds the dotted qualname a nested def/class/lambda carries
// for tracebacks and repr(), matching the enclosing scope's own qualname.
func qualNameFor(sc *scope, name string) string {
	if sc.qualName == "" {
		return name
	}
	return sc.qualName + "." + name
}

// constantFold evaluates e at compile time for use as a parameter default.
// MAKE_FUNCTION reads Defaults/KwDefaults off the prototype Closure sitting
// in the constant pool (vm_calls.go execMakeFunction), so — unlike a
// CPython-style default that's computed once at def-time from an arbitrary
// expression — a default here must already be a value by the time the
// enclosing CodeObject's constant pool is built. Literal constants and a
// leading unary +/- on a numeric literal cover the overwhelming majority of
// real default values; anything else is rejected.
func (c *Compiler) constantFold(e ast.Expression) (*values.Value, error) {
	switch n := e.(type) {
	case *ast.Constant:
		return constantFromNode(n), nil
	case *ast.UnaryOp:
		if n.Op != ast.OpNeg && n.Op != ast.OpPos {
			break
		}
		inner, err := c.constantFold(n.Operand)
		if err != nil {
			return nil, err
		}
		if n.Op == ast.OpPos && (inner.Kind == values.KindInt || inner.Kind == values.KindFloat) {
			return inner, nil
		}
		switch inner.Kind {
		case values.KindInt:
			return values.NewInt(-inner.Data.(int64)), nil
		case values.KindFloat:
			return values.NewFloat(-inner.Data.(float64)), nil
		}
	}
	return nil, c.syntaxErrorf(e.GetSpan(), "default value must be a constant expression")
}

func constantFromNode(n *ast.Constant) *values.Value {
	switch n.ConstKind {
	case ast.ConstNone, ast.ConstEllipsis:
		return values.None()
	case ast.ConstBool:
		return values.NewBool(n.Bool)
	case ast.ConstInt:
		return values.NewInt(n.Int)
	case ast.ConstFloat:
		return values.NewFloat(n.Float)
	case ast.ConstStr:
		return values.NewStr(n.Str)
	case ast.ConstBytes:
		return values.NewBytes(n.Bytes)
	}
	return values.None()
}

// compileParams folds every parameter's default into a constant-pool value
// and builds the registry.Parameter list callClosure needs to bind
// arguments, without touching the enclosing scope's registers — nothing
// here is evaluated at the call site, only at compile time.
func (c *Compiler) compileParams(params []*ast.Param) ([]*registry.Parameter, []*values.Value, map[string]*values.Value, error) {
	regParams := make([]*registry.Parameter, 0, len(params))
	var defaults []*values.Value
	kwDefaults := make(map[string]*values.Value)
	for _, p := range params {
		rp := &registry.Parameter{
			Name:          p.Name,
			Kind:          registry.ParamKind(p.Kind),
			HasAnnotation: p.Annotation != nil,
		}
		if p.Default != nil {
			v, err := c.constantFold(p.Default)
			if err != nil {
				return nil, nil, nil, err
			}
			rp.HasDefault = true
			if p.Kind == ast.ParamKeywordOnly {
				kwDefaults[p.Name] = v
			} else {
				rp.DefaultIndex = len(defaults)
				defaults = append(defaults, v)
			}
		}
		regParams = append(regParams, rp)
	}
	return regParams, defaults, kwDefaults, nil
}

// applyDecorator compiles decoratorExpr and calls it with targetReg as its
// sole argument, matching Python's `name = decorator(name)` desugaring.
func (c *Compiler) applyDecorator(sc *scope, decoratorExpr ast.Expression, targetReg uint32) (uint32, error) {
	calleeReg, err := c.compileExpr(sc, decoratorExpr)
	if err != nil {
		return 0, err
	}
	base := sc.stageWindow([]uint32{calleeReg, targetReg})
	dst := sc.allocReg()
	sc.emit3(opcodes.OP_CALL_FUNCTION, opcodes.IS_REG, base, opcodes.IS_CONST, 1, opcodes.IS_REG, dst)
	return dst, nil
}

// compileFunctionDef lowers a def statement into a nested CodeObject plus a
// MAKE_FUNCTION at the definition site, then binds the (possibly decorated)
// closure to the function's name in whichever scope the def lives in —
// module, enclosing function, or class body, all three resolved identically
// by compileNameStoreString.
func (c *Compiler) compileFunctionDef(sc *scope, n *ast.FunctionDef) error {
	n.IsGenerator = containsYield(n.Body)
	regParams, defaults, kwDefaults, err := c.compileParams(n.Params)
	if err != nil {
		return err
	}

	fnScope := c.pushScope(scopeFunction, n, n.Body, qualNameFor(sc, n.Name))
	if sc.kind != scopeModule {
		fnScope.flags |= registry.FlagNested
	}
	if n.IsGenerator {
		fnScope.isGenerator = true
		fnScope.flags |= registry.FlagGenerator
	}
	if n.IsAsync {
		fnScope.flags |= registry.FlagAsync
	}
	for _, p := range n.Params {
		fnScope.bindLocal(p.Name)
		switch p.Kind {
		case ast.ParamVarArgs:
			fnScope.flags |= registry.FlagVarArgs
		case ast.ParamVarKwargs:
			fnScope.flags |= registry.FlagVarKwargs
		}
	}
	if usesBareSuper(n.Body) {
		fnScope.freeVars = append(fnScope.freeVars, "__class__")
		fnScope.freeVarIndex["__class__"] = 0
	}

	if err := c.compileStmts(fnScope, n.Body); err != nil {
		c.popScope()
		return err
	}
	noneReg := fnScope.allocReg()
	fnScope.emit3(opcodes.OP_LOAD_CONST, opcodes.IS_CONST, fnScope.constIndex(values.None()), opcodes.IS_UNUSED, 0, opcodes.IS_REG, noneReg)
	if n.IsGenerator {
		fnScope.emit3(opcodes.OP_RETURN_GENERATOR, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0, opcodes.IS_REG, noneReg)
	} else {
		fnScope.emit3(opcodes.OP_RETURN_VALUE, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0, opcodes.IS_REG, noneReg)
	}
	co := fnScope.finalize(n.Name, regParams)
	c.popScope()

	proto := &values.Value{Kind: values.KindClosure, Data: &values.Closure{
		Proto: co, Name: n.Name, Defaults: defaults, KwDefaults: kwDefaults,
	}}
	closureReg := sc.allocReg()
	sc.emit3(opcodes.OP_MAKE_FUNCTION, opcodes.IS_CONST, sc.constIndex(proto), opcodes.IS_UNUSED, 0, opcodes.IS_REG, closureReg)

	finalReg := closureReg
	for i := len(n.Decorators) - 1; i >= 0; i-- {
		d := n.Decorators[i]
		if sc.kind == scopeClass {
			if id, ok := d.Expr.(*ast.Name); ok {
				if id.Id == "staticmethod" {
					sc.staticMethodNames = append(sc.staticMethodNames, n.Name)
					continue
				}
				if id.Id == "classmethod" {
					sc.classMethodNames = append(sc.classMethodNames, n.Name)
					continue
				}
			}
		}
		var derr error
		finalReg, derr = c.applyDecorator(sc, d.Expr, finalReg)
		if derr != nil {
			return derr
		}
	}
	return c.compileNameStoreString(sc, n.Name, n.GetSpan(), finalReg)
}

// compileLambda is compileFunctionDef's miniature cousin: a single implicit
// `return <Body>`, no statements, no decorators, never a generator — Python
// forbids yield inside a lambda.
func (c *Compiler) compileLambda(sc *scope, n *ast.Lambda) (uint32, error) {
	regParams, defaults, kwDefaults, err := c.compileParams(n.Params)
	if err != nil {
		return 0, err
	}

	fnScope := c.pushScope(scopeFunction, n, nil, qualNameFor(sc, "<lambda>"))
	if sc.kind != scopeModule {
		fnScope.flags |= registry.FlagNested
	}
	for _, p := range n.Params {
		fnScope.bindLocal(p.Name)
	}
	bodyReg, err := c.compileExpr(fnScope, n.Body)
	if err != nil {
		c.popScope()
		return 0, err
	}
	fnScope.emit3(opcodes.OP_RETURN_VALUE, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0, opcodes.IS_REG, bodyReg)
	co := fnScope.finalize("<lambda>", regParams)
	c.popScope()

	proto := &values.Value{Kind: values.KindClosure, Data: &values.Closure{
		Proto: co, Name: "<lambda>", Defaults: defaults, KwDefaults: kwDefaults,
	}}
	dst := sc.allocReg()
	sc.emit3(opcodes.OP_MAKE_FUNCTION, opcodes.IS_CONST, sc.constIndex(proto), opcodes.IS_UNUSED, 0, opcodes.IS_REG, dst)
	return dst, nil
}

// compileClassDef lowers a class body into a zero-arg synthetic function
// that returns a namespace Dict (BUILD_CLASS's expected input), calls it
// immediately, then combines the resulting namespace with the evaluated
// bases into a Class via BUILD_CLASS.
func (c *Compiler) compileClassDef(sc *scope, n *ast.ClassDef) error {
	baseRegs := make([]uint32, 0, len(n.Bases))
	for _, b := range n.Bases {
		r, err := c.compileExpr(sc, b)
		if err != nil {
			return err
		}
		baseRegs = append(baseRegs, r)
	}
	basesBase := sc.stageWindow(baseRegs)
	basesReg := sc.allocReg()
	sc.emit3(opcodes.OP_BUILD_TUPLE, opcodes.IS_CONST, uint32(len(baseRegs)), opcodes.IS_REG, basesBase, opcodes.IS_REG, basesReg)

	classScope := c.pushScope(scopeClass, n, n.Body, qualNameFor(sc, n.Name))
	if err := c.compileStmts(classScope, n.Body); err != nil {
		c.popScope()
		return err
	}
	nsReg, err := c.buildClassNamespace(classScope)
	if err != nil {
		c.popScope()
		return err
	}
	classScope.emit3(opcodes.OP_RETURN_VALUE, opcodes.IS_UNUSED, 0, opcodes.IS_UNUSED, 0, opcodes.IS_REG, nsReg)
	co := classScope.finalize(n.Name, nil)
	c.popScope()

	proto := &values.Value{Kind: values.KindClosure, Data: &values.Closure{Proto: co, Name: n.Name}}
	closureReg := sc.allocReg()
	sc.emit3(opcodes.OP_MAKE_FUNCTION, opcodes.IS_CONST, sc.constIndex(proto), opcodes.IS_UNUSED, 0, opcodes.IS_REG, closureReg)

	callBase := sc.stageWindow([]uint32{closureReg})
	nsCallReg := sc.allocReg()
	sc.emit3(opcodes.OP_CALL_FUNCTION, opcodes.IS_REG, callBase, opcodes.IS_CONST, 0, opcodes.IS_REG, nsCallReg)

	winBase := sc.stageWindow([]uint32{nsCallReg, basesReg})
	classReg := sc.allocReg()
	sc.emit3(opcodes.OP_BUILD_CLASS, opcodes.IS_NAME, sc.nameIdx(n.Name), opcodes.IS_REG, winBase, opcodes.IS_REG, classReg)

	finalReg := classReg
	for i := len(n.Decorators) - 1; i >= 0; i-- {
		var derr error
		finalReg, derr = c.applyDecorator(sc, n.Decorators[i].Expr, finalReg)
		if derr != nil {
			return derr
		}
	}
	return c.compileNameStoreString(sc, n.Name, n.GetSpan(), finalReg)
}

// buildClassNamespace flushes a finished class-body scope's bound locals
// into the Dict BUILD_CLASS reads, in bindLocal's first-seen order (Go map
// iteration over classScope.regs is unordered, so classScope.localOrder is
// what makes this deterministic) plus the __staticmethods__/__classmethods__
// Sets for any method decorated accordingly.
func (c *Compiler) buildClassNamespace(classScope *scope) (uint32, error) {
	window := make([]uint32, 0, len(classScope.localOrder)*2+4)
	for _, name := range classScope.localOrder {
		reg := classScope.regs[name]
		keyReg := classScope.allocReg()
		classScope.emit3(opcodes.OP_LOAD_CONST, opcodes.IS_CONST, classScope.constIndex(values.NewStr(name)), opcodes.IS_UNUSED, 0, opcodes.IS_REG, keyReg)
		valReg := classScope.allocReg()
		classScope.emit3(opcodes.OP_LOAD_FAST, opcodes.IS_REG, reg, opcodes.IS_UNUSED, 0, opcodes.IS_REG, valReg)
		window = append(window, keyReg, valReg)
	}
	if len(classScope.staticMethodNames) > 0 {
		setReg, err := c.buildNameSet(classScope, classScope.staticMethodNames)
		if err != nil {
			return 0, err
		}
		keyReg := classScope.allocReg()
		classScope.emit3(opcodes.OP_LOAD_CONST, opcodes.IS_CONST, classScope.constIndex(values.NewStr("__staticmethods__")), opcodes.IS_UNUSED, 0, opcodes.IS_REG, keyReg)
		window = append(window, keyReg, setReg)
	}
	if len(classScope.classMethodNames) > 0 {
		setReg, err := c.buildNameSet(classScope, classScope.classMethodNames)
		if err != nil {
			return 0, err
		}
		keyReg := classScope.allocReg()
		classScope.emit3(opcodes.OP_LOAD_CONST, opcodes.IS_CONST, classScope.constIndex(values.NewStr("__classmethods__")), opcodes.IS_UNUSED, 0, opcodes.IS_REG, keyReg)
		window = append(window, keyReg, setReg)
	}
	base := classScope.stageWindow(window)
	dst := classScope.allocReg()
	classScope.emit3(opcodes.OP_BUILD_DICT, opcodes.IS_CONST, uint32(len(window)/2), opcodes.IS_REG, base, opcodes.IS_REG, dst)
	return dst, nil
}

func (c *Compiler) buildNameSet(sc *scope, names []string) (uint32, error) {
	regs := make([]uint32, len(names))
	for i, nm := range names {
		r := sc.allocReg()
		sc.emit3(opcodes.OP_LOAD_CONST, opcodes.IS_CONST, sc.constIndex(values.NewStr(nm)), opcodes.IS_UNUSED, 0, opcodes.IS_REG, r)
		regs[i] = r
	}
	base := sc.stageWindow(regs)
	dst := sc.allocReg()
	sc.emit3(opcodes.OP_BUILD_SET, opcodes.IS_CONST, uint32(len(regs)), opcodes.IS_REG, base, opcodes.IS_REG, dst)
	return dst, nil
}
