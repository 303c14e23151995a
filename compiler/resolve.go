package compiler

import "github.com/lumen-lang/lumen/ast"

// prescanLocals performs the shallow, whole-body scan spec.md §4.2 calls
// "scope analysis": every name assigned anywhere in stmts (by a plain
// Assign/AugAssign/AnnAssign target, a `for` target, a `with ... as` target,
// an `except ... as` name, or a nested def/class's own name) becomes local
// to sc for its *entire* body, not just from the assignment line onward —
// matching Python's whole-function hoisting rule. It never descends into a
// nested FunctionDef/Lambda/ClassDef/GeneratorExp body (those get their own
// scope), but does descend into List/Set/DictComp targets, since this
// compiler inlines those comprehensions into the enclosing scope rather than
// giving them their own function (a documented simplification: the
// comprehension's loop variable leaks into the enclosing scope, Python-2
// style, recorded in DESIGN.md).
func prescanLocals(stmts []ast.Statement, sc *scope) {
	for _, s := range stmts {
		prescanStmt(s, sc)
	}
}

func prescanStmt(s ast.Statement, sc *scope) {
	switch n := s.(type) {
	case *ast.FunctionDef:
		sc.locals[n.Name] = true
		for _, d := range n.Decorators {
			prescanExpr(d.Expr, sc)
		}
		for _, p := range n.Params {
			if p.Default != nil {
				prescanExpr(p.Default, sc)
			}
		}
	case *ast.ClassDef:
		sc.locals[n.Name] = true
		for _, b := range n.Bases {
			prescanExpr(b, sc)
		}
		for _, d := range n.Decorators {
			prescanExpr(d.Expr, sc)
		}
	case *ast.Assign:
		for _, t := range n.Targets {
			collectTargetNames(t, sc)
		}
		prescanExpr(n.Value, sc)
	case *ast.AugAssign:
		collectTargetNames(n.Target, sc)
		prescanExpr(n.Value, sc)
	case *ast.AnnAssign:
		collectTargetNames(n.Target, sc)
		if n.Value != nil {
			prescanExpr(n.Value, sc)
		}
	case *ast.If:
		prescanExpr(n.Test, sc)
		prescanLocals(n.Body, sc)
		prescanLocals(n.OrElse, sc)
	case *ast.While:
		prescanExpr(n.Test, sc)
		prescanLocals(n.Body, sc)
		prescanLocals(n.OrElse, sc)
	case *ast.For:
		collectTargetNames(n.Target, sc)
		prescanExpr(n.Iter, sc)
		prescanLocals(n.Body, sc)
		prescanLocals(n.OrElse, sc)
	case *ast.With:
		for _, it := range n.Items {
			prescanExpr(it.ContextExpr, sc)
			if it.OptionalVar != nil {
				collectTargetNames(it.OptionalVar, sc)
			}
		}
		prescanLocals(n.Body, sc)
	case *ast.Try:
		prescanLocals(n.Body, sc)
		for _, h := range n.Handlers {
			if h.ExceptType != nil {
				prescanExpr(h.ExceptType, sc)
			}
			if h.Name != "" {
				sc.locals[h.Name] = true
			}
			prescanLocals(h.Body, sc)
		}
		prescanLocals(n.OrElse, sc)
		prescanLocals(n.Finally, sc)
	case *ast.Raise:
		if n.Exc != nil {
			prescanExpr(n.Exc, sc)
		}
		if n.Cause != nil {
			prescanExpr(n.Cause, sc)
		}
	case *ast.Return:
		if n.Value != nil {
			prescanExpr(n.Value, sc)
		}
	case *ast.Import:
		for _, a := range n.Names {
			name := a.AsName
			if name == "" {
				name = a.Name
			}
			sc.locals[name] = true
		}
	case *ast.ImportFrom:
		for _, a := range n.Names {
			name := a.AsName
			if name == "" {
				name = a.Name
			}
			sc.locals[name] = true
		}
	case *ast.Global:
		for _, name := range n.Names {
			sc.globalDecl[name] = true
		}
	case *ast.Nonlocal:
		for _, name := range n.Names {
			sc.nonlocalDecl[name] = true
		}
	case *ast.ExprStmt:
		prescanExpr(n.Value, sc)
	case *ast.Delete:
		for _, t := range n.Targets {
			prescanExpr(t, sc)
		}
	}
}

// collectTargetNames records every Name bound by an assignment target,
// handling plain names, tuple/list-unpack targets, and starred sub-targets
// (spec.md §8 extended unpacking).
func collectTargetNames(target ast.Expression, sc *scope) {
	switch t := target.(type) {
	case *ast.Name:
		sc.locals[t.Id] = true
	case *ast.TupleExpr:
		for _, e := range t.Elts {
			collectTargetNames(e, sc)
		}
	case *ast.ListExpr:
		for _, e := range t.Elts {
			collectTargetNames(e, sc)
		}
	case *ast.Starred:
		collectTargetNames(t.Value, sc)
	case *ast.Attribute:
		prescanExpr(t.Value, sc)
	case *ast.Subscript:
		prescanExpr(t.Value, sc)
		prescanExpr(t.Index, sc)
	}
}

// prescanExpr descends into an expression only far enough to find inlined
// comprehension targets and nested sub-expressions that might themselves
// contain one; it never crosses into a Lambda or GeneratorExp body, since
// those always get their own scope.
func prescanExpr(e ast.Expression, sc *scope) {
	switch n := e.(type) {
	case *ast.BinOp:
		prescanExpr(n.Left, sc)
		prescanExpr(n.Right, sc)
	case *ast.UnaryOp:
		prescanExpr(n.Operand, sc)
	case *ast.BoolOp:
		for _, v := range n.Values {
			prescanExpr(v, sc)
		}
	case *ast.Compare:
		prescanExpr(n.Left, sc)
		for _, c := range n.Comparators {
			prescanExpr(c, sc)
		}
	case *ast.Call:
		prescanExpr(n.Func, sc)
		for _, a := range n.Args {
			prescanExpr(a.Value, sc)
		}
		for _, k := range n.Keywords {
			prescanExpr(k.Value, sc)
		}
	case *ast.Attribute:
		prescanExpr(n.Value, sc)
	case *ast.Subscript:
		prescanExpr(n.Value, sc)
		prescanExpr(n.Index, sc)
	case *ast.Slice:
		if n.Lower != nil {
			prescanExpr(n.Lower, sc)
		}
		if n.Upper != nil {
			prescanExpr(n.Upper, sc)
		}
		if n.Step != nil {
			prescanExpr(n.Step, sc)
		}
	case *ast.ListExpr:
		for _, el := range n.Elts {
			prescanExpr(el, sc)
		}
	case *ast.TupleExpr:
		for _, el := range n.Elts {
			prescanExpr(el, sc)
		}
	case *ast.SetExpr:
		for _, el := range n.Elts {
			prescanExpr(el, sc)
		}
	case *ast.DictExpr:
		for i, v := range n.Values {
			if n.Keys[i] != nil {
				prescanExpr(n.Keys[i], sc)
			}
			prescanExpr(v, sc)
		}
	case *ast.IfExp:
		prescanExpr(n.Test, sc)
		prescanExpr(n.Body, sc)
		prescanExpr(n.OrElse, sc)
	case *ast.Starred:
		prescanExpr(n.Value, sc)
	case *ast.FString:
		for _, p := range n.Parts {
			prescanExpr(p, sc)
		}
	case *ast.Yield:
		if n.Value != nil {
			prescanExpr(n.Value, sc)
		}
	case *ast.YieldFrom:
		prescanExpr(n.Value, sc)
	case *ast.Await:
		prescanExpr(n.Value, sc)
	case *ast.ListComp:
		prescanComprehension(n.Gens, sc)
		prescanExpr(n.Elt, sc)
	case *ast.SetComp:
		prescanComprehension(n.Gens, sc)
		prescanExpr(n.Elt, sc)
	case *ast.DictComp:
		prescanComprehension(n.Gens, sc)
		prescanExpr(n.Key, sc)
		prescanExpr(n.Value, sc)
	case *ast.GeneratorExp:
		// Its own scope: only the outermost iterable is evaluated here.
		if len(n.Gens) > 0 {
			prescanExpr(n.Gens[0].Iter, sc)
		}
	case *ast.Lambda:
		for _, p := range n.Params {
			if p.Default != nil {
				prescanExpr(p.Default, sc)
			}
		}
	}
}

func prescanComprehension(gens []*ast.Comprehension, sc *scope) {
	for i, g := range gens {
		if i == 0 {
			prescanExpr(g.Iter, sc)
		}
		collectTargetNames(g.Target, sc)
		for _, cond := range g.Ifs {
			prescanExpr(cond, sc)
		}
	}
}

// nameRefKind classifies how a resolved name access compiles.
type nameRefKind int

const (
	refLocal nameRefKind = iota
	refGlobal
	refCell
	refFree
	refDynamic
)

type nameRef struct {
	kind nameRefKind
	reg  uint32
	idx  uint32
}

// resolveName implements spec.md §4.2's local/closure-cell/global/builtin
// resolution: it classifies a bare name access against sc's locals, then
// (for names this scope doesn't itself bind) walks the lexical parent chain
// looking for the nearest owning function scope, threading a free-variable
// relay through every intermediate scope along the way — including class
// bodies, since those are compiled via MAKE_FUNCTION too and must relay the
// same way a nested function would.
func (c *Compiler) resolveName(sc *scope, name string, span ast.Span) (nameRef, error) {
	if sc.kind == scopeModule {
		return nameRef{kind: refDynamic}, nil
	}
	if sc.globalDecl[name] {
		return nameRef{kind: refGlobal}, nil
	}
	if sc.locals[name] {
		return nameRef{kind: refLocal, reg: sc.bindLocal(name)}, nil
	}
	if idx, ok := sc.freeVarIndex[name]; ok {
		return nameRef{kind: refFree, idx: uint32(idx)}, nil
	}

	anc := sc.funcAncestor()
	for anc != nil {
		if anc.kind != scopeModule && anc.locals[name] && !anc.globalDecl[name] {
			if _, ok := anc.cellVarIndex[name]; !ok {
				anc.cellVarIndex[name] = len(anc.cellVars)
				anc.cellVars = append(anc.cellVars, name)
			}
			threadFreeVar(sc, anc, name)
			return nameRef{kind: refFree, idx: uint32(sc.freeVarIndex[name])}, nil
		}
		anc = anc.funcAncestor()
	}

	if sc.nonlocalDecl[name] {
		return nameRef{}, c.syntaxErrorf(span, "no binding for nonlocal '%s' found", name)
	}
	return nameRef{kind: refDynamic}, nil
}

// threadFreeVar walks sc's lexical parent chain up to (excluding) owner,
// giving every scope along the way — sc included — a pass-through FreeVars
// entry for name, so MAKE_FUNCTION's cell-capture chain reaches all the way
// from owner's CellVars down to sc's use site.
func threadFreeVar(sc *scope, owner *scope, name string) {
	for cur := sc; cur != nil && cur != owner; cur = cur.parent {
		if _, ok := cur.freeVarIndex[name]; ok {
			continue
		}
		cur.freeVarIndex[name] = len(cur.freeVars)
		cur.freeVars = append(cur.freeVars, name)
	}
}

// usesBareSuper reports whether any statement in body contains a zero-arg
// `super()` call, without descending into a nested def/class/lambda (those
// get their own __class__ cell, if any). Used to decide whether a method's
// CodeObject needs "__class__" in its FreeVars (section 5 design).
func usesBareSuper(body []ast.Statement) bool {
	found := false
	var walkStmts func([]ast.Statement)
	var walkExpr func(ast.Expression)
	walkExpr = func(e ast.Expression) {
		if found || e == nil {
			return
		}
		switch n := e.(type) {
		case *ast.Call:
			if id, ok := n.Func.(*ast.Name); ok && id.Id == "super" && len(n.Args) == 0 && len(n.Keywords) == 0 {
				found = true
				return
			}
			walkExpr(n.Func)
			for _, a := range n.Args {
				walkExpr(a.Value)
			}
			for _, k := range n.Keywords {
				walkExpr(k.Value)
			}
		case *ast.BinOp:
			walkExpr(n.Left)
			walkExpr(n.Right)
		case *ast.UnaryOp:
			walkExpr(n.Operand)
		case *ast.BoolOp:
			for _, v := range n.Values {
				walkExpr(v)
			}
		case *ast.Compare:
			walkExpr(n.Left)
			for _, v := range n.Comparators {
				walkExpr(v)
			}
		case *ast.Attribute:
			walkExpr(n.Value)
		case *ast.Subscript:
			walkExpr(n.Value)
			walkExpr(n.Index)
		case *ast.ListExpr:
			for _, v := range n.Elts {
				walkExpr(v)
			}
		case *ast.TupleExpr:
			for _, v := range n.Elts {
				walkExpr(v)
			}
		case *ast.SetExpr:
			for _, v := range n.Elts {
				walkExpr(v)
			}
		case *ast.DictExpr:
			for i, v := range n.Values {
				if n.Keys[i] != nil {
					walkExpr(n.Keys[i])
				}
				walkExpr(v)
			}
		case *ast.IfExp:
			walkExpr(n.Test)
			walkExpr(n.Body)
			walkExpr(n.OrElse)
		case *ast.Starred:
			walkExpr(n.Value)
		case *ast.FString:
			for _, p := range n.Parts {
				walkExpr(p)
			}
		case *ast.Yield:
			walkExpr(n.Value)
		case *ast.YieldFrom:
			walkExpr(n.Value)
		case *ast.Await:
			walkExpr(n.Value)
		}
	}
	walkStmts = func(stmts []ast.Statement) {
		for _, s := range stmts {
			if found {
				return
			}
			switch n := s.(type) {
			case *ast.Assign:
				walkExpr(n.Value)
			case *ast.AugAssign:
				walkExpr(n.Value)
			case *ast.AnnAssign:
				if n.Value != nil {
					walkExpr(n.Value)
				}
			case *ast.If:
				walkExpr(n.Test)
				walkStmts(n.Body)
				walkStmts(n.OrElse)
			case *ast.While:
				walkExpr(n.Test)
				walkStmts(n.Body)
				walkStmts(n.OrElse)
			case *ast.For:
				walkExpr(n.Iter)
				walkStmts(n.Body)
				walkStmts(n.OrElse)
			case *ast.With:
				for _, it := range n.Items {
					walkExpr(it.ContextExpr)
				}
				walkStmts(n.Body)
			case *ast.Try:
				walkStmts(n.Body)
				for _, h := range n.Handlers {
					walkStmts(h.Body)
				}
				walkStmts(n.OrElse)
				walkStmts(n.Finally)
			case *ast.Raise:
				walkExpr(n.Exc)
				walkExpr(n.Cause)
			case *ast.Return:
				walkExpr(n.Value)
			case *ast.ExprStmt:
				walkExpr(n.Value)
			case *ast.Delete:
				for _, t := range n.Targets {
					walkExpr(t)
				}
			}
		}
	}
	walkStmts(body)
	return found
}

// containsYield reports whether body contains a `yield` or `yield from`
// anywhere in its own statements, without descending into a nested
// def/class/lambda body. A function whose body contains one compiles to a
// generator (ast.FunctionDef.IsGenerator, registry.FlagGenerator).
func containsYield(body []ast.Statement) bool {
	found := false
	var walkStmts func([]ast.Statement)
	var walkExpr func(ast.Expression)
	walkExpr = func(e ast.Expression) {
		if found || e == nil {
			return
		}
		switch n := e.(type) {
		case *ast.Yield:
			found = true
		case *ast.YieldFrom:
			found = true
		case *ast.Call:
			walkExpr(n.Func)
			for _, a := range n.Args {
				walkExpr(a.Value)
			}
			for _, k := range n.Keywords {
				walkExpr(k.Value)
			}
		case *ast.BinOp:
			walkExpr(n.Left)
			walkExpr(n.Right)
		case *ast.UnaryOp:
			walkExpr(n.Operand)
		case *ast.BoolOp:
			for _, v := range n.Values {
				walkExpr(v)
			}
		case *ast.Compare:
			walkExpr(n.Left)
			for _, v := range n.Comparators {
				walkExpr(v)
			}
		case *ast.Attribute:
			walkExpr(n.Value)
		case *ast.Subscript:
			walkExpr(n.Value)
			walkExpr(n.Index)
		case *ast.ListExpr:
			for _, v := range n.Elts {
				walkExpr(v)
			}
		case *ast.TupleExpr:
			for _, v := range n.Elts {
				walkExpr(v)
			}
		case *ast.SetExpr:
			for _, v := range n.Elts {
				walkExpr(v)
			}
		case *ast.DictExpr:
			for i, v := range n.Values {
				if n.Keys[i] != nil {
					walkExpr(n.Keys[i])
				}
				walkExpr(v)
			}
		case *ast.IfExp:
			walkExpr(n.Test)
			walkExpr(n.Body)
			walkExpr(n.OrElse)
		case *ast.Starred:
			walkExpr(n.Value)
		case *ast.FString:
			for _, p := range n.Parts {
				walkExpr(p)
			}
		case *ast.Await:
			walkExpr(n.Value)
		}
	}
	walkStmts = func(stmts []ast.Statement) {
		for _, s := range stmts {
			if found {
				return
			}
			switch n := s.(type) {
			case *ast.Assign:
				walkExpr(n.Value)
			case *ast.AugAssign:
				walkExpr(n.Value)
			case *ast.AnnAssign:
				if n.Value != nil {
					walkExpr(n.Value)
				}
			case *ast.If:
				walkExpr(n.Test)
				walkStmts(n.Body)
				walkStmts(n.OrElse)
			case *ast.While:
				walkExpr(n.Test)
				walkStmts(n.Body)
				walkStmts(n.OrElse)
			case *ast.For:
				walkExpr(n.Iter)
				walkStmts(n.Body)
				walkStmts(n.OrElse)
			case *ast.With:
				for _, it := range n.Items {
					walkExpr(it.ContextExpr)
				}
				walkStmts(n.Body)
			case *ast.Try:
				walkStmts(n.Body)
				for _, h := range n.Handlers {
					walkStmts(h.Body)
				}
				walkStmts(n.OrElse)
				walkStmts(n.Finally)
			case *ast.Raise:
				walkExpr(n.Exc)
				walkExpr(n.Cause)
			case *ast.Return:
				walkExpr(n.Value)
			case *ast.ExprStmt:
				walkExpr(n.Value)
			case *ast.Delete:
				for _, t := range n.Targets {
					walkExpr(t)
				}
			}
		}
	}
	walkStmts(body)
	return found
}
