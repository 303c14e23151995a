// Package astjson decodes the JSON syntax-tree wire format cmd/lumenc and
// cmd/lumen-debug both read into an ast.Module, the driver-level input
// format for a module with no text parser of its own.
package astjson

import (
	"encoding/json"
	"fmt"

	"github.com/lumen-lang/lumen/ast"
)

// raw is the on-disk shape every node decodes from: a "kind" discriminator
// (one of ast.Kind.String()'s names) plus whatever extra fields that node
// carries, fields themselves holding either a single nested raw node or an
// array of them for the compound-statement/expression-list cases. This is
// the one JSON syntax-tree format cmd/lumenc reads; there is no text
// parser anywhere in this module; the tree is expected to already have
// been produced by some other frontend.
type raw map[string]json.RawMessage

func (r raw) str(key string) string {
	var s string
	if v, ok := r[key]; ok {
		_ = json.Unmarshal(v, &s)
	}
	return s
}

func (r raw) num(key string) int64 {
	var n int64
	if v, ok := r[key]; ok {
		_ = json.Unmarshal(v, &n)
	}
	return n
}

func (r raw) boolean(key string) bool {
	var b bool
	if v, ok := r[key]; ok {
		_ = json.Unmarshal(v, &b)
	}
	return b
}

func (r raw) node(key string) (raw, error) {
	v, ok := r[key]
	if !ok {
		return nil, nil
	}
	var n raw
	if err := json.Unmarshal(v, &n); err != nil {
		return nil, err
	}
	return n, nil
}

func (r raw) nodes(key string) ([]raw, error) {
	v, ok := r[key]
	if !ok {
		return nil, nil
	}
	var ns []raw
	if err := json.Unmarshal(v, &ns); err != nil {
		return nil, err
	}
	return ns, nil
}

// DecodeModule parses the JSON syntax tree in data into an ast.Module.
func DecodeModule(data []byte) (*ast.Module, error) {
	var r raw
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	body, err := r.nodes("body")
	if err != nil {
		return nil, err
	}
	stmts, err := decodeStmts(body)
	if err != nil {
		return nil, err
	}
	return &ast.Module{Body: stmts}, nil
}

func decodeStmts(rs []raw) ([]ast.Statement, error) {
	out := make([]ast.Statement, 0, len(rs))
	for _, r := range rs {
		s, err := decodeStmt(r)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func decodeExprs(rs []raw) ([]ast.Expression, error) {
	out := make([]ast.Expression, 0, len(rs))
	for _, r := range rs {
		e, err := decodeExpr(r)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// decodeOptExpr decodes a node field that may be entirely absent (nil
// expression slot, e.g. a bare `return` or an unannotated `except:`).
func decodeOptExpr(r raw, key string) (ast.Expression, error) {
	n, err := r.node(key)
	if err != nil || n == nil {
		return nil, err
	}
	return decodeExpr(n)
}

func decodeStmt(r raw) (ast.Statement, error) {
	switch r.str("kind") {
	case "ExprStmt":
		v, err := r.node("value")
		if err != nil {
			return nil, err
		}
		e, err := decodeExpr(v)
		if err != nil {
			return nil, err
		}
		return &ast.ExprStmt{Value: e}, nil
	case "Assign":
		targets, err := r.nodes("targets")
		if err != nil {
			return nil, err
		}
		ts, err := decodeExprs(targets)
		if err != nil {
			return nil, err
		}
		v, err := r.node("value")
		if err != nil {
			return nil, err
		}
		val, err := decodeExpr(v)
		if err != nil {
			return nil, err
		}
		return &ast.Assign{Targets: ts, Value: val}, nil
	case "AugAssign":
		t, err := r.node("target")
		if err != nil {
			return nil, err
		}
		target, err := decodeExpr(t)
		if err != nil {
			return nil, err
		}
		v, err := r.node("value")
		if err != nil {
			return nil, err
		}
		val, err := decodeExpr(v)
		if err != nil {
			return nil, err
		}
		return &ast.AugAssign{Target: target, Op: ast.BinOpKind(r.num("op")), Value: val}, nil
	case "If":
		test, err := decodeOptExpr(r, "test")
		if err != nil {
			return nil, err
		}
		bodyNodes, err := r.nodes("body")
		if err != nil {
			return nil, err
		}
		body, err := decodeStmts(bodyNodes)
		if err != nil {
			return nil, err
		}
		orelseNodes, err := r.nodes("orelse")
		if err != nil {
			return nil, err
		}
		orelse, err := decodeStmts(orelseNodes)
		if err != nil {
			return nil, err
		}
		return &ast.If{Test: test, Body: body, OrElse: orelse}, nil
	case "While":
		test, err := decodeOptExpr(r, "test")
		if err != nil {
			return nil, err
		}
		bodyNodes, err := r.nodes("body")
		if err != nil {
			return nil, err
		}
		body, err := decodeStmts(bodyNodes)
		if err != nil {
			return nil, err
		}
		orelseNodes, err := r.nodes("orelse")
		if err != nil {
			return nil, err
		}
		orelse, err := decodeStmts(orelseNodes)
		if err != nil {
			return nil, err
		}
		return &ast.While{Test: test, Body: body, OrElse: orelse}, nil
	case "For":
		target, err := decodeOptExpr(r, "target")
		if err != nil {
			return nil, err
		}
		iter, err := decodeOptExpr(r, "iter")
		if err != nil {
			return nil, err
		}
		bodyNodes, err := r.nodes("body")
		if err != nil {
			return nil, err
		}
		body, err := decodeStmts(bodyNodes)
		if err != nil {
			return nil, err
		}
		orelseNodes, err := r.nodes("orelse")
		if err != nil {
			return nil, err
		}
		orelse, err := decodeStmts(orelseNodes)
		if err != nil {
			return nil, err
		}
		return &ast.For{Target: target, Iter: iter, Body: body, OrElse: orelse}, nil
	case "Return":
		v, err := decodeOptExpr(r, "value")
		if err != nil {
			return nil, err
		}
		return &ast.Return{Value: v}, nil
	case "Break":
		return &ast.Break{}, nil
	case "Continue":
		return &ast.Continue{}, nil
	case "Pass":
		return &ast.Pass{}, nil
	case "Global":
		return &ast.Global{Names: strList(r["names"])}, nil
	case "Nonlocal":
		return &ast.Nonlocal{Names: strList(r["names"])}, nil
	case "Delete":
		targets, err := r.nodes("targets")
		if err != nil {
			return nil, err
		}
		ts, err := decodeExprs(targets)
		if err != nil {
			return nil, err
		}
		return &ast.Delete{Targets: ts}, nil
	case "Raise":
		exc, err := decodeOptExpr(r, "exc")
		if err != nil {
			return nil, err
		}
		cause, err := decodeOptExpr(r, "cause")
		if err != nil {
			return nil, err
		}
		return &ast.Raise{Exc: exc, Cause: cause}, nil
	case "Import":
		return &ast.Import{Names: decodeAliases(r["names"])}, nil
	case "ImportFrom":
		return &ast.ImportFrom{Module: r.str("module"), Names: decodeAliases(r["names"]), Level: int(r.num("level"))}, nil
	case "FunctionDef":
		return decodeFunctionDef(r)
	case "ClassDef":
		return decodeClassDef(r)
	case "With":
		itemNodes, err := r.nodes("items")
		if err != nil {
			return nil, err
		}
		items := make([]*ast.WithItem, 0, len(itemNodes))
		for _, in := range itemNodes {
			ctxExpr, err := decodeOptExpr(in, "context_expr")
			if err != nil {
				return nil, err
			}
			optVar, err := decodeOptExpr(in, "optional_var")
			if err != nil {
				return nil, err
			}
			items = append(items, &ast.WithItem{ContextExpr: ctxExpr, OptionalVar: optVar})
		}
		bodyNodes, err := r.nodes("body")
		if err != nil {
			return nil, err
		}
		body, err := decodeStmts(bodyNodes)
		if err != nil {
			return nil, err
		}
		return &ast.With{Items: items, Body: body}, nil
	case "Try":
		return decodeTry(r)
	default:
		return nil, fmt.Errorf("decode: unsupported statement kind %q", r.str("kind"))
	}
}

func decodeTry(r raw) (ast.Statement, error) {
	bodyNodes, err := r.nodes("body")
	if err != nil {
		return nil, err
	}
	body, err := decodeStmts(bodyNodes)
	if err != nil {
		return nil, err
	}
	handlerNodes, err := r.nodes("handlers")
	if err != nil {
		return nil, err
	}
	handlers := make([]*ast.ExceptHandler, 0, len(handlerNodes))
	for _, hn := range handlerNodes {
		exType, err := decodeOptExpr(hn, "except_type")
		if err != nil {
			return nil, err
		}
		hBodyNodes, err := hn.nodes("body")
		if err != nil {
			return nil, err
		}
		hBody, err := decodeStmts(hBodyNodes)
		if err != nil {
			return nil, err
		}
		handlers = append(handlers, &ast.ExceptHandler{ExceptType: exType, Name: hn.str("name"), Body: hBody})
	}
	orelseNodes, err := r.nodes("orelse")
	if err != nil {
		return nil, err
	}
	orelse, err := decodeStmts(orelseNodes)
	if err != nil {
		return nil, err
	}
	finallyNodes, err := r.nodes("finalbody")
	if err != nil {
		return nil, err
	}
	finallyBody, err := decodeStmts(finallyNodes)
	if err != nil {
		return nil, err
	}
	return &ast.Try{Body: body, Handlers: handlers, OrElse: orelse, Finally: finallyBody}, nil
}

func decodeFunctionDef(r raw) (ast.Statement, error) {
	paramNodes, err := r.nodes("params")
	if err != nil {
		return nil, err
	}
	params, err := decodeParams(paramNodes)
	if err != nil {
		return nil, err
	}
	bodyNodes, err := r.nodes("body")
	if err != nil {
		return nil, err
	}
	body, err := decodeStmts(bodyNodes)
	if err != nil {
		return nil, err
	}
	decoNodes, err := r.nodes("decorators")
	if err != nil {
		return nil, err
	}
	decorators := make([]*ast.Decorator, 0, len(decoNodes))
	for _, dn := range decoNodes {
		expr, err := decodeExpr(dn)
		if err != nil {
			return nil, err
		}
		decorators = append(decorators, &ast.Decorator{Expr: expr})
	}
	return &ast.FunctionDef{
		Name:       r.str("name"),
		Params:     params,
		Body:       body,
		Decorators: decorators,
		IsAsync:    r.boolean("is_async"),
	}, nil
}

func decodeClassDef(r raw) (ast.Statement, error) {
	baseNodes, err := r.nodes("bases")
	if err != nil {
		return nil, err
	}
	bases, err := decodeExprs(baseNodes)
	if err != nil {
		return nil, err
	}
	bodyNodes, err := r.nodes("body")
	if err != nil {
		return nil, err
	}
	body, err := decodeStmts(bodyNodes)
	if err != nil {
		return nil, err
	}
	return &ast.ClassDef{Name: r.str("name"), Bases: bases, Body: body}, nil
}

func decodeParams(rs []raw) ([]*ast.Param, error) {
	out := make([]*ast.Param, 0, len(rs))
	for _, r := range rs {
		def, err := decodeOptExpr(r, "default")
		if err != nil {
			return nil, err
		}
		ann, err := decodeOptExpr(r, "annotation")
		if err != nil {
			return nil, err
		}
		out = append(out, &ast.Param{
			Name:       r.str("name"),
			Annotation: ann,
			Default:    def,
			Kind:       ast.ParamKind(r.num("param_kind")),
		})
	}
	return out, nil
}

func decodeAliases(v json.RawMessage) []*ast.Alias {
	if v == nil {
		return nil
	}
	var rs []raw
	if err := json.Unmarshal(v, &rs); err != nil {
		return nil
	}
	out := make([]*ast.Alias, 0, len(rs))
	for _, r := range rs {
		out = append(out, &ast.Alias{Name: r.str("name"), AsName: r.str("asname")})
	}
	return out
}

func strList(v json.RawMessage) []string {
	if v == nil {
		return nil
	}
	var out []string
	_ = json.Unmarshal(v, &out)
	return out
}

func decodeExpr(r raw) (ast.Expression, error) {
	switch r.str("kind") {
	case "Name":
		return &ast.Name{Id: r.str("id"), Ctx: ast.NameCtx(r.num("ctx"))}, nil
	case "Constant":
		return decodeConstant(r), nil
	case "BinOp":
		left, err := r.node("left")
		if err != nil {
			return nil, err
		}
		l, err := decodeExpr(left)
		if err != nil {
			return nil, err
		}
		right, err := r.node("right")
		if err != nil {
			return nil, err
		}
		rt, err := decodeExpr(right)
		if err != nil {
			return nil, err
		}
		return &ast.BinOp{Left: l, Op: ast.BinOpKind(r.num("op")), Right: rt}, nil
	case "UnaryOp":
		operand, err := r.node("operand")
		if err != nil {
			return nil, err
		}
		o, err := decodeExpr(operand)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Op: ast.UnaryOpKind(r.num("op")), Operand: o}, nil
	case "BoolOp":
		valueNodes, err := r.nodes("values")
		if err != nil {
			return nil, err
		}
		values, err := decodeExprs(valueNodes)
		if err != nil {
			return nil, err
		}
		return &ast.BoolOp{Op: ast.BoolOpKind(r.num("op")), Values: values}, nil
	case "Compare":
		left, err := r.node("left")
		if err != nil {
			return nil, err
		}
		l, err := decodeExpr(left)
		if err != nil {
			return nil, err
		}
		compNodes, err := r.nodes("comparators")
		if err != nil {
			return nil, err
		}
		comps, err := decodeExprs(compNodes)
		if err != nil {
			return nil, err
		}
		var opsRaw []int64
		if v, ok := r["ops"]; ok {
			_ = json.Unmarshal(v, &opsRaw)
		}
		cmpOps := make([]ast.CmpOp, len(opsRaw))
		for i, o := range opsRaw {
			cmpOps[i] = ast.CmpOp(o)
		}
		return &ast.Compare{Left: l, Ops: cmpOps, Comparators: comps}, nil
	case "Call":
		fn, err := r.node("func")
		if err != nil {
			return nil, err
		}
		f, err := decodeExpr(fn)
		if err != nil {
			return nil, err
		}
		argNodes, err := r.nodes("args")
		if err != nil {
			return nil, err
		}
		args := make([]*ast.Arg, 0, len(argNodes))
		for _, an := range argNodes {
			v, err := decodeExpr(an)
			if err != nil {
				return nil, err
			}
			args = append(args, &ast.Arg{Value: v, Starred: an.boolean("starred")})
		}
		kwNodes, err := r.nodes("keywords")
		if err != nil {
			return nil, err
		}
		kws := make([]*ast.Keyword, 0, len(kwNodes))
		for _, kn := range kwNodes {
			val, err := decodeExpr(kn)
			if err != nil {
				return nil, err
			}
			kws = append(kws, &ast.Keyword{Name: kn.str("name"), Value: val})
		}
		return &ast.Call{Func: f, Args: args, Keywords: kws}, nil
	case "Attribute":
		val, err := r.node("value")
		if err != nil {
			return nil, err
		}
		v, err := decodeExpr(val)
		if err != nil {
			return nil, err
		}
		return &ast.Attribute{Value: v, Attr: r.str("attr"), Ctx: ast.NameCtx(r.num("ctx"))}, nil
	case "Subscript":
		val, err := r.node("value")
		if err != nil {
			return nil, err
		}
		v, err := decodeExpr(val)
		if err != nil {
			return nil, err
		}
		idx, err := r.node("index")
		if err != nil {
			return nil, err
		}
		i, err := decodeExpr(idx)
		if err != nil {
			return nil, err
		}
		return &ast.Subscript{Value: v, Index: i, Ctx: ast.NameCtx(r.num("ctx"))}, nil
	case "Slice":
		lower, err := decodeOptExpr(r, "lower")
		if err != nil {
			return nil, err
		}
		upper, err := decodeOptExpr(r, "upper")
		if err != nil {
			return nil, err
		}
		step, err := decodeOptExpr(r, "step")
		if err != nil {
			return nil, err
		}
		return &ast.Slice{Lower: lower, Upper: upper, Step: step}, nil
	case "List":
		eltNodes, err := r.nodes("elts")
		if err != nil {
			return nil, err
		}
		elts, err := decodeExprs(eltNodes)
		if err != nil {
			return nil, err
		}
		return &ast.ListExpr{Elts: elts, Ctx: ast.NameCtx(r.num("ctx"))}, nil
	case "Tuple":
		eltNodes, err := r.nodes("elts")
		if err != nil {
			return nil, err
		}
		elts, err := decodeExprs(eltNodes)
		if err != nil {
			return nil, err
		}
		return &ast.TupleExpr{Elts: elts, Ctx: ast.NameCtx(r.num("ctx"))}, nil
	case "Set":
		eltNodes, err := r.nodes("elts")
		if err != nil {
			return nil, err
		}
		elts, err := decodeExprs(eltNodes)
		if err != nil {
			return nil, err
		}
		return &ast.SetExpr{Elts: elts}, nil
	case "Dict":
		keyNodes, err := r.nodes("keys")
		if err != nil {
			return nil, err
		}
		valNodes, err := r.nodes("values")
		if err != nil {
			return nil, err
		}
		keys := make([]ast.Expression, len(keyNodes))
		for i, kn := range keyNodes {
			if kn == nil {
				continue
			}
			k, err := decodeExpr(kn)
			if err != nil {
				return nil, err
			}
			keys[i] = k
		}
		values, err := decodeExprs(valNodes)
		if err != nil {
			return nil, err
		}
		return &ast.DictExpr{Keys: keys, Values: values}, nil
	case "IfExp":
		test, err := r.node("test")
		if err != nil {
			return nil, err
		}
		t, err := decodeExpr(test)
		if err != nil {
			return nil, err
		}
		bodyN, err := r.node("body")
		if err != nil {
			return nil, err
		}
		b, err := decodeExpr(bodyN)
		if err != nil {
			return nil, err
		}
		orelseN, err := r.node("orelse")
		if err != nil {
			return nil, err
		}
		o, err := decodeExpr(orelseN)
		if err != nil {
			return nil, err
		}
		return &ast.IfExp{Test: t, Body: b, OrElse: o}, nil
	case "Starred":
		val, err := r.node("value")
		if err != nil {
			return nil, err
		}
		v, err := decodeExpr(val)
		if err != nil {
			return nil, err
		}
		return &ast.Starred{Value: v, Ctx: ast.NameCtx(r.num("ctx"))}, nil
	case "Lambda":
		paramNodes, err := r.nodes("params")
		if err != nil {
			return nil, err
		}
		params, err := decodeParams(paramNodes)
		if err != nil {
			return nil, err
		}
		bodyN, err := r.node("body")
		if err != nil {
			return nil, err
		}
		b, err := decodeExpr(bodyN)
		if err != nil {
			return nil, err
		}
		return &ast.Lambda{Params: params, Body: b}, nil
	default:
		return nil, fmt.Errorf("decode: unsupported expression kind %q", r.str("kind"))
	}
}

func decodeConstant(r raw) ast.Expression {
	c := &ast.Constant{ConstKind: ast.ConstKind(r.num("const_kind"))}
	switch c.ConstKind {
	case ast.ConstBool:
		c.Bool = r.boolean("value")
	case ast.ConstInt:
		c.Int = r.num("value")
	case ast.ConstFloat:
		var f float64
		if v, ok := r["value"]; ok {
			_ = json.Unmarshal(v, &f)
		}
		c.Float = f
	case ast.ConstStr:
		c.Str = r.str("value")
	case ast.ConstBytes:
		var b []byte
		if v, ok := r["value"]; ok {
			_ = json.Unmarshal(v, &b)
		}
		c.Bytes = b
	}
	return c
}
