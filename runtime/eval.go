package runtime

import (
	"github.com/lumen-lang/lumen/values"
)

// evalSpecs covers eval/exec/compile under the narrower contract decided
// for this host: since nothing in this module parses source text back into
// an ast.Module, compile() always raises NotImplementedError, and eval/exec
// only accept an already-compiled callable (a zero-arg Closure, the same
// value a module body or a lambda evaluates to) rather than a string.
func evalSpecs() []builtinSpec {
	return []builtinSpec{
		{name: "eval", minArgs: 1, maxArgs: 3, fn: builtinEval},
		{name: "exec", minArgs: 1, maxArgs: 3, fn: builtinExec},
		{name: "compile", minArgs: 3, maxArgs: 3, fn: builtinCompile},
	}
}

func builtinEval(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
	code := args[0]
	if code.Kind != values.KindClosure {
		return nil, ctx.Raise("TypeError", "eval() arg 1 must be a code object")
	}
	return ctx.CallValue(code, nil)
}

func builtinExec(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
	code := args[0]
	if code.Kind != values.KindClosure {
		return nil, ctx.Raise("TypeError", "exec() arg 1 must be a code object")
	}
	if _, err := ctx.CallValue(code, nil); err != nil {
		return nil, err
	}
	return values.None(), nil
}

func builtinCompile(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
	return nil, ctx.Raise("NotImplementedError", "compile() from source text is not supported; pass a pre-compiled code object to eval()/exec() instead")
}
