package vm

import (
	"github.com/lumen-lang/lumen/values"
)

// fileMethod looks up one of the bound methods a File value exposes through
// attribute access (f.read(), f.close(), ...). The returned NativeFunc has
// BoundSelf left nil — getAttr fills it in with the receiving File value,
// matching how methodAsUnboundValue's bound-instance counterpart works.
// callValue also passes that receiver as args[0], so each arity counts it.
func fileMethod(name string) (*values.NativeFunc, bool) {
	switch name {
	case "read":
		return &values.NativeFunc{Name: "read", MinArgs: 1, MaxArgs: 1, Fn: fileRead}, true
	case "readline":
		return &values.NativeFunc{Name: "readline", MinArgs: 1, MaxArgs: 1, Fn: fileReadLine}, true
	case "readlines":
		return &values.NativeFunc{Name: "readlines", MinArgs: 1, MaxArgs: 1, Fn: fileReadLines}, true
	case "write":
		return &values.NativeFunc{Name: "write", MinArgs: 2, MaxArgs: 2, Fn: fileWrite}, true
	case "close":
		return &values.NativeFunc{Name: "close", MinArgs: 1, MaxArgs: 1, Fn: fileClose}, true
	case "__enter__":
		return &values.NativeFunc{Name: "__enter__", MinArgs: 1, MaxArgs: 1, Fn: fileEnter}, true
	case "__exit__":
		return &values.NativeFunc{Name: "__exit__", MinArgs: 1, MaxArgs: 4, Fn: fileExit}, true
	default:
		return nil, false
	}
}

func fileRead(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
	f := ctx.Self().FileData()
	s, err := f.Read()
	if err != nil {
		return nil, ctx.Raise("OSError", err.Error())
	}
	return values.NewStr(s), nil
}

func fileReadLine(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
	f := ctx.Self().FileData()
	line, ok, err := f.ReadLine()
	if err != nil {
		return nil, ctx.Raise("OSError", err.Error())
	}
	if !ok {
		return values.NewStr(""), nil
	}
	return values.NewStr(line), nil
}

func fileReadLines(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
	f := ctx.Self().FileData()
	var lines []*values.Value
	for {
		line, ok, err := f.ReadLine()
		if err != nil {
			return nil, ctx.Raise("OSError", err.Error())
		}
		if !ok {
			break
		}
		lines = append(lines, values.NewStr(line))
	}
	return values.NewList(lines), nil
}

func fileWrite(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
	f := ctx.Self().FileData()
	n, err := f.Write(args[1].Str())
	if err != nil {
		return nil, ctx.Raise("OSError", err.Error())
	}
	return values.NewInt(int64(n)), nil
}

func fileClose(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
	f := ctx.Self().FileData()
	if err := f.Close(); err != nil {
		return nil, ctx.Raise("OSError", err.Error())
	}
	return values.None(), nil
}

// fileEnter/fileExit back the `with open(...) as f:` protocol (spec.md §4.2
// WITH lowering calls __enter__ then __exit__ unconditionally on unwind).
func fileEnter(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
	return ctx.Self(), nil
}

func fileExit(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
	f := ctx.Self().FileData()
	if err := f.Close(); err != nil {
		return nil, ctx.Raise("OSError", err.Error())
	}
	return values.NewBool(false), nil
}
