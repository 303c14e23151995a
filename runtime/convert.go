package runtime

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lumen-lang/lumen/values"
)

// convertSpecs are the type-constructor builtins: calling the type's name
// with an argument coerces it, the same overload spec.md §6 gives every
// other callable type object (registry.go's Builtins() only installs the
// matching typeTable Class under these names when no NativeFunc claims it
// first).
func convertSpecs() []builtinSpec {
	return []builtinSpec{
		{name: "bool", minArgs: 0, maxArgs: 1, fn: builtinBool},
		{name: "int", minArgs: 0, maxArgs: 2, fn: builtinInt},
		{name: "float", minArgs: 0, maxArgs: 1, fn: builtinFloat},
		{name: "str", minArgs: 0, maxArgs: 1, fn: builtinStr},
		{name: "list", minArgs: 0, maxArgs: 1, fn: builtinListCtor},
		{name: "tuple", minArgs: 0, maxArgs: 1, fn: builtinTupleCtor},
		{name: "dict", minArgs: 0, maxArgs: 1, fn: builtinDictCtor},
		{name: "set", minArgs: 0, maxArgs: 1, fn: builtinSetCtor},
	}
}

func builtinBool(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
	if len(args) == 0 {
		return values.NewBool(false), nil
	}
	return values.NewBool(args[0].Truthiness()), nil
}

func builtinInt(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
	if len(args) == 0 {
		return values.NewInt(0), nil
	}
	v := args[0]
	if len(args) == 2 {
		s, ok := v.Data.(string)
		if !ok || v.Kind != values.KindStr {
			return nil, ctx.Raise("TypeError", "int() can't convert non-string with explicit base")
		}
		base := int(args[1].ToInt())
		i, err := strconv.ParseInt(strings.TrimSpace(s), base, 64)
		if err != nil {
			return nil, ctx.Raise("ValueError", fmt.Sprintf("invalid literal for int() with base %d: %s", base, v.Repr()))
		}
		return values.NewInt(i), nil
	}
	switch v.Kind {
	case values.KindInt, values.KindBool:
		return values.NewInt(v.ToInt()), nil
	case values.KindFloat:
		return values.NewInt(int64(v.Data.(float64))), nil
	case values.KindStr:
		i, err := strconv.ParseInt(strings.TrimSpace(v.Data.(string)), 10, 64)
		if err != nil {
			return nil, ctx.Raise("ValueError", fmt.Sprintf("invalid literal for int(): %s", v.Repr()))
		}
		return values.NewInt(i), nil
	default:
		return nil, ctx.Raise("TypeError", fmt.Sprintf("int() argument must be a string or a number, not '%s'", v.TypeName()))
	}
}

func builtinFloat(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
	if len(args) == 0 {
		return values.NewFloat(0), nil
	}
	v := args[0]
	switch v.Kind {
	case values.KindInt, values.KindBool:
		return values.NewFloat(float64(v.ToInt())), nil
	case values.KindFloat:
		return values.NewFloat(v.ToFloat()), nil
	case values.KindStr:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Data.(string)), 64)
		if err != nil {
			return nil, ctx.Raise("ValueError", fmt.Sprintf("could not convert string to float: %s", v.Repr()))
		}
		return values.NewFloat(f), nil
	default:
		return nil, ctx.Raise("TypeError", fmt.Sprintf("float() argument must be a string or a number, not '%s'", v.TypeName()))
	}
}

func builtinStr(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
	if len(args) == 0 {
		return values.NewStr(""), nil
	}
	return values.NewStr(args[0].Str()), nil
}

func builtinListCtor(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
	if len(args) == 0 {
		return values.NewList(nil), nil
	}
	items, err := materialize(args[0])
	if err != nil {
		return nil, ctx.Raise("TypeError", err.Error())
	}
	return values.NewList(items), nil
}

func builtinTupleCtor(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
	if len(args) == 0 {
		return values.NewTuple(nil), nil
	}
	items, err := materialize(args[0])
	if err != nil {
		return nil, ctx.Raise("TypeError", err.Error())
	}
	return values.NewTuple(items), nil
}

func builtinDictCtor(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
	d := values.NewDict()
	if len(args) == 0 {
		return d, nil
	}
	pairs, err := materialize(args[0])
	if err != nil {
		return nil, ctx.Raise("TypeError", err.Error())
	}
	dd := d.Data.(*values.Dict)
	for _, p := range pairs {
		kv, err := materialize(p)
		if err != nil || len(kv) != 2 {
			return nil, ctx.Raise("ValueError", "dictionary update sequence element has wrong length")
		}
		if kv[0].Kind != values.KindStr {
			return nil, ctx.Raise("TypeError", "dict keys must be strings")
		}
		dd.Set(kv[0].Data.(string), kv[1])
	}
	return d, nil
}

func builtinSetCtor(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
	s := values.NewSet()
	if len(args) == 0 {
		return s, nil
	}
	items, err := materialize(args[0])
	if err != nil {
		return nil, ctx.Raise("TypeError", err.Error())
	}
	sd := s.Data.(*values.Set)
	for _, it := range items {
		sd.Add(it)
	}
	return s, nil
}
