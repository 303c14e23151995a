package runtime

import (
	"fmt"
	"sort"

	"github.com/lumen-lang/lumen/values"
)

func iterSpecs() []builtinSpec {
	return []builtinSpec{
		{name: "len", minArgs: 1, maxArgs: 1, fn: builtinLen},
		{name: "abs", minArgs: 1, maxArgs: 1, fn: builtinAbs},
		{name: "min", minArgs: 1, maxArgs: -1, fn: func(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
			return extremum(ctx, args, -1)
		}},
		{name: "max", minArgs: 1, maxArgs: -1, fn: func(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
			return extremum(ctx, args, 1)
		}},
		{name: "sum", minArgs: 1, maxArgs: 2, fn: builtinSum},
		{name: "any", minArgs: 1, maxArgs: 1, fn: func(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
			return anyAll(ctx, args[0], false)
		}},
		{name: "all", minArgs: 1, maxArgs: 1, fn: func(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
			return anyAll(ctx, args[0], true)
		}},
		{name: "iter", minArgs: 1, maxArgs: 1, fn: func(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
			it, err := toIterator(args[0])
			if err != nil {
				return nil, ctx.Raise("TypeError", err.Error())
			}
			return it, nil
		}},
		{name: "next", minArgs: 1, maxArgs: 2, fn: builtinNext},
		{name: "enumerate", minArgs: 1, maxArgs: 2, fn: builtinEnumerate},
		{name: "zip", minArgs: 0, maxArgs: -1, fn: builtinZip},
		{name: "map", minArgs: 2, maxArgs: -1, fn: builtinMap},
		{name: "filter", minArgs: 2, maxArgs: 2, fn: builtinFilter},
		{name: "sorted", minArgs: 1, maxArgs: 2, fn: builtinSorted},
		{name: "reversed", minArgs: 1, maxArgs: 1, fn: builtinReversed},
	}
}

func builtinLen(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
	v := args[0]
	switch v.Kind {
	case values.KindStr:
		return values.NewInt(int64(len([]rune(v.Data.(string))))), nil
	case values.KindBytes:
		return values.NewInt(int64(len(v.Data.([]byte)))), nil
	case values.KindList:
		return values.NewInt(int64(len(v.Data.(*values.List).Items))), nil
	case values.KindTuple:
		return values.NewInt(int64(len(v.Data.(*values.Tuple).Items))), nil
	case values.KindDict:
		return values.NewInt(int64(v.Data.(*values.Dict).Len())), nil
	case values.KindSet:
		return values.NewInt(int64(v.Data.(*values.Set).Len())), nil
	case values.KindRange:
		return values.NewInt(v.Data.(*values.Range).Len()), nil
	default:
		return nil, ctx.Raise("TypeError", fmt.Sprintf("object of type '%s' has no len()", v.TypeName()))
	}
}

func builtinAbs(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
	v := args[0]
	switch v.Kind {
	case values.KindInt, values.KindBool:
		i := v.ToInt()
		if i < 0 {
			i = -i
		}
		return values.NewInt(i), nil
	case values.KindFloat:
		f := v.ToFloat()
		if f < 0 {
			f = -f
		}
		return values.NewFloat(f), nil
	default:
		return nil, ctx.Raise("TypeError", fmt.Sprintf("bad operand type for abs(): '%s'", v.TypeName()))
	}
}

// extremum implements both min() and max(): sign=-1 keeps the smallest
// Compare() result seen, sign=1 the largest. A single iterable argument is
// scanned; two or more positional arguments are compared against each
// other, matching Python's overloaded min/max signature.
func extremum(ctx values.NativeCallCtx, args []*values.Value, sign int) (*values.Value, error) {
	items := args
	if len(args) == 1 {
		var err error
		items, err = materialize(args[0])
		if err != nil {
			return nil, ctx.Raise("TypeError", err.Error())
		}
	}
	if len(items) == 0 {
		return nil, ctx.Raise("ValueError", "arg is an empty sequence")
	}
	best := items[0]
	for _, it := range items[1:] {
		cmp, ok := values.Compare(it, best)
		if !ok {
			return nil, ctx.Raise("TypeError", fmt.Sprintf("'<' not supported between instances of '%s' and '%s'", it.TypeName(), best.TypeName()))
		}
		if cmp*sign > 0 {
			best = it
		}
	}
	return best, nil
}

func builtinSum(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
	items, err := materialize(args[0])
	if err != nil {
		return nil, ctx.Raise("TypeError", err.Error())
	}
	start := int64(0)
	var fstart float64
	isFloat := false
	if len(args) == 2 {
		if args[1].Kind == values.KindFloat {
			isFloat = true
			fstart = args[1].ToFloat()
		} else {
			start = args[1].ToInt()
		}
	}
	for _, it := range items {
		if !it.IsNumeric() {
			return nil, ctx.Raise("TypeError", fmt.Sprintf("unsupported operand type(s) for +: '%s'", it.TypeName()))
		}
		if it.Kind == values.KindFloat {
			isFloat = true
		}
	}
	if isFloat {
		total := fstart + float64(start)
		for _, it := range items {
			total += it.ToFloat()
		}
		return values.NewFloat(total), nil
	}
	total := start
	for _, it := range items {
		total += it.ToInt()
	}
	return values.NewInt(total), nil
}

func anyAll(ctx values.NativeCallCtx, v *values.Value, all bool) (*values.Value, error) {
	items, err := materialize(v)
	if err != nil {
		return nil, ctx.Raise("TypeError", err.Error())
	}
	for _, it := range items {
		if it.Truthiness() != all {
			return values.NewBool(!all), nil
		}
	}
	return values.NewBool(all), nil
}

func builtinNext(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
	it := args[0].IteratorData()
	if it == nil {
		return nil, ctx.Raise("TypeError", "next() argument must be an iterator")
	}
	v, ok := it.Next()
	if !ok {
		if len(args) == 2 {
			return args[1], nil
		}
		return nil, ctx.Raise("StopIteration", "")
	}
	return v, nil
}

type enumIterator struct {
	inner values.Iterator
	next  int64
}

func (e *enumIterator) Next() (*values.Value, bool) {
	v, ok := e.inner.Next()
	if !ok {
		return nil, false
	}
	idx := e.next
	e.next++
	return values.NewTuple([]*values.Value{values.NewInt(idx), v}), true
}

func builtinEnumerate(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
	items, err := materialize(args[0])
	if err != nil {
		return nil, ctx.Raise("TypeError", err.Error())
	}
	start := int64(0)
	if len(args) == 2 {
		start = args[1].ToInt()
	}
	return values.NewIterator(&enumIterator{inner: values.NewSliceIterator(items), next: start}), nil
}

func builtinZip(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
	seqs := make([][]*values.Value, len(args))
	minLen := -1
	for i, a := range args {
		items, err := materialize(a)
		if err != nil {
			return nil, ctx.Raise("TypeError", err.Error())
		}
		seqs[i] = items
		if minLen == -1 || len(items) < minLen {
			minLen = len(items)
		}
	}
	if minLen < 0 {
		minLen = 0
	}
	out := make([]*values.Value, minLen)
	for i := 0; i < minLen; i++ {
		row := make([]*values.Value, len(seqs))
		for j := range seqs {
			row[j] = seqs[j][i]
		}
		out[i] = values.NewTuple(row)
	}
	return values.NewIterator(values.NewSliceIterator(out)), nil
}

func builtinMap(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
	fn := args[0]
	seqs := make([][]*values.Value, len(args)-1)
	minLen := -1
	for i, a := range args[1:] {
		items, err := materialize(a)
		if err != nil {
			return nil, ctx.Raise("TypeError", err.Error())
		}
		seqs[i] = items
		if minLen == -1 || len(items) < minLen {
			minLen = len(items)
		}
	}
	if minLen < 0 {
		minLen = 0
	}
	out := make([]*values.Value, minLen)
	for i := 0; i < minLen; i++ {
		callArgs := make([]*values.Value, len(seqs))
		for j := range seqs {
			callArgs[j] = seqs[j][i]
		}
		result, err := ctx.CallValue(fn, callArgs)
		if err != nil {
			return nil, err
		}
		out[i] = result
	}
	return values.NewIterator(values.NewSliceIterator(out)), nil
}

func builtinFilter(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
	items, err := materialize(args[1])
	if err != nil {
		return nil, ctx.Raise("TypeError", err.Error())
	}
	var out []*values.Value
	for _, it := range items {
		keep := it.Truthiness()
		if !args[0].IsNone() {
			result, err := ctx.CallValue(args[0], []*values.Value{it})
			if err != nil {
				return nil, err
			}
			keep = result.Truthiness()
		}
		if keep {
			out = append(out, it)
		}
	}
	return values.NewIterator(values.NewSliceIterator(out)), nil
}

func builtinSorted(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
	items, err := materialize(args[0])
	if err != nil {
		return nil, ctx.Raise("TypeError", err.Error())
	}
	out := append([]*values.Value(nil), items...)
	var sortErr error
	sort.SliceStable(out, func(i, j int) bool {
		cmp, ok := values.Compare(out[i], out[j])
		if !ok {
			sortErr = fmt.Errorf("'<' not supported between instances of '%s' and '%s'", out[i].TypeName(), out[j].TypeName())
			return false
		}
		return cmp < 0
	})
	if sortErr != nil {
		return nil, ctx.Raise("TypeError", sortErr.Error())
	}
	return values.NewList(out), nil
}

func builtinReversed(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
	items, err := materialize(args[0])
	if err != nil {
		return nil, ctx.Raise("TypeError", err.Error())
	}
	out := make([]*values.Value, len(items))
	for i, it := range items {
		out[len(items)-1-i] = it
	}
	return values.NewIterator(values.NewSliceIterator(out)), nil
}
