package runtime

import (
	"fmt"

	"github.com/lumen-lang/lumen/values"
)

// materialize drains any of the iterable Kinds into a plain slice, the
// common first step for the sequence builtins (`list`, `sorted`, `sum`,
// `zip`, ...) that need every item up front rather than one at a time.
// Mirrors vm/vm_containers.go's iterableItems, reimplemented here since
// that helper is unexported and this package never imports vm.
func materialize(v *values.Value) ([]*values.Value, error) {
	switch v.Kind {
	case values.KindList:
		return append([]*values.Value(nil), v.Data.(*values.List).Items...), nil
	case values.KindTuple:
		return append([]*values.Value(nil), v.Data.(*values.Tuple).Items...), nil
	case values.KindSet:
		return v.Data.(*values.Set).Items(), nil
	case values.KindDict:
		d := v.Data.(*values.Dict)
		out := make([]*values.Value, 0, d.Len())
		for _, k := range d.Keys() {
			out = append(out, values.NewStr(k))
		}
		return out, nil
	case values.KindStr:
		s := v.Data.(string)
		out := make([]*values.Value, 0, len(s))
		for _, r := range s {
			out = append(out, values.NewStr(string(r)))
		}
		return out, nil
	case values.KindRange:
		r := v.Data.(*values.Range)
		n := r.Len()
		out := make([]*values.Value, 0, n)
		for i := int64(0); i < n; i++ {
			out = append(out, values.NewInt(r.At(i)))
		}
		return out, nil
	case values.KindIterator:
		it := v.Data.(values.Iterator)
		var out []*values.Value
		for {
			item, ok := it.Next()
			if !ok {
				break
			}
			out = append(out, item)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("'%s' object is not iterable", v.TypeName())
	}
}

// toIterator wraps v as a values.Iterator, reusing its own Kind's iterator
// when it already is one, otherwise materializing then handing out a
// sliceIterator-backed one (values.NewSliceIterator).
func toIterator(v *values.Value) (*values.Value, error) {
	if v.Kind == values.KindIterator {
		return v, nil
	}
	items, err := materialize(v)
	if err != nil {
		return nil, err
	}
	return values.NewIterator(values.NewSliceIterator(items)), nil
}
