package values

import (
	"fmt"
	"sort"
	"strconv"
)

// Equal implements `==`: numeric types compare by mathematical value across
// Int/Float/Bool; containers compare element-wise; everything else compares
// by Kind+content (spec.md §3.1, §4.1).
func Equal(a, b *Value) bool {
	if a.Kind == KindNone || b.Kind == KindNone {
		return a.Kind == KindNone && b.Kind == KindNone
	}
	if a.IsNumeric() && b.IsNumeric() {
		if a.Kind == KindFloat || b.Kind == KindFloat {
			return a.ToFloat() == b.ToFloat()
		}
		return a.ToInt() == b.ToInt()
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindStr:
		return a.Data.(string) == b.Data.(string)
	case KindBytes:
		ab, bb := a.Data.([]byte), b.Data.([]byte)
		if len(ab) != len(bb) {
			return false
		}
		for i := range ab {
			if ab[i] != bb[i] {
				return false
			}
		}
		return true
	case KindList:
		return equalSeq(a.Data.(*List).Items, b.Data.(*List).Items)
	case KindTuple:
		return equalSeq(a.Data.(*Tuple).Items, b.Data.(*Tuple).Items)
	case KindDict:
		da, db := a.Data.(*Dict), b.Data.(*Dict)
		if da.Len() != db.Len() {
			return false
		}
		for _, k := range da.keys {
			av, _ := da.Get(k)
			bv, ok := db.Get(k)
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	case KindSet:
		sa, sb := a.Data.(*Set), b.Data.(*Set)
		if sa.Len() != sb.Len() {
			return false
		}
		for _, it := range sa.Items() {
			if !sb.Contains(it) {
				return false
			}
		}
		return true
	case KindRange:
		ra, rb := a.Data.(*Range), b.Data.(*Range)
		return *ra == *rb
	default:
		return a.Identity() == b.Identity()
	}
}

func equalSeq(a, b []*Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Compare returns -1, 0, 1 for <, ==, > (spec.md §4.3 comparison
// operators). A NaN operand yields ok == false, as an unordered pair of
// Kinds does; the VM's execCompare turns the NaN case into False for every
// ordering operator, following IEEE-754.
func Compare(a, b *Value) (int, bool) {
	if a.IsNumeric() && b.IsNumeric() {
		af, bf := a.ToFloat(), b.ToFloat()
		if isNaN(af) || isNaN(bf) {
			return 0, false
		}
		if af < bf {
			return -1, true
		}
		if af > bf {
			return 1, true
		}
		return 0, true
	}
	if a.Kind == KindStr && b.Kind == KindStr {
		as, bs := a.Data.(string), b.Data.(string)
		switch {
		case as < bs:
			return -1, true
		case as > bs:
			return 1, true
		default:
			return 0, true
		}
	}
	if (a.Kind == KindList && b.Kind == KindList) || (a.Kind == KindTuple && b.Kind == KindTuple) {
		var ia, ib []*Value
		if a.Kind == KindList {
			ia, ib = a.Data.(*List).Items, b.Data.(*List).Items
		} else {
			ia, ib = a.Data.(*Tuple).Items, b.Data.(*Tuple).Items
		}
		n := len(ia)
		if len(ib) < n {
			n = len(ib)
		}
		for i := 0; i < n; i++ {
			if c, ok := Compare(ia[i], ib[i]); ok && c != 0 {
				return c, true
			}
		}
		switch {
		case len(ia) < len(ib):
			return -1, true
		case len(ia) > len(ib):
			return 1, true
		default:
			return 0, true
		}
	}
	return 0, false
}

func isNaN(f float64) bool { return f != f }

// Hashable reports whether v may be used as a dict key or set member
// (spec.md §3.1 Invariants).
func Hashable(v *Value) bool {
	switch v.Kind {
	case KindNone, KindBool, KindInt, KindFloat, KindStr, KindBytes, KindRange:
		return true
	case KindTuple:
		for _, it := range v.Data.(*Tuple).Items {
			if !Hashable(it) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// HashKey renders a hashable Value into a string usable as a Go map key.
// Distinct Values that compare Equal always render the same key (spec.md
// §8: hash(a) == hash(b) whenever a == b).
func HashKey(v *Value) (string, bool) {
	if !Hashable(v) {
		return "", false
	}
	switch v.Kind {
	case KindNone:
		return "n", true
	case KindBool:
		if v.Data.(bool) {
			return "i1", true
		}
		return "i0", true
	case KindInt:
		return "i" + strconv.FormatInt(v.Data.(int64), 10), true
	case KindFloat:
		f := v.Data.(float64)
		if f == float64(int64(f)) {
			return "i" + strconv.FormatInt(int64(f), 10), true
		}
		return "f" + strconv.FormatFloat(f, 'g', -1, 64), true
	case KindStr:
		return "s" + v.Data.(string), true
	case KindBytes:
		return "y" + string(v.Data.([]byte)), true
	case KindRange:
		r := v.Data.(*Range)
		return fmt.Sprintf("r%d:%d:%d", r.Start, r.Stop, r.Step), true
	case KindTuple:
		parts := "t"
		for _, it := range v.Data.(*Tuple).Items {
			k, _ := HashKey(it)
			parts += "|" + k
		}
		return parts, true
	default:
		return "", false
	}
}

// SortKeys returns a Dict's keys ordered for deterministic iteration where
// the host needs one (e.g. var-dump style diagnostics), independent of
// insertion order.
func SortKeys(keys []string) []string {
	out := append([]string(nil), keys...)
	sort.Strings(out)
	return out
}
