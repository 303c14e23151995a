package values

import "math"

// Add implements spec.md §4.1 numeric promotion and the `+` operator.
// Int op Int wraps on overflow (spec.md §9 Design Notes: the explicit,
// performance-motivated choice of fixed-width 64-bit wrapping Int).
func Add(a, b *Value) *Value {
	if a.Kind == KindStr && b.Kind == KindStr {
		return NewStr(a.Data.(string) + b.Data.(string))
	}
	if a.Kind == KindList && b.Kind == KindList {
		la, lb := a.Data.(*List), b.Data.(*List)
		out := make([]*Value, 0, len(la.Items)+len(lb.Items))
		out = append(out, la.Items...)
		out = append(out, lb.Items...)
		return NewList(out)
	}
	if a.Kind == KindTuple && b.Kind == KindTuple {
		ta, tb := a.Data.(*Tuple), b.Data.(*Tuple)
		out := make([]*Value, 0, len(ta.Items)+len(tb.Items))
		out = append(out, ta.Items...)
		out = append(out, tb.Items...)
		return NewTuple(out)
	}
	if a.Kind == KindFloat || b.Kind == KindFloat {
		return NewFloat(a.ToFloat() + b.ToFloat())
	}
	return NewInt(a.ToInt() + b.ToInt())
}

func Sub(a, b *Value) *Value {
	if a.Kind == KindFloat || b.Kind == KindFloat {
		return NewFloat(a.ToFloat() - b.ToFloat())
	}
	return NewInt(a.ToInt() - b.ToInt())
}

func Mul(a, b *Value) *Value {
	if a.Kind == KindStr && b.Kind == KindInt {
		return NewStr(repeatStr(a.Data.(string), b.Data.(int64)))
	}
	if a.Kind == KindList && b.Kind == KindInt {
		return NewList(repeatItems(a.Data.(*List).Items, b.Data.(int64)))
	}
	if a.Kind == KindFloat || b.Kind == KindFloat {
		return NewFloat(a.ToFloat() * b.ToFloat())
	}
	return NewInt(a.ToInt() * b.ToInt())
}

func repeatStr(s string, n int64) string {
	if n <= 0 {
		return ""
	}
	out := make([]byte, 0, len(s)*int(n))
	for i := int64(0); i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}

func repeatItems(items []*Value, n int64) []*Value {
	if n <= 0 {
		return []*Value{}
	}
	out := make([]*Value, 0, len(items)*int(n))
	for i := int64(0); i < n; i++ {
		out = append(out, items...)
	}
	return out
}

// Div always produces a Float per spec.md §4.1 (`/`).
func Div(a, b *Value) (*Value, error) {
	denom := b.ToFloat()
	if denom == 0 {
		return nil, ErrZeroDivision
	}
	return NewFloat(a.ToFloat() / denom), nil
}

// FloorDiv implements `//`: floor division matching the divisor's sign.
func FloorDiv(a, b *Value) (*Value, error) {
	if a.Kind == KindFloat || b.Kind == KindFloat {
		denom := b.ToFloat()
		if denom == 0 {
			return nil, ErrZeroDivision
		}
		return NewFloat(math.Floor(a.ToFloat() / denom)), nil
	}
	bi := b.ToInt()
	if bi == 0 {
		return nil, ErrZeroDivision
	}
	ai := a.ToInt()
	q := ai / bi
	if (ai%bi != 0) && ((ai < 0) != (bi < 0)) {
		q--
	}
	return NewInt(q), nil
}

// Mod implements `%`: result matches the divisor's sign (spec.md §8).
func Mod(a, b *Value) (*Value, error) {
	if a.Kind == KindFloat || b.Kind == KindFloat {
		denom := b.ToFloat()
		if denom == 0 {
			return nil, ErrZeroDivision
		}
		r := math.Mod(a.ToFloat(), denom)
		if r != 0 && (r < 0) != (denom < 0) {
			r += denom
		}
		return NewFloat(r), nil
	}
	bi := b.ToInt()
	if bi == 0 {
		return nil, ErrZeroDivision
	}
	ai := a.ToInt()
	r := ai % bi
	if r != 0 && (r < 0) != (bi < 0) {
		r += bi
	}
	return NewInt(r), nil
}

func Pow(a, b *Value) *Value {
	if a.Kind == KindInt && b.Kind == KindInt && b.Data.(int64) >= 0 {
		result := int64(1)
		base := a.Data.(int64)
		exp := b.Data.(int64)
		for exp > 0 {
			if exp&1 == 1 {
				result *= base
			}
			base *= base
			exp >>= 1
		}
		return NewInt(result)
	}
	return NewFloat(math.Pow(a.ToFloat(), b.ToFloat()))
}

func Neg(a *Value) *Value {
	if a.Kind == KindFloat {
		return NewFloat(-a.Data.(float64))
	}
	return NewInt(-a.ToInt())
}

func BitNot(a *Value) *Value { return NewInt(^a.ToInt()) }
func BitAnd(a, b *Value) *Value { return NewInt(a.ToInt() & b.ToInt()) }
func BitOr(a, b *Value) *Value  { return NewInt(a.ToInt() | b.ToInt()) }
func BitXor(a, b *Value) *Value { return NewInt(a.ToInt() ^ b.ToInt()) }
func Shl(a, b *Value) *Value    { return NewInt(a.ToInt() << uint(b.ToInt())) }
func Shr(a, b *Value) *Value    { return NewInt(a.ToInt() >> uint(b.ToInt())) }
