// Package values implements Lumen's tagged runtime Value representation
// (spec.md §3.1, §4.1): the discriminated union every bytecode instruction
// reads and writes, plus the conversions, comparisons, and hashing rules
// that back the language's dynamic typing.
package values

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies which variant of spec.md's §3.1 table a Value holds.
type Kind byte

const (
	KindNone Kind = iota
	KindBool
	KindInt
	KindFloat
	KindStr
	KindBytes
	KindList
	KindTuple
	KindDict
	KindSet
	KindRange
	KindClosure
	KindNativeCallable
	KindClass
	KindInstance
	KindException
	KindModule
	KindFile
	KindIterator
	KindSlice
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "NoneType"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindStr:
		return "str"
	case KindBytes:
		return "bytes"
	case KindList:
		return "list"
	case KindTuple:
		return "tuple"
	case KindDict:
		return "dict"
	case KindSet:
		return "set"
	case KindRange:
		return "range"
	case KindClosure:
		return "function"
	case KindNativeCallable:
		return "builtin_function_or_method"
	case KindClass:
		return "type"
	case KindInstance:
		return "object"
	case KindException:
		return "Exception"
	case KindModule:
		return "module"
	case KindFile:
		return "file"
	case KindIterator:
		return "iterator"
	case KindSlice:
		return "slice"
	default:
		return "unknown"
	}
}

// Value is the tagged union described in spec.md §3.1. Small immediates
// (None, Bool, Int, Float) are carried inline in Data; heap-resident
// variants carry a pointer to their backing struct. A production build may
// replace this with the NaN-boxed 64-bit encoding spec.md §4.1 allows as an
// optimization — every opcode handler here only relies on the Value
// contract (Kind, Data), never on the encoding, so swapping encodings never
// changes observable behavior.
type Value struct {
	Kind Kind
	Data interface{}
}

// singletons
var (
	none   = &Value{Kind: KindNone}
	vTrue  = &Value{Kind: KindBool, Data: true}
	vFalse = &Value{Kind: KindBool, Data: false}
)

func None() *Value { return none }

func NewBool(b bool) *Value {
	if b {
		return vTrue
	}
	return vFalse
}

func NewInt(i int64) *Value     { return &Value{Kind: KindInt, Data: i} }
func NewFloat(f float64) *Value { return &Value{Kind: KindFloat, Data: f} }
func NewStr(s string) *Value    { return &Value{Kind: KindStr, Data: s} }
func NewBytes(b []byte) *Value  { return &Value{Kind: KindBytes, Data: b} }

// List is the mutable ordered sequence variant.
type List struct {
	Items []*Value
}

func NewList(items []*Value) *Value {
	if items == nil {
		items = []*Value{}
	}
	return &Value{Kind: KindList, Data: &List{Items: items}}
}

// Tuple is the immutable ordered sequence variant.
type Tuple struct {
	Items []*Value
}

func NewTuple(items []*Value) *Value {
	return &Value{Kind: KindTuple, Data: &Tuple{Items: items}}
}

// Dict is the insertion-ordered Str→Value mapping variant.
type Dict struct {
	keys   []string
	index  map[string]int
	values []*Value
}

func NewDict() *Value {
	return &Value{Kind: KindDict, Data: &Dict{index: make(map[string]int)}}
}

func (d *Dict) Get(key string) (*Value, bool) {
	if idx, ok := d.index[key]; ok {
		return d.values[idx], true
	}
	return nil, false
}

func (d *Dict) Set(key string, v *Value) {
	if idx, ok := d.index[key]; ok {
		d.values[idx] = v
		return
	}
	d.index[key] = len(d.keys)
	d.keys = append(d.keys, key)
	d.values = append(d.values, v)
}

func (d *Dict) Delete(key string) bool {
	idx, ok := d.index[key]
	if !ok {
		return false
	}
	delete(d.index, key)
	d.keys = append(d.keys[:idx], d.keys[idx+1:]...)
	d.values = append(d.values[:idx], d.values[idx+1:]...)
	for i := idx; i < len(d.keys); i++ {
		d.index[d.keys[i]] = i
	}
	return true
}

func (d *Dict) Len() int       { return len(d.keys) }
func (d *Dict) Keys() []string { return append([]string(nil), d.keys...) }

// Set is the unordered-set variant, keyed by the content hash of hashable
// members (only hashable Values may be inserted; see Hashable/HashKey).
type Set struct {
	members map[string]*Value
	order   []string
}

func NewSet() *Value {
	return &Value{Kind: KindSet, Data: &Set{members: make(map[string]*Value)}}
}

func (s *Set) Add(v *Value) bool {
	key, ok := HashKey(v)
	if !ok {
		return false
	}
	if _, exists := s.members[key]; !exists {
		s.order = append(s.order, key)
	}
	s.members[key] = v
	return true
}

func (s *Set) Contains(v *Value) bool {
	key, ok := HashKey(v)
	if !ok {
		return false
	}
	_, exists := s.members[key]
	return exists
}

func (s *Set) Remove(v *Value) bool {
	key, ok := HashKey(v)
	if !ok {
		return false
	}
	if _, exists := s.members[key]; !exists {
		return false
	}
	delete(s.members, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *Set) Len() int { return len(s.order) }

func (s *Set) Items() []*Value {
	out := make([]*Value, 0, len(s.order))
	for _, k := range s.order {
		out = append(out, s.members[k])
	}
	return out
}

// Range is the immutable start/stop/step variant.
type Range struct {
	Start, Stop, Step int64
}

func NewRange(start, stop, step int64) *Value {
	return &Value{Kind: KindRange, Data: &Range{Start: start, Stop: stop, Step: step}}
}

// Len returns the number of integers this range produces.
func (r *Range) Len() int64 {
	if r.Step == 0 {
		return 0
	}
	if r.Step > 0 {
		if r.Stop <= r.Start {
			return 0
		}
		return (r.Stop - r.Start + r.Step - 1) / r.Step
	}
	if r.Stop >= r.Start {
		return 0
	}
	return (r.Start - r.Stop - r.Step - 1) / (-r.Step)
}

func (r *Range) At(i int64) int64 { return r.Start + i*r.Step }

// Slice is the `a[lower:upper:step]` subscript variant (spec.md §4.1/§4.3).
// Each bound is nil when the source omitted it (`a[:2]`, `a[1:]`).
type Slice struct {
	Lower, Upper, Step *Value
}

func NewSlice(lower, upper, step *Value) *Value {
	return &Value{Kind: KindSlice, Data: &Slice{Lower: lower, Upper: upper, Step: step}}
}

// Indices resolves the slice's bounds against a sequence of length n,
// following CPython's clamping rules (negative indices count from the end,
// out-of-range bounds clamp rather than error).
func (s *Slice) Indices(n int64) (start, stop, step int64) {
	step = 1
	if s.Step != nil && !s.Step.IsNone() {
		step = s.Step.ToInt()
		if step == 0 {
			step = 1
		}
	}
	if step > 0 {
		start, stop = 0, n
	} else {
		start, stop = n-1, -1
	}
	if s.Lower != nil && !s.Lower.IsNone() {
		start = clampIndex(s.Lower.ToInt(), n, step)
	}
	if s.Upper != nil && !s.Upper.IsNone() {
		stop = clampIndex(s.Upper.ToInt(), n, step)
	}
	return start, stop, step
}

func clampIndex(i, n, step int64) int64 {
	if i < 0 {
		i += n
	}
	if step > 0 {
		if i < 0 {
			return 0
		}
		if i > n {
			return n
		}
		return i
	}
	if i < -1 {
		return -1
	}
	if i >= n {
		return n - 1
	}
	return i
}

// Type predicates.

func (v *Value) IsNone() bool { return v.Kind == KindNone }
func (v *Value) IsBool() bool { return v.Kind == KindBool }
func (v *Value) IsInt() bool  { return v.Kind == KindInt }
func (v *Value) IsFloat() bool {
	return v.Kind == KindFloat
}
func (v *Value) IsNumeric() bool {
	return v.Kind == KindInt || v.Kind == KindFloat || v.Kind == KindBool
}
func (v *Value) IsStr() bool      { return v.Kind == KindStr }
func (v *Value) IsBytes() bool    { return v.Kind == KindBytes }
func (v *Value) IsList() bool     { return v.Kind == KindList }
func (v *Value) IsTuple() bool    { return v.Kind == KindTuple }
func (v *Value) IsDict() bool     { return v.Kind == KindDict }
func (v *Value) IsSet() bool      { return v.Kind == KindSet }
func (v *Value) IsCallable() bool { return v.Kind == KindClosure || v.Kind == KindNativeCallable }

// Truthiness implements spec.md §4.1 truthiness.
func (v *Value) Truthiness() bool {
	switch v.Kind {
	case KindNone:
		return false
	case KindBool:
		return v.Data.(bool)
	case KindInt:
		return v.Data.(int64) != 0
	case KindFloat:
		f := v.Data.(float64)
		return f != 0 && !math.IsNaN(f)
	case KindStr:
		return v.Data.(string) != ""
	case KindBytes:
		return len(v.Data.([]byte)) != 0
	case KindList:
		return len(v.Data.(*List).Items) != 0
	case KindTuple:
		return len(v.Data.(*Tuple).Items) != 0
	case KindDict:
		return v.Data.(*Dict).Len() != 0
	case KindSet:
		return v.Data.(*Set).Len() != 0
	case KindRange:
		return v.Data.(*Range).Len() != 0
	default:
		return true
	}
}

// ToInt converts following the numeric-promotion rules of §4.1.
func (v *Value) ToInt() int64 {
	switch v.Kind {
	case KindBool:
		if v.Data.(bool) {
			return 1
		}
		return 0
	case KindInt:
		return v.Data.(int64)
	case KindFloat:
		return int64(v.Data.(float64))
	case KindStr:
		i, _ := strconv.ParseInt(strings.TrimSpace(v.Data.(string)), 10, 64)
		return i
	default:
		return 0
	}
}

func (v *Value) ToFloat() float64 {
	switch v.Kind {
	case KindBool:
		if v.Data.(bool) {
			return 1
		}
		return 0
	case KindInt:
		return float64(v.Data.(int64))
	case KindFloat:
		return v.Data.(float64)
	case KindStr:
		f, _ := strconv.ParseFloat(strings.TrimSpace(v.Data.(string)), 64)
		return f
	default:
		return 0
	}
}

// Displayer lets heap-resident Kinds (Class/Instance/Exception/Module, and
// any host-defined type) supply their own `str()`/`repr()` rendering
// without the values package needing to import the object package that
// defines them — avoids the import cycle object -> values -> object.
type Displayer interface {
	DisplayStr() string
	DisplayRepr() string
}

// Str renders the value the way the `str()` builtin would.
func (v *Value) Str() string {
	switch v.Kind {
	case KindNone:
		return "None"
	case KindBool:
		if v.Data.(bool) {
			return "True"
		}
		return "False"
	case KindInt:
		return strconv.FormatInt(v.Data.(int64), 10)
	case KindFloat:
		return formatFloat(v.Data.(float64))
	case KindStr:
		return v.Data.(string)
	case KindBytes:
		return fmt.Sprintf("b'%s'", string(v.Data.([]byte)))
	default:
		if d, ok := v.Data.(Displayer); ok {
			return d.DisplayStr()
		}
		return v.Repr()
	}
}

func formatFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	if math.IsNaN(f) {
		return "nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// Repr renders the value the way the `repr()` builtin would.
func (v *Value) Repr() string {
	switch v.Kind {
	case KindStr:
		return strconv.Quote(v.Data.(string))
	case KindList:
		items := v.Data.(*List).Items
		parts := make([]string, len(items))
		for i, it := range items {
			parts[i] = it.Repr()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindTuple:
		items := v.Data.(*Tuple).Items
		parts := make([]string, len(items))
		for i, it := range items {
			parts[i] = it.Repr()
		}
		if len(parts) == 1 {
			return "(" + parts[0] + ",)"
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case KindDict:
		d := v.Data.(*Dict)
		parts := make([]string, 0, d.Len())
		for _, k := range d.keys {
			val, _ := d.Get(k)
			parts = append(parts, strconv.Quote(k)+": "+val.Repr())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindSet:
		s := v.Data.(*Set)
		if s.Len() == 0 {
			return "set()"
		}
		parts := make([]string, 0, s.Len())
		for _, it := range s.Items() {
			parts = append(parts, it.Repr())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindRange:
		r := v.Data.(*Range)
		return fmt.Sprintf("range(%d, %d, %d)", r.Start, r.Stop, r.Step)
	default:
		if d, ok := v.Data.(Displayer); ok {
			return d.DisplayRepr()
		}
		return fmt.Sprintf("<%s object at %p>", v.TypeName(), v.Data)
	}
}

func (v *Value) TypeName() string { return v.Kind.String() }

// Identity reports pointer/singleton identity for the `is` operator.
func (v *Value) Identity() interface{} {
	switch v.Kind {
	case KindNone:
		return "singleton:none"
	case KindBool:
		if v.Data.(bool) {
			return "singleton:true"
		}
		return "singleton:false"
	case KindInt, KindFloat, KindStr:
		return v // value-identity types compare Equal, not pointer
	default:
		return v.Data // heap types: pointer identity of the backing struct
	}
}

func (v *Value) Is(other *Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindInt:
		return v.Data.(int64) == other.Data.(int64)
	case KindFloat:
		return v.Data.(float64) == other.Data.(float64)
	case KindStr:
		return v.Data.(string) == other.Data.(string)
	default:
		return v.Identity() == other.Identity()
	}
}
