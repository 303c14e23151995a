package values

import "fmt"

// Cell is the shared mutable box backing a variable captured across a
// closure boundary (spec.md §4.6, GLOSSARY "Closure cell"). Both the
// defining frame and every inner Closure referencing the same free variable
// hold a pointer to the same Cell.
type Cell struct {
	Value *Value
}

func NewCell(v *Value) *Cell {
	if v == nil {
		v = None()
	}
	return &Cell{Value: v}
}

// Code is the minimal surface the values package needs from a compiled
// function body. The concrete implementation (registry.CodeObject) lives in
// the registry package; values only needs to carry the pointer opaquely so
// that Closure can live beside the other Value variants without an import
// cycle between values and registry.
type Code interface {
	CodeName() string
}

// Closure is the §3.1 Closure variant: an immutable reference to a
// CodeObject plus the mutable cells captured from enclosing scopes.
type Closure struct {
	Proto     Code
	Cells     []*Cell           // indexed the same as Proto's free_vars
	Defaults  []*Value          // positional default values, aligned to tail params
	KwDefaults map[string]*Value
	Name      string
	BoundSelf *Value // set for bound methods; nil for plain functions
	IsMethod  bool
}

func NewClosure(proto Code, cells []*Cell, name string) *Value {
	return &Value{Kind: KindClosure, Data: &Closure{Proto: proto, Cells: cells, Name: name}}
}

func (v *Value) ClosureData() *Closure {
	if v.Kind != KindClosure {
		return nil
	}
	return v.Data.(*Closure)
}

func (c *Closure) DisplayStr() string  { return c.DisplayRepr() }
func (c *Closure) DisplayRepr() string { return fmt.Sprintf("<function %s at %p>", c.Name, c) }

// NativeCallCtx is the service surface a NativeFunc receives instead of a
// raw VM pointer (spec.md §6 host-callable contract). It is declared here
// as a plain Go interface rather than imported from registry, so that
// registry.BuiltinCallContext (identical method set) satisfies it
// structurally without values depending on registry.
type NativeCallCtx interface {
	Raise(class, message string) error
	Self() *Value
	CallValue(callee *Value, args []*Value) (*Value, error)
	Lookup(name string) (*Value, bool)
	Write(s string) (int, error)
}

// NativeFunc is the §3.1 NativeCallable variant: a host function pointer
// plus declared arity (spec.md §6 "VM → Host callable"). BoundSelf is set
// when NativeFunc backs a bound builtin method (spec.md §4.3 descriptor
// protocol), mirroring Closure.BoundSelf.
type NativeFunc struct {
	Name      string
	MinArgs   int
	MaxArgs   int // -1 means variadic
	Fn        func(ctx NativeCallCtx, args []*Value) (*Value, error)
	BoundSelf *Value
}

func NewNativeFunc(nf *NativeFunc) *Value {
	return &Value{Kind: KindNativeCallable, Data: nf}
}

func (v *Value) NativeData() *NativeFunc {
	if v.Kind != KindNativeCallable {
		return nil
	}
	return v.Data.(*NativeFunc)
}

func (n *NativeFunc) DisplayStr() string { return n.DisplayRepr() }
func (n *NativeFunc) DisplayRepr() string {
	return fmt.Sprintf("<built-in function %s>", n.Name)
}

// Iterator is the §3.1 Iterator variant contract: Next returns the next
// produced Value and true, or (nil, false) once exhausted.
type Iterator interface {
	Next() (*Value, bool)
}

func NewIterator(it Iterator) *Value {
	return &Value{Kind: KindIterator, Data: it}
}

func (v *Value) IteratorData() Iterator {
	if v.Kind != KindIterator {
		return nil
	}
	return v.Data.(Iterator)
}

// sliceIterator is the Iterator backing list/tuple/range `for` loops.
type sliceIterator struct {
	items []*Value
	pos   int
}

func NewSliceIterator(items []*Value) Iterator {
	return &sliceIterator{items: items}
}

func (s *sliceIterator) Next() (*Value, bool) {
	if s.pos >= len(s.items) {
		return nil, false
	}
	v := s.items[s.pos]
	s.pos++
	return v, true
}

type rangeIterator struct {
	r   *Range
	pos int64
	n   int64
}

func NewRangeIterator(r *Range) Iterator {
	return &rangeIterator{r: r, n: r.Len()}
}

func (ri *rangeIterator) Next() (*Value, bool) {
	if ri.pos >= ri.n {
		return nil, false
	}
	v := NewInt(ri.r.At(ri.pos))
	ri.pos++
	return v, true
}
