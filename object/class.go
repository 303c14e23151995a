// Package object implements Lumen's class model: C3-linearized multiple
// inheritance, instances, modules, and exceptions (spec.md §3.4, §3.5).
// It sits above registry (compiled descriptors) and values (the Value
// union), turning a ClassDescriptor into a live Class with a computed MRO.
package object

import (
	"fmt"
	"sync"

	"github.com/lumen-lang/lumen/registry"
	"github.com/lumen-lang/lumen/values"
)

// Class is a live, instantiable type: the runtime counterpart of a
// registry.ClassDescriptor once its bases have been linearized (spec.md
// §3.4). Grounded on the teacher's classRuntime shape (vm/class_manager.go)
// but generalized from a single `Parent string` to `Bases []*Class` plus a
// computed `MRO`.
type Class struct {
	Name      string
	Bases     []*Class
	MRO       []*Class // self-first, per C3; always ends in the universal base when one exists
	Methods   map[string]*registry.MethodDescriptor
	ClassVars map[string]*values.Value
	Doc       string

	mu         sync.RWMutex
	StaticVars map[string]*values.Value // mutable class attributes assigned after construction
}

// c3Linearize implements the C3 algorithm over the base classes alone:
// merge(L[B1], ..., L[Bn], [B1,...,Bn]). The caller (NewClass) prepends the
// class itself to the front of the result.
func c3Linearize(name string, bases []*Class) ([]*Class, error) {
	if len(bases) == 0 {
		return nil, nil
	}
	sequences := make([][]*Class, 0, len(bases)+1)
	for _, b := range bases {
		sequences = append(sequences, append([]*Class(nil), b.MRO...))
	}
	sequences = append(sequences, append([]*Class(nil), bases...))

	var merged []*Class
	for {
		sequences = dropEmpty(sequences)
		if len(sequences) == 0 {
			break
		}
		var head *Class
		for _, seq := range sequences {
			candidate := seq[0]
			if !appearsInTail(candidate, sequences) {
				head = candidate
				break
			}
		}
		if head == nil {
			return nil, fmt.Errorf("cannot create a consistent method resolution order (MRO) for bases of class %q", name)
		}
		merged = append(merged, head)
		for i, seq := range sequences {
			if len(seq) > 0 && seq[0] == head {
				sequences[i] = seq[1:]
			}
		}
	}
	return merged, nil
}

func dropEmpty(seqs [][]*Class) [][]*Class {
	out := seqs[:0]
	for _, s := range seqs {
		if len(s) > 0 {
			out = append(out, s)
		}
	}
	return out
}

func appearsInTail(c *Class, seqs [][]*Class) bool {
	for _, seq := range seqs {
		for _, x := range seq[1:] {
			if x == c {
				return true
			}
		}
	}
	return false
}

// NewClass constructs a live Class with its full self-first MRO
// ([self] ++ linearize(bases)) (spec.md §3.4 "Method Resolution Order").
// It fails when the base list admits no consistent linearization (e.g.
// conflicting base orders), mirroring CPython's TypeError in that
// situation.
func NewClass(name string, bases []*Class, methods map[string]*registry.MethodDescriptor, classVars map[string]*values.Value) (*Class, error) {
	baseMRO, err := c3Linearize(name, bases)
	if err != nil {
		return nil, err
	}
	if methods == nil {
		methods = make(map[string]*registry.MethodDescriptor)
	}
	if classVars == nil {
		classVars = make(map[string]*values.Value)
	}
	c := &Class{
		Name:       name,
		Bases:      bases,
		Methods:    methods,
		ClassVars:  classVars,
		StaticVars: make(map[string]*values.Value),
	}
	c.MRO = append([]*Class{c}, baseMRO...)
	return c, nil
}

// LookupMethod walks the MRO in order, returning the first class that
// defines name (spec.md §3.4: attribute/method lookup follows the MRO).
func (c *Class) LookupMethod(name string) (*registry.MethodDescriptor, *Class, bool) {
	for _, k := range c.MRO {
		if m, ok := k.Methods[name]; ok {
			return m, k, true
		}
	}
	return nil, nil, false
}

// LookupClassVar walks the MRO for a class-level (non-method) attribute.
func (c *Class) LookupClassVar(name string) (*values.Value, bool) {
	for _, k := range c.MRO {
		k.mu.RLock()
		if v, ok := k.StaticVars[name]; ok {
			k.mu.RUnlock()
			return v, true
		}
		k.mu.RUnlock()
		if v, ok := k.ClassVars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// SetClassVar assigns a class attribute directly on c (not searching the
// MRO — `Cls.x = v` always binds on Cls itself, shadowing any base default).
func (c *Class) SetClassVar(name string, v *values.Value) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.StaticVars[name] = v
}

// IsSubclassOf reports whether c appears in other's... no: whether other
// appears in c's own MRO (c derives from other), per `issubclass(c, other)`.
func (c *Class) IsSubclassOf(other *Class) bool {
	for _, k := range c.MRO {
		if k == other {
			return true
		}
	}
	return false
}

// IndexInMRO returns the position of other in c's MRO, or -1 (backs the
// zero-arg `super()` sugar, which resumes lookup just past the class that
// defined the currently executing method).
func (c *Class) IndexInMRO(other *Class) int {
	for i, k := range c.MRO {
		if k == other {
			return i
		}
	}
	return -1
}

// LookupMethodFrom is LookupMethod restricted to MRO[start:], the lookup
// super() performs: skip every class up to and including the one that
// defined the calling method.
func (c *Class) LookupMethodFrom(start int, name string) (*registry.MethodDescriptor, *Class, bool) {
	if start < 0 || start >= len(c.MRO) {
		return nil, nil, false
	}
	for _, k := range c.MRO[start:] {
		if m, ok := k.Methods[name]; ok {
			return m, k, true
		}
	}
	return nil, nil, false
}

// LookupClassVarFrom mirrors LookupMethodFrom for class-level attributes.
func (c *Class) LookupClassVarFrom(start int, name string) (*values.Value, bool) {
	if start < 0 || start >= len(c.MRO) {
		return nil, false
	}
	for _, k := range c.MRO[start:] {
		k.mu.RLock()
		if v, ok := k.StaticVars[name]; ok {
			k.mu.RUnlock()
			return v, true
		}
		k.mu.RUnlock()
		if v, ok := k.ClassVars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

func NewClassValue(c *Class) *values.Value {
	return &values.Value{Kind: values.KindClass, Data: c}
}

func ClassOf(v *values.Value) (*Class, bool) {
	if v.Kind != values.KindClass {
		return nil, false
	}
	c, ok := v.Data.(*Class)
	return c, ok
}

func (c *Class) DisplayStr() string  { return c.DisplayRepr() }
func (c *Class) DisplayRepr() string { return fmt.Sprintf("<class '%s'>", c.Name) }
