package object

import (
	"fmt"
	"sync"

	"github.com/lumen-lang/lumen/registry"
	"github.com/lumen-lang/lumen/values"
)

// Instance is a live object of a Class: a mutable attribute dict plus a
// pointer to the Class it was constructed from (spec.md §3.1 Instance
// variant). Attribute/method lookup first checks the instance dict, then
// walks Class.MRO — the standard Python attribute-lookup order.
type Instance struct {
	Class *Class

	mu    sync.RWMutex
	Attrs map[string]*values.Value

	// SuperStart marks this Instance as a super() proxy (spec.md SUPPLEMENTED
	// FEATURES: zero-arg super()): non-nil means GetAttr must skip the
	// instance dict and resume the MRO walk just past SuperStart, binding
	// whatever it finds to SuperSelf rather than to this proxy.
	SuperStart *Class
	SuperSelf  *Instance
}

func NewInstance(c *Class) *Instance {
	return &Instance{Class: c, Attrs: make(map[string]*values.Value)}
}

// NewSuperProxy builds the object a zero-arg `super()` call evaluates to:
// attribute lookups against it resume self's MRO walk just past startAfter
// (the class whose method body called super()), but bind any method found to
// self itself so `self` inside the inherited method is still the real
// instance.
func NewSuperProxy(self *Instance, startAfter *Class) *Instance {
	return &Instance{Class: self.Class, SuperStart: startAfter, SuperSelf: self}
}

func NewInstanceValue(c *Class) *values.Value {
	return &values.Value{Kind: values.KindInstance, Data: NewInstance(c)}
}

func InstanceOf(v *values.Value) (*Instance, bool) {
	if v.Kind != values.KindInstance {
		return nil, false
	}
	i, ok := v.Data.(*Instance)
	return i, ok
}

// GetAttr implements instance attribute lookup (spec.md §4.3 LOAD_ATTR):
// instance dict first, then the MRO for a class attribute or method, which
// is bound to the instance when found.
func (i *Instance) GetAttr(name string) (*values.Value, bool) {
	if i.SuperStart != nil {
		idx := i.Class.IndexInMRO(i.SuperStart)
		if m, _, ok := i.Class.LookupMethodFrom(idx+1, name); ok {
			return bindMethod(i.SuperSelf, m), true
		}
		if v, ok := i.Class.LookupClassVarFrom(idx+1, name); ok {
			return v, true
		}
		return nil, false
	}

	i.mu.RLock()
	if v, ok := i.Attrs[name]; ok {
		i.mu.RUnlock()
		return v, true
	}
	i.mu.RUnlock()

	if m, _, ok := i.Class.LookupMethod(name); ok {
		return bindMethod(i, m), true
	}
	if v, ok := i.Class.LookupClassVar(name); ok {
		return v, true
	}
	return nil, false
}

// bindMethod wraps a found method as a bound callable carrying self, unless
// it is a staticmethod (spec.md SUPPLEMENTED FEATURES), which is returned
// unbound. User-defined methods bind as a Closure; native (builtin) methods
// bind as a NativeFunc — both carry BoundSelf so the VM's call protocol
// prepends the receiver uniformly regardless of origin (spec.md §4.3
// descriptor protocol).
func bindMethod(self *Instance, m *registry.MethodDescriptor) *values.Value {
	fn := m.Function
	cells := ClassCells(m)
	if m.IsStatic {
		if fn.IsBuiltin {
			return &values.Value{Kind: values.KindNativeCallable, Data: &values.NativeFunc{
				Name: fn.Name, MinArgs: fn.Builtin.MinArgs, MaxArgs: fn.Builtin.MaxArgs, Fn: fn.Builtin.Fn,
			}}
		}
		return &values.Value{Kind: values.KindClosure, Data: &values.Closure{Proto: fn.Code, Name: fn.Name, Cells: cells}}
	}

	selfVal := &values.Value{Kind: values.KindInstance, Data: self}
	if fn.IsBuiltin {
		return &values.Value{Kind: values.KindNativeCallable, Data: &values.NativeFunc{
			Name: fn.Name, MinArgs: fn.Builtin.MinArgs, MaxArgs: fn.Builtin.MaxArgs, Fn: fn.Builtin.Fn, BoundSelf: selfVal,
		}}
	}
	closure := &values.Closure{Proto: fn.Code, Name: fn.Name, BoundSelf: selfVal, IsMethod: true, Cells: cells}
	return &values.Value{Kind: values.KindClosure, Data: closure}
}

// ClassCells returns the single-element Cells slice a bound Closure needs to
// resolve __class__ (nil when m's body never calls super()).
func ClassCells(m *registry.MethodDescriptor) []*values.Cell {
	if m.ClassCell == nil {
		return nil
	}
	return []*values.Cell{m.ClassCell}
}

// SetAttr sets an instance attribute directly (spec.md §4.3 STORE_ATTR never
// consults the class for write targets, only for reads).
func (i *Instance) SetAttr(name string, v *values.Value) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.Attrs[name] = v
}

// AttrNames returns the instance dict's keys, backing `dir()`/`vars()`.
func (i *Instance) AttrNames() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	names := make([]string, 0, len(i.Attrs))
	for n := range i.Attrs {
		names = append(names, n)
	}
	return names
}

func (i *Instance) DeleteAttr(name string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.Attrs[name]; !ok {
		return false
	}
	delete(i.Attrs, name)
	return true
}

func (i *Instance) DisplayStr() string { return i.DisplayRepr() }
func (i *Instance) DisplayRepr() string {
	return fmt.Sprintf("<%s object at %p>", i.Class.Name, i)
}
