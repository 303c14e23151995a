package runtime

import (
	"github.com/google/uuid"
	"github.com/lumen-lang/lumen/object"
	"github.com/lumen-lang/lumen/values"
)

// builtinSpec is one table row of the builtin catalogue, grounded on the
// teacher's table-driven builtinFunctionSpecs (runtime/builtins.go): a
// name, declared arity, and an implementation closure, assembled into the
// Builtins() map in one pass rather than one assignment statement per
// function.
type builtinSpec struct {
	name    string
	minArgs int
	maxArgs int // -1 is variadic
	fn      func(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error)
}

func nativeValue(s builtinSpec) *values.Value {
	return &values.Value{Kind: values.KindNativeCallable, Data: &values.NativeFunc{
		Name: s.name, MinArgs: s.minArgs, MaxArgs: s.maxArgs, Fn: s.fn,
	}}
}

// identityCounter assigns stable `id()` values the first time a heap-backed
// Value is asked for one; spec.md §3.1's identity invariant only needs
// *some* stable token per object lifetime, not a memory address, so a
// random UUID minted on first use and cached by pointer stands in for
// CPython's address-based id(). Grounded on DESIGN.md's existing Open
// Question resolution for `id()`.
type identityCounter struct {
	ids map[interface{}]string
}

func newIdentityCounter() *identityCounter { return &identityCounter{ids: make(map[interface{}]string)} }

func (c *identityCounter) idFor(v *values.Value) string {
	key := v.Identity()
	if s, ok := c.ids[key]; ok {
		return s
	}
	s := uuid.NewString()
	c.ids[key] = s
	return s
}

// Builtins assembles the complete VM → Host callable namespace (spec.md
// §6): every mandated free function plus the primitive type objects,
// ready to pass to vm.NewVirtualMachine.
func Builtins() map[string]*values.Value {
	types := newTypeTable()
	ids := newIdentityCounter()

	out := make(map[string]*values.Value)
	for _, s := range ioSpecs() {
		out[s.name] = nativeValue(s)
	}
	for _, s := range inspectSpecs(types, ids) {
		out[s.name] = nativeValue(s)
	}
	for _, s := range iterSpecs() {
		out[s.name] = nativeValue(s)
	}
	for _, s := range convertSpecs() {
		out[s.name] = nativeValue(s)
	}
	for _, s := range evalSpecs() {
		out[s.name] = nativeValue(s)
	}
	// Every primitive type also needs a type object `type()`/`isinstance()`
	// can hand back and compare against. Where a same-named conversion
	// builtin already exists (`int`, `str`, `bool`, ...) that NativeFunc
	// value stands in for the type object too (classOfTarget resolves it by
	// name) — calling a Class value always constructs a fresh Instance
	// (vm_calls.go's callValue), which would break `int("5")` returning a
	// raw int rather than an Instance, so the two can't be the same Value.
	// Names with no conversion builtin (`object`, `type`, `NoneType`, ...)
	// get the Class value directly, since there's no constructor for a
	// caller to collide with.
	for name, class := range types.classes {
		if _, exists := out[name]; !exists {
			out[name] = object.NewClassValue(class)
		}
	}
	return out
}
