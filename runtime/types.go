// Package runtime is the builtin-function catalogue and primitive type
// table the VM's Builtins namespace is populated from (spec.md §6 "VM →
// Host callable" contract), grounded on the teacher's runtime package
// (runtime/builtins.go's table-driven registerBuiltinSymbols idiom,
// runtime/type.go's gettype()/primitive-type dispatch) but rebuilt end to
// end against this language's type/callable surface instead of PHP's.
package runtime

import (
	"fmt"

	"github.com/lumen-lang/lumen/object"
	"github.com/lumen-lang/lumen/values"
)

// typeTable holds the primitive type objects `type()`/`isinstance()` need,
// one object.Class per Kind.String() name (including "type") under the
// synthetic "object" root every primitive ultimately answers to.
type typeTable struct {
	classes map[string]*object.Class
}

func newTypeTable() *typeTable {
	t := &typeTable{classes: make(map[string]*object.Class)}
	objectClass, _ := object.NewClass("object", nil, nil, nil)
	t.classes["object"] = objectClass

	leaf := func(name string) {
		c, _ := object.NewClass(name, []*object.Class{objectClass}, nil, nil)
		t.classes[name] = c
	}
	for _, name := range []string{
		"NoneType", "int", "float", "str", "bytes", "list", "tuple", "dict",
		"set", "range", "function", "builtin_function_or_method", "type",
		"module", "file", "iterator", "slice",
	} {
		leaf(name)
	}
	// bool is a subclass of int, matching Python (`isinstance(True, int)`).
	boolClass, _ := object.NewClass("bool", []*object.Class{t.classes["int"]}, nil, nil)
	t.classes["bool"] = boolClass
	return t
}

func (t *typeTable) byName(name string) (*object.Class, bool) {
	c, ok := t.classes[name]
	return c, ok
}

// classOf returns the class a value answers `type()`/`isinstance()` checks
// against: an Instance's or Exception's own Class, or this table's
// primitive-type entry for everything else (keyed by the same name
// Value.TypeName() already reports).
func (t *typeTable) classOf(v *values.Value) (*object.Class, error) {
	if inst, ok := object.InstanceOf(v); ok {
		return inst.Class, nil
	}
	if exc, ok := object.ExceptionOf(v); ok {
		return exc.Class, nil
	}
	c, ok := t.byName(v.TypeName())
	if !ok {
		return nil, fmt.Errorf("no type object registered for %q", v.TypeName())
	}
	return c, nil
}

// classOfTarget resolves the second argument of isinstance()/issubclass():
// either a Class value directly, or one of this table's NativeCallable
// type-converter entries (`int`, `str`, ...), matched by name since those
// converters double as the type object CPython hands out for the same
// names.
func (t *typeTable) classOfTarget(v *values.Value) (*object.Class, bool) {
	if c, ok := object.ClassOf(v); ok {
		return c, true
	}
	if v.Kind == values.KindNativeCallable {
		return t.byName(v.NativeData().Name)
	}
	return nil, false
}
