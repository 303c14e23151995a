package runtime

import (
	"fmt"
	"sort"

	"github.com/lumen-lang/lumen/object"
	"github.com/lumen-lang/lumen/values"
)

func inspectSpecs(types *typeTable, ids *identityCounter) []builtinSpec {
	return []builtinSpec{
		{name: "type", minArgs: 1, maxArgs: 1, fn: func(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
			class, err := types.classOf(args[0])
			if err != nil {
				return nil, ctx.Raise("TypeError", err.Error())
			}
			return object.NewClassValue(class), nil
		}},
		{name: "isinstance", minArgs: 2, maxArgs: 2, fn: func(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
			ok, err := matchesAny(types, args[0], args[1], false)
			if err != nil {
				return nil, ctx.Raise("TypeError", err.Error())
			}
			return values.NewBool(ok), nil
		}},
		{name: "issubclass", minArgs: 2, maxArgs: 2, fn: func(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
			ok, err := matchesAny(types, args[0], args[1], true)
			if err != nil {
				return nil, ctx.Raise("TypeError", err.Error())
			}
			return values.NewBool(ok), nil
		}},
		{name: "id", minArgs: 1, maxArgs: 1, fn: func(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
			return values.NewStr(ids.idFor(args[0])), nil
		}},
		{name: "hash", minArgs: 1, maxArgs: 1, fn: func(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
			key, ok := values.HashKey(args[0])
			if !ok {
				return nil, ctx.Raise("TypeError", fmt.Sprintf("unhashable type: '%s'", args[0].TypeName()))
			}
			var h int64
			for _, b := range []byte(key) {
				h = h*31 + int64(b)
			}
			return values.NewInt(h), nil
		}},
		{name: "repr", minArgs: 1, maxArgs: 1, fn: func(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
			return values.NewStr(args[0].Repr()), nil
		}},
		{name: "callable", minArgs: 1, maxArgs: 1, fn: func(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
			v := args[0]
			return values.NewBool(v.IsCallable() || v.Kind == values.KindClass), nil
		}},
		{name: "getattr", minArgs: 2, maxArgs: 3, fn: func(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
			v, ok := lookupAttr(args[0], args[1].Str())
			if ok {
				return v, nil
			}
			if len(args) == 3 {
				return args[2], nil
			}
			return nil, ctx.Raise("AttributeError", fmt.Sprintf("'%s' object has no attribute '%s'", args[0].TypeName(), args[1].Str()))
		}},
		{name: "hasattr", minArgs: 2, maxArgs: 2, fn: func(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
			_, ok := lookupAttr(args[0], args[1].Str())
			return values.NewBool(ok), nil
		}},
		{name: "setattr", minArgs: 3, maxArgs: 3, fn: func(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
			if !storeAttr(args[0], args[1].Str(), args[2]) {
				return nil, ctx.Raise("AttributeError", fmt.Sprintf("'%s' object attributes are read-only", args[0].TypeName()))
			}
			return values.None(), nil
		}},
		{name: "delattr", minArgs: 2, maxArgs: 2, fn: func(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
			inst, ok := object.InstanceOf(args[0])
			if !ok || !inst.DeleteAttr(args[1].Str()) {
				return nil, ctx.Raise("AttributeError", fmt.Sprintf("'%s' object has no attribute '%s'", args[0].TypeName(), args[1].Str()))
			}
			return values.None(), nil
		}},
		{name: "dir", minArgs: 0, maxArgs: 1, fn: func(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
			names := dirNames(args)
			out := make([]*values.Value, len(names))
			for i, n := range names {
				out[i] = values.NewStr(n)
			}
			return values.NewList(out), nil
		}},
		{name: "vars", minArgs: 0, maxArgs: 1, fn: func(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
			target := ctx.Self()
			if len(args) == 1 {
				target = args[0]
			}
			inst, ok := object.InstanceOf(target)
			if !ok {
				return nil, ctx.Raise("TypeError", "vars() argument must have __dict__")
			}
			d := values.NewDict()
			dd := d.Data.(*values.Dict)
			for _, n := range inst.AttrNames() {
				v, _ := inst.GetAttr(n)
				dd.Set(n, v)
			}
			return d, nil
		}},
		// globals/locals have no real frame-introspection backing: Lookup
		// only resolves a single name against the current module/builtins,
		// it cannot enumerate one. Both return an empty dict rather than
		// widening NativeCallCtx for a pair of rarely-used diagnostics.
		{name: "globals", minArgs: 0, maxArgs: 0, fn: func(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
			return values.NewDict(), nil
		}},
		{name: "locals", minArgs: 0, maxArgs: 0, fn: func(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
			return values.NewDict(), nil
		}},
		{name: "super", minArgs: 0, maxArgs: 2, fn: func(ctx values.NativeCallCtx, args []*values.Value) (*values.Value, error) {
			var selfVal *values.Value
			var startClass *object.Class
			if len(args) == 2 {
				c, ok := object.ClassOf(args[0])
				if !ok {
					return nil, ctx.Raise("TypeError", "super() argument 1 must be a type")
				}
				startClass = c
				selfVal = args[1]
			} else {
				selfVal = ctx.Self()
				if selfVal == nil {
					return nil, ctx.Raise("RuntimeError", "super(): no arguments and no bound self")
				}
			}
			self, ok := object.InstanceOf(selfVal)
			if !ok {
				return nil, ctx.Raise("TypeError", "super() argument must be an instance")
			}
			if startClass == nil {
				startClass = self.Class
			}
			return &values.Value{Kind: values.KindInstance, Data: object.NewSuperProxy(self, startClass)}, nil
		}},
	}
}

func matchesAny(types *typeTable, v *values.Value, classinfo *values.Value, classesOnly bool) (bool, error) {
	targets := []*values.Value{classinfo}
	if tup, ok := classinfo.Data.(*values.Tuple); ok && classinfo.Kind == values.KindTuple {
		targets = tup.Items
	}
	for _, t := range targets {
		target, ok := types.classOfTarget(t)
		if !ok {
			return false, fmt.Errorf("isinstance()/issubclass() arg 2 must be a type or tuple of types")
		}
		var subject *object.Class
		var err error
		if classesOnly {
			subject, ok = object.ClassOf(v)
			if !ok {
				return false, fmt.Errorf("issubclass() arg 1 must be a class")
			}
		} else {
			subject, err = types.classOf(v)
			if err != nil {
				return false, err
			}
		}
		if subject.IsSubclassOf(target) {
			return true, nil
		}
	}
	return false, nil
}

// lookupAttr/storeAttr mirror vm/vm_calls.go's getAttr/execStoreAttr dispatch
// (Instance/Class/Module), reimplemented here since a NativeFunc only gets
// values.NativeCallCtx's narrow service surface, not the VM's own
// unexported attribute-access helpers.
func lookupAttr(obj *values.Value, name string) (*values.Value, bool) {
	switch obj.Kind {
	case values.KindInstance:
		inst, _ := object.InstanceOf(obj)
		return inst.GetAttr(name)
	case values.KindClass:
		class, _ := object.ClassOf(obj)
		if v, ok := class.LookupClassVar(name); ok {
			return v, true
		}
		return nil, false
	case values.KindModule:
		mod, _ := object.ModuleOf(obj)
		return mod.Get(name)
	default:
		return nil, false
	}
}

func storeAttr(obj *values.Value, name string, v *values.Value) bool {
	switch obj.Kind {
	case values.KindInstance:
		inst, _ := object.InstanceOf(obj)
		inst.SetAttr(name, v)
		return true
	case values.KindClass:
		class, _ := object.ClassOf(obj)
		class.SetClassVar(name, v)
		return true
	case values.KindModule:
		mod, _ := object.ModuleOf(obj)
		mod.Set(name, v)
		return true
	default:
		return false
	}
}

func dirNames(args []*values.Value) []string {
	var names []string
	if len(args) == 0 {
		return names
	}
	switch obj := args[0]; obj.Kind {
	case values.KindInstance:
		inst, _ := object.InstanceOf(obj)
		names = append(names, inst.AttrNames()...)
	case values.KindModule:
		mod, _ := object.ModuleOf(obj)
		names = append(names, mod.Names()...)
	}
	sort.Strings(names)
	return names
}
