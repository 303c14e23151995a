package vm

import (
	"fmt"

	"github.com/lumen-lang/lumen/object"
	"github.com/lumen-lang/lumen/opcodes"
	"github.com/lumen-lang/lumen/registry"
	"github.com/lumen-lang/lumen/values"
)

// execLoadAttr backs both LOAD_ATTR and LOAD_METHOD: Op1 is the object
// register, Op2 the name index into Code.Names, Result the destination.
func (vm *VirtualMachine) execLoadAttr(frame *CallFrame, inst *opcodes.Instruction) error {
	obj := frame.Get(inst.Op1)
	name := frame.Code.Names[inst.Op2]
	v, err := vm.getAttr(obj, name)
	if err != nil {
		return err
	}
	frame.Set(inst.Result, v)
	return nil
}

func (vm *VirtualMachine) getAttr(obj *values.Value, name string) (*values.Value, error) {
	switch obj.Kind {
	case values.KindInstance:
		inst, _ := object.InstanceOf(obj)
		if v, ok := inst.GetAttr(name); ok {
			return v, nil
		}
		return nil, vm.raiseBuiltin("AttributeError", fmt.Sprintf("'%s' object has no attribute '%s'", inst.Class.Name, name))
	case values.KindClass:
		class, _ := object.ClassOf(obj)
		if v, ok := class.LookupClassVar(name); ok {
			return v, nil
		}
		if m, _, ok := class.LookupMethod(name); ok {
			return methodAsUnboundValue(m), nil
		}
		return nil, vm.raiseBuiltin("AttributeError", fmt.Sprintf("type object '%s' has no attribute '%s'", class.Name, name))
	case values.KindModule:
		mod, _ := object.ModuleOf(obj)
		if v, ok := mod.Get(name); ok {
			return v, nil
		}
		return nil, vm.raiseBuiltin("AttributeError", fmt.Sprintf("module '%s' has no attribute '%s'", mod.Name, name))
	case values.KindException:
		exc, _ := object.ExceptionOf(obj)
		switch name {
		case "args":
			return values.NewTuple(exc.Args), nil
		case "message":
			return values.NewStr(exc.Message), nil
		}
		if exc.Cause != nil && name == "__cause__" {
			return object.NewExceptionValue(exc.Cause), nil
		}
		return nil, vm.raiseBuiltin("AttributeError", fmt.Sprintf("'%s' object has no attribute '%s'", exc.Class.Name, name))
	case values.KindFile:
		if fn, ok := fileMethod(name); ok {
			fn.BoundSelf = obj
			return &values.Value{Kind: values.KindNativeCallable, Data: fn}, nil
		}
		return nil, vm.raiseBuiltin("AttributeError", fmt.Sprintf("'file' object has no attribute '%s'", name))
	default:
		return nil, vm.raiseBuiltin("AttributeError", fmt.Sprintf("'%s' object has no attribute '%s'", obj.TypeName(), name))
	}
}

// methodAsUnboundValue exposes a class-level method lookup (`Cls.method`)
// without binding a receiver, mirroring CPython's unbound-function access.
func methodAsUnboundValue(m *registry.MethodDescriptor) *values.Value {
	fn := m.Function
	if fn.IsBuiltin {
		return &values.Value{Kind: values.KindNativeCallable, Data: &values.NativeFunc{
			Name: fn.Name, MinArgs: fn.Builtin.MinArgs, MaxArgs: fn.Builtin.MaxArgs, Fn: fn.Builtin.Fn,
		}}
	}
	cells := object.ClassCells(m)
	return &values.Value{Kind: values.KindClosure, Data: &values.Closure{Proto: fn.Code, Name: fn.Name, Cells: cells}}
}

func (vm *VirtualMachine) execStoreAttr(frame *CallFrame, inst *opcodes.Instruction) error {
	obj := frame.Get(inst.Op1)
	name := frame.Code.Names[inst.Op2]
	val := frame.Get(inst.Result)
	switch obj.Kind {
	case values.KindInstance:
		i, _ := object.InstanceOf(obj)
		i.SetAttr(name, val)
		return nil
	case values.KindClass:
		c, _ := object.ClassOf(obj)
		c.SetClassVar(name, val)
		return nil
	case values.KindModule:
		m, _ := object.ModuleOf(obj)
		m.Set(name, val)
		return nil
	default:
		return vm.raiseBuiltin("AttributeError", fmt.Sprintf("'%s' object has no attribute '%s'", obj.TypeName(), name))
	}
}

func (vm *VirtualMachine) execDeleteAttr(frame *CallFrame, inst *opcodes.Instruction) error {
	obj := frame.Get(inst.Op1)
	name := frame.Code.Names[inst.Op2]
	if i, ok := object.InstanceOf(obj); ok {
		if i.DeleteAttr(name) {
			return nil
		}
	}
	return vm.raiseBuiltin("AttributeError", fmt.Sprintf("'%s' object has no attribute '%s'", obj.TypeName(), name))
}

// callValue is the call protocol shared by CALL_FUNCTION/CALL_METHOD and any
// native builtin that calls back into Lumen code: dispatch on the callee's
// Kind, bind arguments into a fresh register window, and run it to
// completion (or, for a Closure, push a CallFrame onto vm.Stack).
func (vm *VirtualMachine) callValue(callee *values.Value, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
	switch callee.Kind {
	case values.KindNativeCallable:
		nf := callee.Data.(*values.NativeFunc)
		if nf.BoundSelf != nil {
			args = append([]*values.Value{nf.BoundSelf}, args...)
		}
		if len(args) < nf.MinArgs || (nf.MaxArgs >= 0 && len(args) > nf.MaxArgs) {
			return nil, vm.raiseBuiltin("TypeError", fmt.Sprintf("%s() takes between %d and %d arguments (%d given)", nf.Name, nf.MinArgs, nf.MaxArgs, len(args)))
		}
		ctx := &nativeCallCtx{vm: vm, self: nf.BoundSelf}
		return nf.Fn(ctx, args)
	case values.KindClosure:
		return vm.callClosure(callee.Data.(*values.Closure), args, kwargs)
	case values.KindClass:
		class := callee.Data.(*object.Class)
		if vm.isExceptionClass(class) {
			message := ""
			if len(args) > 0 {
				message = args[0].Str()
			}
			return object.NewExceptionValue(object.NewException(class, message, args)), nil
		}
		instVal := object.NewInstanceValue(class)
		if init, _, ok := class.LookupMethod("__init__"); ok {
			initFn := bindCallableForInit(instVal, init)
			if _, err := vm.callValue(initFn, args, kwargs); err != nil {
				return nil, err
			}
		} else if len(args) > 0 || len(kwargs) > 0 {
			return nil, vm.raiseBuiltin("TypeError", fmt.Sprintf("%s() takes no arguments", class.Name))
		}
		return instVal, nil
	default:
		return nil, vm.raiseBuiltin("TypeError", fmt.Sprintf("'%s' object is not callable", callee.TypeName()))
	}
}

// isExceptionClass reports whether class derives from the bootstrapped
// BaseException, the point at which instantiation must produce an
// *object.Exception rather than a plain *object.Instance so it can travel
// through the VM's error-return plumbing and `except` matching.
func (vm *VirtualMachine) isExceptionClass(class *object.Class) bool {
	base, ok := vm.Exceptions["BaseException"]
	if !ok {
		return false
	}
	return class.IsSubclassOf(base)
}

func bindCallableForInit(selfVal *values.Value, m *registry.MethodDescriptor) *values.Value {
	fn := m.Function
	if fn.IsBuiltin {
		return &values.Value{Kind: values.KindNativeCallable, Data: &values.NativeFunc{
			Name: fn.Name, MinArgs: fn.Builtin.MinArgs, MaxArgs: fn.Builtin.MaxArgs, Fn: fn.Builtin.Fn, BoundSelf: selfVal,
		}}
	}
	cells := object.ClassCells(m)
	return &values.Value{Kind: values.KindClosure, Data: &values.Closure{Proto: fn.Code, Name: fn.Name, BoundSelf: selfVal, IsMethod: true, Cells: cells}}
}

// callClosure binds args/kwargs into a fresh CallFrame's register window
// following Code.Params (spec.md §3.2 parameter_layout) and runs it.
func (vm *VirtualMachine) callClosure(cl *values.Closure, args []*values.Value, kwargs map[string]*values.Value) (*values.Value, error) {
	code, ok := cl.Proto.(*registry.CodeObject)
	if !ok {
		return nil, NewVMError(ErrNotCallable, "closure prototype is not a CodeObject")
	}
	if cl.BoundSelf != nil {
		args = append([]*values.Value{cl.BoundSelf}, args...)
	}

	frame := NewCallFrame(code, cl, nil)
	frame.Module = callerModule(vm)

	argi := 0
	for pi, p := range code.Params {
		switch p.Kind {
		case registry.ParamVarArgs:
			rest := append([]*values.Value(nil), args[argi:]...)
			frame.Set(uint32(pi), values.NewTuple(rest))
			argi = len(args)
		case registry.ParamVarKwargs:
			d := values.NewDict()
			dict := d.Data.(*values.Dict)
			for k, v := range kwargs {
				dict.Set(k, v)
			}
			frame.Set(uint32(pi), d)
		default:
			if argi < len(args) {
				frame.Set(uint32(pi), args[argi])
				argi++
				continue
			}
			if v, ok := kwargs[p.Name]; ok {
				frame.Set(uint32(pi), v)
				continue
			}
			if p.HasDefault && p.DefaultIndex < len(cl.Defaults) {
				frame.Set(uint32(pi), cl.Defaults[p.DefaultIndex])
				continue
			}
			if v, ok := cl.KwDefaults[p.Name]; ok {
				frame.Set(uint32(pi), v)
				continue
			}
			return nil, vm.raiseBuiltin("TypeError", fmt.Sprintf("%s() missing required argument: '%s'", code.Name, p.Name))
		}
	}

	if code.IsGenerator() {
		frame.Gen = &GeneratorState{}
		return values.NewIterator(&generatorIterator{vm: vm, frame: frame}), nil
	}
	return vm.runFrame(frame)
}

// callerModule resolves the module the currently executing frame belongs to,
// so a nested call's globals still resolve against the defining module
// rather than the caller's.
func callerModule(vm *VirtualMachine) *object.Module {
	if f, ok := vm.Stack.CurrentFrame(); ok {
		return f.Module
	}
	return nil
}

// generatorIterator adapts a suspended generator CallFrame to the
// values.Iterator contract: each Next() call resumes runFrame until the next
// yield or the generator returns.
type generatorIterator struct {
	vm    *VirtualMachine
	frame *CallFrame
}

func (g *generatorIterator) Next() (*values.Value, bool) {
	if g.frame.Gen.Finished {
		return nil, false
	}
	g.frame.State = StateRunning
	v, err := g.vm.runFrame(g.frame)
	if err != nil || g.frame.Gen.Finished {
		g.frame.Gen.Finished = true
		return nil, false
	}
	return v, true
}

func readArgsWindow(frame *CallFrame, base uint32, count uint32) []*values.Value {
	out := make([]*values.Value, count)
	for i := uint32(0); i < count; i++ {
		out[i] = frame.Get(base + i)
	}
	return out
}

// execCallFunction backs CALL_FUNCTION and CALL_METHOD: Op1 is the callee
// register, Op2 the argument count, Result the destination; arguments occupy
// registers Op1+1..Op1+Op2.
func (vm *VirtualMachine) execCallFunction(frame *CallFrame, inst *opcodes.Instruction) error {
	callee := frame.Get(inst.Op1)
	args := readArgsWindow(frame, inst.Op1+1, inst.Op2)
	result, err := vm.callValue(callee, args, nil)
	if err != nil {
		return err
	}
	frame.Set(inst.Result, result)
	return nil
}

// execCallFunctionKW: Op1=callee register, Op2=window width (positional
// count + keyword count + 1), Result=dest. The last register of that window
// holds a Tuple of keyword-argument names (CPython's CALL_FUNCTION_KW
// convention); the positional/keyword values precede it, keyword values
// last and aligned to the name tuple.
func (vm *VirtualMachine) execCallFunctionKW(frame *CallFrame, inst *opcodes.Instruction) error {
	callee := frame.Get(inst.Op1)
	window := readArgsWindow(frame, inst.Op1+1, inst.Op2)
	if len(window) == 0 {
		return vm.callFunctionKWResult(frame, inst, callee, nil, nil)
	}
	namesVal := window[len(window)-1]
	names, ok := namesVal.Data.(*values.Tuple)
	if !ok {
		return vm.raiseBuiltin("TypeError", "malformed keyword argument names")
	}
	values_ := window[:len(window)-1]
	kwCount := len(names.Items)
	posCount := len(values_) - kwCount
	if posCount < 0 {
		return vm.raiseBuiltin("TypeError", "malformed keyword argument names")
	}
	positional := values_[:posCount]
	kwargs := make(map[string]*values.Value, kwCount)
	for i, nameVal := range names.Items {
		kwargs[nameVal.Data.(string)] = values_[posCount+i]
	}
	return vm.callFunctionKWResult(frame, inst, callee, positional, kwargs)
}

func (vm *VirtualMachine) callFunctionKWResult(frame *CallFrame, inst *opcodes.Instruction, callee *values.Value, args []*values.Value, kwargs map[string]*values.Value) error {
	result, err := vm.callValue(callee, args, kwargs)
	if err != nil {
		return err
	}
	frame.Set(inst.Result, result)
	return nil
}

// execCallFunctionEx backs `f(*args, **kwargs)`: Op1=callee register,
// Op2=register holding the args Tuple; when OpType2's extended flags carry
// ExtFlagKwarg, Op2+1 holds the kwargs Dict. Result=dest.
func (vm *VirtualMachine) execCallFunctionEx(frame *CallFrame, inst *opcodes.Instruction) error {
	callee := frame.Get(inst.Op1)
	argsVal := frame.Get(inst.Op2)
	tup, ok := argsVal.Data.(*values.Tuple)
	if !ok {
		return vm.raiseBuiltin("TypeError", "argument after * must be an iterable")
	}
	var kwargs map[string]*values.Value
	if opcodes.DecodeExtendedFlags(inst.OpType2)&opcodes.ExtFlagKwarg != 0 {
		kwVal := frame.Get(inst.Op2 + 1)
		d, ok := kwVal.Data.(*values.Dict)
		if !ok {
			return vm.raiseBuiltin("TypeError", "argument after ** must be a mapping")
		}
		kwargs = make(map[string]*values.Value, d.Len())
		for _, k := range d.Keys() {
			v, _ := d.Get(k)
			kwargs[k] = v
		}
	}
	result, err := vm.callValue(callee, tup.Items, kwargs)
	if err != nil {
		return err
	}
	frame.Set(inst.Result, result)
	return nil
}

// execMakeFunction: Op1=constant index of a prototype Closure Value
// (Proto/Name/Defaults/KwDefaults already set by the compiler, Cells empty),
// Result=destination. Free variables are captured by resolving each of the
// prototype CodeObject's FreeVarIndices against this frame's combined
// FreeCells++Cells space.
func (vm *VirtualMachine) execMakeFunction(frame *CallFrame, inst *opcodes.Instruction) error {
	proto := frame.Code.Constants[inst.Op1].Data.(*values.Closure)
	code, ok := proto.Proto.(*registry.CodeObject)
	if !ok {
		return NewVMError(ErrNotCallable, "MAKE_FUNCTION constant is not a function prototype")
	}
	cells := make([]*values.Cell, len(code.FreeVarIndices))
	for i, idx := range code.FreeVarIndices {
		cells[i] = frame.derefCell(idx)
	}
	closure := &values.Closure{
		Proto: code, Cells: cells, Name: proto.Name,
		Defaults: proto.Defaults, KwDefaults: proto.KwDefaults,
	}
	frame.Set(inst.Result, &values.Value{Kind: values.KindClosure, Data: closure})
	return nil
}

// execCallSuper implements zero-arg super(): Op1 is the DEREF index of the
// implicit __class__ cell every method closes over when it mentions
// super()/__class__ (mirroring CPython), Result the destination register for
// the proxy object.
func (vm *VirtualMachine) execCallSuper(frame *CallFrame, inst *opcodes.Instruction) error {
	classVal := frame.derefCell(inst.Op1).Value
	class, ok := object.ClassOf(classVal)
	if !ok {
		return vm.raiseBuiltin("RuntimeError", "super(): __class__ cell is empty")
	}
	if frame.Self == nil {
		return vm.raiseBuiltin("RuntimeError", "super(): no arguments")
	}
	self, ok := object.InstanceOf(frame.Self)
	if !ok {
		return vm.raiseBuiltin("RuntimeError", "super(): self is not an instance")
	}
	proxy := object.NewSuperProxy(self, class)
	frame.Set(inst.Result, &values.Value{Kind: values.KindInstance, Data: proxy})
	return nil
}

// execBuildClass: Op1 is the Names index of the class name, Op2 the base
// register of a two-register window (namespace Dict, bases Tuple), Result
// the destination. The namespace dict's non-callable entries become class
// variables; Closure/NativeCallable entries become methods, unless listed by
// name in the dict's "__staticmethods__"/"__classmethods__" Sets.
func (vm *VirtualMachine) execBuildClass(frame *CallFrame, inst *opcodes.Instruction) error {
	name := frame.Code.Names[inst.Op1]
	nsVal := frame.Get(inst.Op2)
	basesVal := frame.Get(inst.Op2 + 1)

	ns, ok := nsVal.Data.(*values.Dict)
	if !ok {
		return NewVMError(ErrTypeMismatch, "BUILD_CLASS namespace register is not a dict")
	}
	basesTuple, ok := basesVal.Data.(*values.Tuple)
	if !ok {
		return NewVMError(ErrTypeMismatch, "BUILD_CLASS bases register is not a tuple")
	}

	bases := make([]*object.Class, 0, len(basesTuple.Items))
	for _, bv := range basesTuple.Items {
		bc, ok := object.ClassOf(bv)
		if !ok {
			return vm.raiseBuiltin("TypeError", fmt.Sprintf("bases must be classes, got '%s'", bv.TypeName()))
		}
		bases = append(bases, bc)
	}

	var staticNames, classNames *values.Set
	if v, ok := ns.Get("__staticmethods__"); ok {
		staticNames, _ = v.Data.(*values.Set)
	}
	if v, ok := ns.Get("__classmethods__"); ok {
		classNames, _ = v.Data.(*values.Set)
	}

	methods := make(map[string]*registry.MethodDescriptor)
	classVars := make(map[string]*values.Value)
	doc := ""
	for _, k := range ns.Keys() {
		switch k {
		case "__staticmethods__", "__classmethods__":
			continue
		case "__doc__":
			if v, _ := ns.Get(k); v.Kind == values.KindStr {
				doc = v.Data.(string)
			}
			continue
		}
		v, _ := ns.Get(k)
		switch v.Kind {
		case values.KindClosure:
			cl := v.Data.(*values.Closure)
			code := cl.Proto.(*registry.CodeObject)
			methods[k] = &registry.MethodDescriptor{
				Function:      registry.NewUserFunction(code, cl.Defaults, cl.KwDefaults),
				IsStatic:      staticNames != nil && staticNames.Contains(values.NewStr(k)),
				IsClassMethod: classNames != nil && classNames.Contains(values.NewStr(k)),
			}
		case values.KindNativeCallable:
			nf := v.Data.(*values.NativeFunc)
			methods[k] = &registry.MethodDescriptor{
				Function: registry.NewBuiltinFunction(&registry.NativeBuiltin{
					Name: nf.Name, MinArgs: nf.MinArgs, MaxArgs: nf.MaxArgs, Fn: nf.Fn,
				}),
				IsStatic:      staticNames != nil && staticNames.Contains(values.NewStr(k)),
				IsClassMethod: classNames != nil && classNames.Contains(values.NewStr(k)),
			}
		default:
			classVars[k] = v
		}
	}

	class, err := object.NewClass(name, bases, methods, classVars)
	if err != nil {
		return vm.raiseBuiltin("TypeError", err.Error())
	}
	class.Doc = doc

	classVal := object.NewClassValue(class)
	for _, m := range methods {
		if m.Function.IsBuiltin {
			continue
		}
		for _, fv := range m.Function.Code.FreeVars {
			if fv == "__class__" {
				m.ClassCell = values.NewCell(classVal)
				break
			}
		}
	}

	frame.Set(inst.Result, classVal)
	return nil
}

// execCheckExcMatch backs `except SomeError:` dispatch: Op1 the exception
// register (or frame.Pending read indirectly via FORMAT_EXC_INFO elsewhere),
// Op2 the candidate class register, Result the boolean destination.
func (vm *VirtualMachine) execCheckExcMatch(frame *CallFrame, inst *opcodes.Instruction) error {
	excVal := frame.Get(inst.Op1)
	classVal := frame.Get(inst.Op2)
	class, ok := object.ClassOf(classVal)
	if !ok {
		return vm.raiseBuiltin("TypeError", "catching classes that do not inherit from BaseException is not allowed")
	}
	exc, ok := object.ExceptionOf(excVal)
	if !ok {
		frame.Set(inst.Result, values.NewBool(false))
		return nil
	}
	frame.Set(inst.Result, values.NewBool(exc.Matches(class)))
	return nil
}

// execIsInstance backs the `isinstance()`/`issubclass()` builtins' fast
// path: Op1 the value register, Op2 the class register, Result the boolean
// destination.
func (vm *VirtualMachine) execIsInstance(frame *CallFrame, inst *opcodes.Instruction) error {
	v := frame.Get(inst.Op1)
	classVal := frame.Get(inst.Op2)
	class, ok := object.ClassOf(classVal)
	if !ok {
		return vm.raiseBuiltin("TypeError", "isinstance() arg 2 must be a type")
	}
	i, ok := object.InstanceOf(v)
	if !ok {
		frame.Set(inst.Result, values.NewBool(false))
		return nil
	}
	frame.Set(inst.Result, values.NewBool(i.Class.IsSubclassOf(class)))
	return nil
}

// nativeCallCtx is the VM's implementation of values.NativeCallCtx /
// registry.BuiltinCallContext, handed to every native builtin invocation
// (spec.md §6 host-callable contract).
type nativeCallCtx struct {
	vm   *VirtualMachine
	self *values.Value
}

func (c *nativeCallCtx) Raise(class, message string) error { return c.vm.raiseBuiltin(class, message) }
func (c *nativeCallCtx) Self() *values.Value                { return c.self }
func (c *nativeCallCtx) CallValue(callee *values.Value, args []*values.Value) (*values.Value, error) {
	return c.vm.callValue(callee, args, nil)
}
func (c *nativeCallCtx) Lookup(name string) (*values.Value, bool) {
	if f, ok := c.vm.Stack.CurrentFrame(); ok {
		if f.Module != nil {
			if v, ok := f.Module.Get(name); ok {
				return v, true
			}
		}
	}
	v, ok := c.vm.Builtins[name]
	return v, ok
}

func (c *nativeCallCtx) Write(s string) (int, error) { return fmt.Fprint(c.vm.Out, s) }
