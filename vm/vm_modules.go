package vm

import (
	"fmt"
	"strings"

	"github.com/lumen-lang/lumen/object"
	"github.com/lumen-lang/lumen/opcodes"
	"github.com/lumen-lang/lumen/values"
)

// execImportName backs IMPORT_NAME: Op1 is the Names index of the (possibly
// dotted) module name, Result the destination register. Modules are only
// resolved against whatever vm.Modules already holds — the source-loading
// half of the import system (reading and compiling a file the first time
// it's imported) belongs to the not-yet-built compiler/runtime driver, so an
// unregistered name surfaces as ModuleNotFoundError rather than silently
// failing.
func (vm *VirtualMachine) execImportName(frame *CallFrame, inst *opcodes.Instruction) error {
	name := frame.Code.Names[inst.Op1]
	mod, ok := vm.Modules.Get(name)
	if !ok {
		return vm.raiseBuiltin("ModuleNotFoundError", fmt.Sprintf("no module named '%s'", name))
	}
	frame.Set(inst.Result, object.NewModuleValue(mod))
	return nil
}

// execImportFrom backs `from mod import name`: Op1 the module register
// (loaded by a prior IMPORT_NAME), Op2 the Names index of the attribute to
// pull, Result the destination.
func (vm *VirtualMachine) execImportFrom(frame *CallFrame, inst *opcodes.Instruction) error {
	modVal := frame.Get(inst.Op1)
	mod, ok := object.ModuleOf(modVal)
	if !ok {
		return NewVMError(ErrTypeMismatch, "IMPORT_FROM register is not a module")
	}
	name := frame.Code.Names[inst.Op2]
	v, ok := mod.Get(name)
	if !ok {
		return vm.raiseBuiltin("ImportError", fmt.Sprintf("cannot import name '%s' from '%s'", name, mod.Name))
	}
	frame.Set(inst.Result, v)
	return nil
}

// execImportStar backs `from mod import *`: Op1 the module register. Every
// name not starting with an underscore is copied into the current frame's
// module namespace, matching CPython's default `__all__`-less star-import
// filter.
func (vm *VirtualMachine) execImportStar(frame *CallFrame, inst *opcodes.Instruction) error {
	modVal := frame.Get(inst.Op1)
	mod, ok := object.ModuleOf(modVal)
	if !ok {
		return NewVMError(ErrTypeMismatch, "IMPORT_STAR register is not a module")
	}
	for _, name := range mod.Names() {
		if strings.HasPrefix(name, "_") {
			continue
		}
		v, _ := mod.Get(name)
		frame.Module.Set(name, v)
	}
	return nil
}

// execBuildString backs f-string assembly: Op1 the part count, Op2 the base
// register of Op1 consecutive already-formatted string parts, Result the
// destination.
func (vm *VirtualMachine) execBuildString(frame *CallFrame, inst *opcodes.Instruction) error {
	var b strings.Builder
	count := int(inst.Op1)
	for i := 0; i < count; i++ {
		b.WriteString(frame.Get(inst.Op2 + uint32(i)).Str())
	}
	frame.Set(inst.Result, values.NewStr(b.String()))
	return nil
}
