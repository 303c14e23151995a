package vm

import (
	"testing"

	"github.com/lumen-lang/lumen/object"
	"github.com/lumen-lang/lumen/opcodes"
	"github.com/lumen-lang/lumen/values"
)

func TestImportNameResolvesRegisteredModule(t *testing.T) {
	machine := NewVirtualMachine(nil)
	mathMod := object.NewModule("math", "math.lum")
	mathMod.Set("pi", values.NewFloat(3.14))
	machine.Modules.Store("math", mathMod)

	code := newTestCode(1, nil, nil)
	code.Names = []string{"math"}
	frame := NewCallFrame(code, nil, nil)

	if err := machine.execImportName(frame, &opcodes.Instruction{Op1: 0, Result: 0}); err != nil {
		t.Fatalf("execImportName() error = %v", err)
	}
	if frame.Get(0).Kind != values.KindModule {
		t.Fatalf("execImportName() kind = %v, want KindModule", frame.Get(0).Kind)
	}
}

func TestImportNameUnregisteredRaisesModuleNotFoundError(t *testing.T) {
	machine := NewVirtualMachine(nil)
	code := newTestCode(1, nil, nil)
	code.Names = []string{"nope"}
	frame := NewCallFrame(code, nil, nil)

	err := machine.execImportName(frame, &opcodes.Instruction{Op1: 0, Result: 0})
	exc, ok := err.(*object.Exception)
	if !ok || exc.Class.Name != "ModuleNotFoundError" {
		t.Fatalf("execImportName() error = %v, want ModuleNotFoundError", err)
	}
}

func TestImportFromAndStar(t *testing.T) {
	machine := NewVirtualMachine(nil)
	mod := object.NewModule("util", "util.lum")
	mod.Set("helper", values.NewInt(7))
	mod.Set("_hidden", values.NewInt(99))

	code := newTestCode(2, nil, nil)
	code.Names = []string{"helper"}
	frame := NewCallFrame(code, nil, nil)
	frame.Set(0, object.NewModuleValue(mod))

	if err := machine.execImportFrom(frame, &opcodes.Instruction{Op1: 0, Op2: 0, Result: 1}); err != nil {
		t.Fatalf("execImportFrom() error = %v", err)
	}
	if frame.Get(1).Data.(int64) != 7 {
		t.Errorf("execImportFrom() = %v, want 7", frame.Get(1).Data)
	}

	frame.Module = object.NewModule("__main__", "")
	if err := machine.execImportStar(frame, &opcodes.Instruction{Op1: 0}); err != nil {
		t.Fatalf("execImportStar() error = %v", err)
	}
	if _, ok := frame.Module.Get("helper"); !ok {
		t.Error("execImportStar() did not copy 'helper' into the importing module")
	}
	if _, ok := frame.Module.Get("_hidden"); ok {
		t.Error("execImportStar() copied an underscore-prefixed name, want it skipped")
	}
}

func TestBuildStringConcatenatesParts(t *testing.T) {
	machine := NewVirtualMachine(nil)
	code := newTestCode(4, nil, nil)
	frame := NewCallFrame(code, nil, nil)
	frame.Set(0, values.NewStr("hello "))
	frame.Set(1, values.NewStr("world"))

	inst := &opcodes.Instruction{Op1: 2, Op2: 0, Result: 2}
	if err := machine.execBuildString(frame, inst); err != nil {
		t.Fatalf("execBuildString() error = %v", err)
	}
	if frame.Get(2).Str() != "hello world" {
		t.Errorf("execBuildString() = %q, want %q", frame.Get(2).Str(), "hello world")
	}
}
