package vm

import (
	"testing"

	"github.com/lumen-lang/lumen/object"
	"github.com/lumen-lang/lumen/opcodes"
	"github.com/lumen-lang/lumen/registry"
	"github.com/lumen-lang/lumen/values"
)

func TestCallClosureBindsPositionalArgs(t *testing.T) {
	code := &registry.CodeObject{
		Name:          "add",
		RegisterCount: 3,
		Params: []*registry.Parameter{
			{Name: "a", Kind: registry.ParamPositional},
			{Name: "b", Kind: registry.ParamPositional},
		},
		Instructions: []*opcodes.Instruction{
			{Opcode: opcodes.OP_BINARY_ADD, Op1: 0, Op2: 1, Result: 2},
			{Opcode: opcodes.OP_RETURN_VALUE, Result: 2},
		},
	}
	closure := &values.Closure{Proto: code, Name: "add"}

	machine := NewVirtualMachine(nil)
	result, err := machine.callClosure(closure, []*values.Value{values.NewInt(2), values.NewInt(5)}, nil)
	if err != nil {
		t.Fatalf("callClosure() error = %v", err)
	}
	if result.Data.(int64) != 7 {
		t.Errorf("callClosure() = %v, want 7", result.Data)
	}
}

func TestCallClosureMissingRequiredArgRaisesTypeError(t *testing.T) {
	code := &registry.CodeObject{
		Name:          "add",
		RegisterCount: 2,
		Params: []*registry.Parameter{
			{Name: "a", Kind: registry.ParamPositional},
			{Name: "b", Kind: registry.ParamPositional},
		},
		Instructions: []*opcodes.Instruction{{Opcode: opcodes.OP_RETURN_VALUE, Result: 0}},
	}
	closure := &values.Closure{Proto: code, Name: "add"}

	machine := NewVirtualMachine(nil)
	_, err := machine.callClosure(closure, []*values.Value{values.NewInt(2)}, nil)
	exc, ok := err.(*object.Exception)
	if !ok || exc.Class.Name != "TypeError" {
		t.Fatalf("callClosure() error = %v, want TypeError", err)
	}
}

func makeConstMethod(name string, ret *values.Value) *registry.CodeObject {
	return &registry.CodeObject{
		Name:          name,
		RegisterCount: 2,
		Params:        []*registry.Parameter{{Name: "self", Kind: registry.ParamPositional}},
		Constants:     []*values.Value{ret},
		Instructions: []*opcodes.Instruction{
			{Opcode: opcodes.OP_LOAD_CONST, Op1: 0, Result: 1},
			{Opcode: opcodes.OP_RETURN_VALUE, Result: 1},
		},
	}
}

func TestClassInstantiationAndMethodDispatch(t *testing.T) {
	speak := makeConstMethod("speak", values.NewStr("woof"))
	class, err := object.NewClass("Dog", nil, map[string]*registry.MethodDescriptor{
		"speak": {Function: registry.NewUserFunction(speak, nil, nil)},
	}, nil)
	if err != nil {
		t.Fatalf("NewClass() error = %v", err)
	}
	classVal := object.NewClassValue(class)

	machine := NewVirtualMachine(nil)
	instVal, err := machine.callValue(classVal, nil, nil)
	if err != nil {
		t.Fatalf("callValue(class) error = %v", err)
	}
	if instVal.Kind != values.KindInstance {
		t.Fatalf("callValue(class) kind = %v, want KindInstance", instVal.Kind)
	}

	bound, err := machine.getAttr(instVal, "speak")
	if err != nil {
		t.Fatalf("getAttr(speak) error = %v", err)
	}
	result, err := machine.callValue(bound, nil, nil)
	if err != nil {
		t.Fatalf("callValue(bound speak) error = %v", err)
	}
	if result.Str() != "woof" {
		t.Errorf("speak() = %q, want %q", result.Str(), "woof")
	}
}

// TestZeroArgSuperDispatchesToBaseMethod builds a two-level hierarchy where
// Derived.speak calls super().speak(), exercising CALL_SUPER's implicit
// __class__-cell lookup together with the super-proxy's GetAttr rebinding.
func TestZeroArgSuperDispatchesToBaseMethod(t *testing.T) {
	baseSpeak := makeConstMethod("speak", values.NewStr("base"))
	base, err := object.NewClass("Base", nil, map[string]*registry.MethodDescriptor{
		"speak": {Function: registry.NewUserFunction(baseSpeak, nil, nil)},
	}, nil)
	if err != nil {
		t.Fatalf("NewClass(Base) error = %v", err)
	}

	derivedSpeak := &registry.CodeObject{
		Name:          "speak",
		RegisterCount: 4,
		Params:        []*registry.Parameter{{Name: "self", Kind: registry.ParamPositional}},
		Names:         []string{"speak"},
		FreeVars:      []string{"__class__"},
		Instructions: []*opcodes.Instruction{
			{Opcode: opcodes.OP_CALL_SUPER, Op1: 0, Result: 1},
			{Opcode: opcodes.OP_LOAD_ATTR, Op1: 1, Op2: 0, Result: 2},
			{Opcode: opcodes.OP_CALL_FUNCTION, Op1: 2, Op2: 0, Result: 3},
			{Opcode: opcodes.OP_RETURN_VALUE, Result: 3},
		},
	}
	derived, err := object.NewClass("Derived", []*object.Class{base}, map[string]*registry.MethodDescriptor{
		"speak": {Function: registry.NewUserFunction(derivedSpeak, nil, nil)},
	}, nil)
	if err != nil {
		t.Fatalf("NewClass(Derived) error = %v", err)
	}

	inst := object.NewInstance(derived)
	selfVal := &values.Value{Kind: values.KindInstance, Data: inst}
	closure := &values.Closure{
		Proto: derivedSpeak, Name: "speak", BoundSelf: selfVal, IsMethod: true,
		Cells: []*values.Cell{values.NewCell(object.NewClassValue(derived))},
	}

	machine := NewVirtualMachine(nil)
	result, err := machine.callClosure(closure, nil, nil)
	if err != nil {
		t.Fatalf("callClosure(Derived.speak) error = %v", err)
	}
	if result.Str() != "base" {
		t.Errorf("super().speak() = %q, want %q", result.Str(), "base")
	}
}

func TestIsInstanceAcrossMRO(t *testing.T) {
	base, _ := object.NewClass("Animal", nil, nil, nil)
	derived, _ := object.NewClass("Dog", []*object.Class{base}, nil, nil)
	inst := object.NewInstanceValue(derived)

	code := &registry.CodeObject{RegisterCount: 3}
	frame := NewCallFrame(code, nil, nil)
	frame.Set(0, inst)
	frame.Set(1, object.NewClassValue(base))

	machine := NewVirtualMachine(nil)
	instr := &opcodes.Instruction{Opcode: opcodes.OP_IS_INSTANCE, Op1: 0, Op2: 1, Result: 2}
	if err := machine.execIsInstance(frame, instr); err != nil {
		t.Fatalf("execIsInstance() error = %v", err)
	}
	if !frame.Get(2).Truthiness() {
		t.Error("isinstance(Dog(), Animal) = false, want true")
	}
}

func TestCallValueOnExceptionClassBuildsException(t *testing.T) {
	machine := NewVirtualMachine(nil)
	valueErr := machine.Exceptions["ValueError"]
	if valueErr == nil {
		t.Fatal("bootstrapped exception class ValueError not found")
	}
	classVal := object.NewClassValue(valueErr)

	result, err := machine.callValue(classVal, []*values.Value{values.NewStr("bad input")}, nil)
	if err != nil {
		t.Fatalf("callValue(ValueError) error = %v", err)
	}
	exc, ok := object.ExceptionOf(result)
	if !ok {
		t.Fatalf("callValue(ValueError) kind = %v, want KindException", result.Kind)
	}
	if exc.Message != "bad input" {
		t.Errorf("exc.Message = %q, want %q", exc.Message, "bad input")
	}
}
