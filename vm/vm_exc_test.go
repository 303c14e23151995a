package vm

import (
	"testing"

	"github.com/lumen-lang/lumen/object"
	"github.com/lumen-lang/lumen/opcodes"
	"github.com/lumen-lang/lumen/registry"
	"github.com/lumen-lang/lumen/values"
)

// TestSetupExceptCatchesZeroDivision runs a division-by-zero inside a
// SETUP_EXCEPT-guarded region and checks control resumes at the handler.
func TestSetupExceptCatchesZeroDivision(t *testing.T) {
	code := newTestCode(4,
		[]*values.Value{values.NewInt(1), values.NewInt(0), values.NewStr("caught")},
		[]*opcodes.Instruction{
			{Opcode: opcodes.OP_SETUP_EXCEPT, Op1: 4},
			{Opcode: opcodes.OP_LOAD_CONST, Op1: 0, Result: 0},
			{Opcode: opcodes.OP_LOAD_CONST, Op1: 1, Result: 1},
			{Opcode: opcodes.OP_BINARY_DIV, Op1: 0, Op2: 1, Result: 2},
			{Opcode: opcodes.OP_LOAD_CONST, Op1: 2, Result: 3},
			{Opcode: opcodes.OP_RETURN_VALUE, Result: 3},
		},
	)

	machine := NewVirtualMachine(nil)
	mod := object.NewModule("__main__", "")
	result, err := machine.Execute(code, mod)
	if err != nil {
		t.Fatalf("Execute() error = %v, want the handler to swallow it", err)
	}
	if result.Str() != "caught" {
		t.Errorf("Execute() = %q, want %q", result.Str(), "caught")
	}
}

func TestExecRaiseReRaisesPending(t *testing.T) {
	machine := NewVirtualMachine(nil)
	valueErr := machine.Exceptions["ValueError"]
	pending := object.NewException(valueErr, "boom", nil)

	code := newTestCode(1, nil, []*opcodes.Instruction{{Opcode: opcodes.OP_RAISE_VARARGS, Op1: 0}})
	frame := NewCallFrame(code, nil, nil)
	frame.Pending = pending

	jumped, err := machine.execRaise(frame, code.Instructions[0])
	if jumped {
		t.Error("execRaise() jumped = true, want false")
	}
	if err != pending {
		t.Errorf("execRaise() error = %v, want the same pending exception", err)
	}
}

func TestExecRaiseClassInstantiatesException(t *testing.T) {
	machine := NewVirtualMachine(nil)
	typeErr := machine.Exceptions["TypeError"]

	code := newTestCode(1, []*values.Value{object.NewClassValue(typeErr)}, []*opcodes.Instruction{
		{Opcode: opcodes.OP_LOAD_CONST, Op1: 0, Result: 0},
		{Opcode: opcodes.OP_RAISE_VARARGS, Op1: 1, Op2: 0},
	})
	frame := NewCallFrame(code, nil, nil)
	frame.Set(0, code.Constants[0])

	_, err := machine.execRaise(frame, code.Instructions[1])
	exc, ok := err.(*object.Exception)
	if !ok || exc.Class.Name != "TypeError" {
		t.Fatalf("execRaise() error = %v, want a TypeError instance", err)
	}
}

// TestWithStatementBindsEnterResult builds a context manager with
// __enter__/__exit__ and runs SETUP_WITH/WITH_CLEANUP along the
// no-exception path.
func TestWithStatementBindsEnterResult(t *testing.T) {
	enterCode := makeConstMethod("__enter__", values.NewStr("entered"))
	exitCode := &registry.CodeObject{
		Name:          "__exit__",
		RegisterCount: 5,
		Params: []*registry.Parameter{
			{Name: "self", Kind: registry.ParamPositional},
			{Name: "exc_type", Kind: registry.ParamPositional},
			{Name: "exc_val", Kind: registry.ParamPositional},
			{Name: "exc_tb", Kind: registry.ParamPositional},
		},
		Constants: []*values.Value{values.NewBool(false)},
		Instructions: []*opcodes.Instruction{
			{Opcode: opcodes.OP_LOAD_CONST, Op1: 0, Result: 4},
			{Opcode: opcodes.OP_RETURN_VALUE, Result: 4},
		},
	}
	class, err := object.NewClass("CM", nil, map[string]*registry.MethodDescriptor{
		"__enter__": {Function: registry.NewUserFunction(enterCode, nil, nil)},
		"__exit__":  {Function: registry.NewUserFunction(exitCode, nil, nil)},
	}, nil)
	if err != nil {
		t.Fatalf("NewClass(CM) error = %v", err)
	}
	cmVal := object.NewInstanceValue(class)

	code := newTestCode(3, []*values.Value{cmVal}, []*opcodes.Instruction{
		{Opcode: opcodes.OP_LOAD_CONST, Op1: 0, Result: 0},
		{Opcode: opcodes.OP_SETUP_WITH, Op1: 0, Op2: 3, Result: 1},
		{Opcode: opcodes.OP_POP_BLOCK},
		{Opcode: opcodes.OP_WITH_CLEANUP, Op1: 0, Result: 2},
		{Opcode: opcodes.OP_RETURN_VALUE, Result: 1},
	})

	machine := NewVirtualMachine(nil)
	mod := object.NewModule("__main__", "")
	result, err := machine.Execute(code, mod)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Str() != "entered" {
		t.Errorf("with-binding = %q, want %q", result.Str(), "entered")
	}
}

// TestGeneratorYieldsThenExhausts drives a two-yield generator to
// completion through the Iterator contract callClosure hands back.
func TestGeneratorYieldsThenExhausts(t *testing.T) {
	code := &registry.CodeObject{
		Name:          "gen",
		RegisterCount: 2,
		Flags:         registry.FlagGenerator,
		Constants:     []*values.Value{values.NewInt(1), values.NewInt(2)},
		Instructions: []*opcodes.Instruction{
			{Opcode: opcodes.OP_LOAD_CONST, Op1: 0, Result: 0},
			{Opcode: opcodes.OP_YIELD_VALUE, Op1: 0, Result: 1},
			{Opcode: opcodes.OP_LOAD_CONST, Op1: 1, Result: 0},
			{Opcode: opcodes.OP_YIELD_VALUE, Op1: 0, Result: 1},
			{Opcode: opcodes.OP_RETURN_GENERATOR},
		},
	}
	closure := &values.Closure{Proto: code, Name: "gen"}

	machine := NewVirtualMachine(nil)
	result, err := machine.callClosure(closure, nil, nil)
	if err != nil {
		t.Fatalf("callClosure() error = %v", err)
	}
	if result.Kind != values.KindIterator {
		t.Fatalf("callClosure() kind = %v, want KindIterator", result.Kind)
	}
	it := result.IteratorData()

	v1, ok1 := it.Next()
	if !ok1 || v1.Data.(int64) != 1 {
		t.Fatalf("first Next() = (%v, %v), want (1, true)", v1, ok1)
	}
	v2, ok2 := it.Next()
	if !ok2 || v2.Data.(int64) != 2 {
		t.Fatalf("second Next() = (%v, %v), want (2, true)", v2, ok2)
	}
	if _, ok3 := it.Next(); ok3 {
		t.Error("third Next() ok = true, want false (generator exhausted)")
	}
}
