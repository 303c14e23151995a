package vm

import (
	"testing"

	"github.com/lumen-lang/lumen/object"
	"github.com/lumen-lang/lumen/opcodes"
	"github.com/lumen-lang/lumen/registry"
	"github.com/lumen-lang/lumen/values"
)

func newTestCode(regCount int, consts []*values.Value, instrs []*opcodes.Instruction) *registry.CodeObject {
	return &registry.CodeObject{
		Name:          "<test>",
		QualName:      "<test>",
		Instructions:  instrs,
		Constants:     consts,
		RegisterCount: regCount,
	}
}

func TestExecuteArithmetic(t *testing.T) {
	code := newTestCode(3,
		[]*values.Value{values.NewInt(10), values.NewInt(20)},
		[]*opcodes.Instruction{
			{Opcode: opcodes.OP_LOAD_CONST, Op1: 0, Result: 0},
			{Opcode: opcodes.OP_LOAD_CONST, Op1: 1, Result: 1},
			{Opcode: opcodes.OP_BINARY_ADD, Op1: 0, Op2: 1, Result: 2},
			{Opcode: opcodes.OP_RETURN_VALUE, Result: 2},
		},
	)

	machine := NewVirtualMachine(nil)
	mod := object.NewModule("__main__", "")
	result, err := machine.Execute(code, mod)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Kind != values.KindInt || result.Data.(int64) != 30 {
		t.Errorf("Execute() = %v, want Int(30)", result)
	}
}

func TestExecuteDivisionByZeroRaisesZeroDivisionError(t *testing.T) {
	code := newTestCode(3,
		[]*values.Value{values.NewInt(10), values.NewInt(0)},
		[]*opcodes.Instruction{
			{Opcode: opcodes.OP_LOAD_CONST, Op1: 0, Result: 0},
			{Opcode: opcodes.OP_LOAD_CONST, Op1: 1, Result: 1},
			{Opcode: opcodes.OP_BINARY_DIV, Op1: 0, Op2: 1, Result: 2},
			{Opcode: opcodes.OP_RETURN_VALUE, Result: 2},
		},
	)

	machine := NewVirtualMachine(nil)
	mod := object.NewModule("__main__", "")
	_, err := machine.Execute(code, mod)
	if err == nil {
		t.Fatal("Execute() error = nil, want ZeroDivisionError")
	}
	exc, ok := err.(*object.Exception)
	if !ok {
		t.Fatalf("Execute() error type = %T, want *object.Exception", err)
	}
	if exc.Class.Name != "ZeroDivisionError" {
		t.Errorf("exc.Class.Name = %q, want ZeroDivisionError", exc.Class.Name)
	}
}

func TestExecuteAddTypeMismatchRaisesTypeError(t *testing.T) {
	code := newTestCode(3,
		[]*values.Value{values.NewInt(1), values.NewStr("x")},
		[]*opcodes.Instruction{
			{Opcode: opcodes.OP_LOAD_CONST, Op1: 0, Result: 0},
			{Opcode: opcodes.OP_LOAD_CONST, Op1: 1, Result: 1},
			{Opcode: opcodes.OP_BINARY_ADD, Op1: 0, Op2: 1, Result: 2},
			{Opcode: opcodes.OP_RETURN_VALUE, Result: 2},
		},
	)

	machine := NewVirtualMachine(nil)
	mod := object.NewModule("__main__", "")
	_, err := machine.Execute(code, mod)
	exc, ok := err.(*object.Exception)
	if !ok || exc.Class.Name != "TypeError" {
		t.Fatalf("Execute() error = %v, want TypeError", err)
	}
}

// TestExecuteListSumLoop builds [1,2,3] and sums it via GET_ITER/FOR_ITER,
// exercising BUILD_LIST, iteration, and the loop-jump opcodes together.
func TestExecuteListSumLoop(t *testing.T) {
	consts := []*values.Value{values.NewInt(1), values.NewInt(2), values.NewInt(3), values.NewInt(0)}
	instrs := []*opcodes.Instruction{
		{Opcode: opcodes.OP_LOAD_CONST, Op1: 0, Result: 0},                 // 0: r0 = 1
		{Opcode: opcodes.OP_LOAD_CONST, Op1: 1, Result: 1},                 // 1: r1 = 2
		{Opcode: opcodes.OP_LOAD_CONST, Op1: 2, Result: 2},                 // 2: r2 = 3
		{Opcode: opcodes.OP_BUILD_LIST, Op1: 3, Op2: 0, Result: 3},         // 3: r3 = [r0,r1,r2]
		{Opcode: opcodes.OP_GET_ITER, Op1: 3, Result: 4},                   // 4: r4 = iter(r3)
		{Opcode: opcodes.OP_LOAD_CONST, Op1: 3, Result: 5},                 // 5: r5 = 0 (accumulator)
		{Opcode: opcodes.OP_FOR_ITER, Op1: 4, Op2: 9, Result: 6},           // 6: r6 = next(r4) or jump to 9
		{Opcode: opcodes.OP_BINARY_ADD, Op1: 5, Op2: 6, Result: 5},         // 7: r5 += r6
		{Opcode: opcodes.OP_JUMP, Op1: 6},                                  // 8: goto 6
		{Opcode: opcodes.OP_RETURN_VALUE, Result: 5},                      // 9: return r5
	}
	code := newTestCode(7, consts, instrs)

	machine := NewVirtualMachine(nil)
	mod := object.NewModule("__main__", "")
	result, err := machine.Execute(code, mod)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Data.(int64) != 6 {
		t.Errorf("sum = %v, want 6", result.Data)
	}
}

func TestExecuteSubscript(t *testing.T) {
	consts := []*values.Value{values.NewInt(10), values.NewInt(20), values.NewInt(30), values.NewInt(1)}
	instrs := []*opcodes.Instruction{
		{Opcode: opcodes.OP_LOAD_CONST, Op1: 0, Result: 0},
		{Opcode: opcodes.OP_LOAD_CONST, Op1: 1, Result: 1},
		{Opcode: opcodes.OP_LOAD_CONST, Op1: 2, Result: 2},
		{Opcode: opcodes.OP_BUILD_LIST, Op1: 3, Op2: 0, Result: 3}, // r3 = [10,20,30]
		{Opcode: opcodes.OP_LOAD_CONST, Op1: 3, Result: 4},         // r4 = 1
		{Opcode: opcodes.OP_BINARY_SUBSCR, Op1: 3, Op2: 4, Result: 5}, // r5 = r3[1] = 20
		{Opcode: opcodes.OP_RETURN_VALUE, Result: 5},
	}
	code := newTestCode(6, consts, instrs)

	machine := NewVirtualMachine(nil)
	mod := object.NewModule("__main__", "")
	result, err := machine.Execute(code, mod)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.Data.(int64) != 20 {
		t.Errorf("subscript result = %v, want 20", result.Data)
	}
}

func TestSliceItemsNegativeStep(t *testing.T) {
	items := []*values.Value{values.NewInt(1), values.NewInt(2), values.NewInt(3)}
	s := values.NewSlice(nil, nil, values.NewInt(-1)).Data.(*values.Slice)
	out := sliceItems(items, s)
	if len(out) != 3 || out[0].Data.(int64) != 3 || out[2].Data.(int64) != 1 {
		t.Errorf("reversed slice = %v, want [3,2,1]", out)
	}
}
