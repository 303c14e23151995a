package opcodes

import "testing"

func TestOpcodeString(t *testing.T) {
	tests := []struct {
		name string
		op   Opcode
		want string
	}{
		{"load const", OP_LOAD_CONST, "LOAD_CONST"},
		{"binary add", OP_BINARY_ADD, "BINARY_ADD"},
		{"for iter", OP_FOR_ITER, "FOR_ITER"},
		{"unknown", Opcode(255), "UNKNOWN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.op.String(); got != tt.want {
				t.Errorf("Opcode.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEncodeDecodeOpTypes(t *testing.T) {
	t1, t2 := EncodeOpTypes(IS_REG, IS_CONST, IS_REG)
	if got := DecodeOpType1(t1); got != IS_REG {
		t.Errorf("DecodeOpType1 = %v, want IS_REG", got)
	}
	if got := DecodeOpType2(t1); got != IS_CONST {
		t.Errorf("DecodeOpType2 = %v, want IS_CONST", got)
	}
	if got := DecodeResultType(t2); got != IS_REG {
		t.Errorf("DecodeResultType = %v, want IS_REG", got)
	}
}

func TestEncodeOpTypesWithFlags(t *testing.T) {
	_, t2 := EncodeOpTypesWithFlags(IS_REG, IS_UNUSED, IS_REG, ExtFlagStarred)
	if got := DecodeExtendedFlags(t2); got != ExtFlagStarred {
		t.Errorf("DecodeExtendedFlags = %v, want %v", got, ExtFlagStarred)
	}
}

func TestInstructionString(t *testing.T) {
	t1, t2 := EncodeOpTypes(IS_REG, IS_REG, IS_REG)
	inst := &Instruction{Opcode: OP_BINARY_ADD, OpType1: t1, OpType2: t2, Op1: 1, Op2: 2, Result: 3}
	want := "BINARY_ADD REG:1, REG:2, REG:3"
	if got := inst.String(); got != want {
		t.Errorf("Instruction.String() = %q, want %q", got, want)
	}
}
