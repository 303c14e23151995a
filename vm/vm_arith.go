package vm

import (
	"fmt"

	"github.com/lumen-lang/lumen/object"
	"github.com/lumen-lang/lumen/opcodes"
	"github.com/lumen-lang/lumen/values"
)

// raiseBuiltin constructs and returns (as a Go error satisfying the
// asException boundary in vm.go) a Exception of one of the bootstrapped
// builtin classes, the uniform path every opcode handler below uses to
// signal a language-level error rather than a VM bug.
func (vm *VirtualMachine) raiseBuiltin(className, message string) error {
	class, ok := vm.Exceptions[className]
	if !ok {
		return NewVMError(ErrTypeMismatch, "unknown builtin exception class %q: %s", className, message)
	}
	return object.NewException(class, message, nil)
}

func (vm *VirtualMachine) execBinary(frame *CallFrame, inst *opcodes.Instruction) error {
	a, b := frame.Get(inst.Op1), frame.Get(inst.Op2)
	ic := frame.cacheFor(frame.IP)
	ic.Kind1, ic.Kind2 = a.Kind, b.Kind

	var result *values.Value
	var err error
	switch inst.Opcode {
	case opcodes.OP_BINARY_ADD, opcodes.OP_BINARY_ADD_INT_FAST, opcodes.OP_BINARY_ADD_FLOAT_FAST:
		if !compatibleOperands(a, b) {
			return vm.raiseBuiltin("TypeError", fmt.Sprintf("unsupported operand type(s) for +: '%s' and '%s'", a.TypeName(), b.TypeName()))
		}
		result = values.Add(a, b)
		ic.Hits++
	case opcodes.OP_BINARY_SUB:
		result = values.Sub(a, b)
	case opcodes.OP_BINARY_MUL:
		result = values.Mul(a, b)
	case opcodes.OP_BINARY_DIV:
		result, err = values.Div(a, b)
	case opcodes.OP_BINARY_FLOORDIV:
		result, err = values.FloorDiv(a, b)
	case opcodes.OP_BINARY_MOD:
		result, err = values.Mod(a, b)
	case opcodes.OP_BINARY_POW:
		result = values.Pow(a, b)
	case opcodes.OP_BINARY_LSHIFT:
		result = values.Shl(a, b)
	case opcodes.OP_BINARY_RSHIFT:
		result = values.Shr(a, b)
	case opcodes.OP_BINARY_AND:
		result = values.BitAnd(a, b)
	case opcodes.OP_BINARY_OR:
		result = values.BitOr(a, b)
	case opcodes.OP_BINARY_XOR:
		result = values.BitXor(a, b)
	case opcodes.OP_BINARY_MATMUL:
		return vm.raiseBuiltin("TypeError", "matrix multiplication is not supported between these types")
	}
	if err != nil {
		ic.Misses++
		return vm.raiseBuiltin("ZeroDivisionError", err.Error())
	}
	frame.Set(inst.Result, result)
	return nil
}

func compatibleOperands(a, b *values.Value) bool {
	if a.IsNumeric() && b.IsNumeric() {
		return true
	}
	return a.Kind == b.Kind
}

func (vm *VirtualMachine) execUnary(frame *CallFrame, inst *opcodes.Instruction) error {
	a := frame.Get(inst.Op1)
	var result *values.Value
	switch inst.Opcode {
	case opcodes.OP_UNARY_NEG:
		result = values.Neg(a)
	case opcodes.OP_UNARY_POS:
		result = a
	case opcodes.OP_UNARY_NOT:
		result = values.NewBool(!a.Truthiness())
	case opcodes.OP_UNARY_INVERT:
		result = values.BitNot(a)
	}
	frame.Set(inst.Result, result)
	return nil
}

func (vm *VirtualMachine) execCompare(frame *CallFrame, inst *opcodes.Instruction) error {
	a, b := frame.Get(inst.Op1), frame.Get(inst.Op2)
	var out bool
	switch inst.Opcode {
	case opcodes.OP_COMPARE_EQ:
		out = values.Equal(a, b)
	case opcodes.OP_COMPARE_NE:
		out = !values.Equal(a, b)
	case opcodes.OP_COMPARE_IS:
		out = a.Is(b)
	case opcodes.OP_COMPARE_IS_NOT:
		out = !a.Is(b)
	default:
		c, ok := values.Compare(a, b)
		if !ok {
			if a.IsNumeric() && b.IsNumeric() {
				// A NaN operand: every ordering comparison is False.
				frame.Set(inst.Result, values.NewBool(false))
				return nil
			}
			return vm.raiseBuiltin("TypeError", fmt.Sprintf("'<' not supported between instances of '%s' and '%s'", a.TypeName(), b.TypeName()))
		}
		switch inst.Opcode {
		case opcodes.OP_COMPARE_LT:
			out = c < 0
		case opcodes.OP_COMPARE_LE:
			out = c <= 0
		case opcodes.OP_COMPARE_GT:
			out = c > 0
		case opcodes.OP_COMPARE_GE:
			out = c >= 0
		}
	}
	frame.Set(inst.Result, values.NewBool(out))
	return nil
}

func (vm *VirtualMachine) execContains(frame *CallFrame, inst *opcodes.Instruction) error {
	item, container := frame.Get(inst.Op1), frame.Get(inst.Op2)
	found, err := containsValue(container, item)
	if err != nil {
		return vm.raiseBuiltin("TypeError", err.Error())
	}
	if inst.Opcode == opcodes.OP_NOT_CONTAINS {
		found = !found
	}
	frame.Set(inst.Result, values.NewBool(found))
	return nil
}

func containsValue(container, item *values.Value) (bool, error) {
	switch container.Kind {
	case values.KindList:
		for _, it := range container.Data.(*values.List).Items {
			if values.Equal(it, item) {
				return true, nil
			}
		}
		return false, nil
	case values.KindTuple:
		for _, it := range container.Data.(*values.Tuple).Items {
			if values.Equal(it, item) {
				return true, nil
			}
		}
		return false, nil
	case values.KindSet:
		return container.Data.(*values.Set).Contains(item), nil
	case values.KindDict:
		if item.Kind != values.KindStr {
			return false, nil
		}
		_, found := container.Data.(*values.Dict).Get(item.Data.(string))
		return found, nil
	case values.KindStr:
		if item.Kind != values.KindStr {
			return false, fmt.Errorf("'in <string>' requires string as left operand, not %s", item.TypeName())
		}
		return containsSubstr(container.Data.(string), item.Data.(string)), nil
	default:
		return false, fmt.Errorf("argument of type '%s' is not iterable", container.TypeName())
	}
}

func containsSubstr(s, sub string) bool {
	if len(sub) == 0 {
		return true
	}
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
