package vm

import (
	"fmt"

	"github.com/lumen-lang/lumen/object"
	"github.com/lumen-lang/lumen/opcodes"
	"github.com/lumen-lang/lumen/values"
)

// execRaise backs RAISE_VARARGS: Op1 selects the form (0 re-raise the
// currently propagating exception, 1 `raise exc`, 2 `raise exc from cause`),
// Op2 the exception-expression register, Result the cause-expression
// register (form 2 only).
func (vm *VirtualMachine) execRaise(frame *CallFrame, inst *opcodes.Instruction) (bool, error) {
	switch inst.Op1 {
	case 0:
		if frame.Pending == nil {
			return false, NewVMError(ErrNoActiveException, "RAISE_VARARGS with no active exception")
		}
		return false, frame.Pending
	case 1, 2:
		exc, err := vm.toException(frame.Get(inst.Op2))
		if err != nil {
			return false, err
		}
		if inst.Op1 == 2 {
			causeVal := frame.Get(inst.Result)
			if !causeVal.IsNone() {
				cause, err := vm.toException(causeVal)
				if err != nil {
					return false, err
				}
				exc.Cause = cause
			}
		}
		exc.Context = frame.Pending
		return false, exc
	default:
		return false, NewVMError(ErrInvalidUnpack, "malformed RAISE_VARARGS")
	}
}

// toException accepts either an already-constructed Exception value or a
// bare exception class (`raise ValueError`), instantiating the latter with
// no arguments.
func (vm *VirtualMachine) toException(v *values.Value) (*object.Exception, error) {
	switch v.Kind {
	case values.KindException:
		exc, _ := object.ExceptionOf(v)
		return exc, nil
	case values.KindClass:
		instVal, err := vm.callValue(v, nil, nil)
		if err != nil {
			return nil, err
		}
		exc, ok := object.ExceptionOf(instVal)
		if !ok {
			return nil, vm.raiseBuiltin("TypeError", "exceptions must derive from BaseException")
		}
		return exc, nil
	default:
		return nil, vm.raiseBuiltin("TypeError", "exceptions must derive from BaseException")
	}
}

// execSetupWith enters a `with` block: Op1 is the context-manager register
// (kept live in that same register for the matching WITH_CLEANUP to read
// back __exit__ from), Op2 the cleanup handler's instruction pointer, Result
// the destination for the `as` binding (__enter__'s return value).
func (vm *VirtualMachine) execSetupWith(frame *CallFrame, inst *opcodes.Instruction) (bool, error) {
	cm := frame.Get(inst.Op1)
	enter, err := vm.getAttr(cm, "__enter__")
	if err != nil {
		return false, err
	}
	result, err := vm.callValue(enter, nil, nil)
	if err != nil {
		return false, err
	}
	frame.Set(inst.Result, result)
	frame.PushBlock(Block{Kind: BlockWith, HandlerIP: int(inst.Op2), RegisterBase: int(inst.Op1)})
	return false, nil
}

// execWithCleanup backs both WITH_EXCEPT_START (reached via unwinding, with
// frame.Pending set) and WITH_CLEANUP (reached via normal fallthrough, with
// frame.Pending nil): Op1 the context-manager register, Result the
// destination for a bool reporting whether __exit__ suppressed the pending
// exception.
func (vm *VirtualMachine) execWithCleanup(frame *CallFrame, inst *opcodes.Instruction) (bool, error) {
	cm := frame.Get(inst.Op1)
	exitFn, err := vm.getAttr(cm, "__exit__")
	if err != nil {
		return false, err
	}
	excType, excVal, excTb := values.None(), values.None(), values.None()
	if frame.Pending != nil {
		excType = object.NewClassValue(frame.Pending.Class)
		excVal = object.NewExceptionValue(frame.Pending)
	}
	res, err := vm.callValue(exitFn, []*values.Value{excType, excVal, excTb}, nil)
	if err != nil {
		return false, err
	}
	suppressed := false
	if frame.Pending != nil && res.Truthiness() {
		frame.Pending = nil
		frame.State = StateRunning
		suppressed = true
	}
	frame.Set(inst.Result, values.NewBool(suppressed))
	return false, nil
}

// execYieldValue suspends the current generator frame, handing v back to
// whoever called next()/send(). Op1 is the yielded-value register, Result
// the register that receives the resumed value on the next next() call
// (always None — send()'s payload wiring is not implemented yet).
func (vm *VirtualMachine) execYieldValue(frame *CallFrame, inst *opcodes.Instruction) (bool, error) {
	if frame.Gen == nil {
		frame.Gen = &GeneratorState{}
	}
	frame.Gen.StopValue = frame.Get(inst.Op1)
	frame.State = StateSuspended
	frame.Set(inst.Result, values.None())
	return false, nil
}

// execYieldFrom delegates to a sub-iterator already loaded (via GET_ITER)
// into Op1, pulling and re-yielding one item per resume until it's
// exhausted, at which point execution falls through past this instruction.
func (vm *VirtualMachine) execYieldFrom(frame *CallFrame, inst *opcodes.Instruction) (bool, error) {
	sub := frame.Get(inst.Op1)
	it := sub.IteratorData()
	if it == nil {
		return false, vm.raiseBuiltin("TypeError", fmt.Sprintf("cannot delegate to non-iterator '%s'", sub.TypeName()))
	}
	item, ok := it.Next()
	if !ok {
		frame.Set(inst.Result, values.None())
		return false, nil
	}
	if frame.Gen == nil {
		frame.Gen = &GeneratorState{}
	}
	frame.Gen.StopValue = item
	frame.State = StateSuspended
	return true, nil
}
