package vm

import (
	"errors"
	"fmt"

	"github.com/lumen-lang/lumen/opcodes"
)

// Sentinel base errors the VM raises as Exceptions of the matching Python
// class (spec.md §4.4), adapted from the teacher's flat error-sentinel list
// (vm/errors.go) to this language's exception taxonomy rather than PHP's.
var (
	ErrNameNotFound      = errors.New("name is not defined")
	ErrAttributeNotFound = errors.New("attribute not found")
	ErrIndexOutOfRange   = errors.New("index out of range")
	ErrKeyNotFound       = errors.New("key not found")
	ErrTypeMismatch      = errors.New("unsupported operand type")
	ErrNotCallable       = errors.New("object is not callable")
	ErrZeroDivision      = errors.New("division by zero")
	ErrStopIteration     = errors.New("iterator exhausted")
	ErrUnboundLocal      = errors.New("local variable referenced before assignment")
	ErrInvalidUnpack     = errors.New("cannot unpack values")
	ErrOpcodeNotImplemented = errors.New("opcode not implemented")
	ErrNoActiveException   = errors.New("no active exception to re-raise")
)

// VMError wraps a sentinel with instruction-pointer/opcode context, kept
// from the teacher's VMError{Type,Message,Context,Frame,Opcode,IP} shape
// (vm/errors.go) so errors.Is/As still walk through to the sentinel.
type VMError struct {
	Type    error
	Message string
	Context string
	Frame   *CallFrame
	Opcode  opcodes.Opcode
	IP      int
}

func (e *VMError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s: %s", e.Context, e.Type.Error(), e.Message)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Type.Error(), e.Message)
	}
	return e.Type.Error()
}

func (e *VMError) Unwrap() error { return e.Type }

func (e *VMError) Is(target error) bool { return errors.Is(e.Type, target) }

func NewVMError(base error, format string, args ...interface{}) *VMError {
	return &VMError{Type: base, Message: fmt.Sprintf(format, args...)}
}

// DecorateError attaches frame/opcode/ip context to err, wrapping it in a
// VMError if it isn't one already.
func DecorateError(err error, frame *CallFrame, inst *opcodes.Instruction) error {
	if err == nil {
		return nil
	}
	if vmErr, ok := err.(*VMError); ok {
		vmErr.Frame = frame
		if frame != nil {
			vmErr.IP = frame.IP
			if vmErr.Context == "" {
				vmErr.Context = frame.Code.QualName
			}
		}
		if inst != nil {
			vmErr.Opcode = inst.Opcode
		}
		return vmErr
	}
	ve := &VMError{Type: err}
	if frame != nil {
		ve.Frame = frame
		ve.IP = frame.IP
		ve.Context = frame.Code.QualName
	}
	if inst != nil {
		ve.Opcode = inst.Opcode
	}
	return ve
}

func NewOpcodeError(op opcodes.Opcode) *VMError {
	return NewVMError(ErrOpcodeNotImplemented, "%s", op)
}
