// Package vm implements the register-based bytecode interpreter (spec.md
// §3.3, §4): a dispatch loop over opcodes.Instruction driving CallFrames,
// the call protocol for Closures/NativeFuncs/Classes, attribute and
// subscript access, and structured exception unwinding. Grounded on the
// teacher's VirtualMachine/ExecutionContext/CallFrame architecture
// (vm/vm.go, vm/call_stack.go) but rewritten end to end against this
// language's opcode set and value model.
package vm

import (
	"fmt"
	"io"
	"os"

	"github.com/lumen-lang/lumen/object"
	"github.com/lumen-lang/lumen/opcodes"
	"github.com/lumen-lang/lumen/registry"
	"github.com/lumen-lang/lumen/values"
)

// DebugLevel controls how much runtime diagnostic detail the VM records,
// kept from the teacher's three-tier verbosity idiom (vm/vm.go).
type DebugLevel int

const (
	DebugLevelNone DebugLevel = iota
	DebugLevelBasic
	DebugLevelDetailed
)

// HotSpot names an instruction pointer executed often, surfaced by
// GetHotSpots the way the teacher's profiler reports them.
type HotSpot struct {
	IP    int
	Count int
}

// VirtualMachine owns everything a running program shares across frames:
// the call stack, the module cache, the builtin namespace, and the
// bootstrapped exception class hierarchy.
type VirtualMachine struct {
	Stack      *CallStackManager
	Modules    *object.ModuleRegistry
	Builtins   map[string]*values.Value
	Exceptions map[string]*object.Class

	Out io.Writer

	debugLevel  DebugLevel
	DebugMode   bool
	breakpoints map[int]struct{}

	// StepHook, when set and debugLevel is DebugLevelDetailed, runs before
	// every instruction dispatch — the hook an interactive debugger console
	// uses to pause for input between steps.
	StepHook func(frame *CallFrame, inst *opcodes.Instruction)

	hotCounts map[int]int
}

// SetDebugLevel controls breakpoint printing and StepHook invocation.
func (vm *VirtualMachine) SetDebugLevel(level DebugLevel) { vm.debugLevel = level }

// NewVirtualMachine constructs a VM with the built-in exception hierarchy
// bootstrapped and the given builtin namespace (spec.md §6) installed.
func NewVirtualMachine(builtins map[string]*values.Value) *VirtualMachine {
	if builtins == nil {
		builtins = make(map[string]*values.Value)
	}
	return &VirtualMachine{
		Stack:       NewCallStackManager(),
		Modules:     object.NewModuleRegistry(),
		Builtins:    builtins,
		Exceptions:  bootstrapExceptions(),
		Out:         os.Stdout,
		breakpoints: make(map[int]struct{}),
		hotCounts:   make(map[int]int),
	}
}

func (vm *VirtualMachine) SetBreakpoint(ip int) { vm.breakpoints[ip] = struct{}{} }

func (vm *VirtualMachine) GetHotSpots(n int) []HotSpot {
	out := make([]HotSpot, 0, len(vm.hotCounts))
	for ip, count := range vm.hotCounts {
		out = append(out, HotSpot{IP: ip, Count: count})
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Count > out[i].Count {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// Execute runs code as a module's top level: a fresh frame with no
// enclosing closure, resolving globals directly against module.
func (vm *VirtualMachine) Execute(code *registry.CodeObject, module *object.Module) (*values.Value, error) {
	frame := NewCallFrame(code, nil, module)
	return vm.runFrame(frame)
}

// runFrame runs a frame whose arguments are already bound and
// arguments placed in its register window (the call protocol in
// vm_calls.go is responsible for that binding); this is the inner run loop
// entry point shared by top-level execution and nested calls.
func (vm *VirtualMachine) runFrame(frame *CallFrame) (*values.Value, error) {
	vm.Stack.PushFrame(frame)
	defer vm.Stack.PopFrame()

	for {
		if frame.IP < 0 || frame.IP >= len(frame.Code.Instructions) {
			frame.ReturnValue = values.None()
			frame.State = StateReturning
		}

		switch frame.State {
		case StateReturning:
			return frame.ReturnValue, nil
		case StateSuspended:
			return frame.Gen.StopValue, nil
		case StateUnwinding:
			if !vm.unwindToHandler(frame) {
				return nil, frame.Pending
			}
			continue
		}

		inst := frame.Code.Instructions[frame.IP]
		vm.hotCounts[frame.IP]++

		if vm.debugLevel != DebugLevelNone {
			if _, ok := vm.breakpoints[frame.IP]; ok {
				fmt.Fprintf(vm.Out, "-- breakpoint at ip=%d (%s)\n", frame.IP, inst.Opcode)
			}
			if vm.debugLevel == DebugLevelDetailed && vm.StepHook != nil {
				vm.StepHook(frame, inst)
			}
		}

		jumped, err := vm.executeInstruction(frame, inst)
		if err != nil {
			if exc, ok := asException(err); ok {
				frame.Pending = exc
				frame.State = StateUnwinding
				continue
			}
			return nil, DecorateError(err, frame, inst)
		}
		if !jumped {
			frame.IP++
		}
	}
}

// asException unwraps a raised Lumen exception from a Go error, the
// boundary between the host error-return plumbing and the block-stack
// unwinder (spec.md §4.1 exception semantics).
func asException(err error) (*object.Exception, bool) {
	if exc, ok := err.(*object.Exception); ok {
		return exc, true
	}
	return nil, false
}

// unwindToHandler pops blocks off frame looking for a Try/Finally/With
// block whose handler should run next; returns false once the block stack
// is exhausted, meaning the exception escapes this frame entirely.
func (vm *VirtualMachine) unwindToHandler(frame *CallFrame) bool {
	for {
		b, ok := frame.PopBlock()
		if !ok {
			return false
		}
		switch b.Kind {
		case BlockTry, BlockFinally, BlockExceptHandler:
			frame.IP = b.HandlerIP
			frame.State = StateRunning
			return true
		case BlockWith:
			// __exit__ gets a chance to suppress; WITH_EXCEPT_START runs at
			// HandlerIP with frame.Pending still set.
			frame.IP = b.HandlerIP
			frame.State = StateRunning
			return true
		case BlockLoop:
			continue
		}
	}
}

func (vm *VirtualMachine) recordHotSpot(ip int) { vm.hotCounts[ip]++ }

// executeInstruction runs one instruction and reports whether it altered
// frame.IP itself (jumps, calls into nested frames, RETURN_VALUE); when
// false the run loop advances IP by one. Operand conventions follow the
// per-opcode doc comments in opcodes/opcodes.go: Result is usually the
// destination register, except for STORE_* and RETURN_VALUE where it holds
// the source value being written out.
func (vm *VirtualMachine) executeInstruction(frame *CallFrame, inst *opcodes.Instruction) (bool, error) {
	switch inst.Opcode {
	case opcodes.OP_NOP:
		return false, nil

	case opcodes.OP_LOAD_CONST:
		frame.Set(inst.Result, frame.Code.Constants[inst.Op1])
		return false, nil
	case opcodes.OP_LOAD_FAST:
		if !frame.Bound[inst.Op1] {
			return false, vm.raiseBuiltin("UnboundLocalError", "local variable referenced before assignment")
		}
		frame.Set(inst.Result, frame.Get(inst.Op1))
		return false, nil
	case opcodes.OP_STORE_FAST:
		frame.Set(inst.Op1, frame.Get(inst.Result))
		return false, nil
	case opcodes.OP_DELETE_FAST:
		frame.Bound[inst.Op1] = false
		return false, nil

	case opcodes.OP_LOAD_GLOBAL:
		name := frame.Code.Names[inst.Op1]
		v, ok := frame.Module.Get(name)
		if !ok {
			return false, vm.raiseBuiltin("NameError", fmt.Sprintf("name '%s' is not defined", name))
		}
		frame.Set(inst.Result, v)
		return false, nil
	case opcodes.OP_STORE_GLOBAL:
		frame.Module.Set(frame.Code.Names[inst.Op1], frame.Get(inst.Result))
		return false, nil
	case opcodes.OP_DELETE_GLOBAL:
		name := frame.Code.Names[inst.Op1]
		if !frame.Module.Delete(name) {
			return false, vm.raiseBuiltin("NameError", fmt.Sprintf("name '%s' is not defined", name))
		}
		return false, nil

	case opcodes.OP_LOAD_NAME:
		name := frame.Code.Names[inst.Op1]
		if v, ok := frame.Module.Get(name); ok {
			frame.Set(inst.Result, v)
			return false, nil
		}
		if v, ok := vm.Builtins[name]; ok {
			frame.Set(inst.Result, v)
			return false, nil
		}
		return false, vm.raiseBuiltin("NameError", fmt.Sprintf("name '%s' is not defined", name))
	case opcodes.OP_STORE_NAME:
		frame.Module.Set(frame.Code.Names[inst.Op1], frame.Get(inst.Result))
		return false, nil

	case opcodes.OP_LOAD_DEREF:
		frame.Set(inst.Result, frame.derefCell(inst.Op1).Value)
		return false, nil
	case opcodes.OP_STORE_DEREF:
		frame.derefCell(inst.Op1).Value = frame.Get(inst.Result)
		return false, nil

	case opcodes.OP_LOAD_BUILTIN:
		name := frame.Code.Names[inst.Op1]
		v, ok := vm.Builtins[name]
		if !ok {
			return false, vm.raiseBuiltin("NameError", fmt.Sprintf("name '%s' is not defined", name))
		}
		frame.Set(inst.Result, v)
		return false, nil

	case opcodes.OP_BINARY_ADD, opcodes.OP_BINARY_SUB, opcodes.OP_BINARY_MUL, opcodes.OP_BINARY_DIV,
		opcodes.OP_BINARY_FLOORDIV, opcodes.OP_BINARY_MOD, opcodes.OP_BINARY_POW, opcodes.OP_BINARY_LSHIFT,
		opcodes.OP_BINARY_RSHIFT, opcodes.OP_BINARY_AND, opcodes.OP_BINARY_OR, opcodes.OP_BINARY_XOR,
		opcodes.OP_BINARY_MATMUL, opcodes.OP_BINARY_ADD_INT_FAST, opcodes.OP_BINARY_ADD_FLOAT_FAST:
		return false, vm.execBinary(frame, inst)
	case opcodes.OP_UNARY_NEG, opcodes.OP_UNARY_POS, opcodes.OP_UNARY_NOT, opcodes.OP_UNARY_INVERT:
		return false, vm.execUnary(frame, inst)
	case opcodes.OP_INPLACE_ADD:
		a, b := frame.Get(inst.Result), frame.Get(inst.Op1)
		frame.Set(inst.Result, values.Add(a, b))
		return false, nil

	case opcodes.OP_COMPARE_EQ, opcodes.OP_COMPARE_NE, opcodes.OP_COMPARE_LT, opcodes.OP_COMPARE_LE,
		opcodes.OP_COMPARE_GT, opcodes.OP_COMPARE_GE, opcodes.OP_COMPARE_IS, opcodes.OP_COMPARE_IS_NOT:
		return false, vm.execCompare(frame, inst)
	case opcodes.OP_CONTAINS_OP, opcodes.OP_NOT_CONTAINS:
		return false, vm.execContains(frame, inst)
	case opcodes.OP_JUMP_IF_COMPARE_FALSE:
		if !frame.Get(inst.Result).Truthiness() {
			frame.IP = int(inst.Op1)
			return true, nil
		}
		return false, nil

	case opcodes.OP_JUMP:
		frame.IP = int(inst.Op1)
		return true, nil
	case opcodes.OP_JUMP_IF_FALSE:
		if !frame.Get(inst.Op1).Truthiness() {
			frame.IP = int(inst.Op2)
			return true, nil
		}
		return false, nil
	case opcodes.OP_JUMP_IF_TRUE:
		if frame.Get(inst.Op1).Truthiness() {
			frame.IP = int(inst.Op2)
			return true, nil
		}
		return false, nil
	case opcodes.OP_JUMP_IF_FALSE_OR_POP:
		if !frame.Get(inst.Op1).Truthiness() {
			frame.Set(inst.Result, frame.Get(inst.Op1))
			frame.IP = int(inst.Op2)
			return true, nil
		}
		return false, nil
	case opcodes.OP_JUMP_IF_TRUE_OR_POP:
		if frame.Get(inst.Op1).Truthiness() {
			frame.Set(inst.Result, frame.Get(inst.Op1))
			frame.IP = int(inst.Op2)
			return true, nil
		}
		return false, nil
	case opcodes.OP_POP_JUMP_IF_FALSE:
		if !frame.Get(inst.Op1).Truthiness() {
			frame.IP = int(inst.Op2)
			return true, nil
		}
		return false, nil
	case opcodes.OP_POP_JUMP_IF_TRUE:
		if frame.Get(inst.Op1).Truthiness() {
			frame.IP = int(inst.Op2)
			return true, nil
		}
		return false, nil

	case opcodes.OP_SETUP_LOOP:
		frame.PushBlock(Block{Kind: BlockLoop, HandlerIP: int(inst.Op1)})
		return false, nil
	case opcodes.OP_POP_BLOCK:
		frame.PopBlock()
		return false, nil
	case opcodes.OP_BREAK_LOOP:
		for {
			b, ok := frame.PopBlock()
			if !ok {
				return false, NewVMError(ErrInvalidUnpack, "break outside loop")
			}
			if b.Kind == BlockLoop {
				frame.IP = b.HandlerIP
				return true, nil
			}
		}
	case opcodes.OP_CONTINUE_LOOP:
		frame.IP = int(inst.Op1)
		return true, nil

	case opcodes.OP_SETUP_FINALLY:
		frame.PushBlock(Block{Kind: BlockFinally, HandlerIP: int(inst.Op1)})
		return false, nil
	case opcodes.OP_SETUP_EXCEPT:
		frame.PushBlock(Block{Kind: BlockTry, HandlerIP: int(inst.Op1)})
		return false, nil
	case opcodes.OP_POP_EXCEPT:
		// unwindToHandler already popped the handler's block before jumping
		// here; only clear the caught exception, don't pop again.
		frame.Pending = nil
		return false, nil
	case opcodes.OP_END_FINALLY:
		if frame.Pending != nil {
			frame.State = StateUnwinding
			return true, nil
		}
		return false, nil
	case opcodes.OP_RAISE_VARARGS:
		return vm.execRaise(frame, inst)
	case opcodes.OP_RERAISE:
		if frame.Pending == nil {
			return false, NewVMError(ErrNoActiveException, "")
		}
		return false, frame.Pending

	case opcodes.OP_SETUP_WITH:
		return vm.execSetupWith(frame, inst)
	case opcodes.OP_WITH_EXCEPT_START, opcodes.OP_WITH_CLEANUP:
		return vm.execWithCleanup(frame, inst)

	case opcodes.OP_RETURN_VALUE:
		frame.ReturnValue = frame.Get(inst.Result)
		frame.State = StateReturning
		return true, nil

	case opcodes.OP_BUILD_LIST, opcodes.OP_BUILD_TUPLE, opcodes.OP_BUILD_SET, opcodes.OP_BUILD_DICT:
		return false, vm.execBuildContainer(frame, inst)
	case opcodes.OP_LIST_APPEND, opcodes.OP_SET_ADD, opcodes.OP_MAP_ADD:
		return false, vm.execContainerAdd(frame, inst)
	case opcodes.OP_LIST_EXTEND, opcodes.OP_DICT_MERGE:
		return false, vm.execContainerMerge(frame, inst)
	case opcodes.OP_BINARY_SUBSCR:
		return false, vm.execSubscr(frame, inst)
	case opcodes.OP_STORE_SUBSCR:
		return false, vm.execStoreSubscr(frame, inst)
	case opcodes.OP_DELETE_SUBSCR:
		return false, vm.execDeleteSubscr(frame, inst)
	case opcodes.OP_BUILD_SLICE:
		frame.Set(inst.Result, values.NewSlice(frame.Get(inst.Op1), frame.Get(inst.Op2), nil))
		return false, nil
	case opcodes.OP_UNPACK_SEQUENCE:
		return false, vm.execUnpackSequence(frame, inst)
	case opcodes.OP_UNPACK_EX:
		return false, vm.execUnpackEx(frame, inst)
	case opcodes.OP_GET_ITER:
		return false, vm.execGetIter(frame, inst)
	case opcodes.OP_FOR_ITER:
		return vm.execForIter(frame, inst)
	case opcodes.OP_GET_LEN:
		n, err := sequenceLen(frame.Get(inst.Op1))
		if err != nil {
			return false, err
		}
		frame.Set(inst.Result, values.NewInt(n))
		return false, nil

	case opcodes.OP_LOAD_ATTR:
		return false, vm.execLoadAttr(frame, inst)
	case opcodes.OP_STORE_ATTR:
		return false, vm.execStoreAttr(frame, inst)
	case opcodes.OP_DELETE_ATTR:
		return false, vm.execDeleteAttr(frame, inst)
	case opcodes.OP_LOAD_METHOD:
		return false, vm.execLoadAttr(frame, inst)
	case opcodes.OP_CALL_METHOD, opcodes.OP_CALL_FUNCTION:
		return false, vm.execCallFunction(frame, inst)
	case opcodes.OP_CALL_FUNCTION_KW:
		return false, vm.execCallFunctionKW(frame, inst)
	case opcodes.OP_CALL_FUNCTION_EX:
		return false, vm.execCallFunctionEx(frame, inst)
	case opcodes.OP_MAKE_FUNCTION:
		return false, vm.execMakeFunction(frame, inst)
	case opcodes.OP_MAKE_CELL:
		frame.Cells[inst.Op1] = values.NewCell(values.None())
		return false, nil
	case opcodes.OP_COPY_FREE_VARS:
		return false, nil
	case opcodes.OP_CALL_SUPER:
		return false, vm.execCallSuper(frame, inst)

	case opcodes.OP_BUILD_CLASS:
		return false, vm.execBuildClass(frame, inst)
	case opcodes.OP_LOAD_CLASSDEREF:
		frame.Set(inst.Result, frame.derefCell(inst.Op1).Value)
		return false, nil
	case opcodes.OP_CHECK_EXC_MATCH:
		return false, vm.execCheckExcMatch(frame, inst)
	case opcodes.OP_LOAD_EXC:
		if frame.Pending != nil {
			frame.Set(inst.Result, object.NewExceptionValue(frame.Pending))
		} else {
			frame.Set(inst.Result, values.None())
		}
		return false, nil
	case opcodes.OP_IS_INSTANCE:
		return false, vm.execIsInstance(frame, inst)
	case opcodes.OP_FORMAT_EXC_INFO:
		if frame.Pending != nil {
			frame.Set(inst.Result, values.NewStr(frame.Pending.Error()))
		} else {
			frame.Set(inst.Result, values.None())
		}
		return false, nil

	case opcodes.OP_YIELD_VALUE:
		return vm.execYieldValue(frame, inst)
	case opcodes.OP_YIELD_FROM:
		return vm.execYieldFrom(frame, inst)
	case opcodes.OP_GEN_START:
		if frame.Gen == nil {
			frame.Gen = &GeneratorState{}
		}
		return false, nil
	case opcodes.OP_AWAIT:
		return vm.execYieldValue(frame, inst)
	case opcodes.OP_RETURN_GENERATOR:
		if frame.Gen == nil {
			frame.Gen = &GeneratorState{}
		}
		frame.Gen.Finished = true
		frame.ReturnValue = values.None()
		frame.State = StateReturning
		return true, nil

	case opcodes.OP_IMPORT_NAME:
		return false, vm.execImportName(frame, inst)
	case opcodes.OP_IMPORT_FROM:
		return false, vm.execImportFrom(frame, inst)
	case opcodes.OP_IMPORT_STAR:
		return false, vm.execImportStar(frame, inst)
	case opcodes.OP_PRINT_EXPR:
		fmt.Fprintln(vm.Out, frame.Get(inst.Result).Repr())
		return false, nil
	case opcodes.OP_FORMAT_VALUE:
		frame.Set(inst.Result, values.NewStr(frame.Get(inst.Op1).Str()))
		return false, nil
	case opcodes.OP_BUILD_STRING:
		return false, vm.execBuildString(frame, inst)

	default:
		return false, NewOpcodeError(inst.Opcode)
	}
}
