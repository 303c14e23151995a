package vm

import (
	"github.com/lumen-lang/lumen/object"
	"github.com/lumen-lang/lumen/registry"
	"github.com/lumen-lang/lumen/values"
)

// FrameState is the activation record's state machine (spec.md §3.3).
type FrameState byte

const (
	StateRunning FrameState = iota
	StateUnwinding
	StateReturning
	StateSuspended
)

func (s FrameState) String() string {
	switch s {
	case StateRunning:
		return "RUNNING"
	case StateUnwinding:
		return "UNWINDING"
	case StateReturning:
		return "RETURNING"
	case StateSuspended:
		return "SUSPENDED"
	default:
		return "UNKNOWN"
	}
}

// BlockKind tags an entry on a Frame's block-stack (spec.md §3.3, §4.1
// exception unwinding).
type BlockKind byte

const (
	BlockLoop BlockKind = iota
	BlockTry
	BlockFinally
	BlockExceptHandler
	BlockWith
)

// Block is one scope marker: a loop, a try/except/finally region, or an
// active `with` block. HandlerIP is where control transfers to on the
// triggering event (loop break target, except dispatch target, finally
// entry). RegisterBase is set only by SETUP_WITH, to the register holding
// the context manager; no teardown path reads it.
type Block struct {
	Kind       BlockKind
	HandlerIP  int
	RegisterBase int
}

// CallFrame is one activation record (spec.md §3.3): a register file, a
// block-stack of active scope markers, per-call-site inline caches, and the
// state machine tracking whether it is live, unwinding, returning a value,
// or suspended at a generator yield point. Grounded on the teacher's
// CallFrame role in vm/call_stack.go, replaced wholesale since the
// teacher's version carries PHP-specific Locals/GlobalSlots fields this
// register VM doesn't use.
type CallFrame struct {
	Code      *registry.CodeObject
	Closure   *values.Closure // nil for the module-level frame
	Self      *values.Value   // bound receiver, mirrors Closure.BoundSelf when set

	Registers []*values.Value
	Bound     []bool         // false after DELETE_FAST; LOAD_FAST on an unbound slot raises UnboundLocalError
	Cells     []*values.Cell // this frame's own cellvars, captured by nested closures
	FreeCells []*values.Cell // cells captured *from* an enclosing scope, indexed like Code.FreeVars

	Blocks []Block

	IP    int
	State FrameState

	// Exception currently propagating through this frame, set when State ==
	// StateUnwinding and cleared once a handler catches it or it is
	// re-raised to the caller.
	Pending *object.Exception

	// ReturnValue holds the value RETURN_VALUE/generator-stop produced,
	// read by the caller after State transitions to StateReturning.
	ReturnValue *values.Value

	// Caches holds the inline cache of each binary-operator instruction this
	// frame has executed, created on first use by cacheFor and keyed by
	// instruction index (spec.md §4.5).
	Caches map[int]*InlineCache

	Module *object.Module // globals this frame resolves LOAD_GLOBAL/STORE_GLOBAL against

	// Generator state: non-nil once this frame has suspended at least once.
	Gen *GeneratorState
}

func NewCallFrame(code *registry.CodeObject, closure *values.Closure, module *object.Module) *CallFrame {
	f := &CallFrame{
		Code:      code,
		Closure:   closure,
		Registers: make([]*values.Value, code.RegisterCount),
		Bound:     make([]bool, code.RegisterCount),
		Module:    module,
		Caches:    make(map[int]*InlineCache),
	}
	for i := range f.Registers {
		f.Registers[i] = values.None()
		f.Bound[i] = true
	}
	if closure != nil {
		f.Self = closure.BoundSelf
		f.FreeCells = closure.Cells
	}
	if len(code.CellVars) > 0 {
		f.Cells = make([]*values.Cell, len(code.CellVars))
		for i := range f.Cells {
			f.Cells[i] = values.NewCell(values.None())
		}
	}
	return f
}

func (f *CallFrame) Get(i uint32) *values.Value { return f.Registers[i] }

func (f *CallFrame) Set(i uint32, v *values.Value) {
	f.Registers[i] = v
	f.Bound[i] = true
}

// derefCell resolves a combined DEREF index: free variables (captured from
// an enclosing scope) occupy the low indices, this frame's own cellvars
// follow, matching the compiler's allocation order for FreeVars++CellVars.
func (f *CallFrame) derefCell(idx uint32) *values.Cell {
	if int(idx) < len(f.FreeCells) {
		return f.FreeCells[idx]
	}
	return f.Cells[int(idx)-len(f.FreeCells)]
}

func (f *CallFrame) PushBlock(b Block) { f.Blocks = append(f.Blocks, b) }

func (f *CallFrame) PopBlock() (Block, bool) {
	if len(f.Blocks) == 0 {
		return Block{}, false
	}
	idx := len(f.Blocks) - 1
	b := f.Blocks[idx]
	f.Blocks = f.Blocks[:idx]
	return b, true
}

func (f *CallFrame) TopBlock() (Block, bool) {
	if len(f.Blocks) == 0 {
		return Block{}, false
	}
	return f.Blocks[len(f.Blocks)-1], true
}

// GeneratorState is the suspended-coroutine record a Frame carries once it
// has yielded at least once (spec.md §4.6 generator/coroutine protocol).
// Generalizes the teacher's Generator/generatorIndex/ExecuteUntilYield/
// ResumeFromYield mechanism (vm/vm.go) from a PHP-only feature into the
// general suspend point backing both YIELD_VALUE and AWAIT.
type GeneratorState struct {
	Suspended   bool
	SentValue   *values.Value // never set: generators have no send(), YIELD_VALUE resumes with None
	Finished    bool
	StopValue   *values.Value // the value most recently yielded, handed back by runFrame on suspension
}
