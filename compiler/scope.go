package compiler

import (
	"github.com/lumen-lang/lumen/ast"
	"github.com/lumen-lang/lumen/opcodes"
	"github.com/lumen-lang/lumen/registry"
	"github.com/lumen-lang/lumen/values"
)

// scopeKind tells a scope's register/name-binding discipline apart: module
// statements bind through STORE_NAME against the frame's module, function
// and lambda bodies bind through ordinary register-resident locals, and a
// class body binds through registers too but flushes them into a namespace
// Dict at the end instead of returning them directly (SPEC_FULL.md's
// class-body-namespace resolution).
type scopeKind int

const (
	scopeModule scopeKind = iota
	scopeFunction
	scopeClass
)

// scope is both the analysis-time record of a lexical scope (locals,
// cellvars, freevars, global/nonlocal declarations — built by resolve.go's
// pre-scan) and the codegen-time instruction builder for it. Analysis always
// finishes for the whole tree before codegen starts, so by the time codegen
// visits a scope every field resolve.go touches is already final.
type scope struct {
	kind   scopeKind
	parent *scope // lexical parent; class scopes appear here but are skipped by funcAncestor
	node   ast.Node

	// --- analysis-time (resolve.go) ---
	locals        map[string]bool // names this scope binds to a register (or, for module, would-be STORE_NAME target)
	globalDecl    map[string]bool
	nonlocalDecl  map[string]bool
	cellVars      []string // subset of locals captured by a descendant function scope, in assignment order
	cellVarIndex  map[string]int
	freeVars      []string // names resolved from an ancestor's locals/cells, in first-use order
	freeVarIndex  map[string]int
	usesSuper     bool // method body contains a bare `super()` call

	// --- codegen-time (func.go, stmt.go, expr.go) ---
	regs          map[string]uint32 // local name -> register, function/class scopes only
	localOrder    []string          // names in bindLocal's first-seen order, for deterministic class namespaces
	staticMethodNames []string      // method names decorated @staticmethod, class scopes only
	classMethodNames  []string      // method names decorated @classmethod, class scopes only
	nextReg       uint32
	constants     []*values.Value
	names         []string
	nameIndex     map[string]int
	instructions  []*opcodes.Instruction
	loops         []loopCtx
	blockDepth    int // try/with nesting depth; no compile path updates it
	firstLine     uint32
	filename      string
	qualName      string
	isGenerator   bool
	flags         registry.CodeFlags

	// --- finalization bookkeeping ---
	builtCode       *registry.CodeObject // set once finalize() has run
	pendingChildren []*scope             // nested scopes awaiting this scope's final cellVar/freeVar indices
}

// loopCtx tracks the re-test jump target of the innermost active loop, so
// `continue` can emit CONTINUE_LOOP with the right Op1 (spec.md §4.2 control
// flow lowering for while/for).
type loopCtx struct {
	headIP int
}

func newScope(kind scopeKind, parent *scope, node ast.Node, filename string) *scope {
	return &scope{
		kind:         kind,
		parent:       parent,
		node:         node,
		locals:       make(map[string]bool),
		globalDecl:   make(map[string]bool),
		nonlocalDecl: make(map[string]bool),
		cellVarIndex: make(map[string]int),
		freeVarIndex: make(map[string]int),
		regs:         make(map[string]uint32),
		nameIndex:    make(map[string]int),
		filename:     filename,
	}
}

// funcAncestor returns the nearest ancestor scope that participates in
// closure resolution — module and function scopes, never class bodies,
// matching Python's rule that a class body is not an enclosing scope for
// methods defined inside it.
func (s *scope) funcAncestor() *scope {
	for p := s.parent; p != nil; p = p.parent {
		if p.kind != scopeClass {
			return p
		}
	}
	return nil
}

// allocReg hands out the next free register; function/class scopes bump-
// allocate and never reuse a slot (a deliberate simplification vs. spec.md
// §4.2's "linear-scan register allocation, reusing slots").
func (s *scope) allocReg() uint32 {
	r := s.nextReg
	s.nextReg++
	return r
}

// bindLocal assigns name a fresh register the first time it's seen and
// returns the same one thereafter.
func (s *scope) bindLocal(name string) uint32 {
	if r, ok := s.regs[name]; ok {
		return r
	}
	r := s.allocReg()
	s.regs[name] = r
	s.localOrder = append(s.localOrder, name)
	return r
}

func (s *scope) constIndex(v *values.Value) uint32 {
	for i, c := range s.constants {
		if constEqual(c, v) {
			return uint32(i)
		}
	}
	s.constants = append(s.constants, v)
	return uint32(len(s.constants) - 1)
}

// constEqual compares constant-pool candidates for dedup purposes only; it
// is intentionally narrower than values.Equal (no cross-Kind coercion, no
// user __eq__ dispatch — a constant pool key is a literal, not a runtime
// value).
func constEqual(a, b *values.Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case values.KindNone:
		return true
	case values.KindBool, values.KindInt:
		return a.Data == b.Data
	case values.KindFloat, values.KindStr:
		return a.Data == b.Data
	default:
		return false
	}
}

func (s *scope) nameIdx(name string) uint32 {
	if i, ok := s.nameIndex[name]; ok {
		return uint32(i)
	}
	s.names = append(s.names, name)
	idx := len(s.names) - 1
	s.nameIndex[name] = idx
	return uint32(idx)
}

func (s *scope) emit(inst *opcodes.Instruction) int {
	s.instructions = append(s.instructions, inst)
	return len(s.instructions) - 1
}

// emit3 appends a fully-formed instruction, tagging each operand's nibble
// with its kind for disassembly use (opcodes.EncodeOpTypes); the VM
// dispatch loop itself trusts each opcode's fixed operand convention and
// does not consult these nibbles, but opcodes.Instruction.String does.
func (s *scope) emit3(op opcodes.Opcode, op1Type opcodes.OpType, op1 uint32, op2Type opcodes.OpType, op2 uint32, resultType opcodes.OpType, result uint32) int {
	t1, t2 := opcodes.EncodeOpTypes(op1Type, op2Type, resultType)
	return s.emit(&opcodes.Instruction{Opcode: op, OpType1: t1, OpType2: t2, Op1: op1, Op2: op2, Result: result})
}

func (s *scope) here() int { return len(s.instructions) }

func (s *scope) patchJumpTo(idx int, target uint32) {
	s.instructions[idx].Op1 = target
}

func (s *scope) patchJumpOp2(idx int, target uint32) {
	s.instructions[idx].Op2 = target
}

// stageWindow copies regs (already-evaluated, possibly scattered across
// whatever temporaries their own sub-expressions needed) into a freshly
// bump-allocated, guaranteed-contiguous block and returns the block's first
// register. Several opcodes (CALL_FUNCTION, BUILD_LIST/TUPLE/SET/DICT,
// BUILD_STRING, ...) read a fixed-width window of consecutive registers;
// without a real register allocator tracking live ranges, re-staging into a
// fresh block right before emitting the opcode is the simplest way to
// satisfy that contract. A few extra LOAD_FAST moves is the cost.
func (s *scope) stageWindow(regs []uint32) uint32 {
	base := s.nextReg
	for _, r := range regs {
		dst := s.allocReg()
		if dst != r {
			s.emit3(opcodes.OP_LOAD_FAST, opcodes.IS_REG, r, opcodes.IS_UNUSED, 0, opcodes.IS_REG, dst)
		}
	}
	return base
}

func inst(op opcodes.Opcode) *opcodes.Instruction { return &opcodes.Instruction{Opcode: op} }

func withOp1(i *opcodes.Instruction, v uint32) *opcodes.Instruction { i.Op1 = v; return i }
func withOp2(i *opcodes.Instruction, v uint32) *opcodes.Instruction { i.Op2 = v; return i }
func withResult(i *opcodes.Instruction, v uint32) *opcodes.Instruction { i.Result = v; return i }

// build finalizes this scope into an immutable registry.CodeObject once its
// body has been fully compiled and its analysis-time cellVars/freeVars sets
// are closed.
func (s *scope) build(name string, params []*registry.Parameter) *registry.CodeObject {
	co := &registry.CodeObject{
		Name:          name,
		QualName:      s.qualName,
		Filename:      s.filename,
		Instructions:  s.instructions,
		Constants:     s.constants,
		Names:         s.names,
		RegisterCount: int(s.nextReg),
		Params:        params,
		FreeVars:      append([]string(nil), s.freeVars...),
		CellVars:      append([]string(nil), s.cellVars...),
		Flags:         s.flags,
		FirstLine:     s.firstLine,
	}
	if co.RegisterCount == 0 {
		co.RegisterCount = 1 // a frame with zero registers can't hold even a throwaway result
	}
	return co
}

// finalize closes this scope: it resolves FreeVarIndices for every nested
// scope that registered itself as pending (their FreeVars name list was
// fixed at their own finalize time, but the *indices* depend on this scope's
// final CellVars/FreeVars layout, which isn't known until now), builds this
// scope's own CodeObject, and — unless this is the module scope — registers
// itself in its lexical parent's pendingChildren so the same resolution
// happens one level up once the parent closes.
//
// This two-step close (append-only indices during compilation, index
// resolution deferred to finalize) is what lets a free variable be threaded
// through an intermediate scope (e.g. a class body) whose own CellVars/
// FreeVars keep growing after that relay was first set up.
func (s *scope) finalize(name string, params []*registry.Parameter) *registry.CodeObject {
	for _, child := range s.pendingChildren {
		child.builtCode.FreeVarIndices = make([]uint32, len(child.freeVars))
		for i, fv := range child.freeVars {
			if q, ok := s.cellVarIndex[fv]; ok {
				child.builtCode.FreeVarIndices[i] = uint32(len(s.freeVars) + q)
			} else if p, ok := s.freeVarIndex[fv]; ok {
				child.builtCode.FreeVarIndices[i] = uint32(p)
			} else {
				panic("compiler: unresolved free variable " + fv)
			}
		}
	}
	co := s.build(name, params)
	s.builtCode = co
	if s.parent != nil {
		s.parent.pendingChildren = append(s.parent.pendingChildren, s)
	}
	return co
}
