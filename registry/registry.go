// Package registry holds the compile-time descriptors the compiler emits
// and the VM consumes: CodeObject (spec.md §3.2), Function/Parameter, and
// the ClassDescriptor BUILD_CLASS hands to the object package to construct
// a live Class with its MRO. It also defines the host-callable contract
// (spec.md §6) builtins and embedders implement against.
package registry

import (
	"github.com/lumen-lang/lumen/opcodes"
	"github.com/lumen-lang/lumen/values"
)

// CodeFlags records compile-time facts the VM needs before it can safely
// run a CodeObject (spec.md §3.2 flags field).
type CodeFlags uint16

const (
	FlagGenerator CodeFlags = 1 << iota
	FlagAsync
	FlagVarArgs
	FlagVarKwargs
	FlagHasAnnotations
	FlagNested // compiled from a function/lambda defined inside another function
)

// CodeObject is a compiled code unit: a function body, a class body, a
// lambda, a comprehension's hidden function, or a module's top level
// (spec.md §3.2). It is immutable once compiled and may be referenced by
// many Closures that differ only in their captured Cells.
type CodeObject struct {
	Name          string
	QualName      string // dotted path for tracebacks, e.g. "Outer.method"
	Filename      string
	Instructions  []*opcodes.Instruction
	Constants     []*values.Value
	Names         []string // global/attribute name pool, indexed by LOAD_NAME etc.
	RegisterCount int
	Params        []*Parameter
	FreeVars      []string // names captured from an enclosing scope
	CellVars      []string // local names captured by a nested scope
	FreeVarIndices []uint32 // parallel to FreeVars: combined FreeCells++Cells index in the *enclosing* frame each entry captures
	SourceSpans   []SourceSpan // parallel to Instructions; empty entries inherit the prior span
	Flags         CodeFlags
	FirstLine     uint32
}

// CodeName implements values.Code so a CodeObject can sit behind
// values.Closure.Proto without values importing this package.
func (c *CodeObject) CodeName() string { return c.Name }

func (c *CodeObject) IsGenerator() bool { return c.Flags&FlagGenerator != 0 }
func (c *CodeObject) IsAsync() bool     { return c.Flags&FlagAsync != 0 }

// SourceSpan is one row of a CodeObject's source_span_table (spec.md §3.2):
// the half-open instruction range [InstrStart,InstrEnd) came from source
// positions Line/Col.
type SourceSpan struct {
	InstrStart int
	InstrEnd   int
	Line       uint32
	Col        uint32
}

// ParamKind mirrors ast.ParamKind; kept as an independent enum so registry
// has no compile-time dependency on the ast package's parse-tree types.
type ParamKind uint8

const (
	ParamPositional ParamKind = iota
	ParamPositionalOnly
	ParamKeywordOnly
	ParamVarArgs
	ParamVarKwargs
)

// Parameter is one entry of a CodeObject's parameter_layout (spec.md §3.2).
type Parameter struct {
	Name          string
	Kind          ParamKind
	HasDefault    bool
	DefaultIndex  int // index into the *enclosing* Function's Defaults slice
	HasAnnotation bool
}

// BuiltinCallContext is the service surface a NativeBuiltin receives
// instead of a raw VM pointer, grounded on the teacher's
// `registry.BuiltinCallContext` / runtime/exception.go pattern of handing
// builtins a narrow capability interface rather than the whole VM. It is a
// type alias for values.NativeCallCtx (identical method set) so the one VM
// implementation of the interface satisfies both this package's
// NativeBuiltin.Fn and values.NativeFunc.Fn without a double definition.
type BuiltinCallContext = values.NativeCallCtx

// NativeBuiltin is a host function exposed to Lumen code as a callable
// Value (spec.md §6 "host-callable contract").
type NativeBuiltin struct {
	Name    string
	MinArgs int
	MaxArgs int // -1 for variadic
	Fn      func(ctx BuiltinCallContext, args []*values.Value) (*values.Value, error)
}

// Function is either a compiled user CodeObject or a NativeBuiltin,
// mirroring the teacher's registry.Function{IsBuiltin,Builtin} duality
// (runtime/exception.go) so the VM's call protocol has one shape to dispatch
// on regardless of origin.
type Function struct {
	Name        string
	Code        *CodeObject    // nil when IsBuiltin
	Builtin     *NativeBuiltin // nil when !IsBuiltin
	IsBuiltin   bool
	Defaults    []*values.Value
	KwDefaults  map[string]*values.Value
}

func NewUserFunction(code *CodeObject, defaults []*values.Value, kwDefaults map[string]*values.Value) *Function {
	return &Function{Name: code.Name, Code: code, Defaults: defaults, KwDefaults: kwDefaults}
}

func NewBuiltinFunction(nb *NativeBuiltin) *Function {
	return &Function{Name: nb.Name, Builtin: nb, IsBuiltin: true}
}

// MethodDescriptor pairs a Function with the modifiers a class body can
// attach to it (spec.md SUPPLEMENTED FEATURES: staticmethod/classmethod/
// property decorators).
type MethodDescriptor struct {
	Function      *Function
	IsStatic      bool
	IsClassMethod bool
	IsProperty    bool

	// ClassCell holds the shared __class__ cell for methods whose Code.FreeVars
	// mentions "__class__" (i.e. the body calls zero-arg super()). Filled in by
	// BUILD_CLASS once the owning Class exists; every bound Closure for this
	// method reuses the same Cell so super() sees the right class regardless
	// of which instance the method is bound to.
	ClassCell *values.Cell
}

// ClassDescriptor is what BUILD_CLASS receives: the class body's namespace
// dict already executed and flattened (per the class-body-namespace Open
// Question resolution in DESIGN.md), plus the evaluated base-class Values.
// The object package consumes this to compute the MRO and construct a live
// Class.
type ClassDescriptor struct {
	Name       string
	Bases      []*values.Value // evaluated base-class expressions, each KindClass
	Methods    map[string]*MethodDescriptor
	ClassVars  map[string]*values.Value
	Doc        string
}
