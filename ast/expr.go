package ast

func (*Name) expressionNode()         {}
func (*Constant) expressionNode()     {}
func (*BinOp) expressionNode()        {}
func (*UnaryOp) expressionNode()      {}
func (*BoolOp) expressionNode()       {}
func (*Compare) expressionNode()      {}
func (*Call) expressionNode()         {}
func (*Attribute) expressionNode()    {}
func (*Subscript) expressionNode()    {}
func (*ListExpr) expressionNode()     {}
func (*TupleExpr) expressionNode()    {}
func (*DictExpr) expressionNode()     {}
func (*SetExpr) expressionNode()      {}
func (*Lambda) expressionNode()       {}
func (*IfExp) expressionNode()        {}
func (*Starred) expressionNode()      {}
func (*FString) expressionNode()      {}
func (*Yield) expressionNode()        {}
func (*YieldFrom) expressionNode()    {}
func (*Await) expressionNode()        {}
func (*Slice) expressionNode()        {}
func (*ListComp) expressionNode()     {}
func (*SetComp) expressionNode()      {}
func (*DictComp) expressionNode()     {}
func (*GeneratorExp) expressionNode() {}

// NameCtx records whether a Name node is being loaded, stored to, or deleted
// — the compiler uses this to pick LOAD_*/STORE_*/DELETE_* instead of
// re-deriving it from surrounding statement shape.
type NameCtx uint8

const (
	CtxLoad NameCtx = iota
	CtxStore
	CtxDel
)

type Name struct {
	BaseNode
	Id  string
	Ctx NameCtx
}

func (n *Name) Accept(v Visitor) { v.Visit(n) }
func (n *Name) String() string   { return n.Id }

// Constant is a literal: exactly one of the fields is meaningful, selected
// by ConstKind (spec.md §3.1 Value Kinds reachable as compile-time literals).
type ConstKind uint8

const (
	ConstNone ConstKind = iota
	ConstBool
	ConstInt
	ConstFloat
	ConstStr
	ConstBytes
	ConstEllipsis
)

type Constant struct {
	BaseNode
	ConstKind ConstKind
	Bool      bool
	Int       int64
	Float     float64
	Str       string
	Bytes     []byte
}

func (c *Constant) Accept(v Visitor) { v.Visit(c) }
func (c *Constant) String() string   { return "Constant" }

type BinOp struct {
	BaseNode
	Left  Expression
	Op    BinOpKind
	Right Expression
}

func (b *BinOp) Accept(v Visitor) {
	if v.Visit(b) {
		b.Left.Accept(v)
		b.Right.Accept(v)
	}
}
func (b *BinOp) String() string { return "BinOp" }

type UnaryOp struct {
	BaseNode
	Op      UnaryOpKind
	Operand Expression
}

func (u *UnaryOp) Accept(v Visitor) {
	if v.Visit(u) {
		u.Operand.Accept(v)
	}
}
func (u *UnaryOp) String() string { return "UnaryOp" }

// BoolOp is short-circuiting `and`/`or` over two or more operands.
type BoolOp struct {
	BaseNode
	Op     BoolOpKind
	Values []Expression
}

func (b *BoolOp) Accept(v Visitor) {
	if v.Visit(b) {
		for _, e := range b.Values {
			e.Accept(v)
		}
	}
}
func (b *BoolOp) String() string { return "BoolOp" }

// Compare is a chained comparison `a < b <= c` (spec.md §8 testable
// property): Ops[i] relates Left (or Comparators[i-1]) to Comparators[i],
// short-circuiting on the first false link.
type Compare struct {
	BaseNode
	Left        Expression
	Ops         []CmpOp
	Comparators []Expression
}

func (c *Compare) Accept(v Visitor) {
	if v.Visit(c) {
		c.Left.Accept(v)
		for _, e := range c.Comparators {
			e.Accept(v)
		}
	}
}
func (c *Compare) String() string { return "Compare" }

type Call struct {
	BaseNode
	Func     Expression
	Args     []*Arg
	Keywords []*Keyword
}

func (c *Call) Accept(v Visitor) {
	if v.Visit(c) {
		c.Func.Accept(v)
		for _, a := range c.Args {
			a.Accept(v)
		}
		for _, k := range c.Keywords {
			k.Accept(v)
		}
	}
}
func (c *Call) String() string { return "Call" }

type Attribute struct {
	BaseNode
	Value Expression
	Attr  string
	Ctx   NameCtx
}

func (a *Attribute) Accept(v Visitor) {
	if v.Visit(a) {
		a.Value.Accept(v)
	}
}
func (a *Attribute) String() string { return "Attribute(." + a.Attr + ")" }

type Subscript struct {
	BaseNode
	Value Expression
	Index Expression
	Ctx   NameCtx
}

func (s *Subscript) Accept(v Visitor) {
	if v.Visit(s) {
		s.Value.Accept(v)
		s.Index.Accept(v)
	}
}
func (s *Subscript) String() string { return "Subscript" }

// Slice is a `start:stop:step` subscript index; any component may be nil.
type Slice struct {
	BaseNode
	Lower Expression
	Upper Expression
	Step  Expression
}

func (s *Slice) Accept(v Visitor) {
	if v.Visit(s) {
		if s.Lower != nil {
			s.Lower.Accept(v)
		}
		if s.Upper != nil {
			s.Upper.Accept(v)
		}
		if s.Step != nil {
			s.Step.Accept(v)
		}
	}
}
func (s *Slice) String() string { return "Slice" }

type ListExpr struct {
	BaseNode
	Elts []Expression
	Ctx  NameCtx
}

func (l *ListExpr) Accept(v Visitor) {
	if v.Visit(l) {
		for _, e := range l.Elts {
			e.Accept(v)
		}
	}
}
func (l *ListExpr) String() string { return "List" }

type TupleExpr struct {
	BaseNode
	Elts []Expression
	Ctx  NameCtx
}

func (t *TupleExpr) Accept(v Visitor) {
	if v.Visit(t) {
		for _, e := range t.Elts {
			e.Accept(v)
		}
	}
}
func (t *TupleExpr) String() string { return "Tuple" }

// DictExpr pairs Keys[i]/Values[i]; a nil Keys[i] marks a `**expr` spread.
type DictExpr struct {
	BaseNode
	Keys   []Expression
	Values []Expression
}

func (d *DictExpr) Accept(v Visitor) {
	if v.Visit(d) {
		for i := range d.Values {
			if d.Keys[i] != nil {
				d.Keys[i].Accept(v)
			}
			d.Values[i].Accept(v)
		}
	}
}
func (d *DictExpr) String() string { return "Dict" }

type SetExpr struct {
	BaseNode
	Elts []Expression
}

func (s *SetExpr) Accept(v Visitor) {
	if v.Visit(s) {
		for _, e := range s.Elts {
			e.Accept(v)
		}
	}
}
func (s *SetExpr) String() string { return "Set" }

// Lambda is a single-expression anonymous function (spec.md §4.6: compiles
// to the same MAKE_FUNCTION/CodeObject path as FunctionDef).
type Lambda struct {
	BaseNode
	Params []*Param
	Body   Expression
}

func (l *Lambda) Accept(v Visitor) {
	if v.Visit(l) {
		for _, p := range l.Params {
			p.Accept(v)
		}
		l.Body.Accept(v)
	}
}
func (l *Lambda) String() string { return "Lambda" }

type IfExp struct {
	BaseNode
	Test   Expression
	Body   Expression
	OrElse Expression
}

func (i *IfExp) Accept(v Visitor) {
	if v.Visit(i) {
		i.Test.Accept(v)
		i.Body.Accept(v)
		i.OrElse.Accept(v)
	}
}
func (i *IfExp) String() string { return "IfExp" }

// Starred is `*expr` used inside a target list or call argument (spec.md §8
// extended unpacking: `a, *rest, b = seq`).
type Starred struct {
	BaseNode
	Value Expression
	Ctx   NameCtx
}

func (s *Starred) Accept(v Visitor) {
	if v.Visit(s) {
		s.Value.Accept(v)
	}
}
func (s *Starred) String() string { return "Starred" }

// FString is an interpolated string literal; each element is either a
// literal Constant(Str) chunk or a formatted Expression.
type FString struct {
	BaseNode
	Parts []Expression
}

func (f *FString) Accept(v Visitor) {
	if v.Visit(f) {
		for _, p := range f.Parts {
			p.Accept(v)
		}
	}
}
func (f *FString) String() string { return "FString" }

type Yield struct {
	BaseNode
	Value Expression // may be nil (bare `yield`)
}

func (y *Yield) Accept(v Visitor) {
	if v.Visit(y) && y.Value != nil {
		y.Value.Accept(v)
	}
}
func (y *Yield) String() string { return "Yield" }

type YieldFrom struct {
	BaseNode
	Value Expression
}

func (y *YieldFrom) Accept(v Visitor) {
	if v.Visit(y) {
		y.Value.Accept(v)
	}
}
func (y *YieldFrom) String() string { return "YieldFrom" }

type Await struct {
	BaseNode
	Value Expression
}

func (a *Await) Accept(v Visitor) {
	if v.Visit(a) {
		a.Value.Accept(v)
	}
}
func (a *Await) String() string { return "Await" }

// Comprehension is one `for target in iter [if cond]*` clause shared by
// list/set/dict/generator comprehensions.
type Comprehension struct {
	BaseNode
	Target  Expression
	Iter    Expression
	Ifs     []Expression
	IsAsync bool
}

func (c *Comprehension) Accept(v Visitor) {
	if v.Visit(c) {
		c.Target.Accept(v)
		c.Iter.Accept(v)
		for _, e := range c.Ifs {
			e.Accept(v)
		}
	}
}
func (c *Comprehension) String() string { return "Comprehension" }

type ListComp struct {
	BaseNode
	Elt    Expression
	Gens   []*Comprehension
}

func (l *ListComp) Accept(v Visitor) {
	if v.Visit(l) {
		for _, g := range l.Gens {
			g.Accept(v)
		}
		l.Elt.Accept(v)
	}
}
func (l *ListComp) String() string { return "ListComp" }

type SetComp struct {
	BaseNode
	Elt  Expression
	Gens []*Comprehension
}

func (s *SetComp) Accept(v Visitor) {
	if v.Visit(s) {
		for _, g := range s.Gens {
			g.Accept(v)
		}
		s.Elt.Accept(v)
	}
}
func (s *SetComp) String() string { return "SetComp" }

type DictComp struct {
	BaseNode
	Key   Expression
	Value Expression
	Gens  []*Comprehension
}

func (d *DictComp) Accept(v Visitor) {
	if v.Visit(d) {
		for _, g := range d.Gens {
			g.Accept(v)
		}
		d.Key.Accept(v)
		d.Value.Accept(v)
	}
}
func (d *DictComp) String() string { return "DictComp" }

// GeneratorExp is a bare `(x for x in y)`: compiles to an anonymous
// generator function invoked immediately, same as ListComp's desugaring but
// producing a lazy Iterator instead of a materialized List.
type GeneratorExp struct {
	BaseNode
	Elt  Expression
	Gens []*Comprehension
}

func (g *GeneratorExp) Accept(v Visitor) {
	if v.Visit(g) {
		for _, c := range g.Gens {
			c.Accept(v)
		}
		g.Elt.Accept(v)
	}
}
func (g *GeneratorExp) String() string { return "GeneratorExp" }
