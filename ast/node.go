package ast

import "fmt"

// Node is the common interface every AST node implements, grounded on the
// teacher's Node/BaseNode/Visitor shape (ast/node.go) with the JSON/attribute
// machinery trimmed to what the compiler actually consumes.
type Node interface {
	GetKind() Kind
	GetSpan() Span
	Accept(v Visitor)
	String() string
}

// Statement and Expression narrow Node the way the teacher's ast package
// does, so the compiler's statement/expression dispatchers can type-switch
// on a closed interface rather than Node directly.
type Statement interface {
	Node
	statementNode()
}

type Expression interface {
	Node
	expressionNode()
}

// BaseNode carries the fields every concrete node embeds.
type BaseNode struct {
	Kind Kind
	Span Span
}

func (b *BaseNode) GetKind() Kind { return b.Kind }
func (b *BaseNode) GetSpan() Span { return b.Span }

// Visitor is a pre-order tree walker. Visit returns whether to descend into
// the node's children; nodes with no children may ignore the return value.
type Visitor interface {
	Visit(n Node) bool
}

// Module is the root of a compilation unit (spec.md §6 "a Module node").
type Module struct {
	BaseNode
	Body []Statement
}

func (m *Module) Accept(v Visitor) {
	if v.Visit(m) {
		for _, s := range m.Body {
			s.Accept(v)
		}
	}
}
func (m *Module) String() string { return fmt.Sprintf("Module(%d stmts)", len(m.Body)) }

// Arg is a call-site positional argument, possibly starred (spec.md §8
// extended unpacking at call sites: `f(*args)`).
type Arg struct {
	BaseNode
	Value   Expression
	Starred bool
}

func (a *Arg) Accept(v Visitor) {
	if v.Visit(a) {
		a.Value.Accept(v)
	}
}
func (a *Arg) String() string { return "Arg" }

// Keyword is a call-site `name=value` argument, or `**value` when Name=="".
type Keyword struct {
	BaseNode
	Name  string
	Value Expression
}

func (k *Keyword) Accept(v Visitor) {
	if v.Visit(k) {
		k.Value.Accept(v)
	}
}
func (k *Keyword) String() string { return "Keyword(" + k.Name + ")" }

// Param is a function-signature parameter (spec.md §3.2 parameter_layout).
type Param struct {
	BaseNode
	Name       string
	Annotation Expression // may be nil
	Default    Expression // may be nil
	Kind       ParamKind
}

type ParamKind uint8

const (
	ParamPositional ParamKind = iota
	ParamPositionalOnly
	ParamKeywordOnly
	ParamVarArgs  // *args
	ParamVarKwargs // **kwargs
)

func (p *Param) Accept(v Visitor) {
	if v.Visit(p) {
		if p.Annotation != nil {
			p.Annotation.Accept(v)
		}
		if p.Default != nil {
			p.Default.Accept(v)
		}
	}
}
func (p *Param) String() string { return "Param(" + p.Name + ")" }

// Alias names an imported symbol and its optional local binding
// (`import x as y` / `from m import x as y`).
type Alias struct {
	BaseNode
	Name   string
	AsName string // "" when no `as` clause
}

func (a *Alias) Accept(v Visitor) { v.Visit(a) }
func (a *Alias) String() string   { return "Alias(" + a.Name + ")" }

// Decorator is a single `@expr` applied above a def (spec.md SUPPLEMENTED
// FEATURES: decorators desugar at compile time into a wrapping CALL_FUNCTION).
type Decorator struct {
	BaseNode
	Expr Expression
}

func (d *Decorator) Accept(v Visitor) {
	if v.Visit(d) {
		d.Expr.Accept(v)
	}
}
func (d *Decorator) String() string { return "Decorator" }
