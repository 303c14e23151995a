package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type collectVisitor struct {
	kinds []Kind
}

func (c *collectVisitor) Visit(n Node) bool {
	c.kinds = append(c.kinds, n.GetKind())
	return true
}

func TestModule_AcceptVisitsStatementsInOrder(t *testing.T) {
	mod := &Module{
		BaseNode: BaseNode{Kind: KindModule},
		Body: []Statement{
			&Pass{BaseNode: BaseNode{Kind: KindPass}},
			&Return{BaseNode: BaseNode{Kind: KindReturn}},
		},
	}

	cv := &collectVisitor{}
	mod.Accept(cv)

	assert.Equal(t, []Kind{KindModule, KindPass, KindReturn}, cv.kinds)
}

func TestBinOp_AcceptVisitsOperandsAfterSelf(t *testing.T) {
	left := &Name{BaseNode: BaseNode{Kind: KindName}, Id: "a"}
	right := &Name{BaseNode: BaseNode{Kind: KindName}, Id: "b"}
	add := &BinOp{BaseNode: BaseNode{Kind: KindBinOp}, Left: left, Op: OpAdd, Right: right}

	cv := &collectVisitor{}
	add.Accept(cv)

	assert.Equal(t, []Kind{KindBinOp, KindName, KindName}, cv.kinds)
}

func TestVisitorCanPruneSubtree(t *testing.T) {
	inner := &Name{BaseNode: BaseNode{Kind: KindName}, Id: "x"}
	call := &Call{BaseNode: BaseNode{Kind: KindCall}, Func: inner}

	pruning := &pruneVisitor{}
	call.Accept(pruning)

	assert.Equal(t, []Kind{KindCall}, pruning.kinds)
}

type pruneVisitor struct {
	kinds []Kind
}

func (p *pruneVisitor) Visit(n Node) bool {
	p.kinds = append(p.kinds, n.GetKind())
	return false
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "FunctionDef", KindFunctionDef.String())
	assert.Equal(t, "Unknown", Kind(255).String())
}

func TestCompareChainsOperators(t *testing.T) {
	c := &Compare{
		BaseNode: BaseNode{Kind: KindCompare},
		Left:     &Name{Id: "a"},
		Ops:      []CmpOp{CmpLt, CmpLtE},
		Comparators: []Expression{
			&Name{Id: "b"},
			&Name{Id: "c"},
		},
	}
	assert.Len(t, c.Ops, 2)
	assert.Len(t, c.Comparators, 2)
}
