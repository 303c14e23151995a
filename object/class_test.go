package object

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen-lang/lumen/registry"
	"github.com/lumen-lang/lumen/values"
)

func mustClass(t *testing.T, name string, bases ...*Class) *Class {
	t.Helper()
	c, err := NewClass(name, bases, map[string]*registry.MethodDescriptor{}, nil)
	require.NoError(t, err)
	return c
}

// TestClassicDiamondMRO reproduces the canonical CPython diamond:
//
//	O -> A, B -> C  with class C(A, B)
//
// C3 must order C, A, B, O — never duplicating O ahead of A/B (spec.md §8
// "MRO + super() diamond" testable property).
func TestClassicDiamondMRO(t *testing.T) {
	o := mustClass(t, "object")
	a := mustClass(t, "A", o)
	b := mustClass(t, "B", o)
	c := mustClass(t, "C", a, b)

	names := make([]string, len(c.MRO))
	for i, k := range c.MRO {
		names[i] = k.Name
	}
	assert.Equal(t, []string{"C", "A", "B", "object"}, names)
}

func TestInconsistentMROFails(t *testing.T) {
	// X(A, B), Y(B, A): merging siblings with conflicting base orders.
	o := mustClass(t, "object")
	a := mustClass(t, "A", o)
	b := mustClass(t, "B", o)
	x := mustClass(t, "X", a, b)
	y := mustClass(t, "Y", b, a)

	_, err := NewClass("Z", []*Class{x, y}, nil, nil)
	require.Error(t, err)
}

func TestLookupMethodWalksMRO(t *testing.T) {
	greet := &registry.MethodDescriptor{Function: &registry.Function{Name: "greet"}}
	base := mustClass(t, "Base")
	base.Methods["greet"] = greet

	derived := mustClass(t, "Derived", base)

	found, owner, ok := derived.LookupMethod("greet")
	require.True(t, ok)
	assert.Same(t, greet, found)
	assert.Equal(t, "Base", owner.Name)

	_, _, ok = derived.LookupMethod("missing")
	assert.False(t, ok)
}

func TestLookupClassVarPrefersStaticOverDefault(t *testing.T) {
	c := mustClass(t, "C")
	c.ClassVars["x"] = values.NewInt(1)
	v, ok := c.LookupClassVar("x")
	require.True(t, ok)
	assert.Equal(t, int64(1), v.Data)

	c.SetClassVar("x", values.NewInt(2))
	v, ok = c.LookupClassVar("x")
	require.True(t, ok)
	assert.Equal(t, int64(2), v.Data)
}

func TestIsSubclassOf(t *testing.T) {
	o := mustClass(t, "object")
	a := mustClass(t, "A", o)
	b := mustClass(t, "B", a)

	assert.True(t, b.IsSubclassOf(a))
	assert.True(t, b.IsSubclassOf(o))
	assert.False(t, a.IsSubclassOf(b))
}
