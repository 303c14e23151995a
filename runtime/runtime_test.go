package runtime

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen-lang/lumen/object"
	"github.com/lumen-lang/lumen/values"
)

// fakeCtx is a minimal values.NativeCallCtx good enough to drive the builtin
// catalogue's Fn closures directly, the way vm/vm_calls.go's nativeCallCtx
// drives them for real inside a running frame.
type fakeCtx struct {
	self    *values.Value
	globals map[string]*values.Value
	out     bytes.Buffer
}

func (c *fakeCtx) Raise(class, message string) error {
	cls, err := object.NewClass(class, nil, nil, nil)
	if err != nil {
		return err
	}
	return &object.Exception{Class: cls, Message: message}
}

func (c *fakeCtx) Self() *values.Value { return c.self }

func (c *fakeCtx) CallValue(callee *values.Value, args []*values.Value) (*values.Value, error) {
	if callee.Kind != values.KindNativeCallable {
		return nil, fmt.Errorf("fakeCtx.CallValue only supports native callables")
	}
	return callee.NativeData().Fn(c, args)
}

func (c *fakeCtx) Lookup(name string) (*values.Value, bool) {
	v, ok := c.globals[name]
	return v, ok
}

func (c *fakeCtx) Write(s string) (int, error) { return c.out.WriteString(s) }

func builtin(t *testing.T, b map[string]*values.Value, name string) *values.NativeFunc {
	t.Helper()
	v, ok := b[name]
	require.Truef(t, ok, "Builtins() missing %q", name)
	return v.NativeData()
}

func call(t *testing.T, b map[string]*values.Value, name string, args ...*values.Value) *values.Value {
	t.Helper()
	fn := builtin(t, b, name)
	ctx := &fakeCtx{}
	result, err := fn.Fn(ctx, args)
	require.NoErrorf(t, err, "%s(...) error", name)
	return result
}

func TestBuiltinsAssemblesCoreNames(t *testing.T) {
	b := Builtins()
	for _, name := range []string{
		"len", "abs", "min", "max", "sum", "iter", "next", "enumerate", "zip",
		"map", "filter", "sorted", "reversed", "bool", "int", "float", "str",
		"list", "tuple", "dict", "set", "eval", "exec", "compile", "print",
		"isinstance", "issubclass", "type", "id", "hash", "repr", "super",
		"int", "float", "object",
	} {
		_, ok := b[name]
		assert.Truef(t, ok, "Builtins() missing %q", name)
	}
}

func TestLenOfListAndStr(t *testing.T) {
	b := Builtins()
	result := call(t, b, "len", values.NewStr("abc"))
	assert.Equal(t, int64(3), result.Data.(int64))

	result = call(t, b, "len", values.NewList([]*values.Value{values.NewInt(1), values.NewInt(2)}))
	assert.Equal(t, int64(2), result.Data.(int64))
}

func TestMinMaxOverArguments(t *testing.T) {
	b := Builtins()
	result := call(t, b, "min", values.NewInt(3), values.NewInt(1), values.NewInt(2))
	assert.Equal(t, int64(1), result.Data.(int64))

	result = call(t, b, "max", values.NewInt(3), values.NewInt(1), values.NewInt(2))
	assert.Equal(t, int64(3), result.Data.(int64))
}

func TestSumAddsNumbers(t *testing.T) {
	b := Builtins()
	list := values.NewList([]*values.Value{values.NewInt(1), values.NewInt(2), values.NewInt(3)})
	result := call(t, b, "sum", list)
	assert.Equal(t, int64(6), result.Data.(int64))
}

func TestIntConvertsStringLiteral(t *testing.T) {
	b := Builtins()
	result := call(t, b, "int", values.NewStr("42"))
	assert.Equal(t, int64(42), result.Data.(int64))
}

func TestIntRejectsGarbageString(t *testing.T) {
	b := Builtins()
	fn := builtin(t, b, "int")
	_, err := fn.Fn(&fakeCtx{}, []*values.Value{values.NewStr("not a number")})
	exc, ok := err.(*object.Exception)
	require.True(t, ok, "int('not a number') error = %v, want *object.Exception", err)
	assert.Equal(t, "ValueError", exc.Class.Name)
}

func TestDictCtorRejectsNonStringKeys(t *testing.T) {
	b := Builtins()
	fn := builtin(t, b, "dict")
	pair := values.NewTuple([]*values.Value{values.NewInt(1), values.NewInt(2)})
	pairs := values.NewList([]*values.Value{pair})
	_, err := fn.Fn(&fakeCtx{}, []*values.Value{pairs})
	exc, ok := err.(*object.Exception)
	require.True(t, ok, "dict() error = %v, want *object.Exception", err)
	assert.Equal(t, "TypeError", exc.Class.Name)
	assert.Equal(t, "dict keys must be strings", exc.Message)
}

func TestBoolTruthiness(t *testing.T) {
	b := Builtins()
	assert.False(t, call(t, b, "bool", values.NewInt(0)).Truthiness())
	assert.True(t, call(t, b, "bool", values.NewInt(1)).Truthiness())
	assert.False(t, call(t, b, "bool").Truthiness())
}

func TestIsInstanceAndIsSubclass(t *testing.T) {
	b := Builtins()
	base, err := object.NewClass("Animal", nil, nil, nil)
	require.NoError(t, err)
	derived, err := object.NewClass("Dog", []*object.Class{base}, nil, nil)
	require.NoError(t, err)

	inst := object.NewInstanceValue(derived)
	result := call(t, b, "isinstance", inst, object.NewClassValue(base))
	assert.True(t, result.Truthiness())

	result = call(t, b, "issubclass", object.NewClassValue(derived), object.NewClassValue(base))
	assert.True(t, result.Truthiness())
}

func TestIDIsStableForSameValue(t *testing.T) {
	b := Builtins()
	inst := object.NewInstanceValue(mustAnimal(t))
	first := call(t, b, "id", inst)
	second := call(t, b, "id", inst)
	assert.Equal(t, first.Data, second.Data)
}

func mustAnimal(t *testing.T) *object.Class {
	t.Helper()
	c, err := object.NewClass("Animal", nil, nil, nil)
	require.NoError(t, err)
	return c
}

func TestEvalRejectsNonCode(t *testing.T) {
	b := Builtins()
	fn := builtin(t, b, "eval")
	_, err := fn.Fn(&fakeCtx{}, []*values.Value{values.NewStr("1 + 1")})
	exc, ok := err.(*object.Exception)
	require.True(t, ok, "eval('1 + 1') error = %v, want *object.Exception", err)
	assert.Equal(t, "TypeError", exc.Class.Name)
}

func TestCompileAlwaysRaisesNotImplemented(t *testing.T) {
	b := Builtins()
	fn := builtin(t, b, "compile")
	_, err := fn.Fn(&fakeCtx{}, []*values.Value{values.NewStr("1 + 1")})
	exc, ok := err.(*object.Exception)
	require.True(t, ok, "compile(...) error = %v, want *object.Exception", err)
	assert.Equal(t, "NotImplementedError", exc.Class.Name)
}

func TestGlobalsAndLocalsAreEmptyDicts(t *testing.T) {
	b := Builtins()
	for _, name := range []string{"globals", "locals"} {
		result := call(t, b, name)
		assert.Equal(t, values.KindDict, result.Kind)
	}
}

func TestSortedAndReversed(t *testing.T) {
	b := Builtins()
	nums := values.NewList([]*values.Value{values.NewInt(3), values.NewInt(1), values.NewInt(2)})

	sorted := call(t, b, "sorted", nums)
	require.Equal(t, values.KindList, sorted.Kind)
	assert.Equal(t, []int64{1, 2, 3}, intsOf(sorted.Data.(*values.List).Items))

	reversed := call(t, b, "reversed", nums)
	require.Equal(t, values.KindIterator, reversed.Kind)
	assert.Equal(t, []int64{2, 1, 3}, intsOf(drain(reversed.IteratorData())))
}

func drain(it values.Iterator) []*values.Value {
	var out []*values.Value
	for v, ok := it.Next(); ok; v, ok = it.Next() {
		out = append(out, v)
	}
	return out
}

func intsOf(vs []*values.Value) []int64 {
	out := make([]int64, len(vs))
	for i, v := range vs {
		out[i] = v.Data.(int64)
	}
	return out
}
