package vm

import (
	"fmt"

	"github.com/lumen-lang/lumen/opcodes"
	"github.com/lumen-lang/lumen/values"
)

// execBuildContainer handles BUILD_LIST/TUPLE/SET/DICT: Op1 is the element
// (or key/value pair) count, Op2 the base register elements start at, and
// Result the destination. BUILD_DICT reads 2*Op1 registers, alternating
// key then value.
func (vm *VirtualMachine) execBuildContainer(frame *CallFrame, inst *opcodes.Instruction) error {
	count := int(inst.Op1)
	base := inst.Op2
	switch inst.Opcode {
	case opcodes.OP_BUILD_LIST:
		items := make([]*values.Value, count)
		for i := 0; i < count; i++ {
			items[i] = frame.Get(base + uint32(i))
		}
		frame.Set(inst.Result, values.NewList(items))
	case opcodes.OP_BUILD_TUPLE:
		items := make([]*values.Value, count)
		for i := 0; i < count; i++ {
			items[i] = frame.Get(base + uint32(i))
		}
		frame.Set(inst.Result, values.NewTuple(items))
	case opcodes.OP_BUILD_SET:
		s := values.NewSet()
		set := s.Data.(*values.Set)
		for i := 0; i < count; i++ {
			v := frame.Get(base + uint32(i))
			if !set.Add(v) {
				return vm.raiseBuiltin("TypeError", fmt.Sprintf("unhashable type: '%s'", v.TypeName()))
			}
		}
		frame.Set(inst.Result, s)
	case opcodes.OP_BUILD_DICT:
		d := values.NewDict()
		dict := d.Data.(*values.Dict)
		for i := 0; i < count; i++ {
			k := frame.Get(base + uint32(2*i))
			v := frame.Get(base + uint32(2*i+1))
			if k.Kind != values.KindStr {
				return vm.raiseBuiltin("TypeError", "dict keys must be strings")
			}
			dict.Set(k.Data.(string), v)
		}
		frame.Set(inst.Result, d)
	}
	return nil
}

// execContainerAdd handles the single-element comprehension-append forms:
// LIST_APPEND/SET_ADD (Result=container, Op1=value) and MAP_ADD
// (Result=container, Op1=key, Op2=value).
func (vm *VirtualMachine) execContainerAdd(frame *CallFrame, inst *opcodes.Instruction) error {
	container := frame.Get(inst.Result)
	switch inst.Opcode {
	case opcodes.OP_LIST_APPEND:
		l := container.Data.(*values.List)
		l.Items = append(l.Items, frame.Get(inst.Op1))
	case opcodes.OP_SET_ADD:
		s := container.Data.(*values.Set)
		v := frame.Get(inst.Op1)
		if !s.Add(v) {
			return vm.raiseBuiltin("TypeError", fmt.Sprintf("unhashable type: '%s'", v.TypeName()))
		}
	case opcodes.OP_MAP_ADD:
		k, v := frame.Get(inst.Op1), frame.Get(inst.Op2)
		if k.Kind != values.KindStr {
			return vm.raiseBuiltin("TypeError", "dict keys must be strings")
		}
		container.Data.(*values.Dict).Set(k.Data.(string), v)
	}
	return nil
}

// execContainerMerge handles `*expr`/`**expr` spreads into an
// already-built list/dict (Result=dest, Op1=source).
func (vm *VirtualMachine) execContainerMerge(frame *CallFrame, inst *opcodes.Instruction) error {
	dest, src := frame.Get(inst.Result), frame.Get(inst.Op1)
	switch inst.Opcode {
	case opcodes.OP_LIST_EXTEND:
		l := dest.Data.(*values.List)
		items, err := iterableItems(src)
		if err != nil {
			return vm.raiseBuiltin("TypeError", err.Error())
		}
		l.Items = append(l.Items, items...)
	case opcodes.OP_DICT_MERGE:
		if src.Kind != values.KindDict {
			return vm.raiseBuiltin("TypeError", "argument after ** must be a mapping")
		}
		d, sd := dest.Data.(*values.Dict), src.Data.(*values.Dict)
		for _, k := range sd.Keys() {
			v, _ := sd.Get(k)
			d.Set(k, v)
		}
	}
	return nil
}

// iterableItems materializes any iterable Value's elements eagerly, used by
// spread/unpack opcodes that need the full sequence up front.
func iterableItems(v *values.Value) ([]*values.Value, error) {
	switch v.Kind {
	case values.KindList:
		return append([]*values.Value(nil), v.Data.(*values.List).Items...), nil
	case values.KindTuple:
		return append([]*values.Value(nil), v.Data.(*values.Tuple).Items...), nil
	case values.KindSet:
		return v.Data.(*values.Set).Items(), nil
	case values.KindRange:
		r := v.Data.(*values.Range)
		out := make([]*values.Value, r.Len())
		for i := range out {
			out[i] = values.NewInt(r.At(int64(i)))
		}
		return out, nil
	case values.KindStr:
		s := v.Data.(string)
		out := make([]*values.Value, 0, len(s))
		for _, r := range s {
			out = append(out, values.NewStr(string(r)))
		}
		return out, nil
	case values.KindIterator:
		it := v.Data.(values.Iterator)
		var out []*values.Value
		for {
			item, ok := it.Next()
			if !ok {
				break
			}
			out = append(out, item)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("'%s' object is not iterable", v.TypeName())
	}
}

func sequenceLen(v *values.Value) (int64, error) {
	switch v.Kind {
	case values.KindList:
		return int64(len(v.Data.(*values.List).Items)), nil
	case values.KindTuple:
		return int64(len(v.Data.(*values.Tuple).Items)), nil
	case values.KindDict:
		return int64(v.Data.(*values.Dict).Len()), nil
	case values.KindSet:
		return int64(v.Data.(*values.Set).Len()), nil
	case values.KindStr:
		return int64(len([]rune(v.Data.(string)))), nil
	case values.KindRange:
		return v.Data.(*values.Range).Len(), nil
	default:
		return 0, fmt.Errorf("object of type '%s' has no len()", v.TypeName())
	}
}

func (vm *VirtualMachine) execSubscr(frame *CallFrame, inst *opcodes.Instruction) error {
	obj, index := frame.Get(inst.Op1), frame.Get(inst.Op2)
	if index.Kind == values.KindSlice {
		result, err := sliceValue(obj, index.Data.(*values.Slice))
		if err != nil {
			return vm.raiseBuiltin("TypeError", err.Error())
		}
		frame.Set(inst.Result, result)
		return nil
	}
	result, err := subscriptGet(obj, index)
	if err != nil {
		return vm.translateSubscriptError(err)
	}
	frame.Set(inst.Result, result)
	return nil
}

func (vm *VirtualMachine) translateSubscriptError(err error) error {
	switch err {
	case ErrIndexOutOfRange:
		return vm.raiseBuiltin("IndexError", "index out of range")
	case ErrKeyNotFound:
		return vm.raiseBuiltin("KeyError", "key not found")
	default:
		return vm.raiseBuiltin("TypeError", err.Error())
	}
}

func subscriptGet(obj, index *values.Value) (*values.Value, error) {
	switch obj.Kind {
	case values.KindList:
		items := obj.Data.(*values.List).Items
		i, err := seqIndex(index, len(items))
		if err != nil {
			return nil, err
		}
		return items[i], nil
	case values.KindTuple:
		items := obj.Data.(*values.Tuple).Items
		i, err := seqIndex(index, len(items))
		if err != nil {
			return nil, err
		}
		return items[i], nil
	case values.KindStr:
		runes := []rune(obj.Data.(string))
		i, err := seqIndex(index, len(runes))
		if err != nil {
			return nil, err
		}
		return values.NewStr(string(runes[i])), nil
	case values.KindDict:
		if index.Kind != values.KindStr {
			return nil, ErrKeyNotFound
		}
		v, ok := obj.Data.(*values.Dict).Get(index.Data.(string))
		if !ok {
			return nil, ErrKeyNotFound
		}
		return v, nil
	case values.KindRange:
		r := obj.Data.(*values.Range)
		i, err := seqIndex(index, int(r.Len()))
		if err != nil {
			return nil, err
		}
		return values.NewInt(r.At(int64(i))), nil
	default:
		return nil, fmt.Errorf("'%s' object is not subscriptable", obj.TypeName())
	}
}

func seqIndex(index *values.Value, n int) (int, error) {
	if !index.IsInt() && !index.IsBool() {
		return 0, fmt.Errorf("indices must be integers, not %s", index.TypeName())
	}
	i := int(index.ToInt())
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, ErrIndexOutOfRange
	}
	return i, nil
}

func sliceValue(obj *values.Value, s *values.Slice) (*values.Value, error) {
	switch obj.Kind {
	case values.KindList:
		items := obj.Data.(*values.List).Items
		return values.NewList(sliceItems(items, s)), nil
	case values.KindTuple:
		items := obj.Data.(*values.Tuple).Items
		return values.NewTuple(sliceItems(items, s)), nil
	case values.KindStr:
		runes := []rune(obj.Data.(string))
		wrapped := make([]*values.Value, len(runes))
		for i, r := range runes {
			wrapped[i] = values.NewStr(string(r))
		}
		out := sliceItems(wrapped, s)
		var b []rune
		for _, v := range out {
			b = append(b, []rune(v.Data.(string))...)
		}
		return values.NewStr(string(b)), nil
	default:
		return nil, fmt.Errorf("'%s' object is not subscriptable", obj.TypeName())
	}
}

func sliceItems(items []*values.Value, s *values.Slice) []*values.Value {
	start, stop, step := s.Indices(int64(len(items)))
	var out []*values.Value
	if step > 0 {
		for i := start; i < stop; i += step {
			out = append(out, items[i])
		}
	} else {
		for i := start; i > stop; i += step {
			out = append(out, items[i])
		}
	}
	if out == nil {
		out = []*values.Value{}
	}
	return out
}

func (vm *VirtualMachine) execStoreSubscr(frame *CallFrame, inst *opcodes.Instruction) error {
	obj, index, val := frame.Get(inst.Op1), frame.Get(inst.Op2), frame.Get(inst.Result)
	switch obj.Kind {
	case values.KindList:
		items := obj.Data.(*values.List)
		i, err := seqIndex(index, len(items.Items))
		if err != nil {
			return vm.translateSubscriptError(err)
		}
		items.Items[i] = val
	case values.KindDict:
		if index.Kind != values.KindStr {
			return vm.raiseBuiltin("TypeError", "dict keys must be strings")
		}
		obj.Data.(*values.Dict).Set(index.Data.(string), val)
	default:
		return vm.raiseBuiltin("TypeError", fmt.Sprintf("'%s' object does not support item assignment", obj.TypeName()))
	}
	return nil
}

func (vm *VirtualMachine) execDeleteSubscr(frame *CallFrame, inst *opcodes.Instruction) error {
	obj, index := frame.Get(inst.Op1), frame.Get(inst.Op2)
	switch obj.Kind {
	case values.KindList:
		items := obj.Data.(*values.List)
		i, err := seqIndex(index, len(items.Items))
		if err != nil {
			return vm.translateSubscriptError(err)
		}
		items.Items = append(items.Items[:i], items.Items[i+1:]...)
	case values.KindDict:
		if index.Kind != values.KindStr || !obj.Data.(*values.Dict).Delete(index.Data.(string)) {
			return vm.raiseBuiltin("KeyError", "key not found")
		}
	default:
		return vm.raiseBuiltin("TypeError", fmt.Sprintf("'%s' object does not support item deletion", obj.TypeName()))
	}
	return nil
}

// execUnpackSequence handles `a, b, c = seq`: Op1=source register,
// Op2=expected count, Result=base of Op2 consecutive destination registers.
func (vm *VirtualMachine) execUnpackSequence(frame *CallFrame, inst *opcodes.Instruction) error {
	items, err := iterableItems(frame.Get(inst.Op1))
	if err != nil {
		return vm.raiseBuiltin("TypeError", err.Error())
	}
	n := int(inst.Op2)
	if len(items) != n {
		return vm.raiseBuiltin("ValueError", fmt.Sprintf("expected %d values to unpack, got %d", n, len(items)))
	}
	for i := 0; i < n; i++ {
		frame.Set(inst.Result+uint32(i), items[i])
	}
	return nil
}

// execUnpackEx handles `a, *rest, b = seq`: Op1=source register,
// Op2=(before<<16|after), Result=base register: before singles, then one
// list register for *rest, then after singles.
func (vm *VirtualMachine) execUnpackEx(frame *CallFrame, inst *opcodes.Instruction) error {
	items, err := iterableItems(frame.Get(inst.Op1))
	if err != nil {
		return vm.raiseBuiltin("TypeError", err.Error())
	}
	before := int(inst.Op2 >> 16)
	after := int(inst.Op2 & 0xFFFF)
	if len(items) < before+after {
		return vm.raiseBuiltin("ValueError", fmt.Sprintf("not enough values to unpack (expected at least %d, got %d)", before+after, len(items)))
	}
	for i := 0; i < before; i++ {
		frame.Set(inst.Result+uint32(i), items[i])
	}
	mid := items[before : len(items)-after]
	frame.Set(inst.Result+uint32(before), values.NewList(append([]*values.Value(nil), mid...)))
	for i := 0; i < after; i++ {
		frame.Set(inst.Result+uint32(before+1+i), items[len(items)-after+i])
	}
	return nil
}

func (vm *VirtualMachine) execGetIter(frame *CallFrame, inst *opcodes.Instruction) error {
	src := frame.Get(inst.Op1)
	if src.Kind == values.KindIterator {
		frame.Set(inst.Result, src)
		return nil
	}
	items, err := iterableItems(src)
	if err != nil {
		if src.Kind == values.KindRange {
			frame.Set(inst.Result, values.NewIterator(values.NewRangeIterator(src.Data.(*values.Range))))
			return nil
		}
		return vm.raiseBuiltin("TypeError", err.Error())
	}
	frame.Set(inst.Result, values.NewIterator(values.NewSliceIterator(items)))
	return nil
}

// execForIter advances the iterator in Op1; on a value it stores into
// Result and falls through, on exhaustion it jumps to Op2.
func (vm *VirtualMachine) execForIter(frame *CallFrame, inst *opcodes.Instruction) (bool, error) {
	it := frame.Get(inst.Op1).IteratorData()
	if it == nil {
		return false, vm.raiseBuiltin("TypeError", "object is not an iterator")
	}
	v, ok := it.Next()
	if !ok {
		frame.IP = int(inst.Op2)
		return true, nil
	}
	frame.Set(inst.Result, v)
	return false, nil
}
