package corelib

import (
	"strings"

	"lumen/internal/object"
	"lumen/internal/vm"
)

// registerList installs List's construction helper, indexing,
// iteration, and the extras SPEC_FULL.md §4 supplements from
// original_source's obj_list.c (indexOf/insert/removeAt/swap).
// addCore_(_) and join() are what the compiler's list-literal and
// string-interpolation desugars bottom out in (spec.md §4.5.2): a list
// literal expands to repeated `addCore_(_)` calls on a fresh List, and
// interpolation builds such a list and then joins it back into one
// string with no separator.
func registerList(v *vm.VM, cls *classes) {
	asList := func(f *object.Fiber, val object.Value) (*object.List, bool) {
		l, ok := val.AsObject().(*object.List)
		if !ok {
			v.RuntimeError(f, "value is not a List")
			return nil, false
		}
		return l, true
	}

	bindPrimitive(v, cls.list, true, "new()", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		return object.Obj(v.NewList()), true
	})

	bindPrimitive(v, cls.list, false, "addCore_(_)", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		l, ok := asList(f, args[0])
		if !ok {
			return object.Null, false
		}
		l.Add(args[1])
		return args[0], true
	})

	bindPrimitive(v, cls.list, false, "count", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		l, ok := asList(f, args[0])
		if !ok {
			return object.Null, false
		}
		return object.Number(float64(l.Len())), true
	})

	bindPrimitive(v, cls.list, false, "[_]", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		l, ok := asList(f, args[0])
		if !ok {
			return object.Null, false
		}
		elem, ok := l.Get(int(args[1].AsNumber()))
		if !ok {
			v.RuntimeError(f, "list index out of bounds")
			return object.Null, false
		}
		return elem, true
	})
	bindPrimitive(v, cls.list, false, "[_]=(_)", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		l, ok := asList(f, args[0])
		if !ok {
			return object.Null, false
		}
		if !l.Set(int(args[1].AsNumber()), args[2]) {
			v.RuntimeError(f, "list index out of bounds")
			return object.Null, false
		}
		return args[2], true
	})

	bindPrimitive(v, cls.list, false, "iterate(_)", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		l, ok := asList(f, args[0])
		if !ok {
			return object.Null, false
		}
		var next int
		if args[1].IsNull() {
			next = 0
		} else {
			next = int(args[1].AsNumber()) + 1
		}
		if next >= l.Len() {
			return object.False, true
		}
		return object.Number(float64(next)), true
	})
	bindPrimitive(v, cls.list, false, "iteratorValue(_)", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		l, ok := asList(f, args[0])
		if !ok {
			return object.Null, false
		}
		elem, ok := l.Get(int(args[1].AsNumber()))
		if !ok {
			v.RuntimeError(f, "list iterator out of bounds")
			return object.Null, false
		}
		return elem, true
	})

	bindPrimitive(v, cls.list, false, "indexOf(_)", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		l, ok := asList(f, args[0])
		if !ok {
			return object.Null, false
		}
		return object.Number(float64(l.IndexOf(args[1]))), true
	})
	bindPrimitive(v, cls.list, false, "insert(_,_)", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		l, ok := asList(f, args[0])
		if !ok {
			return object.Null, false
		}
		if !l.Insert(int(args[1].AsNumber()), args[2]) {
			v.RuntimeError(f, "list index out of bounds")
			return object.Null, false
		}
		return args[2], true
	})
	bindPrimitive(v, cls.list, false, "removeAt(_)", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		l, ok := asList(f, args[0])
		if !ok {
			return object.Null, false
		}
		removed, ok := l.RemoveAt(int(args[1].AsNumber()))
		if !ok {
			v.RuntimeError(f, "list index out of bounds")
			return object.Null, false
		}
		return removed, true
	})
	bindPrimitive(v, cls.list, false, "swap(_,_)", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		l, ok := asList(f, args[0])
		if !ok {
			return object.Null, false
		}
		if !l.Swap(int(args[1].AsNumber()), int(args[2].AsNumber())) {
			v.RuntimeError(f, "list index out of bounds")
			return object.Null, false
		}
		return args[0], true
	})

	bindPrimitive(v, cls.list, false, "join()", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		l, ok := asList(f, args[0])
		if !ok {
			return object.Null, false
		}
		var b strings.Builder
		for _, e := range l.Elements {
			b.WriteString(Stringify(e))
		}
		return object.Obj(v.NewString(b.String())), true
	})
}
