package corelib

import (
	"lumen/internal/object"
	"lumen/internal/vm"
)

// registerMap installs Map's construction helper, keyed access, and
// the iteration/reflection extras SPEC_FULL.md §4 supplements
// (keys/values/iterate/iteratorValue), grounded on object.Map's
// open-addressed Next/EntryAt cursor protocol.
func registerMap(v *vm.VM, cls *classes) {
	asMap := func(f *object.Fiber, val object.Value) (*object.Map, bool) {
		m, ok := val.AsObject().(*object.Map)
		if !ok {
			v.RuntimeError(f, "value is not a Map")
			return nil, false
		}
		return m, true
	}

	bindPrimitive(v, cls.mapc, true, "new()", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		return object.Obj(v.NewMap()), true
	})

	bindPrimitive(v, cls.mapc, false, "addCore_(_,_)", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		m, ok := asMap(f, args[0])
		if !ok {
			return object.Null, false
		}
		m.Set(args[1], args[2])
		return args[0], true
	})

	bindPrimitive(v, cls.mapc, false, "count", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		m, ok := asMap(f, args[0])
		if !ok {
			return object.Null, false
		}
		return object.Number(float64(m.Count())), true
	})

	bindPrimitive(v, cls.mapc, false, "[_]", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		m, ok := asMap(f, args[0])
		if !ok {
			return object.Null, false
		}
		val := m.Get(args[1])
		if val.IsUndefined() {
			return object.Null, true
		}
		return val, true
	})
	bindPrimitive(v, cls.mapc, false, "[_]=(_)", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		m, ok := asMap(f, args[0])
		if !ok {
			return object.Null, false
		}
		m.Set(args[1], args[2])
		return args[2], true
	})

	bindPrimitive(v, cls.mapc, false, "containsKey(_)", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		m, ok := asMap(f, args[0])
		if !ok {
			return object.Null, false
		}
		return object.Bool(!m.Get(args[1]).IsUndefined()), true
	})
	bindPrimitive(v, cls.mapc, false, "remove(_)", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		m, ok := asMap(f, args[0])
		if !ok {
			return object.Null, false
		}
		old, ok := m.Remove(args[1])
		if !ok {
			return object.Null, true
		}
		return old, true
	})

	bindPrimitive(v, cls.mapc, false, "keys", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		m, ok := asMap(f, args[0])
		if !ok {
			return object.Null, false
		}
		list := v.NewList()
		m.Each(func(k, _ object.Value) { list.Add(k) })
		return object.Obj(list), true
	})
	bindPrimitive(v, cls.mapc, false, "values", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		m, ok := asMap(f, args[0])
		if !ok {
			return object.Null, false
		}
		list := v.NewList()
		m.Each(func(_, val object.Value) { list.Add(val) })
		return object.Obj(list), true
	})

	bindPrimitive(v, cls.mapc, false, "iterate(_)", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		m, ok := asMap(f, args[0])
		if !ok {
			return object.Null, false
		}
		var start int
		if args[1].IsNull() {
			start = 0
		} else {
			start = int(args[1].AsNumber()) + 1
		}
		next := m.Next(start)
		if next < 0 {
			return object.False, true
		}
		return object.Number(float64(next)), true
	})
	bindPrimitive(v, cls.mapc, false, "iteratorValue(_)", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		m, ok := asMap(f, args[0])
		if !ok {
			return object.Null, false
		}
		k, val := m.EntryAt(int(args[1].AsNumber()))
		pair := v.NewList()
		pair.Add(k)
		pair.Add(val)
		return object.Obj(pair), true
	})
}
