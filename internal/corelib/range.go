package corelib

import (
	"lumen/internal/object"
	"lumen/internal/vm"
)

// registerRange installs Range's accessors and its iterate/iteratorValue
// pair. The iterator is the number last visited itself: null starts at
// From, each step moves one toward To, and reaching To ends the loop,
// so iteratorValue just hands the iterator back. Both bounds are
// inclusive and any integer bounds work, including ones at or below 0.
func registerRange(v *vm.VM, cls *classes) {
	asRange := func(f *object.Fiber, val object.Value) (*object.Range, bool) {
		r, ok := val.AsObject().(*object.Range)
		if !ok {
			v.RuntimeError(f, "value is not a Range")
			return nil, false
		}
		return r, true
	}

	bindPrimitive(v, cls.rang, false, "from", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		r, ok := asRange(f, args[0])
		if !ok {
			return object.Null, false
		}
		return object.Number(float64(r.From)), true
	})
	bindPrimitive(v, cls.rang, false, "to", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		r, ok := asRange(f, args[0])
		if !ok {
			return object.Null, false
		}
		return object.Number(float64(r.To)), true
	})

	bindPrimitive(v, cls.rang, false, "iterate(_)", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		r, ok := asRange(f, args[0])
		if !ok {
			return object.Null, false
		}
		if args[1].IsNull() {
			return object.Number(float64(r.From)), true
		}
		cur := int64(args[1].AsNumber())
		if cur == r.To {
			return object.False, true
		}
		if r.IsAscending() {
			return object.Number(float64(cur + 1)), true
		}
		return object.Number(float64(cur - 1)), true
	})
	bindPrimitive(v, cls.rang, false, "iteratorValue(_)", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		if _, ok := asRange(f, args[0]); !ok {
			return object.Null, false
		}
		return object.Number(float64(int64(args[1].AsNumber()))), true
	})
}
