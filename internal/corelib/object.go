package corelib

import (
	"lumen/internal/object"
	"lumen/internal/vm"
)

// registerObject installs Object's universal methods (spec.md §5,
// "every value answers these"): identity/value equality, the `is`
// type-test operator every binary `is` expression compiles to, and the
// default toString every other class's toString falls back to unless
// it overrides one.
func registerObject(v *vm.VM, cls *classes) {
	bindPrimitive(v, cls.object_, false, "==(_)", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		return object.Bool(object.Equal(args[0], args[1])), true
	})
	bindPrimitive(v, cls.object_, false, "!=(_)", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		return object.Bool(!object.Equal(args[0], args[1])), true
	})
	bindPrimitive(v, cls.object_, false, "is(_)", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		want, ok := args[1].AsObject().(*object.Class)
		if !ok {
			v.RuntimeError(f, "right-hand side of 'is' must be a class")
			return object.Null, false
		}
		return object.Bool(v.ClassOf(args[0]).IsSubclassOf(want)), true
	})
	bindPrimitive(v, cls.object_, false, "toString", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		return object.Obj(v.NewString(Stringify(args[0]))), true
	})
}

// registerClassReflection installs the Class.name / Class.supertype
// getters named in SPEC_FULL.md §4's "Class reflection" supplement,
// grounded on original_source exposing a class's name and superclass
// pointer directly off ObjClass.
func registerClassReflection(v *vm.VM, cls *classes) {
	bindPrimitive(v, cls.class_, false, "name", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		class, ok := args[0].AsObject().(*object.Class)
		if !ok {
			v.RuntimeError(f, "receiver is not a class")
			return object.Null, false
		}
		return object.Obj(class.Name), true
	})
	bindPrimitive(v, cls.class_, false, "supertype", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		class, ok := args[0].AsObject().(*object.Class)
		if !ok {
			v.RuntimeError(f, "receiver is not a class")
			return object.Null, false
		}
		if class.Super == nil {
			return object.Null, true
		}
		return object.Obj(class.Super), true
	})
}
