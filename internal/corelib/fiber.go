package corelib

import (
	"lumen/internal/object"
	"lumen/internal/vm"
)

// registerFiber installs Fiber's constructor, call/resume primitives
// and the reflection getters SPEC_FULL.md §4 supplements
// (isDone/error/Fiber.current), then registers the separate,
// instance-less Thread class for the scheduling primitives that don't
// belong to any one fiber (spec.md §4.6.4, §9 "Fiber vs Thread split").
func registerFiber(v *vm.VM, cls *classes) {
	asFiber := func(f *object.Fiber, val object.Value) (*object.Fiber, bool) {
		target, ok := val.AsObject().(*object.Fiber)
		if !ok {
			v.RuntimeError(f, "value is not a Fiber")
			return nil, false
		}
		return target, true
	}

	bindPrimitive(v, cls.fiber, true, "new(_)", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		closure, ok := args[1].AsObject().(*object.Closure)
		if !ok {
			v.RuntimeError(f, "Fiber.new expects a function")
			return object.Null, false
		}
		return object.Obj(v.NewFiber(closure)), true
	})

	bindPrimitive(v, cls.fiber, true, "current", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		return object.Obj(f), true
	})

	bindPrimitive(v, cls.fiber, false, "isDone", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		target, ok := asFiber(f, args[0])
		if !ok {
			return object.Null, false
		}
		return object.Bool(target.IsDone()), true
	})
	bindPrimitive(v, cls.fiber, false, "error", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		target, ok := asFiber(f, args[0])
		if !ok {
			return object.Null, false
		}
		return target.Error, true
	})

	callFiber := func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		target, ok := asFiber(f, args[0])
		if !ok {
			return object.Null, false
		}
		if target.Caller != nil {
			v.RuntimeError(f, "fiber has already been called")
			return object.Null, false
		}
		if target.IsDone() {
			v.RuntimeError(f, "cannot call a finished fiber")
			return object.Null, false
		}
		var arg object.Value = object.Null
		if len(args) > 1 {
			arg = args[1]
		}

		// Collapse this call site's own operands before handing control
		// to target; the slot they leave behind is overwritten with
		// target's result once it returns or yields back here.
		f.Stack = f.Stack[:len(f.Stack)-len(args)]
		f.Push(object.Null)

		if !target.Started {
			target.Started = true
			if len(target.Stack) > 0 {
				target.Stack[0] = arg
			}
		} else if len(target.Stack) > 0 {
			target.Stack[len(target.Stack)-1] = arg
		}
		target.Caller = f
		target.State = object.FiberRunning
		v.CurrentFiber = target
		return object.Null, false
	}
	bindPrimitive(v, cls.fiber, false, "call()", callFiber)
	bindPrimitive(v, cls.fiber, false, "call(_)", callFiber)

	registerThread(v, cls)
}

// registerThread binds Thread's scheduling primitives, all static
// since Thread is never instantiated — each operates on whichever
// fiber is currently executing it (spec.md §4.6.4).
func registerThread(v *vm.VM, cls *classes) {
	collapseAndSuspend := func(f *object.Fiber, args []object.Value) {
		f.Stack = f.Stack[:len(f.Stack)-len(args)]
		f.Push(object.Null)
	}

	yield := func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		caller := f.Caller
		if caller == nil {
			v.RuntimeError(f, "cannot yield from a fiber with no caller")
			return object.Null, false
		}
		var val object.Value = object.Null
		if len(args) > 1 {
			val = args[1]
		}
		collapseAndSuspend(f, args)
		f.Caller = nil
		f.State = object.FiberSuspended
		if len(caller.Stack) > 0 {
			caller.Stack[len(caller.Stack)-1] = val
		}
		v.CurrentFiber = caller
		return object.Null, false
	}
	bindPrimitive(v, cls.thread, true, "yield()", yield)
	bindPrimitive(v, cls.thread, true, "yield(_)", yield)

	bindPrimitive(v, cls.thread, true, "suspend()", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		collapseAndSuspend(f, args)
		f.State = object.FiberSuspended
		v.CurrentFiber = nil
		return object.Null, false
	})

	bindPrimitive(v, cls.thread, true, "abort(_)", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		var errVal object.Value = object.Null
		if len(args) > 1 {
			errVal = args[1]
		}
		f.Error = errVal
		return object.Null, false
	})
}
