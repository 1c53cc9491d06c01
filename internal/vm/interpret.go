// Package vm's interpret.go implements the bytecode dispatch loop
// itself: call frames, method dispatch, upvalue open/close, class
// binding, and cooperative fiber switching (spec.md §4.6).
//
// Grounded on original_source/c9/m/vm/vm.c's runInterpreter (the
// giant opcode switch inside a `for(;;)`) but restructured around
// Go's lack of computed-goto / label-as-value dispatch: one opcode is
// executed per call to step, and the outer run loop re-fetches the
// current frame every time a call, return, or fiber switch could have
// changed it, rather than caching frame/ip in registers across those
// boundaries the way the C source does.
package vm

import (
	"lumen/internal/bytecode"
	"lumen/internal/lumenerr"
	"lumen/internal/object"
)

// Interpret runs fn (a freshly compiled module body) to completion on
// a new root fiber (spec.md §4.6). A runtime error is recoverable
// everywhere else in the language (it just unwinds to a caller fiber,
// spec.md §4.6.4/§7), but the root fiber has no caller to hand it to:
// if it finishes with its error field set, that is cmd/lumen's signal
// to report a RuntimeError and exit 1 (spec.md §6's error channel).
func (vm *VM) Interpret(fn *object.Fn) error {
	closure := vm.NewClosure(fn)
	fiber := vm.NewFiber(closure)
	fiber.State = object.FiberRoot
	vm.CurrentFiber = fiber
	if err := vm.run(); err != nil {
		return err
	}
	if !fiber.Error.IsNull() {
		return lumenerr.New(lumenerr.Runtime, "%s", stringifyFiberError(fiber.Error))
	}
	return nil
}

func stringifyFiberError(v object.Value) string {
	if v.IsObject() {
		if s, ok := v.AsObject().(*object.String); ok {
			return s.Value
		}
	}
	return "unknown error"
}

// run drives whichever fiber is current until none remains (spec.md
// §4.6.4: "If the VM now has no current fiber, execution completes
// successfully").
func (vm *VM) run() error {
	for vm.CurrentFiber != nil {
		fiber := vm.CurrentFiber
		frame := fiber.CurrentFrame()
		if frame == nil {
			vm.finishFiber(fiber)
			continue
		}
		if err := vm.step(fiber); err != nil {
			return err
		}
	}
	return nil
}

// finishFiber handles a fiber whose last frame has just returned
// (spec.md §4.6.4, "fiber.isDone is true iff the fiber has no
// remaining frames"): its final stack slot holds the value to hand
// back to whichever fiber called it, mirroring how a primitive
// collapses the call site to one result slot.
func (vm *VM) finishFiber(fiber *object.Fiber) {
	fiber.State = object.FiberDone
	var result object.Value = object.Null
	if len(fiber.Stack) > 0 {
		result = fiber.Stack[0]
	}
	caller := fiber.Caller
	fiber.Caller = nil
	if caller == nil {
		vm.CurrentFiber = nil
		return
	}
	if len(caller.Stack) > 0 {
		caller.Stack[len(caller.Stack)-1] = result
	}
	vm.CurrentFiber = caller
}

// RunModule drives a freshly created, caller-less fiber to completion
// synchronously, restoring whichever fiber was current beforehand — the
// entry point corelib's System.import_(_) uses to execute an imported
// module inline and hand its module object straight back as a normal
// primitive result, rather than through the Fiber.call/finishFiber
// caller-chain machinery (spec.md §4.6.4), which hands back the
// fiber's own top-of-stack value rather than the module object
// import_ needs to return.
func (vm *VM) RunModule(fiber *object.Fiber) error {
	saved := vm.CurrentFiber
	vm.CurrentFiber = fiber
	for vm.CurrentFiber != nil {
		cur := vm.CurrentFiber
		frame := cur.CurrentFrame()
		if frame == nil {
			if cur == fiber {
				break
			}
			vm.finishFiber(cur)
			continue
		}
		if err := vm.step(cur); err != nil {
			vm.CurrentFiber = saved
			return err
		}
	}
	vm.CurrentFiber = saved
	return nil
}

func readShortAt(code []byte, ip int) int { return int(code[ip])<<8 | int(code[ip+1]) }

// step executes exactly one instruction of fiber's current frame.
func (vm *VM) step(fiber *object.Fiber) error {
	frame := fiber.CurrentFrame()
	closure := frame.Closure
	fn := closure.Fn
	code := fn.Code
	ip := frame.IP
	op := bytecode.Op(code[ip])
	ip++

	if n, ok := bytecode.IsCall(op); ok {
		symbol := readShortAt(code, ip)
		ip += 2
		frame.IP = ip
		return vm.call(fiber, n, symbol, nil)
	}
	if n, ok := bytecode.IsSuper(op); ok {
		symbol := readShortAt(code, ip)
		ip += 2
		constIdx := readShortAt(code, ip)
		ip += 2
		frame.IP = ip
		super, _ := fn.Constants[constIdx].AsObject().(*object.Class)
		return vm.call(fiber, n, symbol, super)
	}

	switch op {
	case bytecode.OpConstant:
		idx := readShortAt(code, ip)
		ip += 2
		frame.IP = ip
		fiber.Push(fn.Constants[idx])

	case bytecode.OpPushNull:
		frame.IP = ip
		fiber.Push(object.Null)
	case bytecode.OpPushFalse:
		frame.IP = ip
		fiber.Push(object.False)
	case bytecode.OpPushTrue:
		frame.IP = ip
		fiber.Push(object.True)

	case bytecode.OpPop:
		frame.IP = ip
		fiber.Pop()
	case bytecode.OpDup:
		frame.IP = ip
		fiber.Push(fiber.Peek(0))

	case bytecode.OpLoadLocal:
		slot := int(code[ip])
		ip++
		frame.IP = ip
		fiber.Push(fiber.Stack[frame.Base+slot])
	case bytecode.OpStoreLocal:
		slot := int(code[ip])
		ip++
		frame.IP = ip
		fiber.Stack[frame.Base+slot] = fiber.Peek(0)

	case bytecode.OpLoadUpvalue:
		slot := int(code[ip])
		ip++
		frame.IP = ip
		fiber.Push(closure.Upvalues[slot].Get())
	case bytecode.OpStoreUpvalue:
		slot := int(code[ip])
		ip++
		frame.IP = ip
		closure.Upvalues[slot].Set(fiber.Peek(0))

	case bytecode.OpLoadModuleVar:
		idx := readShortAt(code, ip)
		ip += 2
		frame.IP = ip
		fiber.Push(fn.Module.VariableAt(idx))
	case bytecode.OpStoreModuleVar:
		idx := readShortAt(code, ip)
		ip += 2
		frame.IP = ip
		fn.Module.SetVariableAt(idx, fiber.Peek(0))

	case bytecode.OpLoadThisField:
		idx := int(code[ip])
		ip++
		frame.IP = ip
		inst, ok := fiber.Stack[frame.Base].AsObject().(*object.Instance)
		if !ok {
			vm.RuntimeError(fiber, "'this' is not an instance")
			return vm.afterRuntimeError(fiber)
		}
		fiber.Push(inst.Fields[idx])
	case bytecode.OpStoreThisField:
		idx := int(code[ip])
		ip++
		frame.IP = ip
		inst, ok := fiber.Stack[frame.Base].AsObject().(*object.Instance)
		if !ok {
			vm.RuntimeError(fiber, "'this' is not an instance")
			return vm.afterRuntimeError(fiber)
		}
		inst.Fields[idx] = fiber.Peek(0)

	case bytecode.OpLoadField:
		idx := int(code[ip])
		ip++
		frame.IP = ip
		recv := fiber.Pop()
		inst, ok := recv.AsObject().(*object.Instance)
		if !ok {
			vm.RuntimeError(fiber, "receiver is not an instance")
			return vm.afterRuntimeError(fiber)
		}
		fiber.Push(inst.Fields[idx])
	case bytecode.OpStoreField:
		idx := int(code[ip])
		ip++
		frame.IP = ip
		value := fiber.Pop()
		recv := fiber.Pop()
		inst, ok := recv.AsObject().(*object.Instance)
		if !ok {
			vm.RuntimeError(fiber, "receiver is not an instance")
			return vm.afterRuntimeError(fiber)
		}
		inst.Fields[idx] = value
		fiber.Push(value)

	case bytecode.OpJump:
		dist := readShortAt(code, ip)
		ip += 2
		frame.IP = ip + dist
	case bytecode.OpJumpIfFalse:
		dist := readShortAt(code, ip)
		ip += 2
		v := fiber.Pop()
		if v.IsFalsey() {
			frame.IP = ip + dist
		} else {
			frame.IP = ip
		}
	case bytecode.OpLoop:
		dist := readShortAt(code, ip)
		ip += 2
		frame.IP = ip - dist
	case bytecode.OpAnd:
		dist := readShortAt(code, ip)
		ip += 2
		if fiber.Peek(0).IsFalsey() {
			frame.IP = ip + dist
		} else {
			fiber.Pop()
			frame.IP = ip
		}
	case bytecode.OpOr:
		dist := readShortAt(code, ip)
		ip += 2
		if fiber.Peek(0).IsFalsey() {
			fiber.Pop()
			frame.IP = ip
		} else {
			frame.IP = ip + dist
		}

	case bytecode.OpClose:
		// A break placeholder the compiler failed to rewrite to JUMP;
		// treat it as a no-op jump of zero (defensive only).
		ip += 2
		frame.IP = ip
	case bytecode.OpCloseUpvalue:
		frame.IP = ip
		fiber.CloseUpvalues(len(fiber.Stack) - 1)
		fiber.Pop()

	case bytecode.OpCreateClosure:
		constIdx := readShortAt(code, ip)
		ip += 2
		innerFn, _ := fn.Constants[constIdx].AsObject().(*object.Fn)
		inner := vm.NewClosure(innerFn)
		for i := 0; i < innerFn.UpvalueCount; i++ {
			isLocal := code[ip]
			idx := int(code[ip+1])
			ip += 2
			if isLocal == 1 {
				inner.Upvalues[i] = fiber.CaptureUpvalue(frame.Base + idx)
			} else {
				inner.Upvalues[i] = closure.Upvalues[idx]
			}
		}
		frame.IP = ip
		fiber.Push(object.Obj(inner))

	case bytecode.OpCreateClass:
		fieldCount := int(code[ip])
		ip++
		frame.IP = ip
		super := fiber.Pop()
		nameVal := fiber.Pop()
		name, _ := nameVal.AsObject().(*object.String)
		superClass, _ := super.AsObject().(*object.Class)
		class, ok := vm.CreateClass(fiber, name, superClass, fieldCount)
		if !ok {
			return vm.afterRuntimeError(fiber)
		}
		fiber.Push(object.Obj(class))

	case bytecode.OpInstanceMethod, bytecode.OpStaticMethod:
		symbol := readShortAt(code, ip)
		ip += 2
		frame.IP = ip
		closureVal := fiber.Pop()
		classVal := fiber.Peek(0)
		class, ok1 := classVal.AsObject().(*object.Class)
		methodClosure, ok2 := closureVal.AsObject().(*object.Closure)
		if !ok1 || !ok2 {
			vm.RuntimeError(fiber, "malformed method binding")
			return vm.afterRuntimeError(fiber)
		}
		vm.BindMethod(class, symbol, op == bytecode.OpStaticMethod, methodClosure)

	case bytecode.OpConstruct:
		frame.IP = ip
		classVal := fiber.Stack[frame.Base]
		class, ok := classVal.AsObject().(*object.Class)
		if !ok {
			vm.RuntimeError(fiber, "'new' called without a class receiver")
			return vm.afterRuntimeError(fiber)
		}
		fiber.Stack[frame.Base] = object.Obj(vm.NewInstance(class))

	case bytecode.OpReturn:
		frame.IP = ip
		value := fiber.Pop()
		base := frame.Base
		fiber.CloseUpvalues(base)
		fiber.PopCallFrame()
		fiber.Stack = fiber.Stack[:base]
		fiber.Push(value)

	default:
		vm.RuntimeError(fiber, "unknown opcode %d", op)
		return vm.afterRuntimeError(fiber)
	}
	return nil
}

// afterRuntimeError implements spec.md §7's propagation for a runtime
// error raised directly by the interpreter (not via a primitive):
// behave exactly as Fiber.abort(err) would.
func (vm *VM) afterRuntimeError(fiber *object.Fiber) error {
	vm.propagateError(fiber)
	return nil
}

// call implements CALL<N> / SUPER<N> dispatch (spec.md §4.6.1).
// dispatchClass is nil for a normal CALL (classOf(receiver) decides)
// or the patched super-class constant for a SUPER.
func (vm *VM) call(fiber *object.Fiber, argCount, symbol int, dispatchClass *object.Class) error {
	argNum := argCount + 1
	base := len(fiber.Stack) - argNum
	if base < 0 {
		base = 0
	}
	args := fiber.Stack[base:]
	receiver := args[0]

	class := dispatchClass
	if class == nil {
		class = vm.ClassOf(receiver)
	}

	method, ok := class.MethodAt(symbol)
	if !ok || method.Kind == object.MethodNone {
		vm.RuntimeError(fiber, "%s does not implement '%s'", class.Name.Value, vm.MethodNames.Name(symbol))
		return vm.afterRuntimeError(fiber)
	}

	switch method.Kind {
	case object.MethodPrimitive:
		result, normal := method.Primitive(fiber, args)
		if normal {
			args[0] = result
			fiber.Stack = fiber.Stack[:len(fiber.Stack)-(argNum-1)]
			return nil
		}
		if !fiber.Error.IsNull() {
			return vm.afterRuntimeError(fiber)
		}
		// Control switched fibers (Fiber.call/Thread.yield/Thread.suspend);
		// vm.CurrentFiber already reflects the new fiber, or nil.
		return nil

	case object.MethodScript:
		fiber.PushCallFrame(method.Closure, base)
		return nil

	case object.MethodFnCall:
		closureObj, ok := receiver.AsObject().(*object.Closure)
		if !ok {
			vm.RuntimeError(fiber, "Fn.call receiver is not a function")
			return vm.afterRuntimeError(fiber)
		}
		if closureObj.Fn.ArgCount != argCount {
			vm.RuntimeError(fiber, "function expects %d argument(s) but got %d", closureObj.Fn.ArgCount, argCount)
			return vm.afterRuntimeError(fiber)
		}
		fiber.PushCallFrame(closureObj, base)
		return nil
	}
	return nil
}
