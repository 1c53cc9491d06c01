package vm

import (
	"fmt"

	"lumen/internal/object"
)

// MaxFields caps a class's own+inherited field count (spec.md §4.6.5,
// "field_num_max").
const MaxFields = 255

// RuntimeError aborts fiber the way Thread.abort(err) does (spec.md
// §4.6.4, §7): it stores err on the fiber's Error field and returns
// nothing; the VM's call path sees the error and propagates it. It
// never returns a Go error — runtime errors are recoverable via the fiber's error field,
// not fatal like Lex/Compile/IO/Memory errors (spec.md §7).
func (vm *VM) RuntimeError(fiber *object.Fiber, format string, args ...interface{}) {
	fiber.Error = object.Obj(vm.NewString(fmt.Sprintf(format, args...)))
}

// propagateError implements spec.md §4.6.4/§7's error propagation:
// a fiber whose error field is set is done; control returns to its
// caller (if any) with null in place of a result, or the VM halts if
// there is no caller.
// PropagateError exposes propagateError outside the package. Primitives
// such as Thread.abort(err) do not call it: they only set the fiber's
// Error field and return false, and the VM's call path propagates once.
func (vm *VM) PropagateError(fiber *object.Fiber) {
	vm.propagateError(fiber)
}

func (vm *VM) propagateError(fiber *object.Fiber) {
	fiber.State = object.FiberDone
	caller := fiber.Caller
	fiber.Caller = nil
	if caller == nil {
		vm.CurrentFiber = nil
		return
	}
	if len(caller.Stack) > 0 {
		caller.Stack[len(caller.Stack)-1] = object.Null
	}
	vm.CurrentFiber = caller
}
