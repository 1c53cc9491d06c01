package corelib

import (
	"lumen/internal/object"
	"lumen/internal/vm"
)

// registerBool installs Bool's one operator: logical negation. `&&`
// and `||` never reach a method call (andExpr/orExpr short-circuit in
// bytecode directly, spec.md §4.5.2), so this is all Bool needs beyond
// Object's default equality/toString.
func registerBool(v *vm.VM, cls *classes) {
	bindPrimitive(v, cls.boolc, false, "!", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		return object.Bool(!args[0].AsBool()), true
	})
}

// registerNull installs nothing beyond Object's default toString/==,
// which already render "null" and compare correctly; the function
// exists so bootstrap.go's registration list stays one line per
// built-in class even where a class adds no methods of its own.
func registerNull(v *vm.VM, cls *classes) {}
