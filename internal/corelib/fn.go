package corelib

import (
	"strings"

	"lumen/internal/object"
	"lumen/internal/vm"
)

// maxCallArity bounds how many "call(_,…,_)" overloads get registered
// on Fn (spec.md §9, "Fn call as overloaded method") — 16 matches the
// CALL0..CALL16 opcode range (bytecode's maxCallArgs). The compiler does
// not itself reject a call site with more than 16 arguments.
const maxCallArity = 16

// registerFn binds every "call" / "call(_)" / … / "call(_,…,_)"
// overload directly to object.MethodFnCall: dispatch for these never
// goes through a Go function body (internal/vm/interpret.go's call()
// handles MethodFnCall itself, pushing a frame on the closure after an
// arity check), so there is no PrimitiveFn to write here — only the
// method table entries these call sites resolve to.
func registerFn(v *vm.VM, cls *classes) {
	for argc := 0; argc <= maxCallArity; argc++ {
		sig := callSignatureString(argc)
		symbol := v.MethodNames.Ensure(sig)
		cls.fn.BindMethod(symbol, object.Method{Kind: object.MethodFnCall})
	}
}

func callSignatureString(argc int) string {
	if argc == 0 {
		return "call()"
	}
	return "call(" + strings.Repeat("_,", argc-1) + "_)"
}
