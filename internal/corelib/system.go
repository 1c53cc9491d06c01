package corelib

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"lumen/internal/compiler"
	"lumen/internal/lexer"
	"lumen/internal/object"
	"lumen/internal/vm"
)

// registerSystem installs the System.print / System.writeString /
// System.clock static methods SPEC_FULL.md §4 supplements from
// original_source's I/O builtins, writing through vm.Stdout so a host
// embedding the VM can capture output instead of inheriting os.Stdout
// (spec.md §6's CLI contract only names stdout/stderr for the
// top-level cmd/lumen binary, not the VM's own plumbing).
func registerSystem(v *vm.VM, cls *classes) {
	bindPrimitive(v, cls.system, true, "print(_)", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		fmt.Fprintln(v.Stdout, Stringify(args[1]))
		return args[1], true
	})
	bindPrimitive(v, cls.system, true, "writeString(_)", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		s, ok := args[1].AsObject().(*object.String)
		if !ok {
			v.RuntimeError(f, "System.writeString expects a String")
			return object.Null, false
		}
		fmt.Fprint(v.Stdout, s.Value)
		return args[1], true
	})
	bindPrimitive(v, cls.system, true, "clock", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		return object.Number(float64(time.Now().UnixNano()) / 1e9), true
	})

	bindPrimitive(v, cls.system, true, "import_(_)", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		pathArg, ok := args[1].AsObject().(*object.String)
		if !ok {
			v.RuntimeError(f, "import path must be a String")
			return object.Null, false
		}
		resolved := filepath.Join(v.RootDir, pathArg.Value)

		if m, ok := v.Modules[resolved]; ok {
			return object.Obj(m), true
		}

		source, err := os.ReadFile(resolved)
		if err != nil {
			v.RuntimeError(f, "could not read module '%s': %v", pathArg.Value, err)
			return object.Null, false
		}
		tokens, err := lexer.Scan(resolved, string(source))
		if err != nil {
			v.RuntimeError(f, "%v", err)
			return object.Null, false
		}
		module := v.NewUserModule(v.NewString(resolved))
		fn, err := compiler.Compile(v, module, resolved, tokens)
		if err != nil {
			v.RuntimeError(f, "%v", err)
			return object.Null, false
		}
		v.Modules[resolved] = module

		closure := v.NewClosure(fn)
		child := v.NewFiber(closure)
		child.Started = true
		if err := v.RunModule(child); err != nil {
			return object.Null, false
		}
		if !child.Error.IsNull() {
			f.Error = child.Error
			return object.Null, false
		}
		return object.Obj(module), true
	})
}
