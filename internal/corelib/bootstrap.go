// Package corelib builds Lumen's implicitly-imported core library: the
// Object/Class meta-class cycle and every built-in class's primitive
// methods (spec.md §3 "ObjClass and the meta-class cycle", §5's
// per-type method tables, and SPEC_FULL.md §4's supplemented
// reflection/IO/collection methods).
//
// Grounded on the teacher's internal/vmregister/stdlib.go: native
// functions there are registered as closures built from a *VM
// ("registerGlobal(name, &NativeFnObj{Function: func(args []Value)
// (Value, error) {...}})"), grouped one file per concern. corelib
// follows the same shape, but targets object.Method/PrimitiveFn
// (spec.md's class-bound dispatch) rather than the teacher's flat
// global-function namespace, since every Lumen primitive is a method
// on some built-in class rather than a bare native function.
package corelib

import (
	"lumen/internal/object"
	"lumen/internal/vm"
)

// classes collects every built-in class object so the per-concern
// register* functions (num.go, string.go, …) can reference each other
// (e.g. Map.iteratorValue needs to build a List pair).
type classes struct {
	object_ *object.Class
	class_  *object.Class
	num     *object.Class
	boolc   *object.Class
	null    *object.Class
	str     *object.Class
	list    *object.Class
	mapc    *object.Class
	rang    *object.Class
	fn      *object.Class
	fiber   *object.Class
	thread  *object.Class
	system  *object.Class
	db      *object.Class
	socket  *object.Class
}

// Bootstrap constructs the core module and every built-in class,
// wires their primitive methods, and installs the result as v.CoreModule
// / v.Core (spec.md §4.5.1 point 5's "implicit core import").
func Bootstrap(v *vm.VM) *object.Module {
	cls := buildClassCycle(v)

	registerObject(v, cls)
	registerClassReflection(v, cls)
	registerNum(v, cls)
	registerBool(v, cls)
	registerNull(v, cls)
	registerString(v, cls)
	registerList(v, cls)
	registerMap(v, cls)
	registerRange(v, cls)
	registerFn(v, cls)
	registerFiber(v, cls)
	registerSystem(v, cls)
	registerDb(v, cls)
	registerSocket(v, cls)

	v.Core = vm.CoreClasses{
		ObjectClass: cls.object_,
		ClassClass:  cls.class_,
		NumClass:    cls.num,
		BoolClass:   cls.boolc,
		NullClass:   cls.null,
		StringClass: cls.str,
		ListClass:   cls.list,
		MapClass:    cls.mapc,
		RangeClass:  cls.rang,
		FnClass:     cls.fn,
		FiberClass:  cls.fiber,
		SystemClass: cls.system,
	}

	module := v.NewModule(nil)
	define := func(name string, class *object.Class) {
		module.Define(name, object.Obj(class))
	}
	define("Object", cls.object_)
	define("Class", cls.class_)
	define("Num", cls.num)
	define("Bool", cls.boolc)
	define("Null", cls.null)
	define("String", cls.str)
	define("List", cls.list)
	define("Map", cls.mapc)
	define("Range", cls.rang)
	define("Fn", cls.fn)
	define("Fiber", cls.fiber)
	define("Thread", cls.thread)
	define("System", cls.system)
	define("Db", cls.db)
	define("WebSocket", cls.socket)

	v.CoreModule = module
	return module
}

// buildClassCycle builds the Object/Class meta-class cycle (spec.md
// §3, §8 property 10) and every other built-in class as a direct
// child of Object with its own meta-class, following the exact
// super.Header().Class-as-meta's-super convention internal/vm/classrt.go's
// CreateClass uses for user-defined classes (spec.md §4.5.7).
func buildClassCycle(v *vm.VM) *classes {
	object_ := v.NewClass(v.NewString("Object"), nil)
	object_.IsBuiltin = true

	class_ := v.NewClass(v.NewString("Class"), object_)
	class_.IsBuiltin = true
	class_.Header().Class = class_ // the meta-cycle's root points at itself.

	objectMeta := v.NewClass(v.NewString("Object metaclass"), class_)
	objectMeta.IsBuiltin = true
	object_.Header().Class = objectMeta

	newBuiltin := func(name string) *object.Class {
		c := v.NewClass(v.NewString(name), object_)
		c.IsBuiltin = true
		meta := v.NewClass(v.NewString(name+" metaclass"), object_.Header().Class)
		meta.IsBuiltin = true
		c.Header().Class = meta
		return c
	}

	cls := &classes{
		object_: object_,
		class_:  class_,
		num:     newBuiltin("Num"),
		boolc:   newBuiltin("Bool"),
		null:    newBuiltin("Null"),
		str:     newBuiltin("String"),
		list:    newBuiltin("List"),
		mapc:    newBuiltin("Map"),
		rang:    newBuiltin("Range"),
		fn:      newBuiltin("Fn"),
		fiber:   newBuiltin("Fiber"),
		thread:  newBuiltin("Thread"),
		system:  newBuiltin("System"),
		db:      newBuiltin("Db"),
		socket:  newBuiltin("WebSocket"),
	}

	// Db and WebSocket instances store their native connection
	// registry's key in field 0 (spec.md §3's ObjInstance has no room
	// for a raw Go pointer, only Value-typed fields).
	cls.db.FieldCount = 1
	cls.socket.FieldCount = 1

	return cls
}

// bindPrimitive installs fn under sig on class (or its meta-class, for
// a static/constructor method), interning sig into the VM's shared
// method-name symbol table exactly as the compiler's ensureMethodSymbol
// does for script-level method names (spec.md §4.5.3): the two sides
// must agree on the same symbol for a call site to resolve to this
// primitive.
func bindPrimitive(v *vm.VM, class *object.Class, static bool, sig string, fn object.PrimitiveFn) {
	symbol := v.MethodNames.Ensure(sig)
	target := class
	if static {
		target = class.Header().Class
	}
	target.BindMethod(symbol, object.Method{Kind: object.MethodPrimitive, Primitive: fn})
}

// arity reports a runtime error and returns false if args doesn't hold
// exactly the receiver plus want explicit arguments.
func arity(v *vm.VM, f *object.Fiber, args []object.Value, want int) bool {
	if len(args)-1 != want {
		v.RuntimeError(f, "expected %d argument(s), got %d", want, len(args)-1)
		return false
	}
	return true
}
