package vm

import "lumen/internal/object"

// sizeof estimates are deliberately approximate accounting, mirroring
// the source's sizeof(Struct) + capacity*elemSize bookkeeping
// (original_source/c9/m/gc/gc.c's black* functions); Go's own
// allocator does the real memory management, this number only drives
// when CollectGarbage runs.
const (
	sizeofHeader  = 40
	sizeofValue   = 24
	sizeofFn      = 96
	sizeofClosure = 32
	sizeofFiber   = 96
	sizeofFrame   = 24
	sizeofClass   = 64
	sizeofMethod  = 40
	sizeofInstance = 16
	sizeofList    = 24
	sizeofMap     = 24
	sizeofMapEntry = 48
	sizeofModule  = 32
	sizeofRange   = 32
	sizeofString  = 32
	sizeofUpvalue = 40
)

func (vm *VM) NewString(s string) *object.String {
	o := object.NewString(s)
	o.Class = vm.Core.StringClass
	vm.track(o, sizeofHeader+sizeofString+int64(len(s))+1)
	return o
}

func (vm *VM) NewList() *object.List {
	o := object.NewList()
	o.Class = vm.Core.ListClass
	vm.track(o, sizeofHeader+sizeofList)
	return o
}

func (vm *VM) NewMap() *object.Map {
	o := object.NewMap()
	o.Class = vm.Core.MapClass
	vm.track(o, sizeofHeader+sizeofMap)
	return o
}

func (vm *VM) NewRange(from, to int64) *object.Range {
	o := object.NewRange(from, to)
	o.Class = vm.Core.RangeClass
	vm.track(o, sizeofHeader+sizeofRange)
	return o
}

func (vm *VM) NewInstance(class *object.Class) *object.Instance {
	o := object.NewInstance(class)
	vm.track(o, sizeofHeader+sizeofInstance+int64(len(o.Fields))*sizeofValue)
	return o
}

func (vm *VM) NewFn(module *object.Module, name string) *object.Fn {
	o := object.NewFn(module, name)
	vm.track(o, sizeofHeader+sizeofFn)
	return o
}

func (vm *VM) NewClosure(fn *object.Fn) *object.Closure {
	o := object.NewClosure(fn)
	o.Class = vm.Core.FnClass
	vm.track(o, sizeofHeader+sizeofClosure+int64(len(o.Upvalues))*8)
	return o
}

func (vm *VM) NewUpvalue(fiber *object.Fiber, slot int) *object.Upvalue {
	o := object.NewUpvalue(fiber, slot)
	vm.track(o, sizeofHeader+sizeofUpvalue)
	return o
}

func (vm *VM) NewClass(name *object.String, super *object.Class) *object.Class {
	o := object.NewClass(name, super)
	vm.track(o, sizeofHeader+sizeofClass)
	return o
}

func (vm *VM) NewModule(name *object.String) *object.Module {
	o := object.NewModule(name)
	vm.Modules[moduleKey(name)] = o
	vm.track(o, sizeofHeader+sizeofModule)
	return o
}

func (vm *VM) NewFiber(closure *object.Closure) *object.Fiber {
	o := object.NewFiber(closure)
	o.Class = vm.Core.FiberClass
	vm.track(o, sizeofHeader+sizeofFiber)
	return o
}

func moduleKey(name *object.String) string {
	if name == nil {
		return ""
	}
	return name.Value
}
