// Package vm implements Lumen's bytecode interpreter: the fiber
// dispatch loop, call-frame management, and the mark-and-sweep
// collector that owns every heap object's lifetime (spec.md §4.4,
// §4.5–§4.6).
//
// Grounded on the teacher's internal/vm package for general shape
// (a VM struct gating all interpreter state, module map, a
// reallocate-style central allocation path) and on
// original_source/c9/m/gc/gc.c for the collector itself, which this
// package follows function-for-function (grayObject/grayValue,
// blackClass/blackClosure/blackThread/..., startGC) translated from
// the source's isDark/allObjects linked list into Go's ObjHeader.Marked
// / ObjHeader.Next fields.
package vm

import (
	"io"
	"os"

	"lumen/internal/object"
)

// Config holds the GC's tunable heap-growth parameters (spec.md §4.4).
type Config struct {
	HeapGrowthFactor float64
	MinHeapSize      int64
}

func DefaultConfig() Config {
	return Config{HeapGrowthFactor: 2.0, MinHeapSize: 1 << 20}
}

// VM is the top-level interpreter state: every module ever loaded,
// the global method-name symbol table shared by every class, the
// currently-running fiber, and the garbage collector's bookkeeping
// (spec.md §4.4's root set, §4.5.3's method-name symbols).
type VM struct {
	Modules     map[string]*object.Module
	MethodNames *object.SymbolTable

	CurrentFiber *object.Fiber

	// CompilingUnit, when non-nil, roots the in-flight compile unit
	// chain so the collector can run mid-compile (spec.md §4.4's
	// "if a compilation is in flight" root).
	CompilingUnit GrayRoot

	// CoreModule holds every built-in class as a module variable
	// (Object, Class, Num, Bool, Null, String, List, Map, Range, Fn,
	// Fiber, System, …). Every newly loaded user module starts as a
	// copy of these bindings, the way Wren-family languages implicitly
	// import their core library into every module (spec.md §4.5.1
	// point 5 assumes these names already resolve, never forward-
	// declare).
	CoreModule *object.Module
	Core       CoreClasses

	allObjects     object.Object
	tmpRoots       []object.Object
	gray           []object.Object
	allocatedBytes int64
	nextGC         int64
	config         Config

	nextObjectID uint64

	// Stdout is where System.print/System.writeString write
	// (spec.md §4, SPEC_FULL §4 "System.writeString / System.print").
	Stdout io.Writer

	// RootDir is the substring up to and including the last '/' in the
	// entry script's path (spec.md §4's "Root lookup"), used to resolve
	// a relative `import "path";` module path against the script's own
	// directory rather than the process's working directory.
	RootDir string
}

// CoreClasses caches every built-in class so the interpreter's
// ClassOf and runtime class-creation paths don't need to look them up
// by name through a module variable table on every dispatch.
type CoreClasses struct {
	ObjectClass *object.Class
	ClassClass  *object.Class // the meta-cycle root (spec.md §3, §8 property 10)
	NumClass    *object.Class
	BoolClass   *object.Class
	NullClass   *object.Class
	StringClass *object.Class
	ListClass   *object.Class
	MapClass    *object.Class
	RangeClass  *object.Class
	FnClass     *object.Class
	FiberClass  *object.Class
	SystemClass *object.Class
}

// ClassOf returns the class that method dispatch on v routes to
// (spec.md §4.6.1 point 2): numbers, booleans and null all route to
// their built-in class, everything else carries its class in its
// object header.
func (vm *VM) ClassOf(v object.Value) *object.Class {
	switch {
	case v.IsNumber():
		return vm.Core.NumClass
	case v.IsBool():
		return vm.Core.BoolClass
	case v.IsNull():
		return vm.Core.NullClass
	case v.IsObject():
		if o := v.AsObject(); o != nil {
			if h := o.Header(); h.Class != nil {
				return h.Class
			}
		}
	}
	return vm.Core.ObjectClass
}

// NewUserModule creates a module for a loaded script, pre-populated
// with every core class binding so a script never needs to forward-
// declare `List`, `Map`, `Object`, … (spec.md §4.5.1 point 5 and
// SPEC_FULL's "implicit core import").
func (vm *VM) NewUserModule(name *object.String) *object.Module {
	m := vm.NewModule(name)
	if vm.CoreModule != nil {
		for i := 0; i < vm.CoreModule.Variables.Len(); i++ {
			idx := m.Declare(vm.CoreModule.Variables.Name(i))
			m.SetVariableAt(idx, vm.CoreModule.VariableAt(i))
		}
	}
	return m
}

// GrayRoot is implemented by anything the compiler needs to protect
// across a collection while it isn't otherwise reachable (a compile
// unit under construction, spec.md §4.4).
type GrayRoot interface {
	GrayRoots() []object.Object
}

func New() *VM {
	cfg := DefaultConfig()
	return &VM{
		Modules:     make(map[string]*object.Module),
		MethodNames: object.NewSymbolTable(),
		config:      cfg,
		nextGC:      cfg.MinHeapSize,
		Stdout:      os.Stdout,
	}
}

// PushTempRoot protects obj from collection until the matching
// PopTempRoot, for objects under construction that aren't yet
// reachable from any other root (spec.md §4.4's invariant).
func (vm *VM) PushTempRoot(obj object.Object) {
	vm.tmpRoots = append(vm.tmpRoots, obj)
}

func (vm *VM) PopTempRoot() {
	vm.tmpRoots = vm.tmpRoots[:len(vm.tmpRoots)-1]
}

// link threads obj into the all-objects list and assigns it an
// identity id, satisfying "an object appears in the all-objects list
// from allocation until sweep collects it" (spec.md §4.4).
func (vm *VM) link(obj object.Object) {
	h := obj.Header()
	vm.nextObjectID++
	h.ID = vm.nextObjectID
	h.Next = vm.allObjects
	vm.allObjects = obj
}

// track records a new allocation's size and runs the collector if the
// threshold has been crossed (spec.md §4.4's trigger and §4.4's "never
// frees the object it is currently returning" — satisfied by holding
// obj as a temp root for the duration of the collection track itself
// runs; a collection triggered by a later allocation does not see it
// as a root).
func (vm *VM) track(obj object.Object, size int64) {
	vm.link(obj)
	vm.allocatedBytes += size
	if vm.allocatedBytes > vm.nextGC {
		vm.PushTempRoot(obj)
		vm.CollectGarbage()
		vm.PopTempRoot()
	}
}
