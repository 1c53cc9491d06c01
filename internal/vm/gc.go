package vm

import "lumen/internal/object"

// CollectGarbage runs one stop-the-world tri-color mark-and-sweep
// cycle (spec.md §4.4). It is a close translation of
// original_source/c9/m/gc/gc.c's startGC: gray the roots, drain the
// gray stack blackening as it goes (accumulating retained size into
// allocatedBytes exactly as the source's black* functions do), then
// sweep the all-objects list.
func (vm *VM) CollectGarbage() {
	vm.allocatedBytes = 0

	for _, m := range vm.Modules {
		vm.grayObject(m)
	}
	for _, root := range vm.tmpRoots {
		vm.grayObject(root)
	}
	vm.grayObject(vm.CurrentFiber)
	if vm.CompilingUnit != nil {
		for _, root := range vm.CompilingUnit.GrayRoots() {
			vm.grayObject(root)
		}
	}

	vm.blackenGray()
	vm.sweep()

	next := int64(float64(vm.allocatedBytes) * vm.config.HeapGrowthFactor)
	if next < vm.config.MinHeapSize {
		next = vm.config.MinHeapSize
	}
	vm.nextGC = next
}

// grayObject marks obj reachable and queues it for blackening. A
// nil interface or an already-marked object is a no-op.
func (vm *VM) grayObject(obj object.Object) {
	if obj == nil {
		return
	}
	h := obj.Header()
	if h.Marked {
		return
	}
	h.Marked = true
	vm.gray = append(vm.gray, obj)
}

func (vm *VM) grayValue(v object.Value) {
	if v.IsObject() {
		vm.grayObject(v.AsObject())
	}
}

func (vm *VM) blackenGray() {
	for len(vm.gray) > 0 {
		obj := vm.gray[len(vm.gray)-1]
		vm.gray = vm.gray[:len(vm.gray)-1]
		vm.blacken(obj)
	}
}

// blacken grays obj's subfields and accounts its retained size,
// dispatching on kind per spec.md §4.4's per-kind traversal table.
func (vm *VM) blacken(obj object.Object) {
	switch o := obj.(type) {
	case *object.Class:
		vm.grayObject(o.Header().Class) // meta-class
		vm.grayObject(o.Super)
		for _, m := range o.Methods {
			if m.Kind == object.MethodScript && m.Closure != nil {
				vm.grayObject(m.Closure)
			}
		}
		vm.grayObject(o.Name)
		vm.allocatedBytes += sizeofHeader + sizeofClass + int64(len(o.Methods))*sizeofMethod

	case *object.Closure:
		vm.grayObject(o.Fn)
		for _, uv := range o.Upvalues {
			vm.grayObject(uv)
		}
		vm.allocatedBytes += sizeofHeader + sizeofClosure + int64(len(o.Upvalues))*8

	case *object.Fiber:
		for _, fr := range o.Frames {
			vm.grayObject(fr.Closure)
		}
		for _, slot := range o.Stack {
			vm.grayValue(slot)
		}
		for uv := o.OpenUpvalues; uv != nil; uv = uv.Next {
			vm.grayObject(uv)
		}
		vm.grayObject(o.Caller)
		vm.grayValue(o.Error)
		vm.allocatedBytes += sizeofHeader + sizeofFiber + int64(len(o.Frames))*sizeofFrame + int64(cap(o.Stack))*sizeofValue

	case *object.Fn:
		for _, c := range o.Constants {
			vm.grayValue(c)
		}
		vm.allocatedBytes += sizeofHeader + sizeofFn + int64(len(o.Code)) + int64(len(o.Constants))*sizeofValue

	case *object.Instance:
		vm.grayObject(o.Header().Class)
		for _, f := range o.Fields {
			vm.grayValue(f)
		}
		vm.allocatedBytes += sizeofHeader + sizeofInstance + int64(len(o.Fields))*sizeofValue

	case *object.List:
		for _, e := range o.Elements {
			vm.grayValue(e)
		}
		vm.allocatedBytes += sizeofHeader + sizeofList + int64(cap(o.Elements))*sizeofValue

	case *object.Map:
		o.Each(func(k, v object.Value) {
			vm.grayValue(k)
			vm.grayValue(v)
		})
		vm.allocatedBytes += sizeofHeader + sizeofMap + int64(o.Capacity())*sizeofMapEntry

	case *object.Module:
		vm.grayObject(o.Name)
		for _, v := range o.Values {
			vm.grayValue(v)
		}
		vm.allocatedBytes += sizeofHeader + sizeofModule + int64(len(o.Values))*sizeofValue

	case *object.Range, *object.String:
		// No references; just account size (spec.md §4.4).
		if s, ok := obj.(*object.String); ok {
			vm.allocatedBytes += sizeofHeader + sizeofString + int64(len(s.Value)) + 1
		} else {
			vm.allocatedBytes += sizeofHeader + sizeofRange
		}

	case *object.Upvalue:
		if o.Closed {
			vm.grayValue(o.Value)
		}
		vm.allocatedBytes += sizeofHeader + sizeofUpvalue
	}
}

// sweep walks the all-objects list, freeing every unmarked object and
// clearing the mark bit on everything that survives (spec.md §4.4).
func (vm *VM) sweep() {
	link := &vm.allObjects
	for *link != nil {
		h := (*link).Header()
		if !h.Marked {
			*link = h.Next
			continue
		}
		h.Marked = false
		link = &h.Next
	}
}
