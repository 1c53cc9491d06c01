package object

// Upvalue references a variable shared between a closure and the
// enclosing frame that declared it. While Open it aliases a live slot
// on some Fiber's stack; Close snapshots the slot's value so the
// upvalue survives after the frame returns (spec.md §3, ObjUpvalue,
// and §4.5.5's open/closed lifecycle).
type Upvalue struct {
	ObjHeader
	Fiber  *Fiber
	Slot   int
	Closed bool
	Value  Value

	// Next links this upvalue into its owning Fiber's open-upvalue
	// list, kept sorted by descending Slot so the first entry whose
	// Slot is below a given frame base marks where closing should
	// stop (spec.md §4.5.5).
	Next *Upvalue
}

func NewUpvalue(fiber *Fiber, slot int) *Upvalue {
	return &Upvalue{ObjHeader: ObjHeader{Kind: KindUpvalue}, Fiber: fiber, Slot: slot}
}

// Get reads the current value: the live stack slot if open, the
// snapshot if closed.
func (u *Upvalue) Get() Value {
	if u.Closed {
		return u.Value
	}
	return u.Fiber.Stack[u.Slot]
}

// Set writes through to the live stack slot if open, or to the
// snapshot if closed.
func (u *Upvalue) Set(v Value) {
	if u.Closed {
		u.Value = v
		return
	}
	u.Fiber.Stack[u.Slot] = v
}

// Close snapshots the current stack value and detaches this upvalue
// from its fiber; every closure sharing it keeps seeing the same
// Go pointer, so identity survives the transition (spec.md §4.5.5's
// shared-identity invariant).
func (u *Upvalue) Close() {
	if u.Closed {
		return
	}
	u.Value = u.Fiber.Stack[u.Slot]
	u.Closed = true
	u.Fiber = nil
	u.Next = nil
}

// Closure pairs a compiled Fn with the upvalues captured at the point
// it was created (spec.md §3, ObjClosure).
type Closure struct {
	ObjHeader
	Fn       *Fn
	Upvalues []*Upvalue
}

func NewClosure(fn *Fn) *Closure {
	return &Closure{
		ObjHeader: ObjHeader{Kind: KindClosure},
		Fn:        fn,
		Upvalues:  make([]*Upvalue, fn.UpvalueCount),
	}
}
