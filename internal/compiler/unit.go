package compiler

import (
	"lumen/internal/object"
)

const maxLocals = 256

// Local is one entry in a compile unit's local-variable array (spec.md
// §4.5, "Compile unit").
type Local struct {
	Name       string
	Depth      int
	IsUpvalue  bool
	IsMutable  bool
}

// loop holds the bookkeeping needed to patch `break`/`continue` once a
// loop's body has been compiled (spec.md §4.5.4).
type loop struct {
	start      int // byte offset of the condition, for `continue`'s LOOP
	scopeDepth int
	enclosing  *loop
	breaks     []int // offsets of END placeholders awaiting a JUMP patch
}

// classBookkeeping tracks the class currently being compiled so method
// bodies can resolve instance/static fields and `this`/`super` (spec.md
// §4.5.1 points 3–4).
type classBookkeeping struct {
	name          string
	fields        *object.SymbolTable // instance field name -> index, relative to this class's own base
	staticFields  map[string]bool     // static field names declared directly in the class body
	inStatic      bool
	signature     *Signature // signature of the method currently being compiled (for bare `super(...)`)
	enclosing     *classBookkeeping
	pendingParams []string // parameter names parsed by parseMethodSignature, awaiting declareLocal in the method's own unit
}

// staticFieldModuleName returns the mangled module-variable name a
// static field is stored under (spec.md §4.5.1 point 4).
func staticFieldModuleName(className, field string) string {
	return "Cls" + className + " " + field
}

// unit is one compile unit: one per function, method, or module body
// (spec.md §4.5).
type unit struct {
	fn        *object.Fn
	parent    *unit
	locals    []Local
	upvalues  []object.UpvalueDesc
	scopeDepth int // -1 at module scope, 0 at function top, deeper within blocks
	stackSlots int
	peakSlots  int
	loop       *loop
	class      *classBookkeeping
	isMethod   bool
}

func newUnit(fn *object.Fn, parent *unit, scopeDepth int) *unit {
	u := &unit{fn: fn, parent: parent, scopeDepth: scopeDepth}
	if parent != nil {
		u.class = parent.class
	}
	return u
}

func (u *unit) growStack(by int) {
	u.stackSlots += by
	if u.stackSlots > u.peakSlots {
		u.peakSlots = u.stackSlots
	}
}

// GrayRoots implements vm.GrayRoot so the collector can protect the
// fn under construction and every enclosing unit's fn while a
// compilation is in flight (spec.md §4.4).
func (u *unit) GrayRoots() []object.Object {
	var roots []object.Object
	for cu := u; cu != nil; cu = cu.parent {
		if cu.fn != nil {
			roots = append(roots, cu.fn)
		}
	}
	return roots
}
