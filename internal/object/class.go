package object

// MethodKind distinguishes how a bound method is implemented.
type MethodKind uint8

const (
	MethodNone MethodKind = iota
	MethodPrimitive
	MethodScript
	// MethodFnCall is the synthetic "call / call(_) / call(_,_) / …"
	// overload every closure answers to (spec.md §9, "Fn call as
	// overloaded method"): the receiver is itself an ObjClosure, and
	// dispatch pushes a frame exactly as for a script call after an
	// arity check.
	MethodFnCall
)

// PrimitiveFn is a method implemented directly in Go rather than in
// Lumen bytecode (spec.md §5, built-in classes). It receives the
// calling fiber (for error reporting and allocation bookkeeping) and
// the argument slots, args[0] being the receiver. A false return means
// either a runtime error occurred (the callee has left a description on
// f.Error) or the primitive switched the VM's current fiber (call,
// yield, suspend); in both cases the VM skips its normal stack collapse.
type PrimitiveFn func(f *Fiber, args []Value) (Value, bool)

// Method is one entry in a Class's method table.
type Method struct {
	Kind      MethodKind
	Primitive PrimitiveFn
	Closure   *Closure
}

// Class is both a runtime class object and, via ObjHeader.Class
// pointing at its metaclass, part of the class/meta-class cycle
// (spec.md §3, ObjClass and §4.4). Methods are stored in a table
// indexed by the VM's global method-name symbol id (spec.md §4.5.3),
// growing sparsely as new method symbols are bound.
type Class struct {
	ObjHeader
	Name       *String
	Super      *Class
	FieldCount int
	Methods    []Method
	IsBuiltin  bool
}

func NewClass(name *String, super *Class) *Class {
	c := &Class{ObjHeader: ObjHeader{Kind: KindClass}, Name: name, Super: super}
	if super != nil {
		c.FieldCount = super.FieldCount
	}
	return c
}

// BindMethod installs m at symbol, growing the method table as
// needed. A later bind to the same symbol silently overwrites the
// earlier one (spec.md §4.5.3's re-definition semantics).
func (c *Class) BindMethod(symbol int, m Method) {
	if symbol >= len(c.Methods) {
		grown := make([]Method, symbol+1)
		copy(grown, c.Methods)
		c.Methods = grown
	}
	c.Methods[symbol] = m
}

// MethodAt looks up symbol on c, walking Super if c doesn't define it
// (or defines it as MethodNone, meaning "inherited, not overridden").
func (c *Class) MethodAt(symbol int) (Method, bool) {
	for cls := c; cls != nil; cls = cls.Super {
		if symbol < len(cls.Methods) && cls.Methods[symbol].Kind != MethodNone {
			return cls.Methods[symbol], true
		}
	}
	return Method{}, false
}

func (c *Class) IsSubclassOf(other *Class) bool {
	for cls := c; cls != nil; cls = cls.Super {
		if cls == other {
			return true
		}
	}
	return false
}
