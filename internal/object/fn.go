package object

// UpvalueDesc describes one upvalue captured by a closure created
// from this Fn (spec.md §4.5.5): IsEnclosingLocal true means "capture
// the enclosing compile unit's local at Index"; false means "capture
// the enclosing unit's own upvalue at Index".
type UpvalueDesc struct {
	IsEnclosingLocal bool
	Index            int
}

// Fn is a compiled function: bytecode, constants, and enough metadata
// for the interpreter to size a call frame (spec.md §3, ObjFn).
type Fn struct {
	ObjHeader
	Name          string
	Code          []byte
	Constants     []Value
	Lines         []int // aligned 1:1 with Code, optional (nil if stripped)
	Module        *Module
	MaxStackSlots int
	UpvalueCount  int
	ArgCount      int
	Upvalues      []UpvalueDesc
}

func NewFn(module *Module, name string) *Fn {
	return &Fn{ObjHeader: ObjHeader{Kind: KindFn}, Name: name, Module: module}
}
