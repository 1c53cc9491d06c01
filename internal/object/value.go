// Package object implements Lumen's value and object model (spec.md
// §3–§4.1): the tagged Value union, the common object header every
// heap object carries, and the built-in object kinds (class, closure,
// fiber, function, instance, list, map, module, range, string,
// upvalue).
//
// Grounded on the teacher's internal/vm/value.go (a bare `type Value
// interface{}`) generalized to the tagged union spec.md §3 describes,
// and on internal/vmregister/value.go's object catalog (ObjectType,
// Object header with Marked/Next, Class/Instance/Fiber structs) for
// which kinds of heap object exist and what each one owns — but
// without that file's NaN-boxing/unsafe.Pointer representation, which
// fights Go's own GC (it keeps a side-table, globalObjectCache,
// purely to stop Go from collecting pointers it just hid from Go's
// collector). Lumen's heap objects are ordinary Go pointers held
// through a Object interface; the mark-and-sweep collector in
// internal/vm/gc.go is a bookkeeping simulation layered on top, which
// is the whole pedagogical point of the exercise (spec.md §1 calls
// this "an educational implementation").
package object

import "math"

// Kind tags a Value's variant.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindUndefined // map sentinel only, never user-visible (spec.md §3)
	KindNumber
	KindObject
)

// Value is Lumen's tagged union.
type Value struct {
	kind Kind
	num  float64
	b    bool
	obj  Object
}

var Null = Value{kind: KindNull}
var True = Value{kind: KindBool, b: true}
var False = Value{kind: KindBool, b: false}
var Undefined = Value{kind: KindUndefined}

func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

func Obj(o Object) Value { return Value{kind: KindObject, obj: o} }

func (v Value) IsNull() bool      { return v.kind == KindNull }
func (v Value) IsBool() bool      { return v.kind == KindBool }
func (v Value) IsUndefined() bool { return v.kind == KindUndefined }
func (v Value) IsNumber() bool    { return v.kind == KindNumber }
func (v Value) IsObject() bool    { return v.kind == KindObject }

func (v Value) AsBool() bool     { return v.b }
func (v Value) AsNumber() float64 { return v.num }
func (v Value) AsObject() Object  { return v.obj }

// IsFalsey implements Lumen truthiness: only null and false are falsey.
func (v Value) IsFalsey() bool {
	return v.kind == KindNull || (v.kind == KindBool && !v.b)
}

func (v Value) ObjKind() ObjKind {
	if v.kind != KindObject || v.obj == nil {
		return 0
	}
	return v.obj.Header().Kind
}

// Equal implements spec.md §3's equality table.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull, KindUndefined:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return math.Float64bits(a.num) == math.Float64bits(b.num)
	case KindObject:
		return objectsEqual(a.obj, b.obj)
	}
	return false
}

func objectsEqual(a, b Object) bool {
	if a == nil || b == nil {
		return a == b
	}
	ha, hb := a.Header(), b.Header()
	if ha.Kind != hb.Kind {
		return false
	}
	switch ha.Kind {
	case KindString:
		as, bs := a.(*String), b.(*String)
		return as.Hash == bs.Hash && as.Value == bs.Value
	case KindRange:
		ar, br := a.(*Range), b.(*Range)
		return ar.From == br.From && ar.To == br.To
	default:
		return a == b
	}
}

// Hash implements spec.md §4.2's per-type hash functions.
func Hash(v Value) uint64 {
	switch v.kind {
	case KindNull:
		return 0x1
	case KindBool:
		if v.b {
			return 0x3
		}
		return 0x2
	case KindUndefined:
		return 0x0
	case KindNumber:
		bits := math.Float64bits(v.num)
		return uint64(uint32(bits)) ^ uint64(uint32(bits>>32))
	case KindObject:
		return hashObject(v.obj)
	}
	return 0
}

func hashObject(o Object) uint64 {
	switch h := o.Header(); h.Kind {
	case KindString:
		return o.(*String).Hash
	case KindRange:
		r := o.(*Range)
		return hashInt(r.From) ^ hashInt(r.To)
	case KindClass:
		return Hash(Obj(o.(*Class).Name))
	default:
		// Identity hash for everything else, keyed by allocation order
		// (see ObjHeader.ID) rather than a pointer bit pattern.
		return hashInt(int64(h.ID))
	}
}

func hashInt(n int64) uint64 {
	u := uint64(n)
	return uint64(uint32(u)) ^ uint64(uint32(u>>32))
}

// ToNumber coerces a value the way the arithmetic primitives need: it
// never succeeds for non-numbers, callers must check IsNumber first.
func (v Value) ToNumber() float64 { return v.num }
