package object

// Instance is an object of a user-defined class: a header (whose
// ObjHeader.Class names its class) plus an inline field array sized
// to the class's full inherited field count (spec.md §3, ObjInstance).
type Instance struct {
	ObjHeader
	Fields []Value
}

func NewInstance(class *Class) *Instance {
	fields := make([]Value, class.FieldCount)
	for i := range fields {
		fields[i] = Null
	}
	return &Instance{ObjHeader: ObjHeader{Kind: KindInstance, Class: class}, Fields: fields}
}
