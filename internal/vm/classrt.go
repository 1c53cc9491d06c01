package vm

import (
	"lumen/internal/bytecode"
	"lumen/internal/object"
)

// CreateClass implements the CREATE_CLASS opcode (spec.md §4.6.5):
// validate the super-class, allocate the new class together with its
// meta-class, copy down inherited methods and field count.
func (vm *VM) CreateClass(fiber *object.Fiber, name *object.String, super *object.Class, ownFields int) (*object.Class, bool) {
	if super == nil {
		vm.RuntimeError(fiber, "superclass must be a class")
		return nil, false
	}
	if super.IsBuiltin {
		vm.RuntimeError(fiber, "'%s' cannot inherit from built-in class '%s'", name.Value, super.Name.Value)
		return nil, false
	}
	if ownFields+super.FieldCount > MaxFields {
		vm.RuntimeError(fiber, "class '%s' has too many fields (own %d + inherited %d > %d)", name.Value, ownFields, super.FieldCount, MaxFields)
		return nil, false
	}

	class := vm.NewClass(name, super)
	class.FieldCount = ownFields + super.FieldCount
	class.Methods = append([]object.Method(nil), super.Methods...)

	metaName := vm.NewString(name.Value + " metaclass")
	meta := vm.NewClass(metaName, super.Header().Class)
	class.Header().Class = meta

	return class, true
}

// BindMethod implements INSTANCE_METHOD/STATIC_METHOD (spec.md
// §4.5.4's "Class definition" and §4.5.7): instance methods bind onto
// the class itself; static methods — and constructors, which the
// compiler always emits as static since their receiver is the class
// value itself (spec.md §4.6.5's CONSTRUCT note) — bind onto its
// meta-class. Field-access operands inside the method's compiled code
// (and any nested CREATE_CLOSUREs) are patched by adding
// super.FieldCount, and every SUPER<N>'s reserved constant slot is
// overwritten with an index pointing at the super-class value
// (spec.md §4.5.7).
func (vm *VM) BindMethod(class *object.Class, symbol int, static bool, closure *object.Closure) {
	target := class
	if static {
		target = class.Header().Class
	}
	patchOperands(closure.Fn, class.Super.FieldCount, class.Super)
	target.BindMethod(symbol, object.Method{Kind: object.MethodScript, Closure: closure})
}

// patchOperands walks fn's instruction stream once, adjusting field
// operands and super-class slots, then recurses into every nested
// CREATE_CLOSURE's constant fn so methods that themselves return or
// contain closures get patched too (spec.md §4.5.7, "patching
// recurses through nested CREATE_CLOSUREs").
func patchOperands(fn *object.Fn, fieldOffset int, super *object.Class) {
	superConstIdx := -1
	code := fn.Code
	for i := 0; i < len(code); {
		op := bytecode.Op(code[i])
		switch op {
		case bytecode.OpLoadField, bytecode.OpStoreField, bytecode.OpLoadThisField, bytecode.OpStoreThisField:
			if fieldOffset != 0 {
				code[i+1] = byte(int(code[i+1]) + fieldOffset)
			}
			i += 2
			continue
		case bytecode.OpCreateClosure:
			constIdx := int(code[i+1])<<8 | int(code[i+2])
			i += 3
			if constIdx >= 0 && constIdx < len(fn.Constants) {
				if inner, ok := fn.Constants[constIdx].AsObject().(*object.Fn); ok {
					i += 2 * len(inner.Upvalues)
				}
			}
			continue
		}
		if _, ok := bytecode.IsSuper(op); ok {
			if superConstIdx < 0 {
				fn.Constants = append(fn.Constants, object.Obj(super))
				superConstIdx = len(fn.Constants) - 1
			}
			code[i+3] = byte(superConstIdx >> 8)
			code[i+4] = byte(superConstIdx)
			i += 5
			continue
		}
		i += 1 + bytecode.OperandBytes(op)
	}
	for _, c := range fn.Constants {
		if c.IsObject() {
			if inner, ok := c.AsObject().(*object.Fn); ok {
				patchOperands(inner, fieldOffset, super)
			}
		}
	}
}
