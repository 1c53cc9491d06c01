package corelib

import (
	"lumen/internal/object"
	"lumen/internal/vm"
)

// registerString installs String's operators plus the UTF-8-aware
// extras SPEC_FULL.md §4 supplements from original_source's
// unicodeUtf8.c: `count` is a byte length, `[_]`/iterate/iteratorValue
// walk whole code points, and `bytes`/`codePointAt_(_)`/`fromCodePoint(_)`
// expose the raw byte view original_source's String class offers
// alongside the code-point view.
func registerString(v *vm.VM, cls *classes) {
	asString := func(f *object.Fiber, val object.Value) (*object.String, bool) {
		s, ok := val.AsObject().(*object.String)
		if !ok {
			v.RuntimeError(f, "value is not a String")
			return nil, false
		}
		return s, true
	}

	bindPrimitive(v, cls.str, false, "+(_)", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		a, ok := asString(f, args[0])
		if !ok {
			return object.Null, false
		}
		b, ok := asString(f, args[1])
		if !ok {
			return object.Null, false
		}
		return object.Obj(v.NewString(a.Value + b.Value)), true
	})

	bindPrimitive(v, cls.str, false, "count", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		s, ok := asString(f, args[0])
		if !ok {
			return object.Null, false
		}
		return object.Number(float64(len(s.Value))), true
	})

	bindPrimitive(v, cls.str, false, "[_]", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		s, ok := asString(f, args[0])
		if !ok {
			return object.Null, false
		}
		if !args[1].IsNumber() {
			v.RuntimeError(f, "string index must be a number")
			return object.Null, false
		}
		sub, ok := object.CodePointAt(s.Value, int(args[1].AsNumber()))
		if !ok {
			v.RuntimeError(f, "string index out of bounds")
			return object.Null, false
		}
		return object.Obj(v.NewString(sub)), true
	})

	bindPrimitive(v, cls.str, false, "iterate(_)", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		s, ok := asString(f, args[0])
		if !ok {
			return object.Null, false
		}
		total := object.CodePointCount(s.Value)
		var next int
		if args[1].IsNull() {
			next = 0
		} else {
			next = int(args[1].AsNumber()) + 1
		}
		if next >= total {
			return object.False, true
		}
		return object.Number(float64(next)), true
	})
	bindPrimitive(v, cls.str, false, "iteratorValue(_)", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		s, ok := asString(f, args[0])
		if !ok {
			return object.Null, false
		}
		sub, ok := object.CodePointAt(s.Value, int(args[1].AsNumber()))
		if !ok {
			v.RuntimeError(f, "string iterator out of bounds")
			return object.Null, false
		}
		return object.Obj(v.NewString(sub)), true
	})

	bindPrimitive(v, cls.str, false, "bytes", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		s, ok := asString(f, args[0])
		if !ok {
			return object.Null, false
		}
		list := v.NewList()
		for i := 0; i < len(s.Value); i++ {
			list.Add(object.Number(float64(s.Value[i])))
		}
		return object.Obj(list), true
	})

	bindPrimitive(v, cls.str, false, "codePointAt_(_)", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		s, ok := asString(f, args[0])
		if !ok {
			return object.Null, false
		}
		if !args[1].IsNumber() {
			v.RuntimeError(f, "byte offset must be a number")
			return object.Null, false
		}
		byteIdx := int(args[1].AsNumber())
		if byteIdx < 0 || byteIdx >= len(s.Value) {
			return object.Number(-1), true
		}
		cp := object.Decode([]byte(s.Value[byteIdx:]), len(s.Value)-byteIdx)
		return object.Number(float64(cp)), true
	})

	bindPrimitive(v, cls.str, true, "fromCodePoint(_)", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		if !args[1].IsNumber() {
			v.RuntimeError(f, "code point must be a number")
			return object.Null, false
		}
		cp := int(args[1].AsNumber())
		n := object.ByteCountToEncode(cp)
		if n == 0 {
			v.RuntimeError(f, "invalid code point %d", cp)
			return object.Null, false
		}
		buf := make([]byte, n)
		object.Encode(buf, cp)
		return object.Obj(v.NewString(string(buf))), true
	})

	bindPrimitive(v, cls.str, false, "contains(_)", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		s, ok := asString(f, args[0])
		if !ok {
			return object.Null, false
		}
		needle, ok := asString(f, args[1])
		if !ok {
			return object.Null, false
		}
		return object.Bool(object.BMHSearch(s.Value, needle.Value) >= 0), true
	})
}
