package corelib

import (
	"lumen/internal/object"
	"lumen/internal/vm"
)

// registerNum installs Num's arithmetic, comparison, bitwise and range
// operators (spec.md §4.5.2's operator-to-method-call desugar table):
// every infix operator except `==`/`!=` (Object's default value
// equality already covers numbers) and `is` (Object's type test)
// resolves to one of these.
func registerNum(v *vm.VM, cls *classes) {
	bindPrimitive(v, cls.num, false, "-", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		return object.Number(-args[0].AsNumber()), true
	})

	binOp := func(sig string, fn func(a, b float64) float64) {
		bindPrimitive(v, cls.num, false, sig, func(f *object.Fiber, args []object.Value) (object.Value, bool) {
			if !args[1].IsNumber() {
				v.RuntimeError(f, "right-hand side of '%s' must be a number", sig)
				return object.Null, false
			}
			return object.Number(fn(args[0].AsNumber(), args[1].AsNumber())), true
		})
	}
	cmpOp := func(sig string, fn func(a, b float64) bool) {
		bindPrimitive(v, cls.num, false, sig, func(f *object.Fiber, args []object.Value) (object.Value, bool) {
			if !args[1].IsNumber() {
				v.RuntimeError(f, "right-hand side of '%s' must be a number", sig)
				return object.Null, false
			}
			return object.Bool(fn(args[0].AsNumber(), args[1].AsNumber())), true
		})
	}

	binOp("+(_)", func(a, b float64) float64 { return a + b })
	binOp("-(_)", func(a, b float64) float64 { return a - b })
	binOp("*(_)", func(a, b float64) float64 { return a * b })
	binOp("/(_)", func(a, b float64) float64 { return a / b })
	binOp("%(_)", func(a, b float64) float64 {
		ai, bi := int64(a), int64(b)
		if bi == 0 {
			return 0
		}
		return float64(ai % bi)
	})
	binOp("&(_)", func(a, b float64) float64 { return float64(int64(a) & int64(b)) })
	binOp("|(_)", func(a, b float64) float64 { return float64(int64(a) | int64(b)) })
	binOp("<<(_)", func(a, b float64) float64 { return float64(int64(a) << uint(int64(b))) })
	binOp(">>(_)", func(a, b float64) float64 { return float64(int64(a) >> uint(int64(b))) })

	cmpOp(">(_)", func(a, b float64) bool { return a > b })
	cmpOp(">=(_)", func(a, b float64) bool { return a >= b })
	cmpOp("<(_)", func(a, b float64) bool { return a < b })
	cmpOp("<=(_)", func(a, b float64) bool { return a <= b })

	bindPrimitive(v, cls.num, false, "..(_)", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		if !args[1].IsNumber() {
			v.RuntimeError(f, "right-hand side of '..' must be a number")
			return object.Null, false
		}
		return object.Obj(v.NewRange(int64(args[0].AsNumber()), int64(args[1].AsNumber()))), true
	})
}
