package corelib

import (
	"math"
	"strconv"
	"strings"

	"lumen/internal/object"
)

// Stringify renders v the way System.print and List/String interpolation
// do (spec.md §4's string-interpolation desugar ends in "List.join()",
// which needs some way to turn an arbitrary joined element into text).
// Grounded on original_source's dtoa-style number formatting and the
// usual "collection prints its elements, recursively" convention common
// across Wren-family core libraries in the example pack.
func Stringify(v object.Value) string {
	switch {
	case v.IsNull():
		return "null"
	case v.IsBool():
		if v.AsBool() {
			return "true"
		}
		return "false"
	case v.IsNumber():
		return formatNumber(v.AsNumber())
	case v.IsObject():
		return stringifyObject(v.AsObject())
	}
	return ""
}

func formatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "nan"
	case math.IsInf(n, 1):
		return "infinity"
	case math.IsInf(n, -1):
		return "-infinity"
	case n == math.Trunc(n) && math.Abs(n) < 1e15:
		return strconv.FormatFloat(n, 'f', -1, 64)
	default:
		return strconv.FormatFloat(n, 'g', -1, 64)
	}
}

func stringifyObject(o object.Object) string {
	switch t := o.(type) {
	case *object.String:
		return t.Value
	case *object.Range:
		return strconv.FormatInt(t.From, 10) + ".." + strconv.FormatInt(t.To, 10)
	case *object.List:
		var b strings.Builder
		b.WriteByte('[')
		for i, e := range t.Elements {
			if i > 0 {
				b.WriteString(", ")
			}
			if e.IsObject() {
				if _, isStr := e.AsObject().(*object.String); isStr {
					b.WriteByte('"')
					b.WriteString(Stringify(e))
					b.WriteByte('"')
					continue
				}
			}
			b.WriteString(Stringify(e))
		}
		b.WriteByte(']')
		return b.String()
	case *object.Map:
		var b strings.Builder
		b.WriteByte('{')
		first := true
		t.Each(func(k, v object.Value) {
			if !first {
				b.WriteString(", ")
			}
			first = false
			b.WriteString(Stringify(k))
			b.WriteString(": ")
			b.WriteString(Stringify(v))
		})
		b.WriteByte('}')
		return b.String()
	case *object.Class:
		return t.Name.Value
	case *object.Closure:
		return "<fn " + t.Fn.Name + ">"
	case *object.Fiber:
		return "<fiber>"
	case *object.Instance:
		name := "instance"
		if t.Header().Class != nil {
			name = t.Header().Class.Name.Value
		}
		return "instance of " + name
	default:
		return "<object>"
	}
}
