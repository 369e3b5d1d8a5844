package hubl

import (
	"fmt"
	"math"
)

// maxRangeLen bounds the lists built by range.
const maxRangeLen = 1 << 20

func mathFilters() []Filter {
	return []Filter{
		{Name: "abs", Fn: numeric(math.Abs)},
		{Name: "add", Fn: func(val Value, args []Value) (Value, error) {
			return plus(val, arg(args, 0)), nil
		}},
		{Name: "divide", Fn: func(val Value, args []Value) (Value, error) {
			return NumberValue(toNumber(val) / toNumber(arg(args, 0))), nil
		}},
		{Name: "divisible", Fn: func(val Value, args []Value) (Value, error) {
			return BoolValue(math.Mod(toNumber(val), toNumber(arg(args, 0))) == 0), nil
		}},
		{Name: "float", Fn: func(val Value, _ []Value) (Value, error) {
			return NumberValue(parseLeadingFloat(val.String())), nil
		}},
		{Name: "int", Fn: func(val Value, _ []Value) (Value, error) {
			return NumberValue(parseLeadingInt(val.String())), nil
		}},
		{Name: "log", Fn: numeric(math.Log)},
		{Name: "multiply", Fn: func(val Value, args []Value) (Value, error) {
			return NumberValue(toNumber(val) * toNumber(arg(args, 0))), nil
		}},
		{Name: "range", Fn: func(val Value, args []Value) (Value, error) {
			n := toNumber(arg(args, 0)) - toNumber(val)
			if math.IsNaN(n) || n < 0 {
				n = 0
			}
			if n > maxRangeLen {
				return nil, fmt.Errorf("range: length %s exceeds %d", formatNumber(n), maxRangeLen)
			}
			out := make([]Value, int(n))
			for i := range out {
				out[i] = plus(val, NumberValue(float64(i)))
			}
			return NewList(out...), nil
		}},
		{Name: "round", Fn: numeric(func(f float64) float64 { return math.Floor(f + 0.5) })},
	}
}

func numeric(fn func(float64) float64) FilterFunc {
	return func(val Value, _ []Value) (Value, error) {
		return NumberValue(fn(toNumber(val))), nil
	}
}
