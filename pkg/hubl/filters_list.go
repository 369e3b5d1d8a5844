package hubl

import (
	"math/rand/v2"
	"slices"
	"strings"
	"unicode/utf8"
)

// Filters in this file that mutate (append, extend, pop, reverse, shuffle,
// sort) change the list in place and return the same *ListValue.

func listFilters() []Filter {
	return []Filter{
		{Name: "append", Fn: func(val Value, args []Value) (Value, error) {
			if l, ok := val.(*ListValue); ok {
				l.Items = append(l.Items, arg(args, 0))
			}
			return val, nil
		}},
		{Name: "clear", Fn: func(val Value, _ []Value) (Value, error) {
			if _, ok := val.(*ListValue); ok {
				return NewList(), nil
			}
			return val, nil
		}},
		{Name: "copy", Fn: func(val Value, _ []Value) (Value, error) {
			return deepCopy(val), nil
		}},
		{Name: "count", Fn: func(val Value, args []Value) (Value, error) {
			l, ok := val.(*ListValue)
			if !ok {
				return NumberValue(0), nil
			}
			want := arg(args, 0)
			n := 0
			for _, it := range l.Items {
				if strictEqual(it, want) {
					n++
				}
			}
			return NumberValue(float64(n)), nil
		}},
		{Name: "difference", Fn: func(val Value, args []Value) (Value, error) {
			l, ok := val.(*ListValue)
			if !ok {
				return nil, errUnsupportedKind("difference", val)
			}
			other, ok := arg(args, 0).(*ListValue)
			if !ok {
				return nil, errUnsupportedKind("difference", arg(args, 0))
			}
			out := NewList()
			for _, it := range l.Items {
				if !slices.ContainsFunc(other.Items, func(o Value) bool { return sameValueZero(it, o) }) {
					out.Items = append(out.Items, it)
				}
			}
			return out, nil
		}},
		{Name: "extend", Fn: func(val Value, args []Value) (Value, error) {
			l, ok := val.(*ListValue)
			more, ok2 := arg(args, 0).(*ListValue)
			if ok && ok2 {
				l.Items = append(l.Items, more.Items...)
			}
			return val, nil
		}},
		{Name: "first", Fn: func(val Value, _ []Value) (Value, error) {
			if l, ok := val.(*ListValue); ok {
				if len(l.Items) == 0 {
					return NoneValue{}, nil
				}
				return l.Items[0], nil
			}
			return val, nil
		}},
		{Name: "index", Fn: func(val Value, args []Value) (Value, error) {
			if l, ok := val.(*ListValue); ok {
				want := arg(args, 0)
				return NumberValue(float64(slices.IndexFunc(l.Items, func(v Value) bool { return strictEqual(v, want) }))), nil
			}
			return NumberValue(-1), nil
		}},
		{Name: "insert", Fn: func(val Value, args []Value) (Value, error) {
			l, ok := val.(*ListValue)
			if !ok {
				return val, nil
			}
			n := len(l.Items)
			_, at := sliceBounds(n, NumberValue(0), arg(args, 0), true)
			from, _ := sliceBounds(n, arg(args, 0), nil, false)
			out := make([]Value, 0, n+1)
			out = append(out, l.Items[:at]...)
			out = append(out, arg(args, 1))
			out = append(out, l.Items[from:]...)
			return NewList(out...), nil
		}},
		{Name: "join", Fn: func(val Value, args []Value) (Value, error) {
			l, ok := val.(*ListValue)
			if !ok {
				return val, nil
			}
			sep := ","
			if hasArg(args, 0) {
				sep = args[0].String()
			}
			parts := make([]string, len(l.Items))
			for i, it := range l.Items {
				if _, none := it.(NoneValue); !none {
					parts[i] = it.String()
				}
			}
			return StringValue(strings.Join(parts, sep)), nil
		}},
		{Name: "last", Fn: func(val Value, _ []Value) (Value, error) {
			if l, ok := val.(*ListValue); ok {
				if len(l.Items) == 0 {
					return NoneValue{}, nil
				}
				return l.Items[len(l.Items)-1], nil
			}
			return val, nil
		}},
		{Name: "length", Fn: func(val Value, _ []Value) (Value, error) {
			switch t := val.(type) {
			case StringValue:
				return NumberValue(float64(utf8.RuneCountInString(string(t)))), nil
			case *ListValue:
				return NumberValue(float64(len(t.Items))), nil
			}
			return nil, errUnsupportedKind("length", val)
		}},
		{Name: "list", Fn: func(val Value, _ []Value) (Value, error) {
			if _, ok := val.(*ListValue); ok {
				return val, nil
			}
			return NewList(val), nil
		}},
		{Name: "pop", Fn: func(val Value, _ []Value) (Value, error) {
			if l, ok := val.(*ListValue); ok && len(l.Items) > 0 {
				l.Items = l.Items[:len(l.Items)-1]
			}
			return val, nil
		}},
		{Name: "random", Fn: func(val Value, _ []Value) (Value, error) {
			if l, ok := val.(*ListValue); ok {
				if len(l.Items) == 0 {
					return NoneValue{}, nil
				}
				return l.Items[rand.IntN(len(l.Items))], nil
			}
			return val, nil
		}},
		{Name: "reverse", Fn: func(val Value, _ []Value) (Value, error) {
			switch t := val.(type) {
			case *ListValue:
				slices.Reverse(t.Items)
				return t, nil
			case StringValue:
				runes := []rune(string(t))
				slices.Reverse(runes)
				return StringValue(string(runes)), nil
			}
			return nil, errUnsupportedKind("reverse", val)
		}},
		{Name: "select", Fn: func(val Value, args []Value) (Value, error) {
			l, ok := val.(*ListValue)
			if !ok {
				return nil, errUnsupportedKind("select", val)
			}
			prop := arg(args, 0).String()
			out := make([]Value, len(l.Items))
			for i, it := range l.Items {
				out[i] = NoneValue{}
				if d, ok := it.(*DictValue); ok {
					if v, ok := d.Get(prop); ok {
						out[i] = v
					}
				}
			}
			return NewList(out...), nil
		}},
		{Name: "shuffle", Fn: func(val Value, _ []Value) (Value, error) {
			if l, ok := val.(*ListValue); ok {
				rand.Shuffle(len(l.Items), func(i, j int) { l.Items[i], l.Items[j] = l.Items[j], l.Items[i] })
			}
			return val, nil
		}},
		{Name: "slice", Fn: func(val Value, args []Value) (Value, error) {
			switch t := val.(type) {
			case StringValue:
				runes := []rune(string(t))
				from, to := sliceBounds(len(runes), arg(args, 0), arg(args, 1), hasArg(args, 1))
				return StringValue(string(runes[from:to])), nil
			case *ListValue:
				from, to := sliceBounds(len(t.Items), arg(args, 0), arg(args, 1), hasArg(args, 1))
				return NewList(slices.Clone(t.Items[from:to])...), nil
			}
			return nil, errUnsupportedKind("slice", val)
		}},
		{Name: "sort", Fn: func(val Value, _ []Value) (Value, error) {
			if l, ok := val.(*ListValue); ok {
				slices.SortStableFunc(l.Items, func(a, b Value) int {
					return strings.Compare(a.String(), b.String())
				})
			}
			return val, nil
		}},
		{Name: "sum", Fn: func(val Value, _ []Value) (Value, error) {
			l, ok := val.(*ListValue)
			if !ok {
				return val, nil
			}
			var acc Value = NumberValue(0)
			for _, it := range l.Items {
				acc = plus(acc, it)
			}
			return acc, nil
		}},
		{Name: "unique", Fn: func(val Value, _ []Value) (Value, error) {
			var items []Value
			switch t := val.(type) {
			case *ListValue:
				items = t.Items
			case StringValue:
				for _, r := range string(t) {
					items = append(items, StringValue(string(r)))
				}
			case NoneValue:
			default:
				return nil, errUnsupportedKind("unique", val)
			}
			out := NewList()
			for _, it := range items {
				if !slices.ContainsFunc(out.Items, func(o Value) bool { return sameValueZero(it, o) }) {
					out.Items = append(out.Items, it)
				}
			}
			return out, nil
		}},
	}
}
