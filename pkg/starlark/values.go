package starlark

import (
	"math"

	"github.com/neurodesk/hublc/pkg/hubl"
	"go.starlark.net/starlark"
)

// maxSafeInteger bounds the numbers that convert to Starlark ints.
const maxSafeInteger = 1<<53 - 1

// ToStarlark converts a template value to a Starlark value. Integral
// numbers become ints, everything else keeps its natural counterpart.
func ToStarlark(val hubl.Value) starlark.Value {
	switch v := val.(type) {
	case nil, hubl.NoneValue:
		return starlark.None
	case hubl.StringValue:
		return starlark.String(string(v))
	case hubl.NumberValue:
		f := float64(v)
		if f == math.Trunc(f) && math.Abs(f) <= maxSafeInteger {
			return starlark.MakeInt64(int64(f))
		}
		return starlark.Float(f)
	case hubl.BoolValue:
		return starlark.Bool(bool(v))
	case *hubl.ListValue:
		items := make([]starlark.Value, len(v.Items))
		for i, item := range v.Items {
			items[i] = ToStarlark(item)
		}
		return starlark.NewList(items)
	case *hubl.DictValue:
		dict := starlark.NewDict(v.Len())
		for _, key := range v.Keys() {
			item, _ := v.Get(key)
			dict.SetKey(starlark.String(key), ToStarlark(item))
		}
		return dict
	default:
		return starlark.String(val.String())
	}
}

// FromStarlark converts a Starlark value to a template value. Tuples become
// lists, non-string dict keys use their Starlark representation and any
// other value is rendered as a string.
func FromStarlark(val starlark.Value) hubl.Value {
	switch v := val.(type) {
	case nil, starlark.NoneType:
		return hubl.NoneValue{}
	case starlark.String:
		return hubl.StringValue(string(v))
	case starlark.Int:
		if i, ok := v.Int64(); ok {
			return hubl.NumberValue(float64(i))
		}
		return hubl.NumberValue(float64(v.Float()))
	case starlark.Float:
		return hubl.NumberValue(float64(v))
	case starlark.Bool:
		return hubl.BoolValue(bool(v))
	case *starlark.List:
		items := make([]hubl.Value, v.Len())
		for i := range v.Len() {
			items[i] = FromStarlark(v.Index(i))
		}
		return hubl.NewList(items...)
	case starlark.Tuple:
		items := make([]hubl.Value, len(v))
		for i, item := range v {
			items[i] = FromStarlark(item)
		}
		return hubl.NewList(items...)
	case *starlark.Dict:
		dict := hubl.NewDict()
		for _, item := range v.Items() {
			key, ok := starlark.AsString(item[0])
			if !ok {
				key = item[0].String()
			}
			dict.Set(key, FromStarlark(item[1]))
		}
		return dict
	default:
		return hubl.StringValue(val.String())
	}
}
