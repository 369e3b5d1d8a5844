package hubl

import (
	"crypto/md5"
	"encoding/hex"
	"time"
)

// now is replaced in tests.
var now = time.Now

func miscFilters() []Filter {
	return []Filter{
		{Name: "bool", Fn: func(val Value, _ []Value) (Value, error) {
			return BoolValue(val.Truth()), nil
		}},
		{Name: "default", Fn: func(val Value, args []Value) (Value, error) {
			switch t := val.(type) {
			case NoneValue:
				return arg(args, 0), nil
			case StringValue:
				if t == "" {
					return arg(args, 0), nil
				}
			}
			return val, nil
		}},
		{Name: "md5", Deferred: func(val Value, _ []Value) *Deferred {
			text := val.String()
			return Defer(func() (Value, error) {
				sum := md5.Sum([]byte(text))
				return StringValue(hex.EncodeToString(sum[:])), nil
			})
		}},
		{Name: "safe", Fn: func(val Value, _ []Value) (Value, error) {
			return val, nil
		}},
		{Name: "string", Fn: func(val Value, _ []Value) (Value, error) {
			return StringValue(val.String()), nil
		}},
		{Name: "today", Fn: func(Value, []Value) (Value, error) {
			return StringValue(now().UTC().Format(time.DateOnly)), nil
		}},
		{Name: "tojson", Fn: func(val Value, _ []Value) (Value, error) {
			return StringValue(ToJSON(val)), nil
		}},
		{Name: "type", Fn: func(val Value, _ []Value) (Value, error) {
			if val.Kind() == KindNone {
				// typeof null
				return StringValue(KindDict.String()), nil
			}
			return StringValue(val.Kind().String()), nil
		}},
		{Name: "unixtimestamp", Fn: func(Value, []Value) (Value, error) {
			return NumberValue(float64(now().Unix())), nil
		}},
	}
}
