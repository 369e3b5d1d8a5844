package hubl

import (
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// Kind names the variant held by a Value.
type Kind int

const (
	KindNone Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindDict
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "array"
	case KindDict:
		return "object"
	}
	return "unknown"
}

// Value is a dynamically typed template datum. It defines string conversion
// and truthiness semantics. The set of implementations is closed.
type Value interface {
	String() string
	Truth() bool
	Kind() Kind
}

// NoneValue represents null and the absence of a value.
type NoneValue struct{}

func (NoneValue) String() string { return "null" }
func (NoneValue) Truth() bool    { return false }
func (NoneValue) Kind() Kind     { return KindNone }

// BoolValue wraps a boolean.
type BoolValue bool

func (b BoolValue) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (b BoolValue) Truth() bool { return bool(b) }
func (BoolValue) Kind() Kind    { return KindBool }

// NumberValue wraps a float64. Templates have a single numeric type.
type NumberValue float64

func (n NumberValue) String() string { return formatNumber(float64(n)) }
func (n NumberValue) Truth() bool {
	f := float64(n)
	return f != 0 && !math.IsNaN(f)
}
func (NumberValue) Kind() Kind { return KindNumber }

// StringValue wraps a string.
type StringValue string

func (s StringValue) String() string { return string(s) }
func (s StringValue) Truth() bool    { return len(s) > 0 }
func (StringValue) Kind() Kind       { return KindString }

// ListValue is an ordered sequence. It is always handled by pointer so that
// mutating filters are visible through every reference to the list.
type ListValue struct {
	Items []Value
}

// NewList returns a list holding items.
func NewList(items ...Value) *ListValue {
	if items == nil {
		items = []Value{}
	}
	return &ListValue{Items: items}
}

// String joins the elements with commas; null elements render empty.
func (l *ListValue) String() string {
	var b strings.Builder
	for i, v := range l.Items {
		if i > 0 {
			b.WriteByte(',')
		}
		if _, ok := v.(NoneValue); ok {
			continue
		}
		b.WriteString(v.String())
	}
	return b.String()
}
func (l *ListValue) Truth() bool { return true }
func (*ListValue) Kind() Kind    { return KindList }

// Len returns the number of elements.
func (l *ListValue) Len() int { return len(l.Items) }

// DictValue is a string-keyed mapping that remembers insertion order.
type DictValue struct {
	keys []string
	m    map[string]Value
}

// NewDict returns an empty dictionary.
func NewDict() *DictValue {
	return &DictValue{m: map[string]Value{}}
}

func (d *DictValue) String() string { return "[object Object]" }
func (d *DictValue) Truth() bool    { return true }
func (*DictValue) Kind() Kind       { return KindDict }

// Get returns the value stored under key.
func (d *DictValue) Get(key string) (Value, bool) {
	v, ok := d.m[key]
	return v, ok
}

// Set stores v under key, keeping the original position of existing keys.
func (d *DictValue) Set(key string, v Value) {
	if _, ok := d.m[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.m[key] = v
}

// Keys returns the keys in insertion order.
func (d *DictValue) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Len returns the number of entries.
func (d *DictValue) Len() int { return len(d.keys) }

// formatNumber renders a float the way template output expects: integers
// without a fraction, shortest round-trip form otherwise, and exponent
// notation for very large or very small magnitudes.
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		// Go pads exponents to two digits; templates do not.
		s = strings.Replace(s, "e+0", "e+", 1)
		s = strings.Replace(s, "e-0", "e-", 1)
		return s
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// FromGo converts a Go value to a Value. Maps and slices are converted
// recursively; map keys are visited in sorted order.
func FromGo(v any) Value {
	if v == nil {
		return NoneValue{}
	}
	switch t := v.(type) {
	case Value:
		return t
	case string:
		return StringValue(t)
	case bool:
		return BoolValue(t)
	case int:
		return NumberValue(float64(t))
	case int32:
		return NumberValue(float64(t))
	case int64:
		return NumberValue(float64(t))
	case uint64:
		return NumberValue(float64(t))
	case float32:
		return NumberValue(float64(t))
	case float64:
		return NumberValue(t)
	case []byte:
		return StringValue(string(t))
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		n := rv.Len()
		out := make([]Value, 0, n)
		for i := 0; i < n; i++ {
			out = append(out, FromGo(rv.Index(i).Interface()))
		}
		return NewList(out...)
	case reflect.Map:
		byName := make(map[string]reflect.Value, rv.Len())
		names := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			name := fmt.Sprint(k.Interface())
			byName[name] = rv.MapIndex(k)
			names = append(names, name)
		}
		slices.Sort(names)
		out := NewDict()
		for _, name := range names {
			out.Set(name, FromGo(byName[name].Interface()))
		}
		return out
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return NoneValue{}
		}
		return FromGo(rv.Elem().Interface())
	}
	return StringValue(fmt.Sprintf("%v", v))
}

// ToGo converts a Value back into plain Go values.
func ToGo(v Value) any {
	switch t := v.(type) {
	case StringValue:
		return string(t)
	case NumberValue:
		return float64(t)
	case BoolValue:
		return bool(t)
	case *ListValue:
		out := make([]any, 0, len(t.Items))
		for _, it := range t.Items {
			out = append(out, ToGo(it))
		}
		return out
	case *DictValue:
		out := make(map[string]any, t.Len())
		for _, k := range t.keys {
			out[k] = ToGo(t.m[k])
		}
		return out
	}
	return nil
}

// strictEqual compares primitives by value and containers by identity.
func strictEqual(a, b Value) bool {
	switch x := a.(type) {
	case NumberValue:
		y, ok := b.(NumberValue)
		return ok && x == y
	case *ListValue:
		y, ok := b.(*ListValue)
		return ok && x == y
	case *DictValue:
		y, ok := b.(*DictValue)
		return ok && x == y
	}
	return a == b
}

// sameValueZero is strictEqual except that NaN equals NaN.
func sameValueZero(a, b Value) bool {
	x, ok1 := a.(NumberValue)
	y, ok2 := b.(NumberValue)
	if ok1 && ok2 && math.IsNaN(float64(x)) && math.IsNaN(float64(y)) {
		return true
	}
	return strictEqual(a, b)
}

// deepCopy returns a structurally equal value that shares no containers
// with v.
func deepCopy(v Value) Value {
	switch t := v.(type) {
	case *ListValue:
		out := make([]Value, len(t.Items))
		for i, it := range t.Items {
			out[i] = deepCopy(it)
		}
		return NewList(out...)
	case *DictValue:
		out := NewDict()
		for _, k := range t.keys {
			out.Set(k, deepCopy(t.m[k]))
		}
		return out
	}
	return v
}
