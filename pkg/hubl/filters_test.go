package hubl

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func apply(t *testing.T, name string, val Value, args ...Value) Value {
	t.Helper()
	out, err := DefaultFilters().Apply(name, val, args)
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", name, err)
	}
	return out
}

func list(items ...any) *ListValue {
	return FromGo(items).(*ListValue)
}

func TestFilterOutputs(t *testing.T) {
	cases := []struct {
		name string
		val  Value
		args []Value
		want string
	}{
		{"abs", NumberValue(-3), nil, "3"},
		{"add", NumberValue(5), []Value{NumberValue(3)}, "8"},
		{"add", StringValue("5"), []Value{NumberValue(3)}, "53"},
		{"bool", StringValue(""), nil, "false"},
		{"bool", list(), nil, "true"},
		{"capitalize", StringValue("hello world"), nil, "Hello world"},
		{"count", list(1, 2, 1), []Value{NumberValue(1)}, "2"},
		{"count", StringValue("aa"), []Value{StringValue("a")}, "0"},
		{"cut", StringValue("a-b-c"), []Value{StringValue("-")}, "abc"},
		{"default", NoneValue{}, []Value{StringValue("d")}, "d"},
		{"default", StringValue(""), []Value{StringValue("d")}, "d"},
		{"default", NumberValue(0), []Value{StringValue("d")}, "0"},
		{"default", BoolValue(false), []Value{StringValue("d")}, "false"},
		{"divide", NumberValue(7), []Value{NumberValue(2)}, "3.5"},
		{"divide", NumberValue(1), []Value{NumberValue(0)}, "Infinity"},
		{"divisible", NumberValue(9), []Value{NumberValue(3)}, "true"},
		{"divisible", NumberValue(10), []Value{NumberValue(3)}, "false"},
		{"divisible", NumberValue(10), []Value{NumberValue(0)}, "false"},
		{"escape_html", StringValue(`<a href="x">'&'</a>`), nil, "&lt;a href=&quot;x&quot;&gt;&#39;&amp;&#39;&lt;/a&gt;"},
		{"first", list(), nil, "null"},
		{"first", list("a", "b"), nil, "a"},
		{"first", StringValue("abc"), nil, "abc"},
		{"float", StringValue("3.25abc"), nil, "3.25"},
		{"float", StringValue("abc"), nil, "NaN"},
		{"index", list("a", "b"), []Value{StringValue("b")}, "1"},
		{"index", list("a", "b"), []Value{StringValue("z")}, "-1"},
		{"insert", list(1, 2, 3), []Value{NumberValue(1), StringValue("x")}, "1,x,2,3"},
		{"insert", list(1, 2, 3), []Value{NumberValue(-1), StringValue("x")}, "1,2,x,3"},
		{"int", StringValue("42.9"), nil, "42"},
		{"int", NumberValue(-7.5), nil, "-7"},
		{"int", StringValue("x1"), nil, "NaN"},
		{"join", list("a", nil, "b"), nil, "a,,b"},
		{"join", list("a", "b"), []Value{StringValue(" ")}, "a b"},
		{"last", list(1, 2), nil, "2"},
		{"length", StringValue("héllo"), nil, "5"},
		{"list", StringValue("x"), nil, "x"},
		{"log", NumberValue(1), nil, "0"},
		{"lower", StringValue("ÀB"), nil, "àb"},
		{"multiply", StringValue("4"), []Value{NumberValue(2.5)}, "10"},
		{"range", NumberValue(2), []Value{NumberValue(5)}, "2,3,4"},
		{"range", NumberValue(5), []Value{NumberValue(2)}, ""},
		{"replace", StringValue("a.b.c"), []Value{StringValue("."), StringValue("/")}, "a/b/c"},
		{"reverse", StringValue("abc"), nil, "cba"},
		{"round", NumberValue(2.5), nil, "3"},
		{"round", NumberValue(-2.5), nil, "-2"},
		{"safe", StringValue("<b>"), nil, "<b>"},
		{"slice", StringValue("abcdef"), []Value{NumberValue(1), NumberValue(3)}, "bc"},
		{"slice", StringValue("abcdef"), []Value{NumberValue(-2)}, "ef"},
		{"slice", list(1, 2, 3, 4), []Value{NumberValue(1), NumberValue(-1)}, "2,3"},
		{"sort", list(10, 9, 1), nil, "1,10,9"},
		{"split", StringValue("abc"), []Value{StringValue("")}, "a,b,c"},
		{"string", BoolValue(true), nil, "true"},
		{"striptags", StringValue("<p>Hi <b>there</b></p>"), nil, "Hi there"},
		{"sum", list(1, 2, 3.5), nil, "6.5"},
		{"sum", list(1, "a"), nil, "1a"},
		{"title", StringValue("hELLO wORLD-wide"), nil, "Hello World-wide"},
		{"tojson", FromGo(map[string]any{"b": []any{1, "<x>"}, "a": nil}), nil, `{"a":null,"b":[1,"<x>"]}`},
		{"trim", StringValue("  x \n"), nil, "x"},
		{"truncate", StringValue("abcdef"), []Value{NumberValue(3)}, "abc..."},
		{"truncate", StringValue("abc"), []Value{NumberValue(3)}, "abc"},
		{"truncate", StringValue("hello"), []Value{NumberValue(-2)}, "hel..."},
		{"truncate", StringValue("hello"), []Value{NumberValue(-9)}, "..."},
		{"truncate", StringValue("hello"), []Value{StringValue("x")}, "hello"},
		{"truncate", StringValue("hello"), nil, "hello"},
		{"truncate", StringValue("héllo"), []Value{StringValue("2")}, "hé..."},
		{"type", list(), nil, "array"},
		{"type", StringValue(""), nil, "string"},
		{"type", NumberValue(1), nil, "number"},
		{"type", BoolValue(true), nil, "boolean"},
		{"type", NoneValue{}, nil, "object"},
		{"unique", list(1, 2, 2, "2", 1), nil, "1,2,2"},
		{"unique", StringValue("aab"), nil, "a,b"},
		{"upper", StringValue("straße"), nil, "STRASSE"},
		{"urlencode", StringValue("a b&c/é"), nil, "a%20b%26c%2F%C3%A9"},
		{"urldecode", StringValue("a%20b%26c"), nil, "a b&c"},
		{"wordcount", StringValue("  one two\tthree "), nil, "3"},
		{"wordcount", StringValue(""), nil, "1"},
		{"wordwrap", StringValue("aaa bbb ccc"), []Value{NumberValue(7)}, "aaa bbb\nccc\n"},
		{"wordwrap", StringValue("aaa bbb"), []Value{NumberValue(4)}, "aaa\nbbb\n"},
		{"wordwrap", StringValue("abcdef gh"), []Value{NumberValue(3)}, "abcdef\ngh\n"},
		{"wordwrap", StringValue("ab\ncd ef"), []Value{NumberValue(5)}, "ab\ncd ef\n"},
	}
	for _, tc := range cases {
		got := apply(t, tc.name, tc.val, tc.args...).String()
		if got != tc.want {
			t.Errorf("%s(%v, %v) = %q, want %q", tc.name, tc.val, tc.args, got, tc.want)
		}
	}
}

func TestFilterKindMismatchFails(t *testing.T) {
	r := DefaultFilters()
	for _, name := range []string{"upper", "lower", "capitalize", "title", "length", "select", "difference"} {
		_, err := r.Apply(name, NumberValue(1), nil)
		if !IsKind(err, FilterExecutionFailure) {
			t.Errorf("%s on a number: err = %v, want filter execution failure", name, err)
		}
	}
	for _, in := range []string{"%zz", "%FF", "a%C3"} {
		if _, err := r.Apply("urldecode", StringValue(in), nil); !IsKind(err, FilterExecutionFailure) {
			t.Errorf("urldecode(%q): err = %v", in, err)
		}
	}
}

func TestWordwrapWideLines(t *testing.T) {
	words := strings.Repeat("word ", 600)
	got := apply(t, "wordwrap", StringValue(words), NumberValue(2000)).String()
	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	// 400 words fit in 1999 characters; the trailing space is the break.
	if want := strings.TrimSuffix(strings.Repeat("word ", 400), " "); lines[0] != want {
		t.Fatalf("first line has %d characters, want %d", len(lines[0]), len(want))
	}
	if _, err := DefaultFilters().Apply("wordwrap", StringValue("x"), []Value{NumberValue(0)}); !IsKind(err, FilterExecutionFailure) {
		t.Fatalf("width 0: err = %v", err)
	}
}

func TestMutatingFiltersReturnSameList(t *testing.T) {
	for _, tc := range []struct {
		name string
		args []Value
		want string
	}{
		{"append", []Value{NumberValue(4)}, "3,1,2,4"},
		{"extend", []Value{list(4, 5)}, "3,1,2,4,5"},
		{"pop", nil, "3,1"},
		{"sort", nil, "1,2,3"},
		{"reverse", nil, "2,1,3"},
	} {
		in := list(3, 1, 2)
		out := apply(t, tc.name, in, tc.args...)
		if out != Value(in) {
			t.Errorf("%s returned a different list", tc.name)
		}
		if in.String() != tc.want {
			t.Errorf("%s: list is %q, want %q", tc.name, in.String(), tc.want)
		}
	}
}

func TestCopyIsDeep(t *testing.T) {
	in := FromGo(map[string]any{"xs": []any{1, map[string]any{"k": "v"}}})
	out := apply(t, "copy", in)
	if out == in {
		t.Fatalf("copy returned the same object")
	}
	if diff := cmp.Diff(ToGo(in), ToGo(out)); diff != "" {
		t.Fatalf("copy mismatch (-in +out):\n%s", diff)
	}
	inner, _ := in.(*DictValue).Get("xs")
	outer, _ := out.(*DictValue).Get("xs")
	if inner == outer {
		t.Fatalf("nested list is shared")
	}
}

func TestSelectMapsProperty(t *testing.T) {
	in := FromGo([]any{
		map[string]any{"name": "a"},
		map[string]any{"name": "b"},
		map[string]any{"other": 1},
	})
	got := ToGo(apply(t, "select", in, StringValue("name")))
	if diff := cmp.Diff([]any{"a", "b", nil}, got); diff != "" {
		t.Fatalf("select mismatch (-want +got):\n%s", diff)
	}
}

func TestDifference(t *testing.T) {
	got := ToGo(apply(t, "difference", list(1, 2, 3, 4), list(2, 4)))
	if diff := cmp.Diff([]any{1.0, 3.0}, got); diff != "" {
		t.Fatalf("difference mismatch (-want +got):\n%s", diff)
	}
}

func TestClearAndRandomAndShuffle(t *testing.T) {
	in := list(1, 2, 3)
	cleared := apply(t, "clear", in).(*ListValue)
	if cleared.Len() != 0 || in.Len() != 3 {
		t.Fatalf("clear: got %d items, input has %d", cleared.Len(), in.Len())
	}
	pick := apply(t, "random", in)
	if idx := apply(t, "index", in, pick); idx.String() == "-1" {
		t.Fatalf("random returned %v, not an element", pick)
	}
	shuffled := apply(t, "shuffle", in).(*ListValue)
	if shuffled != in || apply(t, "sort", shuffled).String() != "1,2,3" {
		t.Fatalf("shuffle lost elements: %v", shuffled)
	}
}

func TestStubFiltersIgnoreInput(t *testing.T) {
	r := DefaultFilters()
	inputs := []Value{NoneValue{}, NumberValue(1), StringValue("x"), list(1)}
	for _, name := range stubFilterNames {
		f, ok := r.Lookup(name)
		if !ok || !f.Stub {
			t.Fatalf("%s is not registered as a stub", name)
		}
		for _, in := range inputs {
			got, err := r.Apply(name, in, []Value{StringValue("arg"), NumberValue(2)})
			if err != nil || got.String() != NotImplemented {
				t.Fatalf("%s(%v) = %v, %v", name, in, got, err)
			}
		}
	}
}

func TestRegistryLookupIsCaseSensitive(t *testing.T) {
	r := DefaultFilters()
	if _, ok := r.Lookup("Upper"); ok {
		t.Fatalf("lookup should be case-sensitive")
	}
	if _, err := r.Apply("UPPER", StringValue("x"), nil); !IsKind(err, UnknownFilter) {
		t.Fatalf("err = %v, want unknown filter", err)
	}
}

func TestDeferredFilter(t *testing.T) {
	r := DefaultFilters()
	if _, err := r.Apply("md5", StringValue("abc"), nil); !IsKind(err, UnsupportedAsyncFilter) {
		t.Fatalf("inline md5: err = %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	got, err := r.ApplyDeferred(ctx, "md5", StringValue("abc"), nil)
	if err != nil {
		t.Fatalf("ApplyDeferred: %v", err)
	}
	if got.String() != "900150983cd24fb0d6963f7d28e17f72" {
		t.Fatalf("md5 = %q", got)
	}
	got, err = r.ApplyDeferred(ctx, "upper", StringValue("abc"), nil)
	if err != nil || got.String() != "ABC" {
		t.Fatalf("ApplyDeferred(upper) = %v, %v", got, err)
	}
}

func TestPanickingFilterIsContained(t *testing.T) {
	r := NewRegistry(Filter{Name: "boom", Fn: func(Value, []Value) (Value, error) {
		panic("kaboom")
	}})
	_, err := r.Apply("boom", NoneValue{}, nil)
	if !IsKind(err, FilterExecutionFailure) || !strings.Contains(err.Error(), "kaboom") {
		t.Fatalf("err = %v", err)
	}
}

func TestTimeFilters(t *testing.T) {
	defer func(orig func() time.Time) { now = orig }(now)
	now = func() time.Time { return time.Date(2024, 3, 9, 23, 30, 0, 0, time.FixedZone("X", -2*3600)) }
	if got := apply(t, "today", NoneValue{}).String(); got != "2024-03-10" {
		t.Fatalf("today = %q", got)
	}
	if got := apply(t, "unixtimestamp", NoneValue{}).String(); got != "1710034200" {
		t.Fatalf("unixtimestamp = %q", got)
	}
}
