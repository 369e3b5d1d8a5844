package starlark

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/neurodesk/hublc/pkg/hubl"
	"go.starlark.net/starlark"
)

func readyRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt := New()
	select {
	case <-rt.Initialize(context.Background()):
	case <-time.After(5 * time.Second):
		t.Fatal("runtime did not become ready")
	}
	return rt
}

func runHelper(t *testing.T, rt *Runtime, src string) string {
	t.Helper()
	out, err := rt.Run(context.Background(), src)
	if err != nil {
		t.Fatalf("Run(%q): %v", src, err)
	}
	return out
}

func TestRunBeforeReady(t *testing.T) {
	rt := New()
	if rt.Ready() {
		t.Fatal("new runtime reports ready")
	}
	if _, err := rt.Run(context.Background(), `print(1)`); !errors.Is(err, ErrNotReady) {
		t.Fatalf("err = %v, want ErrNotReady", err)
	}
}

func TestInitializeIsIdempotent(t *testing.T) {
	rt := New()
	a := rt.Initialize(context.Background())
	b := rt.Initialize(context.Background())
	if a != b {
		t.Fatal("Initialize returned different channels")
	}
	<-a
	if !rt.Ready() {
		t.Fatal("runtime not ready after signal")
	}
}

func TestInitializeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rt := New()
	ready := rt.Initialize(ctx)
	select {
	case <-ready:
		t.Fatal("cancelled runtime became ready")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRunCapturesPrint(t *testing.T) {
	rt := readyRuntime(t)
	cases := []struct {
		src  string
		want string
	}{
		{`print("hi")`, "hi\n"},
		{"print(1 + 2)\nprint('a', True)", "3\na True\n"},
		{`print(json.encode({"a": [1, 2]}))`, "{\"a\":[1,2]}\n"},
		{`print(math.floor(2.7))`, "2\n"},
		{"n = 0\nwhile n < 3:\n    n += 1\nprint(n)", "3\n"},
		{"for i in range(2):\n    print(i)", "0\n1\n"},
		{``, ""},
	}
	for _, tc := range cases {
		if got := runHelper(t, rt, tc.src); got != tc.want {
			t.Fatalf("Run(%q) = %q, want %q", tc.src, got, tc.want)
		}
	}
}

func TestRunTemplateBuiltins(t *testing.T) {
	rt := readyRuntime(t)
	cases := []struct {
		src  string
		want string
	}{
		{`print(filter("upper", "abc"))`, "ABC\n"},
		{`print(filter("join", [1, 2], "-"))`, "1-2\n"},
		{`print(filter("md5", "abc"))`, "900150983cd24fb0d6963f7d28e17f72\n"},
		{`print(filter("add", 1, 2))`, "3\n"},
		{`print(render("{{ x | add(1) }}!", x = 1))`, "2!\n"},
		{`print(render("{% if flag %}on{% endif %}", flag = False))`, "\n"},
		{`print(render("{{ xs | join(\"-\") }} {{ d.k }}", xs = [1, 2], d = {"k": "v"}))`, "1-2 v\n"},
		{`print(render("{{ y }}"))`, "[Error: Unknown variable or property: y]\n"},
	}
	for _, tc := range cases {
		if got := runHelper(t, rt, tc.src); got != tc.want {
			t.Fatalf("Run(%q) = %q, want %q", tc.src, got, tc.want)
		}
	}

	_, err := rt.Run(context.Background(), `filter("nosuch", 1)`)
	if err == nil || !strings.Contains(err.Error(), "Unknown filter") {
		t.Fatalf("unknown filter err = %v", err)
	}
}

func TestRunFailureKeepsOutput(t *testing.T) {
	rt := readyRuntime(t)
	out, err := rt.Run(context.Background(), "print(\"before\")\nfail(\"boom\")\n")
	if err == nil {
		t.Fatal("expected an error")
	}
	if out != "before\n" {
		t.Fatalf("out = %q", out)
	}
	if bt := Backtrace(err); !strings.Contains(bt, "boom") || !strings.Contains(bt, "<script>") {
		t.Fatalf("backtrace = %q", bt)
	}
}

func TestRunSyntaxError(t *testing.T) {
	rt := readyRuntime(t)
	_, err := rt.Run(context.Background(), "print(")
	if err == nil {
		t.Fatal("expected a syntax error")
	}
	if Backtrace(err) != err.Error() {
		t.Fatalf("syntax errors have no call stack: %q", Backtrace(err))
	}
}

func TestRunCancelled(t *testing.T) {
	rt := readyRuntime(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := rt.Run(ctx, "while True:\n    pass\n")
	if err == nil || !strings.Contains(err.Error(), "context canceled") {
		t.Fatalf("err = %v, want cancellation", err)
	}
}

func TestGlobalsRoundTrip(t *testing.T) {
	rt := readyRuntime(t)
	in := hubl.NewScope()
	in.Set("name", hubl.StringValue("ada"))
	in.Set("nums", hubl.FromGo([]any{1, 2.5}))
	rt.LoadScope(in)

	if got := runHelper(t, rt, `print(name.upper(), nums[0] + 1, nums[1])`); got != "ADA 2 2.5\n" {
		t.Fatalf("got %q", got)
	}
	runHelper(t, rt, "total = nums[0] + 41\n_hidden = 1\ndef helper():\n    pass\n")
	if got := runHelper(t, rt, `print(total)`); got != "42\n" {
		t.Fatalf("globals not kept between runs: %q", got)
	}

	out := hubl.NewScope()
	rt.ExportScope(out)
	if diff := cmp.Diff([]string{"name", "nums", "total"}, out.Names()); diff != "" {
		t.Fatalf("exported names mismatch (-want +got):\n%s", diff)
	}
	if v, _ := out.Get("total"); v.String() != "42" {
		t.Fatalf("total = %v", v)
	}
}

func TestToStarlark(t *testing.T) {
	dict := hubl.NewDict()
	dict.Set("z", hubl.NumberValue(1))
	dict.Set("a", hubl.NoneValue{})
	cases := []struct {
		in   hubl.Value
		want string
	}{
		{nil, "None"},
		{hubl.NoneValue{}, "None"},
		{hubl.StringValue("s"), `"s"`},
		{hubl.NumberValue(42), "42"},
		{hubl.NumberValue(-3), "-3"},
		{hubl.NumberValue(1.5), "1.5"},
		{hubl.NumberValue(1e300), "1e+300"},
		{hubl.BoolValue(true), "True"},
		{hubl.NewList(hubl.NumberValue(1), hubl.StringValue("x")), `[1, "x"]`},
		{dict, `{"z": 1, "a": None}`},
	}
	for _, tc := range cases {
		if got := ToStarlark(tc.in).String(); got != tc.want {
			t.Errorf("ToStarlark(%v) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestFromStarlark(t *testing.T) {
	dict := starlark.NewDict(2)
	dict.SetKey(starlark.String("k"), starlark.Tuple{starlark.MakeInt(1), starlark.None})
	dict.SetKey(starlark.MakeInt(7), starlark.Bool(false))
	cases := []struct {
		in   starlark.Value
		want any
	}{
		{starlark.None, nil},
		{starlark.String("s"), "s"},
		{starlark.MakeInt64(42), 42.0},
		{starlark.Float(0.5), 0.5},
		{starlark.Bool(true), true},
		{starlark.NewList([]starlark.Value{starlark.String("a")}), []any{"a"}},
		{dict, map[string]any{"k": []any{1.0, nil}, "7": false}},
		{starlark.NewBuiltin("f", nil), "<built-in function f>"},
	}
	for _, tc := range cases {
		if diff := cmp.Diff(tc.want, hubl.ToGo(FromStarlark(tc.in))); diff != "" {
			t.Errorf("FromStarlark(%v) mismatch (-want +got):\n%s", tc.in, diff)
		}
	}
}
