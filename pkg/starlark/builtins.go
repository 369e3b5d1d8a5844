package starlark

import (
	"context"
	"fmt"

	"github.com/neurodesk/hublc/pkg/hubl"
	"go.starlark.net/starlark"
)

// hublBuiltins exposes the template engine to scripts:
//
//	filter("upper", "abc")          -> "ABC"
//	filter("md5", "abc")            -> deferred filters are awaited
//	render("{{ x }}!", x = 1)       -> "1!"
func (r *Runtime) hublBuiltins() starlark.StringDict {
	return starlark.StringDict{
		"filter": starlark.NewBuiltin("filter", r.filterBuiltin),
		"render": starlark.NewBuiltin("render", renderBuiltin),
	}
}

func (r *Runtime) filterBuiltin(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) > 0 {
		return nil, fmt.Errorf("%s: unexpected keyword arguments", fn.Name())
	}
	if len(args) < 2 {
		return nil, fmt.Errorf("%s: requires a filter name and a value", fn.Name())
	}
	name, ok := starlark.AsString(args[0])
	if !ok {
		return nil, fmt.Errorf("%s: filter name must be a string, got %s", fn.Name(), args[0].Type())
	}

	var filterArgs []hubl.Value
	for _, a := range args[2:] {
		filterArgs = append(filterArgs, FromStarlark(a))
	}
	out, err := r.Filters.ApplyDeferred(threadContext(thread), name, FromStarlark(args[1]), filterArgs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn.Name(), err)
	}
	return ToStarlark(out), nil
}

func renderBuiltin(thread *starlark.Thread, fn *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var tpl string
	if err := starlark.UnpackPositionalArgs(fn.Name(), args, nil, 1, &tpl); err != nil {
		return nil, err
	}
	vars := make(map[string]any, len(kwargs))
	for _, kv := range kwargs {
		name, _ := starlark.AsString(kv[0])
		vars[name] = FromStarlark(kv[1])
	}
	return starlark.String(hubl.TemplateString(tpl).Render(vars)), nil
}

const contextKey = "context"

// threadContext returns the context a run was started with.
func threadContext(thread *starlark.Thread) context.Context {
	if ctx, ok := thread.Local(contextKey).(context.Context); ok {
		return ctx
	}
	return context.Background()
}
