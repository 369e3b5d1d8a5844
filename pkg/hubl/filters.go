package hubl

import (
	"context"
	"fmt"
	"slices"
)

// FilterFunc is a synchronous filter: it receives the piped value and the
// positional arguments of the call.
type FilterFunc func(val Value, args []Value) (Value, error)

// DeferredFunc is a filter whose result is only available later. Deferred
// filters cannot be used inside an interpolation pipeline.
type DeferredFunc func(val Value, args []Value) *Deferred

// Filter is a registry entry. Exactly one of Fn and Deferred is set.
type Filter struct {
	Name     string
	Fn       FilterFunc
	Deferred DeferredFunc
	// Stub marks placeholder entries that always yield NotImplemented.
	Stub bool
}

// NotImplemented is the value returned by every stub filter.
const NotImplemented = "[Not implemented]"

// Registry maps filter names to filters. It is immutable once built.
type Registry struct {
	filters map[string]Filter
}

// NewRegistry builds a registry from filters. Later entries replace earlier
// ones with the same name.
func NewRegistry(filters ...Filter) *Registry {
	r := &Registry{filters: make(map[string]Filter, len(filters))}
	for _, f := range filters {
		r.filters[f.Name] = f
	}
	return r
}

// DefaultFilters returns the built-in filter table.
func DefaultFilters() *Registry {
	var all []Filter
	all = append(all, textFilters()...)
	all = append(all, listFilters()...)
	all = append(all, mathFilters()...)
	all = append(all, miscFilters()...)
	for _, name := range stubFilterNames {
		all = append(all, stub(name))
	}
	return NewRegistry(all...)
}

// Lookup returns the filter registered under name. Names are case-sensitive.
func (r *Registry) Lookup(name string) (Filter, bool) {
	f, ok := r.filters[name]
	return f, ok
}

// Names returns every registered filter name in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.filters))
	for n := range r.filters {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// Apply runs the named synchronous filter. Failures are reported as *Error
// values; a panicking filter is reported as a FilterExecutionFailure.
func (r *Registry) Apply(name string, val Value, args []Value) (out Value, err error) {
	f, ok := r.filters[name]
	if !ok {
		return nil, &Error{Kind: UnknownFilter, Subject: name}
	}
	if f.Fn == nil {
		return nil, &Error{Kind: UnsupportedAsyncFilter, Subject: name}
	}
	defer func() {
		if p := recover(); p != nil {
			out = nil
			err = &Error{Kind: FilterExecutionFailure, Subject: name, Err: fmt.Errorf("%v", p)}
		}
	}()
	out, err = f.Fn(val, args)
	if err != nil {
		return nil, &Error{Kind: FilterExecutionFailure, Subject: name, Err: err}
	}
	if out == nil {
		out = NoneValue{}
	}
	return out, nil
}

// ApplyDeferred runs any filter, waiting for deferred results. It is meant
// for callers outside of template rendering.
func (r *Registry) ApplyDeferred(ctx context.Context, name string, val Value, args []Value) (Value, error) {
	f, ok := r.filters[name]
	if !ok {
		return nil, &Error{Kind: UnknownFilter, Subject: name}
	}
	if f.Deferred == nil {
		return r.Apply(name, val, args)
	}
	v, err := f.Deferred(val, args).Await(ctx)
	if err != nil {
		return nil, &Error{Kind: FilterExecutionFailure, Subject: name, Err: err}
	}
	return v, nil
}

// Deferred is a pending filter result.
type Deferred struct {
	done chan struct{}
	val  Value
	err  error
}

// Defer runs fn on its own goroutine and returns its pending result.
func Defer(fn func() (Value, error)) *Deferred {
	d := &Deferred{done: make(chan struct{})}
	go func() {
		defer close(d.done)
		d.val, d.err = fn()
	}()
	return d
}

// Await blocks until the result is ready or ctx is done.
func (d *Deferred) Await(ctx context.Context) (Value, error) {
	select {
	case <-d.done:
		return d.val, d.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func stub(name string) Filter {
	return Filter{
		Name: name,
		Stub: true,
		Fn:   func(Value, []Value) (Value, error) { return StringValue(NotImplemented), nil },
	}
}

var stubFilterNames = []string{
	"attr", "batch", "between_times", "convert_rgb", "dictsort",
	"escape_attr", "escape_js", "escape_url", "escapejson",
	"filesizeformat", "forceescape", "format", "format_currency_value",
	"format_date", "format_datetime", "geo_distance", "groupby", "indent",
	"intersect", "ipaddr", "map", "minus_time", "namespace", "plus_time",
	"pprint", "put", "regex_replace", "reject", "rejectattr", "render",
	"root", "sanitize_html", "selectattr", "strtodate", "strtotime", "super",
	"symmetric_difference", "truncatehtml", "unescape_html", "union",
	"urlize", "xmlattr",
}

// arg returns the i-th argument, or null when it was not supplied.
func arg(args []Value, i int) Value {
	if i < len(args) && args[i] != nil {
		return args[i]
	}
	return NoneValue{}
}

func hasArg(args []Value, i int) bool { return i < len(args) }
