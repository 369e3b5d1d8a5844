package starlark

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"sync"

	"github.com/neurodesk/hublc/pkg/hubl"
	starlarkjson "go.starlark.net/lib/json"
	starlarkmath "go.starlark.net/lib/math"
	starlarktime "go.starlark.net/lib/time"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// ErrNotReady is returned by Run before the runtime has finished loading.
var ErrNotReady = errors.New("runtime is still loading")

var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// Runtime runs Starlark scripts with the template filters and a set of
// template variables available as globals. Runs are serialised.
type Runtime struct {
	Filters *hubl.Registry

	once  sync.Once
	ready chan struct{}

	mu       sync.Mutex
	builtins starlark.StringDict
	globals  starlark.StringDict
}

// New returns a runtime that must be initialized before use.
func New() *Runtime {
	return &Runtime{
		Filters: hubl.DefaultFilters(),
		ready:   make(chan struct{}),
		globals: make(starlark.StringDict),
	}
}

// Initialize starts loading the runtime in the background and returns a
// channel that is closed once scripts can run. If ctx ends first the channel
// is never closed. Calling Initialize again returns the same channel.
func (r *Runtime) Initialize(ctx context.Context) <-chan struct{} {
	r.once.Do(func() {
		go func() {
			builtins := starlark.StringDict{
				"json": starlarkjson.Module,
				"math": starlarkmath.Module,
				"time": starlarktime.Module,
			}
			maps.Copy(builtins, r.hublBuiltins())
			if ctx.Err() != nil {
				slog.Debug("runtime load cancelled", "error", ctx.Err())
				return
			}
			r.mu.Lock()
			r.builtins = builtins
			r.mu.Unlock()
			close(r.ready)
			slog.Debug("runtime ready")
		}()
	})
	return r.ready
}

// Ready reports whether Initialize has completed.
func (r *Runtime) Ready() bool {
	select {
	case <-r.ready:
		return true
	default:
		return false
	}
}

// SetGlobal exposes v to scripts under name.
func (r *Runtime) SetGlobal(name string, v hubl.Value) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.globals[name] = ToStarlark(v)
}

// LoadScope exposes every variable in s to scripts.
func (r *Runtime) LoadScope(s *hubl.Scope) {
	for _, name := range s.Names() {
		v, _ := s.Get(name)
		r.SetGlobal(name, v)
	}
}

// ExportScope copies the script globals that have a template representation
// into s. Functions, modules and names starting with an underscore are skipped.
func (r *Runtime) ExportScope(s *hubl.Scope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, v := range r.globals {
		if !exportable(name, v) {
			continue
		}
		s.Set(name, FromStarlark(v))
	}
}

func exportable(name string, v starlark.Value) bool {
	if name == "" || name[0] == '_' {
		return false
	}
	switch v.(type) {
	case starlark.NoneType, starlark.Bool, starlark.Int, starlark.Float, starlark.String,
		*starlark.List, starlark.Tuple, *starlark.Dict:
		return true
	}
	return false
}

// Run executes src and returns everything it printed. On failure the output
// produced so far is returned along with the error. Globals defined by the
// script stay visible to later runs.
func (r *Runtime) Run(ctx context.Context, src string) (string, error) {
	if !r.Ready() {
		return "", ErrNotReady
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var out strings.Builder
	thread := &starlark.Thread{
		Name: "hublc",
		Print: func(_ *starlark.Thread, msg string) {
			out.WriteString(msg)
			out.WriteByte('\n')
		},
	}
	thread.SetLocal(contextKey, ctx)
	stop := context.AfterFunc(ctx, func() { thread.Cancel(context.Cause(ctx).Error()) })
	defer stop()

	predeclared := make(starlark.StringDict, len(r.builtins)+len(r.globals))
	maps.Copy(predeclared, r.builtins)
	maps.Copy(predeclared, r.globals)

	globals, err := starlark.ExecFileOptions(fileOptions, thread, "<script>", src, predeclared)
	if err != nil {
		return out.String(), fmt.Errorf("starlark execution error: %w", err)
	}
	maps.Copy(r.globals, globals)
	return out.String(), nil
}

// Backtrace formats err the way scripts report failures, including the
// Starlark call stack when one is available.
func Backtrace(err error) string {
	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		return evalErr.Backtrace()
	}
	return err.Error()
}
