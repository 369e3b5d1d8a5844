package hubl

import (
	"errors"
	"log/slog"
	"regexp"
	"strings"
)

var (
	setDirective  = regexp.MustCompile(`\{%\s*set\s+(\w+)\s*=\s*(.*?)\s*%\}`)
	ifDirective   = regexp.MustCompile(`\{%\s*if\s+(.*?)\s*%\}([\s\S]*?)(?:\{%\s*else\s*%\}([\s\S]*?))?\{%\s*endif\s*%\}`)
	forDirective  = regexp.MustCompile(`\{%\s*for\s+(\w+)\s+in\s+(\w+)\s*%\}([\s\S]*?)\{%\s*endfor\s*%\}`)
	interpolation = regexp.MustCompile(`\{\{\s*(.*?)\s*\}\}`)
)

// Renderer renders templates against a variable scope that persists across
// calls. Rendering runs four rewrite passes over the whole text, each once
// and in this order: set, if, for, interpolation. Text produced by a pass is
// only seen by the passes after it, so directives inside if and for bodies
// are not re-evaluated, and interpolations inside a loop body all observe the
// loop variable's final value.
//
// A Renderer must not be used by more than one goroutine at a time.
type Renderer struct {
	Scope     *Scope
	Evaluator *Evaluator
	Logger    *slog.Logger
}

// NewRenderer returns a renderer with an empty scope and the default filters.
func NewRenderer() *Renderer {
	return &Renderer{Scope: NewScope(), Evaluator: NewEvaluator()}
}

// Render returns the rendered text. Failures are contained: a bad expression
// renders as an inline marker and failed conditions or collections render as
// false or empty.
func (r *Renderer) Render(src string) string {
	out := r.assignments(src)
	out = r.conditionals(out)
	out = r.loops(out)
	return r.interpolations(out)
}

func (r *Renderer) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r *Renderer) assignments(src string) string {
	return replaceMatches(setDirective, src, func(m match) string {
		r.Scope.Set(m.group(1), ParseLiteral(m.group(2)))
		return ""
	})
}

func (r *Renderer) conditionals(src string) string {
	return replaceMatches(ifDirective, src, func(m match) string {
		cond := strings.TrimSpace(m.group(1))
		v, err := r.Scope.Resolve(cond)
		if err != nil {
			r.logger().Debug("condition treated as false", "cond", cond, "error", err)
			return m.group(3)
		}
		if v.Truth() {
			return m.group(2)
		}
		return m.group(3)
	})
}

func (r *Renderer) loops(src string) string {
	return replaceMatches(forDirective, src, func(m match) string {
		name, coll, body := m.group(1), m.group(2), m.group(3)
		v, _ := r.Scope.Get(coll)
		list, ok := v.(*ListValue)
		if !ok {
			r.logger().Debug("loop over non-list renders empty", "collection", coll)
			return ""
		}
		var b strings.Builder
		for _, item := range list.Items {
			r.Scope.Set(name, item)
			b.WriteString(body)
		}
		return b.String()
	})
}

func (r *Renderer) interpolations(src string) string {
	return replaceMatches(interpolation, src, func(m match) string {
		expr := m.group(1)
		v, err := r.Evaluator.Eval(expr, r.Scope)
		if err != nil {
			var e *Error
			if errors.As(err, &e) {
				r.logger().Debug("expression failed", "expr", expr, "kind", e.Kind.String(), "error", err)
				return e.Marker()
			}
			return "[Error] " + err.Error()
		}
		return v.String()
	})
}

// match exposes the submatches of one regular expression match. Groups that
// did not participate read as empty.
type match struct {
	src string
	loc []int
}

func (m match) group(i int) string {
	if m.loc[2*i] < 0 {
		return ""
	}
	return m.src[m.loc[2*i]:m.loc[2*i+1]]
}

// replaceMatches replaces every match of re in src with the result of fn.
// Matches are processed left to right so side effects happen in document
// order.
func replaceMatches(re *regexp.Regexp, src string, fn func(match) string) string {
	locs := re.FindAllStringSubmatchIndex(src, -1)
	if locs == nil {
		return src
	}
	var b strings.Builder
	last := 0
	for _, loc := range locs {
		b.WriteString(src[last:loc[0]])
		b.WriteString(fn(match{src: src, loc: loc}))
		last = loc[1]
	}
	b.WriteString(src[last:])
	return b.String()
}
