package hubl

import (
	"regexp"
	"strings"
)

var (
	filterCall = regexp.MustCompile(`^(\w+)(?:\((.*)\))?$`)
	dottedPath = regexp.MustCompile(`^\w+(?:\.\w+)*$`)
)

// Evaluator evaluates interpolation expressions: a base value followed by a
// pipeline of filters, e.g. `name | upper | default("x")`.
type Evaluator struct {
	Filters *Registry
}

// NewEvaluator returns an evaluator using the default filters.
func NewEvaluator() *Evaluator { return &Evaluator{Filters: DefaultFilters()} }

// Eval evaluates expr against scope. The base is resolved as a variable path
// first and parsed as a JSON literal second. Filters apply left to right and
// the first failure stops the pipeline. Errors are always *Error values.
func (e *Evaluator) Eval(expr string, scope *Scope) (Value, error) {
	parts := splitTopLevel(strings.TrimSpace(expr), '|', false)
	base := parts[0]

	val, err := scope.Resolve(base)
	if err != nil {
		lit, litErr := ParseJSON(base)
		if litErr != nil {
			if dottedPath.MatchString(base) {
				return nil, err
			}
			return nil, &Error{Kind: InvalidLiteral, Subject: base, Err: litErr}
		}
		val = lit
	}

	for _, seg := range parts[1:] {
		name, args, err := parseFilterCall(seg)
		if err != nil {
			return nil, err
		}
		val, err = e.Filters.Apply(name, val, args)
		if err != nil {
			return nil, err
		}
	}
	return val, nil
}

// parseFilterCall splits `name` or `name(arg, ...)` into its parts.
func parseFilterCall(seg string) (string, []Value, error) {
	m := filterCall.FindStringSubmatch(seg)
	if m == nil {
		return "", nil, &Error{Kind: MalformedFilterCall, Subject: seg}
	}
	var args []Value
	if m[2] != "" {
		for _, a := range splitTopLevel(m[2], ',', true) {
			args = append(args, parseArgLiteral(a))
		}
	}
	return m[1], args, nil
}

// splitTopLevel splits s on sep, ignoring separators inside quotes and
// brackets. Pieces are trimmed; empty pieces are dropped when skipEmpty is
// set. The result always has at least one element unless skipEmpty drops
// everything.
func splitTopLevel(s string, sep byte, skipEmpty bool) []string {
	var parts []string
	var b strings.Builder
	depth := 0
	inStr := byte(0)
	flush := func() {
		p := strings.TrimSpace(b.String())
		b.Reset()
		if p == "" && skipEmpty {
			return
		}
		parts = append(parts, p)
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inStr != 0 {
			b.WriteByte(c)
			if c == inStr {
				inStr = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			inStr = c
			b.WriteByte(c)
		case '(', '[', '{':
			depth++
			b.WriteByte(c)
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
			b.WriteByte(c)
		case sep:
			if depth == 0 {
				flush()
			} else {
				b.WriteByte(c)
			}
		default:
			b.WriteByte(c)
		}
	}
	flush()
	return parts
}
