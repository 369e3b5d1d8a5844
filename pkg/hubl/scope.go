package hubl

import (
	"slices"
	"strings"
)

// Scope is the variable store consulted and mutated by a render. Assignments
// and loop bindings write top-level names; reads resolve dotted paths.
//
// A Scope is not safe for concurrent use.
type Scope struct {
	vars map[string]Value
}

// NewScope returns an empty scope.
func NewScope() *Scope {
	return &Scope{vars: map[string]Value{}}
}

// Get performs a plain top-level lookup.
func (s *Scope) Get(name string) (Value, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// Set binds name at the top level, replacing any previous value.
func (s *Scope) Set(name string, v Value) {
	if v == nil {
		v = NoneValue{}
	}
	s.vars[name] = v
}

// Delete removes a top-level binding.
func (s *Scope) Delete(name string) { delete(s.vars, name) }

// Reset drops every binding.
func (s *Scope) Reset() { clear(s.vars) }

// Names returns the bound names in sorted order.
func (s *Scope) Names() []string {
	names := make([]string, 0, len(s.vars))
	for k := range s.vars {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of top-level bindings.
func (s *Scope) Len() int { return len(s.vars) }

// Resolve walks a dot-separated path. The first segment is looked up in the
// scope, the rest on nested objects. It fails on the first missing segment.
func (s *Scope) Resolve(path string) (Value, error) {
	segments := strings.Split(path, ".")
	cur, ok := s.vars[segments[0]]
	if !ok {
		return nil, &Error{Kind: UnknownVariable, Subject: segments[0]}
	}
	for _, seg := range segments[1:] {
		d, isDict := cur.(*DictValue)
		if !isDict {
			return nil, &Error{Kind: UnknownVariable, Subject: seg}
		}
		if cur, ok = d.Get(seg); !ok {
			return nil, &Error{Kind: UnknownVariable, Subject: seg}
		}
	}
	return cur, nil
}
