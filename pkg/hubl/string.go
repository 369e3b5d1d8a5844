package hubl

import "strings"

// TemplateString is template source text.
type TemplateString string

// Render renders t with a fresh renderer whose scope is seeded from vars.
func (t TemplateString) Render(vars map[string]any) string {
	r := NewRenderer()
	for k, v := range vars {
		r.Scope.Set(k, FromGo(v))
	}
	return r.Render(string(t))
}

// HasDirectives reports whether t contains directive or interpolation
// delimiters.
func (t TemplateString) HasDirectives() bool {
	s := string(t)
	return strings.Contains(s, "{{") || strings.Contains(s, "{%")
}
