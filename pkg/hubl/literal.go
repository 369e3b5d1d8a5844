package hubl

import "strings"

// ParseLiteral turns a directive or argument token into a Value. Structured
// JSON literals are tried first; a token wrapped in matching single or double
// quotes yields its inner text; anything else is returned as a string.
func ParseLiteral(token string) Value {
	s := strings.TrimSpace(token)
	if v, err := ParseJSON(s); err == nil {
		return v
	}
	if inner, ok := unquote(s); ok {
		return StringValue(inner)
	}
	return StringValue(s)
}

// parseArgLiteral handles a single filter argument. Quoted text is taken
// verbatim, without escape processing.
func parseArgLiteral(token string) Value {
	s := strings.TrimSpace(token)
	if inner, ok := unquote(s); ok {
		return StringValue(inner)
	}
	if v, err := ParseJSON(s); err == nil {
		return v
	}
	return StringValue(s)
}

func unquote(s string) (string, bool) {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1], true
	}
	return "", false
}
