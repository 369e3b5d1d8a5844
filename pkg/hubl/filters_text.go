package hubl

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	titleWord = regexp.MustCompile(`\w\S*`)
	htmlTag   = regexp.MustCompile(`<[^>]*>?`)

	htmlEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#39;",
	)
)

func textFilters() []Filter {
	return []Filter{
		{Name: "capitalize", Fn: textFilter("capitalize", func(s string, _ []Value) (Value, error) {
			if s == "" {
				return StringValue(""), nil
			}
			_, size := utf8.DecodeRuneInString(s)
			return StringValue(upper(s[:size]) + s[size:]), nil
		})},
		{Name: "center", Fn: textFilter("center", func(s string, args []Value) (Value, error) {
			pad := max(toInt(arg(args, 0))-utf8.RuneCountInString(s), 0)
			left := pad / 2
			right := pad - left
			return StringValue(strings.Repeat(" ", left) + s + strings.Repeat(" ", right)), nil
		})},
		{Name: "cut", Fn: textFilter("cut", func(s string, args []Value) (Value, error) {
			if !hasArg(args, 0) {
				return StringValue(s), nil
			}
			return StringValue(strings.ReplaceAll(s, args[0].String(), "")), nil
		})},
		{Name: "escape_html", Fn: textFilter("escape_html", func(s string, _ []Value) (Value, error) {
			return StringValue(htmlEscaper.Replace(s)), nil
		})},
		{Name: "lower", Fn: textFilter("lower", func(s string, _ []Value) (Value, error) {
			return StringValue(cases.Lower(language.Und).String(s)), nil
		})},
		{Name: "replace", Fn: textFilter("replace", func(s string, args []Value) (Value, error) {
			parts := splitText(s, args, 0)
			sep := ","
			if hasArg(args, 1) {
				sep = args[1].String()
			}
			return StringValue(strings.Join(parts, sep)), nil
		})},
		{Name: "split", Fn: textFilter("split", func(s string, args []Value) (Value, error) {
			parts := splitText(s, args, 0)
			out := make([]Value, len(parts))
			for i, p := range parts {
				out[i] = StringValue(p)
			}
			return NewList(out...), nil
		})},
		{Name: "striptags", Fn: textFilter("striptags", func(s string, _ []Value) (Value, error) {
			return StringValue(htmlTag.ReplaceAllString(s, "")), nil
		})},
		{Name: "title", Fn: textFilter("title", func(s string, _ []Value) (Value, error) {
			return StringValue(titleWord.ReplaceAllStringFunc(s, func(w string) string {
				_, size := utf8.DecodeRuneInString(w)
				return upper(w[:size]) + cases.Lower(language.Und).String(w[size:])
			})), nil
		})},
		{Name: "trim", Fn: textFilter("trim", func(s string, _ []Value) (Value, error) {
			return StringValue(strings.TrimSpace(s)), nil
		})},
		{Name: "truncate", Fn: textFilter("truncate", func(s string, args []Value) (Value, error) {
			// A missing or non-numeric length never compares below the text length.
			n := toNumber(arg(args, 0))
			if !hasArg(args, 0) || math.IsNaN(n) {
				return StringValue(s), nil
			}
			runes := []rune(s)
			if float64(len(runes)) > n {
				_, end := sliceBounds(len(runes), NumberValue(0), NumberValue(n), true)
				return StringValue(string(runes[:end]) + "..."), nil
			}
			return StringValue(s), nil
		})},
		{Name: "upper", Fn: textFilter("upper", func(s string, _ []Value) (Value, error) {
			return StringValue(upper(s)), nil
		})},
		{Name: "urlencode", Fn: func(val Value, _ []Value) (Value, error) {
			return StringValue(encodeURIComponent(val.String())), nil
		}},
		{Name: "urldecode", Fn: func(val Value, _ []Value) (Value, error) {
			s, err := url.PathUnescape(val.String())
			if err != nil || !utf8.ValidString(s) {
				return nil, fmt.Errorf("URI malformed")
			}
			return StringValue(s), nil
		}},
		{Name: "wordcount", Fn: textFilter("wordcount", func(s string, _ []Value) (Value, error) {
			n := len(strings.Fields(s))
			// The trimmed empty string still counts as one (empty) word.
			return NumberValue(float64(max(n, 1))), nil
		})},
		{Name: "wordwrap", Fn: textFilter("wordwrap", func(s string, args []Value) (Value, error) {
			width := 80
			if hasArg(args, 0) {
				width = toInt(args[0])
			}
			if width < 1 {
				return nil, fmt.Errorf("wordwrap: invalid width %d", width)
			}
			return StringValue(wordwrap(s, width)), nil
		})},
	}
}

// textFilter adapts a filter that only accepts text.
func textFilter(name string, fn func(s string, args []Value) (Value, error)) FilterFunc {
	return func(val Value, args []Value) (Value, error) {
		s, ok := val.(StringValue)
		if !ok {
			return nil, errUnsupportedKind(name, val)
		}
		return fn(string(s), args)
	}
}

func upper(s string) string { return cases.Upper(language.Und).String(s) }

// splitText splits s on the text form of args[i]. A missing separator yields
// s itself; an empty separator splits into characters.
func splitText(s string, args []Value, i int) []string {
	if !hasArg(args, i) {
		return []string{s}
	}
	sep := args[i].String()
	if sep == "" {
		parts := make([]string, 0, len(s))
		for _, r := range s {
			parts = append(parts, string(r))
		}
		return parts
	}
	return strings.Split(s, sep)
}

// encodeURIComponent escapes everything except the unreserved URI marks.
func encodeURIComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
			strings.IndexByte("-_.!~*'()", c) >= 0 {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&15])
	}
	return b.String()
}

// wordwrap breaks s into lines of at most width characters, ending each
// at a run of spaces or at the end of the text. A run longer than width
// with no break point is left as is. The spaces a line breaks on are
// dropped and every line gets a trailing newline.
func wordwrap(s string, width int) string {
	runes := []rune(s)
	var b strings.Builder
	for p := 0; p < len(runes); {
		k := 0
		for k < width && p+k < len(runes) && !isLineTerminator(runes[p+k]) {
			k++
		}
		matched := false
		for j := k; j >= 1; j-- {
			q := p + j
			if q < len(runes) && runes[q] != ' ' {
				continue
			}
			b.WriteString(string(runes[p:q]))
			b.WriteByte('\n')
			for q < len(runes) && runes[q] == ' ' {
				q++
			}
			p = q
			matched = true
			break
		}
		if !matched {
			b.WriteRune(runes[p])
			p++
		}
	}
	return b.String()
}

func isLineTerminator(r rune) bool {
	return r == '\n' || r == '\r' || r == '\u2028' || r == '\u2029'
}
