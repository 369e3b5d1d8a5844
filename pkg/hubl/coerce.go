package hubl

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// toNumber applies the numeric coercion used by arithmetic filters.
func toNumber(v Value) float64 {
	switch t := v.(type) {
	case nil, NoneValue:
		return 0
	case BoolValue:
		if t {
			return 1
		}
		return 0
	case NumberValue:
		return float64(t)
	case StringValue:
		return stringToNumber(string(t))
	case *ListValue:
		return stringToNumber(t.String())
	}
	return math.NaN()
}

func stringToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return 0
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	lower := strings.ToLower(s)
	for _, p := range []struct {
		prefix string
		base   int
	}{{"0x", 16}, {"0o", 8}, {"0b", 2}} {
		if strings.HasPrefix(lower, p.prefix) {
			n, err := strconv.ParseUint(s[2:], p.base, 64)
			if err != nil {
				return math.NaN()
			}
			return float64(n)
		}
	}
	if strings.ContainsAny(s, "_xXpP") || strings.Contains(lower, "inf") || strings.Contains(lower, "nan") {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && f == 0 {
		return math.NaN()
	}
	return f
}

// toInt truncates the numeric coercion of v; NaN becomes 0.
func toInt(v Value) int {
	f := toNumber(v)
	if math.IsNaN(f) {
		return 0
	}
	if math.IsInf(f, 1) || f > math.MaxInt32 {
		return math.MaxInt32
	}
	if math.IsInf(f, -1) || f < math.MinInt32 {
		return math.MinInt32
	}
	return int(f)
}

// isPrimitiveNumeric reports whether v adds numerically.
func isPrimitiveNumeric(v Value) bool {
	switch v.(type) {
	case NoneValue, BoolValue, NumberValue:
		return true
	}
	return false
}

// plus is the `+` operator: numeric when both sides are numeric primitives,
// string concatenation otherwise.
func plus(a, b Value) Value {
	if isPrimitiveNumeric(a) && isPrimitiveNumeric(b) {
		return NumberValue(toNumber(a) + toNumber(b))
	}
	return StringValue(a.String() + b.String())
}

var (
	leadingFloat = regexp.MustCompile(`^[+-]?(Infinity|\d+\.?\d*(?:[eE][+-]?\d+)?|\.\d+(?:[eE][+-]?\d+)?)`)
	leadingInt   = regexp.MustCompile(`^[+-]?\d+`)
)

// parseLeadingFloat parses the longest decimal prefix of s.
func parseLeadingFloat(s string) float64 {
	m := leadingFloat.FindString(strings.TrimSpace(s))
	if m == "" {
		return math.NaN()
	}
	switch strings.TrimLeft(m, "+-") {
	case "Infinity":
		if strings.HasPrefix(m, "-") {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}
	f, _ := strconv.ParseFloat(m, 64)
	return f
}

// parseLeadingInt parses the longest integer prefix of s.
func parseLeadingInt(s string) float64 {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(strings.TrimLeft(s, "+-"))
	if strings.HasPrefix(lower, "0x") {
		digits := lower[2:]
		end := 0
		for end < len(digits) && strings.IndexByte("0123456789abcdef", digits[end]) >= 0 {
			end++
		}
		if end == 0 {
			return math.NaN()
		}
		n, _ := strconv.ParseUint(digits[:end], 16, 64)
		if strings.HasPrefix(s, "-") {
			return -float64(n)
		}
		return float64(n)
	}
	m := leadingInt.FindString(s)
	if m == "" {
		return math.NaN()
	}
	f, _ := strconv.ParseFloat(m, 64)
	return f
}

// sliceBounds resolves start/end indices with negative values counting from
// the end and clamps them to [0, n].
func sliceBounds(n int, start Value, end Value, hasEnd bool) (int, int) {
	clamp := func(i int) int {
		if i < 0 {
			i += n
			if i < 0 {
				i = 0
			}
		}
		if i > n {
			i = n
		}
		return i
	}
	from := clamp(toInt(start))
	to := n
	if hasEnd {
		if _, none := end.(NoneValue); !none {
			to = clamp(toInt(end))
		}
	}
	if to < from {
		to = from
	}
	return from, to
}
