package retention

import (
	"math"
	"strings"
)

// Unit multipliers, in days.
const (
	DaysPerDay   = 1
	DaysPerWeek  = 7
	DaysPerMonth = 30
	DaysPerYear  = 365
)

// ParseDays converts a duration string into a day count.
//
// The accepted grammar is one or more ASCII digits followed by an optional
// unit letter (d, w, m or y). Surrounding whitespace and letter case are
// ignored and a missing unit means days. The second return value is false for
// empty input, unknown units, signs, embedded spaces, or values that overflow.
func ParseDays(s string) (int, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}

	digits := s
	multiplier := DaysPerDay
	switch s[len(s)-1] {
	case 'd':
		digits = s[:len(s)-1]
	case 'w':
		digits, multiplier = s[:len(s)-1], DaysPerWeek
	case 'm':
		digits, multiplier = s[:len(s)-1], DaysPerMonth
	case 'y':
		digits, multiplier = s[:len(s)-1], DaysPerYear
	}
	if digits == "" {
		return 0, false
	}

	n := 0
	for i := 0; i < len(digits); i++ {
		c := digits[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		d := int(c - '0')
		if n > (math.MaxInt-d)/10 {
			return 0, false
		}
		n = n*10 + d
	}

	if n > math.MaxInt/multiplier {
		return 0, false
	}
	return n * multiplier, true
}

// ParseValue is ParseDays for values decoded from YAML. Anything that is not a
// string is invalid, including bare integers.
func ParseValue(v any) (int, bool) {
	s, ok := v.(string)
	if !ok {
		return 0, false
	}
	return ParseDays(s)
}
