package retention

import (
	"fmt"
	"strconv"
)

// Policy keys inside a media-deletion fragment, in resolution order.
const (
	KeyMovieExpiration  = "movie-expiration"
	KeySeasonExpiration = "season-expiration"
	KeyTime             = "time"
)

// Rule keys that may hold the media-deletion fragment.
var mediaDeletionKeys = []string{"media_deletion", "media-deletion"}

// Days is an optional day count. The zero value is Unknown.
type Days struct {
	n     int
	known bool
}

// Unknown is the absent retention.
var Unknown = Days{}

// Known returns a Days holding n.
func Known(n int) Days {
	return Days{n: n, known: true}
}

// Get returns the day count and whether it is known.
func (d Days) Get() (int, bool) {
	return d.n, d.known
}

// IsKnown reports whether a day count is present.
func (d Days) IsKnown() bool {
	return d.known
}

func (d Days) String() string {
	if !d.known {
		return "unknown"
	}
	return strconv.Itoa(d.n) + "d"
}

// MarshalJSON encodes a known value as a number and Unknown as null.
func (d Days) MarshalJSON() ([]byte, error) {
	if !d.known {
		return []byte("null"), nil
	}
	return []byte(strconv.Itoa(d.n)), nil
}

// Resolve reduces a media-deletion fragment to its effective retention.
//
// Sources are consulted in order: movie-expiration tiers, season-expiration
// tiers, then the flat time value. The first source that yields at least one
// parseable duration wins. For a tier map the largest parsed value is used,
// since the most lenient tier bounds how long an item can survive.
func Resolve(fragment any) Days {
	m, ok := asMap(fragment)
	if !ok {
		return Unknown
	}

	for _, key := range []string{KeyMovieExpiration, KeySeasonExpiration} {
		if days, ok := maxTier(m[key]); ok {
			return Known(days)
		}
	}

	if days, ok := ParseValue(m[KeyTime]); ok {
		return Known(days)
	}
	return Unknown
}

// FromRules resolves the retention from a full deletion-rules mapping. The
// media-deletion entry may be spelled with an underscore or a hyphen, and may
// be a fragment or a bare duration string.
func FromRules(rules map[string]any) Days {
	for _, key := range mediaDeletionKeys {
		v, ok := rules[key]
		if !ok || v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			if days, ok := ParseDays(s); ok {
				return Known(days)
			}
			return Unknown
		}
		return Resolve(v)
	}
	return Unknown
}

func maxTier(v any) (int, bool) {
	tiers, ok := asMap(v)
	if !ok {
		return 0, false
	}

	best, found := 0, false
	for _, raw := range tiers {
		days, ok := ParseValue(raw)
		if !ok {
			continue
		}
		if !found || days > best {
			best, found = days, true
		}
	}
	return best, found
}

// asMap normalizes the two mapping shapes a YAML decoder can produce. Tier
// maps keyed by integers decode as map[any]any.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	case map[int]string:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[strconv.Itoa(k)] = val
		}
		return out, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[k] = val
		}
		return out, true
	default:
		return nil, false
	}
}
