package resolver

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/synaptica-ai/riskengine/pkg/clinical"
)

// candidates is a read-only view over a CandidateMap with case-insensitive
// alias matching. An exact-case key always precedes folded matches, which
// follow in sorted key order so that resolution is deterministic.
type candidates struct {
	values clinical.CandidateMap
	keys   []string
}

func newCandidates(m clinical.CandidateMap) candidates {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return candidates{values: m, keys: keys}
}

// lookup returns every value stored under a spelling of alias.
func (c candidates) lookup(alias string) []any {
	var out []any
	if v, ok := c.values[alias]; ok {
		out = append(out, v)
	}
	for _, k := range c.keys {
		if k != alias && strings.EqualFold(k, alias) {
			out = append(out, c.values[k])
		}
	}
	return out
}

// firstNumeric scans aliases in declaration order and returns the first
// non-empty value that coerces to a number.
func (c candidates) firstNumeric(aliases []string) (float64, bool) {
	for _, alias := range aliases {
		for _, raw := range c.lookup(alias) {
			if v, ok := coerce(raw); ok {
				return v, true
			}
		}
	}
	return 0, false
}

// first returns the first non-empty value under any alias, uncoerced.
func (c candidates) first(aliases []string) (any, bool) {
	for _, alias := range aliases {
		for _, raw := range c.lookup(alias) {
			if !isEmpty(raw) {
				return raw, true
			}
		}
	}
	return nil, false
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// coerce converts a raw candidate to a finite float64.
func coerce(v any) (float64, bool) {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case float32:
		f = float64(val)
	case int:
		f = float64(val)
	case int8:
		f = float64(val)
	case int16:
		f = float64(val)
	case int32:
		f = float64(val)
	case int64:
		f = float64(val)
	case uint:
		f = float64(val)
	case uint8:
		f = float64(val)
	case uint16:
		f = float64(val)
	case uint32:
		f = float64(val)
	case uint64:
		f = float64(val)
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
