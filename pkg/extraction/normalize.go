package extraction

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// normalize converts a raw capture into a candidate value. ok is false when
// the capture is malformed; the key is then left out of the result.
func normalize(kind Kind, raw string) (value any, ok bool) {
	switch kind {
	case KindName:
		name := strings.Join(strings.Fields(raw), " ")
		if name == "" {
			return nil, false
		}
		// Casers carry state and are not shared between goroutines.
		return cases.Title(language.Und).String(name), true
	case KindSex:
		if strings.HasPrefix(raw, "m") {
			return 1, true
		}
		return 0, true
	case KindThal:
		switch {
		case strings.Contains(raw, "reversible"), strings.Contains(raw, "reversable"):
			return 3, true
		case strings.Contains(raw, "fixed"):
			return 2, true
		case strings.Contains(raw, "normal"):
			return 1, true
		}
		return parseInt(raw)
	case KindExang:
		switch {
		case strings.Contains(raw, "yes"):
			return 1, true
		case strings.Contains(raw, "no"):
			return 0, true
		}
		return parseInt(raw)
	case KindBloodPressure:
		return strings.TrimSpace(raw), true
	default:
		return parseNumber(raw)
	}
}

func parseInt(raw string) (any, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return nil, false
	}
	return n, true
}

// parseNumber yields an int for integer-looking captures and a float64 for
// captures containing a decimal point.
func parseNumber(raw string) (any, bool) {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, ".") {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, false
		}
		return f, true
	}
	return parseInt(raw)
}

// splitBloodPressure parses "120/80" into systolic and diastolic readings.
func splitBloodPressure(raw string) (systolic, diastolic int, ok bool) {
	parts := strings.Split(raw, "/")
	if len(parts) != 2 {
		return 0, 0, false
	}
	sys, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}
	dia, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, false
	}
	return sys, dia, true
}
