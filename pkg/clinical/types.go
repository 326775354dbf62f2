package clinical

import "fmt"

// CandidateMap is a raw key to raw value mapping as produced by document
// extraction or received from a form. Values are strings or numbers.
type CandidateMap map[string]any

// SourceTag records which tier produced a resolved value.
type SourceTag int

const (
	SourceEstimated SourceTag = iota
	SourceReport
	SourceUser
	SourceGenderDefault
)

var sourceNames = map[SourceTag]string{
	SourceEstimated:     "Estimated",
	SourceReport:        "Report",
	SourceUser:          "User",
	SourceGenderDefault: "Gender Default (Male)",
}

func (s SourceTag) String() string {
	if name, ok := sourceNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SourceTag(%d)", int(s))
}

func (s SourceTag) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SourceTag) UnmarshalText(b []byte) error {
	for tag, name := range sourceNames {
		if name == string(b) {
			*s = tag
			return nil
		}
	}
	return fmt.Errorf("unknown source tag %q", string(b))
}

// ResolvedFeature is the outcome of resolving one canonical feature.
type ResolvedFeature struct {
	Name   string    `json:"name"`
	Value  float64   `json:"value"`
	Source SourceTag `json:"source"`
}
