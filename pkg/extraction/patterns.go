package extraction

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Kind selects the normaliser applied to a pattern's first capture group.
type Kind string

const (
	KindNumeric       Kind = "numeric"
	KindName          Kind = "name"
	KindSex           Kind = "sex"
	KindThal          Kind = "thal"
	KindExang         Kind = "exang"
	KindBloodPressure Kind = "blood_pressure"
)

type Pattern struct {
	Key     string `yaml:"key" json:"key"`
	Pattern string `yaml:"pattern" json:"pattern"`
	Kind    Kind   `yaml:"kind" json:"kind"`
}

type PatternTable struct {
	Patterns []Pattern `yaml:"patterns" json:"patterns"`
}

// LoadPatterns reads a YAML pattern table. An empty path selects the
// built-in table.
func LoadPatterns(path string) (PatternTable, error) {
	if path == "" {
		return DefaultPatterns(), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return DefaultPatterns(), fmt.Errorf("read pattern table: %w", err)
	}

	var table PatternTable
	if err := yaml.Unmarshal(content, &table); err != nil {
		return PatternTable{}, fmt.Errorf("decode pattern table: %w", err)
	}
	if len(table.Patterns) == 0 {
		return PatternTable{}, errors.New("no extraction patterns configured")
	}
	return table, nil
}

// DefaultPatterns matches the lab report layouts the platform receives.
// Patterns run against lower-cased text.
func DefaultPatterns() PatternTable {
	return PatternTable{Patterns: []Pattern{
		{Key: "name", Kind: KindName, Pattern: `(?:patient\s*name|name)\s*[:\-]?\s*([a-z\s\.]+)(?:\n|age|sex|$)`},
		{Key: "age", Kind: KindNumeric, Pattern: `age\s*(?:/\s*sex)?\s*[:\-]?\s*(\d{2})`},
		{Key: "sex", Kind: KindSex, Pattern: `sex\s*[:\-]?\s*(male|female|m|f)`},

		{Key: "glucose", Kind: KindNumeric, Pattern: `glucose\s*(?:\(.*\))?\s*[:\-]?\s*(\d{2,3})`},
		{Key: "blood_pressure", Kind: KindBloodPressure, Pattern: `(?:blood pressure|bp)\s*(?:\(.*\))?\s*[:\-]?\s*(\d{2,3}/\d{2,3})`},
		{Key: "pregnancies", Kind: KindNumeric, Pattern: `pregnancies\s*(?:\(.*\))?\s*[:\-]?\s*(\d+)`},
		{Key: "insulin", Kind: KindNumeric, Pattern: `insulin\s*(?:\(.*\))?\s*[:\-]?\s*(\d{2,3})`},
		{Key: "bmi", Kind: KindNumeric, Pattern: `bmi\s*(?:\(.*\))?\s*[:\-]?\s*(\d{2}(?:\.\d{1,2})?)`},
		{Key: "skin_thickness", Kind: KindNumeric, Pattern: `skin thickness\s*(?:\(.*\))?\s*[:\-]?\s*(\d{2,3})`},
		{Key: "dpf", Kind: KindNumeric, Pattern: `diabetes pedigree function\s*(?:\(.*\))?\s*[:\-]?\s*(\d+(?:\.\d+)?)`},

		{Key: "cholesterol", Kind: KindNumeric, Pattern: `(?:serum\s*)?cholesterol\s*(?:\(.*\))?\s*[:\-]?\s*(\d{2,3})`},
		{Key: "trestbps", Kind: KindNumeric, Pattern: `resting blood pressure\s*(?:\(.*\))?\s*[:\-]?\s*(\d{2,3})`},
		{Key: "thalach", Kind: KindNumeric, Pattern: `max heart rate\s*(?:\(.*\))?\s*[:\-]?\s*(\d{2,3})`},
		{Key: "oldpeak", Kind: KindNumeric, Pattern: `st depression\s*(?:\(.*\))?\s*[:\-]?\s*(\d+(?:\.\d+)?)`},
		{Key: "cp", Kind: KindNumeric, Pattern: `chest pain type\s*(?:\(.*\))?\s*[:\-]?\s*(\d)`},
		{Key: "ca", Kind: KindNumeric, Pattern: `(?:number of )?major vessels\s*(?:blocked)?\s*(?:\(.*\))?\s*[:\-]?\s*(\d)`},
		{Key: "thal", Kind: KindThal, Pattern: `thalassemia\s*(?:\(.*\))?\s*[:\-]?\s*(normal|fixed|reversible|reversable|\d)`},
		{Key: "exang", Kind: KindExang, Pattern: `(?:exercise induced )?angina\s*(?:\(.*\))?\s*[:\-]?\s*(yes|no|1|0)`},
	}}
}
