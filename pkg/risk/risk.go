// Package risk maps classifier probabilities to tiers and renders the
// short clinical summary shown alongside a result.
package risk

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/synaptica-ai/riskengine/pkg/clinical"
)

type Tier string

const (
	Low      Tier = "Low"
	Moderate Tier = "Moderate"
	High     Tier = "High"
)

// TierFor maps a probability percentage to a tier.
func TierFor(probability float64) Tier {
	switch {
	case probability < 40:
		return Low
	case probability < 75:
		return Moderate
	default:
		return High
	}
}

type threshold struct {
	feature string
	above   float64
	format  string
}

var thresholds = map[clinical.Domain][]threshold{
	clinical.Diabetes: {
		{feature: "Glucose", above: 140, format: "Elevated Glucose (%s mg/dL)"},
		{feature: "BMI", above: 30, format: "Obesity indicated (BMI %s)"},
	},
	clinical.Heart: {
		{feature: "chol", above: 240, format: "High Cholesterol (%s mg/dL)"},
		{feature: "trestbps", above: 140, format: "Hypertension (%s mmHg)"},
	},
}

// Flags lists the out-of-range indicators for a domain, keyed by canonical
// feature name. Missing features count as 0.
func Flags(domain clinical.Domain, values map[string]float64) []string {
	var flags []string
	for _, th := range thresholds[domain] {
		v := values[th.feature]
		if v > th.above {
			flags = append(flags, fmt.Sprintf(th.format, FormatValue(v)))
		}
	}
	return flags
}

func Summary(domain clinical.Domain, values map[string]float64, tier Tier) string {
	flags := Flags(domain, values)
	if len(flags) == 0 {
		return fmt.Sprintf("Patient shows %s risk profile based on provided parameters.", tier)
	}
	return fmt.Sprintf("Patient shows %s risk. Key concerns: %s.", tier, strings.Join(flags, ", "))
}

// FormatValue prints v in its shortest form with at least one decimal,
// so 180 renders as "180.0" and 33.6 as "33.6".
func FormatValue(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}
