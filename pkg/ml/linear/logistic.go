// Package linear evaluates standardized logistic regression models.
package linear

import (
	"fmt"
	"math"
)

// Scaler standardizes a sample feature by feature: (x - mean) / scale.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Validate checks the scaler against the expected feature count.
func (s Scaler) Validate(features int) error {
	if len(s.Mean) != features || len(s.Scale) != features {
		return fmt.Errorf("scaler has %d means and %d scales, expected %d", len(s.Mean), len(s.Scale), features)
	}
	for i, v := range s.Scale {
		if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("scaler scale %d is %v", i, v)
		}
	}
	return nil
}

func (s Scaler) Transform(sample []float64) ([]float64, error) {
	if len(sample) != len(s.Mean) || len(sample) != len(s.Scale) {
		return nil, fmt.Errorf("sample has %d features, scaler expects %d", len(sample), len(s.Mean))
	}
	out := make([]float64, len(sample))
	for i, x := range sample {
		out[i] = (x - s.Mean[i]) / s.Scale[i]
	}
	return out, nil
}

type Weights struct {
	Bias         float64   `json:"bias"`
	Coefficients []float64 `json:"coefficients"`
}

// PredictProba returns the positive-class probability for a scaled sample.
func (w Weights) PredictProba(sample []float64) (float64, error) {
	if len(sample) != len(w.Coefficients) {
		return 0, fmt.Errorf("sample has %d features, model expects %d", len(sample), len(w.Coefficients))
	}
	p := sigmoid(dot(w.Coefficients, sample) + w.Bias)
	if math.IsNaN(p) {
		return 0, fmt.Errorf("probability is not a number")
	}
	return p, nil
}

func dot(weights []float64, sample []float64) float64 {
	var sum float64
	for i := 0; i < len(weights); i++ {
		sum += weights[i] * sample[i]
	}
	return sum
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
