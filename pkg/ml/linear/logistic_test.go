package linear

import (
	"math"
	"testing"
)

func TestScalerTransform(t *testing.T) {
	s := Scaler{Mean: []float64{10, 0}, Scale: []float64{2, 0.5}}
	got, err := s.Transform([]float64{14, 1})
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if got[0] != 2 || got[1] != 2 {
		t.Fatalf("unexpected scaled sample %v", got)
	}
	if _, err := s.Transform([]float64{1}); err == nil {
		t.Fatal("expected dimension error")
	}
}

func TestScalerValidate(t *testing.T) {
	if err := (Scaler{Mean: []float64{0}, Scale: []float64{1}}).Validate(1); err != nil {
		t.Fatalf("expected valid scaler: %v", err)
	}
	if err := (Scaler{Mean: []float64{0}, Scale: []float64{0}}).Validate(1); err == nil {
		t.Fatal("expected zero scale to be rejected")
	}
	if err := (Scaler{Mean: []float64{0}, Scale: []float64{1}}).Validate(2); err == nil {
		t.Fatal("expected length mismatch to be rejected")
	}
}

func TestPredictProba(t *testing.T) {
	w := Weights{Bias: 0, Coefficients: []float64{1, -1}}
	p, err := w.PredictProba([]float64{2, 2})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if p != 0.5 {
		t.Fatalf("expected 0.5, got %v", p)
	}

	p, err = w.PredictProba([]float64{3, 0})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if want := 1 / (1 + math.Exp(-3)); math.Abs(p-want) > 1e-12 {
		t.Fatalf("expected %v, got %v", want, p)
	}

	if _, err := w.PredictProba([]float64{1}); err == nil {
		t.Fatal("expected dimension error")
	}
}
