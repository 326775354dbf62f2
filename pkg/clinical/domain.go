// Package clinical holds the per-domain feature contracts shared by the
// resolver, the vector assembler and the classifier registry.
package clinical

import (
	"fmt"
	"strings"
)

type Domain string

const (
	Diabetes Domain = "diabetes"
	Heart    Domain = "heart"
)

// Domains lists every supported domain in a stable order.
func Domains() []Domain {
	return []Domain{Diabetes, Heart}
}

// ParseDomain accepts the domain name in any case.
func ParseDomain(s string) (Domain, bool) {
	switch Domain(strings.ToLower(strings.TrimSpace(s))) {
	case Diabetes:
		return Diabetes, true
	case Heart:
		return Heart, true
	}
	return "", false
}

// Feature is one canonical measurement. Aliases are consulted in declaration
// order; DefaultKey addresses the population default table.
type Feature struct {
	Name       string
	Aliases    []string
	DefaultKey string
}

// Config is the fixed contract of one domain. Feature order is the input
// order the domain's classifier was trained on.
type Config struct {
	Domain        Domain
	Features      []Feature
	PositiveLabel string
	NegativeLabel string
	Department    string
}

// Names returns the canonical feature names in model order.
func (c Config) Names() []string {
	names := make([]string, len(c.Features))
	for i, f := range c.Features {
		names[i] = f.Name
	}
	return names
}

// Index returns the position of a canonical feature, or -1.
func (c Config) Index(name string) int {
	for i, f := range c.Features {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Label maps a binary prediction to the domain's display label.
func (c Config) Label(positive bool) string {
	if positive {
		return c.PositiveLabel
	}
	return c.NegativeLabel
}

// RecommendedDepartment is the department to route a patient to.
func (c Config) RecommendedDepartment(positive bool) string {
	if positive {
		return c.Department
	}
	return "General"
}

// DiabetesConfig returns the diabetes contract (PIMA feature order).
func DiabetesConfig() Config {
	return Config{
		Domain: Diabetes,
		Features: []Feature{
			{Name: "Pregnancies", Aliases: []string{"Pregnancies", "pregnancies"}, DefaultKey: "pregnancies"},
			{Name: "Glucose", Aliases: []string{"Glucose", "glucose"}, DefaultKey: "glucose"},
			{Name: "BloodPressure", Aliases: []string{"BloodPressure", "blood_pressure", "bp", "bloodpressure", "diastolic"}, DefaultKey: "bloodpressure"},
			{Name: "SkinThickness", Aliases: []string{"SkinThickness", "skin_thickness", "skinthickness"}, DefaultKey: "skinthickness"},
			{Name: "Insulin", Aliases: []string{"Insulin", "insulin"}, DefaultKey: "insulin"},
			{Name: "BMI", Aliases: []string{"BMI", "bmi"}, DefaultKey: "bmi"},
			{Name: "DiabetesPedigreeFunction", Aliases: []string{"DiabetesPedigreeFunction", "dpf", "diabetespedigreefunction"}, DefaultKey: "diabetespedigreefunction"},
			{Name: "Age", Aliases: []string{"Age", "age"}, DefaultKey: "age"},
		},
		PositiveLabel: "Diabetic",
		NegativeLabel: "Non-Diabetic",
		Department:    "Endocrinology",
	}
}

// HeartConfig returns the heart disease contract (UCI feature order).
func HeartConfig() Config {
	return Config{
		Domain: Heart,
		Features: []Feature{
			{Name: "age", Aliases: []string{"Age", "age"}, DefaultKey: "age"},
			{Name: "sex", Aliases: []string{"Sex", "sex"}, DefaultKey: "sex"},
			{Name: "cp", Aliases: []string{"CP", "cp", "chest_pain"}, DefaultKey: "cp"},
			{Name: "trestbps", Aliases: []string{"Trestbps", "trestbps", "blood_pressure", "bp", "systolic"}, DefaultKey: "trestbps"},
			{Name: "chol", Aliases: []string{"Chol", "chol", "cholesterol"}, DefaultKey: "chol"},
			{Name: "fbs", Aliases: []string{"FBS", "fbs", "fasting_blood_sugar"}, DefaultKey: "fbs"},
			{Name: "restecg", Aliases: []string{"RestECG", "restecg"}, DefaultKey: "restecg"},
			{Name: "thalach", Aliases: []string{"Thalach", "thalach", "max_heart_rate"}, DefaultKey: "thalach"},
			{Name: "exang", Aliases: []string{"Exang", "exang", "exercise_angina"}, DefaultKey: "exang"},
			{Name: "oldpeak", Aliases: []string{"Oldpeak", "oldpeak", "st_depression"}, DefaultKey: "oldpeak"},
			{Name: "slope", Aliases: []string{"Slope", "slope"}, DefaultKey: "slope"},
			{Name: "ca", Aliases: []string{"CA", "ca", "major_vessels"}, DefaultKey: "ca"},
			{Name: "thal", Aliases: []string{"Thal", "thal", "thalassemia"}, DefaultKey: "thal"},
		},
		PositiveLabel: "Heart Disease Detected",
		NegativeLabel: "No Heart Disease",
		Department:    "Cardiology",
	}
}

var configs = map[Domain]Config{
	Diabetes: DiabetesConfig(),
	Heart:    HeartConfig(),
}

// ConfigFor returns the contract for a domain. The returned value shares no
// mutable state with the package table.
func ConfigFor(d Domain) (Config, error) {
	cfg, ok := configs[d]
	if !ok {
		return Config{}, fmt.Errorf("unknown domain %q", d)
	}
	out := cfg
	out.Features = make([]Feature, len(cfg.Features))
	for i, f := range cfg.Features {
		f.Aliases = append([]string(nil), f.Aliases...)
		out.Features[i] = f
	}
	return out, nil
}
