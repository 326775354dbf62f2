// Package predictor holds the pre-trained domain classifiers. Artifacts are
// read once at start-up into an immutable Registry.
package predictor

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/synaptica-ai/riskengine/pkg/clinical"
	"github.com/synaptica-ai/riskengine/pkg/ml/linear"
	"github.com/synaptica-ai/riskengine/pkg/vector"
)

var ErrClassification = errors.New("classification failed")

// Artifact is the on-disk form of one domain model.
type Artifact struct {
	Model struct {
		Type         string         `json:"type"`
		Algorithm    string         `json:"algorithm"`
		FeatureNames []string       `json:"feature_names"`
		Weights      linear.Weights `json:"weights"`
	} `json:"model"`
	Scaler linear.Scaler `json:"scaler"`
}

// Prediction is a binary outcome with its probability as a percentage
// rounded to two decimals.
type Prediction struct {
	Positive    bool    `json:"positive"`
	Probability float64 `json:"probability"`
}

type model struct {
	scaler  linear.Scaler
	weights linear.Weights
}

// Registry maps a domain to its loaded model. It is never mutated after
// construction and is safe for concurrent use.
type Registry struct {
	models map[clinical.Domain]model
}

// ArtifactPath is where Load expects the artifact of a domain.
func ArtifactPath(dir string, domain clinical.Domain) string {
	return filepath.Join(dir, fmt.Sprintf("%s_model.json", domain))
}

// Load reads one artifact per supported domain from dir. When featuresPath
// is set, the heart model's declared order is also checked against it.
func Load(dir, featuresPath string) (*Registry, error) {
	artifacts := make(map[clinical.Domain]Artifact, len(clinical.Domains()))
	for _, domain := range clinical.Domains() {
		artifact, err := readArtifact(ArtifactPath(dir, domain))
		if err != nil {
			return nil, fmt.Errorf("load %s model: %w", domain, err)
		}
		artifacts[domain] = artifact
	}

	if featuresPath != "" {
		content, err := os.ReadFile(filepath.Clean(featuresPath))
		if err != nil {
			return nil, fmt.Errorf("read heart feature order: %w", err)
		}
		var names []string
		if err := json.Unmarshal(content, &names); err != nil {
			return nil, fmt.Errorf("decode heart feature order: %w", err)
		}
		if err := vector.VerifyOrder(clinical.HeartConfig(), names); err != nil {
			return nil, fmt.Errorf("heart feature order: %w", err)
		}
	}

	return NewRegistry(artifacts)
}

// NewRegistry validates artifacts against the domain contracts.
func NewRegistry(artifacts map[clinical.Domain]Artifact) (*Registry, error) {
	models := make(map[clinical.Domain]model, len(artifacts))
	for domain, artifact := range artifacts {
		cfg, err := clinical.ConfigFor(domain)
		if err != nil {
			return nil, err
		}
		if err := vector.VerifyOrder(cfg, artifact.Model.FeatureNames); err != nil {
			return nil, fmt.Errorf("%s artifact: %w", domain, err)
		}
		n := len(cfg.Features)
		if len(artifact.Model.Weights.Coefficients) != n {
			return nil, fmt.Errorf("%s artifact has %d coefficients, expected %d",
				domain, len(artifact.Model.Weights.Coefficients), n)
		}
		if err := artifact.Scaler.Validate(n); err != nil {
			return nil, fmt.Errorf("%s artifact: %w", domain, err)
		}
		models[domain] = model{scaler: artifact.Scaler, weights: artifact.Model.Weights}
	}
	return &Registry{models: models}, nil
}

// Classify scales the vector and evaluates the domain model.
func (r *Registry) Classify(domain clinical.Domain, sample []float64) (Prediction, error) {
	m, ok := r.models[domain]
	if !ok {
		return Prediction{}, fmt.Errorf("%w: no model loaded for %s", ErrClassification, domain)
	}
	scaled, err := m.scaler.Transform(sample)
	if err != nil {
		return Prediction{}, fmt.Errorf("%w: %v", ErrClassification, err)
	}
	p, err := m.weights.PredictProba(scaled)
	if err != nil {
		return Prediction{}, fmt.Errorf("%w: %v", ErrClassification, err)
	}
	return Prediction{
		Positive:    p >= 0.5,
		Probability: math.Round(p*100*100) / 100,
	}, nil
}

func readArtifact(path string) (Artifact, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Artifact{}, err
	}
	var artifact Artifact
	if err := json.Unmarshal(content, &artifact); err != nil {
		return Artifact{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return artifact, nil
}
