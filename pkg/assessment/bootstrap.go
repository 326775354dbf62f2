package assessment

import (
	"fmt"

	"github.com/synaptica-ai/riskengine/pkg/common/config"
	"github.com/synaptica-ai/riskengine/pkg/defaults"
	"github.com/synaptica-ai/riskengine/pkg/extraction"
	"github.com/synaptica-ai/riskengine/pkg/resolver"
	"github.com/synaptica-ai/riskengine/pkg/serving/predictor"
)

// Components are the read-only tables every request shares. They are built
// once at start-up; any error here should stop the process.
type Components struct {
	Extractor *extraction.Extractor
	Resolver  *resolver.Resolver
	Registry  *predictor.Registry
}

// LoadComponents reads patterns, defaults and model artifacts from the
// locations in cfg. profiles may be nil.
func LoadComponents(cfg *config.Config, profiles resolver.ProfileLookup) (*Components, error) {
	table, err := extraction.LoadPatterns(cfg.ExtractionPatternsPath)
	if err != nil {
		return nil, fmt.Errorf("load extraction patterns: %w", err)
	}
	extractor, err := extraction.New(table)
	if err != nil {
		return nil, fmt.Errorf("build extractor: %w", err)
	}

	defaultValues, err := defaults.Load(cfg.DefaultsPath)
	if err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	res, err := resolver.New(defaultValues, profiles, resolver.DefaultRules()...)
	if err != nil {
		return nil, fmt.Errorf("build resolver: %w", err)
	}

	registry, err := predictor.Load(cfg.ModelArtifactDir, cfg.HeartFeaturesPath)
	if err != nil {
		return nil, fmt.Errorf("load model artifacts: %w", err)
	}

	return &Components{Extractor: extractor, Resolver: res, Registry: registry}, nil
}
