// Package vector turns resolved features into the fixed-order numeric input
// a domain classifier expects.
package vector

import (
	"errors"
	"fmt"

	"github.com/synaptica-ai/riskengine/pkg/clinical"
)

var ErrFeatureMismatch = errors.New("feature set does not match domain contract")

// Assemble places every resolved value at its canonical position. The input
// order of resolved does not matter; a missing, duplicated or unexpected
// feature is an error.
func Assemble(cfg clinical.Config, resolved []clinical.ResolvedFeature) ([]float64, error) {
	if len(resolved) != len(cfg.Features) {
		return nil, fmt.Errorf("%w: %s expects %d features, got %d",
			ErrFeatureMismatch, cfg.Domain, len(cfg.Features), len(resolved))
	}

	out := make([]float64, len(cfg.Features))
	seen := make([]bool, len(cfg.Features))
	for _, f := range resolved {
		idx := cfg.Index(f.Name)
		if idx < 0 {
			return nil, fmt.Errorf("%w: unexpected feature %q for %s", ErrFeatureMismatch, f.Name, cfg.Domain)
		}
		if seen[idx] {
			return nil, fmt.Errorf("%w: duplicate feature %q", ErrFeatureMismatch, f.Name)
		}
		seen[idx] = true
		out[idx] = f.Value
	}
	return out, nil
}

// VerifyOrder checks that names, typically read from a model artifact, list
// exactly the domain's features in the same order.
func VerifyOrder(cfg clinical.Config, names []string) error {
	want := cfg.Names()
	if len(names) != len(want) {
		return fmt.Errorf("%w: %s expects %d features, artifact lists %d",
			ErrFeatureMismatch, cfg.Domain, len(want), len(names))
	}
	for i := range want {
		if names[i] != want[i] {
			return fmt.Errorf("%w: position %d is %q, expected %q", ErrFeatureMismatch, i, names[i], want[i])
		}
	}
	return nil
}
