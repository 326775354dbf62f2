// Package profile looks up stored patient attributes used during feature
// resolution. Only gender is read.
package profile

import (
	"context"
	"errors"

	"github.com/synaptica-ai/riskengine/pkg/observability/metrics"
)

var ErrProfileNotFound = errors.New("profile not found")

// Source is a profile store keyed by patient identifier (usually e-mail).
type Source interface {
	Gender(ctx context.Context, identifier string) (string, error)
}

// Disabled is a Source that never knows a patient.
type Disabled struct{}

func (Disabled) Gender(ctx context.Context, identifier string) (string, error) {
	return "", ErrProfileNotFound
}

// Observed counts lookup failures of the wrapped source. Unknown patients
// are not failures.
type Observed struct {
	Source
}

func (o Observed) Gender(ctx context.Context, identifier string) (string, error) {
	gender, err := o.Source.Gender(ctx, identifier)
	if err != nil && !errors.Is(err, ErrProfileNotFound) {
		metrics.ObserveProfileLookupFailure()
	}
	return gender, err
}
