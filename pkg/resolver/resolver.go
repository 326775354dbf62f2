package resolver

import (
	"context"
	"errors"
	"fmt"

	"github.com/synaptica-ai/riskengine/pkg/clinical"
	"github.com/synaptica-ai/riskengine/pkg/defaults"
)

var ErrUnknownDomain = errors.New("unknown domain")

// ProfileLookup is the profile store boundary: the stored gender of a
// patient keyed by e-mail or another identifier.
type ProfileLookup interface {
	Gender(ctx context.Context, identifier string) (string, error)
}

// Input is everything one resolution needs. Document and User may be nil.
type Input struct {
	Domain     clinical.Domain
	Document   clinical.CandidateMap
	User       clinical.CandidateMap
	Identifier string
}

// Resolution lists one resolved feature per canonical feature, in domain order.
type Resolution struct {
	Domain   clinical.Domain
	Features []clinical.ResolvedFeature
	// Sex is the biological sex seen by override rules; SexUnknown when no
	// rule needed it.
	Sex Sex
}

// Values returns the resolved values keyed by canonical name.
func (r Resolution) Values() map[string]float64 {
	out := make(map[string]float64, len(r.Features))
	for _, f := range r.Features {
		out[f.Name] = f.Value
	}
	return out
}

// Resolver merges report, user and default values under a strict priority
// order and then applies domain override rules. It holds no per-request state.
type Resolver struct {
	defaults *defaults.Provider
	profiles ProfileLookup
	rules    map[clinical.Domain][]OverrideRule
}

// New validates rules against the domain configs. profiles may be nil, in
// which case the profile tier of sex resolution is skipped.
func New(defaultValues *defaults.Provider, profiles ProfileLookup, rules ...OverrideRule) (*Resolver, error) {
	byDomain := make(map[clinical.Domain][]OverrideRule)
	for _, rule := range rules {
		cfg, err := clinical.ConfigFor(rule.Domain)
		if err != nil {
			return nil, fmt.Errorf("override rule %q: %w", rule.Name, ErrUnknownDomain)
		}
		if cfg.Index(rule.Feature) < 0 {
			return nil, fmt.Errorf("override rule %q targets unknown feature %q", rule.Name, rule.Feature)
		}
		if rule.When == nil {
			return nil, fmt.Errorf("override rule %q has no predicate", rule.Name)
		}
		byDomain[rule.Domain] = append(byDomain[rule.Domain], rule)
	}
	return &Resolver{defaults: defaultValues, profiles: profiles, rules: byDomain}, nil
}

// Resolve runs the three-tier fallback for every canonical feature of the
// domain: report, then user, then the population default (0 when the default
// table has no entry). Overrides run afterwards and never replace a value
// taken from the report.
func (r *Resolver) Resolve(ctx context.Context, in Input) (Resolution, error) {
	cfg, err := clinical.ConfigFor(in.Domain)
	if err != nil {
		return Resolution{}, fmt.Errorf("%w: %q", ErrUnknownDomain, in.Domain)
	}

	doc := newCandidates(in.Document)
	user := newCandidates(in.User)

	resolved := make([]clinical.ResolvedFeature, len(cfg.Features))
	for i, f := range cfg.Features {
		resolved[i] = r.resolveFeature(cfg.Domain, f, doc, user)
	}

	facts := newFacts(ctx, doc, user, r.profileGender(in.Identifier))
	for _, rule := range r.rules[cfg.Domain] {
		idx := cfg.Index(rule.Feature)
		if resolved[idx].Source == clinical.SourceReport {
			continue
		}
		if rule.When(facts) {
			resolved[idx].Value = rule.Value
			resolved[idx].Source = rule.Source
		}
	}

	return Resolution{Domain: cfg.Domain, Features: resolved, Sex: facts.consultedSex()}, nil
}

func (r *Resolver) resolveFeature(domain clinical.Domain, f clinical.Feature, doc, user candidates) clinical.ResolvedFeature {
	if v, ok := doc.firstNumeric(f.Aliases); ok {
		return clinical.ResolvedFeature{Name: f.Name, Value: v, Source: clinical.SourceReport}
	}
	if v, ok := user.firstNumeric(f.Aliases); ok {
		return clinical.ResolvedFeature{Name: f.Name, Value: v, Source: clinical.SourceUser}
	}
	v, _ := r.defaults.Lookup(domain, f.DefaultKey)
	return clinical.ResolvedFeature{Name: f.Name, Value: v, Source: clinical.SourceEstimated}
}

func (r *Resolver) profileGender(identifier string) func(context.Context) (string, error) {
	if r.profiles == nil || identifier == "" {
		return nil
	}
	return func(ctx context.Context) (string, error) {
		return r.profiles.Gender(ctx, identifier)
	}
}
