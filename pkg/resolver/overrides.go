package resolver

import (
	"context"
	"strings"

	"github.com/synaptica-ai/riskengine/pkg/clinical"
	"github.com/synaptica-ai/riskengine/pkg/common/logger"
)

// Sex is the biological sex used by override predicates.
type Sex int

const (
	SexUnknown Sex = iota
	SexMale
	SexFemale
)

func (s Sex) String() string {
	switch s {
	case SexMale:
		return "male"
	case SexFemale:
		return "female"
	}
	return "unknown"
}

// OverrideRule replaces a resolved value when When holds. Rules run after
// fallback resolution and are skipped for values taken from the report.
type OverrideRule struct {
	Name    string
	Domain  clinical.Domain
	Feature string
	When    func(*Facts) bool
	Value   float64
	Source  clinical.SourceTag
}

// MalePregnanciesRule forces Pregnancies to 0 for male patients.
func MalePregnanciesRule() OverrideRule {
	return OverrideRule{
		Name:    "male-pregnancies",
		Domain:  clinical.Diabetes,
		Feature: "Pregnancies",
		When: func(f *Facts) bool {
			return f.Sex() == SexMale
		},
		Value:  0,
		Source: clinical.SourceGenderDefault,
	}
}

// DefaultRules returns the override rules applied by the assessment service.
func DefaultRules() []OverrideRule {
	return []OverrideRule{MalePregnanciesRule()}
}

var (
	documentSexAliases = []string{"sex", "gender"}
	userSexAliases     = []string{"gender", "sex"}
)

// Facts is what override predicates may inspect. Sex is resolved on first
// use: document sex, then user gender or sex, then the profile store.
type Facts struct {
	ctx      context.Context
	doc      candidates
	user     candidates
	profile  func(context.Context) (string, error)
	sex      Sex
	resolved bool
}

func newFacts(ctx context.Context, doc, user candidates, profile func(context.Context) (string, error)) *Facts {
	return &Facts{ctx: ctx, doc: doc, user: user, profile: profile}
}

// Sex returns the patient's biological sex, consulting the profile store at
// most once and only when neither input map names it.
func (f *Facts) Sex() Sex {
	if f.resolved {
		return f.sex
	}
	f.resolved = true

	if raw, ok := f.doc.first(documentSexAliases); ok {
		if s := parseSex(raw); s != SexUnknown {
			f.sex = s
			return f.sex
		}
	}
	if raw, ok := f.user.first(userSexAliases); ok {
		if s := parseSex(raw); s != SexUnknown {
			f.sex = s
			return f.sex
		}
	}
	if f.profile != nil {
		gender, err := f.profile(f.ctx)
		if err != nil {
			logger.Log.WithError(err).Debug("Profile gender lookup failed")
			return f.sex
		}
		f.sex = parseSex(gender)
	}
	return f.sex
}

func (f *Facts) consultedSex() Sex {
	if !f.resolved {
		return SexUnknown
	}
	return f.sex
}

func parseSex(raw any) Sex {
	if v, ok := coerce(raw); ok {
		switch v {
		case 1:
			return SexMale
		case 0:
			return SexFemale
		}
		return SexUnknown
	}
	s, ok := raw.(string)
	if !ok {
		return SexUnknown
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male", "m":
		return SexMale
	case "female", "f":
		return SexFemale
	}
	return SexUnknown
}
