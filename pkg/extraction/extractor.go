package extraction

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/synaptica-ai/riskengine/pkg/clinical"
	"github.com/synaptica-ai/riskengine/pkg/common/logger"
	"golang.org/x/text/unicode/norm"
)

// maxDocumentBytes bounds how much of a document's text layer is scanned.
const maxDocumentBytes = 4 << 20

type compiledPattern struct {
	pattern Pattern
	re      *regexp.Regexp
}

// Extractor turns document text into candidate values. It is immutable after
// construction and safe for concurrent use.
type Extractor struct {
	patterns []compiledPattern
}

// Result is the outcome of one extraction. Name and Sex are echoed for
// display; Sex is also present in Values for the resolver.
type Result struct {
	Values clinical.CandidateMap
	Name   string
	Sex    *int
}

func New(table PatternTable) (*Extractor, error) {
	seen := make(map[string]struct{}, len(table.Patterns))
	compiled := make([]compiledPattern, 0, len(table.Patterns))
	for _, p := range table.Patterns {
		if p.Key == "" {
			return nil, fmt.Errorf("pattern %q has no key", p.Pattern)
		}
		if _, dup := seen[p.Key]; dup {
			return nil, fmt.Errorf("duplicate pattern for key %q", p.Key)
		}
		seen[p.Key] = struct{}{}
		if p.Kind == "" {
			p.Kind = KindNumeric
		}
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile pattern %q: %w", p.Key, err)
		}
		compiled = append(compiled, compiledPattern{pattern: p, re: re})
	}
	return &Extractor{patterns: compiled}, nil
}

// Extract scans text with every pattern; the first match of each wins.
func (e *Extractor) Extract(text string) Result {
	result := Result{Values: clinical.CandidateMap{}}
	if e == nil {
		return result
	}
	text = strings.ToLower(norm.NFKC.String(text))
	if strings.TrimSpace(text) == "" {
		return result
	}

	for _, cp := range e.patterns {
		match := cp.re.FindStringSubmatch(text)
		if len(match) < 2 {
			continue
		}
		value, ok := normalize(cp.pattern.Kind, match[1])
		if !ok {
			logger.Log.WithField("key", cp.pattern.Key).Debug("dropping malformed capture")
			continue
		}

		switch cp.pattern.Kind {
		case KindName:
			result.Name = value.(string)
		case KindSex:
			sex := value.(int)
			result.Sex = &sex
		case KindBloodPressure:
			sys, dia, ok := splitBloodPressure(value.(string))
			if !ok {
				continue
			}
			result.Values["systolic"] = sys
			result.Values["diastolic"] = dia
		}
		result.Values[cp.pattern.Key] = value
	}

	logger.Log.WithField("fields", len(result.Values)).Debug("document extraction finished")
	return result
}

// ExtractDocument reads a document's text layer and extracts from it. Read
// failures and documents without a text layer produce an empty result.
func (e *Extractor) ExtractDocument(r io.Reader) Result {
	if r == nil {
		return Result{Values: clinical.CandidateMap{}}
	}
	content, err := io.ReadAll(io.LimitReader(r, maxDocumentBytes))
	if err != nil {
		logger.Log.WithError(err).Warn("unable to read document, continuing without report values")
		return Result{Values: clinical.CandidateMap{}}
	}
	if !utf8.Valid(content) {
		logger.Log.Warn("document has no text layer, continuing without report values")
		return Result{Values: clinical.CandidateMap{}}
	}
	return e.Extract(string(content))
}
