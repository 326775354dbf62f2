// Package defaults provides population median values used when neither the
// report nor the patient supplies a feature. Diabetes values follow the PIMA
// dataset, heart values the UCI dataset.
package defaults

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/synaptica-ai/riskengine/pkg/clinical"
	"gopkg.in/yaml.v3"
)

// Table maps domain to default key to value.
type Table map[clinical.Domain]map[string]float64

type file struct {
	Domains map[string]map[string]float64 `yaml:"domains"`
}

// Provider is an immutable lookup over a Table.
type Provider struct {
	table Table
}

func NewProvider(t Table) *Provider {
	copied := make(Table, len(t))
	for domain, values := range t {
		inner := make(map[string]float64, len(values))
		for k, v := range values {
			inner[strings.ToLower(k)] = v
		}
		copied[domain] = inner
	}
	return &Provider{table: copied}
}

// Lookup returns the default for key within domain.
func (p *Provider) Lookup(domain clinical.Domain, key string) (float64, bool) {
	if p == nil {
		return 0, false
	}
	values, ok := p.table[domain]
	if !ok {
		return 0, false
	}
	v, ok := values[strings.ToLower(key)]
	return v, ok
}

// Load reads a YAML defaults file. An empty path selects DefaultTable.
// Domains absent from the file keep their built-in values.
func Load(path string) (*Provider, error) {
	if path == "" {
		return NewProvider(DefaultTable()), nil
	}
	content, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read defaults: %w", err)
	}
	var f file
	if err := yaml.Unmarshal(content, &f); err != nil {
		return nil, fmt.Errorf("decode defaults: %w", err)
	}
	if len(f.Domains) == 0 {
		return nil, fmt.Errorf("defaults file %s declares no domains", path)
	}

	table := DefaultTable()
	for name, values := range f.Domains {
		domain, ok := clinical.ParseDomain(name)
		if !ok {
			return nil, fmt.Errorf("defaults file declares unknown domain %q", name)
		}
		table[domain] = values
	}
	return NewProvider(table), nil
}

func DefaultTable() Table {
	return Table{
		clinical.Diabetes: {
			"pregnancies":              3,
			"glucose":                  120,
			"bloodpressure":            72,
			"skinthickness":            23,
			"insulin":                  30,
			"bmi":                      32.0,
			"diabetespedigreefunction": 0.37,
			"age":                      29,
		},
		clinical.Heart: {
			"age":      55,
			"sex":      1,
			"cp":       0,
			"trestbps": 130,
			"chol":     240,
			"fbs":      0,
			"restecg":  1,
			"thalach":  153,
			"exang":    0,
			"oldpeak":  0.8,
			"slope":    1,
			"ca":       0,
			"thal":     2,
		},
	}
}
