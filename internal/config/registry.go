package config

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"github.com/goccy/go-yaml"
)

//go:embed datasets.yaml
var defaultDatasets []byte

// Kinds of dataset in the registry.
const (
	KindGAF   = "gaf"
	KindGPI   = "gpi"
	KindGPAD  = "gpad"
	KindOrtho = "ortho"
)

// Dataset describes one remote input file.
type Dataset struct {
	Key    string `yaml:"key"`
	Kind   string `yaml:"kind"`
	Taxon  string `yaml:"taxon"`
	URL    string `yaml:"url"`
	Gunzip bool   `yaml:"gunzip"`
}

// Registry is the set of known datasets keyed by Dataset.Key.
type Registry struct {
	datasets map[string]Dataset
}

type registryFile struct {
	Datasets []Dataset `yaml:"datasets"`
}

// DefaultRegistry parses the built-in dataset list.
func DefaultRegistry() (*Registry, error) {
	return ParseRegistry(defaultDatasets)
}

// LoadRegistry reads a registry file. An empty path means the built-in list.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return DefaultRegistry()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	r, err := ParseRegistry(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

func ParseRegistry(data []byte) (*Registry, error) {
	var f registryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse dataset registry: %w", err)
	}
	r := &Registry{datasets: make(map[string]Dataset, len(f.Datasets))}
	for i, d := range f.Datasets {
		switch {
		case d.Key == "":
			return nil, &ConfigError{Field: fmt.Sprintf("datasets[%d].key", i), Reason: "required"}
		case d.URL == "":
			return nil, &ConfigError{Field: d.Key + ".url", Reason: "required"}
		}
		switch d.Kind {
		case KindGAF, KindGPI, KindGPAD, KindOrtho:
		default:
			return nil, &ConfigError{Field: d.Key + ".kind", Reason: fmt.Sprintf("unknown kind %q", d.Kind)}
		}
		if _, dup := r.datasets[d.Key]; dup {
			return nil, &ConfigError{Field: d.Key, Reason: "duplicate key"}
		}
		r.datasets[d.Key] = d
	}
	return r, nil
}

func (r *Registry) Lookup(key string) (Dataset, bool) {
	d, ok := r.datasets[key]
	return d, ok
}

// Keys returns every dataset key, sorted.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.datasets))
	for k := range r.datasets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Find returns the first dataset, by key order, of the given kind for the
// taxon. An empty taxon matches datasets that declare none.
func (r *Registry) Find(kind, taxon string) (Dataset, bool) {
	for _, k := range r.Keys() {
		d := r.datasets[k]
		if d.Kind == kind && d.Taxon == taxon {
			return d, true
		}
	}
	return Dataset{}, false
}
