// Package fixture reads and writes hydrology record fixtures as YAML or JSON.
// Records keep their API wire form, so a fixture body can be posted as is.
package fixture

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/storm-hydrology-service/internal/domain"
)

// Synthesis names a design storm to derive from fixture records by index.
type Synthesis struct {
	IDFTable        int     `json:"idf_table" yaml:"idf_table"`
	TemporalPattern int     `json:"temporal_pattern" yaml:"temporal_pattern"`
	DurationMins    float64 `json:"duration_in_mins" yaml:"duration_in_mins"`
	Frequency       string  `json:"frequency" yaml:"frequency"`
	Timezone        string  `json:"timezone,omitempty" yaml:"timezone,omitempty"`
	Start           string  `json:"start,omitempty" yaml:"start,omitempty"`
	// Points is the expected series length; zero skips the check.
	Points int `json:"points,omitempty" yaml:"points,omitempty"`
}

// Set is the content of one fixture file. Record bodies are kept raw so that
// decoding goes through the same paths as API request bodies.
type Set struct {
	IDFTables        []json.RawMessage `json:"idf_tables"`
	TemporalPatterns []json.RawMessage `json:"temporal_patterns"`
	TimeSeries       []json.RawMessage `json:"time_series"`
	Synthesis        []Synthesis       `json:"synthesis,omitempty"`
}

// Add appends a record in its wire form.
func (s *Set) Add(record any) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	switch record.(type) {
	case *domain.IDFTable:
		s.IDFTables = append(s.IDFTables, data)
	case *domain.TemporalPattern:
		s.TemporalPatterns = append(s.TemporalPatterns, data)
	case *domain.TimeSeries:
		s.TimeSeries = append(s.TimeSeries, data)
	default:
		return fmt.Errorf("unsupported fixture record %T", record)
	}
	return nil
}

// Load reads a fixture; ".yaml" and ".yml" files are YAML, anything else JSON.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if isYAML(path) {
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	var set Set
	if err := json.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("%s: decode fixture: %w", path, err)
	}
	return &set, nil
}

// Save writes the fixture in the format its extension names.
func Save(path string, set *Set) error {
	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return fmt.Errorf("encode fixture: %w", err)
	}
	if isYAML(path) {
		if data, err = jsonToYAML(data); err != nil {
			return err
		}
	} else {
		data = append(data, '\n')
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("convert yaml: %w", err)
	}
	return out, nil
}

func jsonToYAML(data []byte) ([]byte, error) {
	var doc yaml.Node
	// JSON is a subset of YAML, so the node tree keeps key order.
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("convert to yaml: %w", err)
	}
	restyle(&doc)
	out, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return out, nil
}

// restyle switches a node tree parsed from JSON to block style, keeping
// number lists on one line.
func restyle(n *yaml.Node) {
	n.Style = 0
	if n.Kind == yaml.SequenceNode && len(n.Content) > 0 && n.Content[0].Kind == yaml.ScalarNode {
		n.Style = yaml.FlowStyle
	}
	for _, c := range n.Content {
		restyle(c)
	}
}
