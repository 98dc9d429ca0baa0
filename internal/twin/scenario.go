package twin

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is a recorded real/twin run loaded from YAML.
type Scenario struct {
	// Name identifies the scenario in logs and receipts.
	Name string `yaml:"name"`

	// AssetID applies to every observation.
	AssetID string `yaml:"asset_id"`

	// Context selects the healthy receipt type.
	Context Context `yaml:"context"`

	// Fields are merged into the emitted receipt.
	Fields map[string]any `yaml:"fields,omitempty"`

	Real []Observation `yaml:"real"`
	Twin []Observation `yaml:"twin"`
}

// Observation is one epoch of a scenario sequence.
type Observation struct {
	Epoch    uint64  `yaml:"epoch"`
	Position float64 `yaml:"position"`
	Health   float64 `yaml:"health"`
}

// States expands the scenario into paired AssetState sequences.
func (s *Scenario) States() (real, twin []AssetState) {
	return s.expand(s.Real), s.expand(s.Twin)
}

func (s *Scenario) expand(obs []Observation) []AssetState {
	out := make([]AssetState, len(obs))
	for i, o := range obs {
		out[i] = AssetState{AssetID: s.AssetID, Epoch: o.Epoch, Position: o.Position, Health: o.Health}
	}
	return out
}

// LoadScenario reads and parses a scenario file. Unknown keys are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	if s.AssetID == "" {
		return errors.New("asset_id is required")
	}
	if _, err := s.Context.HealthyType(); err != nil {
		return err
	}
	if len(s.Real) == 0 {
		return errors.New("real list is required and must be non-empty")
	}
	if len(s.Real) != len(s.Twin) {
		return fmt.Errorf("real has %d observations, twin has %d", len(s.Real), len(s.Twin))
	}
	return nil
}
