package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Bundle is every static table the simulation needs.
type Bundle struct {
	Abilities AbilitiesConfig
	Effects   EffectsConfig
	Scenario  ScenarioConfig
	Tuning    Tuning
}

func loadYAML(path string, out any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// LoadAll reads abilities.yaml, effects.yaml and scenario.yaml from dir.
// tuning.yaml is optional and overlays DefaultTuning.
func LoadAll(dir string) (*Bundle, error) {
	b := &Bundle{Tuning: DefaultTuning()}
	if err := loadYAML(filepath.Join(dir, "abilities.yaml"), &b.Abilities); err != nil {
		return nil, err
	}
	if err := loadYAML(filepath.Join(dir, "effects.yaml"), &b.Effects); err != nil {
		return nil, err
	}
	if err := loadYAML(filepath.Join(dir, "scenario.yaml"), &b.Scenario); err != nil {
		return nil, err
	}
	if err := loadYAML(filepath.Join(dir, "tuning.yaml"), &b.Tuning); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return b, nil
}

// LoadScenario reads a single scenario file, for runs that swap rosters
// against one content dir.
func LoadScenario(path string) (*ScenarioConfig, error) {
	var sc ScenarioConfig
	if err := loadYAML(path, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}
