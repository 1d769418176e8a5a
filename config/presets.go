package config

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var presetsYAML []byte

// Preset returns the reference configuration for a substrate type,
// laid over the embedded defaults.
func Preset(kind SubstrateType) (*Config, error) {
	presets, err := loadPresets()
	if err != nil {
		return nil, err
	}
	m, ok := presets[string(kind)]
	if !ok {
		return nil, fmt.Errorf("%w: no preset for substrate type %q", ErrConfiguration, kind)
	}
	return FromMap(m)
}

// PresetNames lists the substrate types that have a preset.
func PresetNames() []string {
	presets, err := loadPresets()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func loadPresets() (map[string]map[string]any, error) {
	var presets map[string]map[string]any
	if err := yaml.Unmarshal(presetsYAML, &presets); err != nil {
		return nil, fmt.Errorf("parsing embedded presets: %w", err)
	}
	return presets, nil
}
