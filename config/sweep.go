package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Sweep describes a batch of runs: every combination of the listed values,
// optionally restricted to an explicit selection.
type Sweep struct {
	Sweeps   map[string][]any `yaml:"sweeps"`
	Selected [][]any          `yaml:"selected"`
}

// Combo is one parameter combination of a sweep.
type Combo struct {
	Keys   []string
	Values []any
}

// LoadSweep reads a sweep definition from a YAML file.
func LoadSweep(path string) (*Sweep, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading sweep file: %w", err)
	}
	s := &Sweep{}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("%w: parsing sweep file: %v", ErrConfiguration, err)
	}
	if len(s.Sweeps) == 0 {
		return nil, fmt.Errorf("%w: sweep file %s lists no parameters", ErrConfiguration, path)
	}
	return s, nil
}

// Combos returns the cartesian product of the sweep values with keys in
// sorted order. When Selected is non-empty, only matching combinations are kept.
func (s *Sweep) Combos() []Combo {
	keys := make([]string, 0, len(s.Sweeps))
	for k := range s.Sweeps {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	combos := []Combo{{Keys: keys}}
	for _, k := range keys {
		var next []Combo
		for _, c := range combos {
			for _, v := range s.Sweeps[k] {
				values := make([]any, len(c.Values), len(c.Values)+1)
				copy(values, c.Values)
				next = append(next, Combo{Keys: keys, Values: append(values, v)})
			}
		}
		combos = next
	}

	if len(s.Selected) == 0 {
		return combos
	}
	var kept []Combo
	for _, c := range combos {
		for _, sel := range s.Selected {
			if c.matches(sel) {
				kept = append(kept, c)
				break
			}
		}
	}
	return kept
}

func (c Combo) matches(sel []any) bool {
	if len(sel) != len(c.Values) {
		return false
	}
	for i := range sel {
		if fmt.Sprint(sel[i]) != fmt.Sprint(c.Values[i]) {
			return false
		}
	}
	return true
}

// Overrides returns the combination as a flat parameter mapping.
func (c Combo) Overrides() map[string]any {
	m := make(map[string]any, len(c.Keys))
	for i, k := range c.Keys {
		m[k] = c.Values[i]
	}
	return m
}

// Tag returns a folder-friendly name such as "gap_begin=0.5__sigma=0.1".
func (c Combo) Tag() string {
	parts := make([]string, len(c.Keys))
	for i, k := range c.Keys {
		parts[i] = fmt.Sprintf("%s=%v", k, c.Values[i])
	}
	return strings.Join(parts, "__")
}
