// Package config provides configuration loading and validation for the simulation.
//
// The YAML key space is flat: every section struct is inlined, so a config
// file and a flat parameter mapping use the same keys.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrConfiguration is wrapped by every error caused by invalid or missing parameters.
var ErrConfiguration = errors.New("configuration error")

// Config holds all simulation configuration parameters.
// A Config is treated as immutable once built; use With to derive variants.
type Config struct {
	Simulation  SimulationConfig  `yaml:",inline"`
	Movement    MovementConfig    `yaml:",inline"`
	Interaction InteractionConfig `yaml:",inline"`
	Cones       ConeConfig        `yaml:",inline"`
	Adaptation  AdaptationConfig  `yaml:",inline"`
	Substrate   SubstrateConfig   `yaml:",inline"`
	Reporting   ReportingConfig   `yaml:",inline"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// SimulationConfig holds population size and run length.
type SimulationConfig struct {
	GCCount  int     `yaml:"gc_count"`
	GCSize   int     `yaml:"gc_size"`   // agent radius, also the substrate border
	StepSize float64 `yaml:"step_size"` // cells per accepted move on each axis
	StepNum  int     `yaml:"step_num"`
	Seed     int64   `yaml:"seed"`    // 0 = caller picks a time-based seed
	Workers  int     `yaml:"workers"` // 0 = GOMAXPROCS
}

// MovementConfig holds the move proposal and acceptance parameters.
type MovementConfig struct {
	XStepPossibility float64 `yaml:"x_step_possibility"`
	YStepPossibility float64 `yaml:"y_step_possibility"`
	Sigma            float64 `yaml:"sigma"`
	Force            bool    `yaml:"force"`      // strict descent
	Acceptance       string  `yaml:"acceptance"` // logistic | gaussian
}

// InteractionConfig toggles and shapes the potential channels.
type InteractionConfig struct {
	ForwardSig       bool    `yaml:"forward_sig"`
	ReverseSig       bool    `yaml:"reverse_sig"`
	FFInter          bool    `yaml:"ff_inter"`
	FTInter          bool    `yaml:"ft_inter"`
	CisInter         bool    `yaml:"cis_inter"`
	SigmoidSteepness float64 `yaml:"sigmoid_steepness"`
	SigmoidShift     float64 `yaml:"sigmoid_shift"`
	SigmoidHeight    float64 `yaml:"sigmoid_height"`
	FFOverlap        string  `yaml:"ff_overlap"` // kernel | circle
	KernelDecay      float64 `yaml:"kernel_decay"`
	KernelThreshold  float64 `yaml:"kernel_threshold"`
}

// ConeConfig holds the retinal gradient used to assign cone affinities.
type ConeConfig struct {
	ReceptorDecay  float64 `yaml:"receptor_decay"`
	LigandDecay    float64 `yaml:"ligand_decay"`
	ReceptorFactor float64 `yaml:"gc_r_factor"`
	LigandFactor   float64 `yaml:"gc_l_factor"`
	ReceptorShift  float64 `yaml:"gc_r_shift"`
	LigandShift    float64 `yaml:"gc_l_shift"`
	Rho            float64 `yaml:"rho"`
	Scope          string  `yaml:"gc_scope"` // full | nasal | temporal
}

// AdaptationConfig holds the desensitization parameters.
type AdaptationConfig struct {
	Enabled bool    `yaml:"adaptation_enabled"`
	Mu      float64 `yaml:"adaptation_mu"`
	Lambda  float64 `yaml:"adaptation_lambda"`
	History int     `yaml:"adaptation_history"`
}

// SubstrateConfig selects the substrate strategy and its parameters.
// Strategy-specific parameters are pointers: nil means "not configured".
type SubstrateConfig struct {
	Type  SubstrateType `yaml:"substrate_type"`
	Rows  int           `yaml:"rows"`
	Cols  int           `yaml:"cols"`
	Scope string        `yaml:"substrate_scope"` // full | anterior | posterior

	Gradient GradientConfig `yaml:",inline"`
	Wedge    WedgeConfig    `yaml:",inline"`
	Stripe   StripeConfig   `yaml:",inline"`
	Gap      GapConfig      `yaml:",inline"`
}

// GradientConfig parameterizes the continuous gradient substrate.
type GradientConfig struct {
	LigandMin         *float64 `yaml:"cont_grad_l_min,omitempty"`
	LigandMax         *float64 `yaml:"cont_grad_l_max,omitempty"`
	ReceptorMin       *float64 `yaml:"cont_grad_r_min,omitempty"`
	ReceptorMax       *float64 `yaml:"cont_grad_r_max,omitempty"`
	LigandSteepness   *float64 `yaml:"cont_grad_l_steepness,omitempty"`
	ReceptorSteepness *float64 `yaml:"cont_grad_r_steepness,omitempty"`
}

// WedgeConfig parameterizes the wedge substrate.
type WedgeConfig struct {
	NarrowEdge *int `yaml:"wedge_narrow_edge,omitempty"`
	WideEdge   *int `yaml:"wedge_wide_edge,omitempty"`
}

// StripeConfig parameterizes the stripe assay substrate.
type StripeConfig struct {
	Forward      *bool    `yaml:"stripe_fwd,omitempty"`
	Reverse      *bool    `yaml:"stripe_rew,omitempty"`
	LigandConc   *float64 `yaml:"stripe_ligand_conc,omitempty"`
	ReceptorConc *float64 `yaml:"stripe_receptor_conc,omitempty"`
	Width        *float64 `yaml:"stripe_width,omitempty"`
}

// GapConfig parameterizes the gap and inverted gap substrates.
type GapConfig struct {
	Begin           *float64   `yaml:"gap_begin,omitempty"`
	End             *float64   `yaml:"gap_end,omitempty"`
	FirstBlock      *BlockType `yaml:"gap_first_block,omitempty"`
	SecondBlock     *BlockType `yaml:"gap_second_block,omitempty"`
	FirstBlockConc  *float64   `yaml:"gap_first_block_conc,omitempty"`
	SecondBlockConc *float64   `yaml:"gap_second_block_conc,omitempty"`
}

// ReportingConfig controls interim snapshots and telemetry windows.
type ReportingConfig struct {
	InterimResults []int `yaml:"interim_results"`
	StatsWindow    int   `yaml:"stats_window"` // steps per telemetry window, 0 = disabled
}

// DerivedConfig holds values computed from the loaded configuration.
type DerivedConfig struct {
	PaddedRows     int
	PaddedCols     int
	InterimMarkers map[int]bool
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg, err := defaults()
	if err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := decodeStrict(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: parsing config file: %v", ErrConfiguration, err)
		}
	}

	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromMap builds a configuration from a flat key/value mapping laid over
// the embedded defaults. Unknown keys are rejected.
func FromMap(m map[string]any) (*Config, error) {
	cfg, err := defaults()
	if err != nil {
		return nil, err
	}
	if err := cfg.apply(m); err != nil {
		return nil, err
	}
	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// With returns a copy of c with the given flat overrides applied.
// The receiver is left untouched.
func (c *Config) With(overrides map[string]any) (*Config, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	cp := &Config{}
	if err := decodeStrict(data, cp); err != nil {
		return nil, fmt.Errorf("copying config: %w", err)
	}
	if err := cp.apply(overrides); err != nil {
		return nil, err
	}
	if err := cp.finalize(); err != nil {
		return nil, err
	}
	return cp, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// YAML returns the configuration encoded as YAML.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

func defaults() (*Config, error) {
	cfg := &Config{}
	if err := decodeStrict(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	return cfg, nil
}

func (c *Config) apply(m map[string]any) error {
	if len(m) == 0 {
		return nil
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("%w: encoding parameters: %v", ErrConfiguration, err)
	}
	if err := decodeStrict(data, c); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return nil
}

// decodeStrict decodes data over dst, rejecting keys that no field declares.
func decodeStrict(data []byte, dst *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) finalize() error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	off := c.Simulation.GCSize
	c.Derived.PaddedRows = c.Substrate.Rows + 2*off
	c.Derived.PaddedCols = c.Substrate.Cols + 2*off

	c.Derived.InterimMarkers = make(map[int]bool, len(c.Reporting.InterimResults))
	for _, step := range c.Reporting.InterimResults {
		c.Derived.InterimMarkers[step] = true
	}
}
