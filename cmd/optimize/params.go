package main

import (
	"github.com/pthm-cable/retinotectal/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Key     string  // flat config key
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters:
// acceptance noise, adaptation rates and the fibre-fibre sigmoid.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Key: config.KeySigma, Min: 0.01, Max: 0.3, Default: 0.12},
			{Key: config.KeyAdaptationMu, Min: 0.001, Max: 0.05, Default: 0.006},
			{Key: config.KeyAdaptationLambda, Min: 0.0005, Max: 0.02, Default: 0.0045},
			{Key: config.KeySigmoidSteepness, Min: 0.5, Max: 10, Default: 4},
			{Key: config.KeySigmoidShift, Min: 0, Max: 10, Default: 3},
			{Key: config.KeySigmoidHeight, Min: 0.1, Max: 3, Default: 1},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// Overrides returns clamped values as a flat parameter mapping.
func (pv *ParamVector) Overrides(values []float64) map[string]any {
	clamped := pv.Clamp(values)
	m := make(map[string]any, len(pv.Specs))
	for i, spec := range pv.Specs {
		m[spec.Key] = clamped[i]
	}
	return m
}

// ApplyToConfig returns a copy of cfg with the parameter values applied.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) (*config.Config, error) {
	return cfg.With(pv.Overrides(values))
}
