package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseProfileYAML parses and validates a Profile from YAML bytes.
func ParseProfileYAML(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse config yaml: %w", err)
	}
	if err := validateProfile(&p); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &p, nil
}

func validateProfile(p *Profile) error {
	if p.Channels < 0 {
		return errorf("channels must not be negative, got %d", p.Channels)
	}
	if p.ReadBWMBps < 0 {
		return errorf("read_bw_mbps must not be negative, got %f", p.ReadBWMBps)
	}
	if p.WriteBWMBps < 0 {
		return errorf("write_bw_mbps must not be negative, got %f", p.WriteBWMBps)
	}
	if p.Quantum < 0 {
		return errorf("quantum must not be negative, got %f", p.Quantum)
	}
	for i, w := range p.Weights {
		if w < 0 {
			return errorf("weights[%d] must not be negative, got %f", i, w)
		}
	}
	if p.SGFS.RotateEvery < 0 {
		return errorf("sgfs.rotate_every must not be negative, got %d", p.SGFS.RotateEvery)
	}
	if p.SGFS.Gap < 0 {
		return errorf("sgfs.gap must not be negative, got %d", p.SGFS.Gap)
	}
	if p.Tuning != nil {
		if p.Tuning.MaxIterations < 0 {
			return errorf("tuning.max_iterations must not be negative, got %d", p.Tuning.MaxIterations)
		}
		if p.Tuning.Parallelism < 0 {
			return errorf("tuning.parallelism must not be negative, got %d", p.Tuning.Parallelism)
		}
	}
	return nil
}

// ValidSchedulerNames lists the scheduler policy strings the CLI surface
// accepts (spec.md §6).
var ValidSchedulerNames = map[string]bool{
	"rr":   true,
	"drr":  true,
	"qfq":  true,
	"sgfs": true,
}

// ValidateOptions checks that the fully resolved Options name a known
// scheduler policy and a trace path, returning a *Error on failure.
// Numeric fields are not range-checked here.
func ValidateOptions(o Options) error {
	if !ValidSchedulerNames[o.Scheduler] {
		return errorf("unknown scheduler policy: %s", o.Scheduler)
	}
	if o.TracePath == "" {
		return errorf("trace path is required")
	}
	return nil
}
