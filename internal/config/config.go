package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/phasekit/internal/analysis"
	"github.com/san-kum/phasekit/internal/dynamo"
)

const (
	DefaultDt       = 0.01
	DefaultDuration = 10.0
	DefaultDomainLo = -2.0
	DefaultDomainHi = 2.0
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Name          string          `yaml:"name,omitempty"`
	System        SystemConfig    `yaml:"system"`
	Integrator    string          `yaml:"integrator"`
	Dt            float64         `yaml:"dt"`
	Duration      float64         `yaml:"duration"`
	Init          InitConfig      `yaml:"init"`
	Domain        DomainConfig    `yaml:"domain"`
	Analysis      analysis.Config `yaml:"analysis"`
	HistoryWindow int             `yaml:"history_window,omitempty"`
}

type SystemConfig struct {
	Formula string             `yaml:"formula"`
	Dim     int                `yaml:"dim"`
	Params  map[string]float64 `yaml:"params,omitempty"`
	Delay   bool               `yaml:"delay,omitempty"`
	Tau     float64            `yaml:"tau,omitempty"`
}

type InitConfig struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y,omitempty"`
}

// DomainConfig is the analysis interval in X and the trajectory box.
type DomainConfig struct {
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max"`
	YMin float64 `yaml:"y_min,omitempty"`
	YMax float64 `yaml:"y_max,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		System: SystemConfig{
			Formula: "k*X*(1-X)",
			Dim:     1,
			Params:  map[string]float64{"k": 0.5},
		},
		Integrator: "rk4",
		Dt:         DefaultDt,
		Duration:   DefaultDuration,
		Init:       InitConfig{X: 0.1},
		Domain:     DomainConfig{Min: DefaultDomainLo, Max: DefaultDomainHi, YMin: DefaultDomainLo, YMax: DefaultDomainHi},
		Analysis:   analysis.DefaultConfig(),
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := LoadInto(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadInto reads a YAML file over cfg; keys absent from the file keep
// their current values.
func LoadInto(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	cp := *c
	cp.System.Params = make(map[string]float64, len(c.System.Params))
	for k, v := range c.System.Params {
		cp.System.Params[k] = v
	}
	return &cp
}

func (c *Config) Validate() error {
	switch {
	case c.System.Formula == "":
		return fmt.Errorf("%w: empty formula", ErrInvalid)
	case c.System.Dim != 1 && c.System.Dim != 2:
		return fmt.Errorf("%w: dim must be 1 or 2, got %d", ErrInvalid, c.System.Dim)
	case c.System.Delay && c.System.Dim != 1:
		return fmt.Errorf("%w: delay systems are one-dimensional", ErrInvalid)
	case c.System.Tau < 0:
		return fmt.Errorf("%w: tau must not be negative, got %f", ErrInvalid, c.System.Tau)
	case c.Dt <= 0:
		return fmt.Errorf("%w: dt must be positive, got %f", ErrInvalid, c.Dt)
	case c.Duration <= 0:
		return fmt.Errorf("%w: duration must be positive, got %f", ErrInvalid, c.Duration)
	case !(c.Domain.Min < c.Domain.Max):
		return fmt.Errorf("%w: domain [%g, %g] is empty", ErrInvalid, c.Domain.Min, c.Domain.Max)
	case c.System.Dim == 2 && !(c.Domain.YMin < c.Domain.YMax):
		return fmt.Errorf("%w: y domain [%g, %g] is empty", ErrInvalid, c.Domain.YMin, c.Domain.YMax)
	}
	return nil
}

func (c *Config) Params() dynamo.Params {
	return dynamo.Params(c.System.Params).Clone()
}

func (c *Config) InitState() dynamo.State {
	if c.System.Dim == 2 {
		return dynamo.State{c.Init.X, c.Init.Y}
	}
	return dynamo.State{c.Init.X}
}
