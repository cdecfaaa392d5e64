// Package config loads runtime settings from YAML with embedded defaults.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/milk9111/scenegraph/common"
	"github.com/milk9111/scenegraph/physics"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

var ErrInvalid = errors.New("config: invalid value")

// Config holds all runtime settings.
type Config struct {
	LogLevel string         `yaml:"log_level"`
	Scene    string         `yaml:"scene"`
	Window   WindowConfig   `yaml:"window"`
	Physics  physics.Config `yaml:"physics"`
	Script   ScriptConfig   `yaml:"script"`
}

type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
	Debug  bool   `yaml:"debug"`
}

type ScriptConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the embedded defaults.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	return cfg, nil
}

// Load reads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only defaults are used.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Physics.Iterations <= 0 {
		errs = append(errs, fmt.Errorf("%w: physics.iterations must be positive, got %d", ErrInvalid, c.Physics.Iterations))
	}
	if c.Physics.FixedStep < 0 {
		errs = append(errs, fmt.Errorf("%w: physics.fixed_step must not be negative, got %g", ErrInvalid, c.Physics.FixedStep))
	}
	if c.Physics.MaxSubSteps <= 0 {
		errs = append(errs, fmt.Errorf("%w: physics.max_substeps must be positive, got %d", ErrInvalid, c.Physics.MaxSubSteps))
	}
	if c.Physics.Damping <= 0 || c.Physics.Damping > 1 {
		errs = append(errs, fmt.Errorf("%w: physics.damping must be in (0, 1], got %g", ErrInvalid, c.Physics.Damping))
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		errs = append(errs, fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Window.Width, c.Window.Height))
	}
	if c.Script.Timeout < 0 {
		errs = append(errs, fmt.Errorf("%w: script.timeout must not be negative", ErrInvalid))
	}
	return errors.Join(errs...)
}

// Logger builds the process logger at the configured level.
func (c *Config) Logger() (*zap.Logger, error) {
	return common.NewLogger(c.LogLevel)
}
