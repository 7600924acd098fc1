// Package session holds everything that is fixed for the duration of one
// participant session: timing configuration and the counterbalanced key
// mapping.
package session

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from either a Go duration
// string ("500ms") or a bare integer interpreted as milliseconds.
type Duration time.Duration

// UnmarshalYAML accepts "500ms"-style strings and integer milliseconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("expected scalar duration, got %v", value.Kind)
	}
	if ms, err := strconv.ParseInt(value.Value, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q", value.Value)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the session configuration, loaded once at startup and immutable
// afterwards.
type Config struct {
	LeftKey       string   `yaml:"left_key"`
	RightKey      string   `yaml:"right_key"`
	ContinueKey   string   `yaml:"continue_key"`
	Fixation      Duration `yaml:"fixation"`
	Feedback      Duration `yaml:"feedback"`
	BreakInterval int      `yaml:"break_interval"`
	OutputDir     string   `yaml:"output_dir"`

	// ViewerCommand, when set, is run at every stimulus onset with the image
	// path substituted for "{image}" (or appended if no placeholder is used).
	ViewerCommand string `yaml:"viewer_command"`

	// LogFile defaults to <output_dir>/<run-id>.log when empty.
	LogFile string `yaml:"log_file"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		LeftKey:       "f",
		RightKey:      "j",
		ContinueKey:   "space",
		Fixation:      Duration(500 * time.Millisecond),
		Feedback:      Duration(800 * time.Millisecond),
		BreakInterval: 50,
		OutputDir:     "results",
	}
}

const defaultConfigFile = "facetrial.yaml"

// LoadConfig reads the session configuration. An explicit path must exist; an
// empty path falls back to facetrial.yaml in the working directory, or to the
// defaults when that file is absent.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = defaultConfigFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that the configuration can drive a session.
func (c *Config) Validate() error {
	if c.LeftKey == "" || c.RightKey == "" {
		return errors.New("left_key and right_key are required")
	}
	if c.LeftKey == c.RightKey {
		return fmt.Errorf("left_key and right_key must differ, both are %q", c.LeftKey)
	}
	if c.ContinueKey == "" {
		return errors.New("continue_key is required")
	}
	if c.Fixation <= 0 {
		return errors.New("fixation duration must be positive")
	}
	if c.Feedback <= 0 {
		return errors.New("feedback duration must be positive")
	}
	if c.BreakInterval < 1 {
		return fmt.Errorf("break_interval must be >= 1, got %d", c.BreakInterval)
	}
	if c.OutputDir == "" {
		return errors.New("output_dir is required")
	}
	return nil
}
