package cliconfig

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/llb-tools/llbreduce/internal/app"
)

// DefaultOutput is the profile plot written when no output is given.
const DefaultOutput = "dspacing.pdf"

// Config holds CLI configuration for llbreduce.
type Config struct {
	Input      string
	Output     string
	ProfileCSV string
	Instrument string

	Channel       string
	DMin          float64
	DMax          float64
	BinWidth      float64
	BandHalfWidth float64

	Watch    bool
	Debounce time.Duration

	LogLevel  string
	LogFormat string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	rc := app.DefaultReducerConfig()
	return Config{
		Output:        DefaultOutput,
		Channel:       rc.Channel,
		DMin:          rc.DMin,
		DMax:          rc.DMax,
		BinWidth:      rc.BinWidth,
		BandHalfWidth: rc.BandHalfWidth,
		Debounce:      app.DefaultDebounce,
		LogLevel:      "info",
		LogFormat:     "console",
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("input file is required")
	}
	if c.Output == "" {
		c.Output = DefaultOutput
	}

	switch c.Channel {
	case app.ChannelUp, app.ChannelDown, app.ChannelSum:
	default:
		return fmt.Errorf("channel must be one of up, down, sum (got %q)", c.Channel)
	}

	if math.IsNaN(c.DMin) || math.IsNaN(c.DMax) || c.DMax <= c.DMin {
		return fmt.Errorf("d-spacing range [%g, %g) is empty", c.DMin, c.DMax)
	}
	if c.BinWidth <= 0 {
		return fmt.Errorf("bin width must be positive")
	}
	if c.BinWidth > c.DMax-c.DMin {
		return fmt.Errorf("bin width %g exceeds the d-spacing range", c.BinWidth)
	}
	if c.BandHalfWidth <= 0 {
		return fmt.Errorf("band half-width must be positive")
	}

	if c.Watch && c.Debounce <= 0 {
		return fmt.Errorf("debounce must be positive")
	}

	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log format must be console or json (got %q)", c.LogFormat)
	}
	return nil
}

// ReducerConfig returns the binning and masking parameters.
func (c Config) ReducerConfig() app.ReducerConfig {
	return app.ReducerConfig{
		DMin:          c.DMin,
		DMax:          c.DMax,
		BinWidth:      c.BinWidth,
		BandHalfWidth: c.BandHalfWidth,
		Channel:       c.Channel,
	}
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setFloat sets a float64 value if positive and flag not changed.
func (s *configSetter) setFloat(flag string, value float64, dst *float64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setFloatPtr sets any float64 value, including zero or negative, when the
// file provided one.
func (s *configSetter) setFloatPtr(flag string, value *float64, dst *float64) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setFloatFromString parses a string to float64 and sets the destination if
// valid. With positive set, zero and negative values are ignored.
func (s *configSetter) setFloatFromString(flag, value string, dst *float64, positive bool) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if positive && f <= 0 {
		return nil
	}
	*dst = f
	return nil
}

// setBoolFromString accepts "true", "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
