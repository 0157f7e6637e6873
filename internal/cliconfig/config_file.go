package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Input         string   `toml:"input"`
	Output        string   `toml:"output"`
	ProfileCSV    string   `toml:"profile_csv"`
	Instrument    string   `toml:"instrument"`
	Channel       string   `toml:"channel"`
	DMin          *float64 `toml:"d_min"`
	DMax          float64  `toml:"d_max"`
	BinWidth      float64  `toml:"bin_width"`
	BandHalfWidth float64  `toml:"band_half_width"`
	Watch         *bool    `toml:"watch"`
	Debounce      string   `toml:"debounce"`
	LogLevel      string   `toml:"log_level"`
	LogFormat     string   `toml:"log_format"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.llbreduce/config.toml, or "" when the home
// directory is unknown.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".llbreduce", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("input", fc.Input, &cfg.Input)
	s.setString("output", fc.Output, &cfg.Output)
	s.setString("profile-csv", fc.ProfileCSV, &cfg.ProfileCSV)
	s.setString("instrument", fc.Instrument, &cfg.Instrument)
	s.setString("channel", fc.Channel, &cfg.Channel)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("log-format", fc.LogFormat, &cfg.LogFormat)

	s.setFloatPtr("d-min", fc.DMin, &cfg.DMin)
	s.setFloat("d-max", fc.DMax, &cfg.DMax)
	s.setFloat("bin-width", fc.BinWidth, &cfg.BinWidth)
	s.setFloat("band", fc.BandHalfWidth, &cfg.BandHalfWidth)

	if err := s.setDuration("debounce", fc.Debounce, &cfg.Debounce); err != nil {
		return err
	}
	s.setBool("watch", fc.Watch, &cfg.Watch)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
