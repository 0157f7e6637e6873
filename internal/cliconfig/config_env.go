package cliconfig

import "os"

// EnvPrefix is the prefix of every environment variable read by ApplyEnvConfig.
const EnvPrefix = "LLBREDUCE_"

// ApplyEnvConfig applies configuration from environment variables (LLBREDUCE_*).
// It respects flags that have been explicitly set (changed map).
// Returns error if any environment variable has an invalid format.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)
	env := func(key string) string { return os.Getenv(EnvPrefix + key) }

	s.setString("input", env("INPUT"), &cfg.Input)
	s.setString("output", env("OUTPUT"), &cfg.Output)
	s.setString("profile-csv", env("PROFILE_CSV"), &cfg.ProfileCSV)
	s.setString("instrument", env("INSTRUMENT"), &cfg.Instrument)
	s.setString("channel", env("CHANNEL"), &cfg.Channel)
	s.setString("log-level", env("LOG_LEVEL"), &cfg.LogLevel)
	s.setString("log-format", env("LOG_FORMAT"), &cfg.LogFormat)

	if err := s.setFloatFromString("d-min", env("D_MIN"), &cfg.DMin, false); err != nil {
		return err
	}
	if err := s.setFloatFromString("d-max", env("D_MAX"), &cfg.DMax, true); err != nil {
		return err
	}
	if err := s.setFloatFromString("bin-width", env("BIN_WIDTH"), &cfg.BinWidth, true); err != nil {
		return err
	}
	if err := s.setFloatFromString("band", env("BAND_HALF_WIDTH"), &cfg.BandHalfWidth, true); err != nil {
		return err
	}

	if err := s.setDuration("debounce", env("DEBOUNCE"), &cfg.Debounce); err != nil {
		return err
	}
	s.setBoolFromString("watch", env("WATCH"), &cfg.Watch)

	return nil
}
