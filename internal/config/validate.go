package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTracker(); err != nil {
		return err
	}
	if err := c.validateTranscode(); err != nil {
		return err
	}
	if err := c.validatePreflight(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if len(c.Paths.SearchDirs) == 0 {
		return errors.New("paths.search_dirs must list at least one directory")
	}
	if c.Paths.OutputDir == "" {
		return errors.New("paths.output_dir must be set")
	}
	return nil
}

func (c *Config) validateTracker() error {
	if c.Tracker.Endpoint == "" {
		return errors.New("tracker.endpoint must be set")
	}
	if c.Tracker.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/gazelleops/config.toml"
		}
		return fmt.Errorf("tracker.api_key is required; edit %s (create with 'gazelleops config init')", defaultPath)
	}
	if c.Tracker.RateLimitSeconds < 0 {
		return errors.New("tracker.rate_limit_seconds must not be negative")
	}
	if c.Tracker.RequestTimeout <= 0 {
		return errors.New("tracker.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateTranscode() error {
	if len(c.Transcode.Formats) == 0 {
		return errors.New("transcode.formats must list at least one format")
	}
	if c.Transcode.Workers < 0 {
		return errors.New("transcode.workers must not be negative")
	}
	for _, field := range []struct {
		name  string
		value string
	}{
		{"transcode.flac_binary", c.Transcode.FlacBinary},
		{"transcode.sox_binary", c.Transcode.SoxBinary},
		{"transcode.lame_binary", c.Transcode.LameBinary},
		{"transcode.ffprobe_binary", c.Transcode.FFprobeBinary},
		{"transcode.mktorrent_binary", c.Transcode.MktorrentBinary},
	} {
		if field.value == "" {
			return fmt.Errorf("%s must be set", field.name)
		}
	}
	return nil
}

func (c *Config) validatePreflight() error {
	switch c.Preflight.BitDepthPolicy {
	case "ignore", "prompt", "auto":
		return nil
	default:
		return fmt.Errorf("preflight.bit_depth_policy must be ignore, prompt, or auto (got %q)", c.Preflight.BitDepthPolicy)
	}
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error (got %q)", c.Logging.Level)
	}
}
