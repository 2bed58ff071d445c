package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	// SearchDirs are the ordered roots scanned for release source directories.
	SearchDirs []string `toml:"search_dirs"`
	OutputDir  string   `toml:"output_dir"`
	TorrentDir string   `toml:"torrent_dir"`
	StagingDir string   `toml:"staging_dir"`
	LogDir     string   `toml:"log_dir"`
}

// Tracker contains connection settings for the Gazelle tracker.
type Tracker struct {
	Endpoint         string  `toml:"endpoint"`
	APIKey           string  `toml:"api_key"`
	AnnounceURL      string  `toml:"announce_url"`
	SourceTag        string  `toml:"source_tag"`
	RateLimitSeconds float64 `toml:"rate_limit_seconds"`
	RequestTimeout   int     `toml:"request_timeout"`
}

// Transcode contains pipeline settings.
type Transcode struct {
	// Formats lists desired output formats in attempt order.
	Formats []string `toml:"formats"`
	// Workers bounds file-level parallelism; 0 means NumCPU-1, minimum 1.
	Workers         int    `toml:"workers"`
	FlacBinary      string `toml:"flac_binary"`
	SoxBinary       string `toml:"sox_binary"`
	LameBinary      string `toml:"lame_binary"`
	FFprobeBinary   string `toml:"ffprobe_binary"`
	MktorrentBinary string `toml:"mktorrent_binary"`
}

// Preflight contains source validation settings.
type Preflight struct {
	// BitDepthPolicy controls mislabeled 24-bit handling: ignore, prompt, auto.
	BitDepthPolicy string `toml:"bit_depth_policy"`
}

// Logging contains log output settings.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values.
type Config struct {
	Paths     Paths     `toml:"paths"`
	Tracker   Tracker   `toml:"tracker"`
	Transcode Transcode `toml:"transcode"`
	Preflight Preflight `toml:"preflight"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/gazelleops/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The second return is
// the resolved path, the third whether a file existed there.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("gazelleops.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the pipeline writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.OutputDir, c.Paths.TorrentDir, c.Paths.StagingDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CachePath returns the resume cache database location.
func (c *Config) CachePath() string {
	return filepath.Join(c.Paths.LogDir, "processed.db")
}

// LockPath returns the single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "gazelleops.lock")
}

// WorkerCount resolves the configured parallelism against the given CPU count.
func (c *Config) WorkerCount(numCPU int) int {
	if c.Transcode.Workers > 0 {
		return c.Transcode.Workers
	}
	if numCPU-1 > 1 {
		return numCPU - 1
	}
	return 1
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes the annotated sample configuration to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
