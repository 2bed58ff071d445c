// Package testsupport provides shared fixtures for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"gazelleops/internal/config"
	"gazelleops/internal/processed"
)

// ConfigOption customizes the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Tracker.APIKey = "test"
	cfg.Tracker.AnnounceURL = "https://tracker.example/announce/test"
	cfg.Paths.SearchDirs = []string{filepath.Join(base, "downloads")}
	cfg.Paths.OutputDir = filepath.Join(base, "output")
	cfg.Paths.TorrentDir = filepath.Join(base, "torrents")
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithFormats overrides the desired transcode formats.
func WithFormats(names ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Transcode.Formats = names
	}
}

// MustOpenStore opens a resume cache in the config's log directory and closes
// it with the test.
func MustOpenStore(t testing.TB, cfg *config.Config) *processed.Store {
	t.Helper()
	store, err := processed.Open(cfg.CachePath(), nil)
	if err != nil {
		t.Fatalf("open resume cache: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}
