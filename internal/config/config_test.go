package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gazelleops/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
[paths]
search_dirs = ["/srv/music"]

[tracker]
api_key = "secret"
`

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, minimalConfig)
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected config at %q to be used, got %q exists=%v", path, resolved, exists)
	}
	if cfg.Tracker.Endpoint != "https://redacted.sh" {
		t.Fatalf("unexpected default endpoint %q", cfg.Tracker.Endpoint)
	}
	if cfg.Preflight.BitDepthPolicy != "prompt" {
		t.Fatalf("unexpected default policy %q", cfg.Preflight.BitDepthPolicy)
	}
	if got := cfg.Transcode.Formats; len(got) != 2 || got[0] != "V0" || got[1] != "320" {
		t.Fatalf("unexpected default formats %v", got)
	}
}

func TestLoadRejectsMissingAPIKey(t *testing.T) {
	path := writeConfig(t, "[paths]\nsearch_dirs = [\"/srv/music\"]\n")
	if _, _, _, err := config.Load(path); err == nil || !strings.Contains(err.Error(), "api_key") {
		t.Fatalf("expected api_key error, got %v", err)
	}
}

func TestLoadRejectsBadPolicy(t *testing.T) {
	path := writeConfig(t, minimalConfig+"\n[preflight]\nbit_depth_policy = \"always\"\n")
	if _, _, _, err := config.Load(path); err == nil || !strings.Contains(err.Error(), "bit_depth_policy") {
		t.Fatalf("expected policy error, got %v", err)
	}
}

func TestNormalizeTrimsEndpointSlash(t *testing.T) {
	path := writeConfig(t, "[paths]\nsearch_dirs = [\"/srv/music\"]\n\n[tracker]\napi_key = \"k\"\nendpoint = \"https://example.org/\"\n")
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Tracker.Endpoint != "https://example.org" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Tracker.Endpoint)
	}
}

func TestWorkerCount(t *testing.T) {
	cfg := config.Default()
	if got := cfg.WorkerCount(8); got != 7 {
		t.Fatalf("WorkerCount(8) = %d, want 7", got)
	}
	if got := cfg.WorkerCount(1); got != 1 {
		t.Fatalf("WorkerCount(1) = %d, want 1", got)
	}
	cfg.Transcode.Workers = 3
	if got := cfg.WorkerCount(16); got != 3 {
		t.Fatalf("explicit WorkerCount = %d, want 3", got)
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	// The sample must parse; api_key is intentionally blank so validation fails.
	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "api_key") {
		t.Fatalf("expected sample to parse but fail api_key validation, got %v", err)
	}
}
