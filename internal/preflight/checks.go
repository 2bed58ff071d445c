package preflight

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"gazelleops/internal/config"
)

// Result is the outcome of one environment check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// CheckBinary verifies that a required external tool resolves on PATH.
func CheckBinary(name, command, description string) Result {
	path, err := exec.LookPath(command)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s not found (%s)", command, description)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckDirectoryAccess verifies that the directory exists and is
// readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckTracker verifies that the tracker endpoint answers and the API key is
// set. It uses a single unauthenticated HEAD so the rate limiter is not
// involved.
func CheckTracker(ctx context.Context, cfg config.Tracker) Result {
	const name = "Tracker"
	endpoint := strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/")
	if endpoint == "" {
		return Result{Name: name, Detail: "missing endpoint"}
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return Result{Name: name, Detail: "missing api key"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodHead, endpoint, nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("reachability check failed (%v)", err)}
	}
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("unreachable (%v)", err)}
	}
	resp.Body.Close()
	return Result{Name: name, Passed: true, Detail: "Reachable"}
}

// CheckEnvironment evaluates every requirement of a full run: the external
// encoders, the working directories, and the tracker. The status command
// renders the results.
func CheckEnvironment(ctx context.Context, cfg *config.Config) []Result {
	results := []Result{
		CheckBinary("flac", cfg.Transcode.FlacBinary, "decodes and encodes lossless audio"),
		CheckBinary("sox", cfg.Transcode.SoxBinary, "resamples high-resolution sources"),
		CheckBinary("lame", cfg.Transcode.LameBinary, "encodes MP3 targets"),
		CheckBinary("ffprobe", cfg.Transcode.FFprobeBinary, "inspects source audio"),
		CheckBinary("mktorrent", cfg.Transcode.MktorrentBinary, "packages output directories"),
	}
	results = append(results,
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("Torrent directory", cfg.Paths.TorrentDir),
		CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	)
	results = append(results, CheckTracker(ctx, cfg.Tracker))
	return results
}
