// Package torrentfile packages a completed output directory into a private
// .torrent artifact by shelling out to mktorrent.
package torrentfile

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"gazelleops/internal/services"
)

// pieceLength 2^21 keeps piece counts reasonable for album-sized payloads.
const pieceLength = "21"

// Packager produces .torrent files for finished output directories.
type Packager struct {
	binary      string
	announceURL string
	sourceTag   string
	torrentDir  string
}

// New constructs a Packager writing artifacts into torrentDir.
func New(binary, announceURL, sourceTag, torrentDir string) *Packager {
	return &Packager{
		binary:      binary,
		announceURL: announceURL,
		sourceTag:   sourceTag,
		torrentDir:  torrentDir,
	}
}

// Package builds the torrent for dir and returns the artifact path. An
// existing artifact from an earlier attempt is replaced.
func (p *Packager) Package(ctx context.Context, dir string) (string, error) {
	if err := os.MkdirAll(p.torrentDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrEncode, "torrentfile", "package", dir, err)
	}
	out := filepath.Join(p.torrentDir, filepath.Base(dir)+".torrent")
	// mktorrent refuses to overwrite.
	if err := os.Remove(out); err != nil && !os.IsNotExist(err) {
		return "", services.Wrap(services.ErrEncode, "torrentfile", "package", out, err)
	}

	args := []string{
		"-l", pieceLength,
		"-p",
		"-a", p.announceURL,
	}
	if strings.TrimSpace(p.sourceTag) != "" {
		args = append(args, "-s", p.sourceTag)
	}
	args = append(args, "-o", out, dir)

	cmd := exec.CommandContext(ctx, p.binary, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		detail := strings.TrimSpace(string(output))
		return "", services.Wrap(services.ErrEncode, "torrentfile", "package",
			fmt.Sprintf("%s: %s", filepath.Base(dir), detail), err)
	}
	return out, nil
}
