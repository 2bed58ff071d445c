package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gazelleops/internal/fileutil"
	"gazelleops/internal/release"
	"gazelleops/internal/services"
)

// Decision is the outcome of one locate attempt.
type Decision int

const (
	// Accept means the candidate path exists and becomes the source.
	Accept Decision = iota
	// Retry means the candidate is missing and the operator may supply a
	// replacement.
	Retry
	// Abandon means no candidate remains; the release is skipped.
	Abandon
)

// NextAttempt decides how the retry loop proceeds for one candidate. It is
// pure: an empty candidate abandons, an existing one is accepted, anything
// else invites another attempt.
func NextAttempt(path string, exists bool) Decision {
	if strings.TrimSpace(path) == "" {
		return Abandon
	}
	if exists {
		return Accept
	}
	return Retry
}

// Prompter supplies replacement paths when the declared location is missing.
// Implementations return an empty path to abandon the release.
type Prompter interface {
	AlternatePath(display, missing string) (string, error)
}

// Locator resolves torrent data directories under the configured search
// roots.
type Locator struct {
	roots  []string
	prompt Prompter
}

// NewLocator builds a Locator. A nil prompter makes resolution
// non-interactive: the first miss abandons the release.
func NewLocator(roots []string, prompt Prompter) *Locator {
	return &Locator{roots: roots, prompt: prompt}
}

// Resolve returns the source directory for the torrent, reconstructing one
// for single-file uploads. The operator is consulted for alternate paths
// before the release is given up as ErrSourceNotFound.
func (l *Locator) Resolve(group release.ReleaseGroup, torrent release.Torrent) (string, error) {
	if declared := strings.TrimSpace(torrent.FilePath); declared != "" {
		if path, ok := l.locate(declared); ok {
			return path, nil
		}
		return l.retry(group, declared)
	}

	if name, ok := torrent.SingleLosslessFile(); ok {
		path, err := l.reconstruct(group, name)
		if err == nil {
			return path, nil
		}
		return l.retry(group, name)
	}

	return "", services.Wrap(services.ErrSourceNotFound, "source", "resolve",
		fmt.Sprintf("%s: no declared path and no single lossless file", group.DisplayName()), nil)
}

// locate returns the first root/path that exists as a directory or file.
func (l *Locator) locate(declared string) (string, bool) {
	for _, root := range l.roots {
		candidate := filepath.Join(root, declared)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	return "", false
}

// reconstruct builds a fresh "Artist - Name (Year)" directory around a
// single-file upload, copying the file from the first root that has it.
func (l *Locator) reconstruct(group release.ReleaseGroup, fileName string) (string, error) {
	for _, root := range l.roots {
		src := filepath.Join(root, fileName)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		dir := filepath.Join(root, group.DisplayName())
		if _, err := fileutil.CopyInto(src, dir); err != nil {
			return "", services.Wrap(services.ErrSourceNotFound, "source", "reconstruct", fileName, err)
		}
		return dir, nil
	}
	return "", services.Wrap(services.ErrSourceNotFound, "source", "reconstruct",
		fmt.Sprintf("%s not under any search root", fileName), nil)
}

// retry runs the operator loop for a missing source until a path is accepted
// or abandoned.
func (l *Locator) retry(group release.ReleaseGroup, missing string) (string, error) {
	notFound := services.Wrap(services.ErrSourceNotFound, "source", "locate",
		fmt.Sprintf("%s: %s", group.DisplayName(), missing), nil)
	if l.prompt == nil {
		return "", notFound
	}

	candidate := missing
	for {
		alternate, err := l.prompt.AlternatePath(group.DisplayName(), candidate)
		if err != nil {
			return "", services.Wrap(services.ErrSourceNotFound, "source", "prompt", group.DisplayName(), err)
		}
		expanded := strings.TrimSpace(alternate)
		exists := false
		if expanded != "" {
			if _, statErr := os.Stat(expanded); statErr == nil {
				exists = true
			}
		}
		switch NextAttempt(expanded, exists) {
		case Accept:
			return expanded, nil
		case Abandon:
			return "", notFound
		case Retry:
			candidate = expanded
		}
	}
}
