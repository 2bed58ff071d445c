package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gazelleops/internal/audioinspect"
	"gazelleops/internal/formats"
	"gazelleops/internal/gazelle"
	"gazelleops/internal/logging"
	"gazelleops/internal/release"
	"gazelleops/internal/services"
	"gazelleops/internal/transcode"
)

// MetadataService is the tracker surface the controller depends on.
type MetadataService interface {
	TorrentGroup(ctx context.Context, id int64) (release.Group, error)
	Torrent(ctx context.Context, id int64) (release.ReleaseGroup, release.Torrent, error)
	Snatched(ctx context.Context, fn func(groupID, torrentID int64) error) error
	Upload(ctx context.Context, req gazelle.UploadRequest) error
	Permalink(torrentID int64) string
	ReleaseURL(groupID, torrentID int64) string
}

// Locator resolves a torrent's data directory.
type Locator interface {
	Resolve(group release.ReleaseGroup, torrent release.Torrent) (string, error)
}

// Validator runs the preflight gates.
type Validator interface {
	Run(ctx context.Context, group release.ReleaseGroup, torrent release.Torrent, dir string) (release.Torrent, audioinspect.Info, error)
}

// Pipeline executes one transcode job.
type Pipeline interface {
	Run(ctx context.Context, job transcode.Job) (string, error)
}

// Packager turns a completed output directory into a torrent artifact.
type Packager interface {
	Package(ctx context.Context, dir string) (string, error)
}

// Cache is the resume cache surface.
type Cache interface {
	Contains(torrentID int64) bool
	MarkProcessed(ctx context.Context, torrentID int64) error
}

// Candidate identifies one release to consider.
type Candidate struct {
	GroupID   int64
	TorrentID int64
}

// Summary counts the outcomes of a run.
type Summary struct {
	Considered int
	Cached     int
	Skipped    int
	Processed  int
	Failed     int
	Uploaded   int
}

// Controller processes candidates one at a time; only file-level work inside
// a format job is parallel.
type Controller struct {
	metadata  MetadataService
	locator   Locator
	preflight Validator
	pipeline  Pipeline
	packager  Packager
	cache     Cache
	desired   []formats.Spec
	logger    *slog.Logger
}

// New wires a Controller.
func New(metadata MetadataService, locator Locator, preflight Validator, pipeline Pipeline, packager Packager, cache Cache, desired []formats.Spec, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Controller{
		metadata:  metadata,
		locator:   locator,
		preflight: preflight,
		pipeline:  pipeline,
		packager:  packager,
		cache:     cache,
		desired:   desired,
		logger:    logging.NewComponentLogger(logger, "runner"),
	}
}

// errNotEligible marks candidates that cannot serve as transcode sources at
// all (lossy, pre-emphasized). They are counted as skipped, not failed.
var errNotEligible = errors.New("not an eligible source")

// errPublishFailed keeps a failed upload format-scoped: the artifact stays on
// disk, remaining formats still run, and the release is not marked processed.
var errPublishFailed = errors.New("publish failed")

// Run processes the candidates in order. Per-release failures are logged and
// absorbed; only context cancellation ends the run early.
func (c *Controller) Run(ctx context.Context, candidates []Candidate) (Summary, error) {
	var summary Summary
	for _, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Considered++

		if c.cache.Contains(candidate.TorrentID) {
			summary.Cached++
			continue
		}

		uploaded, err := c.processRelease(ctx, candidate)
		summary.Uploaded += uploaded
		switch {
		case err == nil:
			summary.Processed++
		case errors.Is(err, errNotEligible):
			summary.Skipped++
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			summary.Failed++
			return summary, ctx.Err()
		default:
			summary.Failed++
			c.logger.Error("release failed",
				logging.Int64(logging.FieldTorrentID, candidate.TorrentID),
				logging.Int64(logging.FieldGroupID, candidate.GroupID),
				logging.Error(err))
		}
	}
	return summary, nil
}

// RunSnatched walks the snatched listing and processes every candidate.
func (c *Controller) RunSnatched(ctx context.Context) (Summary, error) {
	var candidates []Candidate
	err := c.metadata.Snatched(ctx, func(groupID, torrentID int64) error {
		candidates = append(candidates, Candidate{GroupID: groupID, TorrentID: torrentID})
		return ctx.Err()
	})
	if err != nil {
		return Summary{}, err
	}
	c.logger.Info("snatched listing fetched", logging.Int("candidates", len(candidates)))
	return c.Run(ctx, candidates)
}

// processRelease runs the full chain for one candidate and returns how many
// formats were uploaded. The resume cache is written strictly after all
// format work for the release has concluded.
func (c *Controller) processRelease(ctx context.Context, candidate Candidate) (int, error) {
	groupSummary, torrent, err := c.metadata.Torrent(ctx, candidate.TorrentID)
	if err != nil {
		return 0, err
	}
	display := groupSummary.DisplayName()

	if !formats.IsLossless(torrent) || len(formats.Allowed(torrent)) == 0 {
		c.logger.Debug("skipping ineligible source",
			logging.Int64(logging.FieldTorrentID, torrent.ID),
			logging.String("release", display),
			logging.String("encoding", torrent.Encoding))
		return 0, errNotEligible
	}

	group, err := c.metadata.TorrentGroup(ctx, torrent.GroupID)
	if err != nil {
		return 0, err
	}

	sourceDir, err := c.locator.Resolve(group.Group, torrent)
	if err != nil {
		return 0, err
	}

	torrent, info, err := c.preflight.Run(ctx, group.Group, torrent, sourceDir)
	if err != nil {
		return 0, err
	}

	// The sibling snapshot predates preflight. After a committed
	// reclassification the target's stale record would keep its old slot
	// occupied and mask a now-permitted format.
	for i := range group.Torrents {
		if group.Torrents[i].ID == torrent.ID {
			group.Torrents[i] = torrent
		}
	}

	needed := formats.ResolveGaps(group.Torrents, torrent, c.desired)
	if len(needed) == 0 {
		c.logger.Info("release fully covered", logging.String("release", display))
		c.markProcessed(ctx, torrent.ID)
		return 0, nil
	}

	uploaded := 0
	var failures []error
	for _, spec := range needed {
		if err := ctx.Err(); err != nil {
			return uploaded, err
		}
		err := c.processFormat(ctx, group, torrent, info, sourceDir, spec)
		if err == nil {
			uploaded++
			continue
		}
		if services.Disposition(err) == services.ScopeFormat || errors.Is(err, errPublishFailed) {
			c.logger.Error("format failed, trying remaining formats",
				logging.String("release", display),
				logging.String(logging.FieldFormat, spec.Name),
				logging.Error(err))
			failures = append(failures, err)
			continue
		}
		return uploaded, err
	}

	if len(failures) > 0 {
		return uploaded, fmt.Errorf("%s: %d of %d formats failed: %w",
			display, len(failures), len(needed), errors.Join(failures...))
	}

	c.markProcessed(ctx, torrent.ID)
	c.logger.Info("release processed",
		logging.String("release", display),
		logging.Int("uploaded", uploaded),
		logging.String("url", c.metadata.ReleaseURL(group.Group.ID, torrent.ID)))
	return uploaded, nil
}

// processFormat encodes, packages, and publishes one needed format. A
// publish failure keeps the artifact on disk for manual retry and is
// format-scoped so remaining formats still run; the release will not be
// marked processed.
func (c *Controller) processFormat(ctx context.Context, group release.Group, torrent release.Torrent, info audioinspect.Info, sourceDir string, spec formats.Spec) error {
	job := transcode.Job{
		Group:      group.Group,
		Torrent:    torrent,
		Spec:       spec,
		SourceDir:  sourceDir,
		Info:       info,
		Allow24Bit: formats.Requires24Bit(torrent) || info.MaxBitDepth() > 16,
	}
	outputDir, err := c.pipeline.Run(ctx, job)
	if err != nil {
		return err
	}

	artifact, err := c.packager.Package(ctx, outputDir)
	if err != nil {
		return err
	}
	payload, err := os.ReadFile(artifact)
	if err != nil {
		return services.Wrap(services.ErrEncode, "runner", "publish", artifact, err)
	}

	description := fmt.Sprintf("Transcode of %s", c.metadata.Permalink(torrent.ID))
	err = c.metadata.Upload(ctx, gazelle.UploadRequest{
		GroupID:     group.Group.ID,
		Source:      torrent,
		Format:      spec.Format,
		Encoding:    spec.Encoding,
		TorrentFile: filepath.Base(artifact),
		TorrentData: payload,
		Description: description,
	})
	if err != nil {
		c.logger.Error("publish failed, artifact retained",
			logging.String("artifact", artifact),
			logging.String(logging.FieldFormat, spec.Name),
			logging.Error(err))
		return fmt.Errorf("%w: %s: %w", errPublishFailed, spec.Name, err)
	}

	c.logger.Info("uploaded",
		logging.String(logging.FieldFormat, spec.Name),
		logging.String("output", outputDir),
		logging.String("artifact", artifact))
	return nil
}

// markProcessed records completion. A cache write failure is reported but
// never unwinds finished work; the in-memory mirror keeps the run correct.
func (c *Controller) markProcessed(ctx context.Context, torrentID int64) {
	if err := c.cache.MarkProcessed(ctx, torrentID); err != nil {
		c.logger.Error("resume cache write failed",
			logging.Int64(logging.FieldTorrentID, torrentID),
			logging.Error(err))
	}
}
