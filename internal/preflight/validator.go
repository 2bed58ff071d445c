package preflight

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"gazelleops/internal/audioinspect"
	"gazelleops/internal/formats"
	"gazelleops/internal/logging"
	"gazelleops/internal/release"
	"gazelleops/internal/services"
)

// requiredTags must be present on every lossless file. Track number presence
// is required but its format is not checked; the encoder rewrites it anyway.
var requiredTags = []string{"artist", "album", "title"}

var trackNumberKeys = []string{"tracknumber", "track"}

// Inspector reads audio facts from a source directory.
type Inspector interface {
	InspectDir(ctx context.Context, dir string) (audioinspect.Info, error)
}

// Metadata is the tracker surface the validator needs for reclassification.
type Metadata interface {
	SetHighResEncoding(ctx context.Context, torrentID int64) error
	Torrent(ctx context.Context, torrentID int64) (release.ReleaseGroup, release.Torrent, error)
}

// Confirmer asks the operator whether a mislabeled source should be
// corrected. Only the prompt policy consults it.
type Confirmer interface {
	ConfirmReclassify(display string, torrentID int64) (bool, error)
}

// Validator runs the preflight gates for one located source.
type Validator struct {
	inspector Inspector
	metadata  Metadata
	confirm   Confirmer
	policy    Policy
	logger    *slog.Logger
}

// NewValidator wires the preflight gates. confirm may be nil unless policy is
// PolicyPrompt.
func NewValidator(inspector Inspector, metadata Metadata, confirm Confirmer, policy Policy, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Validator{
		inspector: inspector,
		metadata:  metadata,
		confirm:   confirm,
		policy:    policy,
		logger:    logging.NewComponentLogger(logger, "preflight"),
	}
}

// Run applies the gates in order and returns the torrent to continue with,
// which differs from the input only after a committed reclassification.
func (v *Validator) Run(ctx context.Context, group release.ReleaseGroup, torrent release.Torrent, dir string) (release.Torrent, audioinspect.Info, error) {
	info, err := v.inspector.InspectDir(ctx, dir)
	if err != nil {
		return torrent, audioinspect.Info{}, fmt.Errorf("inspect source %s: %w", dir, err)
	}

	if channels := info.MaxChannels(); channels > 2 {
		return torrent, info, services.Wrap(services.ErrChannelLayout, "preflight", "channels",
			fmt.Sprintf("%s: %d channels", group.DisplayName(), channels), nil)
	}

	torrent, err = v.reconcileBitDepth(ctx, group, torrent, info)
	if err != nil {
		return torrent, info, err
	}

	if err := validateTags(info); err != nil {
		return torrent, info, err
	}
	return torrent, info, nil
}

// reconcileBitDepth handles a measured 24-bit source whose tracker record
// claims otherwise. Correction is a two-phase operation: commit the edit,
// then refetch the record so later stages see the corrected encoding.
func (v *Validator) reconcileBitDepth(ctx context.Context, group release.ReleaseGroup, torrent release.Torrent, info audioinspect.Info) (release.Torrent, error) {
	if info.MaxBitDepth() <= 16 || formats.Requires24Bit(torrent) {
		return torrent, nil
	}

	v.logger.Warn("source is 24-bit but declared otherwise",
		logging.String("release", group.DisplayName()),
		logging.Int64(logging.FieldTorrentID, torrent.ID),
		logging.String("declared", torrent.Encoding),
		logging.String("policy", v.policy.String()))

	switch v.policy {
	case PolicyIgnore:
		return torrent, nil
	case PolicyPrompt:
		if v.confirm == nil {
			return torrent, nil
		}
		ok, err := v.confirm.ConfirmReclassify(group.DisplayName(), torrent.ID)
		if err != nil {
			return torrent, services.Wrap(services.ErrBitDepth, "preflight", "confirm", group.DisplayName(), err)
		}
		if !ok {
			return torrent, nil
		}
	}

	if err := v.metadata.SetHighResEncoding(ctx, torrent.ID); err != nil {
		return torrent, services.Wrap(services.ErrBitDepth, "preflight", "reclassify", group.DisplayName(), err)
	}
	_, refreshed, err := v.metadata.Torrent(ctx, torrent.ID)
	if err != nil {
		return torrent, services.Wrap(services.ErrBitDepth, "preflight", "refresh", group.DisplayName(), err)
	}
	v.logger.Info("reclassified torrent as 24-bit",
		logging.Int64(logging.FieldTorrentID, torrent.ID),
		logging.String("encoding", refreshed.Encoding))
	return refreshed, nil
}

// validateTags rejects the release when any file misses a required vorbis
// comment.
func validateTags(info audioinspect.Info) error {
	for _, file := range info.Files {
		name := filepath.Base(file.Path)
		for _, key := range requiredTags {
			if strings.TrimSpace(file.Tags[key]) == "" {
				return services.Wrap(services.ErrInvalidTags, "preflight", "tags",
					fmt.Sprintf("%s: missing %s", name, key), nil)
			}
		}
		if !hasTrackNumber(file.Tags) {
			return services.Wrap(services.ErrInvalidTags, "preflight", "tags",
				fmt.Sprintf("%s: missing track number", name), nil)
		}
	}
	return nil
}

func hasTrackNumber(tags map[string]string) bool {
	for _, key := range trackNumberKeys {
		if strings.TrimSpace(tags[key]) != "" {
			return true
		}
	}
	return false
}
