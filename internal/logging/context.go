package logging

import (
	"context"
	"log/slog"

	"gazelleops/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldTorrentID is the standardized structured logging key for torrent identifiers.
	FieldTorrentID = "torrent_id"
	// FieldGroupID is the standardized structured logging key for release group identifiers.
	FieldGroupID = "group_id"
	// FieldFormat is the standardized structured logging key for output format names.
	FieldFormat = "format"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 3)
	if id, ok := services.GroupIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldGroupID, id))
	}
	if id, ok := services.TorrentIDFromContext(ctx); ok {
		fields = append(fields, slog.Int64(FieldTorrentID, id))
	}
	if format, ok := services.FormatFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldFormat, format))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from
// the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(Args(fields...)...)
}
