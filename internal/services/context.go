package services

import "context"

type contextKey int

const (
	torrentIDKey contextKey = iota
	groupIDKey
	formatKey
)

// WithTorrentID records the torrent being processed on the context.
func WithTorrentID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, torrentIDKey, id)
}

// TorrentIDFromContext returns the torrent identifier stored on the context.
func TorrentIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(torrentIDKey).(int64)
	return id, ok
}

// WithGroupID records the release group being processed on the context.
func WithGroupID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, groupIDKey, id)
}

// GroupIDFromContext returns the group identifier stored on the context.
func GroupIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(groupIDKey).(int64)
	return id, ok
}

// WithFormat records the output format currently being produced.
func WithFormat(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, formatKey, name)
}

// FormatFromContext returns the format name stored on the context.
func FormatFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(formatKey).(string)
	return name, ok
}
