package processed

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"gazelleops/internal/logging"
	"gazelleops/internal/services"
)

// Entry statuses. A skipped entry was excluded by the operator rather than
// completed.
const (
	StatusProcessed = "processed"
	StatusSkipped   = "skipped"
)

// Entry is one resume cache record.
type Entry struct {
	TorrentID int64
	Status    string
	CreatedAt time.Time
}

// Store is the durable resume cache. An in-memory mirror answers lookups so
// a failing disk never re-admits a finished release mid-run.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger

	mu  sync.Mutex
	ids map[int64]string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// Open connects to the cache database at path, creating it when absent. An
// unreadable or corrupt file is moved aside and replaced with a fresh, empty
// cache: losing resume state costs repeated work, never correctness.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "processed")

	store, err := open(path, logger)
	if err == nil {
		return store, nil
	}

	logger.Warn("resume cache unreadable, starting empty",
		logging.String("path", path), logging.Error(err))
	quarantine := path + ".corrupt"
	if renameErr := os.Rename(path, quarantine); renameErr != nil {
		return nil, services.Wrap(services.ErrCache, "processed", "open", path, err)
	}
	return open(path, logger)
}

func open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, logger: logger, ids: make(map[int64]string)}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := store.loadMirror(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS processed (
    torrent_id INTEGER PRIMARY KEY,
    status     TEXT NOT NULL,
    created_at TEXT NOT NULL
)`
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, schema)
		return err
	})
}

func (s *Store) loadMirror(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT torrent_id, status FROM processed`)
	if err != nil {
		return fmt.Errorf("load cache: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var status string
		if err := rows.Scan(&id, &status); err != nil {
			return fmt.Errorf("scan cache row: %w", err)
		}
		s.ids[id] = status
	}
	return rows.Err()
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

// Contains reports whether the torrent id is already handled, answering from
// the in-memory mirror.
func (s *Store) Contains(torrentID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.ids[torrentID]
	return ok
}

// MarkProcessed records a completed release. The mirror is updated before
// the write so a disk failure does not re-admit the release this run; the
// returned error is ErrCache, which the controller reports without aborting.
func (s *Store) MarkProcessed(ctx context.Context, torrentID int64) error {
	return s.mark(ctx, torrentID, StatusProcessed)
}

// MarkSkipped records operator-excluded torrents.
func (s *Store) MarkSkipped(ctx context.Context, torrentIDs ...int64) error {
	for _, id := range torrentIDs {
		if err := s.mark(ctx, id, StatusSkipped); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) mark(ctx context.Context, torrentID int64, status string) error {
	s.mu.Lock()
	s.ids[torrentID] = status
	s.mu.Unlock()

	err := retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO processed (torrent_id, status, created_at) VALUES (?, ?, ?)
			 ON CONFLICT(torrent_id) DO UPDATE SET status = excluded.status`,
			torrentID, status, time.Now().UTC().Format(time.RFC3339))
		return err
	})
	if err != nil {
		return services.Wrap(services.ErrCache, "processed", "mark",
			fmt.Sprintf("torrent %d", torrentID), err)
	}
	return nil
}

// All returns every cache entry ordered by torrent id.
func (s *Store) All(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT torrent_id, status, created_at FROM processed ORDER BY torrent_id`)
	if err != nil {
		return nil, services.Wrap(services.ErrCache, "processed", "list", "", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var created string
		if err := rows.Scan(&entry.TorrentID, &entry.Status, &created); err != nil {
			return nil, services.Wrap(services.ErrCache, "processed", "list", "scan", err)
		}
		entry.CreatedAt, _ = time.Parse(time.RFC3339, created)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrCache, "processed", "list", "", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].TorrentID < entries[j].TorrentID })
	return entries, nil
}

// Clear drops every entry, forcing the next run to reconsider everything.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.ids = make(map[int64]string)
	s.mu.Unlock()

	if err := retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM processed`)
		return err
	}); err != nil {
		return services.Wrap(services.ErrCache, "processed", "clear", "", err)
	}
	return nil
}
