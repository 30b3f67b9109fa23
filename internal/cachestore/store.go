package cachestore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"tubeqa/internal/logging"
	"tubeqa/internal/services"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped when the artifacts table changes shape. A mismatch
// asks the user to clear the cache rather than attempting migration.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by an incompatible
// version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Entry is one cached artifact record.
type Entry struct {
	ContentKey        string
	URL               string
	Transcript        string
	Summary           string
	IndexLocation     string
	TranscriptionTier string
	AnswerTier        string
	CreatedAt         time.Time
}

// Store manages artifact persistence backed by sqlite.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the artifact database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("cachestore: database path required")
	}
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

	store := &Store{
		db:     db,
		path:   path,
		logger: logging.NewComponentLogger(logger, "cachestore"),
	}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Get returns the cached entry for key. Any read failure, including a corrupt
// row, is treated as a miss and logged; callers never see a partial entry.
func (s *Store) Get(ctx context.Context, key string) (Entry, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Entry{}, false
	}

	var entry Entry
	var createdAt string
	err := s.db.QueryRowContext(ensureContext(ctx), `
		SELECT content_key, url, transcript, summary, index_location,
		       transcription_tier, answer_tier, created_at
		FROM artifacts WHERE content_key = ?`, key).
		Scan(&entry.ContentKey, &entry.URL, &entry.Transcript, &entry.Summary,
			&entry.IndexLocation, &entry.TranscriptionTier, &entry.AnswerTier, &createdAt)
	switch {
	case err == nil:
	case errors.Is(err, sql.ErrNoRows):
		return Entry{}, false
	default:
		s.logger.Warn("cache read failed, treating as miss",
			logging.String(logging.FieldContentKey, key),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "artifacts will be recomputed"))
		return Entry{}, false
	}

	parsed, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		s.logger.Warn("cache row has malformed timestamp, treating as miss",
			logging.String(logging.FieldContentKey, key),
			logging.Error(err))
		return Entry{}, false
	}
	entry.CreatedAt = parsed

	if entry.Transcript == "" || entry.IndexLocation == "" {
		s.logger.Warn("cache row incomplete, treating as miss",
			logging.String(logging.FieldContentKey, key))
		return Entry{}, false
	}
	return entry, true
}

// Put durably stores an entry, overwriting any previous record for the same
// key. The upsert executes as a single statement so readers see either the
// old record or the new one. Failures are classified as cache I/O errors;
// callers may proceed without caching.
func (s *Store) Put(ctx context.Context, entry Entry) error {
	entry.ContentKey = strings.TrimSpace(entry.ContentKey)
	if entry.ContentKey == "" {
		return services.Wrap(services.ErrValidation, "cachestore", "put", "content key required", nil)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	err := s.execWithRetry(ensureContext(ctx), `
		INSERT INTO artifacts (content_key, url, transcript, summary, index_location,
		                       transcription_tier, answer_tier, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(content_key) DO UPDATE SET
			url = excluded.url,
			transcript = excluded.transcript,
			summary = excluded.summary,
			index_location = excluded.index_location,
			transcription_tier = excluded.transcription_tier,
			answer_tier = excluded.answer_tier,
			created_at = excluded.created_at`,
		entry.ContentKey, entry.URL, entry.Transcript, entry.Summary, entry.IndexLocation,
		entry.TranscriptionTier, entry.AnswerTier, entry.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return services.Wrap(services.ErrCacheIO, "cachestore", "put", entry.ContentKey, err)
	}

	s.logger.Debug("cached pipeline artifacts",
		logging.String(logging.FieldContentKey, entry.ContentKey),
		logging.Int("transcript_chars", len(entry.Transcript)),
		logging.String("index_location", filepath.Base(entry.IndexLocation)))
	return nil
}

// List returns all entries, newest first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx), `
		SELECT content_key, url, transcript, summary, index_location,
		       transcription_tier, answer_tier, created_at
		FROM artifacts ORDER BY created_at DESC`)
	if err != nil {
		return nil, services.Wrap(services.ErrCacheIO, "cachestore", "list", "", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		var createdAt string
		if err := rows.Scan(&entry.ContentKey, &entry.URL, &entry.Transcript, &entry.Summary,
			&entry.IndexLocation, &entry.TranscriptionTier, &entry.AnswerTier, &createdAt); err != nil {
			return nil, services.Wrap(services.ErrCacheIO, "cachestore", "list", "scan row", err)
		}
		if parsed, err := time.Parse(time.RFC3339, createdAt); err == nil {
			entry.CreatedAt = parsed
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrCacheIO, "cachestore", "list", "iterate rows", err)
	}
	return entries, nil
}

// Remove deletes the record for key.
func (s *Store) Remove(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return services.Wrap(services.ErrValidation, "cachestore", "remove", "content key required", nil)
	}
	if err := s.execWithRetry(ensureContext(ctx), "DELETE FROM artifacts WHERE content_key = ?", key); err != nil {
		return services.Wrap(services.ErrCacheIO, "cachestore", "remove", key, err)
	}
	return nil
}

// Clear removes every record.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.execWithRetry(ensureContext(ctx), "DELETE FROM artifacts"); err != nil {
		return services.Wrap(services.ErrCacheIO, "cachestore", "clear", "", err)
	}
	return nil
}

// Count returns the number of cached records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ensureContext(ctx), "SELECT COUNT(1) FROM artifacts").Scan(&count); err != nil {
		return 0, services.Wrap(services.ErrCacheIO, "cachestore", "count", "", err)
	}
	return count, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (run 'tubeqa cache clear --all' or delete %s)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

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

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		_, lastErr = s.db.ExecContext(ctx, query, args...)
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
