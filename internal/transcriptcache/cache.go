package transcriptcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// timestampLayout keeps created_at lexically sortable.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// Cache stores transcripts keyed by source reference and duration cap.
type Cache struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Stats summarizes cache contents.
type Stats struct {
	Entries int
	Hits    int
}

// Open initializes or connects to the cache database at path.
func Open(path string) (*Cache, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("transcript cache: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure cache dir: %w", err)
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

	cache := &Cache{db: db, path: path, now: time.Now}
	if err := cache.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return cache, nil
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Path reports the database file location.
func (c *Cache) Path() string {
	if c == nil {
		return ""
	}
	return c.path
}

// Lookup returns the cached transcript for the key, if any. Hits are counted.
func (c *Cache) Lookup(ctx context.Context, sourceRef string, maxSeconds int) (string, bool, error) {
	var transcript string
	err := c.db.QueryRowContext(ctx,
		`SELECT transcript FROM transcripts WHERE source_ref = ? AND max_seconds = ?`,
		sourceRef, maxSeconds,
	).Scan(&transcript)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup transcript: %w", err)
	}
	if err := retryOnBusy(ctx, func() error {
		_, execErr := c.db.ExecContext(ctx,
			`UPDATE transcripts SET hits = hits + 1 WHERE source_ref = ? AND max_seconds = ?`,
			sourceRef, maxSeconds,
		)
		return execErr
	}); err != nil {
		return "", false, fmt.Errorf("record transcript hit: %w", err)
	}
	return transcript, true, nil
}

// Store saves transcript for the key, replacing any existing entry.
func (c *Cache) Store(ctx context.Context, sourceRef string, maxSeconds int, transcript string) error {
	if strings.TrimSpace(transcript) == "" {
		return errors.New("store transcript: empty transcript")
	}
	timestamp := c.now().UTC().Format(timestampLayout)
	err := retryOnBusy(ctx, func() error {
		_, execErr := c.db.ExecContext(ctx,
			`INSERT INTO transcripts (source_ref, max_seconds, transcript, created_at, hits)
             VALUES (?, ?, ?, ?, 0)
             ON CONFLICT(source_ref, max_seconds) DO UPDATE SET
                 transcript = excluded.transcript,
                 created_at = excluded.created_at`,
			sourceRef, maxSeconds, transcript, timestamp,
		)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("store transcript: %w", err)
	}
	return nil
}

// Stats reports the number of cached entries and accumulated hits.
func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := c.db.QueryRowContext(ctx,
		`SELECT COUNT(1), COALESCE(SUM(hits), 0) FROM transcripts`,
	).Scan(&stats.Entries, &stats.Hits)
	if err != nil {
		return Stats{}, fmt.Errorf("transcript stats: %w", err)
	}
	return stats, nil
}

// Prune removes entries created before cutoff and returns how many were deleted.
func (c *Cache) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	var affected int64
	err := retryOnBusy(ctx, func() error {
		res, execErr := c.db.ExecContext(ctx,
			`DELETE FROM transcripts WHERE created_at < ?`,
			cutoff.UTC().Format(timestampLayout),
		)
		if execErr != nil {
			return execErr
		}
		affected, execErr = res.RowsAffected()
		return execErr
	})
	if err != nil {
		return 0, fmt.Errorf("prune transcripts: %w", err)
	}
	return affected, nil
}
