// File path: internal/cache/store.go
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nextsteplk/pathway/internal/common"
	"github.com/nextsteplk/pathway/internal/common/telemetry"
)

// ErrNotFound is returned when no live entry exists for a program.
var ErrNotFound = errors.New("cache entry not found")

const schema = `
CREATE TABLE IF NOT EXISTS roadmaps (
	program_name     TEXT PRIMARY KEY,
	payload          TEXT NOT NULL,
	version          INTEGER NOT NULL DEFAULT 1,
	hit_count        INTEGER NOT NULL DEFAULT 0,
	created_at       INTEGER NOT NULL,
	updated_at       INTEGER NOT NULL,
	expires_at       INTEGER NOT NULL,
	last_accessed_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_roadmaps_expires ON roadmaps(expires_at);
`

// Entry is a cached roadmap payload with its bookkeeping columns.
type Entry struct {
	ProgramName    string `db:"program_name" json:"program_name"`
	Payload        string `db:"payload" json:"-"`
	Version        int    `db:"version" json:"version"`
	HitCount       int    `db:"hit_count" json:"hit_count"`
	CreatedAt      int64  `db:"created_at" json:"created_at"`
	UpdatedAt      int64  `db:"updated_at" json:"updated_at"`
	ExpiresAt      int64  `db:"expires_at" json:"expires_at"`
	LastAccessedAt int64  `db:"last_accessed_at" json:"last_accessed_at"`
}

// Stats summarises cache health.
type Stats struct {
	TotalEntries   int        `json:"total_entries"`
	ActiveEntries  int        `json:"active_entries"`
	ExpiredEntries int        `json:"expired_entries"`
	TopPrograms    []TopEntry `json:"top_programs"`
}

// TopEntry is a most-requested program.
type TopEntry struct {
	ProgramName string `db:"program_name" json:"program_name"`
	HitCount    int    `db:"hit_count" json:"hit_count"`
}

// Store persists roadmaps in sqlite with a TTL. Timestamps are unix seconds
// so expiry comparisons run inside SQL.
type Store struct {
	db        *sqlx.DB
	cfg       *Config
	sweepCh   chan struct{}
	closeOnce sync.Once
	now       func() time.Time
}

// NewStore opens (or creates) the cache database and starts the background
// expiry sweep.
func NewStore(cfg *Config) (*Store, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.applyDefaults()
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", cfg.Path, cfg.BusyTimeoutMS)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}
	store := &Store{db: db, cfg: cfg, sweepCh: make(chan struct{}), now: time.Now}
	go store.sweepLoop()
	common.Logger().Info("cache: store ready", "path", cfg.Path, "ttl", cfg.TTL.String())
	return store, nil
}

// Close stops the sweep loop and closes the database. Safe to call more than
// once.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	var err error
	s.closeOnce.Do(func() {
		close(s.sweepCh)
		err = s.db.Close()
	})
	return err
}

// Get returns the live entry for a program, bumping its hit count and access
// time. Expired or missing entries return ErrNotFound.
func (s *Store) Get(ctx context.Context, programName string) (*Entry, error) {
	programName = normalizeKey(programName)
	if programName == "" {
		return nil, fmt.Errorf("empty program name")
	}
	now := s.now().Unix()
	var entry Entry
	err := s.db.GetContext(ctx, &entry,
		`SELECT program_name, payload, version, hit_count, created_at, updated_at, expires_at, last_accessed_at
		 FROM roadmaps WHERE program_name = ? AND expires_at > ?`, programName, now)
	if errors.Is(err, sql.ErrNoRows) {
		telemetry.RecordCacheLookup(false)
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cache get %q: %w", programName, err)
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE roadmaps SET hit_count = hit_count + 1, last_accessed_at = ? WHERE program_name = ?`,
		now, programName); err != nil {
		common.Logger().Warn("cache: hit bookkeeping failed", "program", programName, "error", err)
	} else {
		entry.HitCount++
		entry.LastAccessedAt = now
	}
	telemetry.RecordCacheLookup(true)
	return &entry, nil
}

// Set stores or replaces the payload for a program, resetting its TTL and
// bumping the version on replacement.
func (s *Store) Set(ctx context.Context, programName, payload string) error {
	programName = normalizeKey(programName)
	if programName == "" {
		return fmt.Errorf("empty program name")
	}
	now := s.now().Unix()
	expires := s.now().Add(s.cfg.TTL).Unix()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO roadmaps (program_name, payload, version, hit_count, created_at, updated_at, expires_at, last_accessed_at)
		VALUES (?, ?, 1, 0, ?, ?, ?, ?)
		ON CONFLICT(program_name) DO UPDATE SET
			payload = excluded.payload,
			version = roadmaps.version + 1,
			updated_at = excluded.updated_at,
			expires_at = excluded.expires_at`,
		programName, payload, now, now, expires, now)
	if err != nil {
		return fmt.Errorf("cache set %q: %w", programName, err)
	}
	return nil
}

// Delete removes the entry for a program. Deleting a missing entry is not an
// error; the returned bool reports whether a row went away.
func (s *Store) Delete(ctx context.Context, programName string) (bool, error) {
	programName = normalizeKey(programName)
	if programName == "" {
		return false, fmt.Errorf("empty program name")
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM roadmaps WHERE program_name = ?`, programName)
	if err != nil {
		return false, fmt.Errorf("cache delete %q: %w", programName, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Clear removes every entry and reports how many were deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM roadmaps`)
	if err != nil {
		return 0, fmt.Errorf("cache clear: %w", err)
	}
	n, _ := res.RowsAffected()
	common.Logger().Info("cache: cleared", "entries", n)
	return n, nil
}

// Stats reports entry counts and the most requested programs.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	now := s.now().Unix()
	stats := &Stats{}
	if err := s.db.GetContext(ctx, &stats.TotalEntries, `SELECT COUNT(*) FROM roadmaps`); err != nil {
		return nil, fmt.Errorf("cache stats: %w", err)
	}
	if err := s.db.GetContext(ctx, &stats.ActiveEntries,
		`SELECT COUNT(*) FROM roadmaps WHERE expires_at > ?`, now); err != nil {
		return nil, fmt.Errorf("cache stats: %w", err)
	}
	stats.ExpiredEntries = stats.TotalEntries - stats.ActiveEntries
	if err := s.db.SelectContext(ctx, &stats.TopPrograms,
		`SELECT program_name, hit_count FROM roadmaps WHERE expires_at > ?
		 ORDER BY hit_count DESC, program_name ASC LIMIT ?`, now, s.cfg.TopLimit); err != nil {
		return nil, fmt.Errorf("cache stats: %w", err)
	}
	return stats, nil
}

// sweepLoop deletes expired rows on an interval until Close.
func (s *Store) sweepLoop() {
	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			res, err := s.db.ExecContext(ctx, `DELETE FROM roadmaps WHERE expires_at <= ?`, s.now().Unix())
			cancel()
			if err != nil {
				common.Logger().Warn("cache: sweep failed", "error", err)
				continue
			}
			if n, _ := res.RowsAffected(); n > 0 {
				common.Logger().Info("cache: swept expired entries", "entries", n)
			}
		case <-s.sweepCh:
			return
		}
	}
}

func normalizeKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
