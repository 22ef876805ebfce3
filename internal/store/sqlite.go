package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS snapshots (
	entity     TEXT PRIMARY KEY,
	records    TEXT NOT NULL,
	fetched_at DATETIME NOT NULL,
	expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS attendee_cache (
	id         TEXT PRIMARY KEY,
	records    TEXT NOT NULL,
	cached_at  DATETIME NOT NULL,
	expires_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_expires_at ON snapshots(expires_at);
CREATE INDEX IF NOT EXISTS idx_attendee_cache_expires_at ON attendee_cache(expires_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetSnapshot(ctx context.Context, entity string) (*Snapshot, error) {
	var (
		recordsJSON          string
		fetchedAt, expiresAt time.Time
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT records, fetched_at, expires_at FROM snapshots WHERE entity = ? AND expires_at > ?`,
		entity, time.Now().UTC(),
	).Scan(&recordsJSON, &fetchedAt, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get snapshot %s", entity)
	}

	var records []map[string]any
	if err := json.Unmarshal([]byte(recordsJSON), &records); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal snapshot %s", entity)
	}

	return &Snapshot{
		Entity:    entity,
		Records:   records,
		FetchedAt: fetchedAt,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *SQLiteStore) SetSnapshot(ctx context.Context, entity string, records []map[string]any, ttl time.Duration) error {
	recordsJSON, err := json.Marshal(records)
	if err != nil {
		return eris.Wrapf(err, "sqlite: marshal snapshot %s", entity)
	}
	now := time.Now().UTC()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (entity, records, fetched_at, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(entity) DO UPDATE SET records = excluded.records, fetched_at = excluded.fetched_at, expires_at = excluded.expires_at`,
		entity, string(recordsJSON), now, now.Add(ttl),
	)
	return eris.Wrapf(err, "sqlite: set snapshot %s", entity)
}

func (s *SQLiteStore) GetCachedAttendees(ctx context.Context) ([]map[string]any, error) {
	var recordsJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT records FROM attendee_cache WHERE expires_at > ? ORDER BY cached_at DESC LIMIT 1`,
		time.Now().UTC(),
	).Scan(&recordsJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get attendee cache")
	}

	var records []map[string]any
	if err := json.Unmarshal([]byte(recordsJSON), &records); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal attendee cache")
	}
	return records, nil
}

func (s *SQLiteStore) SetCachedAttendees(ctx context.Context, records []map[string]any, ttl time.Duration) error {
	recordsJSON, err := json.Marshal(records)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal attendee cache")
	}
	now := time.Now().UTC()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin attendee cache tx")
	}
	defer tx.Rollback() //nolint:errcheck

	// Single-slot cache: replace whatever was there.
	if _, err := tx.ExecContext(ctx, `DELETE FROM attendee_cache`); err != nil {
		return eris.Wrap(err, "sqlite: clear attendee cache")
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO attendee_cache (id, records, cached_at, expires_at) VALUES (?, ?, ?, ?)`,
		uuid.New().String(), string(recordsJSON), now, now.Add(ttl),
	); err != nil {
		return eris.Wrap(err, "sqlite: set attendee cache")
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit attendee cache")
}

func (s *SQLiteStore) PurgeAttendeeCache(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM attendee_cache`)
	return eris.Wrap(err, "sqlite: purge attendee cache")
}

func (s *SQLiteStore) DeleteExpired(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	total := 0
	for _, q := range []string{
		`DELETE FROM snapshots WHERE expires_at <= ?`,
		`DELETE FROM attendee_cache WHERE expires_at <= ?`,
	} {
		res, err := s.db.ExecContext(ctx, q, now)
		if err != nil {
			return total, eris.Wrap(err, "sqlite: delete expired")
		}
		if n, err := res.RowsAffected(); err == nil {
			total += int(n)
		}
	}
	return total, nil
}
