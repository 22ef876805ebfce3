package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies
// it for unit tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS snapshots (
	entity     TEXT PRIMARY KEY,
	records    JSONB NOT NULL,
	fetched_at TIMESTAMPTZ NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS attendee_cache (
	id         TEXT PRIMARY KEY,
	records    JSONB NOT NULL,
	cached_at  TIMESTAMPTZ NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_expires_at ON snapshots(expires_at);
CREATE INDEX IF NOT EXISTS idx_attendee_cache_expires_at ON attendee_cache(expires_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) GetSnapshot(ctx context.Context, entity string) (*Snapshot, error) {
	var (
		recordsJSON          []byte
		fetchedAt, expiresAt time.Time
	)
	err := s.pool.QueryRow(ctx,
		`SELECT records, fetched_at, expires_at FROM snapshots WHERE entity = $1 AND expires_at > now()`,
		entity,
	).Scan(&recordsJSON, &fetchedAt, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get snapshot %s", entity)
	}

	var records []map[string]any
	if err := json.Unmarshal(recordsJSON, &records); err != nil {
		return nil, eris.Wrapf(err, "postgres: unmarshal snapshot %s", entity)
	}

	return &Snapshot{
		Entity:    entity,
		Records:   records,
		FetchedAt: fetchedAt,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *PostgresStore) SetSnapshot(ctx context.Context, entity string, records []map[string]any, ttl time.Duration) error {
	recordsJSON, err := json.Marshal(records)
	if err != nil {
		return eris.Wrapf(err, "postgres: marshal snapshot %s", entity)
	}
	now := time.Now().UTC()

	_, err = s.pool.Exec(ctx,
		`INSERT INTO snapshots (entity, records, fetched_at, expires_at) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (entity) DO UPDATE SET records = EXCLUDED.records, fetched_at = EXCLUDED.fetched_at, expires_at = EXCLUDED.expires_at`,
		entity, recordsJSON, now, now.Add(ttl),
	)
	return eris.Wrapf(err, "postgres: set snapshot %s", entity)
}

func (s *PostgresStore) GetCachedAttendees(ctx context.Context) ([]map[string]any, error) {
	var recordsJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT records FROM attendee_cache WHERE expires_at > now() ORDER BY cached_at DESC LIMIT 1`,
	).Scan(&recordsJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get attendee cache")
	}

	var records []map[string]any
	if err := json.Unmarshal(recordsJSON, &records); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal attendee cache")
	}
	return records, nil
}

func (s *PostgresStore) SetCachedAttendees(ctx context.Context, records []map[string]any, ttl time.Duration) error {
	recordsJSON, err := json.Marshal(records)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal attendee cache")
	}
	now := time.Now().UTC()

	if _, err := s.pool.Exec(ctx, `DELETE FROM attendee_cache`); err != nil {
		return eris.Wrap(err, "postgres: clear attendee cache")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO attendee_cache (id, records, cached_at, expires_at) VALUES ($1, $2, $3, $4)`,
		uuid.New().String(), recordsJSON, now, now.Add(ttl),
	)
	return eris.Wrap(err, "postgres: set attendee cache")
}

func (s *PostgresStore) PurgeAttendeeCache(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM attendee_cache`)
	return eris.Wrap(err, "postgres: purge attendee cache")
}

func (s *PostgresStore) DeleteExpired(ctx context.Context) (int, error) {
	total := 0
	for _, q := range []string{
		`DELETE FROM snapshots WHERE expires_at <= now()`,
		`DELETE FROM attendee_cache WHERE expires_at <= now()`,
	} {
		tag, err := s.pool.Exec(ctx, q)
		if err != nil {
			return total, eris.Wrap(err, "postgres: delete expired")
		}
		total += int(tag.RowsAffected())
	}
	return total, nil
}
