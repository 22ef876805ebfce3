// Package store persists per-entity raw-record snapshots and the
// confidentiality-filtered attendee cache. Two drivers are supported:
// SQLite for local single-node use and Postgres for shared deployments.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

// Snapshot is one cached fetch of an entity's raw records.
type Snapshot struct {
	Entity    string           `json:"entity"`
	Records   []map[string]any `json:"records"`
	FetchedAt time.Time        `json:"fetched_at"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// Store is the persistence interface for snapshots and the attendee
// cache. Get methods return (nil, nil) on a miss or expired entry.
type Store interface {
	// Raw-record snapshots, one per entity table.
	GetSnapshot(ctx context.Context, entity string) (*Snapshot, error)
	SetSnapshot(ctx context.Context, entity string, records []map[string]any, ttl time.Duration) error

	// Confidentiality-filtered attendee cache. Callers must filter
	// records before storing; the store persists what it is given.
	GetCachedAttendees(ctx context.Context) ([]map[string]any, error)
	SetCachedAttendees(ctx context.Context, records []map[string]any, ttl time.Duration) error
	PurgeAttendeeCache(ctx context.Context) error

	// Maintenance
	DeleteExpired(ctx context.Context) (int, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open creates a Store for the configured driver.
func Open(ctx context.Context, driver, databaseURL string) (Store, error) {
	switch driver {
	case "sqlite":
		return NewSQLite(databaseURL)
	case "postgres":
		return NewPostgres(ctx, databaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
