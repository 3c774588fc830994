package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"tessera-hq/warden/pkg/routing"
)

// routingSchema creates the pool and target tables. Targets cascade with
// their pool.
const routingSchema = `
CREATE TABLE IF NOT EXISTS route_pools (
    pool_id TEXT PRIMARY KEY,
    document TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS route_targets (
    id TEXT PRIMARY KEY,
    pool_id TEXT NOT NULL REFERENCES route_pools(pool_id) ON DELETE CASCADE,
    document TEXT NOT NULL,
    position INTEGER NOT NULL DEFAULT 0,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_route_targets_pool ON route_targets(pool_id, position);
`

// SQLiteStore persists pools and targets as JSON documents in a shared
// SQLite database. The caller owns the *sql.DB.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates the routing store and ensures its schema exists.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if _, err := db.Exec(routingSchema); err != nil {
		return nil, fmt.Errorf("failed to create routing schema: %w", err)
	}
	return &SQLiteStore{
		db:     db,
		logger: slog.Default().With("component", "routing.storage.sqlite"),
	}, nil
}

// SavePool inserts or replaces a pool document.
func (s *SQLiteStore) SavePool(ctx context.Context, pool *routing.ModelPool) error {
	document, err := json.Marshal(pool)
	if err != nil {
		return fmt.Errorf("failed to marshal pool %q: %w", pool.PoolID, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO route_pools (pool_id, document, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(pool_id) DO UPDATE SET
		   document = excluded.document,
		   updated_at = excluded.updated_at`,
		pool.PoolID, string(document), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save pool %q: %w", pool.PoolID, err)
	}

	s.logger.Debug("pool saved", "pool_id", pool.PoolID)
	return nil
}

// DeletePool removes a pool; its targets cascade.
func (s *SQLiteStore) DeletePool(ctx context.Context, poolID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM route_pools WHERE pool_id = ?`, poolID)
	if err != nil {
		return fmt.Errorf("failed to delete pool %q: %w", poolID, err)
	}
	return nil
}

// SaveTarget inserts or replaces a target document. New targets take the
// next position within their pool so insertion order survives a restart.
func (s *SQLiteStore) SaveTarget(ctx context.Context, target *routing.RouteTarget) error {
	document, err := json.Marshal(target)
	if err != nil {
		return fmt.Errorf("failed to marshal target %q: %w", target.ID, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO route_targets (id, pool_id, document, position, updated_at)
		 VALUES (?, ?, ?,
		   (SELECT COALESCE(MAX(position), 0) + 1 FROM route_targets WHERE pool_id = ?),
		   ?)
		 ON CONFLICT(id) DO UPDATE SET
		   pool_id = excluded.pool_id,
		   document = excluded.document,
		   updated_at = excluded.updated_at`,
		target.ID, target.PoolID, string(document), target.PoolID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save target %q: %w", target.ID, err)
	}

	s.logger.Debug("target saved", "target_id", target.ID, "pool_id", target.PoolID)
	return nil
}

// DeleteTarget removes a target by id.
func (s *SQLiteStore) DeleteTarget(ctx context.Context, targetID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM route_targets WHERE id = ?`, targetID)
	if err != nil {
		return fmt.Errorf("failed to delete target %q: %w", targetID, err)
	}
	return nil
}

// LoadPools returns every persisted pool.
func (s *SQLiteStore) LoadPools(ctx context.Context) ([]*routing.ModelPool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT document FROM route_pools ORDER BY pool_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query pools: %w", err)
	}
	defer rows.Close()

	var pools []*routing.ModelPool
	for rows.Next() {
		var document string
		if err := rows.Scan(&document); err != nil {
			return nil, fmt.Errorf("failed to scan pool row: %w", err)
		}

		var pool routing.ModelPool
		if err := json.Unmarshal([]byte(document), &pool); err != nil {
			return nil, fmt.Errorf("failed to unmarshal pool document: %w", err)
		}
		pools = append(pools, &pool)
	}
	return pools, rows.Err()
}

// LoadTargets returns every persisted target in pool insertion order.
func (s *SQLiteStore) LoadTargets(ctx context.Context) ([]*routing.RouteTarget, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT document FROM route_targets ORDER BY pool_id, position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query targets: %w", err)
	}
	defer rows.Close()

	var targets []*routing.RouteTarget
	for rows.Next() {
		var document string
		if err := rows.Scan(&document); err != nil {
			return nil, fmt.Errorf("failed to scan target row: %w", err)
		}

		var target routing.RouteTarget
		if err := json.Unmarshal([]byte(document), &target); err != nil {
			return nil, fmt.Errorf("failed to unmarshal target document: %w", err)
		}
		targets = append(targets, &target)
	}
	return targets, rows.Err()
}
