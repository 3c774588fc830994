package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"tessera-hq/warden/pkg/policy"
)

// policySchema creates the policies table.
const policySchema = `
CREATE TABLE IF NOT EXISTS policies (
    policy_id TEXT PRIMARY KEY,
    version TEXT NOT NULL,
    document TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`

// SQLiteStore persists policies as JSON documents in a shared SQLite
// database. The caller owns the *sql.DB; several stores (policies, routing)
// may share one configuration database.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates the policy store and ensures its schema exists.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if _, err := db.Exec(policySchema); err != nil {
		return nil, fmt.Errorf("failed to create policies schema: %w", err)
	}
	return &SQLiteStore{
		db:     db,
		logger: slog.Default().With("component", "policy.storage.sqlite"),
	}, nil
}

// SavePolicy inserts or replaces a policy document.
func (s *SQLiteStore) SavePolicy(ctx context.Context, pol *policy.Policy) error {
	document, err := json.Marshal(pol)
	if err != nil {
		return fmt.Errorf("failed to marshal policy %q: %w", pol.PolicyID, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO policies (policy_id, version, document, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(policy_id) DO UPDATE SET
		   version = excluded.version,
		   document = excluded.document,
		   updated_at = excluded.updated_at`,
		pol.PolicyID, pol.Version, string(document), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save policy %q: %w", pol.PolicyID, err)
	}

	s.logger.Debug("policy saved", "policy_id", pol.PolicyID, "version", pol.Version)
	return nil
}

// DeletePolicy removes a policy by id.
func (s *SQLiteStore) DeletePolicy(ctx context.Context, policyID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM policies WHERE policy_id = ?`, policyID)
	if err != nil {
		return fmt.Errorf("failed to delete policy %q: %w", policyID, err)
	}
	return nil
}

// LoadPolicies returns every persisted policy.
func (s *SQLiteStore) LoadPolicies(ctx context.Context) ([]*policy.Policy, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT document FROM policies ORDER BY policy_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query policies: %w", err)
	}
	defer rows.Close()

	var policies []*policy.Policy
	for rows.Next() {
		var document string
		if err := rows.Scan(&document); err != nil {
			return nil, fmt.Errorf("failed to scan policy row: %w", err)
		}

		var pol policy.Policy
		if err := json.Unmarshal([]byte(document), &pol); err != nil {
			return nil, fmt.Errorf("failed to unmarshal policy document: %w", err)
		}
		policies = append(policies, &pol)
	}
	return policies, rows.Err()
}
