package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"tessera-hq/warden/pkg/audit"
)

// auditSchema creates the append-only chain table. The monotonic index is
// the primary key; nothing ever updates or deletes a row.
const auditSchema = `
CREATE TABLE IF NOT EXISTS audit_log (
    idx INTEGER PRIMARY KEY,
    id TEXT NOT NULL UNIQUE,
    timestamp TEXT NOT NULL,
    org_id TEXT NOT NULL DEFAULT '',
    rule_id TEXT NOT NULL,
    effect TEXT NOT NULL,
    actor_id TEXT NOT NULL DEFAULT '',
    redacted_payload TEXT NOT NULL,
    fields_hashed TEXT NOT NULL,
    payload_hash TEXT NOT NULL,
    prev_hash TEXT NOT NULL,
    merkle_leaf TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_log_rule ON audit_log(rule_id);
CREATE INDEX IF NOT EXISTS idx_audit_log_org ON audit_log(org_id);
CREATE INDEX IF NOT EXISTS idx_audit_log_timestamp ON audit_log(timestamp);
`

// SQLiteConfig configures the audit chain database.
type SQLiteConfig struct {
	// Path is the database file path.
	Path string

	// MaxOpenConns caps open connections. Default: 10.
	MaxOpenConns int

	// MaxIdleConns caps idle connections. Default: 5.
	MaxIdleConns int

	// WALMode enables write-ahead logging for concurrent readers.
	// Default: true.
	WALMode bool

	// BusyTimeout is how long to wait on a locked database.
	// Default: 5 seconds.
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default audit storage configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/audit.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStore is the production chain store.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens the audit database and ensures its schema exists.
func NewSQLiteStore(config *SQLiteConfig) (*SQLiteStore, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	db, err := sql.Open("sqlite3", config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	if config.WALMode {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if config.BusyTimeout > 0 {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d", config.BusyTimeout.Milliseconds())); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set busy timeout: %w", err)
		}
	}

	if _, err := db.Exec(auditSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create audit schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: slog.Default().With("component", "audit.storage.sqlite"),
	}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Append commits one chain entry.
func (s *SQLiteStore) Append(ctx context.Context, entry *audit.Entry) error {
	redacted, err := json.Marshal(entry.RedactedPayload)
	if err != nil {
		return fmt.Errorf("failed to marshal redacted payload: %w", err)
	}
	hashed, err := json.Marshal(entry.FieldsHashed)
	if err != nil {
		return fmt.Errorf("failed to marshal hashed fields: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO audit_log
		   (idx, id, timestamp, org_id, rule_id, effect, actor_id,
		    redacted_payload, fields_hashed, payload_hash, prev_hash, merkle_leaf)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Index, entry.ID, entry.Timestamp, entry.OrgID, entry.RuleID,
		entry.Effect, entry.ActorID, string(redacted), string(hashed),
		entry.PayloadHash, entry.PrevHash, entry.MerkleLeaf,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// Last returns the highest-index entry, or nil when the log is empty.
func (s *SQLiteStore) Last(ctx context.Context) (*audit.Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT idx, id, timestamp, org_id, rule_id, effect, actor_id,
		        redacted_payload, fields_hashed, payload_hash, prev_hash, merkle_leaf
		 FROM audit_log ORDER BY idx DESC LIMIT 1`)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return entry, err
}

// List returns entries matching the filter in index order.
func (s *SQLiteStore) List(ctx context.Context, filter audit.Filter) ([]*audit.Entry, error) {
	var conditions []string
	var args []any

	if filter.OrgID != "" {
		conditions = append(conditions, "org_id = ?")
		args = append(args, filter.OrgID)
	}
	if filter.RuleID != "" {
		conditions = append(conditions, "rule_id = ?")
		args = append(args, filter.RuleID)
	}
	if filter.Effect != "" {
		conditions = append(conditions, "effect = ?")
		args = append(args, filter.Effect)
	}
	if !filter.From.IsZero() {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, filter.From.UTC().Format(time.RFC3339Nano))
	}
	if !filter.To.IsZero() {
		conditions = append(conditions, "timestamp <= ?")
		args = append(args, filter.To.UTC().Format(time.RFC3339Nano))
	}

	query := `SELECT idx, id, timestamp, org_id, rule_id, effect, actor_id,
	                 redacted_payload, fields_hashed, payload_hash, prev_hash, merkle_leaf
	          FROM audit_log`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY idx"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*audit.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// GetByID returns one entry.
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (*audit.Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT idx, id, timestamp, org_id, rule_id, effect, actor_id,
		        redacted_payload, fields_hashed, payload_hash, prev_hash, merkle_leaf
		 FROM audit_log WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, audit.ErrEntryNotFound
	}
	return entry, err
}

// All returns every entry in index order.
func (s *SQLiteStore) All(ctx context.Context) ([]*audit.Entry, error) {
	return s.List(ctx, audit.Filter{})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*audit.Entry, error) {
	var entry audit.Entry
	var redacted, hashed string
	err := row.Scan(&entry.Index, &entry.ID, &entry.Timestamp, &entry.OrgID,
		&entry.RuleID, &entry.Effect, &entry.ActorID, &redacted, &hashed,
		&entry.PayloadHash, &entry.PrevHash, &entry.MerkleLeaf)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(redacted), &entry.RedactedPayload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal redacted payload: %w", err)
	}
	if err := json.Unmarshal([]byte(hashed), &entry.FieldsHashed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal hashed fields: %w", err)
	}
	return &entry, nil
}
