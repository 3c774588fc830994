package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store persists chain entries. Implementations live in pkg/audit/storage
// and must be append-only: no update or delete operations exist.
type Store interface {
	// Append commits one entry. Entries arrive in strictly increasing
	// index order.
	Append(ctx context.Context, entry *Entry) error

	// Last returns the highest-index entry, or nil when the log is empty.
	Last(ctx context.Context) (*Entry, error)

	// List returns entries matching the filter, ordered by index.
	List(ctx context.Context, filter Filter) ([]*Entry, error)

	// GetByID returns the entry with the given id.
	GetByID(ctx context.Context, id string) (*Entry, error)

	// All returns every entry ordered by index, for proof and
	// verification walks.
	All(ctx context.Context) ([]*Entry, error)
}

// Log is the tamper-evident decision log. The chain tail is guarded by a
// single mutex so appends are totally ordered; an append is O(1) plus the
// hash computations.
type Log struct {
	mu     sync.Mutex
	tail   *Entry
	loaded bool

	// cachedProof is invalidated on every append.
	cachedProof *Proof

	store   Store
	salt    string
	logger  *slog.Logger
	metrics Metrics

	// now is replaceable for deterministic tests.
	now func() time.Time
}

// Metrics receives chain observations. A nil sink disables them.
type Metrics interface {
	ObserveAuditAppend(chainLength int64)
}

// NewLog creates an audit log over the given store. The salt participates in
// every payload hash; changing it invalidates existing hashes, so it must be
// stable for the life of a deployment.
func NewLog(store Store, salt string, logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{
		store:  store,
		salt:   salt,
		logger: logger.With("component", "audit.log"),
		now:    time.Now,
	}
}

// SetMetrics attaches a metrics sink. Call before the first append.
func (l *Log) SetMetrics(m Metrics) {
	l.metrics = m
}

// LogDecision appends one decision to the chain and returns the committed
// entry. Failure here is fatal to the request: the caller must not deliver a
// decision that was never recorded.
func (l *Log) LogDecision(ctx context.Context, orgID, ruleID, effect, actorID string, payload map[string]any, auditFields []string) (*Entry, error) {
	// The hashing work happens outside the chain lock.
	redacted, hashed, err := Redact(payload, auditFields)
	if err != nil {
		return nil, fmt.Errorf("failed to redact payload: %w", err)
	}
	pHash, err := payloadHash(payload, l.salt)
	if err != nil {
		return nil, fmt.Errorf("failed to hash payload: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureTailLocked(ctx); err != nil {
		return nil, err
	}

	// The deadline is honored before the entry is committed; an expired
	// request never leaves a partial chain entry behind.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prevPrev, prevPayload := zeroHash, zeroHash
	var index int64
	if l.tail != nil {
		prevPrev = l.tail.PrevHash
		prevPayload = l.tail.PayloadHash
		index = l.tail.Index + 1
	}

	timestamp := l.now().UTC().Format(timestampLayout)
	entry := &Entry{
		Index:           index,
		ID:              uuid.NewString(),
		Timestamp:       timestamp,
		OrgID:           orgID,
		RuleID:          ruleID,
		Effect:          effect,
		ActorID:         actorID,
		RedactedPayload: redacted,
		FieldsHashed:    hashed,
		PayloadHash:     pHash,
		PrevHash:        chainHash(prevPrev, prevPayload, ruleID, effect, timestamp),
	}
	entry.MerkleLeaf = leafHash(entry.ID, entry.PayloadHash, entry.PrevHash)

	if err := l.store.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to append audit entry: %w", err)
	}
	l.tail = entry
	l.cachedProof = nil
	if l.metrics != nil {
		l.metrics.ObserveAuditAppend(entry.Index + 1)
	}

	l.logger.Debug("audit entry appended",
		"index", entry.Index,
		"entry_id", entry.ID,
		"rule_id", ruleID,
		"effect", effect,
	)
	return entry, nil
}

// List returns entries matching the filter.
func (l *Log) List(ctx context.Context, filter Filter) ([]*Entry, error) {
	return l.store.List(ctx, filter)
}

// GetByID returns a single entry.
func (l *Log) GetByID(ctx context.Context, id string) (*Entry, error) {
	return l.store.GetByID(ctx, id)
}

// GetLatestProof returns the Merkle root over all committed entries. The
// root is recomputed on demand and cached until the next append.
func (l *Log) GetLatestProof(ctx context.Context) (*Proof, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cachedProof != nil {
		return l.cachedProof, nil
	}

	entries, err := l.store.All(ctx)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrEmptyLog
	}

	leaves := make([]string, len(entries))
	for i, entry := range entries {
		leaves[i] = entry.MerkleLeaf
	}
	root, height := merkleRoot(leaves)

	l.cachedProof = &Proof{
		MerkleRoot: root,
		Height:     height,
		LastIndex:  entries[len(entries)-1].Index,
	}
	return l.cachedProof, nil
}

// VerifyIntegrity walks the persisted chain in order and re-derives every
// prev_hash and merkle_leaf, reporting each index where the stored value
// differs from the derivation.
func (l *Log) VerifyIntegrity(ctx context.Context) (*IntegrityReport, error) {
	entries, err := l.store.All(ctx)
	if err != nil {
		return nil, err
	}

	report := &IntegrityReport{Valid: true}
	prevPrev, prevPayload := zeroHash, zeroHash
	for i, entry := range entries {
		want := chainHash(prevPrev, prevPayload, entry.RuleID, entry.Effect, entry.Timestamp)
		if entry.PrevHash != want {
			report.Valid = false
			report.Errors = append(report.Errors,
				fmt.Sprintf("index %d: prev_hash mismatch", i))
		}
		if leaf := leafHash(entry.ID, entry.PayloadHash, entry.PrevHash); entry.MerkleLeaf != leaf {
			report.Valid = false
			report.Errors = append(report.Errors,
				fmt.Sprintf("index %d: merkle_leaf mismatch", i))
		}
		prevPrev, prevPayload = entry.PrevHash, entry.PayloadHash
	}

	if !report.Valid {
		l.logger.Warn("audit chain verification failed", "error_count", len(report.Errors))
	}
	return report, nil
}

// ensureTailLocked loads the persisted tail on first use so the chain
// continues across restarts. Callers must hold mu.
func (l *Log) ensureTailLocked(ctx context.Context) error {
	if l.loaded {
		return nil
	}
	tail, err := l.store.Last(ctx)
	if err != nil {
		return fmt.Errorf("failed to load chain tail: %w", err)
	}
	l.tail = tail
	l.loaded = true
	if tail != nil {
		l.logger.Info("audit chain resumed", "last_index", tail.Index)
	}
	return nil
}
