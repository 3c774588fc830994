package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
	"time"
)

// chainStore is a minimal in-memory Store for exercising the chain.
type chainStore struct {
	entries []*Entry
}

func (s *chainStore) Append(_ context.Context, entry *Entry) error {
	s.entries = append(s.entries, entry)
	return nil
}

func (s *chainStore) Last(_ context.Context) (*Entry, error) {
	if len(s.entries) == 0 {
		return nil, nil
	}
	return s.entries[len(s.entries)-1], nil
}

func (s *chainStore) List(_ context.Context, _ Filter) ([]*Entry, error) {
	return s.entries, nil
}

func (s *chainStore) GetByID(_ context.Context, id string) (*Entry, error) {
	for _, entry := range s.entries {
		if entry.ID == id {
			return entry, nil
		}
	}
	return nil, ErrEntryNotFound
}

func (s *chainStore) All(_ context.Context) ([]*Entry, error) {
	return s.entries, nil
}

func newTestLog(store *chainStore) *Log {
	log := NewLog(store, "test-salt", nil)
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	n := 0
	log.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
	return log
}

func appendN(t *testing.T, log *Log, count int) []*Entry {
	t.Helper()
	entries := make([]*Entry, 0, count)
	for i := 0; i < count; i++ {
		entry, err := log.LogDecision(context.Background(),
			"org-1", "HEALTH_NO_OFFSHORE", "BLOCK", "actor-1",
			map[string]any{"data_class": "health_record", "message": "sensitive"},
			[]string{"data_class"},
		)
		if err != nil {
			t.Fatalf("LogDecision: %v", err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func sha(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "")))
	return hex.EncodeToString(sum[:])
}

// TestLogDecision_ChainLinks re-derives every prev_hash from first
// principles.
func TestLogDecision_ChainLinks(t *testing.T) {
	store := &chainStore{}
	entries := appendN(t, newTestLog(store), 3)

	if entries[0].PrevHash != sha(zeroHash, zeroHash, "HEALTH_NO_OFFSHORE", "BLOCK", entries[0].Timestamp) {
		t.Error("genesis entry did not chain from the zero hash")
	}
	for i := 1; i < len(entries); i++ {
		want := sha(entries[i-1].PrevHash, entries[i-1].PayloadHash,
			entries[i].RuleID, entries[i].Effect, entries[i].Timestamp)
		if entries[i].PrevHash != want {
			t.Errorf("entry %d prev_hash = %s; want %s", i, entries[i].PrevHash, want)
		}
	}
	for i, entry := range entries {
		if entry.Index != int64(i) {
			t.Errorf("entry %d has index %d", i, entry.Index)
		}
		if entry.MerkleLeaf != sha(entry.ID, entry.PayloadHash, entry.PrevHash) {
			t.Errorf("entry %d merkle_leaf does not match derivation", i)
		}
	}
}

// chainLengths records the ObserveAuditAppend observations.
type chainLengths []int64

func (c *chainLengths) ObserveAuditAppend(chainLength int64) {
	*c = append(*c, chainLength)
}

// TestLogDecision_FeedsMetrics tests that every committed append reports the
// new chain length to the metrics sink.
func TestLogDecision_FeedsMetrics(t *testing.T) {
	log := newTestLog(&chainStore{})
	var lengths chainLengths
	log.SetMetrics(&lengths)

	appendN(t, log, 3)

	if len(lengths) != 3 {
		t.Fatalf("observed %d appends; want 3", len(lengths))
	}
	for i, length := range lengths {
		if length != int64(i+1) {
			t.Errorf("append %d reported chain length %d; want %d", i, length, i+1)
		}
	}
}

// TestLogDecision_Redaction tests that only whitelisted fields survive and
// dropped fields leave hashes behind.
func TestLogDecision_Redaction(t *testing.T) {
	store := &chainStore{}
	log := newTestLog(store)

	entry, err := log.LogDecision(context.Background(),
		"", "PII_REDACT_ROUTE", "ROUTE", "",
		map[string]any{"data_class": "general", "message": "contains a secret", "contains_pii": true},
		[]string{"data_class", "contains_pii"},
	)
	if err != nil {
		t.Fatalf("LogDecision: %v", err)
	}

	if entry.RedactedPayload["data_class"] != "general" || entry.RedactedPayload["contains_pii"] != true {
		t.Errorf("whitelisted fields missing: %v", entry.RedactedPayload)
	}
	if _, leaked := entry.RedactedPayload["message"]; leaked {
		t.Error("non-whitelisted field retained in redacted payload")
	}
	if _, ok := entry.FieldsHashed["message"]; !ok {
		t.Error("dropped field not hashed")
	}
	if _, ok := entry.FieldsHashed["data_class"]; ok {
		t.Error("whitelisted field should not appear in fields_hashed")
	}
}

// TestPayloadHash_Canonical tests that key order never changes the hash and
// the salt always does.
func TestPayloadHash_Canonical(t *testing.T) {
	a := map[string]any{"b": 2, "a": map[string]any{"y": true, "x": "v"}}
	b := map[string]any{"a": map[string]any{"x": "v", "y": true}, "b": 2}

	h1, err := payloadHash(a, "salt")
	if err != nil {
		t.Fatalf("payloadHash: %v", err)
	}
	h2, err := payloadHash(b, "salt")
	if err != nil {
		t.Fatalf("payloadHash: %v", err)
	}
	if h1 != h2 {
		t.Error("key order changed the payload hash")
	}

	h3, err := payloadHash(a, "other-salt")
	if err != nil {
		t.Fatalf("payloadHash: %v", err)
	}
	if h1 == h3 {
		t.Error("salt did not change the payload hash")
	}
}

// TestVerifyIntegrity_CleanChain tests a pristine chain.
func TestVerifyIntegrity_CleanChain(t *testing.T) {
	store := &chainStore{}
	log := newTestLog(store)
	appendN(t, log, 5)

	report, err := log.VerifyIntegrity(context.Background())
	if err != nil {
		t.Fatalf("VerifyIntegrity: %v", err)
	}
	if !report.Valid || len(report.Errors) != 0 {
		t.Errorf("clean chain reported invalid: %+v", report)
	}
}

// TestVerifyIntegrity_TamperDetected tests that mutating a stored entry is
// caught at its index.
func TestVerifyIntegrity_TamperDetected(t *testing.T) {
	store := &chainStore{}
	log := newTestLog(store)
	appendN(t, log, 3)

	store.entries[2].PayloadHash = strings.Repeat("ab", 32)

	report, err := log.VerifyIntegrity(context.Background())
	if err != nil {
		t.Fatalf("VerifyIntegrity: %v", err)
	}
	if report.Valid {
		t.Fatal("tampered chain reported valid")
	}
	found := false
	for _, msg := range report.Errors {
		if strings.Contains(msg, "index 2") {
			found = true
		}
	}
	if !found {
		t.Errorf("errors %v do not point at index 2", report.Errors)
	}
}

// TestGetLatestProof tests root computation and cache invalidation on
// append.
func TestGetLatestProof(t *testing.T) {
	store := &chainStore{}
	log := newTestLog(store)

	if _, err := log.GetLatestProof(context.Background()); err != ErrEmptyLog {
		t.Fatalf("empty log proof err = %v; want ErrEmptyLog", err)
	}

	appendN(t, log, 3)
	proof, err := log.GetLatestProof(context.Background())
	if err != nil {
		t.Fatalf("GetLatestProof: %v", err)
	}
	if proof.LastIndex != 2 || proof.Height != 3 {
		t.Errorf("proof = %+v; want last_index 2, height 3", proof)
	}

	// Re-derive the three-leaf root: the odd leaf is duplicated.
	l := store.entries
	left := sha(l[0].MerkleLeaf, l[1].MerkleLeaf)
	right := sha(l[2].MerkleLeaf, l[2].MerkleLeaf)
	if proof.MerkleRoot != sha(left, right) {
		t.Error("merkle root does not match manual derivation")
	}

	again, err := log.GetLatestProof(context.Background())
	if err != nil {
		t.Fatalf("GetLatestProof: %v", err)
	}
	if again != proof {
		t.Error("unchanged log should serve the cached proof")
	}

	appendN(t, log, 1)
	fresh, err := log.GetLatestProof(context.Background())
	if err != nil {
		t.Fatalf("GetLatestProof: %v", err)
	}
	if fresh.LastIndex != 3 || fresh.MerkleRoot == proof.MerkleRoot {
		t.Errorf("append did not invalidate the cached proof: %+v", fresh)
	}
}

// TestLogDecision_CancelledContext tests that an expired deadline never
// writes a partial entry.
func TestLogDecision_CancelledContext(t *testing.T) {
	store := &chainStore{}
	log := newTestLog(store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := log.LogDecision(ctx, "", "R1", "ALLOW", "", map[string]any{"k": "v"}, nil)
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if len(store.entries) != 0 {
		t.Error("cancelled append left a chain entry behind")
	}
}

// TestLogDecision_ResumesAcrossRestart tests that a new Log over an
// existing store continues the chain instead of restarting it.
func TestLogDecision_ResumesAcrossRestart(t *testing.T) {
	store := &chainStore{}
	first := newTestLog(store)
	appendN(t, first, 2)

	second := newTestLog(store)
	appendN(t, second, 1)

	if store.entries[2].Index != 2 {
		t.Errorf("resumed entry index = %d; want 2", store.entries[2].Index)
	}
	report, err := second.VerifyIntegrity(context.Background())
	if err != nil {
		t.Fatalf("VerifyIntegrity: %v", err)
	}
	if !report.Valid {
		t.Errorf("chain broken across restart: %+v", report)
	}
}

func TestMerkleRoot(t *testing.T) {
	tests := []struct {
		name       string
		leafCount  int
		wantHeight int
	}{
		{"empty", 0, 0},
		{"single leaf", 1, 1},
		{"two leaves", 2, 2},
		{"three leaves", 3, 3},
		{"four leaves", 4, 3},
		{"five leaves", 5, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			leaves := make([]string, tt.leafCount)
			for i := range leaves {
				leaves[i] = sha("leaf", string(rune('a'+i)))
			}
			_, height := merkleRoot(leaves)
			if height != tt.wantHeight {
				t.Errorf("height = %d; want %d", height, tt.wantHeight)
			}
		})
	}

	root2, _ := merkleRoot([]string{sha("a"), sha("b")})
	if root2 != sha(sha("a"), sha("b")) {
		t.Error("two-leaf root does not match direct derivation")
	}
}
