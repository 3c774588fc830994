package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gowebpki/jcs"
)

// zeroHash stands in for the predecessor of the first chain entry.
var zeroHash = strings.Repeat("0", 64)

// canonicalJSON serializes a payload to RFC 8785 canonical form: keys sorted
// recursively, numbers normalized. Chain hashes depend on this being
// byte-identical across processes.
func canonicalJSON(payload map[string]any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize payload: %w", err)
	}
	return canonical, nil
}

// payloadHash computes the salted hash of the canonical payload.
func payloadHash(payload map[string]any, salt string) (string, error) {
	canonical, err := canonicalJSON(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(append(canonical, []byte(salt)...))
	return hex.EncodeToString(sum[:]), nil
}

// chainHash derives an entry's prev_hash from its predecessor's hashes and
// the new entry's identifying fields.
func chainHash(prevPrevHash, prevPayloadHash, ruleID, effect, timestamp string) string {
	sum := sha256.Sum256([]byte(prevPrevHash + prevPayloadHash + ruleID + effect + timestamp))
	return hex.EncodeToString(sum[:])
}

// leafHash derives an entry's Merkle leaf.
func leafHash(id, payloadHash, prevHash string) string {
	sum := sha256.Sum256([]byte(id + payloadHash + prevHash))
	return hex.EncodeToString(sum[:])
}

// valueHash hashes one field's serialized value for FieldsHashed.
func valueHash(value any) (string, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("failed to serialize field: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}
