package audit

import "time"

// ISO timestamp layout used in chain hashing and storage.
const timestampLayout = time.RFC3339Nano

// Entry is one committed audit record. All hash fields are lowercase hex.
type Entry struct {
	// Index is the monotonic append position, starting at 0.
	Index int64 `json:"index"`

	// ID is the entry's unique identifier.
	ID string `json:"id"`

	// Timestamp is the append time in RFC 3339 form. It participates in
	// the chain hash, so it is stored verbatim.
	Timestamp string `json:"timestamp"`

	OrgID   string `json:"org_id,omitempty"`
	RuleID  string `json:"rule_id"`
	Effect  string `json:"effect"`
	ActorID string `json:"actor_id,omitempty"`

	// RedactedPayload keeps only the whitelisted payload fields.
	RedactedPayload map[string]any `json:"redacted_payload"`

	// FieldsHashed maps each dropped field name to the SHA-256 of its
	// serialized value, so redaction loses no evidentiary weight.
	FieldsHashed map[string]string `json:"fields_hashed,omitempty"`

	// PayloadHash is the salted SHA-256 of the canonical payload.
	PayloadHash string `json:"payload_hash"`

	// PrevHash links this entry to its predecessor.
	PrevHash string `json:"prev_hash"`

	// MerkleLeaf is this entry's leaf in the proof tree.
	MerkleLeaf string `json:"merkle_leaf"`
}

// Filter narrows a log listing. Zero values place no restriction.
type Filter struct {
	From   time.Time
	To     time.Time
	OrgID  string
	RuleID string
	Effect string
	Limit  int
	Offset int
}

// Proof is the compact state of the whole log.
type Proof struct {
	MerkleRoot string `json:"merkle_root"`
	Height     int    `json:"height"`
	LastIndex  int64  `json:"last_index"`
}

// IntegrityReport is the outcome of a full chain verification.
type IntegrityReport struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}
