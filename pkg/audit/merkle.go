package audit

import (
	"crypto/sha256"
	"encoding/hex"
)

// merkleRoot computes a standard bottom-up binary Merkle tree over the
// leaves, duplicating the last node at odd levels. It returns the root and
// the tree height counted in levels including the leaves. An empty leaf set
// yields the zero hash at height 0.
func merkleRoot(leaves []string) (string, int) {
	if len(leaves) == 0 {
		return zeroHash, 0
	}

	level := make([]string, len(leaves))
	copy(level, leaves)

	height := 1
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]string, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			sum := sha256.Sum256([]byte(level[i] + level[i+1]))
			next = append(next, hex.EncodeToString(sum[:]))
		}
		level = next
		height++
	}
	return level[0], height
}
