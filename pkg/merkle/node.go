// Package merkle fingerprints conversations as chains of content-addressed
// nodes. Identical histories always produce identical head hashes, so the
// head hash can correlate requests without storing anything.
package merkle

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/malvinraqin/portfolio/pkg/llm"
)

// Node is one turn of a conversation, addressed by the SHA-256 of the turn
// and the hash of the turn before it.
type Node struct {
	Hash string `json:"hash"`

	// ParentHash is nil for the first turn.
	ParentHash *string `json:"parent_hash"`

	Content llm.Message `json:"content"`
}

// hashInput is the canonical encoding a node hash is taken over. Field
// order is fixed by the struct, so equal turns always encode equally.
type hashInput struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Parent  string `json:"parent,omitempty"`
}

// NewNode hashes turn under parent, which may be nil.
func NewNode(turn llm.Message, parent *Node) *Node {
	n := &Node{Content: turn}
	if parent != nil {
		n.ParentHash = &parent.Hash
	}
	n.Hash = hashOf(n)

	return n
}

// hashOf encodes a struct of plain strings, which json.Marshal cannot fail
// on, so its error is ignored.
func hashOf(n *Node) string {
	in := hashInput{Role: n.Content.Role, Content: n.Content.Content}
	if n.ParentHash != nil {
		in.Parent = *n.ParentHash
	}

	data, _ := json.Marshal(in)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
