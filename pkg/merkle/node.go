// Package merkle is a content-addressed store for generated study guides.
// Notes are root nodes; every guide generated from them is a child node, so
// identical notes deduplicate and regenerations branch from the same root.
package merkle

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/papercomputeco/studyguide/pkg/guide"
)

// Bucket types.
const (
	TypeNotes = "notes"
	TypeGuide = "guide"
)

// Note sources.
const (
	SourceText = "text"
	SourcePDF  = "pdf"
)

// Bucket is the hashable content of a node.
type Bucket struct {
	Type string `json:"type"`

	// Notes nodes
	Source   string `json:"source,omitempty"`
	Filename string `json:"filename,omitempty"`
	Text     string `json:"text,omitempty"`

	// Guide nodes
	Model string            `json:"model,omitempty"`
	Guide *guide.StudyGuide `json:"guide,omitempty"`
}

// Node represents a single content-addressed node in a Merkle DAG
type Node struct {
	// Hash is the content-addressed identifier (SHA-256, hex-encoded)
	Hash string `json:"hash"`

	// ParentHash links to the previous node hash.
	// This will be nil for root nodes.
	ParentHash *string `json:"parent_hash"`

	// Bucket is the hashable content for the node
	Bucket Bucket `json:"bucket"`

	// CreatedAt is when the node was first stored. Not part of the hash.
	CreatedAt time.Time `json:"created_at"`
}

// NewNode creates a new node with the computed hash for the provided content
func NewNode(bucket Bucket, parent *Node) *Node {
	n := &Node{
		Bucket: bucket,
	}

	if parent != nil {
		h := parent.Hash
		n.ParentHash = &h
	}

	n.Hash = n.computeHash()
	return n
}

type hashInput struct {
	Parent string `json:"parent,omitempty"`
	Bucket Bucket `json:"bucket"`
}

func (n *Node) computeHash() string {
	i := hashInput{Bucket: n.Bucket}
	if n.ParentHash != nil {
		i.Parent = *n.ParentHash
	}

	// Canonical JSON encoding for deterministic hashing
	data, err := json.Marshal(i)
	if err != nil {
		panic("failed to marshal hash input: " + err.Error())
	}

	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Verify reports whether the node's hash matches its content and parent.
func (n *Node) Verify() bool {
	return n.Hash != "" && n.Hash == n.computeHash()
}

// WellFormed reports whether the node verifies and sits where its type
// belongs in the history: notes are roots and guides have a parent.
func (n *Node) WellFormed() bool {
	if !n.Verify() {
		return false
	}
	switch n.Bucket.Type {
	case TypeNotes:
		return n.ParentHash == nil
	case TypeGuide:
		return n.ParentHash != nil && *n.ParentHash != ""
	default:
		return false
	}
}
