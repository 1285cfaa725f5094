package merkle

import "context"

// Storer persists and retrieves nodes. Put is idempotent: identical content
// with an identical parent hashes the same and is stored once.
// Implementations are safe for concurrent use.
type Storer interface {
	// Put stores a node. If the node already exists (by hash), this is a
	// no-op and the stored CreatedAt is kept. It reports whether the node was new.
	Put(ctx context.Context, node *Node) (bool, error)

	// Get retrieves a node by its hash. Returns ErrNotFound if the node doesn't exist.
	Get(ctx context.Context, hash string) (*Node, error)

	// Has checks if a node exists by its hash.
	Has(ctx context.Context, hash string) (bool, error)

	// Children retrieves all nodes that have the given parent hash.
	Children(ctx context.Context, parentHash string) ([]*Node, error)

	// List returns all nodes, newest first.
	List(ctx context.Context) ([]*Node, error)

	// Leaves returns all nodes with no children, newest first.
	Leaves(ctx context.Context) ([]*Node, error)

	// Ancestry returns the path from a node back to its root (node first, root last).
	Ancestry(ctx context.Context, hash string) ([]*Node, error)

	// Close closes the store and releases any resources.
	Close() error
}

// ErrNotFound is returned when a node doesn't exist in the store.
type ErrNotFound struct {
	Hash string
}

func (e ErrNotFound) Error() string {
	if e.Hash == "" {
		return "node not found"
	}

	return "node not found: " + e.Hash
}

func ancestry(ctx context.Context, s Storer, hash string) ([]*Node, error) {
	var path []*Node
	seen := make(map[string]bool)
	for {
		node, err := s.Get(ctx, hash)
		if err != nil {
			return nil, err
		}
		path = append(path, node)
		if node.ParentHash == nil || seen[node.Hash] {
			return path, nil
		}
		seen[node.Hash] = true
		hash = *node.ParentHash
	}
}
