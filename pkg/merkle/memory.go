package merkle

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// MemoryStorer keeps nodes in process memory.
type MemoryStorer struct {
	mu    sync.RWMutex
	nodes map[string]*Node
	now   func() time.Time
}

var _ Storer = (*MemoryStorer)(nil)

// NewMemoryStorer creates an empty in-memory store.
func NewMemoryStorer() *MemoryStorer {
	return &MemoryStorer{
		nodes: make(map[string]*Node),
		now:   time.Now,
	}
}

func (s *MemoryStorer) Put(_ context.Context, node *Node) (bool, error) {
	if node == nil {
		return false, errors.New("cannot store nil node")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[node.Hash]; ok {
		return false, nil
	}
	stored := *node
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = s.now().UTC()
	}
	s.nodes[node.Hash] = &stored
	return true, nil
}

func (s *MemoryStorer) Get(_ context.Context, hash string) (*Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.nodes[hash]
	if !ok {
		return nil, ErrNotFound{Hash: hash}
	}
	cp := *node
	return &cp, nil
}

func (s *MemoryStorer) Has(_ context.Context, hash string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.nodes[hash]
	return ok, nil
}

func (s *MemoryStorer) Children(_ context.Context, parentHash string) ([]*Node, error) {
	return s.filter(func(n *Node) bool {
		return n.ParentHash != nil && *n.ParentHash == parentHash
	}), nil
}

func (s *MemoryStorer) List(_ context.Context) ([]*Node, error) {
	return s.filter(func(*Node) bool { return true }), nil
}

func (s *MemoryStorer) Leaves(_ context.Context) ([]*Node, error) {
	s.mu.RLock()
	parents := make(map[string]bool, len(s.nodes))
	for _, n := range s.nodes {
		if n.ParentHash != nil {
			parents[*n.ParentHash] = true
		}
	}
	s.mu.RUnlock()

	return s.filter(func(n *Node) bool { return !parents[n.Hash] }), nil
}

func (s *MemoryStorer) Ancestry(ctx context.Context, hash string) ([]*Node, error) {
	return ancestry(ctx, s, hash)
}

func (s *MemoryStorer) Close() error { return nil }

// filter returns copies of matching nodes, newest first.
func (s *MemoryStorer) filter(keep func(*Node) bool) []*Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		if keep(n) {
			cp := *n
			out = append(out, &cp)
		}
	}
	sortNewestFirst(out)
	return out
}

func sortNewestFirst(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if !nodes[i].CreatedAt.Equal(nodes[j].CreatedAt) {
			return nodes[i].CreatedAt.After(nodes[j].CreatedAt)
		}
		return nodes[i].Hash < nodes[j].Hash
	})
}
