package merkle

import (
	"context"
	"fmt"

	"github.com/papercomputeco/studyguide/pkg/guide"
)

// Record stores notes and the guide generated from them as a two-node chain.
// Re-recording identical notes reuses the existing notes node.
func Record(ctx context.Context, s Storer, notes Bucket, model string, g *guide.StudyGuide) (*Node, error) {
	notes.Type = TypeNotes
	notesNode := NewNode(notes, nil)
	if _, err := s.Put(ctx, notesNode); err != nil {
		return nil, fmt.Errorf("storing notes node: %w", err)
	}

	guideNode := NewNode(Bucket{Type: TypeGuide, Model: model, Guide: g}, notesNode)
	if _, err := s.Put(ctx, guideNode); err != nil {
		return nil, fmt.Errorf("storing guide node: %w", err)
	}
	return guideNode, nil
}

// Entry is a guide node joined with the notes it was generated from.
type Entry struct {
	Guide *Node
	Notes *Node
}

// Lookup returns the guide stored under hash along with its notes.
// Hashes of notes nodes, unknown hashes, and guides whose chain does not end
// in a notes node yield ErrNotFound.
func Lookup(ctx context.Context, s Storer, hash string) (*Entry, error) {
	path, err := s.Ancestry(ctx, hash)
	if err != nil {
		return nil, err
	}
	if len(path) < 2 || path[0].Bucket.Type != TypeGuide || path[len(path)-1].Bucket.Type != TypeNotes {
		return nil, ErrNotFound{Hash: hash}
	}
	return &Entry{Guide: path[0], Notes: path[len(path)-1]}, nil
}

// Guides lists every recorded guide, newest first. Guides whose notes can no
// longer be resolved are skipped.
func Guides(ctx context.Context, s Storer) ([]*Entry, error) {
	nodes, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	var entries []*Entry
	for _, n := range nodes {
		if n.Bucket.Type != TypeGuide {
			continue
		}
		e, err := Lookup(ctx, s, n.Hash)
		if err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}
