package merkle_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/studyguide/pkg/merkle"
)

// storerBehaviour runs the Storer contract against an implementation.
func storerBehaviour(newStorer func() merkle.Storer) {
	var (
		storer merkle.Storer
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		storer = newStorer()
	})

	AfterEach(func() {
		Expect(storer.Close()).To(Succeed())
	})

	at := func(n *merkle.Node, minute int) *merkle.Node {
		n.CreatedAt = time.Date(2026, 1, 1, 12, minute, 0, 0, time.UTC)
		return n
	}

	Describe("Put and Get", func() {
		It("stores and retrieves a notes node", func() {
			node := merkle.NewNode(notesBucket("test content"), nil)

			isNew, err := storer.Put(ctx, node)
			Expect(err).NotTo(HaveOccurred())
			Expect(isNew).To(BeTrue())

			retrieved, err := storer.Get(ctx, node.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(retrieved.Hash).To(Equal(node.Hash))
			Expect(retrieved.Bucket.Text).To(Equal("test content"))
			Expect(retrieved.ParentHash).To(BeNil())
			Expect(retrieved.CreatedAt.IsZero()).To(BeFalse())
		})

		It("round-trips a guide node", func() {
			notes := merkle.NewNode(notesBucket("parent"), nil)
			g := merkle.NewNode(guideBucket("cheat"), notes)

			_, err := storer.Put(ctx, notes)
			Expect(err).NotTo(HaveOccurred())
			_, err = storer.Put(ctx, g)
			Expect(err).NotTo(HaveOccurred())

			retrieved, err := storer.Get(ctx, g.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(retrieved.ParentHash).NotTo(BeNil())
			Expect(*retrieved.ParentHash).To(Equal(notes.Hash))
			Expect(retrieved.Bucket.Model).To(Equal("test-model"))
			Expect(retrieved.Bucket.Guide).NotTo(BeNil())
			Expect(retrieved.Bucket.Guide.CheatSheet).To(Equal("cheat"))
			Expect(retrieved.Bucket.Guide.Explanations).To(HaveKeyWithValue("Entropy", "Disorder."))
		})

		It("returns ErrNotFound for non-existent hash", func() {
			_, err := storer.Get(ctx, "nonexistent")
			Expect(err).To(HaveOccurred())

			var notFoundErr merkle.ErrNotFound
			Expect(err).To(BeAssignableToTypeOf(notFoundErr))
		})

		It("is idempotent for duplicate puts and keeps the first timestamp", func() {
			first := at(merkle.NewNode(notesBucket("test"), nil), 1)
			again := at(merkle.NewNode(notesBucket("test"), nil), 5)

			_, err := storer.Put(ctx, first)
			Expect(err).NotTo(HaveOccurred())
			isNew, err := storer.Put(ctx, again)
			Expect(err).NotTo(HaveOccurred())
			Expect(isNew).To(BeFalse())

			nodes, err := storer.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(nodes).To(HaveLen(1))
			Expect(nodes[0].CreatedAt.Equal(first.CreatedAt)).To(BeTrue())
		})

		It("rejects nil nodes", func() {
			_, err := storer.Put(ctx, nil)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("nil node"))
		})

		It("stores large notes", func() {
			node := merkle.NewNode(notesBucket(strings.Repeat("mitochondria ", 50000)), nil)
			_, err := storer.Put(ctx, node)
			Expect(err).NotTo(HaveOccurred())

			retrieved, err := storer.Get(ctx, node.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(retrieved.Bucket.Text).To(Equal(node.Bucket.Text))
		})
	})

	Describe("Has", func() {
		It("reports existing and missing nodes", func() {
			node := merkle.NewNode(notesBucket("test"), nil)
			_, _ = storer.Put(ctx, node)

			exists, err := storer.Has(ctx, node.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeTrue())

			exists, err = storer.Has(ctx, "nonexistent")
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeFalse())
		})
	})

	Describe("Children and Leaves", func() {
		It("branches regenerated guides from the same notes", func() {
			notes := at(merkle.NewNode(notesBucket("lecture"), nil), 0)
			g1 := at(merkle.NewNode(guideBucket("first"), notes), 1)
			g2 := at(merkle.NewNode(guideBucket("second"), notes), 2)
			lone := at(merkle.NewNode(notesBucket("never generated"), nil), 3)

			for _, n := range []*merkle.Node{notes, g1, g2, lone} {
				_, err := storer.Put(ctx, n)
				Expect(err).NotTo(HaveOccurred())
			}

			children, err := storer.Children(ctx, notes.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(children).To(HaveLen(2))
			Expect(children[0].Hash).To(Equal(g2.Hash))

			leaves, err := storer.Leaves(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(leaves).To(HaveLen(3))
			Expect(leaves[0].Hash).To(Equal(lone.Hash))
			Expect(leaves[1].Hash).To(Equal(g2.Hash))
			Expect(leaves[2].Hash).To(Equal(g1.Hash))
		})

		It("returns empty slices for an empty store", func() {
			nodes, err := storer.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(nodes).To(BeEmpty())

			leaves, err := storer.Leaves(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(leaves).To(BeEmpty())
		})
	})

	Describe("Ancestry", func() {
		It("returns path from guide to notes", func() {
			notes := merkle.NewNode(notesBucket("root"), nil)
			g := merkle.NewNode(guideBucket("child"), notes)
			_, _ = storer.Put(ctx, notes)
			_, _ = storer.Put(ctx, g)

			path, err := storer.Ancestry(ctx, g.Hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(HaveLen(2))
			Expect(path[0].Bucket.Type).To(Equal(merkle.TypeGuide))
			Expect(path[1].Bucket.Type).To(Equal(merkle.TypeNotes))
		})

		It("fails when the node is unknown", func() {
			_, err := storer.Ancestry(ctx, "missing")
			Expect(err).To(BeAssignableToTypeOf(merkle.ErrNotFound{}))
		})
	})
}

var _ = Describe("MemoryStorer", func() {
	storerBehaviour(func() merkle.Storer { return merkle.NewMemoryStorer() })
})

var _ = Describe("SQLiteStorer", func() {
	storerBehaviour(func() merkle.Storer {
		s, err := merkle.NewSQLiteStorer(":memory:")
		Expect(err).NotTo(HaveOccurred())
		return s
	})

	It("creates a storer with file database that survives reopening", func() {
		ctx := context.Background()
		dbPath := filepath.Join(GinkgoT().TempDir(), "test.db")

		s, err := merkle.NewSQLiteStorer(dbPath)
		Expect(err).NotTo(HaveOccurred())
		node := merkle.NewNode(notesBucket("persisted"), nil)
		_, err = s.Put(ctx, node)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Close()).To(Succeed())

		_, err = os.Stat(dbPath)
		Expect(err).NotTo(HaveOccurred())

		s, err = merkle.NewSQLiteStorer(dbPath)
		Expect(err).NotTo(HaveOccurred())
		defer s.Close()
		ok, err := s.Has(ctx, node.Hash)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
	})
})
