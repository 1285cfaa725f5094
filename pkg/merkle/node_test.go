package merkle_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/studyguide/pkg/guide"
	"github.com/papercomputeco/studyguide/pkg/merkle"
)

func notesBucket(text string) merkle.Bucket {
	return merkle.Bucket{Type: merkle.TypeNotes, Source: merkle.SourceText, Text: text}
}

func guideBucket(cheat string) merkle.Bucket {
	return merkle.Bucket{
		Type:  merkle.TypeGuide,
		Model: "test-model",
		Guide: &guide.StudyGuide{
			KeyConcepts:  []string{"Entropy"},
			Explanations: map[string]string{"Entropy": "Disorder."},
			CheatSheet:   cheat,
		},
	}
}

var _ = Describe("Node", func() {
	Describe("NewNode", func() {
		Context("when creating a notes node (no parent)", func() {
			It("keeps the bucket", func() {
				node := merkle.NewNode(notesBucket("hello world"), nil)

				Expect(node.Bucket.Text).To(Equal("hello world"))
				Expect(node.ParentHash).To(BeNil())
			})

			It("produces consistent hashes for the same notes", func() {
				node1 := merkle.NewNode(notesBucket("same notes"), nil)
				node2 := merkle.NewNode(notesBucket("same notes"), nil)

				Expect(node1.Hash).To(Equal(node2.Hash))
			})

			It("produces different hashes for different notes", func() {
				node1 := merkle.NewNode(notesBucket("notes A"), nil)
				node2 := merkle.NewNode(notesBucket("notes B"), nil)

				Expect(node1.Hash).NotTo(Equal(node2.Hash))
			})

			It("distinguishes pasted text from an uploaded PDF with the same text", func() {
				pasted := merkle.NewNode(notesBucket("same"), nil)
				uploaded := merkle.NewNode(merkle.Bucket{Type: merkle.TypeNotes, Source: merkle.SourcePDF, Filename: "l1.pdf", Text: "same"}, nil)

				Expect(pasted.Hash).NotTo(Equal(uploaded.Hash))
			})
		})

		Context("when creating a guide node", func() {
			var notes *merkle.Node

			BeforeEach(func() {
				notes = merkle.NewNode(notesBucket("lecture 1"), nil)
			})

			It("links the guide to its notes via ParentHash", func() {
				g := merkle.NewNode(guideBucket("dS >= 0"), notes)

				Expect(g.ParentHash).NotTo(BeNil())
				Expect(*g.ParentHash).To(Equal(notes.Hash))
			})

			It("hashes the same guide identically regardless of map order", func() {
				a := guideBucket("x")
				a.Guide.Explanations = map[string]string{"A": "1", "B": "2", "C": "3"}
				b := guideBucket("x")
				b.Guide.Explanations = map[string]string{"C": "3", "B": "2", "A": "1"}

				Expect(merkle.NewNode(a, notes).Hash).To(Equal(merkle.NewNode(b, notes).Hash))
			})

			It("produces different hashes for the same guide under different notes", func() {
				other := merkle.NewNode(notesBucket("lecture 2"), nil)

				Expect(merkle.NewNode(guideBucket("x"), notes).Hash).
					NotTo(Equal(merkle.NewNode(guideBucket("x"), other).Hash))
			})
		})
	})

	Describe("Hash computation", func() {
		It("produces a valid SHA-256 hex string (64 characters)", func() {
			node := merkle.NewNode(notesBucket("test"), nil)

			Expect(node.Hash).To(HaveLen(64))
			Expect(node.Hash).To(MatchRegexp("^[a-f0-9]{64}$"))
		})
	})

	Describe("WellFormed", func() {
		It("accepts a notes root and its guide", func() {
			notes := merkle.NewNode(notesBucket("n"), nil)
			Expect(notes.WellFormed()).To(BeTrue())
			Expect(merkle.NewNode(guideBucket("g"), notes).WellFormed()).To(BeTrue())
		})

		It("rejects nodes that sit in the wrong place", func() {
			notes := merkle.NewNode(notesBucket("n"), nil)
			Expect(merkle.NewNode(guideBucket("g"), nil).WellFormed()).To(BeFalse())
			Expect(merkle.NewNode(notesBucket("nested"), notes).WellFormed()).To(BeFalse())
			Expect(merkle.NewNode(merkle.Bucket{Type: "slides"}, nil).WellFormed()).To(BeFalse())
		})

		It("rejects tampered nodes", func() {
			notes := merkle.NewNode(notesBucket("n"), nil)
			notes.Bucket.Text = "edited"
			Expect(notes.WellFormed()).To(BeFalse())
		})
	})
})
