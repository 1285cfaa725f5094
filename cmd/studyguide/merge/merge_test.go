package mergecmder

import (
	"bytes"
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/studyguide/cmd/studyguide/cmdutil"
	"github.com/papercomputeco/studyguide/pkg/guide"
	"github.com/papercomputeco/studyguide/pkg/merkle"
)

var _ = Describe("Merge Command", func() {
	var (
		ctx     context.Context
		tmpDir  string
		srcPath string
		dstPath string
		out     *bytes.Buffer
	)

	BeforeEach(func() {
		ctx = context.Background()
		tmpDir = GinkgoT().TempDir()
		srcPath = filepath.Join(tmpDir, "source.db")
		dstPath = filepath.Join(tmpDir, "target.db")
		out = &bytes.Buffer{}
	})

	seed := func(path string, texts ...string) {
		s, err := merkle.NewSQLiteStorer(path)
		Expect(err).NotTo(HaveOccurred())
		defer s.Close()
		for _, text := range texts {
			_, err := merkle.Record(ctx, s,
				merkle.Bucket{Source: merkle.SourceText, Text: text},
				"test-model",
				&guide.StudyGuide{KeyConcepts: []string{text}},
			)
			Expect(err).NotTo(HaveOccurred())
		}
	}

	execute := func(args ...string) error {
		root := &cobra.Command{Use: "studyguide", SilenceUsage: true, SilenceErrors: true}
		cmdutil.AddPersistentFlags(root)
		root.AddCommand(NewMergeCmd())
		root.SetOut(out)
		root.SetArgs(append([]string{"merge", "--db", dstPath}, args...))
		return root.Execute()
	}

	It("merges nodes from source into target", func() {
		seed(srcPath, "lecture 1")

		Expect(execute(srcPath)).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Merged 2 new nodes from 1 sources (0 already existed)"))

		target, err := merkle.NewSQLiteStorer(dstPath)
		Expect(err).NotTo(HaveOccurred())
		defer target.Close()
		entries, err := merkle.Guides(ctx, target)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].Notes.Bucket.Text).To(Equal("lecture 1"))
	})

	It("dedupes nodes already in the target", func() {
		seed(srcPath, "shared", "only in source")
		seed(dstPath, "shared")

		Expect(execute(srcPath)).To(Succeed())
		Expect(out.String()).To(ContainSubstring("2 new, 2 already existed"))
	})

	It("merges several sources", func() {
		other := filepath.Join(tmpDir, "other.db")
		seed(srcPath, "a")
		seed(other, "b")

		Expect(execute(srcPath, other)).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Merged 4 new nodes from 2 sources"))
	})

	It("fails for an unreadable source", func() {
		err := execute(filepath.Join(tmpDir, "missing", "nope.db"))
		Expect(err).To(MatchError(ContainSubstring("could not open source database")))
	})

	It("does not create a missing source", func() {
		src := filepath.Join(tmpDir, "typo.db")
		err := execute(src)
		Expect(err).To(MatchError(ContainSubstring("could not open source database")))
		Expect(src).NotTo(BeAnExistingFile())
	})
})
