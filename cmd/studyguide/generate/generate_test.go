package generatecmder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/studyguide/cmd/studyguide/cmdutil"
	"github.com/papercomputeco/studyguide/pkg/config"
	"github.com/papercomputeco/studyguide/pkg/guide"
	"github.com/papercomputeco/studyguide/pkg/merkle"
)

type fakeGenerator struct {
	notes string
	err   error
}

func (f *fakeGenerator) Generate(ctx context.Context, notes string) (*guide.Result, error) {
	f.notes = notes
	if f.err != nil {
		return nil, f.err
	}
	if strings.TrimSpace(notes) == "" {
		return nil, guide.ErrEmptyNotes
	}
	return &guide.Result{
		Model: "fake-model",
		Guide: &guide.StudyGuide{
			KeyConcepts:       []string{"Supply", "Demand"},
			Explanations:      map[string]string{"Supply": "What sellers offer.", "Demand": "What buyers want."},
			PracticeQuestions: []guide.QA{{Question: "What sets the price?", Answer: "Supply meets demand."}},
			CheatSheet:        "P* where S = D",
		},
	}, nil
}

var _ = Describe("Generate Command", func() {
	var (
		tmpDir     string
		configPath string
		dbPath     string
		gen        *fakeGenerator
		out        *bytes.Buffer
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		configPath = filepath.Join(tmpDir, "config.toml")
		dbPath = filepath.Join(tmpDir, "history.db")
		Expect(os.WriteFile(configPath, []byte("[llm]\nmodel = \"gpt-4o-mini\"\n"), 0o644)).To(Succeed())
		gen = &fakeGenerator{}
		out = &bytes.Buffer{}
	})

	execute := func(stdin string, args ...string) error {
		cmder := &generateCommander{
			newGenerator: func(context.Context, config.Config, *zap.Logger) (cmdutil.Generator, error) {
				return gen, nil
			},
		}
		cmd := &cobra.Command{
			Use:  "generate [file]",
			Args: cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return cmder.run(cmd.Context(), cmd, args)
			},
		}
		cmd.Flags().BoolVar(&cmder.json, "json", false, "")
		cmd.Flags().StringVar(&cmder.dbPath, "db", "", "")
		cmd.Flags().BoolVar(&cmder.noHistory, "no-history", false, "")

		root := &cobra.Command{Use: "studyguide", SilenceUsage: true, SilenceErrors: true}
		cmdutil.AddPersistentFlags(root)
		root.AddCommand(cmd)
		root.SetIn(strings.NewReader(stdin))
		root.SetOut(out)
		root.SetArgs(append([]string{"generate", "--config", configPath}, args...))
		return root.Execute()
	}

	It("reads notes from stdin and prints rendered markdown", func() {
		Expect(execute("market notes", "--db", dbPath)).To(Succeed())

		Expect(gen.notes).To(Equal("market notes"))
		Expect(out.String()).To(HavePrefix("Study guide · fake-model · "))
		Expect(out.String()).To(ContainSubstring("Supply"))
		Expect(out.String()).To(ContainSubstring("What sets the price?"))
	})

	It("reads notes from a file and prints JSON", func() {
		path := filepath.Join(tmpDir, "econ.md")
		Expect(os.WriteFile(path, []byte("# Econ 101"), 0o644)).To(Succeed())

		Expect(execute("", "--json", "--no-history", path)).To(Succeed())
		Expect(gen.notes).To(Equal("# Econ 101"))

		var sg guide.StudyGuide
		Expect(json.Unmarshal(out.Bytes(), &sg)).To(Succeed())
		Expect(sg.KeyConcepts).To(Equal([]string{"Supply", "Demand"}))
		Expect(filepath.Join(tmpDir, "history.db")).NotTo(BeAnExistingFile())
	})

	It("records the guide in history", func() {
		Expect(execute("notes to keep", "--db", dbPath, "--json")).To(Succeed())

		storer, err := merkle.NewSQLiteStorer(dbPath)
		Expect(err).NotTo(HaveOccurred())
		defer storer.Close()

		entries, err := merkle.Guides(context.Background(), storer)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].Notes.Bucket.Text).To(Equal("notes to keep"))
		Expect(entries[0].Guide.Bucket.Model).To(Equal("fake-model"))
	})

	It("rejects blank notes", func() {
		err := execute("   \n", "--no-history")
		Expect(err).To(MatchError("no text found in notes"))
	})

	It("rejects unsupported files", func() {
		path := filepath.Join(tmpDir, "slides.pptx")
		Expect(os.WriteFile(path, []byte("x"), 0o644)).To(Succeed())

		err := execute("", "--no-history", path)
		Expect(err).To(MatchError(ContainSubstring("unsupported notes file")))
	})

	It("surfaces generation failures", func() {
		gen.err = errors.New("model unavailable")

		err := execute("notes", "--no-history")
		Expect(err).To(MatchError(ContainSubstring("model unavailable")))
	})
})
