package mcpcmder

import (
	"context"
	"io"
	"path/filepath"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/studyguide/cmd/studyguide/cmdutil"
	"github.com/papercomputeco/studyguide/pkg/config"
	"github.com/papercomputeco/studyguide/pkg/guide"
	"github.com/papercomputeco/studyguide/pkg/mcptool"
	"github.com/papercomputeco/studyguide/pkg/merkle"
)

type fakeGenerator struct{}

func (fakeGenerator) Generate(_ context.Context, notes string) (*guide.Result, error) {
	return &guide.Result{
		Model: "fake-model",
		Guide: &guide.StudyGuide{KeyConcepts: []string{notes}, CheatSheet: "sheet"},
	}, nil
}

var _ = Describe("MCP Command", func() {
	It("answers tool calls and records the guides", func() {
		dbPath := filepath.Join(GinkgoT().TempDir(), "history.db")
		clientTransport, serverTransport := mcp.NewInMemoryTransports()

		cmder := &mcpCommander{
			dbPath:  dbPath,
			version: "test",
			newGenerator: func(context.Context, config.Config, *zap.Logger) (cmdutil.Generator, error) {
				return fakeGenerator{}, nil
			},
			transport: func(io.Reader, io.Writer) mcp.Transport { return serverTransport },
		}
		cmd := &cobra.Command{Use: "mcp", RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd)
		}}
		root := &cobra.Command{Use: "studyguide", SilenceUsage: true, SilenceErrors: true}
		cmdutil.AddPersistentFlags(root)
		root.AddCommand(cmd)
		root.SetArgs([]string{"mcp"})

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- root.ExecuteContext(ctx) }()

		client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
		cs, err := client.Connect(ctx, clientTransport, nil)
		Expect(err).NotTo(HaveOccurred())

		res, err := cs.CallTool(ctx, &mcp.CallToolParams{
			Name:      mcptool.ToolName,
			Arguments: map[string]any{"text": "orbital mechanics"},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.IsError).To(BeFalse())
		Expect(res.StructuredContent).To(HaveKeyWithValue("keyConcepts", ConsistOf("orbital mechanics")))

		Expect(cs.Close()).To(Succeed())
		cancel()
		Eventually(done, 3*time.Second).Should(Receive())

		storer, err := merkle.NewSQLiteStorer(dbPath)
		Expect(err).NotTo(HaveOccurred())
		defer storer.Close()
		entries, err := merkle.Guides(context.Background(), storer)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
	})
})
