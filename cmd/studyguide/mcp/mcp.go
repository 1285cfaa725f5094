package mcpcmder

import (
	"context"
	"io"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/studyguide/cmd/studyguide/cmdutil"
	"github.com/papercomputeco/studyguide/pkg/mcptool"
	"github.com/papercomputeco/studyguide/pkg/merkle"
)

const mcpLongDesc string = `Serve the study guide generator as an MCP tool over stdio.

Exposes one tool, generate_study_guide, taking {"text": "..."} and
returning the structured study guide. Point an MCP client at
"studyguide mcp" to use it. Logs go to stderr.`

const mcpShortDesc string = "Run an MCP server over stdio"

type mcpCommander struct {
	dbPath    string
	noHistory bool
	version   string

	newGenerator cmdutil.GeneratorFactory
	// transport defaults to stdio
	transport func(in io.Reader, out io.Writer) mcp.Transport
}

func NewMCPCmd(version string) *cobra.Command {
	cmder := &mcpCommander{
		version:      version,
		newGenerator: cmdutil.NewGenerator,
		transport:    ioTransport,
	}

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: mcpShortDesc,
		Long:  mcpLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmd.Flags().StringVar(&cmder.dbPath, "db", "", "Path to SQLite history database")
	cmd.Flags().BoolVar(&cmder.noHistory, "no-history", false, "Do not record guides in history")

	return cmd
}

func (c *mcpCommander) run(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := cmdutil.LoadConfig(cmd)
	if err != nil {
		return err
	}
	log := cmdutil.Logger(cfg)
	defer log.Sync()

	gen, err := c.newGenerator(ctx, cfg, log)
	if err != nil {
		return err
	}

	var storer merkle.Storer
	if !c.noHistory {
		s, path, err := cmdutil.OpenHistory(c.dbPath, cfg)
		if err != nil {
			return err
		}
		defer s.Close()
		storer = s
		log.Debug("recording guides", zap.String("db", path))
	}

	server := mcptool.NewServer(gen, storer, c.version, log)
	log.Info("mcp server starting", zap.String("tool", mcptool.ToolName))
	return server.Run(ctx, c.transport(cmd.InOrStdin(), cmd.OutOrStdout()))
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func ioTransport(in io.Reader, out io.Writer) mcp.Transport {
	return &mcp.IOTransport{
		Reader: io.NopCloser(in),
		Writer: nopWriteCloser{out},
	}
}
