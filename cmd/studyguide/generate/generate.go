package generatecmder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/studyguide/cmd/studyguide/cmdutil"
	"github.com/papercomputeco/studyguide/pkg/config"
	"github.com/papercomputeco/studyguide/pkg/guide"
	"github.com/papercomputeco/studyguide/pkg/merkle"
	"github.com/papercomputeco/studyguide/pkg/notes"
	"github.com/papercomputeco/studyguide/pkg/tui"
)

const generateLongDesc string = `Generate a study guide from lecture notes.

Notes are read from a PDF, a text or Markdown file, or stdin when no
file (or "-") is given. The guide is printed as rendered Markdown, or
as JSON with --json, and recorded in the history database.

Examples:
  studyguide generate lecture3.pdf
  studyguide generate --json notes.md > guide.json
  pbpaste | studyguide generate`

const generateShortDesc string = "Generate a study guide from notes"

type generateCommander struct {
	json      bool
	dbPath    string
	noHistory bool

	newGenerator cmdutil.GeneratorFactory
}

func NewGenerateCmd() *cobra.Command {
	cmder := &generateCommander{newGenerator: cmdutil.NewGenerator}

	cmd := &cobra.Command{
		Use:   "generate [file]",
		Short: generateShortDesc,
		Long:  generateLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args)
		},
	}

	cmd.Flags().BoolVar(&cmder.json, "json", false, "Print the guide as JSON")
	cmd.Flags().StringVar(&cmder.dbPath, "db", "", "Path to SQLite history database")
	cmd.Flags().BoolVar(&cmder.noHistory, "no-history", false, "Do not record the guide in history")

	return cmd
}

func (c *generateCommander) run(ctx context.Context, cmd *cobra.Command, args []string) error {
	cfg, err := cmdutil.LoadConfig(cmd)
	if err != nil {
		return err
	}
	log := cmdutil.Logger(cfg)
	defer log.Sync()

	var bucket merkle.Bucket
	if len(args) == 1 && args[0] != "-" {
		bucket, err = notes.ReadFile(args[0], nil)
	} else {
		bucket, err = notes.Read(cmd.InOrStdin())
	}
	if err != nil {
		return fmt.Errorf("could not read notes: %w", err)
	}

	gen, err := c.newGenerator(ctx, cfg, log)
	if err != nil {
		return err
	}

	work := func() (*guide.Result, error) {
		return gen.Generate(ctx, bucket.Text)
	}
	var res *guide.Result
	if tui.IsTerminal(os.Stderr) && !cfg.Debug {
		res, err = tui.Spin(ctx, os.Stderr, "Generating study guide...", work)
	} else {
		res, err = work()
	}
	if errors.Is(err, guide.ErrEmptyNotes) {
		return errors.New("no text found in notes")
	}
	if err != nil {
		return fmt.Errorf("could not generate study guide: %w", err)
	}

	hash := ""
	if !c.noHistory {
		hash = c.record(ctx, cfg, log, bucket, res)
	}

	out := cmd.OutOrStdout()
	if c.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res.Guide)
	}
	return render(out, res, bucket, hash)
}

// record stores the guide in history. Failures are logged, not returned.
func (c *generateCommander) record(ctx context.Context, cfg config.Config, log *zap.Logger, bucket merkle.Bucket, res *guide.Result) string {
	storer, path, err := cmdutil.OpenHistory(c.dbPath, cfg)
	if err != nil {
		log.Warn("history unavailable", zap.Error(err))
		return ""
	}
	defer storer.Close()

	node, err := merkle.Record(ctx, storer, bucket, res.Model, res.Guide)
	if err != nil {
		log.Warn("failed to record guide", zap.String("db", path), zap.Error(err))
		return ""
	}
	log.Debug("guide recorded", zap.String("db", path), zap.String("hash", node.Hash))
	return node.Hash
}

func render(out io.Writer, res *guide.Result, bucket merkle.Bucket, hash string) error {
	f, _ := out.(*os.File)
	r := tui.NewRenderer(tui.IsTerminal(f), tui.Width(f))

	header := "Study guide"
	if bucket.Filename != "" {
		header += " for " + bucket.Filename
	}
	if res.Model != "" {
		header += " · " + res.Model
	}
	if len(hash) >= 12 {
		header += " · " + hash[:12]
	}

	s, err := r.Guide(res.Guide, header)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, s)
	return err
}
