package watchcmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/studyguide/cmd/studyguide/cmdutil"
	"github.com/papercomputeco/studyguide/pkg/merkle"
	"github.com/papercomputeco/studyguide/pkg/watch"
)

const watchLongDesc string = `Watch a directory and write a study guide for every notes file.

Each PDF, .txt or .md file created or saved in the directory gets a
<name>.guide.md written beside it. Guides are also recorded in the
history database unless --no-history is set.

Examples:
  studyguide watch ~/lectures
  studyguide watch --existing --debounce 2s ./notes`

const watchShortDesc string = "Generate guides for notes dropped into a directory"

type watchCommander struct {
	existing  bool
	debounce  time.Duration
	dbPath    string
	noHistory bool

	newGenerator cmdutil.GeneratorFactory
}

func NewWatchCmd() *cobra.Command {
	cmder := &watchCommander{newGenerator: cmdutil.NewGenerator}

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: watchShortDesc,
		Long:  watchLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args[0])
		},
	}

	cmd.Flags().BoolVar(&cmder.existing, "existing", false, "Also process notes already in the directory that have no guide")
	cmd.Flags().DurationVar(&cmder.debounce, "debounce", watch.DefaultDebounce, "Quiet period before a changed file is processed")
	cmd.Flags().StringVar(&cmder.dbPath, "db", "", "Path to SQLite history database")
	cmd.Flags().BoolVar(&cmder.noHistory, "no-history", false, "Do not record guides in history")

	return cmd
}

func (c *watchCommander) run(ctx context.Context, cmd *cobra.Command, dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("could not watch %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("could not watch %s: not a directory", dir)
	}

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

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	w := watch.New(gen, nil, storer, log, c.debounce)
	return w.Run(ctx, dir, c.existing)
}
