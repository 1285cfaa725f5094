package mergecmder

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/studyguide/cmd/studyguide/cmdutil"
	"github.com/papercomputeco/studyguide/pkg/merkle"
)

const mergeLongDesc string = `Merge one or more history databases into a target.

Content addressing makes this a simple union: notes and guides that
already exist in the target are skipped (deduped by hash).

Examples:
  studyguide merge laptop.db desktop.db
  studyguide merge --db /tmp/merged.db ~/alice/studyguide.db ~/bob/studyguide.db`

const mergeShortDesc string = "Merge history databases"

type mergeCommander struct {
	dbPath string
}

func NewMergeCmd() *cobra.Command {
	cmder := &mergeCommander{}

	cmd := &cobra.Command{
		Use:   "merge [sources...]",
		Short: mergeShortDesc,
		Long:  mergeLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args)
		},
	}

	cmd.Flags().StringVar(&cmder.dbPath, "db", "", "Path to target SQLite history database")

	return cmd
}

func (c *mergeCommander) run(ctx context.Context, cmd *cobra.Command, sources []string) error {
	cfg, err := cmdutil.LoadConfig(cmd)
	if err != nil {
		return err
	}

	target, targetPath, err := cmdutil.OpenHistory(c.dbPath, cfg)
	if err != nil {
		return err
	}
	defer target.Close()

	var totalNew, totalDuped int

	for _, srcPath := range sources {
		srcNew, srcDuped, err := mergeInto(ctx, target, srcPath)
		if err != nil {
			return err
		}
		totalNew += srcNew
		totalDuped += srcDuped

		fmt.Fprintf(cmd.OutOrStdout(), "  %s: %d new, %d already existed\n", srcPath, srcNew, srcDuped)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Merged %d new nodes from %d sources (%d already existed) into %s\n",
		totalNew, len(sources), totalDuped, targetPath)

	return nil
}

func mergeInto(ctx context.Context, target merkle.Storer, srcPath string) (int, int, error) {
	// opening a missing path would create an empty database in its place
	if _, err := os.Stat(srcPath); err != nil {
		return 0, 0, fmt.Errorf("could not open source database %s: %w", srcPath, err)
	}

	source, err := merkle.NewSQLiteStorer(srcPath)
	if err != nil {
		return 0, 0, fmt.Errorf("could not open source database %s: %w", srcPath, err)
	}
	defer source.Close()

	nodes, err := source.List(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("could not list nodes from %s: %w", srcPath, err)
	}

	var srcNew, srcDuped int
	for _, n := range nodes {
		isNew, err := target.Put(ctx, n)
		if err != nil {
			return 0, 0, fmt.Errorf("could not put node %s: %w", n.Hash, err)
		}
		if isNew {
			srcNew++
		} else {
			srcDuped++
		}
	}
	return srcNew, srcDuped, nil
}
