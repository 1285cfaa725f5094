package historycmder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/studyguide/cmd/studyguide/cmdutil"
	"github.com/papercomputeco/studyguide/pkg/merkle"
	"github.com/papercomputeco/studyguide/pkg/tui"
)

const historyLongDesc string = `List study guides recorded in the history database.

With a hash (or a unique prefix of one) the matching guide is printed
in full.

Examples:
  studyguide history
  studyguide history --limit 5
  studyguide history 3f9a2c
  studyguide history --json 3f9a2c`

const historyShortDesc string = "Browse generated study guides"

const shortHashLen = 12

type historyCommander struct {
	dbPath string
	json   bool
	limit  int
}

func NewHistoryCmd() *cobra.Command {
	cmder := &historyCommander{}

	cmd := &cobra.Command{
		Use:   "history [hash]",
		Short: historyShortDesc,
		Long:  historyLongDesc,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args)
		},
	}

	cmd.Flags().StringVar(&cmder.dbPath, "db", "", "Path to SQLite history database")
	cmd.Flags().BoolVar(&cmder.json, "json", false, "Print JSON")
	cmd.Flags().IntVarP(&cmder.limit, "limit", "n", 0, "Show at most n guides (0 for all)")

	return cmd
}

func (c *historyCommander) run(ctx context.Context, cmd *cobra.Command, args []string) error {
	cfg, err := cmdutil.LoadConfig(cmd)
	if err != nil {
		return err
	}

	storer, dbPath, err := cmdutil.OpenHistory(c.dbPath, cfg)
	if err != nil {
		return err
	}
	defer storer.Close()

	entries, err := merkle.Guides(ctx, storer)
	if err != nil {
		return fmt.Errorf("could not list guides in %s: %w", dbPath, err)
	}

	out := cmd.OutOrStdout()
	if len(args) == 1 {
		entry, err := find(entries, args[0])
		if err != nil {
			return err
		}
		return c.show(out, entry)
	}

	if c.limit > 0 && len(entries) > c.limit {
		entries = entries[:c.limit]
	}
	return c.list(out, entries, dbPath)
}

func (c *historyCommander) list(out io.Writer, entries []*merkle.Entry, dbPath string) error {
	if c.json {
		type item struct {
			Hash      string    `json:"hash"`
			NotesHash string    `json:"notes_hash"`
			Source    string    `json:"source"`
			Filename  string    `json:"filename,omitempty"`
			Model     string    `json:"model"`
			CreatedAt time.Time `json:"created_at"`
		}
		items := make([]item, 0, len(entries))
		for _, e := range entries {
			items = append(items, item{
				Hash:      e.Guide.Hash,
				NotesHash: e.Notes.Hash,
				Source:    e.Notes.Bucket.Source,
				Filename:  e.Notes.Bucket.Filename,
				Model:     e.Guide.Bucket.Model,
				CreatedAt: e.Guide.CreatedAt,
			})
		}
		return writeJSON(out, items)
	}

	if len(entries) == 0 {
		fmt.Fprintf(out, "No study guides in %s.\n", dbPath)
		return nil
	}

	f, _ := out.(*os.File)
	r := tui.NewRenderer(tui.IsTerminal(f), tui.Width(f))
	for _, e := range entries {
		label := fmt.Sprintf("%s  %s", e.Guide.Hash[:shortHashLen], e.Guide.CreatedAt.Local().Format("2006-01-02 15:04"))
		fmt.Fprintln(out, r.Row(label, describe(e)))
	}
	return nil
}

func (c *historyCommander) show(out io.Writer, e *merkle.Entry) error {
	if c.json {
		return writeJSON(out, e.Guide.Bucket.Guide)
	}

	f, _ := out.(*os.File)
	r := tui.NewRenderer(tui.IsTerminal(f), tui.Width(f))
	header := fmt.Sprintf("%s · %s · %s", e.Guide.Hash[:shortHashLen], e.Guide.Bucket.Model, e.Guide.CreatedAt.Local().Format(time.RFC1123))
	s, err := r.Guide(e.Guide.Bucket.Guide, header)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, s)
	return err
}

// find resolves a full hash or a unique hash prefix.
func find(entries []*merkle.Entry, hash string) (*merkle.Entry, error) {
	var matches []*merkle.Entry
	for _, e := range entries {
		if e.Guide.Hash == hash {
			return e, nil
		}
		if strings.HasPrefix(e.Guide.Hash, hash) {
			matches = append(matches, e)
		}
	}
	switch len(matches) {
	case 0:
		return nil, merkle.ErrNotFound{Hash: hash}
	case 1:
		return matches[0], nil
	default:
		return nil, errors.New("ambiguous hash prefix " + hash)
	}
}

func describe(e *merkle.Entry) string {
	var parts []string
	if e.Notes.Bucket.Filename != "" {
		parts = append(parts, e.Notes.Bucket.Filename)
	}
	if g := e.Guide.Bucket.Guide; g != nil && len(g.KeyConcepts) > 0 {
		parts = append(parts, strings.Join(g.KeyConcepts, ", "))
	} else {
		parts = append(parts, e.Notes.Bucket.Text)
	}
	return strings.Join(parts, ": ")
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
