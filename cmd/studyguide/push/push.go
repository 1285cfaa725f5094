package pushcmder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/studyguide/cmd/studyguide/cmdutil"
	"github.com/papercomputeco/studyguide/pkg/merkle"
	"github.com/papercomputeco/studyguide/server"
)

const pushLongDesc string = `Push local study guide history to a remote studyguide server.

Reads all notes and guide nodes from the local SQLite database and
POSTs them to the remote server's /guides/import endpoint. Content
addressing means nodes the server already has are skipped.

Examples:
  studyguide push http://192.168.1.42:3001
  studyguide push --db ~/.studyguide/studyguide.db http://localhost:3001`

const pushShortDesc string = "Push guide history to a remote server"

type pushCommander struct {
	dbPath    string
	batchSize int
	client    *http.Client
}

func NewPushCmd() *cobra.Command {
	cmder := &pushCommander{client: &http.Client{Timeout: 60 * time.Second}}

	cmd := &cobra.Command{
		Use:   "push <server-url>",
		Short: pushShortDesc,
		Long:  pushLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, args[0])
		},
	}

	cmd.Flags().StringVar(&cmder.dbPath, "db", "", "Path to local SQLite history database")
	cmd.Flags().IntVar(&cmder.batchSize, "batch-size", 200, "Nodes per HTTP request")

	return cmd
}

func (c *pushCommander) run(ctx context.Context, cmd *cobra.Command, serverURL string) error {
	serverURL = strings.TrimRight(serverURL, "/")
	if c.batchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}

	cfg, err := cmdutil.LoadConfig(cmd)
	if err != nil {
		return err
	}

	storer, dbPath, err := cmdutil.OpenHistory(c.dbPath, cfg)
	if err != nil {
		return err
	}
	defer storer.Close()

	nodes, err := storer.List(ctx)
	if err != nil {
		return fmt.Errorf("could not list local nodes: %w", err)
	}

	if len(nodes) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No local history to push.")
		return nil
	}

	// parents before children so the remote never holds a dangling guide
	for i, j := 0, len(nodes)-1; i < j; i, j = i+1, j-1 {
		nodes[i], nodes[j] = nodes[j], nodes[i]
	}
	orderRootsFirst(nodes)

	fmt.Fprintf(cmd.OutOrStdout(), "Pushing %d nodes from %s to %s\n", len(nodes), dbPath, serverURL)

	var total server.ImportResponse
	for i := 0; i < len(nodes); i += c.batchSize {
		end := min(i+c.batchSize, len(nodes))

		resp, err := c.postBatch(ctx, serverURL, nodes[i:end])
		if err != nil {
			return fmt.Errorf("push failed on batch %d-%d: %w", i, end-1, err)
		}

		total.New += resp.New
		total.Duplicate += resp.Duplicate
		total.Errors += resp.Errors
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Pushed %d new nodes (%d already existed, %d errors)\n",
		total.New, total.Duplicate, total.Errors)

	return nil
}

// orderRootsFirst moves notes nodes ahead of guide nodes, keeping the
// relative order within each group.
func orderRootsFirst(nodes []*merkle.Node) {
	roots := make([]*merkle.Node, 0, len(nodes))
	var rest []*merkle.Node
	for _, n := range nodes {
		if n.ParentHash == nil {
			roots = append(roots, n)
		} else {
			rest = append(rest, n)
		}
	}
	copy(nodes, append(roots, rest...))
}

func (c *pushCommander) postBatch(ctx context.Context, serverURL string, nodes []*merkle.Node) (*server.ImportResponse, error) {
	body, err := json.Marshal(nodes)
	if err != nil {
		return nil, fmt.Errorf("could not marshal nodes: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serverURL+"/guides/import", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("could not build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result server.ImportResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("could not decode response: %w", err)
	}

	return &result, nil
}
