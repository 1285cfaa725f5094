package servecmder

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/papercomputeco/studyguide/cmd/studyguide/cmdutil"
	"github.com/papercomputeco/studyguide/server"
)

const serveLongDesc string = `Run the study guide web app and HTTP API.

Serves the browser UI on / along with POST /generate (pasted notes) and
POST /upload (PDF). Generated guides are kept in the history database
given by --db or db_path, or in memory when neither is set.

Examples:
  studyguide serve
  studyguide serve --listen :8080 --db ~/.studyguide/studyguide.db`

const serveShortDesc string = "Run the study guide server"

type serveCommander struct {
	listen string
	dbPath string

	newGenerator cmdutil.GeneratorFactory
	// ready receives the bound address once the server is listening
	ready func(addr string)
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{newGenerator: cmdutil.NewGenerator}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", "", "Address to listen on (default from config, :3001)")
	cmd.Flags().StringVar(&cmder.dbPath, "db", "", "Path to SQLite history database (default: in-memory)")

	return cmd
}

func (c *serveCommander) run(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := cmdutil.LoadConfig(cmd)
	if err != nil {
		return err
	}
	if c.listen != "" {
		cfg.Listen = c.listen
	}
	if c.dbPath != "" {
		cfg.DBPath = c.dbPath
	}

	log := cmdutil.Logger(cfg)
	defer log.Sync()

	gen, err := c.newGenerator(ctx, cfg, log)
	if err != nil {
		return err
	}

	storer, err := cmdutil.OpenStorer(cfg.DBPath)
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		ListenAddr:     cfg.Listen,
		CORSOrigins:    cfg.CORSOrigins,
		MaxUploadBytes: cfg.MaxUploadBytes(),
	}, gen, nil, storer, log)
	if err != nil {
		storer.Close()
		return fmt.Errorf("could not create server: %w", err)
	}
	defer srv.Close()

	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return fmt.Errorf("could not listen on %s: %w", cfg.Listen, err)
	}

	log.Info("study guide server starting",
		zap.String("listen", ln.Addr().String()),
		zap.String("provider", cfg.LLM.Provider),
		zap.String("model", cfg.LLM.Model),
		zap.String("db", cfg.DBPath),
	)
	if c.ready != nil {
		c.ready(ln.Addr().String())
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.RunWithListener(ln)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		return srv.Shutdown()
	})

	return g.Wait()
}
