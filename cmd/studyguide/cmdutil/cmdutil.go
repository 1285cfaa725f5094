// Package cmdutil wires configuration, logging and the generation stack for
// the studyguide subcommands.
package cmdutil

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/studyguide/cmd/studyguide/sqlitepath"
	"github.com/papercomputeco/studyguide/pkg/config"
	"github.com/papercomputeco/studyguide/pkg/guide"
	"github.com/papercomputeco/studyguide/pkg/llm/provider"
	"github.com/papercomputeco/studyguide/pkg/logger"
	"github.com/papercomputeco/studyguide/pkg/merkle"
)

// Persistent flag names shared by every subcommand.
const (
	ConfigFlag = "config"
	DebugFlag  = "debug"
)

// Generator turns notes into a study guide.
type Generator interface {
	Generate(ctx context.Context, notes string) (*guide.Result, error)
}

// GeneratorFactory builds the Generator a command uses. Tests swap it for a fake.
type GeneratorFactory func(ctx context.Context, cfg config.Config, log *zap.Logger) (Generator, error)

// AddPersistentFlags registers --config and --debug on the root command.
func AddPersistentFlags(root *cobra.Command) {
	root.PersistentFlags().StringP(ConfigFlag, "c", "", "Path to config file (default: ~/.config/studyguide/config.toml)")
	root.PersistentFlags().Bool(DebugFlag, false, "Enable debug logging")
}

// LoadConfig loads the config named by --config, or the default locations.
func LoadConfig(cmd *cobra.Command) (config.Config, error) {
	path := ""
	if f := cmd.Flags().Lookup(ConfigFlag); f != nil {
		path = f.Value.String()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, fmt.Errorf("could not load config: %w", err)
	}
	if f := cmd.Flags().Lookup(DebugFlag); f != nil && f.Changed {
		cfg.Debug = f.Value.String() == "true"
	}
	return cfg, nil
}

// Logger builds the stderr logger for cfg.
func Logger(cfg config.Config) *zap.Logger {
	return logger.NewLogger(cfg.Debug)
}

// NewGenerator builds the configured completer and wraps it in a guide.Generator.
func NewGenerator(ctx context.Context, cfg config.Config, log *zap.Logger) (Generator, error) {
	completer, err := provider.New(ctx, cfg.LLM, log)
	if err != nil {
		return nil, fmt.Errorf("could not create LLM client: %w", err)
	}
	return guide.NewGenerator(completer, guide.Options{
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		MaxChars:    cfg.Limits.MaxNoteChars,
	}, log), nil
}

// OpenStorer opens the SQLite history at path, or an in-memory history when
// path is empty.
func OpenStorer(path string) (merkle.Storer, error) {
	if path == "" {
		return merkle.NewMemoryStorer(), nil
	}
	s, err := merkle.NewSQLiteStorer(path)
	if err != nil {
		return nil, fmt.Errorf("could not open history database %s: %w", path, err)
	}
	return s, nil
}

// OpenHistory opens the on-disk history, resolving the path from the given
// override, the config and the default location in that order.
func OpenHistory(override string, cfg config.Config) (merkle.Storer, string, error) {
	path, err := sqlitepath.ResolveSQLitePath(override, cfg.DBPath)
	if err != nil {
		return nil, "", err
	}
	s, err := OpenStorer(path)
	if err != nil {
		return nil, "", err
	}
	return s, path, nil
}
