// Package provider builds the configured llm.Completer.
package provider

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/papercomputeco/studyguide/pkg/config"
	"github.com/papercomputeco/studyguide/pkg/llm"
	"github.com/papercomputeco/studyguide/pkg/llm/gemini"
	"github.com/papercomputeco/studyguide/pkg/llm/openai"
)

// New returns the completer named by cfg.Provider.
func New(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (llm.Completer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("no API key: set %s", cfg.APIKeyEnv)
		}
		return openai.New(openai.Config{
			BaseURL: cfg.BaseURL,
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			Timeout: cfg.Timeout(),
		}, logger)
	case "gemini":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("no API key: set %s", cfg.APIKeyEnv)
		}
		return gemini.New(ctx, cfg.APIKey, cfg.Model, logger)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
