// Package gemini implements llm.Completer on top of the Google Gen AI SDK.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	genai "google.golang.org/genai"

	"github.com/papercomputeco/studyguide/pkg/llm"
	"github.com/papercomputeco/studyguide/pkg/logger"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// Client is an llm.Completer backed by the Gemini API.
type Client struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

var _ llm.Completer = (*Client)(nil)

// New creates a Gemini client.
func New(ctx context.Context, apiKey, model string, logger *zap.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: missing API key")
	}
	if model == "" {
		model = DefaultModel
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Client{client: c, model: model, logger: logger}, nil
}

// Complete maps system messages onto the system instruction and the rest onto
// user/model turns.
func (g *Client) Complete(ctx context.Context, messages []llm.Message, opts llm.Options) (*llm.Completion, error) {
	contents, system := toContents(messages)
	if len(contents) == 0 {
		return nil, errors.New("gemini: no messages")
	}

	cfg := &genai.GenerateContentConfig{}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if opts.Temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(opts.Temperature))
	}
	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxTokens)
	}
	if opts.JSON {
		cfg.ResponseMIMEType = "application/json"
	}

	res, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}

	out := &llm.Completion{
		Model: g.model,
		Text:  strings.TrimSpace(res.Text()),
	}
	if res.ModelVersion != "" {
		out.Model = res.ModelVersion
	}
	if u := res.UsageMetadata; u != nil {
		out.Usage = llm.Usage{
			PromptTokens:     int(u.PromptTokenCount),
			CompletionTokens: int(u.CandidatesTokenCount),
			TotalTokens:      int(u.TotalTokenCount),
		}
	}

	g.logger.Debug("received response from gemini",
		zap.String("model", out.Model),
		zap.Int("response_bytes", len(out.Text)),
		zap.String("content_preview", logger.Preview(out.Text, 100)),
	)
	return out, nil
}

func toContents(messages []llm.Message) ([]*genai.Content, string) {
	var system []string
	var contents []*genai.Content
	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			system = append(system, m.Content)
		case llm.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return contents, strings.Join(system, "\n\n")
}
