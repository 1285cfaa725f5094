// Package openai implements llm.Completer against OpenAI-compatible
// chat completion endpoints.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/studyguide/pkg/llm"
	"github.com/papercomputeco/studyguide/pkg/logger"
)

// DefaultBaseURL is the OpenAI API root.
const DefaultBaseURL = "https://api.openai.com/v1"

// Config configures a Client.
type Config struct {
	// BaseURL is the API root; "/chat/completions" is appended.
	BaseURL string

	APIKey string
	Model  string

	// Timeout bounds a single completion call, 0 for no client-side limit.
	Timeout time.Duration
}

// Client is an llm.Completer for OpenAI-compatible providers.
type Client struct {
	config     Config
	logger     *zap.Logger
	httpClient *http.Client
}

var _ llm.Completer = (*Client)(nil)

// New creates a new Client.
func New(config Config, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(config.Model) == "" {
		return nil, errors.New("openai: model required")
	}
	config.BaseURL = strings.TrimRight(strings.TrimSpace(config.BaseURL), "/")
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}

	return &Client{
		config: config,
		logger: logger,
		httpClient: &http.Client{
			// Long notes can take a while to summarize
			Timeout: config.Timeout,
		},
	}, nil
}

// Complete sends the conversation upstream and returns the first choice.
func (c *Client) Complete(ctx context.Context, messages []llm.Message, opts llm.Options) (*llm.Completion, error) {
	req := llm.ChatRequest{
		Model:     c.config.Model,
		Messages:  messages,
		MaxTokens: opts.MaxTokens,
	}
	if opts.Temperature > 0 {
		t := opts.Temperature
		req.Temperature = &t
	}
	if opts.JSON {
		req.ResponseFormat = &llm.ResponseFormat{Type: "json_object"}
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	upstreamURL := c.config.BaseURL + "/chat/completions"
	c.logger.Debug("forwarding request to upstream",
		zap.String("url", upstreamURL),
		zap.String("model", req.Model),
		zap.Int("body_size", len(reqBody)),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, upstreamURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	startTime := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, &llm.APIError{StatusCode: httpResp.StatusCode, Message: errorMessage(body)}
	}

	var resp llm.ChatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if resp.Error != nil {
		return nil, &llm.APIError{StatusCode: httpResp.StatusCode, Message: resp.Error.Message}
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("empty choices in response")
	}

	out := &llm.Completion{
		Model: resp.Model,
		Text:  strings.TrimSpace(resp.Choices[0].Message.Content),
	}
	if out.Model == "" {
		out.Model = req.Model
	}
	if resp.Usage != nil {
		out.Usage = *resp.Usage
	}

	c.logger.Debug("received response from upstream",
		zap.String("model", out.Model),
		zap.String("finish_reason", resp.Choices[0].FinishReason),
		zap.Int("completion_tokens", out.Usage.CompletionTokens),
		zap.String("content_preview", logger.Preview(out.Text, 100)),
		zap.Duration("duration", time.Since(startTime)),
	)

	return out, nil
}

// errorMessage pulls the provider's message out of an error body, falling
// back to the raw body.
func errorMessage(body []byte) string {
	var wrapped struct {
		Error *llm.UpstreamError `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Error != nil && wrapped.Error.Message != "" {
		return wrapped.Error.Message
	}
	return logger.Preview(string(body), 500)
}
