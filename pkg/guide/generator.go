package guide

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/studyguide/pkg/llm"
	"github.com/papercomputeco/studyguide/pkg/logger"
)

// ErrEmptyNotes is returned for notes that are blank after trimming.
var ErrEmptyNotes = errors.New("notes are empty")

// Defaults for Options fields left at zero.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2000
)

// Options tunes a Generator.
type Options struct {
	Temperature float64
	MaxTokens   int
	MaxChars    int
}

// Result is a generated guide and the model that wrote it.
type Result struct {
	Guide *StudyGuide
	Model string
}

// Generator produces study guides through an llm.Completer.
type Generator struct {
	completer llm.Completer
	opts      Options
	logger    *zap.Logger
}

// NewGenerator creates a Generator, filling unset options with defaults.
func NewGenerator(completer llm.Completer, opts Options, logger *zap.Logger) *Generator {
	if opts.Temperature <= 0 {
		opts.Temperature = DefaultTemperature
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.MaxChars <= 0 {
		opts.MaxChars = DefaultMaxChars
	}
	return &Generator{completer: completer, opts: opts, logger: logger}
}

// Generate prompts the model with notes and parses its answer.
func (g *Generator) Generate(ctx context.Context, notes string) (*Result, error) {
	if strings.TrimSpace(notes) == "" {
		return nil, ErrEmptyNotes
	}

	startTime := time.Now()
	prompt := Truncate(notes, g.opts.MaxChars)
	g.logger.Debug("generating study guide",
		zap.Int("note_chars", len([]rune(notes))),
		zap.Bool("truncated", prompt != notes),
	)

	completion, err := g.completer.Complete(ctx, Messages(prompt), llm.Options{
		Temperature: g.opts.Temperature,
		MaxTokens:   g.opts.MaxTokens,
		JSON:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("completion: %w", err)
	}

	sg, err := Parse(completion.Text)
	if err != nil {
		g.logger.Warn("model returned an unusable response",
			zap.String("model", completion.Model),
			zap.String("content_preview", logger.Preview(completion.Text, 200)),
			zap.Error(err),
		)
		return nil, err
	}

	g.logger.Info("study guide generated",
		zap.String("model", completion.Model),
		zap.Int("key_concepts", len(sg.KeyConcepts)),
		zap.Int("practice_questions", len(sg.PracticeQuestions)),
		zap.Duration("duration", time.Since(startTime)),
	)

	return &Result{Guide: sg, Model: completion.Model}, nil
}
