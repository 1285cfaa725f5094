// Package mcptool exposes study guide generation as a Model Context Protocol
// tool.
package mcptool

import (
	"context"
	"errors"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/papercomputeco/studyguide/pkg/guide"
	"github.com/papercomputeco/studyguide/pkg/merkle"
)

// ToolName is the name clients call the tool by.
const ToolName = "generate_study_guide"

const toolDescription = "Turn lecture notes into a study guide with key concepts, " +
	"explanations, practice questions and a cheat sheet."

// Generator turns notes into a study guide.
type Generator interface {
	Generate(ctx context.Context, notes string) (*guide.Result, error)
}

// Input is the tool's argument object.
type Input struct {
	Text string `json:"text" jsonschema:"the lecture notes to summarize"`
}

// NewServer builds an MCP server offering the study guide tool. storer may be
// nil to skip recording history.
func NewServer(generator Generator, storer merkle.Storer, version string, logger *zap.Logger) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "studyguide", Version: version}, nil)

	h := &handler{generator: generator, storer: storer, logger: logger}
	mcp.AddTool(server, &mcp.Tool{
		Name:        ToolName,
		Description: toolDescription,
	}, h.generate)

	return server
}

type handler struct {
	generator Generator
	storer    merkle.Storer
	logger    *zap.Logger
}

func (h *handler) generate(ctx context.Context, _ *mcp.CallToolRequest, in Input) (*mcp.CallToolResult, guide.StudyGuide, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, guide.StudyGuide{}, errors.New("text cannot be empty")
	}

	res, err := h.generator.Generate(ctx, in.Text)
	if err != nil {
		h.logger.Error("failed to generate study guide", zap.Error(err))
		return nil, guide.StudyGuide{}, errors.New("failed to generate study guide")
	}

	if h.storer != nil {
		notes := merkle.Bucket{Type: merkle.TypeNotes, Source: merkle.SourceText, Text: in.Text}
		if _, err := merkle.Record(ctx, h.storer, notes, res.Model, res.Guide); err != nil {
			h.logger.Error("failed to record guide", zap.Error(err))
		}
	}

	return nil, *res.Guide, nil
}
