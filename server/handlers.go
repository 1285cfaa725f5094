package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/studyguide/pkg/guide"
	"github.com/papercomputeco/studyguide/pkg/llm"
	"github.com/papercomputeco/studyguide/pkg/logger"
	"github.com/papercomputeco/studyguide/pkg/merkle"
	"github.com/papercomputeco/studyguide/pkg/pdftext"
)

// Error messages returned to clients.
const (
	msgNoText        = "No text provided. Please paste text or upload a PDF."
	msgEmptyText     = "Text cannot be empty."
	msgNoFile        = "No PDF file uploaded"
	msgNotPDF        = "Only PDF files are allowed"
	msgEmptyPDF      = "PDF appears to be empty or could not extract text"
	msgPDFFailed     = "Failed to process PDF"
	msgGenerateFail  = "Failed to generate study guide. Please check your API key and try again."
	msgGuideNotFound = "guide not found"
)

// GuideHashHeader carries the history hash of a generated guide.
const GuideHashHeader = "X-Guide-Hash"

// GenerateRequest is the body of POST /generate.
type GenerateRequest struct {
	Text *string `json:"text"`
}

// handleGenerate builds a study guide from pasted notes.
func (s *Server) handleGenerate(c *fiber.Ctx) error {
	var req GenerateRequest
	if err := c.BodyParser(&req); err != nil {
		s.logger.Debug("failed to parse request", zap.Error(err))
		return badRequest(c, msgNoText)
	}
	if req.Text == nil || *req.Text == "" {
		return badRequest(c, msgNoText)
	}
	if strings.TrimSpace(*req.Text) == "" {
		return badRequest(c, msgEmptyText)
	}

	notes := merkle.Bucket{Type: merkle.TypeNotes, Source: merkle.SourceText, Text: *req.Text}
	return s.respondWithGuide(c, notes)
}

// handleUpload extracts the text of an uploaded PDF and builds a study guide from it.
func (s *Server) handleUpload(c *fiber.Ctx) error {
	fh, err := c.FormFile("pdf")
	if err != nil {
		return badRequest(c, msgNoFile)
	}
	if !isPDFContentType(fh.Header.Get("Content-Type")) {
		s.logger.Debug("rejected upload",
			zap.String("filename", fh.Filename),
			zap.String("content_type", fh.Header.Get("Content-Type")),
		)
		return badRequest(c, msgNotPDF)
	}
	if fh.Size > s.config.MaxUploadBytes {
		return badRequest(c, fmt.Sprintf("PDF exceeds the %dMB upload limit", s.config.MaxUploadBytes>>20))
	}

	f, err := fh.Open()
	if err != nil {
		s.logger.Error("failed to open upload", zap.Error(err))
		return internalError(c, msgPDFFailed)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.config.MaxUploadBytes+1))
	if err != nil {
		s.logger.Error("failed to read upload", zap.Error(err))
		return internalError(c, msgPDFFailed)
	}

	doc, err := s.extractor.Extract(data)
	switch {
	case errors.Is(err, pdftext.ErrNotPDF), errors.Is(err, pdftext.ErrNoText):
		s.logger.Info("no text in upload", zap.String("filename", fh.Filename), zap.Error(err))
		return badRequest(c, msgEmptyPDF)
	case err != nil:
		s.logger.Error("failed to extract PDF text", zap.String("filename", fh.Filename), zap.Error(err))
		return internalError(c, msgPDFFailed)
	}
	if strings.TrimSpace(doc.Text) == "" {
		return badRequest(c, msgEmptyPDF)
	}

	s.logger.Debug("extracted PDF text",
		zap.String("filename", fh.Filename),
		zap.Int("pages", doc.Pages),
		zap.Int("chars", len(doc.Text)),
	)

	notes := merkle.Bucket{Type: merkle.TypeNotes, Source: merkle.SourcePDF, Filename: fh.Filename, Text: doc.Text}
	return s.respondWithGuide(c, notes)
}

func (s *Server) respondWithGuide(c *fiber.Ctx, notes merkle.Bucket) error {
	res, err := s.generator.Generate(c.UserContext(), notes.Text)
	if errors.Is(err, guide.ErrEmptyNotes) {
		return badRequest(c, msgEmptyText)
	}
	if err != nil {
		s.logger.Error("failed to generate study guide",
			zap.String("source", notes.Source),
			zap.String("notes_preview", logger.Preview(notes.Text, 80)),
			zap.Error(err),
		)
		return internalError(c, msgGenerateFail)
	}

	// Don't fail the request just because history storage failed
	if hash, err := s.record(context.Background(), notes, res); err != nil {
		s.logger.Error("failed to record guide", zap.Error(err))
	} else {
		c.Set(GuideHashHeader, hash)
	}

	return c.JSON(res.Guide)
}

// record stores the notes and guide and returns the guide node hash.
func (s *Server) record(ctx context.Context, notes merkle.Bucket, res *guide.Result) (string, error) {
	node, err := merkle.Record(ctx, s.storer, notes, res.Model, res.Guide)
	if err != nil {
		return "", err
	}

	s.logger.Debug("guide recorded",
		zap.String("notes_hash", truncate(*node.ParentHash, 16)),
		zap.String("guide_hash", truncate(node.Hash, 16)),
	)
	return node.Hash, nil
}

// GuideSummary is one entry of GET /guides.
type GuideSummary struct {
	Hash      string    `json:"hash"`
	NotesHash string    `json:"notes_hash"`
	Source    string    `json:"source"`
	Filename  string    `json:"filename,omitempty"`
	Preview   string    `json:"preview"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
}

// GuideRecord is the body of GET /guides/:hash.
type GuideRecord struct {
	GuideSummary
	Guide *guide.StudyGuide `json:"guide"`
}

// ImportResponse is the body returned by POST /guides/import.
type ImportResponse struct {
	New       int `json:"new"`
	Duplicate int `json:"duplicate"`
	Errors    int `json:"errors"`
}

// handleListGuides returns every recorded guide, newest first.
func (s *Server) handleListGuides(c *fiber.Ctx) error {
	entries, err := merkle.Guides(c.UserContext(), s.storer)
	if err != nil {
		s.logger.Error("failed to list guides", zap.Error(err))
		return internalError(c, "failed to list guides")
	}

	guides := make([]GuideSummary, 0, len(entries))
	for _, e := range entries {
		guides = append(guides, newGuideRecord(e).GuideSummary)
	}

	return c.JSON(map[string]any{
		"count":  len(guides),
		"guides": guides,
	})
}

// handleGetGuide returns a recorded guide with its provenance.
func (s *Server) handleGetGuide(c *fiber.Ctx) error {
	hash := c.Params("hash")
	if hash == "" {
		return badRequest(c, "hash parameter required")
	}

	entry, err := merkle.Lookup(c.UserContext(), s.storer, hash)
	var notFound merkle.ErrNotFound
	switch {
	case errors.As(err, &notFound):
		return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: msgGuideNotFound})
	case err != nil:
		s.logger.Error("failed to look up guide", zap.String("hash", hash), zap.Error(err))
		return internalError(c, "failed to look up guide")
	}
	return c.JSON(newGuideRecord(entry))
}

// handleImport stores history nodes pushed from another instance. Nodes
// whose hash does not match their content, or that are not a parentless
// notes node or a guide with a parent, are counted as errors.
func (s *Server) handleImport(c *fiber.Ctx) error {
	var nodes []*merkle.Node
	if err := c.BodyParser(&nodes); err != nil {
		return badRequest(c, "invalid node list")
	}

	ctx := c.UserContext()
	var resp ImportResponse
	for _, n := range nodes {
		if n == nil || !n.WellFormed() {
			resp.Errors++
			continue
		}
		isNew, err := s.storer.Put(ctx, n)
		switch {
		case err != nil:
			s.logger.Warn("failed to import node", zap.String("hash", n.Hash), zap.Error(err))
			resp.Errors++
		case isNew:
			resp.New++
		default:
			resp.Duplicate++
		}
	}

	s.logger.Info("imported history nodes",
		zap.Int("new", resp.New),
		zap.Int("duplicate", resp.Duplicate),
		zap.Int("errors", resp.Errors),
	)
	return c.JSON(resp)
}

func newGuideRecord(e *merkle.Entry) *GuideRecord {
	rec := &GuideRecord{
		GuideSummary: GuideSummary{
			Hash:      e.Guide.Hash,
			Source:    e.Notes.Bucket.Source,
			Filename:  e.Notes.Bucket.Filename,
			Preview:   logger.Preview(e.Notes.Bucket.Text, 120),
			Model:     e.Guide.Bucket.Model,
			NotesHash: e.Notes.Hash,
			CreatedAt: e.Guide.CreatedAt,
		},
		Guide: e.Guide.Bucket.Guide,
	}
	return rec
}

func isPDFContentType(ct string) bool {
	mt, _, err := mime.ParseMediaType(ct)
	return err == nil && mt == "application/pdf"
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: msg})
}

func internalError(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: msg})
}

// errorHandler renders errors that escape a handler, including bodies
// rejected by the HTTP layer, in the same JSON shape as handler errors.
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		msg := "internal server error"
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			msg = fe.Message
		}
		if code >= fiber.StatusInternalServerError {
			logger.Error("unhandled request error", zap.String("path", c.Path()), zap.Error(err))
		}
		return c.Status(code).JSON(llm.ErrorResponse{Error: msg})
	}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
