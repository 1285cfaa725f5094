// Package server provides the study guide HTTP API and the web UI that
// talks to it.
package server

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/papercomputeco/studyguide/pkg/guide"
	"github.com/papercomputeco/studyguide/pkg/merkle"
	"github.com/papercomputeco/studyguide/pkg/pdftext"
)

// Generator turns notes into a study guide.
type Generator interface {
	Generate(ctx context.Context, notes string) (*guide.Result, error)
}

// Server is a stateless request/response service: every request extracts
// notes, asks the generator for a guide and answers with it. Successful
// generations are recorded in the storer for the history endpoints.
type Server struct {
	config    Config
	generator Generator
	extractor pdftext.Extractor
	storer    merkle.Storer
	logger    *zap.Logger
	server    *fiber.App
}

// New creates a new Server.
func New(config Config, generator Generator, extractor pdftext.Extractor, storer merkle.Storer, logger *zap.Logger) (*Server, error) {
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if extractor == nil {
		extractor = pdftext.Reader{}
	}
	if storer == nil {
		storer = merkle.NewMemoryStorer()
	}

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
		// Multipart overhead on top of the largest accepted PDF
		BodyLimit: int(config.MaxUploadBytes) + 1<<20,
		// Slow clients uploading large PDFs
		ReadTimeout:  30 * time.Second,
		ErrorHandler: errorHandler(logger),
	})

	s := &Server{
		config:    config,
		generator: generator,
		extractor: extractor,
		storer:    storer,
		logger:    logger,
		server:    app,
	}

	origins := "*"
	if len(config.CORSOrigins) > 0 {
		origins = strings.Join(config.CORSOrigins, ",")
	}

	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(s.requestLogger)
	app.Use(cors.New(cors.Config{AllowOrigins: origins}))

	s.routes(app)

	return s, nil
}

func (s *Server) routes(app *fiber.App) {
	app.Post("/generate", s.handleGenerate)
	app.Post("/upload", s.handleUpload)

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})

	// History inspection endpoints
	app.Get("/guides", s.handleListGuides)
	app.Get("/guides/:hash", s.handleGetGuide)
	app.Post("/guides/import", s.handleImport)

	// Web UI, registered last so it only sees what the API did not claim
	app.Get("/*", uiHandler())
}

// Run starts the server on the configured listening address
func (s *Server) Run() error {
	s.logger.Info("starting study guide server",
		zap.String("listen", s.config.ListenAddr),
		zap.Int64("max_upload_bytes", s.config.MaxUploadBytes),
	)

	return s.server.Listen(s.config.ListenAddr)
}

// RunWithListener serves on an existing listener.
func (s *Server) RunWithListener(ln net.Listener) error {
	s.logger.Info("starting study guide server", zap.String("listen", ln.Addr().String()))
	return s.server.Listener(ln)
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown() error {
	return s.server.Shutdown()
}

// Close releases the history store.
func (s *Server) Close() error {
	return s.storer.Close()
}

// requestLogger logs one line per request once the handler has run.
func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	if fe, ok := err.(*fiber.Error); ok {
		status = fe.Code
	}
	fields := []zap.Field{
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", status),
		zap.Duration("duration", time.Since(start)),
	}
	if id, ok := c.Locals("requestid").(string); ok {
		fields = append(fields, zap.String("request_id", id))
	}
	if status >= fiber.StatusInternalServerError {
		s.logger.Warn("request failed", fields...)
	} else {
		s.logger.Debug("request served", fields...)
	}
	return err
}
