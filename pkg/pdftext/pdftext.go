// Package pdftext pulls plain text out of uploaded PDF documents.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var (
	// ErrNotPDF is returned for input that does not start with a PDF header.
	ErrNotPDF = errors.New("not a PDF document")

	// ErrNoText is returned when a PDF carries no extractable text,
	// e.g. a scanned document without an OCR layer.
	ErrNoText = errors.New("PDF contains no extractable text")
)

func init() {
	// keep pdfcpu from creating a config dir under the user's home
	api.DisableConfigDir()
}

// Document is the text of a PDF.
type Document struct {
	Pages int
	Text  string
}

// Extractor turns PDF bytes into text.
type Extractor interface {
	Extract(data []byte) (*Document, error)
}

// Reader is the default Extractor. pdfcpu validates the file and counts
// pages; ledongthuc/pdf decodes the page content streams.
type Reader struct{}

var _ Extractor = Reader{}

// Extract returns the plain text of every page, pages separated by a blank line.
func (Reader) Extract(data []byte) (doc *Document, err error) {
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\x00\t\r\n "), []byte("%PDF")) {
		return nil, ErrNotPDF
	}

	// both parsers can panic on crafted input
	defer func() {
		if r := recover(); r != nil {
			doc, err = nil, fmt.Errorf("extract text: %v", r)
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	pages, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		return nil, fmt.Errorf("validate pdf: %w", err)
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract page %d: %w", i, err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(text)
	}

	if sb.Len() == 0 {
		return nil, ErrNoText
	}
	return &Document{Pages: pages, Text: sb.String()}, nil
}
