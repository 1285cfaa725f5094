// Package notes reads lecture notes from files and streams into history
// buckets ready for generation.
package notes

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/papercomputeco/studyguide/pkg/merkle"
	"github.com/papercomputeco/studyguide/pkg/pdftext"
)

// ErrUnsupported is returned for files that are neither PDF nor plain text.
var ErrUnsupported = errors.New("unsupported notes file")

// GuideSuffix marks study guides written next to their notes.
const GuideSuffix = ".guide.md"

var textExts = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
}

// Supported reports whether path can be read as notes. Generated guides are
// never notes.
func Supported(path string) bool {
	if IsGuide(path) {
		return false
	}
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".pdf" || textExts[ext]
}

// IsGuide reports whether path is a generated study guide.
func IsGuide(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), GuideSuffix)
}

// GuidePath is where the guide for the notes at path is written.
func GuidePath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + GuideSuffix
}

// ReadFile loads notes from a PDF or text file.
func ReadFile(path string, extractor pdftext.Extractor) (merkle.Bucket, error) {
	if !Supported(path) {
		return merkle.Bucket{}, fmt.Errorf("%s: %w", path, ErrUnsupported)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return merkle.Bucket{}, err
	}

	b := merkle.Bucket{
		Type:     merkle.TypeNotes,
		Source:   merkle.SourceText,
		Filename: filepath.Base(path),
	}
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		if extractor == nil {
			extractor = pdftext.Reader{}
		}
		doc, err := extractor.Extract(data)
		if err != nil {
			return merkle.Bucket{}, fmt.Errorf("%s: %w", path, err)
		}
		b.Source = merkle.SourcePDF
		b.Text = doc.Text
		return b, nil
	}

	b.Text = string(data)
	return b, nil
}

// Read loads pasted notes from r.
func Read(r io.Reader) (merkle.Bucket, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return merkle.Bucket{}, fmt.Errorf("read notes: %w", err)
	}
	return merkle.Bucket{Type: merkle.TypeNotes, Source: merkle.SourceText, Text: string(data)}, nil
}
