// Package watch turns notes dropped into a directory into study guides
// written beside them.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/papercomputeco/studyguide/pkg/guide"
	"github.com/papercomputeco/studyguide/pkg/merkle"
	"github.com/papercomputeco/studyguide/pkg/notes"
	"github.com/papercomputeco/studyguide/pkg/pdftext"
)

// DefaultDebounce is how long a file must stay quiet before it is processed.
const DefaultDebounce = 500 * time.Millisecond

// Generator turns notes into a study guide.
type Generator interface {
	Generate(ctx context.Context, notes string) (*guide.Result, error)
}

// Watcher generates a guide for each notes file written to a directory.
// Files are processed one at a time.
type Watcher struct {
	generator Generator
	extractor pdftext.Extractor
	storer    merkle.Storer
	logger    *zap.Logger
	debounce  time.Duration

	// notes node hash last processed per path
	processed map[string]string
}

// New creates a Watcher. storer may be nil to skip recording history.
func New(generator Generator, extractor pdftext.Extractor, storer merkle.Storer, logger *zap.Logger, debounce time.Duration) *Watcher {
	if extractor == nil {
		extractor = pdftext.Reader{}
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		generator: generator,
		extractor: extractor,
		storer:    storer,
		logger:    logger,
		debounce:  debounce,
		processed: make(map[string]string),
	}
}

// Process writes the guide for the notes at path and returns the guide's
// path. Notes identical to the last ones processed for path are skipped and
// yield an empty path.
func (w *Watcher) Process(ctx context.Context, path string) (string, error) {
	bucket, err := notes.ReadFile(path, w.extractor)
	if err != nil {
		return "", err
	}

	key := merkle.NewNode(bucket, nil).Hash
	if w.processed[path] == key {
		w.logger.Debug("notes unchanged, skipping", zap.String("path", path))
		return "", nil
	}

	start := time.Now()
	res, err := w.generator.Generate(ctx, bucket.Text)
	if err != nil {
		return "", fmt.Errorf("generate guide for %s: %w", filepath.Base(path), err)
	}

	// history first, so a guide on disk always has its entry
	if w.storer != nil {
		if _, err := merkle.Record(context.WithoutCancel(ctx), w.storer, bucket, res.Model, res.Guide); err != nil {
			w.logger.Error("failed to record guide", zap.String("path", path), zap.Error(err))
		}
	}

	out := notes.GuidePath(path)
	if err := os.WriteFile(out, []byte(res.Guide.Markdown()), 0o644); err != nil {
		return "", fmt.Errorf("write guide: %w", err)
	}
	w.processed[path] = key

	w.logger.Info("wrote study guide",
		zap.String("notes", path),
		zap.String("guide", out),
		zap.Duration("duration", time.Since(start)),
	)
	return out, nil
}

// unguided lists the notes files in dir that have no guide beside them.
func unguided(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !notes.Supported(e.Name()) || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if _, err := os.Stat(notes.GuidePath(path)); err == nil {
			continue
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Run watches dir until ctx is cancelled. With existing set, notes already in
// dir that have no guide are queued once the watch is in place, so files
// written while they are processed are still seen.
func (w *Watcher) Run(ctx context.Context, dir string, existing bool) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.logger.Info("watching for notes", zap.String("dir", dir), zap.Duration("debounce", w.debounce))

	pending := make(map[string]time.Time)
	if existing {
		paths, err := unguided(dir)
		if err != nil {
			return err
		}
		for _, path := range paths {
			// zero time: ready on the first tick
			pending[path] = time.Time{}
		}
	}

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !notes.Supported(ev.Name) || strings.HasPrefix(filepath.Base(ev.Name), ".") {
				continue
			}
			pending[ev.Name] = time.Now()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))

		case now := <-ticker.C:
			var ready []string
			for path, last := range pending {
				if now.Sub(last) >= w.debounce {
					ready = append(ready, path)
				}
			}
			sort.Strings(ready)
			for _, path := range ready {
				if ctx.Err() != nil {
					return nil
				}
				delete(pending, path)
				w.processLogged(ctx, path)
			}
		}
	}
}

func (w *Watcher) processLogged(ctx context.Context, path string) {
	_, err := w.Process(ctx, path)
	switch {
	case err == nil:
	case errors.Is(err, pdftext.ErrNoText), errors.Is(err, pdftext.ErrNotPDF), errors.Is(err, guide.ErrEmptyNotes):
		w.logger.Warn("no usable text in notes", zap.String("path", path), zap.Error(err))
	case errors.Is(err, os.ErrNotExist):
		w.logger.Debug("notes removed before processing", zap.String("path", path))
	default:
		w.logger.Error("failed to process notes", zap.String("path", path), zap.Error(err))
	}
}
