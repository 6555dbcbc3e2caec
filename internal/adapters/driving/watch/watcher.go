// Package watch imports HTML files from a directory as content documents
// and keeps them indexed while the files change.
//
// A file named "<id>.html" or "<id>-<slug>.html" maps to the document with
// that id. Writes save and reindex the document; removals trash it. Files
// without a leading id are ignored.
package watch

import (
	"context"
	"errors"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/sourcemark/internal/core/domain"
	"github.com/custodia-labs/sourcemark/internal/core/ports/driving"
	"github.com/custodia-labs/sourcemark/internal/logger"
)

const defaultDebounce = 100 * time.Millisecond

var (
	fileNamePattern = regexp.MustCompile(`^(\d+)(?:-([^.]*))?\.html?$`)
	titlePattern    = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
)

// Config holds configuration options for the Watcher.
type Config struct {
	Dir           string
	Content       driving.ContentService
	BaseURL       string        // Optional; document URL is BaseURL + "/" + id
	DebounceDelay time.Duration // Default: 100ms
	OnImport      func(path string, result domain.ReindexResult, err error)
}

// Watcher monitors a directory and mirrors its HTML files into the
// content service.
type Watcher struct {
	dir      string
	content  driving.ContentService
	baseURL  string
	debounce time.Duration
	onImport func(path string, result domain.ReindexResult, err error)

	fsWatcher *fsnotify.Watcher
	pending   map[string]time.Time
	mu        sync.Mutex
}

// New creates a watcher.
func New(cfg Config) (*Watcher, error) {
	if cfg.Dir == "" {
		return nil, errors.New("watch directory is required")
	}
	if cfg.Content == nil {
		return nil, errors.New("content service is required")
	}
	debounce := cfg.DebounceDelay
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &Watcher{
		dir:      cfg.Dir,
		content:  cfg.Content,
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		debounce: debounce,
		onImport: cfg.OnImport,
		pending:  make(map[string]time.Time),
	}, nil
}

// ImportAll imports every matching file currently in the directory and
// returns how many were imported.
func (w *Watcher) ImportAll(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return 0, fmt.Errorf("reading watch directory: %w", err)
	}
	n := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(w.dir, entry.Name())
		if _, ok := ParseFileName(entry.Name()); !ok {
			continue
		}
		result, err := w.ImportFile(ctx, path)
		w.report(path, result, err)
		if err == nil {
			n++
		}
	}
	return n, nil
}

// Start watches the directory until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	var err error
	w.fsWatcher, err = fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	defer w.fsWatcher.Close()

	if err := w.fsWatcher.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	logger.Info("watch: watching %s", w.dir)

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch: %v", err)

		case <-ticker.C:
			w.processPending(ctx)
		}
	}
}

// ImportFile saves one file as its content document.
func (w *Watcher) ImportFile(ctx context.Context, path string) (domain.ReindexResult, error) {
	id, ok := ParseFileName(filepath.Base(path))
	if !ok {
		return domain.ReindexResult{}, fmt.Errorf("%s: no document id: %w", path, domain.ErrInvalidInput)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.ReindexResult{}, fmt.Errorf("reading %s: %w", path, err)
	}

	doc := &domain.ContentDocument{
		ID:        id,
		Title:     titleOf(string(data), filepath.Base(path)),
		Body:      string(data),
		Status:    domain.StatusPublish,
		Type:      "page",
		UpdatedAt: time.Now(),
	}
	if existing, err := w.content.Get(ctx, id); err == nil {
		doc.Type = existing.Type
		doc.CoverAssetID = existing.CoverAssetID
		doc.URL = existing.URL
	}
	if doc.URL == "" && w.baseURL != "" {
		doc.URL = w.baseURL + "/" + strconv.FormatInt(id, 10)
	}
	return w.content.Save(ctx, doc)
}

// RemoveFile trashes the document mapped to path.
func (w *Watcher) RemoveFile(ctx context.Context, path string) error {
	id, ok := ParseFileName(filepath.Base(path))
	if !ok {
		return nil
	}
	if err := w.content.Trash(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("trashing %d: %w", id, err)
	}
	return nil
}

// ParseFileName returns the document id encoded in a file name.
func ParseFileName(name string) (int64, bool) {
	m := fileNamePattern.FindStringSubmatch(strings.ToLower(name))
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if _, ok := ParseFileName(filepath.Base(event.Name)); !ok {
		return
	}
	logger.Debug("watch: %s %s", event.Op, event.Name)

	switch {
	case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
		w.mu.Lock()
		w.pending[event.Name] = time.Now()
		w.mu.Unlock()
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.mu.Lock()
		delete(w.pending, event.Name)
		w.mu.Unlock()
		if err := w.RemoveFile(ctx, event.Name); err != nil {
			logger.Warn("watch: %v", err)
		}
	}
}

// processPending imports files whose last event is older than the
// debounce delay.
func (w *Watcher) processPending(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	var ready []string
	for path, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			ready = append(ready, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range ready {
		result, err := w.ImportFile(ctx, path)
		w.report(path, result, err)
	}
}

func (w *Watcher) report(path string, result domain.ReindexResult, err error) {
	if err != nil {
		logger.Warn("watch: import %s: %v", path, err)
	} else {
		logger.Debug("watch: imported %s (%d assets)", path, len(result.Entries))
	}
	if w.onImport != nil {
		w.onImport(path, result, err)
	}
}

// titleOf returns the page title, or the file name without extension.
func titleOf(doc, name string) string {
	if m := titlePattern.FindStringSubmatch(doc); m != nil {
		if t := strings.TrimSpace(html.UnescapeString(m[1])); t != "" {
			return t
		}
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}
