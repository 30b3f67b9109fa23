package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"tubeqa/internal/logging"
	"tubeqa/internal/services"
)

// settleDelay gives the writing process time to finish the file before we
// read it.
const settleDelay = 200 * time.Millisecond

// Handler processes one URL. Errors are logged, not fatal to the watcher.
type Handler func(ctx context.Context, url string) error

// Watcher consumes URL drop files from a directory.
type Watcher struct {
	dir     string
	handler Handler
	logger  *slog.Logger
}

// New creates a watcher over dir.
func New(dir string, handler Handler, logger *slog.Logger) (*Watcher, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, services.Wrap(services.ErrValidation, "watcher", "new", "watch dir required", nil)
	}
	if handler == nil {
		return nil, services.Wrap(services.ErrValidation, "watcher", "new", "handler required", nil)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Watcher{
		dir:     dir,
		handler: handler,
		logger:  logging.NewComponentLogger(logger, "watcher"),
	}, nil
}

// Run watches until ctx is cancelled. Existing drop files are processed
// before event handling begins.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return services.Wrap(services.ErrValidation, "watcher", "run", "ensure watch dir", err)
	}

	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		return services.Wrap(services.ErrValidation, "watcher", "run", "create filesystem watcher", err)
	}
	defer notifier.Close()

	if err := notifier.Add(w.dir); err != nil {
		return services.Wrap(services.ErrValidation, "watcher", "run", "watch directory", err)
	}

	w.processExisting(ctx)
	w.logger.Info("watching for url drop files", logging.String("dir", w.dir))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-notifier.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !isDropFile(event.Name) {
				continue
			}
			time.Sleep(settleDelay)
			w.processFile(ctx, event.Name)
		case err, ok := <-notifier.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("filesystem watch error", logging.Error(err))
		}
	}
}

func (w *Watcher) processExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("cannot list watch dir", logging.Error(err))
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(w.dir, entry.Name())
		if isDropFile(path) {
			w.processFile(ctx, path)
		}
	}
}

// processFile handles every URL line in the file, then marks the file done.
// A handler failure for one URL does not stop the others.
func (w *Watcher) processFile(ctx context.Context, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		w.logger.Warn("cannot read drop file", logging.String("path", path), logging.Error(err))
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		url := strings.TrimSpace(line)
		if url == "" || strings.HasPrefix(url, "#") {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		w.logger.Info("processing dropped url", logging.String(logging.FieldURL, url))
		if err := w.handler(ctx, url); err != nil {
			w.logger.Error("drop file url failed",
				logging.String(logging.FieldURL, url),
				logging.Error(err))
		}
	}

	if err := os.Rename(path, path+".done"); err != nil {
		w.logger.Warn("cannot mark drop file done", logging.String("path", path), logging.Error(err))
	}
}

func isDropFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".url":
		return true
	default:
		return false
	}
}
