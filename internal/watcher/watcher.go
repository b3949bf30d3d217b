// Package watcher monitors a folder for new video files and hands them to a
// conversion callback once they have finished being written.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"

	"reframe/internal/batch"
	"reframe/internal/logging"
)

// Handler is invoked once per settled video file.
type Handler func(ctx context.Context, path string)

// Watcher observes one directory for arriving video files. Subdirectories
// are ignored, matching folder conversion semantics.
type Watcher struct {
	dir      string
	settle   time.Duration
	interval time.Duration
	handler  Handler
	logger   *slog.Logger
	fsw      *fsnotify.Watcher
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithSettleWindow overrides how long a file's size must remain unchanged
// before it is considered complete.
func WithSettleWindow(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// New prepares a watcher over dir. Watching starts with Run.
func New(dir string, handler Handler, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		dir:      dir,
		settle:   2 * time.Second,
		interval: 500 * time.Millisecond,
		handler:  handler,
		logger:   logging.NewNop(),
		fsw:      fsw,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run watches until the context is cancelled. Each new or rewritten video
// file is settled and then handed to the handler on the watch goroutine, so
// conversions happen one at a time.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.fsw.Add(w.dir); err != nil {
		return err
	}
	w.logger.Info("watching folder", logging.String("dir", w.dir))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ctx, event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", logging.Error(err))
		}
	}
}

// Close releases the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	if !batch.SupportedSource(event.Name) {
		return
	}
	info, err := os.Stat(event.Name)
	if err != nil || info.IsDir() {
		return
	}
	if !w.waitSettled(ctx, event.Name) {
		return
	}
	w.handler(ctx, event.Name)
}

// waitSettled blocks until the file's size has been stable for the settle
// window. Returns false when the context is cancelled or the file vanishes.
func (w *Watcher) waitSettled(ctx context.Context, path string) bool {
	var lastSize int64 = -1
	stableSince := time.Now()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			info, err := os.Stat(path)
			if err != nil {
				return false
			}
			if info.Size() != lastSize {
				lastSize = info.Size()
				stableSince = time.Now()
				continue
			}
			if lastSize > 0 && time.Since(stableSince) >= w.settle {
				return true
			}
		}
	}
}
