package stage

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events editors emit on save.
const DefaultDebounce = 300 * time.Millisecond

// Watcher reloads a stage file when it changes on disk.
//
// The directory is watched rather than the file, because most editors
// replace the file (rename + create) instead of writing in place.
// A file that fails to load is logged and ignored; the caller keeps the
// previous registry.
type Watcher struct {
	path     string
	onReload func(*Registry)
	debounce time.Duration
	fsw      *fsnotify.Watcher

	mu     sync.Mutex
	timer  *time.Timer
	closed bool // set when Run returns; no onReload after that
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// NewWatcher starts watching path. onReload is called from the watcher
// goroutine with each successfully loaded registry.
func NewWatcher(path string, onReload func(*Registry), opts ...WatchOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve stage file: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch init failed: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		path:     abs,
		onReload: onReload,
		debounce: DefaultDebounce,
		fsw:      fsw,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run processes file events until ctx is cancelled. It closes the
// underlying fsnotify watcher on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	defer w.stopTimer()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			w.schedule()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("stage watch error", "path", w.path, "error", err)
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

// stopTimer stops a pending reload. A reload whose timer already fired
// holds w.mu while publishing, so once stopTimer returns onReload is not
// called again.
func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *Watcher) reload() {
	reg, err := Load(w.path)
	if err != nil {
		slog.Warn("stage reload rejected, keeping previous stages",
			"path", w.path,
			"error", err,
		)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		slog.Debug("stage reload dropped, watcher stopped", "path", w.path)
		return
	}
	slog.Info("stages reloaded", "path", w.path, "stages", reg.Len())
	w.onReload(reg)
}
