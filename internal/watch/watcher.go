// Package watch notifies about changes to a single configuration file.
package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/webbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/webbuilder/internal/logfields"
)

// DefaultDebounce coalesces the burst of events editors produce on save.
const DefaultDebounce = 300 * time.Millisecond

// ConfigWatcher monitors a configuration file and emits one notification per
// debounced burst of changes.
type ConfigWatcher struct {
	path     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	changes  chan struct{}
	once     sync.Once
	done     chan struct{}
}

// Option configures a ConfigWatcher.
type Option func(*ConfigWatcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(cw *ConfigWatcher) { cw.debounce = d }
}

// NewConfigWatcher creates a watcher for path. Call Start to begin watching.
func NewConfigWatcher(path string, opts ...Option) (*ConfigWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "failed to resolve config path").
			WithContext("path", path).
			Build()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to create file watcher").Build()
	}
	cw := &ConfigWatcher{
		path:     abs,
		debounce: DefaultDebounce,
		watcher:  w,
		changes:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(cw)
	}
	return cw, nil
}

// Changes delivers a value after each debounced change to the file.
func (cw *ConfigWatcher) Changes() <-chan struct{} { return cw.changes }

// Start watches the file's directory, which survives editors that replace
// the file on save. The loop stops when ctx is cancelled or Close is called.
func (cw *ConfigWatcher) Start(ctx context.Context) error {
	dir := filepath.Dir(cw.path)
	if err := cw.watcher.Add(dir); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to watch config directory").
			WithContext("path", dir).
			Build()
	}
	slog.Debug("Watching configuration file", logfields.File(cw.path))
	go cw.loop(ctx)
	return nil
}

// Close stops watching. It is safe to call more than once.
func (cw *ConfigWatcher) Close() error {
	var err error
	cw.once.Do(func() {
		close(cw.done)
		err = cw.watcher.Close()
	})
	return err
}

func (cw *ConfigWatcher) loop(ctx context.Context) {
	name := filepath.Base(cw.path)
	timer := time.NewTimer(cw.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-cw.done:
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			switch {
			case event.Has(fsnotify.Write), event.Has(fsnotify.Create), event.Has(fsnotify.Rename):
				slog.Debug("Config file change detected", logfields.File(event.Name), slog.String("op", event.Op.String()))
				timer.Reset(cw.debounce)
			case event.Has(fsnotify.Remove):
				slog.Warn("Config file removed", logfields.File(event.Name))
			}
		case <-timer.C:
			select {
			case cw.changes <- struct{}{}:
			default:
			}
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Config watcher error", logfields.Error(err))
		}
	}
}
