// Package watch reloads routes from a config file when it changes on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/getmockd/mockroute/pkg/config"
	"github.com/getmockd/mockroute/pkg/logging"
	"github.com/getmockd/mockroute/pkg/route"
)

// DefaultDebounce coalesces the burst of events an editor save produces.
const DefaultDebounce = 100 * time.Millisecond

// Applier receives the routes of each successful reload.
// *engine.Mutator satisfies it.
type Applier interface {
	Apply(routes []route.Route) (int, error)
}

// Watcher re-reads one config file and applies its routes on change.
// Reloads only upsert; routes removed from the file stay in the table.
type Watcher struct {
	path     string
	target   Applier
	log      *slog.Logger
	debounce time.Duration
	onReload func(n int, err error)
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(w *Watcher) {
		if log != nil {
			w.log = log
		}
	}
}

// WithDebounce sets the quiet period before a reload. Zero reloads on every event.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithReloadHook is called after every reload attempt.
func WithReloadHook(fn func(n int, err error)) Option {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// New creates a Watcher for the config file at path.
func New(path string, target Applier, opts ...Option) *Watcher {
	w := &Watcher{
		path:     filepath.Clean(path),
		target:   target,
		log:      logging.Nop(),
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Reload loads the file and applies its routes. A file that fails to load
// or validate leaves the table untouched.
func (w *Watcher) Reload() (int, error) {
	cfg, err := config.LoadFromFile(w.path)
	if err != nil {
		return 0, err
	}
	n, err := w.target.Apply(cfg.RouteList())
	if err != nil {
		return 0, fmt.Errorf("apply %s: %w", w.path, err)
	}
	return n, nil
}

// Run watches until ctx is cancelled. The parent directory is watched so
// that editors which replace the file by rename are still seen.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", w.path, err)
	}
	w.log.Info("watching config file", "path", w.path)

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return errors.New("watcher closed")
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.log.Debug("config file changed", "op", event.Op.String())
			if w.debounce <= 0 {
				w.reload()
				continue
			}
			timer.Reset(w.debounce)

		case <-timer.C:
			w.reload()

		case err, ok := <-fw.Errors:
			if !ok {
				return errors.New("watcher closed")
			}
			w.log.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	n, err := w.Reload()
	if err != nil {
		w.log.Warn("config reload failed, keeping current routes", "path", w.path, "error", err)
	} else {
		w.log.Info("config reloaded", "path", w.path, "routes", n)
	}
	if w.onReload != nil {
		w.onReload(n, err)
	}
}
