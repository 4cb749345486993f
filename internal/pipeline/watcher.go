package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Brownie44l1/sehatin-api/internal/metrics"
)

// BundleSource builds a fresh bundle; *Loader satisfies it.
type BundleSource interface {
	Load() (*Bundle, error)
	Paths() []string
}

// Watcher reloads the bundle when any artifact file changes. A failed reload keeps the
// bundle currently being served.
type Watcher struct {
	source   BundleSource
	registry *Registry
	debounce time.Duration
	log      *zap.Logger
	watcher  *fsnotify.Watcher
	files    map[string]struct{}
}

func NewWatcher(source BundleSource, registry *Registry, debounce time.Duration, log *zap.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	files := make(map[string]struct{})
	dirs := make(map[string]struct{})
	for _, p := range source.Paths() {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			fw.Close()
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	// Directories, not files, so that replace-by-rename is seen.
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	return &Watcher{
		source:   source,
		registry: registry,
		debounce: debounce,
		log:      log,
		watcher:  fw,
		files:    files,
	}, nil
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()

	// fire is nil until a relevant event arrives; each event restarts the debounce window.
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			w.log.Debug("artifact changed", zap.String("file", ev.Name), zap.String("op", ev.Op.String()))
			fire = time.After(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("file watcher error", zap.Error(err))

		case <-fire:
			fire = nil
			w.reload()
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(ev.Name)
	if err != nil {
		return false
	}
	_, ok := w.files[abs]
	return ok
}

func (w *Watcher) reload() {
	bundle, err := w.source.Load()
	if err != nil {
		metrics.BundleReloads.WithLabelValues("error").Inc()
		w.log.Error("bundle reload failed, keeping current bundle", zap.Error(err))
		return
	}
	w.registry.Swap(bundle)
	metrics.BundleReloads.WithLabelValues("ok").Inc()
	w.log.Info("bundle reloaded")
}
