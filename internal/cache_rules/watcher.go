package cache_rules

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"go-cache-interceptor/internal/directive"
	"go-cache-interceptor/internal/interfaces"
	"go-cache-interceptor/internal/models"
)

const defaultDebounce = 100 * time.Millisecond

// Watcher serves the rules of a file and swaps them when the file changes.
// A reload that fails keeps the previous rules.
type Watcher struct {
	path     string
	logger   *zap.Logger
	debounce time.Duration
	current  atomic.Pointer[Classifier]
	watcher  *fsnotify.Watcher

	mu        sync.Mutex
	running   bool
	stopCh    chan struct{}
	stoppedCh chan struct{}
}

var _ interfaces.DirectiveClassifier = (*Watcher)(nil)

// NewWatcher loads the rules at path. A zero debounce uses the default.
func NewWatcher(path string, debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	w := &Watcher{
		path:     absPath,
		logger:   logger,
		debounce: debounce,
	}
	if err := w.Reload(); err != nil {
		return nil, err
	}
	return w, nil
}

// Reload loads the file and swaps the rules when it is valid
func (w *Watcher) Reload() error {
	config, err := LoadRulesConfig(w.path, w.logger)
	if err != nil {
		return err
	}
	classifier, err := NewClassifier(config, w.logger)
	if err != nil {
		return err
	}
	w.current.Store(classifier)
	return nil
}

// Start watches the directory of the rules file until ctx is done or Stop is called
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// editors replace files by rename, so the directory is watched
	if err := fsWatcher.Add(filepath.Dir(w.path)); err != nil {
		_ = fsWatcher.Close()
		return err
	}

	w.watcher = fsWatcher
	w.running = true
	w.stopCh = make(chan struct{})
	w.stoppedCh = make(chan struct{})
	go w.watch(ctx)

	w.logger.Info("Watching cache rules", zap.String("path", w.path))
	return nil
}

// Stop ends watching
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	close(w.stopCh)
	stopped := w.stoppedCh
	w.mu.Unlock()

	<-stopped
	return w.watcher.Close()
}

func (w *Watcher) watch(ctx context.Context) {
	defer close(w.stoppedCh)

	var (
		timer      *time.Timer
		debounceCh <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path || event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			debounceCh = timer.C
		case <-debounceCh:
			debounceCh = nil
			if err := w.Reload(); err != nil {
				w.logger.Warn("Cache rules reload failed, keeping previous rules", zap.Error(err))
				continue
			}
			w.logger.Info("Cache rules reloaded", zap.String("path", w.path))
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Cache rules watcher error", zap.Error(err))
		}
	}
}

// Directives delegates to the current rules
func (w *Watcher) Directives(req models.RequestMetadata) []directive.Directive {
	return w.current.Load().Directives(req)
}

// ShouldCache delegates to the current rules
func (w *Watcher) ShouldCache(responseType models.ResponseType, req models.RequestMetadata) bool {
	return w.current.Load().ShouldCache(responseType, req)
}
