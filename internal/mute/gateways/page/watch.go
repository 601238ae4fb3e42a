package page

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/haukened/rr-mute/internal/mute/common/log"
	"github.com/haukened/rr-mute/internal/mute/domain"
)

// Watcher observes the snapshot file for writes and turns them into page
// events by refreshing the Source. It watches the containing directory so
// atomic replace-by-rename writes are seen too. Debouncing is the
// consumer's concern; the watcher forwards every notable change.
type Watcher struct {
	src    *Source
	logger log.Logger
	events chan domain.PageEvent

	mu      sync.Mutex
	running bool
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
}

// NewWatcher creates a Watcher over the source's snapshot file.
func NewWatcher(src *Source, logger log.Logger) *Watcher {
	return &Watcher{
		src:    src,
		logger: logger,
		events: make(chan domain.PageEvent, 16),
		stopCh: make(chan struct{}),
	}
}

// Events returns the channel page events are delivered on.
func (w *Watcher) Events() <-chan domain.PageEvent {
	return w.events
}

// Start begins watching the snapshot file's directory.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("page watcher already running")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	dir := filepath.Dir(w.src.Path())
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.watcher = fw
	w.running = true

	w.logger.Info(map[string]any{
		"path": w.src.Path(),
	}, "page watcher started")

	go w.watchLoop(ctx)
	return nil
}

// Stop shuts the watcher down and closes the event channel.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	close(w.stopCh)
	err := w.watcher.Close()
	w.running = false

	w.logger.Info(map[string]any{
		"path": w.src.Path(),
	}, "page watcher stopped")
	return err
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer close(w.events)

	target := filepath.Clean(w.src.Path())
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
				continue
			}
			w.refresh(ctx)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn(map[string]any{
				"error": err.Error(),
			}, "page watcher error")
		}
	}
}

// refresh re-reads the snapshot and forwards a notable change. Read
// failures are logged and dropped; the next write triggers another attempt.
func (w *Watcher) refresh(ctx context.Context) {
	ev, ok, err := w.src.Refresh()
	if err != nil {
		w.logger.Debug(map[string]any{
			"path":  w.src.Path(),
			"error": err.Error(),
		}, "snapshot refresh failed")
		return
	}
	if !ok {
		return
	}
	select {
	case w.events <- ev:
	case <-ctx.Done():
	case <-w.stopCh:
	}
}
