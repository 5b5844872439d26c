// Package watch keeps the conflict registry in step with files edited
// outside the editor.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/youruser/snipstage/internal/buffer"
	"github.com/youruser/snipstage/internal/conflict"
	"github.com/youruser/snipstage/internal/logging"
)

// DefaultDebounce is how long a file must stay quiet before it is rescanned.
const DefaultDebounce = 200 * time.Millisecond

// Loader maps changed files onto buffers. workspace.Workspace implements it.
type Loader interface {
	Name(path string) (string, error)
	Reload(path string) (*buffer.Buffer, bool, error)
	Forget(path string)
}

// Stats tracks watcher activity.
type Stats struct {
	FilesCreated  int
	FilesModified int
	FilesDeleted  int
	Refreshes     int
	Errors        int
	LastEventTime time.Time
	LastEventPath string
	LastEventType string
}

// Watcher rescans files under a root when they change on disk.
type Watcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	root        string
	registry    *conflict.Registry
	load        Loader
	debounceMap map[string]time.Time
	debounceDur time.Duration
	onRefresh   func(name string, positions []conflict.Position)
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	stats       Stats
}

// New creates a watcher for root. Changed files are loaded through load
// and refreshed in reg.
func New(root string, reg *conflict.Registry, load Loader) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:     fw,
		root:        root,
		registry:    reg,
		load:        load,
		debounceMap: make(map[string]time.Time),
		debounceDur: DefaultDebounce,
	}, nil
}

// SetDebounce changes the quiet period. Call before Start.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.mu.Lock()
	w.debounceDur = d
	w.mu.Unlock()
}

// OnRefresh registers fn to run after each rescan with the file's positions.
// Call before Start.
func (w *Watcher) OnRefresh(fn func(name string, positions []conflict.Position)) {
	w.mu.Lock()
	w.onRefresh = fn
	w.mu.Unlock()
}

// Start watches root and its subdirectories. It returns once the watches
// are in place; events are handled on a background goroutine until Stop
// is called or ctx is cancelled. A stopped watcher can be started again.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	if w.watcher == nil {
		fw, err := fsnotify.NewWatcher()
		if err != nil {
			w.mu.Unlock()
			return err
		}
		w.watcher = fw
	}
	fw := w.watcher
	stop, done := make(chan struct{}), make(chan struct{})
	w.stopCh, w.doneCh = stop, done
	w.running = true
	w.mu.Unlock()

	if err := w.addTree(w.root); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}
	logging.Get().Info("watch: watching %s", w.root)

	go w.run(ctx, fw, stop, done)
	return nil
}

// Stop ends the event loop and releases the fsnotify handle.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	stop, done := w.stopCh, w.doneCh
	w.mu.Unlock()

	close(stop)
	<-done

	w.mu.Lock()
	fw := w.watcher
	w.watcher = nil
	w.mu.Unlock()
	if err := fw.Close(); err != nil {
		logging.Get().Error("watch: error closing watcher: %v", err)
	}
	logging.Get().Info("watch: stopped")
}

// Stats returns a snapshot of the counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && ignored(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			logging.Get().Debug("watch: cannot watch %s: %v", path, err)
		}
		return nil
	})
}

func ignored(name string) bool {
	return strings.HasPrefix(name, ".") || name == "node_modules" || name == "vendor"
}

func (w *Watcher) run(ctx context.Context, fw *fsnotify.Watcher, stop, done chan struct{}) {
	defer close(done)

	w.mu.Lock()
	tick := max(w.debounceDur/4, 5*time.Millisecond)
	w.mu.Unlock()
	debounceTicker := time.NewTicker(tick)
	defer debounceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-stop:
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			logging.Get().Error("watch: %v", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-debounceTicker.C:
			w.processDebounced()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	var eventType string
	switch {
	case event.Has(fsnotify.Create):
		eventType = "create"
	case event.Has(fsnotify.Write):
		eventType = "modify"
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		eventType = "delete"
	default:
		return
	}
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if part != "." && ignored(part) {
			return
		}
	}

	if eventType == "create" {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				logging.Get().Debug("watch: cannot watch new dir %s: %v", event.Name, err)
			}
			return
		}
	}

	logging.Get().Debug("watch: %s event for %s", eventType, event.Name)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.stats.LastEventTime = time.Now()
	w.stats.LastEventPath = event.Name
	w.stats.LastEventType = eventType
	switch eventType {
	case "create":
		w.stats.FilesCreated++
	case "modify":
		w.stats.FilesModified++
	case "delete":
		w.stats.FilesDeleted++
	}
	w.debounceMap[event.Name] = time.Now()
}

func (w *Watcher) processDebounced() {
	w.mu.Lock()
	now := time.Now()
	var settled []string
	for path, at := range w.debounceMap {
		if now.Sub(at) >= w.debounceDur {
			settled = append(settled, path)
			delete(w.debounceMap, path)
		}
	}
	w.mu.Unlock()

	for _, path := range settled {
		w.refresh(path)
	}
}

func (w *Watcher) refresh(path string) {
	name, err := w.load.Name(path)
	if err != nil {
		logging.Get().Debug("watch: skipping %s: %v", path, err)
		return
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		w.load.Forget(name)
		w.registry.Unwatch(name)
		w.notify(name, nil)
		return
	}

	buf, _, err := w.load.Reload(name)
	if err != nil {
		logging.Get().Error("watch: reload %s: %v", name, err)
		w.mu.Lock()
		w.stats.Errors++
		w.mu.Unlock()
		return
	}
	positions := w.registry.Refresh(buf)

	w.mu.Lock()
	w.stats.Refreshes++
	w.mu.Unlock()
	w.notify(name, positions)
}

func (w *Watcher) notify(name string, positions []conflict.Position) {
	w.mu.Lock()
	fn := w.onRefresh
	w.mu.Unlock()
	if fn != nil {
		fn(name, positions)
	}
}
