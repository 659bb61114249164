// Package watch notifies about changes to the local files of open resources.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gcviewer/backend/internal/logging"
)

// DefaultDebounce coalesces the burst of writes a GC log flush produces.
const DefaultDebounce = 500 * time.Millisecond

var logger = logging.New("watch")

// FileEvent represents a detected change to a watched file.
type FileEvent struct {
	Path      string // absolute, cleaned
	EventType string // "created" or "modified"
}

// FileWatcher watches individual files. Each file's directory is watched so
// that files replaced by rename are still seen.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration

	mu     sync.Mutex
	files  map[string]int // path -> reference count
	dirs   map[string]int
	timers map[string]*time.Timer

	done     chan struct{}
	stopOnce sync.Once
}

// NewFileWatcher creates a watcher. A non-positive debounce selects DefaultDebounce.
func NewFileWatcher(debounce time.Duration) (*FileWatcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &FileWatcher{
		watcher:  fw,
		debounce: debounce,
		files:    make(map[string]int),
		dirs:     make(map[string]int),
		timers:   make(map[string]*time.Timer),
		done:     make(chan struct{}),
	}, nil
}

func clean(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// Add starts watching path. Adding a path more than once requires as many
// Remove calls.
func (w *FileWatcher) Add(path string) error {
	path = clean(path)
	dir := filepath.Dir(path)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.dirs[dir] == 0 {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		logger.Debugf("watching directory %s", dir)
	}
	w.dirs[dir]++
	w.files[path]++
	return nil
}

// Remove releases one reference to path.
func (w *FileWatcher) Remove(path string) {
	path = clean(path)
	dir := filepath.Dir(path)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.files[path] == 0 {
		return
	}
	if w.files[path]--; w.files[path] == 0 {
		delete(w.files, path)
		if t, ok := w.timers[path]; ok {
			t.Stop()
			delete(w.timers, path)
		}
	}
	if w.dirs[dir]--; w.dirs[dir] <= 0 {
		delete(w.dirs, dir)
		if err := w.watcher.Remove(dir); err != nil {
			logger.Debugf("unwatching %s: %v", dir, err)
		}
	}
}

// Watched returns the watched files in sorted order.
func (w *FileWatcher) Watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.files))
	for p := range w.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Start delivers debounced events for watched files to handler until ctx is
// canceled or Stop is called. handler runs on a timer goroutine.
func (w *FileWatcher) Start(ctx context.Context, handler func(FileEvent)) {
	go w.watchLoop(ctx, handler)
}

// Stop stops the watcher and releases resources. Pending events are dropped.
func (w *FileWatcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		w.mu.Lock()
		for p, t := range w.timers {
			t.Stop()
			delete(w.timers, p)
		}
		w.mu.Unlock()
		err = w.watcher.Close()
	})
	return err
}

func (w *FileWatcher) stopped(ctx context.Context) bool {
	select {
	case <-w.done:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// expire drops the pending entry of path if it is still t and reports
// whether the event of t should be delivered. A timer replaced by a later
// write leaves the newer entry alone.
func (w *FileWatcher) expire(path string, t *time.Timer) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timers[path] != t {
		return false
	}
	delete(w.timers, path)
	return w.files[path] > 0
}

func (w *FileWatcher) watchLoop(ctx context.Context, handler func(FileEvent)) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			var eventType string
			switch {
			case event.Op&fsnotify.Create == fsnotify.Create:
				eventType = "created"
			case event.Op&fsnotify.Write == fsnotify.Write:
				eventType = "modified"
			default:
				continue
			}

			path := clean(event.Name)
			w.mu.Lock()
			if w.files[path] == 0 {
				w.mu.Unlock()
				continue
			}
			// Debounce: reset timer for this file
			if prev, ok := w.timers[path]; ok {
				prev.Stop()
			}
			var timer *time.Timer
			timer = time.AfterFunc(w.debounce, func() {
				if !w.expire(path, timer) || w.stopped(ctx) {
					return
				}
				logger.Debugf("file %s %s", path, eventType)
				handler(FileEvent{Path: path, EventType: eventType})
			})
			w.timers[path] = timer
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Errorf("watcher error: %v", err)

		case <-w.done:
			return
		case <-ctx.Done():
			return
		}
	}
}
