// Package watcher reports changes under the desktop root, whoever makes
// them, as debounced desktop events.
package watcher

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mark3labs/deskr/internal/bus"
	"github.com/mark3labs/deskr/internal/logger"
)

var log = logger.Named("watcher")

// DefaultDebounce coalesces bursts such as a bulk move into one event.
const DefaultDebounce = 100 * time.Millisecond

// Watcher watches every directory under a root except version-control metadata.
type Watcher struct {
	watcher  *fsnotify.Watcher
	root     string
	events   bus.Publisher
	debounce time.Duration

	mu       sync.Mutex
	pending  map[string]struct{}
	timer    *time.Timer
	onChange func(paths []string)
	closed   bool

	done    chan struct{}
	stopped chan struct{}
}

// New creates a watcher for root. Changes are published to events; nil discards them.
func New(root string, events bus.Publisher) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = bus.Discard
	}
	return &Watcher{
		watcher:  w,
		root:     root,
		events:   events,
		debounce: DefaultDebounce,
		pending:  make(map[string]struct{}),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}, nil
}

// OnChange registers fn to receive each debounced batch of relative paths.
func (w *Watcher) OnChange(fn func(paths []string)) {
	w.mu.Lock()
	w.onChange = fn
	w.mu.Unlock()
}

// Start adds watches for the tree and starts the event loop.
func (w *Watcher) Start() error {
	if err := w.addRecursive(w.root); err != nil {
		w.watcher.Close()
		return err
	}
	go w.eventLoop()
	log.Info("watching %s", w.root)
	return nil
}

// Stop ends the event loop and drops any batch not yet flushed.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	close(w.done)
	<-w.stopped
	return w.watcher.Close()
}

func skipped(name string) bool {
	return name == ".git"
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root && skipped(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			log.Warn("failed to watch %s: %v", path, err)
			if errors.Is(err, fsnotify.ErrEventOverflow) ||
				strings.Contains(err.Error(), "no space left on device") ||
				strings.Contains(err.Error(), "too many open files") {
				log.Error("inotify watch limit reached. Increase fs.inotify.max_user_watches")
				return filepath.SkipDir
			}
		}
		return nil
	})
}

func (w *Watcher) eventLoop() {
	defer close(w.stopped)

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Warn("watch error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return
	}

	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return
	}
	rel = filepath.ToSlash(rel)
	for _, part := range strings.Split(rel, "/") {
		if skipped(part) {
			return
		}
	}

	if event.Has(fsnotify.Create) {
		if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				log.Warn("failed to watch new dir %s: %v", event.Name, err)
			}
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.pending[rel] = struct{}{}
	if w.timer == nil {
		w.timer = time.AfterFunc(w.debounce, w.flush)
	} else {
		w.timer.Reset(w.debounce)
	}
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if w.closed || len(w.pending) == 0 {
		w.timer = nil
		w.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	w.timer = nil
	fn := w.onChange
	w.mu.Unlock()

	sort.Strings(paths)
	log.Debug("desktop changed: %d paths", len(paths))
	if err := w.events.Publish(bus.KindDesktop, bus.DesktopChanged{Paths: paths}); err != nil {
		log.Warn("publishing desktop change: %v", err)
	}
	if fn != nil {
		fn(paths)
	}
}
