// Package watch triggers rebuilds when the sources of the build target change.
//
// It watches the target root and its src directory (not recursively) and
// emits a private recompile message after changes to Rust sources or the
// Cargo manifest have settled for the debounce interval. Bursts of writes
// from one save collapse into a single rebuild.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/timvw/devloop/internal/events"
)

// DefaultDebounce is the quiet period before a rebuild is requested.
const DefaultDebounce = 500 * time.Millisecond

// Watcher watches the build target for source changes.
type Watcher struct {
	mu       sync.Mutex
	fs       *fsnotify.Watcher
	root     string
	dirs     []string
	debounce time.Duration
	log      *zap.Logger

	out     chan events.Event
	stopCh  chan struct{}
	doneCh  chan struct{}
	running bool
	fired   int
}

// New returns a Watcher. A non-positive debounce uses DefaultDebounce.
func New(debounce time.Duration, log *zap.Logger) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{
		fs:       fs,
		debounce: debounce,
		log:      log,
		out:      make(chan events.Event, 1),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Events returns the channel of recompile requests. It is closed by Stop.
func (w *Watcher) Events() <-chan events.Event {
	return w.out
}

// Root returns the watched target root.
func (w *Watcher) Root() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.root
}

// Retarget moves the watch to a new build target root. Missing directories
// are skipped.
func (w *Watcher) Retarget(root string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, d := range w.dirs {
		_ = w.fs.Remove(d)
	}
	w.dirs = nil
	w.root = root
	if root == "" {
		return nil
	}

	for _, d := range []string{root, filepath.Join(root, "src")} {
		if info, err := os.Stat(d); err != nil || !info.IsDir() {
			continue
		}
		if err := w.fs.Add(d); err != nil {
			return err
		}
		w.dirs = append(w.dirs, d)
	}
	w.log.Debug("watching build target", zap.String("root", root), zap.Strings("dirs", w.dirs))
	return nil
}

// Start begins watching in a goroutine. It is a no-op if already running.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	go w.run(ctx)
}

// Stop stops the watcher, waits for its goroutine and closes Events.
func (w *Watcher) Stop() {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}
	if err := w.fs.Close(); err != nil {
		w.log.Warn("closing file watcher", zap.Error(err))
	}
}

// Fired returns the number of recompile requests emitted.
func (w *Watcher) Fired() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fired
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)
	defer close(w.out)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !Relevant(ev) {
				continue
			}
			w.log.Debug("source changed", zap.String("path", ev.Name), zap.Stringer("op", ev.Op))
			timer.Reset(w.debounce)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("file watcher error", zap.Error(err))
		case <-timer.C:
			w.emit()
		}
	}
}

func (w *Watcher) emit() {
	select {
	case w.out <- events.Recompile():
		w.mu.Lock()
		w.fired++
		w.mu.Unlock()
	default:
		// A rebuild is already queued.
	}
}

// Relevant reports whether a filesystem event should trigger a rebuild.
func Relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	switch base {
	case "Cargo.toml", "Cargo.lock":
		return true
	}
	return filepath.Ext(base) == ".rs"
}
