package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/timvw/devloop/internal/workspace"
)

func TestRelevant(t *testing.T) {
	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"rust source write", fsnotify.Event{Name: "/p/src/lib.rs", Op: fsnotify.Write}, true},
		{"rust source create", fsnotify.Event{Name: "/p/src/new.rs", Op: fsnotify.Create}, true},
		{"manifest", fsnotify.Event{Name: "/p/Cargo.toml", Op: fsnotify.Write}, true},
		{"lockfile removed", fsnotify.Event{Name: "/p/Cargo.lock", Op: fsnotify.Remove}, true},
		{"chmod only", fsnotify.Event{Name: "/p/src/lib.rs", Op: fsnotify.Chmod}, false},
		{"readme", fsnotify.Event{Name: "/p/README.md", Op: fsnotify.Write}, false},
		{"editor swap file", fsnotify.Event{Name: "/p/src/.lib.rs.swp", Op: fsnotify.Write}, false},
		{"hidden rust file", fsnotify.Event{Name: "/p/src/.tmp.rs", Op: fsnotify.Write}, false},
		{"target dir", fsnotify.Event{Name: "/p/target", Op: fsnotify.Create}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Relevant(tt.ev); got != tt.want {
				t.Errorf("Relevant(%v) = %v, want %v", tt.ev, got, tt.want)
			}
		})
	}
}

func newProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "src"), 0o755); err != nil {
		t.Fatalf("mkdir src: %v", err)
	}
	return root
}

func startWatcher(t *testing.T, root string) *Watcher {
	t.Helper()
	w, err := New(30*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	if err := w.Retarget(root); err != nil {
		t.Fatalf("retarget: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	t.Cleanup(func() {
		cancel()
		w.Stop()
	})
	return w
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestWatcher_DebouncesBurstIntoOneRecompile(t *testing.T) {
	root := newProject(t)
	w := startWatcher(t, root)

	for i := 0; i < 5; i++ {
		writeFile(t, filepath.Join(root, "src", "lib.rs"), "fn main() {}\n")
	}

	select {
	case e := <-w.Events():
		if e.Pipe == nil || e.Pipe.Name != workspace.RecompileMessage || !e.Pipe.IsPrivate {
			t.Fatalf("expected private recompile pipe, got %+v", e)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no recompile after source change")
	}

	select {
	case e := <-w.Events():
		t.Fatalf("expected a single recompile for one burst, got another: %+v", e)
	case <-time.After(200 * time.Millisecond):
	}
	if got := w.Fired(); got != 1 {
		t.Errorf("Fired() = %d, want 1", got)
	}
}

func TestWatcher_IgnoresUnrelatedFiles(t *testing.T) {
	root := newProject(t)
	w := startWatcher(t, root)

	writeFile(t, filepath.Join(root, "README.md"), "hello\n")
	writeFile(t, filepath.Join(root, "notes.txt"), "todo\n")

	select {
	case e := <-w.Events():
		t.Fatalf("unexpected recompile: %+v", e)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_FollowsRetarget(t *testing.T) {
	first := newProject(t)
	second := newProject(t)
	w := startWatcher(t, first)

	if err := w.Retarget(second); err != nil {
		t.Fatalf("retarget: %v", err)
	}
	if w.Root() != second {
		t.Fatalf("Root() = %q, want %q", w.Root(), second)
	}

	writeFile(t, filepath.Join(first, "Cargo.toml"), "[package]\n")
	select {
	case e := <-w.Events():
		t.Fatalf("old root still watched: %+v", e)
	case <-time.After(200 * time.Millisecond):
	}

	writeFile(t, filepath.Join(second, "Cargo.toml"), "[package]\n")
	select {
	case <-w.Events():
	case <-time.After(2 * time.Second):
		t.Fatal("no recompile from new root")
	}
}

func TestWatcher_RetargetSkipsMissingDirs(t *testing.T) {
	w, err := New(0, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer w.Stop()

	if err := w.Retarget(filepath.Join(t.TempDir(), "does-not-exist")); err != nil {
		t.Fatalf("retarget missing dir: %v", err)
	}
	if len(w.dirs) != 0 {
		t.Errorf("expected no watched dirs, got %v", w.dirs)
	}
}
