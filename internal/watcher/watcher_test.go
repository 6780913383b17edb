package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/coder/quartz"
)

type recorder struct {
	mu    sync.Mutex
	paths []string
	ch    chan string
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan string, 16)}
}

func (r *recorder) onChange(path string) {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
	select {
	case r.ch <- path:
	default:
	}
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.paths)
}

func TestDirWatcherStopIsIdempotent(t *testing.T) {
	t.Parallel()

	dw, err := NewDirWatcher(t.TempDir(), Config{OnChange: func(string) {}})
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}

	dw.Stop()
	dw.Stop()
}

func TestNewDirWatcherValidatesConfig(t *testing.T) {
	t.Parallel()

	if _, err := NewDirWatcher(t.TempDir(), Config{}); err == nil {
		t.Fatal("expected error without OnChange")
	}
	if _, err := NewDirWatcher(t.TempDir(), Config{Pattern: "[", OnChange: func(string) {}}); err == nil {
		t.Fatal("expected error for malformed pattern")
	}
}

func TestDirWatcherDetectsNewHandHistory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rec := newRecorder()
	dw, err := NewDirWatcher(dir, Config{Pattern: "HH*.txt", OnChange: rec.onChange})
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer dw.Stop()

	if err := dw.Start(); err != nil {
		t.Fatalf("start watcher: %v", err)
	}

	newPath := filepath.Join(dir, "HH20260221 Alpha.txt")
	if err := os.WriteFile(newPath, []byte("Hand #1: Hold'em No Limit (1/2)"), 0o600); err != nil {
		t.Fatalf("write hand history: %v", err)
	}

	select {
	case got := <-rec.ch:
		if filepath.Clean(got) != filepath.Clean(newPath) {
			t.Fatalf("detected path = %q, want %q", got, newPath)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for hand history detection")
	}
}

func TestDirWatcherIgnoresNonMatchingFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	rec := newRecorder()
	dw, err := NewDirWatcher(dir, Config{Pattern: "HH*.txt", OnChange: rec.onChange})
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer dw.Stop()

	if err := dw.Start(); err != nil {
		t.Fatalf("start watcher: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "notes.md"), []byte("ignore me"), 0o600); err != nil {
		t.Fatalf("write non-matching file: %v", err)
	}

	select {
	case got := <-rec.ch:
		t.Fatalf("unexpected detection: %q", got)
	case <-time.After(500 * time.Millisecond):
	}
}

func TestDirWatcherPollReportsOnlyChanges(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	existing := filepath.Join(dir, "HH1.txt")
	if err := os.WriteFile(existing, []byte("Hand #1"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	rec := newRecorder()
	dw, err := NewDirWatcher(dir, Config{
		Pattern:  "HH*.txt",
		OnChange: rec.onChange,
		Clock:    quartz.NewMock(t),
	})
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer dw.Stop()

	dw.prime()
	dw.poll()
	if n := rec.count(); n != 0 {
		t.Fatalf("primed file reported %d times", n)
	}

	if err := os.WriteFile(existing, []byte("Hand #1\n\nHand #2"), 0o600); err != nil {
		t.Fatalf("append: %v", err)
	}
	dw.poll()
	dw.poll()
	if n := rec.count(); n != 1 {
		t.Fatalf("changed file reported %d times, want 1", n)
	}

	dw.forget(existing)
	dw.poll()
	if n := rec.count(); n != 2 {
		t.Fatalf("forgotten file should be reported again, got %d", n)
	}
}
