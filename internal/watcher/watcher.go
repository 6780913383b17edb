package watcher

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/coder/quartz"
	"github.com/fsnotify/fsnotify"
)

const (
	DefaultPattern      = "*.txt"
	DefaultPollInterval = 2 * time.Second
)

// Config controls a DirWatcher. OnChange is required.
type Config struct {
	// Pattern is matched against base names, e.g. "HH*.txt".
	Pattern      string
	PollInterval time.Duration
	OnChange     func(path string)
	OnError      func(err error)
	Clock        quartz.Clock
}

type fileState struct {
	size    int64
	modTime time.Time
}

// DirWatcher reports hand-history files in a directory that were created or
// changed. Files present when Start is called are recorded silently.
type DirWatcher struct {
	Dir string

	cfg      Config
	watcher  *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once

	mu   sync.Mutex
	seen map[string]fileState
}

// NewDirWatcher creates a watcher for dir.
func NewDirWatcher(dir string, cfg Config) (*DirWatcher, error) {
	if cfg.OnChange == nil {
		return nil, fmt.Errorf("watcher: OnChange is required")
	}
	if cfg.Pattern == "" {
		cfg.Pattern = DefaultPattern
	}
	if _, err := filepath.Match(cfg.Pattern, ""); err != nil {
		return nil, fmt.Errorf("watcher: bad pattern %q: %w", cfg.Pattern, err)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = quartz.NewReal()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	return &DirWatcher{
		Dir:     filepath.Clean(dir),
		cfg:     cfg,
		watcher: w,
		done:    make(chan struct{}),
		seen:    make(map[string]fileState),
	}, nil
}

// Start begins watching for file changes.
func (dw *DirWatcher) Start() error {
	slog.Info("watcher starting", "dir", dw.Dir, "pattern", dw.cfg.Pattern)
	if err := dw.watcher.Add(dw.Dir); err != nil {
		return fmt.Errorf("watch directory %s: %w", dw.Dir, err)
	}
	dw.prime()
	go dw.watchLoop()
	return nil
}

// Stop stops the watcher. It is safe to call more than once.
func (dw *DirWatcher) Stop() {
	dw.stopOnce.Do(func() {
		slog.Info("watcher stopped", "dir", dw.Dir)
		close(dw.done)
		_ = dw.watcher.Close()
	})
}

func (dw *DirWatcher) watchLoop() {
	ticker := dw.cfg.Clock.NewTicker(dw.cfg.PollInterval, "watcher", "poll")
	defer ticker.Stop()

	for {
		select {
		case <-dw.done:
			return
		case event, ok := <-dw.watcher.Events:
			if !ok {
				return
			}
			if (event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) && dw.matches(event.Name) {
				dw.check(event.Name)
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				dw.forget(event.Name)
			}
		case err, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}
			dw.reportError(err)
		case <-ticker.C:
			// Periodic poll as fallback
			dw.poll()
		}
	}
}

func (dw *DirWatcher) matches(path string) bool {
	if filepath.Dir(filepath.Clean(path)) != dw.Dir {
		return false
	}
	ok, err := filepath.Match(dw.cfg.Pattern, filepath.Base(path))
	return err == nil && ok
}

func (dw *DirWatcher) files() ([]string, error) {
	return filepath.Glob(filepath.Join(dw.Dir, dw.cfg.Pattern))
}

// prime records the current state of every matching file without reporting.
func (dw *DirWatcher) prime() {
	paths, err := dw.files()
	if err != nil {
		dw.reportError(err)
		return
	}
	dw.mu.Lock()
	defer dw.mu.Unlock()
	for _, p := range paths {
		if st, ok := stat(p); ok {
			dw.seen[filepath.Clean(p)] = st
		}
	}
}

func (dw *DirWatcher) poll() {
	paths, err := dw.files()
	if err != nil {
		dw.reportError(err)
		return
	}
	for _, p := range paths {
		dw.check(p)
	}
}

// check reports path when its size or modification time differs from the
// last recorded state.
func (dw *DirWatcher) check(path string) {
	path = filepath.Clean(path)
	st, ok := stat(path)
	if !ok {
		return
	}
	dw.mu.Lock()
	prev, known := dw.seen[path]
	changed := !known || prev != st
	if changed {
		dw.seen[path] = st
	}
	dw.mu.Unlock()

	if changed {
		slog.Debug("hand history changed", "path", path, "size", st.size)
		dw.cfg.OnChange(path)
	}
}

func (dw *DirWatcher) forget(path string) {
	dw.mu.Lock()
	delete(dw.seen, filepath.Clean(path))
	dw.mu.Unlock()
}

func (dw *DirWatcher) reportError(err error) {
	if dw.cfg.OnError != nil {
		dw.cfg.OnError(err)
		return
	}
	slog.Warn("watcher error", "dir", dw.Dir, "error", err)
}

func stat(path string) (fileState, bool) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return fileState{}, false
	}
	return fileState{size: info.Size(), modTime: info.ModTime()}, true
}
