package watch

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/docsmith-dev/docsmith/internal/errors"
)

// ChangeSet is a batch of changed file paths under a watched root.
type ChangeSet struct {
	// Root is the watched directory.
	Root string

	// Paths are the changed files, deduplicated and sorted.
	Paths []string
}

// Config configures the file watcher.
type Config struct {
	// Root is the directory to watch recursively.
	Root string

	// Ignore patterns to skip (globs or path segments).
	Ignore []string

	// Debounce is the quiet period before a batch is delivered.
	Debounce time.Duration
}

// DefaultIgnore contains default patterns to ignore.
var DefaultIgnore = []string{
	".git",
	".docsmith",
	"node_modules",
	"*.tmp",
	"*.swp",
	"*~",
}

// DefaultDebounce is the default quiet period before delivering a batch.
const DefaultDebounce = 100 * time.Millisecond

// Watcher monitors a directory tree and delivers ChangeSets serially:
// the callback runs synchronously on the watch loop, so one batch is
// fully handled before the next can be delivered.
type Watcher struct {
	config   Config
	log      *logrus.Entry
	mu       sync.Mutex
	onChange func(ChangeSet)
	running  bool
	stopCh   chan struct{}
}

// New creates a new file watcher.
func New(config Config) *Watcher {
	if config.Debounce == 0 {
		config.Debounce = DefaultDebounce
	}
	if len(config.Ignore) == 0 {
		config.Ignore = DefaultIgnore
	}

	return &Watcher{
		config: config,
		log:    logrus.WithField("component", "watch"),
	}
}

// OnChange sets the callback for change batches.
func (w *Watcher) OnChange(fn func(ChangeSet)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Start begins watching and blocks until the context is canceled or
// Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.mu.Unlock()

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.New("E301").Wrap(err)
	}
	defer fw.Close()

	if err := w.addRecursive(fw, w.config.Root); err != nil {
		return err
	}

	var (
		pending = make(map[string]struct{})
		timer   = time.NewTimer(w.config.Debounce)
	)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.shouldIgnore(event.Name) {
				continue
			}
			// New directories need their own watches.
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					w.addRecursive(fw, event.Name)
					continue
				}
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			pending[event.Name] = struct{}{}
			timer.Reset(w.config.Debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("watch error")
		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			sort.Strings(batch)
			pending = make(map[string]struct{})
			w.deliver(ChangeSet{Root: w.config.Root, Paths: batch})
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		close(w.stopCh)
		w.running = false
	}
}

// IsRunning returns whether the watcher is running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// deliver invokes the callback synchronously on the watch loop.
func (w *Watcher) deliver(cs ChangeSet) {
	w.mu.Lock()
	callback := w.onChange
	w.mu.Unlock()

	if callback == nil {
		return
	}
	callback(cs)
}

// addRecursive attaches watches to dir and every subdirectory.
func (w *Watcher) addRecursive(fw *fsnotify.Watcher, dir string) error {
	walkErr := filepath.Walk(dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if p != dir && w.shouldIgnore(p) {
			return filepath.SkipDir
		}
		return fw.Add(p)
	})
	if walkErr != nil {
		return errors.New("E301").WithDetail("cannot watch %s", dir).Wrap(walkErr)
	}
	return nil
}

// shouldIgnore checks if a path should be ignored.
func (w *Watcher) shouldIgnore(fullPath string) bool {
	name := filepath.Base(fullPath)
	normalized := filepath.ToSlash(fullPath)

	for _, pattern := range w.config.Ignore {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}

		if name == pattern {
			return true
		}

		if strings.ContainsAny(pattern, "*?[") {
			if matched, _ := path.Match(pattern, name); matched {
				return true
			}
			continue
		}

		if pathHasSegment(normalized, pattern) {
			return true
		}
	}

	return false
}

func pathHasSegment(p, segment string) bool {
	for _, part := range strings.Split(p, "/") {
		if part != "" && part == segment {
			return true
		}
	}
	return false
}
