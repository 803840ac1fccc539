// Package watch monitors a directory for new or updated transcript files.
// Events are debounced per file so a transcript being written in several
// chunks is reported once, after it settles.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/demoplan/demoplan/internal/logging"
)

// DefaultDebounce is how long a file must stay quiet before it is
// reported.
const DefaultDebounce = 2 * time.Second

// Config configures a Watcher.
type Config struct {
	// Dir is the directory to watch. Subdirectories are not watched.
	Dir string

	// Debounce is the per-file quiet period. Zero means DefaultDebounce.
	Debounce time.Duration

	// Extensions are the file suffixes reported, lowercase with leading
	// dot. Empty means every file.
	Extensions []string
}

// DefaultConfig returns a Config watching dir for transcript files.
func DefaultConfig(dir string) Config {
	return Config{
		Dir:        dir,
		Debounce:   DefaultDebounce,
		Extensions: []string{".txt", ".md"},
	}
}

// Watcher reports settled files from a watched directory.
type Watcher struct {
	cfg    Config
	fsw    *fsnotify.Watcher
	events chan string
	done   chan struct{}

	stopOnce sync.Once
	stopErr  error

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// New validates the directory and prepares a Watcher. Call Start to
// begin receiving events.
func New(cfg Config) (*Watcher, error) {
	info, err := os.Stat(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to access watch directory %s: %w", cfg.Dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch path %s is not a directory", cfg.Dir)
	}

	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	for i, ext := range cfg.Extensions {
		cfg.Extensions[i] = strings.ToLower(ext)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	return &Watcher{
		cfg:    cfg,
		fsw:    fsw,
		events: make(chan string, 16),
		done:   make(chan struct{}),
		timers: make(map[string]*time.Timer),
	}, nil
}

// Events returns the channel of settled file paths.
func (w *Watcher) Events() <-chan string {
	return w.events
}

// Start begins watching.
func (w *Watcher) Start() error {
	if err := w.fsw.Add(w.cfg.Dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.cfg.Dir, err)
	}
	go w.loop()
	logging.Info("watching directory", "dir", w.cfg.Dir, "debounce", w.cfg.Debounce)
	return nil
}

// Stop shuts the watcher down. Pending debounce timers are dropped.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() {
		close(w.done)
		w.stopErr = w.fsw.Close()

		w.mu.Lock()
		for path, timer := range w.timers {
			timer.Stop()
			delete(w.timers, path)
		}
		w.mu.Unlock()
	})
	return w.stopErr
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logging.Warn("watch error", "error", err)
		}
	}
}

// handle starts or resets the debounce timer for a file. A timer that
// fires while its file is being written again may produce a duplicate
// event; consumers must tolerate that.
func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
		return
	}
	if !w.wants(event.Name) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.timers[event.Name]; ok {
		timer.Reset(w.cfg.Debounce)
		return
	}

	path := event.Name
	w.timers[path] = time.AfterFunc(w.cfg.Debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		select {
		case w.events <- path:
			logging.Debug("file settled", "path", path)
		case <-w.done:
		}
	})
}

func (w *Watcher) wants(name string) bool {
	if len(w.cfg.Extensions) == 0 {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	for _, want := range w.cfg.Extensions {
		if ext == want {
			return true
		}
	}
	return false
}
