// Package watcher reports changes to item files with per-file debouncing.
package watcher

import (
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/vscroll/internal/log"
)

// Watcher monitors a set of files and emits the path of each file that
// changed once its writes settle.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	paths     map[string]struct{}
	debounce  time.Duration
	onChange  chan string
	done      chan struct{}
	stopOnce  sync.Once
}

// Config holds watcher configuration options.
type Config struct {
	Paths       []string
	DebounceDur time.Duration
}

// DefaultConfig watches paths with a 100ms debounce.
func DefaultConfig(paths ...string) Config {
	return Config{
		Paths:       paths,
		DebounceDur: 100 * time.Millisecond,
	}
}

// New creates a watcher for cfg.Paths.
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Paths) == 0 {
		return nil, fmt.Errorf("no paths to watch")
	}

	paths := make(map[string]struct{}, len(cfg.Paths))
	for _, p := range cfg.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", p, err)
		}
		paths[abs] = struct{}{}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	return &Watcher{
		fsWatcher: fsw,
		paths:     paths,
		debounce:  cfg.DebounceDur,
		onChange:  make(chan string, len(paths)),
		done:      make(chan struct{}),
	}, nil
}

// Paths returns the watched files in sorted order.
func (w *Watcher) Paths() []string {
	out := make([]string, 0, len(w.paths))
	for p := range w.paths {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Start begins watching the directories holding the files. Watching the
// directory keeps editors that save by rename visible.
func (w *Watcher) Start() (<-chan string, error) {
	dirs := map[string]struct{}{}
	for p := range w.paths {
		dirs[filepath.Dir(p)] = struct{}{}
	}
	for dir := range dirs {
		if err := w.fsWatcher.Add(dir); err != nil {
			return nil, fmt.Errorf("watching directory %s: %w", dir, err)
		}
	}

	log.Debug(log.CatWatcher, "watching item files", "files", len(w.paths), "dirs", len(dirs))
	go w.loop()

	return w.onChange, nil
}

// Stop terminates the watcher and releases resources. It is safe to call
// more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsWatcher.Close()
	})
	return err
}

func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		pending = map[string]struct{}{}
	)

	for {
		var fire <-chan time.Time
		if timer != nil {
			fire = timer.C
		}

		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			path, relevant := w.relevantPath(event)
			if !relevant {
				continue
			}
			pending[path] = struct{}{}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
				continue
			}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)

		case <-fire:
			timer = nil
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			clear(pending)
			slices.Sort(changed)

			for _, p := range changed {
				log.Debug(log.CatWatcher, "item file changed", "path", p)
				select {
				case w.onChange <- p:
				case <-w.done:
					return
				}
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "watch error", err)

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// relevantPath reports whether event touches a watched file.
func (w *Watcher) relevantPath(event fsnotify.Event) (string, bool) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return "", false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return "", false
	}
	_, ok := w.paths[abs]
	return abs, ok
}
