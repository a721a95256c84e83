// Package watcher reports which listed directories changed on disk.
package watcher

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Watcher watches a set of directories and emits debounced batches of the
// directories whose entries changed.
type Watcher struct {
	fw       *fsnotify.Watcher
	log      *zap.Logger
	debounce time.Duration
	events   chan []string

	mu      sync.Mutex
	watched map[string]struct{}

	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// New starts a watcher. Batches are emitted once no event arrived for
// debounce.
func New(debounce time.Duration, log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	w := &Watcher{
		fw:       fw,
		log:      log.Named("watcher"),
		debounce: debounce,
		events:   make(chan []string, 1),
		watched:  make(map[string]struct{}),
		done:     make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Events delivers batches of changed directories, sorted. The channel is
// closed by Close.
func (w *Watcher) Events() <-chan []string { return w.events }

// Sync makes the watched set equal to dirs.
func (w *Watcher) Sync(dirs []string) error {
	want := make(map[string]struct{}, len(dirs))
	for _, d := range dirs {
		want[filepath.Clean(d)] = struct{}{}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	var errs error
	for d := range w.watched {
		if _, ok := want[d]; ok {
			continue
		}
		// The directory may already be gone, which removes the watch.
		_ = w.fw.Remove(d)
		delete(w.watched, d)
	}
	for d := range want {
		if _, ok := w.watched[d]; ok {
			continue
		}
		if err := w.fw.Add(d); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("failed to watch %s: %w", d, err))
			continue
		}
		w.watched[d] = struct{}{}
	}
	return errs
}

// Watched returns the watched directories, sorted.
func (w *Watcher) Watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.watched))
	for d := range w.watched {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

func (w *Watcher) isWatched(dir string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.watched[dir]
	return ok
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	defer close(w.events)

	pending := make(map[string]struct{})
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if event.Op == fsnotify.Chmod {
				continue
			}
			dir := filepath.Dir(event.Name)
			if !w.isWatched(dir) {
				continue
			}
			pending[dir] = struct{}{}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			batch := make([]string, 0, len(pending))
			for d := range pending {
				batch = append(batch, d)
			}
			sort.Strings(batch)
			clear(pending)
			w.log.Debug("Directories changed", zap.Strings("dirs", batch))
			select {
			case w.events <- batch:
			case <-w.done:
				return
			}

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.log.Warn("Directory watcher error", zap.Error(err))
		}
	}
}

// Close stops the watcher and closes Events.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fw.Close()
		w.wg.Wait()
	})
	return err
}
