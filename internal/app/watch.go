package app

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/llb-tools/llbreduce/internal/ports"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 250 * time.Millisecond

// Watcher re-runs a reduction whenever the input file is written. Runs are
// sequential; a change seen during a run triggers one more run afterwards.
type Watcher struct {
	path     string
	debounce time.Duration
	reduce   func(ctx context.Context) error
	logger   ports.Logger
}

// NewWatcher creates a watcher for path. reduce is called once at start and
// again after every settled change.
func NewWatcher(path string, debounce time.Duration, reduce func(ctx context.Context) error, logger ports.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{path: path, debounce: debounce, reduce: reduce, logger: logger}
}

// Run blocks until ctx is canceled. Reduction errors are logged, not
// returned; only a failure to set up the watch is fatal.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	// Watch the directory so editors that replace the file are seen too.
	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	name := filepath.Base(w.path)

	w.runOnce(ctx)

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.logger.Debug("input changed", ports.String("file", event.Name), ports.String("op", event.Op.String()))
			timer.Reset(w.debounce)

		case <-timer.C:
			w.runOnce(ctx)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", ports.Err(err))
		}
	}
}

func (w *Watcher) runOnce(ctx context.Context) {
	if err := w.reduce(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		w.logger.Error("reduction failed", ports.String("file", w.path), ports.Err(err))
	}
}
