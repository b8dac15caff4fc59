// Package watcher turns filesystem change notifications for sockperf log
// files into metric updates. One goroutine receives events and coalesces
// rapid write bursts per file; a second runs the processing pipeline
// (tokenize, tail-read, extract, apply) serially, one file at a time, so
// partial counter updates never interleave.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/supporttools/sockperf-exporter/pkg/logger"
	"github.com/supporttools/sockperf-exporter/pkg/sockperf"
	"github.com/supporttools/sockperf-exporter/pkg/state"
	"github.com/supporttools/sockperf-exporter/pkg/types"
)

// Watcher watches a directory of sockperf log files and feeds the metric
// state store. Redundant passes over unchanged content are safe (gauges are
// idempotent, counters are delta-based); the per-file debounce only trims
// wasted work during write bursts.
type Watcher struct {
	config types.WatchConfig
	store  *state.Store

	watcher   *fsnotify.Watcher
	processCh chan string
	stopCh    chan struct{}
	wg        sync.WaitGroup

	mu      sync.Mutex
	running bool
	timers  map[string]*time.Timer
}

// New creates a directory watcher feeding the given state store.
func New(config types.WatchConfig, store *state.Store) (*Watcher, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if config.Directory == "" {
		return nil, fmt.Errorf("watch directory cannot be empty")
	}
	if config.TailWindowBytes <= 0 {
		config.TailWindowBytes = sockperf.DefaultTailWindow
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		config:    config,
		store:     store,
		watcher:   fsw,
		processCh: make(chan string, 64),
		stopCh:    make(chan struct{}),
		timers:    make(map[string]*time.Timer),
	}, nil
}

// Start begins watching the configured directory, creating it if missing.
// Existing log files are processed once so a restarted exporter exposes
// current gauge values before the next benchmark write.
// Failure to establish the watch is fatal at startup; everything after that
// is local to a single processing pass.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("watcher already running")
	}

	if err := os.MkdirAll(w.config.Directory, 0755); err != nil {
		return fmt.Errorf("failed to create watch directory %s: %w", w.config.Directory, err)
	}

	if err := w.watcher.Add(w.config.Directory); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", w.config.Directory, err)
	}

	w.running = true

	w.wg.Add(2)
	go w.watchEvents(ctx)
	go w.processLoop(ctx)

	w.sweepExisting()

	logger.WithFields(logrus.Fields{
		"directory": w.config.Directory,
		"debounce":  w.config.DebounceInterval.String(),
	}).Info("Watching sockperf log directory")

	return nil
}

// Stop stops watching and waits for the in-flight pass to complete, so a
// counter pass is never cut off halfway.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	close(w.stopCh)
	w.watcher.Close()
	for path, timer := range w.timers {
		timer.Stop()
		delete(w.timers, path)
	}
	w.mu.Unlock()

	w.wg.Wait()
	logger.Info("Watcher stopped")
}

// sweepExisting queues one pass over log files already present at startup.
func (w *Watcher) sweepExisting() {
	entries, err := os.ReadDir(w.config.Directory)
	if err != nil {
		logger.Warnf("Failed to list %s: %v", w.config.Directory, err)
		return
	}

	queued := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := sockperf.ParseFilename(entry.Name()); !ok {
			continue
		}
		select {
		case w.processCh <- filepath.Join(w.config.Directory, entry.Name()):
			queued++
		case <-w.stopCh:
			return
		}
	}

	if queued > 0 {
		logger.Infof("Queued %d existing log files for processing", queued)
	}
}

// watchEvents receives filesystem notifications and debounces them per file.
func (w *Watcher) watchEvents(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			base := filepath.Base(event.Name)
			if _, ok := sockperf.ParseFilename(base); !ok {
				continue
			}

			switch {
			case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
				w.schedule(event.Name)

			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				w.cancel(event.Name)
				w.store.Forget(event.Name)
				logger.WithField("file", base).Debug("Log file removed, state dropped")
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are not fatal; keep receiving events.
			logger.Warnf("File watcher error: %v", err)
		}
	}
}

// schedule arms (or re-arms) the debounce timer for one file.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	if timer, ok := w.timers[path]; ok {
		timer.Stop()
	}

	w.timers[path] = time.AfterFunc(w.config.DebounceInterval, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		select {
		case w.processCh <- path:
		case <-w.stopCh:
		}
	})
}

// cancel disarms a pending debounce timer for one file.
func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.timers[path]; ok {
		timer.Stop()
		delete(w.timers, path)
	}
}

// processLoop runs the pipeline for one file at a time.
func (w *Watcher) processLoop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case path := <-w.processCh:
			w.ProcessFile(path)
		}
	}
}

// ProcessFile runs one full pipeline pass for a log file: derive labels from
// the name, read the tail window, extract fields, and apply them to the
// store. Every failure is local: the pass is skipped, prior metric values are
// retained, and the next change event is the natural retry.
func (w *Watcher) ProcessFile(path string) {
	base := filepath.Base(path)

	labels, ok := sockperf.ParseFilename(base)
	if !ok {
		// Non-conforming names never create state.
		return
	}

	content, err := sockperf.ReadTail(path, w.config.TailWindowBytes)
	if err != nil {
		// Transient: file vanished mid-event or is unreadable.
		logger.WithError(err).WithField("file", base).Debug("Skipping processing pass")
		return
	}

	sample := sockperf.Parse(content)
	if len(sample) == 0 {
		logger.WithField("file", base).Debug("No measurement fields in tail window")
		return
	}

	w.store.Apply(path, labels, sample)

	logger.WithFields(logrus.Fields{
		"file":      base,
		"test_type": labels.TestType,
		"protocol":  labels.Protocol,
		"interface": labels.Interface,
		"fields":    len(sample),
	}).Debug("Applied sample")
}
