// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package monitor

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/harlam357/hfm-net-sub022/pkg/logging"
)

// LegacyWatcher watches one legacy client's data directory and emits a
// fresh Snapshot after each debounced burst of file changes.
//
// # Debouncing
//
// The legacy client rewrites FAHlog.txt in bursts, often touching
// unitinfo.txt and queue.dat within the same second. Changes are collected
// into a pending flag; when the debounce window expires without another
// change, one capture runs. This collapses a burst into a single re-read.
//
// # Thread Safety
//
// Safe for concurrent use. The handler is called from a single goroutine.
type LegacyWatcher struct {
	name     string
	dir      string
	watcher  *fsnotify.Watcher
	handler  SnapshotHandler
	logger   *logging.Logger
	debounce time.Duration

	changes  chan string
	done     chan struct{}
	stopOnce sync.Once

	mu       sync.RWMutex
	watching bool
}

// LegacyWatcherOptions configures a LegacyWatcher.
type LegacyWatcherOptions struct {
	// DebounceWindow is how long to wait for more changes before
	// capturing. Default: 500ms.
	DebounceWindow time.Duration

	// Logger receives watcher diagnostics. Default: logging.Default().
	Logger *logging.Logger
}

// NewLegacyWatcher creates a watcher for one client data directory.
// Call Start to begin watching.
func NewLegacyWatcher(name, dir string, handler SnapshotHandler, opts *LegacyWatcherOptions) (*LegacyWatcher, error) {
	if opts == nil {
		opts = &LegacyWatcherOptions{}
	}
	if opts.DebounceWindow <= 0 {
		opts.DebounceWindow = 500 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &LegacyWatcher{
		name:     name,
		dir:      dir,
		watcher:  watcher,
		handler:  handler,
		logger:   opts.Logger.With("client", name),
		debounce: opts.DebounceWindow,
		changes:  make(chan string, 64),
		done:     make(chan struct{}),
	}, nil
}

// Start emits an initial snapshot and begins watching for changes.
//
// Spawns two goroutines, an event processor and a debouncer; both exit
// when Stop is called or ctx is canceled.
func (w *LegacyWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.watching {
		w.mu.Unlock()
		return nil
	}
	w.watching = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.dir); err != nil {
		return err
	}

	w.capture()

	go w.processEvents(ctx)
	go w.debounceLoop(ctx)
	return nil
}

// Stop stops the watcher. Safe to call more than once.
func (w *LegacyWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()

		w.mu.Lock()
		w.watching = false
		w.mu.Unlock()
	})
}

// IsWatching reports whether the watcher is active.
func (w *LegacyWatcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.watching
}

// isClientFile reports whether a changed path is one of the three files
// the legacy client maintains. Everything else in the directory (core
// binaries, work/ payloads) is noise.
func isClientFile(path string) bool {
	switch filepath.Base(path) {
	case DefaultLogName, DefaultUnitInfoName, DefaultQueueName:
		return true
	default:
		return false
	}
}

func (w *LegacyWatcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !isClientFile(event.Name) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			select {
			case w.changes <- event.Name:
			default:
				// Buffer full; the pending capture covers this change too.
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

func (w *LegacyWatcher) debounceLoop(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time
	pending := false

	flush := func() {
		if pending {
			w.capture()
			pending = false
		}
		if timer != nil {
			timer.Stop()
			timer = nil
			timerC = nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case <-w.done:
			flush()
			return
		case path := <-w.changes:
			w.logger.Debug("file changed", "path", path)
			pending = true
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}
		case <-timerC:
			flush()
		}
	}
}

func (w *LegacyWatcher) capture() {
	snap := Capture(w.name, w.dir)
	metricSnapshots.WithLabelValues(w.name).Inc()
	for _, err := range snap.ReadErrors {
		w.logger.Warn("capture error", "error", err)
	}
	if w.handler != nil {
		w.handler(snap)
	}
}
