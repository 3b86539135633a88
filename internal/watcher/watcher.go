// Package watcher keeps the generation root reconciled with the canonical
// tree while `arb watch` runs.
//
// One cooperative loop issues a pass when the canonical file changes
// (debounced) and on a fixed interval. A pass, once started, runs to
// completion; cancellation is only observed between passes.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/aidanlsb/arbor/internal/arch"
	"github.com/aidanlsb/arbor/internal/reconcile"
)

// Trigger says why a pass ran.
type Trigger string

const (
	TriggerStart    Trigger = "start"
	TriggerChange   Trigger = "change"
	TriggerInterval Trigger = "interval"
)

// Pass is the outcome of one reconciliation pass.
type Pass struct {
	Trigger Trigger
	At      time.Time
	Result  *reconcile.Result
	Err     error
}

// Watcher reconciles a project on change and on a timer.
type Watcher struct {
	svc *arch.Service

	// Configuration
	interval      time.Duration
	debounceDelay time.Duration
	debug         bool

	onPass func(Pass)
}

// Config holds configuration options for the Watcher.
type Config struct {
	Service       *arch.Service
	Interval      time.Duration // Default: 1h
	DebounceDelay time.Duration // Default: 250ms
	Debug         bool
	OnPass        func(Pass) // Optional callback
}

// New creates a new Watcher with the given configuration.
func New(cfg Config) (*Watcher, error) {
	if cfg.Service == nil {
		return nil, fmt.Errorf("service is required")
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	debounce := cfg.DebounceDelay
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}

	return &Watcher{
		svc:           cfg.Service,
		interval:      interval,
		debounceDelay: debounce,
		debug:         cfg.Debug,
		onPass:        cfg.OnPass,
	}, nil
}

// Start runs an initial pass, then watches until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsWatcher.Close()

	canonical := filepath.Clean(w.svc.CanonicalPath())
	// Editors replace files by rename, so watch the directory, not the file.
	if err := fsWatcher.Add(filepath.Dir(canonical)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(canonical), err)
	}
	w.logDebug("Watching %s (interval %s)", canonical, w.interval)

	w.RunPass(TriggerStart)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsWatcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != canonical {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.logDebug("Event: %s %s", event.Op, event.Name)
			debounce = time.After(w.debounceDelay)

		case <-debounce:
			debounce = nil
			w.RunPass(TriggerChange)

		case <-ticker.C:
			w.RunPass(TriggerInterval)

		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logDebug("Watcher error: %v", err)
		}
	}
}

// RunPass re-parses the canonical file and runs an incremental
// reconciliation. It ignores the caller's cancellation so a pass is never
// cut short.
func (w *Watcher) RunPass(trigger Trigger) Pass {
	ctx := context.Background()
	pass := Pass{Trigger: trigger, At: time.Now()}

	if _, err := w.svc.Reload(ctx); err != nil {
		pass.Err = err
	} else {
		res, err := w.svc.Generate(ctx, reconcile.ModeIncremental, false)
		if res != nil {
			pass.Result = res.Result
		}
		pass.Err = err
	}

	if pass.Err != nil {
		w.logDebug("%s pass failed: %v", trigger, pass.Err)
	} else {
		w.logDebug("%s pass created %d directories", trigger, len(pass.Result.CreatedPaths))
	}
	if w.onPass != nil {
		w.onPass(pass)
	}
	return pass
}

// logDebug logs a debug message if debug mode is enabled.
func (w *Watcher) logDebug(format string, args ...interface{}) {
	if w.debug {
		fmt.Fprintf(os.Stderr, "[arbor-watch] "+format+"\n", args...)
	}
}
