// Package watch monitors source directories and triggers a pipeline pass when
// new recordings settle.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vasd85/voxenote/internal/collect"
	"github.com/vasd85/voxenote/internal/logging"
)

// Handler is invoked after the watched directories have been quiet for the
// settle window. A run failure is logged and watching continues.
type Handler func(ctx context.Context) error

// Watcher debounces filesystem events from the planned source directories.
type Watcher struct {
	plans     []collect.Plan
	settle    time.Duration
	supported func(ext string) bool
	handler   Handler
	logger    *slog.Logger
}

func New(plans []collect.Plan, settle time.Duration, supported func(string) bool, handler Handler, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	if settle <= 0 {
		settle = 2 * time.Second
	}
	return &Watcher{
		plans:     plans,
		settle:    settle,
		supported: supported,
		handler:   handler,
		logger:    logging.NewComponentLogger(logger, "watch"),
	}
}

// Run blocks until ctx is done, firing the handler after each settled burst
// of events. Recordings are often written in multiple chunks, so the timer
// resets on every event instead of firing per file.
func (w *Watcher) Run(ctx context.Context) error {
	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer notifier.Close()

	watched := 0
	for _, plan := range w.plans {
		dirs, err := watchableDirs(plan)
		if err != nil {
			w.logger.Warn("skipping unwatchable source",
				logging.String("source", plan.Path),
				logging.Error(err))
			continue
		}
		for _, dir := range dirs {
			if err := notifier.Add(dir); err != nil {
				w.logger.Warn("watch add failed",
					logging.String("dir", dir),
					logging.Error(err))
				continue
			}
			watched++
		}
	}
	if watched == 0 {
		return fmt.Errorf("no watchable source directories")
	}
	w.logger.Info("watching for new recordings",
		logging.Int("directories", watched),
		logging.Duration("settle", w.settle))

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-notifier.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			// A new subdirectory under a recursive source joins the watch.
			if event.Op.Has(fsnotify.Create) {
				if w.isRecursiveSubdir(event.Name) {
					if err := notifier.Add(event.Name); err == nil {
						w.logger.Debug("watching new directory", logging.String("dir", event.Name))
					}
				}
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			if !w.supported(filepath.Ext(event.Name)) {
				continue
			}
			w.logger.Debug("recording activity", logging.String("file", event.Name))
			if pending && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.settle)
			pending = true

		case <-timer.C:
			pending = false
			if err := w.handler(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				w.logger.Error("triggered run failed", logging.Error(err))
			}

		case err, ok := <-notifier.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Warn("watcher error", logging.Error(err))
		}
	}
}

// watchableDirs lists the directories one plan entry contributes: the source
// itself and, for recursive plans, every subdirectory.
func watchableDirs(plan collect.Plan) ([]string, error) {
	if !plan.Recursive {
		return []string{plan.Path}, nil
	}
	var dirs []string
	err := filepath.WalkDir(plan.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dirs, nil
}

// isRecursiveSubdir reports whether path is a directory created inside one of
// the recursive source plans.
func (w *Watcher) isRecursiveSubdir(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	for _, plan := range w.plans {
		if !plan.Recursive {
			continue
		}
		rel, err := filepath.Rel(plan.Path, path)
		if err == nil && rel != "." && filepath.IsLocal(rel) {
			return true
		}
	}
	return false
}
