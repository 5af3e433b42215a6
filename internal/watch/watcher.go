// Package watch triggers rebuilds when the source document tree changes.
// A recursive fsnotify watcher feeds a debounced rebuild channel; an
// optional cron schedule forces periodic rebuilds regardless of events.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/contentsync/internal/logfields"
)

// RebuildFunc runs a full build. It is invoked from the watcher's own
// goroutine, never concurrently with itself.
type RebuildFunc func(ctx context.Context, reason string) error

// Watcher monitors a content directory and invokes a rebuild callback
// after changes settle.
type Watcher struct {
	contentDir  string
	rebuild     RebuildFunc
	watcher     *fsnotify.Watcher
	scheduler   gocron.Scheduler
	debounce    time.Duration
	schedule    string
	mu          sync.Mutex
	stopChan    chan struct{}
	triggerChan chan string
}

// Option customizes a Watcher.
type Option func(*Watcher)

// WithDebounce overrides the settle window applied to filesystem events.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithSchedule adds a cron expression for forced periodic rebuilds.
func WithSchedule(expr string) Option {
	return func(w *Watcher) { w.schedule = expr }
}

// New creates a watcher over contentDir. The directory must exist.
func New(contentDir string, rebuild RebuildFunc, opts ...Option) (*Watcher, error) {
	absDir, err := filepath.Abs(contentDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve content directory: %w", err)
	}
	if info, err := os.Stat(absDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("content directory not found: %s", absDir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		contentDir:  absDir,
		rebuild:     rebuild,
		watcher:     fsw,
		debounce:    2 * time.Second,
		stopChan:    make(chan struct{}),
		triggerChan: make(chan string, 1),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start registers all directories and launches the event and rebuild loops.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	dirs, err := collectDirs(w.contentDir)
	if err != nil {
		return fmt.Errorf("failed to enumerate content directories: %w", err)
	}
	for _, dir := range dirs {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	slog.Info("Starting content watcher",
		logfields.Path(w.contentDir),
		logfields.Count(len(dirs)),
		slog.Duration("debounce", w.debounce))

	if w.schedule != "" {
		if err := w.startSchedule(); err != nil {
			return err
		}
	}

	go w.eventLoop(ctx)
	go w.rebuildLoop(ctx)
	return nil
}

// Stop shuts down the watcher and any scheduled jobs.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	slog.Info("Stopping content watcher")
	close(w.stopChan)

	if w.scheduler != nil {
		if err := w.scheduler.Shutdown(); err != nil {
			slog.Error("Error stopping rebuild scheduler", logfields.Error(err))
		}
	}
	if err := w.watcher.Close(); err != nil {
		return fmt.Errorf("failed to close file watcher: %w", err)
	}
	return nil
}

func (w *Watcher) startSchedule() error {
	s, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create rebuild scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.CronJob(w.schedule, false),
		gocron.NewTask(func() { w.trigger("schedule") }),
		gocron.WithName("scheduled-rebuild"),
	)
	if err != nil {
		return fmt.Errorf("failed to create scheduled rebuild job: %w", err)
	}
	s.Start()
	w.scheduler = s

	slog.Info("Scheduled rebuilds enabled", slog.String("cron", w.schedule))
	return nil
}

func (w *Watcher) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !relevant(event) {
				continue
			}
			// New subdirectories must be added to the watch set before
			// anything inside them changes.
			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.watcher.Add(event.Name); err != nil {
						slog.Warn("Failed to watch new directory",
							logfields.Path(event.Name), logfields.Error(err))
					}
				}
			}
			slog.Debug("Content change detected",
				logfields.Path(event.Name),
				slog.String("op", event.Op.String()))
			w.trigger("change")
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Content watcher error", logfields.Error(err))
		}
	}
}

// rebuildLoop owns the debounce timer and runs every rebuild itself, so
// rebuilds never overlap. A trigger arriving mid-build waits in triggerChan
// (capacity 1, so bursts collapse into one follow-up) and opens the next
// debounce window once the running build returns.
func (w *Watcher) rebuildLoop(ctx context.Context) {
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	defer timer.Stop()

	var timerC <-chan time.Time
	var reason string

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopChan:
			return
		case r := <-w.triggerChan:
			reason = r
			if timerC != nil && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(w.debounce)
			timerC = timer.C
		case <-timerC:
			timerC = nil
			if err := w.rebuild(ctx, reason); err != nil {
				slog.Error("Rebuild failed", logfields.Error(err))
			}
		}
	}
}

// trigger requests a debounced rebuild. A pending trigger absorbs new ones.
func (w *Watcher) trigger(reason string) {
	select {
	case w.triggerChan <- reason:
	default:
	}
}

// relevant filters out events that never affect artifacts, such as editor
// temp files and chmod-only churn.
func relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") {
		return false
	}
	return true
}

// collectDirs returns dir and every subdirectory, skipping hidden trees
// such as .git.
func collectDirs(dir string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if name := d.Name(); path != dir && strings.HasPrefix(name, ".") {
			return filepath.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dirs, nil
}
