package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// SettingsReloader is the part of the store the watcher drives.
type SettingsReloader interface {
	Reload() (bool, error)
}

// SettingsWatcher reloads the store when another process writes the
// settings database.
type SettingsWatcher struct {
	path     string
	store    SettingsReloader
	debounce time.Duration
	log      *logrus.Entry

	watcher *fsnotify.Watcher
	done    chan struct{}
}

func NewSettingsWatcher(dbPath string, store SettingsReloader) *SettingsWatcher {
	return &SettingsWatcher{
		path:     dbPath,
		store:    store,
		debounce: 300 * time.Millisecond,
		log:      logrus.WithField("component", "settings-watcher"),
	}
}

// WithDebounce sets how long the watcher waits for writes to settle.
func (w *SettingsWatcher) WithDebounce(d time.Duration) *SettingsWatcher {
	w.debounce = d
	return w
}

// Start watches the directory holding the database (SQLite also writes the
// -wal and -journal siblings) until ctx is cancelled.
func (w *SettingsWatcher) Start(ctx context.Context) error {
	if w.path == "" || strings.Contains(w.path, ":memory:") || strings.HasPrefix(w.path, "file:") {
		w.log.Info("settings watcher disabled, no database file")
		return nil
	}

	abs, err := filepath.Abs(w.path)
	if err != nil {
		return fmt.Errorf("resolve database path: %w", err)
	}
	w.path = abs

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch settings directory: %w", err)
	}

	w.watcher = watcher
	w.done = make(chan struct{})
	w.log.WithField("path", abs).Debug("watching settings database")

	go w.loop(ctx)
	return nil
}

// Wait blocks until the watch loop has exited.
func (w *SettingsWatcher) Wait() {
	if w.done != nil {
		<-w.done
	}
}

func (w *SettingsWatcher) loop(ctx context.Context) {
	defer close(w.done)
	defer w.watcher.Close()

	var timer *time.Timer
	var pending <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("settings watcher stopped")
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.matches(event.Name) || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			if _, err := w.store.Reload(); err != nil {
				w.log.WithError(err).Error("automatic settings reload failed")
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Error("settings watcher error")
		}
	}
}

func (w *SettingsWatcher) matches(name string) bool {
	switch filepath.Clean(name) {
	case w.path, w.path + "-wal", w.path + "-journal":
		return true
	}
	return false
}
