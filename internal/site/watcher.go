package site

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/vellum/internal/templates"
)

// DebounceInterval is how long the watcher waits for changes to settle
// before reloading.
const DebounceInterval = 200 * time.Millisecond

// Watch watches the content and template directories of s and reloads the
// site after changes settle, until ctx is cancelled. New directories are
// added to the watch list as they appear. Reload failures are logged and
// the previous snapshot stays current.
func (s *Service) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	roots := []string{s.ContentRoot()}
	if tr := s.TemplateRoot(); tr != s.ContentRoot() {
		roots = append(roots, tr)
	}
	for _, root := range roots {
		if err := addDirsRecursive(w, root); err != nil {
			return err
		}
	}
	logger := s.cfg.Logger
	logger.Info("watcher: started", slog.Any("roots", roots))

	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(DebounceInterval)
			fire = timer.C
			return
		}
		timer.Reset(DebounceInterval)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			timer, fire = nil, nil
			if _, err := s.Reload(ctx); err != nil {
				logger.Error("watcher: reload failed", slog.String("error", err.Error()))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					schedule()
					continue
				}
			}
			// A removed or renamed directory carries no extension but may
			// take a whole subtree of pages with it.
			removed := ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename)
			if removed && !hidden(ev.Name) {
				logger.Debug("watcher: removed", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
				schedule()
				continue
			}
			if !relevant(ev.Name) || ev.Op == fsnotify.Chmod {
				continue
			}
			logger.Debug("watcher: change", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func relevant(name string) bool {
	if hidden(name) {
		return false
	}
	base := filepath.Base(name)
	return strings.HasSuffix(base, SourceExt) || strings.HasSuffix(base, templates.Ext)
}

func hidden(name string) bool {
	return strings.HasPrefix(filepath.Base(name), ".")
}

// addDirsRecursive adds root and all its non-hidden subdirectories.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
