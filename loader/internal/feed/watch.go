package feed

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchDirs watches every directory in dirs and calls onChange with the path
// of each created or written file whose base name satisfies match. Directories
// that do not exist yet are skipped with a warning. It runs until ctx is
// cancelled.
func WatchDirs(ctx context.Context, dirs []string, match func(name string) bool, onChange func(path string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	watched := 0
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			slog.Warn("feed: cannot watch directory", "dir", dir, "err", err)
			continue
		}
		watched++
	}
	slog.Info("feed: watching for new samples", "dirs", watched)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !match(filepath.Base(event.Name)) {
				continue
			}
			slog.Debug("feed: sample file changed", "path", event.Name, "op", event.Op.String())
			onChange(event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("feed: watcher error", "err", err)
		}
	}
}
