package schema

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchFile watches a field-definition YAML file and delivers a freshly
// built Registry through apply after every change. The parent directory
// is watched so editors that replace the file (write to temp, rename)
// are picked up too.
//
// The initial registry is delivered before watching starts. Reload
// failures are logged and skipped; the previous registry stays current.
// WatchFile blocks until ctx is done or the watcher fails. A nil logger
// falls back to slog.Default().
func WatchFile(ctx context.Context, path string, logger *slog.Logger, apply func(*Registry)) error {
	if logger == nil {
		logger = slog.Default()
	}

	load := func() (*Registry, error) {
		fields, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		return New(fields), nil
	}

	reg, err := load()
	if err != nil {
		return err
	}
	apply(reg)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("schema: start watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("schema: watch %s: %w", dir, err)
	}
	base := filepath.Base(path)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			reg, err := load()
			if err != nil {
				logger.Error("schema reload failed", "path", path, "error", err)
				continue
			}
			logger.Info("schema reloaded", "path", path, "fields", reg.Len())
			apply(reg)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("schema watcher error", "error", err)
		}
	}
}
