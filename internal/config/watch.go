package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Watch re-reads the settings file whenever it changes and calls onChange
// with the freshly loaded settings. Invalid intermediate states (editor in
// mid-save, failed validation) are logged and skipped, keeping the previous
// settings in effect. Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, path string, onChange func(*Settings)) error {
	if path == "" {
		return errors.New("config: watch needs an explicit settings file path")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "config: create watcher")
	}
	defer w.Close()

	// Watch the directory, not the file: editors replace files on save and
	// the watch on the old inode would go stale.
	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		return errors.Wrapf(err, "config: watch %s", dir)
	}
	target := filepath.Clean(path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) {
				continue
			}
			s, err := Load(path)
			if err != nil {
				log.Warn().Err(err).Str("path", path).Msg("settings reload skipped")
				continue
			}
			log.Info().Str("path", path).Msg("settings reloaded")
			onChange(s)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("settings watcher error")
		}
	}
}
