package config

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/chime/internal/log"
)

// watchDebounce coalesces bursts of filesystem events into one reload.
// Editors typically produce several writes per save.
const watchDebounce = 250 * time.Millisecond

// WatchManifest watches the manifest at path and calls onChange with each
// successfully reloaded manifest. A manifest that fails to reload is logged
// and skipped; the previous registrations stay in effect. Runs until ctx is
// cancelled.
func WatchManifest(ctx context.Context, path string, onChange func(Manifest)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(path); err != nil {
		_ = watcher.Close()
		return err
	}

	log.SafeGo("config.manifestWatch", func() {
		defer func() { _ = watcher.Close() }()

		var debounce *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if debounce == nil {
					debounce = time.NewTimer(watchDebounce)
				} else {
					debounce.Reset(watchDebounce)
				}
				fire = debounce.C

			case <-fire:
				fire = nil
				m, err := LoadManifest(path)
				if err != nil {
					log.ErrorErr(log.CatConfig, "Manifest reload failed, keeping previous sounds", err, "path", path)
					continue
				}
				log.Info(log.CatConfig, "Manifest reloaded", "path", path)
				onChange(m)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.ErrorErr(log.CatConfig, "Manifest watcher error", err, "path", path)
			}
		}
	})
	return nil
}
