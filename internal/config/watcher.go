package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const defaultDebounce = 250 * time.Millisecond

// Watcher reloads a config file when it changes on disk and hands the result
// to onChange. Reload failures are logged and the previous config stays in
// effect.
type Watcher struct {
	log      zerolog.Logger
	path     string
	debounce time.Duration
	onChange func(Config)
}

func NewWatcher(log zerolog.Logger, path string, onChange func(Config)) *Watcher {
	return &Watcher{
		log:      log.With().Str("component", "config_watcher").Str("path", path).Logger(),
		path:     path,
		debounce: defaultDebounce,
		onChange: onChange,
	}
}

// Run blocks until ctx is done. The parent directory is watched so that
// editors replacing the file by rename are picked up.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %q: %w", filepath.Dir(w.path), err)
	}

	target := filepath.Clean(w.path)
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(w.debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("config watcher error")
		case <-timer.C:
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path)
	if err != nil {
		w.log.Error().Err(err).Msg("config reload failed, keeping previous config")
		return
	}
	w.log.Info().Msg("config reloaded")
	w.onChange(cfg)
}
