package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bnema/noreveal/internal/logger"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// reloadDebounce coalesces the burst of events an editor save produces
const reloadDebounce = 200 * time.Millisecond

// Reload re-reads the config file, validates it and makes it current
func Reload() (*Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	c, err := load()
	if err != nil {
		return nil, err
	}
	Set(c)
	return c, nil
}

// Watch calls onChange with the reloaded configuration whenever the config
// file is written. The directory is watched rather than the file so editors
// that replace the file are seen too. Watch blocks until ctx is cancelled.
func Watch(ctx context.Context, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	path := filepath.Clean(GetConfigPath())
	// On a first run nothing has created the directory yet
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %q: %w", filepath.Dir(path), err)
	}
	logger.Debugf("Watching %s for changes", path)

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, func() {
				c, err := Reload()
				if err != nil {
					logger.Warnf("Config reload failed, keeping previous settings: %v", err)
					return
				}
				logger.Infof("Configuration reloaded from %s", path)
				onChange(c)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("Config watcher error: %v", err)
		}
	}
}
