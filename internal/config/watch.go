package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 200 * time.Millisecond

// Watch calls onChange with the reloaded config whenever the file at path is
// written, created or replaced. The directory is watched because Save
// replaces the file by rename. Watch returns once the watcher is running and
// stops when ctx is done.
func Watch(ctx context.Context, path string, onChange func(*RootConfig, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return err
	}
	target := filepath.Clean(path)

	var mu sync.Mutex
	var timer *time.Timer
	reload := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(watchDebounce, func() {
			if ctx.Err() != nil {
				return
			}
			cfg, err := LoadFile(target)
			if err == nil && cfg == nil {
				return
			}
			onChange(cfg, err)
		})
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				mu.Lock()
				if timer != nil {
					timer.Stop()
				}
				mu.Unlock()
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
					reload()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				onChange(nil, err)
			}
		}
	}()
	return nil
}
