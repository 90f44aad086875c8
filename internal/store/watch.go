package store

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// Watch emits a payload-free signal whenever a key file in the store
// directory is created, rewritten or removed, including by other processes.
// Signals carry no data; receivers must re-read the keys they care about.
// Signals coalesce while the receiver is busy. The channel is closed when
// ctx ends.
func (s *Store) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("store: watch: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("store: watch %s: %w", s.dir, err)
	}

	ch := make(chan struct{}, 1)
	go func() {
		defer close(ch)
		defer func() {
			if err := watcher.Close(); err != nil {
				log.Warnf("failed to close store watcher: %v", err)
			}
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				// In-flight atomic writes land under temp names first;
				// only completed key files count as changes.
				if !validKey(filepath.Base(event.Name)) {
					continue
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
					!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
					continue
				}
				select {
				case ch <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warnf("store watcher error: %v", err)
			}
		}
	}()
	return ch, nil
}
