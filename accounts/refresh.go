package accounts

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

var debounceFileChangesInterval = time.Second

// WatchKeyfileChanges listens for changes to credential files in the data
// directory and drops the affected cache entries so externally edited
// keyfiles are re-read on next access. Events are debounced, editors and
// atomic-rename writes fire several per save. Blocks until ctx is done.
func (r *Registry) WatchKeyfileChanges(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "could not initialize file watcher")
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			log.WithError(err).Error("Could not close file watcher")
		}
	}()
	if err := watcher.Add(r.dataDir); err != nil {
		return errors.Wrapf(err, "could not watch directory %s", r.dataDir)
	}

	pending := make(map[string]struct{})
	timer := time.NewTimer(debounceFileChangesInterval)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case event := <-watcher.Events:
			if filepath.Ext(event.Name) != keyfileExt {
				continue
			}
			alias := strings.TrimSuffix(filepath.Base(event.Name), keyfileExt)
			pending[alias] = struct{}{}
			timer.Reset(debounceFileChangesInterval)
		case <-timer.C:
			r.mu.Lock()
			for alias := range pending {
				delete(r.cached, alias)
			}
			r.mu.Unlock()
			if len(pending) > 0 {
				log.WithField("accounts", len(pending)).Debug("Reloading credential files changed on disk")
			}
			pending = make(map[string]struct{})
		case err := <-watcher.Errors:
			log.WithError(err).Error("Could not watch for credential file changes")
		case <-ctx.Done():
			return nil
		}
	}
}
