package lifecycle

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// RebuildEvent reports a model re-created after its Modelfile changed.
type RebuildEvent struct {
	Model     string
	Modelfile string
	Err       error
}

// Watcher re-creates manifest models when their Modelfiles are written.
type Watcher struct {
	manager  *Manager
	manifest *Manifest
	watcher  *fsnotify.Watcher
}

// NewWatcher watches the directories holding each Modelfile.
// Directories are watched rather than files so editor rename-on-save is seen.
func NewWatcher(manager *Manager, manifest *Manifest) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	seen := make(map[string]bool)
	for _, def := range manifest.Models {
		dir := filepath.Dir(def.Modelfile)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	return &Watcher{manager: manager, manifest: manifest, watcher: fw}, nil
}

// Run processes file events until ctx is done. Each rebuild is reported on
// events if it is non-nil.
func (w *Watcher) Run(ctx context.Context, events chan<- RebuildEvent) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			def, ok := w.manifest.Lookup(event.Name)
			if !ok {
				continue
			}
			err := w.manager.Create(ctx, def.Name, def.Modelfile)
			if err != nil {
				log.Printf("[lifecycle] rebuild %s failed: %v", def.Name, err)
			}
			if events != nil {
				select {
				case events <- RebuildEvent{Model: def.Name, Modelfile: def.Modelfile, Err: err}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("[lifecycle] watcher error: %v", err)
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
