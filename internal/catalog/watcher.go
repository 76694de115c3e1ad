package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/readystackgo/rsgo/internal/manifest"
)

// Watcher re-parses product manifests from a flat directory into a
// Catalog as they change on disk. Each file's own metadata.productId/
// productVersion determine its catalog key, not the filename.
type Watcher struct {
	catalog  *Catalog
	dir      string
	sourceID string
	fsw      *fsnotify.Watcher

	mu     sync.Mutex
	loaded map[string]key // file path -> last successfully loaded catalog key, for eviction on removal
}

// NewWatcher opens an fsnotify watch on dir. Call LoadAll to seed the
// catalog with whatever is already on disk, then Run to start picking up
// subsequent changes.
func NewWatcher(catalog *Catalog, dir, sourceID string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create manifest watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch manifest directory %s: %w", dir, err)
	}
	return &Watcher{catalog: catalog, dir: dir, sourceID: sourceID, fsw: fsw, loaded: map[string]key{}}, nil
}

// Close stops the underlying fsnotify watch.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// LoadAll parses every *.yaml/*.yml file directly inside the watched
// directory into the catalog. Intended to run once before Run begins.
func (w *Watcher) LoadAll() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("list manifest directory %s: %w", w.dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !isManifestFile(e.Name()) {
			continue
		}
		if err := w.loadOne(filepath.Join(w.dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// Run processes fsnotify events until ctx is cancelled or the watch is
// closed. onChange, when non-nil, is called after every successful
// catalog update or removal; onError is called for parse failures and
// watch errors. A parse error on one file is reported but never stops
// the loop: one malformed manifest must not take the rest of the
// catalog offline.
func (w *Watcher) Run(ctx context.Context, onChange func(groupID, version string), onError func(error)) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev, onChange, onError)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if onError != nil {
				onError(err)
			}
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event, onChange func(groupID, version string), onError func(error)) {
	if !isManifestFile(ev.Name) {
		return
	}

	switch {
	case ev.Op&(fsnotify.Write|fsnotify.Create) != 0:
		if err := w.loadOne(ev.Name); err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		if onChange != nil {
			w.mu.Lock()
			k := w.loaded[ev.Name]
			w.mu.Unlock()
			onChange(k.groupID, k.version)
		}
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		w.mu.Lock()
		k, ok := w.loaded[ev.Name]
		delete(w.loaded, ev.Name)
		w.mu.Unlock()
		if !ok {
			return
		}
		w.catalog.Remove(k.groupID, k.version)
		if onChange != nil {
			onChange(k.groupID, k.version)
		}
	}
}

func (w *Watcher) loadOne(path string) error {
	m, err := manifest.ParseFromFile(path)
	if err != nil {
		return fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if !m.Metadata.IsProduct() {
		return nil
	}

	groupID := m.Metadata.ProductID
	if groupID == "" {
		groupID = m.Metadata.Name
	}

	w.catalog.Set(ProductDefinition{
		ProductID:      groupID + "@" + m.Metadata.ProductVersion,
		GroupID:        groupID,
		SourceID:       w.sourceID,
		Name:           m.Metadata.Name,
		ProductVersion: m.Metadata.ProductVersion,
		Manifest:       m,
		Stacks:         DeriveStackConfigs(m),
	})

	w.mu.Lock()
	w.loaded[path] = key{groupID: groupID, version: m.Metadata.ProductVersion}
	w.mu.Unlock()
	return nil
}

func isManifestFile(name string) bool {
	ext := filepath.Ext(name)
	return ext == ".yaml" || ext == ".yml"
}
