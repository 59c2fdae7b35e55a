package store

import (
	"context"
	"encoding/json"
	"errors"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileBackend is a durable Backend persisting to a single JSON file. It is the
// analog of the durable per-origin store: contents survive restarts and are
// shared with every other process pointing at the same file.
//
// Writes are atomic (temp file + rename) and the backend keeps a snapshot of
// the file as last seen by itself, so Watch only reports changes made by
// other processes.
type FileBackend struct {
	path string

	mu       sync.Mutex
	snapshot map[string]string
	watching bool
}

// NewFileBackend opens or creates the JSON file at path.
func NewFileBackend(path string) (*FileBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}

	b := &FileBackend{path: path}

	values, err := b.readFile()
	if err != nil {
		return nil, err
	}
	b.snapshot = values

	return b, nil
}

// Get returns the value for key, or ErrKeyNotFound. It always reads from
// disk so values written by other processes are visible immediately.
func (b *FileBackend) Get(ctx context.Context, key string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	values, err := b.readFile()
	if err != nil {
		return "", err
	}

	v, ok := values[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return v, nil
}

// Set stores value under key.
func (b *FileBackend) Set(ctx context.Context, key, value string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	values, err := b.readFile()
	if err != nil {
		return err
	}

	values[key] = value
	return b.writeFile(values)
}

// Delete removes key.
func (b *FileBackend) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	values, err := b.readFile()
	if err != nil {
		return err
	}

	if _, ok := values[key]; !ok {
		return nil
	}

	delete(values, key)
	return b.writeFile(values)
}

// Watch reports keys changed by other processes. Changes made through this
// backend are absorbed into the snapshot before the filesystem event arrives
// and are therefore not reported. Only one watch per backend is supported.
func (b *FileBackend) Watch(ctx context.Context) (<-chan Event, error) {
	b.mu.Lock()
	if b.watching {
		b.mu.Unlock()
		return nil, ErrWatchUnsupported
	}
	b.watching = true
	b.mu.Unlock()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory, not the file: atomic renames replace the inode
	// and a file-level watch would go stale after the first write.
	if err := watcher.Add(filepath.Dir(b.path)); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	events := make(chan Event, 16)

	go func() {
		defer close(events)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(b.path) {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				for _, changed := range b.diffSnapshot() {
					select {
					case events <- Event{Key: changed}:
					case <-ctx.Done():
						return
					}
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return events, nil
}

// diffSnapshot reloads the file and returns keys whose values differ from the
// snapshot, updating the snapshot to the new contents.
func (b *FileBackend) diffSnapshot() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	values, err := b.readFile()
	if err != nil {
		return nil
	}

	var changed []string
	for k, v := range values {
		if old, ok := b.snapshot[k]; !ok || old != v {
			changed = append(changed, k)
		}
	}
	for k := range b.snapshot {
		if _, ok := values[k]; !ok {
			changed = append(changed, k)
		}
	}

	b.snapshot = values
	return changed
}

// readFile loads the backing file. A missing file is an empty store.
// Callers must hold b.mu.
func (b *FileBackend) readFile() (map[string]string, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, err
	}

	values := make(map[string]string)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &values); err != nil {
			return nil, err
		}
	}
	return values, nil
}

// writeFile persists values atomically and refreshes the snapshot.
// Callers must hold b.mu.
func (b *FileBackend) writeFile(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}

	tmp := b.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	if err := os.Rename(tmp, b.path); err != nil {
		return err
	}

	b.snapshot = make(map[string]string, len(values))
	maps.Copy(b.snapshot, values)
	return nil
}
