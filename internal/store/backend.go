package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Collection names used by the store.
const (
	colTasks     = "tasks"
	colProjects  = "projects"
	colCustomers = "customers"
	colTags      = "tags"
	colSettings  = "settings"
)

// Backend is the persistence substrate: one named collection at a time,
// read as a whole and replaced as a whole. A crash mid-write may lose the
// in-flight write but never corrupts other collections.
type Backend interface {
	// ReadCollection returns the raw collection contents, or (nil, nil)
	// when the collection has never been written.
	ReadCollection(name string) ([]byte, error)

	// WriteCollection atomically replaces the collection wholesale.
	WriteCollection(name string, data []byte) error
}

// FileBackend stores each collection as a JSON file under BaseDir.
type FileBackend struct {
	BaseDir string
	mu      sync.Mutex
}

func NewFileBackend(baseDir string) (*FileBackend, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &FileBackend{BaseDir: baseDir}, nil
}

func (b *FileBackend) path(name string) string {
	return filepath.Join(b.BaseDir, name+".json")
}

func (b *FileBackend) ReadCollection(name string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := os.ReadFile(b.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading collection %s: %w", name, err)
	}
	return data, nil
}

// WriteCollection writes to a temp file in the same directory and renames
// it over the target, so readers never observe a partial file.
func (b *FileBackend) WriteCollection(name string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	target := b.path(name)
	tmp, err := os.CreateTemp(b.BaseDir, name+"-*.tmp")
	if err != nil {
		return fmt.Errorf("writing collection %s: %w", name, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing collection %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing collection %s: %w", name, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing collection %s: %w", name, err)
	}
	return nil
}

var _ Backend = (*FileBackend)(nil)
