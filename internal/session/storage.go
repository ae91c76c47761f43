package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Storage is the durable key/value medium a Store persists into.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

// MemoryStorage keeps slots in process memory. Used by tests and by the
// console server when no session file is configured.
type MemoryStorage struct {
	mu    sync.RWMutex
	slots map[string]string
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{slots: make(map[string]string)}
}

func (m *MemoryStorage) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.slots[key]
	return v, ok
}

func (m *MemoryStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[key] = value
	return nil
}

func (m *MemoryStorage) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, key)
	return nil
}

// FileStorage keeps slots in a JSON document on disk so a session survives
// between bankctl invocations. Every write replaces the file atomically
// (write to .tmp, then rename).
type FileStorage struct {
	mu    sync.RWMutex
	path  string
	slots map[string]string
}

// OpenFileStorage loads path if it exists. A missing file is an empty storage.
func OpenFileStorage(path string) (*FileStorage, error) {
	fs := &FileStorage{path: path, slots: make(map[string]string)}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fs, nil
	case err != nil:
		return nil, fmt.Errorf("read session file: %w", err)
	}

	if len(data) > 0 {
		if err := json.Unmarshal(data, &fs.slots); err != nil {
			return nil, fmt.Errorf("decode session file: %w", err)
		}
	}
	return fs, nil
}

func (f *FileStorage) Get(key string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.slots[key]
	return v, ok
}

func (f *FileStorage) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev, had := f.slots[key]
	f.slots[key] = value
	if err := f.flush(); err != nil {
		if had {
			f.slots[key] = prev
		} else {
			delete(f.slots, key)
		}
		return err
	}
	return nil
}

func (f *FileStorage) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev, ok := f.slots[key]
	if !ok {
		return nil
	}
	delete(f.slots, key)
	if err := f.flush(); err != nil {
		f.slots[key] = prev
		return err
	}
	return nil
}

// flush must be called with f.mu held.
func (f *FileStorage) flush() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmp := f.path + ".tmp"
	file, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create session file: %w", err)
	}

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(f.slots); err != nil {
		file.Close()
		return fmt.Errorf("encode session file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}

	return os.Rename(tmp, f.path)
}
