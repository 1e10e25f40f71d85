package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Persistence is the durable key-value facility backing the metadata
// cache. Load returns the full mapping (empty if never saved); Save
// replaces it wholesale.
type Persistence interface {
	Load() (map[string]json.RawMessage, error)
	Save(map[string]json.RawMessage) error
}

// FileStore persists the mapping as a single JSON blob on disk. Writes
// replace the whole file; there are no partial updates.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore at the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load implements Persistence.
func (s *FileStore) Load() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", s.path, err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", s.path, err)
	}
	if m == nil {
		m = map[string]json.RawMessage{}
	}
	return m, nil
}

// Save implements Persistence.
func (s *FileStore) Save(m map[string]json.RawMessage) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", s.path, err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(s.path), err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", s.path, err)
	}
	return nil
}
