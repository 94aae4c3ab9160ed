// Package file stores the registry document as a YAML file.
package file

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"tors/backend"
	"tors/backend/local"
	"tors/backend/registry"
)

// DefaultFileName is the document name used when no path is configured.
const DefaultFileName = "task_manager.yaml"

// Store reads and writes the document at a fixed path
type Store struct {
	path string
}

// NewStore creates a YAML store. Relative paths are resolved against the
// working directory.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = DefaultFileName
	}
	if !filepath.IsAbs(path) {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		path = filepath.Join(wd, path)
	}
	return &Store{path: path}, nil
}

// Open loads the document at path and returns a local backend over it.
func Open(path string, opts ...registry.Option) (*local.Backend, error) {
	s, err := NewStore(path)
	if err != nil {
		return nil, err
	}
	return local.Open(s, opts...)
}

// Location returns the resolved document path
func (s *Store) Location() string {
	return s.path
}

// Load reads the document. A missing file yields an empty document with the
// default theme.
func (s *Store) Load() (*registry.Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return registry.NewDocument(), nil
		}
		return nil, &backend.PersistenceError{Op: "read", Path: s.path, Err: err}
	}

	doc, err := Decode(data)
	if err != nil {
		return nil, &backend.PersistenceError{Op: "parse", Path: s.path, Err: err}
	}
	return doc, nil
}

// Save writes the document through a temporary file so a failed write
// never truncates the previous state.
func (s *Store) Save(doc *registry.Document) error {
	data, err := Encode(doc)
	if err != nil {
		return &backend.PersistenceError{Op: "write", Path: s.path, Err: err}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &backend.PersistenceError{Op: "write", Path: s.path, Err: err}
	}

	mode := os.FileMode(0644)
	if info, err := os.Stat(s.path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, ".tors-*.yaml")
	if err != nil {
		return &backend.PersistenceError{Op: "write", Path: s.path, Err: err}
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	// CreateTemp uses 0600; keep the document's own permissions.
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return &backend.PersistenceError{Op: "write", Path: s.path, Err: err}
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return &backend.PersistenceError{Op: "write", Path: s.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &backend.PersistenceError{Op: "write", Path: s.path, Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return &backend.PersistenceError{Op: "write", Path: s.path, Err: err}
	}
	return nil
}

// Encode renders a document as YAML.
func Encode(doc *registry.Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses a YAML document. Empty input yields defaults.
func Decode(data []byte) (*registry.Document, error) {
	doc := &registry.Document{}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, doc); err != nil {
			return nil, err
		}
	}
	doc.Normalize()
	return doc, nil
}

// Verify interface compliance at compile time
var _ local.Store = (*Store)(nil)
