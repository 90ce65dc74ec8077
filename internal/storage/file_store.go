package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

const defaultDataDir = "data"

// implements Store on the local filesystem as DATA_DIR/{namespace}/{collection}.json
type FileStore struct {
	root string

	// serializes read-modify-write cycles within this process
	mu sync.Mutex
}

// creates a file store rooted at dir, creating the directory if needed
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = defaultDataDir
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &FileStore{root: dir}, nil
}

// returns the directory the store writes under
func (s *FileStore) Root() string {
	return s.root
}

func (s *FileStore) Get(_ context.Context, namespace, collection string) (json.RawMessage, error) {
	if err := validateKey(namespace, collection); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.read(namespace, collection)
}

func (s *FileStore) Set(_ context.Context, namespace, collection string, value any) error {
	if err := validateKey(namespace, collection); err != nil {
		return err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.write(namespace, collection, raw)
}

func (s *FileStore) Append(_ context.Context, namespace, collection string, item any) error {
	if err := validateKey(namespace, collection); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.read(namespace, collection)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	next, err := appendJSON(existing, item)
	if err != nil {
		return err
	}

	return s.write(namespace, collection, next)
}

func (s *FileStore) Delete(_ context.Context, namespace, collection string) error {
	if err := validateKey(namespace, collection); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(namespace, collection))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete %s/%s: %w", namespace, collection, err)
	}

	return nil
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) path(namespace, collection string) string {
	return filepath.Join(s.root, namespace, collection+".json")
}

// a file that exists but does not hold valid JSON is reported as an error, not as absent
func (s *FileStore) read(namespace, collection string) (json.RawMessage, error) {
	data, err := os.ReadFile(s.path(namespace, collection))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read %s/%s: %w", namespace, collection, err)
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("corrupt document %s/%s", namespace, collection)
	}

	return data, nil
}

// writes through a temp file in the same directory and renames it into place
func (s *FileStore) write(namespace, collection string, raw json.RawMessage) error {
	dir := filepath.Join(s.root, namespace)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create namespace directory: %w", err)
	}

	indented, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format %s/%s: %w", namespace, collection, err)
	}

	tmp, err := os.CreateTemp(dir, collection+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // no-op after a successful rename

	if _, err := tmp.Write(indented); err != nil {
		tmp.Close() //nolint:errcheck,gosec // already failing
		return fmt.Errorf("failed to write %s/%s: %w", namespace, collection, err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close() //nolint:errcheck,gosec // already failing
		return fmt.Errorf("failed to sync %s/%s: %w", namespace, collection, err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s/%s: %w", namespace, collection, err)
	}

	if err := os.Rename(tmpName, s.path(namespace, collection)); err != nil {
		return fmt.Errorf("failed to replace %s/%s: %w", namespace, collection, err)
	}

	return nil
}
