package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// implements Store in memory; contents are lost when the process exits
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]json.RawMessage
}

// creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]json.RawMessage),
	}
}

func (s *MemoryStore) Get(_ context.Context, namespace, collection string) (json.RawMessage, error) {
	if err := validateKey(namespace, collection); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, exists := s.data[memoryKey(namespace, collection)]
	if !exists {
		return nil, ErrNotFound
	}

	out := make(json.RawMessage, len(raw))
	copy(out, raw)

	return out, nil
}

func (s *MemoryStore) Set(_ context.Context, namespace, collection string, value any) error {
	if err := validateKey(namespace, collection); err != nil {
		return err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[memoryKey(namespace, collection)] = raw
	return nil
}

func (s *MemoryStore) Append(_ context.Context, namespace, collection string, item any) error {
	if err := validateKey(namespace, collection); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := memoryKey(namespace, collection)

	next, err := appendJSON(s.data[key], item)
	if err != nil {
		return err
	}

	s.data[key] = next
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, namespace, collection string) error {
	if err := validateKey(namespace, collection); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, memoryKey(namespace, collection))
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func memoryKey(namespace, collection string) string {
	return namespace + "/" + collection
}
