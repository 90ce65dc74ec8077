package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// reads a collection into T, returning def when the collection is absent or null
func GetOrDefault[T any](ctx context.Context, s Store, namespace, collection string, def T) (T, error) {
	raw, err := s.Get(ctx, namespace, collection)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}

	if err != nil {
		return def, err
	}

	if isNull(raw) {
		return def, nil
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return def, fmt.Errorf("failed to decode %s/%s: %w", namespace, collection, err)
	}

	return out, nil
}

// opens the backend named in opts
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendMemory:
		return NewMemoryStore(), nil

	case BackendFile, "":
		return NewFileStore(opts.DataDir)

	case BackendRedis:
		if opts.RedisURL == "" {
			return nil, fmt.Errorf("redis backend: %w", ErrMissingConnection)
		}
		return NewRedisStoreFromURL(ctx, opts.RedisURL, opts.RedisKeyPrefix)

	case BackendPostgres:
		if opts.DatabaseURL == "" {
			return nil, fmt.Errorf("postgres backend: %w", ErrMissingConnection)
		}
		return NewPostgresStoreFromURL(ctx, opts.DatabaseURL)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}

// builds the list that results from appending item to existing.
// existing may be empty (absent), null, a list, or any other value.
func appendJSON(existing json.RawMessage, item any) (json.RawMessage, error) {
	itemJSON, err := json.Marshal(item)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal item: %w", err)
	}

	var list []json.RawMessage

	if len(existing) > 0 && !isNull(existing) {
		if err := json.Unmarshal(existing, &list); err != nil {
			list = []json.RawMessage{existing}
		}
	}

	list = append(list, itemJSON)

	return json.Marshal(list)
}

// rejects keys that are empty or could escape a namespace directory
func validateKey(namespace, collection string) error {
	for _, part := range []string{namespace, collection} {
		if part == "" || part == "." || part == ".." ||
			strings.ContainsAny(part, `/\`) || strings.ContainsRune(part, 0) {
			return fmt.Errorf("%w: %q/%q", ErrInvalidKey, namespace, collection)
		}
	}

	return nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
