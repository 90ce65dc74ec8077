package storage

import (
	"context"
	"encoding/json"
	"errors"
)

// supported store backends
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

var (
	ErrNotFound          = errors.New("collection not found")
	ErrInvalidKey        = errors.New("invalid namespace or collection")
	ErrUnknownBackend    = errors.New("unknown store backend")
	ErrAppendConflict    = errors.New("append retries exhausted")
	ErrMissingConnection = errors.New("store connection string is required")
)

// key-value document store scoped by (namespace, collection).
// values are JSON documents; Append treats the collection as a list.
type Store interface {
	// returns the raw document, or ErrNotFound when the collection is absent
	Get(ctx context.Context, namespace, collection string) (json.RawMessage, error)

	// overwrites the collection with value
	Set(ctx context.Context, namespace, collection string, value any) error

	// appends item to the collection, creating the list if absent and
	// coercing a non-list value into a single-element list first
	Append(ctx context.Context, namespace, collection string, item any) error

	// removes the collection; removing an absent collection is not an error
	Delete(ctx context.Context, namespace, collection string) error

	Close() error
}

// selects and configures a store backend
type Options struct {
	Backend        string
	DataDir        string
	RedisURL       string
	RedisKeyPrefix string
	DatabaseURL    string
}
