package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisKeyPrefix = "canvas:"

	// optimistic transaction attempts before Append gives up
	maxAppendRetries = 10
)

// implements Store using Redis, one string key per (namespace, collection)
type RedisStore struct {
	client *redis.Client
	prefix string
}

// creates a new Redis-backed store
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisKeyPrefix
	}

	return &RedisStore{client: client, prefix: prefix}
}

// creates a new Redis-backed store from a URL
func NewRedisStoreFromURL(ctx context.Context, redisURL, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close() //nolint:errcheck,gosec // best-effort cleanup on init failure
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisStore(client, prefix), nil
}

func (s *RedisStore) key(namespace, collection string) string {
	return s.prefix + namespace + ":" + collection
}

func (s *RedisStore) Get(ctx context.Context, namespace, collection string) (json.RawMessage, error) {
	if err := validateKey(namespace, collection); err != nil {
		return nil, err
	}

	data, err := s.client.Get(ctx, s.key(namespace, collection)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", namespace, collection, err)
	}

	return data, nil
}

func (s *RedisStore) Set(ctx context.Context, namespace, collection string, value any) error {
	if err := validateKey(namespace, collection); err != nil {
		return err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	if err := s.client.Set(ctx, s.key(namespace, collection), raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", namespace, collection, err)
	}

	return nil
}

// appends with WATCH/MULTI so concurrent writers from other processes never lose an item
func (s *RedisStore) Append(ctx context.Context, namespace, collection string, item any) error {
	if err := validateKey(namespace, collection); err != nil {
		return err
	}

	key := s.key(namespace, collection)

	txf := func(tx *redis.Tx) error {
		existing, err := tx.Get(ctx, key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}

		next, err := appendJSON(existing, item)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, []byte(next), 0)
			return nil
		})
		return err
	}

	for range maxAppendRetries {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}

		return fmt.Errorf("failed to append to %s/%s: %w", namespace, collection, err)
	}

	return fmt.Errorf("%s/%s: %w", namespace, collection, ErrAppendConflict)
}

func (s *RedisStore) Delete(ctx context.Context, namespace, collection string) error {
	if err := validateKey(namespace, collection); err != nil {
		return err
	}

	if err := s.client.Del(ctx, s.key(namespace, collection)).Err(); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", namespace, collection, err)
	}

	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
