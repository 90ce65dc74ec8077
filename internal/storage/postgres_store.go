package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// implements Store using PostgreSQL, one jsonb row per (namespace, collection)
type PostgresStore struct {
	db *pgxpool.Pool
}

// creates a new PostgreSQL store on an existing pool
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// creates a pool from a connection string, pings it and ensures the table exists
func NewPostgresStoreFromURL(ctx context.Context, connString string) (*PostgresStore, error) {
	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = 5
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = 30 * time.Minute
	poolConfig.MaxConnIdleTime = 5 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	// poolers in transaction mode reject prepared statements
	poolConfig.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	db, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := NewPostgresStore(db)
	if err := store.Initialize(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize kv_documents: %w", err)
	}

	return store, nil
}

// creates the required table if it doesn't exist
func (s *PostgresStore) Initialize(ctx context.Context) error {
	_, err := s.db.Exec(ctx, createDocumentsTableQuery)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, namespace, collection string) (json.RawMessage, error) {
	if err := validateKey(namespace, collection); err != nil {
		return nil, err
	}

	var value []byte

	err := s.db.QueryRow(ctx, getDocumentQuery, namespace, collection).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", namespace, collection, err)
	}

	return value, nil
}

func (s *PostgresStore) Set(ctx context.Context, namespace, collection string, value any) error {
	if err := validateKey(namespace, collection); err != nil {
		return err
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}

	if _, err := s.db.Exec(ctx, upsertDocumentQuery, namespace, collection, string(raw)); err != nil {
		return fmt.Errorf("failed to set %s/%s: %w", namespace, collection, err)
	}

	return nil
}

// appends in a single statement; row locking on the upsert keeps concurrent appends ordered
func (s *PostgresStore) Append(ctx context.Context, namespace, collection string, item any) error {
	if err := validateKey(namespace, collection); err != nil {
		return err
	}

	raw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	if _, err := s.db.Exec(ctx, appendDocumentQuery, namespace, collection, string(raw)); err != nil {
		return fmt.Errorf("failed to append to %s/%s: %w", namespace, collection, err)
	}

	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, namespace, collection string) error {
	if err := validateKey(namespace, collection); err != nil {
		return err
	}

	if _, err := s.db.Exec(ctx, deleteDocumentQuery, namespace, collection); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", namespace, collection, err)
	}

	return nil
}

func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}
