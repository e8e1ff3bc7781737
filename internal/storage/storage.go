// Package storage provides the durable key-value stores backing the watched list.
package storage

import (
	"errors"
	"fmt"

	"github.com/amaumene/popcorn/internal/config"
)

// ErrNotFound is returned when a key has never been written
var ErrNotFound = errors.New("key not found")

// Store is a durable key-value store holding opaque (JSON) documents
type Store interface {
	// Get returns the document stored under key, or ErrNotFound
	Get(key string) ([]byte, error)
	// Put replaces the document stored under key. It returns once the value is durable.
	Put(key string, value []byte) error
	Close() error
}

// Open opens the store selected by cfg.StorageDriver
func Open(cfg *config.Config) (Store, error) {
	switch cfg.StorageDriver {
	case config.StorageBolt:
		return NewBoltStore(cfg.BoltFile)
	case config.StorageSQLite:
		return NewSQLiteStore(cfg.SQLiteFile)
	case config.StorageFile:
		return NewFileStore(cfg.DataDir)
	case config.StorageMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
