package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// document is the record type persisted by BoltStore. Its bucket is named
// after the type; the value bytes are stored verbatim.
type document struct {
	Value []byte
}

// BoltStore wraps a bolthold store
type BoltStore struct {
	store *bolthold.Store
}

// NewBoltStore opens (or creates) the bolt database at path
func NewBoltStore(path string) (*BoltStore, error) {
	store, err := bolthold.Open(path, 0600, &bolthold.Options{
		Encoder: encodeRaw,
		Decoder: decodeRaw,
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &BoltStore{store: store}, nil
}

// Get retrieves the document stored under key
func (s *BoltStore) Get(key string) ([]byte, error) {
	var doc document
	err := s.store.Get(key, &doc)
	if errors.Is(err, bolthold.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", key, err)
	}
	return doc.Value, nil
}

// Put inserts or replaces the document stored under key
func (s *BoltStore) Put(key string, value []byte) error {
	if err := s.store.Upsert(key, &document{Value: value}); err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}

// Close closes the database connection
func (s *BoltStore) Close() error {
	return s.store.Close()
}

// encodeRaw stores keys as their UTF-8 bytes and documents as-is, so the
// bucket holds the exact JSON written by callers.
func encodeRaw(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case *document:
		return v.Value, nil
	case document:
		return v.Value, nil
	default:
		return nil, fmt.Errorf("unsupported bolt value type %T", value)
	}
}

func decodeRaw(data []byte, value interface{}) error {
	switch v := value.(type) {
	case *document:
		// bbolt memory is only valid inside the transaction
		v.Value = append([]byte(nil), data...)
		return nil
	case *string:
		*v = string(data)
		return nil
	case *[]byte:
		*v = append([]byte(nil), data...)
		return nil
	default:
		return fmt.Errorf("unsupported bolt target type %T", value)
	}
}
