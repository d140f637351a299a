package storage

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/vkuzn/expiry-keeper/internal/errs"
)

// BadgerKV is a durable KV backed by an embedded badger database.
type BadgerKV struct {
	db *badger.DB
}

var _ KV = (*BadgerKV)(nil)

// OpenBadger opens (or creates) the store at dir.
func OpenBadger(dir string) (*BadgerKV, error) {
	opts := badger.DefaultOptions(dir).
		WithLoggingLevel(badger.ERROR)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return &BadgerKV{db: db}, nil
}

// Get returns the value for key or errs.ErrNotFound.
func (s *BadgerKV) Get(key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, fmt.Errorf("%w: get %s: %w", errs.ErrStorageUnavailable, key, err)
	}
	return out, nil
}

// Set stores value under key, replacing any previous value.
func (s *BadgerKV) Set(key string, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("%w: set %s: %w", errs.ErrStorageUnavailable, key, err)
	}
	return nil
}

// Delete removes key; deleting a missing key is not an error.
func (s *BadgerKV) Delete(key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("%w: delete %s: %w", errs.ErrStorageUnavailable, key, err)
	}
	return nil
}

// Close releases the underlying database.
func (s *BadgerKV) Close() error {
	return s.db.Close()
}
