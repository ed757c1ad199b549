// Package badger implements domain.KeyValueStore on an embedded Badger
// database. Expiry is delegated to Badger's entry TTL.
package badger

import (
	"context"
	"errors"
	"strconv"
	"time"

	"healthmate/internal/domain"

	badgerdb "github.com/dgraph-io/badger/v3"
)

var _ domain.KeyValueStore = (*Store)(nil)

// Store is a Badger-backed KeyValueStore.
type Store struct {
	db *badgerdb.DB
}

// Open opens (or creates) a store in dir. An empty dir keeps everything
// in memory.
func Open(dir string) (*Store, error) {
	opts := badgerdb.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores value under key. A non-positive ttl never expires.
func (s *Store) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.db.Update(func(txn *badgerdb.Txn) error {
		e := badgerdb.NewEntry([]byte(key), []byte(value))
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
}

// Get returns the value under key if it exists and has not expired.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var value []byte
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(value), true, nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// Incr increments the counter under key, keeping the expiry of an existing
// counter. Transactions that lose a write conflict are retried.
func (s *Store) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	for {
		var n int64
		err := s.db.Update(func(txn *badgerdb.Txn) error {
			expiry := ttl
			item, err := txn.Get([]byte(key))
			switch {
			case errors.Is(err, badgerdb.ErrKeyNotFound):
			case err != nil:
				return err
			default:
				v, err := item.ValueCopy(nil)
				if err != nil {
					return err
				}
				if n, err = strconv.ParseInt(string(v), 10, 64); err != nil {
					return err
				}
				expiry = 0
				if exp := item.ExpiresAt(); exp > 0 {
					expiry = time.Until(time.Unix(int64(exp), 0))
					if expiry <= 0 {
						expiry = time.Second
					}
				}
			}
			n++
			e := badgerdb.NewEntry([]byte(key), []byte(strconv.FormatInt(n, 10)))
			if expiry > 0 {
				e = e.WithTTL(expiry)
			}
			return txn.SetEntry(e)
		})
		if errors.Is(err, badgerdb.ErrConflict) {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
			continue
		}
		return n, err
	}
}
