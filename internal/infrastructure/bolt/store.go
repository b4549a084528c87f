// Package bolt provides the embedded bbolt implementation of store.Store.
package bolt

import (
	"context"
	"os"
	"path/filepath"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/cheliu754/CS409-MP3/internal/store"
)

// Store persists one bucket per collection in a single bbolt file.
type Store struct {
	db *bbolt.DB
}

// Open initializes the bbolt file and ensures every collection bucket exists.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range store.Collections {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) View(ctx context.Context, fn func(store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(btx *bbolt.Tx) error {
		return fn(&boltTx{tx: btx})
	})
}

func (s *Store) Update(ctx context.Context, fn func(store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(btx *bbolt.Tx) error {
		return fn(&boltTx{tx: btx})
	})
}

func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(*bbolt.Tx) error { return nil })
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

type boltTx struct {
	tx *bbolt.Tx
}

func (t *boltTx) Get(collection, id string) ([]byte, error) {
	b := t.tx.Bucket([]byte(collection))
	if b == nil {
		return nil, store.ErrNotFound
	}
	v := b.Get([]byte(id))
	if v == nil {
		return nil, store.ErrNotFound
	}
	// bbolt memory is only valid for the life of the transaction.
	return append([]byte(nil), v...), nil
}

func (t *boltTx) Put(collection, id string, doc []byte) error {
	return t.tx.Bucket([]byte(collection)).Put([]byte(id), doc)
}

func (t *boltTx) Delete(collection, id string) error {
	b := t.tx.Bucket([]byte(collection))
	if b == nil || b.Get([]byte(id)) == nil {
		return store.ErrNotFound
	}
	return b.Delete([]byte(id))
}

func (t *boltTx) Scan(collection string, fn func(id string, doc []byte) error) error {
	b := t.tx.Bucket([]byte(collection))
	if b == nil {
		return nil
	}
	c := b.Cursor()
	for k, v := c.First(); k != nil; k, v = c.Next() {
		if err := fn(string(k), v); err != nil {
			return err
		}
	}
	return nil
}
