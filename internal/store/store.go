// Package store defines the document-store contract shared by all backends.
//
// Mutations run inside a single Update transaction; everything the closure
// writes becomes visible atomically, which is what keeps cross-collection
// updates (a task and the users referencing it) all-or-nothing.
package store

import (
	"context"
	"errors"
)

// Collection names. Every backend provisions both up front.
const (
	CollectionUsers = "users"
	CollectionTasks = "tasks"
)

// Collections lists every known collection.
var Collections = []string{CollectionUsers, CollectionTasks}

// ErrNotFound is returned by Tx.Get and Tx.Delete when no document has the given id.
var ErrNotFound = errors.New("document not found")

// Tx exposes keyed document access within a transaction. Documents are raw
// JSON; typed encoding lives in the repository layer.
type Tx interface {
	Get(collection, id string) ([]byte, error)
	Put(collection, id string, doc []byte) error
	Delete(collection, id string) error
	Scan(collection string, fn func(id string, doc []byte) error) error
}

// Store is the persistence contract consumed by the use-case layer.
type Store interface {
	// View runs fn in a read-only transaction.
	View(ctx context.Context, fn func(Tx) error) error
	// Update runs fn in a writable transaction. If fn returns an error the
	// transaction rolls back and no write is visible.
	Update(ctx context.Context, fn func(Tx) error) error
	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}
