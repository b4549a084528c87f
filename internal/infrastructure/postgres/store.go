// Package postgres provides a Postgres-backed document store. Documents are
// kept as jsonb rows in a single table; query evaluation stays in-process,
// the database contributes durability and transactional isolation.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cheliu754/CS409-MP3/internal/store"
)

// Store implements store.Store on top of a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wraps an existing pool. Schema is managed by RunMigrations.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) View(ctx context.Context, fn func(store.Tx) error) error {
	return s.run(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly}, false, fn)
}

func (s *Store) Update(ctx context.Context, fn func(store.Tx) error) error {
	// Serializable keeps two concurrent reassignments of the same task from
	// committing interleaved cross-collection writes.
	return s.run(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable}, true, fn)
}

func (s *Store) run(ctx context.Context, opts pgx.TxOptions, writable bool, fn func(store.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, opts)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgTx{ctx: ctx, tx: tx, writable: writable}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
	return nil
}

type pgTx struct {
	ctx      context.Context
	tx       pgx.Tx
	writable bool
}

func (t *pgTx) Get(collection, id string) ([]byte, error) {
	query := `SELECT doc FROM documents WHERE collection = $1 AND id = $2`
	if t.writable {
		query += ` FOR UPDATE`
	}
	var doc []byte
	if err := t.tx.QueryRow(t.ctx, query, collection, id).Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (t *pgTx) Put(collection, id string, doc []byte) error {
	const query = `
	INSERT INTO documents (collection, id, doc)
	VALUES ($1, $2, $3)
	ON CONFLICT (collection, id) DO UPDATE SET doc = EXCLUDED.doc
	`
	_, err := t.tx.Exec(t.ctx, query, collection, id, doc)
	return err
}

func (t *pgTx) Delete(collection, id string) error {
	const query = `DELETE FROM documents WHERE collection = $1 AND id = $2`
	tag, err := t.tx.Exec(t.ctx, query, collection, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (t *pgTx) Scan(collection string, fn func(id string, doc []byte) error) error {
	const query = `SELECT id, doc FROM documents WHERE collection = $1 ORDER BY id`
	rows, err := t.tx.Query(t.ctx, query, collection)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id  string
			doc []byte
		)
		if err := rows.Scan(&id, &doc); err != nil {
			return err
		}
		if err := fn(id, doc); err != nil {
			return err
		}
	}
	return rows.Err()
}
