package bolt

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/cheliu754/CS409-MP3/internal/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "documents.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestPutGetDelete(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	err := st.Update(ctx, func(tx store.Tx) error {
		return tx.Put(store.CollectionUsers, "u1", []byte(`{"_id":"u1"}`))
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	err = st.View(ctx, func(tx store.Tx) error {
		raw, err := tx.Get(store.CollectionUsers, "u1")
		if err != nil {
			return err
		}
		if string(raw) != `{"_id":"u1"}` {
			t.Errorf("unexpected document: %s", raw)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}

	err = st.Update(ctx, func(tx store.Tx) error {
		return tx.Delete(store.CollectionUsers, "u1")
	})
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	err = st.View(ctx, func(tx store.Tx) error {
		_, err := tx.Get(store.CollectionUsers, "u1")
		return err
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteMissing(t *testing.T) {
	st := openTestStore(t)

	err := st.Update(context.Background(), func(tx store.Tx) error {
		return tx.Delete(store.CollectionTasks, "nope")
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateRollsBackOnError(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := st.Update(ctx, func(tx store.Tx) error {
		if err := tx.Put(store.CollectionUsers, "u1", []byte(`{}`)); err != nil {
			return err
		}
		if err := tx.Put(store.CollectionTasks, "t1", []byte(`{}`)); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected the closure error, got %v", err)
	}

	err = st.View(ctx, func(tx store.Tx) error {
		if _, err := tx.Get(store.CollectionUsers, "u1"); !errors.Is(err, store.ErrNotFound) {
			t.Error("user write should have rolled back")
		}
		if _, err := tx.Get(store.CollectionTasks, "t1"); !errors.Is(err, store.ErrNotFound) {
			t.Error("task write should have rolled back")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
}

func TestScanOrder(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	err := st.Update(ctx, func(tx store.Tx) error {
		for _, id := range []string{"c", "a", "b"} {
			if err := tx.Put(store.CollectionTasks, id, []byte(`{}`)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	var ids []string
	err = st.View(ctx, func(tx store.Tx) error {
		return tx.Scan(store.CollectionTasks, func(id string, _ []byte) error {
			ids = append(ids, id)
			return nil
		})
	})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	want := []string{"a", "b", "c"}
	if len(ids) != len(want) {
		t.Fatalf("got %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("got %v, want %v", ids, want)
		}
	}
}
