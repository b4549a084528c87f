package repository

import (
	"encoding/json"
	"errors"

	"github.com/cheliu754/CS409-MP3/domain"
	"github.com/cheliu754/CS409-MP3/internal/store"
)

// GetTask loads one task, mapping malformed and unknown ids to not-found.
func GetTask(tx store.Tx, id string) (*domain.Task, error) {
	if !domain.ValidID(id) {
		return nil, domain.ErrTaskNotFound
	}
	raw, err := tx.Get(store.CollectionTasks, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}
	var t domain.Task
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// PutTask writes the task document.
func PutTask(tx store.Tx, t *domain.Task) error {
	if t == nil || t.ID == "" {
		return domain.ErrInvalidPayload
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return tx.Put(store.CollectionTasks, t.ID, raw)
}

// DeleteTask removes the task document.
func DeleteTask(tx store.Tx, id string) error {
	if !domain.ValidID(id) {
		return domain.ErrTaskNotFound
	}
	if err := tx.Delete(store.CollectionTasks, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ErrTaskNotFound
		}
		return err
	}
	return nil
}

// ScanTasks visits every task document.
func ScanTasks(tx store.Tx, fn func(*domain.Task) error) error {
	return tx.Scan(store.CollectionTasks, func(id string, raw []byte) error {
		var t domain.Task
		if err := json.Unmarshal(raw, &t); err != nil {
			return err
		}
		return fn(&t)
	})
}
