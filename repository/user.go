// Package repository provides typed access to users and tasks over a
// store transaction. Encoding stays here so the use-case layer works with
// domain structs while the query engine sees raw document maps.
package repository

import (
	"encoding/json"
	"errors"

	"github.com/cheliu754/CS409-MP3/domain"
	"github.com/cheliu754/CS409-MP3/internal/store"
)

// GetUser loads one user. Ids that do not have identifier shape can never
// name a stored document, so they resolve to not-found as well.
func GetUser(tx store.Tx, id string) (*domain.User, error) {
	if !domain.ValidID(id) {
		return nil, domain.ErrUserNotFound
	}
	raw, err := tx.Get(store.CollectionUsers, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	var u domain.User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, err
	}
	if u.PendingTasks == nil {
		u.PendingTasks = []string{}
	}
	return &u, nil
}

// PutUser writes the user document.
func PutUser(tx store.Tx, u *domain.User) error {
	if u == nil || u.ID == "" {
		return domain.ErrInvalidPayload
	}
	if u.PendingTasks == nil {
		u.PendingTasks = []string{}
	}
	raw, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return tx.Put(store.CollectionUsers, u.ID, raw)
}

// DeleteUser removes the user document.
func DeleteUser(tx store.Tx, id string) error {
	if !domain.ValidID(id) {
		return domain.ErrUserNotFound
	}
	if err := tx.Delete(store.CollectionUsers, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}
	return nil
}

// ScanUsers visits every user document.
func ScanUsers(tx store.Tx, fn func(*domain.User) error) error {
	return tx.Scan(store.CollectionUsers, func(id string, raw []byte) error {
		var u domain.User
		if err := json.Unmarshal(raw, &u); err != nil {
			return err
		}
		if u.PendingTasks == nil {
			u.PendingTasks = []string{}
		}
		return fn(&u)
	})
}

// EmailInUse reports whether another user already holds the email.
// Uniqueness is exact-match.
func EmailInUse(tx store.Tx, email, excludeID string) (bool, error) {
	var taken bool
	err := ScanUsers(tx, func(u *domain.User) error {
		if u.ID != excludeID && u.Email == email {
			taken = true
		}
		return nil
	})
	return taken, err
}
