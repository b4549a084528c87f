package domain

import "time"

// User is an account that tasks can be assigned to.
type User struct {
	ID           string    `json:"_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PendingTasks []string  `json:"pendingTasks"`
	DateCreated  time.Time `json:"dateCreated"`
}

// HasPending reports whether the task id is in the user's pending set.
func (u *User) HasPending(taskID string) bool {
	for _, id := range u.PendingTasks {
		if id == taskID {
			return true
		}
	}
	return false
}

// AddPending inserts the task id into the pending set if absent.
func (u *User) AddPending(taskID string) {
	if u.HasPending(taskID) {
		return
	}
	u.PendingTasks = append(u.PendingTasks, taskID)
}

// RemovePending drops the task id from the pending set.
func (u *User) RemovePending(taskID string) {
	out := u.PendingTasks[:0]
	for _, id := range u.PendingTasks {
		if id != taskID {
			out = append(out, id)
		}
	}
	u.PendingTasks = out
}
