package domain

import "time"

// UnassignedName is the denormalized owner name carried by tasks without an owner.
const UnassignedName = "unassigned"

// Task represents a unit of work, optionally assigned to a single user.
type Task struct {
	ID               string    `json:"_id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	Deadline         time.Time `json:"deadline"`
	Completed        bool      `json:"completed"`
	AssignedUser     string    `json:"assignedUser"`
	AssignedUserName string    `json:"assignedUserName"`
	DateCreated      time.Time `json:"dateCreated"`
}

// IsAssigned reports whether the task has an owner.
func (t *Task) IsAssigned() bool {
	return t != nil && t.AssignedUser != ""
}

// Unassign clears the owner reference. assignedUser == "" and
// assignedUserName == "unassigned" always change together.
func (t *Task) Unassign() {
	t.AssignedUser = ""
	t.AssignedUserName = UnassignedName
}

// Assign points the task at the given user, keeping the denormalized name in sync.
func (t *Task) Assign(u *User) {
	t.AssignedUser = u.ID
	t.AssignedUserName = u.Name
}
