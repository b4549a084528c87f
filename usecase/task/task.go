// Package task implements the task-collection operations and the task side
// of the User⇄Task assignment protocol. Each mutation is a state transition
// for the task (unassigned, assigned-pending, assigned-completed) whose side
// effects on user pendingTasks sets commit atomically with the task itself.
package task

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/cheliu754/CS409-MP3/domain"
	"github.com/cheliu754/CS409-MP3/internal/query"
	"github.com/cheliu754/CS409-MP3/internal/store"
	appLogger "github.com/cheliu754/CS409-MP3/pkg/logger"
	"github.com/cheliu754/CS409-MP3/repository"
)

type UseCase struct {
	store  store.Store
	logger *zap.Logger
}

func New(st store.Store, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{store: st, logger: logger}
}

// Input is a task create/replace payload, already past JSON decoding and
// deadline normalization. HasDeadline distinguishes a missing deadline from
// the zero time; the assignment pointers distinguish omitted fields, since a
// PUT that omits assignedUser unassigns the task.
type Input struct {
	Name             string
	Description      string
	Deadline         time.Time
	HasDeadline      bool
	Completed        bool
	AssignedUser     *string
	AssignedUserName *string
}

func (in Input) validate() error {
	if in.Name == "" {
		return domain.Invalidf("name is required")
	}
	if !in.HasDeadline {
		return domain.Invalidf("deadline is required")
	}
	return nil
}

// List executes a list query; data is documents or a count.
func (uc *UseCase) List(ctx context.Context, opts *query.Options) (interface{}, error) {
	var result interface{}
	err := uc.store.View(ctx, func(tx store.Tx) error {
		var err error
		if opts.Count {
			result, err = repository.CountDocuments(tx, store.CollectionTasks, opts)
		} else {
			result, err = repository.ListDocuments(tx, store.CollectionTasks, opts)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Get fetches a single task, honoring an optional projection.
func (uc *UseCase) Get(ctx context.Context, id string, proj *query.Projection) (map[string]interface{}, error) {
	if !domain.ValidID(id) {
		return nil, domain.ErrTaskNotFound
	}
	var doc map[string]interface{}
	err := uc.store.View(ctx, func(tx store.Tx) error {
		var err error
		doc, err = repository.GetDocument(tx, store.CollectionTasks, id, proj)
		return err
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, domain.ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Create inserts a new task. An assigned, non-completed task enters its
// owner's pendingTasks in the same transaction.
func (uc *UseCase) Create(ctx context.Context, in Input) (*domain.Task, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	t := &domain.Task{
		ID:          domain.NewID(),
		Name:        in.Name,
		Description: in.Description,
		Deadline:    in.Deadline,
		Completed:   in.Completed,
		DateCreated: time.Now().UTC(),
	}
	t.Unassign()

	err := uc.store.Update(ctx, func(tx store.Tx) error {
		owner, err := resolveAssignment(tx, in)
		if err != nil {
			return err
		}
		if owner != nil {
			t.Assign(owner)
			if !t.Completed {
				owner.AddPending(t.ID)
				if err := repository.PutUser(tx, owner); err != nil {
					return err
				}
			}
		}
		return repository.PutTask(tx, t)
	})
	if err != nil {
		return nil, err
	}

	appLogger.WithRequestID(ctx, uc.logger).Info("task created", zap.String("task_id", t.ID), zap.String("assigned_user", t.AssignedUser))
	return t, nil
}

// Replace applies full-replace semantics. A task whose stored state is
// already completed is immutable. Ownership changes move the task id between
// the affected users' pendingTasks sets; marking a task completed removes it
// from its owner's pending set while keeping the owner reference.
func (uc *UseCase) Replace(ctx context.Context, id string, in Input) (*domain.Task, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var out *domain.Task
	err := uc.store.Update(ctx, func(tx store.Tx) error {
		t, err := repository.GetTask(tx, id)
		if err != nil {
			return err
		}
		if t.Completed {
			return domain.Invalidf("task %s is completed and can no longer be modified", id)
		}

		owner, err := resolveAssignment(tx, in)
		if err != nil {
			return err
		}

		oldOwnerID := t.AssignedUser

		t.Name = in.Name
		t.Description = in.Description
		t.Deadline = in.Deadline
		t.Completed = in.Completed
		if owner == nil {
			t.Unassign()
		} else {
			t.Assign(owner)
		}

		// old owner loses the task when ownership changes
		if oldOwnerID != "" && oldOwnerID != t.AssignedUser {
			old, err := repository.GetUser(tx, oldOwnerID)
			if err == nil {
				old.RemovePending(t.ID)
				if err := repository.PutUser(tx, old); err != nil {
					return err
				}
			} else if !errors.Is(err, domain.ErrUserNotFound) {
				return err
			}
		}

		// current owner's pending set reflects the completion state
		if owner != nil {
			if t.Completed {
				owner.RemovePending(t.ID)
			} else {
				owner.AddPending(t.ID)
			}
			if err := repository.PutUser(tx, owner); err != nil {
				return err
			}
		}

		out = t
		return repository.PutTask(tx, t)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a task, dropping it from its owner's pendingTasks first.
func (uc *UseCase) Delete(ctx context.Context, id string) error {
	err := uc.store.Update(ctx, func(tx store.Tx) error {
		t, err := repository.GetTask(tx, id)
		if err != nil {
			return err
		}
		if t.AssignedUser != "" {
			owner, err := repository.GetUser(tx, t.AssignedUser)
			if err == nil {
				owner.RemovePending(t.ID)
				if err := repository.PutUser(tx, owner); err != nil {
					return err
				}
			} else if !errors.Is(err, domain.ErrUserNotFound) {
				return err
			}
		}
		return repository.DeleteTask(tx, id)
	})
	if err != nil {
		return err
	}

	appLogger.WithRequestID(ctx, uc.logger).Info("task deleted", zap.String("task_id", id))
	return nil
}

// resolveAssignment validates the payload's assignment fields against the
// current user collection. It returns the owner to assign, or nil for the
// unassigned state. A payload naming a user that does not exist, or pairing
// a user with the wrong assignedUserName, fails validation; an omitted
// assignedUserName is filled in from the owner's current name.
func resolveAssignment(tx store.Tx, in Input) (*domain.User, error) {
	if in.AssignedUser == nil || *in.AssignedUser == "" {
		return nil, nil
	}

	owner, err := repository.GetUser(tx, *in.AssignedUser)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.Invalidf("assignedUser %s does not exist", *in.AssignedUser)
		}
		return nil, err
	}

	if in.AssignedUserName != nil && *in.AssignedUserName != "" && *in.AssignedUserName != owner.Name {
		return nil, domain.Invalidf("assignedUserName %q does not match user %s", *in.AssignedUserName, owner.ID)
	}
	return owner, nil
}
