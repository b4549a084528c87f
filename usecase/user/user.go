// Package user implements the user-collection operations, including the
// pendingTasks reconciliation that keeps task assignments bidirectionally
// consistent. Every mutation runs inside one store transaction: all
// validation happens before the first write, so a rejected request leaves
// the store untouched.
package user

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

// Input is a user create/replace payload. A nil PendingTasks means the field
// was omitted, which preserves the stored set; an explicit empty list clears it.
type Input struct {
	Name         string
	Email        string
	PendingTasks *[]string
}

func (in Input) validate() error {
	if in.Name == "" {
		return domain.Invalidf("name is required")
	}
	if in.Email == "" {
		return domain.Invalidf("email is required")
	}
	return nil
}

// List executes a list query. Data is either a slice of documents or, when
// count=true, the number of matches.
func (uc *UseCase) List(ctx context.Context, opts *query.Options) (interface{}, error) {
	var result interface{}
	err := uc.store.View(ctx, func(tx store.Tx) error {
		var err error
		if opts.Count {
			result, err = repository.CountDocuments(tx, store.CollectionUsers, opts)
		} else {
			result, err = repository.ListDocuments(tx, store.CollectionUsers, opts)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Get fetches a single user, honoring an optional projection.
func (uc *UseCase) Get(ctx context.Context, id string, proj *query.Projection) (map[string]interface{}, error) {
	if !domain.ValidID(id) {
		return nil, domain.ErrUserNotFound
	}
	var doc map[string]interface{}
	err := uc.store.View(ctx, func(tx store.Tx) error {
		var err error
		doc, err = repository.GetDocument(tx, store.CollectionUsers, id, proj)
		return err
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Create inserts a new user. When the payload carries pendingTasks, the
// referenced tasks are claimed in the same transaction.
func (uc *UseCase) Create(ctx context.Context, in Input) (*domain.User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	u := &domain.User{
		ID:           domain.NewID(),
		Name:         in.Name,
		Email:        in.Email,
		PendingTasks: []string{},
		DateCreated:  time.Now().UTC(),
	}

	err := uc.store.Update(ctx, func(tx store.Tx) error {
		taken, err := repository.EmailInUse(tx, in.Email, "")
		if err != nil {
			return err
		}
		if taken {
			return domain.Conflictf("email %q is already in use", in.Email)
		}
		if in.PendingTasks != nil {
			if err := reconcilePending(tx, u, *in.PendingTasks); err != nil {
				return err
			}
		}
		return repository.PutUser(tx, u)
	})
	if err != nil {
		return nil, err
	}

	appLogger.WithRequestID(ctx, uc.logger).Info("user created", zap.String("user_id", u.ID))
	return u, nil
}

// Replace applies full-replace semantics to an existing user. A changed name
// is propagated into assignedUserName of every task owned by this user.
func (uc *UseCase) Replace(ctx context.Context, id string, in Input) (*domain.User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var out *domain.User
	err := uc.store.Update(ctx, func(tx store.Tx) error {
		u, err := repository.GetUser(tx, id)
		if err != nil {
			return err
		}

		taken, err := repository.EmailInUse(tx, in.Email, id)
		if err != nil {
			return err
		}
		if taken {
			return domain.Conflictf("email %q is already in use", in.Email)
		}

		renamed := u.Name != in.Name
		u.Name = in.Name
		u.Email = in.Email

		if renamed {
			if err := propagateRename(tx, u); err != nil {
				return err
			}
		}
		if in.PendingTasks != nil {
			if err := reconcilePending(tx, u, *in.PendingTasks); err != nil {
				return err
			}
		}

		out = u
		return repository.PutUser(tx, u)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a user. Tasks still pending under the user are released to
// the unassigned state; completed tasks keep their owner reference as a
// historical record.
func (uc *UseCase) Delete(ctx context.Context, id string) error {
	err := uc.store.Update(ctx, func(tx store.Tx) error {
		u, err := repository.GetUser(tx, id)
		if err != nil {
			return err
		}

		for _, tid := range u.PendingTasks {
			t, err := repository.GetTask(tx, tid)
			if err != nil {
				if errors.Is(err, domain.ErrTaskNotFound) {
					continue
				}
				return err
			}
			if t.AssignedUser == u.ID && !t.Completed {
				t.Unassign()
				if err := repository.PutTask(tx, t); err != nil {
					return err
				}
			}
		}

		return repository.DeleteUser(tx, id)
	})
	if err != nil {
		return err
	}

	appLogger.WithRequestID(ctx, uc.logger).Info("user deleted", zap.String("user_id", id))
	return nil
}

// propagateRename rewrites the denormalized owner name on every task this
// user is assigned to, completed tasks included.
func propagateRename(tx store.Tx, u *domain.User) error {
	var stale []*domain.Task
	err := repository.ScanTasks(tx, func(t *domain.Task) error {
		if t.AssignedUser == u.ID && t.AssignedUserName != u.Name {
			clone := *t
			stale = append(stale, &clone)
		}
		return nil
	})
	if err != nil {
		return err
	}
	for _, t := range stale {
		t.AssignedUserName = u.Name
		if err := repository.PutTask(tx, t); err != nil {
			return err
		}
	}
	return nil
}

// reconcilePending moves the user's pending set to exactly target. Tasks
// dropped from the set become unassigned; tasks added to it are claimed,
// stealing them from any previous owner. The whole target is validated
// before anything is written.
func reconcilePending(tx store.Tx, u *domain.User, target []string) error {
	seen := make(map[string]bool, len(target))
	deduped := make([]string, 0, len(target))
	for _, tid := range target {
		if !seen[tid] {
			seen[tid] = true
			deduped = append(deduped, tid)
		}
	}

	// validate the full target set up front
	claimed := make(map[string]*domain.Task, len(deduped))
	for _, tid := range deduped {
		t, err := repository.GetTask(tx, tid)
		if err != nil {
			if errors.Is(err, domain.ErrTaskNotFound) {
				return domain.Invalidf("pendingTasks references unknown task %s", tid)
			}
			return err
		}
		if t.Completed {
			return domain.Invalidf("pendingTasks references completed task %s", tid)
		}
		claimed[tid] = t
	}

	// release tasks dropped from the set
	for _, tid := range u.PendingTasks {
		if seen[tid] {
			continue
		}
		t, err := repository.GetTask(tx, tid)
		if err != nil {
			if errors.Is(err, domain.ErrTaskNotFound) {
				continue
			}
			return err
		}
		if t.AssignedUser == u.ID {
			t.Unassign()
			if err := repository.PutTask(tx, t); err != nil {
				return err
			}
		}
	}

	// claim the new set
	for _, tid := range deduped {
		t := claimed[tid]
		if t.AssignedUser != "" && t.AssignedUser != u.ID {
			other, err := repository.GetUser(tx, t.AssignedUser)
			if err == nil {
				other.RemovePending(tid)
				if err := repository.PutUser(tx, other); err != nil {
					return err
				}
			} else if !errors.Is(err, domain.ErrUserNotFound) {
				return err
			}
		}
		if t.AssignedUser != u.ID || t.AssignedUserName != u.Name {
			t.Assign(u)
			if err := repository.PutTask(tx, t); err != nil {
				return err
			}
		}
	}

	u.PendingTasks = deduped
	return nil
}
