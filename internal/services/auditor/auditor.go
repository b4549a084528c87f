// Package auditor periodically cross-checks the users and tasks
// collections. The write paths keep both sides of the assignment
// relationship in step inside one transaction, so a finding here means a
// bug or an operator edit; the auditor surfaces it and can optionally
// repair it.
package auditor

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/cheliu754/CS409-MP3/domain"
	"github.com/cheliu754/CS409-MP3/internal/store"
	"github.com/cheliu754/CS409-MP3/repository"
)

// Finding describes one inconsistency between a user and a task document.
type Finding struct {
	Kind   string
	UserID string
	TaskID string
	Detail string
}

const (
	KindOrphanPending    = "orphan_pending"    // pendingTasks names a task that does not exist
	KindCompletedPending = "completed_pending" // pendingTasks names a completed task
	KindForeignPending   = "foreign_pending"   // pendingTasks names a task assigned elsewhere
	KindMissingBacklink  = "missing_backlink"  // active task not listed by its owner
	KindDanglingOwner    = "dangling_owner"    // task assigned to a user that does not exist
	KindNameDrift        = "name_drift"        // assignedUserName disagrees with the user
)

// Auditor runs integrity sweeps on a cron schedule.
type Auditor struct {
	docs     store.Store
	interval time.Duration
	repair   bool
	logger   *zap.Logger

	cron *cron.Cron
}

func New(docs store.Store, interval time.Duration, repair bool, logger *zap.Logger) *Auditor {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Auditor{
		docs:     docs,
		interval: interval,
		repair:   repair,
		logger:   logger,
	}
}

// Start schedules the sweep. The first run happens after one interval.
func (a *Auditor) Start() error {
	c := cron.New()
	_, err := c.AddFunc("@every "+a.interval.String(), func() {
		ctx, cancel := context.WithTimeout(context.Background(), a.interval)
		defer cancel()
		a.run(ctx)
	})
	if err != nil {
		return err
	}
	a.cron = c
	c.Start()
	a.logger.Info("integrity auditor started",
		zap.Duration("interval", a.interval),
		zap.Bool("repair", a.repair))
	return nil
}

// Stop halts the schedule and waits for an in-flight sweep to finish.
func (a *Auditor) Stop(ctx context.Context) {
	if a.cron == nil {
		return
	}
	done := a.cron.Stop().Done()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

func (a *Auditor) run(ctx context.Context) {
	findings, err := a.Audit(ctx)
	if err != nil {
		a.logger.Error("integrity sweep failed", zap.Error(err))
		return
	}
	if len(findings) == 0 {
		a.logger.Debug("integrity sweep clean")
		return
	}
	for _, f := range findings {
		a.logger.Warn("integrity finding",
			zap.String("kind", f.Kind),
			zap.String("user_id", f.UserID),
			zap.String("task_id", f.TaskID),
			zap.String("detail", f.Detail))
	}
	if !a.repair {
		return
	}
	if err := a.Repair(ctx); err != nil {
		a.logger.Error("integrity repair failed", zap.Error(err))
		return
	}
	a.logger.Info("integrity repair applied", zap.Int("findings", len(findings)))
}

// Audit scans both collections inside one read transaction and reports
// every relationship that is out of step.
func (a *Auditor) Audit(ctx context.Context) ([]Finding, error) {
	var findings []Finding
	err := a.docs.View(ctx, func(tx store.Tx) error {
		users, tasks, err := snapshot(tx)
		if err != nil {
			return err
		}
		findings = inspect(users, tasks)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return findings, nil
}

// Repair rewrites the documents so each side reflects the other again.
// Task documents win on assignment: a user's pendingTasks becomes exactly
// the set of active tasks assigned to that user, and assignedUserName is
// refreshed from the user document.
func (a *Auditor) Repair(ctx context.Context) error {
	return a.docs.Update(ctx, func(tx store.Tx) error {
		users, tasks, err := snapshot(tx)
		if err != nil {
			return err
		}

		pending := make(map[string][]string, len(users))
		for _, t := range tasks {
			if !t.IsAssigned() || t.Completed {
				continue
			}
			owner, ok := users[t.AssignedUser]
			if !ok {
				t.Unassign()
				if err := repository.PutTask(tx, t); err != nil {
					return err
				}
				continue
			}
			if t.AssignedUserName != owner.Name {
				t.AssignedUserName = owner.Name
				if err := repository.PutTask(tx, t); err != nil {
					return err
				}
			}
			pending[owner.ID] = append(pending[owner.ID], t.ID)
		}

		for _, u := range users {
			want := pending[u.ID]
			if want == nil {
				want = []string{}
			}
			if !sameSet(u.PendingTasks, want) {
				u.PendingTasks = want
				if err := repository.PutUser(tx, u); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func snapshot(tx store.Tx) (map[string]*domain.User, map[string]*domain.Task, error) {
	users := make(map[string]*domain.User)
	if err := repository.ScanUsers(tx, func(u *domain.User) error {
		users[u.ID] = u
		return nil
	}); err != nil {
		return nil, nil, err
	}
	tasks := make(map[string]*domain.Task)
	if err := repository.ScanTasks(tx, func(t *domain.Task) error {
		tasks[t.ID] = t
		return nil
	}); err != nil {
		return nil, nil, err
	}
	return users, tasks, nil
}

func inspect(users map[string]*domain.User, tasks map[string]*domain.Task) []Finding {
	var findings []Finding

	for _, u := range users {
		for _, taskID := range u.PendingTasks {
			t, ok := tasks[taskID]
			if !ok {
				findings = append(findings, Finding{
					Kind:   KindOrphanPending,
					UserID: u.ID,
					TaskID: taskID,
					Detail: "pending task does not exist",
				})
				continue
			}
			if t.Completed {
				findings = append(findings, Finding{
					Kind:   KindCompletedPending,
					UserID: u.ID,
					TaskID: taskID,
					Detail: "pending task is completed",
				})
				continue
			}
			if t.AssignedUser != u.ID {
				findings = append(findings, Finding{
					Kind:   KindForeignPending,
					UserID: u.ID,
					TaskID: taskID,
					Detail: "pending task is assigned to " + t.AssignedUser,
				})
			}
		}
	}

	for _, t := range tasks {
		if !t.IsAssigned() {
			continue
		}
		owner, ok := users[t.AssignedUser]
		if !ok {
			// completed tasks keep their owner reference as a historical
			// record even after the user is deleted
			if t.Completed {
				continue
			}
			findings = append(findings, Finding{
				Kind:   KindDanglingOwner,
				UserID: t.AssignedUser,
				TaskID: t.ID,
				Detail: "assigned user does not exist",
			})
			continue
		}
		if t.AssignedUserName != owner.Name {
			findings = append(findings, Finding{
				Kind:   KindNameDrift,
				UserID: owner.ID,
				TaskID: t.ID,
				Detail: "assignedUserName " + t.AssignedUserName + " != " + owner.Name,
			})
		}
		if !t.Completed && !owner.HasPending(t.ID) {
			findings = append(findings, Finding{
				Kind:   KindMissingBacklink,
				UserID: owner.ID,
				TaskID: t.ID,
				Detail: "active task missing from owner pendingTasks",
			})
		}
	}

	return findings
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, v := range a {
		seen[v]++
	}
	for _, v := range b {
		if seen[v] == 0 {
			return false
		}
		seen[v]--
	}
	return true
}
