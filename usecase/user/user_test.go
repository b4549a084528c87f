package user

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/cheliu754/CS409-MP3/domain"
	"github.com/cheliu754/CS409-MP3/internal/infrastructure/bolt"
	"github.com/cheliu754/CS409-MP3/internal/query"
	"github.com/cheliu754/CS409-MP3/internal/store"
	"github.com/cheliu754/CS409-MP3/repository"
)

func newTestUseCase(t *testing.T) (*UseCase, store.Store) {
	t.Helper()
	st, err := bolt.Open(filepath.Join(t.TempDir(), "documents.db"))
	if err != nil {
		t.Fatalf("bolt.Open failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return New(st, nil), st
}

func seedTask(t *testing.T, st store.Store, task *domain.Task) {
	t.Helper()
	if task.ID == "" {
		task.ID = domain.NewID()
	}
	if task.AssignedUser == "" {
		task.Unassign()
	}
	err := st.Update(context.Background(), func(tx store.Tx) error {
		return repository.PutTask(tx, task)
	})
	if err != nil {
		t.Fatalf("seedTask failed: %v", err)
	}
}

func loadTask(t *testing.T, st store.Store, id string) *domain.Task {
	t.Helper()
	var task *domain.Task
	err := st.View(context.Background(), func(tx store.Tx) error {
		var err error
		task, err = repository.GetTask(tx, id)
		return err
	})
	if err != nil {
		t.Fatalf("loadTask failed: %v", err)
	}
	return task
}

func loadUser(t *testing.T, st store.Store, id string) *domain.User {
	t.Helper()
	var u *domain.User
	err := st.View(context.Background(), func(tx store.Tx) error {
		var err error
		u, err = repository.GetUser(tx, id)
		return err
	})
	if err != nil {
		t.Fatalf("loadUser failed: %v", err)
	}
	return u
}

func TestCreateUser(t *testing.T) {
	uc, _ := newTestUseCase(t)

	u, err := uc.Create(context.Background(), Input{Name: "Alice", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !domain.ValidID(u.ID) {
		t.Errorf("expected a valid generated id, got %q", u.ID)
	}
	if u.PendingTasks == nil || len(u.PendingTasks) != 0 {
		t.Errorf("new user should have an empty pending set, got %v", u.PendingTasks)
	}
	if u.DateCreated.IsZero() {
		t.Error("dateCreated should be set")
	}
}

func TestCreateUserValidation(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	if _, err := uc.Create(ctx, Input{Email: "a@b.c"}); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Errorf("missing name: expected INVALID, got %v", err)
	}
	if _, err := uc.Create(ctx, Input{Name: "Alice"}); !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Errorf("missing email: expected INVALID, got %v", err)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	if _, err := uc.Create(ctx, Input{Name: "Alice", Email: "alice@example.com"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	_, err := uc.Create(ctx, Input{Name: "Impostor", Email: "alice@example.com"})
	if !domain.IsDomainError(err, domain.ErrCodeConflict) {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
}

func TestCreateUserClaimsPendingTasks(t *testing.T) {
	uc, st := newTestUseCase(t)
	ctx := context.Background()

	task := &domain.Task{Name: "laundry", Deadline: time.Now().Add(time.Hour)}
	seedTask(t, st, task)

	u, err := uc.Create(ctx, Input{
		Name:         "Alice",
		Email:        "alice@example.com",
		PendingTasks: &[]string{task.ID},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !u.HasPending(task.ID) {
		t.Error("task should be in pendingTasks")
	}

	got := loadTask(t, st, task.ID)
	if got.AssignedUser != u.ID || got.AssignedUserName != "Alice" {
		t.Errorf("task not claimed: %+v", got)
	}
}

func TestCreateUserRejectsUnknownPendingTask(t *testing.T) {
	uc, _ := newTestUseCase(t)

	_, err := uc.Create(context.Background(), Input{
		Name:         "Alice",
		Email:        "alice@example.com",
		PendingTasks: &[]string{domain.NewID()},
	})
	if !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("expected INVALID, got %v", err)
	}
}

func TestCreateUserRejectsCompletedPendingTask(t *testing.T) {
	uc, st := newTestUseCase(t)

	task := &domain.Task{Name: "done", Deadline: time.Now(), Completed: true}
	seedTask(t, st, task)

	_, err := uc.Create(context.Background(), Input{
		Name:         "Alice",
		Email:        "alice@example.com",
		PendingTasks: &[]string{task.ID},
	})
	if !domain.IsDomainError(err, domain.ErrCodeInvalid) {
		t.Fatalf("expected INVALID, got %v", err)
	}
}

func TestReplaceNotFound(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()
	in := Input{Name: "Alice", Email: "alice@example.com"}

	if _, err := uc.Replace(ctx, domain.NewID(), in); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Errorf("unknown id: expected NOT_FOUND, got %v", err)
	}
	if _, err := uc.Replace(ctx, "garbage", in); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Errorf("malformed id: expected NOT_FOUND, got %v", err)
	}
}

func TestReplaceOmittedPendingPreservesSet(t *testing.T) {
	uc, st := newTestUseCase(t)
	ctx := context.Background()

	task := &domain.Task{Name: "laundry", Deadline: time.Now().Add(time.Hour)}
	seedTask(t, st, task)

	u, err := uc.Create(ctx, Input{Name: "Alice", Email: "alice@example.com", PendingTasks: &[]string{task.ID}})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	out, err := uc.Replace(ctx, u.ID, Input{Name: "Alice", Email: "alice2@example.com"})
	if err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if !out.HasPending(task.ID) {
		t.Error("omitted pendingTasks must preserve the stored set")
	}
	if out.Email != "alice2@example.com" {
		t.Errorf("email not replaced: %s", out.Email)
	}
}

func TestReplaceEmptyPendingReleasesTasks(t *testing.T) {
	uc, st := newTestUseCase(t)
	ctx := context.Background()

	task := &domain.Task{Name: "laundry", Deadline: time.Now().Add(time.Hour)}
	seedTask(t, st, task)

	u, err := uc.Create(ctx, Input{Name: "Alice", Email: "alice@example.com", PendingTasks: &[]string{task.ID}})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	out, err := uc.Replace(ctx, u.ID, Input{Name: "Alice", Email: "alice@example.com", PendingTasks: &[]string{}})
	if err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if len(out.PendingTasks) != 0 {
		t.Errorf("pending set should be cleared, got %v", out.PendingTasks)
	}

	got := loadTask(t, st, task.ID)
	if got.IsAssigned() || got.AssignedUserName != domain.UnassignedName {
		t.Errorf("dropped task should be unassigned: %+v", got)
	}
}

func TestReplaceStealsTaskFromOtherUser(t *testing.T) {
	uc, st := newTestUseCase(t)
	ctx := context.Background()

	task := &domain.Task{Name: "laundry", Deadline: time.Now().Add(time.Hour)}
	seedTask(t, st, task)

	alice, err := uc.Create(ctx, Input{Name: "Alice", Email: "alice@example.com", PendingTasks: &[]string{task.ID}})
	if err != nil {
		t.Fatalf("Create alice failed: %v", err)
	}
	bob, err := uc.Create(ctx, Input{Name: "Bob", Email: "bob@example.com"})
	if err != nil {
		t.Fatalf("Create bob failed: %v", err)
	}

	_, err = uc.Replace(ctx, bob.ID, Input{Name: "Bob", Email: "bob@example.com", PendingTasks: &[]string{task.ID}})
	if err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	got := loadTask(t, st, task.ID)
	if got.AssignedUser != bob.ID || got.AssignedUserName != "Bob" {
		t.Errorf("task should now belong to bob: %+v", got)
	}
	if loadUser(t, st, alice.ID).HasPending(task.ID) {
		t.Error("alice should have lost the task")
	}
	if !loadUser(t, st, bob.ID).HasPending(task.ID) {
		t.Error("bob should have gained the task")
	}
}

func TestReplaceRenamePropagates(t *testing.T) {
	uc, st := newTestUseCase(t)
	ctx := context.Background()

	pending := &domain.Task{Name: "laundry", Deadline: time.Now().Add(time.Hour)}
	seedTask(t, st, pending)

	u, err := uc.Create(ctx, Input{Name: "Alice", Email: "alice@example.com", PendingTasks: &[]string{pending.ID}})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// a completed task keeps its owner reference and must be renamed too
	completed := &domain.Task{
		Name:             "old chore",
		Deadline:         time.Now(),
		Completed:        true,
		AssignedUser:     u.ID,
		AssignedUserName: "Alice",
	}
	seedTask(t, st, completed)

	if _, err := uc.Replace(ctx, u.ID, Input{Name: "Alicia", Email: "alice@example.com"}); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}

	if got := loadTask(t, st, pending.ID); got.AssignedUserName != "Alicia" {
		t.Errorf("pending task name not propagated: %q", got.AssignedUserName)
	}
	if got := loadTask(t, st, completed.ID); got.AssignedUserName != "Alicia" {
		t.Errorf("completed task name not propagated: %q", got.AssignedUserName)
	}
}

func TestDeleteUserReleasesPendingTasks(t *testing.T) {
	uc, st := newTestUseCase(t)
	ctx := context.Background()

	task := &domain.Task{Name: "laundry", Deadline: time.Now().Add(time.Hour)}
	seedTask(t, st, task)

	u, err := uc.Create(ctx, Input{Name: "Alice", Email: "alice@example.com", PendingTasks: &[]string{task.ID}})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := uc.Delete(ctx, u.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := uc.Get(ctx, u.ID, nil); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Errorf("deleted user should be gone, got %v", err)
	}
	got := loadTask(t, st, task.ID)
	if got.IsAssigned() {
		t.Errorf("task should be released on owner delete: %+v", got)
	}
}

func TestDeleteUserNotFound(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	if err := uc.Delete(ctx, domain.NewID()); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Errorf("unknown id: expected NOT_FOUND, got %v", err)
	}
	if err := uc.Delete(ctx, "12345"); !domain.IsDomainError(err, domain.ErrCodeNotFound) {
		t.Errorf("malformed id: expected NOT_FOUND, got %v", err)
	}
}

func TestListAndCount(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	for _, in := range []Input{
		{Name: "Alice", Email: "alice@example.com"},
		{Name: "Bob", Email: "bob@example.com"},
		{Name: "Carol", Email: "carol@example.com"},
	} {
		if _, err := uc.Create(ctx, in); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	opts, err := query.Parse(query.Params{Where: `{"name":"Bob"}`}, 0)
	if err != nil {
		t.Fatalf("query.Parse failed: %v", err)
	}
	result, err := uc.List(ctx, opts)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	docs, ok := result.([]map[string]interface{})
	if !ok {
		t.Fatalf("expected documents, got %T", result)
	}
	if len(docs) != 1 || docs[0]["name"] != "Bob" {
		t.Errorf("unexpected result: %v", docs)
	}

	opts, err = query.Parse(query.Params{Count: "true"}, 0)
	if err != nil {
		t.Fatalf("query.Parse failed: %v", err)
	}
	result, err = uc.List(ctx, opts)
	if err != nil {
		t.Fatalf("List count failed: %v", err)
	}
	if n, ok := result.(int); !ok || n != 3 {
		t.Errorf("expected count 3, got %v", result)
	}
}

func TestListSortAndPagination(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	for _, in := range []Input{
		{Name: "Carol", Email: "carol@example.com"},
		{Name: "Alice", Email: "alice@example.com"},
		{Name: "Bob", Email: "bob@example.com"},
	} {
		if _, err := uc.Create(ctx, in); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	opts, err := query.Parse(query.Params{Sort: `{"name":1}`, Skip: "1", Limit: "1"}, 0)
	if err != nil {
		t.Fatalf("query.Parse failed: %v", err)
	}
	result, err := uc.List(ctx, opts)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	docs := result.([]map[string]interface{})
	if len(docs) != 1 || docs[0]["name"] != "Bob" {
		t.Errorf("expected the middle name after skip/limit, got %v", docs)
	}
}

func TestGetWithProjection(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	u, err := uc.Create(ctx, Input{Name: "Alice", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	proj, err := query.ParseProjection(`{"name":1}`)
	if err != nil {
		t.Fatalf("ParseProjection failed: %v", err)
	}
	doc, err := uc.Get(ctx, u.ID, proj)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if doc["name"] != "Alice" || doc["_id"] != u.ID {
		t.Errorf("unexpected doc: %v", doc)
	}
	if _, ok := doc["email"]; ok {
		t.Error("email should be projected away")
	}
}
