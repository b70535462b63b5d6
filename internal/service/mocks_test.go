package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mlanden/task-manager/internal/apperror"
	"github.com/mlanden/task-manager/internal/auth"
	"github.com/mlanden/task-manager/internal/model"
	"github.com/mlanden/task-manager/internal/repository"
)

// In-memory mock repositories. The services see the same interfaces the
// sqlite package implements, so the business rules are tested without any
// database.

type mockUserRepo struct {
	users  map[string]*model.User
	nextID int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return apperror.DuplicateEmail()
		}
	}
	m.nextID++
	user.ID = fmt.Sprintf("user-%d", m.nextID)
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user")
	}
	result := *u
	return &result, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user")
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return apperror.NotFound("user")
	}
	for id, u := range m.users {
		if id != user.ID && u.Email == user.Email {
			return apperror.DuplicateEmail()
		}
	}
	user.UpdatedAt = time.Now()
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return apperror.NotFound("user")
	}
	delete(m.users, id)
	return nil
}

type mockTokenRepo struct {
	tokens map[string]*model.Token
	nextID int
}

func newMockTokenRepo() *mockTokenRepo {
	return &mockTokenRepo{tokens: make(map[string]*model.Token)}
}

func (m *mockTokenRepo) Create(_ context.Context, token *model.Token) error {
	m.nextID++
	token.ID = fmt.Sprintf("token-%d", m.nextID)
	token.CreatedAt = time.Now()
	stored := *token
	m.tokens[token.ID] = &stored
	return nil
}

func (m *mockTokenRepo) Find(_ context.Context, userID, value string) (*model.Token, error) {
	for _, t := range m.tokens {
		if t.UserID == userID && t.Value == value {
			result := *t
			return &result, nil
		}
	}
	return nil, apperror.NotFound("token")
}

func (m *mockTokenRepo) ListByUser(_ context.Context, userID string) ([]model.Token, error) {
	var result []model.Token
	for _, t := range m.tokens {
		if t.UserID == userID {
			result = append(result, *t)
		}
	}
	return result, nil
}

func (m *mockTokenRepo) Delete(_ context.Context, userID, tokenID string) error {
	t, ok := m.tokens[tokenID]
	if !ok || t.UserID != userID {
		return apperror.NotFound("token")
	}
	delete(m.tokens, tokenID)
	return nil
}

func (m *mockTokenRepo) DeleteByUser(_ context.Context, userID string) error {
	for id, t := range m.tokens {
		if t.UserID == userID {
			delete(m.tokens, id)
		}
	}
	return nil
}

type mockTaskRepo struct {
	tasks  map[string]*model.Task
	nextID int
	// lastListOpts records what the service asked for, so tests can verify
	// defaults and sort translation without reimplementing them here.
	lastListOpts repository.TaskListOptions
}

func newMockTaskRepo() *mockTaskRepo {
	return &mockTaskRepo{tasks: make(map[string]*model.Task)}
}

func (m *mockTaskRepo) Create(_ context.Context, task *model.Task) error {
	m.nextID++
	task.ID = fmt.Sprintf("task-%d", m.nextID)
	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now
	stored := *task
	m.tasks[task.ID] = &stored
	return nil
}

func (m *mockTaskRepo) GetByOwner(_ context.Context, ownerID, id string) (*model.Task, error) {
	t, ok := m.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return nil, apperror.NotFound("task")
	}
	result := *t
	return &result, nil
}

func (m *mockTaskRepo) ListByOwner(_ context.Context, ownerID string, opts repository.TaskListOptions) ([]model.Task, error) {
	m.lastListOpts = opts
	result := []model.Task{}
	for _, t := range m.tasks {
		if t.OwnerID != ownerID {
			continue
		}
		if opts.Completed != nil && t.Completed != *opts.Completed {
			continue
		}
		result = append(result, *t)
	}
	return result, nil
}

func (m *mockTaskRepo) Update(_ context.Context, task *model.Task) error {
	t, ok := m.tasks[task.ID]
	if !ok || t.OwnerID != task.OwnerID {
		return apperror.NotFound("task")
	}
	task.UpdatedAt = time.Now()
	stored := *task
	m.tasks[task.ID] = &stored
	return nil
}

func (m *mockTaskRepo) Delete(_ context.Context, ownerID, id string) (*model.Task, error) {
	t, ok := m.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return nil, apperror.NotFound("task")
	}
	delete(m.tasks, id)
	result := *t
	return &result, nil
}

// mockNotifier records calls and optionally fails, to prove notification
// failures never escalate. Deliveries happen on background goroutines,
// hence the mutex and the waitFor helper.
type mockNotifier struct {
	mu            sync.Mutex
	welcomes      int
	cancellations int
	fail          bool
}

func (m *mockNotifier) Welcome(_ context.Context, _, _ string) error {
	m.mu.Lock()
	m.welcomes++
	m.mu.Unlock()
	if m.fail {
		return fmt.Errorf("notify: delivery failed")
	}
	return nil
}

func (m *mockNotifier) Cancellation(_ context.Context, _, _ string) error {
	m.mu.Lock()
	m.cancellations++
	m.mu.Unlock()
	if m.fail {
		return fmt.Errorf("notify: delivery failed")
	}
	return nil
}

func (m *mockNotifier) counts() (welcomes, cancellations int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.welcomes, m.cancellations
}

// waitFor polls until cond returns true or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

const testSecret = "0123456789abcdef0123456789abcdef"

// newTestAuthService wires an AuthService over the mocks, with bcrypt at
// its minimum cost so tests stay fast.
func newTestAuthService(t *testing.T) (*AuthService, *mockUserRepo, *mockTokenRepo, *mockNotifier) {
	t.Helper()

	users := newMockUserRepo()
	tokens := newMockTokenRepo()
	notifier := &mockNotifier{}

	signer, err := auth.NewTokenService(testSecret)
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}

	svc := NewAuthService(users, tokens, signer, auth.NewPasswordService(bcrypt.MinCost), notifier, testLogger())
	return svc, users, tokens, notifier
}
