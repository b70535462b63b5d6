package sqlite

import (
	"context"
	"testing"

	"github.com/mlanden/task-manager/internal/model"
)

// newTestDB opens an in-memory database that disappears when the test ends.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

// createTestUser inserts a user with a plausible (pre-hashed) credential.
func createTestUser(t *testing.T, users *UserRepo, email string) *model.User {
	t.Helper()

	user := &model.User{
		Name:         "Test User",
		Email:        email,
		Age:          30,
		PasswordHash: "$2a$04$notarealhashbutgoodenoughfortests0000000000000000000",
	}
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// createTestToken appends a token row for the user.
func createTestToken(t *testing.T, tokens *TokenRepo, userID, value string) *model.Token {
	t.Helper()

	token := &model.Token{UserID: userID, Value: value}
	if err := tokens.Create(context.Background(), token); err != nil {
		t.Fatalf("failed to create test token: %v", err)
	}
	return token
}

// createTestTask inserts a task for the owner.
func createTestTask(t *testing.T, tasks *TaskRepo, ownerID, description string, completed bool) *model.Task {
	t.Helper()

	task := &model.Task{
		OwnerID:     ownerID,
		Description: description,
		Completed:   completed,
	}
	if err := tasks.Create(context.Background(), task); err != nil {
		t.Fatalf("failed to create test task: %v", err)
	}
	return task
}
