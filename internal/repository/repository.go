// Package repository declares the storage interfaces consumed by the service
// layer. The sqlite subpackage implements them; tests substitute in-memory
// mocks.
package repository

import (
	"context"

	"github.com/mlanden/task-manager/internal/model"
)

// SortField names a task column that list queries may sort on. Services map
// client-supplied field names onto these constants; the sqlite layer maps
// them onto column names. Client input never reaches the SQL text.
type SortField string

const (
	SortCreatedAt   SortField = "createdAt"
	SortUpdatedAt   SortField = "updatedAt"
	SortCompleted   SortField = "completed"
	SortDescription SortField = "description"
)

// TaskListOptions shapes an owner-scoped task listing.
type TaskListOptions struct {
	// Completed filters by completion state when non-nil.
	Completed *bool
	// SortBy defaults to SortCreatedAt when empty; Descending flips the
	// default ascending order.
	SortBy     SortField
	Descending bool
	// Limit and Skip paginate; callers pass resolved values (the service
	// applies the 10/0 defaults).
	Limit int
	Skip  int
}

// UserRepository persists user accounts.
//
// Create and Update return apperror.ErrConflict when the normalized email
// collides with another account, and Get* return apperror.ErrNotFound for
// absent rows. Delete cascades to the user's tokens and tasks.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, id string) error
}

// TokenRepository persists session tokens as individually addressable rows,
// one per active session, owned by a single user.
type TokenRepository interface {
	Create(ctx context.Context, token *model.Token) error
	// Find returns the stored record whose value exactly matches, scoped to
	// the user; apperror.ErrNotFound when absent (i.e. revoked).
	Find(ctx context.Context, userID, value string) (*model.Token, error)
	ListByUser(ctx context.Context, userID string) ([]model.Token, error)
	// Delete removes one token row; apperror.ErrNotFound when already gone.
	Delete(ctx context.Context, userID, tokenID string) error
	// DeleteByUser removes every token for the user. Removing zero rows is
	// not an error.
	DeleteByUser(ctx context.Context, userID string) error
}

// TaskRepository persists tasks. Every method that addresses a task by ID
// takes the owner ID and conjoins it in the query, so a task owned by
// someone else behaves exactly like a missing one.
type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	GetByOwner(ctx context.Context, ownerID, id string) (*model.Task, error)
	ListByOwner(ctx context.Context, ownerID string, opts TaskListOptions) ([]model.Task, error)
	Update(ctx context.Context, task *model.Task) error
	// Delete removes the task and returns its last state.
	Delete(ctx context.Context, ownerID, id string) (*model.Task, error)
}
