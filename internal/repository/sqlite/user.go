package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/mlanden/task-manager/internal/apperror"
	"github.com/mlanden/task-manager/internal/model"
	"github.com/mlanden/task-manager/internal/repository"
)

// UserRepo persists user accounts. Obtain one from DB.Users.
type UserRepo struct {
	conn *sql.DB
}

// compile-time interface check
var _ repository.UserRepository = (*UserRepo)(nil)

// Create inserts a new user. The caller has already normalized the email and
// hashed the password; this layer only persists. A collision on the email
// unique index is translated to apperror.DuplicateEmail.
func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO users (id, name, email, age, password_hash, avatar, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		user.Email,
		user.Age,
		user.PasswordHash,
		user.Avatar,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "users.email") {
			return apperror.DuplicateEmail()
		}
		return fmt.Errorf("sqlite: inserting user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by internal ID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.getUser(ctx, `WHERE id = ?`, id)
}

// GetByEmail retrieves a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getUser(ctx, `WHERE email = ?`, email)
}

func (r *UserRepo) getUser(ctx context.Context, where string, arg any) (*model.User, error) {
	var u model.User

	err := r.conn.QueryRowContext(ctx,
		`SELECT id, name, email, age, password_hash, avatar, created_at, updated_at
		 FROM users `+where,
		arg,
	).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Age,
		&u.PasswordHash,
		&u.Avatar,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user")
		}
		return nil, fmt.Errorf("sqlite: getting user: %w", err)
	}

	return &u, nil
}

// Update persists the user's mutable fields (name, email, age, password
// hash, avatar). ID and created_at never change.
func (r *UserRepo) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now().UTC()

	result, err := r.conn.ExecContext(ctx,
		`UPDATE users
		 SET name = ?, email = ?, age = ?, password_hash = ?, avatar = ?, updated_at = ?
		 WHERE id = ?`,
		user.Name,
		user.Email,
		user.Age,
		user.PasswordHash,
		user.Avatar,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err, "users.email") {
			return apperror.DuplicateEmail()
		}
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user")
	}

	return nil
}

// Delete removes a user. The foreign-key cascade removes the user's tokens
// and tasks in the same statement.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	result, err := r.conn.ExecContext(ctx,
		`DELETE FROM users WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("user")
	}

	return nil
}
