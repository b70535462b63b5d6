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

// TaskRepo persists tasks. Obtain one from DB.Tasks.
type TaskRepo struct {
	conn *sql.DB
}

// compile-time interface check
var _ repository.TaskRepository = (*TaskRepo)(nil)

// sortColumn maps the validated sort fields onto column names. Anything not
// in this map sorts by created_at; client input never reaches the SQL text.
var sortColumn = map[repository.SortField]string{
	repository.SortCreatedAt:   "created_at",
	repository.SortUpdatedAt:   "updated_at",
	repository.SortCompleted:   "completed",
	repository.SortDescription: "description",
}

// Create inserts a new task. OwnerID is already fixed by the caller from the
// authenticated identity.
func (r *TaskRepo) Create(ctx context.Context, task *model.Task) error {
	task.ID = xid.New().String()

	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now

	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO tasks (id, owner_id, description, completed, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		task.ID,
		task.OwnerID,
		task.Description,
		task.Completed,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting task: %w", err)
	}

	return nil
}

// GetByOwner retrieves a task by ID, conjoined with the owner predicate. A
// task that exists under another owner scans as no rows at all, so the
// caller cannot tell it apart from a task that does not exist.
func (r *TaskRepo) GetByOwner(ctx context.Context, ownerID, id string) (*model.Task, error) {
	var t model.Task

	err := r.conn.QueryRowContext(ctx,
		`SELECT id, owner_id, description, completed, created_at, updated_at
		 FROM tasks
		 WHERE id = ? AND owner_id = ?`,
		id, ownerID,
	).Scan(
		&t.ID,
		&t.OwnerID,
		&t.Description,
		&t.Completed,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("task")
		}
		return nil, fmt.Errorf("sqlite: getting task %s: %w", id, err)
	}

	return &t, nil
}

// ListByOwner returns the owner's tasks, optionally filtered by completion,
// sorted by an allow-listed column, and paginated. An empty page is a valid
// empty slice, not an error.
func (r *TaskRepo) ListByOwner(ctx context.Context, ownerID string, opts repository.TaskListOptions) ([]model.Task, error) {
	query := `SELECT id, owner_id, description, completed, created_at, updated_at
	          FROM tasks
	          WHERE owner_id = ?`
	args := []any{ownerID}

	if opts.Completed != nil {
		query += ` AND completed = ?`
		args = append(args, *opts.Completed)
	}

	column, ok := sortColumn[opts.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "ASC"
	if opts.Descending {
		direction = "DESC"
	}
	// Secondary sort on id keeps pagination stable when the sort column has
	// equal values (e.g. completed).
	query += fmt.Sprintf(` ORDER BY %s %s, id ASC`, column, direction)

	query += ` LIMIT ? OFFSET ?`
	args = append(args, opts.Limit, opts.Skip)

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]model.Task, 0, opts.Limit)
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(
			&t.ID, &t.OwnerID, &t.Description, &t.Completed,
			&t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning task row: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tasks: %w", err)
	}

	return tasks, nil
}

// Update persists description and completed for a task the owner holds.
// Zero rows affected covers both "no such task" and "someone else's task",
// deliberately collapsed into one NotFound.
func (r *TaskRepo) Update(ctx context.Context, task *model.Task) error {
	task.UpdatedAt = time.Now().UTC()

	result, err := r.conn.ExecContext(ctx,
		`UPDATE tasks
		 SET description = ?, completed = ?, updated_at = ?
		 WHERE id = ? AND owner_id = ?`,
		task.Description,
		task.Completed,
		task.UpdatedAt,
		task.ID,
		task.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating task %s: %w", task.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("task")
	}

	return nil
}

// Delete removes an owner's task and returns its last state.
func (r *TaskRepo) Delete(ctx context.Context, ownerID, id string) (*model.Task, error) {
	task, err := r.GetByOwner(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	result, err := r.conn.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = ? AND owner_id = ?`,
		id, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: deleting task %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, apperror.NotFound("task")
	}

	return task, nil
}
