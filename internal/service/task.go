package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mlanden/task-manager/internal/apperror"
	"github.com/mlanden/task-manager/internal/model"
	"github.com/mlanden/task-manager/internal/repository"
)

// Pagination defaults for task listings.
const (
	DefaultTaskLimit = 10
	MaxTaskLimit     = 100
)

// MaxDescriptionLength bounds a task description.
const MaxDescriptionLength = 1000

// TaskService owns task CRUD. Every operation takes the owner identity from
// the authenticated context, never from client input; the repository
// conjoins it into each query, so cross-user access surfaces as NotFound.
type TaskService struct {
	tasks  repository.TaskRepository
	logger *slog.Logger
}

// NewTaskService creates a TaskService.
func NewTaskService(tasks repository.TaskRepository, logger *slog.Logger) *TaskService {
	return &TaskService{
		tasks:  tasks,
		logger: logger,
	}
}

// Create validates and saves a new task for the owner.
func (s *TaskService) Create(ctx context.Context, ownerID, description string, completed bool) (*model.Task, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, apperror.ValidationFailed("description", "description is required")
	}
	if len(description) > MaxDescriptionLength {
		return nil, apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
	}

	task := &model.Task{
		OwnerID:     ownerID,
		Description: description,
		Completed:   completed,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	s.logger.Info("task created",
		slog.String("id", task.ID),
		slog.String("ownerID", ownerID),
	)

	return task, nil
}

// Get retrieves one of the owner's tasks. Absent and foreign-owned both
// come back as the same NotFound.
func (s *TaskService) Get(ctx context.Context, ownerID, id string) (*model.Task, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "task ID is required")
	}

	return s.tasks.GetByOwner(ctx, ownerID, id)
}

// List returns the owner's tasks. completed filters when non-nil; sortBy is
// "field" or "field:desc" over createdAt/updatedAt/completed/description;
// limit and skip paginate with defaults 10 and 0. An empty page is a valid
// empty result.
func (s *TaskService) List(ctx context.Context, ownerID string, completed *bool, sortBy string, limit, skip int) ([]model.Task, error) {
	opts := repository.TaskListOptions{
		Completed: completed,
		Limit:     limit,
		Skip:      skip,
	}

	if limit <= 0 {
		opts.Limit = DefaultTaskLimit
	}
	if limit > MaxTaskLimit {
		opts.Limit = MaxTaskLimit
	}
	if skip < 0 {
		opts.Skip = 0
	}

	if sortBy != "" {
		field, descending, err := parseSortBy(sortBy)
		if err != nil {
			return nil, err
		}
		opts.SortBy = field
		opts.Descending = descending
	}

	tasks, err := s.tasks.ListByOwner(ctx, ownerID, opts)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	return tasks, nil
}

// TaskPatch carries the updatable task fields; nil leaves a field
// unchanged. The handler has already rejected keys outside the
// description/completed allow-list.
type TaskPatch struct {
	Description *string
	Completed   *bool
}

// Update applies a patch to one of the owner's tasks. Values are validated
// before the write; ownership mismatch is the same NotFound as Get.
func (s *TaskService) Update(ctx context.Context, ownerID, id string, patch TaskPatch) (*model.Task, error) {
	task, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if patch.Description != nil {
		description := strings.TrimSpace(*patch.Description)
		if description == "" {
			return nil, apperror.ValidationFailed("description", "description is required")
		}
		if len(description) > MaxDescriptionLength {
			return nil, apperror.ValidationFailed("description",
				fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
		}
		task.Description = description
	}
	if patch.Completed != nil {
		task.Completed = *patch.Completed
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("updating task: %w", err)
	}

	s.logger.Info("task updated", slog.String("id", task.ID))

	return task, nil
}

// Delete removes one of the owner's tasks and returns its last state.
func (s *TaskService) Delete(ctx context.Context, ownerID, id string) (*model.Task, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "task ID is required")
	}

	task, err := s.tasks.Delete(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("task deleted", slog.String("id", id))

	return task, nil
}

// parseSortBy validates a "field" or "field:direction" sort expression.
// Unknown fields and directions are validation errors rather than silently
// ignored input.
func parseSortBy(sortBy string) (repository.SortField, bool, error) {
	field, direction, hasDirection := strings.Cut(sortBy, ":")

	var sortField repository.SortField
	switch field {
	case "createdAt":
		sortField = repository.SortCreatedAt
	case "updatedAt":
		sortField = repository.SortUpdatedAt
	case "completed":
		sortField = repository.SortCompleted
	case "description":
		sortField = repository.SortDescription
	default:
		return "", false, apperror.ValidationFailed("sortBy",
			fmt.Sprintf("cannot sort by %q", field))
	}

	if !hasDirection {
		return sortField, false, nil
	}
	switch direction {
	case "asc":
		return sortField, false, nil
	case "desc":
		return sortField, true, nil
	default:
		return "", false, apperror.ValidationFailed("sortBy",
			fmt.Sprintf("unknown sort direction %q", direction))
	}
}
