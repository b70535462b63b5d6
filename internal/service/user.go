package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mlanden/task-manager/internal/apperror"
	"github.com/mlanden/task-manager/internal/auth"
	"github.com/mlanden/task-manager/internal/avatar"
	"github.com/mlanden/task-manager/internal/model"
	"github.com/mlanden/task-manager/internal/notify"
	"github.com/mlanden/task-manager/internal/repository"
)

// UserService owns the profile lifecycle: updates, account deletion, and the
// avatar operations.
type UserService struct {
	users     repository.UserRepository
	passwords *auth.PasswordService
	avatars   avatar.Processor
	notifier  notify.Notifier
	logger    *slog.Logger
}

// NewUserService creates a UserService with all dependencies injected.
func NewUserService(
	users repository.UserRepository,
	passwords *auth.PasswordService,
	avatars avatar.Processor,
	notifier notify.Notifier,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:     users,
		passwords: passwords,
		avatars:   avatars,
		notifier:  notifier,
		logger:    logger,
	}
}

// ProfilePatch carries the updatable profile fields. Nil means "leave
// unchanged". The handler has already rejected any key outside the
// name/email/age/password allow-list, so a patch reaching this method only
// ever touches these four.
type ProfilePatch struct {
	Name     *string
	Email    *string
	Age      *int
	Password *string
}

// Update applies a profile patch to the authenticated user. All field values
// are validated before the single repository write, so a bad patch leaves
// the account untouched. A password change flows through the same hashing
// chokepoint as registration.
func (s *UserService) Update(ctx context.Context, user *model.User, patch ProfilePatch) (*model.User, error) {
	updated := *user

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, apperror.ValidationFailed("name", "name is required")
		}
		if len(name) > MaxNameLength {
			return nil, apperror.ValidationFailed("name",
				fmt.Sprintf("name must be %d characters or less", MaxNameLength))
		}
		updated.Name = name
	}

	if patch.Email != nil {
		normalized, err := normalizeEmail(*patch.Email)
		if err != nil {
			return nil, err
		}
		updated.Email = normalized
	}

	if patch.Age != nil {
		if *patch.Age < 0 {
			return nil, apperror.ValidationFailed("age", "age must not be negative")
		}
		updated.Age = *patch.Age
	}

	if patch.Password != nil {
		if err := s.passwords.SetPassword(&updated, *patch.Password); err != nil {
			return nil, err
		}
	}

	if err := s.users.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}

	s.logger.Info("profile updated", slog.String("userID", updated.ID))

	*user = updated
	return user, nil
}

// Delete removes the account. The repository cascade deletes every owned
// task and every session token in the same statement, so no token issued
// before the deletion can authenticate afterwards. The cancellation
// notification is fire-and-forget.
func (s *UserService) Delete(ctx context.Context, user *model.User) error {
	if err := s.users.Delete(ctx, user.ID); err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}

	s.logger.Info("user deleted", slog.String("userID", user.ID))

	email, name := user.Email, user.Name
	go func() {
		if err := s.notifier.Cancellation(context.Background(), email, name); err != nil {
			s.logger.Warn("cancellation notification failed", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// SetAvatar runs the upload through the image-processing collaborator and
// stores the result on the user. Processor failures are validation errors
// visible to the client.
func (s *UserService) SetAvatar(ctx context.Context, user *model.User, data []byte) error {
	processed, err := s.avatars.Process(data)
	if err != nil {
		return err
	}

	user.Avatar = processed
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("storing avatar: %w", err)
	}

	s.logger.Info("avatar updated",
		slog.String("userID", user.ID),
		slog.Int("bytes", len(processed)),
	)
	return nil
}

// ClearAvatar removes the stored avatar.
func (s *UserService) ClearAvatar(ctx context.Context, user *model.User) error {
	user.Avatar = nil
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("clearing avatar: %w", err)
	}

	s.logger.Info("avatar cleared", slog.String("userID", user.ID))
	return nil
}

// Avatar returns the stored avatar for any user by ID. This backs the one
// open read endpoint; a missing user and a user without an avatar are the
// same NotFound.
func (s *UserService) Avatar(ctx context.Context, userID string) ([]byte, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, apperror.NotFound("avatar")
	}
	if len(user.Avatar) == 0 {
		return nil, apperror.NotFound("avatar")
	}

	return user.Avatar, nil
}
