// Package service contains the business logic layer: validation, the
// credential and session rules, and ownership enforcement. Handlers parse
// HTTP and delegate here; repositories only persist.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/mlanden/task-manager/internal/apperror"
	"github.com/mlanden/task-manager/internal/auth"
	"github.com/mlanden/task-manager/internal/model"
	"github.com/mlanden/task-manager/internal/notify"
	"github.com/mlanden/task-manager/internal/repository"
)

// MaxNameLength bounds the user-supplied display name.
const MaxNameLength = 100

// AuthService owns the credential and session-token lifecycle: registration,
// login, logout, logout-all, and resolving bearer tokens on every protected
// request.
type AuthService struct {
	users     repository.UserRepository
	tokens    repository.TokenRepository
	signer    *auth.TokenService
	passwords *auth.PasswordService
	notifier  notify.Notifier
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all dependencies injected.
func NewAuthService(
	users repository.UserRepository,
	tokens repository.TokenRepository,
	signer *auth.TokenService,
	passwords *auth.PasswordService,
	notifier notify.Notifier,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		signer:    signer,
		passwords: passwords,
		notifier:  notifier,
		logger:    logger,
	}
}

// Session bundles a user with a freshly issued token string, the shape both
// register and login respond with.
type Session struct {
	User  *model.User
	Token string
}

// Register creates a new account and its first session.
//
// Validation happens before any write: non-empty name, well-formed email,
// non-negative age, and the password policy enforced by
// PasswordService.SetPassword (the single path that hashes and stores the
// credential). A taken email fails with a Conflict error from the unique
// index. The welcome notification is fire-and-forget.
func (s *AuthService) Register(ctx context.Context, name, email string, age int, password string) (*Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if len(name) > MaxNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or less", MaxNameLength))
	}

	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	if age < 0 {
		return nil, apperror.ValidationFailed("age", "age must not be negative")
	}

	user := &model.User{
		Name:  name,
		Email: normalized,
		Age:   age,
	}
	if err := s.passwords.SetPassword(user, password); err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("registering user: %w", err)
	}

	s.logger.Info("user registered", slog.String("userID", user.ID))

	token, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}

	s.sendAsync("welcome", user, s.notifier.Welcome)

	return &Session{User: user, Token: token}, nil
}

// Login checks the credentials and mints an additional session token.
// Prior sessions stay valid.
//
// Both failure modes, unknown email and wrong password, return the same
// generic authentication error so callers cannot probe which emails are
// registered.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, apperror.Unauthenticated()
	}

	user, err := s.users.GetByEmail(ctx, normalized)
	if err != nil {
		return nil, apperror.Unauthenticated()
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthenticated()
	}

	token, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return &Session{User: user, Token: token}, nil
}

// issue signs a new token for the user and appends it to the stored
// collection. Each call adds an independent session.
func (s *AuthService) issue(ctx context.Context, user *model.User) (string, error) {
	signed, err := s.signer.Sign(user.ID)
	if err != nil {
		return "", apperror.Dependency("signing token", err)
	}

	record := &model.Token{
		UserID: user.ID,
		Value:  signed,
	}
	if err := s.tokens.Create(ctx, record); err != nil {
		return "", fmt.Errorf("storing token: %w", err)
	}

	return signed, nil
}

// Validate resolves a bearer token string to the user and the stored token
// record it matched. The signature check proves the token was issued here;
// the repository lookup proves it has not been revoked since. Every failure
// collapses into the same Unauthorized error.
func (s *AuthService) Validate(ctx context.Context, tokenStr string) (*model.User, *model.Token, error) {
	userID, err := s.signer.Verify(tokenStr)
	if err != nil {
		return nil, nil, apperror.Unauthorized()
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, apperror.Unauthorized()
	}

	record, err := s.tokens.Find(ctx, user.ID, tokenStr)
	if err != nil {
		return nil, nil, apperror.Unauthorized()
	}

	return user, record, nil
}

// Logout revokes exactly the session token the request authenticated with.
// A token already removed by a concurrent logout counts as logged out.
func (s *AuthService) Logout(ctx context.Context, user *model.User, token *model.Token) error {
	if err := s.tokens.Delete(ctx, user.ID, token.ID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("revoking token: %w", err)
	}

	s.logger.Info("user logged out", slog.String("userID", user.ID))
	return nil
}

// LogoutAll revokes every session token the user holds.
func (s *AuthService) LogoutAll(ctx context.Context, user *model.User) error {
	if err := s.tokens.DeleteByUser(ctx, user.ID); err != nil {
		return fmt.Errorf("revoking all tokens: %w", err)
	}

	s.logger.Info("user logged out of all sessions", slog.String("userID", user.ID))
	return nil
}

// sendAsync delivers a notification without blocking or failing the calling
// operation. The request context may be cancelled as soon as the response is
// written, so delivery runs on a fresh background context.
func (s *AuthService) sendAsync(kind string, user *model.User, send func(context.Context, string, string) error) {
	email, name := user.Email, user.Name
	go func() {
		if err := send(context.Background(), email, name); err != nil {
			s.logger.Warn("notification failed",
				slog.String("kind", kind),
				slog.String("error", err.Error()),
			)
		}
	}()
}

// normalizeEmail trims, lowercases, and shape-checks an email address.
// Uniqueness is case-insensitive because every stored and queried email goes
// through this one function.
func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", apperror.ValidationFailed("email", "email is required")
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperror.ValidationFailed("email", "email is invalid")
	}

	return email, nil
}
