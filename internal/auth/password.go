package auth

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mlanden/task-manager/internal/apperror"
	"github.com/mlanden/task-manager/internal/model"
)

// DefaultCost is the bcrypt work factor used in production. bcrypt embeds a
// random salt in each hash, so two users with the same password get
// different hashes, and verification is constant-time.
const DefaultCost = 12

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 6

// PasswordService provides bcrypt hashing and verification.
// The cost is injectable so tests can use bcrypt.MinCost instead of paying
// ~250ms per hash.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the given bcrypt cost.
// Costs outside bcrypt's supported range fall back to DefaultCost.
func NewPasswordService(cost int) *PasswordService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &PasswordService{cost: cost}
}

// SetPassword validates a plaintext password and stores its bcrypt hash on
// the user. This is the single chokepoint for password mutation: it is the
// only code in the module that writes User.PasswordHash, so every path that
// changes a password (registration, profile update) hashes through here and
// plaintext can never reach the repository.
//
// Policy: non-empty, at least MinPasswordLength characters, and must not
// contain the substring "password" in any letter case.
func (p *PasswordService) SetPassword(u *model.User, plaintext string) error {
	if plaintext == "" {
		return apperror.ValidationFailed("password", "password is required")
	}
	if len(plaintext) < MinPasswordLength {
		return apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if strings.Contains(strings.ToLower(plaintext), "password") {
		return apperror.ValidationFailed("password", `password must not contain "password"`)
	}

	hash, err := p.Hash(plaintext)
	if err != nil {
		return err
	}

	u.PasswordHash = hash
	return nil
}

// Hash hashes a plaintext password with bcrypt. The output string embeds the
// salt and cost; store it directly.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		// bcrypt silently truncates beyond 72 bytes; reject instead.
		return "", apperror.ValidationFailed("password", "password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks a plaintext password against a stored bcrypt hash.
// Returns nil on match. The comparison is constant-time.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
