package service

import (
	"context"
	"errors"
	"testing"

	"github.com/mlanden/task-manager/internal/apperror"
)

func TestRegister(t *testing.T) {
	svc, users, tokens, _ := newTestAuthService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, "Ada", "Ada@Example.com", 36, "secret1")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if session.User.ID == "" {
		t.Error("Register() did not assign a user ID")
	}
	if session.User.Email != "ada@example.com" {
		t.Errorf("Register() email = %q, want normalized %q", session.User.Email, "ada@example.com")
	}
	if session.Token == "" {
		t.Error("Register() did not issue a token")
	}

	// The stored credential is a hash, never the raw password.
	stored := users.users[session.User.ID]
	if stored.PasswordHash == "" || stored.PasswordHash == "secret1" {
		t.Errorf("stored PasswordHash = %q, must be a hash", stored.PasswordHash)
	}

	// The issued token is in the user's stored collection.
	if _, err := tokens.Find(ctx, session.User.ID, session.Token); err != nil {
		t.Errorf("issued token not stored: %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _, _ := newTestAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		userName string
		email    string
		age      int
		password string
	}{
		{"empty name", "", "ada@example.com", 36, "secret1"},
		{"malformed email", "Ada", "not-an-email", 36, "secret1"},
		{"negative age", "Ada", "ada@example.com", -1, "secret1"},
		{"empty password", "Ada", "ada@example.com", 36, ""},
		{"short password", "Ada", "ada@example.com", 36, "abc12"},
		{"password contains password", "Ada", "ada@example.com", 36, "Password123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.userName, tt.email, tt.age, tt.password)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Register() error = %v, want ErrValidation", err)
			}
		})
	}
}

// Email uniqueness is case-insensitive: registering the same address in a
// different case yields exactly one success and one Conflict.
func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Ada", "ada@example.com", 36, "secret1"); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}

	_, err := svc.Register(ctx, "Imposter", "ADA@EXAMPLE.COM", 20, "secret2")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("second Register() error = %v, want ErrConflict", err)
	}
}

func TestRegisterSendsWelcome(t *testing.T) {
	svc, _, _, notifier := newTestAuthService(t)

	if _, err := svc.Register(context.Background(), "Ada", "ada@example.com", 36, "secret1"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	waitFor(t, func() bool {
		welcomes, _ := notifier.counts()
		return welcomes == 1
	})
}

func TestLogin(t *testing.T) {
	svc, _, _, _ := newTestAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, "Ada", "ada@example.com", 36, "secret1")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	session, err := svc.Login(ctx, "ada@example.com", "secret1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if session.Token == "" {
		t.Fatal("Login() did not issue a token")
	}
	if session.Token == registered.Token {
		t.Error("Login() must mint a new token, not reuse the registration token")
	}

	// Logging in does not invalidate the earlier session.
	if _, _, err := svc.Validate(ctx, registered.Token); err != nil {
		t.Errorf("registration token invalidated by login: %v", err)
	}
}

// Unknown email and wrong password must be the same generic error, same
// message, so callers cannot enumerate accounts.
func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, _, _, _ := newTestAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Ada", "ada@example.com", 36, "secret1"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, errUnknown := svc.Login(ctx, "nobody@example.com", "secret1")
	_, errWrongPw := svc.Login(ctx, "ada@example.com", "wrong-password")

	for _, err := range []error{errUnknown, errWrongPw} {
		if !errors.Is(err, apperror.ErrAuthentication) {
			t.Errorf("Login() error = %v, want ErrAuthentication", err)
		}
	}
	if errUnknown.Error() != errWrongPw.Error() {
		t.Errorf("login failure messages differ: %q vs %q", errUnknown.Error(), errWrongPw.Error())
	}
}

func TestValidate(t *testing.T) {
	svc, _, _, _ := newTestAuthService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, "Ada", "ada@example.com", 36, "secret1")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	user, record, err := svc.Validate(ctx, session.Token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if user.ID != session.User.ID {
		t.Errorf("Validate() user = %q, want %q", user.ID, session.User.ID)
	}
	if record.Value != session.Token {
		t.Error("Validate() must return the exact matched token record")
	}
}

func TestValidateRejectsRevokedToken(t *testing.T) {
	svc, _, _, _ := newTestAuthService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, "Ada", "ada@example.com", 36, "secret1")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, record, err := svc.Validate(ctx, session.Token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if err := svc.Logout(ctx, session.User, record); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	// The signature still verifies, but the stored row is gone.
	if _, _, err := svc.Validate(ctx, session.Token); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Validate() after logout error = %v, want ErrUnauthorized", err)
	}
}

func TestLogoutRevokesOnlyOneSession(t *testing.T) {
	svc, _, _, _ := newTestAuthService(t)
	ctx := context.Background()

	first, err := svc.Register(ctx, "Ada", "ada@example.com", 36, "secret1")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	second, err := svc.Login(ctx, "ada@example.com", "secret1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	third, err := svc.Login(ctx, "ada@example.com", "secret1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	_, record, err := svc.Validate(ctx, second.Token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if err := svc.Logout(ctx, second.User, record); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	if _, _, err := svc.Validate(ctx, second.Token); err == nil {
		t.Error("logged-out token should no longer validate")
	}
	for _, token := range []string{first.Token, third.Token} {
		if _, _, err := svc.Validate(ctx, token); err != nil {
			t.Errorf("sibling session invalidated by logout: %v", err)
		}
	}

	// Logging out an already-revoked session is idempotent.
	if err := svc.Logout(ctx, second.User, record); err != nil {
		t.Errorf("repeated Logout() error = %v, want nil", err)
	}
}

func TestLogoutAll(t *testing.T) {
	svc, _, _, _ := newTestAuthService(t)
	ctx := context.Background()

	session, err := svc.Register(ctx, "Ada", "ada@example.com", 36, "secret1")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	var all []string
	all = append(all, session.Token)
	for i := 0; i < 2; i++ {
		extra, err := svc.Login(ctx, "ada@example.com", "secret1")
		if err != nil {
			t.Fatalf("Login() error = %v", err)
		}
		all = append(all, extra.Token)
	}

	if err := svc.LogoutAll(ctx, session.User); err != nil {
		t.Fatalf("LogoutAll() error = %v", err)
	}

	for i, token := range all {
		if _, _, err := svc.Validate(ctx, token); !errors.Is(err, apperror.ErrUnauthorized) {
			t.Errorf("token %d still validates after LogoutAll()", i)
		}
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	svc, _, _, _ := newTestAuthService(t)

	for _, input := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, _, err := svc.Validate(context.Background(), input); !errors.Is(err, apperror.ErrUnauthorized) {
			t.Errorf("Validate(%q) error = %v, want ErrUnauthorized", input, err)
		}
	}
}
