package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/mlanden/task-manager/internal/model"
)

// contextKey is an unexported type for this package's context keys, so no
// other package can read or shadow the identity stored in a request context.
type contextKey string

const identityKey contextKey = "identity"

// Identity is the result of authenticating a request: the resolved user and
// the exact stored token record that matched the bearer string. Logout needs
// the matched record so it can revoke only that one session.
type Identity struct {
	User  *model.User
	Token *model.Token
}

// Validator resolves a bearer token string to a user and the matching stored
// token record. Implemented by service.AuthService.
type Validator interface {
	Validate(ctx context.Context, tokenStr string) (*model.User, *model.Token, error)
}

// RequireAuth enforces authentication on protected routes.
//
// It reads the Authorization: Bearer header, resolves it through the
// Validator, and stores the Identity in the request context. Every failure
// (missing header, malformed token, bad signature, revoked token, deleted
// user) produces the same 401 response; callers must not be able to tell
// which one occurred.
//
// This middleware is a pure gate: it performs no mutation.
func RequireAuth(v Validator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, ok := bearerToken(r)
			if !ok {
				writeUnauthorized(w)
				return
			}

			user, token, err := v.Validate(r.Context(), tokenStr)
			if err != nil {
				writeUnauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, &Identity{
				User:  user,
				Token: token,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// IdentityFromContext retrieves the authenticated identity set by
// RequireAuth. Returns (nil, false) on routes that did not pass through it.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok && id != nil
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// writeUnauthorized is the single 401 response body used for every
// authentication failure, keeping the causes indistinguishable.
func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":"unauthorized","message":"please authenticate"}`))
}
