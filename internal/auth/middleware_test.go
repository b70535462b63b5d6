package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mlanden/task-manager/internal/apperror"
	"github.com/mlanden/task-manager/internal/auth"
	"github.com/mlanden/task-manager/internal/model"
)

// mockValidator resolves one known token and fails everything else with a
// configurable error, so tests can simulate malformed and revoked tokens.
type mockValidator struct {
	knownToken string
	user       *model.User
	token      *model.Token
	failWith   error
}

func (m *mockValidator) Validate(_ context.Context, tokenStr string) (*model.User, *model.Token, error) {
	if tokenStr == m.knownToken {
		return m.user, m.token, nil
	}
	return nil, nil, m.failWith
}

func newAuthedHandler(v auth.Validator, captured **auth.Identity) http.Handler {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := auth.IdentityFromContext(r.Context()); ok {
			*captured = id
		}
		w.WriteHeader(http.StatusOK)
	})
	return auth.RequireAuth(v)(next)
}

func TestRequireAuthValidToken(t *testing.T) {
	user := &model.User{ID: "u1", Name: "Ada"}
	token := &model.Token{ID: "t1", UserID: "u1", Value: "good-token"}
	v := &mockValidator{knownToken: "good-token", user: user, token: token, failWith: apperror.Unauthorized()}

	var captured *auth.Identity
	h := newAuthedHandler(v, &captured)

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	if assert.NotNil(t, captured) {
		assert.Equal(t, "u1", captured.User.ID)
		// The exact matched token record must be available downstream so
		// logout can revoke only this session.
		assert.Equal(t, "t1", captured.Token.ID)
	}
}

func TestRequireAuthFailuresAreUniform(t *testing.T) {
	v := &mockValidator{knownToken: "good-token", failWith: apperror.Unauthorized()}
	var captured *auth.Identity
	h := newAuthedHandler(v, &captured)

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic Zm9vOmJhcg=="},
		{"empty bearer", "Bearer "},
		{"malformed token", "Bearer not-a-jwt"},
		{"revoked token", "Bearer was-valid-once"},
	}

	var bodies []string
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			bodies = append(bodies, rr.Body.String())
		})
	}

	// Every failure mode must produce a byte-identical response; a
	// distinguishable body would leak token state.
	for i := 1; i < len(bodies); i++ {
		assert.Equal(t, bodies[0], bodies[i], "401 bodies must not vary by cause")
	}
	assert.Nil(t, captured, "no identity should reach the handler on failure")
}

func TestIdentityFromContextMissing(t *testing.T) {
	id, ok := auth.IdentityFromContext(context.Background())
	assert.False(t, ok)
	assert.Nil(t, id)
}
