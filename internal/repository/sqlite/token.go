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

// TokenRepo persists session tokens. Obtain one from DB.Tokens.
type TokenRepo struct {
	conn *sql.DB
}

// compile-time interface check
var _ repository.TokenRepository = (*TokenRepo)(nil)

// Create appends a session token row to the user's collection. Each login
// adds a row; prior rows are untouched, so concurrent sessions never
// invalidate each other.
func (r *TokenRepo) Create(ctx context.Context, token *model.Token) error {
	token.ID = xid.New().String()
	token.CreatedAt = time.Now().UTC()

	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO tokens (id, user_id, token, created_at) VALUES (?, ?, ?, ?)`,
		token.ID,
		token.UserID,
		token.Value,
		token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting token: %w", err)
	}

	return nil
}

// Find returns the stored token whose value exactly matches, scoped to the
// user. A missing row means the token was revoked (or never issued) and
// surfaces as apperror.ErrNotFound.
func (r *TokenRepo) Find(ctx context.Context, userID, value string) (*model.Token, error) {
	var t model.Token

	err := r.conn.QueryRowContext(ctx,
		`SELECT id, user_id, token, created_at
		 FROM tokens
		 WHERE user_id = ? AND token = ?`,
		userID, value,
	).Scan(&t.ID, &t.UserID, &t.Value, &t.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("token")
		}
		return nil, fmt.Errorf("sqlite: finding token: %w", err)
	}

	return &t, nil
}

// ListByUser returns the user's active tokens in append order.
func (r *TokenRepo) ListByUser(ctx context.Context, userID string) ([]model.Token, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT id, user_id, token, created_at
		 FROM tokens
		 WHERE user_id = ?
		 ORDER BY created_at ASC, id ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tokens: %w", err)
	}
	defer rows.Close()

	var tokens []model.Token
	for rows.Next() {
		var t model.Token
		if err := rows.Scan(&t.ID, &t.UserID, &t.Value, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning token row: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tokens: %w", err)
	}

	return tokens, nil
}

// Delete removes exactly one token row, ending that session and no other.
func (r *TokenRepo) Delete(ctx context.Context, userID, tokenID string) error {
	result, err := r.conn.ExecContext(ctx,
		`DELETE FROM tokens WHERE user_id = ? AND id = ?`,
		userID, tokenID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting token %s: %w", tokenID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("token")
	}

	return nil
}

// DeleteByUser clears the user's entire token collection (logout-all).
// Clearing an already-empty collection is not an error.
func (r *TokenRepo) DeleteByUser(ctx context.Context, userID string) error {
	_, err := r.conn.ExecContext(ctx,
		`DELETE FROM tokens WHERE user_id = ?`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting tokens for user %s: %w", userID, err)
	}

	return nil
}
