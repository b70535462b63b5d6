// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// PasswordHash is the only stored form of the credential; the raw password
// exists transiently during hashing and is never persisted. PasswordHash,
// Avatar, and the token rows are all excluded from JSON so no external
// representation of a user ever carries them.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Name         string    `json:"name"      db:"name"`
	Email        string    `json:"email"     db:"email"` // unique, stored lowercased
	Age          int       `json:"age"       db:"age"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	Avatar       []byte    `json:"-"         db:"avatar"` // normalized PNG/JPEG blob, nil when unset
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// Token is one active session for a user. A user holds many token rows at
// once (one per login); each can be revoked individually by deleting its row.
//
// Value is the signed JWT string. It encodes the user ID and the issuance
// time but no expiry: a token stays valid exactly as long as its row exists.
type Token struct {
	ID        string    `json:"id"        db:"id"`
	UserID    string    `json:"userId"    db:"user_id"`
	Value     string    `json:"-"         db:"token"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
