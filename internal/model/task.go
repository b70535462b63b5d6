package model

import "time"

// Task is a to-do item owned by exactly one user.
//
// OwnerID is set from the authenticated identity at creation and never from
// client input; it is immutable afterwards. Every query that touches a task
// by ID carries an owner predicate, so a task is invisible to everyone but
// its owner.
type Task struct {
	ID          string    `json:"id"          db:"id"`
	OwnerID     string    `json:"owner"       db:"owner_id"`
	Description string    `json:"description" db:"description"`
	Completed   bool      `json:"completed"   db:"completed"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt"   db:"updated_at"`
}
