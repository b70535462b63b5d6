// Package sqlite implements the repository interfaces on SQLite via the pure
// Go driver modernc.org/sqlite, so the binary needs no C toolchain and tests
// can run against ":memory:".
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB owns the connection pool. The per-entity repositories share it and are
// handed out by Users, Tokens, and Tasks.
type DB struct {
	conn *sql.DB
}

// Users returns the user repository backed by this database.
func (db *DB) Users() *UserRepo {
	return &UserRepo{conn: db.conn}
}

// Tokens returns the session-token repository backed by this database.
func (db *DB) Tokens() *TokenRepo {
	return &TokenRepo{conn: db.conn}
}

// Tasks returns the task repository backed by this database.
func (db *DB) Tasks() *TaskRepo {
	return &TaskRepo{conn: db.conn}
}

// New opens the database and runs the migrations. dbPath may be a file path
// or ":memory:".
//
// The pragmas travel in the DSN so the driver applies them to every
// connection the pool opens, not just the first. WAL allows concurrent reads
// during writes; foreign_keys=ON is required for the ON DELETE CASCADE edges
// from users to tokens and tasks, which is how account deletion revokes
// every session and removes every owned task in one statement.
func New(dbPath string) (*DB, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every pool connection to ":memory:" would otherwise get its own
	// private database.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool, flushing the WAL.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE,
			age           INTEGER NOT NULL DEFAULT 0,
			password_hash TEXT NOT NULL,
			avatar        BLOB,
			created_at    DATETIME NOT NULL,
			updated_at    DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// One row per active session. The token value is the full signed string;
	// revocation is deleting the row, so no whole-collection rewrite happens
	// when sessions come and go concurrently.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS tokens (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			token      TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_tokens_user_id ON tokens(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating tokens table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS tasks (
			id          TEXT PRIMARY KEY,
			owner_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			description TEXT NOT NULL,
			completed   INTEGER NOT NULL DEFAULT 0,
			created_at  DATETIME NOT NULL,
			updated_at  DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_tasks_owner_id ON tasks(owner_id);
	`)
	if err != nil {
		return fmt.Errorf("creating tasks table: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure on
// the given column. The pure Go driver surfaces constraint errors as plain
// strings of the form "UNIQUE constraint failed: table.column".
func isUniqueViolation(err error, column string) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: "+column)
}
