// Package config loads server configuration from environment variables into
// an explicit struct. Components receive the values they need at
// construction; nothing reads the environment after startup and there is no
// ambient global client or connection.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds everything the server needs to start.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `env:"ADDR" envDefault:":8080"`

	// DBPath is the SQLite database file. Use ":memory:" for tests.
	DBPath string `env:"DB_PATH" envDefault:"data/taskmanager.db"`

	// JWTSecret signs session tokens. Required; at least 16 characters.
	// Generate with: openssl rand -hex 32
	JWTSecret string `env:"JWT_SECRET,required"`

	// BcryptCost is the bcrypt work factor for password hashing.
	BcryptCost int `env:"BCRYPT_COST" envDefault:"12"`

	// MaxAvatarBytes caps avatar uploads. Defaults to 1 MB, matching the
	// upload limit the API has always enforced.
	MaxAvatarBytes int64 `env:"MAX_AVATAR_BYTES" envDefault:"1000000"`

	// ShutdownTimeout bounds graceful shutdown, in seconds.
	ShutdownTimeout int `env:"SHUTDOWN_TIMEOUT" envDefault:"30"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing environment: %w", err)
	}
	return cfg, nil
}
