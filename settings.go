package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Store backends.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// Settings holds the process configuration. Values come from the
// environment (optionally seeded from .env) and are overridden by flags.
type Settings struct {
	Host        string        `env:"LUDO_HOST" envDefault:"localhost"`
	Port        int           `env:"LUDO_PORT" envDefault:"8080"`
	ConfigDir   string        `env:"LUDO_CONFIG_DIR" envDefault:"configs"`
	Store       string        `env:"LUDO_STORE" envDefault:"file"`
	SessionsDir string        `env:"LUDO_SESSIONS_DIR" envDefault:"sessions"`
	DBPath      string        `env:"LUDO_DB_PATH" envDefault:"ludo.db"`
	SessionTTL  time.Duration `env:"LUDO_SESSION_TTL" envDefault:"24h"`
	// Retention bounds how long untouched sessions stay in the SQLite store.
	Retention time.Duration `env:"LUDO_STORE_RETENTION" envDefault:"720h"`
	Debug     bool          `env:"LUDO_DEBUG"`

	Ngrok NgrokSettings `envPrefix:"NGROK_"`
}

// NgrokSettings configures the optional public tunnel.
type NgrokSettings struct {
	Enabled   bool   `env:"ENABLED"`
	AuthToken string `env:"AUTHTOKEN"`
	Domain    string `env:"DOMAIN"`
}

// loadDotEnv seeds the environment from .env when the file exists.
func loadDotEnv(paths ...string) {
	if err := godotenv.Load(paths...); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Msg("error loading .env file")
		}
		return
	}
	log.Debug().Msg("loaded environment variables from .env file")
}

// loadSettings parses the environment into Settings.
func loadSettings() (*Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	// Older deployments set the token without the ngrok-cli spelling.
	if s.Ngrok.AuthToken == "" {
		s.Ngrok.AuthToken = os.Getenv("NGROK_AUTH_TOKEN")
	}
	return &s, s.Validate()
}

// Validate checks the combinations flags and env cannot express.
func (s *Settings) Validate() error {
	if s.Port < 0 || s.Port > 65535 {
		return fmt.Errorf("invalid port %d", s.Port)
	}
	switch s.Store {
	case StoreFile, StoreSQLite:
	default:
		return fmt.Errorf("unknown store %q (want %s or %s)", s.Store, StoreFile, StoreSQLite)
	}
	if s.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be positive, got %s", s.SessionTTL)
	}
	return nil
}

// Addr is the listen address of the HTTP server.
func (s *Settings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
