package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	// Storage
	UsersDBPath  string `env:"USERS_DB_PATH" env-default:"./data/users.db" env-description:"Path to the users database file"`
	BudgetDBPath string `env:"BUDGET_DB_PATH" env-default:"./data/budget.db" env-description:"Path to the transactions/goals/categories database file"`

	// Signing key for an external web session layer
	SecretKey string `env:"SECRET_KEY" env-default:"dev-key-for-budgetflow-app"`

	LogLevel string `env:"LOG_LEVEL" env-default:"info"`
}

// Load reads the optional .env file and then the environment.
func Load() (*Config, error) {
	// .env is optional, only used for local development
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	return &cfg, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if strings.TrimSpace(c.UsersDBPath) == "" {
		errors = append(errors, "users database path cannot be empty")
	}
	if strings.TrimSpace(c.BudgetDBPath) == "" {
		errors = append(errors, "budget database path cannot be empty")
	}
	for _, p := range []string{c.UsersDBPath, c.BudgetDBPath} {
		if p == "" {
			continue
		}
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			errors = append(errors, fmt.Sprintf("database path '%s' is a directory", p))
		}
		dir := filepath.Dir(p)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				errors = append(errors, fmt.Sprintf("cannot create database directory '%s': %v", dir, err))
			}
		}
	}

	if c.SecretKey == "" {
		errors = append(errors, "secret key cannot be empty")
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of [debug info warn error]", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}
