package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tmpDir := t.TempDir()
	users := filepath.Join(tmpDir, "users.db")
	budget := filepath.Join(tmpDir, "budget.db")

	tests := []struct {
		name        string
		config      Config
		wantErr     bool
		errorString string
	}{
		{
			name:    "valid config",
			config:  Config{UsersDBPath: users, BudgetDBPath: budget, SecretKey: "k", LogLevel: "info"},
			wantErr: false,
		},
		{
			name:    "same file for both stores",
			config:  Config{UsersDBPath: users, BudgetDBPath: users, SecretKey: "k", LogLevel: "debug"},
			wantErr: false,
		},
		{
			name:        "missing users path",
			config:      Config{BudgetDBPath: budget, SecretKey: "k", LogLevel: "info"},
			wantErr:     true,
			errorString: "users database path cannot be empty",
		},
		{
			name:        "missing budget path",
			config:      Config{UsersDBPath: users, SecretKey: "k", LogLevel: "info"},
			wantErr:     true,
			errorString: "budget database path cannot be empty",
		},
		{
			name:        "path is a directory",
			config:      Config{UsersDBPath: tmpDir, BudgetDBPath: budget, SecretKey: "k", LogLevel: "info"},
			wantErr:     true,
			errorString: "is a directory",
		},
		{
			name:        "empty secret",
			config:      Config{UsersDBPath: users, BudgetDBPath: budget, LogLevel: "info"},
			wantErr:     true,
			errorString: "secret key cannot be empty",
		},
		{
			name:        "invalid log level",
			config:      Config{UsersDBPath: users, BudgetDBPath: budget, SecretKey: "k", LogLevel: "loud"},
			wantErr:     true,
			errorString: "invalid log level 'loud'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorString)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		for _, key := range []string{"USERS_DB_PATH", "BUDGET_DB_PATH", "SECRET_KEY", "LOG_LEVEL"} {
			// registers restore of the original value, then clears it
			t.Setenv(key, "")
			os.Unsetenv(key)
		}

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "./data/users.db", cfg.UsersDBPath)
		assert.Equal(t, "./data/budget.db", cfg.BudgetDBPath)
		assert.Equal(t, "dev-key-for-budgetflow-app", cfg.SecretKey)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("environment variables", func(t *testing.T) {
		t.Setenv("USERS_DB_PATH", "/tmp/u.db")
		t.Setenv("BUDGET_DB_PATH", "/tmp/b.db")
		t.Setenv("SECRET_KEY", "s3cret")
		t.Setenv("LOG_LEVEL", "debug")

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "/tmp/u.db", cfg.UsersDBPath)
		assert.Equal(t, "/tmp/b.db", cfg.BudgetDBPath)
		assert.Equal(t, "s3cret", cfg.SecretKey)
		assert.Equal(t, "debug", cfg.LogLevel)
	})
}
