package config

import (
	"strings"
	"testing"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		wantErr     bool
		errorString string
	}{
		{
			name: "valid file backend config",
			config: Config{
				Port:           "8081",
				StorageBackend: "file",
				StorageKey:     "expense-tracker",
				DataDir:        "./data",
				LogLevel:       "info",
			},
			wantErr: false,
		},
		{
			name: "valid memory backend config",
			config: Config{
				Port:           "9000",
				StorageBackend: "memory",
				StorageKey:     "expense-tracker",
				LogLevel:       "debug",
			},
			wantErr: false,
		},
		{
			name: "invalid port - non-numeric",
			config: Config{
				Port:           "abc",
				StorageBackend: "memory",
				StorageKey:     "k",
				LogLevel:       "info",
			},
			wantErr:     true,
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name: "invalid port - out of range",
			config: Config{
				Port:           "70000",
				StorageBackend: "memory",
				StorageKey:     "k",
				LogLevel:       "info",
			},
			wantErr:     true,
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name: "invalid storage backend",
			config: Config{
				Port:           "8081",
				StorageBackend: "redis",
				StorageKey:     "k",
				LogLevel:       "info",
			},
			wantErr:     true,
			errorString: "invalid storage backend 'redis'",
		},
		{
			name: "empty storage key",
			config: Config{
				Port:           "8081",
				StorageBackend: "memory",
				StorageKey:     "",
				LogLevel:       "info",
			},
			wantErr:     true,
			errorString: "storage key cannot be empty",
		},
		{
			name: "file backend without data dir",
			config: Config{
				Port:           "8081",
				StorageBackend: "file",
				StorageKey:     "k",
				DataDir:        "",
				LogLevel:       "info",
			},
			wantErr:     true,
			errorString: "data directory cannot be empty when using file backend",
		},
		{
			name: "sqlite backend without db path",
			config: Config{
				Port:           "8081",
				StorageBackend: "sqlite",
				StorageKey:     "k",
				SQLiteDBPath:   "",
				LogLevel:       "info",
			},
			wantErr:     true,
			errorString: "SQLite database path cannot be empty when using sqlite backend",
		},
		{
			name: "invalid log level",
			config: Config{
				Port:           "8081",
				StorageBackend: "memory",
				StorageKey:     "k",
				LogLevel:       "verbose",
			},
			wantErr:     true,
			errorString: "invalid log level 'verbose'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error containing %q", tt.errorString)
				}
				if !strings.Contains(err.Error(), tt.errorString) {
					t.Fatalf("error %q does not contain %q", err.Error(), tt.errorString)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8081" {
		t.Fatalf("default port: want 8081, got %s", cfg.Port)
	}
	if cfg.StorageBackend != "file" {
		t.Fatalf("default backend: want file, got %s", cfg.StorageBackend)
	}
	if cfg.StorageKey != "expense-tracker" {
		t.Fatalf("default storage key: want expense-tracker, got %s", cfg.StorageKey)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", "/tmp/spendwise-test.db")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Fatalf("port from env: want 9090, got %s", cfg.Port)
	}
	if cfg.StorageBackend != "sqlite" {
		t.Fatalf("backend from env: want sqlite, got %s", cfg.StorageBackend)
	}
	if cfg.SQLiteDBPath != "/tmp/spendwise-test.db" {
		t.Fatalf("db path from env: got %s", cfg.SQLiteDBPath)
	}
}
