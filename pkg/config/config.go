package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Backup   BackupConfig
	Session  SessionConfig
	Policy   PolicyConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	// Path to the sqlite database file. The full-database backup copies
	// this file verbatim, so it must stay a single file.
	Path string
}

type BackupConfig struct {
	Dir           string
	MaxFull       int
	ScheduleSpec  string
	StateFilePath string
}

type SessionConfig struct {
	Dir string
}

// PolicyConfig controls auto-creation of unknown Campaign/Range references.
// OpenCycles is the explicit list of financial cycles that still accept
// provisional entities; anything not listed is treated as closed.
type PolicyConfig struct {
	AutoCreateEnabled bool
	OpenCycles        []string
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "localhost"),
			Port: getEnvAsInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Path: getEnv("DATABASE_PATH", "./data/golden_rules.db"),
		},
		Backup: BackupConfig{
			Dir:           getEnv("BACKUP_DIR", "./backups"),
			MaxFull:       getEnvAsInt("BACKUP_MAX_FULL", 30),
			ScheduleSpec:  getEnv("BACKUP_SCHEDULE", "0 2 * * *"),
			StateFilePath: getEnv("BACKUP_STATE_FILE", "./backups/scheduler-state.json"),
		},
		Session: SessionConfig{
			Dir: getEnv("SESSION_DIR", "./data/sessions"),
		},
		Policy: PolicyConfig{
			AutoCreateEnabled: getEnvAsBool("AUTO_CREATE_ENABLED", true),
			OpenCycles:        getEnvAsList("OPEN_FINANCIAL_CYCLES"),
		},
	}

	if cfg.Database.Path == "" {
		return nil, errors.New("DATABASE_PATH is required")
	}

	return cfg, nil
}

// Addr returns the host:port the HTTP server binds to.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			values = append(values, p)
		}
	}
	return values
}
