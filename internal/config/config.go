package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

const (
	envDevelopment = "development"

	defaultDBPath         = "./foamdesk.db"
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultBackupSchedule = "0 2 * * *"
)

// Config holds application configuration sourced from environment variables.
type Config struct {
	Env           string
	Port          string
	DBPath        string
	SessionSecret string
	LogLevel      string

	BackupDir      string
	BackupSchedule string
}

// Load reads environment variables, optionally from envFile, and returns a validated
// Config. Variables already set in the environment win over the file. A missing file
// is not an error.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file %s: %w", envFile, err)
	}

	cfg := &Config{
		Env:            strings.ToLower(getenvWithDefault("APP_ENV", envDevelopment)),
		Port:           getenvWithDefault("PORT", defaultPort),
		DBPath:         getenvWithDefault("DB_PATH", defaultDBPath),
		SessionSecret:  os.Getenv("SESSION_SECRET"),
		LogLevel:       getenvWithDefault("LOG_LEVEL", defaultLogLevel),
		BackupDir:      os.Getenv("BACKUP_DIR"),
		BackupSchedule: getenvWithDefault("BACKUP_SCHEDULE", defaultBackupSchedule),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate ensures that the configuration can be used to start the server.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Port == "" {
		return errors.New("PORT must not be empty")
	}
	if c.DBPath == "" {
		return errors.New("DB_PATH must not be empty")
	}
	if c.BackupsEnabled() {
		if _, err := cron.ParseStandard(c.BackupSchedule); err != nil {
			return fmt.Errorf("BACKUP_SCHEDULE %q: %w", c.BackupSchedule, err)
		}
	}
	return nil
}

// IsDev reports whether the server runs in development mode.
func (c *Config) IsDev() bool {
	return c.Env == envDevelopment
}

// BackupsEnabled reports whether scheduled backups should run.
func (c *Config) BackupsEnabled() bool {
	return c.BackupDir != ""
}

// Warnings lists settings that are allowed but unsafe outside development.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.SessionSecret == "" {
		warnings = append(warnings, "SESSION_SECRET is not set; sessions use a per-process random key")
	}
	return warnings
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
