// Package container provides dependency injection and lifecycle management
// for the Billed expense service following Clean Architecture principles.
package container

import (
	"fmt"
	"time"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Storage configuration
	Storage StorageConfig

	// Session store configuration
	Session SessionConfig

	// Server configuration
	Server ServerConfig

	// Seed configuration
	Seed SeedConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file, or ":memory:"
	Path string

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime
	ConnMaxLifetime time.Duration
}

// StorageConfig holds file storage settings.
type StorageConfig struct {
	// AttachmentDir is the base directory for receipts
	AttachmentDir string

	// BaseURL prefixes the attachment URLs handed to clients
	BaseURL string
}

// SessionConfig holds the session store settings.
type SessionConfig struct {
	// Path to the bbolt file; empty keeps sessions in memory
	Path string

	// TTL is the session cookie lifetime
	TTL time.Duration

	// SweepInterval paces the purge of expired sessions; zero disables it
	SweepInterval time.Duration
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host          string
	Port          int
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	MaxUploadSize int64
	SecureCookies bool
}

// SeedConfig controls loading the sample bills at startup.
type SeedConfig struct {
	// Enabled inserts the fixture bills that are not yet stored
	Enabled bool

	// File replaces the built-in fixtures with a YAML bills document
	File string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/billed.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Storage: StorageConfig{
			AttachmentDir: "data/attachments",
			BaseURL:       "http://localhost:8080",
		},
		Session: SessionConfig{
			Path:          "data/sessions.db",
			TTL:           24 * time.Hour,
			SweepInterval: 10 * time.Minute,
		},
		Server: ServerConfig{
			Host:          "0.0.0.0",
			Port:          8080,
			ReadTimeout:   30 * time.Second,
			WriteTimeout:  30 * time.Second,
			MaxUploadSize: 10 << 20,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Storage.AttachmentDir == "" {
		return fmt.Errorf("storage.attachment_dir is required")
	}
	if c.Storage.BaseURL == "" {
		return fmt.Errorf("storage.base_url is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.MaxUploadSize <= 0 {
		return fmt.Errorf("server.max_upload_size must be positive")
	}
	return nil
}
