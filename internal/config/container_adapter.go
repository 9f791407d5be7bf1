package config

import (
	"github.com/garyjia/billed/internal/container"
	"github.com/garyjia/billed/pkg/utils"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
		},
		Storage: container.StorageConfig{
			AttachmentDir: c.Storage.AttachmentDir,
			BaseURL:       c.Storage.BaseURL,
		},
		Session: container.SessionConfig{
			Path:          c.Session.Path,
			TTL:           c.Session.TTL,
			SweepInterval: c.Session.SweepInterval,
		},
		Server: container.ServerConfig{
			Host:          c.Server.Host,
			Port:          c.Server.Port,
			ReadTimeout:   c.Server.ReadTimeout,
			WriteTimeout:  c.Server.WriteTimeout,
			MaxUploadSize: c.Server.MaxUploadSize,
			SecureCookies: c.Server.SecureCookies,
		},
		Seed: container.SeedConfig{
			Enabled: c.Seed.Enabled,
			File:    c.Seed.File,
		},
	}
}

// ToLoggerConfig converts the logger section for utils.NewLogger.
func (c *Config) ToLoggerConfig() utils.LoggerConfig {
	return utils.LoggerConfig{
		Level:      c.Logger.Level,
		OutputPath: c.Logger.OutputPath,
		Format:     c.Logger.Format,
	}
}
