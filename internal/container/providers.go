package container

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/garyjia/billed/internal/application/dispatcher"
	"github.com/garyjia/billed/internal/application/port"
	"github.com/garyjia/billed/internal/application/service"
	"github.com/garyjia/billed/internal/domain/entity"
	"github.com/garyjia/billed/internal/domain/event"
	"github.com/garyjia/billed/internal/fixtures"
	"github.com/garyjia/billed/internal/infrastructure/export"
	"github.com/garyjia/billed/internal/infrastructure/persistence/repository"
	"github.com/garyjia/billed/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/billed/internal/infrastructure/session"
	"github.com/garyjia/billed/internal/infrastructure/storage"
	"github.com/garyjia/billed/internal/infrastructure/worker"
	"github.com/garyjia/billed/migrations"
	"github.com/garyjia/billed/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr *sqlite.DB
}

// SessionBundle holds the session store and its closer.
type SessionBundle struct {
	Store port.SessionStore
	Close func() error
}

// ProvideDatabase opens the database and runs the embedded migrations.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if cfg.Path != database.MemoryPath {
		if err := ensureParentDir(cfg.Path); err != nil {
			return nil, err
		}
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	applied, err := database.NewMigrator(db, logger).RunMigrations(migrations.FS)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("Migrations applied", zap.Int("count", applied))

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(sqlDB *sql.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Bill:       repository.NewBillRepository(sqlDB, logger),
		Attachment: repository.NewAttachmentRepository(sqlDB, logger),
	}, nil
}

// ProvideStorage creates the attachment storage, creating its directory.
func ProvideStorage(cfg *StorageConfig, logger *zap.Logger) (port.FileStorage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("storage config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := os.MkdirAll(cfg.AttachmentDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create attachment directory: %w", err)
	}

	return storage.NewLocalFileStorage(cfg.AttachmentDir, logger), nil
}

// ProvideSessions opens the bbolt session store, or an in-memory one when
// no path is configured.
func ProvideSessions(cfg *SessionConfig, logger *zap.Logger) (*SessionBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("session config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if cfg.Path == "" {
		logger.Info("Sessions kept in memory")
		return &SessionBundle{
			Store: session.NewMemoryStore(),
			Close: func() error { return nil },
		}, nil
	}

	if err := ensureParentDir(cfg.Path); err != nil {
		return nil, err
	}

	store, err := session.OpenBoltStore(cfg.Path, logger)
	if err != nil {
		return nil, err
	}
	return &SessionBundle{Store: store, Close: store.Close}, nil
}

// ProvideWorkers registers the background housekeeping workers.
func ProvideWorkers(cfg *SessionConfig, sessions port.SessionStore, logger *zap.Logger) (*worker.Manager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("session config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	manager := worker.NewManager(logger)

	purger, ok := sessions.(port.SessionPurger)
	if !ok || cfg.SweepInterval <= 0 || cfg.TTL <= 0 {
		logger.Info("Session sweeper disabled")
		return manager, nil
	}

	manager.Register(worker.NewSessionSweeper(worker.SessionSweeperConfig{
		Interval: cfg.SweepInterval,
		TTL:      cfg.TTL,
	}, purger, logger))

	return manager, nil
}

// ServiceDeps holds dependencies required for creating services.
type ServiceDeps struct {
	Repos       *RepositoryBundle
	TxManager   port.TransactionManager
	FileStorage port.FileStorage
	BaseURL     string
	Logger      *zap.Logger
}

// ProvideServices creates all application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.FileStorage == nil {
		return nil, fmt.Errorf("file storage is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	serviceLogger := &zapLoggerAdapter{logger: deps.Logger}

	return &ServiceBundle{
		Bills: service.NewBillService(
			deps.Repos.Bill,
			deps.Repos.Attachment,
			deps.TxManager,
			deps.FileStorage,
			deps.BaseURL,
			serviceLogger,
		),
		Exporter: export.NewBillExporter(deps.Logger),
	}, nil
}

// ProvideDispatcher creates the event dispatcher and registers the
// notification handlers of the bill events.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	// Create dispatcher logger adapter
	dispatcherLogger := &dispatcherLoggerAdapter{logger: logger}

	d := dispatcher.NewDispatcher(
		dispatcher.WithLogger(dispatcherLogger),
	)

	d.SubscribeNamed(event.TypeBillCreated, "audit.bill_created", createBillCreatedHandler(logger))
	d.SubscribeNamed(event.TypeAttachmentUploaded, "audit.attachment_uploaded", createAttachmentUploadedHandler(logger))

	return d, nil
}

// createBillCreatedHandler records submitted bills in the audit log
func createBillCreatedHandler(logger *zap.Logger) dispatcher.Handler {
	return func(ctx context.Context, evt *event.Event) error {
		logger.Info("Bill submitted",
			zap.String("bill_id", evt.Target),
			zap.String("email", evt.GetPayloadString("email")),
			zap.Float64("amount", evt.GetPayloadFloat("amount")),
			zap.String("correlation_id", evt.CorrelationID),
		)
		return nil
	}
}

// createAttachmentUploadedHandler records uploaded receipts in the audit log
func createAttachmentUploadedHandler(logger *zap.Logger) dispatcher.Handler {
	return func(ctx context.Context, evt *event.Event) error {
		logger.Info("Receipt uploaded",
			zap.String("key", evt.Target),
			zap.String("file_name", evt.GetPayloadString("file_name")),
			zap.String("email", evt.GetPayloadString("email")),
		)
		return nil
	}
}

// ProvideSeed loads the bills inserted at startup: the YAML file when one is
// configured, the built-in fixtures otherwise.
func ProvideSeed(cfg *SeedConfig) ([]entity.Bill, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}
	if cfg.File == "" {
		return fixtures.Bills(), nil
	}

	data, err := os.ReadFile(cfg.File)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return fixtures.Parse(data)
}

func ensureParentDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	return nil
}
