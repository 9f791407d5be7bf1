package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/billed/internal/application/port"
	"github.com/garyjia/billed/internal/domain/entity"
	"github.com/garyjia/billed/internal/infrastructure/persistence/sqlite"
)

// AttachmentRepository implements port.AttachmentRepository
type AttachmentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAttachmentRepository creates a new attachment repository
func NewAttachmentRepository(db *sql.DB, logger *zap.Logger) port.AttachmentRepository {
	return &AttachmentRepository{
		db:     db,
		logger: logger,
	}
}

// Create records an uploaded attachment
func (r *AttachmentRepository) Create(ctx context.Context, att *entity.Attachment) error {
	query := `
		INSERT INTO attachments (key, bill_id, file_name, content_type, file_path, file_size, email, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	if att.CreatedAt.IsZero() {
		att.CreatedAt = time.Now()
	}

	_, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx, query,
		att.Key,
		att.BillID,
		att.FileName,
		att.ContentType,
		att.FilePath,
		att.FileSize,
		att.Email,
		att.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create attachment", zap.String("key", att.Key), zap.Error(err))
		return fmt.Errorf("failed to create attachment: %w", err)
	}

	return nil
}

// GetByKey retrieves an attachment by key. It returns nil, nil when none matches.
func (r *AttachmentRepository) GetByKey(ctx context.Context, key string) (*entity.Attachment, error) {
	query := `
		SELECT key, bill_id, file_name, content_type, file_path, file_size, email, created_at
		FROM attachments
		WHERE key = ?
	`

	var att entity.Attachment
	err := sqlite.ExecutorFrom(ctx, r.db).QueryRowContext(ctx, query, key).Scan(
		&att.Key,
		&att.BillID,
		&att.FileName,
		&att.ContentType,
		&att.FilePath,
		&att.FileSize,
		&att.Email,
		&att.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get attachment", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("failed to get attachment: %w", err)
	}

	return &att, nil
}

// LinkBill attaches the stored file to a bill
func (r *AttachmentRepository) LinkBill(ctx context.Context, key, billID string) error {
	result, err := sqlite.ExecutorFrom(ctx, r.db).ExecContext(ctx,
		`UPDATE attachments SET bill_id = ? WHERE key = ?`, billID, key)
	if err != nil {
		r.logger.Error("Failed to link attachment", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to link attachment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("attachment not found: %s", key)
	}
	return nil
}

var _ port.AttachmentRepository = (*AttachmentRepository)(nil)
