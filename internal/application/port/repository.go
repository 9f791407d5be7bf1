package port

import (
	"context"

	"github.com/garyjia/billed/internal/domain/entity"
)

// BillRepository defines persistence operations for Bill
type BillRepository interface {
	Create(ctx context.Context, bill *entity.Bill) error
	GetByID(ctx context.Context, id string) (*entity.Bill, error)
	List(ctx context.Context) ([]*entity.Bill, error)
	ListByEmail(ctx context.Context, email string) ([]*entity.Bill, error)
	Update(ctx context.Context, bill *entity.Bill) error
}

// AttachmentRepository defines persistence operations for Attachment
type AttachmentRepository interface {
	Create(ctx context.Context, att *entity.Attachment) error
	GetByKey(ctx context.Context, key string) (*entity.Attachment, error)
	LinkBill(ctx context.Context, key, billID string) error
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
