package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/billed/internal/application/port"
	"github.com/garyjia/billed/internal/domain/entity"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

var (
	// ErrNotFound is returned for unknown bills and attachments
	ErrNotFound = port.NewTransportError(http.StatusNotFound, "not found")

	// ErrInvalidInput is returned when a bill or attachment fails validation
	ErrInvalidInput = port.NewTransportError(http.StatusBadRequest, "invalid input")
)

// BillService is the in-process bills store backed by the database and the
// attachment storage
type BillService interface {
	port.RemoteStore
	port.BillsStore

	// Get returns one bill
	Get(ctx context.Context, id string) (*entity.Bill, error)

	// ListByEmail returns the bills of one employee
	ListByEmail(ctx context.Context, email string) ([]entity.Bill, error)

	// Attachment returns a stored receipt and its content
	Attachment(ctx context.Context, key string) (*entity.Attachment, []byte, error)

	// Seed inserts bills whose ID is not yet known and returns how many were added
	Seed(ctx context.Context, bills []entity.Bill) (int, error)
}

type billServiceImpl struct {
	billRepo       port.BillRepository
	attachmentRepo port.AttachmentRepository
	txManager      port.TransactionManager
	files          port.FileStorage
	baseURL        string
	newID          func() string
	logger         Logger
}

// NewBillService creates a new BillService. baseURL prefixes the attachment
// URLs handed back to clients.
func NewBillService(
	billRepo port.BillRepository,
	attachmentRepo port.AttachmentRepository,
	txManager port.TransactionManager,
	files port.FileStorage,
	baseURL string,
	logger Logger,
) BillService {
	return &billServiceImpl{
		billRepo:       billRepo,
		attachmentRepo: attachmentRepo,
		txManager:      txManager,
		files:          files,
		baseURL:        strings.TrimRight(baseURL, "/"),
		newID:          uuid.NewString,
		logger:         logger,
	}
}

// Bills lets the service act as its own RemoteStore
func (s *billServiceImpl) Bills() port.BillsStore {
	return s
}

// List returns every bill
func (s *billServiceImpl) List(ctx context.Context) ([]entity.Bill, error) {
	bills, err := s.billRepo.List(ctx)
	if err != nil {
		return nil, internal(fmt.Errorf("list bills: %w", err))
	}
	return values(bills), nil
}

// ListByEmail returns the bills owned by email
func (s *billServiceImpl) ListByEmail(ctx context.Context, email string) ([]entity.Bill, error) {
	bills, err := s.billRepo.ListByEmail(ctx, email)
	if err != nil {
		return nil, internal(fmt.Errorf("list bills of %s: %w", email, err))
	}
	return values(bills), nil
}

// Get returns the bill with the given id
func (s *billServiceImpl) Get(ctx context.Context, id string) (*entity.Bill, error) {
	bill, err := s.billRepo.GetByID(ctx, id)
	if err != nil {
		return nil, internal(fmt.Errorf("get bill %s: %w", id, err))
	}
	if bill == nil {
		return nil, fmt.Errorf("%w: bill %s", ErrNotFound, id)
	}
	return bill, nil
}

// CreateAttachment stores the receipt and records it under a new key
func (s *billServiceImpl) CreateAttachment(ctx context.Context, file port.File, ownerEmail string) (*entity.AttachmentReceipt, error) {
	if ownerEmail == "" {
		return nil, fmt.Errorf("%w: missing owner email", ErrInvalidInput)
	}
	ext := file.Ext()
	if !entity.IsAcceptedExtension(ext) {
		return nil, fmt.Errorf("%w: unsupported file %q", ErrInvalidInput, file.Name)
	}
	if len(file.Data) == 0 {
		return nil, fmt.Errorf("%w: empty file %q", ErrInvalidInput, file.Name)
	}

	key := s.newID()
	att := &entity.Attachment{
		Key:         key,
		FileName:    file.Name,
		ContentType: entity.ContentTypeFor(ext),
		FilePath:    key + "/receipt." + ext,
		FileSize:    file.Size(),
		Email:       ownerEmail,
		CreatedAt:   time.Now(),
	}

	if err := s.files.Save(ctx, att.FilePath, file.Data); err != nil {
		s.logger.Error("Failed to store attachment", "key", key, "error", err)
		return nil, internal(fmt.Errorf("store attachment: %w", err))
	}

	if err := s.attachmentRepo.Create(ctx, att); err != nil {
		if delErr := s.files.Delete(ctx, att.FilePath); delErr != nil {
			s.logger.Error("Failed to remove orphan attachment", "path", att.FilePath, "error", delErr)
		}
		return nil, internal(fmt.Errorf("record attachment: %w", err))
	}

	s.logger.Info("Attachment stored",
		"key", key,
		"file_name", file.Name,
		"size", att.FileSize,
		"email", ownerEmail,
	)

	return &entity.AttachmentReceipt{FileURL: s.fileURL(att), Key: key}, nil
}

// Create persists a new bill under a fresh id
func (s *billServiceImpl) Create(ctx context.Context, bill *entity.Bill) (*entity.Bill, error) {
	created := *bill
	created.ID = s.newID()
	if created.Status == "" {
		created.Status = entity.StatusPending
	}
	if err := validateBill(&created); err != nil {
		return nil, err
	}

	if err := s.billRepo.Create(ctx, &created); err != nil {
		return nil, internal(fmt.Errorf("create bill: %w", err))
	}

	s.logger.Info("Bill created", "id", created.ID, "email", created.Email)
	return &created, nil
}

// Update completes the bill identified by key. When no bill exists yet but
// an attachment was uploaded under key, the bill is created with that id and
// linked to the attachment.
func (s *billServiceImpl) Update(ctx context.Context, key string, bill *entity.Bill) (*entity.Bill, error) {
	var result *entity.Bill

	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.billRepo.GetByID(ctx, key)
		if err != nil {
			return internal(fmt.Errorf("get bill %s: %w", key, err))
		}

		if existing != nil {
			merged := merge(existing, bill)
			if err := validateBill(merged); err != nil {
				return err
			}
			if err := s.billRepo.Update(ctx, merged); err != nil {
				return internal(fmt.Errorf("update bill %s: %w", key, err))
			}
			result = merged
			return nil
		}

		att, err := s.attachmentRepo.GetByKey(ctx, key)
		if err != nil {
			return internal(fmt.Errorf("get attachment %s: %w", key, err))
		}
		if att == nil {
			return fmt.Errorf("%w: bill %s", ErrNotFound, key)
		}

		created := *bill
		created.ID = key
		if created.Email == "" {
			created.Email = att.Email
		}
		if created.FileURL == "" && created.FileName == "" {
			created.FileURL = s.fileURL(att)
			created.FileName = att.FileName
		}
		if created.Status == "" {
			created.Status = entity.StatusPending
		}
		if err := validateBill(&created); err != nil {
			return err
		}

		if err := s.billRepo.Create(ctx, &created); err != nil {
			return internal(fmt.Errorf("create bill %s: %w", key, err))
		}
		if err := s.attachmentRepo.LinkBill(ctx, key, key); err != nil {
			return internal(fmt.Errorf("link attachment %s: %w", key, err))
		}
		result = &created
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to update bill", "key", key, "error", err)
		return nil, err
	}

	s.logger.Info("Bill updated", "id", result.ID, "status", result.Status)
	return result, nil
}

// Attachment returns the metadata and content of a stored receipt
func (s *billServiceImpl) Attachment(ctx context.Context, key string) (*entity.Attachment, []byte, error) {
	att, err := s.attachmentRepo.GetByKey(ctx, key)
	if err != nil {
		return nil, nil, internal(fmt.Errorf("get attachment %s: %w", key, err))
	}
	if att == nil {
		return nil, nil, fmt.Errorf("%w: attachment %s", ErrNotFound, key)
	}

	content, err := s.files.Read(ctx, att.FilePath)
	if err != nil {
		return nil, nil, internal(fmt.Errorf("read attachment %s: %w", key, err))
	}
	return att, content, nil
}

// Seed inserts the given bills, keeping their ids, skipping those already present
func (s *billServiceImpl) Seed(ctx context.Context, bills []entity.Bill) (int, error) {
	added := 0
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		for i := range bills {
			b := bills[i]
			existing, err := s.billRepo.GetByID(ctx, b.ID)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}
			if err := s.billRepo.Create(ctx, &b); err != nil {
				return err
			}
			added++
		}
		return nil
	})
	if err != nil {
		return 0, internal(fmt.Errorf("seed bills: %w", err))
	}

	s.logger.Info("Bills seeded", "added", added, "total", len(bills))
	return added, nil
}

func (s *billServiceImpl) fileURL(att *entity.Attachment) string {
	return fmt.Sprintf("%s/files/%s/%s", s.baseURL, att.Key, url.PathEscape(att.FileName))
}

// merge applies the submitted fields of update onto existing. Identity and
// ownership stay with existing.
func merge(existing, update *entity.Bill) *entity.Bill {
	merged := *existing
	merged.Type = update.Type
	merged.Name = update.Name
	merged.Date = update.Date
	merged.Amount = update.Amount
	merged.VAT = update.VAT
	merged.Pct = update.Pct
	merged.Commentary = update.Commentary
	if update.FileURL != "" || update.FileName != "" {
		merged.FileURL = update.FileURL
		merged.FileName = update.FileName
	}
	if update.Status != "" {
		merged.Status = update.Status
	}
	if update.CommentAdmin != "" {
		merged.CommentAdmin = update.CommentAdmin
	}
	return &merged
}

func validateBill(b *entity.Bill) error {
	var problems []string

	if !entity.IsValidBillType(b.Type) {
		problems = append(problems, fmt.Sprintf("unknown type %q", b.Type))
	}
	if _, ok := b.ParsedDate(); !ok {
		problems = append(problems, fmt.Sprintf("invalid date %q", b.Date))
	}
	if b.Amount <= 0 {
		problems = append(problems, "amount must be positive")
	}
	if b.VAT < 0 {
		problems = append(problems, "vat must not be negative")
	}
	if b.Pct < 0 || b.Pct > 100 {
		problems = append(problems, "pct must be between 0 and 100")
	}
	if b.Email == "" {
		problems = append(problems, "missing email")
	}
	if !entity.IsValidStatus(b.Status) {
		problems = append(problems, fmt.Sprintf("unknown status %q", b.Status))
	}
	if (b.FileURL == "") != (b.FileName == "") {
		problems = append(problems, "fileUrl and fileName must be set together")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

func internal(err error) error {
	var te *port.TransportError
	if errors.As(err, &te) {
		return err
	}
	return port.WrapTransport(http.StatusInternalServerError, err)
}

func values(bills []*entity.Bill) []entity.Bill {
	out := make([]entity.Bill, 0, len(bills))
	for _, b := range bills {
		out = append(out, *b)
	}
	return out
}
