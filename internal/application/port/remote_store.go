package port

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/garyjia/billed/internal/domain/entity"
)

// File is an attachment selected by the user
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the file size in bytes
func (f File) Size() int64 {
	return int64(len(f.Data))
}

// Ext returns the lower-cased extension without the dot. When the name has no
// extension the subtype of the declared content type is used instead.
func (f File) Ext() string {
	if ext := strings.TrimPrefix(path.Ext(f.Name), "."); ext != "" {
		return strings.ToLower(ext)
	}
	if i := strings.LastIndex(f.ContentType, "/"); i >= 0 {
		return strings.ToLower(f.ContentType[i+1:])
	}
	return ""
}

// RemoteStore is the API abstraction the UI core talks to
type RemoteStore interface {
	Bills() BillsStore
}

// BillsStore exposes bill and attachment operations
type BillsStore interface {
	// List returns every bill visible to the caller
	List(ctx context.Context) ([]entity.Bill, error)

	// CreateAttachment uploads a receipt for ownerEmail and returns where it landed
	CreateAttachment(ctx context.Context, file File, ownerEmail string) (*entity.AttachmentReceipt, error)

	// Create persists a new bill
	Create(ctx context.Context, bill *entity.Bill) (*entity.Bill, error)

	// Update completes the bill created alongside the attachment identified by key
	Update(ctx context.Context, key string, bill *entity.Bill) (*entity.Bill, error)
}

// TransportError is returned by a store when the remote side answered with
// an error status
type TransportError struct {
	Status  int
	Message string
	Err     error
}

// NewTransportError creates a TransportError for status
func NewTransportError(status int, message string) *TransportError {
	return &TransportError{Status: status, Message: message}
}

// WrapTransport reports err to the caller as a failure with status
func WrapTransport(status int, err error) *TransportError {
	return &TransportError{Status: status, Err: err}
}

func (e *TransportError) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("transport error: %d %s", e.Status, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("transport error: %d %s", e.Status, e.Err.Error())
	default:
		return fmt.Sprintf("transport error: %d %s", e.Status, http.StatusText(e.Status))
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a 404 transport error
func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

// StatusOf returns the transport status carried by err, or 0
func StatusOf(err error) int {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Status
	}
	return 0
}

// ErrorMessage renders err the way the error views display it
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if status := StatusOf(err); status != 0 {
		return fmt.Sprintf("Erreur %d", status)
	}
	return err.Error()
}
