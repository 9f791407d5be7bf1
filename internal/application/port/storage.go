package port

import "context"

// FileStorage keeps receipt bytes under slash-separated keys such as
// "<attachment key>/receipt.png". Keys never leave the storage root.
type FileStorage interface {
	Save(ctx context.Context, key string, content []byte) error
	Read(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) bool
	// Delete removes the file; a missing file is not an error
	Delete(ctx context.Context, key string) error
}
