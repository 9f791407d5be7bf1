package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalFileStorage_SaveReadDelete(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalFileStorage(dir, zap.NewNop())
	ctx := context.Background()

	path := "1234/receipt.jpg"
	require.NoError(t, s.Save(ctx, path, []byte("jpeg bytes")))
	assert.True(t, s.Exists(ctx, path))

	content, err := s.Read(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(content))

	_, err = os.Stat(filepath.Join(dir, "1234", "receipt.jpg"))
	assert.NoError(t, err)

	require.NoError(t, s.Delete(ctx, path))
	assert.False(t, s.Exists(ctx, path))

	// idempotent
	assert.NoError(t, s.Delete(ctx, path))
}

func TestLocalFileStorage_RejectsEscapes(t *testing.T) {
	s := NewLocalFileStorage(t.TempDir(), zap.NewNop())
	ctx := context.Background()

	for _, p := range []string{"../outside.jpg", "a/../../outside.jpg", "."} {
		assert.ErrorIs(t, s.Save(ctx, p, []byte("x")), ErrPathEscape, p)
		_, err := s.Read(ctx, p)
		assert.ErrorIs(t, err, ErrPathEscape, p)
		assert.False(t, s.Exists(ctx, p))
	}
}

func TestLocalFileStorage_ReadMissing(t *testing.T) {
	s := NewLocalFileStorage(t.TempDir(), zap.NewNop())
	_, err := s.Read(context.Background(), "missing/file.png")
	assert.Error(t, err)
}
