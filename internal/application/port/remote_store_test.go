package port

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFile_Ext(t *testing.T) {
	tests := []struct {
		name string
		file File
		want string
	}{
		{"lower jpg", File{Name: "test.jpg"}, "jpg"},
		{"upper jpeg", File{Name: "TEST.JPEG"}, "jpeg"},
		{"extension wins over type", File{Name: "test.pdf", ContentType: "image/png"}, "pdf"},
		{"type used without extension", File{Name: "scan", ContentType: "image/png"}, "png"},
		{"nothing known", File{Name: "scan"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.file.Ext())
		})
	}
}

func TestErrorMessage(t *testing.T) {
	wrapped404 := fmt.Errorf("list bills: %w", NewTransportError(404, ""))

	assert.Equal(t, "Erreur 404", ErrorMessage(wrapped404))
	assert.Equal(t, "Erreur 500", ErrorMessage(NewTransportError(500, "boom")))
	assert.Equal(t, "network down", ErrorMessage(errors.New("network down")))
	assert.Equal(t, "", ErrorMessage(nil))

	assert.True(t, IsNotFound(wrapped404))
	assert.Equal(t, 0, StatusOf(errors.New("x")))
}

func TestTransportError_Error(t *testing.T) {
	assert.Equal(t, "transport error: 500 Internal Server Error", NewTransportError(500, "").Error())
	assert.Equal(t, "transport error: 404 bill b1", NewTransportError(404, "bill b1").Error())
}

func TestWrapTransport(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("save: %w", WrapTransport(500, cause))

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 500, StatusOf(err))
	assert.Equal(t, "Erreur 500", ErrorMessage(err))
	assert.Contains(t, err.Error(), "disk full")
}
