package fixtures

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/billed/internal/domain/entity"
)

func TestBills(t *testing.T) {
	bills := Bills()
	require.Len(t, bills, 4)

	for _, b := range bills {
		assert.Equal(t, Email, b.Email)
		assert.True(t, entity.IsValidBillType(b.Type), b.Type)
		assert.True(t, entity.IsValidStatus(b.Status), b.Status)
		assert.True(t, b.HasAttachment())
		_, ok := b.ParsedDate()
		assert.True(t, ok, b.Date)
	}

	assert.Equal(t, "encore", bills[0].Name)
	assert.Equal(t, 400.0, bills[0].Amount)
}

func TestBills_ReturnsCopies(t *testing.T) {
	first := Bills()
	first[0].Name = "changed"
	assert.Equal(t, "encore", Bills()[0].Name)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("bills: [unterminated"))
	assert.Error(t, err)
}
