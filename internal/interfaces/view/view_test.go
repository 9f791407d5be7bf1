package view

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/billed/internal/application/port"
	"github.com/garyjia/billed/internal/application/presenter"
	"github.com/garyjia/billed/internal/fixtures"
)

func TestRenderBills(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderBills(&buf, presenter.Render(fixtures.Bills())))
	html := buf.String()

	assert.Contains(t, html, `data-testid="tbody"`)
	assert.Contains(t, html, `data-testid="btn-new-bill"`)
	assert.Contains(t, html, `data-testid="icon-window"`)
	assert.Contains(t, html, `data-testid="modaleFile"`)
	assert.Equal(t, 4, strings.Count(html, `data-testid="icon-eye"`))
	assert.Contains(t, html, "400 €")
	assert.Contains(t, html, "En attente")

	// newest first
	i2004 := strings.Index(html, "2004-04-04")
	i2003 := strings.Index(html, "2003-03-03")
	i2001 := strings.Index(html, "2001-01-01")
	assert.True(t, i2004 < i2003 && i2003 < i2001)
}

func TestRenderBills_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderBills(&buf, presenter.Render(nil)))

	assert.Contains(t, buf.String(), "Aucune note de frais")
	assert.NotContains(t, buf.String(), `data-testid="icon-eye"`)
}

func TestRenderBills_Error(t *testing.T) {
	for _, status := range []int{404, 500} {
		var buf bytes.Buffer
		err := port.WrapTransport(status, errors.New("boom"))
		require.NoError(t, RenderBills(&buf, presenter.RenderError(err)))

		assert.Contains(t, buf.String(), "Erreur ")
		assert.NotContains(t, buf.String(), `data-testid="tbody"`)
	}

	var buf bytes.Buffer
	require.NoError(t, RenderBills(&buf, presenter.RenderError(port.WrapTransport(404, errors.New("x")))))
	assert.Contains(t, buf.String(), "Erreur 404")
}

func TestRenderNewBill(t *testing.T) {
	var buf bytes.Buffer
	page := NewNewBillPage()
	page.FileName = "test.jpg"
	require.NoError(t, RenderNewBill(&buf, page))
	html := buf.String()

	assert.Contains(t, html, "Envoyer une note de frais")
	assert.Contains(t, html, `data-testid="form-new-bill"`)
	assert.Contains(t, html, `data-testid="file"`)
	assert.Contains(t, html, "Hôtel et logement")
	assert.Contains(t, html, "test.jpg")
	assert.NotContains(t, html, "disabled")
}

func TestRenderNewBill_Alert(t *testing.T) {
	var buf bytes.Buffer
	page := NewNewBillPage()
	page.Alert = "Veuillez sélectionner un fichier au format jpg, jpeg ou png."
	page.Blocked = true
	require.NoError(t, RenderNewBill(&buf, page))

	assert.Contains(t, buf.String(), "Veuillez sélectionner un fichier au format jpg, jpeg ou png.")
	assert.Contains(t, buf.String(), "disabled")
}
