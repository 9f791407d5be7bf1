// Package view renders the bills pages with html/template.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/garyjia/billed/internal/application/controller"
	"github.com/garyjia/billed/internal/application/presenter"
	"github.com/garyjia/billed/internal/domain/entity"
)

// Template names
const (
	BillsTemplate   = "bills"
	NewBillTemplate = "new_bill"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = MustTemplates()

// NewBillPage is the data behind the new-bill form
type NewBillPage struct {
	Types    []string
	Form     controller.FormSnapshot
	Alert    string
	Error    string
	FileName string
	FileURL  string
	Blocked  bool
}

// NewNewBillPage returns an empty form offering every expense type
func NewNewBillPage() NewBillPage {
	return NewBillPage{Types: entity.BillTypes}
}

// Templates parses the embedded page templates
func Templates() (*template.Template, error) {
	t, err := template.New("billed").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return t, nil
}

// MustTemplates is Templates for package initialization; it panics on error
func MustTemplates() *template.Template {
	return template.Must(Templates())
}

// RenderBills writes the bills page
func RenderBills(w io.Writer, v presenter.BillsView) error {
	return pages.ExecuteTemplate(w, BillsTemplate, v)
}

// RenderNewBill writes the new-bill page
func RenderNewBill(w io.Writer, p NewBillPage) error {
	return pages.ExecuteTemplate(w, NewBillTemplate, p)
}
