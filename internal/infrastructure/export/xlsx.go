// Package export renders bills as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/billed/internal/domain/entity"
)

// SheetName is the worksheet holding the bills
const SheetName = "Notes de frais"

// ContentType of the generated workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var headers = []string{
	"Date", "Type", "Nom", "Montant TTC", "TVA", "%", "Commentaire", "Statut", "Justificatif", "Email",
}

// BillExporter writes bills to an xlsx workbook
type BillExporter struct {
	logger *zap.Logger
}

// NewBillExporter creates a new exporter
func NewBillExporter(logger *zap.Logger) *BillExporter {
	return &BillExporter{logger: logger}
}

// Write renders bills in the given order, followed by a total row, and
// writes the workbook to w
func (e *BillExporter) Write(w io.Writer, bills []entity.Bill) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	for i, h := range headers {
		e.setCell(f, cellName(i+1, 1), h)
	}

	total := 0.0
	for i, b := range bills {
		row := i + 2
		e.setCell(f, cellName(1, row), b.Date)
		e.setCell(f, cellName(2, row), b.Type)
		e.setCell(f, cellName(3, row), b.Name)
		e.setCell(f, cellName(4, row), b.Amount)
		e.setCell(f, cellName(5, row), b.VAT)
		e.setCell(f, cellName(6, row), b.Pct)
		e.setCell(f, cellName(7, row), b.Commentary)
		e.setCell(f, cellName(8, row), entity.StatusLabel(b.Status))
		e.setCell(f, cellName(9, row), b.FileName)
		e.setCell(f, cellName(10, row), b.Email)
		total += b.Amount
	}

	totalRow := len(bills) + 2
	e.setCell(f, cellName(3, totalRow), "Total")
	e.setCell(f, cellName(4, totalRow), total)

	if err := f.SetColWidth(SheetName, "A", "J", 18); err != nil {
		e.logger.Warn("Failed to set column width", zap.Error(err))
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.Info("Bills exported", zap.Int("count", len(bills)), zap.Float64("total", total))
	return nil
}

func (e *BillExporter) setCell(f *excelize.File, cell string, value interface{}) {
	if err := f.SetCellValue(SheetName, cell, value); err != nil {
		e.logger.Warn("Failed to set cell value",
			zap.String("cell", cell),
			zap.Error(err))
	}
}

func cellName(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		panic(fmt.Sprintf("invalid cell %d,%d: %v", col, row, err))
	}
	return name
}
