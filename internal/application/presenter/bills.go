package presenter

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/garyjia/billed/internal/application/navigation"
	"github.com/garyjia/billed/internal/application/port"
	"github.com/garyjia/billed/internal/domain/entity"
)

// PreviewPlaceholder is shown in the preview modal for bills without a receipt
const PreviewPlaceholder = "/static/no-receipt.svg"

// BillRow is one rendered line of the bills table
type BillRow struct {
	ID         string
	Type       string
	Name       string
	Date       string
	Amount     string
	Status     string
	StatusCode string
	PreviewURL string
	FileName   string
}

// BillsView is what the bills page displays
type BillsView struct {
	Rows  []BillRow
	Empty bool
	Error string
}

// BillList presents the bills of the session owner and handles the two
// actions of the list page
type BillList struct {
	store     port.RemoteStore
	navigator navigation.Navigator
	session   entity.Session
	modal     port.Modal
	logger    *zap.Logger
}

// Option configures a BillList
type Option func(*BillList)

// WithModal sets the modal used to preview attachments
func WithModal(m port.Modal) Option {
	return func(p *BillList) { p.modal = m }
}

// WithLogger sets the presenter logger
func WithLogger(logger *zap.Logger) Option {
	return func(p *BillList) { p.logger = logger }
}

// NewBillList creates a bills presenter for session
func NewBillList(store port.RemoteStore, navigator navigation.Navigator, session entity.Session, opts ...Option) *BillList {
	p := &BillList{
		store:     store,
		navigator: navigator,
		session:   session,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Render orders bills by date, most recent first. Bills with an
// unparseable date come last; ties keep their input order.
func Render(bills []entity.Bill) BillsView {
	if len(bills) == 0 {
		return BillsView{Empty: true}
	}

	sorted := make([]entity.Bill, len(bills))
	copy(sorted, bills)
	sort.SliceStable(sorted, func(i, j int) bool {
		di, okI := sorted[i].ParsedDate()
		dj, okJ := sorted[j].ParsedDate()
		switch {
		case okI && okJ:
			return di.After(dj)
		default:
			return okI && !okJ
		}
	})

	rows := make([]BillRow, 0, len(sorted))
	for i := range sorted {
		rows = append(rows, row(&sorted[i]))
	}
	return BillsView{Rows: rows}
}

// RenderError builds the error view for a failed load
func RenderError(err error) BillsView {
	return BillsView{Error: port.ErrorMessage(err)}
}

// Render is the presenter form of the package level Render
func (p *BillList) Render(bills []entity.Bill) BillsView {
	return Render(bills)
}

// Load fetches the bills and renders them. Employees only see their own bills.
func (p *BillList) Load(ctx context.Context) BillsView {
	bills, err := p.store.Bills().List(ctx)
	if err != nil {
		p.logger.Error("Failed to list bills", zap.String("email", p.session.Email), zap.Error(err))
		return RenderError(err)
	}

	if p.session.IsEmployee() {
		owned := bills[:0:0]
		for _, b := range bills {
			if b.Email == p.session.Email {
				owned = append(owned, b)
			}
		}
		bills = owned
	}

	p.logger.Info("Bills loaded", zap.String("email", p.session.Email), zap.Int("count", len(bills)))
	return Render(bills)
}

// OnCreateRequested navigates to the new-bill form
func (p *BillList) OnCreateRequested(ctx context.Context) error {
	return p.navigator.OnNavigate(ctx, navigation.RouteNewBill)
}

// OnPreviewRequested opens the attachment of bill in the modal
func (p *BillList) OnPreviewRequested(bill entity.Bill) {
	if p.modal == nil {
		p.logger.Warn("No modal configured for preview", zap.String("bill_id", bill.ID))
		return
	}
	p.modal.Show(previewURL(&bill))
}

func row(b *entity.Bill) BillRow {
	return BillRow{
		ID:         b.ID,
		Type:       b.Type,
		Name:       b.Name,
		Date:       b.Date,
		Amount:     formatAmount(b.Amount),
		Status:     entity.StatusLabel(b.Status),
		StatusCode: b.Status,
		PreviewURL: previewURL(b),
		FileName:   b.FileName,
	}
}

func previewURL(b *entity.Bill) string {
	if b.FileURL == "" {
		return PreviewPlaceholder
	}
	return b.FileURL
}

func formatAmount(amount float64) string {
	return fmt.Sprintf("%s €", strconv.FormatFloat(amount, 'f', -1, 64))
}
