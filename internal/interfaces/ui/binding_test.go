package ui

import (
	"context"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/billed/internal/application/controller"
	"github.com/garyjia/billed/internal/application/dispatcher"
	"github.com/garyjia/billed/internal/application/navigation"
	"github.com/garyjia/billed/internal/application/port"
	"github.com/garyjia/billed/internal/application/presenter"
	"github.com/garyjia/billed/internal/domain/entity"
	"github.com/garyjia/billed/internal/fixtures"
)

type fakeStore struct {
	mu          sync.Mutex
	uploads     int
	updates     map[string]*entity.Bill
	attachments []port.File
}

func newFakeStore() *fakeStore {
	return &fakeStore{updates: make(map[string]*entity.Bill)}
}

func (s *fakeStore) Bills() port.BillsStore { return s }

func (s *fakeStore) List(ctx context.Context) ([]entity.Bill, error) {
	return fixtures.Bills(), nil
}

func (s *fakeStore) CreateAttachment(ctx context.Context, file port.File, ownerEmail string) (*entity.AttachmentReceipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads++
	s.attachments = append(s.attachments, file)
	return &entity.AttachmentReceipt{FileURL: "https://test-url.com/test.jpg", Key: "1234"}, nil
}

func (s *fakeStore) Create(ctx context.Context, bill *entity.Bill) (*entity.Bill, error) {
	created := *bill
	created.ID = "new"
	return &created, nil
}

func (s *fakeStore) Update(ctx context.Context, key string, bill *entity.Bill) (*entity.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updates[key] = bill
	updated := *bill
	updated.ID = key
	return &updated, nil
}

type fakeModal struct {
	shown []string
}

func (m *fakeModal) Show(fileURL string) { m.shown = append(m.shown, fileURL) }

var employee = entity.Session{Type: entity.UserTypeEmployee, Email: fixtures.Email}

func TestBindBills_NewBillButton(t *testing.T) {
	d := dispatcher.NewDispatcher()
	defer d.Close()

	router := navigation.NewRouter()
	var loads int
	router.Handle(navigation.RouteNewBill, func(ctx context.Context) error {
		loads++
		return nil
	})

	list := presenter.NewBillList(newFakeStore(), router, employee)
	BindBills(d, BillsDocument(true), list, fixtures.Bills())

	page := NewPage(d)
	require.NoError(t, page.Click(context.Background(), ElementNewBill, ""))

	assert.Equal(t, 1, loads)
	assert.Equal(t, navigation.RouteNewBill, router.Current())
}

func TestBindBills_PreviewIcon(t *testing.T) {
	d := dispatcher.NewDispatcher()
	defer d.Close()

	modal := &fakeModal{}
	bills := fixtures.Bills()
	list := presenter.NewBillList(newFakeStore(), navigation.NewRouter(), employee, presenter.WithModal(modal))
	BindBills(d, BillsDocument(true), list, bills)

	page := NewPage(d)
	for _, b := range bills {
		require.NoError(t, page.Click(context.Background(), ElementEye, b.ID))
	}

	require.Len(t, modal.shown, len(bills))
	assert.Equal(t, bills[0].FileURL, modal.shown[0])

	err := page.Click(context.Background(), ElementEye, "missing")
	assert.ErrorContains(t, err, "unknown bill")
}

func TestBindBills_EmptyPageHasNoPreview(t *testing.T) {
	d := dispatcher.NewDispatcher()
	defer d.Close()

	list := presenter.NewBillList(newFakeStore(), navigation.NewRouter(), employee)
	BindBills(d, BillsDocument(false), list, nil)

	handlers := d.ListHandlers("ui.click")
	require.Len(t, handlers, 1)
	assert.Equal(t, ElementNewBill, handlers[0].Target)
}

func TestBindNewBill_UploadThenSubmit(t *testing.T) {
	d := dispatcher.NewDispatcher()
	defer d.Close()

	store := newFakeStore()
	redirect := &navigation.Redirector{}
	form := controller.NewBillForm(store, redirect, employee)
	BindNewBill(d, NewBillDocument(), form)

	page := NewPage(d)
	ctx := context.Background()

	require.NoError(t, page.Change(ctx, ElementFile, port.File{Name: "test.jpg", ContentType: "image/jpeg", Data: []byte("x")}))
	assert.Equal(t, 1, store.uploads)
	assert.Equal(t, "https://test-url.com/test.jpg", form.Attempt().FileURL)

	values := url.Values{
		"type":       {entity.TypeTransports},
		"name":       {"Vol Paris Londres"},
		"date":       {"2022-04-04"},
		"amount":     {"348"},
		"vat":        {"70"},
		"pct":        {"20"},
		"commentary": {"séminaire"},
	}
	require.NoError(t, page.Submit(ctx, ElementNewBillForm, values))

	saved := store.updates["1234"]
	require.NotNil(t, saved)
	assert.Equal(t, "Vol Paris Londres", saved.Name)
	assert.Equal(t, "test.jpg", saved.FileName)
	assert.Equal(t, entity.StatusPending, saved.Status)

	location, ok := redirect.Location()
	require.True(t, ok)
	assert.Equal(t, "/employee/bills", location)
}

func TestBindNewBill_RejectedFile(t *testing.T) {
	d := dispatcher.NewDispatcher()
	defer d.Close()

	store := newFakeStore()
	form := controller.NewBillForm(store, &navigation.Redirector{}, employee)
	BindNewBill(d, NewBillDocument(), form)

	page := NewPage(d)
	ctx := context.Background()

	require.NoError(t, page.Change(ctx, ElementFile, port.File{Name: "test.pdf", Data: []byte("x")}))
	require.NoError(t, page.Change(ctx, ElementFile))

	assert.Zero(t, store.uploads)
	assert.Equal(t, controller.RejectionNoFile, form.Rejection())

	err := page.Submit(ctx, ElementNewBillForm, url.Values{})
	assert.ErrorIs(t, err, controller.ErrSubmissionBlocked)
}
