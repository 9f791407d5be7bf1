package controller

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/garyjia/billed/internal/application/navigation"
	"github.com/garyjia/billed/internal/application/port"
	"github.com/garyjia/billed/internal/domain/entity"
)

// MockBillsStore mocks port.BillsStore
type MockBillsStore struct {
	mock.Mock
}

func (m *MockBillsStore) List(ctx context.Context) ([]entity.Bill, error) {
	args := m.Called(ctx)
	bills, _ := args.Get(0).([]entity.Bill)
	return bills, args.Error(1)
}

func (m *MockBillsStore) CreateAttachment(ctx context.Context, file port.File, ownerEmail string) (*entity.AttachmentReceipt, error) {
	args := m.Called(ctx, file, ownerEmail)
	receipt, _ := args.Get(0).(*entity.AttachmentReceipt)
	return receipt, args.Error(1)
}

func (m *MockBillsStore) Create(ctx context.Context, bill *entity.Bill) (*entity.Bill, error) {
	args := m.Called(ctx, bill)
	saved, _ := args.Get(0).(*entity.Bill)
	return saved, args.Error(1)
}

func (m *MockBillsStore) Update(ctx context.Context, key string, bill *entity.Bill) (*entity.Bill, error) {
	args := m.Called(ctx, key, bill)
	saved, _ := args.Get(0).(*entity.Bill)
	return saved, args.Error(1)
}

// mockStore hands out the same BillsStore on every call
type mockStore struct {
	bills *MockBillsStore
}

func (s *mockStore) Bills() port.BillsStore { return s.bills }

type recordingNavigator struct {
	mu     sync.Mutex
	routes []navigation.Route
}

func (n *recordingNavigator) OnNavigate(_ context.Context, route navigation.Route) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, route)
	return nil
}

func (n *recordingNavigator) Routes() []navigation.Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]navigation.Route(nil), n.routes...)
}

type recordingAlerter struct {
	messages []string
}

func (a *recordingAlerter) Alert(message string) { a.messages = append(a.messages, message) }

type recordingErrorView struct {
	messages []string
}

func (v *recordingErrorView) ShowError(message string) { v.messages = append(v.messages, message) }
