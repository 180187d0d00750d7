package order

import (
	"context"
	"storefront-be/internal/cart"
	"storefront-be/internal/catalog"
	"storefront-be/internal/notify"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateOrder(ctx context.Context, o *Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockRepository) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Order), args.Error(1)
}

func (m *MockRepository) ListByBuyer(ctx context.Context, buyerID string) ([]*Order, error) {
	args := m.Called(ctx, buyerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Order), args.Error(1)
}

func (m *MockRepository) ListBySeller(ctx context.Context, ownerID string) ([]*Order, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*Order), args.Error(1)
}

func (m *MockRepository) TransitionStatus(ctx context.Context, orderID string, from, to Status, at time.Time) (bool, error) {
	args := m.Called(ctx, orderID, from, to, at)
	return args.Bool(0), args.Error(1)
}

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) GetItem(ctx context.Context, itemID string) (*catalog.Item, error) {
	args := m.Called(ctx, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Item), args.Error(1)
}

func (m *MockCatalog) GetItems(ctx context.Context, itemIDs []string) (map[string]*catalog.Item, error) {
	args := m.Called(ctx, itemIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*catalog.Item), args.Error(1)
}

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) Reserve(ctx context.Context, itemID string, qty int) error {
	return m.Called(ctx, itemID, qty).Error(0)
}

func (m *MockLedger) Release(ctx context.Context, itemID string, qty int) error {
	return m.Called(ctx, itemID, qty).Error(0)
}

func (m *MockLedger) ConfirmSale(ctx context.Context, itemID string, qty int) error {
	return m.Called(ctx, itemID, qty).Error(0)
}

type MockCarts struct {
	mock.Mock
}

func (m *MockCarts) AddLine(ctx context.Context, userID, itemID string, qty int) (*cart.Line, error) {
	args := m.Called(ctx, userID, itemID, qty)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Line), args.Error(1)
}

func (m *MockCarts) GetLine(ctx context.Context, userID, itemID string) (*cart.Line, error) {
	args := m.Called(ctx, userID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Line), args.Error(1)
}

func (m *MockCarts) GetLines(ctx context.Context, userID string) ([]cart.Line, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]cart.Line), args.Error(1)
}

func (m *MockCarts) LockLines(ctx context.Context, userID string) ([]cart.Line, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]cart.Line), args.Error(1)
}

func (m *MockCarts) SetQuantity(ctx context.Context, userID, itemID string, qty int) (*cart.Line, error) {
	args := m.Called(ctx, userID, itemID, qty)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Line), args.Error(1)
}

func (m *MockCarts) RemoveLine(ctx context.Context, userID, itemID string) error {
	return m.Called(ctx, userID, itemID).Error(0)
}

func (m *MockCarts) Clear(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type MockIdempotency struct {
	mock.Mock
}

func (m *MockIdempotency) Claim(ctx context.Context, key string) (bool, []string, error) {
	args := m.Called(ctx, key)
	var ids []string
	if args.Get(1) != nil {
		ids = args.Get(1).([]string)
	}
	return args.Bool(0), ids, args.Error(2)
}

func (m *MockIdempotency) Complete(ctx context.Context, key string, orderIDs []string) error {
	return m.Called(ctx, key, orderIDs).Error(0)
}

func (m *MockIdempotency) Release(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []notify.Message
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, msg notify.Message) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, msg)
}
