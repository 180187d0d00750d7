package cart

import (
	"context"
	"storefront-be/internal/catalog"
	"storefront-be/internal/inventory"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) AddLine(ctx context.Context, userID, itemID string, qty int) (*Line, error) {
	args := m.Called(ctx, userID, itemID, qty)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Line), args.Error(1)
}

func (m *MockRepository) GetLine(ctx context.Context, userID, itemID string) (*Line, error) {
	args := m.Called(ctx, userID, itemID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Line), args.Error(1)
}

func (m *MockRepository) GetLines(ctx context.Context, userID string) ([]Line, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Line), args.Error(1)
}

func (m *MockRepository) LockLines(ctx context.Context, userID string) ([]Line, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Line), args.Error(1)
}

func (m *MockRepository) SetQuantity(ctx context.Context, userID, itemID string, qty int) (*Line, error) {
	args := m.Called(ctx, userID, itemID, qty)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Line), args.Error(1)
}

func (m *MockRepository) RemoveLine(ctx context.Context, userID, itemID string) error {
	args := m.Called(ctx, userID, itemID)
	return args.Error(0)
}

func (m *MockRepository) Clear(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockCatalog is a mock for the catalog repository
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

func TestService_AddLine(t *testing.T) {
	ctx := context.Background()
	item := &catalog.Item{ID: "item-x", Stock: 10, Active: true}

	t.Run("New line", func(t *testing.T) {
		repo, cat := new(MockRepository), new(MockCatalog)
		cat.On("GetItem", ctx, "item-x").Return(item, nil)
		repo.On("GetLine", ctx, "user-1", "item-x").Return(nil, nil)
		repo.On("AddLine", ctx, "user-1", "item-x", 2).Return(&Line{ItemID: "item-x", Quantity: 2}, nil)

		line, err := NewService(repo, cat).AddLine(ctx, "user-1", "item-x", 2)

		require.NoError(t, err)
		assert.Equal(t, 2, line.Quantity)
	})

	t.Run("Merged quantity over stock", func(t *testing.T) {
		repo, cat := new(MockRepository), new(MockCatalog)
		cat.On("GetItem", ctx, "item-x").Return(item, nil)
		repo.On("GetLine", ctx, "user-1", "item-x").Return(&Line{ItemID: "item-x", Quantity: 8}, nil)

		_, err := NewService(repo, cat).AddLine(ctx, "user-1", "item-x", 3)

		assert.ErrorIs(t, err, catalog.ErrInsufficientStock)
		repo.AssertNotCalled(t, "AddLine", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Inactive item", func(t *testing.T) {
		repo, cat := new(MockRepository), new(MockCatalog)
		cat.On("GetItem", ctx, "item-off").Return(&catalog.Item{ID: "item-off", Stock: 5}, nil)

		_, err := NewService(repo, cat).AddLine(ctx, "user-1", "item-off", 1)

		assert.ErrorIs(t, err, catalog.ErrItemInactive)
	})

	t.Run("Unknown item", func(t *testing.T) {
		repo, cat := new(MockRepository), new(MockCatalog)
		cat.On("GetItem", ctx, "ghost").Return(nil, catalog.NewItemError("ghost", catalog.ErrItemNotFound))

		_, err := NewService(repo, cat).AddLine(ctx, "user-1", "ghost", 1)

		assert.ErrorIs(t, err, catalog.ErrItemNotFound)
	})

	t.Run("Validation", func(t *testing.T) {
		svc := NewService(new(MockRepository), new(MockCatalog))

		_, err := svc.AddLine(ctx, "", "item-x", 1)
		assert.ErrorIs(t, err, ErrUserNotAuthenticated)

		_, err = svc.AddLine(ctx, "user-1", "", 1)
		assert.ErrorIs(t, err, ErrInvalidItem)

		_, err = svc.AddLine(ctx, "user-1", "item-x", 0)
		assert.ErrorIs(t, err, ErrInvalidQuantity)

		_, err = svc.AddLine(ctx, "user-1", "item-x", inventory.MaxQuantity+1)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
	})
}

func TestService_SetQuantity(t *testing.T) {
	ctx := context.Background()
	item := &catalog.Item{ID: "item-x", Stock: 4, Active: true}

	t.Run("Clamps to stock", func(t *testing.T) {
		repo, cat := new(MockRepository), new(MockCatalog)
		cat.On("GetItem", ctx, "item-x").Return(item, nil)
		repo.On("SetQuantity", ctx, "user-1", "item-x", 4).Return(&Line{ItemID: "item-x", Quantity: 4}, nil)

		line, err := NewService(repo, cat).SetQuantity(ctx, "user-1", "item-x", 99)

		require.NoError(t, err)
		assert.Equal(t, 4, line.Quantity)
	})

	t.Run("Zero removes the line", func(t *testing.T) {
		repo, cat := new(MockRepository), new(MockCatalog)
		repo.On("RemoveLine", ctx, "user-1", "item-x").Return(nil)

		line, err := NewService(repo, cat).SetQuantity(ctx, "user-1", "item-x", 0)

		assert.NoError(t, err)
		assert.Nil(t, line)
		repo.AssertCalled(t, "RemoveLine", ctx, "user-1", "item-x")
		cat.AssertNotCalled(t, "GetItem", mock.Anything, mock.Anything)
	})
}

func TestService_ClearAndGetCart(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	repo.On("Clear", ctx, "user-1").Return(nil)
	repo.On("GetLines", ctx, "user-1").Return([]Line{{ItemID: "a", Quantity: 2}}, nil)

	svc := NewService(repo, new(MockCatalog))

	assert.NoError(t, svc.Clear(ctx, "user-1"))
	assert.ErrorIs(t, svc.Clear(ctx, ""), ErrUserNotAuthenticated)

	c, err := svc.GetCart(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []Line{{ItemID: "a", Quantity: 2}}, c.Lines)
}

func TestClamp(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		qty := rapid.IntRange(1, 1000).Draw(t, "qty")
		stock := rapid.IntRange(0, 1000).Draw(t, "stock")

		got := clamp(qty, stock)

		if got < 1 {
			t.Fatalf("clamp(%d, %d) = %d, want >= 1", qty, stock, got)
		}
		if stock >= 1 && got > stock {
			t.Fatalf("clamp(%d, %d) = %d exceeds stock", qty, stock, got)
		}
		if qty <= stock && got != qty {
			t.Fatalf("clamp(%d, %d) = %d, want unchanged", qty, stock, got)
		}
	})
}
