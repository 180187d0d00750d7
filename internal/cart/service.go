package cart

import (
	"context"
	"storefront-be/internal/catalog"
	"storefront-be/internal/inventory"
	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

// Service defines the business logic for carts.
type Service interface {
	AddLine(ctx context.Context, userID, itemID string, qty int) (*Line, error)
	SetQuantity(ctx context.Context, userID, itemID string, qty int) (*Line, error)
	RemoveLine(ctx context.Context, userID, itemID string) error
	Clear(ctx context.Context, userID string) error
	GetCart(ctx context.Context, userID string) (*Cart, error)
}

type service struct {
	repo    Repository
	catalog catalog.Repository
}

func NewService(repo Repository, catalogRepo catalog.Repository) Service {
	return &service{repo: repo, catalog: catalogRepo}
}

// AddLine merges qty into the cart. The merged quantity may not exceed the
// item's current stock.
func (s *service) AddLine(ctx context.Context, userID, itemID string, qty int) (*Line, error) {
	if err := validate(userID, itemID); err != nil {
		return nil, err
	}
	if !inventory.ValidQuantity(qty) {
		return nil, ErrInvalidQuantity
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "AddLine"),
		zap.String("item_id", itemID),
		zap.Int("quantity", qty),
	)

	item, err := s.activeItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.GetLine(ctx, userID, itemID)
	if err != nil {
		log.Error("failed to load cart line", zap.Error(err))
		return nil, err
	}

	finalQty := qty
	if existing != nil {
		finalQty += existing.Quantity
	}
	if finalQty > item.Stock {
		log.Info("cart quantity exceeds stock",
			zap.Int("requested", finalQty),
			zap.Int("stock", item.Stock),
		)
		return nil, catalog.NewItemError(itemID, catalog.ErrInsufficientStock)
	}

	return s.repo.AddLine(ctx, userID, itemID, qty)
}

// SetQuantity overwrites a line's quantity, clamped to [1, stock]. A
// non-positive quantity removes the line.
func (s *service) SetQuantity(ctx context.Context, userID, itemID string, qty int) (*Line, error) {
	if err := validate(userID, itemID); err != nil {
		return nil, err
	}

	if qty <= 0 {
		return nil, s.repo.RemoveLine(ctx, userID, itemID)
	}

	item, err := s.activeItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	return s.repo.SetQuantity(ctx, userID, itemID, clamp(qty, item.Stock))
}

func (s *service) RemoveLine(ctx context.Context, userID, itemID string) error {
	if err := validate(userID, itemID); err != nil {
		return err
	}
	return s.repo.RemoveLine(ctx, userID, itemID)
}

func (s *service) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrUserNotAuthenticated
	}
	return s.repo.Clear(ctx, userID)
}

func (s *service) GetCart(ctx context.Context, userID string) (*Cart, error) {
	if userID == "" {
		return nil, ErrUserNotAuthenticated
	}

	lines, err := s.repo.GetLines(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Cart{UserID: userID, Lines: lines}, nil
}

func (s *service) activeItem(ctx context.Context, itemID string) (*catalog.Item, error) {
	item, err := s.catalog.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !item.Active {
		return nil, catalog.NewItemError(itemID, catalog.ErrItemInactive)
	}
	return item, nil
}

func validate(userID, itemID string) error {
	if userID == "" {
		return ErrUserNotAuthenticated
	}
	if itemID == "" {
		return ErrInvalidItem
	}
	return nil
}

// clamp bounds qty to [1, stock]; with no stock left the line keeps 1 and
// checkout reports the shortage.
func clamp(qty, stock int) int {
	if qty > stock {
		qty = stock
	}
	if qty < 1 {
		qty = 1
	}
	return qty
}
