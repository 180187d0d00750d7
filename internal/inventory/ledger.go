package inventory

import (
	"context"
	"math"
	"storefront-be/internal/catalog"
	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

// MaxQuantity is the largest count the stock and quantity columns hold.
const MaxQuantity = math.MaxInt32

// ValidQuantity reports whether qty is a positive count the store can hold.
func ValidQuantity(qty int) bool {
	return qty > 0 && qty <= MaxQuantity
}

// Ledger owns the per-item stock and sold counters.
type Ledger interface {
	// Reserve takes qty units out of stock, or fails with
	// catalog.ErrInsufficientStock and changes nothing.
	Reserve(ctx context.Context, itemID string, qty int) error
	// Release puts qty previously reserved units back into stock.
	Release(ctx context.Context, itemID string, qty int) error
	// ConfirmSale counts qty units as sold. Stock is not touched: it was
	// taken at reservation time.
	ConfirmSale(ctx context.Context, itemID string, qty int) error
}

type ledger struct {
	repo Repository
}

func NewLedger(repo Repository) Ledger {
	return &ledger{repo: repo}
}

func (l *ledger) Reserve(ctx context.Context, itemID string, qty int) error {
	if !ValidQuantity(qty) {
		return ErrInvalidQuantity
	}

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "inventory"),
		zap.String("method", "Reserve"),
		zap.String("item_id", itemID),
		zap.Int("quantity", qty),
	)

	ok, err := l.repo.DecrementStock(ctx, itemID, qty)
	if err != nil {
		log.Error("failed to decrement stock", zap.Error(err))
		return err
	}
	if ok {
		log.Debug("stock reserved")
		return nil
	}

	// The conditional update matched nothing: tell a missing item apart
	// from a short one.
	exists, err := l.repo.ItemExists(ctx, itemID)
	if err != nil {
		log.Error("failed to look up item", zap.Error(err))
		return err
	}
	if !exists {
		log.Warn("reserve on unknown item")
		return catalog.NewItemError(itemID, catalog.ErrItemNotFound)
	}

	log.Info("insufficient stock")
	return catalog.NewItemError(itemID, catalog.ErrInsufficientStock)
}

func (l *ledger) Release(ctx context.Context, itemID string, qty int) error {
	if !ValidQuantity(qty) {
		return ErrInvalidQuantity
	}

	if err := l.repo.IncrementStock(ctx, itemID, qty); err != nil {
		logger.FromCtx(ctx).Error("failed to release stock",
			zap.String("layer", "inventory"),
			zap.String("item_id", itemID),
			zap.Int("quantity", qty),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (l *ledger) ConfirmSale(ctx context.Context, itemID string, qty int) error {
	if !ValidQuantity(qty) {
		return ErrInvalidQuantity
	}

	if err := l.repo.IncrementSold(ctx, itemID, qty); err != nil {
		logger.FromCtx(ctx).Error("failed to confirm sale",
			zap.String("layer", "inventory"),
			zap.String("item_id", itemID),
			zap.Int("quantity", qty),
			zap.Error(err),
		)
		return err
	}
	return nil
}
