package memstore

import (
	"context"
	"storefront-be/internal/catalog"
)

type InventoryRepository struct {
	s *Store
}

// DecrementStock checks and subtracts under one lock, like the conditional
// UPDATE of the SQL store.
func (r *InventoryRepository) DecrementStock(ctx context.Context, itemID string, qty int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	item, ok := r.s.items[itemID]
	if !ok || item.Stock < qty {
		return false, nil
	}
	r.s.touchItem(ctx, itemID)
	item.Stock -= qty
	item.UpdatedAt = r.s.now()
	return true, nil
}

func (r *InventoryRepository) IncrementStock(ctx context.Context, itemID string, qty int) error {
	return r.update(ctx, itemID, func(item *catalog.Item) { item.Stock += qty })
}

func (r *InventoryRepository) IncrementSold(ctx context.Context, itemID string, qty int) error {
	return r.update(ctx, itemID, func(item *catalog.Item) { item.Sold += qty })
}

func (r *InventoryRepository) ItemExists(ctx context.Context, itemID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.items[itemID]
	return ok, nil
}

func (r *InventoryRepository) update(ctx context.Context, itemID string, fn func(*catalog.Item)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	item, ok := r.s.items[itemID]
	if !ok {
		return catalog.NewItemError(itemID, catalog.ErrItemNotFound)
	}
	r.s.touchItem(ctx, itemID)
	fn(item)
	item.UpdatedAt = r.s.now()
	return nil
}
