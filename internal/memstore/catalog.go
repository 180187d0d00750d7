package memstore

import (
	"context"
	"storefront-be/internal/catalog"
)

type CatalogRepository struct {
	s *Store
}

func (r *CatalogRepository) GetItem(ctx context.Context, itemID string) (*catalog.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	item, ok := r.s.items[itemID]
	if !ok {
		return nil, catalog.NewItemError(itemID, catalog.ErrItemNotFound)
	}
	c := *item
	return &c, nil
}

func (r *CatalogRepository) GetItems(ctx context.Context, itemIDs []string) (map[string]*catalog.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	items := make(map[string]*catalog.Item, len(itemIDs))
	for _, id := range itemIDs {
		if item, ok := r.s.items[id]; ok {
			c := *item
			items[id] = &c
		}
	}
	return items, nil
}
