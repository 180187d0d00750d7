package memstore

import (
	"context"
	"sort"
	"storefront-be/internal/cart"
)

type CartRepository struct {
	s *Store
}

func (r *CartRepository) AddLine(ctx context.Context, userID, itemID string, qty int) (*cart.Line, error) {
	if qty <= 0 {
		return nil, cart.ErrInvalidQuantity
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.touchCart(ctx, userID)
	lines, ok := r.s.carts[userID]
	if !ok {
		lines = make(map[string]*cart.Line)
		r.s.carts[userID] = lines
	}

	now := r.s.now()
	line, ok := lines[itemID]
	if !ok {
		line = &cart.Line{ItemID: itemID, CreatedAt: now}
		lines[itemID] = line
	}
	line.Quantity += qty
	line.UpdatedAt = now

	c := *line
	return &c, nil
}

func (r *CartRepository) GetLine(ctx context.Context, userID, itemID string) (*cart.Line, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	line, ok := r.s.carts[userID][itemID]
	if !ok {
		return nil, nil
	}
	c := *line
	return &c, nil
}

func (r *CartRepository) GetLines(ctx context.Context, userID string) ([]cart.Line, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	lines := make([]cart.Line, 0, len(r.s.carts[userID]))
	for _, l := range r.s.carts[userID] {
		lines = append(lines, *l)
	}
	sort.Slice(lines, func(i, j int) bool {
		if !lines[i].CreatedAt.Equal(lines[j].CreatedAt) {
			return lines[i].CreatedAt.Before(lines[j].CreatedAt)
		}
		return lines[i].ItemID < lines[j].ItemID
	})
	return lines, nil
}

// LockLines needs no row lock here since RunInTx already serializes units of
// work.
func (r *CartRepository) LockLines(ctx context.Context, userID string) ([]cart.Line, error) {
	return r.GetLines(ctx, userID)
}

func (r *CartRepository) SetQuantity(ctx context.Context, userID, itemID string, qty int) (*cart.Line, error) {
	if qty <= 0 {
		return nil, cart.ErrInvalidQuantity
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	line, ok := r.s.carts[userID][itemID]
	if !ok {
		return nil, cart.ErrCartItemNotFound
	}
	r.s.touchCart(ctx, userID)
	line.Quantity = qty
	line.UpdatedAt = r.s.now()

	c := *line
	return &c, nil
}

func (r *CartRepository) RemoveLine(ctx context.Context, userID, itemID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.touchCart(ctx, userID)
	delete(r.s.carts[userID], itemID)
	return nil
}

func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.touchCart(ctx, userID)
	delete(r.s.carts, userID)
	return nil
}
