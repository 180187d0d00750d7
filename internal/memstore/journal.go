package memstore

import (
	"context"
	"storefront-be/internal/cart"
	"storefront-be/internal/catalog"
	"storefront-be/internal/order"
)

// journal holds the state each row had before the unit of work first wrote
// it. A nil entry means the row did not exist.
type journal struct {
	items  map[string]*catalog.Item
	carts  map[string]map[string]*cart.Line
	orders map[string]*order.Order
}

func newJournal() *journal {
	return &journal{
		items:  make(map[string]*catalog.Item),
		carts:  make(map[string]map[string]*cart.Line),
		orders: make(map[string]*order.Order),
	}
}

func journalFrom(ctx context.Context) *journal {
	j, _ := ctx.Value(txKey{}).(*journal)
	return j
}

// The touch helpers run with s.mu held for writing.

func (s *Store) touchItem(ctx context.Context, itemID string) {
	j := journalFrom(ctx)
	if j == nil {
		return
	}
	if _, seen := j.items[itemID]; seen {
		return
	}
	var prev *catalog.Item
	if it, ok := s.items[itemID]; ok {
		c := *it
		prev = &c
	}
	j.items[itemID] = prev
}

func (s *Store) touchCart(ctx context.Context, userID string) {
	j := journalFrom(ctx)
	if j == nil {
		return
	}
	if _, seen := j.carts[userID]; seen {
		return
	}
	j.carts[userID] = copyCart(s.carts[userID])
}

func (s *Store) touchOrder(ctx context.Context, orderID string) {
	j := journalFrom(ctx)
	if j == nil {
		return
	}
	if _, seen := j.orders[orderID]; seen {
		return
	}
	var prev *order.Order
	if o, ok := s.orders[orderID]; ok {
		prev = copyOrder(o)
	}
	j.orders[orderID] = prev
}

// rollback puts every journaled row back the way it was.
func (s *Store) rollback(j *journal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, prev := range j.items {
		if prev == nil {
			delete(s.items, id)
			continue
		}
		s.items[id] = prev
	}
	for userID, prev := range j.carts {
		if prev == nil {
			delete(s.carts, userID)
			continue
		}
		s.carts[userID] = prev
	}
	for id, prev := range j.orders {
		if prev == nil {
			delete(s.orders, id)
			continue
		}
		s.orders[id] = prev
	}
}

func copyCart(lines map[string]*cart.Line) map[string]*cart.Line {
	if lines == nil {
		return nil
	}
	out := make(map[string]*cart.Line, len(lines))
	for id, l := range lines {
		c := *l
		out[id] = &c
	}
	return out
}
