package memstore

import (
	"context"
	"fmt"
	"storefront-be/internal/order"
	"time"
)

type OrderRepository struct {
	s *Store
}

func (r *OrderRepository) CreateOrder(ctx context.Context, o *order.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.orders[o.ID]; exists {
		return fmt.Errorf("order %s already exists", o.ID)
	}
	r.s.touchOrder(ctx, o.ID)
	r.s.orders[o.ID] = copyOrder(o)
	return nil
}

func (r *OrderRepository) GetOrder(ctx context.Context, orderID string) (*order.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	o, ok := r.s.orders[orderID]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return copyOrder(o), nil
}

func (r *OrderRepository) ListByBuyer(ctx context.Context, buyerID string) ([]*order.Order, error) {
	return r.s.filterOrders(func(o *order.Order) bool { return o.BuyerID == buyerID }), nil
}

func (r *OrderRepository) ListBySeller(ctx context.Context, ownerID string) ([]*order.Order, error) {
	return r.s.filterOrders(func(o *order.Order) bool {
		st, ok := r.s.stores[o.StoreID]
		return ok && st.OwnerID == ownerID
	}), nil
}

func (r *OrderRepository) TransitionStatus(ctx context.Context, orderID string, from, to order.Status, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[orderID]
	if !ok || o.Status != from {
		return false, nil
	}
	r.s.touchOrder(ctx, orderID)
	o.Status = to
	o.UpdatedAt = at
	if to == order.StatusReceived {
		d := at
		o.ReceivedDate = &d
	}
	return true, nil
}

// filterOrders returns copies of the matching orders, newest first.
func (s *Store) filterOrders(keep func(*order.Order) bool) []*order.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*order.Order
	for _, o := range s.orders {
		if keep(o) {
			out = append(out, copyOrder(o))
		}
	}
	sortNewestFirst(out)
	return out
}
