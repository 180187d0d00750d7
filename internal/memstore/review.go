package memstore

import (
	"context"
	"sort"
	"storefront-be/internal/catalog"
	"storefront-be/internal/order"
	"time"
)

type ReviewRepository struct {
	s *Store
}

// LockItem only checks the item exists. Units of work on this store are
// already serialized.
func (r *ReviewRepository) LockItem(ctx context.Context, itemID string) error {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if _, ok := r.s.items[itemID]; !ok {
		return catalog.NewItemError(itemID, catalog.ErrItemNotFound)
	}
	return nil
}

func (r *ReviewRepository) AttachReview(ctx context.Context, orderID string, rate int, comment string, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[orderID]
	if !ok || o.Status != order.StatusReceived || o.Review != nil {
		return false, nil
	}
	r.s.touchOrder(ctx, orderID)
	o.Review = &order.Review{Rate: rate, Comment: comment, Date: at}
	o.UpdatedAt = at
	return true, nil
}

func (r *ReviewRepository) AttachSellerFeedback(ctx context.Context, orderID, message string, at time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[orderID]
	if !ok || o.Review == nil || o.Review.SellerFeedback != nil {
		return false, nil
	}
	r.s.touchOrder(ctx, orderID)
	msg, d := message, at
	o.Review.SellerFeedback = &msg
	o.Review.SellerFeedbackDate = &d
	o.UpdatedAt = at
	return true, nil
}

func (r *ReviewRepository) RatingStats(ctx context.Context, itemID string) (int, int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sum, count := 0, 0
	for _, o := range r.s.orders {
		if o.ItemID == itemID && o.Review != nil {
			sum += o.Review.Rate
			count++
		}
	}
	return sum, count, nil
}

func (r *ReviewRepository) UpdateRating(ctx context.Context, itemID string, rating float64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	item, ok := r.s.items[itemID]
	if !ok {
		return catalog.NewItemError(itemID, catalog.ErrItemNotFound)
	}
	r.s.touchItem(ctx, itemID)
	item.Rating = rating
	item.UpdatedAt = r.s.now()
	return nil
}

// ListReviews returns reviewed orders of the item, newest review first.
func (r *ReviewRepository) ListReviews(ctx context.Context, itemID string) ([]*order.Order, error) {
	out := r.s.filterOrders(func(o *order.Order) bool {
		return o.ItemID == itemID && o.Review != nil
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Review.Date.After(out[j].Review.Date)
	})
	return out, nil
}
