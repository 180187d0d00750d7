package order

import (
	"context"
	"errors"
	"fmt"
	"storefront-be/internal/catalog"
	"storefront-be/internal/inventory"
	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"
	"storefront-be/internal/notify"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Checkout turns the request's lines into Pending orders. Either every line
// is reserved and ordered, or stock is left exactly as it was.
func (s *service) Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	ctx, span := s.tracer.Start(ctx, "order.checkout",
		trace.WithAttributes(
			attribute.String("checkout.source", string(req.Source)),
			attribute.Int("checkout.lines", len(req.Lines)),
		),
	)
	defer span.End()

	timer := metrics.StartTimer()
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Checkout"),
		zap.String("source", string(req.Source)),
	)

	result, err := s.checkout(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if IsDomainError(err) {
			s.stats.RecordConflict()
			log.Info("checkout rejected", zap.Error(err))
		} else {
			s.stats.RecordFailure()
			log.Error("checkout failed", zap.Error(err))
		}
		return nil, err
	}

	if result.Replayed {
		s.stats.RecordReplay()
		log.Info("checkout replayed", zap.Strings("order_ids", result.OrderIDs()))
		return result, nil
	}

	s.stats.RecordSuccess(len(result.Orders), timer)
	log.Info("checkout completed", zap.Strings("order_ids", result.OrderIDs()))
	return result, nil
}

func (s *service) checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if req.BuyerID == "" {
		return nil, ErrUnauthorized
	}
	if req.Source != SourceCart && req.Source != SourceDirect {
		return nil, ErrInvalidSource
	}

	key := ""
	if req.IdempotencyKey != "" && s.idem != nil {
		key = req.BuyerID + ":" + req.IdempotencyKey

		claimed, ids, err := s.idem.Claim(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("%w: claim idempotency key: %w", ErrPersistence, err)
		}
		if !claimed {
			return s.replay(ctx, ids)
		}
	}

	orders, items, err := s.checkoutWithRetry(ctx, req)
	if err != nil {
		if key != "" {
			if relErr := s.idem.Release(ctx, key); relErr != nil {
				logger.FromCtx(ctx).Warn("failed to release idempotency key",
					zap.String("layer", "service"),
					zap.Error(relErr),
				)
			}
		}
		return nil, err
	}

	result := &CheckoutResult{Orders: orders}
	if key != "" {
		if err := s.idem.Complete(ctx, key, result.OrderIDs()); err != nil {
			logger.FromCtx(ctx).Warn("failed to record idempotency key",
				zap.String("layer", "service"),
				zap.Error(err),
			)
		}
	}

	s.notifyBuyer(ctx, req.BuyerEmail, orders, items)
	return result, nil
}

func (s *service) replay(ctx context.Context, ids []string) (*CheckoutResult, error) {
	if len(ids) == 0 {
		return nil, ErrCheckoutInProgress
	}

	orders := make([]*Order, 0, len(ids))
	for _, id := range ids {
		o, err := s.repo.GetOrder(ctx, id)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return &CheckoutResult{Orders: orders, Replayed: true}, nil
}

// checkoutWithRetry runs the unit of work again once when it failed for a
// reason other than a domain rule.
func (s *service) checkoutWithRetry(ctx context.Context, req CheckoutRequest) ([]*Order, map[string]*catalog.Item, error) {
	var (
		orders []*Order
		items  map[string]*catalog.Item
	)
	err := retryOnce(ctx, "Checkout", func() error {
		var err error
		orders, items, err = s.checkoutOnce(ctx, req)
		return err
	}, s.stats.RecordRetry)
	if err != nil {
		return nil, nil, err
	}
	return orders, items, nil
}

// checkoutOnce reads the cart inside the unit of work, so two checkouts of
// the same cart cannot both order its lines.
func (s *service) checkoutOnce(ctx context.Context, req CheckoutRequest) ([]*Order, map[string]*catalog.Item, error) {
	var (
		orders []*Order
		items  map[string]*catalog.Item
	)
	err := s.uow.RunInTx(ctx, func(ctx context.Context) error {
		orders = orders[:0]

		lines, err := s.resolveLines(ctx, req)
		if err != nil {
			return err
		}
		items, err = s.resolveItems(ctx, lines)
		if err != nil {
			return err
		}

		reserved := make([]Line, 0, len(lines))
		for _, l := range lines {
			if err := s.inventory.Reserve(ctx, l.ItemID, l.Quantity); err != nil {
				s.releaseAll(ctx, reserved)
				return err
			}
			reserved = append(reserved, l)
		}

		now := s.now()
		for _, l := range lines {
			item := items[l.ItemID]
			o := &Order{
				ID:        s.newID(),
				BuyerID:   req.BuyerID,
				ItemID:    item.ID,
				StoreID:   item.StoreID,
				Quantity:  l.Quantity,
				UnitPrice: item.Price,
				Discount:  item.Discount,
				Total:     catalog.LineTotal(item.Price, item.Discount, l.Quantity),
				Status:    StatusPending,
				OrderDate: now,
				UpdatedAt: now,
			}
			if err := s.repo.CreateOrder(ctx, o); err != nil {
				s.releaseAll(ctx, reserved)
				return err
			}
			orders = append(orders, o)
		}

		if req.Source == SourceCart {
			if err := s.carts.Clear(ctx, req.BuyerID); err != nil {
				s.releaseAll(ctx, reserved)
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return orders, items, nil
}

// resolveLines returns the lines to buy with duplicate items merged, in the
// order each item first appeared.
func (s *service) resolveLines(ctx context.Context, req CheckoutRequest) ([]Line, error) {
	var raw []Line
	switch req.Source {
	case SourceCart:
		cartLines, err := s.carts.LockLines(ctx, req.BuyerID)
		if err != nil {
			return nil, err
		}
		for _, cl := range cartLines {
			raw = append(raw, Line{ItemID: cl.ItemID, Quantity: cl.Quantity})
		}
	case SourceDirect:
		raw = req.Lines
	}

	if len(raw) == 0 {
		return nil, ErrEmptyCheckout
	}

	merged := make([]Line, 0, len(raw))
	index := make(map[string]int, len(raw))
	for _, l := range raw {
		if !inventory.ValidQuantity(l.Quantity) {
			return nil, ErrInvalidQuantity
		}
		if l.ItemID == "" {
			return nil, catalog.NewItemError(l.ItemID, catalog.ErrItemNotFound)
		}
		if i, ok := index[l.ItemID]; ok {
			if l.Quantity > inventory.MaxQuantity-merged[i].Quantity {
				return nil, ErrInvalidQuantity
			}
			merged[i].Quantity += l.Quantity
			continue
		}
		index[l.ItemID] = len(merged)
		merged = append(merged, l)
	}
	return merged, nil
}

// resolveItems loads current price, discount and store for every line.
// Prices supplied by the client are never used.
func (s *service) resolveItems(ctx context.Context, lines []Line) (map[string]*catalog.Item, error) {
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ItemID)
	}

	items, err := s.catalog.GetItems(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, l := range lines {
		item, ok := items[l.ItemID]
		if !ok {
			return nil, catalog.NewItemError(l.ItemID, catalog.ErrItemNotFound)
		}
		if !item.Active {
			return nil, catalog.NewItemError(l.ItemID, catalog.ErrItemInactive)
		}
	}
	return items, nil
}

// releaseAll gives back stock taken earlier in the same unit of work. A
// failure here is logged only: the caller is already returning an error and
// a transactional store rolls the reservations back anyway.
func (s *service) releaseAll(ctx context.Context, lines []Line) {
	for _, l := range lines {
		if err := s.inventory.Release(ctx, l.ItemID, l.Quantity); err != nil {
			logger.FromCtx(ctx).Error("failed to release reservation",
				zap.String("layer", "service"),
				zap.String("item_id", l.ItemID),
				zap.Int("quantity", l.Quantity),
				zap.Error(err),
			)
		}
	}
}

func (s *service) notifyBuyer(ctx context.Context, email string, orders []*Order, items map[string]*catalog.Item) {
	if s.dispatcher == nil || email == "" {
		return
	}

	var b strings.Builder
	var total float64
	for _, o := range orders {
		name, unit := o.ItemID, o.UnitPrice
		if item, ok := items[o.ItemID]; ok {
			name, unit = item.Name, item.UnitPrice()
		}
		fmt.Fprintf(&b, "Order %s: %d x %s at %.2f, %.2f\n", o.ID, o.Quantity, name, unit, o.Total)
		total += o.Total
	}
	fmt.Fprintf(&b, "Total: %.2f\n", total)

	s.dispatcher.Dispatch(ctx, notify.Message{
		To:      email,
		Subject: "Your order has been placed",
		Body:    b.String(),
	})
}

var domainErrors = []error{
	catalog.ErrItemNotFound,
	catalog.ErrItemInactive,
	catalog.ErrInsufficientStock,
	inventory.ErrInvalidQuantity,
	ErrOrderNotFound,
	ErrUnauthorized,
	ErrForbidden,
	ErrInvalidOrderState,
	ErrInvalidSource,
	ErrEmptyCheckout,
	ErrInvalidQuantity,
	ErrCheckoutInProgress,
}

// IsDomainError reports whether err is a business rule rejection rather
// than an infrastructure failure.
func IsDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
