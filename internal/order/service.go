package order

import (
	"context"
	"storefront-be/internal/cart"
	"storefront-be/internal/catalog"
	"storefront-be/internal/db"
	"storefront-be/internal/inventory"
	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"
	"storefront-be/internal/notify"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Service interface {
	Checkout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error)
	CancelOrder(ctx context.Context, orderID, actorID string) (*Order, error)
	ConfirmReceived(ctx context.Context, orderID, actorID string) (*Order, error)
	MarkProcessing(ctx context.Context, orderID, sellerID string) (*Order, error)
	MarkShipped(ctx context.Context, orderID, sellerID string) (*Order, error)
	GetOrder(ctx context.Context, orderID, actorID string) (*Order, error)
	ListOrders(ctx context.Context, buyerID string) ([]*Order, error)
	ListStoreOrders(ctx context.Context, sellerID string) ([]*Order, error)
}

// Dispatcher hands a notification off without waiting for delivery.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg notify.Message)
}

// IdempotencyStore remembers which orders a checkout key produced.
type IdempotencyStore interface {
	// Claim reserves key for a new checkout. When the key is already taken
	// it returns claimed=false with the recorded order ids, or no ids while
	// the first checkout is still running.
	Claim(ctx context.Context, key string) (claimed bool, orderIDs []string, err error)
	Complete(ctx context.Context, key string, orderIDs []string) error
	Release(ctx context.Context, key string) error
}

type Dependencies struct {
	Orders     Repository
	Catalog    catalog.Repository
	Inventory  inventory.Ledger
	Carts      cart.Repository
	UnitOfWork db.UnitOfWork

	// Optional.
	Dispatcher  Dispatcher
	Idempotency IdempotencyStore
	Stats       *metrics.CheckoutStats
}

type Option func(*service)

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *service) { s.newID = newID }
}

func WithTracer(t trace.Tracer) Option {
	return func(s *service) { s.tracer = t }
}

type service struct {
	repo       Repository
	catalog    catalog.Repository
	inventory  inventory.Ledger
	carts      cart.Repository
	uow        db.UnitOfWork
	dispatcher Dispatcher
	idem       IdempotencyStore
	stats      *metrics.CheckoutStats
	tracer     trace.Tracer
	now        func() time.Time
	newID      func() string
}

func NewService(deps Dependencies, opts ...Option) Service {
	s := &service{
		repo:       deps.Orders,
		catalog:    deps.Catalog,
		inventory:  deps.Inventory,
		carts:      deps.Carts,
		uow:        deps.UnitOfWork,
		dispatcher: deps.Dispatcher,
		idem:       deps.Idempotency,
		stats:      deps.Stats,
		tracer:     otel.Tracer("storefront-be/internal/order"),
		now:        time.Now,
		newID:      uuid.NewString,
	}
	if s.uow == nil {
		s.uow = db.NoopUnitOfWork{}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CancelOrder cancels a Pending or Processing order for its buyer and puts
// the quantity back into stock.
func (s *service) CancelOrder(ctx context.Context, orderID, actorID string) (*Order, error) {
	return s.transition(ctx, "CancelOrder", orderID, actorID, StatusCanceled, s.requireBuyer,
		func(ctx context.Context, o *Order) error {
			return s.inventory.Release(ctx, o.ItemID, o.Quantity)
		})
}

// ConfirmReceived marks a Shipped order as Received and counts the sale.
func (s *service) ConfirmReceived(ctx context.Context, orderID, actorID string) (*Order, error) {
	return s.transition(ctx, "ConfirmReceived", orderID, actorID, StatusReceived, s.requireBuyer,
		func(ctx context.Context, o *Order) error {
			return s.inventory.ConfirmSale(ctx, o.ItemID, o.Quantity)
		})
}

func (s *service) MarkProcessing(ctx context.Context, orderID, sellerID string) (*Order, error) {
	return s.transition(ctx, "MarkProcessing", orderID, sellerID, StatusProcessing, s.requireSeller, nil)
}

func (s *service) MarkShipped(ctx context.Context, orderID, sellerID string) (*Order, error) {
	return s.transition(ctx, "MarkShipped", orderID, sellerID, StatusShipped, s.requireSeller, nil)
}

type authorizer func(ctx context.Context, o *Order, actorID string) error

type sideEffect func(ctx context.Context, o *Order) error

// transition applies one lifecycle edge. The status write only succeeds if
// the order is still in the status that was read, so of two racing
// transitions at most one wins.
func (s *service) transition(
	ctx context.Context,
	method string,
	orderID string,
	actorID string,
	to Status,
	authorize authorizer,
	effect sideEffect,
) (*Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.transition",
		trace.WithAttributes(
			attribute.String("order.id", orderID),
			attribute.String("order.to", string(to)),
		),
	)
	defer span.End()

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", method),
		zap.String("order_id", orderID),
	)

	if actorID == "" {
		return nil, ErrUnauthorized
	}

	var updated *Order
	err := RetryOnce(ctx, method, func() error {
		return s.uow.RunInTx(ctx, func(ctx context.Context) error {
			var err error
			updated, err = s.transitionOnce(ctx, orderID, actorID, to, authorize, effect, log)
			return err
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	log.Info("order status changed", zap.String("status", string(to)))
	return updated, nil
}

func (s *service) transitionOnce(
	ctx context.Context,
	orderID string,
	actorID string,
	to Status,
	authorize authorizer,
	effect sideEffect,
	log *zap.Logger,
) (*Order, error) {
	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, o, actorID); err != nil {
		return nil, err
	}

	from := o.Status
	if IsTerminal(from) {
		log.Info("order is final", zap.String("status", string(from)))
		return nil, ErrInvalidOrderState
	}
	if !CanTransition(from, to) {
		log.Info("illegal transition",
			zap.String("from", string(from)),
			zap.String("to", string(to)),
		)
		return nil, ErrInvalidOrderState
	}

	now := s.now()
	ok, err := s.repo.TransitionStatus(ctx, o.ID, from, to, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		log.Info("order changed concurrently", zap.String("from", string(from)))
		return nil, ErrInvalidOrderState
	}

	if effect != nil {
		if err := effect(ctx, o); err != nil {
			return nil, err
		}
	}

	o.Status = to
	o.UpdatedAt = now
	if to == StatusReceived {
		o.ReceivedDate = &now
	}
	return o, nil
}

func (s *service) requireBuyer(_ context.Context, o *Order, actorID string) error {
	if o.BuyerID != actorID {
		return ErrForbidden
	}
	return nil
}

func (s *service) requireSeller(ctx context.Context, o *Order, actorID string) error {
	item, err := s.catalog.GetItem(ctx, o.ItemID)
	if err != nil {
		return err
	}
	if item.OwnerID != actorID {
		return ErrForbidden
	}
	return nil
}

// GetOrder returns the order to its buyer or to the owner of the item's
// store.
func (s *service) GetOrder(ctx context.Context, orderID, actorID string) (*Order, error) {
	if actorID == "" {
		return nil, ErrUnauthorized
	}

	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.BuyerID == actorID {
		return o, nil
	}
	if err := s.requireSeller(ctx, o, actorID); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *service) ListOrders(ctx context.Context, buyerID string) ([]*Order, error) {
	if buyerID == "" {
		return nil, ErrUnauthorized
	}
	return s.repo.ListByBuyer(ctx, buyerID)
}

func (s *service) ListStoreOrders(ctx context.Context, sellerID string) ([]*Order, error) {
	if sellerID == "" {
		return nil, ErrUnauthorized
	}
	return s.repo.ListBySeller(ctx, sellerID)
}
