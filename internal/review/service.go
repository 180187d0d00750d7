package review

import (
	"context"
	"storefront-be/internal/catalog"
	"storefront-be/internal/db"
	"storefront-be/internal/logger"
	"storefront-be/internal/order"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Service interface {
	SubmitReview(ctx context.Context, orderID, actorID string, rating int, comment string) (*ItemReview, error)
	AttachSellerFeedback(ctx context.Context, orderID, sellerID, message string) (*ItemReview, error)
	ListReviews(ctx context.Context, itemID string) ([]ItemReview, error)
	// RecomputeRating rebuilds the item rating from every stored review.
	RecomputeRating(ctx context.Context, itemID string) (float64, error)
}

type Option func(*service)

func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

type service struct {
	repo    Repository
	orders  order.Repository
	catalog catalog.Repository
	uow     db.UnitOfWork
	tracer  trace.Tracer
	now     func() time.Time
}

func NewService(
	repo Repository,
	orders order.Repository,
	catalogRepo catalog.Repository,
	uow db.UnitOfWork,
	opts ...Option,
) Service {
	s := &service{
		repo:    repo,
		orders:  orders,
		catalog: catalogRepo,
		uow:     uow,
		tracer:  otel.Tracer("storefront-be/internal/review"),
		now:     time.Now,
	}
	if s.uow == nil {
		s.uow = db.NoopUnitOfWork{}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitReview attaches the buyer's review to a Received order and refreshes
// the item rating in the same unit of work.
func (s *service) SubmitReview(ctx context.Context, orderID, actorID string, rating int, comment string) (*ItemReview, error) {
	ctx, span := s.tracer.Start(ctx, "review.submit",
		trace.WithAttributes(
			attribute.String("order.id", orderID),
			attribute.Int("review.rating", rating),
		),
	)
	defer span.End()

	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "SubmitReview"),
		zap.String("order_id", orderID),
	)

	if actorID == "" {
		return nil, order.ErrUnauthorized
	}
	if rating < MinRating || rating > MaxRating {
		return nil, ErrInvalidRating
	}
	comment = strings.TrimSpace(comment)
	if utf8.RuneCountInString(comment) > MaxCommentLength {
		return nil, ErrCommentTooLong
	}

	var (
		result    *ItemReview
		newRating float64
	)
	err := order.RetryOnce(ctx, "SubmitReview", func() error {
		return s.uow.RunInTx(ctx, func(ctx context.Context) error {
			var err error
			result, newRating, err = s.submit(ctx, orderID, actorID, rating, comment)
			return err
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Info("review rejected", zap.Error(err))
		return nil, err
	}

	log.Info("review submitted",
		zap.String("item_id", result.ItemID),
		zap.Float64("rating", newRating),
	)
	return result, nil
}

func (s *service) submit(ctx context.Context, orderID, actorID string, rating int, comment string) (*ItemReview, float64, error) {
	o, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, 0, err
	}
	if o.BuyerID != actorID {
		return nil, 0, order.ErrForbidden
	}
	if o.Status != order.StatusReceived || o.Review != nil {
		return nil, 0, order.ErrInvalidOrderState
	}

	// Reviews of one item serialize here, so each replay sees every
	// review committed before it.
	if err := s.repo.LockItem(ctx, o.ItemID); err != nil {
		return nil, 0, err
	}

	now := s.now()
	ok, err := s.repo.AttachReview(ctx, o.ID, rating, comment, now)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return nil, 0, order.ErrInvalidOrderState
	}

	newRating, err := s.recompute(ctx, o.ItemID)
	if err != nil {
		return nil, 0, err
	}

	o.Review = &order.Review{Rate: rating, Comment: comment, Date: now}
	r := fromOrder(o)
	return &r, newRating, nil
}

// AttachSellerFeedback lets the owner of the item's store answer a review
// once.
func (s *service) AttachSellerFeedback(ctx context.Context, orderID, sellerID, message string) (*ItemReview, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "AttachSellerFeedback"),
		zap.String("order_id", orderID),
	)

	if sellerID == "" {
		return nil, order.ErrUnauthorized
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyFeedback
	}
	if utf8.RuneCountInString(message) > MaxCommentLength {
		return nil, ErrCommentTooLong
	}

	var result *ItemReview
	err := order.RetryOnce(ctx, "AttachSellerFeedback", func() error {
		return s.uow.RunInTx(ctx, func(ctx context.Context) error {
			var err error
			result, err = s.attachFeedback(ctx, orderID, sellerID, message)
			return err
		})
	})
	if err != nil {
		log.Info("seller feedback rejected", zap.Error(err))
		return nil, err
	}

	log.Info("seller feedback attached")
	return result, nil
}

func (s *service) attachFeedback(ctx context.Context, orderID, sellerID, message string) (*ItemReview, error) {
	o, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	item, err := s.catalog.GetItem(ctx, o.ItemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != sellerID {
		return nil, order.ErrForbidden
	}
	if o.Review == nil || o.Review.SellerFeedback != nil {
		return nil, order.ErrInvalidOrderState
	}

	now := s.now()
	ok, err := s.repo.AttachSellerFeedback(ctx, o.ID, message, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, order.ErrInvalidOrderState
	}

	o.Review.SellerFeedback = &message
	o.Review.SellerFeedbackDate = &now
	r := fromOrder(o)
	return &r, nil
}

func (s *service) ListReviews(ctx context.Context, itemID string) ([]ItemReview, error) {
	orders, err := s.repo.ListReviews(ctx, itemID)
	if err != nil {
		return nil, err
	}

	reviews := make([]ItemReview, 0, len(orders))
	for _, o := range orders {
		reviews = append(reviews, fromOrder(o))
	}
	return reviews, nil
}

func (s *service) RecomputeRating(ctx context.Context, itemID string) (float64, error) {
	ctx, span := s.tracer.Start(ctx, "review.recompute",
		trace.WithAttributes(attribute.String("item.id", itemID)),
	)
	defer span.End()

	var rating float64
	err := order.RetryOnce(ctx, "RecomputeRating", func() error {
		return s.uow.RunInTx(ctx, func(ctx context.Context) error {
			if err := s.repo.LockItem(ctx, itemID); err != nil {
				return err
			}

			var err error
			rating, err = s.recompute(ctx, itemID)
			return err
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	return rating, nil
}

// recompute replays the item's reviews. The caller holds the item lock.
func (s *service) recompute(ctx context.Context, itemID string) (float64, error) {
	sum, count, err := s.repo.RatingStats(ctx, itemID)
	if err != nil {
		return 0, err
	}

	rating := AverageRating(sum, count)
	if err := s.repo.UpdateRating(ctx, itemID, rating); err != nil {
		return 0, err
	}
	return rating, nil
}
