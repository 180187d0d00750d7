package review

import (
	"context"
	"database/sql"
	"errors"
	"storefront-be/internal/catalog"
	"storefront-be/internal/db"
	"storefront-be/internal/logger"
	"storefront-be/internal/order"
	"time"

	"go.uber.org/zap"
)

type Repository interface {
	// LockItem takes the item's row lock for the rest of the unit of work.
	LockItem(ctx context.Context, itemID string) error
	// AttachReview stores the review only on a Received order that has
	// none yet, and reports whether it did.
	AttachReview(ctx context.Context, orderID string, rate int, comment string, at time.Time) (bool, error)
	// AttachSellerFeedback stores the feedback only on a reviewed order
	// without feedback, and reports whether it did.
	AttachSellerFeedback(ctx context.Context, orderID, message string, at time.Time) (bool, error)
	RatingStats(ctx context.Context, itemID string) (sum int, count int, err error)
	UpdateRating(ctx context.Context, itemID string, rating float64) error
	ListReviews(ctx context.Context, itemID string) ([]*order.Order, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) LockItem(ctx context.Context, itemID string) error {
	var id string
	err := db.Conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT id FROM items WHERE id = $1 FOR UPDATE`, itemID,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.NewItemError(itemID, catalog.ErrItemNotFound)
	}
	return err
}

func (r *repository) AttachReview(ctx context.Context, orderID string, rate int, comment string, at time.Time) (bool, error) {
	return r.exec(ctx, `
		UPDATE orders
		SET review_rate = $1, review_comment = $2, review_date = $3, updated_at = $3
		WHERE id = $4 AND status = 'Received' AND review_rate IS NULL
	`, rate, comment, at, orderID)
}

func (r *repository) AttachSellerFeedback(ctx context.Context, orderID, message string, at time.Time) (bool, error) {
	return r.exec(ctx, `
		UPDATE orders
		SET seller_feedback = $1, seller_feedback_date = $2, updated_at = $2
		WHERE id = $3 AND review_rate IS NOT NULL AND seller_feedback IS NULL
	`, message, at, orderID)
}

func (r *repository) exec(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := db.Conn(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *repository) RatingStats(ctx context.Context, itemID string) (int, int, error) {
	var sum, count int
	err := db.Conn(ctx, r.db).QueryRowContext(ctx, `
		SELECT COALESCE(SUM(review_rate), 0), COUNT(review_rate)
		FROM orders
		WHERE item_id = $1 AND review_rate IS NOT NULL
	`, itemID).Scan(&sum, &count)
	return sum, count, err
}

func (r *repository) UpdateRating(ctx context.Context, itemID string, rating float64) error {
	res, err := db.Conn(ctx, r.db).ExecContext(ctx, `
		UPDATE items
		SET rating = $1, updated_at = NOW()
		WHERE id = $2
	`, rating, itemID)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return catalog.NewItemError(itemID, catalog.ErrItemNotFound)
	}
	return nil
}

func (r *repository) ListReviews(ctx context.Context, itemID string) ([]*order.Order, error) {
	rows, err := db.Conn(ctx, r.db).QueryContext(ctx, order.SelectOrder+`
		WHERE o.item_id = $1 AND o.review_rate IS NOT NULL
		ORDER BY o.review_date DESC, o.id
	`, itemID)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to list reviews",
			zap.String("layer", "repository"),
			zap.String("item_id", itemID),
			zap.Error(err),
		)
		return nil, err
	}
	defer rows.Close()

	var orders []*order.Order
	for rows.Next() {
		o, err := order.ScanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
