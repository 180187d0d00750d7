package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"storefront-be/internal/db"
	"storefront-be/internal/logger"
	"time"

	"go.uber.org/zap"
)

type Repository interface {
	CreateOrder(ctx context.Context, o *Order) error
	GetOrder(ctx context.Context, orderID string) (*Order, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]*Order, error)
	ListBySeller(ctx context.Context, ownerID string) ([]*Order, error)
	// TransitionStatus moves the order from -> to only if it is still in
	// from. It reports whether the row was updated.
	TransitionStatus(ctx context.Context, orderID string, from, to Status, at time.Time) (bool, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

// SelectOrder selects the columns ScanOrder expects from orders aliased o.
const SelectOrder = `
	SELECT
		o.id,
		o.buyer_id,
		o.item_id,
		o.store_id,
		o.quantity,
		o.unit_price,
		o.discount,
		o.total,
		o.status,
		o.order_date,
		o.received_date,
		o.review_rate,
		o.review_comment,
		o.review_date,
		o.seller_feedback,
		o.seller_feedback_date,
		o.updated_at
	FROM orders o
`

func (r *repository) CreateOrder(ctx context.Context, o *Order) error {
	_, err := db.Conn(ctx, r.db).ExecContext(ctx, `
		INSERT INTO orders (
			id, buyer_id, item_id, store_id,
			quantity, unit_price, discount, total,
			status, order_date, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		o.ID,
		o.BuyerID,
		o.ItemID,
		o.StoreID,
		o.Quantity,
		o.UnitPrice,
		o.Discount,
		o.Total,
		o.Status,
		o.OrderDate,
		o.UpdatedAt,
	)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to insert order",
			zap.String("layer", "repository"),
			zap.String("order_id", o.ID),
			zap.String("item_id", o.ItemID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (r *repository) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	row := db.Conn(ctx, r.db).QueryRowContext(ctx, SelectOrder+` WHERE o.id = $1`, orderID)

	o, err := ScanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *repository) ListByBuyer(ctx context.Context, buyerID string) ([]*Order, error) {
	return r.list(ctx, SelectOrder+`
		WHERE o.buyer_id = $1
		ORDER BY o.order_date DESC, o.id
	`, buyerID)
}

func (r *repository) ListBySeller(ctx context.Context, ownerID string) ([]*Order, error) {
	return r.list(ctx, SelectOrder+`
		JOIN stores s ON s.id = o.store_id
		WHERE s.owner_id = $1
		ORDER BY o.order_date DESC, o.id
	`, ownerID)
}

func (r *repository) list(ctx context.Context, query string, args ...any) ([]*Order, error) {
	rows, err := db.Conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to list orders",
			zap.String("layer", "repository"),
			zap.Error(err),
		)
		return nil, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o, err := ScanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *repository) TransitionStatus(ctx context.Context, orderID string, from, to Status, at time.Time) (bool, error) {
	query := `
		UPDATE orders
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	if to == StatusReceived {
		query = `
			UPDATE orders
			SET status = $1, updated_at = $2, received_date = $2
			WHERE id = $3 AND status = $4
		`
	}

	res, err := db.Conn(ctx, r.db).ExecContext(ctx, query, to, at, orderID, from)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// ScanOrder reads one row shaped like SelectOrder. The review package reads
// the same columns.
func ScanOrder(s scanner) (*Order, error) {
	var (
		o            Order
		received     sql.NullTime
		rate         sql.NullInt64
		comment      sql.NullString
		reviewDate   sql.NullTime
		feedback     sql.NullString
		feedbackDate sql.NullTime
	)

	err := s.Scan(
		&o.ID,
		&o.BuyerID,
		&o.ItemID,
		&o.StoreID,
		&o.Quantity,
		&o.UnitPrice,
		&o.Discount,
		&o.Total,
		&o.Status,
		&o.OrderDate,
		&received,
		&rate,
		&comment,
		&reviewDate,
		&feedback,
		&feedbackDate,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if !o.Status.Valid() {
		return nil, fmt.Errorf("order %s has unknown status %q", o.ID, o.Status)
	}

	if received.Valid {
		o.ReceivedDate = &received.Time
	}
	if rate.Valid {
		o.Review = &Review{
			Rate:    int(rate.Int64),
			Comment: comment.String,
			Date:    reviewDate.Time,
		}
		if feedback.Valid {
			o.Review.SellerFeedback = &feedback.String
		}
		if feedbackDate.Valid {
			o.Review.SellerFeedbackDate = &feedbackDate.Time
		}
	}
	return &o, nil
}
