package inventory

import (
	"context"
	"database/sql"
	"storefront-be/internal/catalog"
	"storefront-be/internal/db"
)

// Repository holds the stock and sold counters of items. Every write is a
// single statement so concurrent callers serialize on the item row.
type Repository interface {
	// DecrementStock subtracts qty only when stock >= qty, in the same
	// statement. It reports whether the row was updated.
	DecrementStock(ctx context.Context, itemID string, qty int) (bool, error)
	IncrementStock(ctx context.Context, itemID string, qty int) error
	IncrementSold(ctx context.Context, itemID string, qty int) error
	ItemExists(ctx context.Context, itemID string) (bool, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) DecrementStock(ctx context.Context, itemID string, qty int) (bool, error) {
	res, err := db.Conn(ctx, r.db).ExecContext(ctx, `
		UPDATE items
		SET stock = stock - $1, updated_at = NOW()
		WHERE id = $2 AND stock >= $1
	`, qty, itemID)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *repository) IncrementStock(ctx context.Context, itemID string, qty int) error {
	return r.increment(ctx, `
		UPDATE items
		SET stock = stock + $1, updated_at = NOW()
		WHERE id = $2
	`, itemID, qty)
}

func (r *repository) IncrementSold(ctx context.Context, itemID string, qty int) error {
	return r.increment(ctx, `
		UPDATE items
		SET sold = sold + $1, updated_at = NOW()
		WHERE id = $2
	`, itemID, qty)
}

func (r *repository) increment(ctx context.Context, query, itemID string, qty int) error {
	res, err := db.Conn(ctx, r.db).ExecContext(ctx, query, qty, itemID)
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

func (r *repository) ItemExists(ctx context.Context, itemID string) (bool, error) {
	var exists bool
	err := db.Conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM items WHERE id = $1)`, itemID,
	).Scan(&exists)
	return exists, err
}
