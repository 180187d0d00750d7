package cart

import (
	"context"
	"database/sql"
	"errors"
	"storefront-be/internal/db"
	"storefront-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	// AddLine merges qty into the user's line for itemID, creating it if needed.
	AddLine(ctx context.Context, userID, itemID string, qty int) (*Line, error)
	GetLine(ctx context.Context, userID, itemID string) (*Line, error)
	GetLines(ctx context.Context, userID string) ([]Line, error)
	// LockLines reads the lines like GetLines and holds their row locks for
	// the rest of the unit of work.
	LockLines(ctx context.Context, userID string) ([]Line, error)
	SetQuantity(ctx context.Context, userID, itemID string, qty int) (*Line, error)
	RemoveLine(ctx context.Context, userID, itemID string) error
	Clear(ctx context.Context, userID string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) AddLine(ctx context.Context, userID, itemID string, qty int) (*Line, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "AddLine"),
		zap.String("user_id", userID),
		zap.String("item_id", itemID),
	)

	query := `
	INSERT INTO cart_lines (user_id, item_id, quantity)
	VALUES ($1, $2, $3)
	ON CONFLICT (user_id, item_id)
	DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity,
	              updated_at = NOW()
	RETURNING item_id, quantity, created_at, updated_at
	`

	var l Line
	err := db.Conn(ctx, r.db).QueryRowContext(ctx, query, userID, itemID, qty).
		Scan(&l.ItemID, &l.Quantity, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		log.Error("failed to upsert cart line", zap.Error(err))
		return nil, err
	}

	log.Debug("cart line merged", zap.Int("quantity", l.Quantity))
	return &l, nil
}

func (r *repository) GetLine(ctx context.Context, userID, itemID string) (*Line, error) {
	var l Line
	err := db.Conn(ctx, r.db).QueryRowContext(ctx, `
	SELECT item_id, quantity, created_at, updated_at
	FROM cart_lines
	WHERE user_id = $1 AND item_id = $2
	`, userID, itemID).Scan(&l.ItemID, &l.Quantity, &l.CreatedAt, &l.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

const selectLines = `
	SELECT item_id, quantity, created_at, updated_at
	FROM cart_lines
	WHERE user_id = $1
	ORDER BY created_at ASC, item_id ASC
	`

func (r *repository) GetLines(ctx context.Context, userID string) ([]Line, error) {
	return r.queryLines(ctx, selectLines, userID)
}

func (r *repository) LockLines(ctx context.Context, userID string) ([]Line, error) {
	return r.queryLines(ctx, selectLines+"FOR UPDATE", userID)
}

func (r *repository) queryLines(ctx context.Context, query, userID string) ([]Line, error) {
	rows, err := db.Conn(ctx, r.db).QueryContext(ctx, query, userID)
	if err != nil {
		logger.FromCtx(ctx).Error("failed to query cart lines", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	lines := []Line{}
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ItemID, &l.Quantity, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}

	return lines, rows.Err()
}

func (r *repository) SetQuantity(ctx context.Context, userID, itemID string, qty int) (*Line, error) {
	if qty <= 0 {
		return nil, ErrInvalidQuantity
	}

	var l Line
	err := db.Conn(ctx, r.db).QueryRowContext(ctx, `
	UPDATE cart_lines
	SET quantity = $1, updated_at = NOW()
	WHERE user_id = $2 AND item_id = $3
	RETURNING item_id, quantity, created_at, updated_at
	`, qty, userID, itemID).Scan(&l.ItemID, &l.Quantity, &l.CreatedAt, &l.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCartItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// RemoveLine is idempotent: removing an absent line is not an error.
func (r *repository) RemoveLine(ctx context.Context, userID, itemID string) error {
	_, err := db.Conn(ctx, r.db).ExecContext(ctx, `
	DELETE FROM cart_lines
	WHERE user_id = $1 AND item_id = $2
	`, userID, itemID)
	return err
}

// Clear empties the cart; the cart itself is keyed by user and never deleted.
func (r *repository) Clear(ctx context.Context, userID string) error {
	_, err := db.Conn(ctx, r.db).ExecContext(ctx, `DELETE FROM cart_lines WHERE user_id = $1`, userID)
	return err
}
