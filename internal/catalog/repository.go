package catalog

import (
	"context"
	"database/sql"
	"errors"
	"storefront-be/internal/db"
	"storefront-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Repository is the read-only catalog surface the order engine consumes.
type Repository interface {
	GetItem(ctx context.Context, itemID string) (*Item, error)
	GetItems(ctx context.Context, itemIDs []string) (map[string]*Item, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const selectItem = `
	SELECT
		i.id,
		i.store_id,
		s.owner_id,
		i.name,
		i.price,
		i.discount,
		i.stock,
		i.sold,
		i.rating,
		i.active,
		i.created_at,
		i.updated_at
	FROM items i
	JOIN stores s ON s.id = i.store_id
`

func (r *repository) GetItem(ctx context.Context, itemID string) (*Item, error) {
	row := db.Conn(ctx, r.db).QueryRowContext(ctx, selectItem+` WHERE i.id = $1`, itemID)

	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NewItemError(itemID, ErrItemNotFound)
	}
	if err != nil {
		logger.FromCtx(ctx).Error("failed to get item",
			zap.String("layer", "repository"),
			zap.String("item_id", itemID),
			zap.Error(err),
		)
		return nil, err
	}

	return item, nil
}

// GetItems loads the given items in one query. Missing ids are simply absent
// from the result.
func (r *repository) GetItems(ctx context.Context, itemIDs []string) (map[string]*Item, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "GetItems"),
		zap.Int("item_count", len(itemIDs)),
	)

	items := make(map[string]*Item, len(itemIDs))
	if len(itemIDs) == 0 {
		return items, nil
	}

	rows, err := db.Conn(ctx, r.db).QueryContext(ctx, selectItem+` WHERE i.id = ANY($1)`, pq.Array(itemIDs))
	if err != nil {
		log.Error("failed to query items", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			log.Error("failed to scan item row", zap.Error(err))
			return nil, err
		}
		items[item.ID] = item
	}

	if err := rows.Err(); err != nil {
		log.Error("rows iteration error", zap.Error(err))
		return nil, err
	}

	return items, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (*Item, error) {
	var it Item
	err := s.Scan(
		&it.ID,
		&it.StoreID,
		&it.OwnerID,
		&it.Name,
		&it.Price,
		&it.Discount,
		&it.Stock,
		&it.Sold,
		&it.Rating,
		&it.Active,
		&it.CreatedAt,
		&it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &it, nil
}
