package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ashfall-games/wasteland/internal/game/shop"
	"github.com/ashfall-games/wasteland/internal/gamerr"
)

// ShopRepository persists the shop catalog as JSONB documents.
type ShopRepository struct {
	db *pgxpool.Pool
}

// NewShopRepository creates a ShopRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewShopRepository(db *pgxpool.Pool) *ShopRepository {
	return &ShopRepository{db: db}
}

// Get retrieves one catalog item.
//
// Postcondition: Returns the item or a gamerr.ErrNotFound-wrapped error.
func (r *ShopRepository) Get(ctx context.Context, id string) (*shop.Item, error) {
	var doc []byte
	err := r.db.QueryRow(ctx, `SELECT doc FROM shop_items WHERE id = $1`, id).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("shop item %q: %w", id, gamerr.ErrNotFound)
		}
		return nil, fmt.Errorf("querying shop item: %w", err)
	}
	return decodeItem(doc)
}

// List returns the whole catalog in id order.
func (r *ShopRepository) List(ctx context.Context) ([]*shop.Item, error) {
	rows, err := r.db.Query(ctx, `SELECT doc FROM shop_items ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing shop items: %w", err)
	}
	defer rows.Close()

	items := make([]*shop.Item, 0)
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scanning shop item row: %w", err)
		}
		item, err := decodeItem(doc)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Put inserts or replaces the catalog item keyed by its id.
//
// Precondition: item.ID must be non-empty.
func (r *ShopRepository) Put(ctx context.Context, item *shop.Item) error {
	if item.ID == "" {
		return fmt.Errorf("shop item id required: %w", gamerr.ErrValidation)
	}
	doc, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encoding shop item: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO shop_items (id, doc, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET doc = $2, updated_at = NOW()`,
		item.ID, doc,
	)
	if err != nil {
		return fmt.Errorf("upserting shop item: %w", err)
	}
	return nil
}

// Delete removes the catalog item. Unknown ids are a no-op.
func (r *ShopRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM shop_items WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting shop item: %w", err)
	}
	return nil
}

func decodeItem(doc []byte) (*shop.Item, error) {
	var item shop.Item
	if err := json.Unmarshal(doc, &item); err != nil {
		return nil, fmt.Errorf("decoding shop item: %w", err)
	}
	return &item, nil
}
