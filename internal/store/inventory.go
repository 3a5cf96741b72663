package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/foamdesk/foamdesk/internal/model"
)

// ListInventory returns every inventory item.
func (s *Store) ListInventory(ctx context.Context) ([]model.InventoryItem, error) {
	records, err := list(ctx, s.db, KindInventory, "")
	if err != nil {
		return nil, err
	}
	return decodeAll[model.InventoryItem](KindInventory, records)
}

// GetInventoryItem returns the item with id or ErrNotFound.
func (s *Store) GetInventoryItem(ctx context.Context, id string) (model.InventoryItem, error) {
	rec, err := get(ctx, s.db, KindInventory, id)
	if err != nil {
		return model.InventoryItem{}, err
	}
	return decode[model.InventoryItem](KindInventory, rec)
}

// SaveInventoryItem inserts or replaces item, assigning an id when missing.
func (s *Store) SaveInventoryItem(ctx context.Context, item model.InventoryItem) (model.InventoryItem, error) {
	if err := item.Validate(); err != nil {
		return model.InventoryItem{}, err
	}
	if item.ID == "" {
		item.ID = s.newID()
	}
	if err := put(ctx, s.db, KindInventory, item.ID, item); err != nil {
		return model.InventoryItem{}, err
	}
	return item, nil
}

// AdjustInventory adds delta to the item's quantity, never going below zero.
func (s *Store) AdjustInventory(ctx context.Context, id string, delta float64) (model.InventoryItem, error) {
	var item model.InventoryItem
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		rec, err := get(ctx, tx, KindInventory, id)
		if err != nil {
			return err
		}
		current, err := decode[model.InventoryItem](KindInventory, rec)
		if err != nil {
			return err
		}
		item = current.Adjust(delta)
		return put(ctx, tx, KindInventory, item.ID, item)
	})
	if err != nil {
		return model.InventoryItem{}, err
	}
	return item, nil
}

// DeleteInventoryItem removes the item with id.
func (s *Store) DeleteInventoryItem(ctx context.Context, id string) error {
	return remove(ctx, s.db, KindInventory, id)
}

// CountInventory returns the number of stored inventory items.
func (s *Store) CountInventory(ctx context.Context) (int, error) {
	return count(ctx, s.db, KindInventory)
}

func count(ctx context.Context, q querier, kind Kind) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE kind = ?`, string(kind)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s records: %w", kind, err)
	}
	return n, nil
}
