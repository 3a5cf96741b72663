package seed

import (
	"context"
	"fmt"

	"github.com/foamdesk/foamdesk/internal/model"
	"github.com/foamdesk/foamdesk/internal/store"
)

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

// Run executes the startup seed in an idempotent way. Default settings are written when
// none exist and the starter inventory when the inventory is empty.
func Run(ctx context.Context, st *store.Store) (Stats, error) {
	stats := Stats{}

	err := st.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		if err := ensureSettings(ctx, tx, &stats); err != nil {
			return err
		}
		return ensureInventory(ctx, tx, &stats)
	})
	if err != nil {
		return Stats{}, fmt.Errorf("run seed: %w", err)
	}

	return stats, nil
}

func ensureSettings(ctx context.Context, tx *store.Tx, stats *Stats) error {
	exists, err := tx.Exists(ctx, store.KindSettings, store.SettingsID)
	if err != nil {
		return fmt.Errorf("check settings existence: %w", err)
	}
	if exists {
		return nil
	}

	if err := tx.Put(ctx, store.KindSettings, store.SettingsID, model.DefaultSettings()); err != nil {
		return fmt.Errorf("insert default settings: %w", err)
	}
	stats.Inserts++
	return nil
}

func ensureInventory(ctx context.Context, tx *store.Tx, stats *Stats) error {
	n, err := tx.Count(ctx, store.KindInventory)
	if err != nil {
		return fmt.Errorf("check inventory count: %w", err)
	}
	if n > 0 {
		return nil
	}

	for _, item := range model.InitialInventory() {
		if err := tx.Put(ctx, store.KindInventory, item.ID, item); err != nil {
			return fmt.Errorf("insert inventory item %q: %w", item.Name, err)
		}
		stats.Inserts++
	}
	return nil
}
