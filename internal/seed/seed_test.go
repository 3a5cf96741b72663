package seed

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/foamdesk/foamdesk/internal/db"
	"github.com/foamdesk/foamdesk/internal/migrations"
	"github.com/foamdesk/foamdesk/internal/model"
	"github.com/foamdesk/foamdesk/internal/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "seed-test.db")
	database, err := db.Open(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	if err := migrations.Up(database, nil); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return store.New(database, nil)
}

func TestRunIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)

	for i := 0; i < 10; i++ {
		stats, err := Run(ctx, st)
		if err != nil {
			t.Fatalf("run seed (iteration=%d): %v", i, err)
		}
		if i == 0 {
			if stats.Inserts != 6 {
				t.Fatalf("expected 6 inserts in first run, got %d", stats.Inserts)
			}
			continue
		}
		if stats.Inserts != 0 {
			t.Fatalf("expected 0 inserts in iteration %d, got %d", i, stats.Inserts)
		}
	}

	items, err := st.ListInventory(ctx)
	if err != nil {
		t.Fatalf("list inventory: %v", err)
	}
	if len(items) != len(model.InitialInventory()) {
		t.Fatalf("expected %d inventory items, got %d", len(model.InitialInventory()), len(items))
	}
	if items[0].Name != "Open Cell Foam Set" {
		t.Fatalf("unexpected first item: %+v", items[0])
	}
}

func TestRunKeepsExistingData(t *testing.T) {
	ctx := context.Background()
	st := openStore(t)

	custom := model.DefaultSettings()
	custom.CompanyName = "Ridgeline Foam"
	if err := st.SaveSettings(ctx, custom); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	if _, err := st.SaveInventoryItem(ctx, model.InventoryItem{Name: "Spray Gun", Category: model.CategoryEquipment, Quantity: 1, Unit: "Pcs"}); err != nil {
		t.Fatalf("save inventory item: %v", err)
	}

	stats, err := Run(ctx, st)
	if err != nil {
		t.Fatalf("run seed: %v", err)
	}
	if stats.Inserts != 0 {
		t.Fatalf("expected 0 inserts over existing data, got %d", stats.Inserts)
	}

	settings, err := st.GetSettings(ctx)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if settings.CompanyName != "Ridgeline Foam" {
		t.Fatalf("seed overwrote settings: %+v", settings)
	}
	n, err := st.CountInventory(ctx)
	if err != nil {
		t.Fatalf("count inventory: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 inventory item, got %d", n)
	}
}
