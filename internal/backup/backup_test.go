package backup

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/foamdesk/foamdesk/internal/db"
	"github.com/foamdesk/foamdesk/internal/estimator"
	"github.com/foamdesk/foamdesk/internal/migrations"
	"github.com/foamdesk/foamdesk/internal/model"
	"github.com/foamdesk/foamdesk/internal/store"
)

func openStore(t *testing.T, name string) *store.Store {
	t.Helper()

	database, err := db.Open(context.Background(), filepath.Join(t.TempDir(), name))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	if err := migrations.Up(database, nil); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return store.New(database, nil)
}

func populate(t *testing.T, st *store.Store) {
	t.Helper()
	ctx := context.Background()

	customer, err := st.SaveCustomer(ctx, model.Customer{Name: "Dana Whitfield", CompanyName: "Whitfield Barns"})
	if err != nil {
		t.Fatalf("save customer: %v", err)
	}
	if _, err := st.SaveCustomer(ctx, model.Customer{Name: "Luis Ortega"}); err != nil {
		t.Fatalf("save customer: %v", err)
	}

	est, err := model.NewEstimate(model.EstimateDraft{
		CustomerID: customer.ID,
		JobName:    "Pole barn",
		Job:        estimator.DefaultJob(),
		Extras:     estimator.Extras{LaborHours: 6, TripCharge: 75},
	}, model.DefaultSettings().Pricing(), "", "", time.Now())
	if err != nil {
		t.Fatalf("new estimate: %v", err)
	}
	if _, err := st.SaveEstimate(ctx, est); err != nil {
		t.Fatalf("save estimate: %v", err)
	}

	for _, item := range model.InitialInventory() {
		if _, err := st.SaveInventoryItem(ctx, item); err != nil {
			t.Fatalf("save inventory: %v", err)
		}
	}

	settings := model.DefaultSettings()
	settings.CompanyName = "Whitfield Foam"
	if err := st.SaveSettings(ctx, settings); err != nil {
		t.Fatalf("save settings: %v", err)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := openStore(t, "src.db")
	populate(t, src)

	snapshot, err := New(src, nil).Export(ctx)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(snapshot.Customers) != 2 || len(snapshot.Estimates) != 1 || len(snapshot.Inventory) != 5 {
		t.Fatalf("unexpected snapshot sizes: %d/%d/%d", len(snapshot.Customers), len(snapshot.Estimates), len(snapshot.Inventory))
	}
	if snapshot.Settings == nil || snapshot.Timestamp.IsZero() {
		t.Fatalf("expected settings and timestamp in snapshot")
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}

	dst := openStore(t, "dst.db")
	stats, err := New(dst, nil).Import(ctx, payload)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if stats.Customers != 2 || stats.Estimates != 1 || stats.Inventory != 5 || !stats.Settings {
		t.Fatalf("unexpected import stats: %+v", stats)
	}

	again, err := New(dst, nil).Export(ctx)
	if err != nil {
		t.Fatalf("Export after import: %v", err)
	}

	if !sameIDs(customerIDs(snapshot.Customers), customerIDs(again.Customers)) {
		t.Fatalf("customers differ after round trip")
	}
	if again.Estimates[0].ID != snapshot.Estimates[0].ID || again.Estimates[0].Total != snapshot.Estimates[0].Total {
		t.Fatalf("estimate differs after round trip: %+v", again.Estimates[0])
	}
	if len(again.Estimates[0].Items) != len(snapshot.Estimates[0].Items) {
		t.Fatalf("estimate line items differ after round trip")
	}
	if *again.Settings != *snapshot.Settings {
		t.Fatalf("settings differ after round trip: %+v", again.Settings)
	}
	if len(again.Inventory) != len(snapshot.Inventory) {
		t.Fatalf("inventory differs after round trip")
	}
}

func customerIDs(customers []model.Customer) []string {
	ids := make([]string, 0, len(customers))
	for _, c := range customers {
		ids = append(ids, c.ID)
	}
	return ids
}

func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, id := range a {
		seen[id]++
	}
	for _, id := range b {
		seen[id]--
	}
	for _, n := range seen {
		if n != 0 {
			return false
		}
	}
	return true
}

func TestImportMalformedJSONChangesNothing(t *testing.T) {
	ctx := context.Background()
	st := openStore(t, "malformed.db")
	populate(t, st)

	_, err := New(st, nil).Import(ctx, []byte(`{"customers": [`))
	var importErr *ImportError
	if !errors.As(err, &importErr) {
		t.Fatalf("expected *ImportError, got %v", err)
	}

	customers, err := st.ListCustomers(ctx, "")
	if err != nil {
		t.Fatalf("list customers: %v", err)
	}
	if len(customers) != 2 {
		t.Fatalf("expected customers untouched, got %d", len(customers))
	}
}

func TestImportInvalidRecordChangesNothing(t *testing.T) {
	ctx := context.Background()
	st := openStore(t, "invalid.db")
	populate(t, st)

	payload := `{"customers": [{"id": "n1", "name": "New"}], "inventory": [{"id": "x", "name": "Bad", "category": "Toys"}]}`
	_, err := New(st, nil).Import(ctx, []byte(payload))
	var importErr *ImportError
	if !errors.As(err, &importErr) {
		t.Fatalf("expected *ImportError, got %v", err)
	}
	if !errors.Is(err, model.ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory cause, got %v", err)
	}

	customers, _ := st.ListCustomers(ctx, "")
	if len(customers) != 2 {
		t.Fatalf("expected customers untouched, got %d", len(customers))
	}
}

func TestImportLeavesAbsentKeysUntouched(t *testing.T) {
	ctx := context.Background()
	st := openStore(t, "partial.db")
	populate(t, st)

	payload := `{"customers": [{"id": "only", "name": "Only Customer"}], "inventory": null}`
	stats, err := New(st, nil).Import(ctx, []byte(payload))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if stats.Customers != 1 || stats.Estimates != 0 || stats.Settings {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	customers, _ := st.ListCustomers(ctx, "")
	if len(customers) != 1 || customers[0].ID != "only" {
		t.Fatalf("expected customers replaced, got %+v", customers)
	}
	estimates, _ := st.ListEstimates(ctx, "")
	if len(estimates) != 1 {
		t.Fatalf("expected estimates untouched, got %d", len(estimates))
	}
	inventory, _ := st.ListInventory(ctx)
	if len(inventory) != 5 {
		t.Fatalf("expected inventory untouched, got %d", len(inventory))
	}
	settings, _ := st.GetSettings(ctx)
	if settings.CompanyName != "Whitfield Foam" {
		t.Fatalf("expected settings untouched, got %+v", settings)
	}
}

func TestImportEmptyArrayClearsCollection(t *testing.T) {
	ctx := context.Background()
	st := openStore(t, "empty.db")
	populate(t, st)

	if _, err := New(st, nil).Import(ctx, []byte(`{"inventory": []}`)); err != nil {
		t.Fatalf("Import: %v", err)
	}
	inventory, _ := st.ListInventory(ctx)
	if len(inventory) != 0 {
		t.Fatalf("expected inventory cleared, got %d", len(inventory))
	}
}

func TestImportUpgradesLegacyEstimates(t *testing.T) {
	ctx := context.Background()
	st := openStore(t, "legacy.db")

	payload := `{"estimates": [{
		"id": "e1", "number": "EST-12", "customerId": "c1", "date": "2024-02-01T09:00:00.000Z",
		"status": "Work Order", "jobName": "Attic",
		"calcData": {"length": 40, "width": 30, "wallHeight": 9, "roofPitch": 6, "isGable": true,
			"wallFoamType": "Open Cell", "wallThickness": 3.5, "roofFoamType": "Closed Cell", "roofThickness": 2, "wastePct": 10},
		"items": [], "subtotal": 100, "tax": 7.5, "total": 107.5
	}]}`
	stats, err := New(st, nil).Import(ctx, []byte(payload))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if stats.Upgraded != 1 {
		t.Fatalf("expected 1 upgraded estimate, got %d", stats.Upgraded)
	}

	est, err := st.GetEstimate(ctx, "e1")
	if err != nil {
		t.Fatalf("GetEstimate: %v", err)
	}
	if est.CalcData.Mode != estimator.ModeBuilding || est.CalcData.Building == nil {
		t.Fatalf("expected building calcData, got %+v", est.CalcData)
	}
	if est.CalcData.Building.RoofPitch != 6 || est.CalcData.RoofFoam.Type != estimator.ClosedCell {
		t.Fatalf("legacy fields not carried over: %+v", est.CalcData)
	}
	if est.Total != 107.5 {
		t.Fatalf("expected stored totals kept, got %v", est.Total)
	}
}

func TestWriteFileNamesBackupByDate(t *testing.T) {
	ctx := context.Background()
	st := openStore(t, "file.db")
	populate(t, st)

	svc := New(st, nil)
	svc.now = func() time.Time { return time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC) }

	dir := filepath.Join(t.TempDir(), "backups")
	path, err := svc.WriteFile(ctx, dir)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if filepath.Base(path) != "spf_backup_2024-03-09.json" {
		t.Fatalf("unexpected backup name %q", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		t.Fatalf("decode backup: %v", err)
	}
	if len(snapshot.Customers) != 2 {
		t.Fatalf("expected 2 customers in backup, got %d", len(snapshot.Customers))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read backup dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the backup file, got %d entries", len(entries))
	}
}

func TestSchedulerRunWritesBackup(t *testing.T) {
	st := openStore(t, "sched.db")
	dir := t.TempDir()

	sched, err := NewScheduler(New(st, nil), dir, "@every 1h", nil)
	if err != nil {
		t.Fatalf("NewScheduler: %v", err)
	}
	sched.Start()
	sched.run()
	sched.Stop()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read backup dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one backup file, got %d", len(entries))
	}
}

func TestNewSchedulerRejectsBadSchedule(t *testing.T) {
	if _, err := NewScheduler(New(nil, nil), t.TempDir(), "whenever", nil); err == nil {
		t.Fatalf("expected invalid schedule to fail")
	}
}
