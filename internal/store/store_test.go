package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/foamdesk/foamdesk/internal/db"
	"github.com/foamdesk/foamdesk/internal/estimator"
	"github.com/foamdesk/foamdesk/internal/migrations"
	"github.com/foamdesk/foamdesk/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	database, err := db.Open(context.Background(), filepath.Join(t.TempDir(), "store-test.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	if err := migrations.Up(database, nil); err != nil {
		t.Fatalf("run migrations: %v", err)
	}

	return New(database, nil)
}

func TestCustomersSaveListSearchDelete(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	dana, err := st.SaveCustomer(ctx, model.Customer{Name: "  Dana Whitfield ", CompanyName: "Whitfield Barns"})
	if err != nil {
		t.Fatalf("SaveCustomer: %v", err)
	}
	if dana.ID == "" || dana.CreatedAt.IsZero() {
		t.Fatalf("expected id and createdAt to be assigned: %+v", dana)
	}
	if dana.Name != "Dana Whitfield" {
		t.Fatalf("expected trimmed name, got %q", dana.Name)
	}
	if _, err := st.SaveCustomer(ctx, model.Customer{Name: "Luis Ortega"}); err != nil {
		t.Fatalf("SaveCustomer: %v", err)
	}
	if _, err := st.SaveCustomer(ctx, model.Customer{Name: "Mae Park", CompanyName: "Acme Storage"}); err != nil {
		t.Fatalf("SaveCustomer: %v", err)
	}

	all, err := st.ListCustomers(ctx, "")
	if err != nil {
		t.Fatalf("ListCustomers: %v", err)
	}
	if len(all) != 3 || all[0].Name != "Dana Whitfield" || all[2].Name != "Mae Park" {
		t.Fatalf("expected 3 customers in insertion order, got %+v", all)
	}

	byCompany, err := st.ListCustomers(ctx, "ACME")
	if err != nil {
		t.Fatalf("ListCustomers: %v", err)
	}
	if len(byCompany) != 1 || byCompany[0].Name != "Mae Park" {
		t.Fatalf("expected company match, got %+v", byCompany)
	}

	byName, err := st.ListCustomers(ctx, "ort")
	if err != nil {
		t.Fatalf("ListCustomers: %v", err)
	}
	if len(byName) != 1 || byName[0].Name != "Luis Ortega" {
		t.Fatalf("expected name match, got %+v", byName)
	}

	dana.Phone = "555-0100"
	if _, err := st.SaveCustomer(ctx, dana); err != nil {
		t.Fatalf("update customer: %v", err)
	}
	got, err := st.GetCustomer(ctx, dana.ID)
	if err != nil {
		t.Fatalf("GetCustomer: %v", err)
	}
	if got.Phone != "555-0100" || !got.CreatedAt.Equal(dana.CreatedAt) {
		t.Fatalf("unexpected updated customer: %+v", got)
	}

	all, _ = st.ListCustomers(ctx, "")
	if all[0].ID != dana.ID {
		t.Fatalf("upsert should keep position, got %+v", all)
	}

	if err := st.DeleteCustomer(ctx, dana.ID); err != nil {
		t.Fatalf("DeleteCustomer: %v", err)
	}
	if _, err := st.GetCustomer(ctx, dana.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := st.DeleteCustomer(ctx, dana.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestListCustomersTreatsQueryAsText(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	for _, c := range []model.Customer{
		{Name: "Élodie Martin"},
		{Name: "Ben Ross", CompanyName: "100% Foam"},
		{Name: "Sam Lee"},
	} {
		if _, err := st.SaveCustomer(ctx, c); err != nil {
			t.Fatalf("SaveCustomer: %v", err)
		}
	}

	cases := []struct {
		query string
		want  int
	}{
		{"_", 0},
		{"%", 1},
		{"100%", 1},
		{"ÉLODIE", 1},
		{"élodie", 1},
		{"  ", 3},
	}
	for _, tc := range cases {
		got, err := st.ListCustomers(ctx, tc.query)
		if err != nil {
			t.Fatalf("ListCustomers(%q): %v", tc.query, err)
		}
		if len(got) != tc.want {
			t.Fatalf("ListCustomers(%q) returned %d customers, want %d", tc.query, len(got), tc.want)
		}
	}
}

func TestSaveCustomerRequiresName(t *testing.T) {
	st := newTestStore(t)
	if _, err := st.SaveCustomer(context.Background(), model.Customer{Email: "x@example.com"}); !errors.Is(err, model.ErrNameRequired) {
		t.Fatalf("expected ErrNameRequired, got %v", err)
	}
}

func saveTestEstimate(t *testing.T, st *Store, customerID string, status model.JobStatus) model.Estimate {
	t.Helper()

	est, err := model.NewEstimate(model.EstimateDraft{
		CustomerID: customerID,
		Status:     status,
		Job:        estimator.DefaultJob(),
		Extras:     estimator.Extras{LaborHours: 4},
	}, model.DefaultSettings().Pricing(), "", "", time.Now())
	if err != nil {
		t.Fatalf("NewEstimate: %v", err)
	}
	saved, err := st.SaveEstimate(context.Background(), est)
	if err != nil {
		t.Fatalf("SaveEstimate: %v", err)
	}
	return saved
}

func TestEstimatesListFilterAndStatus(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	first := saveTestEstimate(t, st, "c1", model.StatusDraft)
	saveTestEstimate(t, st, "c2", model.StatusWorkOrder)
	saveTestEstimate(t, st, "c1", model.StatusPaid)

	if first.ID == "" || first.Number == "" {
		t.Fatalf("expected id and number to be assigned: %+v", first)
	}

	all, err := st.ListEstimates(ctx, "")
	if err != nil {
		t.Fatalf("ListEstimates: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 estimates, got %d", len(all))
	}

	drafts, err := st.ListEstimates(ctx, model.StatusDraft)
	if err != nil {
		t.Fatalf("ListEstimates: %v", err)
	}
	if len(drafts) != 1 || drafts[0].ID != first.ID {
		t.Fatalf("expected only the draft, got %+v", drafts)
	}

	forC1, err := st.EstimatesForCustomer(ctx, "c1")
	if err != nil {
		t.Fatalf("EstimatesForCustomer: %v", err)
	}
	if len(forC1) != 2 {
		t.Fatalf("expected 2 estimates for c1, got %d", len(forC1))
	}

	updated, err := st.UpdateEstimateStatus(ctx, first.ID, model.StatusInvoiced)
	if err != nil {
		t.Fatalf("UpdateEstimateStatus: %v", err)
	}
	if updated.Status != model.StatusInvoiced || updated.Total != first.Total {
		t.Fatalf("unexpected updated estimate: %+v", updated)
	}

	if _, err := st.UpdateEstimateStatus(ctx, first.ID, "Shipped"); !errors.Is(err, model.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	if _, err := st.UpdateEstimateStatus(ctx, "missing", model.StatusPaid); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLegacyEstimateRowIsUpgradedOnRead(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	_, err := st.db.Exec(`INSERT INTO records (kind, id, schema_version, body) VALUES ('estimate', 'old', 1, ?)`, `{
		"id": "old", "number": "EST-7", "customerId": "c1", "date": "2023-11-05T10:00:00.000Z",
		"status": "Draft", "jobName": "Shop",
		"calcData": {"length": 30, "width": 20, "wallHeight": 10, "roofPitch": 0, "isGable": false,
			"wallFoamType": "Closed Cell", "wallThickness": 2, "roofFoamType": "Open Cell", "roofThickness": 5.5, "wastePct": 5},
		"items": [], "subtotal": 0, "tax": 0, "total": 0
	}`)
	if err != nil {
		t.Fatalf("insert legacy row: %v", err)
	}

	est, err := st.GetEstimate(ctx, "old")
	if err != nil {
		t.Fatalf("GetEstimate: %v", err)
	}
	if est.CalcData.Mode != estimator.ModeBuilding || est.CalcData.Building.WallHeight != 10 {
		t.Fatalf("expected upgraded building calcData, got %+v", est.CalcData)
	}
}

func TestNewerSchemaIsRejected(t *testing.T) {
	st := newTestStore(t)

	if _, err := st.db.Exec(`INSERT INTO records (kind, id, schema_version, body) VALUES ('customer', 'future', 99, '{"id":"future","name":"X"}')`); err != nil {
		t.Fatalf("insert future row: %v", err)
	}

	if _, err := st.GetCustomer(context.Background(), "future"); !errors.Is(err, ErrUnsupportedSchema) {
		t.Fatalf("expected ErrUnsupportedSchema, got %v", err)
	}
}

func TestAdjustInventoryNeverNegative(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	item, err := st.SaveInventoryItem(ctx, model.InventoryItem{Name: "Mask Filters", Category: model.CategorySupply, Quantity: 2, Unit: "Pairs", MinLevel: 5})
	if err != nil {
		t.Fatalf("SaveInventoryItem: %v", err)
	}

	adjusted, err := st.AdjustInventory(ctx, item.ID, 1)
	if err != nil {
		t.Fatalf("AdjustInventory: %v", err)
	}
	if adjusted.Quantity != 3 {
		t.Fatalf("quantity = %v, want 3", adjusted.Quantity)
	}

	adjusted, err = st.AdjustInventory(ctx, item.ID, -10)
	if err != nil {
		t.Fatalf("AdjustInventory: %v", err)
	}
	if adjusted.Quantity != 0 {
		t.Fatalf("quantity = %v, want 0", adjusted.Quantity)
	}

	stored, err := st.GetInventoryItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetInventoryItem: %v", err)
	}
	if stored.Quantity != 0 {
		t.Fatalf("stored quantity = %v, want 0", stored.Quantity)
	}

	if _, err := st.AdjustInventory(ctx, "missing", 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSettingsDefaultAndSave(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	settings, err := st.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if settings != model.DefaultSettings() {
		t.Fatalf("expected factory defaults, got %+v", settings)
	}

	settings.CompanyName = "Northside Insulation"
	settings.TaxRate = 6
	if err := st.SaveSettings(ctx, settings); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}

	got, err := st.GetSettings(ctx)
	if err != nil {
		t.Fatalf("GetSettings: %v", err)
	}
	if got.CompanyName != "Northside Insulation" || got.TaxRate != 6 {
		t.Fatalf("unexpected settings: %+v", got)
	}

	settings.OpenCellYield = 0
	if err := st.SaveSettings(ctx, settings); err == nil {
		t.Fatalf("expected validation error for zero yield")
	}
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	if _, err := st.GetSession(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before login, got %v", err)
	}
	if err := st.SaveSession(ctx, model.Session{Username: "sam", Company: "Sam's Foam", IsAuthenticated: true}); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	session, err := st.GetSession(ctx)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if session.Username != "sam" || !session.IsAuthenticated {
		t.Fatalf("unexpected session: %+v", session)
	}
	if err := st.DeleteSession(ctx); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if err := st.DeleteSession(ctx); err != nil {
		t.Fatalf("DeleteSession twice: %v", err)
	}
}

func TestClearKeepsSettingsAndSession(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	if _, err := st.SaveCustomer(ctx, model.Customer{Name: "Dana"}); err != nil {
		t.Fatalf("SaveCustomer: %v", err)
	}
	saveTestEstimate(t, st, "c1", model.StatusDraft)
	if _, err := st.SaveInventoryItem(ctx, model.InventoryItem{Name: "Tape", Category: model.CategorySupply}); err != nil {
		t.Fatalf("SaveInventoryItem: %v", err)
	}
	custom := model.DefaultSettings()
	custom.CompanyName = "Kept Co"
	if err := st.SaveSettings(ctx, custom); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	if err := st.SaveSession(ctx, model.Session{Username: "sam"}); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	if err := st.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	customers, _ := st.ListCustomers(ctx, "")
	estimates, _ := st.ListEstimates(ctx, "")
	inventory, _ := st.ListInventory(ctx)
	if len(customers) != 0 || len(estimates) != 0 || len(inventory) != 0 {
		t.Fatalf("expected collections to be empty, got %d/%d/%d", len(customers), len(estimates), len(inventory))
	}
	settings, _ := st.GetSettings(ctx)
	if settings.CompanyName != "Kept Co" {
		t.Fatalf("settings should survive Clear, got %+v", settings)
	}
	if _, err := st.GetSession(ctx); err != nil {
		t.Fatalf("session should survive Clear: %v", err)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	boom := errors.New("boom")
	err := st.WithTx(ctx, func(ctx context.Context, tx *Tx) error {
		if err := tx.Put(ctx, KindCustomer, "tx1", model.Customer{ID: "tx1", Name: "Ghost"}); err != nil {
			return err
		}
		exists, err := tx.Exists(ctx, KindCustomer, "tx1")
		if err != nil || !exists {
			t.Fatalf("expected record visible inside tx, exists=%v err=%v", exists, err)
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	if _, err := st.GetCustomer(ctx, "tx1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected rollback, got %v", err)
	}
}
