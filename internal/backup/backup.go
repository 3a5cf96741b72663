// Package backup exports the whole store as one JSON snapshot and restores it.
package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/foamdesk/foamdesk/internal/metrics"
	"github.com/foamdesk/foamdesk/internal/model"
	"github.com/foamdesk/foamdesk/internal/store"
)

// Snapshot is the portable form of every collection.
type Snapshot struct {
	Customers []model.Customer      `json:"customers"`
	Estimates []model.Estimate      `json:"estimates"`
	Inventory []model.InventoryItem `json:"inventory"`
	Settings  *model.Settings       `json:"settings"`
	Timestamp time.Time             `json:"timestamp"`
}

// ImportError reports why a payload was rejected. Nothing is written when it is returned.
type ImportError struct {
	Reason string
	Err    error
}

func (e *ImportError) Error() string {
	if e.Err == nil {
		return "import rejected: " + e.Reason
	}
	return fmt.Sprintf("import rejected: %s: %v", e.Reason, e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

// ImportStats counts the records written per collection.
type ImportStats struct {
	Customers int  `json:"customers"`
	Estimates int  `json:"estimates"`
	Inventory int  `json:"inventory"`
	Settings  bool `json:"settings"`
	Upgraded  int  `json:"upgraded"`
}

// Service exports and imports store snapshots.
type Service struct {
	store  *store.Store
	logger *zap.Logger
	now    func() time.Time
}

// New returns a Service over st.
func New(st *store.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: st, logger: logger, now: time.Now}
}

// Export reads every collection into a snapshot stamped with the current time.
func (s *Service) Export(ctx context.Context) (Snapshot, error) {
	customers, err := s.store.ListCustomers(ctx, "")
	if err != nil {
		return Snapshot{}, fmt.Errorf("export customers: %w", err)
	}
	estimates, err := s.store.ListEstimates(ctx, "")
	if err != nil {
		return Snapshot{}, fmt.Errorf("export estimates: %w", err)
	}
	inventory, err := s.store.ListInventory(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("export inventory: %w", err)
	}
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("export settings: %w", err)
	}

	return Snapshot{
		Customers: customers,
		Estimates: estimates,
		Inventory: inventory,
		Settings:  &settings,
		Timestamp: s.now().UTC(),
	}, nil
}

// importPayload keeps estimates raw so older calcData shapes can be upgraded.
type importPayload struct {
	Customers []model.Customer      `json:"customers"`
	Estimates []json.RawMessage     `json:"estimates"`
	Inventory []model.InventoryItem `json:"inventory"`
	Settings  *model.Settings       `json:"settings"`
}

// Import replaces each collection present in payload. Keys that are absent or null
// leave their collection untouched. The whole import is one transaction: a payload
// that fails to parse or validate changes nothing and yields an *ImportError.
func (s *Service) Import(ctx context.Context, payload []byte) (stats ImportStats, err error) {
	defer func() {
		metrics.Imports.WithLabelValues(metrics.Result(err)).Inc()
	}()

	var p importPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return ImportStats{}, &ImportError{Reason: "malformed JSON", Err: err}
	}

	estimates, upgraded, err := decodeEstimates(p.Estimates)
	if err != nil {
		return ImportStats{}, err
	}
	if err := validate(p, estimates); err != nil {
		return ImportStats{}, err
	}

	err = s.store.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		if p.Customers != nil {
			if err := replace(ctx, tx, store.KindCustomer, p.Customers, func(c model.Customer) string { return c.ID }); err != nil {
				return err
			}
			stats.Customers = len(p.Customers)
		}
		if estimates != nil {
			if err := replace(ctx, tx, store.KindEstimate, estimates, func(e model.Estimate) string { return e.ID }); err != nil {
				return err
			}
			stats.Estimates = len(estimates)
			stats.Upgraded = upgraded
		}
		if p.Inventory != nil {
			if err := replace(ctx, tx, store.KindInventory, p.Inventory, func(i model.InventoryItem) string { return i.ID }); err != nil {
				return err
			}
			stats.Inventory = len(p.Inventory)
		}
		if p.Settings != nil {
			if err := tx.Put(ctx, store.KindSettings, store.SettingsID, *p.Settings); err != nil {
				return err
			}
			stats.Settings = true
		}
		return nil
	})
	if err != nil {
		return ImportStats{}, fmt.Errorf("import: %w", err)
	}

	s.logger.Info("data imported",
		zap.Int("customers", stats.Customers),
		zap.Int("estimates", stats.Estimates),
		zap.Int("inventory", stats.Inventory),
		zap.Bool("settings", stats.Settings),
		zap.Int("upgraded", stats.Upgraded),
	)
	return stats, nil
}

func decodeEstimates(raw []json.RawMessage) ([]model.Estimate, int, error) {
	if raw == nil {
		return nil, 0, nil
	}
	estimates := make([]model.Estimate, 0, len(raw))
	upgraded := 0
	for i, data := range raw {
		est, up, err := model.DecodeEstimate(data)
		if err != nil {
			return nil, 0, &ImportError{Reason: fmt.Sprintf("estimates[%d]", i), Err: err}
		}
		if up {
			upgraded++
		}
		estimates = append(estimates, est)
	}
	return estimates, upgraded, nil
}

func validate(p importPayload, estimates []model.Estimate) error {
	for i, c := range p.Customers {
		if c.ID == "" {
			return &ImportError{Reason: fmt.Sprintf("customers[%d]", i), Err: errMissingID}
		}
		if err := c.Validate(); err != nil {
			return &ImportError{Reason: fmt.Sprintf("customers[%d]", i), Err: err}
		}
	}
	for i, e := range estimates {
		if e.ID == "" {
			return &ImportError{Reason: fmt.Sprintf("estimates[%d]", i), Err: errMissingID}
		}
		if !e.Status.Valid() {
			return &ImportError{Reason: fmt.Sprintf("estimates[%d]", i), Err: fmt.Errorf("%w: %q", model.ErrInvalidStatus, e.Status)}
		}
	}
	for i, item := range p.Inventory {
		if item.ID == "" {
			return &ImportError{Reason: fmt.Sprintf("inventory[%d]", i), Err: errMissingID}
		}
		if err := item.Validate(); err != nil {
			return &ImportError{Reason: fmt.Sprintf("inventory[%d]", i), Err: err}
		}
	}
	if p.Settings != nil {
		if err := p.Settings.Validate(); err != nil {
			return &ImportError{Reason: "settings", Err: err}
		}
	}
	return nil
}

var errMissingID = errors.New("id is required")

func replace[T any](ctx context.Context, tx *store.Tx, kind store.Kind, records []T, id func(T) string) error {
	if err := tx.Truncate(ctx, kind); err != nil {
		return err
	}
	for _, rec := range records {
		if err := tx.Put(ctx, kind, id(rec), rec); err != nil {
			return err
		}
	}
	return nil
}

// FileName is the backup file name for a snapshot taken at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("spf_backup_%s.json", t.UTC().Format(time.DateOnly))
}

// WriteFile exports the store into dir and returns the written path. A backup taken
// the same day replaces the earlier one.
func (s *Service) WriteFile(ctx context.Context, dir string) (string, error) {
	snapshot, err := s.Export(ctx)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snapshot); err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	path := filepath.Join(dir, FileName(snapshot.Timestamp))
	tmp, err := os.CreateTemp(dir, ".spf_backup_*.tmp")
	if err != nil {
		return "", fmt.Errorf("create backup file: %w", err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write backup file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close backup file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("rename backup file: %w", err)
	}

	return path, nil
}
