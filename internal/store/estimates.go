package store

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/foamdesk/foamdesk/internal/model"
)

func (s *Store) decodeEstimate(rec record) (model.Estimate, error) {
	if err := checkVersion(KindEstimate, rec); err != nil {
		return model.Estimate{}, err
	}
	est, upgraded, err := model.DecodeEstimate(rec.body)
	if err != nil {
		return model.Estimate{}, fmt.Errorf("decode estimate %s: %w", rec.id, err)
	}
	if upgraded {
		s.logger.Info("upgraded legacy estimate record",
			zap.String("id", rec.id),
			zap.Int("schema_version", rec.version),
		)
	}
	return est, nil
}

func (s *Store) decodeEstimates(records []record) ([]model.Estimate, error) {
	out := make([]model.Estimate, 0, len(records))
	for _, rec := range records {
		est, err := s.decodeEstimate(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, est)
	}
	return out, nil
}

// ListEstimates returns estimates with the given status, or all of them when status is empty.
func (s *Store) ListEstimates(ctx context.Context, status model.JobStatus) ([]model.Estimate, error) {
	records, err := list(ctx, s.db, KindEstimate,
		`? = '' OR json_extract(body, '$.status') = ?`, string(status), string(status))
	if err != nil {
		return nil, err
	}
	return s.decodeEstimates(records)
}

// EstimatesForCustomer returns every estimate written for customerID.
func (s *Store) EstimatesForCustomer(ctx context.Context, customerID string) ([]model.Estimate, error) {
	records, err := list(ctx, s.db, KindEstimate, `json_extract(body, '$.customerId') = ?`, customerID)
	if err != nil {
		return nil, err
	}
	return s.decodeEstimates(records)
}

// GetEstimate returns the estimate with id or ErrNotFound.
func (s *Store) GetEstimate(ctx context.Context, id string) (model.Estimate, error) {
	rec, err := get(ctx, s.db, KindEstimate, id)
	if err != nil {
		return model.Estimate{}, err
	}
	return s.decodeEstimate(rec)
}

// SaveEstimate inserts or replaces est, assigning an id when missing.
func (s *Store) SaveEstimate(ctx context.Context, est model.Estimate) (model.Estimate, error) {
	if est.ID == "" {
		est.ID = s.newID()
	}
	if est.Number == "" {
		est.Number = model.NewEstimateNumber()
	}
	if est.Date.IsZero() {
		est.Date = s.now().UTC()
	}
	if err := put(ctx, s.db, KindEstimate, est.ID, est); err != nil {
		return model.Estimate{}, err
	}
	return est, nil
}

// UpdateEstimateStatus moves the estimate with id to status. Any transition is allowed.
func (s *Store) UpdateEstimateStatus(ctx context.Context, id string, status model.JobStatus) (model.Estimate, error) {
	if !status.Valid() {
		return model.Estimate{}, fmt.Errorf("%w: %q", model.ErrInvalidStatus, status)
	}

	var est model.Estimate
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		rec, err := get(ctx, tx, KindEstimate, id)
		if err != nil {
			return err
		}
		if est, err = s.decodeEstimate(rec); err != nil {
			return err
		}
		est.Status = status
		return put(ctx, tx, KindEstimate, est.ID, est)
	})
	if err != nil {
		return model.Estimate{}, err
	}
	return est, nil
}

// DeleteEstimate removes the estimate with id.
func (s *Store) DeleteEstimate(ctx context.Context, id string) error {
	return remove(ctx, s.db, KindEstimate, id)
}
