package store

import (
	"context"
	"strings"

	"github.com/foamdesk/foamdesk/internal/model"
)

// ListCustomers returns customers whose name or company name contains query, ignoring
// case. An empty query returns every customer. Matching happens after decoding so the
// query is literal text and case folding covers non-ASCII letters.
func (s *Store) ListCustomers(ctx context.Context, query string) ([]model.Customer, error) {
	records, err := list(ctx, s.db, KindCustomer, "")
	if err != nil {
		return nil, err
	}
	customers, err := decodeAll[model.Customer](KindCustomer, records)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return customers, nil
	}

	matched := make([]model.Customer, 0, len(customers))
	for _, c := range customers {
		if c.Matches(query) {
			matched = append(matched, c)
		}
	}
	return matched, nil
}

// GetCustomer returns the customer with id or ErrNotFound.
func (s *Store) GetCustomer(ctx context.Context, id string) (model.Customer, error) {
	rec, err := get(ctx, s.db, KindCustomer, id)
	if err != nil {
		return model.Customer{}, err
	}
	return decode[model.Customer](KindCustomer, rec)
}

// SaveCustomer inserts or replaces c, assigning an id and creation time when missing.
func (s *Store) SaveCustomer(ctx context.Context, c model.Customer) (model.Customer, error) {
	c = c.Normalize()
	if err := c.Validate(); err != nil {
		return model.Customer{}, err
	}
	if c.ID == "" {
		c.ID = s.newID()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now().UTC()
	}
	if err := put(ctx, s.db, KindCustomer, c.ID, c); err != nil {
		return model.Customer{}, err
	}
	return c, nil
}

// DeleteCustomer removes the customer with id. Their estimates are kept.
func (s *Store) DeleteCustomer(ctx context.Context, id string) error {
	return remove(ctx, s.db, KindCustomer, id)
}
