package store

import (
	"context"
	"database/sql"
	"errors"
)

// Tx is a unit of work over several collections. Nothing it writes is visible until
// the function passed to WithTx returns nil.
type Tx struct {
	tx *sql.Tx
}

// WithTx runs fn in one transaction and rolls everything back if fn fails.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, tx *Tx) error) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return fn(ctx, &Tx{tx: tx})
	})
}

// Put inserts or replaces one record.
func (t *Tx) Put(ctx context.Context, kind Kind, id string, v any) error {
	return put(ctx, t.tx, kind, id, v)
}

// Exists reports whether a record is stored under kind and id.
func (t *Tx) Exists(ctx context.Context, kind Kind, id string) (bool, error) {
	_, err := get(ctx, t.tx, kind, id)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Count returns the number of records of kind.
func (t *Tx) Count(ctx context.Context, kind Kind) (int, error) {
	return count(ctx, t.tx, kind)
}

// Truncate removes every record of kind.
func (t *Tx) Truncate(ctx context.Context, kind Kind) error {
	return removeKind(ctx, t.tx, kind)
}
