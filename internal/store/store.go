// Package store persists every entity as a versioned JSON record in one SQLite table,
// addressed by kind and id.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnsupportedSchema is returned for records written by a newer schema than this build knows.
	ErrUnsupportedSchema = errors.New("unsupported record schema version")
)

// Kind names a record collection.
type Kind string

const (
	KindCustomer  Kind = "customer"
	KindEstimate  Kind = "estimate"
	KindInventory Kind = "inventory"
	KindSettings  Kind = "settings"
	KindSession   Kind = "session"
)

// schemaVersions is the version written for each kind. Estimates moved to v2 when
// calcData gained an explicit geometry mode.
var schemaVersions = map[Kind]int{
	KindCustomer:  1,
	KindEstimate:  2,
	KindInventory: 1,
	KindSettings:  1,
	KindSession:   1,
}

// SettingsID and SessionID are the fixed ids of the singleton records.
const (
	SettingsID = "default"
	SessionID  = "current"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the record store for customers, estimates, inventory, settings and the session.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// New returns a Store backed by db, which must already be migrated.
func New(db *sql.DB, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		db:     db,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

type record struct {
	id      string
	version int
	body    []byte
}

func put(ctx context.Context, q querier, kind Kind, id string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", kind, id, err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO records (kind, id, schema_version, body)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(kind, id) DO UPDATE SET
			schema_version = excluded.schema_version,
			body = excluded.body,
			updated_at = CURRENT_TIMESTAMP
	`, string(kind), id, schemaVersions[kind], string(body))
	if err != nil {
		return fmt.Errorf("upsert %s %s: %w", kind, id, err)
	}
	return nil
}

func get(ctx context.Context, q querier, kind Kind, id string) (record, error) {
	rec := record{id: id}
	var body string
	err := q.QueryRowContext(ctx, `
		SELECT schema_version, body
		FROM records
		WHERE kind = ? AND id = ?
	`, string(kind), id).Scan(&rec.version, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return record{}, ErrNotFound
	}
	if err != nil {
		return record{}, fmt.Errorf("query %s %s: %w", kind, id, err)
	}
	rec.body = []byte(body)
	return rec, nil
}

// list returns the records of kind in insertion order. filter is an optional SQL
// predicate over body appended with AND.
func list(ctx context.Context, q querier, kind Kind, filter string, args ...any) ([]record, error) {
	query := `SELECT id, schema_version, body FROM records WHERE kind = ?`
	if filter != "" {
		query += ` AND (` + filter + `)`
	}
	query += ` ORDER BY rowid`

	rows, err := q.QueryContext(ctx, query, append([]any{string(kind)}, args...)...)
	if err != nil {
		return nil, fmt.Errorf("query %s records: %w", kind, err)
	}
	defer rows.Close()

	records := make([]record, 0)
	for rows.Next() {
		var rec record
		var body string
		if err := rows.Scan(&rec.id, &rec.version, &body); err != nil {
			return nil, fmt.Errorf("scan %s record: %w", kind, err)
		}
		rec.body = []byte(body)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s records: %w", kind, err)
	}
	return records, nil
}

func remove(ctx context.Context, q querier, kind Kind, id string) error {
	result, err := q.ExecContext(ctx, `DELETE FROM records WHERE kind = ? AND id = ?`, string(kind), id)
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func removeKind(ctx context.Context, q querier, kind Kind) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM records WHERE kind = ?`, string(kind)); err != nil {
		return fmt.Errorf("delete %s records: %w", kind, err)
	}
	return nil
}

func checkVersion(kind Kind, rec record) error {
	if rec.version > schemaVersions[kind] {
		return fmt.Errorf("%w: %s %s has version %d, newest known is %d", ErrUnsupportedSchema, kind, rec.id, rec.version, schemaVersions[kind])
	}
	return nil
}

func decode[T any](kind Kind, rec record) (T, error) {
	var v T
	if err := checkVersion(kind, rec); err != nil {
		return v, err
	}
	if err := json.Unmarshal(rec.body, &v); err != nil {
		return v, fmt.Errorf("decode %s %s: %w", kind, rec.id, err)
	}
	return v, nil
}

func decodeAll[T any](kind Kind, records []record) ([]T, error) {
	out := make([]T, 0, len(records))
	for _, rec := range records {
		v, err := decode[T](kind, rec)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// inTx runs fn inside a transaction, rolling back when fn fails.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Clear removes customers, estimates and inventory. Settings and the session are kept.
func (s *Store) Clear(ctx context.Context) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, kind := range []Kind{KindCustomer, KindEstimate, KindInventory} {
			if err := removeKind(ctx, tx, kind); err != nil {
				return err
			}
		}
		return nil
	})
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
