package joinmap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Record is a stored override.
type Record struct {
	Key       string    `json:"key"`
	Body      string    `json:"body"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SQLiteStore persists overrides in the join_map_overrides table. Keys are
// stored lower-cased so lookups ignore case.
//
// Thread Safety:
//   - All methods are safe for concurrent use; database/sql serialises access.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore creates a store on an open, migrated connection.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// Override implements Source.
func (s *SQLiteStore) Override(ctx context.Context, key string) (string, bool, error) {
	rec, err := s.Get(ctx, key)
	if errors.Is(err, ErrOverrideNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return rec.Body, true, nil
}

// Get returns the override stored for key.
// Returns ErrOverrideNotFound if there is none.
func (s *SQLiteStore) Get(ctx context.Context, key string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT key, body, updated_at FROM join_map_overrides WHERE key = ?`,
		normaliseKey(key),
	)

	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrOverrideNotFound, key)
		}
		return nil, fmt.Errorf("querying override: %w", err)
	}
	return rec, nil
}

// Put validates body and stores it, replacing any previous override.
// Returns ErrOverrideInvalid without writing if body does not parse.
func (s *SQLiteStore) Put(ctx context.Context, key, body string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: empty key", ErrOverrideInvalid)
	}
	if _, err := Parse(body); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO join_map_overrides (key, body, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		normaliseKey(key),
		body,
		s.now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("storing override: %w", err)
	}
	return nil
}

// Delete removes the override for key.
// Returns ErrOverrideNotFound if there is none.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM join_map_overrides WHERE key = ?`,
		normaliseKey(key),
	)
	if err != nil {
		return fmt.Errorf("deleting override: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrOverrideNotFound, key)
	}
	return nil
}

// List returns every stored override ordered by key.
func (s *SQLiteStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, body, updated_at FROM join_map_overrides ORDER BY key`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying overrides: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning override row: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating overrides: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var rec Record
	var updatedAt string
	if err := row.Scan(&rec.Key, &rec.Body, &updatedAt); err != nil {
		return nil, err
	}
	rec.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is written by Put
	return &rec, nil
}

func normaliseKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
