package dashboard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SQLStore keeps dashboards in a MySQL-compatible table:
//
//	dashboard (name VARCHAR(200) PRIMARY KEY, body LONGBLOB, updated_at DATETIME)
type SQLStore struct {
	db *sqlx.DB
}

// Schema creates the dashboard table when it is missing.
const Schema = `CREATE TABLE IF NOT EXISTS dashboard (
	name       VARCHAR(200) NOT NULL PRIMARY KEY,
	body       LONGBLOB     NOT NULL,
	updated_at DATETIME     NOT NULL
)`

// NewSQLStore wraps db.  The caller owns the pool.
func NewSQLStore(db *sqlx.DB) *SQLStore { return &SQLStore{db: db} }

// EnsureSchema runs Schema.  cmd/web calls it once at startup.
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("dashboard schema: %w", err)
	}
	return nil
}

// Names returns every dashboard name, sorted.
func (s *SQLStore) Names(ctx context.Context) ([]string, error) {
	const q = `SELECT name FROM dashboard ORDER BY name`
	names := make([]string, 0, 16)
	if err := s.db.SelectContext(ctx, &names, q); err != nil {
		return nil, err
	}
	return names, nil
}

// Exists runs one indexed lookup.
func (s *SQLStore) Exists(ctx context.Context, name string) (bool, error) {
	if err := ValidateName(name); err != nil {
		return false, err
	}
	const q = `SELECT 1 FROM dashboard WHERE name = ? LIMIT 1`
	var one int
	err := s.db.GetContext(ctx, &one, q, name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Load returns the stored body.
func (s *SQLStore) Load(ctx context.Context, name string) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	const q = `SELECT body FROM dashboard WHERE name = ?`
	var body []byte
	err := s.db.GetContext(ctx, &body, q, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return body, err
}

// Save upserts the row.
func (s *SQLStore) Save(ctx context.Context, name string, body []byte) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	const q = `INSERT INTO dashboard (name, body, updated_at) VALUES (?, ?, NOW())
	           ON DUPLICATE KEY UPDATE body = VALUES(body), updated_at = NOW()`
	_, err := s.db.ExecContext(ctx, q, name, body)
	return err
}

// Delete removes the row; zero affected rows is ErrNotFound.
func (s *SQLStore) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM dashboard WHERE name = ?`, name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}
