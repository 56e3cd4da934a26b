package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"stellarsplit/internal/domain"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteBillRepository keeps the bill collection as one row of a key/value
// table.
type SQLiteBillRepository struct {
	db *sql.DB
}

// OpenSQLite creates or opens the database at path.
//
// The connection pool is limited to one connection; SQLite has a single
// writer and this keeps read-modify-write cycles from hitting SQLITE_BUSY.
func OpenSQLite(path string) (*SQLiteBillRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteBillRepository{db: db}, nil
}

// Close closes the database.
func (r *SQLiteBillRepository) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// LoadBills reads the collection.
func (r *SQLiteBillRepository) LoadBills(ctx context.Context) ([]domain.Bill, error) {
	return r.load(ctx, r.db)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *SQLiteBillRepository) load(ctx context.Context, q queryer) ([]domain.Bill, error) {
	var value string
	err := q.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, BillsKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return []domain.Bill{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load bills: %w", err)
	}
	return decodeBills([]byte(value))
}

// UpdateBills applies fn inside a transaction.
func (r *SQLiteBillRepository) UpdateBills(
	ctx context.Context,
	fn func([]domain.Bill) ([]domain.Bill, error),
) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	bills, err := r.load(ctx, tx)
	if err != nil {
		return err
	}
	next, err := fn(bills)
	if err != nil {
		return err
	}
	b, err := encodeBills(next)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		BillsKey, string(b)); err != nil {
		return fmt.Errorf("save bills: %w", err)
	}
	return tx.Commit()
}

var _ domain.BillRepository = (*SQLiteBillRepository)(nil)
