// Package storage persists the treasury's ledgers, directory and account
// data in a single-file SQLite database.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"treasury/internal/core"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("not found")

// DateRange bounds a ledger query. Zero dates mean unbounded on that side.
type DateRange struct {
	Start core.Date
	End   core.Date
}

// PendingTransaction is the minimal row handed to the backup sync worker.
type PendingTransaction struct {
	ID        int64
	Kind      core.Kind
	CreatedAt time.Time
}

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const transactionColumns = "id, kind, amount, date, category, description, notes, payer, attachment_ref"

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var (
		t           core.Transaction
		amount, day string
	)
	err := row.Scan(&t.ID, &t.Kind, &amount, &day, &t.Category, &t.Description, &t.Notes, &t.Payer, &t.AttachmentRef)
	if err != nil {
		return core.Transaction{}, err
	}
	if t.Amount, err = decimal.NewFromString(amount); err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored amount %q: %w", amount, err)
	}
	// A malformed stored date yields a zero Date; aggregation skips and
	// counts those rows instead of failing the whole query.
	t.Date, _ = core.ParseDate(day)
	return t, nil
}

// CreateTransaction inserts a ledger record and returns its assigned id.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (kind, amount, date, category, description, notes, payer, attachment_ref)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Kind, t.Amount.String(), t.Date.String(), t.Category, t.Description, t.Notes, t.Payer, t.AttachmentRef)
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"kind", t.Kind,
		"amount", t.Amount.String(),
		"category", t.Category)
	return id, nil
}

// GetTransaction fetches one record of the given kind.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, kind core.Kind, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+transactionColumns+" FROM transactions WHERE kind = ? AND id = ?", kind, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// ListTransactions returns one ledger, optionally date-filtered, ordered by
// date descending with newest id first among same-date rows.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, kind core.Kind, rng DateRange) ([]core.Transaction, error) {
	query := "SELECT " + transactionColumns + " FROM transactions WHERE kind = ?"
	args := []any{kind}
	if !rng.Start.IsZero() {
		query += " AND date >= ?"
		args = append(args, rng.Start.String())
	}
	if !rng.End.IsZero() {
		query += " AND date <= ?"
		args = append(args, rng.End.String())
	}
	query += " ORDER BY date DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// UpdateTransaction rewrites all mutable fields of a record.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		 SET amount = ?, date = ?, category = ?, description = ?, notes = ?, payer = ?, attachment_ref = ?, synced_at = NULL
		 WHERE kind = ? AND id = ?`,
		t.Amount.String(), t.Date.String(), t.Category, t.Description, t.Notes, t.Payer, t.AttachmentRef, t.Kind, t.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteTransaction removes a record permanently.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, kind core.Kind, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM transactions WHERE kind = ? AND id = ?", kind, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearTransactions empties both ledgers. Used by backup restore.
func (r *SQLiteRepository) ClearTransactions(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM transactions"); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	slog.WarnContext(ctx, "All transactions cleared")
	return nil
}

// GetPendingSyncTransactions returns rows not yet written to the backup
// snapshot, oldest first.
func (r *SQLiteRepository) GetPendingSyncTransactions(ctx context.Context, limit int) ([]PendingTransaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, kind, created_at FROM transactions WHERE synced_at IS NULL ORDER BY created_at ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync transactions: %w", err)
	}
	defer rows.Close()

	var out []PendingTransaction
	for rows.Next() {
		var p PendingTransaction
		if err := rows.Scan(&p.ID, &p.Kind, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending transaction: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// MarkSynced records that a row made it into the backup snapshot.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		"UPDATE transactions SET synced_at = CURRENT_TIMESTAMP WHERE id = ?", id); err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	return nil
}
