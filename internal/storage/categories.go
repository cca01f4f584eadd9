package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"treasury/internal/core"
)

// ErrDuplicateCategory is returned when a name already exists for the kind.
var ErrDuplicateCategory = errors.New("category already exists")

// ListCategories returns the category set for one ledger kind, sorted by name.
func (r *SQLiteRepository) ListCategories(ctx context.Context, kind core.Kind) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name FROM categories WHERE kind = ? ORDER BY name", kind)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// AddCategory inserts a new category name for the kind.
func (r *SQLiteRepository) AddCategory(ctx context.Context, kind core.Kind, name string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO categories (kind, name) VALUES (?, ?)", kind, name)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateCategory
		}
		return 0, fmt.Errorf("add category: %w", err)
	}
	return res.LastInsertId()
}

// RenameCategory changes a category's name. Historical transactions keep the
// old label; no propagation happens here.
func (r *SQLiteRepository) RenameCategory(ctx context.Context, kind core.Kind, id int64, newName string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE categories SET name = ? WHERE kind = ? AND id = ?", newName, kind, id)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateCategory
		}
		return fmt.Errorf("rename category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	slog.InfoContext(ctx, "Category renamed", "kind", kind, "id", id, "name", newName)
	return nil
}

// DeleteCategory removes a category. Transactions referencing it keep the
// orphaned label.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, kind core.Kind, id int64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM categories WHERE kind = ? AND id = ?", kind, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
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

// HasCategory reports whether name is in the active set for the kind.
func (r *SQLiteRepository) HasCategory(ctx context.Context, kind core.Kind, name string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM categories WHERE kind = ? AND name = ?", kind, name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("has category: %w", err)
	}
	return true, nil
}
