package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"treasury/internal/core"
)

// ErrDuplicateUsername is returned when a username is already taken.
var ErrDuplicateUsername = errors.New("username already exists")

// Users

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, role, must_change_password) VALUES (?, ?, ?, ?)`,
		u.Username, u.PasswordHash, u.Role, boolToInt(u.MustChangePassword))
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateUsername
		}
		return 0, fmt.Errorf("create user: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	var (
		u    core.User
		must int
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT id, username, password_hash, role, must_change_password FROM users WHERE username = ?",
		username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &must)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, ErrNotFound
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	u.MustChangePassword = must != 0
	return u, nil
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, username, role, must_change_password FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []core.User
	for rows.Next() {
		var u core.User
		var mustChange int
		if err := rows.Scan(&u.ID, &u.Username, &u.Role, &mustChange); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.MustChangePassword = mustChange != 0
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateUserPassword replaces the stored hash and clears the must-change flag.
func (r *SQLiteRepository) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET password_hash = ?, must_change_password = 0 WHERE id = ?", passwordHash, id)
	if err != nil {
		return fmt.Errorf("update user password: %w", err)
	}
	return requireRow(res.RowsAffected())
}

func (r *SQLiteRepository) DeleteUser(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return requireRow(res.RowsAffected())
}

// CountUsers returns how many accounts exist. Used by admin bootstrap.
func (r *SQLiteRepository) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// Audit log

// AppendAudit writes one append-only audit entry.
func (r *SQLiteRepository) AppendAudit(ctx context.Context, username, action, details string) error {
	if _, err := r.db.ExecContext(ctx,
		"INSERT INTO audit_log (username, action, details) VALUES (?, ?, ?)",
		username, action, details); err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	slog.DebugContext(ctx, "Audit entry written", "username", username, "action", action)
	return nil
}

func (r *SQLiteRepository) ListAudit(ctx context.Context) ([]core.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, timestamp, username, action, details FROM audit_log ORDER BY timestamp DESC, id DESC")
	if err != nil {
		return nil, fmt.Errorf("list audit: %w", err)
	}
	defer rows.Close()

	var out []core.AuditEntry
	for rows.Next() {
		var e core.AuditEntry
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Username, &e.Action, &e.Details); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Settings

func (r *SQLiteRepository) GetSettings(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateSetting(ctx context.Context, key, value string) error {
	if _, err := r.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)", key, value); err != nil {
		return fmt.Errorf("update setting: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
