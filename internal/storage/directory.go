package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"treasury/internal/core"
)

// Members

func scanMember(row interface{ Scan(...any) error }) (core.Member, error) {
	var (
		m    core.Member
		join string
	)
	if err := row.Scan(&m.ID, &m.FullName, &join, &m.Phone, &m.Address, &m.Status, &m.Notes); err != nil {
		return core.Member{}, err
	}
	m.JoinDate, _ = core.ParseDate(join)
	return m, nil
}

func (r *SQLiteRepository) CreateMember(ctx context.Context, m core.Member) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO members (full_name, join_date, phone, address, status, notes)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.FullName, m.JoinDate.String(), m.Phone, m.Address, m.Status, m.Notes)
	if err != nil {
		return 0, fmt.Errorf("create member: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) UpdateMember(ctx context.Context, m core.Member) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE members SET full_name = ?, join_date = ?, phone = ?, address = ?, status = ?, notes = ?
		 WHERE id = ?`,
		m.FullName, m.JoinDate.String(), m.Phone, m.Address, m.Status, m.Notes, m.ID)
	if err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	return requireRow(res.RowsAffected())
}

func (r *SQLiteRepository) DeleteMember(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM members WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return requireRow(res.RowsAffected())
}

func (r *SQLiteRepository) GetMember(ctx context.Context, id int64) (core.Member, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, full_name, join_date, phone, address, status, notes FROM members WHERE id = ?", id)
	m, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Member{}, ErrNotFound
	}
	if err != nil {
		return core.Member{}, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

func (r *SQLiteRepository) ListMembers(ctx context.Context) ([]core.Member, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, full_name, join_date, phone, address, status, notes FROM members ORDER BY full_name")
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var out []core.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Activities

func scanActivity(row interface{ Scan(...any) error }) (core.Activity, error) {
	var (
		a   core.Activity
		day string
	)
	if err := row.Scan(&a.ID, &a.Name, &day, &a.Location, &a.Description); err != nil {
		return core.Activity{}, err
	}
	a.Date, _ = core.ParseDate(day)
	return a, nil
}

func (r *SQLiteRepository) CreateActivity(ctx context.Context, a core.Activity) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO activities (name, date, location, description) VALUES (?, ?, ?, ?)",
		a.Name, a.Date.String(), a.Location, a.Description)
	if err != nil {
		return 0, fmt.Errorf("create activity: %w", err)
	}
	return res.LastInsertId()
}

func (r *SQLiteRepository) UpdateActivity(ctx context.Context, a core.Activity) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE activities SET name = ?, date = ?, location = ?, description = ? WHERE id = ?",
		a.Name, a.Date.String(), a.Location, a.Description, a.ID)
	if err != nil {
		return fmt.Errorf("update activity: %w", err)
	}
	return requireRow(res.RowsAffected())
}

func (r *SQLiteRepository) DeleteActivity(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM activities WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	return requireRow(res.RowsAffected())
}

func (r *SQLiteRepository) GetActivity(ctx context.Context, id int64) (core.Activity, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, name, date, location, description FROM activities WHERE id = ?", id)
	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Activity{}, ErrNotFound
	}
	if err != nil {
		return core.Activity{}, fmt.Errorf("get activity: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) ListActivities(ctx context.Context) ([]core.Activity, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, date, location, description FROM activities ORDER BY date DESC")
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	var out []core.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetAttendance returns the member ids recorded for an activity.
func (r *SQLiteRepository) GetAttendance(ctx context.Context, activityID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT member_id FROM activity_attendance WHERE activity_id = ?", activityID)
	if err != nil {
		return nil, fmt.Errorf("get attendance: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// SetAttendance replaces the attendance set for an activity.
func (r *SQLiteRepository) SetAttendance(ctx context.Context, activityID int64, memberIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin attendance update: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM activity_attendance WHERE activity_id = ?", activityID); err != nil {
		return fmt.Errorf("clear attendance: %w", err)
	}
	for _, memberID := range memberIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO activity_attendance (activity_id, member_id) VALUES (?, ?)",
			activityID, memberID); err != nil {
			return fmt.Errorf("insert attendance: %w", err)
		}
	}
	return tx.Commit()
}

func requireRow(n int64, err error) error {
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
