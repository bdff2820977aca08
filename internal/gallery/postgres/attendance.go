package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/facemark/facemark/internal/gallery"
)

// AttendanceRepository provides PostgreSQL-backed attendance storage.
type AttendanceRepository struct {
	pool *Pool
}

// NewAttendanceRepository creates a new PostgreSQL attendance repository.
func NewAttendanceRepository(pool *Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// MarkAttendance records presence for an identity on a date. The unique
// (identity_id, date) constraint makes repeated marks a no-op.
func (r *AttendanceRepository) MarkAttendance(ctx context.Context, record gallery.AttendanceRecord) (bool, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Status == "" {
		record.Status = gallery.StatusPresent
	}

	result, err := r.pool.Exec(ctx, `
		INSERT INTO attendance (id, identity_id, name, roll_no, date, time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (identity_id, date) DO NOTHING
	`, record.ID, record.IdentityID, record.Name, record.RollNo, record.Date, record.Time, record.Status)
	if err != nil {
		return false, fmt.Errorf("insert attendance: %w", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("attendance rows affected: %w", err)
	}
	return inserted == 0, nil
}

const attendanceColumns = "id, identity_id, name, roll_no, date, time, status"

func scanAttendanceRows(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]gallery.AttendanceRecord, error) {
	var records []gallery.AttendanceRecord
	for rows.Next() {
		var r gallery.AttendanceRecord
		if err := rows.Scan(&r.ID, &r.IdentityID, &r.Name, &r.RollNo, &r.Date, &r.Time, &r.Status); err != nil {
			return nil, fmt.Errorf("scan attendance record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance records: %w", err)
	}
	return records, nil
}

// ListByDate returns all attendance records for a date.
func (r *AttendanceRepository) ListByDate(ctx context.Context, date string) ([]gallery.AttendanceRecord, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+attendanceColumns+" FROM attendance WHERE date = $1 ORDER BY time", date)
	if err != nil {
		return nil, fmt.Errorf("query attendance by date: %w", err)
	}
	defer rows.Close()
	return scanAttendanceRows(rows)
}

// ListByIdentity returns an identity's attendance history, newest first.
func (r *AttendanceRepository) ListByIdentity(ctx context.Context, identityID string) ([]gallery.AttendanceRecord, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+attendanceColumns+" FROM attendance WHERE identity_id = $1 ORDER BY date DESC, time DESC", identityID)
	if err != nil {
		return nil, fmt.Errorf("query attendance by identity: %w", err)
	}
	defer rows.Close()
	return scanAttendanceRows(rows)
}

// CountByDate returns the number of identities marked present on a date.
func (r *AttendanceRepository) CountByDate(ctx context.Context, date string) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM attendance WHERE date = $1", date).Scan(&count); err != nil {
		return 0, fmt.Errorf("count attendance: %w", err)
	}
	return count, nil
}
