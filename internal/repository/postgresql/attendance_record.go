package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/shiftlab/wfm-backend-go/internal/domain/attendance"
	"github.com/shiftlab/wfm-backend-go/internal/pkg/database"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (r *attendanceRepository) Create(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		INSERT INTO attendance_records (
			network_id, shop_id, user_id, employee_id, dttm, dt, type, worker_day_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	err := q.QueryRow(ctx, query,
		rec.NetworkID, rec.ShopID, rec.UserID, rec.EmployeeID,
		rec.Dttm, rec.Date, rec.Type, rec.WorkerDayID,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return attendance.Record{}, fmt.Errorf("failed to create attendance record: %w", err)
	}
	return rec, nil
}

func (r *attendanceRepository) ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.Record, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		SELECT id, network_id, shop_id, user_id, employee_id, dttm, dt, type, worker_day_id, created_at
		FROM attendance_records
		WHERE employee_id = $1 AND dttm BETWEEN $2 AND $3
		ORDER BY dttm
	`
	rows, err := q.Query(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance records: %w", err)
	}
	defer rows.Close()

	var out []attendance.Record
	for rows.Next() {
		var rec attendance.Record
		if err := rows.Scan(
			&rec.ID, &rec.NetworkID, &rec.ShopID, &rec.UserID, &rec.EmployeeID,
			&rec.Dttm, &rec.Date, &rec.Type, &rec.WorkerDayID, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan attendance record: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
