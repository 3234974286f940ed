package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/shiftlab/wfm-backend-go/internal/domain/timesheet"
	"github.com/shiftlab/wfm-backend-go/internal/pkg/database"
)

type timesheetRepository struct {
	db *database.DB
}

func NewTimesheetRepository(db *database.DB) timesheet.Repository {
	return &timesheetRepository{db: db}
}

const timesheetColumns = `
	id, network_id, employee_id, shop_id, position_id, work_type_name,
	dt, day_type, sheet_type, source, day_hours, night_hours,
	dttm_start, dttm_end, created_at, updated_at`

func (r *timesheetRepository) ListRange(ctx context.Context, employeeIDs []string, from, to time.Time, sheetTypes []timesheet.SheetType) ([]timesheet.Item, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		SELECT ` + timesheetColumns + `
		FROM timesheet_items
		WHERE dt BETWEEN $1 AND $2
	`
	args := []any{from, to}
	if len(employeeIDs) > 0 {
		args = append(args, employeeIDs)
		query += fmt.Sprintf(" AND employee_id = ANY($%d)", len(args))
	}
	if len(sheetTypes) > 0 {
		types := make([]string, len(sheetTypes))
		for i, st := range sheetTypes {
			types[i] = string(st)
		}
		args = append(args, types)
		query += fmt.Sprintf(" AND sheet_type = ANY($%d)", len(args))
	}
	query += " ORDER BY employee_id, dt, sheet_type, work_type_name"

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list timesheet items: %w", err)
	}
	defer rows.Close()

	var out []timesheet.Item
	for rows.Next() {
		var it timesheet.Item
		if err := rows.Scan(
			&it.ID, &it.NetworkID, &it.EmployeeID, &it.ShopID, &it.PositionID, &it.WorkTypeName,
			&it.Date, &it.DayType, &it.SheetType, &it.Source, &it.DayHours, &it.NightHours,
			&it.Start, &it.End, &it.CreatedAt, &it.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan timesheet item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// ReplaceMonth deletes and rewrites the items of (employee, month, sheet
// types) in one statement pair. Callers wrap it in a transaction.
func (r *timesheetRepository) ReplaceMonth(ctx context.Context, employeeID string, year int, month time.Month, sheetTypes []timesheet.SheetType, items []timesheet.Item) error {
	q := GetQuerier(ctx, r.db)
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)

	types := make([]string, len(sheetTypes))
	for i, st := range sheetTypes {
		types[i] = string(st)
	}
	_, err := q.Exec(ctx, `
		DELETE FROM timesheet_items
		WHERE employee_id = $1 AND dt BETWEEN $2 AND $3 AND sheet_type = ANY($4)
	`, employeeID, from, to, types)
	if err != nil {
		return fmt.Errorf("failed to clear timesheet month: %w", err)
	}

	for i := range items {
		it := &items[i]
		err := q.QueryRow(ctx, `
			INSERT INTO timesheet_items (
				network_id, employee_id, shop_id, position_id, work_type_name,
				dt, day_type, sheet_type, source, day_hours, night_hours,
				dttm_start, dttm_end
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			RETURNING id, created_at, updated_at
		`,
			it.NetworkID, it.EmployeeID, it.ShopID, it.PositionID, it.WorkTypeName,
			it.Date, it.DayType, it.SheetType, it.Source, it.DayHours, it.NightHours,
			it.Start, it.End,
		).Scan(&it.ID, &it.CreatedAt, &it.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert timesheet item: %w", err)
		}
	}
	return nil
}
