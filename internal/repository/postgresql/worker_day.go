package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/shiftlab/wfm-backend-go/internal/domain/workerday"
	"github.com/shiftlab/wfm-backend-go/internal/pkg/database"
)

type workerDayRepository struct {
	db *database.DB
}

func NewWorkerDayRepository(db *database.DB) workerday.Repository {
	return &workerDayRepository{db: db}
}

const workerDayColumns = `
	id, network_id, employee_id, employment_id, shop_id, position_id, code,
	dt, type, dttm_work_start, dttm_work_end, tabel_start, tabel_end,
	work_hours, day_hours, night_hours,
	is_fact, is_approved, is_vacancy, is_outsource, is_blocked, is_archived,
	parent_id, closest_plan_id, outsources,
	created_by, last_edited_by, created_at, updated_at`

func scanWorkerDay(row pgx.Row) (*workerday.WorkerDay, error) {
	var wd workerday.WorkerDay
	err := row.Scan(
		&wd.ID, &wd.NetworkID, &wd.EmployeeID, &wd.EmploymentID, &wd.ShopID, &wd.PositionID, &wd.Code,
		&wd.Date, &wd.Type, &wd.Start, &wd.End, &wd.TabelStart, &wd.TabelEnd,
		&wd.WorkHours, &wd.DayHours, &wd.NightHours,
		&wd.IsFact, &wd.IsApproved, &wd.IsVacancy, &wd.IsOutsource, &wd.IsBlocked, &wd.IsArchived,
		&wd.ParentID, &wd.ClosestPlanID, &wd.Outsources,
		&wd.CreatedBy, &wd.LastEditedBy, &wd.CreatedAt, &wd.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &wd, nil
}

func (r *workerDayRepository) collect(ctx context.Context, rows pgx.Rows) ([]workerday.WorkerDay, error) {
	defer rows.Close()
	var out []workerday.WorkerDay
	for rows.Next() {
		wd, err := scanWorkerDay(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan worker day: %w", err)
		}
		out = append(out, *wd)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachParts(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// attachParts loads the work parts of the given rows in one query.
func (r *workerDayRepository) attachParts(ctx context.Context, days []workerday.WorkerDay) error {
	if len(days) == 0 {
		return nil
	}
	q := GetQuerier(ctx, r.db)
	ids := make([]string, len(days))
	index := make(map[string]int, len(days))
	for i := range days {
		ids[i] = days[i].ID
		index[days[i].ID] = i
	}

	query := `
		SELECT id, worker_day_id, work_type_id, work_type_name, rate
		FROM worker_day_details
		WHERE worker_day_id = ANY($1)
		ORDER BY worker_day_id, id
	`
	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("failed to load work parts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p workerday.WorkPart
		if err := rows.Scan(&p.ID, &p.WorkerDayID, &p.WorkTypeID, &p.WorkTypeName, &p.Rate); err != nil {
			return fmt.Errorf("failed to scan work part: %w", err)
		}
		i := index[p.WorkerDayID]
		days[i].WorkParts = append(days[i].WorkParts, p)
	}
	return rows.Err()
}

func (r *workerDayRepository) getOne(ctx context.Context, query string, args ...any) (*workerday.WorkerDay, error) {
	q := GetQuerier(ctx, r.db)
	wd, err := scanWorkerDay(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, workerday.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get worker day: %w", err)
	}
	one := []workerday.WorkerDay{*wd}
	if err := r.attachParts(ctx, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

func (r *workerDayRepository) GetByID(ctx context.Context, id string) (*workerday.WorkerDay, error) {
	return r.getOne(ctx, `SELECT `+workerDayColumns+` FROM worker_days WHERE id = $1`, id)
}

func (r *workerDayRepository) GetByCode(ctx context.Context, networkID, code string) (*workerday.WorkerDay, error) {
	return r.getOne(ctx,
		`SELECT `+workerDayColumns+` FROM worker_days WHERE network_id = $1 AND code = $2`,
		networkID, code)
}

func (r *workerDayRepository) GetSlot(ctx context.Context, key workerday.SlotKey) (*workerday.WorkerDay, error) {
	wd, err := r.getOne(ctx, `
		SELECT `+workerDayColumns+`
		FROM worker_days
		WHERE employee_id = $1 AND dt = $2 AND is_fact = $3 AND is_approved = $4
		  AND NOT is_archived
		ORDER BY created_at
		LIMIT 1
	`, key.EmployeeID, key.Date, key.IsFact, key.IsApproved)
	if errors.Is(err, workerday.ErrNotFound) {
		return nil, nil
	}
	return wd, err
}

func (r *workerDayRepository) ListSlot(ctx context.Context, key workerday.SlotKey) ([]workerday.WorkerDay, error) {
	q := GetQuerier(ctx, r.db)
	rows, err := q.Query(ctx, `
		SELECT `+workerDayColumns+`
		FROM worker_days
		WHERE employee_id = $1 AND dt = $2 AND is_fact = $3 AND is_approved = $4
		  AND NOT is_archived
		ORDER BY created_at
	`, key.EmployeeID, key.Date, key.IsFact, key.IsApproved)
	if err != nil {
		return nil, fmt.Errorf("failed to list slot: %w", err)
	}
	return r.collect(ctx, rows)
}

func (r *workerDayRepository) LastPlan(ctx context.Context, employeeID string, date time.Time) (*workerday.WorkerDay, error) {
	wd, err := r.getOne(ctx, `
		SELECT `+workerDayColumns+`
		FROM worker_days
		WHERE employee_id = $1 AND dt = $2 AND is_fact = false AND is_approved = true
		  AND NOT is_archived
		ORDER BY updated_at DESC
		LIMIT 1
	`, employeeID, date)
	if errors.Is(err, workerday.ErrNotFound) {
		return nil, nil
	}
	return wd, err
}

func (r *workerDayRepository) OpenFactShifts(ctx context.Context, employeeID string, asOf time.Time, maxShift time.Duration) ([]workerday.WorkerDay, error) {
	q := GetQuerier(ctx, r.db)
	rows, err := q.Query(ctx, `
		SELECT `+workerDayColumns+`
		FROM worker_days
		WHERE employee_id = $1
		  AND is_fact = true AND is_approved = true AND NOT is_archived
		  AND dttm_work_start IS NOT NULL AND dttm_work_end IS NULL
		  AND dttm_work_start > $2 AND dttm_work_start <= $3
		ORDER BY dttm_work_start DESC
	`, employeeID, asOf.Add(-maxShift), asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to list open fact shifts: %w", err)
	}
	return r.collect(ctx, rows)
}

func (r *workerDayRepository) TimesheetScan(ctx context.Context, employeeID string, from, to time.Time) ([]workerday.WorkerDay, error) {
	q := GetQuerier(ctx, r.db)
	rows, err := q.Query(ctx, `
		SELECT `+workerDayColumns+`
		FROM worker_days
		WHERE employee_id = $1 AND dt BETWEEN $2 AND $3 AND NOT is_archived
		ORDER BY dt, dttm_work_start NULLS LAST, created_at
	`, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to scan worker days: %w", err)
	}
	return r.collect(ctx, rows)
}

func (r *workerDayRepository) ListRange(ctx context.Context, employeeIDs []string, from, to time.Time, isFact, isApproved *bool) ([]workerday.WorkerDay, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		SELECT ` + workerDayColumns + `
		FROM worker_days
		WHERE dt BETWEEN $1 AND $2 AND NOT is_archived
	`
	args := []any{from, to}
	if len(employeeIDs) > 0 {
		args = append(args, employeeIDs)
		query += fmt.Sprintf(" AND employee_id = ANY($%d)", len(args))
	}
	if isFact != nil {
		args = append(args, *isFact)
		query += fmt.Sprintf(" AND is_fact = $%d", len(args))
	}
	if isApproved != nil {
		args = append(args, *isApproved)
		query += fmt.Sprintf(" AND is_approved = $%d", len(args))
	}
	query += " ORDER BY employee_id, dt, created_at"

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list worker days: %w", err)
	}
	return r.collect(ctx, rows)
}

func (r *workerDayRepository) ListShopRange(ctx context.Context, shopID string, from, to time.Time) ([]workerday.WorkerDay, error) {
	q := GetQuerier(ctx, r.db)
	rows, err := q.Query(ctx, `
		SELECT `+workerDayColumns+`
		FROM worker_days
		WHERE shop_id = $1 AND dt BETWEEN $2 AND $3 AND NOT is_archived
		ORDER BY dt, created_at
	`, shopID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list shop worker days: %w", err)
	}
	return r.collect(ctx, rows)
}

func (r *workerDayRepository) ListVacancies(ctx context.Context, shopID string, from, to time.Time) ([]workerday.WorkerDay, error) {
	q := GetQuerier(ctx, r.db)
	rows, err := q.Query(ctx, `
		SELECT `+workerDayColumns+`
		FROM worker_days
		WHERE shop_id = $1 AND dt BETWEEN $2 AND $3
		  AND is_vacancy = true AND employee_id IS NULL AND NOT is_archived
		ORDER BY dt, created_at
	`, shopID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list vacancies: %w", err)
	}
	return r.collect(ctx, rows)
}

func (r *workerDayRepository) Create(ctx context.Context, wd *workerday.WorkerDay) (*workerday.WorkerDay, error) {
	q := GetQuerier(ctx, r.db)
	query := `
		INSERT INTO worker_days (
			network_id, employee_id, employment_id, shop_id, position_id, code,
			dt, type, dttm_work_start, dttm_work_end, tabel_start, tabel_end,
			work_hours, day_hours, night_hours,
			is_fact, is_approved, is_vacancy, is_outsource, is_blocked, is_archived,
			parent_id, closest_plan_id, outsources, created_by, last_edited_by
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26
		) RETURNING id, created_at, updated_at
	`
	err := q.QueryRow(ctx, query,
		wd.NetworkID, wd.EmployeeID, wd.EmploymentID, wd.ShopID, wd.PositionID, wd.Code,
		wd.Date, wd.Type, wd.Start, wd.End, wd.TabelStart, wd.TabelEnd,
		wd.WorkHours, wd.DayHours, wd.NightHours,
		wd.IsFact, wd.IsApproved, wd.IsVacancy, wd.IsOutsource, wd.IsBlocked, wd.IsArchived,
		wd.ParentID, wd.ClosestPlanID, wd.Outsources, wd.CreatedBy, wd.LastEditedBy,
	).Scan(&wd.ID, &wd.CreatedAt, &wd.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker day: %w", err)
	}
	return wd, nil
}

func (r *workerDayRepository) Update(ctx context.Context, wd *workerday.WorkerDay) error {
	q := GetQuerier(ctx, r.db)
	query := `
		UPDATE worker_days SET
			employee_id = $2, employment_id = $3, shop_id = $4, position_id = $5, code = $6,
			dt = $7, type = $8, dttm_work_start = $9, dttm_work_end = $10,
			tabel_start = $11, tabel_end = $12,
			work_hours = $13, day_hours = $14, night_hours = $15,
			is_fact = $16, is_approved = $17, is_vacancy = $18, is_outsource = $19, is_blocked = $20,
			is_archived = $21,
			parent_id = $22, closest_plan_id = $23, outsources = $24, last_edited_by = $25,
			updated_at = NOW()
		WHERE id = $1
	`
	tag, err := q.Exec(ctx, query,
		wd.ID,
		wd.EmployeeID, wd.EmploymentID, wd.ShopID, wd.PositionID, wd.Code,
		wd.Date, wd.Type, wd.Start, wd.End, wd.TabelStart, wd.TabelEnd,
		wd.WorkHours, wd.DayHours, wd.NightHours,
		wd.IsFact, wd.IsApproved, wd.IsVacancy, wd.IsOutsource, wd.IsBlocked,
		wd.IsArchived,
		wd.ParentID, wd.ClosestPlanID, wd.Outsources, wd.LastEditedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update worker day: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return workerday.ErrNotFound
	}
	return nil
}

func (r *workerDayRepository) Delete(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)
	if _, err := q.Exec(ctx, `DELETE FROM worker_day_details WHERE worker_day_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete work parts: %w", err)
	}
	tag, err := q.Exec(ctx, `DELETE FROM worker_days WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete worker day: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return workerday.ErrNotFound
	}
	return nil
}

func (r *workerDayRepository) ReplaceParts(ctx context.Context, workerDayID string, parts []workerday.WorkPart) error {
	q := GetQuerier(ctx, r.db)
	if _, err := q.Exec(ctx, `DELETE FROM worker_day_details WHERE worker_day_id = $1`, workerDayID); err != nil {
		return fmt.Errorf("failed to clear work parts: %w", err)
	}
	for i := range parts {
		p := &parts[i]
		err := q.QueryRow(ctx, `
			INSERT INTO worker_day_details (worker_day_id, work_type_id, work_type_name, rate)
			VALUES ($1, $2, $3, $4)
			RETURNING id
		`, workerDayID, p.WorkTypeID, p.WorkTypeName, p.Rate).Scan(&p.ID)
		if err != nil {
			return fmt.Errorf("failed to insert work part: %w", err)
		}
		p.WorkerDayID = workerDayID
	}
	return nil
}

func (r *workerDayRepository) DetachChildren(ctx context.Context, id string) error {
	q := GetQuerier(ctx, r.db)
	if _, err := q.Exec(ctx, `UPDATE worker_days SET parent_id = NULL WHERE parent_id = $1`, id); err != nil {
		return fmt.Errorf("failed to detach children: %w", err)
	}
	if _, err := q.Exec(ctx, `UPDATE worker_days SET closest_plan_id = NULL WHERE closest_plan_id = $1`, id); err != nil {
		return fmt.Errorf("failed to detach plan anchors: %w", err)
	}
	return nil
}

func (r *workerDayRepository) LockSlot(ctx context.Context, employeeID string, date time.Time, isFact bool) error {
	q := GetQuerier(ctx, r.db)
	rows, err := q.Query(ctx, `
		SELECT id FROM worker_days
		WHERE employee_id = $1 AND dt = $2 AND is_fact = $3
		FOR UPDATE
	`, employeeID, date, isFact)
	if err != nil {
		return fmt.Errorf("failed to lock slot: %w", err)
	}
	rows.Close()
	return rows.Err()
}
