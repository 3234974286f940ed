package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/shiftlab/wfm-backend-go/internal/domain/employment"
	"github.com/shiftlab/wfm-backend-go/internal/pkg/database"
)

type employmentRepository struct {
	db *database.DB
}

func NewEmploymentRepository(db *database.DB) employment.Repository {
	return &employmentRepository{db: db}
}

const employmentColumns = `
	id, network_id, code, employee_id, user_id, shop_id, position_id,
	function_group_id, hired_at, fired_at, norm_work_hours, is_visible,
	created_at, updated_at`

func scanEmployment(row pgx.Row) (employment.Employment, error) {
	var e employment.Employment
	err := row.Scan(
		&e.ID, &e.NetworkID, &e.Code, &e.EmployeeID, &e.UserID, &e.ShopID, &e.PositionID,
		&e.FunctionGroupID, &e.HiredAt, &e.FiredAt, &e.NormWorkHours, &e.IsVisible,
		&e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}

func (r *employmentRepository) getOne(ctx context.Context, query string, args ...any) (employment.Employment, error) {
	q := GetQuerier(ctx, r.db)
	e, err := scanEmployment(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employment.Employment{}, employment.ErrEmploymentNotFound
		}
		return employment.Employment{}, fmt.Errorf("failed to get employment: %w", err)
	}
	return e, nil
}

func (r *employmentRepository) GetByID(ctx context.Context, id string) (employment.Employment, error) {
	return r.getOne(ctx, `SELECT `+employmentColumns+` FROM employments WHERE id = $1`, id)
}

func (r *employmentRepository) GetByCode(ctx context.Context, networkID, code string) (employment.Employment, error) {
	return r.getOne(ctx,
		`SELECT `+employmentColumns+` FROM employments WHERE network_id = $1 AND code = $2`,
		networkID, code)
}

func (r *employmentRepository) list(ctx context.Context, query string, args ...any) ([]employment.Employment, error) {
	q := GetQuerier(ctx, r.db)
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list employments: %w", err)
	}
	defer rows.Close()

	var out []employment.Employment
	for rows.Next() {
		e, err := scanEmployment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employment: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *employmentRepository) ListByEmployee(ctx context.Context, employeeID string) ([]employment.Employment, error) {
	return r.list(ctx,
		`SELECT `+employmentColumns+` FROM employments WHERE employee_id = $1 ORDER BY hired_at`,
		employeeID)
}

func (r *employmentRepository) ListByUser(ctx context.Context, userID string) ([]employment.Employment, error) {
	return r.list(ctx,
		`SELECT `+employmentColumns+` FROM employments WHERE user_id = $1 ORDER BY hired_at`,
		userID)
}

func (r *employmentRepository) ListActiveInRange(ctx context.Context, employeeIDs []string, from, to time.Time) ([]employment.Employment, error) {
	return r.list(ctx, `
		SELECT `+employmentColumns+`
		FROM employments
		WHERE employee_id = ANY($1)
		  AND hired_at <= $3
		  AND (fired_at IS NULL OR fired_at >= $2)
		ORDER BY employee_id, hired_at
	`, employeeIDs, from, to)
}

func (r *employmentRepository) ListEmployeeIDs(ctx context.Context, networkID string, asOf time.Time) ([]string, error) {
	q := GetQuerier(ctx, r.db)
	rows, err := q.Query(ctx, `
		SELECT DISTINCT employee_id
		FROM employments
		WHERE network_id = $1
		  AND hired_at <= $2
		  AND (fired_at IS NULL OR fired_at >= $2)
	`, networkID, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to list employee ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan employee id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
