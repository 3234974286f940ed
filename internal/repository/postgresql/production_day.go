package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/shiftlab/wfm-backend-go/internal/domain/calendar"
	"github.com/shiftlab/wfm-backend-go/internal/pkg/database"
)

type calendarRepository struct {
	db *database.DB
}

func NewCalendarRepository(db *database.DB) calendar.Repository {
	return &calendarRepository{db: db}
}

func (r *calendarRepository) GetRegion(ctx context.Context, id string) (calendar.Region, error) {
	q := GetQuerier(ctx, r.db)
	var region calendar.Region
	err := q.QueryRow(ctx, `
		SELECT id, parent_id, name FROM regions WHERE id = $1
	`, id).Scan(&region.ID, &region.ParentID, &region.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return calendar.Region{}, calendar.ErrRegionNotFound
		}
		return calendar.Region{}, fmt.Errorf("failed to get region: %w", err)
	}
	return region, nil
}

func (r *calendarRepository) ListRange(ctx context.Context, regionID string, from, to time.Time) ([]calendar.ProductionDay, error) {
	q := GetQuerier(ctx, r.db)
	rows, err := q.Query(ctx, `
		SELECT id, region_id, dt, kind, norm_hours, created_at, updated_at
		FROM production_days
		WHERE region_id = $1 AND dt BETWEEN $2 AND $3
		ORDER BY dt
	`, regionID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list production days: %w", err)
	}
	defer rows.Close()

	var out []calendar.ProductionDay
	for rows.Next() {
		var d calendar.ProductionDay
		if err := rows.Scan(&d.ID, &d.RegionID, &d.Date, &d.Kind, &d.NormHours, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan production day: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *calendarRepository) Upsert(ctx context.Context, day calendar.ProductionDay) (calendar.ProductionDay, error) {
	q := GetQuerier(ctx, r.db)
	err := q.QueryRow(ctx, `
		INSERT INTO production_days (region_id, dt, kind, norm_hours)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (region_id, dt) DO UPDATE SET
			kind = EXCLUDED.kind,
			norm_hours = EXCLUDED.norm_hours,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`, day.RegionID, day.Date, day.Kind, day.NormHours).Scan(&day.ID, &day.CreatedAt, &day.UpdatedAt)
	if err != nil {
		return calendar.ProductionDay{}, fmt.Errorf("failed to upsert production day: %w", err)
	}
	return day, nil
}
