package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/shiftlab/wfm-backend-go/internal/domain/network"
	"github.com/shiftlab/wfm-backend-go/internal/domain/schedule"
	"github.com/shiftlab/wfm-backend-go/internal/pkg/database"
)

type scheduleRepository struct {
	db *database.DB
}

func NewScheduleRepository(db *database.DB) schedule.Repository {
	return &scheduleRepository{db: db}
}

// Open/close are stored as minutes from midnight, nullable on holidays.

func (r *scheduleRepository) GetDay(ctx context.Context, shopID string, date time.Time) (*schedule.ShopScheduleDay, error) {
	q := GetQuerier(ctx, r.db)
	var d schedule.ShopScheduleDay
	var open, close *int
	err := q.QueryRow(ctx, `
		SELECT id, shop_id, dt, type, open_minutes, close_minutes, created_at, updated_at
		FROM shop_schedule_days
		WHERE shop_id = $1 AND dt = $2
	`, shopID, date).Scan(&d.ID, &d.ShopID, &d.Date, &d.Type, &open, &close, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get schedule day: %w", err)
	}
	d.Open, d.Close = clockPtr(open), clockPtr(close)
	return &d, nil
}

func (r *scheduleRepository) ListRange(ctx context.Context, shopID string, from, to time.Time) ([]schedule.ShopScheduleDay, error) {
	q := GetQuerier(ctx, r.db)
	rows, err := q.Query(ctx, `
		SELECT id, shop_id, dt, type, open_minutes, close_minutes, created_at, updated_at
		FROM shop_schedule_days
		WHERE shop_id = $1 AND dt BETWEEN $2 AND $3
		ORDER BY dt
	`, shopID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedule days: %w", err)
	}
	defer rows.Close()

	var out []schedule.ShopScheduleDay
	for rows.Next() {
		var d schedule.ShopScheduleDay
		var open, close *int
		if err := rows.Scan(&d.ID, &d.ShopID, &d.Date, &d.Type, &open, &close, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan schedule day: %w", err)
		}
		d.Open, d.Close = clockPtr(open), clockPtr(close)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *scheduleRepository) GetWeekly(ctx context.Context, shopID string) (schedule.WeeklySchedule, error) {
	q := GetQuerier(ctx, r.db)
	rows, err := q.Query(ctx, `
		SELECT weekday, type, open_minutes, close_minutes
		FROM shop_weekly_schedules
		WHERE shop_id = $1
		ORDER BY weekday
	`, shopID)
	if err != nil {
		return schedule.WeeklySchedule{}, fmt.Errorf("failed to get weekly schedule: %w", err)
	}
	defer rows.Close()

	w := schedule.WeeklySchedule{ShopID: shopID, Days: make(map[time.Weekday]schedule.WeeklyDay)}
	for rows.Next() {
		var weekday int
		var d schedule.WeeklyDay
		var open, close *int
		if err := rows.Scan(&weekday, &d.Type, &open, &close); err != nil {
			return schedule.WeeklySchedule{}, fmt.Errorf("failed to scan weekly day: %w", err)
		}
		d.Open, d.Close = clockPtr(open), clockPtr(close)
		w.Days[time.Weekday(weekday)] = d
	}
	return w, rows.Err()
}

func (r *scheduleRepository) UpsertDays(ctx context.Context, days []schedule.ShopScheduleDay) (int, error) {
	q := GetQuerier(ctx, r.db)
	written := 0
	for i := range days {
		d := &days[i]
		tag, err := q.Exec(ctx, `
			INSERT INTO shop_schedule_days (shop_id, dt, type, open_minutes, close_minutes)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (shop_id, dt) DO UPDATE SET
				type = EXCLUDED.type,
				open_minutes = EXCLUDED.open_minutes,
				close_minutes = EXCLUDED.close_minutes,
				updated_at = NOW()
		`, d.ShopID, d.Date, d.Type, minutesPtr(d.Open), minutesPtr(d.Close))
		if err != nil {
			return written, fmt.Errorf("failed to upsert schedule day: %w", err)
		}
		written += int(tag.RowsAffected())
	}
	return written, nil
}

func clockPtr(minutes *int) *network.Clock {
	if minutes == nil {
		return nil
	}
	c := network.Clock(*minutes)
	return &c
}

func minutesPtr(c *network.Clock) *int {
	if c == nil {
		return nil
	}
	m := int(*c)
	return &m
}
