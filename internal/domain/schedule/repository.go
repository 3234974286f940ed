package schedule

import (
	"context"
	"time"
)

// Repository defines data access for shop schedules.
type Repository interface {
	// GetDay returns the per-date override for (shopID, date), or nil when
	// none exists.
	GetDay(ctx context.Context, shopID string, date time.Time) (*ShopScheduleDay, error)

	// ListRange returns per-date entries over [from, to], ordered by date.
	ListRange(ctx context.Context, shopID string, from, to time.Time) ([]ShopScheduleDay, error)

	// GetWeekly returns the weekly default of a shop.
	GetWeekly(ctx context.Context, shopID string) (WeeklySchedule, error)

	// UpsertDays creates or replaces per-date entries.
	UpsertDays(ctx context.Context, days []ShopScheduleDay) (int, error)
}
