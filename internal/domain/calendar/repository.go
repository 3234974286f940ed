package calendar

import (
	"context"
	"time"
)

// Repository defines data access for the production calendar. Lookups are
// exact-region; the service layer walks the region tree.
type Repository interface {
	GetRegion(ctx context.Context, id string) (Region, error)

	// ListRange returns the production days of one region over [from, to],
	// ordered by date.
	ListRange(ctx context.Context, regionID string, from, to time.Time) ([]ProductionDay, error)

	// Upsert creates or replaces one production day.
	Upsert(ctx context.Context, day ProductionDay) (ProductionDay, error)
}
