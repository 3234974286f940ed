package timesheet

import (
	"context"
	"time"
)

// Repository defines data access for derived timesheet items. The
// timesheet calculator is their single writer.
type Repository interface {
	// ListRange returns items of the given employees over [from, to],
	// filtered by sheet types when non-empty, ordered by (employee, date).
	ListRange(ctx context.Context, employeeIDs []string, from, to time.Time, sheetTypes []SheetType) ([]Item, error)

	// ReplaceMonth atomically replaces the items of (employee, month,
	// sheet types) with the given set; previously derived items not in the
	// new set are deleted.
	ReplaceMonth(ctx context.Context, employeeID string, year int, month time.Month, sheetTypes []SheetType, items []Item) error
}
