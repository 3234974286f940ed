package attendance

import (
	"context"
	"time"
)

// Repository defines data access for raw attendance records.
type Repository interface {
	Create(ctx context.Context, rec Record) (Record, error)

	// ListByEmployee returns records of one employee over [from, to],
	// ordered by dttm.
	ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]Record, error)
}
