package workerday

import (
	"context"
	"time"
)

// Repository is the plan/fact store. Rows are indexed by (employee, date,
// is_fact, is_approved); all reads return rows with work parts attached.
type Repository interface {
	GetByID(ctx context.Context, id string) (*WorkerDay, error)
	GetByCode(ctx context.Context, networkID, code string) (*WorkerDay, error)

	// GetSlot returns the single row of a slot, or nil. Networks with
	// allow_multiple_wdays use ListSlot instead.
	GetSlot(ctx context.Context, key SlotKey) (*WorkerDay, error)
	ListSlot(ctx context.Context, key SlotKey) ([]WorkerDay, error)

	// LastPlan returns the approved plan of (employee, date) with parts.
	LastPlan(ctx context.Context, employeeID string, date time.Time) (*WorkerDay, error)

	// OpenFactShifts returns approved fact days started within maxShift
	// before asOf that have a start and no end, newest first.
	OpenFactShifts(ctx context.Context, employeeID string, asOf time.Time, maxShift time.Duration) ([]WorkerDay, error)

	// TimesheetScan yields both graphs of [from, to] ordered by
	// (date, start) for the timesheet calculator.
	TimesheetScan(ctx context.Context, employeeID string, from, to time.Time) ([]WorkerDay, error)

	// ListRange returns rows of the given employees over [from, to];
	// isFact/isApproved filter when non-nil.
	ListRange(ctx context.Context, employeeIDs []string, from, to time.Time, isFact, isApproved *bool) ([]WorkerDay, error)

	// ListShopRange returns all rows of one shop over [from, to].
	ListShopRange(ctx context.Context, shopID string, from, to time.Time) ([]WorkerDay, error)

	// ListVacancies returns unconfirmed vacancy rows of a shop.
	ListVacancies(ctx context.Context, shopID string, from, to time.Time) ([]WorkerDay, error)

	Create(ctx context.Context, wd *WorkerDay) (*WorkerDay, error)
	Update(ctx context.Context, wd *WorkerDay) error
	Delete(ctx context.Context, id string) error

	// ReplaceParts rewrites the work parts of a row.
	ReplaceParts(ctx context.Context, workerDayID string, parts []WorkPart) error

	// DetachChildren clears the parent reference of rows pointing at id.
	DetachChildren(ctx context.Context, id string) error

	// LockSlot takes the row-level lock serializing writers of one
	// (employee, date, is_fact) slot; it must run inside a transaction.
	LockSlot(ctx context.Context, employeeID string, date time.Time, isFact bool) error
}
