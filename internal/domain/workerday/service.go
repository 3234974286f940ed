package workerday

import (
	"context"
	"time"
)

// Service is the batch service, the single writer path for worker days.
// All operations are transactional and idempotent on identical input.
type Service interface {
	// Upsert creates or updates the not-approved row of a slot.
	Upsert(ctx context.Context, actor Actor, req UpsertRequest) (*WorkerDay, error)

	// Approve atomically replaces approved rows with their working copies
	// over a range, honoring the permission gate per day.
	Approve(ctx context.Context, actor Actor, req ApproveRequest) (ApproveResult, error)

	// Delete removes a not-approved row, detaching dependent children.
	Delete(ctx context.Context, actor Actor, id string) error

	// Exchange swaps worker days between two employees day by day,
	// all-or-nothing.
	Exchange(ctx context.Context, actor Actor, req ExchangeRequest) error

	// Duplicate copies a source day set onto target employee and dates.
	Duplicate(ctx context.Context, actor Actor, req DuplicateRequest) (int, error)

	// CopyApproved overwrites the not-approved graph from the approved
	// graph under the PP/PF/FF mode.
	CopyApproved(ctx context.Context, actor Actor, req CopyApprovedRequest) (int, error)

	// CopyRange copies a source window onto a target window, index-aligned.
	CopyRange(ctx context.Context, actor Actor, req CopyRangeRequest) (int, error)

	// ChangeRange makes every date of each range a single row of the given
	// day type and reports created/updated/deleted/existing counts.
	ChangeRange(ctx context.Context, actor Actor, req ChangeRangeRequest) ([]ChangeRangeResult, error)

	// BatchUpdateOrCreate applies a diff under scope filters; dry runs
	// return stats without writing.
	BatchUpdateOrCreate(ctx context.Context, actor Actor, req BatchUpdateRequest) (BatchStats, error)

	// ConfirmVacancy binds an open vacancy to an employee and removes the
	// employee's conflicting holiday on the same date.
	ConfirmVacancy(ctx context.Context, actor Actor, req ConfirmVacancyRequest) (*WorkerDay, error)

	// RecalcHours recomputes tabel times and the day/night split for every
	// day of one shop over [from, to], e.g. after a settings or schedule
	// change. Returns the number of updated rows.
	RecalcHours(ctx context.Context, shopID string, from, to time.Time) (int, error)
}
