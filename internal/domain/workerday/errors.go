package workerday

import (
	"errors"
	"fmt"
	"time"
)

// Worker-day domain errors.
var (
	ErrNotFound              = errors.New("worker day not found")
	ErrApprovedImmutable     = errors.New("approved worker day cannot be modified directly")
	ErrDeleteApproved        = errors.New("approved worker day cannot be deleted through the standard path")
	ErrBlocked               = errors.New("worker day is blocked")
	ErrSlotOccupied          = errors.New("another worker day already occupies the slot")
	ErrVacancyNotOutsource   = errors.New("vacancy does not accept outsourced employees")
	ErrVacancyAlreadyTaken   = errors.New("vacancy is already confirmed")
	ErrNothingToApprove      = errors.New("no unapproved version to approve")
)

// ValidationError is a single-field invariant violation. No state change
// accompanies it.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// PermissionError reports the restrictive day type, the permitted window,
// and the failing date, per the precise-rejection rule.
type PermissionError struct {
	GroupID     string
	Action      Action
	IsFact      bool
	DayType     string
	WindowFrom  time.Time
	WindowTo    time.Time
	FailingDate time.Time
}

func (e *PermissionError) Error() string {
	if e.WindowFrom.IsZero() && e.WindowTo.IsZero() {
		return fmt.Sprintf("no permission for action %s on day type %s", e.Action, e.DayType)
	}
	return fmt.Sprintf(
		"date %s is outside the permitted window [%s, %s] for day type %s",
		e.FailingDate.Format("2006-01-02"),
		e.WindowFrom.Format("2006-01-02"),
		e.WindowTo.Format("2006-01-02"),
		e.DayType,
	)
}

// ConflictError carries the id of the conflicting approved row.
type ConflictError struct {
	ConflictingID string
	Message       string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s (conflicting worker day %s)", e.Message, e.ConflictingID)
}
