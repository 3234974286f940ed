package attendance

import (
	"time"
)

// Tick types as delivered by the attendance vendor.
type TickType string

const (
	TickComing      TickType = "C"
	TickLeaving     TickType = "L"
	TickUnspecified TickType = "U"
)

// Record is one raw attendance mark. Immutable once persisted; corrections
// append new records. Date is the logical date derived by the reconciler,
// not the calendar date of Dttm.
type Record struct {
	ID         string
	NetworkID  string
	ShopID     string
	UserID     string
	EmployeeID *string
	Dttm       time.Time
	Date       time.Time
	Type       TickType
	// WorkerDayID is the fact day this record resolved into.
	WorkerDayID *string
	CreatedAt   time.Time
}
