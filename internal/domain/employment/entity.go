package employment

import (
	"time"
)

// Shop is a read-only catalog entry of the organizational directory.
type Shop struct {
	ID        string
	NetworkID string
	Code      *string
	Name      string
	RegionID  string
	// IsRoundTheClock disables tabel cropping by shop schedule.
	IsRoundTheClock bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Position carries the weekly hours used to scale monthly norms and the
// default work type applied to new worker days.
type Position struct {
	ID                  string
	NetworkID           string
	Name                string
	HoursInAWeek        float64
	DefaultWorkTypeName *string
}

// Employment is an employee's engagement at a shop over [HiredAt, FiredAt].
// An employee may hold several overlapping employments; worker days bind to
// one chosen by the priority rule in priority.go.
type Employment struct {
	ID              string
	NetworkID       string
	Code            *string
	EmployeeID      string
	UserID          string
	ShopID          string
	PositionID      *string
	FunctionGroupID string
	HiredAt         time.Time
	FiredAt         *time.Time
	// NormWorkHours is the rate in percent (100 = full rate).
	NormWorkHours float64
	IsVisible     bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ActiveOn reports whether the employment covers date d.
func (e Employment) ActiveOn(d time.Time) bool {
	d = d.Truncate(24 * time.Hour)
	if d.Before(e.HiredAt.Truncate(24 * time.Hour)) {
		return false
	}
	if e.FiredAt != nil && d.After(e.FiredAt.Truncate(24*time.Hour)) {
		return false
	}
	return true
}

// Overlap clips the employment interval to [from, to] and returns the
// covered sub-interval, or ok=false when disjoint.
func (e Employment) Overlap(from, to time.Time) (time.Time, time.Time, bool) {
	lo := e.HiredAt
	if from.After(lo) {
		lo = from
	}
	hi := to
	if e.FiredAt != nil && e.FiredAt.Before(hi) {
		hi = *e.FiredAt
	}
	if hi.Before(lo) {
		return time.Time{}, time.Time{}, false
	}
	return lo, hi, true
}
