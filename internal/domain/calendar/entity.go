package calendar

import (
	"time"

	"github.com/shopspring/decimal"
)

// Production day kinds.
const (
	KindWork      = "W"
	KindShortWork = "SW"
	KindHoliday   = "H"
)

// ProductionDay is one date of a region's production calendar.
type ProductionDay struct {
	ID        string
	RegionID  string
	Date      time.Time
	Kind      string
	NormHours decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Region is a node of the region tree. Calendar lookups fall back from a
// leaf to its ancestors.
type Region struct {
	ID       string
	ParentID *string
	Name     string
}

// DefaultNormHours returns the norm for a kind when the calendar row does
// not carry an explicit figure.
func DefaultNormHours(kind string) decimal.Decimal {
	switch kind {
	case KindWork:
		return decimal.NewFromInt(8)
	case KindShortWork:
		return decimal.NewFromInt(7)
	default:
		return decimal.Zero
	}
}
