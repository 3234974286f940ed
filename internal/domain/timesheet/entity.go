package timesheet

import (
	"time"

	"github.com/shopspring/decimal"
)

// Timesheet types: the fact sheet is derived from plan+fact; main and
// additional are produced from it by a divider strategy.
type SheetType string

const (
	SheetFact       SheetType = "F"
	SheetMain       SheetType = "M"
	SheetAdditional SheetType = "A"
)

// Item sources.
type Source string

const (
	SourceFact   Source = "F"
	SourcePlan   Source = "P"
	SourceSystem Source = "S"
)

// Item is one derived fiscal row. For each (employee, date, sheet type)
// the items partition the day by work type.
type Item struct {
	ID           string
	NetworkID    string
	EmployeeID   string
	ShopID       *string
	PositionID   *string
	WorkTypeName string
	Date         time.Time
	DayType      string
	SheetType    SheetType
	Source       Source
	DayHours     decimal.Decimal
	NightHours   decimal.Decimal
	Start        *time.Time
	End          *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TotalHours is day plus night.
func (it Item) TotalHours() decimal.Decimal {
	return it.DayHours.Add(it.NightHours)
}
