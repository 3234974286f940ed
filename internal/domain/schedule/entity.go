package schedule

import (
	"time"

	"github.com/shiftlab/wfm-backend-go/internal/domain/network"
)

// Shop schedule day types.
const (
	TypeWorkday = "W"
	TypeHoliday = "H"
)

// ShopScheduleDay is one dated open/close entry of a shop. Per-date rows
// override the weekly default.
type ShopScheduleDay struct {
	ID        string
	ShopID    string
	Date      time.Time
	Type      string
	Open      *network.Clock
	Close     *network.Clock
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsHoliday reports whether the shop is closed on this date.
func (d ShopScheduleDay) IsHoliday() bool {
	return d.Type == TypeHoliday || d.Open == nil || d.Close == nil
}

// WeeklySchedule is the default open/close per weekday used to extend the
// per-date schedule forward.
type WeeklySchedule struct {
	ShopID string
	Days   map[time.Weekday]WeeklyDay
}

// WeeklyDay is one weekday of the default schedule.
type WeeklyDay struct {
	Type  string
	Open  *network.Clock
	Close *network.Clock
}

// DayFor materializes the schedule entry for date from the weekly default.
func (w WeeklySchedule) DayFor(date time.Time) ShopScheduleDay {
	d, ok := w.Days[date.Weekday()]
	if !ok {
		return ShopScheduleDay{ShopID: w.ShopID, Date: date, Type: TypeHoliday}
	}
	return ShopScheduleDay{
		ShopID: w.ShopID,
		Date:   date,
		Type:   d.Type,
		Open:   d.Open,
		Close:  d.Close,
	}
}
