package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shiftlab/wfm-backend-go/internal/domain/network"
)

func TestShopScheduleDay_IsHoliday(t *testing.T) {
	open := network.ClockOf(9, 0)
	close := network.ClockOf(21, 0)

	assert.False(t, ShopScheduleDay{Type: TypeWorkday, Open: &open, Close: &close}.IsHoliday())
	assert.True(t, ShopScheduleDay{Type: TypeHoliday, Open: &open, Close: &close}.IsHoliday())
	// A workday without hours is effectively closed.
	assert.True(t, ShopScheduleDay{Type: TypeWorkday, Open: &open}.IsHoliday())
}

func TestWeeklySchedule_DayFor(t *testing.T) {
	open := network.ClockOf(10, 0)
	close := network.ClockOf(20, 0)
	weekly := WeeklySchedule{
		ShopID: "s1",
		Days: map[time.Weekday]WeeklyDay{
			time.Monday: {Type: TypeWorkday, Open: &open, Close: &close},
		},
	}

	monday := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	d := weekly.DayFor(monday)
	assert.Equal(t, "s1", d.ShopID)
	assert.Equal(t, monday, d.Date)
	assert.Equal(t, TypeWorkday, d.Type)
	assert.Equal(t, &open, d.Open)

	// Weekdays absent from the default are holidays.
	sunday := time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC)
	assert.True(t, weekly.DayFor(sunday).IsHoliday())
}
