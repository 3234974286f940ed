package workhours

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftlab/wfm-backend-go/internal/domain/daytype"
	"github.com/shiftlab/wfm-backend-go/internal/domain/network"
	"github.com/shiftlab/wfm-backend-go/internal/domain/schedule"
)

func workdayType() daytype.DayType {
	return daytype.DayType{Code: daytype.Workday, IsTimeRanged: true}
}

func dttm(day, hour, minute int) time.Time {
	return time.Date(2024, 5, day, hour, minute, 0, 0, time.UTC)
}

func TestCalculate_NightShiftSplit(t *testing.T) {
	// 20:00-08:00 against the default 22:00-06:00 night window.
	res, err := Calculate(Input{
		Start:    dttm(10, 20, 0),
		End:      dttm(11, 8, 0),
		DayType:  workdayType(),
		Settings: network.DefaultSettings(),
	})
	require.NoError(t, err)
	assert.True(t, res.Night.Equal(decimal.NewFromInt(8)), "night = %s", res.Night)
	assert.True(t, res.Day.Equal(decimal.NewFromInt(4)), "day = %s", res.Day)
	assert.True(t, res.Total.Equal(decimal.NewFromInt(12)), "total = %s", res.Total)
}

func TestCalculate_DayShiftNoNight(t *testing.T) {
	res, err := Calculate(Input{
		Start:    dttm(10, 9, 0),
		End:      dttm(10, 18, 0),
		DayType:  workdayType(),
		Settings: network.DefaultSettings(),
	})
	require.NoError(t, err)
	assert.True(t, res.Night.IsZero())
	assert.True(t, res.Total.Equal(decimal.NewFromInt(9)))
}

func TestCalculate_LateArrivalWithinSlackSnapsToPlan(t *testing.T) {
	settings := network.DefaultSettings()
	settings.AllowedLateArrival = 10 * time.Minute

	planStart := dttm(10, 9, 0)
	planEnd := dttm(10, 18, 0)
	res, err := Calculate(Input{
		Start:     dttm(10, 9, 7),
		End:       planEnd,
		DayType:   workdayType(),
		PlanStart: &planStart,
		PlanEnd:   &planEnd,
		Settings:  settings,
	})
	require.NoError(t, err)
	assert.Equal(t, planStart, res.TabelStart)
	assert.True(t, res.Total.Equal(decimal.NewFromInt(9)))
}

func TestCalculate_LateArrivalBeyondSlackIsKept(t *testing.T) {
	settings := network.DefaultSettings()
	settings.AllowedLateArrival = 10 * time.Minute

	planStart := dttm(10, 9, 0)
	res, err := Calculate(Input{
		Start:     dttm(10, 9, 20),
		End:       dttm(10, 18, 0),
		DayType:   workdayType(),
		PlanStart: &planStart,
		Settings:  settings,
	})
	require.NoError(t, err)
	assert.Equal(t, dttm(10, 9, 20), res.TabelStart)
}

func TestCalculate_BreaksComeOutOfDayHours(t *testing.T) {
	settings := network.DefaultSettings()
	settings.Breaks = []network.BreakRule{
		{MinShiftMinutes: 0, MaxShiftMinutes: 360, BreakMinutes: nil},
		{MinShiftMinutes: 360, MaxShiftMinutes: 720, BreakMinutes: []int{30, 15}},
	}

	// 9 hours pre-break, 45 minutes of breaks.
	res, err := Calculate(Input{
		Start:    dttm(10, 9, 0),
		End:      dttm(10, 18, 0),
		DayType:  workdayType(),
		Settings: settings,
	})
	require.NoError(t, err)
	assert.Equal(t, 45, res.BreakMinutes)
	assert.True(t, res.Total.Equal(decimal.NewFromFloat(8.25)), "total = %s", res.Total)
}

func TestCalculate_CropByShopSchedule(t *testing.T) {
	settings := network.DefaultSettings()
	open := network.ClockOf(10, 0)
	close := network.ClockOf(19, 0)
	sched := &schedule.ShopScheduleDay{
		Date:  dttm(10, 0, 0),
		Type:  schedule.TypeWorkday,
		Open:  &open,
		Close: &close,
	}

	res, err := Calculate(Input{
		Start:    dttm(10, 8, 0),
		End:      dttm(10, 20, 0),
		DayType:  workdayType(),
		Schedule: sched,
		Settings: settings,
	})
	require.NoError(t, err)
	assert.Equal(t, dttm(10, 10, 0), res.TabelStart)
	assert.Equal(t, dttm(10, 19, 0), res.TabelEnd)
	assert.True(t, res.Total.Equal(decimal.NewFromInt(9)))
}

func TestCalculate_RoundTheClockShopSkipsCrop(t *testing.T) {
	settings := network.DefaultSettings()
	open := network.ClockOf(10, 0)
	close := network.ClockOf(19, 0)
	sched := &schedule.ShopScheduleDay{
		Date:  dttm(10, 0, 0),
		Type:  schedule.TypeWorkday,
		Open:  &open,
		Close: &close,
	}

	res, err := Calculate(Input{
		Start:             dttm(10, 8, 0),
		End:               dttm(10, 20, 0),
		DayType:           workdayType(),
		Schedule:          sched,
		ShopRoundTheClock: true,
		Settings:          settings,
	})
	require.NoError(t, err)
	assert.Equal(t, dttm(10, 8, 0), res.TabelStart)
	assert.Equal(t, dttm(10, 20, 0), res.TabelEnd)
}

func TestCalculate_AuthoredHoursPassThrough(t *testing.T) {
	res, err := Calculate(Input{
		DayType:   daytype.DayType{Code: daytype.BusinessTrip, IsDayoff: true, IsWorkHours: true},
		WorkHours: decimal.NewFromInt(8),
		Settings:  network.DefaultSettings(),
	})
	require.NoError(t, err)
	assert.True(t, res.Total.Equal(decimal.NewFromInt(8)))
	assert.True(t, res.Day.Equal(decimal.NewFromInt(8)))
	assert.True(t, res.Night.IsZero())
}

func TestCalculate_RoundStep(t *testing.T) {
	settings := network.DefaultSettings()
	settings.RoundStep = 30 * time.Minute

	// 520 minutes rounds down to 510.
	res, err := Calculate(Input{
		Start:    dttm(10, 9, 0),
		End:      dttm(10, 17, 40),
		DayType:  workdayType(),
		Settings: settings,
	})
	require.NoError(t, err)
	assert.True(t, res.Total.Equal(decimal.NewFromFloat(8.5)), "total = %s", res.Total)
}

func TestCalculate_EndBeforeStart(t *testing.T) {
	_, err := Calculate(Input{
		Start:    dttm(10, 18, 0),
		End:      dttm(10, 9, 0),
		DayType:  workdayType(),
		Settings: network.DefaultSettings(),
	})
	assert.Error(t, err)
}

func TestCalculate_ZeroSpan(t *testing.T) {
	res, err := Calculate(Input{
		Start:    dttm(10, 9, 0),
		End:      dttm(10, 9, 0),
		DayType:  workdayType(),
		Settings: network.DefaultSettings(),
	})
	require.NoError(t, err)
	assert.True(t, res.Total.IsZero())
	assert.True(t, res.Day.IsZero())
	assert.True(t, res.Night.IsZero())
}
