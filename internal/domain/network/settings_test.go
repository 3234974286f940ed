package network

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSettings_EmptyYieldsDefaults(t *testing.T) {
	s, err := DecodeSettings(nil)
	require.NoError(t, err)
	assert.True(t, s.CropTabelByShopSchedule)
	assert.Equal(t, 16*time.Hour, s.MaxShift)
	assert.Equal(t, ClockOf(22, 0), s.NightStart)
	assert.Equal(t, ClockOf(6, 0), s.NightEnd)
	assert.Equal(t, 1, s.AccountingPeriodMonths)
	assert.Equal(t, ReductionExact, s.NormReductionAlg)
	assert.Equal(t, 5, s.PrevMonthRecalcDays)
	assert.Equal(t, "default", s.TimesheetDivider)
}

func TestDecodeSettings_FullPayload(t *testing.T) {
	raw := []byte(`{
		"crop_tabel_by_shop_schedule": false,
		"allowed_late_arrival_minutes": 10,
		"allowed_early_departure_minutes": 5,
		"max_shift_seconds": 43200,
		"skip_leaving_tick": true,
		"forbid_ticks_without_employment": true,
		"night_start": "23:00",
		"night_end": "05:30",
		"round_step_minutes": 30,
		"accounting_period_months": 3,
		"norm_reduction_alg": "mean",
		"allow_multiple_wdays": true,
		"prev_month_recalc_days": 10,
		"timesheet_divider": "by_day_type",
		"breaks": [
			{"min_shift_minutes": 0, "max_shift_minutes": 360, "break_minutes": []},
			{"min_shift_minutes": 360, "max_shift_minutes": 720, "break_minutes": [30, 15]}
		]
	}`)
	s, err := DecodeSettings(raw)
	require.NoError(t, err)
	assert.False(t, s.CropTabelByShopSchedule)
	assert.Equal(t, 10*time.Minute, s.AllowedLateArrival)
	assert.Equal(t, 5*time.Minute, s.AllowedEarlyDeparture)
	assert.Equal(t, 12*time.Hour, s.MaxShift)
	assert.True(t, s.SkipLeavingTick)
	assert.True(t, s.ForbidTicksWithoutEmployment)
	assert.Equal(t, ClockOf(23, 0), s.NightStart)
	assert.Equal(t, ClockOf(5, 30), s.NightEnd)
	assert.Equal(t, 30*time.Minute, s.RoundStep)
	assert.Equal(t, 3, s.AccountingPeriodMonths)
	assert.Equal(t, ReductionMean, s.NormReductionAlg)
	assert.True(t, s.AllowMultipleWdays)
	assert.Equal(t, 10, s.PrevMonthRecalcDays)
	assert.Equal(t, "by_day_type", s.TimesheetDivider)
	assert.Len(t, s.Breaks, 2)
}

func TestDecodeSettings_RejectsBadAccountingPeriod(t *testing.T) {
	_, err := DecodeSettings([]byte(`{"accounting_period_months": 4}`))
	assert.Error(t, err)
}

func TestDecodeSettings_RejectsUnknownReductionAlg(t *testing.T) {
	_, err := DecodeSettings([]byte(`{"norm_reduction_alg": "median"}`))
	assert.Error(t, err)
}

func TestDecodeSettings_RejectsBadClock(t *testing.T) {
	_, err := DecodeSettings([]byte(`{"night_start": "25:00"}`))
	assert.Error(t, err)
}

func TestDecodeSettings_RejectsGappyBreakTable(t *testing.T) {
	_, err := DecodeSettings([]byte(`{"breaks": [
		{"min_shift_minutes": 60, "max_shift_minutes": 120, "break_minutes": [10]}
	]}`))
	assert.Error(t, err)
}

func TestAccountingPeriodStart(t *testing.T) {
	cases := []struct {
		months    int
		month     time.Month
		wantMonth time.Month
	}{
		{1, time.May, time.May},
		{3, time.May, time.April},
		{3, time.December, time.October},
		{6, time.August, time.July},
		{12, time.November, time.January},
	}
	for _, c := range cases {
		s := DefaultSettings()
		s.AccountingPeriodMonths = c.months
		y, m := s.AccountingPeriodStart(2024, c.month)
		assert.Equal(t, 2024, y)
		assert.Equal(t, c.wantMonth, m, "period %d, month %s", c.months, c.month)
	}
}

func TestBreaksFor(t *testing.T) {
	s := DefaultSettings()
	s.Breaks = []BreakRule{
		{MinShiftMinutes: 0, MaxShiftMinutes: 360, BreakMinutes: nil},
		{MinShiftMinutes: 360, MaxShiftMinutes: 720, BreakMinutes: []int{30, 15}},
	}

	assert.Nil(t, s.BreaksFor(0))
	assert.Nil(t, s.BreaksFor(359))
	assert.Equal(t, []int{30, 15}, s.BreaksFor(360))
	// Past the covered range the last rule applies.
	assert.Equal(t, []int{30, 15}, s.BreaksFor(900))
	assert.Equal(t, 45, s.TotalBreakMinutes(540))
	assert.Equal(t, 0, s.TotalBreakMinutes(120))
}

func TestClockAt(t *testing.T) {
	d := time.Date(2024, 5, 10, 15, 45, 0, 0, time.UTC)
	at := ClockOf(22, 30).At(d)
	assert.Equal(t, time.Date(2024, 5, 10, 22, 30, 0, 0, time.UTC), at)
	assert.Equal(t, "22:30", ClockOf(22, 30).String())
}
